// Package services implements the outbound HTTP clients.
//
// # Spotify
//
// [SpotifyService] wraps the parts of the Spotify Web API tracklift uses: the current
// user's profile and top tracks, track search and playlist appends. It never stores a
// token. Every request asks its [TokenSource] for one, so refresh timing stays the
// session broker's concern.
//
// [NewSpotifyOAuthConfig] builds the [oauth2.Config] the broker drives, with the fixed
// scope set:
//
//	user-read-private user-read-email user-top-read playlist-modify-public playlist-modify-private
//
// # Backend
//
// [BackendClient] is how the agent reaches the backend. The base URL comes from the
// agent's settings and is re-read on every call, so a saved change applies to the next
// request without a restart.
//
// # Error Handling
//
// Non-2xx provider responses wrap [shared.ErrAPIRequest] with the status and the
// provider's message. Backend failures surface the backend's own `{error}` text, or
// "request failed with status N" when the body carries none.
package services
