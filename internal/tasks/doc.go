// Package tasks resolves loosely specified (title, artist) pairs to catalog entries and appends them to playlists.
//
// # Matching
//
// [Matcher.AddTrack] builds a field-filtered search query:
//
//	track:"<title>" artist:"<artist>"   when an artist is known
//	track:"<title>"                     otherwise
//
// and takes the provider's first result as the match. There is no scoring and no
// fallback query. An empty result is [shared.ErrTrackNotFound].
//
// # Playlist Writes
//
// The matched URI is appended with a single call and no prior membership check, so
// repeating an action appends the track again. Nothing is retried; a failed write is
// reported to the caller as is.
//
// # Rate Limiting
//
// Every catalog call waits on a shared [rate.Limiter] so bursts of clicks on a long
// page stay under the provider's limits.
package tasks
