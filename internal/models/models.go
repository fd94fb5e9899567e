// package models defines the data model shared by the agent, scanner, and backend
package models

import (
	"time"

	"github.com/desertthunder/tracklift/internal/shared"
)

// DefaultBackendBaseURL is used until the user saves a different backend.
const DefaultBackendBaseURL = "http://localhost:3000"

// Settings is the agent's durable configuration.
type Settings struct {
	BackendBaseURL string `json:"backendBaseUrl"`
	PlaylistID     string `json:"playlistId"`
}

// DefaultSettings returns the values used for any field that was never saved.
func DefaultSettings() Settings {
	return Settings{BackendBaseURL: DefaultBackendBaseURL, PlaylistID: ""}
}

// SettingsPatch carries the fields a caller wants to overwrite; nil fields are preserved.
type SettingsPatch struct {
	BackendBaseURL *string `json:"backendBaseUrl,omitempty"`
	PlaylistID     *string `json:"playlistId,omitempty"`
}

// Track is a song/artist pair as found in a scanned document.
type Track struct {
	TrackName  string `json:"trackName"`
	ArtistName string `json:"artistName"`
}

// Key returns the case-insensitive composite identity of the pair.
func (t Track) Key() string {
	return shared.NormalizeTrackKey(t.TrackName, t.ArtistName)
}

// Session is the backend's OAuth credential set.
type Session struct {
	AccessToken  string
	RefreshToken string
	ExpiresAt    time.Time
}

// ExpiresAtMillis returns the expiry as epoch milliseconds.
func (s Session) ExpiresAtMillis() int64 {
	return s.ExpiresAt.UnixMilli()
}

// User is the catalog account behind a [Session].
type User struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
	Email       string `json:"email,omitempty"`
}

// SessionStatus is the response of GET /api/session and the GET_SESSION message.
type SessionStatus struct {
	Authenticated  bool   `json:"authenticated"`
	User           *User  `json:"user,omitempty"`
	TokenExpiresAt *int64 `json:"tokenExpiresAt,omitempty"`
	Error          string `json:"error,omitempty"`
}

// LoginStarted is the response of the START_LOGIN message.
type LoginStarted struct {
	Started      bool   `json:"started"`
	AuthorizeURL string `json:"authorizeUrl"`
}

// AddTrackRequest is the body of POST /api/add-track.
type AddTrackRequest struct {
	TrackName  string `json:"trackName"`
	ArtistName string `json:"artistName"`
	PlaylistID string `json:"playlistId"`
}

// AddResult describes the catalog entry that was appended to the playlist.
type AddResult struct {
	MatchedTrackURI    string   `json:"matchedTrackUri"`
	MatchedTrackName   string   `json:"matchedTrackName"`
	MatchedArtistNames []string `json:"matchedArtistNames"`
}

// PlayedSong is one row of station play history.
type PlayedSong struct {
	Artist    string    `json:"artist"`
	SongTitle string    `json:"song_title"`
	Album     string    `json:"album"`
	ImageURL  string    `json:"image_url"`
	PlayedAt  time.Time `json:"played_at"`
}

// CatalogTrack is a provider track reduced to what matching and display need.
type CatalogTrack struct {
	URI     string   `json:"uri"`
	Name    string   `json:"name"`
	Artists []string `json:"artists"`
	Album   string   `json:"album,omitempty"`
}
