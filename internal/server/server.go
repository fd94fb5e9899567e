package server

import (
	"context"
	"net/http"

	"github.com/desertthunder/tracklift/internal/models"
	"github.com/desertthunder/tracklift/internal/services"
)

// Middleware wraps an http.Handler and returns a new http.Handler with additional behavior.
type Middleware func(http.Handler) http.Handler

// Handler is an [http.Handler] that owns a set of routes.
type Handler interface {
	http.Handler      // ServeHTTP handles the HTTP request and writes the response
	Routes() []string // Routes returns the path patterns this handler serves
}

// Router defines the interface for HTTP routing and middleware management.
type Router interface {
	Use(middleware ...Middleware)                     // Use adds middleware to the router's middleware stack
	Handle(method, path string, handler http.Handler) // Handle registers a handler for the specified method and path
	Handler(handler Handler)                          // Handler registers a custom Handler implementation
	ServeHTTP(w http.ResponseWriter, r *http.Request) // ServeHTTP implements http.Handler for the entire router
}

// Broker is the part of the session broker the HTTP surface drives.
type Broker interface {
	StartLogin(state string) string
	Exchange(ctx context.Context, state, code string) error
	Status() models.SessionStatus
}

// Profile reads the signed-in user's catalog account.
type Profile interface {
	UserProfile(ctx context.Context) (*services.SpotifyUser, error)
	TopTracks(ctx context.Context, limit int) ([]models.CatalogTrack, error)
}

// TrackAdder resolves and appends a track to a playlist.
type TrackAdder interface {
	AddTrack(ctx context.Context, req models.AddTrackRequest) (*models.AddResult, error)
}

// History looks up station plays.
type History interface {
	SongsByDate(ctx context.Context, date string) ([]models.PlayedSong, error)
}
