// package services defines the HTTP clients tracklift uses to reach the catalog provider and the backend
package services

import (
	"context"

	"github.com/desertthunder/tracklift/internal/models"
)

// Catalog is the slice of the provider API the matcher needs.
type Catalog interface {
	// SearchTracks runs a free-text track search and returns at most limit results in provider order.
	SearchTracks(ctx context.Context, query string, limit int) ([]models.CatalogTrack, error)

	// AddToPlaylist appends the given track URIs to the end of a playlist.
	AddToPlaylist(ctx context.Context, playlistID string, uris ...string) error
}

// TokenSource hands out a currently valid access token.
//
// The session broker implements it; each catalog request asks for a token anew.
type TokenSource interface {
	EnsureValidToken(ctx context.Context) (string, error)
}

// SettingsSource yields the agent's current settings.
type SettingsSource interface {
	Load(ctx context.Context) (models.Settings, error)
}
