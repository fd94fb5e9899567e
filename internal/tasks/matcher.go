package tasks

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/tracklift/internal/models"
	"github.com/desertthunder/tracklift/internal/services"
	"github.com/desertthunder/tracklift/internal/shared"
	"golang.org/x/time/rate"
)

// MatcherOpts configures a [Matcher].
type MatcherOpts struct {
	DefaultPlaylistID string  // Used when a request names no playlist
	RateLimit         float64 // Catalog requests per second (default: 5)
	Logger            *log.Logger
}

// Matcher turns an [models.AddTrackRequest] into a playlist append.
type Matcher struct {
	catalog         services.Catalog
	defaultPlaylist string
	limiter         *rate.Limiter
	logger          *log.Logger
}

// NewMatcher creates a [Matcher] over catalog.
func NewMatcher(catalog services.Catalog, opts MatcherOpts) *Matcher {
	if opts.RateLimit <= 0 {
		opts.RateLimit = 5.0
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}

	return &Matcher{
		catalog:         catalog,
		defaultPlaylist: opts.DefaultPlaylistID,
		limiter:         rate.NewLimiter(rate.Limit(opts.RateLimit), 1),
		logger:          opts.Logger.WithPrefix("matcher"),
	}
}

// BuildQuery returns the search query for a title and optional artist.
func BuildQuery(title, artist string) string {
	title = shared.NormalizeText(title)
	artist = shared.NormalizeText(artist)

	if artist == "" {
		return fmt.Sprintf("track:%q", title)
	}
	return fmt.Sprintf("track:%q artist:%q", title, artist)
}

// AddTrack resolves the request to the first catalog match and appends it to the target playlist.
//
// The target is the request's playlist, else the configured default.
func (m *Matcher) AddTrack(ctx context.Context, req models.AddTrackRequest) (*models.AddResult, error) {
	if strings.TrimSpace(req.TrackName) == "" {
		return nil, fmt.Errorf("%w: trackName", shared.ErrMissingArgument)
	}

	playlistID := strings.TrimSpace(req.PlaylistID)
	if playlistID == "" {
		playlistID = m.defaultPlaylist
	}
	if playlistID == "" {
		return nil, fmt.Errorf("%w: playlistId", shared.ErrMissingArgument)
	}

	query := BuildQuery(req.TrackName, req.ArtistName)
	logger := m.logger.With("query", query, "playlist", playlistID)

	if err := m.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	tracks, err := m.catalog.SearchTracks(ctx, query, 1)
	if err != nil {
		logger.Error("search failed", "error", err)
		return nil, err
	}
	if len(tracks) == 0 {
		logger.Info("no match")
		return nil, fmt.Errorf("%w for %s", shared.ErrTrackNotFound, describe(req))
	}

	match := tracks[0]

	if err := m.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	if err := m.catalog.AddToPlaylist(ctx, playlistID, match.URI); err != nil {
		logger.Error("playlist append failed", "uri", match.URI, "error", err)
		return nil, err
	}

	logger.Info("track added", "uri", match.URI, "name", match.Name)

	artists := match.Artists
	if artists == nil {
		artists = []string{}
	}
	return &models.AddResult{
		MatchedTrackURI:    match.URI,
		MatchedTrackName:   match.Name,
		MatchedArtistNames: artists,
	}, nil
}

func describe(req models.AddTrackRequest) string {
	title := shared.NormalizeText(req.TrackName)
	artist := shared.NormalizeText(req.ArtistName)
	if artist == "" {
		return fmt.Sprintf("%q", title)
	}
	return fmt.Sprintf("%q by %q", title, artist)
}
