// package agent implements the bus handler that owns settings and relays to the backend
package agent

import (
	"context"
	"errors"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/tracklift/internal/models"
	"github.com/desertthunder/tracklift/internal/shared"
)

// ErrNoPlaylist is returned by AddTrack until a target playlist is saved.
var ErrNoPlaylist = errors.New("set a target playlist ID in the popup first")

// SettingsStore loads and merges the agent's settings.
type SettingsStore interface {
	Load(ctx context.Context) (models.Settings, error)
	Save(ctx context.Context, patch models.SettingsPatch) (models.Settings, error)
}

// Backend is the agent's view of the backend HTTP API.
type Backend interface {
	Session(ctx context.Context) (*models.SessionStatus, error)
	Login(ctx context.Context) (string, error)
	AddTrack(ctx context.Context, req models.AddTrackRequest) (*models.AddResult, error)
}

// Options configures an [Agent].
type Options struct {
	OpenURL func(url string) error // Opens the authorization page (default: [shared.OpenBrowser])
	Logger  *log.Logger
}

// Agent answers bus requests. It never holds a credential.
type Agent struct {
	store   SettingsStore
	backend Backend
	openURL func(string) error
	logger  *log.Logger
}

// New creates an [Agent].
func New(store SettingsStore, backend Backend, opts Options) *Agent {
	if opts.OpenURL == nil {
		opts.OpenURL = shared.OpenBrowser
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	return &Agent{
		store:   store,
		backend: backend,
		openURL: opts.OpenURL,
		logger:  opts.Logger.WithPrefix("agent"),
	}
}

func (a *Agent) GetSettings(ctx context.Context) (models.Settings, error) {
	return a.store.Load(ctx)
}

func (a *Agent) SetSettings(ctx context.Context, patch models.SettingsPatch) (models.Settings, error) {
	s, err := a.store.Save(ctx, patch)
	if err != nil {
		return s, err
	}
	a.logger.Info("settings saved", "backend", s.BackendBaseURL, "playlist", s.PlaylistID)
	return s, nil
}

// GetSession never fails: any problem reaching the backend is reported as unauthenticated.
func (a *Agent) GetSession(ctx context.Context) (models.SessionStatus, error) {
	status, err := a.backend.Session(ctx)
	if err != nil {
		a.logger.Debug("session check failed", "error", err)
		return models.SessionStatus{Authenticated: false, Error: err.Error()}, nil
	}
	return *status, nil
}

// StartLogin asks the backend for an authorization URL and opens it.
func (a *Agent) StartLogin(ctx context.Context) (models.LoginStarted, error) {
	authorizeURL, err := a.backend.Login(ctx)
	if err != nil {
		return models.LoginStarted{}, err
	}

	if err := a.openURL(authorizeURL); err != nil {
		a.logger.Warn("could not open browser; visit the URL manually", "url", authorizeURL, "error", err)
	}
	return models.LoginStarted{Started: true, AuthorizeURL: authorizeURL}, nil
}

// AddTrack forwards the track to the backend with the saved target playlist.
func (a *Agent) AddTrack(ctx context.Context, track models.Track) (*models.AddResult, error) {
	s, err := a.store.Load(ctx)
	if err != nil {
		return nil, err
	}
	if s.PlaylistID == "" {
		return nil, ErrNoPlaylist
	}

	logger := a.logger.With("track", track.TrackName, "artist", track.ArtistName)
	result, err := a.backend.AddTrack(ctx, models.AddTrackRequest{
		TrackName:  track.TrackName,
		ArtistName: track.ArtistName,
		PlaylistID: s.PlaylistID,
	})
	if err != nil {
		logger.Warn("add failed", "error", err)
		return nil, err
	}

	logger.Info("added", "uri", result.MatchedTrackURI)
	return result, nil
}
