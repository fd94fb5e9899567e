package server

import (
	"bytes"
	"context"
	"net/http"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/tracklift/internal/models"
	"github.com/desertthunder/tracklift/internal/services"
	"github.com/desertthunder/tracklift/internal/web"
	"golang.org/x/sync/errgroup"
)

// ExtensionState marks an authorization started by the agent rather than a browser visit to /login.
const ExtensionState = "extension"

// TopTrackLimit is how many top tracks the profile view lists.
const TopTrackLimit = 10

// CallbackHandler completes the authorization code flow for both login entry points.
type CallbackHandler struct {
	broker  Broker
	profile Profile
	logger  *log.Logger
}

// NewCallbackHandler creates a [CallbackHandler].
func NewCallbackHandler(broker Broker, profile Profile, logger *log.Logger) *CallbackHandler {
	return &CallbackHandler{broker: broker, profile: profile, logger: logger.WithPrefix("callback")}
}

// Routes returns the HTTP routes this handler serves.
func (h *CallbackHandler) Routes() []string {
	return []string{"/callback"}
}

// ServeHTTP exchanges the code and renders either the confirmation page or the profile view.
func (h *CallbackHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	state, code := query.Get("state"), query.Get("code")

	if code == "" {
		h.logger.Warn("authorization denied", "error", query.Get("error"), "description", query.Get("error_description"))
		http.Error(w, "Error during Spotify callback", http.StatusInternalServerError)
		return
	}

	if err := h.broker.Exchange(r.Context(), state, code); err != nil {
		h.logger.Error("exchange failed", "error", err)
		http.Error(w, "Error during Spotify callback", http.StatusInternalServerError)
		return
	}

	var buf bytes.Buffer
	if state == ExtensionState {
		if err := web.RenderLinked(&buf); err != nil {
			h.logger.Error("render failed", "error", err)
			http.Error(w, "Error during Spotify callback", http.StatusInternalServerError)
			return
		}
		writeHTML(w, buf.Bytes())
		return
	}

	view, err := loadProfile(r.Context(), h.profile)
	if err == nil {
		err = web.RenderProfile(&buf, view)
	}
	if err != nil {
		h.logger.Error("profile view failed", "error", err)
		http.Error(w, "Error during Spotify callback", http.StatusInternalServerError)
		return
	}
	writeHTML(w, buf.Bytes())
}

// loadProfile fetches the user and their top tracks concurrently.
func loadProfile(ctx context.Context, profile Profile) (web.ProfileView, error) {
	var (
		user   *services.SpotifyUser
		tracks []models.CatalogTrack
	)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		user, err = profile.UserProfile(ctx)
		return err
	})
	g.Go(func() (err error) {
		tracks, err = profile.TopTracks(ctx, TopTrackLimit)
		return err
	})
	if err := g.Wait(); err != nil {
		return web.ProfileView{}, err
	}

	name := user.DisplayName
	if name == "" {
		name = user.ID
	}
	return web.ProfileView{Name: name, Tracks: tracks}, nil
}

func writeHTML(w http.ResponseWriter, body []byte) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	w.Write(body)
}
