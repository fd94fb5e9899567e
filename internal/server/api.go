package server

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/tracklift/internal/models"
	"github.com/desertthunder/tracklift/internal/session"
	"github.com/desertthunder/tracklift/internal/shared"
	"github.com/desertthunder/tracklift/internal/web"
)

// API serves the backend routes used by the agent and by a browser.
type API struct {
	broker  Broker
	profile Profile
	adder   TrackAdder
	history History
	logger  *log.Logger
}

// APIOpts holds the dependencies of an [API]. History may be nil, which disables /songs.
type APIOpts struct {
	Broker  Broker
	Profile Profile
	Adder   TrackAdder
	History History
	Logger  *log.Logger
}

// NewAPI creates an [API].
func NewAPI(opts APIOpts) *API {
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	return &API{
		broker:  opts.Broker,
		profile: opts.Profile,
		adder:   opts.Adder,
		history: opts.History,
		logger:  opts.Logger,
	}
}

// NewRouter builds the backend's router with logging and panic recovery on every route.
func NewRouter(api *API) *BasicRouter {
	r := NewBasicRouter()
	r.Use(Logging(api.logger), Recover(api.logger))
	api.Register(r)
	return r
}

// Register adds every backend route to r.
func (a *API) Register(r Router) {
	r.Handle(http.MethodGet, "/api/session", http.HandlerFunc(a.Session))
	r.Handle(http.MethodGet, "/api/login", http.HandlerFunc(a.APILogin))
	r.Handle(http.MethodPost, "/api/add-track", http.HandlerFunc(a.AddTrack))
	r.Handle(http.MethodGet, "/login", http.HandlerFunc(a.Login))
	r.Handle(http.MethodGet, "/top-tracks", http.HandlerFunc(a.TopTracks))
	r.Handle(http.MethodGet, "/wakeup", http.HandlerFunc(a.Wakeup))
	if a.history != nil {
		r.Handle(http.MethodGet, "/songs/{date}", http.HandlerFunc(a.Songs))
	}
	r.Handler(NewCallbackHandler(a.broker, a.profile, a.logger))
}

// Session reports the session state. It always answers 200.
func (a *API) Session(w http.ResponseWriter, r *http.Request) {
	status := a.broker.Status()
	if !status.Authenticated {
		writeJSON(w, http.StatusOK, status)
		return
	}

	user, err := a.profile.UserProfile(r.Context())
	if err != nil {
		a.logger.Warn("profile lookup failed", "error", err)
		writeJSON(w, http.StatusOK, models.SessionStatus{Authenticated: false, Error: err.Error()})
		return
	}

	u := user.User()
	status.User = &u
	writeJSON(w, http.StatusOK, status)
}

// APILogin returns the authorize URL for an agent-initiated login.
func (a *API) APILogin(w http.ResponseWriter, r *http.Request) {
	url := a.broker.StartLogin(ExtensionState)
	writeJSON(w, http.StatusOK, map[string]string{"authorizeUrl": url})
}

// Login redirects a browser to the provider with a fresh random state.
func (a *API) Login(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, a.broker.StartLogin(""), http.StatusFound)
}

// AddTrack resolves the posted track and appends it to the playlist.
func (a *API) AddTrack(w http.ResponseWriter, r *http.Request) {
	var req models.AddTrackRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, 1<<20)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	result, err := a.adder.AddTrack(r.Context(), req)
	if err != nil {
		writeError(w, addTrackStatus(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func addTrackStatus(err error) int {
	switch {
	case errors.Is(err, shared.ErrMissingArgument):
		return http.StatusBadRequest
	case session.IsAuthError(err):
		return http.StatusUnauthorized
	case errors.Is(err, shared.ErrTrackNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// TopTracks renders the signed-in user's top tracks.
func (a *API) TopTracks(w http.ResponseWriter, r *http.Request) {
	var buf bytes.Buffer
	view, err := loadProfile(r.Context(), a.profile)
	if err == nil {
		view.Title = "Top Tracks"
		err = web.RenderProfile(&buf, view)
	}

	switch {
	case session.IsAuthError(err):
		http.Error(w, "Not authenticated, visit /login first", http.StatusUnauthorized)
	case err != nil:
		a.logger.Error("top tracks failed", "error", err)
		http.Error(w, "Error fetching or rendering top tracks", http.StatusInternalServerError)
	default:
		writeHTML(w, buf.Bytes())
	}
}

// Songs lists the station plays on /songs/{date}.
func (a *API) Songs(w http.ResponseWriter, r *http.Request) {
	songs, err := a.history.SongsByDate(r.Context(), r.PathValue("date"))
	if err != nil {
		a.logger.Error("history lookup failed", "error", err)
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string][]models.PlayedSong{"data": songs})
}

// Wakeup answers keep-alive pings.
func (a *API) Wakeup(w http.ResponseWriter, r *http.Request) {
	io.WriteString(w, "Waking up...")
}
