package agent

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/desertthunder/tracklift/internal/bus"
	"github.com/desertthunder/tracklift/internal/models"
	"github.com/desertthunder/tracklift/internal/services"
	"github.com/desertthunder/tracklift/internal/settings"
	"github.com/desertthunder/tracklift/internal/shared"
)

// fakeBackend mimics the backend routes the agent calls.
func fakeBackend(t *testing.T, authenticated bool) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/session", func(w http.ResponseWriter, r *http.Request) {
		if !authenticated {
			json.NewEncoder(w).Encode(models.SessionStatus{Authenticated: false, Error: "not authenticated"})
			return
		}
		json.NewEncoder(w).Encode(models.SessionStatus{Authenticated: true, User: &models.User{ID: "u1", DisplayName: "Ada"}})
	})
	mux.HandleFunc("GET /api/login", func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"authorizeUrl":"https://accounts.example/authorize?state=extension"}`)
	})
	mux.HandleFunc("POST /api/add-track", func(w http.ResponseWriter, r *http.Request) {
		var req models.AddTrackRequest
		json.NewDecoder(r.Body).Decode(&req)
		w.Header().Set("Content-Type", "application/json")
		if req.TrackName == "zzzzqqqqnotarealsong" {
			w.WriteHeader(http.StatusNotFound)
			io.WriteString(w, `{"error":"no match found for \"zzzzqqqqnotarealsong\" by \"nobody\""}`)
			return
		}
		json.NewEncoder(w).Encode(models.AddResult{
			MatchedTrackURI:    "spotify:track:" + req.PlaylistID,
			MatchedTrackName:   req.TrackName,
			MatchedArtistNames: []string{req.ArtistName},
		})
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

type harness struct {
	agent  *Agent
	store  *settings.Store
	opened []string
}

func newHarness(t *testing.T, backendURL string) *harness {
	t.Helper()
	ctx := context.Background()

	store := settings.NewStore(settings.NewMemoryKV())
	if backendURL != "" {
		if _, err := store.Save(ctx, models.SettingsPatch{BackendBaseURL: &backendURL}); err != nil {
			t.Fatalf("save failed: %v", err)
		}
	}

	h := &harness{store: store}
	h.agent = New(store, services.NewBackendClient(store, nil), Options{
		OpenURL: func(u string) error {
			h.opened = append(h.opened, u)
			return nil
		},
		Logger: shared.NewLogger(io.Discard),
	})
	return h
}

func (h *harness) setPlaylist(t *testing.T, id string) {
	t.Helper()
	if _, err := h.store.Save(context.Background(), models.SettingsPatch{PlaylistID: &id}); err != nil {
		t.Fatalf("save failed: %v", err)
	}
}

func TestAgent(t *testing.T) {
	ctx := context.Background()

	t.Run("Settings", func(t *testing.T) {
		h := newHarness(t, "")

		s, err := h.agent.GetSettings(ctx)
		if err != nil || s != models.DefaultSettings() {
			t.Errorf("expected defaults, got %+v, %v", s, err)
		}

		id := "abc"
		s, err = h.agent.SetSettings(ctx, models.SettingsPatch{PlaylistID: &id})
		if err != nil || s.PlaylistID != "abc" || s.BackendBaseURL != models.DefaultBackendBaseURL {
			t.Errorf("unexpected merge %+v, %v", s, err)
		}
	})

	t.Run("GetSession", func(t *testing.T) {
		t.Run("Authenticated", func(t *testing.T) {
			h := newHarness(t, fakeBackend(t, true).URL)

			status, err := h.agent.GetSession(ctx)
			if err != nil || !status.Authenticated || status.User.DisplayName != "Ada" {
				t.Errorf("unexpected status %+v, %v", status, err)
			}
		})

		t.Run("Unauthenticated", func(t *testing.T) {
			h := newHarness(t, fakeBackend(t, false).URL)

			status, err := h.agent.GetSession(ctx)
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if status.Authenticated || status.Error == "" {
				t.Errorf("expected unauthenticated with reason, got %+v", status)
			}
		})

		t.Run("Backend Unreachable", func(t *testing.T) {
			srv := httptest.NewServer(http.NotFoundHandler())
			url := srv.URL
			srv.Close()
			h := newHarness(t, url)

			status, err := h.agent.GetSession(ctx)
			if err != nil {
				t.Fatalf("expected failure folded into status, got %v", err)
			}
			if status.Authenticated || status.Error == "" {
				t.Errorf("expected unauthenticated with transport error, got %+v", status)
			}
		})
	})

	t.Run("StartLogin", func(t *testing.T) {
		h := newHarness(t, fakeBackend(t, false).URL)

		started, err := h.agent.StartLogin(ctx)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if !started.Started || !strings.Contains(started.AuthorizeURL, "state=extension") {
			t.Errorf("unexpected result %+v", started)
		}
		if len(h.opened) != 1 || h.opened[0] != started.AuthorizeURL {
			t.Errorf("expected the URL to be opened, got %v", h.opened)
		}
	})

	t.Run("StartLogin Browser Failure", func(t *testing.T) {
		store := settings.NewStore(settings.NewMemoryKV())
		url := fakeBackend(t, false).URL
		store.Save(ctx, models.SettingsPatch{BackendBaseURL: &url})

		a := New(store, services.NewBackendClient(store, nil), Options{
			OpenURL: func(string) error { return errors.New("no display") },
			Logger:  shared.NewLogger(io.Discard),
		})

		started, err := a.StartLogin(ctx)
		if err != nil || !started.Started {
			t.Errorf("expected login to start with the URL returned, got %+v, %v", started, err)
		}
	})

	t.Run("AddTrack", func(t *testing.T) {
		t.Run("Requires Playlist", func(t *testing.T) {
			h := newHarness(t, fakeBackend(t, true).URL)

			_, err := h.agent.AddTrack(ctx, models.Track{TrackName: "Hey Jude", ArtistName: "The Beatles"})
			if !errors.Is(err, ErrNoPlaylist) {
				t.Errorf("expected ErrNoPlaylist, got %v", err)
			}
		})

		t.Run("Uses Saved Playlist", func(t *testing.T) {
			h := newHarness(t, fakeBackend(t, true).URL)
			h.setPlaylist(t, "pl42")

			result, err := h.agent.AddTrack(ctx, models.Track{TrackName: "Hey Jude", ArtistName: "The Beatles"})
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if result.MatchedTrackURI != "spotify:track:pl42" {
				t.Errorf("expected playlist to be forwarded, got %+v", result)
			}
		})
	})
}

func TestAgentOverBus(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	h := newHarness(t, fakeBackend(t, false).URL)
	h.setPlaylist(t, "pl1")

	clientEnd, serverEnd := bus.Pipe()
	go bus.Serve(ctx, serverEnd, h.agent, shared.NewLogger(io.Discard))
	client := bus.NewClient(clientEnd, shared.NewLogger(io.Discard))
	defer client.Close()

	t.Run("Unauthenticated Session", func(t *testing.T) {
		status, err := client.GetSession(ctx)
		if err != nil {
			t.Fatalf("expected a payload, got %v", err)
		}
		if status.Authenticated || status.Error == "" {
			t.Errorf("expected {authenticated:false, error}, got %+v", status)
		}
	})

	t.Run("No Match", func(t *testing.T) {
		_, err := client.AddTrack(ctx, models.Track{TrackName: "zzzzqqqqnotarealsong", ArtistName: "nobody"})

		var remote *bus.RemoteError
		if !errors.As(err, &remote) {
			t.Fatalf("expected a bus error response, got %v", err)
		}
		if !strings.HasPrefix(remote.Message, "no match found") {
			t.Errorf("unexpected message %q", remote.Message)
		}
	})
}
