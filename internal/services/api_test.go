package services

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/desertthunder/tracklift/internal/models"
	tu "github.com/desertthunder/tracklift/internal/testing"
)

func backendAt(url string) *BackendClient {
	return NewBackendClient(tu.StaticSettings{Settings: models.Settings{BackendBaseURL: url}}, nil)
}

func TestBackendClient(t *testing.T) {
	ctx := context.Background()

	t.Run("New With Nil Client", func(t *testing.T) {
		b := NewBackendClient(tu.StaticSettings{}, nil)
		if b.httpClient != http.DefaultClient {
			t.Error("expected http.DefaultClient to be used")
		}
	})

	t.Run("Base URL", func(t *testing.T) {
		t.Run("Trailing Slash Trimmed", func(t *testing.T) {
			base, err := backendAt("http://example.com/").baseURL(ctx)
			if err != nil || base != "http://example.com" {
				t.Errorf("unexpected base %q, %v", base, err)
			}
		})

		t.Run("Empty Falls Back To Default", func(t *testing.T) {
			base, err := backendAt("").baseURL(ctx)
			if err != nil || base != models.DefaultBackendBaseURL {
				t.Errorf("unexpected base %q, %v", base, err)
			}
		})

		t.Run("Settings Failure", func(t *testing.T) {
			b := NewBackendClient(tu.StaticSettings{Err: errors.New("disk gone")}, nil)
			_, err := b.Session(ctx)
			if err == nil || !strings.Contains(err.Error(), "disk gone") {
				t.Errorf("expected settings error, got %v", err)
			}
		})
	})

	t.Run("Session", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path != "/api/session" {
				t.Errorf("unexpected path %s", r.URL.Path)
			}
			io.WriteString(w, `{"authenticated":true,"user":{"id":"u1","display_name":"Ada"},"tokenExpiresAt":1700000000000}`)
		}))
		defer server.Close()

		status, err := backendAt(server.URL).Session(ctx)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if !status.Authenticated || status.User == nil || status.User.DisplayName != "Ada" {
			t.Errorf("unexpected status %+v", status)
		}
		if status.TokenExpiresAt == nil || *status.TokenExpiresAt != 1700000000000 {
			t.Errorf("unexpected expiry %v", status.TokenExpiresAt)
		}
	})

	t.Run("Login", func(t *testing.T) {
		t.Run("Returns URL", func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				io.WriteString(w, `{"authorizeUrl":"https://accounts.example/authorize?state=extension"}`)
			}))
			defer server.Close()

			u, err := backendAt(server.URL).Login(ctx)
			if err != nil || !strings.Contains(u, "state=extension") {
				t.Errorf("unexpected url %q, %v", u, err)
			}
		})

		t.Run("Missing URL", func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				io.WriteString(w, `{}`)
			}))
			defer server.Close()

			if _, err := backendAt(server.URL).Login(ctx); err == nil {
				t.Error("expected error without authorize URL")
			}
		})
	})

	t.Run("AddTrack", func(t *testing.T) {
		t.Run("Posts Request", func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if r.Method != http.MethodPost || r.URL.Path != "/api/add-track" {
					t.Errorf("unexpected %s %s", r.Method, r.URL.Path)
				}
				var req models.AddTrackRequest
				if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
					t.Fatalf("bad body: %v", err)
				}
				if req.TrackName != "Hey Jude" || req.ArtistName != "The Beatles" || req.PlaylistID != "pl1" {
					t.Errorf("unexpected request %+v", req)
				}
				io.WriteString(w, `{"matchedTrackUri":"spotify:track:1","matchedTrackName":"Hey Jude","matchedArtistNames":["The Beatles"]}`)
			}))
			defer server.Close()

			result, err := backendAt(server.URL).AddTrack(ctx, models.AddTrackRequest{
				TrackName: "Hey Jude", ArtistName: "The Beatles", PlaylistID: "pl1",
			})
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if result.MatchedTrackURI != "spotify:track:1" {
				t.Errorf("unexpected result %+v", result)
			}
		})

		t.Run("JSON Error Body", func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusNotFound)
				io.WriteString(w, `{"error":"no match found for \"Zzz\""}`)
			}))
			defer server.Close()

			_, err := backendAt(server.URL).AddTrack(ctx, models.AddTrackRequest{TrackName: "Zzz", PlaylistID: "pl1"})
			if err == nil || err.Error() != `no match found for "Zzz"` {
				t.Errorf("expected backend message verbatim, got %v", err)
			}
		})

		t.Run("Text Error Body", func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				http.Error(w, "bad gateway", http.StatusBadGateway)
			}))
			defer server.Close()

			_, err := backendAt(server.URL).AddTrack(ctx, models.AddTrackRequest{TrackName: "x"})
			if err == nil || err.Error() != "bad gateway" {
				t.Errorf("expected raw text, got %v", err)
			}
		})

		t.Run("Empty Error Body", func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusInternalServerError)
			}))
			defer server.Close()

			_, err := backendAt(server.URL).AddTrack(ctx, models.AddTrackRequest{TrackName: "x"})
			if err == nil || err.Error() != "request failed with status 500" {
				t.Errorf("expected status fallback, got %v", err)
			}
		})
	})

	t.Run("Transport Failure", func(t *testing.T) {
		client := &http.Client{Transport: tu.NewMockRoundTripper(nil, errors.New("connection refused"))}
		b := NewBackendClient(tu.StaticSettings{}, client)

		_, err := b.Session(ctx)
		if err == nil || !strings.Contains(err.Error(), "connection refused") {
			t.Errorf("expected transport error, got %v", err)
		}
	})

	t.Run("Read Failure", func(t *testing.T) {
		resp := &http.Response{StatusCode: http.StatusOK, Body: &tu.FCloser{}, Header: http.Header{}}
		client := &http.Client{Transport: tu.NewMockRoundTripper(resp, nil)}
		b := NewBackendClient(tu.StaticSettings{}, client)

		_, err := b.Session(ctx)
		if err == nil || !strings.Contains(err.Error(), "failed to read response") {
			t.Errorf("expected read error, got %v", err)
		}
	})
}
