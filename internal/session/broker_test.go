package session

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/desertthunder/tracklift/internal/models"
	"github.com/desertthunder/tracklift/internal/shared"
	"golang.org/x/oauth2"
)

// tokenServer is a fake provider token endpoint counting grants by type.
type tokenServer struct {
	*httptest.Server
	exchanges atomic.Int32
	refreshes atomic.Int32
	fail      atomic.Bool
	delay     time.Duration
}

func newTokenServer(t *testing.T) *tokenServer {
	t.Helper()
	ts := &tokenServer{}
	ts.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		if ts.fail.Load() {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusBadRequest)
			io.WriteString(w, `{"error":"invalid_grant","error_description":"Refresh token revoked"}`)
			return
		}

		var n int32
		switch r.PostForm.Get("grant_type") {
		case "authorization_code":
			n = ts.exchanges.Add(1)
		case "refresh_token":
			n = ts.refreshes.Add(1)
		}
		if ts.delay > 0 {
			time.Sleep(ts.delay)
		}

		w.Header().Set("Content-Type", "application/json")
		fmt.Fprintf(w, `{"access_token":"access-%s-%d","token_type":"Bearer","refresh_token":"refresh-%d","expires_in":3600}`,
			r.PostForm.Get("grant_type"), n, n)
	}))
	t.Cleanup(ts.Close)
	return ts
}

func newTestBroker(ts *tokenServer, now func() time.Time) *Broker {
	return NewBroker(Options{
		Config: &oauth2.Config{
			ClientID:     "client",
			ClientSecret: "secret",
			RedirectURL:  "http://localhost:3000/callback",
			Scopes:       []string{"user-read-private", "playlist-modify-private"},
			Endpoint: oauth2.Endpoint{
				AuthURL:   ts.URL + "/authorize",
				TokenURL:  ts.URL + "/api/token",
				AuthStyle: oauth2.AuthStyleInHeader,
			},
		},
		Now: now,
	})
}

func seed(b *Broker, expiresAt time.Time) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.session = &models.Session{AccessToken: "seeded", RefreshToken: "seeded-refresh", ExpiresAt: expiresAt}
	b.state = Authenticated
}

func TestBroker(t *testing.T) {
	ctx := context.Background()

	t.Run("Starts Unauthenticated", func(t *testing.T) {
		b := newTestBroker(newTokenServer(t), nil)

		if b.State() != Unauthenticated {
			t.Errorf("expected unauthenticated, got %s", b.State())
		}

		_, err := b.EnsureValidToken(ctx)
		if !errors.Is(err, shared.ErrNotAuthenticated) {
			t.Errorf("expected ErrNotAuthenticated, got %v", err)
		}
	})

	t.Run("StartLogin", func(t *testing.T) {
		b := newTestBroker(newTokenServer(t), nil)

		authURL := b.StartLogin("extension")
		u, err := url.Parse(authURL)
		if err != nil {
			t.Fatalf("invalid authorize URL: %v", err)
		}

		q := u.Query()
		if q.Get("state") != "extension" {
			t.Errorf("expected state extension, got %s", q.Get("state"))
		}
		if q.Get("client_id") != "client" {
			t.Errorf("expected client_id, got %s", q.Get("client_id"))
		}
		if !strings.Contains(q.Get("scope"), "playlist-modify-private") {
			t.Errorf("expected scopes in URL, got %s", q.Get("scope"))
		}
		if b.State() != Authorizing {
			t.Errorf("expected authorizing, got %s", b.State())
		}
		if _, ok := b.Snapshot(); ok {
			t.Error("login start must not create a session")
		}
	})

	t.Run("StartLogin Generates State", func(t *testing.T) {
		b := newTestBroker(newTokenServer(t), nil)

		u, _ := url.Parse(b.StartLogin(""))
		if u.Query().Get("state") == "" {
			t.Error("expected generated state")
		}
	})

	t.Run("Exchange", func(t *testing.T) {
		ts := newTokenServer(t)
		b := newTestBroker(ts, nil)
		b.StartLogin("extension")

		if err := b.Exchange(ctx, "extension", "auth-code"); err != nil {
			t.Fatalf("expected exchange to succeed, got %v", err)
		}

		s, ok := b.Snapshot()
		if !ok {
			t.Fatal("expected a session")
		}
		if s.AccessToken != "access-authorization_code-1" || s.RefreshToken != "refresh-1" {
			t.Errorf("unexpected session %+v", s)
		}
		if until := time.Until(s.ExpiresAt); until < 59*time.Minute || until > 61*time.Minute {
			t.Errorf("expected expiry about an hour out, got %v", until)
		}
		if b.State() != Authenticated {
			t.Errorf("expected authenticated, got %s", b.State())
		}

		token, err := b.EnsureValidToken(ctx)
		if err != nil || token != s.AccessToken {
			t.Errorf("expected current token, got %q, %v", token, err)
		}
		if ts.refreshes.Load() != 0 {
			t.Error("fresh token must not refresh")
		}
	})

	t.Run("Exchange Rejects Unknown State", func(t *testing.T) {
		ts := newTokenServer(t)
		b := newTestBroker(ts, nil)
		b.StartLogin("extension")

		err := b.Exchange(ctx, "forged", "auth-code")
		if !errors.Is(err, shared.ErrInvalidState) {
			t.Errorf("expected ErrInvalidState, got %v", err)
		}
		if ts.exchanges.Load() != 0 {
			t.Error("expected no token request")
		}
		if b.State() != Unauthenticated {
			t.Errorf("expected unauthenticated, got %s", b.State())
		}
	})

	t.Run("Exchange Missing Code", func(t *testing.T) {
		b := newTestBroker(newTokenServer(t), nil)
		b.StartLogin("extension")

		if err := b.Exchange(ctx, "extension", ""); !errors.Is(err, shared.ErrMissingArgument) {
			t.Errorf("expected ErrMissingArgument, got %v", err)
		}
	})

	t.Run("Exchange Failure", func(t *testing.T) {
		ts := newTokenServer(t)
		ts.fail.Store(true)
		b := newTestBroker(ts, nil)
		b.StartLogin("extension")

		err := b.Exchange(ctx, "extension", "bad-code")
		if !errors.Is(err, shared.ErrAuthFailed) {
			t.Errorf("expected ErrAuthFailed, got %v", err)
		}

		_, err = b.EnsureValidToken(ctx)
		if !errors.Is(err, shared.ErrNotAuthenticated) {
			t.Errorf("expected ErrNotAuthenticated, got %v", err)
		}
		if !strings.Contains(err.Error(), "token exchange failed") {
			t.Errorf("expected the causing error in the message, got %v", err)
		}
	})

	t.Run("Refresh Threshold", func(t *testing.T) {
		now := time.Now()
		clock := func() time.Time { return now }

		t.Run("expiring in 20s refreshes", func(t *testing.T) {
			ts := newTokenServer(t)
			b := newTestBroker(ts, clock)
			seed(b, now.Add(20*time.Second))

			token, err := b.EnsureValidToken(ctx)
			if err != nil {
				t.Fatalf("expected refresh to succeed, got %v", err)
			}
			if ts.refreshes.Load() != 1 {
				t.Errorf("expected 1 refresh, got %d", ts.refreshes.Load())
			}
			if token != "access-refresh_token-1" {
				t.Errorf("expected refreshed token, got %s", token)
			}
		})

		t.Run("expiring in 120s does not refresh", func(t *testing.T) {
			ts := newTokenServer(t)
			b := newTestBroker(ts, clock)
			seed(b, now.Add(120*time.Second))

			token, err := b.EnsureValidToken(ctx)
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if ts.refreshes.Load() != 0 {
				t.Errorf("expected no refresh, got %d", ts.refreshes.Load())
			}
			if token != "seeded" {
				t.Errorf("expected seeded token, got %s", token)
			}
		})

		t.Run("exactly at the leeway refreshes", func(t *testing.T) {
			ts := newTokenServer(t)
			b := newTestBroker(ts, clock)
			seed(b, now.Add(RefreshLeeway))

			if _, err := b.EnsureValidToken(ctx); err != nil {
				t.Fatalf("expected refresh to succeed, got %v", err)
			}
			if ts.refreshes.Load() != 1 {
				t.Errorf("expected 1 refresh, got %d", ts.refreshes.Load())
			}
		})
	})

	t.Run("Refresh Keeps Refresh Token", func(t *testing.T) {
		ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			io.WriteString(w, `{"access_token":"rotated","token_type":"Bearer","expires_in":3600}`)
		}))
		defer ts.Close()

		b := newTestBroker(&tokenServer{Server: ts}, nil)
		seed(b, time.Now())

		if _, err := b.EnsureValidToken(ctx); err != nil {
			t.Fatalf("expected refresh to succeed, got %v", err)
		}
		s, _ := b.Snapshot()
		if s.RefreshToken != "seeded-refresh" {
			t.Errorf("expected original refresh token to be kept, got %q", s.RefreshToken)
		}
	})

	t.Run("Refresh Failure Invalidates", func(t *testing.T) {
		ts := newTokenServer(t)
		ts.fail.Store(true)
		b := newTestBroker(ts, nil)
		seed(b, time.Now())

		_, err := b.EnsureValidToken(ctx)
		if !errors.Is(err, shared.ErrRefreshFailed) {
			t.Fatalf("expected ErrRefreshFailed, got %v", err)
		}
		if !IsAuthError(err) {
			t.Error("expected refresh failure to count as an auth error")
		}
		if b.State() != Unauthenticated {
			t.Errorf("expected unauthenticated, got %s", b.State())
		}
		if _, ok := b.Snapshot(); ok {
			t.Error("expected session to be dropped")
		}

		ts.fail.Store(false)
		_, err = b.EnsureValidToken(ctx)
		if !errors.Is(err, shared.ErrNotAuthenticated) {
			t.Errorf("expected no automatic re-login, got %v", err)
		}
		if ts.refreshes.Load() != 0 {
			t.Error("expected no further refresh attempts")
		}
	})

	t.Run("Missing Refresh Token Invalidates", func(t *testing.T) {
		b := newTestBroker(newTokenServer(t), nil)
		b.session = &models.Session{AccessToken: "a", ExpiresAt: time.Now()}

		_, err := b.EnsureValidToken(ctx)
		if !errors.Is(err, shared.ErrNoRefreshToken) {
			t.Errorf("expected ErrNoRefreshToken, got %v", err)
		}
	})

	t.Run("Concurrent Refresh Is Single Flight", func(t *testing.T) {
		ts := newTokenServer(t)
		ts.delay = 50 * time.Millisecond
		b := newTestBroker(ts, nil)
		seed(b, time.Now())

		var wg sync.WaitGroup
		tokens := make([]string, 8)
		errs := make([]error, 8)
		for i := range tokens {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				tokens[i], errs[i] = b.EnsureValidToken(ctx)
			}(i)
		}
		wg.Wait()

		for i := range tokens {
			if errs[i] != nil {
				t.Fatalf("caller %d failed: %v", i, errs[i])
			}
			if tokens[i] != "access-refresh_token-1" {
				t.Errorf("caller %d got %s", i, tokens[i])
			}
		}
		if ts.refreshes.Load() != 1 {
			t.Errorf("expected exactly one refresh exchange, got %d", ts.refreshes.Load())
		}
	})

	t.Run("Caller Deadline Keeps Session", func(t *testing.T) {
		ts := newTokenServer(t)
		ts.delay = 200 * time.Millisecond
		b := newTestBroker(ts, nil)
		seed(b, time.Now().Add(10*time.Second))

		short, cancel := context.WithTimeout(ctx, 20*time.Millisecond)
		defer cancel()

		_, err := b.EnsureValidToken(short)
		if !errors.Is(err, context.DeadlineExceeded) {
			t.Fatalf("expected the caller's deadline, got %v", err)
		}
		if errors.Is(err, shared.ErrRefreshFailed) {
			t.Errorf("expected no refresh failure, got %v", err)
		}

		token, err := b.EnsureValidToken(ctx)
		if err != nil {
			t.Fatalf("expected the in-flight refresh to finish, got %v", err)
		}
		if token != "access-refresh_token-1" {
			t.Errorf("expected the refreshed token, got %s", token)
		}
		if b.State() != Authenticated {
			t.Errorf("expected authenticated, got %s", b.State())
		}
		if ts.refreshes.Load() != 1 {
			t.Errorf("expected one refresh exchange, got %d", ts.refreshes.Load())
		}
	})
}

func TestState(t *testing.T) {
	for _, s := range []State{Unauthenticated, Authorizing, Authenticated, Refreshing} {
		if s.String() == "" {
			t.Errorf("state %d has no name", s)
		}
	}
}

func TestBrokerStatus(t *testing.T) {
	t.Run("Without Session", func(t *testing.T) {
		b := newTestBroker(newTokenServer(t), nil)

		status := b.Status()
		if status.Authenticated {
			t.Error("expected unauthenticated status")
		}
		if status.Error != shared.ErrNotAuthenticated.Error() {
			t.Errorf("unexpected error text %q", status.Error)
		}
	})

	t.Run("With Session", func(t *testing.T) {
		b := newTestBroker(newTokenServer(t), nil)
		expiry := time.UnixMilli(1_700_000_000_000)
		seed(b, expiry)

		status := b.Status()
		if !status.Authenticated {
			t.Fatal("expected authenticated status")
		}
		if status.TokenExpiresAt == nil || *status.TokenExpiresAt != 1_700_000_000_000 {
			t.Errorf("unexpected expiry %v", status.TokenExpiresAt)
		}
	})
}
