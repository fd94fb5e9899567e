package session

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/tracklift/internal/models"
	"github.com/desertthunder/tracklift/internal/shared"
	"golang.org/x/oauth2"
	"golang.org/x/sync/singleflight"
)

// RefreshLeeway is how long before expiry a token stops being handed out.
const RefreshLeeway = 30 * time.Second

// defaultLifetime applies when the provider omits expires_in.
const defaultLifetime = time.Hour

// State is the broker's position in the authorization lifecycle.
type State int

const (
	Unauthenticated State = iota
	Authorizing
	Authenticated
	Refreshing
)

func (s State) String() string {
	switch s {
	case Unauthenticated:
		return "unauthenticated"
	case Authorizing:
		return "authorizing"
	case Authenticated:
		return "authenticated"
	case Refreshing:
		return "refreshing"
	default:
		return ""
	}
}

// Options configures a [Broker].
type Options struct {
	Config     *oauth2.Config
	HTTPClient *http.Client // used for token endpoint calls; nil means [http.DefaultClient]
	Logger     *log.Logger
	Now        func() time.Time
}

// Broker owns the session and mediates every use of its access token.
type Broker struct {
	config     *oauth2.Config
	httpClient *http.Client
	logger     *log.Logger
	now        func() time.Time

	mu      sync.Mutex
	state   State
	session *models.Session
	pending map[string]struct{}
	lastErr error

	refresh singleflight.Group
}

// NewBroker creates an unauthenticated [Broker].
func NewBroker(opts Options) *Broker {
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	return &Broker{
		config:     opts.Config,
		httpClient: opts.HTTPClient,
		logger:     opts.Logger.WithPrefix("session"),
		now:        opts.Now,
		state:      Unauthenticated,
		pending:    map[string]struct{}{},
	}
}

// StartLogin records state as an accepted callback state and returns the provider's authorization URL.
//
// An empty state is replaced by a random one.
func (b *Broker) StartLogin(state string) string {
	if state == "" {
		state = shared.GenerateID()
	}

	b.mu.Lock()
	b.pending[state] = struct{}{}
	if b.state == Unauthenticated {
		b.state = Authorizing
	}
	b.mu.Unlock()

	b.logger.Debug("authorization started", "state", state)
	return b.config.AuthCodeURL(state)
}

// Exchange trades an authorization code for a new session.
func (b *Broker) Exchange(ctx context.Context, state, code string) error {
	if code == "" {
		return fmt.Errorf("%w: authorization code", shared.ErrMissingArgument)
	}

	b.mu.Lock()
	_, ok := b.pending[state]
	delete(b.pending, state)
	b.mu.Unlock()

	if !ok {
		return b.failExchange(shared.ErrInvalidState)
	}

	token, err := b.config.Exchange(b.withClient(ctx), code)
	if err != nil {
		return b.failExchange(fmt.Errorf("%w: token exchange failed: %v", shared.ErrAuthFailed, err))
	}

	session := b.sessionFrom(token, "")

	b.mu.Lock()
	b.session = session
	b.state = Authenticated
	b.lastErr = nil
	b.mu.Unlock()

	b.logger.Info("session established", "expires_at", session.ExpiresAt.Format(time.RFC3339))
	return nil
}

func (b *Broker) failExchange(err error) error {
	b.mu.Lock()
	if b.session != nil {
		b.state = Authenticated
	} else {
		b.state = Unauthenticated
	}
	b.lastErr = err
	b.mu.Unlock()

	b.logger.Warn("authorization failed", "error", err)
	return err
}

// EnsureValidToken returns an access token valid for at least [RefreshLeeway], refreshing it first when needed.
//
// It fails with [shared.ErrNotAuthenticated] when no session exists and with [shared.ErrRefreshFailed]
// when the refresh exchange is rejected, in which case the session is dropped. If ctx ends first the
// caller gets ctx.Err() while the exchange runs to completion for everyone else.
func (b *Broker) EnsureValidToken(ctx context.Context) (string, error) {
	b.mu.Lock()
	current := b.session
	lastErr := b.lastErr
	b.mu.Unlock()

	if current == nil {
		if lastErr != nil {
			return "", fmt.Errorf("%w: %v", shared.ErrNotAuthenticated, lastErr)
		}
		return "", shared.ErrNotAuthenticated
	}

	if b.fresh(current) {
		return current.AccessToken, nil
	}

	// The exchange outlives any one caller; a caller that gives up only stops waiting.
	refreshCtx := context.WithoutCancel(ctx)
	ch := b.refresh.DoChan("refresh", func() (any, error) {
		return b.doRefresh(refreshCtx, current)
	})

	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return "", res.Err
		}
		if res.Shared {
			b.logger.Debug("joined in-flight refresh")
		}
		return res.Val.(*models.Session).AccessToken, nil
	}
}

func (b *Broker) fresh(s *models.Session) bool {
	return b.now().Before(s.ExpiresAt.Add(-RefreshLeeway))
}

func (b *Broker) doRefresh(ctx context.Context, observed *models.Session) (*models.Session, error) {
	b.mu.Lock()
	// A refresh that finished after this caller looked at the session already did the work.
	if b.session != nil && b.session != observed && b.fresh(b.session) {
		s := b.session
		b.mu.Unlock()
		return s, nil
	}
	if b.session == nil {
		b.mu.Unlock()
		return nil, shared.ErrNotAuthenticated
	}
	b.state = Refreshing
	refreshToken := b.session.RefreshToken
	b.mu.Unlock()

	if refreshToken == "" {
		return nil, b.invalidate(shared.ErrNoRefreshToken)
	}

	b.logger.Info("refreshing access token")

	token, err := b.config.TokenSource(b.withClient(ctx), &oauth2.Token{RefreshToken: refreshToken}).Token()
	if err != nil {
		return nil, b.invalidate(err)
	}

	session := b.sessionFrom(token, refreshToken)

	b.mu.Lock()
	b.session = session
	b.state = Authenticated
	b.lastErr = nil
	b.mu.Unlock()

	return session, nil
}

// invalidate drops the session after a failed refresh.
func (b *Broker) invalidate(cause error) error {
	err := fmt.Errorf("%w: %v", shared.ErrRefreshFailed, cause)

	b.mu.Lock()
	b.session = nil
	b.state = Unauthenticated
	b.lastErr = err
	b.mu.Unlock()

	b.logger.Warn("session invalidated", "error", cause)
	return err
}

func (b *Broker) sessionFrom(token *oauth2.Token, previousRefresh string) *models.Session {
	expiresAt := token.Expiry
	if expiresAt.IsZero() {
		expiresAt = b.now().Add(defaultLifetime)
	}

	refreshToken := token.RefreshToken
	if refreshToken == "" {
		refreshToken = previousRefresh
	}

	return &models.Session{
		AccessToken:  token.AccessToken,
		RefreshToken: refreshToken,
		ExpiresAt:    expiresAt,
	}
}

func (b *Broker) withClient(ctx context.Context) context.Context {
	if b.httpClient == nil {
		return ctx
	}
	return context.WithValue(ctx, oauth2.HTTPClient, b.httpClient)
}

// State reports the broker's current lifecycle state.
func (b *Broker) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

// Snapshot returns a copy of the session, or false when there is none.
func (b *Broker) Snapshot() (models.Session, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.session == nil {
		return models.Session{}, false
	}
	return *b.session, true
}

// IsAuthError reports whether err means the caller must log in again.
func IsAuthError(err error) bool {
	return errors.Is(err, shared.ErrNotAuthenticated) || errors.Is(err, shared.ErrRefreshFailed)
}

// Status reports whether a usable session exists without touching the network.
//
// The user field is left for callers that can reach the catalog.
func (b *Broker) Status() models.SessionStatus {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.session == nil {
		msg := shared.ErrNotAuthenticated.Error()
		if b.lastErr != nil {
			msg = b.lastErr.Error()
		}
		return models.SessionStatus{Authenticated: false, Error: msg}
	}

	expires := b.session.ExpiresAtMillis()
	return models.SessionStatus{Authenticated: true, TokenExpiresAt: &expires}
}
