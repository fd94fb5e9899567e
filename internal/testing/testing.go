// package testing contains shared testing utilities
package testing

import (
	"context"
	"errors"
	"io"
	"net/http"
	"os"
	"sync"
	"testing"

	"github.com/desertthunder/tracklift/internal/models"
)

// MockCatalog is a test double for [services.Catalog].
//
// Results maps a search query to the tracks it returns; unknown queries return no tracks.
type MockCatalog struct {
	mu        sync.Mutex
	Results   map[string][]models.CatalogTrack
	SearchErr error
	AddErr    error

	Queries []string
	Added   map[string][]string
}

func (m *MockCatalog) SearchTracks(ctx context.Context, query string, limit int) ([]models.CatalogTrack, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.Queries = append(m.Queries, query)
	if m.SearchErr != nil {
		return nil, m.SearchErr
	}
	tracks := m.Results[query]
	if limit > 0 && len(tracks) > limit {
		tracks = tracks[:limit]
	}
	return tracks, nil
}

func (m *MockCatalog) AddToPlaylist(ctx context.Context, playlistID string, uris ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.AddErr != nil {
		return m.AddErr
	}
	if m.Added == nil {
		m.Added = map[string][]string{}
	}
	m.Added[playlistID] = append(m.Added[playlistID], uris...)
	return nil
}

// PlaylistURIs returns a copy of everything appended to the playlist so far.
func (m *MockCatalog) PlaylistURIs(playlistID string) []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.Added[playlistID]...)
}

// StaticTokens is a [services.TokenSource] returning a fixed token or error.
type StaticTokens struct {
	Token string
	Err   error
}

func (s StaticTokens) EnsureValidToken(context.Context) (string, error) {
	return s.Token, s.Err
}

// StaticSettings is a [services.SettingsSource] returning fixed settings or error.
type StaticSettings struct {
	Settings models.Settings
	Err      error
}

func (s StaticSettings) Load(context.Context) (models.Settings, error) {
	return s.Settings, s.Err
}

// FWriter always returns an error on Write
type FWriter struct{}

func (f *FWriter) Write(p []byte) (n int, err error) {
	return 0, errors.New("write failed")
}

// LimitedWriter fails after a certain number of writes
type LimitedWriter struct {
	maxWrites int
	written   int
	target    io.Writer
}

func (l *LimitedWriter) Write(p []byte) (n int, err error) {
	if l.written >= l.maxWrites {
		return 0, errors.New("write limit exceeded")
	}
	l.written++
	return l.target.Write(p)
}

func NewLimitedWriter(maxWrites, written int, target io.Writer) LimitedWriter {
	return LimitedWriter{maxWrites: maxWrites, written: written, target: target}
}

// MockRoundTripper allows custom HTTP responses for testing
type MockRoundTripper struct {
	response *http.Response
	err      error
}

func NewMockRoundTripper(r *http.Response, e error) *MockRoundTripper {
	return &MockRoundTripper{response: r, err: e}
}

func (m *MockRoundTripper) RoundTrip(*http.Request) (*http.Response, error) {
	return m.response, m.err
}

// FCloser simulates a failure when reading response body
type FCloser struct{}

func (f *FCloser) Read(p []byte) (n int, err error) {
	return 0, errors.New("read failed")
}

func (f *FCloser) Close() error {
	return nil
}

func AssertFileExists(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Errorf("File does not exist: %s", path)
	}
}

func MustReadFile(t *testing.T, path string) string {
	t.Helper()
	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read file %s: %v", path, err)
	}
	return string(content)
}
