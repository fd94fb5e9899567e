// Backend client used by the agent
package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/desertthunder/tracklift/internal/models"
)

// BackendClient calls the tracklift backend on behalf of the agent.
type BackendClient struct {
	settings   SettingsSource
	httpClient *http.Client
}

// NewBackendClient creates a client whose base URL is read from settings on every call.
func NewBackendClient(settings SettingsSource, client *http.Client) *BackendClient {
	if client == nil {
		client = http.DefaultClient
	}
	return &BackendClient{settings: settings, httpClient: client}
}

// Session fetches GET /api/session.
func (b *BackendClient) Session(ctx context.Context) (*models.SessionStatus, error) {
	var status models.SessionStatus
	if err := b.do(ctx, http.MethodGet, "/api/session", nil, &status); err != nil {
		return nil, err
	}
	return &status, nil
}

// Login fetches GET /api/login and returns the provider authorization URL.
func (b *BackendClient) Login(ctx context.Context) (string, error) {
	var body struct {
		AuthorizeURL string `json:"authorizeUrl"`
	}
	if err := b.do(ctx, http.MethodGet, "/api/login", nil, &body); err != nil {
		return "", err
	}
	if body.AuthorizeURL == "" {
		return "", errors.New("backend returned no authorize URL")
	}
	return body.AuthorizeURL, nil
}

// AddTrack posts to /api/add-track.
func (b *BackendClient) AddTrack(ctx context.Context, req models.AddTrackRequest) (*models.AddResult, error) {
	var result models.AddResult
	if err := b.do(ctx, http.MethodPost, "/api/add-track", req, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (b *BackendClient) baseURL(ctx context.Context) (string, error) {
	s, err := b.settings.Load(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to load settings: %w", err)
	}
	base := s.BackendBaseURL
	if base == "" {
		base = models.DefaultBackendBaseURL
	}
	return strings.TrimRight(base, "/"), nil
}

func (b *BackendClient) do(ctx context.Context, method, path string, body, result any) error {
	base, err := b.baseURL(ctx)
	if err != nil {
		return err
	}

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, base+path, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := b.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return backendError(resp.StatusCode, data)
	}

	if result != nil {
		if err := json.Unmarshal(data, result); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}
	return nil
}

// backendError prefers the backend's own message: `{error}` when JSON, else the raw text.
func backendError(status int, data []byte) error {
	var e struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(data, &e); err == nil && e.Error != "" {
		return errors.New(e.Error)
	}
	if text := strings.TrimSpace(string(data)); text != "" && !json.Valid(data) {
		return errors.New(text)
	}
	return fmt.Errorf("request failed with status %d", status)
}
