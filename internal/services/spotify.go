// Spotify Web API client
//
// Response types based on https://developer.spotify.com/documentation/web-api/reference/
package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/desertthunder/tracklift/internal/models"
	"github.com/desertthunder/tracklift/internal/shared"
	"golang.org/x/oauth2"
)

const (
	spotifyAuthURL  = "https://accounts.spotify.com/authorize"
	spotifyTokenURL = "https://accounts.spotify.com/api/token"
	spotifyBaseURL  = "https://api.spotify.com/v1"

	// DefaultRedirectURI is used when the credentials omit one.
	DefaultRedirectURI = "http://localhost:3000/callback"
)

// SpotifyScopes is the closed set of scopes requested at login.
var SpotifyScopes = []string{
	"user-read-private",
	"user-read-email",
	"user-top-read",
	"playlist-modify-public",
	"playlist-modify-private",
}

// SpotifyUser represents a Spotify user profile.
type SpotifyUser struct {
	ID          string         `json:"id"`
	DisplayName string         `json:"display_name"`
	Email       string         `json:"email"`
	Country     string         `json:"country"`
	Product     string         `json:"product"`
	Images      []SpotifyImage `json:"images"`
}

// User converts the profile to the shared model.
func (u SpotifyUser) User() models.User {
	return models.User{ID: u.ID, DisplayName: u.DisplayName, Email: u.Email}
}

// SpotifyImage represents an image resource.
type SpotifyImage struct {
	URL    string `json:"url"`
	Height int    `json:"height"`
	Width  int    `json:"width"`
}

// SpotifyTrack represents a Spotify track.
type SpotifyTrack struct {
	ID         string          `json:"id"`
	Name       string          `json:"name"`
	Artists    []SpotifyArtist `json:"artists"`
	Album      SpotifyAlbum    `json:"album"`
	DurationMS int             `json:"duration_ms"`
	URI        string          `json:"uri"`
}

// CatalogTrack reduces the track to the fields tracklift keeps.
func (t SpotifyTrack) CatalogTrack() models.CatalogTrack {
	artists := make([]string, 0, len(t.Artists))
	for _, a := range t.Artists {
		artists = append(artists, a.Name)
	}
	return models.CatalogTrack{URI: t.URI, Name: t.Name, Artists: artists, Album: t.Album.Name}
}

// SpotifyArtist represents a simplified Spotify artist.
type SpotifyArtist struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	URI  string `json:"uri"`
}

// SpotifyAlbum represents a simplified Spotify album.
type SpotifyAlbum struct {
	ID     string         `json:"id"`
	Name   string         `json:"name"`
	Images []SpotifyImage `json:"images"`
}

type trackPage struct {
	Items []SpotifyTrack `json:"items"`
	Total int            `json:"total"`
}

type searchResponse struct {
	Tracks trackPage `json:"tracks"`
}

type spotifyError struct {
	Error struct {
		Status  int    `json:"status"`
		Message string `json:"message"`
	} `json:"error"`
}

// NewSpotifyOAuthConfig builds the authorization-code configuration for the given credentials.
func NewSpotifyOAuthConfig(credentials map[string]string) (*oauth2.Config, error) {
	clientID := credentials["client_id"]
	if clientID == "" {
		return nil, fmt.Errorf("%w: client_id", shared.ErrMissingCredentials)
	}

	clientSecret := credentials["client_secret"]
	if clientSecret == "" {
		return nil, fmt.Errorf("%w: client_secret", shared.ErrMissingCredentials)
	}

	redirectURI := credentials["redirect_uri"]
	if redirectURI == "" {
		redirectURI = DefaultRedirectURI
	}

	return &oauth2.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		RedirectURL:  redirectURI,
		Scopes:       SpotifyScopes,
		Endpoint: oauth2.Endpoint{
			AuthURL:   spotifyAuthURL,
			TokenURL:  spotifyTokenURL,
			AuthStyle: oauth2.AuthStyleInHeader,
		},
	}, nil
}

// SpotifyService implements [Catalog] against the Spotify Web API.
type SpotifyService struct {
	tokens     TokenSource
	baseURL    string
	httpClient *http.Client
}

// NewSpotifyService creates a client that authorizes every request with a token from tokens.
//
// An empty baseURL means the public API; a nil client means [http.DefaultClient].
func NewSpotifyService(tokens TokenSource, baseURL string, client *http.Client) *SpotifyService {
	if baseURL == "" {
		baseURL = spotifyBaseURL
	}
	if client == nil {
		client = http.DefaultClient
	}
	return &SpotifyService{tokens: tokens, baseURL: strings.TrimRight(baseURL, "/"), httpClient: client}
}

func (s *SpotifyService) Name() string {
	return "Spotify"
}

// doRequest performs an authenticated request, JSON-encoding body when non-nil and decoding into result when non-nil.
func (s *SpotifyService) doRequest(ctx context.Context, method, endpoint string, body, result any) error {
	token, err := s.tokens.EnsureValidToken(ctx)
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

	req, err := http.NewRequestWithContext(ctx, method, s.baseURL+endpoint, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+token)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return providerError(resp)
	}

	if result != nil {
		if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}

	return nil
}

func providerError(resp *http.Response) error {
	data, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))

	var e spotifyError
	if err := json.Unmarshal(data, &e); err == nil && e.Error.Message != "" {
		return fmt.Errorf("%w: status %d: %s", shared.ErrAPIRequest, resp.StatusCode, e.Error.Message)
	}
	if text := strings.TrimSpace(string(data)); text != "" {
		return fmt.Errorf("%w: status %d: %s", shared.ErrAPIRequest, resp.StatusCode, text)
	}
	return fmt.Errorf("%w: status %d", shared.ErrAPIRequest, resp.StatusCode)
}

// UserProfile retrieves the current authenticated user's profile.
func (s *SpotifyService) UserProfile(ctx context.Context) (*SpotifyUser, error) {
	var user SpotifyUser
	if err := s.doRequest(ctx, http.MethodGet, "/me", nil, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// TopTracks retrieves the user's most played tracks, 1 to 50 at a time.
func (s *SpotifyService) TopTracks(ctx context.Context, limit int) ([]models.CatalogTrack, error) {
	limit = clampLimit(limit)

	var page trackPage
	endpoint := fmt.Sprintf("/me/top/tracks?limit=%d", limit)
	if err := s.doRequest(ctx, http.MethodGet, endpoint, nil, &page); err != nil {
		return nil, err
	}

	return toCatalog(page.Items), nil
}

// SearchTracks runs a track search using the provider's field filter syntax.
func (s *SpotifyService) SearchTracks(ctx context.Context, query string, limit int) ([]models.CatalogTrack, error) {
	if strings.TrimSpace(query) == "" {
		return nil, fmt.Errorf("%w: search query", shared.ErrMissingArgument)
	}

	params := url.Values{}
	params.Set("q", query)
	params.Set("type", "track")
	params.Set("limit", fmt.Sprint(clampLimit(limit)))

	var response searchResponse
	if err := s.doRequest(ctx, http.MethodGet, "/search?"+params.Encode(), nil, &response); err != nil {
		return nil, err
	}

	return toCatalog(response.Tracks.Items), nil
}

// AddToPlaylist appends uris to the end of the playlist.
func (s *SpotifyService) AddToPlaylist(ctx context.Context, playlistID string, uris ...string) error {
	if playlistID == "" {
		return fmt.Errorf("%w: playlist ID", shared.ErrMissingArgument)
	}
	if len(uris) == 0 {
		return fmt.Errorf("%w: track URI", shared.ErrMissingArgument)
	}

	endpoint := fmt.Sprintf("/playlists/%s/tracks", url.PathEscape(playlistID))
	body := map[string][]string{"uris": uris}
	return s.doRequest(ctx, http.MethodPost, endpoint, body, nil)
}

func clampLimit(limit int) int {
	if limit <= 0 {
		return 20
	}
	if limit > 50 {
		return 50
	}
	return limit
}

func toCatalog(items []SpotifyTrack) []models.CatalogTrack {
	tracks := make([]models.CatalogTrack, 0, len(items))
	for _, item := range items {
		tracks = append(tracks, item.CatalogTrack())
	}
	return tracks
}
