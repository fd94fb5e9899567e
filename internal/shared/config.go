package shared

import (
	_ "embed"
	"fmt"
	"os"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/caarlos0/env/v11"
)

//go:embed config.example.toml
var exampleConf []byte

// Config represents the application configuration loaded from a TOML file.
//
// Environment variables named in `env` tags take precedence over the file.
type Config struct {
	Credentials CredentialsConfig `toml:"credentials"`
	Database    DatabaseConfig    `toml:"database"`
	Server      ServerConfig      `toml:"server"`
	Agent       AgentConfig       `toml:"agent"`
	Scanner     ScannerConfig     `toml:"scanner"`
	Matcher     MatcherConfig     `toml:"matcher"`
}

// CredentialsConfig contains service-specific credentials.
type CredentialsConfig struct {
	Spotify SpotifyConfig `toml:"spotify"`
}

// SpotifyConfig contains Spotify API credentials.
type SpotifyConfig struct {
	ClientID     string `toml:"client_id" env:"SPOTIFY_CLIENT_ID"`
	ClientSecret string `toml:"client_secret" env:"SPOTIFY_CLIENT_SECRET"`
	RedirectURI  string `toml:"redirect_uri" env:"SPOTIFY_REDIRECT_URI"`
}

// Map returns the credentials in the shape [services] constructors expect.
func (s SpotifyConfig) Map() map[string]string {
	return map[string]string{
		"client_id":     s.ClientID,
		"client_secret": s.ClientSecret,
		"redirect_uri":  s.RedirectURI,
	}
}

// DatabaseConfig contains database connection settings.
type DatabaseConfig struct {
	Path         string `toml:"path" env:"TRACKLIFT_DB"`
	MaxOpenConns int    `toml:"max_open_conns"`
	MaxIdleConns int    `toml:"max_idle_conns"`
}

// ServerConfig contains backend HTTP server settings.
type ServerConfig struct {
	Host              string `toml:"host"`
	Port              int    `toml:"port" env:"PORT"`
	DefaultPlaylistID string `toml:"default_playlist_id" env:"TRACKLIFT_DEFAULT_PLAYLIST"`
}

// Addr returns the host:port listen address.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// AgentConfig contains the agent's message bus listener settings.
type AgentConfig struct {
	Host string `toml:"host"`
	Port int    `toml:"port" env:"TRACKLIFT_AGENT_PORT"`
}

// Addr returns the host:port listen address.
func (a AgentConfig) Addr() string {
	return fmt.Sprintf("%s:%d", a.Host, a.Port)
}

// BusURL returns the websocket URL clients dial to reach the agent.
func (a AgentConfig) BusURL() string {
	return fmt.Sprintf("ws://%s/bus", a.Addr())
}

// ScannerConfig tunes the rescan scheduler.
type ScannerConfig struct {
	QuiescenceMS int `toml:"quiescence_ms"`
}

// Quiescence returns the debounce window, defaulting to 300ms.
func (s ScannerConfig) Quiescence() time.Duration {
	if s.QuiescenceMS <= 0 {
		return 300 * time.Millisecond
	}
	return time.Duration(s.QuiescenceMS) * time.Millisecond
}

// MatcherConfig tunes catalog access.
type MatcherConfig struct {
	RateLimit float64 `toml:"rate_limit"`
}

// LoadConfig reads a TOML configuration file over the embedded defaults, then applies environment overrides.
//
// Keys missing from the file keep their default values.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	if err := toml.Unmarshal(exampleConf, &config); err != nil {
		return nil, fmt.Errorf("failed to parse embedded default config: %w", err)
	}
	if err := toml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if err := env.Parse(&config); err != nil {
		return nil, fmt.Errorf("failed to apply environment overrides: %w", err)
	}

	return &config, nil
}

// DefaultConfig returns a Config with sensible defaults loaded from the embedded example config.
func DefaultConfig() *Config {
	var config Config
	if err := toml.Unmarshal(exampleConf, &config); err != nil {
		panic(fmt.Sprintf("failed to parse embedded default config: %v", err))
	}
	if err := env.Parse(&config); err != nil {
		panic(fmt.Sprintf("failed to apply environment overrides: %v", err))
	}
	return &config
}

// ResolveConfig loads the config at path when it exists and falls back to [DefaultConfig] otherwise.
func ResolveConfig(path string) (*Config, error) {
	if _, err := os.Stat(path); err != nil {
		return DefaultConfig(), nil
	}
	return LoadConfig(path)
}

// CreateConfigFile creates a config.toml file at the specified path using the embedded example config.
func CreateConfigFile(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s", path)
	}

	if err := os.WriteFile(path, exampleConf, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}
