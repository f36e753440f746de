package shared

import (
	_ "embed"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

//go:embed config.example.toml
var exampleConf []byte

// Config represents the application configuration loaded from a TOML file.
type Config struct {
	Credentials CredentialsConfig `toml:"credentials"`
	Database    DatabaseConfig    `toml:"database"`
	Server      ServerConfig      `toml:"server"`
	Session     SessionConfig     `toml:"session"`
	Player      PlayerConfig      `toml:"player"`
	Log         LogConfig         `toml:"log"`
}

// CredentialsConfig contains service-specific credentials.
type CredentialsConfig struct {
	Spotify SpotifyConfig `toml:"spotify"`
}

// SpotifyConfig contains the public client settings used for the PKCE flow.
type SpotifyConfig struct {
	ClientID    string `toml:"client_id"`
	RedirectURI string `toml:"redirect_uri"`
	AccountsURL string `toml:"accounts_url"`
	APIURL      string `toml:"api_url"`
}

// AuthURL is the authorization endpoint derived from [SpotifyConfig.AccountsURL].
func (s SpotifyConfig) AuthURL() string {
	return strings.TrimRight(s.AccountsURL, "/") + "/authorize"
}

// TokenURL is the token endpoint derived from [SpotifyConfig.AccountsURL].
func (s SpotifyConfig) TokenURL() string {
	return strings.TrimRight(s.AccountsURL, "/") + "/api/token"
}

// DatabaseConfig contains database connection settings.
type DatabaseConfig struct {
	Path         string `toml:"path"`
	MaxOpenConns int    `toml:"max_open_conns"`
	MaxIdleConns int    `toml:"max_idle_conns"`
}

// ServerConfig contains HTTP server settings for the callback and bridge pages.
type ServerConfig struct {
	Host string `toml:"host"`
	Port int    `toml:"port"`
}

// Addr returns host:port.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// SessionConfig controls the token freshness check.
type SessionConfig struct {
	CheckIntervalSecs    int `toml:"check_interval_secs"`
	RefreshLookaheadSecs int `toml:"refresh_lookahead_secs"`
}

// CheckInterval returns the supervisor tick period, defaulting to one minute.
func (s SessionConfig) CheckInterval() time.Duration {
	if s.CheckIntervalSecs <= 0 {
		return time.Minute
	}
	return time.Duration(s.CheckIntervalSecs) * time.Second
}

// RefreshLookahead returns how early a token is refreshed, defaulting to five minutes.
func (s SessionConfig) RefreshLookahead() time.Duration {
	if s.RefreshLookaheadSecs <= 0 {
		return 5 * time.Minute
	}
	return time.Duration(s.RefreshLookaheadSecs) * time.Second
}

// PlayerConfig configures the vendor player and outbound request pacing.
type PlayerConfig struct {
	Name           string  `toml:"name"`
	Volume         int     `toml:"volume"`
	Mode           string  `toml:"mode"`
	DeviceName     string  `toml:"device_name"`
	PollIntervalMS int     `toml:"poll_interval_ms"`
	RateLimit      float64 `toml:"rate_limit"`
	RateBurst      int     `toml:"rate_burst"`
}

// PollInterval returns the Connect-device poll period.
func (p PlayerConfig) PollInterval() time.Duration {
	if p.PollIntervalMS <= 0 {
		return time.Second
	}
	return time.Duration(p.PollIntervalMS) * time.Millisecond
}

// LogConfig contains logger settings.
type LogConfig struct {
	Level string `toml:"level"`
	File  string `toml:"file"`
}

// Validate reports configuration that cannot start a session.
func (c *Config) Validate() error {
	if c.Credentials.Spotify.ClientID == "" || c.Credentials.Spotify.ClientID == "your_spotify_client_id" {
		return fmt.Errorf("%w: credentials.spotify.client_id must be set", ErrMissingCredentials)
	}
	if c.Credentials.Spotify.RedirectURI == "" {
		return fmt.Errorf("%w: credentials.spotify.redirect_uri must be set", ErrInvalidConfig)
	}
	switch c.Player.Mode {
	case "", "bridge", "connect":
	default:
		return fmt.Errorf("%w: unknown player mode %q", ErrInvalidConfig, c.Player.Mode)
	}
	return nil
}

// LoadConfig reads and parses a TOML configuration file from the specified path.
//
// Values missing from the file fall back to the embedded defaults.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	if err := toml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	return config, nil
}

// LoadConfigOrDefault loads path when it exists and otherwise returns [DefaultConfig].
func LoadConfigOrDefault(path string) (*Config, error) {
	if _, err := os.Stat(path); err != nil {
		return DefaultConfig(), nil
	}
	return LoadConfig(path)
}

// DefaultConfig returns a Config with sensible defaults loaded from the embedded example config.
func DefaultConfig() *Config {
	var config Config
	if err := toml.Unmarshal(exampleConf, &config); err != nil {
		panic(fmt.Sprintf("failed to parse embedded default config: %v", err))
	}
	return &config
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
