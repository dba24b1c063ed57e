// Package config loads the client configuration from a TOML file with a
// defaults → file → environment → CLI flags override chain.
package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"time"
)

// appDir is the per-user directory holding the config file and token file.
const appDir = "buzzheavier-go"

// Default timeouts. Uploads stream large bodies and get a longer budget,
// matching the service's separate upload host.
const (
	DefaultHTTPTimeout   = 30 * time.Second
	DefaultUploadTimeout = 120 * time.Second
)

// Config is the on-disk configuration. All fields are optional; missing
// fields take defaults.
type Config struct {
	BaseURL       string `toml:"base_url"`
	UploadBaseURL string `toml:"upload_base_url"`
	TokenPath     string `toml:"token_path"`

	HTTPTimeoutSeconds   int `toml:"http_timeout_seconds"`
	UploadTimeoutSeconds int `toml:"upload_timeout_seconds"`

	LogLevel string `toml:"log_level"`
}

// DefaultConfig returns a Config populated with all default values.
func DefaultConfig() *Config {
	return &Config{
		BaseURL:              "https://buzzheavier.com",
		UploadBaseURL:        "https://w.buzzheavier.com",
		TokenPath:            DefaultTokenPath(),
		HTTPTimeoutSeconds:   int(DefaultHTTPTimeout / time.Second),
		UploadTimeoutSeconds: int(DefaultUploadTimeout / time.Second),
		LogLevel:             "info",
	}
}

// DefaultConfigPath returns the default config file location
// (~/.config/buzzheavier-go/config.toml on Linux).
func DefaultConfigPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}

	return filepath.Join(dir, appDir, "config.toml")
}

// DefaultTokenPath returns the default token file location, next to the
// config file.
func DefaultTokenPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}

	return filepath.Join(dir, appDir, "tokens.json")
}

// HTTPTimeout returns the API call timeout as a Duration.
func (c *Config) HTTPTimeout() time.Duration {
	return time.Duration(c.HTTPTimeoutSeconds) * time.Second
}

// UploadTimeout returns the upload timeout as a Duration.
func (c *Config) UploadTimeout() time.Duration {
	return time.Duration(c.UploadTimeoutSeconds) * time.Second
}

// validLogLevels are the accepted log_level values.
var validLogLevels = map[string]bool{
	"debug": true,
	"info":  true,
	"warn":  true,
	"error": true,
}

// Validate checks a Config for invalid values.
func Validate(cfg *Config) error {
	for name, raw := range map[string]string{
		"base_url":        cfg.BaseURL,
		"upload_base_url": cfg.UploadBaseURL,
	} {
		u, err := url.Parse(raw)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return fmt.Errorf("config: %s %q is not a valid URL", name, raw)
		}
	}

	if cfg.HTTPTimeoutSeconds <= 0 {
		return fmt.Errorf("config: http_timeout_seconds must be positive, got %d", cfg.HTTPTimeoutSeconds)
	}

	if cfg.UploadTimeoutSeconds <= 0 {
		return fmt.Errorf("config: upload_timeout_seconds must be positive, got %d", cfg.UploadTimeoutSeconds)
	}

	if !validLogLevels[cfg.LogLevel] {
		return fmt.Errorf("config: unknown log_level %q", cfg.LogLevel)
	}

	if cfg.TokenPath == "" {
		return fmt.Errorf("config: token_path is empty and no user config directory is available")
	}

	return nil
}
