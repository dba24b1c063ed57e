package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/BurntSushi/toml"
)

// Load reads and parses a TOML config file, validates it, and returns the
// resulting Config. Unknown keys are fatal — silently ignoring a typo in
// a config file leads to hard-to-debug behavior.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	md, err := toml.DecodeFile(path, cfg)
	if err != nil {
		return nil, fmt.Errorf("parsing config file %s: %w", path, err)
	}

	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, 0, len(undecoded))
		for _, k := range undecoded {
			keys = append(keys, k.String())
		}

		return nil, fmt.Errorf("config: unknown keys in %s: %s", path, strings.Join(keys, ", "))
	}

	if err := Validate(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// LoadOrDefault reads a TOML config file if it exists, otherwise returns
// a Config populated with all default values. This supports the
// zero-config first-run experience.
func LoadOrDefault(path string) (*Config, error) {
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return DefaultConfig(), nil
	}

	return Load(path)
}

// EnvOverrides are configuration values read from the environment.
// Empty fields mean "not set".
type EnvOverrides struct {
	ConfigPath string
	BaseURL    string
	TokenPath  string
}

// ReadEnvOverrides reads the supported environment variables.
func ReadEnvOverrides() EnvOverrides {
	return EnvOverrides{
		ConfigPath: os.Getenv("BUZZHEAVIER_CONFIG"),
		BaseURL:    os.Getenv("BUZZHEAVIER_BASE_URL"),
		TokenPath:  os.Getenv("BUZZHEAVIER_TOKEN_PATH"),
	}
}

// CLIOverrides are configuration values from command-line flags.
// Empty fields mean "not set".
type CLIOverrides struct {
	ConfigPath string
	BaseURL    string
}

// Resolve loads configuration and applies the override chain:
// defaults -> config file -> environment variables -> CLI flags.
// CLI flags always win, matching user expectations for one-off overrides
// without editing the config file.
func Resolve(env EnvOverrides, cli CLIOverrides) (*Config, error) {
	cfgPath := DefaultConfigPath()
	if env.ConfigPath != "" {
		cfgPath = env.ConfigPath
	}

	if cli.ConfigPath != "" {
		cfgPath = cli.ConfigPath
	}

	cfg, err := LoadOrDefault(cfgPath)
	if err != nil {
		return nil, err
	}

	if env.BaseURL != "" {
		cfg.BaseURL = env.BaseURL
	}

	if env.TokenPath != "" {
		cfg.TokenPath = env.TokenPath
	}

	if cli.BaseURL != "" {
		cfg.BaseURL = cli.BaseURL
	}

	if err := Validate(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}
