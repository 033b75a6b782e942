package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	toml "github.com/pelletier/go-toml/v2"
)

// Config holds mantle's runtime settings.
type Config struct {
	APIAddress        string
	PollInterval      time.Duration
	RequestTimeout    time.Duration
	TokenTimeout      time.Duration
	CacheTTL          time.Duration
	CacheMaxEntries   int
	RequestsPerSecond float64
	LogFile           string
}

const (
	defaultConfigPath        = "~/.config/mantle/config.toml"
	defaultLogFile           = "~/.local/state/mantle/mantle.log"
	defaultAPIAddress        = "127.0.0.1:8080"
	defaultPollSeconds       = 5
	defaultRequestTimeout    = 10
	defaultTokenTimeout      = 2
	defaultCacheTTLSeconds   = 600
	defaultCacheMaxEntries   = 5
	defaultRequestsPerSecond = 5

	// EnvAPIAddress overrides api_address when set.
	EnvAPIAddress = "MANTLE_API_ADDRESS"
)

// Default returns the configuration used when no file exists.
func Default() Config {
	return Config{
		APIAddress:        defaultAPIAddress,
		PollInterval:      defaultPollSeconds * time.Second,
		RequestTimeout:    defaultRequestTimeout * time.Second,
		TokenTimeout:      defaultTokenTimeout * time.Second,
		CacheTTL:          defaultCacheTTLSeconds * time.Second,
		CacheMaxEntries:   defaultCacheMaxEntries,
		RequestsPerSecond: defaultRequestsPerSecond,
		LogFile:           mustExpand(defaultLogFile),
	}
}

// Load locates and parses the mantle config, falling back to defaults when missing.
func Load(path string) (Config, error) {
	resolved, err := resolvePath(path)
	if err != nil {
		return Config{}, err
	}

	cfg := Default()

	file, err := os.Open(resolved)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			cfg.applyEnv()
			return cfg, nil
		}
		return Config{}, fmt.Errorf("open config: %w", err)
	}
	defer file.Close()

	bytes, err := io.ReadAll(file)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}

	var raw struct {
		APIAddress        string   `toml:"api_address"`
		PollSeconds       *int     `toml:"poll_seconds"`
		RequestTimeout    *int     `toml:"request_timeout_seconds"`
		TokenTimeout      *int     `toml:"token_timeout_seconds"`
		CacheTTLSeconds   *int     `toml:"cache_ttl_seconds"`
		CacheMaxEntries   *int     `toml:"cache_max_entries"`
		RequestsPerSecond *float64 `toml:"requests_per_second"`
		LogFile           string   `toml:"log_file"`
	}
	if err := toml.Unmarshal(bytes, &raw); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}

	if v := strings.TrimSpace(raw.APIAddress); v != "" {
		cfg.APIAddress = v
	}
	if raw.PollSeconds != nil {
		cfg.PollInterval = time.Duration(*raw.PollSeconds) * time.Second
	}
	if raw.RequestTimeout != nil {
		cfg.RequestTimeout = time.Duration(*raw.RequestTimeout) * time.Second
	}
	if raw.TokenTimeout != nil {
		cfg.TokenTimeout = time.Duration(*raw.TokenTimeout) * time.Second
	}
	if raw.CacheTTLSeconds != nil {
		cfg.CacheTTL = time.Duration(*raw.CacheTTLSeconds) * time.Second
	}
	if raw.CacheMaxEntries != nil {
		cfg.CacheMaxEntries = *raw.CacheMaxEntries
	}
	if raw.RequestsPerSecond != nil {
		cfg.RequestsPerSecond = *raw.RequestsPerSecond
	}
	if v := strings.TrimSpace(raw.LogFile); v != "" {
		cfg.LogFile = mustExpand(v)
	}

	cfg.applyEnv()
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate rejects settings the rest of mantle cannot work with.
func (c Config) Validate() error {
	var errs []error
	if strings.TrimSpace(c.APIAddress) == "" {
		errs = append(errs, errors.New("api_address is empty"))
	}
	for _, d := range []struct {
		name  string
		value time.Duration
	}{
		{"poll_seconds", c.PollInterval},
		{"request_timeout_seconds", c.RequestTimeout},
		{"token_timeout_seconds", c.TokenTimeout},
		{"cache_ttl_seconds", c.CacheTTL},
	} {
		if d.value <= 0 {
			errs = append(errs, fmt.Errorf("%s must be positive, got %s", d.name, d.value))
		}
	}
	if c.CacheMaxEntries <= 0 {
		errs = append(errs, fmt.Errorf("cache_max_entries must be positive, got %d", c.CacheMaxEntries))
	}
	if c.RequestsPerSecond <= 0 {
		errs = append(errs, fmt.Errorf("requests_per_second must be positive, got %g", c.RequestsPerSecond))
	}
	if len(errs) > 0 {
		return fmt.Errorf("invalid config: %w", errors.Join(errs...))
	}
	return nil
}

func (c *Config) applyEnv() {
	if v := strings.TrimSpace(os.Getenv(EnvAPIAddress)); v != "" {
		c.APIAddress = v
	}
}

func resolvePath(path string) (string, error) {
	if strings.TrimSpace(path) == "" {
		return expandPath(defaultConfigPath)
	}
	return expandPath(path)
}

func mustExpand(path string) string {
	expanded, err := expandPath(path)
	if err != nil {
		return path
	}
	return expanded
}

func expandPath(path string) (string, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return "", fmt.Errorf("path is empty")
	}
	if strings.HasPrefix(trimmed, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home dir: %w", err)
		}
		trimmed = filepath.Join(home, strings.TrimPrefix(trimmed, "~"))
	}
	return filepath.Abs(trimmed)
}
