// Package config loads analyzer settings from the environment.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"solana-token-analyzer/internal/solana"
)

// Environment variables.
const (
	EnvRPCURL         = "RPC_URL"
	EnvRateLimitDelay = "RATE_LIMIT_DELAY"
	EnvTimeout        = "TIMEOUT"
	EnvLogFile        = "LOG_FILE"
	EnvMetricsAddr    = "METRICS_ADDR"
	EnvHolderLimit    = "HOLDER_LIMIT"
	EnvActivityLimit  = "ACTIVITY_LIMIT"
)

// Defaults.
const (
	DefaultLogFile       = "solana_analyzer.log"
	DefaultHolderLimit   = 10
	DefaultActivityLimit = 5
)

// Config holds runtime settings.
type Config struct {
	RPCURL         string
	BackupRPCs     []string
	RateLimitDelay time.Duration
	Timeout        time.Duration
	LogFile        string // empty disables file logging
	MetricsAddr    string // empty disables the metrics server
	HolderLimit    int
	ActivityLimit  int
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		RPCURL:         solana.DefaultEndpoint,
		BackupRPCs:     append([]string(nil), solana.DefaultBackupEndpoints...),
		RateLimitDelay: solana.DefaultRateLimitDelay,
		Timeout:        solana.DefaultTimeout,
		LogFile:        DefaultLogFile,
		HolderLimit:    DefaultHolderLimit,
		ActivityLimit:  DefaultActivityLimit,
	}
}

// Load reads a .env file from the working directory, if present, then the
// process environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}
	return FromEnv(os.LookupEnv)
}

// FromEnv builds a Config from lookup, starting from Default.
// Unset variables keep their default; set but invalid values are errors.
func FromEnv(lookup func(string) (string, bool)) (*Config, error) {
	cfg := Default()

	if v, ok := lookup(EnvRPCURL); ok && strings.TrimSpace(v) != "" {
		cfg.RPCURL = strings.TrimSpace(v)
	}

	var err error
	if cfg.RateLimitDelay, err = seconds(lookup, EnvRateLimitDelay, cfg.RateLimitDelay); err != nil {
		return nil, err
	}
	if cfg.Timeout, err = seconds(lookup, EnvTimeout, cfg.Timeout); err != nil {
		return nil, err
	}
	if v, ok := lookup(EnvLogFile); ok {
		cfg.LogFile = strings.TrimSpace(v)
	}
	if v, ok := lookup(EnvMetricsAddr); ok {
		cfg.MetricsAddr = strings.TrimSpace(v)
	}
	if cfg.HolderLimit, err = integer(lookup, EnvHolderLimit, cfg.HolderLimit); err != nil {
		return nil, err
	}
	if cfg.ActivityLimit, err = integer(lookup, EnvActivityLimit, cfg.ActivityLimit); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks the configuration for values the client cannot use.
func (c *Config) Validate() error {
	if err := validateURL(c.RPCURL); err != nil {
		return fmt.Errorf("%s: %w", EnvRPCURL, err)
	}
	for _, b := range c.BackupRPCs {
		if err := validateURL(b); err != nil {
			return fmt.Errorf("backup endpoint: %w", err)
		}
	}
	if c.RateLimitDelay < 0 {
		return fmt.Errorf("%s must not be negative", EnvRateLimitDelay)
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("%s must be positive", EnvTimeout)
	}
	if c.HolderLimit <= 0 {
		return fmt.Errorf("%s must be positive", EnvHolderLimit)
	}
	if c.ActivityLimit <= 0 {
		return fmt.Errorf("%s must be positive", EnvActivityLimit)
	}
	return nil
}

func validateURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("invalid url %q: %w", raw, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("invalid url %q: scheme must be http or https", raw)
	}
	if u.Host == "" {
		return fmt.Errorf("invalid url %q: missing host", raw)
	}
	return nil
}

// seconds parses a float number of seconds.
func seconds(lookup func(string) (string, bool), key string, def time.Duration) (time.Duration, error) {
	v, ok := lookup(key)
	if !ok || strings.TrimSpace(v) == "" {
		return def, nil
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
	if err != nil {
		return 0, fmt.Errorf("%s: invalid number %q", key, v)
	}
	return time.Duration(f * float64(time.Second)), nil
}

func integer(lookup func(string) (string, bool), key string, def int) (int, error) {
	v, ok := lookup(key)
	if !ok || strings.TrimSpace(v) == "" {
		return def, nil
	}
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil {
		return 0, fmt.Errorf("%s: invalid integer %q", key, v)
	}
	return n, nil
}
