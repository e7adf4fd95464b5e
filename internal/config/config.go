// Package config loads runtime configuration from the environment.
package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	defaultHTTPAddr    = ":8090"
	defaultMetricsAddr = ""

	defaultFetchTimeout = 30 * time.Second

	defaultReconnectBackoffBase = 1 * time.Second
	defaultReconnectBackoffMax  = 1 * time.Minute
	defaultReconnectMaxAttempts = 5
)

// Config holds everything the scanwatch commands need to talk to a scan
// backend and expose the synchronized view locally.
type Config struct {
	// APIBaseURL is the scan backend base URL, e.g. https://scans.example.test.
	// The REST prefix (/api/v1) and the status channel path (/ws/status) are
	// derived from it.
	APIBaseURL string
	// APIToken is the bearer token for the authenticated identity.
	APIToken string
	// UserID scopes the status channel connection to the authenticated
	// identity.
	UserID string

	HTTPAddr    string
	MetricsAddr string

	FetchTimeout time.Duration

	// Status channel reconnection policy. Zero ReconnectMaxAttempts disables
	// automatic reconnection.
	ReconnectBackoffBase time.Duration
	ReconnectBackoffMax  time.Duration
	ReconnectMaxAttempts int
}

// LoadOptions controls which settings are mandatory for the calling command.
type LoadOptions struct {
	RequireUserID bool
}

// Load reads configuration for commands that open a status channel and
// therefore need an identity.
func Load() (Config, error) {
	return LoadWithOptions(LoadOptions{RequireUserID: true})
}

// LoadREST reads configuration for one-shot REST commands, which need no
// status channel identity.
func LoadREST() (Config, error) {
	return LoadWithOptions(LoadOptions{RequireUserID: false})
}

func LoadWithOptions(opts LoadOptions) (Config, error) {
	if err := godotenv.Load(); err != nil {
		var pathErr *os.PathError
		if !errors.As(err, &pathErr) {
			return Config{}, err
		}
	}

	cfg := Config{
		APIBaseURL:           strings.TrimRight(strings.TrimSpace(os.Getenv("SCANWATCH_API_URL")), "/"),
		APIToken:             strings.TrimSpace(os.Getenv("SCANWATCH_API_TOKEN")),
		UserID:               strings.TrimSpace(os.Getenv("SCANWATCH_USER_ID")),
		HTTPAddr:             getenvDefault("HTTP_ADDR", defaultHTTPAddr),
		MetricsAddr:          getenvDefault("METRICS_ADDR", defaultMetricsAddr),
		FetchTimeout:         getenvDurationDefault("FETCH_TIMEOUT", defaultFetchTimeout),
		ReconnectBackoffBase: getenvDurationDefault("RECONNECT_BACKOFF_BASE", defaultReconnectBackoffBase),
		ReconnectBackoffMax:  getenvDurationDefault("RECONNECT_BACKOFF_MAX", defaultReconnectBackoffMax),
		ReconnectMaxAttempts: getenvIntDefault("RECONNECT_MAX_ATTEMPTS", defaultReconnectMaxAttempts),
	}

	if cfg.APIBaseURL == "" {
		return cfg, errors.New("SCANWATCH_API_URL is required")
	}
	if cfg.APIToken == "" {
		return cfg, errors.New("SCANWATCH_API_TOKEN is required")
	}
	if opts.RequireUserID && cfg.UserID == "" {
		return cfg, errors.New("SCANWATCH_USER_ID is required to open the status channel")
	}

	return cfg, nil
}

func getenvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvIntDefault(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil {
		return def
	}
	return n
}

func getenvDurationDefault(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(strings.TrimSpace(v))
	if err != nil || d <= 0 {
		return def
	}
	return d
}
