package config

import (
	"testing"
	"time"
)

func setRequired(t *testing.T) {
	t.Helper()
	t.Setenv("SCANWATCH_API_URL", "https://scans.example.test/")
	t.Setenv("SCANWATCH_API_TOKEN", "token")
	t.Setenv("SCANWATCH_USER_ID", "42")
}

func TestLoadDefaults(t *testing.T) {
	setRequired(t)
	t.Setenv("HTTP_ADDR", "")
	t.Setenv("RECONNECT_MAX_ATTEMPTS", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.APIBaseURL != "https://scans.example.test" {
		t.Fatalf("APIBaseURL = %q, trailing slash not trimmed", cfg.APIBaseURL)
	}
	if cfg.HTTPAddr != ":8090" {
		t.Fatalf("HTTPAddr = %q, want :8090", cfg.HTTPAddr)
	}
	if cfg.FetchTimeout != 30*time.Second {
		t.Fatalf("FetchTimeout = %v, want 30s", cfg.FetchTimeout)
	}
	if cfg.ReconnectMaxAttempts != 5 {
		t.Fatalf("ReconnectMaxAttempts = %d, want 5", cfg.ReconnectMaxAttempts)
	}
}

func TestLoadRequiresBaseURL(t *testing.T) {
	t.Setenv("SCANWATCH_API_URL", "")
	t.Setenv("SCANWATCH_API_TOKEN", "token")

	if _, err := LoadREST(); err == nil {
		t.Fatal("expected error for missing SCANWATCH_API_URL")
	}
}

func TestLoadRequiresUserIDOnlyForChannelCommands(t *testing.T) {
	t.Setenv("SCANWATCH_API_URL", "https://scans.example.test")
	t.Setenv("SCANWATCH_API_TOKEN", "token")
	t.Setenv("SCANWATCH_USER_ID", "")

	if _, err := Load(); err == nil {
		t.Fatal("expected error for missing SCANWATCH_USER_ID")
	}
	if _, err := LoadREST(); err != nil {
		t.Fatalf("LoadREST() error = %v, want nil", err)
	}
}

func TestLoadParsesOverrides(t *testing.T) {
	setRequired(t)
	t.Setenv("RECONNECT_BACKOFF_BASE", "250ms")
	t.Setenv("RECONNECT_BACKOFF_MAX", "10s")
	t.Setenv("RECONNECT_MAX_ATTEMPTS", "0")
	t.Setenv("FETCH_TIMEOUT", "5s")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.ReconnectBackoffBase != 250*time.Millisecond {
		t.Fatalf("ReconnectBackoffBase = %v", cfg.ReconnectBackoffBase)
	}
	if cfg.ReconnectBackoffMax != 10*time.Second {
		t.Fatalf("ReconnectBackoffMax = %v", cfg.ReconnectBackoffMax)
	}
	if cfg.ReconnectMaxAttempts != 0 {
		t.Fatalf("ReconnectMaxAttempts = %d, want 0 (reconnection disabled)", cfg.ReconnectMaxAttempts)
	}
	if cfg.FetchTimeout != 5*time.Second {
		t.Fatalf("FetchTimeout = %v", cfg.FetchTimeout)
	}
}

func TestInvalidDurationFallsBackToDefault(t *testing.T) {
	setRequired(t)
	t.Setenv("FETCH_TIMEOUT", "not-a-duration")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.FetchTimeout != 30*time.Second {
		t.Fatalf("FetchTimeout = %v, want default 30s", cfg.FetchTimeout)
	}
}
