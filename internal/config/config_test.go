package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("TEAMTASK_API_URL", "")
	t.Setenv("TEAMTASK_POLL_INTERVAL", "")
	t.Setenv("TEAMTASK_REQUEST_TIMEOUT", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.APIBaseURL != "http://localhost:5000/api/v1" {
		t.Fatalf("api url = %q", cfg.APIBaseURL)
	}
	if cfg.PollInterval != 10*time.Second {
		t.Fatalf("poll interval = %v, want 10s", cfg.PollInterval)
	}
	if cfg.RequestTimeout != 15*time.Second {
		t.Fatalf("request timeout = %v, want 15s", cfg.RequestTimeout)
	}
	if cfg.CachePath == "" {
		t.Fatal("cache path is empty")
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("TEAMTASK_API_URL", "https://pm.internal/api/v1")
	t.Setenv("TEAMTASK_POLL_INTERVAL", "30s")
	t.Setenv("TEAMTASK_DB_PATH", "/tmp/tt.db")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.APIBaseURL != "https://pm.internal/api/v1" {
		t.Fatalf("api url = %q", cfg.APIBaseURL)
	}
	if cfg.PollInterval != 30*time.Second {
		t.Fatalf("poll interval = %v, want 30s", cfg.PollInterval)
	}
	if cfg.CachePath != "/tmp/tt.db" {
		t.Fatalf("cache path = %q", cfg.CachePath)
	}
}

func TestBadDurationFallsBack(t *testing.T) {
	t.Setenv("TEAMTASK_POLL_INTERVAL", "not-a-duration")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.PollInterval != 10*time.Second {
		t.Fatalf("poll interval = %v, want default 10s", cfg.PollInterval)
	}
}
