package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("APP_ENV", "")
	t.Setenv("CP_API_URL", "")
	t.Setenv("CP_HTTP_TIMEOUT", "")
	t.Setenv("CP_POLL_INTERVAL", "")
	t.Setenv("PORT", "")
	t.Setenv("HTTP_PORT", "")
	t.Setenv("MOCKAPI_MONTHLY_QUOTA", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() returned error: %v", err)
	}

	if cfg.APIBaseURL != "http://localhost:8000" {
		t.Fatalf("unexpected API base URL %q", cfg.APIBaseURL)
	}
	if cfg.PollInterval != 5*time.Second {
		t.Fatalf("unexpected poll interval %s", cfg.PollInterval)
	}
	if cfg.HTTPPort != 8000 {
		t.Fatalf("unexpected port %d", cfg.HTTPPort)
	}
	if cfg.SecureTransport() {
		t.Fatal("expected insecure transport for http base URL")
	}
}

func TestLoadTrimsTrailingSlashFromBaseURL(t *testing.T) {
	t.Setenv("CP_API_URL", "https://api.contentpilot.dev/")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() returned error: %v", err)
	}

	if cfg.APIBaseURL != "https://api.contentpilot.dev" {
		t.Fatalf("expected trailing slash trimmed, got %q", cfg.APIBaseURL)
	}
	if !cfg.SecureTransport() {
		t.Fatal("expected secure transport for https base URL")
	}
}

func TestLoadRejectsInvalidPollInterval(t *testing.T) {
	t.Setenv("CP_POLL_INTERVAL", "soon")

	if _, err := Load(); err == nil {
		t.Fatal("expected error for unparseable poll interval")
	}
}

func TestLoadRejectsNonPositiveTimeout(t *testing.T) {
	t.Setenv("CP_HTTP_TIMEOUT", "-5s")

	if _, err := Load(); err == nil {
		t.Fatal("expected error for negative timeout")
	}
}
