package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	for _, key := range []string{
		"TRYON_API_BASE_URL", "TRYON_HTTP_TIMEOUT_SECONDS", "TRYON_BREAKER_ENABLED",
		"NATS_URL", "NATS_SUBJECT", "RESULT_STORAGE_PATH", "API_MAX_UPLOAD_MB",
	} {
		t.Setenv(key, "")
	}

	cfg := Load()
	if cfg.TryOnAPIBaseURL != "http://localhost:8000" {
		t.Fatalf("expected default backend url, got %q", cfg.TryOnAPIBaseURL)
	}
	if cfg.TryOnHTTPTimeout() != 0 {
		t.Fatalf("expected no backend timeout by default, got %s", cfg.TryOnHTTPTimeout())
	}
	if !cfg.TryOnBreakerEnabled {
		t.Fatalf("expected breaker enabled by default")
	}
	if cfg.EventsEnabled() {
		t.Fatalf("expected session events disabled without NATS_URL")
	}
	if cfg.NATSSubject != "tryon.session.events" {
		t.Fatalf("expected default subject, got %q", cfg.NATSSubject)
	}
	if cfg.ResultStoragePath != "./data/results" {
		t.Fatalf("expected default result path, got %q", cfg.ResultStoragePath)
	}
	if cfg.MaxUploadBytes() != 20<<20 {
		t.Fatalf("expected 20MB upload limit, got %d", cfg.MaxUploadBytes())
	}
}

func TestLoadParsesOverrides(t *testing.T) {
	t.Setenv("TRYON_HTTP_TIMEOUT_SECONDS", "90")
	t.Setenv("TRYON_BREAKER_ENABLED", "false")
	t.Setenv("NATS_URL", "nats://nats:4222")
	t.Setenv("API_RATE_LIMIT_RPS", "2.5")
	t.Setenv("API_MAX_UPLOAD_MB", "not-a-number")

	cfg := Load()
	if cfg.TryOnHTTPTimeout() != 90*time.Second {
		t.Fatalf("expected 90s timeout, got %s", cfg.TryOnHTTPTimeout())
	}
	if cfg.TryOnBreakerEnabled {
		t.Fatalf("expected breaker override to disable it")
	}
	if !cfg.EventsEnabled() {
		t.Fatalf("expected session events enabled")
	}
	if cfg.APIRateLimitRPS != 2.5 {
		t.Fatalf("expected rps 2.5, got %v", cfg.APIRateLimitRPS)
	}
	if cfg.APIMaxUploadMB != 20 {
		t.Fatalf("expected invalid value to fall back to 20, got %d", cfg.APIMaxUploadMB)
	}
}

func TestLoadDotEnvDoesNotOverrideEnvironment(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	content := "TRYON_API_BASE_URL=http://from-file:8000\nNATS_SUBJECT=from.file\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write env file: %v", err)
	}
	t.Setenv("TRYON_API_BASE_URL", "http://from-env:8000")
	t.Setenv("NATS_SUBJECT", "")
	os.Unsetenv("NATS_SUBJECT")

	if err := LoadDotEnv(path, filepath.Join(t.TempDir(), "missing.env")); err != nil {
		t.Fatalf("LoadDotEnv: %v", err)
	}
	t.Cleanup(func() { os.Unsetenv("NATS_SUBJECT") })

	if got := os.Getenv("TRYON_API_BASE_URL"); got != "http://from-env:8000" {
		t.Fatalf("expected process env to win, got %q", got)
	}
	if got := os.Getenv("NATS_SUBJECT"); got != "from.file" {
		t.Fatalf("expected value from file, got %q", got)
	}
}
