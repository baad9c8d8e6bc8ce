package infra

import (
	"testing"
	"time"
)

func TestLoadConfigRequiresDatabaseURL(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	t.Setenv("SLACK_SIGNING_SECRET", "secret")

	if _, err := LoadConfig(); err == nil {
		t.Fatal("LoadConfig without DATABASE_URL succeeded")
	}
}

func TestLoadConfigRequiresSigningSecret(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/emojigen")
	t.Setenv("SLACK_SIGNING_SECRET", "")

	if _, err := LoadConfig(); err == nil {
		t.Fatal("LoadConfig without SLACK_SIGNING_SECRET succeeded")
	}
}

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/emojigen")
	t.Setenv("SLACK_SIGNING_SECRET", "secret")
	t.Setenv("PORT", "")
	t.Setenv("PROVIDER_ORDER", "")
	t.Setenv("VISIBILITY_TIMEOUT_SECONDS", "")
	t.Setenv("MAX_RETRIES", "")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig returned error: %v", err)
	}
	if cfg.Port != "8080" {
		t.Fatalf("port = %q, want default 8080", cfg.Port)
	}
	if cfg.ProviderOrder != "gemini,openai" {
		t.Fatalf("provider order = %q", cfg.ProviderOrder)
	}
	if cfg.VisibilityTimeout != 5*time.Minute {
		t.Fatalf("visibility timeout = %v, want 5m", cfg.VisibilityTimeout)
	}
	if cfg.MaxRetries != 3 {
		t.Fatalf("max retries = %d, want 3", cfg.MaxRetries)
	}
}

func TestLoadConfigOverrides(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/emojigen")
	t.Setenv("SLACK_SIGNING_SECRET", "secret")
	t.Setenv("PORT", "9090")
	t.Setenv("JOB_TIMEOUT_SECONDS", "45")
	t.Setenv("MAX_RETRIES", "not-a-number")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig returned error: %v", err)
	}
	if cfg.Port != "9090" {
		t.Fatalf("port = %q", cfg.Port)
	}
	if cfg.JobTimeout != 45*time.Second {
		t.Fatalf("job timeout = %v", cfg.JobTimeout)
	}
	// Unparsable numbers fall back instead of failing startup.
	if cfg.MaxRetries != 3 {
		t.Fatalf("max retries = %d, want fallback 3", cfg.MaxRetries)
	}
}
