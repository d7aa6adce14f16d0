package config

import (
	"os"
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	os.Setenv("DB_PASSWORD", "test")
	defer os.Clearenv()

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() = %v, want nil", err)
	}

	tests := []struct {
		name     string
		actual   time.Duration
		expected time.Duration
	}{
		{"SessionTTL", cfg.Auth.SessionTTL, 24 * time.Hour},
		{"MagicLinkTTL", cfg.Auth.MagicLinkTTL, 15 * time.Minute},
		{"InviteTTL", cfg.Auth.InviteTTL, 7 * 24 * time.Hour},
		{"ScraperTimeout", cfg.Scraper.Timeout, 2 * time.Second},
	}

	for _, tt := range tests {
		if tt.actual != tt.expected {
			t.Errorf("%s: got %v, want %v", tt.name, tt.actual, tt.expected)
		}
	}

	if cfg.Database.Name != "flipline" {
		t.Errorf("DB name: got %q, want %q", cfg.Database.Name, "flipline")
	}
}

func TestLoad_CustomDurations(t *testing.T) {
	os.Setenv("DB_PASSWORD", "test")
	os.Setenv("MAGIC_LINK_TTL", "30m")
	os.Setenv("SESSION_TTL", "12h")
	defer os.Clearenv()

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() = %v, want nil", err)
	}

	if cfg.Auth.MagicLinkTTL != 30*time.Minute {
		t.Errorf("MagicLinkTTL: got %v, want 30m", cfg.Auth.MagicLinkTTL)
	}
	if cfg.Auth.SessionTTL != 12*time.Hour {
		t.Errorf("SessionTTL: got %v, want 12h", cfg.Auth.SessionTTL)
	}
}

func TestLoad_MissingDBPassword(t *testing.T) {
	os.Clearenv()

	if _, err := Load(); err == nil {
		t.Fatal("Load() without DB_PASSWORD should fail")
	}
}

func TestLoad_InvalidDurationFallsBack(t *testing.T) {
	os.Setenv("DB_PASSWORD", "test")
	os.Setenv("MAGIC_LINK_TTL", "not-a-duration")
	defer os.Clearenv()

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() = %v, want nil", err)
	}

	if cfg.Auth.MagicLinkTTL != 15*time.Minute {
		t.Errorf("MagicLinkTTL: got %v, want default 15m", cfg.Auth.MagicLinkTTL)
	}
}

func TestDatabaseConfig_DSN(t *testing.T) {
	cfg := DatabaseConfig{
		Host: "db.internal", Port: 5433, User: "svc",
		Password: "pw", Name: "flipline", SSLMode: "require",
	}

	want := "host=db.internal port=5433 user=svc password=pw dbname=flipline sslmode=require"
	if got := cfg.DSN(); got != want {
		t.Errorf("DSN: got %q, want %q", got, want)
	}
}
