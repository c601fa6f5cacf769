package app

import (
	"testing"
	"time"
)

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("PORT", "")
	t.Setenv("CORS_ALLOWED_ORIGINS", "")
	t.Setenv("FRONTEND_ORIGIN", "")
	t.Setenv("ACCESS_TOKEN_TTL", "")
	t.Setenv("DB_DRIVER", "")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Addr() != ":8080" {
		t.Fatalf("addr = %q", cfg.Addr())
	}
	if cfg.AccessTokenTTL != time.Hour {
		t.Fatalf("ttl = %s", cfg.AccessTokenTTL)
	}
	if cfg.DB().Driver != "postgres" {
		t.Fatalf("driver = %q", cfg.DB().Driver)
	}
	if got := cfg.AllowedOrigins(); len(got) != 1 || got[0] != "http://localhost:5173" {
		t.Fatalf("origins = %v", got)
	}
}

func TestLoadConfigOverrides(t *testing.T) {
	t.Setenv("PORT", ":9000")
	t.Setenv("DB_DRIVER", "sqlite")
	t.Setenv("SQLITE_PATH", "/tmp/lp.db")
	t.Setenv("ACCESS_TOKEN_TTL", "30m")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://app.example.com/, https://admin.example.com")
	t.Setenv("OTEL_ENABLED", "true")
	t.Setenv("OTEL_SAMPLE_RATIO", "0.25")
	t.Setenv("EVENTS_RATE_LIMIT", "5")
	t.Setenv("EVENTS_RATE_BURST", "10")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Addr() != ":9000" {
		t.Fatalf("addr = %q", cfg.Addr())
	}
	if cfg.DB().Driver != "sqlite" || cfg.DB().SQLitePath != "/tmp/lp.db" {
		t.Fatalf("db = %+v", cfg.DB())
	}
	if cfg.AccessTokenTTL != 30*time.Minute {
		t.Fatalf("ttl = %s", cfg.AccessTokenTTL)
	}
	origins := cfg.AllowedOrigins()
	if len(origins) != 2 || origins[0] != "https://app.example.com" || origins[1] != "https://admin.example.com" {
		t.Fatalf("origins = %v", origins)
	}
	if oc := cfg.Otel(); !oc.Enabled || oc.SampleRatio != 0.25 {
		t.Fatalf("otel = %+v", oc)
	}
	if cfg.EventsRateLimit != 5 || cfg.EventsRateBurst != 10 {
		t.Fatalf("rate = %v/%d", cfg.EventsRateLimit, cfg.EventsRateBurst)
	}
}

func TestLoadConfigRejectsBadValues(t *testing.T) {
	t.Setenv("ACCESS_TOKEN_TTL", "soon")
	if _, err := LoadConfig(); err == nil {
		t.Fatalf("expected parse error")
	}

	t.Setenv("ACCESS_TOKEN_TTL", "-5m")
	if _, err := LoadConfig(); err == nil {
		t.Fatalf("expected non-positive ttl error")
	}

	t.Setenv("ACCESS_TOKEN_TTL", "1h")
	t.Setenv("EVENTS_RATE_LIMIT", "3")
	t.Setenv("EVENTS_RATE_BURST", "0")
	if _, err := LoadConfig(); err == nil {
		t.Fatalf("expected burst error")
	}
}
