package config

import (
	"testing"
	"time"
)

func TestLoadDoesNotInjectWeakAuthDefaults(t *testing.T) {
	t.Setenv("AUTH_SECRET", "")

	cfg := Load()
	if cfg.AuthSecret != "" {
		t.Fatalf("expected empty AUTH_SECRET when unset, got %q", cfg.AuthSecret)
	}
}

func TestLoadFallsBackOnInvalidNumbers(t *testing.T) {
	t.Setenv("PAGE_SIZE", "-4")
	t.Setenv("OTP_TTL_SECONDS", "soon")
	t.Setenv("SEED_DEMO_DATA", "false")

	cfg := Load()
	if cfg.PageSize != 100 {
		t.Fatalf("expected default page size 100, got %d", cfg.PageSize)
	}
	if cfg.OTPTTLSeconds != 300 {
		t.Fatalf("expected default otp ttl 300, got %d", cfg.OTPTTLSeconds)
	}
	if cfg.SeedDemoData {
		t.Fatalf("expected SEED_DEMO_DATA=false to disable seeding")
	}
}

func TestLocationFallsBackToUTC(t *testing.T) {
	cfg := Config{ShopTimezone: "Nowhere/Unknown"}
	if cfg.Location() != time.UTC {
		t.Fatalf("expected UTC fallback, got %v", cfg.Location())
	}
}
