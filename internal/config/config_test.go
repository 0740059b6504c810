package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("API_BASE_URL", "http://api.local:3001/")
	t.Setenv("TIMEZONE", "UTC")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.APIBaseURL != "http://api.local:3001" {
		t.Errorf("Expected trailing slash trimmed, got %q", cfg.APIBaseURL)
	}
	if cfg.RequestTimeout != 10*time.Second {
		t.Errorf("Expected default timeout 10s, got %v", cfg.RequestTimeout)
	}
	if cfg.ConfirmationTTL != 5*time.Minute {
		t.Errorf("Expected default confirmation ttl 5m, got %v", cfg.ConfirmationTTL)
	}
	if cfg.SessionKey != "default" {
		t.Errorf("Expected default session key, got %q", cfg.SessionKey)
	}
	loc, err := cfg.Location()
	if err != nil || loc != time.UTC {
		t.Errorf("Expected UTC location, got %v (%v)", loc, err)
	}
}

func TestLoadRejectsUnknownTimezone(t *testing.T) {
	t.Setenv("TIMEZONE", "Mars/Olympus_Mons")

	if _, err := Load(); err == nil {
		t.Fatal("Expected error for unknown timezone")
	}
}

func TestRequireTelegram(t *testing.T) {
	if err := (Config{}).RequireTelegram(); err == nil {
		t.Error("Expected error without TELEGRAM_TOKEN")
	}
	if err := (Config{TelegramToken: "123:abc"}).RequireTelegram(); err != nil {
		t.Errorf("Unexpected error: %v", err)
	}
}
