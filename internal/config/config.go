package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
)

// Config keeps runtime settings for the client and the bot.
type Config struct {
	APIBaseURL      string        `env:"API_BASE_URL" env-default:"http://localhost:3001"`
	RequestTimeout  time.Duration `env:"REQUEST_TIMEOUT" env-default:"10s"`
	DatabaseURL     string        `env:"DATABASE_URL" env-default:"task_tracker.db"`
	SessionKey      string        `env:"SESSION_KEY" env-default:"default"`
	Timezone        string        `env:"TIMEZONE" env-default:"Local"`
	ConfirmationTTL time.Duration `env:"CONFIRMATION_TTL" env-default:"5m"`
	LogLevel        string        `env:"LOG_LEVEL" env-default:"info"`
	TelegramToken   string        `env:"TELEGRAM_TOKEN"`
	RefreshInterval time.Duration `env:"REFRESH_INTERVAL" env-default:"15m"`
	ReportTime      string        `env:"REPORT_TIME"`
}

// Load reads an optional .env file and then the environment.
func Load() (Config, error) {
	// A missing .env is fine; the environment alone is enough.
	_ = godotenv.Load()

	var cfg Config
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return cfg, fmt.Errorf("read env: %w", err)
	}

	cfg.APIBaseURL = strings.TrimRight(strings.TrimSpace(cfg.APIBaseURL), "/")
	cfg.TelegramToken = strings.TrimSpace(cfg.TelegramToken)
	cfg.ReportTime = strings.TrimSpace(cfg.ReportTime)

	if cfg.APIBaseURL == "" {
		return cfg, fmt.Errorf("API_BASE_URL is required")
	}
	if cfg.RequestTimeout <= 0 {
		return cfg, fmt.Errorf("REQUEST_TIMEOUT must be positive")
	}
	if cfg.ConfirmationTTL <= 0 {
		return cfg, fmt.Errorf("CONFIRMATION_TTL must be positive")
	}
	if _, err := cfg.Location(); err != nil {
		return cfg, err
	}

	return cfg, nil
}

// Location resolves the TIMEZONE setting used for calendar bucketing.
func (c Config) Location() (*time.Location, error) {
	switch c.Timezone {
	case "", "Local":
		return time.Local, nil
	case "UTC":
		return time.UTC, nil
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid TIMEZONE %q: %w", c.Timezone, err)
	}
	return loc, nil
}

// RequireTelegram checks the settings only the bot needs.
func (c Config) RequireTelegram() error {
	if c.TelegramToken == "" {
		return fmt.Errorf("TELEGRAM_TOKEN is required")
	}
	return nil
}
