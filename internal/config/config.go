package config

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config holds all configuration for the engine host
type Config struct {
	Redis       RedisConfig       `envPrefix:"REDIS_"`
	Participant ParticipantConfig `envPrefix:"PARTICIPANT_"`
	Automation  AutomationConfig  `envPrefix:"AUTOMATION_"`
	Relay       RelayConfig       `envPrefix:"RELAY_"`

	CampaignID   string `env:"CAMPAIGN_ID" envDefault:"default"`
	DiceSeed     int64  `env:"DICE_SEED"`
	LogLevel     string `env:"LOG_LEVEL" envDefault:"info"`
	OTelEndpoint string `env:"OTEL_ENDPOINT"`
}

// RedisConfig holds Redis connection settings. URL wins over Addr when set.
type RedisConfig struct {
	URL      string `env:"URL"`
	Addr     string `env:"ADDR" envDefault:"localhost:6379"`
	Password string `env:"PASSWORD"`
	DB       int    `env:"DB" envDefault:"0"`
}

// ParticipantConfig identifies the local session participant
type ParticipantConfig struct {
	ID   string `env:"ID" envDefault:"gm"`
	Name string `env:"NAME" envDefault:"Game Master"`
	Role string `env:"ROLE" envDefault:"gm"`
}

// AutomationConfig toggles rule automation
type AutomationConfig struct {
	Triggers bool `env:"TRIGGERS" envDefault:"true"`
	HopeFear bool `env:"HOPE_FEAR" envDefault:"true"`
}

// RelayConfig holds authoritative relay settings
type RelayConfig struct {
	Timeout time.Duration `env:"TIMEOUT" envDefault:"10s"`
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	switch cfg.Participant.Role {
	case "gm", "assistant", "player":
	default:
		return nil, fmt.Errorf("PARTICIPANT_ROLE must be gm, assistant or player, got %q", cfg.Participant.Role)
	}
	if cfg.Participant.ID == "" {
		return nil, fmt.Errorf("PARTICIPANT_ID is required")
	}

	return cfg, nil
}

// SlogLevel maps LOG_LEVEL onto a slog level, defaulting to info
func (c *Config) SlogLevel() slog.Level {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
