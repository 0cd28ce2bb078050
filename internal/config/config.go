package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Config holds all service settings, populated from environment variables.
type Config struct {
	// Remote sources.
	DailyCSVURL  string        `env:"DAILY_CSV_URL" envDefault:"https://data.techforpalestine.org/api/v2/casualties_daily.csv"`
	DailyJSONURL string        `env:"DAILY_JSON_URL" envDefault:"https://raw.githubusercontent.com/TechForPalestine/palestine-datasets/main/casualties_daily.json"`
	NamesCSVURL  string        `env:"NAMES_CSV_URL" envDefault:"https://data.techforpalestine.org/api/v2/killed-in-gaza.csv"`
	UserAgent    string        `env:"USER_AGENT" envDefault:"Mozilla/5.0"`
	FetchTimeout time.Duration `env:"FETCH_TIMEOUT" envDefault:"15s"`

	// Disk cache.
	DataDir  string        `env:"DATA_DIR" envDefault:"data/raw"`
	NamesTTL time.Duration `env:"NAMES_TTL" envDefault:"12h"`

	HTTPAddr        string        `env:"HTTP_ADDR" envDefault:":8080"`
	LogLevel        string        `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat       string        `env:"LOG_FORMAT" envDefault:"json"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"10s"`
	RefreshInterval time.Duration `env:"REFRESH_INTERVAL" envDefault:"1h"`

	// Snapshot notifications.
	KafkaEnabled bool     `env:"KAFKA_ENABLED" envDefault:"false"`
	KafkaBrokers []string `env:"KAFKA_BROKERS" envSeparator:"," envDefault:"localhost:9092"`
	KafkaTopic   string   `env:"KAFKA_TOPIC" envDefault:"casualty-snapshots"`
}

// Load reads configuration from environment variables, applying defaults where unset.
// Variables from envFiles are loaded first without overriding the process
// environment; with no envFiles a ./.env file is used if present.
func Load(envFiles ...string) (*Config, error) {
	if len(envFiles) > 0 {
		if err := godotenv.Load(envFiles...); err != nil {
			return nil, fmt.Errorf("load env file: %w", err)
		}
	} else if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	cfg.KafkaBrokers = cleanBrokers(cfg.KafkaBrokers)

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.DailyCSVURL == "" {
		return errors.New("DAILY_CSV_URL is required")
	}
	if c.DailyJSONURL == "" {
		return errors.New("DAILY_JSON_URL is required")
	}
	if c.NamesCSVURL == "" {
		return errors.New("NAMES_CSV_URL is required")
	}
	if c.DataDir == "" {
		return errors.New("DATA_DIR is required")
	}
	if c.FetchTimeout <= 0 {
		return errors.New("FETCH_TIMEOUT must be positive")
	}
	if c.NamesTTL <= 0 {
		return errors.New("NAMES_TTL must be positive")
	}
	if c.ShutdownTimeout <= 0 {
		return errors.New("SHUTDOWN_TIMEOUT must be positive")
	}
	if c.RefreshInterval <= 0 {
		return errors.New("REFRESH_INTERVAL must be positive")
	}
	if c.KafkaEnabled && len(c.KafkaBrokers) == 0 {
		return errors.New("KAFKA_ENABLED is true but KAFKA_BROKERS is empty")
	}
	if c.KafkaEnabled && c.KafkaTopic == "" {
		return errors.New("KAFKA_ENABLED is true but KAFKA_TOPIC is empty")
	}
	return nil
}

func cleanBrokers(brokers []string) []string {
	out := make([]string, 0, len(brokers))
	for _, b := range brokers {
		if b = strings.TrimSpace(b); b != "" {
			out = append(out, b)
		}
	}
	return out
}
