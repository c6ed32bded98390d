package config

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

// Config holds process-level settings resolved once at startup from the
// environment (optionally seeded from a .env file).
type Config struct {
	Port     string
	DBPath   string
	LogLevel string
	LogJSON  bool

	// Fallbacks for the app_settings row when it is created lazily.
	DefaultFeePercent      decimal.Decimal
	VarianceAlertThreshold decimal.Decimal
}

func Load() (*Config, error) {
	// A missing .env is fine; the environment may be set directly.
	_ = godotenv.Load()

	cfg := &Config{
		Port:                   envDefault("PORT", "8080"),
		DBPath:                 envDefault("DB_PATH", "trustbooks.db"),
		LogLevel:               envDefault("LOG_LEVEL", "info"),
		LogJSON:                os.Getenv("LOG_JSON") == "true",
		DefaultFeePercent:      decimal.NewFromInt(20),
		VarianceAlertThreshold: decimal.NewFromInt(100),
	}

	if v := os.Getenv("DEFAULT_FEE_PERCENT"); v != "" {
		d, err := decimal.NewFromString(v)
		if err != nil {
			return nil, fmt.Errorf("parse DEFAULT_FEE_PERCENT: %w", err)
		}
		cfg.DefaultFeePercent = d
	}
	if v := os.Getenv("VARIANCE_ALERT_THRESHOLD"); v != "" {
		d, err := decimal.NewFromString(v)
		if err != nil {
			return nil, fmt.Errorf("parse VARIANCE_ALERT_THRESHOLD: %w", err)
		}
		cfg.VarianceAlertThreshold = d
	}

	return cfg, nil
}

// NewLogger builds the process logger from config.
func NewLogger(cfg *Config) *logrus.Logger {
	log := logrus.New()
	log.SetOutput(os.Stdout)
	if cfg.LogJSON {
		log.SetFormatter(&logrus.JSONFormatter{})
	} else {
		log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
	level, err := logrus.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = logrus.InfoLevel
	}
	log.SetLevel(level)
	return log
}

func envDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
