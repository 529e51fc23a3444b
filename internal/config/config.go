package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
)

// Config holds every environment-driven knob for the migration pipeline.
// All stages share one config; stages that don't use a field ignore it.
type Config struct {
	DatabaseURL   string `env:"DATABASE_URL,required"`
	CSVPath       string `env:"CSV_PATH" envDefault:"/Users/brian/Downloads"`
	InvoicePrefix string `env:"INVOICE_PREFIX" envDefault:"ZB-"`
	DryRun        bool   `env:"DRY_RUN" envDefault:"false"`
	BatchSize     int    `env:"BATCH_SIZE" envDefault:"100"`
	OutputDir     string `env:"OUTPUT_DIR" envDefault:"."`
}

// Load parses the environment. Callers should run godotenv.Load() first.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse environment: %w", err)
	}
	if cfg.BatchSize <= 0 {
		return nil, fmt.Errorf("BATCH_SIZE must be positive, got %d", cfg.BatchSize)
	}
	return cfg, nil
}
