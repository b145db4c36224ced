package config

import (
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Config holds all runtime settings, read from environment variables.
type Config struct {
	Addr           string        `envconfig:"ADDR" default:":8080"`
	PostgresDSN    string        `envconfig:"POSTGRES_DSN"`
	ClickhouseDSN  string        `envconfig:"CLICKHOUSE_DSN"`
	UseMemory      bool          `envconfig:"USE_MEMORY" default:"false"`
	LookbackMonths int           `envconfig:"LOOKBACK_MONTHS" default:"12"`
	StreamInterval time.Duration `envconfig:"STREAM_INTERVAL" default:"30s"`
	AllowedOrigins []string      `envconfig:"ALLOWED_ORIGINS" default:"*"`
}

// Load reads configuration from the environment. A .env file is loaded
// first when present; its absence is not an error.
func Load() (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("process environment config: %w", err)
	}

	return &cfg, nil
}
