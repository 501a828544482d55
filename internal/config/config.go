package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App struct {
		Name string `envconfig:"APP_NAME" default:"LedgerPilot"`
		Port int    `envconfig:"PORT" default:"8080"`
	}

	DB struct {
		Host     string `envconfig:"DB_HOST" default:"localhost"`
		Port     int    `envconfig:"DB_PORT" default:"5432"`
		User     string `envconfig:"DB_USER" default:"postgres"`
		Password string `envconfig:"DB_PASSWORD" default:""`
		Name     string `envconfig:"DB_NAME" default:"ledgerpilot"`
	}

	Agent struct {
		BaseURL      string        `envconfig:"AGENT_URL" default:"http://localhost:8000"`
		Timeout      time.Duration `envconfig:"AGENT_TIMEOUT" default:"30s"`
		MaxRetries   int           `envconfig:"AGENT_MAX_RETRIES" default:"2"`
		RetryBackoff time.Duration `envconfig:"AGENT_RETRY_BACKOFF" default:"250ms"`
	}

	Reports struct {
		Dir string `envconfig:"REPORTS_DIR" default:"reports"`
	}

	Server struct {
		Timeout time.Duration `envconfig:"SERVER_TIMEOUT" default:"60s"`
	}
}

func (c *Config) ConnectionString() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=disable",
		c.DB.User, c.DB.Password, c.DB.Host, c.DB.Port, c.DB.Name)
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process config: %w", err)
	}

	return &cfg, nil
}
