package config

import (
	"context"
	"fmt"

	"github.com/sethvargo/go-envconfig"
)

// Config holds environment-driven configuration.
type Config struct {
	Toggl TogglConfig
	MySQL MySQLConfig
	Sync  SyncConfig
	HTTP  HTTPConfig
}

type TogglConfig struct {
	APIToken string `env:"TOGGL_API_TOKEN, required"`
	BaseURL  string `env:"TOGGL_BASE_URL, default=https://api.track.toggl.com"`
}

type MySQLConfig struct {
	// DSN must include parseTime=true and multiStatements=true,
	// e.g. user:pass@tcp(host:3306)/dbname?parseTime=true&multiStatements=true
	DSN string `env:"MYSQL_DSN, required"`
}

type SyncConfig struct {
	Timezone string `env:"SYNC_TZ, default=UTC"`
}

type HTTPConfig struct {
	ListenAddr string `env:"HTTP_ADDR, default=:8080"`
}

// Load reads configuration from environment variables.
func Load(ctx context.Context) (Config, error) {
	var cfg Config
	if err := envconfig.Process(ctx, &cfg); err != nil {
		return cfg, fmt.Errorf("config: %w", err)
	}
	return cfg, nil
}
