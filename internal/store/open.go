// Package store selects a persistence backend from configuration.
package store

import (
	"context"
	"fmt"

	"github.com/JonMunkholm/biblioteca/internal/config"
	"github.com/JonMunkholm/biblioteca/internal/core"
	"github.com/JonMunkholm/biblioteca/internal/store/postgres"
	"github.com/JonMunkholm/biblioteca/internal/store/sqlite"
)

// Open connects to the backend named by cfg.Driver. The caller owns Close.
func Open(ctx context.Context, cfg config.DatabaseConfig) (core.Store, error) {
	switch cfg.Driver {
	case config.DriverPostgres:
		return postgres.Connect(ctx, cfg)
	case config.DriverSQLite:
		return sqlite.Open(ctx, cfg.URL)
	default:
		return nil, fmt.Errorf("unknown database driver %q", cfg.Driver)
	}
}
