package database

import (
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/carritos-api/pkg/config"
)

// Open connects to the configured driver.
func Open(cfg config.DatabaseConfig) (*sqlx.DB, error) {
	switch cfg.Driver {
	case config.DriverPostgres:
		return NewPostgres(cfg)
	case config.DriverSQLite, "":
		return NewSQLite(cfg)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}
}
