package database

import (
	"fmt"
	"net/url"
	"time"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/noah-isme/carritos-api/pkg/config"
)

// NewSQLite opens the single-file store used by default.
func NewSQLite(cfg config.DatabaseConfig) (*sqlx.DB, error) {
	// modernc registers as "sqlite", which sqlx does not know as a ? driver.
	sqlx.BindDriver("sqlite", sqlx.QUESTION)

	db, err := sqlx.Open("sqlite", sqliteDSN(cfg))
	if err != nil {
		return nil, err
	}

	if cfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		db.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	db.SetConnMaxIdleTime(30 * time.Minute)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, err
	}

	return db, nil
}

// Write transactions take the RESERVED lock at BEGIN so concurrent writers queue on busy_timeout.
func sqliteDSN(cfg config.DatabaseConfig) string {
	path := cfg.Path
	if path == "" {
		path = "database.db"
	}
	busy := cfg.BusyTimeout
	if busy <= 0 {
		busy = 10 * time.Second
	}

	params := url.Values{}
	params.Add("_pragma", "foreign_keys(1)")
	params.Add("_pragma", "journal_mode(WAL)")
	params.Add("_pragma", "synchronous(NORMAL)")
	params.Add("_pragma", fmt.Sprintf("busy_timeout(%d)", busy.Milliseconds()))
	params.Set("_txlock", "immediate")

	return "file:" + path + "?" + params.Encode()
}
