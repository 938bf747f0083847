package database

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/carritos-api/pkg/config"
)

func TestSQLiteDSN(t *testing.T) {
	dsn := sqliteDSN(config.DatabaseConfig{Path: "/tmp/carritos.db", BusyTimeout: 3 * time.Second})
	require.True(t, strings.HasPrefix(dsn, "file:/tmp/carritos.db?"))

	query, err := url.ParseQuery(strings.SplitN(dsn, "?", 2)[1])
	require.NoError(t, err)
	assert.Equal(t, "immediate", query.Get("_txlock"))
	assert.Contains(t, query["_pragma"], "foreign_keys(1)")
	assert.Contains(t, query["_pragma"], "busy_timeout(3000)")
	assert.Contains(t, query["_pragma"], "journal_mode(WAL)")
}

func TestPostgresDSNBoundsLockWait(t *testing.T) {
	dsn := postgresDSN(config.DatabaseConfig{Host: "db", Port: 5432, User: "u", Password: "p", Name: "n", SSLMode: "disable", BusyTimeout: 2 * time.Second})
	assert.Contains(t, dsn, "host=db port=5432")
	assert.True(t, strings.HasSuffix(dsn, "lock_timeout=2000"))
}

func TestOpenRejectsUnknownDriver(t *testing.T) {
	_, err := Open(config.DatabaseConfig{Driver: "oracle"})
	require.Error(t, err)
}

func TestPostgresErrorClassification(t *testing.T) {
	unique := fmt.Errorf("insert loan: %w", &pq.Error{Code: "23505", Message: `duplicate key value violates unique constraint "loans_active_computer_idx"`})
	assert.True(t, IsUniqueViolation(unique))
	assert.True(t, UniqueViolationOn(unique, "computer"))
	assert.False(t, UniqueViolationOn(unique, "student"))
	assert.False(t, IsBusy(unique))

	assert.True(t, IsForeignKeyViolation(&pq.Error{Code: "23503"}))
	assert.True(t, IsBusy(&pq.Error{Code: "55P03"}))
	assert.True(t, IsBusy(&pq.Error{Code: "40001"}))
	assert.False(t, IsBusy(errors.New("boom")))
	assert.False(t, IsUniqueViolation(errors.New("boom")))
}

func TestMigrateAppliesEveryStatement(t *testing.T) {
	raw, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer raw.Close()
	db := sqlx.NewDb(raw, "sqlmock")

	for range schema {
		mock.ExpectExec("CREATE").WillReturnResult(sqlmock.NewResult(0, 0))
	}

	require.NoError(t, Migrate(context.Background(), db))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMigrateStopsOnError(t *testing.T) {
	raw, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer raw.Close()
	db := sqlx.NewDb(raw, "sqlmock")

	mock.ExpectExec("CREATE TABLE IF NOT EXISTS teachers").WillReturnError(errors.New("disk full"))

	err = Migrate(context.Background(), db)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "statement 1")
}
