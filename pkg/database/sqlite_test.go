package database

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/carritos-api/pkg/config"
)

func openSQLite(t *testing.T, path string, busy time.Duration) *sqlx.DB {
	t.Helper()
	db, err := Open(config.DatabaseConfig{Driver: config.DriverSQLite, Path: path, BusyTimeout: busy})
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func migratedSQLite(t *testing.T) (*sqlx.DB, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "carritos.db")
	db := openSQLite(t, path, 2*time.Second)
	require.NoError(t, Migrate(context.Background(), db))
	// Migrate is idempotent.
	require.NoError(t, Migrate(context.Background(), db))
	return db, path
}

func mustExec(t *testing.T, db *sqlx.DB, query string, args ...interface{}) {
	t.Helper()
	_, err := db.Exec(query, args...)
	require.NoError(t, err)
}

func seedInventory(t *testing.T, db *sqlx.DB) {
	t.Helper()
	now := time.Now().UTC()
	mustExec(t, db, `INSERT INTO carts (id, name, created_at, updated_at) VALUES (?, ?, ?, ?)`, "cart-1", "Carro A", now, now)
	mustExec(t, db, `INSERT INTO computers (id, inventory_code, cart_id, status, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?)`,
		"pc1", "INV-001", "cart-1", "prestada", now, now)
	mustExec(t, db, `INSERT INTO teachers (id, dni, first_name, last_name, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?)`,
		"t1", "20111222", "Luis", "Perez", now, now)
	mustExec(t, db, `INSERT INTO teachers (id, dni, first_name, last_name, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?)`,
		"t2", "20333444", "Marta", "Lopez", now, now)
}

func insertTeacherLoan(db *sqlx.DB, id, teacherID, status string) error {
	_, err := db.Exec(`INSERT INTO loans (id, borrower_kind, teacher_id, computer_id, started_at, status) VALUES (?, 'docente', ?, 'pc1', ?, ?)`,
		id, teacherID, time.Now().UTC(), status)
	return err
}

func TestSQLiteUniqueViolations(t *testing.T) {
	db, _ := migratedSQLite(t)
	seedInventory(t, db)

	now := time.Now().UTC()
	_, err := db.Exec(`INSERT INTO carts (id, name, created_at, updated_at) VALUES (?, ?, ?, ?)`, "cart-2", "Carro A", now, now)
	require.Error(t, err)
	assert.True(t, IsUniqueViolation(err), err.Error())
	assert.True(t, UniqueViolationOn(err, "name"))
	assert.False(t, IsForeignKeyViolation(err))
	assert.False(t, IsBusy(err))

	require.NoError(t, insertTeacherLoan(db, "l0", "t1", "devuelto"))
	require.NoError(t, insertTeacherLoan(db, "l1", "t1", "activo"))

	// Only one active loan per computer; closed history does not count.
	err = insertTeacherLoan(db, "l2", "t2", "activo")
	require.Error(t, err)
	assert.True(t, UniqueViolationOn(err, "computer_id"), err.Error())

	// Only one active loan per primary teacher.
	mustExec(t, db, `INSERT INTO computers (id, inventory_code, cart_id, status, created_at, updated_at) VALUES ('pc2', 'INV-002', 'cart-1', 'prestada', ?, ?)`, now, now)
	_, err = db.Exec(`INSERT INTO loans (id, borrower_kind, teacher_id, computer_id, started_at, status) VALUES ('l3', 'docente', 't1', 'pc2', ?, 'activo')`, now)
	require.Error(t, err)
	assert.True(t, UniqueViolationOn(err, "teacher_id"), err.Error())
}

func TestSQLiteRestrictedDeletesAreForeignKeyViolations(t *testing.T) {
	db, _ := migratedSQLite(t)
	seedInventory(t, db)
	require.NoError(t, insertTeacherLoan(db, "l1", "t1", "devuelto"))

	_, err := db.Exec(`DELETE FROM carts WHERE id = ?`, "cart-1")
	require.Error(t, err)
	assert.True(t, IsForeignKeyViolation(err), err.Error())
	assert.False(t, IsUniqueViolation(err))

	_, err = db.Exec(`DELETE FROM computers WHERE id = ?`, "pc1")
	require.Error(t, err)
	assert.True(t, IsForeignKeyViolation(err), err.Error())

	var carts int
	require.NoError(t, db.Get(&carts, `SELECT COUNT(*) FROM carts`))
	assert.Equal(t, 1, carts)
}

func TestSQLiteActiveLoanKeepsItsBorrower(t *testing.T) {
	db, _ := migratedSQLite(t)
	seedInventory(t, db)
	require.NoError(t, insertTeacherLoan(db, "l1", "t1", "activo"))

	_, err := db.Exec(`DELETE FROM teachers WHERE id = ?`, "t1")
	require.Error(t, err)
	assert.True(t, IsCheckViolation(err), err.Error())

	var teacherID string
	require.NoError(t, db.Get(&teacherID, `SELECT teacher_id FROM loans WHERE id = 'l1'`))
	assert.Equal(t, "t1", teacherID)

	// Once returned the loan is history and the borrower reference may be cleared.
	mustExec(t, db, `UPDATE loans SET status = 'devuelto', ended_at = ? WHERE id = 'l1'`, time.Now().UTC())
	mustExec(t, db, `DELETE FROM teachers WHERE id = ?`, "t1")
	var cleared *string
	require.NoError(t, db.Get(&cleared, `SELECT teacher_id FROM loans WHERE id = 'l1'`))
	assert.Nil(t, cleared)
}

func TestSQLiteWriterLockExhaustionIsBusy(t *testing.T) {
	_, path := migratedSQLite(t)
	holder := openSQLite(t, path, time.Second)
	waiter := openSQLite(t, path, 100*time.Millisecond)

	tx, err := holder.Beginx()
	require.NoError(t, err)
	defer tx.Rollback() //nolint:errcheck
	_, err = tx.Exec(`INSERT INTO carts (id, name, created_at, updated_at) VALUES ('cart-x', 'Carro X', ?, ?)`, time.Now().UTC(), time.Now().UTC())
	require.NoError(t, err)

	started := time.Now()
	blocked, err := waiter.Beginx()
	if err == nil {
		_, err = blocked.Exec(`INSERT INTO carts (id, name, created_at, updated_at) VALUES ('cart-y', 'Carro Y', ?, ?)`, time.Now().UTC(), time.Now().UTC())
		_ = blocked.Rollback()
	}
	require.Error(t, err)
	assert.True(t, IsBusy(err), err.Error())
	assert.GreaterOrEqual(t, time.Since(started), 100*time.Millisecond)
}
