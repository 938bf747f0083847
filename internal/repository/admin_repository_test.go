package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/carritos-api/internal/models"
)

func newMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	sqlxdb := sqlx.NewDb(db, "sqlmock")
	return sqlxdb, mock, func() {
		db.Close()
	}
}

var adminRowColumns = []string{"id", "username", "password_hash", "first_name", "last_name", "role", "active", "created_at", "updated_at"}

func TestAdminFindByUsername(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewAdminRepository(db)

	now := time.Now()
	rows := sqlmock.NewRows(adminRowColumns).
		AddRow("a1", "superadmin", "hash", "Super", "Admin", string(models.RoleSuperAdmin), true, now, now)
	mock.ExpectQuery(regexp.QuoteMeta("FROM administrators WHERE username = ? LIMIT 1")).
		WithArgs("superadmin").
		WillReturnRows(rows)

	admin, err := repo.FindByUsername(context.Background(), "superadmin")
	require.NoError(t, err)
	assert.Equal(t, models.RoleSuperAdmin, admin.Role)
	assert.Equal(t, "Super Admin", admin.FullName())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAdminFindByIDNotFound(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewAdminRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("FROM administrators WHERE id = ?")).
		WithArgs("missing").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.FindByID(context.Background(), "missing")
	assert.ErrorIs(t, err, sql.ErrNoRows)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAdminCreateAndDeactivate(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewAdminRepository(db)

	mock.ExpectExec("INSERT INTO administrators").
		WithArgs(sqlmock.AnyArg(), "ops", "hash", "Op", "Erator", models.RoleAdmin, true, sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	admin := &models.Admin{Username: "ops", PasswordHash: "hash", FirstName: "Op", LastName: "Erator", Role: models.RoleAdmin, Active: true}
	require.NoError(t, repo.Create(context.Background(), admin))
	assert.NotEmpty(t, admin.ID)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE administrators SET active = FALSE")).
		WithArgs(sqlmock.AnyArg(), admin.ID).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.Deactivate(context.Background(), admin.ID))
	assert.NoError(t, mock.ExpectationsWereMet())
}
