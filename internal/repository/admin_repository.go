package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/carritos-api/internal/models"
)

const adminColumns = `id, username, password_hash, first_name, last_name, role, active, created_at, updated_at`

// AdminRepository provides database access for administrator accounts.
type AdminRepository struct {
	db *sqlx.DB
}

// NewAdminRepository creates a new instance of AdminRepository.
func NewAdminRepository(db *sqlx.DB) *AdminRepository {
	return &AdminRepository{db: db}
}

// FindByUsername returns an admin by login name.
func (r *AdminRepository) FindByUsername(ctx context.Context, username string) (*models.Admin, error) {
	query := r.db.Rebind(`SELECT ` + adminColumns + ` FROM administrators WHERE username = ? LIMIT 1`)
	var admin models.Admin
	if err := r.db.GetContext(ctx, &admin, query, username); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find admin by username: %w", err)
	}
	return &admin, nil
}

// FindByID returns an admin by identifier.
func (r *AdminRepository) FindByID(ctx context.Context, id string) (*models.Admin, error) {
	query := r.db.Rebind(`SELECT ` + adminColumns + ` FROM administrators WHERE id = ? LIMIT 1`)
	var admin models.Admin
	if err := r.db.GetContext(ctx, &admin, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find admin by id: %w", err)
	}
	return &admin, nil
}

// List returns every admin ordered by creation date, newest first.
func (r *AdminRepository) List(ctx context.Context) ([]models.Admin, error) {
	admins := []models.Admin{}
	if err := r.db.SelectContext(ctx, &admins, `SELECT `+adminColumns+` FROM administrators ORDER BY created_at DESC`); err != nil {
		return nil, fmt.Errorf("list admins: %w", err)
	}
	return admins, nil
}

// Create inserts a new admin.
func (r *AdminRepository) Create(ctx context.Context, admin *models.Admin) error {
	if admin.ID == "" {
		admin.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if admin.CreatedAt.IsZero() {
		admin.CreatedAt = now
	}
	admin.UpdatedAt = now

	const query = `INSERT INTO administrators (` + adminColumns + `)
        VALUES (:id, :username, :password_hash, :first_name, :last_name, :role, :active, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, admin); err != nil {
		return fmt.Errorf("create admin: %w", err)
	}
	return nil
}

// Deactivate performs a soft delete by marking the admin inactive.
func (r *AdminRepository) Deactivate(ctx context.Context, id string) error {
	query := r.db.Rebind(`UPDATE administrators SET active = FALSE, updated_at = ? WHERE id = ?`)
	if _, err := r.db.ExecContext(ctx, query, time.Now().UTC(), id); err != nil {
		return fmt.Errorf("deactivate admin: %w", err)
	}
	return nil
}

// UpdatePassword replaces the stored password hash.
func (r *AdminRepository) UpdatePassword(ctx context.Context, id, passwordHash string) error {
	query := r.db.Rebind(`UPDATE administrators SET password_hash = ?, updated_at = ? WHERE id = ?`)
	if _, err := r.db.ExecContext(ctx, query, passwordHash, time.Now().UTC(), id); err != nil {
		return fmt.Errorf("update admin password: %w", err)
	}
	return nil
}
