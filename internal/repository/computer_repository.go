package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/carritos-api/internal/models"
)

const computerDetailQuery = `SELECT c.id, c.inventory_code, c.cart_id, c.status, c.created_at, c.updated_at, ca.name AS cart_name
        FROM computers c LEFT JOIN carts ca ON ca.id = c.cart_id`

// ComputerRepository persists computers.
type ComputerRepository struct {
	db *sqlx.DB
}

// NewComputerRepository constructs a ComputerRepository.
func NewComputerRepository(db *sqlx.DB) *ComputerRepository {
	return &ComputerRepository{db: db}
}

// List returns computers ordered by inventory code.
func (r *ComputerRepository) List(ctx context.Context, filter models.ComputerFilter) ([]models.ComputerDetail, error) {
	conditions := []string{"1=1"}
	var args []interface{}
	if filter.CartID != "" {
		conditions = append(conditions, "c.cart_id = ?")
		args = append(args, filter.CartID)
	}
	if filter.Status != "" {
		conditions = append(conditions, "c.status = ?")
		args = append(args, filter.Status)
	}
	query := r.db.Rebind(fmt.Sprintf("%s WHERE %s ORDER BY c.inventory_code", computerDetailQuery, strings.Join(conditions, " AND ")))

	computers := []models.ComputerDetail{}
	if err := r.db.SelectContext(ctx, &computers, query, args...); err != nil {
		return nil, fmt.Errorf("list computers: %w", err)
	}
	return computers, nil
}

// FindByID returns a computer with its cart name.
func (r *ComputerRepository) FindByID(ctx context.Context, id string) (*models.ComputerDetail, error) {
	query := r.db.Rebind(computerDetailQuery + ` WHERE c.id = ?`)
	var computer models.ComputerDetail
	if err := r.db.GetContext(ctx, &computer, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find computer: %w", err)
	}
	return &computer, nil
}

// Create inserts a computer.
func (r *ComputerRepository) Create(ctx context.Context, computer *models.Computer) error {
	if computer.ID == "" {
		computer.ID = uuid.NewString()
	}
	if computer.Status == "" {
		computer.Status = models.ComputerStatusAvailable
	}
	now := time.Now().UTC()
	computer.CreatedAt = now
	computer.UpdatedAt = now
	const query = `INSERT INTO computers (id, inventory_code, cart_id, status, created_at, updated_at)
        VALUES (:id, :inventory_code, :cart_id, :status, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, computer); err != nil {
		return fmt.Errorf("create computer: %w", err)
	}
	return nil
}

// Update writes an administrative edit only while the stored status still equals expected.
// It reports false when the status moved in the meantime, e.g. a loan claimed the computer.
func (r *ComputerRepository) Update(ctx context.Context, computer *models.Computer, expected models.ComputerStatus) (bool, error) {
	computer.UpdatedAt = time.Now().UTC()
	query := r.db.Rebind(`UPDATE computers SET inventory_code = ?, cart_id = ?, status = ?, updated_at = ? WHERE id = ? AND status = ?`)
	res, err := r.db.ExecContext(ctx, query, computer.InventoryCode, computer.CartID, computer.Status, computer.UpdatedAt, computer.ID, expected)
	if err != nil {
		return false, fmt.Errorf("update computer: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("update computer rows affected: %w", err)
	}
	return affected == 1, nil
}

// Delete removes a computer. The loans foreign key refuses the delete while history exists.
func (r *ComputerRepository) Delete(ctx context.Context, id string) error {
	query := r.db.Rebind(`DELETE FROM computers WHERE id = ?`)
	if _, err := r.db.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("delete computer: %w", err)
	}
	return nil
}

// HasLoans reports whether any loan, active or returned, references the computer.
func (r *ComputerRepository) HasLoans(ctx context.Context, id string) (bool, error) {
	query := r.db.Rebind(`SELECT 1 FROM loans WHERE computer_id = ? LIMIT 1`)
	return exists(ctx, r.db, "check computer loans", query, id)
}
