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

// CartRepository persists carts.
type CartRepository struct {
	db *sqlx.DB
}

// NewCartRepository constructs a CartRepository.
func NewCartRepository(db *sqlx.DB) *CartRepository {
	return &CartRepository{db: db}
}

const cartDetailQuery = `SELECT ca.id, ca.name, ca.location, ca.created_at, ca.updated_at,
        COUNT(c.id) AS computer_count,
        COALESCE(SUM(CASE WHEN c.status = ? THEN 1 ELSE 0 END), 0) AS available_count
        FROM carts ca LEFT JOIN computers c ON c.cart_id = ca.id`

// List returns every cart with its computer counters ordered by name.
func (r *CartRepository) List(ctx context.Context) ([]models.CartDetail, error) {
	query := r.db.Rebind(cartDetailQuery + ` GROUP BY ca.id, ca.name, ca.location, ca.created_at, ca.updated_at ORDER BY ca.name`)
	carts := []models.CartDetail{}
	if err := r.db.SelectContext(ctx, &carts, query, models.ComputerStatusAvailable); err != nil {
		return nil, fmt.Errorf("list carts: %w", err)
	}
	return carts, nil
}

// FindByID returns a cart with its counters.
func (r *CartRepository) FindByID(ctx context.Context, id string) (*models.CartDetail, error) {
	query := r.db.Rebind(cartDetailQuery + ` WHERE ca.id = ? GROUP BY ca.id, ca.name, ca.location, ca.created_at, ca.updated_at`)
	var cart models.CartDetail
	if err := r.db.GetContext(ctx, &cart, query, models.ComputerStatusAvailable, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find cart: %w", err)
	}
	return &cart, nil
}

// Create inserts a cart.
func (r *CartRepository) Create(ctx context.Context, cart *models.Cart) error {
	if cart.ID == "" {
		cart.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	cart.CreatedAt = now
	cart.UpdatedAt = now
	const query = `INSERT INTO carts (id, name, location, created_at, updated_at) VALUES (:id, :name, :location, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, cart); err != nil {
		return fmt.Errorf("create cart: %w", err)
	}
	return nil
}

// Update modifies the name and location of a cart.
func (r *CartRepository) Update(ctx context.Context, cart *models.Cart) error {
	cart.UpdatedAt = time.Now().UTC()
	const query = `UPDATE carts SET name = :name, location = :location, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, cart); err != nil {
		return fmt.Errorf("update cart: %w", err)
	}
	return nil
}

// Delete removes a cart. The computers foreign key refuses the delete while the cart owns computers.
func (r *CartRepository) Delete(ctx context.Context, id string) error {
	query := r.db.Rebind(`DELETE FROM carts WHERE id = ?`)
	if _, err := r.db.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("delete cart: %w", err)
	}
	return nil
}

// CountComputers returns how many computers the cart owns.
func (r *CartRepository) CountComputers(ctx context.Context, id string) (int, error) {
	query := r.db.Rebind(`SELECT COUNT(*) FROM computers WHERE cart_id = ?`)
	var total int
	if err := r.db.GetContext(ctx, &total, query, id); err != nil {
		return 0, fmt.Errorf("count cart computers: %w", err)
	}
	return total, nil
}
