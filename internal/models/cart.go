package models

import "time"

// Cart is a mobile storage unit grouping computers.
type Cart struct {
	ID        string    `db:"id" json:"id"`
	Name      string    `db:"name" json:"nombre"`
	Location  *string   `db:"location" json:"ubicacion,omitempty"`
	CreatedAt time.Time `db:"created_at" json:"fecha_creacion"`
	UpdatedAt time.Time `db:"updated_at" json:"-"`
}

// CartDetail adds inventory counters to a cart.
type CartDetail struct {
	Cart
	ComputerCount  int `db:"computer_count" json:"total_computadoras"`
	AvailableCount int `db:"available_count" json:"computadoras_disponibles"`
}
