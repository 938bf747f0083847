package models

import "time"

// ComputerStatus enumerates the lifecycle states of a computer.
type ComputerStatus string

const (
	ComputerStatusAvailable   ComputerStatus = "disponible"
	ComputerStatusLoaned      ComputerStatus = "prestada"
	ComputerStatusUnderRepair ComputerStatus = "en reparación"
)

// Valid reports whether the status is one of the known values.
func (s ComputerStatus) Valid() bool {
	switch s {
	case ComputerStatusAvailable, ComputerStatusLoaned, ComputerStatusUnderRepair:
		return true
	}
	return false
}

// Computer is a loanable laptop stored in a cart.
type Computer struct {
	ID            string         `db:"id" json:"id"`
	InventoryCode string         `db:"inventory_code" json:"numero_inventario"`
	CartID        string         `db:"cart_id" json:"id_carro"`
	Status        ComputerStatus `db:"status" json:"estado"`
	CreatedAt     time.Time      `db:"created_at" json:"fecha_creacion"`
	UpdatedAt     time.Time      `db:"updated_at" json:"-"`
}

// ComputerDetail includes the owning cart name.
type ComputerDetail struct {
	Computer
	CartName *string `db:"cart_name" json:"nombre_carro,omitempty"`
}

// ComputerFilter narrows computer listings.
type ComputerFilter struct {
	CartID string
	Status ComputerStatus
}
