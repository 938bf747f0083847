package models

import "time"

// Teacher represents an instructor who may borrow a computer or supervise a student loan.
type Teacher struct {
	ID         string    `db:"id" json:"id"`
	DNI        string    `db:"dni" json:"dni"`
	FirstName  string    `db:"first_name" json:"nombre"`
	LastName   string    `db:"last_name" json:"apellido"`
	Phone      *string   `db:"phone" json:"celular,omitempty"`
	Email      *string   `db:"email" json:"email,omitempty"`
	Department *string   `db:"department" json:"departamento,omitempty"`
	Active     bool      `db:"active" json:"activo"`
	CreatedAt  time.Time `db:"created_at" json:"fecha_creacion"`
	UpdatedAt  time.Time `db:"updated_at" json:"-"`
}

// FullName joins first and last name.
func (t Teacher) FullName() string {
	return joinName(t.FirstName, t.LastName)
}
