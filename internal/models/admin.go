package models

import "time"

// AdminRole represents the available roles for the RBAC system.
type AdminRole string

const (
	RoleSuperAdmin AdminRole = "superadmin"
	RoleAdmin      AdminRole = "admin"
)

// Valid reports whether the role is one of the known roles.
func (r AdminRole) Valid() bool {
	return r == RoleAdmin || r == RoleSuperAdmin
}

// Admin represents an operator account stored in the administrators table.
type Admin struct {
	ID           string    `db:"id" json:"id"`
	Username     string    `db:"username" json:"usuario"`
	PasswordHash string    `db:"password_hash" json:"-"`
	FirstName    string    `db:"first_name" json:"nombre"`
	LastName     string    `db:"last_name" json:"apellido"`
	Role         AdminRole `db:"role" json:"rol"`
	Active       bool      `db:"active" json:"activo"`
	CreatedAt    time.Time `db:"created_at" json:"fecha_creacion"`
	UpdatedAt    time.Time `db:"updated_at" json:"-"`
}

// FullName joins first and last name.
func (a Admin) FullName() string {
	return joinName(a.FirstName, a.LastName)
}

// Pagination contains pagination metadata returned in list responses.
type Pagination struct {
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	TotalCount int `json:"total_count"`
}
