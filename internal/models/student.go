package models

import (
	"strings"
	"time"
)

// Student represents a learner who may borrow a computer.
type Student struct {
	ID        string    `db:"id" json:"id"`
	DNI       string    `db:"dni" json:"dni"`
	FirstName string    `db:"first_name" json:"nombre"`
	LastName  string    `db:"last_name" json:"apellido"`
	Phone     *string   `db:"phone" json:"celular,omitempty"`
	Email     *string   `db:"email" json:"email,omitempty"`
	Career    *string   `db:"career" json:"carrera,omitempty"`
	TeacherID *string   `db:"teacher_id" json:"id_docente,omitempty"`
	Active    bool      `db:"active" json:"activo"`
	CreatedAt time.Time `db:"created_at" json:"fecha_creacion"`
	UpdatedAt time.Time `db:"updated_at" json:"-"`
}

// FullName joins first and last name.
func (s Student) FullName() string {
	return joinName(s.FirstName, s.LastName)
}

// PersonFilter captures listing options shared by students and teachers.
type PersonFilter struct {
	Search string
	Active *bool
}

func joinName(first, last string) string {
	return strings.TrimSpace(first + " " + last)
}
