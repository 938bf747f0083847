package models

import "time"

// LoanStatus enumerates loan states. A returned loan never changes again.
type LoanStatus string

const (
	LoanStatusActive   LoanStatus = "activo"
	LoanStatusReturned LoanStatus = "devuelto"
)

// BorrowerKind is the wire tag distinguishing students from teachers.
type BorrowerKind string

const (
	BorrowerKindStudent BorrowerKind = "alumno"
	BorrowerKindTeacher BorrowerKind = "docente"
)

// Borrower is either a StudentBorrower or a TeacherBorrower.
type Borrower interface {
	Kind() BorrowerKind
	isBorrower()
}

// StudentBorrower borrows on behalf of a student, optionally under a supervising teacher.
type StudentBorrower struct {
	StudentID    string
	SupervisorID *string
}

// Kind implements Borrower.
func (StudentBorrower) Kind() BorrowerKind { return BorrowerKindStudent }
func (StudentBorrower) isBorrower()        {}

// TeacherBorrower is a teacher acting as primary borrower.
type TeacherBorrower struct {
	TeacherID string
}

// Kind implements Borrower.
func (TeacherBorrower) Kind() BorrowerKind { return BorrowerKindTeacher }
func (TeacherBorrower) isBorrower()        {}

// Loan records one computer assigned to one borrower over a time interval.
type Loan struct {
	ID           string       `db:"id" json:"id_prestamo"`
	BorrowerKind BorrowerKind `db:"borrower_kind" json:"tipo"`
	StudentID    *string      `db:"student_id" json:"id_alumno,omitempty"`
	TeacherID    *string      `db:"teacher_id" json:"id_docente,omitempty"`
	ComputerID   string       `db:"computer_id" json:"id_computadora"`
	StartedAt    time.Time    `db:"started_at" json:"fecha_inicio"`
	EndedAt      *time.Time   `db:"ended_at" json:"fecha_fin,omitempty"`
	Status       LoanStatus   `db:"status" json:"estado"`
	Notes        *string      `db:"notes" json:"observaciones,omitempty"`
}

// LoanDetail joins a loan with borrower and inventory data for display.
type LoanDetail struct {
	Loan
	DNI            *string `db:"borrower_dni" json:"dni,omitempty"`
	FirstName      *string `db:"borrower_first_name" json:"nombre,omitempty"`
	LastName       *string `db:"borrower_last_name" json:"apellido,omitempty"`
	SupervisorName *string `db:"supervisor_name" json:"docente_responsable,omitempty"`
	InventoryCode  string  `db:"inventory_code" json:"numero_inventario"`
	CartName       *string `db:"cart_name" json:"nombre_carro,omitempty"`
}

// LoanFilter narrows loan listings.
type LoanFilter struct {
	ActiveOnly bool
	Page       int
	PageSize   int
}

// LoanReceipt is returned after a loan is created.
type LoanReceipt struct {
	ID            string    `json:"id_prestamo"`
	BorrowerName  string    `json:"usuario"`
	InventoryCode string    `json:"computadora"`
	StartedAt     time.Time `json:"fecha_inicio"`
}
