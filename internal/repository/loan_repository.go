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

const loanColumns = `id, borrower_kind, student_id, teacher_id, computer_id, started_at, ended_at, status, notes`

const loanDetailSelect = `SELECT l.id, l.borrower_kind, l.student_id, l.teacher_id, l.computer_id, l.started_at, l.ended_at, l.status, l.notes,
        CASE WHEN l.borrower_kind = 'alumno' THEN s.dni ELSE t.dni END AS borrower_dni,
        CASE WHEN l.borrower_kind = 'alumno' THEN s.first_name ELSE t.first_name END AS borrower_first_name,
        CASE WHEN l.borrower_kind = 'alumno' THEN s.last_name ELSE t.last_name END AS borrower_last_name,
        CASE WHEN l.borrower_kind = 'alumno' AND t.id IS NOT NULL THEN t.first_name || ' ' || t.last_name END AS supervisor_name,
        c.inventory_code, ca.name AS cart_name`

const loanDetailFrom = `FROM loans l
        LEFT JOIN students s ON s.id = l.student_id
        LEFT JOIN teachers t ON t.id = l.teacher_id
        JOIN computers c ON c.id = l.computer_id
        LEFT JOIN carts ca ON ca.id = c.cart_id`

// LoanTx exposes the reads and writes of the loan lifecycle bound to a single transaction.
type LoanTx interface {
	FindStudent(ctx context.Context, id string) (*models.Student, error)
	FindTeacher(ctx context.Context, id string) (*models.Teacher, error)
	FindComputer(ctx context.Context, id string) (*models.Computer, error)
	ClaimComputer(ctx context.Context, id string) (bool, error)
	ReleaseComputer(ctx context.Context, id string) error
	HasActiveLoan(ctx context.Context, borrower models.Borrower) (bool, error)
	InsertLoan(ctx context.Context, loan *models.Loan) error
	FindLoan(ctx context.Context, id string) (*models.Loan, error)
	CloseLoan(ctx context.Context, id string, endedAt time.Time) (bool, error)
}

// LoanRepository persists loans and runs the loan lifecycle transactions.
type LoanRepository struct {
	db *sqlx.DB
}

// NewLoanRepository constructs a LoanRepository.
func NewLoanRepository(db *sqlx.DB) *LoanRepository {
	return &LoanRepository{db: db}
}

// WithinTx runs fn inside a transaction. The transaction commits when fn returns nil and rolls back otherwise.
func (r *LoanRepository) WithinTx(ctx context.Context, fn func(LoanTx) error) (err error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin loan transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if err = fn(&loanTx{tx: tx}); err != nil {
		return err
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit loan transaction: %w", err)
	}
	return nil
}

// List returns loans newest first with the total count for pagination.
func (r *LoanRepository) List(ctx context.Context, filter models.LoanFilter) ([]models.LoanDetail, int, error) {
	where := "WHERE 1=1"
	var args []interface{}
	if filter.ActiveOnly {
		where += " AND l.status = ?"
		args = append(args, models.LoanStatusActive)
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 100 {
		size = 20
	}
	offset := (page - 1) * size

	query := r.db.Rebind(fmt.Sprintf("%s %s %s ORDER BY l.started_at DESC LIMIT %d OFFSET %d", loanDetailSelect, loanDetailFrom, where, size, offset))
	loans := []models.LoanDetail{}
	if err := r.db.SelectContext(ctx, &loans, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list loans: %w", err)
	}

	countQuery := r.db.Rebind(fmt.Sprintf("SELECT COUNT(*) FROM loans l %s", where))
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count loans: %w", err)
	}
	return loans, total, nil
}

// ListForStudent returns the student's loans newest first.
func (r *LoanRepository) ListForStudent(ctx context.Context, studentID string, activeOnly bool) ([]models.LoanDetail, error) {
	return r.listFor(ctx, "l.student_id = ? AND l.borrower_kind = 'alumno'", studentID, activeOnly)
}

// ListForTeacher returns the loans where the teacher is primary borrower, newest first.
func (r *LoanRepository) ListForTeacher(ctx context.Context, teacherID string, activeOnly bool) ([]models.LoanDetail, error) {
	return r.listFor(ctx, "l.teacher_id = ? AND l.borrower_kind = 'docente'", teacherID, activeOnly)
}

func (r *LoanRepository) listFor(ctx context.Context, condition, id string, activeOnly bool) ([]models.LoanDetail, error) {
	where := "WHERE " + condition
	args := []interface{}{id}
	if activeOnly {
		where += " AND l.status = ?"
		args = append(args, models.LoanStatusActive)
	}
	query := r.db.Rebind(fmt.Sprintf("%s %s %s ORDER BY l.started_at DESC", loanDetailSelect, loanDetailFrom, where))
	loans := []models.LoanDetail{}
	if err := r.db.SelectContext(ctx, &loans, query, args...); err != nil {
		return nil, fmt.Errorf("list borrower loans: %w", err)
	}
	return loans, nil
}

// FindDetail returns a loan with its borrower and computer projection.
func (r *LoanRepository) FindDetail(ctx context.Context, id string) (*models.LoanDetail, error) {
	query := r.db.Rebind(fmt.Sprintf("%s %s WHERE l.id = ?", loanDetailSelect, loanDetailFrom))
	var loan models.LoanDetail
	if err := r.db.GetContext(ctx, &loan, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find loan detail: %w", err)
	}
	return &loan, nil
}

type loanTx struct {
	tx *sqlx.Tx
}

func (t *loanTx) FindStudent(ctx context.Context, id string) (*models.Student, error) {
	var student models.Student
	if err := t.tx.GetContext(ctx, &student, t.tx.Rebind(`SELECT `+studentColumns+` FROM students WHERE id = ?`), id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find student: %w", err)
	}
	return &student, nil
}

func (t *loanTx) FindTeacher(ctx context.Context, id string) (*models.Teacher, error) {
	var teacher models.Teacher
	if err := t.tx.GetContext(ctx, &teacher, t.tx.Rebind(`SELECT `+teacherColumns+` FROM teachers WHERE id = ?`), id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find teacher: %w", err)
	}
	return &teacher, nil
}

func (t *loanTx) FindComputer(ctx context.Context, id string) (*models.Computer, error) {
	var computer models.Computer
	const query = `SELECT id, inventory_code, cart_id, status, created_at, updated_at FROM computers WHERE id = ?`
	if err := t.tx.GetContext(ctx, &computer, t.tx.Rebind(query), id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find computer: %w", err)
	}
	return &computer, nil
}

// ClaimComputer flips an available computer to loaned. It reports false when the computer was not available.
func (t *loanTx) ClaimComputer(ctx context.Context, id string) (bool, error) {
	query := t.tx.Rebind(`UPDATE computers SET status = ?, updated_at = ? WHERE id = ? AND status = ?`)
	res, err := t.tx.ExecContext(ctx, query, models.ComputerStatusLoaned, time.Now().UTC(), id, models.ComputerStatusAvailable)
	if err != nil {
		return false, fmt.Errorf("claim computer: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("claim computer rows affected: %w", err)
	}
	return affected == 1, nil
}

func (t *loanTx) ReleaseComputer(ctx context.Context, id string) error {
	query := t.tx.Rebind(`UPDATE computers SET status = ?, updated_at = ? WHERE id = ?`)
	if _, err := t.tx.ExecContext(ctx, query, models.ComputerStatusAvailable, time.Now().UTC(), id); err != nil {
		return fmt.Errorf("release computer: %w", err)
	}
	return nil
}

func (t *loanTx) HasActiveLoan(ctx context.Context, borrower models.Borrower) (bool, error) {
	var query, id string
	switch b := borrower.(type) {
	case models.StudentBorrower:
		query, id = `SELECT 1 FROM loans WHERE student_id = ? AND borrower_kind = 'alumno' AND status = ? LIMIT 1`, b.StudentID
	case models.TeacherBorrower:
		query, id = `SELECT 1 FROM loans WHERE teacher_id = ? AND borrower_kind = 'docente' AND status = ? LIMIT 1`, b.TeacherID
	default:
		return false, fmt.Errorf("check active loan: unsupported borrower %T", borrower)
	}
	return exists(ctx, t.tx, "check active loan", t.tx.Rebind(query), id, models.LoanStatusActive)
}

func (t *loanTx) InsertLoan(ctx context.Context, loan *models.Loan) error {
	if loan.ID == "" {
		loan.ID = uuid.NewString()
	}
	const query = `INSERT INTO loans (` + loanColumns + `)
        VALUES (:id, :borrower_kind, :student_id, :teacher_id, :computer_id, :started_at, :ended_at, :status, :notes)`
	if _, err := t.tx.NamedExecContext(ctx, query, loan); err != nil {
		return fmt.Errorf("insert loan: %w", err)
	}
	return nil
}

func (t *loanTx) FindLoan(ctx context.Context, id string) (*models.Loan, error) {
	var loan models.Loan
	if err := t.tx.GetContext(ctx, &loan, t.tx.Rebind(`SELECT `+loanColumns+` FROM loans WHERE id = ?`), id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find loan: %w", err)
	}
	return &loan, nil
}

// CloseLoan marks an active loan returned. It reports false when the loan is missing or already returned.
func (t *loanTx) CloseLoan(ctx context.Context, id string, endedAt time.Time) (bool, error) {
	query := t.tx.Rebind(`UPDATE loans SET status = ?, ended_at = ? WHERE id = ? AND status = ?`)
	res, err := t.tx.ExecContext(ctx, query, models.LoanStatusReturned, endedAt, id, models.LoanStatusActive)
	if err != nil {
		return false, fmt.Errorf("close loan: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("close loan rows affected: %w", err)
	}
	return affected == 1, nil
}
