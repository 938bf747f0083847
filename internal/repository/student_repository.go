package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/carritos-api/internal/models"
)

// ErrActiveLoan is returned when a delete is refused because the person is on an active loan.
var ErrActiveLoan = errors.New("person is linked to an active loan")

const studentColumns = `id, dni, first_name, last_name, phone, email, career, teacher_id, active, created_at, updated_at`

// StudentRepository manages persistence for student records.
type StudentRepository struct {
	db *sqlx.DB
}

// NewStudentRepository constructs a StudentRepository.
func NewStudentRepository(db *sqlx.DB) *StudentRepository {
	return &StudentRepository{db: db}
}

// List returns students matching the provided filters ordered by last and first name.
func (r *StudentRepository) List(ctx context.Context, filter models.PersonFilter) ([]models.Student, error) {
	where, args := personConditions(filter)
	query := r.db.Rebind(fmt.Sprintf("SELECT %s FROM students WHERE %s ORDER BY last_name, first_name", studentColumns, where))

	students := []models.Student{}
	if err := r.db.SelectContext(ctx, &students, query, args...); err != nil {
		return nil, fmt.Errorf("list students: %w", err)
	}
	return students, nil
}

// FindByID fetches a student by ID.
func (r *StudentRepository) FindByID(ctx context.Context, id string) (*models.Student, error) {
	query := r.db.Rebind(`SELECT ` + studentColumns + ` FROM students WHERE id = ?`)
	var student models.Student
	if err := r.db.GetContext(ctx, &student, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find student by id: %w", err)
	}
	return &student, nil
}

// FindByDNI fetches a student by national ID.
func (r *StudentRepository) FindByDNI(ctx context.Context, dni string) (*models.Student, error) {
	query := r.db.Rebind(`SELECT ` + studentColumns + ` FROM students WHERE dni = ?`)
	var student models.Student
	if err := r.db.GetContext(ctx, &student, query, dni); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find student by dni: %w", err)
	}
	return &student, nil
}

// Create inserts a new student record.
func (r *StudentRepository) Create(ctx context.Context, student *models.Student) error {
	if student.ID == "" {
		student.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if student.CreatedAt.IsZero() {
		student.CreatedAt = now
	}
	student.UpdatedAt = now
	const query = `INSERT INTO students (id, dni, first_name, last_name, phone, email, career, teacher_id, active, created_at, updated_at)
        VALUES (:id, :dni, :first_name, :last_name, :phone, :email, :career, :teacher_id, :active, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, student); err != nil {
		return fmt.Errorf("create student: %w", err)
	}
	return nil
}

// Update modifies an existing student.
func (r *StudentRepository) Update(ctx context.Context, student *models.Student) error {
	student.UpdatedAt = time.Now().UTC()
	const query = `UPDATE students SET dni = :dni, first_name = :first_name, last_name = :last_name, phone = :phone, email = :email,
        career = :career, teacher_id = :teacher_id, active = :active, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, student); err != nil {
		return fmt.Errorf("update student: %w", err)
	}
	return nil
}

// Delete removes a student unless the student is on an active loan, in which case it returns ErrActiveLoan.
// Past loans keep their row with student_id cleared.
func (r *StudentRepository) Delete(ctx context.Context, id string) error {
	query := r.db.Rebind(`DELETE FROM students WHERE id = ?
        AND NOT EXISTS (SELECT 1 FROM loans WHERE student_id = ? AND status = ?)`)
	return deleteUnlessActive(ctx, r.db, "student", query, r.db.Rebind(`SELECT 1 FROM students WHERE id = ?`), id)
}

// personConditions builds the shared WHERE clause for student and teacher listings.
func personConditions(filter models.PersonFilter) (string, []interface{}) {
	conditions := []string{"1=1"}
	var args []interface{}
	if filter.Active != nil {
		conditions = append(conditions, "active = ?")
		args = append(args, *filter.Active)
	}
	if search := strings.TrimSpace(filter.Search); search != "" {
		like := "%" + strings.ToLower(search) + "%"
		conditions = append(conditions, "(LOWER(first_name) LIKE ? OR LOWER(last_name) LIKE ? OR dni LIKE ?)")
		args = append(args, like, like, like)
	}
	return strings.Join(conditions, " AND "), args
}

// deleteUnlessActive runs a delete guarded by NOT EXISTS on active loans. The check and the delete are one
// statement, so a loan opened concurrently either lands before it and blocks it or fails on the missing row.
func deleteUnlessActive(ctx context.Context, db *sqlx.DB, entity, deleteQuery, existsQuery, id string) error {
	result, err := db.ExecContext(ctx, deleteQuery, id, id, models.LoanStatusActive)
	if err != nil {
		return fmt.Errorf("delete %s: %w", entity, err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete %s rows affected: %w", entity, err)
	}
	if affected > 0 {
		return nil
	}
	found, err := exists(ctx, db, "check "+entity, existsQuery, id)
	if err != nil {
		return err
	}
	if !found {
		return sql.ErrNoRows
	}
	return ErrActiveLoan
}

func exists(ctx context.Context, q sqlx.QueryerContext, op, query string, args ...interface{}) (bool, error) {
	var found int
	if err := sqlx.GetContext(ctx, q, &found, query, args...); err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("%s: %w", op, err)
	}
	return true, nil
}
