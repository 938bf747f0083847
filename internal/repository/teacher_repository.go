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

const teacherColumns = `id, dni, first_name, last_name, phone, email, department, active, created_at, updated_at`

// TeacherRepository manages persistence for teachers.
type TeacherRepository struct {
	db *sqlx.DB
}

// NewTeacherRepository constructs a TeacherRepository.
func NewTeacherRepository(db *sqlx.DB) *TeacherRepository {
	return &TeacherRepository{db: db}
}

// List returns teachers matching filters ordered by last and first name.
func (r *TeacherRepository) List(ctx context.Context, filter models.PersonFilter) ([]models.Teacher, error) {
	where, args := personConditions(filter)
	query := r.db.Rebind(fmt.Sprintf("SELECT %s FROM teachers WHERE %s ORDER BY last_name, first_name", teacherColumns, where))

	teachers := []models.Teacher{}
	if err := r.db.SelectContext(ctx, &teachers, query, args...); err != nil {
		return nil, fmt.Errorf("list teachers: %w", err)
	}
	return teachers, nil
}

// FindByID returns a teacher by ID.
func (r *TeacherRepository) FindByID(ctx context.Context, id string) (*models.Teacher, error) {
	query := r.db.Rebind(`SELECT ` + teacherColumns + ` FROM teachers WHERE id = ?`)
	var teacher models.Teacher
	if err := r.db.GetContext(ctx, &teacher, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find teacher by id: %w", err)
	}
	return &teacher, nil
}

// FindByDNI returns a teacher by national ID.
func (r *TeacherRepository) FindByDNI(ctx context.Context, dni string) (*models.Teacher, error) {
	query := r.db.Rebind(`SELECT ` + teacherColumns + ` FROM teachers WHERE dni = ?`)
	var teacher models.Teacher
	if err := r.db.GetContext(ctx, &teacher, query, dni); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find teacher by dni: %w", err)
	}
	return &teacher, nil
}

// Create inserts a teacher record.
func (r *TeacherRepository) Create(ctx context.Context, teacher *models.Teacher) error {
	if teacher.ID == "" {
		teacher.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if teacher.CreatedAt.IsZero() {
		teacher.CreatedAt = now
	}
	teacher.UpdatedAt = now
	const query = `INSERT INTO teachers (id, dni, first_name, last_name, phone, email, department, active, created_at, updated_at)
        VALUES (:id, :dni, :first_name, :last_name, :phone, :email, :department, :active, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, teacher); err != nil {
		return fmt.Errorf("create teacher: %w", err)
	}
	return nil
}

// Update modifies teacher fields.
func (r *TeacherRepository) Update(ctx context.Context, teacher *models.Teacher) error {
	teacher.UpdatedAt = time.Now().UTC()
	const query = `UPDATE teachers SET dni = :dni, first_name = :first_name, last_name = :last_name, phone = :phone, email = :email,
        department = :department, active = :active, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, teacher); err != nil {
		return fmt.Errorf("update teacher: %w", err)
	}
	return nil
}

// Delete removes a teacher unless the teacher is borrower or supervisor on an active loan (ErrActiveLoan).
// Students and past loans referencing the teacher keep their rows with the reference cleared.
func (r *TeacherRepository) Delete(ctx context.Context, id string) error {
	query := r.db.Rebind(`DELETE FROM teachers WHERE id = ?
        AND NOT EXISTS (SELECT 1 FROM loans WHERE teacher_id = ? AND status = ?)`)
	return deleteUnlessActive(ctx, r.db, "teacher", query, r.db.Rebind(`SELECT 1 FROM teachers WHERE id = ?`), id)
}
