package service

import (
	"context"
	"io"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/carritos-api/internal/models"
	"github.com/noah-isme/carritos-api/pkg/database"
	appErrors "github.com/noah-isme/carritos-api/pkg/errors"
	"github.com/noah-isme/carritos-api/pkg/spreadsheet"
)

type studentRepository interface {
	List(ctx context.Context, filter models.PersonFilter) ([]models.Student, error)
	FindByID(ctx context.Context, id string) (*models.Student, error)
	FindByDNI(ctx context.Context, dni string) (*models.Student, error)
	Create(ctx context.Context, student *models.Student) error
	Update(ctx context.Context, student *models.Student) error
	Delete(ctx context.Context, id string) error
}

type teacherLookup interface {
	FindByID(ctx context.Context, id string) (*models.Teacher, error)
}

// StudentRequest holds the payload for creating or updating students.
type StudentRequest struct {
	DNI       string  `json:"dni" validate:"required,max=20"`
	FirstName string  `json:"nombre" validate:"required"`
	LastName  string  `json:"apellido" validate:"required"`
	Phone     *string `json:"celular"`
	Email     *string `json:"email" validate:"omitempty,email"`
	Career    *string `json:"carrera"`
	TeacherID *string `json:"id_docente"`
	Active    *bool   `json:"activo"`
}

// StudentService handles student use-cases.
type StudentService struct {
	repo      studentRepository
	teachers  teacherLookup
	validator *validator.Validate
	logger    *zap.Logger
}

// NewStudentService constructs the student service.
func NewStudentService(repo studentRepository, teachers teacherLookup, validate *validator.Validate, logger *zap.Logger) *StudentService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StudentService{repo: repo, teachers: teachers, validator: validate, logger: logger}
}

// List returns students ordered by last and first name.
func (s *StudentService) List(ctx context.Context, filter models.PersonFilter) ([]models.Student, error) {
	students, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, storeError(err, "failed to list students")
	}
	return students, nil
}

// Get returns a student by ID.
func (s *StudentService) Get(ctx context.Context, id string) (*models.Student, error) {
	student, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, "student not found", "failed to load student")
	}
	return student, nil
}

// GetByDNI returns a student by national ID.
func (s *StudentService) GetByDNI(ctx context.Context, dni string) (*models.Student, error) {
	student, err := s.repo.FindByDNI(ctx, strings.TrimSpace(dni))
	if err != nil {
		return nil, notFoundOr(err, "student not found", "failed to load student")
	}
	return student, nil
}

// Create registers a new student.
func (s *StudentService) Create(ctx context.Context, req StudentRequest) (*models.Student, error) {
	student := &models.Student{Active: true}
	if err := s.apply(ctx, student, req); err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, student); err != nil {
		return nil, duplicateOr(err, "dni already registered", "failed to create student")
	}
	return student, nil
}

// Update modifies an existing student record.
func (s *StudentService) Update(ctx context.Context, id string, req StudentRequest) (*models.Student, error) {
	student, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, "student not found", "failed to load student")
	}
	if err := s.apply(ctx, student, req); err != nil {
		return nil, err
	}
	if err := s.repo.Update(ctx, student); err != nil {
		return nil, duplicateOr(err, "dni already registered", "failed to update student")
	}
	return student, nil
}

// Delete removes a student without an active loan.
func (s *StudentService) Delete(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return deleteError(err, "student not found", "student has an active loan", "failed to delete student")
	}
	s.logger.Info("student deleted", zap.String("student_id", id))
	return nil
}

// Import inserts students from an uploaded spreadsheet.
func (s *StudentService) Import(ctx context.Context, filename string, r io.Reader) (*models.ImportResult, error) {
	rows, err := readImport(filename, r)
	if err != nil {
		return nil, err
	}
	return importRows(ctx, s.logger, "student", rows, func(ctx context.Context, row spreadsheet.Row) error {
		return s.repo.Create(ctx, &models.Student{
			DNI:       row.Get("dni"),
			FirstName: row.Get("nombre"),
			LastName:  row.Get("apellido"),
			Phone:     optional(row.Get("celular", "telefono")),
			Email:     optional(row.Get("email", "correo")),
			Career:    optional(row.Get("carrera")),
			Active:    true,
		})
	}), nil
}

func (s *StudentService) apply(ctx context.Context, student *models.Student, req StudentRequest) error {
	req.DNI = strings.TrimSpace(req.DNI)
	req.FirstName = strings.TrimSpace(req.FirstName)
	req.LastName = strings.TrimSpace(req.LastName)
	req.Email = trimmed(req.Email)
	if err := s.validator.Struct(req); err != nil {
		return validationError(err, "dni, nombre and apellido are required")
	}

	teacherID := trimmed(req.TeacherID)
	if teacherID != nil {
		if _, err := s.teachers.FindByID(ctx, *teacherID); err != nil {
			return notFoundOr(err, "supervising teacher not found", "failed to load teacher")
		}
	}

	student.DNI = req.DNI
	student.FirstName = req.FirstName
	student.LastName = req.LastName
	student.Phone = trimmed(req.Phone)
	student.Email = req.Email
	student.Career = trimmed(req.Career)
	student.TeacherID = teacherID
	if req.Active != nil {
		student.Active = *req.Active
	}
	return nil
}

// duplicateOr maps unique-constraint hits to DUPLICATE_KEY.
func duplicateOr(err error, duplicate, message string) error {
	if database.IsUniqueViolation(err) {
		return appErrors.Wrap(err, appErrors.ErrDuplicateKey.Code, appErrors.ErrDuplicateKey.Status, duplicate)
	}
	return storeError(err, message)
}

func trimmed(value *string) *string {
	if value == nil {
		return nil
	}
	return optional(strings.TrimSpace(*value))
}
