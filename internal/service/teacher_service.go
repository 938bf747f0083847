package service

import (
	"context"
	"io"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/carritos-api/internal/models"
	"github.com/noah-isme/carritos-api/pkg/spreadsheet"
)

type teacherRepository interface {
	List(ctx context.Context, filter models.PersonFilter) ([]models.Teacher, error)
	FindByID(ctx context.Context, id string) (*models.Teacher, error)
	FindByDNI(ctx context.Context, dni string) (*models.Teacher, error)
	Create(ctx context.Context, teacher *models.Teacher) error
	Update(ctx context.Context, teacher *models.Teacher) error
	Delete(ctx context.Context, id string) error
}

// TeacherRequest represents the payload for creating or updating a teacher.
type TeacherRequest struct {
	DNI        string  `json:"dni" validate:"required,max=20"`
	FirstName  string  `json:"nombre" validate:"required"`
	LastName   string  `json:"apellido" validate:"required"`
	Phone      *string `json:"celular"`
	Email      *string `json:"email" validate:"omitempty,email"`
	Department *string `json:"departamento"`
	Active     *bool   `json:"activo"`
}

// TeacherService exposes teacher management use-cases.
type TeacherService struct {
	repo      teacherRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewTeacherService creates a TeacherService.
func NewTeacherService(repo teacherRepository, validate *validator.Validate, logger *zap.Logger) *TeacherService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TeacherService{repo: repo, validator: validate, logger: logger}
}

// List returns teachers ordered by last and first name.
func (s *TeacherService) List(ctx context.Context, filter models.PersonFilter) ([]models.Teacher, error) {
	teachers, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, storeError(err, "failed to list teachers")
	}
	return teachers, nil
}

// Get retrieves a teacher by ID.
func (s *TeacherService) Get(ctx context.Context, id string) (*models.Teacher, error) {
	teacher, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, "teacher not found", "failed to load teacher")
	}
	return teacher, nil
}

// GetByDNI retrieves a teacher by national ID.
func (s *TeacherService) GetByDNI(ctx context.Context, dni string) (*models.Teacher, error) {
	teacher, err := s.repo.FindByDNI(ctx, strings.TrimSpace(dni))
	if err != nil {
		return nil, notFoundOr(err, "teacher not found", "failed to load teacher")
	}
	return teacher, nil
}

// Create registers a teacher.
func (s *TeacherService) Create(ctx context.Context, req TeacherRequest) (*models.Teacher, error) {
	teacher := &models.Teacher{Active: true}
	if err := s.apply(teacher, req); err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, teacher); err != nil {
		return nil, duplicateOr(err, "dni already registered", "failed to create teacher")
	}
	return teacher, nil
}

// Update modifies a teacher record.
func (s *TeacherService) Update(ctx context.Context, id string, req TeacherRequest) (*models.Teacher, error) {
	teacher, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, "teacher not found", "failed to load teacher")
	}
	if err := s.apply(teacher, req); err != nil {
		return nil, err
	}
	if err := s.repo.Update(ctx, teacher); err != nil {
		return nil, duplicateOr(err, "dni already registered", "failed to update teacher")
	}
	return teacher, nil
}

// Delete removes a teacher that neither borrows nor supervises an active loan.
func (s *TeacherService) Delete(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return deleteError(err, "teacher not found", "teacher is linked to an active loan", "failed to delete teacher")
	}
	s.logger.Info("teacher deleted", zap.String("teacher_id", id))
	return nil
}

// Import inserts teachers from an uploaded spreadsheet.
func (s *TeacherService) Import(ctx context.Context, filename string, r io.Reader) (*models.ImportResult, error) {
	rows, err := readImport(filename, r)
	if err != nil {
		return nil, err
	}
	return importRows(ctx, s.logger, "teacher", rows, func(ctx context.Context, row spreadsheet.Row) error {
		return s.repo.Create(ctx, &models.Teacher{
			DNI:        row.Get("dni"),
			FirstName:  row.Get("nombre"),
			LastName:   row.Get("apellido"),
			Phone:      optional(row.Get("celular", "telefono")),
			Email:      optional(row.Get("email", "correo")),
			Department: optional(row.Get("departamento")),
			Active:     true,
		})
	}), nil
}

func (s *TeacherService) apply(teacher *models.Teacher, req TeacherRequest) error {
	req.DNI = strings.TrimSpace(req.DNI)
	req.FirstName = strings.TrimSpace(req.FirstName)
	req.LastName = strings.TrimSpace(req.LastName)
	req.Email = trimmed(req.Email)
	if err := s.validator.Struct(req); err != nil {
		return validationError(err, "dni, nombre and apellido are required")
	}

	teacher.DNI = req.DNI
	teacher.FirstName = req.FirstName
	teacher.LastName = req.LastName
	teacher.Phone = trimmed(req.Phone)
	teacher.Email = req.Email
	teacher.Department = trimmed(req.Department)
	if req.Active != nil {
		teacher.Active = *req.Active
	}
	return nil
}
