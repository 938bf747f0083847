package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/carritos-api/internal/models"
	"github.com/noah-isme/carritos-api/internal/repository"
	"github.com/noah-isme/carritos-api/pkg/database"
	appErrors "github.com/noah-isme/carritos-api/pkg/errors"
)

type loanRepository interface {
	WithinTx(ctx context.Context, fn func(repository.LoanTx) error) error
	List(ctx context.Context, filter models.LoanFilter) ([]models.LoanDetail, int, error)
	ListForStudent(ctx context.Context, studentID string, activeOnly bool) ([]models.LoanDetail, error)
	ListForTeacher(ctx context.Context, teacherID string, activeOnly bool) ([]models.LoanDetail, error)
	FindDetail(ctx context.Context, id string) (*models.LoanDetail, error)
}

type studentDNIFinder interface {
	FindByDNI(ctx context.Context, dni string) (*models.Student, error)
}

type teacherDNIFinder interface {
	FindByDNI(ctx context.Context, dni string) (*models.Teacher, error)
}

type loanMetrics interface {
	RecordLoanOperation(operation, outcome string)
}

// CreateLoanRequest is the wire payload for opening a loan.
type CreateLoanRequest struct {
	Kind         models.BorrowerKind `json:"tipo" validate:"required,oneof=alumno docente"`
	BorrowerID   string              `json:"id_usuario" validate:"required"`
	ComputerID   string              `json:"id_computadora" validate:"required"`
	SupervisorID *string             `json:"id_docente"`
	Notes        *string             `json:"observaciones"`
}

// Borrower resolves the tagged payload into a typed borrower.
func (r CreateLoanRequest) Borrower() (models.Borrower, error) {
	supervisor := r.SupervisorID
	if supervisor != nil && strings.TrimSpace(*supervisor) == "" {
		supervisor = nil
	}
	switch r.Kind {
	case models.BorrowerKindStudent:
		return models.StudentBorrower{StudentID: r.BorrowerID, SupervisorID: supervisor}, nil
	case models.BorrowerKindTeacher:
		if supervisor != nil {
			return nil, appErrors.Clone(appErrors.ErrValidation, "id_docente only applies to student loans")
		}
		return models.TeacherBorrower{TeacherID: r.BorrowerID}, nil
	}
	return nil, appErrors.Clone(appErrors.ErrValidation, "tipo must be alumno or docente")
}

// NewLoanInput carries a resolved loan request into the engine.
type NewLoanInput struct {
	Borrower   models.Borrower
	ComputerID string
	Notes      *string
}

// LoanService opens and closes loans keeping computer status consistent with active loans.
type LoanService struct {
	repo      loanRepository
	students  studentDNIFinder
	teachers  teacherDNIFinder
	metrics   loanMetrics
	validator *validator.Validate
	logger    *zap.Logger
	now       func() time.Time
}

// NewLoanService constructs the loan service.
func NewLoanService(repo loanRepository, students studentDNIFinder, teachers teacherDNIFinder, metrics loanMetrics, validate *validator.Validate, logger *zap.Logger) *LoanService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LoanService{
		repo:      repo,
		students:  students,
		teachers:  teachers,
		metrics:   metrics,
		validator: validate,
		logger:    logger,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// ParseRequest validates the wire payload and resolves it into engine input.
func (s *LoanService) ParseRequest(req CreateLoanRequest) (NewLoanInput, error) {
	if err := s.validator.Struct(req); err != nil {
		return NewLoanInput{}, validationError(err, "tipo, id_usuario and id_computadora are required")
	}
	borrower, err := req.Borrower()
	if err != nil {
		return NewLoanInput{}, err
	}
	return NewLoanInput{Borrower: borrower, ComputerID: req.ComputerID, Notes: req.Notes}, nil
}

// Create opens a loan. The borrower lookup, computer claim and loan insert commit together or not at all.
func (s *LoanService) Create(ctx context.Context, input NewLoanInput) (*models.LoanReceipt, error) {
	if input.Borrower == nil || strings.TrimSpace(input.ComputerID) == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "borrower and computer are required")
	}

	var receipt *models.LoanReceipt
	err := s.repo.WithinTx(ctx, func(tx repository.LoanTx) error {
		loan := &models.Loan{
			BorrowerKind: input.Borrower.Kind(),
			ComputerID:   input.ComputerID,
			Status:       models.LoanStatusActive,
			Notes:        input.Notes,
		}

		borrowerName, err := s.resolveBorrower(ctx, tx, input.Borrower, loan)
		if err != nil {
			return err
		}

		computer, err := tx.FindComputer(ctx, input.ComputerID)
		if err != nil {
			return notFoundOr(err, "computer not found", "failed to load computer")
		}

		claimed, err := tx.ClaimComputer(ctx, computer.ID)
		if err != nil {
			return storeError(err, "failed to reserve computer")
		}
		if !claimed {
			return appErrors.Clone(appErrors.ErrComputerUnavailable, "computer is not available, status: "+string(computer.Status))
		}

		active, err := tx.HasActiveLoan(ctx, input.Borrower)
		if err != nil {
			return storeError(err, "failed to check active loans")
		}
		if active {
			return appErrors.Clone(appErrors.ErrBorrowerAlreadyActive, "borrower already has an active loan")
		}

		loan.StartedAt = s.now()
		if err := tx.InsertLoan(ctx, loan); err != nil {
			return classifyLoanInsert(err)
		}

		receipt = &models.LoanReceipt{
			ID:            loan.ID,
			BorrowerName:  borrowerName,
			InventoryCode: computer.InventoryCode,
			StartedAt:     loan.StartedAt,
		}
		return nil
	})
	if err != nil {
		err = storeError(err, "failed to create loan")
		s.record("create", err)
		return nil, err
	}

	s.record("create", nil)
	s.logger.Info("loan created",
		zap.String("loan_id", receipt.ID),
		zap.String("borrower_kind", string(input.Borrower.Kind())),
		zap.String("computer_id", input.ComputerID),
	)
	return receipt, nil
}

func (s *LoanService) resolveBorrower(ctx context.Context, tx repository.LoanTx, borrower models.Borrower, loan *models.Loan) (string, error) {
	switch b := borrower.(type) {
	case models.StudentBorrower:
		student, err := tx.FindStudent(ctx, b.StudentID)
		if err != nil {
			return "", notFoundOr(err, "student not found", "failed to load student")
		}
		loan.StudentID = &student.ID
		if b.SupervisorID != nil {
			supervisor, err := tx.FindTeacher(ctx, *b.SupervisorID)
			if err != nil {
				return "", notFoundOr(err, "supervising teacher not found", "failed to load teacher")
			}
			loan.TeacherID = &supervisor.ID
		}
		return student.FullName(), nil
	case models.TeacherBorrower:
		teacher, err := tx.FindTeacher(ctx, b.TeacherID)
		if err != nil {
			return "", notFoundOr(err, "teacher not found", "failed to load teacher")
		}
		loan.TeacherID = &teacher.ID
		return teacher.FullName(), nil
	}
	return "", appErrors.Clone(appErrors.ErrValidation, "unsupported borrower")
}

// classifyLoanInsert maps a partial unique index hit raised by a concurrent writer.
func classifyLoanInsert(err error) error {
	if database.UniqueViolationOn(err, "computer") {
		return appErrors.Clone(appErrors.ErrComputerUnavailable, "computer is not available")
	}
	if database.IsUniqueViolation(err) {
		return appErrors.Clone(appErrors.ErrBorrowerAlreadyActive, "borrower already has an active loan")
	}
	return storeError(err, "failed to create loan")
}

// Return closes an active loan and makes its computer available again.
// It answers with the joined projection of the closed loan.
func (s *LoanService) Return(ctx context.Context, loanID string) (*models.LoanDetail, error) {
	if strings.TrimSpace(loanID) == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "loan id is required")
	}

	var returned *models.Loan
	err := s.repo.WithinTx(ctx, func(tx repository.LoanTx) error {
		endedAt := s.now()
		closed, err := tx.CloseLoan(ctx, loanID, endedAt)
		if err != nil {
			return storeError(err, "failed to close loan")
		}

		loan, err := tx.FindLoan(ctx, loanID)
		if err != nil {
			return notFoundOr(err, "loan not found", "failed to load loan")
		}
		if !closed {
			return appErrors.Clone(appErrors.ErrAlreadyReturned, "loan already returned")
		}

		if err := tx.ReleaseComputer(ctx, loan.ComputerID); err != nil {
			return storeError(err, "failed to release computer")
		}
		returned = loan
		return nil
	})
	if err != nil {
		err = storeError(err, "failed to return loan")
		s.record("return", err)
		return nil, err
	}

	s.record("return", nil)
	s.logger.Info("loan returned", zap.String("loan_id", returned.ID), zap.String("computer_id", returned.ComputerID))

	detail, err := s.repo.FindDetail(ctx, returned.ID)
	if err != nil {
		// The return is committed; only the display projection is missing.
		s.logger.Warn("failed to load returned loan detail", zap.String("loan_id", returned.ID), zap.Error(err))
		return &models.LoanDetail{Loan: *returned}, nil
	}
	return detail, nil
}

// List returns loans with pagination metadata.
func (s *LoanService) List(ctx context.Context, filter models.LoanFilter) ([]models.LoanDetail, *models.Pagination, error) {
	loans, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, storeError(err, "failed to list loans")
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 100 {
		size = 20
	}
	return loans, &models.Pagination{Page: page, PageSize: size, TotalCount: total}, nil
}

// History returns every loan of the borrower identified by DNI, newest first.
func (s *LoanService) History(ctx context.Context, dni string) ([]models.LoanDetail, error) {
	return s.loansByDNI(ctx, dni, false)
}

// ActiveFor returns the active loans of the borrower identified by DNI.
// A student match takes precedence over a teacher sharing the same DNI.
func (s *LoanService) ActiveFor(ctx context.Context, dni string) ([]models.LoanDetail, error) {
	loans, err := s.loansByDNI(ctx, dni, true)
	if err != nil {
		return nil, err
	}
	if len(loans) == 0 {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "no active loans for borrower")
	}
	return loans, nil
}

func (s *LoanService) loansByDNI(ctx context.Context, dni string, activeOnly bool) ([]models.LoanDetail, error) {
	dni = strings.TrimSpace(dni)
	if dni == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "dni is required")
	}

	student, err := s.students.FindByDNI(ctx, dni)
	switch {
	case err == nil:
		loans, err := s.repo.ListForStudent(ctx, student.ID, activeOnly)
		if err != nil {
			return nil, storeError(err, "failed to load student loans")
		}
		return loans, nil
	case !isNoRows(err):
		return nil, storeError(err, "failed to resolve borrower")
	}

	teacher, err := s.teachers.FindByDNI(ctx, dni)
	if err != nil {
		return nil, notFoundOr(err, "borrower not found", "failed to resolve borrower")
	}
	loans, err := s.repo.ListForTeacher(ctx, teacher.ID, activeOnly)
	if err != nil {
		return nil, storeError(err, "failed to load teacher loans")
	}
	return loans, nil
}

func (s *LoanService) record(operation string, err error) {
	if s.metrics == nil {
		return
	}
	outcome := "success"
	if err != nil {
		outcome = strings.ToLower(appErrors.FromError(err).Code)
	}
	s.metrics.RecordLoanOperation(operation, outcome)
}

func isNoRows(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}
