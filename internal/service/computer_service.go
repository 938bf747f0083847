package service

import (
	"context"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/carritos-api/internal/models"
	"github.com/noah-isme/carritos-api/pkg/database"
	appErrors "github.com/noah-isme/carritos-api/pkg/errors"
)

type computerRepository interface {
	List(ctx context.Context, filter models.ComputerFilter) ([]models.ComputerDetail, error)
	FindByID(ctx context.Context, id string) (*models.ComputerDetail, error)
	Create(ctx context.Context, computer *models.Computer) error
	Update(ctx context.Context, computer *models.Computer, expected models.ComputerStatus) (bool, error)
	Delete(ctx context.Context, id string) error
	HasLoans(ctx context.Context, id string) (bool, error)
}

type cartLookup interface {
	FindByID(ctx context.Context, id string) (*models.CartDetail, error)
}

// ComputerRequest is the payload for creating or editing a computer.
type ComputerRequest struct {
	InventoryCode string                `json:"numero_inventario" validate:"required,max=50"`
	CartID        string                `json:"id_carro" validate:"required"`
	Status        models.ComputerStatus `json:"estado"`
}

// ComputerService manages the computer inventory outside of loans.
type ComputerService struct {
	repo      computerRepository
	carts     cartLookup
	validator *validator.Validate
	logger    *zap.Logger
}

// NewComputerService constructs a ComputerService.
func NewComputerService(repo computerRepository, carts cartLookup, validate *validator.Validate, logger *zap.Logger) *ComputerService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ComputerService{repo: repo, carts: carts, validator: validate, logger: logger}
}

// List returns computers matching the filter.
func (s *ComputerService) List(ctx context.Context, filter models.ComputerFilter) ([]models.ComputerDetail, error) {
	if filter.Status != "" && !filter.Status.Valid() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "unknown computer status")
	}
	computers, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, storeError(err, "failed to list computers")
	}
	return computers, nil
}

// ListAvailable returns computers ready to be loaned.
func (s *ComputerService) ListAvailable(ctx context.Context) ([]models.ComputerDetail, error) {
	return s.List(ctx, models.ComputerFilter{Status: models.ComputerStatusAvailable})
}

// Get returns a computer by ID.
func (s *ComputerService) Get(ctx context.Context, id string) (*models.ComputerDetail, error) {
	computer, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, "computer not found", "failed to load computer")
	}
	return computer, nil
}

// Create registers a computer in an existing cart.
func (s *ComputerService) Create(ctx context.Context, req ComputerRequest) (*models.Computer, error) {
	if err := s.validate(ctx, &req); err != nil {
		return nil, err
	}
	status := req.Status
	if status == "" {
		status = models.ComputerStatusAvailable
	}
	if status == models.ComputerStatusLoaned {
		return nil, appErrors.Clone(appErrors.ErrValidation, "status prestada is set by loans only")
	}

	computer := &models.Computer{InventoryCode: req.InventoryCode, CartID: req.CartID, Status: status}
	if err := s.repo.Create(ctx, computer); err != nil {
		return nil, duplicateOr(err, "inventory code already registered", "failed to create computer")
	}
	return computer, nil
}

// Update edits a computer. Loaned computers keep their status until the loan is returned.
func (s *ComputerService) Update(ctx context.Context, id string, req ComputerRequest) (*models.Computer, error) {
	if err := s.validate(ctx, &req); err != nil {
		return nil, err
	}
	current, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, "computer not found", "failed to load computer")
	}

	status := req.Status
	if status == "" {
		status = current.Status
	}
	switch {
	case current.Status == models.ComputerStatusLoaned && status != models.ComputerStatusLoaned:
		return nil, appErrors.Clone(appErrors.ErrComputerUnavailable, "computer is on loan, return it first")
	case current.Status != models.ComputerStatusLoaned && status == models.ComputerStatusLoaned:
		return nil, appErrors.Clone(appErrors.ErrValidation, "status prestada is set by loans only")
	}

	computer := current.Computer
	computer.InventoryCode = req.InventoryCode
	computer.CartID = req.CartID
	computer.Status = status
	updated, err := s.repo.Update(ctx, &computer, current.Status)
	if err != nil {
		return nil, duplicateOr(err, "inventory code already registered", "failed to update computer")
	}
	if !updated {
		return nil, appErrors.Clone(appErrors.ErrComputerUnavailable, "computer status changed, reload and retry")
	}
	return &computer, nil
}

// Delete removes a computer that has never been loaned.
func (s *ComputerService) Delete(ctx context.Context, id string) error {
	if _, err := s.repo.FindByID(ctx, id); err != nil {
		return notFoundOr(err, "computer not found", "failed to load computer")
	}
	hasLoans, err := s.repo.HasLoans(ctx, id)
	if err != nil {
		return storeError(err, "failed to check computer loans")
	}
	if hasLoans {
		return appErrors.Clone(appErrors.ErrHasDependents, "computer has loan history")
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		if database.IsForeignKeyViolation(err) {
			return appErrors.Clone(appErrors.ErrHasDependents, "computer has loan history")
		}
		return storeError(err, "failed to delete computer")
	}
	return nil
}

func (s *ComputerService) validate(ctx context.Context, req *ComputerRequest) error {
	req.InventoryCode = strings.TrimSpace(req.InventoryCode)
	req.CartID = strings.TrimSpace(req.CartID)
	if err := s.validator.Struct(req); err != nil {
		return validationError(err, "numero_inventario and id_carro are required")
	}
	if req.Status != "" && !req.Status.Valid() {
		return appErrors.Clone(appErrors.ErrValidation, "estado must be disponible, prestada or en reparación")
	}
	if _, err := s.carts.FindByID(ctx, req.CartID); err != nil {
		return notFoundOr(err, "cart not found", "failed to load cart")
	}
	return nil
}
