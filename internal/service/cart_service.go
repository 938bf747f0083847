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

type cartRepository interface {
	List(ctx context.Context) ([]models.CartDetail, error)
	FindByID(ctx context.Context, id string) (*models.CartDetail, error)
	Create(ctx context.Context, cart *models.Cart) error
	Update(ctx context.Context, cart *models.Cart) error
	Delete(ctx context.Context, id string) error
	CountComputers(ctx context.Context, id string) (int, error)
}

// CartRequest is the payload for creating or updating a cart.
type CartRequest struct {
	Name     string  `json:"nombre" validate:"required,max=100"`
	Location *string `json:"ubicacion"`
}

// CartService manages carts.
type CartService struct {
	repo      cartRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewCartService constructs a CartService.
func NewCartService(repo cartRepository, validate *validator.Validate, logger *zap.Logger) *CartService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CartService{repo: repo, validator: validate, logger: logger}
}

// List returns all carts with their computer counters.
func (s *CartService) List(ctx context.Context) ([]models.CartDetail, error) {
	carts, err := s.repo.List(ctx)
	if err != nil {
		return nil, storeError(err, "failed to list carts")
	}
	return carts, nil
}

// Get returns a cart by ID.
func (s *CartService) Get(ctx context.Context, id string) (*models.CartDetail, error) {
	cart, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, "cart not found", "failed to load cart")
	}
	return cart, nil
}

// Create registers a cart.
func (s *CartService) Create(ctx context.Context, req CartRequest) (*models.Cart, error) {
	req.Name = strings.TrimSpace(req.Name)
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "nombre is required")
	}
	cart := &models.Cart{Name: req.Name, Location: trimmed(req.Location)}
	if err := s.repo.Create(ctx, cart); err != nil {
		return nil, duplicateOr(err, "cart name already exists", "failed to create cart")
	}
	return cart, nil
}

// Update renames or relocates a cart.
func (s *CartService) Update(ctx context.Context, id string, req CartRequest) (*models.Cart, error) {
	req.Name = strings.TrimSpace(req.Name)
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "nombre is required")
	}
	current, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, "cart not found", "failed to load cart")
	}
	cart := current.Cart
	cart.Name = req.Name
	cart.Location = trimmed(req.Location)
	if err := s.repo.Update(ctx, &cart); err != nil {
		return nil, duplicateOr(err, "cart name already exists", "failed to update cart")
	}
	return &cart, nil
}

// Delete removes an empty cart.
func (s *CartService) Delete(ctx context.Context, id string) error {
	if _, err := s.repo.FindByID(ctx, id); err != nil {
		return notFoundOr(err, "cart not found", "failed to load cart")
	}
	count, err := s.repo.CountComputers(ctx, id)
	if err != nil {
		return storeError(err, "failed to count cart computers")
	}
	if count > 0 {
		return appErrors.Clone(appErrors.ErrHasDependents, "cart still holds computers")
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		if database.IsForeignKeyViolation(err) {
			return appErrors.Clone(appErrors.ErrHasDependents, "cart still holds computers")
		}
		return storeError(err, "failed to delete cart")
	}
	s.logger.Info("cart deleted", zap.String("cart_id", id))
	return nil
}
