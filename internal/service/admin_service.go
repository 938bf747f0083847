package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/noah-isme/carritos-api/internal/models"
	appErrors "github.com/noah-isme/carritos-api/pkg/errors"
)

type adminRepository interface {
	FindByUsername(ctx context.Context, username string) (*models.Admin, error)
	FindByID(ctx context.Context, id string) (*models.Admin, error)
	List(ctx context.Context) ([]models.Admin, error)
	Create(ctx context.Context, admin *models.Admin) error
	Deactivate(ctx context.Context, id string) error
	UpdatePassword(ctx context.Context, id, passwordHash string) error
}

// CreateAdminRequest holds the payload for registering an administrator.
type CreateAdminRequest struct {
	Username  string           `json:"usuario" validate:"required,min=3,max=50"`
	Password  string           `json:"contraseña" validate:"required,min=6"`
	FirstName string           `json:"nombre" validate:"required"`
	LastName  string           `json:"apellido" validate:"required"`
	Role      models.AdminRole `json:"rol" validate:"required,oneof=admin superadmin"`
}

// ResetPasswordRequest holds the replacement password.
type ResetPasswordRequest struct {
	Password string `json:"nueva_contraseña" validate:"required,min=6"`
}

// AdminService manages administrator accounts.
type AdminService struct {
	repo      adminRepository
	validator *validator.Validate
	logger    *zap.Logger
	cost      int
}

// NewAdminService constructs an AdminService.
func NewAdminService(repo adminRepository, validate *validator.Validate, logger *zap.Logger) *AdminService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AdminService{repo: repo, validator: validate, logger: logger, cost: bcrypt.DefaultCost}
}

// List returns every administrator.
func (s *AdminService) List(ctx context.Context) ([]models.Admin, error) {
	admins, err := s.repo.List(ctx)
	if err != nil {
		return nil, storeError(err, "failed to list admins")
	}
	return admins, nil
}

// Create registers a new active administrator.
func (s *AdminService) Create(ctx context.Context, req CreateAdminRequest) (*models.Admin, error) {
	req.Username = strings.TrimSpace(req.Username)
	req.FirstName = strings.TrimSpace(req.FirstName)
	req.LastName = strings.TrimSpace(req.LastName)
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "usuario, nombre, apellido, rol (admin|superadmin) and a contraseña of at least 6 characters are required")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), s.cost)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to hash password")
	}

	admin := &models.Admin{
		Username:     req.Username,
		PasswordHash: string(hash),
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		Role:         req.Role,
		Active:       true,
	}
	if err := s.repo.Create(ctx, admin); err != nil {
		return nil, duplicateOr(err, "username already exists", "failed to create admin")
	}
	s.logger.Info("admin created", zap.String("admin_id", admin.ID), zap.String("role", string(admin.Role)))
	return admin, nil
}

// Deactivate soft deletes an administrator. Admins cannot deactivate themselves.
func (s *AdminService) Deactivate(ctx context.Context, actorID, id string) error {
	if actorID == id {
		return appErrors.Clone(appErrors.ErrForbidden, "cannot deactivate your own account")
	}
	if _, err := s.repo.FindByID(ctx, id); err != nil {
		return notFoundOr(err, "admin not found", "failed to load admin")
	}
	if err := s.repo.Deactivate(ctx, id); err != nil {
		return storeError(err, "failed to deactivate admin")
	}
	s.logger.Info("admin deactivated", zap.String("admin_id", id), zap.String("actor_id", actorID))
	return nil
}

// ResetPassword replaces an administrator's password.
func (s *AdminService) ResetPassword(ctx context.Context, id string, req ResetPasswordRequest) error {
	if err := s.validator.Struct(req); err != nil {
		return validationError(err, "nueva_contraseña must have at least 6 characters")
	}
	if _, err := s.repo.FindByID(ctx, id); err != nil {
		return notFoundOr(err, "admin not found", "failed to load admin")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), s.cost)
	if err != nil {
		return appErrors.Internal(err, "failed to hash password")
	}
	if err := s.repo.UpdatePassword(ctx, id, string(hash)); err != nil {
		return storeError(err, "failed to update password")
	}
	return nil
}

// EnsureDefaultAdmin seeds a superadmin when the username is not taken yet.
func (s *AdminService) EnsureDefaultAdmin(ctx context.Context, username, password string) (bool, error) {
	_, err := s.repo.FindByUsername(ctx, username)
	if err == nil {
		return false, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return false, storeError(err, "failed to look up default admin")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return false, appErrors.Internal(err, "failed to hash password")
	}
	admin := &models.Admin{
		Username:     username,
		PasswordHash: string(hash),
		FirstName:    "Super",
		LastName:     "Admin",
		Role:         models.RoleSuperAdmin,
		Active:       true,
	}
	if err := s.repo.Create(ctx, admin); err != nil {
		return false, storeError(err, "failed to seed default admin")
	}
	s.logger.Warn("default superadmin created, change its password", zap.String("usuario", username))
	return true, nil
}
