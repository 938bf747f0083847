package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/noah-isme/carritos-api/internal/models"
	appErrors "github.com/noah-isme/carritos-api/pkg/errors"
)

type authAdminRepository interface {
	FindByUsername(ctx context.Context, username string) (*models.Admin, error)
	FindByID(ctx context.Context, id string) (*models.Admin, error)
}

type tokenRevocationStore interface {
	Enabled() bool
	Revoke(ctx context.Context, jti string, ttl time.Duration) error
	IsRevoked(ctx context.Context, jti string) (bool, error)
}

// AuthConfig defines configuration for authentication flows.
type AuthConfig struct {
	Secret string
	Expiry time.Duration
	Issuer string
}

// AuthService provides authentication use cases.
type AuthService struct {
	repo      authAdminRepository
	tokens    tokenRevocationStore
	validator *validator.Validate
	logger    *zap.Logger
	config    AuthConfig
}

// NewAuthService constructs an AuthService instance.
func NewAuthService(repo authAdminRepository, tokens tokenRevocationStore, validate *validator.Validate, logger *zap.Logger, config AuthConfig) *AuthService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	if config.Expiry <= 0 {
		config.Expiry = 8 * time.Hour
	}
	return &AuthService{repo: repo, tokens: tokens, validator: validate, logger: logger, config: config}
}

// Login authenticates an active admin and issues a signed token.
func (s *AuthService) Login(ctx context.Context, req models.LoginRequest) (*models.LoginResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "usuario and contraseña are required")
	}

	admin, err := s.repo.FindByUsername(ctx, req.Username)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrInvalidCredentials
		}
		return nil, storeError(err, "failed to fetch admin")
	}
	if !admin.Active {
		return nil, appErrors.ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(admin.PasswordHash), []byte(req.Password)); err != nil {
		return nil, appErrors.ErrInvalidCredentials
	}

	token, issuedAt, err := s.generateToken(admin)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to create access token")
	}

	s.logger.Info("admin logged in", zap.String("admin_id", admin.ID), zap.String("ip", req.IP))
	return &models.LoginResponse{
		Token:     token,
		ExpiresIn: int64(s.config.Expiry.Seconds()),
		IssuedAt:  issuedAt,
		Admin:     adminInfo(admin),
	}, nil
}

// ValidateToken parses and validates an access token returning the claims.
func (s *AuthService) ValidateToken(ctx context.Context, tokenString string) (*models.JWTClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &models.JWTClaims{}, func(token *jwt.Token) (interface{}, error) {
		if token.Method != jwt.SigningMethodHS256 {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(s.config.Secret), nil
	})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrUnauthorized.Code, appErrors.ErrUnauthorized.Status, "invalid or expired token")
	}

	claims, ok := token.Claims.(*models.JWTClaims)
	if !ok || !token.Valid {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "invalid token claims")
	}

	if s.tokens != nil {
		revoked, err := s.tokens.IsRevoked(ctx, claims.ID)
		if err != nil {
			s.logger.Warn("token revocation lookup failed", zap.String("jti", claims.ID), zap.Error(err))
		} else if revoked {
			return nil, appErrors.Clone(appErrors.ErrUnauthorized, "token has been revoked")
		}
	}

	return claims, nil
}

// Verify reloads the admin behind valid claims so deactivated accounts lose access.
func (s *AuthService) Verify(ctx context.Context, claims *models.JWTClaims) (*models.AdminInfo, error) {
	admin, err := s.repo.FindByID(ctx, claims.AdminID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrUnauthorized, "admin no longer exists")
		}
		return nil, storeError(err, "failed to load admin")
	}
	if !admin.Active {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "admin is inactive")
	}
	info := adminInfo(admin)
	return &info, nil
}

// Logout revokes the token until it expires. It reports whether a revocation was stored;
// without a revocation store tokens stay valid until expiry.
func (s *AuthService) Logout(ctx context.Context, claims *models.JWTClaims) (bool, error) {
	if s.tokens == nil || !s.tokens.Enabled() || claims.ID == "" {
		return false, nil
	}
	ttl := s.config.Expiry
	if claims.ExpiresAt != nil {
		ttl = time.Until(claims.ExpiresAt.Time)
	}
	if err := s.tokens.Revoke(ctx, claims.ID, ttl); err != nil {
		return false, appErrors.Internal(err, "failed to revoke token")
	}
	s.logger.Info("admin logged out", zap.String("admin_id", claims.AdminID))
	return true, nil
}

func (s *AuthService) generateToken(admin *models.Admin) (string, time.Time, error) {
	issuedAt := time.Now().UTC()
	claims := &models.JWTClaims{
		AdminID:  admin.ID,
		Username: admin.Username,
		Role:     admin.Role,
		Name:     admin.FullName(),
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Issuer:    s.config.Issuer,
			Subject:   admin.ID,
			ExpiresAt: jwt.NewNumericDate(issuedAt.Add(s.config.Expiry)),
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			NotBefore: jwt.NewNumericDate(issuedAt),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(s.config.Secret))
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, issuedAt, nil
}

func adminInfo(admin *models.Admin) models.AdminInfo {
	return models.AdminInfo{
		ID:        admin.ID,
		FirstName: admin.FirstName,
		LastName:  admin.LastName,
		Username:  admin.Username,
		Role:      admin.Role,
	}
}
