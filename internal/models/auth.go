package models

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// LoginRequest holds credentials for authenticating an administrator.
type LoginRequest struct {
	Username  string `json:"usuario" validate:"required"`
	Password  string `json:"contraseña" validate:"required"`
	IP        string `json:"-"`
	UserAgent string `json:"-"`
}

// LoginResponse returns the issued token and admin info.
type LoginResponse struct {
	Token     string    `json:"token"`
	ExpiresIn int64     `json:"expires_in"`
	Admin     AdminInfo `json:"admin"`
	IssuedAt  time.Time `json:"issued_at"`
}

// AdminInfo describes the authenticated administrator in responses.
type AdminInfo struct {
	ID        string    `json:"id_admin"`
	FirstName string    `json:"nombre"`
	LastName  string    `json:"apellido"`
	Username  string    `json:"usuario"`
	Role      AdminRole `json:"rol"`
}

// JWTClaims represents the JWT payload for access tokens.
type JWTClaims struct {
	AdminID  string    `json:"id_admin"`
	Username string    `json:"usuario"`
	Role     AdminRole `json:"rol"`
	Name     string    `json:"nombre"`
	jwt.RegisteredClaims
}
