package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const revokedTokenPrefix = "carritos:revoked:"

// TokenRepository keeps a Redis-backed list of revoked token IDs. A nil client disables revocation.
type TokenRepository struct {
	client *redis.Client
}

// NewTokenRepository constructs a token repository.
func NewTokenRepository(client *redis.Client) *TokenRepository {
	return &TokenRepository{client: client}
}

// Enabled reports whether revocations are persisted.
func (r *TokenRepository) Enabled() bool {
	return r != nil && r.client != nil
}

// Revoke stores the token ID until ttl elapses.
func (r *TokenRepository) Revoke(ctx context.Context, jti string, ttl time.Duration) error {
	if !r.Enabled() || jti == "" || ttl <= 0 {
		return nil
	}
	if err := r.client.Set(ctx, revokedTokenPrefix+jti, 1, ttl).Err(); err != nil {
		return fmt.Errorf("redis revoke %s: %w", jti, err)
	}
	return nil
}

// IsRevoked reports whether the token ID has been revoked.
func (r *TokenRepository) IsRevoked(ctx context.Context, jti string) (bool, error) {
	if !r.Enabled() || jti == "" {
		return false, nil
	}
	err := r.client.Get(ctx, revokedTokenPrefix+jti).Err()
	if err == nil {
		return true, nil
	}
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	return false, fmt.Errorf("redis lookup %s: %w", jti, err)
}

// Close releases the underlying Redis connection if present.
func (r *TokenRepository) Close() error {
	if !r.Enabled() {
		return nil
	}
	return r.client.Close()
}
