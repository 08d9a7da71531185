package services

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
)

const (
	tokenBlacklistPrefix = "blacklist:token:"
	resetTokenPrefix     = "reset:token:"

	ResetTokenTTL = time.Hour
)

// SessionStore keeps short-lived auth state in redis: revoked session ids and
// password reset tokens.
type SessionStore struct {
	client *redis.Client
}

func NewSessionStore(client *redis.Client) *SessionStore {
	return &SessionStore{client: client}
}

// Revoke blacklists a session id until ttl elapses. Non-positive ttls are ignored
// since the token has already expired.
func (s *SessionStore) Revoke(ctx context.Context, tokenID string, ttl time.Duration) error {
	if s == nil || s.client == nil || ttl <= 0 {
		return nil
	}
	if err := s.client.Set(ctx, tokenBlacklistPrefix+tokenID, "revoked", ttl).Err(); err != nil {
		return fmt.Errorf("failed to revoke session: %w", err)
	}
	return nil
}

func (s *SessionStore) IsRevoked(ctx context.Context, tokenID string) (bool, error) {
	if s == nil || s.client == nil {
		return false, nil
	}
	_, err := s.client.Get(ctx, tokenBlacklistPrefix+tokenID).Result()
	if err == redis.Nil {
		return false, nil
	} else if err != nil {
		return false, fmt.Errorf("failed to check session blacklist: %w", err)
	}
	return true, nil
}

func (s *SessionStore) StoreResetToken(ctx context.Context, token string, accountID uuid.UUID) error {
	if s == nil || s.client == nil {
		return fmt.Errorf("password reset requires redis")
	}
	if err := s.client.Set(ctx, resetTokenPrefix+token, accountID.String(), ResetTokenTTL).Err(); err != nil {
		return fmt.Errorf("failed to store reset token: %w", err)
	}
	return nil
}

// ConsumeResetToken returns the account bound to token and deletes it so it cannot be reused.
func (s *SessionStore) ConsumeResetToken(ctx context.Context, token string) (uuid.UUID, error) {
	if s == nil || s.client == nil {
		return uuid.Nil, ErrNotFound
	}
	value, err := s.client.GetDel(ctx, resetTokenPrefix+token).Result()
	if err == redis.Nil {
		return uuid.Nil, ErrNotFound
	} else if err != nil {
		return uuid.Nil, fmt.Errorf("failed to read reset token: %w", err)
	}
	accountID, err := uuid.Parse(value)
	if err != nil {
		return uuid.Nil, ErrNotFound
	}
	return accountID, nil
}
