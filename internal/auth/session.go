package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"clipstream/internal/domain"
	"clipstream/internal/repository"
)

// TokenPair is one issued access/refresh token couple.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
}

// SessionConfig carries the process-wide signing material, read-only after
// startup.
type SessionConfig struct {
	AccessSecret  []byte
	RefreshSecret []byte
	AccessTTL     time.Duration
	RefreshTTL    time.Duration
}

// SessionService issues, verifies, rotates and revokes token pairs. The
// stored refresh token on the user row is the sole source of refresh-token
// validity: a pair is live only while its refresh token equals that field.
type SessionService struct {
	cfg   SessionConfig
	users repository.UserRepository
}

func NewSessionService(cfg SessionConfig, users repository.UserRepository) *SessionService {
	return &SessionService{cfg: cfg, users: users}
}

// IssuePair signs a fresh token pair and persists the refresh token,
// invalidating whatever refresh token the user held before.
func (s *SessionService) IssuePair(ctx context.Context, user *domain.User) (TokenPair, error) {
	access, err := SignAccessToken(user, s.cfg.AccessSecret, s.cfg.AccessTTL)
	if err != nil {
		return TokenPair{}, fmt.Errorf("sign access token: %w", err)
	}
	refresh, err := SignRefreshToken(user.ID, s.cfg.RefreshSecret, s.cfg.RefreshTTL)
	if err != nil {
		return TokenPair{}, fmt.Errorf("sign refresh token: %w", err)
	}
	if err := s.users.UpdateRefreshToken(ctx, user.ID, refresh); err != nil {
		return TokenPair{}, fmt.Errorf("store refresh token: %w", err)
	}
	return TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}

// VerifyAccess validates an access token without touching the store.
func (s *SessionService) VerifyAccess(token string) (*AccessClaims, error) {
	return ParseAccessToken(token, s.cfg.AccessSecret)
}

// Rotate exchanges a live refresh token for a new pair. The swap is a
// compare-and-set against the stored token, so each refresh token is usable
// exactly once; presenting a superseded one fails with ErrTokenReused.
func (s *SessionService) Rotate(ctx context.Context, presented string) (TokenPair, error) {
	claims, err := ParseRefreshToken(presented, s.cfg.RefreshSecret)
	if err != nil {
		return TokenPair{}, err
	}

	user, err := s.users.GetByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return TokenPair{}, ErrTokenInvalid
		}
		return TokenPair{}, fmt.Errorf("load user for rotation: %w", err)
	}

	access, err := SignAccessToken(user, s.cfg.AccessSecret, s.cfg.AccessTTL)
	if err != nil {
		return TokenPair{}, fmt.Errorf("sign access token: %w", err)
	}
	refresh, err := SignRefreshToken(user.ID, s.cfg.RefreshSecret, s.cfg.RefreshTTL)
	if err != nil {
		return TokenPair{}, fmt.Errorf("sign refresh token: %w", err)
	}

	if err := s.users.RotateRefreshToken(ctx, user.ID, presented, refresh); err != nil {
		if errors.Is(err, repository.ErrTokenMismatch) {
			return TokenPair{}, ErrTokenReused
		}
		return TokenPair{}, fmt.Errorf("rotate refresh token: %w", err)
	}

	return TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}

// Revoke clears the stored refresh token, permanently invalidating every
// outstanding refresh token for the user.
func (s *SessionService) Revoke(ctx context.Context, userID int64) error {
	if err := s.users.ClearRefreshToken(ctx, userID); err != nil && !errors.Is(err, repository.ErrNotFound) {
		return fmt.Errorf("clear refresh token: %w", err)
	}
	return nil
}
