package repository

import (
	"context"
	"errors"

	"clipstream/internal/domain"
)

var (
	// ErrNotFound is returned when no user matches the lookup.
	ErrNotFound = errors.New("user not found")
	// ErrDuplicate is returned when a unique constraint on username or email
	// rejects an insert. It is the storage-level guard against concurrent
	// registrations racing past the pre-check.
	ErrDuplicate = errors.New("user already exists")
	// ErrTokenMismatch is returned by RotateRefreshToken when the stored
	// refresh token no longer equals the presented one.
	ErrTokenMismatch = errors.New("refresh token mismatch")
)

// UserRepository defines persistence operations for User entities.
//
// Refresh-token operations never touch the password column; UpdatePassword is
// the only mutation that writes a hash, and the hash is computed by the
// caller. This keeps password hashing an explicit step rather than a hidden
// save hook.
type UserRepository interface {
	Init(ctx context.Context) error
	Create(ctx context.Context, user *domain.User) (int64, error)
	GetByID(ctx context.Context, id int64) (*domain.User, error)
	// GetByUsernameOrEmail matches either field case-insensitively. Blank
	// arguments match nothing.
	GetByUsernameOrEmail(ctx context.Context, username, email string) (*domain.User, error)
	UpdateRefreshToken(ctx context.Context, id int64, token string) error
	// RotateRefreshToken replaces old with next in a single compare-and-set
	// update. ErrTokenMismatch means old was already superseded or cleared.
	RotateRefreshToken(ctx context.Context, id int64, old, next string) error
	ClearRefreshToken(ctx context.Context, id int64) error
	UpdatePassword(ctx context.Context, id int64, passwordHash string) error
}
