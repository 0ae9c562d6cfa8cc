package auth

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"clipstream/internal/domain"
	"clipstream/internal/repository"
	"clipstream/internal/repository/sqlite"
)

func newSessionFixture(t *testing.T) (*SessionService, repository.UserRepository, *domain.User) {
	t.Helper()

	db, err := sqlite.Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	repo := sqlite.NewUserRepository(db)
	require.NoError(t, repo.Init(context.Background()))

	user := &domain.User{
		Username:     "alice",
		Email:        "alice@x.com",
		FullName:     "Alice Example",
		AvatarURL:    "https://cdn.example.com/a.png",
		PasswordHash: "irrelevant",
	}
	_, err = repo.Create(context.Background(), user)
	require.NoError(t, err)

	svc := NewSessionService(SessionConfig{
		AccessSecret:  []byte("access-secret"),
		RefreshSecret: []byte("refresh-secret"),
		AccessTTL:     time.Minute,
		RefreshTTL:    time.Hour,
	}, repo)

	return svc, repo, user
}

func TestSessionService_IssuePairPersistsRefreshToken(t *testing.T) {
	t.Parallel()

	svc, repo, user := newSessionFixture(t)
	ctx := context.Background()

	pair, err := svc.IssuePair(ctx, user)
	require.NoError(t, err)
	require.NotEmpty(t, pair.AccessToken)
	require.NotEmpty(t, pair.RefreshToken)

	stored, err := repo.GetByID(ctx, user.ID)
	require.NoError(t, err)
	require.Equal(t, pair.RefreshToken, stored.RefreshToken)

	claims, err := svc.VerifyAccess(pair.AccessToken)
	require.NoError(t, err)
	require.Equal(t, user.ID, claims.UserID)
}

func TestSessionService_RotateSucceedsExactlyOnce(t *testing.T) {
	t.Parallel()

	svc, _, user := newSessionFixture(t)
	ctx := context.Background()

	pair, err := svc.IssuePair(ctx, user)
	require.NoError(t, err)

	rotated, err := svc.Rotate(ctx, pair.RefreshToken)
	require.NoError(t, err)
	require.NotEqual(t, pair.RefreshToken, rotated.RefreshToken)

	// the superseded token is single-use
	_, err = svc.Rotate(ctx, pair.RefreshToken)
	require.ErrorIs(t, err, ErrTokenReused)

	// the fresh one still works
	_, err = svc.Rotate(ctx, rotated.RefreshToken)
	require.NoError(t, err)
}

func TestSessionService_RotateRejectsForgedToken(t *testing.T) {
	t.Parallel()

	svc, _, user := newSessionFixture(t)
	ctx := context.Background()

	_, err := svc.IssuePair(ctx, user)
	require.NoError(t, err)

	forged, err := SignRefreshToken(user.ID, []byte("other-secret"), time.Hour)
	require.NoError(t, err)

	_, err = svc.Rotate(ctx, forged)
	require.ErrorIs(t, err, ErrTokenInvalid)
}

func TestSessionService_RotateExpiredToken(t *testing.T) {
	t.Parallel()

	svc, _, user := newSessionFixture(t)
	ctx := context.Background()

	expired, err := SignRefreshToken(user.ID, []byte("refresh-secret"), -time.Second)
	require.NoError(t, err)

	_, err = svc.Rotate(ctx, expired)
	require.ErrorIs(t, err, ErrTokenExpired)
}

func TestSessionService_RotateUnknownUser(t *testing.T) {
	t.Parallel()

	svc, _, _ := newSessionFixture(t)
	ctx := context.Background()

	orphan, err := SignRefreshToken(9999, []byte("refresh-secret"), time.Hour)
	require.NoError(t, err)

	_, err = svc.Rotate(ctx, orphan)
	require.ErrorIs(t, err, ErrTokenInvalid)
}

func TestSessionService_RevokeKillsOutstandingTokens(t *testing.T) {
	t.Parallel()

	svc, repo, user := newSessionFixture(t)
	ctx := context.Background()

	pair, err := svc.IssuePair(ctx, user)
	require.NoError(t, err)

	require.NoError(t, svc.Revoke(ctx, user.ID))

	stored, err := repo.GetByID(ctx, user.ID)
	require.NoError(t, err)
	require.Empty(t, stored.RefreshToken)

	_, err = svc.Rotate(ctx, pair.RefreshToken)
	require.ErrorIs(t, err, ErrTokenReused)
}
