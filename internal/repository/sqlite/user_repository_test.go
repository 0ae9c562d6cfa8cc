package sqlite

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"clipstream/internal/domain"
	"clipstream/internal/repository"
)

func newTestRepo(t *testing.T) repository.UserRepository {
	t.Helper()

	db, err := Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	repo := NewUserRepository(db)
	require.NoError(t, repo.Init(context.Background()))
	return repo
}

func testUser() *domain.User {
	return &domain.User{
		Username:      "alice",
		Email:         "alice@x.com",
		FullName:      "Alice Example",
		AvatarURL:     "https://cdn.example.com/a.png",
		CoverImageURL: "",
		PasswordHash:  "hash",
	}
}

func TestUserRepository_CreateAndGet(t *testing.T) {
	t.Parallel()

	repo := newTestRepo(t)
	ctx := context.Background()

	user := testUser()
	id, err := repo.Create(ctx, user)
	require.NoError(t, err)
	require.Positive(t, id)
	require.False(t, user.CreatedAt.IsZero())

	got, err := repo.GetByID(ctx, id)
	require.NoError(t, err)
	require.Equal(t, "alice", got.Username)
	require.Equal(t, "alice@x.com", got.Email)
	require.Equal(t, "hash", got.PasswordHash)
}

func TestUserRepository_GetByID_NotFound(t *testing.T) {
	t.Parallel()

	repo := newTestRepo(t)
	_, err := repo.GetByID(context.Background(), 12345)
	require.ErrorIs(t, err, repository.ErrNotFound)
}

func TestUserRepository_DuplicateRejected(t *testing.T) {
	t.Parallel()

	repo := newTestRepo(t)
	ctx := context.Background()

	_, err := repo.Create(ctx, testUser())
	require.NoError(t, err)

	sameUsername := testUser()
	sameUsername.Email = "other@x.com"
	_, err = repo.Create(ctx, sameUsername)
	require.ErrorIs(t, err, repository.ErrDuplicate)

	sameEmail := testUser()
	sameEmail.Username = "bob"
	_, err = repo.Create(ctx, sameEmail)
	require.ErrorIs(t, err, repository.ErrDuplicate)
}

func TestUserRepository_DuplicateCaseInsensitive(t *testing.T) {
	t.Parallel()

	repo := newTestRepo(t)
	ctx := context.Background()

	_, err := repo.Create(ctx, testUser())
	require.NoError(t, err)

	shouting := testUser()
	shouting.Username = "ALICE"
	shouting.Email = "ALICE@X.COM"
	_, err = repo.Create(ctx, shouting)
	require.ErrorIs(t, err, repository.ErrDuplicate)
}

func TestUserRepository_GetByUsernameOrEmail(t *testing.T) {
	t.Parallel()

	repo := newTestRepo(t)
	ctx := context.Background()

	_, err := repo.Create(ctx, testUser())
	require.NoError(t, err)

	byUsername, err := repo.GetByUsernameOrEmail(ctx, "alice", "")
	require.NoError(t, err)
	require.Equal(t, "alice", byUsername.Username)

	byEmail, err := repo.GetByUsernameOrEmail(ctx, "", "alice@x.com")
	require.NoError(t, err)
	require.Equal(t, "alice", byEmail.Username)

	byCase, err := repo.GetByUsernameOrEmail(ctx, "ALICE", "")
	require.NoError(t, err)
	require.Equal(t, "alice", byCase.Username)

	_, err = repo.GetByUsernameOrEmail(ctx, "nobody", "nobody@x.com")
	require.ErrorIs(t, err, repository.ErrNotFound)

	// blank arguments must not match rows with empty columns
	_, err = repo.GetByUsernameOrEmail(ctx, "", "")
	require.ErrorIs(t, err, repository.ErrNotFound)
}

func TestUserRepository_RefreshTokenLifecycle(t *testing.T) {
	t.Parallel()

	repo := newTestRepo(t)
	ctx := context.Background()

	user := testUser()
	id, err := repo.Create(ctx, user)
	require.NoError(t, err)

	require.NoError(t, repo.UpdateRefreshToken(ctx, id, "token-one"))

	got, err := repo.GetByID(ctx, id)
	require.NoError(t, err)
	require.Equal(t, "token-one", got.RefreshToken)

	// compare-and-set succeeds against the live token
	require.NoError(t, repo.RotateRefreshToken(ctx, id, "token-one", "token-two"))

	// and fails against the superseded one
	err = repo.RotateRefreshToken(ctx, id, "token-one", "token-three")
	require.ErrorIs(t, err, repository.ErrTokenMismatch)

	require.NoError(t, repo.ClearRefreshToken(ctx, id))
	got, err = repo.GetByID(ctx, id)
	require.NoError(t, err)
	require.Empty(t, got.RefreshToken)
}

func TestUserRepository_UpdatePasswordLeavesTokenAlone(t *testing.T) {
	t.Parallel()

	repo := newTestRepo(t)
	ctx := context.Background()

	id, err := repo.Create(ctx, testUser())
	require.NoError(t, err)
	require.NoError(t, repo.UpdateRefreshToken(ctx, id, "token-one"))

	require.NoError(t, repo.UpdatePassword(ctx, id, "new-hash"))

	got, err := repo.GetByID(ctx, id)
	require.NoError(t, err)
	require.Equal(t, "new-hash", got.PasswordHash)
	require.Equal(t, "token-one", got.RefreshToken)
}

func TestUserRepository_UpdateMissingUser(t *testing.T) {
	t.Parallel()

	repo := newTestRepo(t)
	ctx := context.Background()

	require.ErrorIs(t, repo.UpdateRefreshToken(ctx, 777, "x"), repository.ErrNotFound)
	require.ErrorIs(t, repo.UpdatePassword(ctx, 777, "x"), repository.ErrNotFound)
}
