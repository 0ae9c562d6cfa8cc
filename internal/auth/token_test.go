package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"clipstream/internal/domain"
)

var tokenTestUser = &domain.User{
	ID:       42,
	Username: "alice",
	Email:    "alice@x.com",
	FullName: "Alice Example",
}

func TestAccessToken_Roundtrip(t *testing.T) {
	t.Parallel()

	secret := []byte("access-secret")
	token, err := SignAccessToken(tokenTestUser, secret, time.Hour)
	require.NoError(t, err)

	claims, err := ParseAccessToken(token, secret)
	require.NoError(t, err)
	require.Equal(t, int64(42), claims.UserID)
	require.Equal(t, "alice", claims.Username)
	require.Equal(t, "alice@x.com", claims.Email)
	require.Equal(t, "Alice Example", claims.FullName)
	require.NotNil(t, claims.IssuedAt)
	require.NotNil(t, claims.ExpiresAt)
}

func TestRefreshToken_Roundtrip(t *testing.T) {
	t.Parallel()

	secret := []byte("refresh-secret")
	token, err := SignRefreshToken(42, secret, time.Hour)
	require.NoError(t, err)

	claims, err := ParseRefreshToken(token, secret)
	require.NoError(t, err)
	require.Equal(t, int64(42), claims.UserID)
}

func TestParseAccessToken_Expired(t *testing.T) {
	t.Parallel()

	secret := []byte("access-secret")
	token, err := SignAccessToken(tokenTestUser, secret, -time.Second)
	require.NoError(t, err)

	_, err = ParseAccessToken(token, secret)
	require.ErrorIs(t, err, ErrTokenExpired)
}

func TestParseAccessToken_WrongSecret(t *testing.T) {
	t.Parallel()

	token, err := SignAccessToken(tokenTestUser, []byte("right"), time.Hour)
	require.NoError(t, err)

	_, err = ParseAccessToken(token, []byte("wrong"))
	require.ErrorIs(t, err, ErrTokenInvalid)
}

func TestParseAccessToken_RefreshTokenRejected(t *testing.T) {
	t.Parallel()

	refresh, err := SignRefreshToken(42, []byte("refresh-secret"), time.Hour)
	require.NoError(t, err)

	_, err = ParseAccessToken(refresh, []byte("access-secret"))
	require.ErrorIs(t, err, ErrTokenInvalid)
}

func TestParseRefreshToken_Malformed(t *testing.T) {
	t.Parallel()

	_, err := ParseRefreshToken("not.a.jwt", []byte("k"))
	require.ErrorIs(t, err, ErrTokenInvalid)
}
