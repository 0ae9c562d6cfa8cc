package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"clipstream/internal/domain"
)

var (
	// ErrTokenInvalid covers malformed tokens and bad signatures.
	ErrTokenInvalid = errors.New("invalid token")
	// ErrTokenExpired is returned for well-signed tokens past their expiry.
	ErrTokenExpired = errors.New("token expired")
	// ErrTokenReused is returned when a presented refresh token was already
	// superseded by a rotation or cleared by logout.
	ErrTokenReused = errors.New("refresh token reused")
)

// AccessClaims is the self-contained identity carried by an access token.
type AccessClaims struct {
	UserID   int64  `json:"uid"`
	Email    string `json:"email"`
	Username string `json:"username"`
	FullName string `json:"fullName"`
	jwt.RegisteredClaims
}

// RefreshClaims carries only the subject id; everything else is looked up at
// rotation time.
type RefreshClaims struct {
	UserID int64 `json:"uid"`
	jwt.RegisteredClaims
}

// SignAccessToken signs a short-lived access token for the user.
func SignAccessToken(user *domain.User, secret []byte, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := AccessClaims{
		UserID:   user.ID,
		Email:    user.Email,
		Username: user.Username,
		FullName: user.FullName,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
}

// SignRefreshToken signs a long-lived refresh token for the user id.
func SignRefreshToken(userID int64, secret []byte, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := RefreshClaims{
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
}

// ParseAccessToken verifies signature and expiry and returns the claims.
func ParseAccessToken(token string, secret []byte) (*AccessClaims, error) {
	claims := &AccessClaims{}
	if err := parseInto(token, secret, claims); err != nil {
		return nil, err
	}
	return claims, nil
}

// ParseRefreshToken verifies signature and expiry and returns the claims.
func ParseRefreshToken(token string, secret []byte) (*RefreshClaims, error) {
	claims := &RefreshClaims{}
	if err := parseInto(token, secret, claims); err != nil {
		return nil, err
	}
	return claims, nil
}

func parseInto(token string, secret []byte, claims jwt.Claims) error {
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		return secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return ErrTokenExpired
		}
		return ErrTokenInvalid
	}
	if !parsed.Valid {
		return ErrTokenInvalid
	}
	return nil
}
