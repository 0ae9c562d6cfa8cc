package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"clipstream/internal/apperr"
	"clipstream/internal/auth"
	"clipstream/internal/domain"
	"clipstream/internal/media"
	"clipstream/internal/repository"
)

// RegisterInput carries the registration fields plus the locally staged
// upload paths. CoverImagePath may be empty.
type RegisterInput struct {
	Username       string
	Email          string
	FullName       string
	Password       string
	AvatarPath     string
	CoverImagePath string
}

// UserService describes user lifecycle operations.
type UserService interface {
	Register(ctx context.Context, in RegisterInput) (*domain.User, error)
	Login(ctx context.Context, username, email, password string) (*domain.User, auth.TokenPair, error)
	Logout(ctx context.Context, userID int64) error
	Refresh(ctx context.Context, refreshToken string) (auth.TokenPair, error)
	CurrentUser(ctx context.Context, userID int64) (*domain.User, error)
	ChangePassword(ctx context.Context, userID int64, oldPassword, newPassword string) error
}

type userService struct {
	users      repository.UserRepository
	sessions   *auth.SessionService
	uploader   *media.Uploader
	bcryptCost int
}

func NewUserService(users repository.UserRepository, sessions *auth.SessionService, uploader *media.Uploader, bcryptCost int) UserService {
	return &userService{
		users:      users,
		sessions:   sessions,
		uploader:   uploader,
		bcryptCost: bcryptCost,
	}
}

func (s *userService) Register(ctx context.Context, in RegisterInput) (*domain.User, error) {
	username := strings.ToLower(strings.TrimSpace(in.Username))
	email := strings.ToLower(strings.TrimSpace(in.Email))
	fullName := strings.TrimSpace(in.FullName)
	password := strings.TrimSpace(in.Password)

	switch {
	case username == "":
		return nil, apperr.Validation("username is required")
	case email == "":
		return nil, apperr.Validation("email is required")
	case fullName == "":
		return nil, apperr.Validation("full name is required")
	case password == "":
		return nil, apperr.Validation("password is required")
	}
	if !strings.Contains(email, "@") {
		return nil, apperr.Validation("email is malformed")
	}
	if len(password) < 8 {
		return nil, apperr.Validation("password must be at least 8 characters")
	}

	existing, err := s.users.GetByUsernameOrEmail(ctx, username, email)
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("check existing user: %w", err)
	}
	if existing != nil {
		return nil, apperr.Conflict("user with this username or email already exists")
	}

	if in.AvatarPath == "" {
		return nil, apperr.Validation("avatar file is required")
	}

	avatarURL, err := s.uploader.Commit(ctx, in.AvatarPath)
	if err != nil || avatarURL == "" {
		return nil, apperr.Validation("avatar file is required")
	}

	// optional: a failed cover commit degrades to no cover image
	coverURL, err := s.uploader.Commit(ctx, in.CoverImagePath)
	if err != nil {
		coverURL = ""
	}

	hash, err := auth.HashPassword(password, s.bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := &domain.User{
		Username:      username,
		Email:         email,
		FullName:      fullName,
		AvatarURL:     avatarURL,
		CoverImageURL: coverURL,
		PasswordHash:  hash,
	}

	id, err := s.users.Create(ctx, user)
	if err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, apperr.Conflict("user with this username or email already exists")
		}
		return nil, fmt.Errorf("create user: %w", err)
	}

	created, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, apperr.Internal("something went wrong while registering the user")
	}
	return created.Sanitize(), nil
}

func (s *userService) Login(ctx context.Context, username, email, password string) (*domain.User, auth.TokenPair, error) {
	username = strings.ToLower(strings.TrimSpace(username))
	email = strings.ToLower(strings.TrimSpace(email))
	password = strings.TrimSpace(password)

	// both identifiers absent is the only rejected combination
	if username == "" && email == "" {
		return nil, auth.TokenPair{}, apperr.Validation("username or email is required")
	}
	if password == "" {
		return nil, auth.TokenPair{}, apperr.Validation("password is required")
	}

	user, err := s.users.GetByUsernameOrEmail(ctx, username, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, auth.TokenPair{}, apperr.NotFound("user does not exist")
		}
		return nil, auth.TokenPair{}, fmt.Errorf("find user: %w", err)
	}

	if !auth.CheckPassword(password, user.PasswordHash) {
		return nil, auth.TokenPair{}, apperr.Unauthorized("invalid user credentials")
	}

	pair, err := s.sessions.IssuePair(ctx, user)
	if err != nil {
		return nil, auth.TokenPair{}, fmt.Errorf("issue token pair: %w", err)
	}
	return user.Sanitize(), pair, nil
}

func (s *userService) Logout(ctx context.Context, userID int64) error {
	return s.sessions.Revoke(ctx, userID)
}

func (s *userService) Refresh(ctx context.Context, refreshToken string) (auth.TokenPair, error) {
	return s.sessions.Rotate(ctx, refreshToken)
}

func (s *userService) CurrentUser(ctx context.Context, userID int64) (*domain.User, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperr.NotFound("user does not exist")
		}
		return nil, fmt.Errorf("find user: %w", err)
	}
	return user.Sanitize(), nil
}

func (s *userService) ChangePassword(ctx context.Context, userID int64, oldPassword, newPassword string) error {
	oldPassword = strings.TrimSpace(oldPassword)
	newPassword = strings.TrimSpace(newPassword)
	if newPassword == "" {
		return apperr.Validation("new password is required")
	}
	if len(newPassword) < 8 {
		return apperr.Validation("password must be at least 8 characters")
	}

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return apperr.NotFound("user does not exist")
		}
		return fmt.Errorf("find user: %w", err)
	}

	if !auth.CheckPassword(oldPassword, user.PasswordHash) {
		return apperr.Unauthorized("invalid old password")
	}

	hash, err := auth.HashPassword(newPassword, s.bcryptCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	if err := s.users.UpdatePassword(ctx, userID, hash); err != nil {
		return fmt.Errorf("update password: %w", err)
	}

	// a password change kills the active session slot
	return s.sessions.Revoke(ctx, userID)
}
