package service

import (
	"context"
	"errors"
	"log/slog"

	"github.com/planhub/planhub-api/internal/domain"
	"github.com/planhub/planhub-api/internal/service/auth"
	"github.com/planhub/planhub-api/internal/store"
)

// UserService authenticates users and exposes the member directory.
type UserService interface {
	// Authenticate verifies the credentials and returns the user together
	// with a signed access token. Returns ErrInvalidCredentials for an
	// unknown email, a wrong password, or a deactivated account; the three
	// cases are indistinguishable to the caller.
	Authenticate(ctx context.Context, email, password string) (*domain.User, string, error)

	// ListUsers returns all active users ordered by display name.
	ListUsers(ctx context.Context) ([]*domain.User, error)
}

type userServiceImpl struct {
	users    store.UserStore
	jwt      auth.JWTService
	verifier auth.PasswordVerifier
	logger   *slog.Logger
}

// NewUserService creates a UserService.
func NewUserService(
	users store.UserStore,
	jwt auth.JWTService,
	verifier auth.PasswordVerifier,
	logger *slog.Logger,
) (UserService, error) {
	if users == nil {
		return nil, &Error{Operation: "create_service", Message: "user store cannot be nil"}
	}
	if jwt == nil {
		return nil, &Error{Operation: "create_service", Message: "jwt service cannot be nil"}
	}
	if verifier == nil {
		return nil, &Error{Operation: "create_service", Message: "password verifier cannot be nil"}
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &userServiceImpl{
		users:    users,
		jwt:      jwt,
		verifier: verifier,
		logger:   logger.With("component", "user_service"),
	}, nil
}

// Authenticate implements UserService.Authenticate.
func (s *userServiceImpl) Authenticate(ctx context.Context, email, password string) (*domain.User, string, error) {
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, store.ErrUserNotFound) {
			return nil, "", ErrInvalidCredentials
		}
		return nil, "", newError("authenticate", "failed to look up user", err)
	}

	if !user.Active {
		s.logger.Info("login rejected for inactive account", "user_id", user.ID)
		return nil, "", ErrInvalidCredentials
	}

	if err := s.verifier.Compare(user.HashedPassword, password); err != nil {
		return nil, "", ErrInvalidCredentials
	}

	token, err := s.jwt.GenerateToken(ctx, user.ID)
	if err != nil {
		return nil, "", newError("authenticate", "failed to issue token", err)
	}

	s.logger.Info("user authenticated", "user_id", user.ID)
	return user, token, nil
}

// ListUsers implements UserService.ListUsers.
func (s *userServiceImpl) ListUsers(ctx context.Context) ([]*domain.User, error) {
	users, err := s.users.ListActive(ctx)
	if err != nil {
		return nil, newError("list_users", "failed to list users", err)
	}
	return users, nil
}
