package store

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/planhub/planhub-api/internal/domain"
)

// UserStore defines the interface for user data persistence.
type UserStore interface {
	// Create saves a new user, hashing the provided plaintext password.
	// Returns ErrEmailExists if the email is already in use.
	Create(ctx context.Context, user *domain.User, password string) error

	// GetByID retrieves a user by its unique ID.
	// Returns ErrUserNotFound if the user does not exist.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error)

	// GetByEmail retrieves a user by email address.
	// Returns ErrUserNotFound if the user does not exist.
	GetByEmail(ctx context.Context, email string) (*domain.User, error)

	// FindByNames retrieves active users whose display name is in the
	// given set, ordered by account creation time (oldest first) so that
	// collision handling is deterministic. Names with no match are simply
	// absent from the result.
	FindByNames(ctx context.Context, names []string) ([]*domain.User, error)

	// ListActive retrieves all active users ordered by display name.
	ListActive(ctx context.Context) ([]*domain.User, error)

	// WithTx returns a new UserStore instance that uses the provided transaction.
	WithTx(tx *sql.Tx) UserStore
}
