package store

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/planhub/planhub-api/internal/domain"
)

// ProjectStore defines the interface for project data persistence.
type ProjectStore interface {
	// GetByID retrieves a project by its unique ID.
	// Returns ErrProjectNotFound if the project does not exist.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Project, error)

	// AddMember links a user to a project with a role.
	// Returns ErrMemberExists if the user is already a member and
	// ErrInvalidEntity if the project or user does not exist.
	AddMember(ctx context.Context, member *domain.ProjectMember) error

	// WithTx returns a new ProjectStore instance that uses the provided transaction.
	WithTx(tx *sql.Tx) ProjectStore
}
