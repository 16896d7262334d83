package store

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/planhub/planhub-api/internal/domain"
)

// TaskStore defines the interface for task data persistence.
type TaskStore interface {
	// Create saves a new task to the store.
	// It handles domain validation internally.
	// Returns ErrInvalidEntity if a referenced row does not exist.
	Create(ctx context.Context, task *domain.Task) error

	// GetByID retrieves a task by its unique ID.
	// Returns ErrTaskNotFound if the task does not exist.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Task, error)

	// GetContext retrieves a task joined with its project name and, when
	// assigned, the assignee's display name and email. This is the shape
	// the notification fan-out consumes.
	// Returns ErrTaskNotFound if the task does not exist.
	GetContext(ctx context.Context, id uuid.UUID) (*domain.TaskContext, error)

	// UpdateStatus updates the status of an existing task.
	// Returns ErrTaskNotFound if the task does not exist.
	UpdateStatus(ctx context.Context, id uuid.UUID, status domain.TaskStatus) error

	// WithTx returns a new TaskStore instance that uses the provided transaction.
	WithTx(tx *sql.Tx) TaskStore
}
