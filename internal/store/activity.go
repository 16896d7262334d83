package store

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/planhub/planhub-api/internal/domain"
)

// ActivityLogStore defines the interface for activity log persistence.
// Rows are append-only; there is no update or delete path.
type ActivityLogStore interface {
	// Create appends a new activity log entry.
	Create(ctx context.Context, entry *domain.ActivityLog) error

	// ListByTask retrieves a task's activity entries, newest first.
	ListByTask(ctx context.Context, taskID uuid.UUID, limit int) ([]*domain.ActivityLog, error)

	// WithTx returns a new ActivityLogStore instance that uses the provided transaction.
	WithTx(tx *sql.Tx) ActivityLogStore
}
