package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/planhub/planhub-api/internal/domain"
)

// EmailQueueStore defines the interface for the durable outbound email queue.
//
// The claim protocol makes overlapping sweeps safe: a record must be moved
// from pending to the in-flight sending state with ClaimDue (an atomic
// conditional update) before any transport attempt, and only the claimer
// updates it afterwards with MarkSent or MarkAttemptFailed.
type EmailQueueStore interface {
	// Create enqueues a new pending email record.
	// It handles domain validation internally.
	Create(ctx context.Context, email *domain.QueuedEmail) error

	// GetByID retrieves a queued email by its unique ID.
	// Returns ErrEmailNotFound if the record does not exist.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.QueuedEmail, error)

	// ClaimDue atomically claims up to limit due records: status pending,
	// attempts below max, scheduled-at not in the future, oldest created
	// first. Claimed records transition to the sending status and are
	// returned; records claimed by a concurrent sweep are skipped.
	ClaimDue(ctx context.Context, limit int) ([]*domain.QueuedEmail, error)

	// MarkSent transitions a claimed record to sent with the given
	// delivery timestamp. Returns ErrUpdateFailed if the record is not in
	// the sending state.
	MarkSent(ctx context.Context, id uuid.UUID, sentAt time.Time) error

	// MarkAttemptFailed applies one failed delivery attempt to a claimed
	// record: attempts+1, error message recorded, and a transition to
	// failed when the attempt bound is reached, else back to pending.
	// Returns ErrUpdateFailed if the record is not in the sending state.
	MarkAttemptFailed(ctx context.Context, id uuid.UUID, errMsg string) error

	// ResetStuckClaims returns records stuck in the sending state for
	// longer than the given age back to pending, reporting how many rows
	// were reset. Used for crash recovery at the start of a sweep.
	ResetStuckClaims(ctx context.Context, olderThan time.Duration) (int64, error)

	// WithTx returns a new EmailQueueStore instance that uses the provided transaction.
	WithTx(tx *sql.Tx) EmailQueueStore
}
