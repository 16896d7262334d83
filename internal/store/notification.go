package store

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/planhub/planhub-api/internal/domain"
)

// NotificationStore defines the interface for notification data persistence.
type NotificationStore interface {
	// Create saves a new notification to the store.
	// It handles domain validation internally.
	Create(ctx context.Context, notification *domain.Notification) error

	// ListByRecipient retrieves a recipient's notifications, newest first.
	ListByRecipient(ctx context.Context, recipientID uuid.UUID, limit, offset int) ([]*domain.Notification, error)

	// MarkRead flags a notification as read on behalf of the recipient.
	// Returns ErrNotificationNotFound if no notification with that ID
	// belongs to the recipient.
	MarkRead(ctx context.Context, id, recipientID uuid.UUID) error

	// WithTx returns a new NotificationStore instance that uses the provided transaction.
	WithTx(tx *sql.Tx) NotificationStore
}
