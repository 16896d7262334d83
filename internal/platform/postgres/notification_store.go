package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/planhub/planhub-api/internal/domain"
	"github.com/planhub/planhub-api/internal/platform/logger"
	"github.com/planhub/planhub-api/internal/store"
)

// PostgresNotificationStore implements the store.NotificationStore interface
// using a PostgreSQL database as the storage backend.
type PostgresNotificationStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresNotificationStore creates a new PostgreSQL implementation of the NotificationStore interface.
// It accepts a database connection or transaction that should be initialized and managed by the caller.
// If logger is nil, a default logger will be used.
func NewPostgresNotificationStore(db store.DBTX, logger *slog.Logger) *PostgresNotificationStore {
	if db == nil {
		panic("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresNotificationStore{
		db:     db,
		logger: logger.With(slog.String("component", "notification_store")),
	}
}

// Ensure PostgresNotificationStore implements store.NotificationStore interface
var _ store.NotificationStore = (*PostgresNotificationStore)(nil)

const notificationColumns = `id, recipient_id, title, message, category, link_url,
	task_id, project_id, comment_id, originator_id, read, created_at`

// Create implements store.NotificationStore.Create
// Returns store.ErrInvalidEntity if a referenced row does not exist.
func (s *PostgresNotificationStore) Create(ctx context.Context, notification *domain.Notification) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := notification.Validate(); err != nil {
		log.Warn("notification validation failed during create",
			slog.String("error", err.Error()),
			slog.String("notification_id", notification.ID.String()))
		return err
	}

	query := `
		INSERT INTO notifications (` + notificationColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`
	_, err := s.db.ExecContext(
		ctx,
		query,
		notification.ID,
		notification.RecipientID,
		notification.Title,
		notification.Message,
		notification.Category,
		notification.LinkURL,
		notification.TaskID,
		notification.ProjectID,
		notification.CommentID,
		notification.OriginatorID,
		notification.Read,
		notification.CreatedAt,
	)

	if err != nil {
		if isForeignKeyViolation(err) {
			log.Warn("foreign key violation during notification creation",
				slog.String("error", err.Error()),
				slog.String("notification_id", notification.ID.String()))
			return fmt.Errorf("%w: referenced row not found", store.ErrInvalidEntity)
		}
		log.Error("failed to create notification",
			slog.String("error", err.Error()),
			slog.String("notification_id", notification.ID.String()))
		return err
	}

	log.Debug("notification created",
		slog.String("notification_id", notification.ID.String()),
		slog.String("recipient_id", notification.RecipientID.String()))
	return nil
}

// ListByRecipient implements store.NotificationStore.ListByRecipient
// Notifications are returned newest first.
func (s *PostgresNotificationStore) ListByRecipient(ctx context.Context, recipientID uuid.UUID, limit, offset int) ([]*domain.Notification, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		SELECT ` + notificationColumns + `
		FROM notifications
		WHERE recipient_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`

	rows, err := s.db.QueryContext(ctx, query, recipientID, limit, offset)
	if err != nil {
		log.Error("failed to query notifications",
			slog.String("error", err.Error()),
			slog.String("recipient_id", recipientID.String()))
		return nil, err
	}
	defer closeRows(rows, log)

	notifications := []*domain.Notification{}
	for rows.Next() {
		var n domain.Notification
		err := rows.Scan(
			&n.ID,
			&n.RecipientID,
			&n.Title,
			&n.Message,
			&n.Category,
			&n.LinkURL,
			&n.TaskID,
			&n.ProjectID,
			&n.CommentID,
			&n.OriginatorID,
			&n.Read,
			&n.CreatedAt,
		)
		if err != nil {
			log.Error("failed to scan notification row", slog.String("error", err.Error()))
			return nil, err
		}
		notifications = append(notifications, &n)
	}
	if err := rows.Err(); err != nil {
		log.Error("error after scanning rows", slog.String("error", err.Error()))
		return nil, err
	}

	return notifications, nil
}

// MarkRead implements store.NotificationStore.MarkRead
// The recipient scoping prevents marking another user's notification.
// Returns store.ErrNotificationNotFound if no matching row exists.
func (s *PostgresNotificationStore) MarkRead(ctx context.Context, id, recipientID uuid.UUID) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		UPDATE notifications
		SET read = TRUE
		WHERE id = $1 AND recipient_id = $2
	`

	result, err := s.db.ExecContext(ctx, query, id, recipientID)
	if err != nil {
		log.Error("failed to mark notification read",
			slog.String("error", err.Error()),
			slog.String("notification_id", id.String()))
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		log.Error("failed to get rows affected",
			slog.String("error", err.Error()),
			slog.String("notification_id", id.String()))
		return err
	}
	if rowsAffected == 0 {
		log.Debug("notification not found for mark read",
			slog.String("notification_id", id.String()))
		return store.ErrNotificationNotFound
	}

	return nil
}

// WithTx implements store.NotificationStore.WithTx
func (s *PostgresNotificationStore) WithTx(tx *sql.Tx) store.NotificationStore {
	return &PostgresNotificationStore{
		db:     tx,
		logger: s.logger,
	}
}
