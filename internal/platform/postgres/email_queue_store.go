package postgres

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/planhub/planhub-api/internal/domain"
	"github.com/planhub/planhub-api/internal/platform/logger"
	"github.com/planhub/planhub-api/internal/store"
)

// PostgresEmailQueueStore implements the store.EmailQueueStore interface
// using a PostgreSQL database as the storage backend.
type PostgresEmailQueueStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresEmailQueueStore creates a new PostgreSQL implementation of the EmailQueueStore interface.
// It accepts a database connection or transaction that should be initialized and managed by the caller.
// If logger is nil, a default logger will be used.
func NewPostgresEmailQueueStore(db store.DBTX, logger *slog.Logger) *PostgresEmailQueueStore {
	if db == nil {
		panic("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresEmailQueueStore{
		db:     db,
		logger: logger.With(slog.String("component", "email_queue_store")),
	}
}

// Ensure PostgresEmailQueueStore implements store.EmailQueueStore interface
var _ store.EmailQueueStore = (*PostgresEmailQueueStore)(nil)

const emailColumns = `id, to_email, to_name, subject, html_body, text_body,
	template_name, template_data, status, attempts, max_attempts,
	scheduled_at, last_error, sent_at, created_at`

// Create implements store.EmailQueueStore.Create
func (s *PostgresEmailQueueStore) Create(ctx context.Context, email *domain.QueuedEmail) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := email.Validate(); err != nil {
		log.Warn("email validation failed during enqueue",
			slog.String("error", err.Error()),
			slog.String("email_id", email.ID.String()))
		return err
	}

	query := `
		INSERT INTO email_queue (` + emailColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
	`
	_, err := s.db.ExecContext(
		ctx,
		query,
		email.ID,
		email.ToEmail,
		email.ToName,
		email.Subject,
		email.HTMLBody,
		email.TextBody,
		email.TemplateName,
		[]byte(email.TemplateData),
		email.Status,
		email.Attempts,
		email.MaxAttempts,
		email.ScheduledAt,
		email.LastError,
		email.SentAt,
		email.CreatedAt,
	)

	if err != nil {
		log.Error("failed to enqueue email",
			slog.String("error", err.Error()),
			slog.String("email_id", email.ID.String()))
		return err
	}

	log.Debug("email enqueued",
		slog.String("email_id", email.ID.String()),
		slog.String("template", email.TemplateName))
	return nil
}

// GetByID implements store.EmailQueueStore.GetByID
// Returns store.ErrEmailNotFound if the record does not exist.
func (s *PostgresEmailQueueStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.QueuedEmail, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `SELECT ` + emailColumns + ` FROM email_queue WHERE id = $1`

	email, err := scanQueuedEmail(s.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			log.Debug("queued email not found", slog.String("email_id", id.String()))
			return nil, store.ErrEmailNotFound
		}
		log.Error("failed to get queued email",
			slog.String("error", err.Error()),
			slog.String("email_id", id.String()))
		return nil, err
	}

	return email, nil
}

// ClaimDue implements store.EmailQueueStore.ClaimDue
// The inner SELECT uses FOR UPDATE SKIP LOCKED so concurrent sweeps never
// claim the same record; claimed records transition pending -> sending in
// the same statement.
func (s *PostgresEmailQueueStore) ClaimDue(ctx context.Context, limit int) ([]*domain.QueuedEmail, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		UPDATE email_queue
		SET status = $1, claimed_at = NOW()
		WHERE id IN (
			SELECT id FROM email_queue
			WHERE status = $2
			  AND attempts < max_attempts
			  AND scheduled_at <= NOW()
			ORDER BY created_at ASC
			LIMIT $3
			FOR UPDATE SKIP LOCKED
		)
		RETURNING ` + emailColumns

	rows, err := s.db.QueryContext(ctx, query, domain.EmailStatusSending, domain.EmailStatusPending, limit)
	if err != nil {
		log.Error("failed to claim due emails", slog.String("error", err.Error()))
		return nil, err
	}
	defer closeRows(rows, log)

	var claimed []*domain.QueuedEmail
	for rows.Next() {
		email, err := scanQueuedEmail(rows)
		if err != nil {
			log.Error("failed to scan queued email row", slog.String("error", err.Error()))
			return nil, err
		}
		claimed = append(claimed, email)
	}
	if err := rows.Err(); err != nil {
		log.Error("error after scanning rows", slog.String("error", err.Error()))
		return nil, err
	}

	if len(claimed) > 0 {
		log.Debug("claimed due emails", slog.Int("count", len(claimed)))
	}
	return claimed, nil
}

// MarkSent implements store.EmailQueueStore.MarkSent
// Returns store.ErrUpdateFailed if the record is not in the sending state.
func (s *PostgresEmailQueueStore) MarkSent(ctx context.Context, id uuid.UUID, sentAt time.Time) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		UPDATE email_queue
		SET status = $1, sent_at = $2, last_error = '', claimed_at = NULL
		WHERE id = $3 AND status = $4
	`

	result, err := s.db.ExecContext(ctx, query, domain.EmailStatusSent, sentAt.UTC(), id, domain.EmailStatusSending)
	if err != nil {
		log.Error("failed to mark email sent",
			slog.String("error", err.Error()),
			slog.String("email_id", id.String()))
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rowsAffected == 0 {
		log.Warn("email not in sending state for mark sent",
			slog.String("email_id", id.String()))
		return store.ErrUpdateFailed
	}

	log.Info("email marked sent", slog.String("email_id", id.String()))
	return nil
}

// MarkAttemptFailed implements store.EmailQueueStore.MarkAttemptFailed
// Attempts increments and the status becomes failed exactly when the new
// count reaches max_attempts, else back to pending for the next sweep.
// Returns store.ErrUpdateFailed if the record is not in the sending state.
func (s *PostgresEmailQueueStore) MarkAttemptFailed(ctx context.Context, id uuid.UUID, errMsg string) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		UPDATE email_queue
		SET attempts = attempts + 1,
		    last_error = $1,
		    claimed_at = NULL,
		    status = CASE WHEN attempts + 1 >= max_attempts THEN $2 ELSE $3 END
		WHERE id = $4 AND status = $5
	`

	result, err := s.db.ExecContext(ctx, query,
		errMsg, domain.EmailStatusFailed, domain.EmailStatusPending,
		id, domain.EmailStatusSending)
	if err != nil {
		log.Error("failed to record email attempt failure",
			slog.String("error", err.Error()),
			slog.String("email_id", id.String()))
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rowsAffected == 0 {
		log.Warn("email not in sending state for attempt failure",
			slog.String("email_id", id.String()))
		return store.ErrUpdateFailed
	}

	log.Info("email delivery attempt failed",
		slog.String("email_id", id.String()),
		slog.String("last_error", errMsg))
	return nil
}

// ResetStuckClaims implements store.EmailQueueStore.ResetStuckClaims
// Claims are considered stuck when they have been in the sending state
// longer than olderThan, which indicates a crash mid-sweep.
func (s *PostgresEmailQueueStore) ResetStuckClaims(ctx context.Context, olderThan time.Duration) (int64, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		UPDATE email_queue
		SET status = $1, claimed_at = NULL
		WHERE status = $2 AND claimed_at < NOW() - make_interval(secs => $3)
	`

	result, err := s.db.ExecContext(ctx, query, domain.EmailStatusPending, domain.EmailStatusSending, olderThan.Seconds())
	if err != nil {
		log.Error("failed to reset stuck claims", slog.String("error", err.Error()))
		return 0, err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, err
	}
	if rowsAffected > 0 {
		log.Warn("reset stuck email claims", slog.Int64("count", rowsAffected))
	}
	return rowsAffected, nil
}

// WithTx implements store.EmailQueueStore.WithTx
func (s *PostgresEmailQueueStore) WithTx(tx *sql.Tx) store.EmailQueueStore {
	return &PostgresEmailQueueStore{
		db:     tx,
		logger: s.logger,
	}
}

func scanQueuedEmail(row rowScanner) (*domain.QueuedEmail, error) {
	var email domain.QueuedEmail
	var templateData []byte

	err := row.Scan(
		&email.ID,
		&email.ToEmail,
		&email.ToName,
		&email.Subject,
		&email.HTMLBody,
		&email.TextBody,
		&email.TemplateName,
		&templateData,
		&email.Status,
		&email.Attempts,
		&email.MaxAttempts,
		&email.ScheduledAt,
		&email.LastError,
		&email.SentAt,
		&email.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	email.TemplateData = templateData
	return &email, nil
}
