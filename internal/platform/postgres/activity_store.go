package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/planhub/planhub-api/internal/domain"
	"github.com/planhub/planhub-api/internal/platform/logger"
	"github.com/planhub/planhub-api/internal/store"
)

// PostgresActivityLogStore implements the store.ActivityLogStore interface
// using a PostgreSQL database as the storage backend.
type PostgresActivityLogStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresActivityLogStore creates a new PostgreSQL implementation of the ActivityLogStore interface.
// It accepts a database connection or transaction that should be initialized and managed by the caller.
// If logger is nil, a default logger will be used.
func NewPostgresActivityLogStore(db store.DBTX, logger *slog.Logger) *PostgresActivityLogStore {
	if db == nil {
		panic("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresActivityLogStore{
		db:     db,
		logger: logger.With(slog.String("component", "activity_store")),
	}
}

// Ensure PostgresActivityLogStore implements store.ActivityLogStore interface
var _ store.ActivityLogStore = (*PostgresActivityLogStore)(nil)

// Create implements store.ActivityLogStore.Create
// Returns store.ErrInvalidEntity if a referenced row does not exist.
func (s *PostgresActivityLogStore) Create(ctx context.Context, entry *domain.ActivityLog) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		INSERT INTO activity_logs (id, actor_id, task_id, project_id, action, details, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err := s.db.ExecContext(
		ctx,
		query,
		entry.ID,
		entry.ActorID,
		entry.TaskID,
		entry.ProjectID,
		entry.Action,
		[]byte(entry.Details),
		entry.CreatedAt,
	)

	if err != nil {
		if isForeignKeyViolation(err) {
			log.Warn("foreign key violation during activity creation",
				slog.String("error", err.Error()),
				slog.String("activity_id", entry.ID.String()))
			return fmt.Errorf("%w: referenced row not found", store.ErrInvalidEntity)
		}
		log.Error("failed to create activity entry",
			slog.String("error", err.Error()),
			slog.String("activity_id", entry.ID.String()))
		return err
	}

	log.Debug("activity recorded",
		slog.String("activity_id", entry.ID.String()),
		slog.String("action", string(entry.Action)))
	return nil
}

// WithTx implements store.ActivityLogStore.WithTx
func (s *PostgresActivityLogStore) WithTx(tx *sql.Tx) store.ActivityLogStore {
	return &PostgresActivityLogStore{
		db:     tx,
		logger: s.logger,
	}
}
