package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/planhub/planhub-api/internal/domain"
	"github.com/planhub/planhub-api/internal/platform/logger"
	"github.com/planhub/planhub-api/internal/store"
)

// PostgresProjectStore implements the store.ProjectStore interface
// using a PostgreSQL database as the storage backend.
type PostgresProjectStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresProjectStore creates a new PostgreSQL implementation of the ProjectStore interface.
// It accepts a database connection or transaction that should be initialized and managed by the caller.
// If logger is nil, a default logger will be used.
func NewPostgresProjectStore(db store.DBTX, logger *slog.Logger) *PostgresProjectStore {
	if db == nil {
		panic("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresProjectStore{
		db:     db,
		logger: logger.With(slog.String("component", "project_store")),
	}
}

// Ensure PostgresProjectStore implements store.ProjectStore interface
var _ store.ProjectStore = (*PostgresProjectStore)(nil)

// GetByID implements store.ProjectStore.GetByID
// Returns store.ErrProjectNotFound if the project does not exist.
func (s *PostgresProjectStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Project, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		SELECT id, name, code, description, owner_id, created_at, updated_at
		FROM projects
		WHERE id = $1
	`

	var project domain.Project
	err := s.db.QueryRowContext(ctx, query, id).Scan(
		&project.ID,
		&project.Name,
		&project.Code,
		&project.Description,
		&project.OwnerID,
		&project.CreatedAt,
		&project.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			log.Debug("project not found", slog.String("project_id", id.String()))
			return nil, store.ErrProjectNotFound
		}
		log.Error("failed to get project by ID",
			slog.String("error", err.Error()),
			slog.String("project_id", id.String()))
		return nil, err
	}

	return &project, nil
}

// AddMember implements store.ProjectStore.AddMember
// Returns store.ErrMemberExists if the user is already a member and
// store.ErrInvalidEntity if the project or user does not exist.
func (s *PostgresProjectStore) AddMember(ctx context.Context, member *domain.ProjectMember) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		INSERT INTO project_members (project_id, user_id, role, added_at)
		VALUES ($1, $2, $3, $4)
	`
	_, err := s.db.ExecContext(
		ctx,
		query,
		member.ProjectID,
		member.UserID,
		member.Role,
		member.AddedAt,
	)

	if err != nil {
		if isUniqueViolation(err) {
			log.Warn("duplicate project membership",
				slog.String("project_id", member.ProjectID.String()),
				slog.String("user_id", member.UserID.String()))
			return store.ErrMemberExists
		}
		if isForeignKeyViolation(err) {
			log.Warn("foreign key violation during member addition",
				slog.String("error", err.Error()),
				slog.String("project_id", member.ProjectID.String()))
			return fmt.Errorf("%w: project or user not found", store.ErrInvalidEntity)
		}
		log.Error("failed to add project member",
			slog.String("error", err.Error()),
			slog.String("project_id", member.ProjectID.String()),
			slog.String("user_id", member.UserID.String()))
		return err
	}

	log.Info("project member added",
		slog.String("project_id", member.ProjectID.String()),
		slog.String("user_id", member.UserID.String()),
		slog.String("role", member.Role))
	return nil
}

// WithTx implements store.ProjectStore.WithTx
func (s *PostgresProjectStore) WithTx(tx *sql.Tx) store.ProjectStore {
	return &PostgresProjectStore{
		db:     tx,
		logger: s.logger,
	}
}
