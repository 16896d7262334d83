package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/planhub/planhub-api/internal/domain"
	"github.com/planhub/planhub-api/internal/platform/logger"
	"github.com/planhub/planhub-api/internal/store"
)

// PostgresCommentStore implements the store.CommentStore interface
// using a PostgreSQL database as the storage backend.
type PostgresCommentStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresCommentStore creates a new PostgreSQL implementation of the CommentStore interface.
// It accepts a database connection or transaction that should be initialized and managed by the caller.
// If logger is nil, a default logger will be used.
func NewPostgresCommentStore(db store.DBTX, logger *slog.Logger) *PostgresCommentStore {
	if db == nil {
		panic("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresCommentStore{
		db:     db,
		logger: logger.With(slog.String("component", "comment_store")),
	}
}

// Ensure PostgresCommentStore implements store.CommentStore interface
var _ store.CommentStore = (*PostgresCommentStore)(nil)

// Create implements store.CommentStore.Create
// Returns store.ErrInvalidEntity if a referenced row does not exist.
func (s *PostgresCommentStore) Create(ctx context.Context, comment *domain.Comment) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := comment.Validate(); err != nil {
		log.Warn("comment validation failed during create",
			slog.String("error", err.Error()),
			slog.String("comment_id", comment.ID.String()))
		return err
	}

	// Mentioned IDs are stored as a JSON document so the list round-trips
	// through database/sql without array codec support.
	mentioned, err := json.Marshal(comment.MentionedUserIDs)
	if err != nil {
		return fmt.Errorf("failed to marshal mentioned user IDs: %w", err)
	}

	query := `
		INSERT INTO comments (id, body, task_id, project_id, author_id, parent_id, mentioned_user_ids, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err = s.db.ExecContext(
		ctx,
		query,
		comment.ID,
		comment.Body,
		comment.TaskID,
		comment.ProjectID,
		comment.AuthorID,
		comment.ParentID,
		mentioned,
		comment.CreatedAt,
	)

	if err != nil {
		if isForeignKeyViolation(err) {
			log.Warn("foreign key violation during comment creation",
				slog.String("error", err.Error()),
				slog.String("comment_id", comment.ID.String()))
			return fmt.Errorf("%w: referenced row not found", store.ErrInvalidEntity)
		}
		log.Error("failed to create comment",
			slog.String("error", err.Error()),
			slog.String("comment_id", comment.ID.String()))
		return err
	}

	log.Info("comment created successfully",
		slog.String("comment_id", comment.ID.String()),
		slog.String("author_id", comment.AuthorID.String()))
	return nil
}

// GetByID implements store.CommentStore.GetByID
// Returns store.ErrCommentNotFound if the comment does not exist.
func (s *PostgresCommentStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Comment, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		SELECT id, body, task_id, project_id, author_id, parent_id, mentioned_user_ids, created_at
		FROM comments
		WHERE id = $1
	`

	comment, err := scanComment(s.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			log.Debug("comment not found", slog.String("comment_id", id.String()))
			return nil, store.ErrCommentNotFound
		}
		log.Error("failed to get comment by ID",
			slog.String("error", err.Error()),
			slog.String("comment_id", id.String()))
		return nil, err
	}

	return comment, nil
}

const commentWithAuthorQuery = `
	SELECT c.id, c.body, c.task_id, c.project_id, c.author_id, c.parent_id,
	       c.mentioned_user_ids, c.created_at,
	       u.name, u.email,
	       p.body, pu.name
	FROM comments c
	JOIN users u ON u.id = c.author_id
	LEFT JOIN comments p ON p.id = c.parent_id
	LEFT JOIN users pu ON pu.id = p.author_id
`

// GetWithAuthor implements store.CommentStore.GetWithAuthor
// Returns store.ErrCommentNotFound if the comment does not exist.
func (s *PostgresCommentStore) GetWithAuthor(ctx context.Context, id uuid.UUID) (*domain.CommentWithAuthor, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := commentWithAuthorQuery + ` WHERE c.id = $1`

	comment, err := scanCommentWithAuthor(s.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			log.Debug("comment not found", slog.String("comment_id", id.String()))
			return nil, store.ErrCommentNotFound
		}
		log.Error("failed to get comment with author",
			slog.String("error", err.Error()),
			slog.String("comment_id", id.String()))
		return nil, err
	}

	return comment, nil
}

// ListByTask implements store.CommentStore.ListByTask
func (s *PostgresCommentStore) ListByTask(ctx context.Context, taskID uuid.UUID) ([]*domain.CommentWithAuthor, error) {
	query := commentWithAuthorQuery + ` WHERE c.task_id = $1 ORDER BY c.created_at ASC`
	return s.list(ctx, query, taskID)
}

// ListByProject implements store.CommentStore.ListByProject
func (s *PostgresCommentStore) ListByProject(ctx context.Context, projectID uuid.UUID) ([]*domain.CommentWithAuthor, error) {
	query := commentWithAuthorQuery + ` WHERE c.project_id = $1 ORDER BY c.created_at ASC`
	return s.list(ctx, query, projectID)
}

func (s *PostgresCommentStore) list(ctx context.Context, query string, ownerID uuid.UUID) ([]*domain.CommentWithAuthor, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	rows, err := s.db.QueryContext(ctx, query, ownerID)
	if err != nil {
		log.Error("failed to query comments", slog.String("error", err.Error()))
		return nil, err
	}
	defer closeRows(rows, log)

	comments := []*domain.CommentWithAuthor{}
	for rows.Next() {
		comment, err := scanCommentWithAuthor(rows)
		if err != nil {
			log.Error("failed to scan comment row", slog.String("error", err.Error()))
			return nil, err
		}
		comments = append(comments, comment)
	}
	if err := rows.Err(); err != nil {
		log.Error("error after scanning rows", slog.String("error", err.Error()))
		return nil, err
	}

	return comments, nil
}

// WithTx implements store.CommentStore.WithTx
func (s *PostgresCommentStore) WithTx(tx *sql.Tx) store.CommentStore {
	return &PostgresCommentStore{
		db:     tx,
		logger: s.logger,
	}
}

func scanComment(row rowScanner) (*domain.Comment, error) {
	var comment domain.Comment
	var mentioned []byte

	err := row.Scan(
		&comment.ID,
		&comment.Body,
		&comment.TaskID,
		&comment.ProjectID,
		&comment.AuthorID,
		&comment.ParentID,
		&mentioned,
		&comment.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal(mentioned, &comment.MentionedUserIDs); err != nil {
		return nil, fmt.Errorf("failed to unmarshal mentioned user IDs: %w", err)
	}
	return &comment, nil
}

func scanCommentWithAuthor(row rowScanner) (*domain.CommentWithAuthor, error) {
	var comment domain.CommentWithAuthor
	var mentioned []byte

	err := row.Scan(
		&comment.ID,
		&comment.Body,
		&comment.TaskID,
		&comment.ProjectID,
		&comment.AuthorID,
		&comment.ParentID,
		&mentioned,
		&comment.CreatedAt,
		&comment.AuthorName,
		&comment.AuthorEmail,
		&comment.ParentBody,
		&comment.ParentAuthorName,
	)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal(mentioned, &comment.MentionedUserIDs); err != nil {
		return nil, fmt.Errorf("failed to unmarshal mentioned user IDs: %w", err)
	}
	return &comment, nil
}
