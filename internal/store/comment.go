package store

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/planhub/planhub-api/internal/domain"
)

// CommentStore defines the interface for comment data persistence.
type CommentStore interface {
	// Create saves a new comment to the store.
	// It handles domain validation internally.
	// Returns ErrInvalidEntity if a referenced row does not exist.
	Create(ctx context.Context, comment *domain.Comment) error

	// GetByID retrieves a comment by its unique ID.
	// Returns ErrCommentNotFound if the comment does not exist.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Comment, error)

	// GetWithAuthor retrieves a comment joined with author display fields
	// and, for replies, the parent comment's body and author name.
	// Returns ErrCommentNotFound if the comment does not exist.
	GetWithAuthor(ctx context.Context, id uuid.UUID) (*domain.CommentWithAuthor, error)

	// ListByTask retrieves all comments on a task, oldest first, with
	// author and parent fields joined in.
	ListByTask(ctx context.Context, taskID uuid.UUID) ([]*domain.CommentWithAuthor, error)

	// ListByProject retrieves all comments on a project, oldest first,
	// with author and parent fields joined in.
	ListByProject(ctx context.Context, projectID uuid.UUID) ([]*domain.CommentWithAuthor, error)

	// WithTx returns a new CommentStore instance that uses the provided transaction.
	WithTx(tx *sql.Tx) CommentStore
}
