package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// Common validation errors for Comment
var (
	ErrCommentIDEmpty       = errors.New("comment ID cannot be empty")
	ErrCommentBodyEmpty     = errors.New("comment body cannot be empty")
	ErrCommentAuthorEmpty   = errors.New("comment author ID cannot be empty")
	ErrCommentOwnerRequired = errors.New("comment must reference exactly one of task or project")
)

// Comment represents one message attached to exactly one of a task or a
// project, optionally replying to another comment on the same entity.
// MentionedUserIDs is the deduplicated set of users resolved from @name
// tokens in the body, ordered by first appearance in the text.
type Comment struct {
	ID               uuid.UUID   `json:"id"`
	Body             string      `json:"body"`
	TaskID           *uuid.UUID  `json:"task_id,omitempty"`
	ProjectID        *uuid.UUID  `json:"project_id,omitempty"`
	AuthorID         uuid.UUID   `json:"author_id"`
	ParentID         *uuid.UUID  `json:"parent_id,omitempty"`
	MentionedUserIDs []uuid.UUID `json:"mentioned_user_ids"`
	CreatedAt        time.Time   `json:"created_at"`
}

// NewComment creates a Comment owned by either a task or a project.
// It generates the ID and creation timestamp and validates the result.
func NewComment(
	body string,
	taskID, projectID *uuid.UUID,
	authorID uuid.UUID,
	parentID *uuid.UUID,
	mentionedUserIDs []uuid.UUID,
) (*Comment, error) {
	comment := &Comment{
		ID:               uuid.New(),
		Body:             body,
		TaskID:           taskID,
		ProjectID:        projectID,
		AuthorID:         authorID,
		ParentID:         parentID,
		MentionedUserIDs: mentionedUserIDs,
		CreatedAt:        time.Now().UTC(),
	}

	if err := comment.Validate(); err != nil {
		return nil, err
	}

	return comment, nil
}

// Validate checks if the Comment has valid data.
// Returns an error if any field fails validation.
func (c *Comment) Validate() error {
	if c.ID == uuid.Nil {
		return ErrCommentIDEmpty
	}

	if c.Body == "" {
		return ErrCommentBodyEmpty
	}

	if c.AuthorID == uuid.Nil {
		return ErrCommentAuthorEmpty
	}

	// Exactly one of task ID or project ID must be set.
	if (c.TaskID == nil) == (c.ProjectID == nil) {
		return ErrCommentOwnerRequired
	}

	return nil
}

// IsReply reports whether the comment replies to another comment.
func (c *Comment) IsReply() bool {
	return c.ParentID != nil
}

// CommentWithAuthor is a comment joined with its author's display fields
// and, for replies, the parent comment's author and content.
type CommentWithAuthor struct {
	Comment
	AuthorName       string  `json:"author_name"`
	AuthorEmail      string  `json:"author_email"`
	ParentBody       *string `json:"parent_body,omitempty"`
	ParentAuthorName *string `json:"parent_author_name,omitempty"`
}
