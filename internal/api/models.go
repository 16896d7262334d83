package api

import (
	"time"

	"github.com/google/uuid"
)

// Common request/response structures

// LoginRequest defines the payload for the user login endpoint.
type LoginRequest struct {
	Email    string `json:"email"    validate:"required,email"`
	Password string `json:"password" validate:"required,min=1"`
}

// AuthResponse defines the successful response for the login endpoint.
type AuthResponse struct {
	// UserID is the unique identifier for the authenticated user
	UserID uuid.UUID `json:"user_id"`

	// Name is the user's display name, the form mentions address
	Name string `json:"name"`

	// Email is the account email
	Email string `json:"email"`

	// AccessToken is the JWT token used for API authorization
	AccessToken string `json:"token"`
}

// CreateCommentRequest defines the payload for posting a comment.
// Exactly one of TaskID and ProjectID must be set; the service enforces
// the exclusive-or so the two-owner case gets a consistent error.
type CreateCommentRequest struct {
	Body      string     `json:"body"                 validate:"required,min=1"`
	TaskID    *uuid.UUID `json:"task_id,omitempty"`
	ProjectID *uuid.UUID `json:"project_id,omitempty"`
	ParentID  *uuid.UUID `json:"parent_id,omitempty"`
}

// CommentResponse represents one comment with its author display fields.
type CommentResponse struct {
	ID               uuid.UUID   `json:"id"`
	Body             string      `json:"body"`
	TaskID           *uuid.UUID  `json:"task_id,omitempty"`
	ProjectID        *uuid.UUID  `json:"project_id,omitempty"`
	AuthorID         uuid.UUID   `json:"author_id"`
	AuthorName       string      `json:"author_name"`
	AuthorEmail      string      `json:"author_email"`
	ParentID         *uuid.UUID  `json:"parent_id,omitempty"`
	ParentBody       *string     `json:"parent_body,omitempty"`
	ParentAuthorName *string     `json:"parent_author_name,omitempty"`
	MentionedUserIDs []uuid.UUID `json:"mentioned_user_ids"`
	CreatedAt        time.Time   `json:"created_at"`
}

// CreateTaskRequest defines the payload for creating a task.
type CreateTaskRequest struct {
	ProjectID   uuid.UUID  `json:"project_id"            validate:"required"`
	Title       string     `json:"title"                 validate:"required,min=1"`
	Description string     `json:"description,omitempty"`
	Priority    string     `json:"priority,omitempty"    validate:"omitempty,oneof=low medium high urgent"`
	AssignedTo  *uuid.UUID `json:"assigned_to,omitempty"`
	DueDate     *time.Time `json:"due_date,omitempty"`
}

// UpdateTaskStatusRequest defines the payload for moving a task through
// the workflow.
type UpdateTaskStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=todo in_progress review done"`
}

// TaskResponse represents the response data for a task.
type TaskResponse struct {
	ID          uuid.UUID  `json:"id"`
	ProjectID   uuid.UUID  `json:"project_id"`
	Title       string     `json:"title"`
	Description string     `json:"description,omitempty"`
	Status      string     `json:"status"`
	Priority    string     `json:"priority,omitempty"`
	AssignedTo  *uuid.UUID `json:"assigned_to,omitempty"`
	CreatedBy   uuid.UUID  `json:"created_by"`
	DueDate     *time.Time `json:"due_date,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// AddMemberRequest defines the payload for adding a user to a project.
type AddMemberRequest struct {
	UserID uuid.UUID `json:"user_id"        validate:"required"`
	Role   string    `json:"role,omitempty" validate:"omitempty,min=1,max=50"`
}

// MemberResponse represents one project roster entry.
type MemberResponse struct {
	ProjectID uuid.UUID `json:"project_id"`
	UserID    uuid.UUID `json:"user_id"`
	Role      string    `json:"role"`
	AddedAt   time.Time `json:"added_at"`
}

// NotificationResponse represents one in-app notification.
type NotificationResponse struct {
	ID           uuid.UUID  `json:"id"`
	Title        string     `json:"title"`
	Message      string     `json:"message"`
	Category     string     `json:"category"`
	LinkURL      string     `json:"link_url,omitempty"`
	TaskID       *uuid.UUID `json:"task_id,omitempty"`
	ProjectID    *uuid.UUID `json:"project_id,omitempty"`
	CommentID    *uuid.UUID `json:"comment_id,omitempty"`
	OriginatorID uuid.UUID  `json:"originator_id"`
	Read         bool       `json:"read"`
	CreatedAt    time.Time  `json:"created_at"`
}

// UserResponse represents one user in the mention directory.
type UserResponse struct {
	ID    uuid.UUID `json:"id"`
	Name  string    `json:"name"`
	Email string    `json:"email"`
	Role  string    `json:"role"`
}
