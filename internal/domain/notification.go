package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// NotificationCategory tags a notification for the notification-center UI.
type NotificationCategory string

// Notification categories. Only "info" is produced by this codebase today.
const (
	NotificationCategoryInfo NotificationCategory = "info"
)

// Common validation errors for Notification
var (
	ErrNotificationIDEmpty        = errors.New("notification ID cannot be empty")
	ErrNotificationRecipientEmpty = errors.New("notification recipient ID cannot be empty")
	ErrNotificationTitleEmpty     = errors.New("notification title cannot be empty")
	ErrNotificationSelf           = errors.New("notification recipient cannot be the originator")
)

// Notification represents one in-app alert delivered to one recipient.
// The recipient is never the originating user; self-notification is
// suppressed at construction time.
type Notification struct {
	ID           uuid.UUID            `json:"id"`
	RecipientID  uuid.UUID            `json:"recipient_id"`
	Title        string               `json:"title"`
	Message      string               `json:"message"`
	Category     NotificationCategory `json:"category"`
	LinkURL      string               `json:"link_url,omitempty"`
	TaskID       *uuid.UUID           `json:"task_id,omitempty"`
	ProjectID    *uuid.UUID           `json:"project_id,omitempty"`
	CommentID    *uuid.UUID           `json:"comment_id,omitempty"`
	OriginatorID uuid.UUID            `json:"originator_id"`
	Read         bool                 `json:"read"`
	CreatedAt    time.Time            `json:"created_at"`
}

// NewNotification creates an unread "info" notification.
// Returns ErrNotificationSelf if recipient and originator are the same user.
func NewNotification(
	recipientID uuid.UUID,
	title, message, linkURL string,
	taskID, projectID, commentID *uuid.UUID,
	originatorID uuid.UUID,
) (*Notification, error) {
	n := &Notification{
		ID:           uuid.New(),
		RecipientID:  recipientID,
		Title:        title,
		Message:      message,
		Category:     NotificationCategoryInfo,
		LinkURL:      linkURL,
		TaskID:       taskID,
		ProjectID:    projectID,
		CommentID:    commentID,
		OriginatorID: originatorID,
		Read:         false,
		CreatedAt:    time.Now().UTC(),
	}

	if err := n.Validate(); err != nil {
		return nil, err
	}

	return n, nil
}

// Validate checks if the Notification has valid data.
func (n *Notification) Validate() error {
	if n.ID == uuid.Nil {
		return ErrNotificationIDEmpty
	}

	if n.RecipientID == uuid.Nil {
		return ErrNotificationRecipientEmpty
	}

	if n.Title == "" {
		return ErrNotificationTitleEmpty
	}

	if n.RecipientID == n.OriginatorID {
		return ErrNotificationSelf
	}

	return nil
}
