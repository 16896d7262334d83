package service

import (
	"context"
	"errors"
	"log/slog"

	"github.com/google/uuid"
	"github.com/planhub/planhub-api/internal/domain"
	"github.com/planhub/planhub-api/internal/store"
)

// defaultNotificationLimit bounds a notification page when the caller
// does not specify one.
const defaultNotificationLimit = 50

// NotificationService exposes the in-app notification center.
type NotificationService interface {
	// ListNotifications returns the recipient's notifications, newest
	// first. A non-positive limit falls back to the default page size.
	ListNotifications(ctx context.Context, recipientID uuid.UUID, limit, offset int) ([]*domain.Notification, error)

	// MarkRead marks one notification read. The recipient scoping means a
	// user can never mark another user's notification.
	// Returns ErrNotFound if no such notification exists for the recipient.
	MarkRead(ctx context.Context, recipientID, notificationID uuid.UUID) error
}

type notificationServiceImpl struct {
	notifications store.NotificationStore
	logger        *slog.Logger
}

// NewNotificationService creates a NotificationService.
func NewNotificationService(notifications store.NotificationStore, logger *slog.Logger) (NotificationService, error) {
	if notifications == nil {
		return nil, &Error{Operation: "create_service", Message: "notification store cannot be nil"}
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &notificationServiceImpl{
		notifications: notifications,
		logger:        logger.With("component", "notification_service"),
	}, nil
}

// ListNotifications implements NotificationService.ListNotifications.
func (s *notificationServiceImpl) ListNotifications(ctx context.Context, recipientID uuid.UUID, limit, offset int) ([]*domain.Notification, error) {
	if limit <= 0 {
		limit = defaultNotificationLimit
	}
	if offset < 0 {
		offset = 0
	}

	notifications, err := s.notifications.ListByRecipient(ctx, recipientID, limit, offset)
	if err != nil {
		return nil, newError("list_notifications", "failed to list notifications", err)
	}
	return notifications, nil
}

// MarkRead implements NotificationService.MarkRead.
func (s *notificationServiceImpl) MarkRead(ctx context.Context, recipientID, notificationID uuid.UUID) error {
	err := s.notifications.MarkRead(ctx, notificationID, recipientID)
	if err != nil {
		if errors.Is(err, store.ErrNotificationNotFound) {
			return ErrNotFound
		}
		return newError("mark_notification_read", "failed to mark notification read", err)
	}

	s.logger.Debug("notification marked read",
		"notification_id", notificationID,
		"recipient_id", recipientID)
	return nil
}
