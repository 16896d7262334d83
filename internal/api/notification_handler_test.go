package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/planhub/planhub-api/internal/api/shared"
	"github.com/planhub/planhub-api/internal/domain"
	"github.com/planhub/planhub-api/internal/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// MockNotificationService is a mock implementation of service.NotificationService for testing
type MockNotificationService struct {
	ListNotificationsFn func(ctx context.Context, recipientID uuid.UUID, limit, offset int) ([]*domain.Notification, error)
	MarkReadFn          func(ctx context.Context, recipientID, notificationID uuid.UUID) error
}

// ListNotifications implements service.NotificationService
func (m *MockNotificationService) ListNotifications(
	ctx context.Context,
	recipientID uuid.UUID,
	limit, offset int,
) ([]*domain.Notification, error) {
	if m.ListNotificationsFn != nil {
		return m.ListNotificationsFn(ctx, recipientID, limit, offset)
	}
	return nil, nil
}

// MarkRead implements service.NotificationService
func (m *MockNotificationService) MarkRead(ctx context.Context, recipientID, notificationID uuid.UUID) error {
	if m.MarkReadFn != nil {
		return m.MarkReadFn(ctx, recipientID, notificationID)
	}
	return nil
}

func TestNotificationHandler_ListNotifications(t *testing.T) {
	fixedUserID := uuid.MustParse("11111111-1111-1111-1111-111111111111")

	mockService := &MockNotificationService{
		ListNotificationsFn: func(ctx context.Context, recipientID uuid.UUID, limit, offset int) ([]*domain.Notification, error) {
			assert.Equal(t, fixedUserID, recipientID)
			assert.Equal(t, 10, limit)
			assert.Equal(t, 20, offset)
			return []*domain.Notification{
				{
					ID:           uuid.New(),
					RecipientID:  recipientID,
					Title:        "You were mentioned in a comment",
					Message:      "Alice mentioned you in a comment on task \"Ship it\"",
					Category:     domain.NotificationCategoryInfo,
					OriginatorID: uuid.New(),
				},
			}, nil
		},
	}
	handler := NewNotificationHandler(mockService)

	req := httptest.NewRequest(http.MethodGet, "/api/notifications?limit=10&offset=20", nil)
	req = req.WithContext(context.WithValue(req.Context(), shared.UserIDContextKey, fixedUserID))
	rec := httptest.NewRecorder()

	handler.ListNotifications(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp []NotificationResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp, 1)
	assert.Equal(t, "You were mentioned in a comment", resp[0].Title)
	assert.False(t, resp[0].Read)
}

func TestNotificationHandler_ListNotifications_Unauthorized(t *testing.T) {
	handler := NewNotificationHandler(&MockNotificationService{})

	req := httptest.NewRequest(http.MethodGet, "/api/notifications", nil)
	rec := httptest.NewRecorder()

	handler.ListNotifications(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestNotificationHandler_MarkRead(t *testing.T) {
	fixedUserID := uuid.MustParse("11111111-1111-1111-1111-111111111111")
	fixedNotificationID := uuid.MustParse("44444444-4444-4444-4444-444444444444")

	tests := []struct {
		name           string
		notificationID string
		markReadErr    error
		expectedStatus int
	}{
		{
			name:           "successful_mark_read",
			notificationID: fixedNotificationID.String(),
			expectedStatus: http.StatusNoContent,
		},
		{
			name:           "not_found_for_recipient",
			notificationID: fixedNotificationID.String(),
			markReadErr:    service.ErrNotFound,
			expectedStatus: http.StatusNotFound,
		},
		{
			name:           "invalid_notification_id",
			notificationID: "not-a-uuid",
			expectedStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockService := &MockNotificationService{
				MarkReadFn: func(ctx context.Context, recipientID, notificationID uuid.UUID) error {
					assert.Equal(t, fixedUserID, recipientID)
					assert.Equal(t, fixedNotificationID, notificationID)
					return tt.markReadErr
				},
			}
			handler := NewNotificationHandler(mockService)

			// Route through chi so the {id} URL parameter resolves.
			router := chi.NewRouter()
			router.Post("/notifications/{id}/read", handler.MarkRead)

			req := httptest.NewRequest(http.MethodPost, "/notifications/"+tt.notificationID+"/read", nil)
			req = req.WithContext(context.WithValue(req.Context(), shared.UserIDContextKey, fixedUserID))
			rec := httptest.NewRecorder()

			router.ServeHTTP(rec, req)

			assert.Equal(t, tt.expectedStatus, rec.Code)
		})
	}
}
