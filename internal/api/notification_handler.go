package api

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/planhub/planhub-api/internal/api/middleware"
	"github.com/planhub/planhub-api/internal/api/shared"
	"github.com/planhub/planhub-api/internal/domain"
	"github.com/planhub/planhub-api/internal/service"
)

// NotificationHandler handles notification-related HTTP requests. Every
// operation is scoped to the authenticated user's own notifications.
type NotificationHandler struct {
	notificationService service.NotificationService
}

// NewNotificationHandler creates a new NotificationHandler.
func NewNotificationHandler(notificationService service.NotificationService) *NotificationHandler {
	return &NotificationHandler{
		notificationService: notificationService,
	}
}

// ListNotifications handles GET /notifications requests. Supports limit
// and offset query parameters; invalid values fall back to the defaults.
func (h *NotificationHandler) ListNotifications(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r)
	if !ok || userID == uuid.Nil {
		shared.RespondWithError(w, r, http.StatusUnauthorized, "User ID not found or invalid")
		return
	}

	limit := parseIntQuery(r, "limit", 0)
	offset := parseIntQuery(r, "offset", 0)

	notifications, err := h.notificationService.ListNotifications(r.Context(), userID, limit, offset)
	if err != nil {
		HandleServiceError(w, r, err)
		return
	}

	responses := make([]NotificationResponse, 0, len(notifications))
	for _, n := range notifications {
		responses = append(responses, notificationToDTOResponse(n))
	}

	shared.RespondWithJSON(w, r, http.StatusOK, responses)
}

// MarkRead handles POST /notifications/{id}/read requests.
func (h *NotificationHandler) MarkRead(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r)
	if !ok || userID == uuid.Nil {
		shared.RespondWithError(w, r, http.StatusUnauthorized, "User ID not found or invalid")
		return
	}

	notificationID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid notification ID format")
		return
	}

	if err := h.notificationService.MarkRead(r.Context(), userID, notificationID); err != nil {
		HandleServiceError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// parseIntQuery reads an optional non-negative integer query parameter,
// falling back to def when absent or malformed.
func parseIntQuery(r *http.Request, name string, def int) int {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def
	}
	value, err := strconv.Atoi(raw)
	if err != nil || value < 0 {
		return def
	}
	return value
}

// notificationToDTOResponse converts a domain.Notification to a NotificationResponse.
func notificationToDTOResponse(n *domain.Notification) NotificationResponse {
	return NotificationResponse{
		ID:           n.ID,
		Title:        n.Title,
		Message:      n.Message,
		Category:     string(n.Category),
		LinkURL:      n.LinkURL,
		TaskID:       n.TaskID,
		ProjectID:    n.ProjectID,
		CommentID:    n.CommentID,
		OriginatorID: n.OriginatorID,
		Read:         n.Read,
		CreatedAt:    n.CreatedAt,
	}
}
