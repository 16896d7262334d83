package api

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/planhub/planhub-api/internal/api/middleware"
	"github.com/planhub/planhub-api/internal/api/shared"
	"github.com/planhub/planhub-api/internal/service"
)

// UserHandler handles the user directory endpoint that backs the mention
// picker in clients.
type UserHandler struct {
	userService service.UserService
}

// NewUserHandler creates a new UserHandler.
func NewUserHandler(userService service.UserService) *UserHandler {
	return &UserHandler{
		userService: userService,
	}
}

// ListUsers handles GET /users requests. Only active users are returned.
func (h *UserHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r)
	if !ok || userID == uuid.Nil {
		shared.RespondWithError(w, r, http.StatusUnauthorized, "User ID not found or invalid")
		return
	}

	users, err := h.userService.ListUsers(r.Context())
	if err != nil {
		HandleServiceError(w, r, err)
		return
	}

	responses := make([]UserResponse, 0, len(users))
	for _, user := range users {
		responses = append(responses, UserResponse{
			ID:    user.ID,
			Name:  user.Name,
			Email: user.Email,
			Role:  user.Role,
		})
	}

	shared.RespondWithJSON(w, r, http.StatusOK, responses)
}
