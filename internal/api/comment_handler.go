package api

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/planhub/planhub-api/internal/api/middleware"
	"github.com/planhub/planhub-api/internal/api/shared"
	"github.com/planhub/planhub-api/internal/domain"
	"github.com/planhub/planhub-api/internal/service"
)

// CommentHandler handles comment-related HTTP requests.
type CommentHandler struct {
	commentService service.CommentService
}

// NewCommentHandler creates a new CommentHandler.
func NewCommentHandler(commentService service.CommentService) *CommentHandler {
	return &CommentHandler{
		commentService: commentService,
	}
}

// CreateComment handles POST /comments requests. The mention fan-out,
// notifications and email enqueue all happen inside the service call.
func (h *CommentHandler) CreateComment(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r)
	if !ok || userID == uuid.Nil {
		shared.RespondWithError(w, r, http.StatusUnauthorized, "User ID not found or invalid")
		return
	}

	var req CreateCommentRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}

	if err := shared.Validate.Struct(req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, SanitizeValidationError(err))
		return
	}

	comment, err := h.commentService.CreateComment(r.Context(), userID, service.CreateCommentInput{
		Body:      req.Body,
		TaskID:    req.TaskID,
		ProjectID: req.ProjectID,
		ParentID:  req.ParentID,
	})
	if err != nil {
		HandleServiceError(w, r, err)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusCreated, commentToDTOResponse(comment))
}

// ListComments handles GET /comments requests. Exactly one of the task_id
// and project_id query parameters selects the thread.
func (h *CommentHandler) ListComments(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r)
	if !ok || userID == uuid.Nil {
		shared.RespondWithError(w, r, http.StatusUnauthorized, "User ID not found or invalid")
		return
	}

	taskID, err := parseUUIDQuery(r, "task_id")
	if err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid task_id")
		return
	}
	projectID, err := parseUUIDQuery(r, "project_id")
	if err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid project_id")
		return
	}

	comments, err := h.commentService.ListComments(r.Context(), taskID, projectID)
	if err != nil {
		HandleServiceError(w, r, err)
		return
	}

	responses := make([]CommentResponse, 0, len(comments))
	for _, comment := range comments {
		responses = append(responses, commentToDTOResponse(comment))
	}

	shared.RespondWithJSON(w, r, http.StatusOK, responses)
}

// parseUUIDQuery reads an optional UUID query parameter. An absent
// parameter yields nil without error.
func parseUUIDQuery(r *http.Request, name string) (*uuid.UUID, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return nil, nil
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return nil, err
	}
	return &id, nil
}

// commentToDTOResponse converts a domain.CommentWithAuthor to a CommentResponse.
func commentToDTOResponse(comment *domain.CommentWithAuthor) CommentResponse {
	return CommentResponse{
		ID:               comment.ID,
		Body:             comment.Body,
		TaskID:           comment.TaskID,
		ProjectID:        comment.ProjectID,
		AuthorID:         comment.AuthorID,
		AuthorName:       comment.AuthorName,
		AuthorEmail:      comment.AuthorEmail,
		ParentID:         comment.ParentID,
		ParentBody:       comment.ParentBody,
		ParentAuthorName: comment.ParentAuthorName,
		MentionedUserIDs: comment.MentionedUserIDs,
		CreatedAt:        comment.CreatedAt,
	}
}
