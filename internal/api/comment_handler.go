package api

import (
	"net/http"

	"github.com/go-playground/validator/v10"

	"github.com/taskdeck/taskdeck-api/internal/api/shared"
	"github.com/taskdeck/taskdeck-api/internal/service"
)

// CommentHandler handles task comment API requests.
type CommentHandler struct {
	taskService service.TaskService
	validator   *validator.Validate
}

// NewCommentHandler creates a new CommentHandler with the given dependencies.
func NewCommentHandler(taskService service.TaskService) *CommentHandler {
	return &CommentHandler{
		taskService: taskService,
		validator:   validator.New(),
	}
}

// CreateComment handles POST /tasks/{id}/comments.
func (h *CommentHandler) CreateComment(w http.ResponseWriter, r *http.Request) {
	actor, taskID, ok := handleActorAndPathUUID(w, r, "id")
	if !ok {
		return
	}

	var req CreateCommentRequest
	if err := DecodeJSON(r, &req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, SanitizeValidationError(err))
		return
	}

	comment, err := h.taskService.AddComment(r.Context(), actor, taskID, req.Body)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusCreated, comment)
}

// ListComments handles GET /tasks/{id}/comments.
func (h *CommentHandler) ListComments(w http.ResponseWriter, r *http.Request) {
	actor, taskID, ok := handleActorAndPathUUID(w, r, "id")
	if !ok {
		return
	}

	comments, err := h.taskService.ListComments(r.Context(), actor, taskID)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, comments)
}

// DeleteComment handles DELETE /comments/{id}.
func (h *CommentHandler) DeleteComment(w http.ResponseWriter, r *http.Request) {
	actor, commentID, ok := handleActorAndPathUUID(w, r, "id")
	if !ok {
		return
	}

	if err := h.taskService.DeleteComment(r.Context(), actor, commentID); err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
