package api

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/phrazzld/taskhub-api/internal/api/middleware"
	"github.com/phrazzld/taskhub-api/internal/api/shared"
	"github.com/phrazzld/taskhub-api/internal/config"
	"github.com/phrazzld/taskhub-api/internal/domain"
	"github.com/phrazzld/taskhub-api/internal/redact"
	"github.com/phrazzld/taskhub-api/internal/service"
	"github.com/phrazzld/taskhub-api/internal/store"
)

// attachmentMaxBytes caps attachment uploads at 10 MB unless the upload
// config says otherwise.
const attachmentMaxBytes = 10 << 20

// TodoHandler handles todo CRUD and sharing requests.
type TodoHandler struct {
	todoService    *service.TodoService
	sharingService *service.SharingService
	uploadCfg      config.UploadConfig
	validator      *validator.Validate
}

// NewTodoHandler creates a new TodoHandler with the given dependencies.
func NewTodoHandler(
	todoService *service.TodoService,
	sharingService *service.SharingService,
	uploadCfg config.UploadConfig,
) *TodoHandler {
	return &TodoHandler{
		todoService:    todoService,
		sharingService: sharingService,
		uploadCfg:      uploadCfg,
		validator:      validator.New(),
	}
}

// List handles GET /api/todos. Archived todos are excluded unless
// includeArchived=true.
func (h *TodoHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	filter := store.TodoListFilter{
		IncludeArchived: r.URL.Query().Get("includeArchived") == "true",
	}
	h.respondWithList(w, r, userID, filter)
}

// ListArchived handles GET /api/todos/archived.
func (h *TodoHandler) ListArchived(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}
	h.respondWithList(w, r, userID, store.TodoListFilter{ArchivedOnly: true})
}

// ListStarred handles GET /api/todos/starred.
func (h *TodoHandler) ListStarred(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}
	h.respondWithList(w, r, userID, store.TodoListFilter{StarredOnly: true})
}

// ListShared handles GET /api/todos/shared: todos other users shared with the
// caller.
func (h *TodoHandler) ListShared(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	todos, err := h.todoService.ListShared(r.Context(), userID)
	if err != nil {
		shared.RespondWithErrorAndLog(w, r, MapErrorToStatusCode(err), GetSafeErrorMessage(err), err)
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, emptyIfNil(todos))
}

// Get handles GET /api/todos/{id}.
func (h *TodoHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}
	todoID, ok := parseIDParam(w, r, "id")
	if !ok {
		return
	}

	todo, err := h.todoService.Get(r.Context(), userID, todoID)
	if err != nil {
		shared.RespondWithErrorAndLog(w, r, MapErrorToStatusCode(err), GetSafeErrorMessage(err), err)
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, todo)
}

// Create handles POST /api/todos.
func (h *TodoHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	var req CreateTodoRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, SanitizeValidationError(err))
		return
	}

	todo, err := h.todoService.Create(r.Context(), userID, req.Title, service.TodoUpdate{
		Description: req.Description,
		Notes:       req.Notes,
		Priority:    priorityPtr(req.Priority),
		Category:    categoryPtr(req.Category),
		DueDate:     req.DueDate,
		Tags:        req.Tags,
	})
	if err != nil {
		shared.RespondWithErrorAndLog(w, r, MapErrorToStatusCode(err), GetSafeErrorMessage(err), err)
		return
	}
	shared.RespondWithJSON(w, r, http.StatusCreated, todo)
}

// Update handles PUT /api/todos/{id}.
func (h *TodoHandler) Update(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}
	todoID, ok := parseIDParam(w, r, "id")
	if !ok {
		return
	}

	var req UpdateTodoRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, SanitizeValidationError(err))
		return
	}

	todo, err := h.todoService.Update(r.Context(), userID, todoID, service.TodoUpdate{
		Title:       req.Title,
		Description: req.Description,
		Notes:       req.Notes,
		Completed:   req.Completed,
		Priority:    priorityPtr(req.Priority),
		Category:    categoryPtr(req.Category),
		DueDate:     req.DueDate,
		ClearDue:    req.ClearDueDate,
		Tags:        req.Tags,
	})
	if err != nil {
		shared.RespondWithErrorAndLog(w, r, MapErrorToStatusCode(err), GetSafeErrorMessage(err), err)
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, todo)
}

// ToggleStar handles PATCH /api/todos/{id}/star.
func (h *TodoHandler) ToggleStar(w http.ResponseWriter, r *http.Request) {
	h.toggle(w, r, h.todoService.ToggleStar)
}

// ToggleArchive handles PATCH /api/todos/{id}/archive.
func (h *TodoHandler) ToggleArchive(w http.ResponseWriter, r *http.Request) {
	h.toggle(w, r, h.todoService.ToggleArchive)
}

// Delete handles DELETE /api/todos/{id}. The default is a soft delete
// (archive); permanent=true removes the record entirely.
func (h *TodoHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}
	todoID, ok := parseIDParam(w, r, "id")
	if !ok {
		return
	}

	permanent := r.URL.Query().Get("permanent") == "true"
	if err := h.todoService.Delete(r.Context(), userID, todoID, permanent); err != nil {
		shared.RespondWithErrorAndLog(w, r, MapErrorToStatusCode(err), GetSafeErrorMessage(err), err)
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, map[string]bool{"deleted": true})
}

// Share handles POST /api/todos/{id}/share. The response is the updated todo
// whenever the sharing mutation itself succeeded; notification and email
// delivery problems never change it.
func (h *TodoHandler) Share(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}
	todoID, ok := parseIDParam(w, r, "id")
	if !ok {
		return
	}

	var req ShareTodoRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, SanitizeValidationError(err))
		return
	}

	todo, err := h.sharingService.ShareTodo(r.Context(), userID, todoID, req.UserEmail)
	if err != nil {
		shared.RespondWithErrorAndLog(w, r, MapErrorToStatusCode(err), GetSafeErrorMessage(err), err)
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, todo)
}

// UploadAttachment handles POST /api/todos/{id}/attachments.
func (h *TodoHandler) UploadAttachment(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}
	todoID, ok := parseIDParam(w, r, "id")
	if !ok {
		return
	}

	maxBytes := h.uploadCfg.MaxBytes
	if maxBytes <= 0 {
		maxBytes = attachmentMaxBytes
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
	if err := r.ParseMultipartForm(maxBytes); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Attachment too large")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Missing attachment file")
		return
	}
	defer func() {
		if err := file.Close(); err != nil {
			slog.Debug("failed to close uploaded file", "error", redact.Error(err))
		}
	}()

	dir := filepath.Join(h.uploadCfg.Dir, "attachments", todoID.String())
	if err := os.MkdirAll(dir, 0o755); err != nil {
		shared.RespondWithErrorAndLog(w, r, http.StatusInternalServerError, "Failed to store attachment", err)
		return
	}

	// Prefix with a fresh ID so identical filenames never collide.
	storedName := fmt.Sprintf("%s_%s", uuid.New(), filepath.Base(header.Filename))
	path := filepath.Join(dir, storedName)
	dst, err := os.Create(path)
	if err != nil {
		shared.RespondWithErrorAndLog(w, r, http.StatusInternalServerError, "Failed to store attachment", err)
		return
	}
	if _, err := io.Copy(dst, file); err != nil {
		_ = dst.Close()
		shared.RespondWithErrorAndLog(w, r, http.StatusInternalServerError, "Failed to store attachment", err)
		return
	}
	if err := dst.Close(); err != nil {
		shared.RespondWithErrorAndLog(w, r, http.StatusInternalServerError, "Failed to store attachment", err)
		return
	}

	url := fmt.Sprintf("/uploads/attachments/%s/%s", todoID, storedName)
	todo, _, err := h.todoService.AddAttachment(r.Context(), userID, todoID, header.Filename, url)
	if err != nil {
		// The metadata write failed, so the stored file is orphaned.
		if rmErr := os.Remove(path); rmErr != nil {
			slog.Debug("failed to remove orphaned attachment file", "error", redact.Error(rmErr))
		}
		shared.RespondWithErrorAndLog(w, r, MapErrorToStatusCode(err), GetSafeErrorMessage(err), err)
		return
	}
	shared.RespondWithJSON(w, r, http.StatusCreated, todo)
}

// DeleteAttachment handles DELETE /api/todos/{id}/attachments/{attachmentID}.
func (h *TodoHandler) DeleteAttachment(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}
	todoID, ok := parseIDParam(w, r, "id")
	if !ok {
		return
	}
	attachmentID, ok := parseIDParam(w, r, "attachmentID")
	if !ok {
		return
	}

	todo, err := h.todoService.RemoveAttachment(r.Context(), userID, todoID, attachmentID)
	if err != nil {
		shared.RespondWithErrorAndLog(w, r, MapErrorToStatusCode(err), GetSafeErrorMessage(err), err)
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, todo)
}

func (h *TodoHandler) toggle(
	w http.ResponseWriter,
	r *http.Request,
	fn func(ctx context.Context, ownerID, todoID uuid.UUID) (*domain.Todo, error),
) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}
	todoID, ok := parseIDParam(w, r, "id")
	if !ok {
		return
	}

	todo, err := fn(r.Context(), userID, todoID)
	if err != nil {
		shared.RespondWithErrorAndLog(w, r, MapErrorToStatusCode(err), GetSafeErrorMessage(err), err)
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, todo)
}

func (h *TodoHandler) respondWithList(w http.ResponseWriter, r *http.Request, userID uuid.UUID, filter store.TodoListFilter) {
	todos, err := h.todoService.List(r.Context(), userID, filter)
	if err != nil {
		shared.RespondWithErrorAndLog(w, r, MapErrorToStatusCode(err), GetSafeErrorMessage(err), err)
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, emptyIfNil(todos))
}

// requireUserID pulls the authenticated user ID from the context, responding
// with 401 if the middleware did not set one.
func requireUserID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	userID, ok := middleware.GetUserID(r)
	if !ok {
		shared.RespondWithError(w, r, http.StatusUnauthorized, "Authentication required")
		return uuid.Nil, false
	}
	return userID, true
}

// parseIDParam parses a UUID route parameter, responding with 400 on garbage.
func parseIDParam(w http.ResponseWriter, r *http.Request, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, name))
	if err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid ID format")
		return uuid.Nil, false
	}
	return id, true
}

// emptyIfNil keeps list responses as [] instead of null.
func emptyIfNil(todos []*domain.Todo) []*domain.Todo {
	if todos == nil {
		return []*domain.Todo{}
	}
	return todos
}

func priorityPtr(s *string) *domain.Priority {
	if s == nil {
		return nil
	}
	p := domain.Priority(*s)
	return &p
}

func categoryPtr(s *string) *domain.Category {
	if s == nil {
		return nil
	}
	c := domain.Category(*s)
	return &c
}
