package handler

import (
	"encoding/json"
	"net/http"

	"github.com/arvidk/taskdeck/internal/api/middleware"
	"github.com/arvidk/taskdeck/internal/api/response"
	"github.com/arvidk/taskdeck/internal/domain"
	"github.com/arvidk/taskdeck/internal/service"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

// TaskHandler handles task mutation endpoints
type TaskHandler struct {
	taskService *service.TaskService
}

// NewTaskHandler creates a new task handler
func NewTaskHandler(taskService *service.TaskService) *TaskHandler {
	return &TaskHandler{taskService: taskService}
}

func taskID(r *http.Request) (uuid.UUID, error) {
	return uuid.Parse(chi.URLParam(r, "taskID"))
}

// Create creates a task or subtask in the workspace
func (h *TaskHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		response.Unauthorized(w, "unauthorized")
		return
	}

	workspaceID, ok := middleware.GetWorkspaceID(r.Context())
	if !ok {
		response.BadRequest(w, "missing workspace ID")
		return
	}

	var input domain.TaskCreate
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		response.BadRequest(w, "invalid request body")
		return
	}

	if err := validate.Struct(input); err != nil {
		response.BadRequest(w, validationMessages(err))
		return
	}

	task, err := h.taskService.Create(r.Context(), userID, workspaceID, input)
	if err != nil {
		response.FromError(w, err)
		return
	}

	response.Created(w, task)
}

// Get returns a single task
func (h *TaskHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		response.Unauthorized(w, "unauthorized")
		return
	}

	id, err := taskID(r)
	if err != nil {
		response.BadRequest(w, "invalid task ID")
		return
	}

	task, err := h.taskService.Get(r.Context(), userID, id)
	if err != nil {
		response.FromError(w, err)
		return
	}

	response.OK(w, task)
}

// UpdateStatus sets a task's status
func (h *TaskHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		response.Unauthorized(w, "unauthorized")
		return
	}

	id, err := taskID(r)
	if err != nil {
		response.BadRequest(w, "invalid task ID")
		return
	}

	var input struct {
		Status string `json:"status" validate:"required"`
	}
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		response.BadRequest(w, "invalid request body")
		return
	}

	if err := validate.Struct(input); err != nil {
		response.BadRequest(w, validationMessages(err))
		return
	}

	if err := h.taskService.UpdateStatus(r.Context(), userID, id, domain.TaskStatus(input.Status)); err != nil {
		response.FromError(w, err)
		return
	}

	response.NoContent(w)
}

// UpdatePriority sets a task's priority; null clears it
func (h *TaskHandler) UpdatePriority(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		response.Unauthorized(w, "unauthorized")
		return
	}

	id, err := taskID(r)
	if err != nil {
		response.BadRequest(w, "invalid task ID")
		return
	}

	var input struct {
		Priority *string `json:"priority"`
	}
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		response.BadRequest(w, "invalid request body")
		return
	}

	var priority *domain.TaskPriority
	if input.Priority != nil {
		p := domain.TaskPriority(*input.Priority)
		priority = &p
	}

	if err := h.taskService.UpdatePriority(r.Context(), userID, id, priority); err != nil {
		response.FromError(w, err)
		return
	}

	response.NoContent(w)
}

// UpdateAssignee sets a task's assignee; null unassigns
func (h *TaskHandler) UpdateAssignee(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		response.Unauthorized(w, "unauthorized")
		return
	}

	id, err := taskID(r)
	if err != nil {
		response.BadRequest(w, "invalid task ID")
		return
	}

	var input struct {
		AssigneeID *uuid.UUID `json:"assignee_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		response.BadRequest(w, "invalid request body")
		return
	}

	if err := h.taskService.UpdateAssignee(r.Context(), userID, id, input.AssigneeID); err != nil {
		response.FromError(w, err)
		return
	}

	response.NoContent(w)
}

// UpdateDescription sets a task's description
func (h *TaskHandler) UpdateDescription(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		response.Unauthorized(w, "unauthorized")
		return
	}

	id, err := taskID(r)
	if err != nil {
		response.BadRequest(w, "invalid task ID")
		return
	}

	var input struct {
		Description string `json:"description"`
	}
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		response.BadRequest(w, "invalid request body")
		return
	}

	if err := h.taskService.UpdateDescription(r.Context(), userID, id, input.Description); err != nil {
		response.FromError(w, err)
		return
	}

	response.NoContent(w)
}

// Delete removes a task and, for top-level tasks, its subtasks
func (h *TaskHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		response.Unauthorized(w, "unauthorized")
		return
	}

	id, err := taskID(r)
	if err != nil {
		response.BadRequest(w, "invalid task ID")
		return
	}

	if err := h.taskService.Delete(r.Context(), userID, id); err != nil {
		response.FromError(w, err)
		return
	}

	response.NoContent(w)
}

// Reorder persists a new sibling ordering from the complete id sequence
func (h *TaskHandler) Reorder(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		response.Unauthorized(w, "unauthorized")
		return
	}

	var input struct {
		IDs []uuid.UUID `json:"ids" validate:"required,min=1"`
	}
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		response.BadRequest(w, "invalid request body")
		return
	}

	if err := validate.Struct(input); err != nil {
		response.BadRequest(w, validationMessages(err))
		return
	}

	if err := h.taskService.Reorder(r.Context(), userID, input.IDs); err != nil {
		response.FromError(w, err)
		return
	}

	response.NoContent(w)
}
