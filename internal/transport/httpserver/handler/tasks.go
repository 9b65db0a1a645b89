package handler

import (
	"net/http"

	ledgerdomain "allowance-app-go/internal/domain/ledger"
	"allowance-app-go/internal/transport/httpserver/middleware"
	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
)

type createTaskRequest struct {
	Title       string          `json:"title"`
	Description string          `json:"description"`
	Reward      decimal.Decimal `json:"reward"`
	Status      string          `json:"status"`
}

type updateTaskRequest struct {
	Title       *string          `json:"title"`
	Description *string          `json:"description"`
	Reward      *decimal.Decimal `json:"reward"`
	Status      *string          `json:"status"`
}

func (h *Handlers) ListTasks(w http.ResponseWriter, r *http.Request) {
	identity, ok := h.identity(w, r)
	if !ok {
		return
	}
	childID, err := parseIDParam(chi.URLParam(r, "child_id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "invalid child id")
		return
	}

	if _, err := h.authorizeChild(r.Context(), identity, childID); err != nil {
		h.writeServiceError(w, r, "tasks.list", err, "child_id", childID, "session_id", identity.ID)
		return
	}

	tasks, err := h.Ledger.ListTasksByChild(r.Context(), childID)
	if err != nil {
		h.writeServiceError(w, r, "tasks.list", err, "child_id", childID)
		return
	}

	response := make([]taskResponse, 0, len(tasks))
	for _, task := range tasks {
		response = append(response, toTaskResponse(task))
	}
	writeJSON(w, http.StatusOK, response)
}

func (h *Handlers) CreateTask(w http.ResponseWriter, r *http.Request) {
	identity, ok := h.identity(w, r)
	if !ok {
		return
	}
	childID, err := parseIDParam(chi.URLParam(r, "child_id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "invalid child id")
		return
	}

	var req createTaskRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", "invalid json body")
		return
	}

	if _, err := h.authorizeChild(r.Context(), identity, childID); err != nil {
		h.writeServiceError(w, r, "tasks.create", err, "child_id", childID, "parent_id", identity.ID)
		return
	}

	task, err := h.Ledger.AddTask(r.Context(), ledgerdomain.CreateTaskInput{
		ChildID:     childID,
		Title:       req.Title,
		Description: req.Description,
		Reward:      req.Reward,
		Status:      ledgerdomain.TaskStatus(req.Status),
	})
	if err != nil {
		h.writeServiceError(w, r, "tasks.create", err, "child_id", childID)
		return
	}

	writeJSON(w, http.StatusCreated, toTaskResponse(*task))
}

// UpdateTask lets a parent edit or move a task; a child may only mark its
// own task completed.
func (h *Handlers) UpdateTask(w http.ResponseWriter, r *http.Request) {
	identity, ok := h.identity(w, r)
	if !ok {
		return
	}
	taskID, err := parseIDParam(chi.URLParam(r, "task_id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "invalid task id")
		return
	}

	var req updateTaskRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", "invalid json body")
		return
	}

	input := ledgerdomain.UpdateTaskInput{
		Title:       req.Title,
		Description: req.Description,
		Reward:      req.Reward,
	}
	if req.Status != nil {
		status := ledgerdomain.TaskStatus(*req.Status)
		input.Status = &status
	}

	if !identity.IsParent() && !childMayUpdateTask(input) {
		h.writeServiceError(w, r, "tasks.update", errForbidden, "task_id", taskID, "session_id", identity.ID)
		return
	}
	h.transitionTask(w, r, identity, taskID, "tasks.update", func() (*ledgerdomain.Task, error) {
		return h.Ledger.UpdateTask(r.Context(), taskID, input)
	})
}

func (h *Handlers) CompleteTask(w http.ResponseWriter, r *http.Request) {
	identity, ok := h.identity(w, r)
	if !ok {
		return
	}
	taskID, err := parseIDParam(chi.URLParam(r, "task_id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "invalid task id")
		return
	}

	h.transitionTask(w, r, identity, taskID, "tasks.complete", func() (*ledgerdomain.Task, error) {
		return h.Ledger.CompleteTask(r.Context(), taskID)
	})
}

func (h *Handlers) ApproveTask(w http.ResponseWriter, r *http.Request) {
	identity, ok := h.identity(w, r)
	if !ok {
		return
	}
	taskID, err := parseIDParam(chi.URLParam(r, "task_id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "invalid task id")
		return
	}

	h.transitionTask(w, r, identity, taskID, "tasks.approve", func() (*ledgerdomain.Task, error) {
		return h.Ledger.ApproveTask(r.Context(), taskID)
	})
}

func (h *Handlers) transitionTask(w http.ResponseWriter, r *http.Request, identity middleware.Identity, taskID int64, op string, apply func() (*ledgerdomain.Task, error)) {
	task, err := h.Ledger.GetTask(r.Context(), taskID)
	if err != nil {
		h.writeServiceError(w, r, op, err, "task_id", taskID)
		return
	}
	if _, err := h.authorizeChild(r.Context(), identity, task.ChildID); err != nil {
		h.writeServiceError(w, r, op, err, "task_id", taskID, "session_id", identity.ID)
		return
	}

	updated, err := apply()
	if err != nil {
		h.writeServiceError(w, r, op, err, "task_id", taskID)
		return
	}

	writeJSON(w, http.StatusOK, toTaskResponse(*updated))
}

func childMayUpdateTask(input ledgerdomain.UpdateTaskInput) bool {
	if input.Title != nil || input.Description != nil || input.Reward != nil {
		return false
	}
	return input.Status != nil && *input.Status == ledgerdomain.TaskStatusCompleted
}
