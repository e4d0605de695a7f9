package handlers

import (
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"nursery-platform/internal/models"
	"nursery-platform/internal/repository"
	"nursery-platform/internal/services"
	"nursery-platform/pkg/logging"
	"nursery-platform/pkg/metrics"
)

// TaskHandler handles care task API endpoints
type TaskHandler struct {
	responder
	tasks *services.TaskService
}

type createTaskRequest struct {
	Date       string              `json:"date"`
	PlantingID *int64              `json:"planting_id"`
	Category   models.TaskCategory `json:"category"`
	Status     models.TaskStatus   `json:"status"`
	Details    models.TaskPayload  `json:"details"`
}

type updateTaskStatusRequest struct {
	Status models.TaskStatus `json:"status"`
}

// NewTaskHandler creates a new task handler
func NewTaskHandler(tasks *services.TaskService, logger *logging.StructuredLogger, metricsCollector *metrics.Collector) *TaskHandler {
	return &TaskHandler{
		responder: responder{logger: logger, metrics: metricsCollector},
		tasks:     tasks,
	}
}

// CreateTask handles POST /api/nurseries/{id}/tasks
func (h *TaskHandler) CreateTask(w http.ResponseWriter, r *http.Request) {
	nurseryID, err := pathID(r, "id")
	if err != nil {
		h.badRequest(w, r, err.Error())
		return
	}

	var req createTaskRequest
	if err := decodeJSON(r, &req); err != nil {
		h.badRequest(w, r, err.Error())
		return
	}

	date, err := time.Parse(dateLayout, req.Date)
	if err != nil {
		h.badRequest(w, r, "invalid date format, expected YYYY-MM-DD")
		return
	}

	task := &models.Task{
		NurseryID:  nurseryID,
		PlantingID: req.PlantingID,
		Date:       date,
		Category:   req.Category,
		Status:     req.Status,
		Details:    req.Details,
	}
	if err := h.tasks.Create(r.Context(), task); err != nil {
		h.handleError(w, r, "API_CREATE_TASK_ERROR", err)
		return
	}

	h.sendJSON(w, task, http.StatusCreated)
}

// ListTasks handles GET /api/nurseries/{id}/tasks
func (h *TaskHandler) ListTasks(w http.ResponseWriter, r *http.Request) {
	nurseryID, err := pathID(r, "id")
	if err != nil {
		h.badRequest(w, r, err.Error())
		return
	}

	query := r.URL.Query()
	page, limit, offset := parsePagination(r)
	filter := repository.TaskFilter{
		NurseryID: nurseryID,
		Limit:     limit,
		Offset:    offset,
	}

	if raw := query.Get("status"); raw != "" {
		status := models.TaskStatus(raw)
		if !status.Valid() {
			h.badRequest(w, r, "invalid status, expected pending, completed or skipped")
			return
		}
		filter.Status = &status
	}
	if raw := query.Get("category"); raw != "" {
		category := models.TaskCategory(raw)
		if !category.Valid() {
			h.badRequest(w, r, "invalid category")
			return
		}
		filter.Category = &category
	}
	if filter.PlantingID, err = parseOptionalID(r, "planting_id"); err != nil {
		h.badRequest(w, r, err.Error())
		return
	}
	if filter.StartDate, err = parseDate(r, "start_date", time.UTC); err != nil {
		h.badRequest(w, r, err.Error())
		return
	}
	if filter.EndDate, err = parseDate(r, "end_date", time.UTC); err != nil {
		h.badRequest(w, r, err.Error())
		return
	}

	tasks, total, err := h.tasks.List(r.Context(), filter)
	if err != nil {
		h.handleError(w, r, "API_LIST_TASKS_ERROR", err)
		return
	}

	h.sendJSON(w, newPaginatedResponse(tasks, total, page, limit), http.StatusOK)
}

// UpdateTaskStatus handles PUT /api/tasks/{id}/status
func (h *TaskHandler) UpdateTaskStatus(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		h.badRequest(w, r, err.Error())
		return
	}

	var req updateTaskStatusRequest
	if err := decodeJSON(r, &req); err != nil {
		h.badRequest(w, r, err.Error())
		return
	}

	task, err := h.tasks.UpdateStatus(r.Context(), id, req.Status)
	if err != nil {
		h.handleError(w, r, "API_UPDATE_TASK_STATUS_ERROR", err)
		return
	}

	h.sendJSON(w, task, http.StatusOK)
}

// RegisterRoutes registers all task API routes
func (h *TaskHandler) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/api/nurseries/{id:[0-9]+}/tasks", h.CreateTask).Methods("POST")
	router.HandleFunc("/api/nurseries/{id:[0-9]+}/tasks", h.ListTasks).Methods("GET")
	router.HandleFunc("/api/tasks/{id:[0-9]+}/status", h.UpdateTaskStatus).Methods("PUT")
}
