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

// InputLogHandler handles input log API endpoints
type InputLogHandler struct {
	responder
	logs *services.InputLogService
}

type createInputLogRequest struct {
	Date       string  `json:"date"`
	TaskID     *int64  `json:"task_id"`
	PlantingID *int64  `json:"planting_id"`
	InputType  string  `json:"input_type"`
	Quantity   float64 `json:"quantity"`
	Units      string  `json:"units"`
	Notes      string  `json:"notes"`
}

// NewInputLogHandler creates a new input log handler
func NewInputLogHandler(logs *services.InputLogService, logger *logging.StructuredLogger, metricsCollector *metrics.Collector) *InputLogHandler {
	return &InputLogHandler{
		responder: responder{logger: logger, metrics: metricsCollector},
		logs:      logs,
	}
}

// CreateInputLog handles POST /api/nurseries/{id}/input-logs
func (h *InputLogHandler) CreateInputLog(w http.ResponseWriter, r *http.Request) {
	nurseryID, err := pathID(r, "id")
	if err != nil {
		h.badRequest(w, r, err.Error())
		return
	}

	var req createInputLogRequest
	if err := decodeJSON(r, &req); err != nil {
		h.badRequest(w, r, err.Error())
		return
	}

	date, err := time.Parse(dateLayout, req.Date)
	if err != nil {
		h.badRequest(w, r, "invalid date format, expected YYYY-MM-DD")
		return
	}

	log := &models.InputLog{
		NurseryID:  nurseryID,
		TaskID:     req.TaskID,
		PlantingID: req.PlantingID,
		Date:       date,
		InputType:  req.InputType,
		Quantity:   req.Quantity,
		Units:      req.Units,
		Notes:      req.Notes,
	}
	if err := h.logs.Create(r.Context(), log); err != nil {
		h.handleError(w, r, "API_CREATE_INPUT_LOG_ERROR", err)
		return
	}

	h.sendJSON(w, log, http.StatusCreated)
}

// ListInputLogs handles GET /api/nurseries/{id}/input-logs
func (h *InputLogHandler) ListInputLogs(w http.ResponseWriter, r *http.Request) {
	nurseryID, err := pathID(r, "id")
	if err != nil {
		h.badRequest(w, r, err.Error())
		return
	}

	page, limit, offset := parsePagination(r)
	filter := repository.InputLogFilter{
		NurseryID: nurseryID,
		Limit:     limit,
		Offset:    offset,
	}

	if inputType := r.URL.Query().Get("input_type"); inputType != "" {
		filter.InputType = &inputType
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

	logs, total, err := h.logs.List(r.Context(), filter)
	if err != nil {
		h.handleError(w, r, "API_LIST_INPUT_LOGS_ERROR", err)
		return
	}

	h.sendJSON(w, newPaginatedResponse(logs, total, page, limit), http.StatusOK)
}

// GetInputLogStats handles GET /api/nurseries/{id}/input-logs/stats
func (h *InputLogHandler) GetInputLogStats(w http.ResponseWriter, r *http.Request) {
	nurseryID, err := pathID(r, "id")
	if err != nil {
		h.badRequest(w, r, err.Error())
		return
	}

	start, err := parseDate(r, "start_date", time.UTC)
	if err != nil {
		h.badRequest(w, r, err.Error())
		return
	}
	end, err := parseDate(r, "end_date", time.UTC)
	if err != nil {
		h.badRequest(w, r, err.Error())
		return
	}

	stats, err := h.logs.Stats(r.Context(), nurseryID, start, end)
	if err != nil {
		h.handleError(w, r, "API_INPUT_LOG_STATS_ERROR", err)
		return
	}

	h.sendJSON(w, stats, http.StatusOK)
}

// DeleteInputLog handles DELETE /api/input-logs/{id}
func (h *InputLogHandler) DeleteInputLog(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		h.badRequest(w, r, err.Error())
		return
	}

	if err := h.logs.Delete(r.Context(), id); err != nil {
		h.handleError(w, r, "API_DELETE_INPUT_LOG_ERROR", err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// RegisterRoutes registers all input log API routes
func (h *InputLogHandler) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/api/nurseries/{id:[0-9]+}/input-logs", h.CreateInputLog).Methods("POST")
	router.HandleFunc("/api/nurseries/{id:[0-9]+}/input-logs", h.ListInputLogs).Methods("GET")
	router.HandleFunc("/api/nurseries/{id:[0-9]+}/input-logs/stats", h.GetInputLogStats).Methods("GET")
	router.HandleFunc("/api/input-logs/{id:[0-9]+}", h.DeleteInputLog).Methods("DELETE")
}
