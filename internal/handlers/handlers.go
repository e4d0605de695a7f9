package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"

	"nursery-platform/internal/models"
	"nursery-platform/internal/repository"
	"nursery-platform/pkg/logging"
	"nursery-platform/pkg/metrics"
)

const dateLayout = "2006-01-02"

// ErrorResponse represents an API error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Code    int    `json:"code"`
	Field   string `json:"field,omitempty"`
}

// PaginatedResponse represents a paginated API response
type PaginatedResponse struct {
	Data       interface{} `json:"data"`
	Total      int         `json:"total"`
	Page       int         `json:"page"`
	Limit      int         `json:"limit"`
	TotalPages int         `json:"total_pages"`
}

func newPaginatedResponse(data interface{}, total, page, limit int) PaginatedResponse {
	return PaginatedResponse{
		Data:       data,
		Total:      total,
		Page:       page,
		Limit:      limit,
		TotalPages: (total + limit - 1) / limit,
	}
}

// responder holds the response helpers shared by every handler
type responder struct {
	logger  *logging.StructuredLogger
	metrics *metrics.Collector
}

// sendJSON sends a JSON response
func (h responder) sendJSON(w http.ResponseWriter, data interface{}, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(data)
}

// sendError sends an error response
func (h responder) sendError(w http.ResponseWriter, r *http.Request, message string, statusCode int) {
	h.sendJSON(w, ErrorResponse{
		Error:   http.StatusText(statusCode),
		Message: message,
		Code:    statusCode,
	}, statusCode)
}

// badRequest reports a malformed request parameter
func (h responder) badRequest(w http.ResponseWriter, r *http.Request, message string) {
	h.metrics.RecordAPIError("bad_request", routeTemplate(r))
	h.sendError(w, r, message, http.StatusBadRequest)
}

// handleError maps a service error onto an HTTP status
func (h responder) handleError(w http.ResponseWriter, r *http.Request, tag string, err error) {
	ctx := r.Context()
	endpoint := routeTemplate(r)

	var validationErr *models.ValidationError
	var notFoundErr *repository.NotFoundError
	var duplicateErr *repository.DuplicateError

	switch {
	case errors.As(err, &validationErr):
		h.metrics.RecordAPIError("validation_error", endpoint)
		h.sendJSON(w, ErrorResponse{
			Error:   http.StatusText(http.StatusBadRequest),
			Message: validationErr.Message,
			Code:    http.StatusBadRequest,
			Field:   validationErr.Field,
		}, http.StatusBadRequest)
	case errors.As(err, &notFoundErr):
		h.metrics.RecordAPIError("not_found", endpoint)
		h.sendError(w, r, notFoundErr.Error(), http.StatusNotFound)
	case errors.As(err, &duplicateErr):
		h.metrics.RecordAPIError("conflict", endpoint)
		h.sendError(w, r, duplicateErr.Error(), http.StatusConflict)
	case errors.Is(err, context.Canceled):
		h.logger.Warn(ctx, "[API_CANCELLED] Request cancelled by client", logging.Fields{
			"endpoint": endpoint,
		})
		h.metrics.RecordAPIError("cancelled", endpoint)
		h.sendError(w, r, "request cancelled", http.StatusServiceUnavailable)
	default:
		h.logger.Error(ctx, fmt.Sprintf("[%s] Request failed", tag), logging.Fields{
			"endpoint": endpoint,
			"method":   r.Method,
		}, err)
		h.metrics.RecordAPIError("internal_error", endpoint)
		h.sendError(w, r, "internal server error", http.StatusInternalServerError)
	}
}

// decodeJSON decodes a request body, rejecting unknown fields
func decodeJSON(r *http.Request, v interface{}) error {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(v); err != nil {
		return fmt.Errorf("invalid request body: %w", err)
	}
	return nil
}

// pathID reads a numeric route variable
func pathID(r *http.Request, name string) (int64, error) {
	raw := mux.Vars(r)[name]
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid %s %q", name, raw)
	}
	return id, nil
}

// parsePagination reads page and limit, defaulting to page 1 of 100
func parsePagination(r *http.Request) (page, limit, offset int) {
	page = 1
	limit = 100

	if p, err := strconv.Atoi(r.URL.Query().Get("page")); err == nil && p > 0 {
		page = p
	}
	if l, err := strconv.Atoi(r.URL.Query().Get("limit")); err == nil && l > 0 && l <= 1000 {
		limit = l
	}

	return page, limit, (page - 1) * limit
}

// parseDate reads an optional YYYY-MM-DD query parameter in loc
func parseDate(r *http.Request, name string, loc *time.Location) (*time.Time, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return nil, nil
	}
	d, err := time.ParseInLocation(dateLayout, raw, loc)
	if err != nil {
		return nil, fmt.Errorf("invalid %s format, expected YYYY-MM-DD", name)
	}
	return &d, nil
}

// parseOptionalID reads an optional numeric query parameter
func parseOptionalID(r *http.Request, name string) (*int64, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return nil, nil
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return nil, fmt.Errorf("invalid %s %q", name, raw)
	}
	return &id, nil
}

// routeTemplate returns the matched mux route, or the raw path
func routeTemplate(r *http.Request) string {
	if route := mux.CurrentRoute(r); route != nil {
		if tpl, err := route.GetPathTemplate(); err == nil {
			return tpl
		}
	}
	return r.URL.Path
}
