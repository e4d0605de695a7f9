package handlers

import (
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"golang.org/x/text/language"

	"nursery-platform/internal/season"
	"nursery-platform/internal/services"
	"nursery-platform/pkg/logging"
	"nursery-platform/pkg/metrics"
)

// SeasonHandler handles season and region API endpoints
type SeasonHandler struct {
	responder
	seasons *services.SeasonService
}

// CalendarResponse is the yearly season calendar of a region
type CalendarResponse struct {
	Region string                 `json:"region"`
	Months []season.CalendarMonth `json:"months"`
}

// NewSeasonHandler creates a new season handler
func NewSeasonHandler(seasons *services.SeasonService, logger *logging.StructuredLogger, metricsCollector *metrics.Collector) *SeasonHandler {
	return &SeasonHandler{
		responder: responder{logger: logger, metrics: metricsCollector},
		seasons:   seasons,
	}
}

// lang resolves the display language from ?lang= or Accept-Language
func (h *SeasonHandler) lang(r *http.Request) language.Tag {
	return h.seasons.Language(r.URL.Query().Get("lang"), r.Header.Get("Accept-Language"))
}

// GetSeason handles GET /api/season
func (h *SeasonHandler) GetSeason(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	region := r.URL.Query().Get("region")

	date, err := parseDate(r, "date", h.seasons.Location(region))
	if err != nil {
		h.badRequest(w, r, err.Error())
		return
	}

	var info season.Info
	if date == nil {
		info = h.seasons.Current(ctx, region, h.lang(r))
	} else {
		info = h.seasons.At(ctx, *date, region, h.lang(r))
	}

	h.sendJSON(w, info, http.StatusOK)
}

// GetCalendar handles GET /api/season/calendar
func (h *SeasonHandler) GetCalendar(w http.ResponseWriter, r *http.Request) {
	region, months := h.seasons.Calendar(r.URL.Query().Get("region"), h.lang(r))
	h.sendJSON(w, CalendarResponse{Region: region, Months: months}, http.StatusOK)
}

// GetPreview handles GET /api/season/preview
func (h *SeasonHandler) GetPreview(w http.ResponseWriter, r *http.Request) {
	month, err := strconv.Atoi(r.URL.Query().Get("month"))
	if err != nil || month < 1 || month > 12 {
		h.badRequest(w, r, "invalid month, expected integer between 1 and 12")
		return
	}

	preview, err := h.seasons.Preview(month, r.URL.Query().Get("region"), h.lang(r))
	if err != nil {
		h.handleError(w, r, "API_SEASON_PREVIEW_ERROR", err)
		return
	}

	h.sendJSON(w, preview, http.StatusOK)
}

// GetWateringWindow handles GET /api/season/watering-window
func (h *SeasonHandler) GetWateringWindow(w http.ResponseWriter, r *http.Request) {
	region := r.URL.Query().Get("region")

	date, err := parseDate(r, "date", h.seasons.Location(region))
	if err != nil {
		h.badRequest(w, r, err.Error())
		return
	}
	day := h.seasons.Today(region)
	if date != nil {
		day = *date
	}

	window, err := h.seasons.WateringWindow(day, region)
	if err != nil {
		h.handleError(w, r, "API_WATERING_WINDOW_ERROR", err)
		return
	}

	h.sendJSON(w, window, http.StatusOK)
}

// ListRegions handles GET /api/regions
func (h *SeasonHandler) ListRegions(w http.ResponseWriter, r *http.Request) {
	h.sendJSON(w, map[string]interface{}{
		"regions": h.seasons.Regions(),
		"default": h.seasons.Engine().DefaultRegion(),
	}, http.StatusOK)
}

// GetRegion handles GET /api/regions/{id}
func (h *SeasonHandler) GetRegion(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	region, ok := h.seasons.Region(id)
	if !ok {
		h.metrics.RecordAPIError("not_found", routeTemplate(r))
		h.sendError(w, r, "region not found: "+id, http.StatusNotFound)
		return
	}

	h.sendJSON(w, region, http.StatusOK)
}

// RegisterRoutes registers all season API routes
func (h *SeasonHandler) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/api/season", h.GetSeason).Methods("GET")
	router.HandleFunc("/api/season/calendar", h.GetCalendar).Methods("GET")
	router.HandleFunc("/api/season/preview", h.GetPreview).Methods("GET")
	router.HandleFunc("/api/season/watering-window", h.GetWateringWindow).Methods("GET")
	router.HandleFunc("/api/regions", h.ListRegions).Methods("GET")
	router.HandleFunc("/api/regions/{id}", h.GetRegion).Methods("GET")
}
