package handlers

import (
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"nursery-platform/internal/repository"
	"nursery-platform/internal/services"
	"nursery-platform/pkg/logging"
	"nursery-platform/pkg/metrics"
)

// SpeciesHandler handles species library API endpoints
type SpeciesHandler struct {
	responder
	species *services.SpeciesService
	seasons *services.SeasonService
}

// NewSpeciesHandler creates a new species handler
func NewSpeciesHandler(species *services.SpeciesService, seasons *services.SeasonService, logger *logging.StructuredLogger, metricsCollector *metrics.Collector) *SpeciesHandler {
	return &SpeciesHandler{
		responder: responder{logger: logger, metrics: metricsCollector},
		species:   species,
		seasons:   seasons,
	}
}

// ListSpecies handles GET /api/species
func (h *SpeciesHandler) ListSpecies(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	query := r.URL.Query()
	page, limit, offset := parsePagination(r)

	filter := repository.SpeciesFilter{
		Search: query.Get("search"),
		Limit:  limit,
		Offset: offset,
	}
	if category := query.Get("category"); category != "" {
		filter.Category = &category
	}

	for name, target := range map[string]**bool{
		"nitrogen_fixer": &filter.NitrogenFixer,
		"native":         &filter.Native,
	} {
		raw := query.Get(name)
		if raw == "" {
			continue
		}
		value, err := strconv.ParseBool(raw)
		if err != nil {
			h.badRequest(w, r, "invalid "+name+", expected true or false")
			return
		}
		*target = &value
	}

	species, total, err := h.species.List(ctx, filter)
	if err != nil {
		h.handleError(w, r, "API_LIST_SPECIES_ERROR", err)
		return
	}

	h.sendJSON(w, newPaginatedResponse(species, total, page, limit), http.StatusOK)
}

// GetSpecies handles GET /api/species/{id}
func (h *SpeciesHandler) GetSpecies(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		h.badRequest(w, r, err.Error())
		return
	}

	species, err := h.species.Get(r.Context(), id)
	if err != nil {
		h.handleError(w, r, "API_GET_SPECIES_ERROR", err)
		return
	}

	h.sendJSON(w, species, http.StatusOK)
}

// GetStatistics handles GET /api/species/stats
func (h *SpeciesHandler) GetStatistics(w http.ResponseWriter, r *http.Request) {
	stats, err := h.species.Stats(r.Context())
	if err != nil {
		h.handleError(w, r, "API_SPECIES_STATS_ERROR", err)
		return
	}

	h.sendJSON(w, stats, http.StatusOK)
}

// GetWateringInterval handles GET /api/species/{id}/watering-interval
func (h *SpeciesHandler) GetWateringInterval(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		h.badRequest(w, r, err.Error())
		return
	}

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

	recommendation, err := h.species.WateringRecommendation(r.Context(), id, day, region)
	if err != nil {
		h.handleError(w, r, "API_WATERING_INTERVAL_ERROR", err)
		return
	}

	h.sendJSON(w, recommendation, http.StatusOK)
}

// RegisterRoutes registers all species API routes
func (h *SpeciesHandler) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/api/species", h.ListSpecies).Methods("GET")
	router.HandleFunc("/api/species/stats", h.GetStatistics).Methods("GET")
	router.HandleFunc("/api/species/{id:[0-9]+}", h.GetSpecies).Methods("GET")
	router.HandleFunc("/api/species/{id:[0-9]+}/watering-interval", h.GetWateringInterval).Methods("GET")
}
