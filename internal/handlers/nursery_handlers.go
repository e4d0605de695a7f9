package handlers

import (
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"nursery-platform/internal/models"
	"nursery-platform/internal/services"
	"nursery-platform/pkg/logging"
	"nursery-platform/pkg/metrics"
)

// NurseryHandler handles nursery and planting API endpoints
type NurseryHandler struct {
	responder
	nurseries *services.NurseryService
}

type createNurseryRequest struct {
	Name       string `json:"name"`
	StartMonth int    `json:"start_month"`
	Region     string `json:"region"`
	Language   string `json:"language"`
}

type activeNurseryRequest struct {
	NurseryID *int64 `json:"nursery_id"`
}

type createPlantingRequest struct {
	SpeciesID              *int64  `json:"species_id"`
	SpeciesName            string  `json:"species_name"`
	Quantity               int     `json:"quantity"`
	PotSizeGal             float64 `json:"pot_size_gal"`
	PotDepthCm             float64 `json:"pot_depth_cm"`
	ExpectedTransplantDate string  `json:"expected_transplant_date"`
}

// NewNurseryHandler creates a new nursery handler
func NewNurseryHandler(nurseries *services.NurseryService, logger *logging.StructuredLogger, metricsCollector *metrics.Collector) *NurseryHandler {
	return &NurseryHandler{
		responder: responder{logger: logger, metrics: metricsCollector},
		nurseries: nurseries,
	}
}

// CreateNursery handles POST /api/nurseries
func (h *NurseryHandler) CreateNursery(w http.ResponseWriter, r *http.Request) {
	var req createNurseryRequest
	if err := decodeJSON(r, &req); err != nil {
		h.badRequest(w, r, err.Error())
		return
	}

	nursery := &models.Nursery{
		Name:       req.Name,
		StartMonth: req.StartMonth,
		Region:     req.Region,
		Language:   req.Language,
	}
	if err := h.nurseries.Create(r.Context(), nursery); err != nil {
		h.handleError(w, r, "API_CREATE_NURSERY_ERROR", err)
		return
	}

	h.sendJSON(w, nursery, http.StatusCreated)
}

// ListNurseries handles GET /api/nurseries
func (h *NurseryHandler) ListNurseries(w http.ResponseWriter, r *http.Request) {
	nurseries, err := h.nurseries.List(r.Context())
	if err != nil {
		h.handleError(w, r, "API_LIST_NURSERIES_ERROR", err)
		return
	}

	h.sendJSON(w, nurseries, http.StatusOK)
}

// GetNursery handles GET /api/nurseries/{id}
func (h *NurseryHandler) GetNursery(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		h.badRequest(w, r, err.Error())
		return
	}

	nursery, err := h.nurseries.Get(r.Context(), id)
	if err != nil {
		h.handleError(w, r, "API_GET_NURSERY_ERROR", err)
		return
	}

	h.sendJSON(w, nursery, http.StatusOK)
}

// UpdateNursery handles PUT /api/nurseries/{id}
func (h *NurseryHandler) UpdateNursery(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		h.badRequest(w, r, err.Error())
		return
	}

	var update models.NurseryUpdate
	if err := decodeJSON(r, &update); err != nil {
		h.badRequest(w, r, err.Error())
		return
	}

	nursery, err := h.nurseries.Update(r.Context(), id, update)
	if err != nil {
		h.handleError(w, r, "API_UPDATE_NURSERY_ERROR", err)
		return
	}

	h.sendJSON(w, nursery, http.StatusOK)
}

// DeleteNursery handles DELETE /api/nurseries/{id}
func (h *NurseryHandler) DeleteNursery(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		h.badRequest(w, r, err.Error())
		return
	}

	if err := h.nurseries.Delete(r.Context(), id); err != nil {
		h.handleError(w, r, "API_DELETE_NURSERY_ERROR", err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// GetNurseryStats handles GET /api/nurseries/{id}/stats
func (h *NurseryHandler) GetNurseryStats(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		h.badRequest(w, r, err.Error())
		return
	}

	stats, err := h.nurseries.Stats(r.Context(), id)
	if err != nil {
		h.handleError(w, r, "API_NURSERY_STATS_ERROR", err)
		return
	}

	h.sendJSON(w, stats, http.StatusOK)
}

// GetActiveNursery handles GET /api/nurseries/active
func (h *NurseryHandler) GetActiveNursery(w http.ResponseWriter, r *http.Request) {
	nursery, err := h.nurseries.ActiveNursery(r.Context())
	if err != nil {
		h.handleError(w, r, "API_ACTIVE_NURSERY_ERROR", err)
		return
	}
	if nursery == nil {
		h.sendError(w, r, "no nursery has been created", http.StatusNotFound)
		return
	}

	h.sendJSON(w, nursery, http.StatusOK)
}

// SetActiveNursery handles PUT /api/nurseries/active
func (h *NurseryHandler) SetActiveNursery(w http.ResponseWriter, r *http.Request) {
	var req activeNurseryRequest
	if err := decodeJSON(r, &req); err != nil {
		h.badRequest(w, r, err.Error())
		return
	}

	if err := h.nurseries.SetActiveNursery(r.Context(), req.NurseryID); err != nil {
		h.handleError(w, r, "API_SET_ACTIVE_NURSERY_ERROR", err)
		return
	}

	h.sendJSON(w, req, http.StatusOK)
}

// CreatePlanting handles POST /api/nurseries/{id}/plantings
func (h *NurseryHandler) CreatePlanting(w http.ResponseWriter, r *http.Request) {
	nurseryID, err := pathID(r, "id")
	if err != nil {
		h.badRequest(w, r, err.Error())
		return
	}

	var req createPlantingRequest
	if err := decodeJSON(r, &req); err != nil {
		h.badRequest(w, r, err.Error())
		return
	}

	planting := &models.Planting{
		NurseryID:   nurseryID,
		SpeciesID:   req.SpeciesID,
		SpeciesName: req.SpeciesName,
		Quantity:    req.Quantity,
		PotSizeGal:  req.PotSizeGal,
		PotDepthCm:  req.PotDepthCm,
	}
	if req.ExpectedTransplantDate != "" {
		d, err := time.Parse(dateLayout, req.ExpectedTransplantDate)
		if err != nil {
			h.badRequest(w, r, "invalid expected_transplant_date format, expected YYYY-MM-DD")
			return
		}
		planting.ExpectedTransplantDate = &d
	}

	if err := h.nurseries.AddPlanting(r.Context(), planting); err != nil {
		h.handleError(w, r, "API_CREATE_PLANTING_ERROR", err)
		return
	}

	h.sendJSON(w, planting, http.StatusCreated)
}

// ListPlantings handles GET /api/nurseries/{id}/plantings
func (h *NurseryHandler) ListPlantings(w http.ResponseWriter, r *http.Request) {
	nurseryID, err := pathID(r, "id")
	if err != nil {
		h.badRequest(w, r, err.Error())
		return
	}

	plantings, err := h.nurseries.ListPlantings(r.Context(), nurseryID)
	if err != nil {
		h.handleError(w, r, "API_LIST_PLANTINGS_ERROR", err)
		return
	}

	h.sendJSON(w, plantings, http.StatusOK)
}

// DeletePlanting handles DELETE /api/plantings/{id}
func (h *NurseryHandler) DeletePlanting(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		h.badRequest(w, r, err.Error())
		return
	}

	if err := h.nurseries.DeletePlanting(r.Context(), id); err != nil {
		h.handleError(w, r, "API_DELETE_PLANTING_ERROR", err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// RegisterRoutes registers all nursery API routes
func (h *NurseryHandler) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/api/nurseries", h.CreateNursery).Methods("POST")
	router.HandleFunc("/api/nurseries", h.ListNurseries).Methods("GET")
	router.HandleFunc("/api/nurseries/active", h.GetActiveNursery).Methods("GET")
	router.HandleFunc("/api/nurseries/active", h.SetActiveNursery).Methods("PUT")
	router.HandleFunc("/api/nurseries/{id:[0-9]+}", h.GetNursery).Methods("GET")
	router.HandleFunc("/api/nurseries/{id:[0-9]+}", h.UpdateNursery).Methods("PUT")
	router.HandleFunc("/api/nurseries/{id:[0-9]+}", h.DeleteNursery).Methods("DELETE")
	router.HandleFunc("/api/nurseries/{id:[0-9]+}/stats", h.GetNurseryStats).Methods("GET")
	router.HandleFunc("/api/nurseries/{id:[0-9]+}/plantings", h.CreatePlanting).Methods("POST")
	router.HandleFunc("/api/nurseries/{id:[0-9]+}/plantings", h.ListPlantings).Methods("GET")
	router.HandleFunc("/api/plantings/{id:[0-9]+}", h.DeletePlanting).Methods("DELETE")
}
