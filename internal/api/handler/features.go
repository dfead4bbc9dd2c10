package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/relayline/relayline/internal/api/models"
	"github.com/relayline/relayline/internal/api/response"
	"github.com/relayline/relayline/internal/degradation"
)

// FeaturesHandler serves the computed feature flag surface. Flags are
// derived live from backend availability and configuration; there is no
// stored flag state to mutate.
type FeaturesHandler struct {
	manager *degradation.Manager
}

// NewFeaturesHandler creates a new FeaturesHandler.
func NewFeaturesHandler(manager *degradation.Manager) *FeaturesHandler {
	return &FeaturesHandler{manager: manager}
}

// ListFeatures handles GET /v1/features - the full flag map.
func (h *FeaturesHandler) ListFeatures(w http.ResponseWriter, r *http.Request) {
	response.JSON(w, r, http.StatusOK, models.FeaturesResponse{
		Features: h.manager.Features(),
	})
}

// GetFeature handles GET /v1/features/{name} - one flag.
func (h *FeaturesHandler) GetFeature(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")

	enabled, ok := h.manager.Features()[name]
	if !ok {
		response.NotFound(w, r, "unknown feature flag: "+name)
		return
	}
	response.JSON(w, r, http.StatusOK, models.FeatureResponse{
		Name:    name,
		Enabled: enabled,
	})
}
