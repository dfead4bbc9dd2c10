package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/relayline/relayline/internal/api/middleware"
	"github.com/relayline/relayline/internal/api/models"
	"github.com/relayline/relayline/internal/api/response"
	"github.com/relayline/relayline/internal/cache"
	"github.com/relayline/relayline/internal/degradation"
	"github.com/relayline/relayline/internal/service"
)

const (
	// statusCacheKey is where the serialized public status snapshot lives.
	statusCacheKey = "relayline:status:snapshot"

	// statusCacheTTL bounds staleness of the cached snapshot. The snapshot
	// is cheap to rebuild; the cache only absorbs dashboard polling bursts.
	statusCacheTTL = 5 * time.Second

	statusCacheTimeout = 500 * time.Millisecond
)

// StatusMetrics records snapshot cache outcomes. Implemented by
// middleware.BackendMetrics; nil disables recording.
type StatusMetrics interface {
	RecordCacheHit()
	RecordCacheMiss()
}

// StatusHandler serves the degradation status surface.
type StatusHandler struct {
	manager  *degradation.Manager
	registry *service.Registry
	store    cache.Store
	metrics  StatusMetrics
	logger   zerolog.Logger
}

// StatusConfig holds dependencies for the StatusHandler.
type StatusConfig struct {
	Manager  *degradation.Manager
	Registry *service.Registry
	Store    cache.Store
	Metrics  StatusMetrics
	Logger   zerolog.Logger
}

// NewStatusHandler creates a new StatusHandler.
func NewStatusHandler(cfg StatusConfig) *StatusHandler {
	return &StatusHandler{
		manager:  cfg.Manager,
		registry: cfg.Registry,
		store:    cfg.Store,
		metrics:  cfg.Metrics,
		logger:   cfg.Logger,
	}
}

// GetStatus handles GET /v1/status - the aggregate degradation view.
// Anonymous callers get the public view; admin tokens additionally get
// per-service admin messages and configuration issue detail.
func (h *StatusHandler) GetStatus(w http.ResponseWriter, r *http.Request) {
	admin := middleware.IsAdmin(r.Context())

	// Admin responses carry redacted-by-default detail, so only the public
	// view is cached.
	if !admin {
		if cached, ok := h.cachedStatus(r.Context()); ok {
			response.JSON(w, r, http.StatusOK, cached)
			return
		}
	}

	resp := models.NewStatusResponse(
		h.manager.StatusSnapshot(),
		h.registry.All(),
		h.manager.Issues(),
		admin,
	)

	if !admin {
		h.storeStatus(r.Context(), resp)
	}
	response.JSON(w, r, http.StatusOK, resp)
}

// GetServiceStatus handles GET /v1/status/services/{name} - one backend's
// probe result plus its degradation record, if any.
func (h *StatusHandler) GetServiceStatus(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")

	status, ok := h.registry.Get(name)
	if !ok {
		response.NotFound(w, r, "unknown service: "+name)
		return
	}

	resp := models.ServiceStatusResponse{Service: status}
	if d, ok := h.manager.Degradation(name); ok {
		if !middleware.IsAdmin(r.Context()) {
			d.AdminMessage = ""
		}
		resp.Degradation = &d
	}
	response.JSON(w, r, http.StatusOK, resp)
}

// Reassess handles POST /v1/admin/reassess - re-derive degradation state
// from the current registry and return the fresh snapshot.
func (h *StatusHandler) Reassess(w http.ResponseWriter, r *http.Request) {
	h.manager.Assess()
	h.invalidateStatus(r.Context())

	resp := models.NewStatusResponse(
		h.manager.StatusSnapshot(),
		h.registry.All(),
		h.manager.Issues(),
		true,
	)
	response.JSON(w, r, http.StatusOK, resp)
}

func (h *StatusHandler) cachedStatus(ctx context.Context) (models.StatusResponse, bool) {
	var resp models.StatusResponse
	if h.store == nil {
		return resp, false
	}

	ctx, cancel := context.WithTimeout(ctx, statusCacheTimeout)
	defer cancel()

	raw, err := h.store.Get(ctx, statusCacheKey)
	if err != nil {
		if h.metrics != nil {
			h.metrics.RecordCacheMiss()
		}
		return resp, false
	}
	if err := json.Unmarshal([]byte(raw), &resp); err != nil {
		h.logger.Warn().Err(err).Msg("discarding malformed cached status snapshot")
		return resp, false
	}
	if h.metrics != nil {
		h.metrics.RecordCacheHit()
	}
	return resp, true
}

func (h *StatusHandler) storeStatus(ctx context.Context, resp models.StatusResponse) {
	if h.store == nil {
		return
	}

	ctx, cancel := context.WithTimeout(ctx, statusCacheTimeout)
	defer cancel()

	raw, err := json.Marshal(resp)
	if err != nil {
		return
	}
	if err := h.store.Set(ctx, statusCacheKey, string(raw), statusCacheTTL); err != nil {
		h.logger.Debug().Err(err).Msg("status snapshot cache write failed")
	}
}

func (h *StatusHandler) invalidateStatus(ctx context.Context) {
	if h.store == nil {
		return
	}

	ctx, cancel := context.WithTimeout(ctx, statusCacheTimeout)
	defer cancel()
	_ = h.store.Delete(ctx, statusCacheKey)
}
