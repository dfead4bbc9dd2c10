// Package handler provides HTTP handlers for the Relayline API.
package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/relayline/relayline/internal/api/models"
	"github.com/relayline/relayline/internal/api/response"
	"github.com/relayline/relayline/internal/degradation"
)

// readyCheckTimeout bounds the dependency pings during a readiness check.
const readyCheckTimeout = 2 * time.Second

// Pinger is anything that can verify its backing connection.
type Pinger interface {
	Ping(ctx context.Context) error
}

// OpsHandler handles operational endpoints.
type OpsHandler struct {
	serviceName string
	version     string
	manager     *degradation.Manager
	db          Pinger
	cache       Pinger
}

// OpsConfig holds dependencies for the OpsHandler.
type OpsConfig struct {
	ServiceName string
	Version     string
	Manager     *degradation.Manager
	DB          Pinger
	Cache       Pinger
}

// NewOpsHandler creates a new OpsHandler.
func NewOpsHandler(cfg OpsConfig) *OpsHandler {
	return &OpsHandler{
		serviceName: cfg.ServiceName,
		version:     cfg.Version,
		manager:     cfg.Manager,
		db:          cfg.DB,
		cache:       cfg.Cache,
	}
}

// HealthCheck handles GET /v1/ops/health - liveness check. It always
// succeeds while the process is up; degradation is reported separately.
func (h *OpsHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	response.JSON(w, r, http.StatusOK, models.HealthResponse{
		Status:  "ok",
		Service: h.serviceName,
		Version: h.version,
	})
}

// ReadinessCheck handles GET /v1/ops/ready - readiness check. Returns 503
// when the database role is unavailable; running on the SQLite fallback
// still counts as ready.
func (h *OpsHandler) ReadinessCheck(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), readyCheckTimeout)
	defer cancel()

	checks := map[string]string{}
	ready := true

	if h.db != nil {
		if err := h.db.Ping(ctx); err != nil {
			checks["database"] = "unavailable"
			ready = false
		} else {
			checks["database"] = "ok"
		}
	} else {
		checks["database"] = "unavailable"
		ready = false
	}

	// Cache never blocks readiness; the in-process fallback always works.
	if h.cache != nil {
		if err := h.cache.Ping(ctx); err != nil {
			checks["cache"] = "degraded"
		} else {
			checks["cache"] = "ok"
		}
	}

	if h.manager != nil && h.manager.OverallLevel() == degradation.LevelUnavailable {
		ready = false
	}

	status := http.StatusOK
	payload := models.ReadyResponse{Status: "ready", Checks: checks}
	if !ready {
		status = http.StatusServiceUnavailable
		payload.Status = "not_ready"
	}
	response.JSON(w, r, status, payload)
}
