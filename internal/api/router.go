// Package api provides the HTTP API for Relayline.
package api

import (
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/relayline/relayline/internal/api/handler"
	"github.com/relayline/relayline/internal/api/middleware"
	"github.com/relayline/relayline/internal/auth"
	"github.com/relayline/relayline/internal/cache"
	"github.com/relayline/relayline/internal/contact"
	"github.com/relayline/relayline/internal/degradation"
	"github.com/relayline/relayline/internal/service"
)

// RouterConfig holds configuration for the router.
type RouterConfig struct {
	Version        string
	Logger         zerolog.Logger
	ServiceName    string
	Metrics        *middleware.Metrics
	BackendMetrics *middleware.BackendMetrics
	TokenService   *auth.TokenService
	Manager        *degradation.Manager
	Registry       *service.Registry
	CacheStore     cache.Store
	ContactService *contact.Service
	DB             handler.Pinger
}

// NewRouter creates a new chi router with all API routes configured.
func NewRouter(cfg RouterConfig) *chi.Mux {
	r := chi.NewRouter()

	// Set default service name if not provided
	serviceName := cfg.ServiceName
	if serviceName == "" {
		serviceName = "relayline-api"
	}

	// Global middleware - order matters
	r.Use(middleware.RequestID)            // Generate/propagate request ID first
	r.Use(middleware.Tracing(serviceName)) // Distributed tracing
	if cfg.Metrics != nil {
		r.Use(cfg.Metrics.Middleware()) // HTTP metrics
	}
	r.Use(middleware.Logger(cfg.Logger))   // Structured logging
	r.Use(middleware.Recovery(cfg.Logger)) // Panic recovery
	r.Use(chimiddleware.RealIP)            // Real IP extraction
	r.Use(middleware.SecurityHeaders)      // Security headers (HSTS, CSP, etc.)
	r.Use(middleware.RequireTLS)           // TLS enforcement (enabled via REQUIRE_TLS=true)
	r.Use(middleware.ContentTypeJSON)      // JSON content type

	// Initialize handlers
	opsHandler := handler.NewOpsHandler(handler.OpsConfig{
		ServiceName: serviceName,
		Version:     cfg.Version,
		Manager:     cfg.Manager,
		DB:          cfg.DB,
		Cache:       cfg.CacheStore,
	})
	statusCfg := handler.StatusConfig{
		Manager:  cfg.Manager,
		Registry: cfg.Registry,
		Store:    cfg.CacheStore,
		Logger:   cfg.Logger,
	}
	if cfg.BackendMetrics != nil {
		statusCfg.Metrics = cfg.BackendMetrics
	}
	statusHandler := handler.NewStatusHandler(statusCfg)
	notificationsHandler := handler.NewNotificationsHandler(cfg.Manager.Notifications())
	featuresHandler := handler.NewFeaturesHandler(cfg.Manager)
	contactHandler := handler.NewContactHandler(cfg.ContactService)

	// Create auth middleware
	authMiddleware := middleware.Auth(cfg.TokenService)
	optionalAuth := middleware.OptionalAuth(cfg.TokenService)

	// Rate limiting follows the rate_limiting feature flag so it switches
	// off together with Redis instead of limiting from partial state.
	rateLimitingOn := func() bool {
		return cfg.Manager.IsFeatureEnabled(degradation.FlagRateLimiting)
	}
	statusRateLimit := middleware.RateLimitWhen(rateLimitingOn, middleware.StatusRateLimit)
	standardRateLimit := middleware.RateLimitWhen(rateLimitingOn, middleware.StandardRateLimit)
	adminRateLimit := middleware.RateLimitWhen(rateLimitingOn, middleware.AdminRateLimit)

	// API v1 routes
	r.Route("/v1", func(r chi.Router) {
		// Ops endpoints (public, never rate limited)
		r.Route("/ops", func(r chi.Router) {
			r.Get("/health", opsHandler.HealthCheck)
			r.Get("/ready", opsHandler.ReadinessCheck)
		})

		// Status surface (public view; admin tokens unlock detail)
		r.Group(func(r chi.Router) {
			r.Use(optionalAuth)
			r.Use(statusRateLimit)
			r.Get("/status", statusHandler.GetStatus)
			r.Get("/status/services/{name}", statusHandler.GetServiceStatus)
		})

		// Notifications (public)
		r.Route("/notifications", func(r chi.Router) {
			r.Use(statusRateLimit)
			r.Get("/", notificationsHandler.ListNotifications)
			r.Delete("/{id}", notificationsHandler.DismissNotification)
		})

		// Feature flags (public, read-only)
		r.Route("/features", func(r chi.Router) {
			r.Use(statusRateLimit)
			r.Get("/", featuresHandler.ListFeatures)
			r.Get("/{name}", featuresHandler.GetFeature)
		})

		// Contacts (authenticated, tenant-scoped)
		r.Route("/contacts", func(r chi.Router) {
			r.Use(authMiddleware)
			r.Use(standardRateLimit)
			r.Use(middleware.RequireJSON)
			r.Get("/", contactHandler.ListContacts)
			r.Post("/", contactHandler.CreateContact)
			r.Route("/{contactId}", func(r chi.Router) {
				r.Get("/", contactHandler.GetContact)
				r.Put("/", contactHandler.UpdateContact)
				r.Delete("/", contactHandler.DeleteContact)
			})
		})

		// Admin endpoints (authenticated, admin role)
		r.Route("/admin", func(r chi.Router) {
			r.Use(authMiddleware)
			r.Use(middleware.RequireAdmin)
			r.Use(adminRateLimit)
			r.Post("/reassess", statusHandler.Reassess)
		})
	})

	return r
}
