// Package main provides the entrypoint for the Relayline API server.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/relayline/relayline/internal/api"
	"github.com/relayline/relayline/internal/api/middleware"
	"github.com/relayline/relayline/internal/auth"
	"github.com/relayline/relayline/internal/cache"
	"github.com/relayline/relayline/internal/config"
	"github.com/relayline/relayline/internal/contact"
	"github.com/relayline/relayline/internal/database"
	"github.com/relayline/relayline/internal/degradation"
	"github.com/relayline/relayline/internal/fallback"
	"github.com/relayline/relayline/internal/health"
	"github.com/relayline/relayline/internal/probe"
	"github.com/relayline/relayline/internal/service"
	"github.com/relayline/relayline/internal/telemetry"
)

// Version and BuildTime are set at compile time via ldflags.
var (
	Version   = "dev"
	BuildTime = "unknown"
)

func main() {
	const serviceName = "relayline-api"

	// Setup structured logging
	log := zerolog.New(os.Stdout).
		With().
		Timestamp().
		Str("service", serviceName).
		Str("version", Version).
		Logger()

	log.Info().
		Str("build_time", BuildTime).
		Msg("starting Relayline API")

	cfg := config.FromEnv()

	// Validate configuration once, before anything connects. Issues are
	// surfaced through the status endpoint; critical ones abort startup in
	// production only, so local development keeps working with defaults.
	issues := degradation.ValidateConfiguration(cfg)
	for _, issue := range issues {
		log.Warn().
			Str("issue_type", issue.Type).
			Str("severity", string(issue.Severity)).
			Strs("environment_variables", issue.EnvironmentVariables).
			Msg(issue.Message)
	}
	if degradation.HasCritical(issues) && cfg.IsProduction() {
		log.Fatal().
			Int("critical_issues", degradation.CountCritical(issues)).
			Msg("refusing to start in production with critical configuration issues")
	}

	// Initialize OpenTelemetry
	ctx := context.Background()
	tp, err := telemetry.Init(ctx, telemetry.Config{
		ServiceName:    serviceName,
		ServiceVersion: Version,
		Environment:    cfg.Environment,
		OTLPEndpoint:   cfg.OTLPEndpoint,
		Enabled:        cfg.OTELEnabled,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize telemetry")
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if shutdownErr := tp.Shutdown(shutdownCtx); shutdownErr != nil {
			log.Error().Err(shutdownErr).Msg("failed to shutdown telemetry")
		}
	}()

	if cfg.OTELEnabled {
		log.Info().
			Str("otlp_endpoint", cfg.OTLPEndpoint).
			Msg("OpenTelemetry initialized")
	}

	// Initialize metrics
	metrics, err := middleware.NewMetrics()
	if err != nil {
		log.Error().Err(err).Msg("failed to initialize metrics")
		os.Exit(1) //nolint:gocritic // intentional exit, telemetry cleanup is best-effort
	}
	backendMetrics, err := middleware.NewBackendMetrics()
	if err != nil {
		log.Error().Err(err).Msg("failed to initialize backend metrics")
		os.Exit(1)
	}

	// Resolve backends: probe candidates in preference order and take the
	// first reachable one; SQLite and the in-process cache are terminal
	// fallbacks, so resolution always yields a target.
	registry := service.NewRegistry()
	prober := probe.New(probe.Config{
		Timeout: cfg.ProbeTimeout,
		Logger:  log,
	})
	resolver := fallback.NewResolver(prober, registry, cfg, log)

	dbTarget := resolver.Resolve(ctx, service.RoleDatabase)
	cacheTarget := resolver.Resolve(ctx, service.RoleCache)

	db, err := database.Open(ctx, dbTarget, log)
	if err != nil {
		// Keep serving: the status surface must stay up to report the outage.
		log.Error().Err(err).
			Str("implementation", dbTarget.Name()).
			Msg("database unavailable, contact writes will be rejected")
		db = nil
		registry.Record(service.Status{
			Name:      dbTarget.Name(),
			Available: false,
			LastCheck: time.Now(),
			Error:     service.MaskSecrets(err.Error()),
		})
	} else {
		defer db.Close()
		log.Info().
			Str("implementation", dbTarget.Name()).
			Msg("database connected")
	}

	store := newCacheStore(cacheTarget, log)
	defer store.Close()

	// Degradation manager: the single source of truth for levels, flags and
	// notifications.
	center := degradation.NewCenter(degradation.DefaultNotificationCap)
	manager := degradation.NewManager(degradation.ManagerConfig{
		Registry:      registry,
		Config:        cfg,
		Issues:        issues,
		Notifications: center,
		Logger:        log,
	})
	manager.SetActiveTargets(dbTarget, cacheTarget)
	manager.Assess()
	if len(issues) > 0 {
		center.Push(degradation.MsgConfigurationIssue)
	}

	// Health monitor re-probes the active database and swaps to a fallback
	// through the resolver when it dies.
	monitor := health.NewMonitor(health.Config{
		Interval: cfg.HealthCheckInterval,
		Prober:   prober,
		Resolver: resolver,
		Registry: registry,
		Logger:   log,
	}, dbTarget)
	monitor.OnTransition(func(healthy bool, impl service.Implementation) {
		log.Info().
			Bool("healthy", healthy).
			Str("implementation", string(impl)).
			Msg("database availability transition")
		manager.SetActiveDatabase(monitor.Active())
		manager.Assess()
	})
	monitor.Start()
	defer monitor.Stop()

	// Contact storage follows the resolved database; without any handle the
	// in-memory repository keeps reads working for the process lifetime.
	var repo contact.Repository
	if db != nil {
		sqlRepo := contact.NewSQLRepository(db.DB)
		if err := sqlRepo.EnsureSchema(ctx); err != nil {
			log.Fatal().Err(err).Msg("failed to ensure contacts schema")
		}
		repo = sqlRepo
	} else {
		repo = contact.NewMemoryRepository()
	}
	contactService := contact.NewService(contact.ServiceConfig{
		Repository: repo,
		WriteGuard: func() bool {
			return manager.IsServiceAvailable(string(service.RoleDatabase))
		},
		Logger: log,
	})

	tokenService := auth.NewTokenService(auth.TokenConfig{
		SigningKey: cfg.JWTSecretKey,
		Issuer:     "https://api.relayline.io",
		Audience:   "relayline-api",
	})

	// Create router with configuration
	routerCfg := api.RouterConfig{
		Version:        Version,
		Logger:         log,
		ServiceName:    serviceName,
		Metrics:        metrics,
		BackendMetrics: backendMetrics,
		TokenService:   tokenService,
		Manager:        manager,
		Registry:       registry,
		CacheStore:     store,
		ContactService: contactService,
	}
	if db != nil {
		routerCfg.DB = db
	}
	router := api.NewRouter(routerCfg)

	// Create HTTP server
	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		log.Info().
			Str("addr", server.Addr).
			Str("overall_level", string(manager.OverallLevel())).
			Msg("server listening")

		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down server")

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server forced to shutdown")
		os.Exit(1)
	}

	log.Info().Msg("server stopped")
}

// newCacheStore opens the resolved cache backend, falling back to the
// in-process store if the Redis handle cannot be created after all.
func newCacheStore(target service.ConnectionTarget, log zerolog.Logger) cache.Store {
	if target.Implementation != service.ImplRedis {
		log.Info().Msg("cache running in-process")
		return cache.NewMemoryStore()
	}

	store, err := cache.NewRedisStore(cache.RedisConfig{URL: target.ConnectionString})
	if err != nil {
		log.Warn().Err(err).Msg("redis store unusable, caching in-process")
		return cache.NewMemoryStore()
	}
	log.Info().Msg("cache backed by redis")
	return store
}
