// Package fallback selects a concrete backend for each service role by
// walking a fixed preference order and probing candidates in turn.
package fallback

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/relayline/relayline/internal/config"
	"github.com/relayline/relayline/internal/service"
)

// Prober checks a single candidate backend.
type Prober interface {
	Probe(ctx context.Context, target service.ConnectionTarget) service.Status
}

// Resolver walks role-specific preference lists and returns the first
// available candidate. The last candidate of each list is a terminal
// fallback: it is returned even when its own probe fails, so startup always
// produces some working configuration. The registry still records the
// failure so degradation accounting stays accurate.
type Resolver struct {
	prober   Prober
	registry *service.Registry
	cfg      config.Config
	logger   zerolog.Logger
}

// NewResolver creates a Resolver.
func NewResolver(prober Prober, registry *service.Registry, cfg config.Config, logger zerolog.Logger) *Resolver {
	return &Resolver{
		prober:   prober,
		registry: registry,
		cfg:      cfg,
		logger:   logger,
	}
}

// Resolve returns a connection target for the role. It never returns a
// failure: probe results are recorded in the registry and the terminal
// candidate is returned as a last resort. Calling Resolve again with an
// unchanged environment yields the same target with fresh registry entries.
func (r *Resolver) Resolve(ctx context.Context, role service.Role) service.ConnectionTarget {
	// FORCE short-circuits the walk entirely: no probe, no registry write.
	if role == service.RoleDatabase && r.cfg.ForceSQLite {
		target := r.sqliteTarget()
		r.logger.Info().
			Str("role", string(role)).
			Str("implementation", target.Name()).
			Msg("implementation forced by environment")
		return target
	}

	candidates, terminal := r.candidates(role)

	var selected service.ConnectionTarget
	found := false
	for _, candidate := range candidates {
		status := r.prober.Probe(ctx, candidate)
		r.registry.Record(status)

		if status.Available {
			selected = candidate
			found = true
			break
		}

		r.logger.Warn().
			Str("role", string(role)).
			Str("implementation", candidate.Name()).
			Str("error", status.Error).
			Msg("candidate unavailable, trying next")
	}

	if !found {
		// Terminal fallback: returned even though its probe failed.
		selected = terminal
		r.logger.Error().
			Str("role", string(role)).
			Str("implementation", selected.Name()).
			Msg("all candidates failed, selecting terminal fallback")
	}

	r.logger.Info().
		Str("role", string(role)).
		Str("implementation", selected.Name()).
		Str("connection", service.MaskSecrets(selected.ConnectionString)).
		Msg("resolved connection target")

	return selected
}

// candidates returns the preference-ordered targets for a role plus the
// terminal fallback. database = [postgres, sqlite]; cache = [redis, memory].
// PREFER_SQLITE moves sqlite to the front of the walk, but sqlite stays the
// terminal fallback either way.
func (r *Resolver) candidates(role service.Role) ([]service.ConnectionTarget, service.ConnectionTarget) {
	switch role {
	case service.RoleCache:
		return []service.ConnectionTarget{r.redisTarget(), r.memoryTarget()}, r.memoryTarget()
	case service.RoleDatabase:
		if r.cfg.PreferSQLite {
			return []service.ConnectionTarget{r.sqliteTarget(), r.postgresTarget()}, r.sqliteTarget()
		}
		return []service.ConnectionTarget{r.postgresTarget(), r.sqliteTarget()}, r.sqliteTarget()
	default:
		return []service.ConnectionTarget{r.memoryTarget()}, r.memoryTarget()
	}
}

func (r *Resolver) postgresTarget() service.ConnectionTarget {
	options := map[string]string{}
	if r.cfg.DBSchema != "" {
		options["schema"] = r.cfg.DBSchema
	}
	return service.ConnectionTarget{
		Role:             service.RoleDatabase,
		Implementation:   service.ImplPostgres,
		ConnectionString: r.cfg.PostgresURL(),
		Options:          options,
	}
}

func (r *Resolver) sqliteTarget() service.ConnectionTarget {
	return service.ConnectionTarget{
		Role:             service.RoleDatabase,
		Implementation:   service.ImplSQLite,
		ConnectionString: r.cfg.SQLitePath,
	}
}

func (r *Resolver) redisTarget() service.ConnectionTarget {
	url := r.cfg.RedisURL
	if url == "" {
		url = "redis://localhost:6379/0"
	}
	return service.ConnectionTarget{
		Role:             service.RoleCache,
		Implementation:   service.ImplRedis,
		ConnectionString: url,
	}
}

func (r *Resolver) memoryTarget() service.ConnectionTarget {
	return service.ConnectionTarget{
		Role:             service.RoleCache,
		Implementation:   service.ImplMemory,
		ConnectionString: ":memory:",
	}
}
