package fallback_test

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"

	"github.com/relayline/relayline/internal/config"
	"github.com/relayline/relayline/internal/fallback"
	"github.com/relayline/relayline/internal/service"
)

// fakeProber scripts availability per implementation and counts probes.
type fakeProber struct {
	available map[service.Implementation]bool
	probed    []service.Implementation
}

func (f *fakeProber) Probe(_ context.Context, target service.ConnectionTarget) service.Status {
	f.probed = append(f.probed, target.Implementation)
	status := service.Status{
		Name:      target.Name(),
		LastCheck: time.Now(),
	}
	if f.available[target.Implementation] {
		status.Available = true
	} else {
		status.Error = "connection refused"
	}
	return status
}

func newResolver(cfg config.Config, prober *fakeProber) (*fallback.Resolver, *service.Registry) {
	registry := service.NewRegistry()
	return fallback.NewResolver(prober, registry, cfg, zerolog.Nop()), registry
}

func TestResolve_DatabasePostgresFirst(t *testing.T) {
	prober := &fakeProber{available: map[service.Implementation]bool{
		service.ImplPostgres: true,
	}}
	resolver, registry := newResolver(config.Config{}, prober)

	target := resolver.Resolve(context.Background(), service.RoleDatabase)

	assert.Equal(t, service.ImplPostgres, target.Implementation)
	assert.Equal(t, []service.Implementation{service.ImplPostgres}, prober.probed)
	assert.True(t, registry.IsAvailable("postgres"))
}

func TestResolve_DatabaseFallsBackToSQLite(t *testing.T) {
	prober := &fakeProber{available: map[service.Implementation]bool{
		service.ImplSQLite: true,
	}}
	resolver, registry := newResolver(config.Config{}, prober)

	target := resolver.Resolve(context.Background(), service.RoleDatabase)

	assert.Equal(t, service.ImplSQLite, target.Implementation)
	assert.False(t, registry.IsAvailable("postgres"))
	assert.True(t, registry.IsAvailable("sqlite"))
}

func TestResolve_TerminalReturnedEvenWhenProbeFails(t *testing.T) {
	// Nothing reachable at all: resolution still yields the terminal
	// fallback so startup can proceed and report the outage.
	prober := &fakeProber{available: map[service.Implementation]bool{}}
	resolver, registry := newResolver(config.Config{}, prober)

	target := resolver.Resolve(context.Background(), service.RoleDatabase)

	assert.Equal(t, service.ImplSQLite, target.Implementation)
	assert.False(t, registry.IsAvailable("sqlite"))

	status, ok := registry.Get("sqlite")
	assert.True(t, ok)
	assert.Equal(t, "connection refused", status.Error)
}

func TestResolve_ForceSQLiteSkipsProbes(t *testing.T) {
	prober := &fakeProber{available: map[service.Implementation]bool{
		service.ImplPostgres: true,
	}}
	resolver, registry := newResolver(config.Config{ForceSQLite: true, SQLitePath: "data/app.db"}, prober)

	target := resolver.Resolve(context.Background(), service.RoleDatabase)

	assert.Equal(t, service.ImplSQLite, target.Implementation)
	assert.Equal(t, "data/app.db", target.ConnectionString)
	assert.Empty(t, prober.probed, "FORCE_SQLITE must not probe anything")
	assert.Empty(t, registry.All(), "FORCE_SQLITE must not touch the registry")
}

func TestResolve_PreferSQLiteReordersWalk(t *testing.T) {
	prober := &fakeProber{available: map[service.Implementation]bool{
		service.ImplSQLite:   true,
		service.ImplPostgres: true,
	}}
	resolver, _ := newResolver(config.Config{PreferSQLite: true}, prober)

	target := resolver.Resolve(context.Background(), service.RoleDatabase)

	assert.Equal(t, service.ImplSQLite, target.Implementation)
	assert.Equal(t, []service.Implementation{service.ImplSQLite}, prober.probed)
}

func TestResolve_PreferSQLiteStillFallsBackToPostgres(t *testing.T) {
	// PREFER reorders the walk; it does not pin the selection.
	prober := &fakeProber{available: map[service.Implementation]bool{
		service.ImplPostgres: true,
	}}
	resolver, _ := newResolver(config.Config{PreferSQLite: true}, prober)

	target := resolver.Resolve(context.Background(), service.RoleDatabase)

	assert.Equal(t, service.ImplPostgres, target.Implementation)
	assert.Equal(t,
		[]service.Implementation{service.ImplSQLite, service.ImplPostgres},
		prober.probed)
}

func TestResolve_PreferSQLiteTerminalIsSQLite(t *testing.T) {
	prober := &fakeProber{available: map[service.Implementation]bool{}}
	resolver, _ := newResolver(config.Config{PreferSQLite: true}, prober)

	target := resolver.Resolve(context.Background(), service.RoleDatabase)
	assert.Equal(t, service.ImplSQLite, target.Implementation)
}

func TestResolve_CacheRedisFirst(t *testing.T) {
	prober := &fakeProber{available: map[service.Implementation]bool{
		service.ImplRedis: true,
	}}
	resolver, _ := newResolver(config.Config{RedisURL: "redis://cache.internal:6379/0"}, prober)

	target := resolver.Resolve(context.Background(), service.RoleCache)

	assert.Equal(t, service.ImplRedis, target.Implementation)
	assert.Equal(t, "redis://cache.internal:6379/0", target.ConnectionString)
}

func TestResolve_CacheFallsBackToMemory(t *testing.T) {
	prober := &fakeProber{available: map[service.Implementation]bool{}}
	resolver, registry := newResolver(config.Config{}, prober)

	target := resolver.Resolve(context.Background(), service.RoleCache)

	assert.Equal(t, service.ImplMemory, target.Implementation)
	assert.False(t, registry.IsAvailable("redis"))
}

func TestResolve_CacheMemoryProbesAvailable(t *testing.T) {
	prober := &fakeProber{available: map[service.Implementation]bool{
		service.ImplMemory: true,
	}}
	resolver, registry := newResolver(config.Config{}, prober)

	target := resolver.Resolve(context.Background(), service.RoleCache)

	assert.Equal(t, service.ImplMemory, target.Implementation)
	assert.True(t, registry.IsAvailable("memory"))
}

func TestResolve_SchemaOptionCarried(t *testing.T) {
	prober := &fakeProber{available: map[service.Implementation]bool{
		service.ImplPostgres: true,
	}}
	resolver, _ := newResolver(config.Config{DBSchema: "tenant_7"}, prober)

	target := resolver.Resolve(context.Background(), service.RoleDatabase)
	assert.Equal(t, "tenant_7", target.Options["schema"])
}
