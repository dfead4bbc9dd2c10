package handler_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/relayline/relayline/internal/api/handler"
	"github.com/relayline/relayline/internal/cache"
	"github.com/relayline/relayline/internal/config"
	"github.com/relayline/relayline/internal/degradation"
	"github.com/relayline/relayline/internal/service"
)

type countingMetrics struct {
	hits   int
	misses int
}

func (m *countingMetrics) RecordCacheHit()  { m.hits++ }
func (m *countingMetrics) RecordCacheMiss() { m.misses++ }

func newStatusHandler(t *testing.T, store cache.Store, metrics handler.StatusMetrics) *handler.StatusHandler {
	t.Helper()

	reg := service.NewRegistry()
	reg.Record(service.Status{Name: "postgres", Available: true, LastCheck: time.Now()})
	reg.Record(service.Status{Name: "redis", Available: true, LastCheck: time.Now()})

	manager := degradation.NewManager(degradation.ManagerConfig{
		Registry: reg,
		Config:   config.Config{},
		Logger:   zerolog.Nop(),
	})
	manager.SetActiveTargets(
		service.ConnectionTarget{Role: service.RoleDatabase, Implementation: service.ImplPostgres},
		service.ConnectionTarget{Role: service.RoleCache, Implementation: service.ImplRedis},
	)
	manager.Assess()

	return handler.NewStatusHandler(handler.StatusConfig{
		Manager:  manager,
		Registry: reg,
		Store:    store,
		Metrics:  metrics,
		Logger:   zerolog.Nop(),
	})
}

func TestGetStatus_RecordsCacheMissThenHit(t *testing.T) {
	store := cache.NewMemoryStore()
	metrics := &countingMetrics{}
	h := newStatusHandler(t, store, metrics)

	rec := httptest.NewRecorder()
	h.GetStatus(rec, httptest.NewRequest(http.MethodGet, "/v1/status", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, metrics.misses)
	assert.Equal(t, 0, metrics.hits)

	rec = httptest.NewRecorder()
	h.GetStatus(rec, httptest.NewRequest(http.MethodGet, "/v1/status", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, metrics.misses)
	assert.Equal(t, 1, metrics.hits)
}

func TestGetStatus_DiscardsMalformedCacheEntry(t *testing.T) {
	store := cache.NewMemoryStore()
	require.NoError(t, store.Set(context.Background(), "relayline:status:snapshot", "{not json", 0))

	h := newStatusHandler(t, store, nil)

	rec := httptest.NewRecorder()
	h.GetStatus(rec, httptest.NewRequest(http.MethodGet, "/v1/status", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	// The bad entry was replaced with a fresh snapshot.
	raw, err := store.Get(context.Background(), "relayline:status:snapshot")
	require.NoError(t, err)
	assert.Contains(t, raw, "overall_level")
}

func TestGetStatus_WorksWithoutStore(t *testing.T) {
	h := newStatusHandler(t, nil, nil)

	rec := httptest.NewRecorder()
	h.GetStatus(rec, httptest.NewRequest(http.MethodGet, "/v1/status", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}
