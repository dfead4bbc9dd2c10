package health_test

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"

	"github.com/relayline/relayline/internal/health"
	"github.com/relayline/relayline/internal/service"
)

// switchProber reports availability from a flippable flag.
type switchProber struct {
	healthy atomic.Bool
	panics  atomic.Bool
}

func (p *switchProber) Probe(_ context.Context, target service.ConnectionTarget) service.Status {
	if p.panics.Load() {
		panic("probe exploded")
	}
	status := service.Status{Name: target.Name(), LastCheck: time.Now()}
	if p.healthy.Load() {
		status.Available = true
	} else {
		status.Error = "connection refused"
	}
	return status
}

// stubResolver hands out a fixed replacement target.
type stubResolver struct {
	mu          sync.Mutex
	replacement service.ConnectionTarget
	calls       int
}

func (r *stubResolver) Resolve(context.Context, service.Role) service.ConnectionTarget {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls++
	return r.replacement
}

func (r *stubResolver) callCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.calls
}

var postgresTarget = service.ConnectionTarget{
	Role:           service.RoleDatabase,
	Implementation: service.ImplPostgres,
}

var sqliteTarget = service.ConnectionTarget{
	Role:           service.RoleDatabase,
	Implementation: service.ImplSQLite,
}

func newTestMonitor(prober *switchProber, resolver *stubResolver) *health.Monitor {
	return health.NewMonitor(health.Config{
		Interval:    10 * time.Millisecond,
		StopTimeout: time.Second,
		Prober:      prober,
		Resolver:    resolver,
		Registry:    service.NewRegistry(),
		Logger:      zerolog.Nop(),
	}, postgresTarget)
}

func TestMonitor_NoCallbacksWhileHealthy(t *testing.T) {
	prober := &switchProber{}
	prober.healthy.Store(true)
	monitor := newTestMonitor(prober, &stubResolver{replacement: sqliteTarget})

	var calls atomic.Int32
	monitor.OnTransition(func(bool, service.Implementation) {
		calls.Add(1)
	})

	monitor.Start()
	defer monitor.Stop()

	time.Sleep(100 * time.Millisecond)
	assert.Zero(t, calls.Load(), "steady healthy state must not fire callbacks")
}

func TestMonitor_TransitionFiresOnceAndReconnects(t *testing.T) {
	prober := &switchProber{}
	prober.healthy.Store(true)
	resolver := &stubResolver{replacement: sqliteTarget}
	monitor := newTestMonitor(prober, resolver)

	var unhealthyCalls atomic.Int32
	monitor.OnTransition(func(healthy bool, impl service.Implementation) {
		if !healthy {
			unhealthyCalls.Add(1)
			assert.Equal(t, service.ImplPostgres, impl)
		}
	})

	monitor.Start()
	defer monitor.Stop()

	prober.healthy.Store(false)

	assert.Eventually(t, func() bool {
		return unhealthyCalls.Load() == 1
	}, time.Second, 5*time.Millisecond)

	// Failure swaps the active target through the resolver.
	assert.Eventually(t, func() bool {
		return monitor.Active().Implementation == service.ImplSQLite
	}, time.Second, 5*time.Millisecond)
	assert.GreaterOrEqual(t, resolver.callCount(), 1)

	// Still unhealthy on later cycles: the callback must not fire again.
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, int32(1), unhealthyCalls.Load())
}

func TestMonitor_RecoveryTransition(t *testing.T) {
	prober := &switchProber{}
	prober.healthy.Store(true)
	monitor := newTestMonitor(prober, &stubResolver{replacement: sqliteTarget})

	var recoveries atomic.Int32
	monitor.OnTransition(func(healthy bool, _ service.Implementation) {
		if healthy {
			recoveries.Add(1)
		}
	})

	monitor.Start()
	defer monitor.Stop()

	prober.healthy.Store(false)
	assert.Eventually(t, func() bool {
		return monitor.Active().Implementation == service.ImplSQLite
	}, time.Second, 5*time.Millisecond)

	prober.healthy.Store(true)
	assert.Eventually(t, func() bool {
		return recoveries.Load() == 1
	}, time.Second, 5*time.Millisecond)
}

func TestMonitor_CallbackPanicContained(t *testing.T) {
	prober := &switchProber{}
	prober.healthy.Store(true)
	monitor := newTestMonitor(prober, &stubResolver{replacement: sqliteTarget})

	var sane atomic.Int32
	monitor.OnTransition(func(bool, service.Implementation) {
		panic("bad subscriber")
	})
	monitor.OnTransition(func(bool, service.Implementation) {
		sane.Add(1)
	})

	monitor.Start()
	defer monitor.Stop()

	prober.healthy.Store(false)
	assert.Eventually(t, func() bool {
		return sane.Load() == 1
	}, time.Second, 5*time.Millisecond)
	assert.True(t, monitor.Running(), "loop must survive a panicking callback")
}

func TestMonitor_ProbePanicContained(t *testing.T) {
	prober := &switchProber{}
	prober.healthy.Store(true)
	monitor := newTestMonitor(prober, &stubResolver{replacement: sqliteTarget})

	monitor.Start()
	defer monitor.Stop()

	prober.panics.Store(true)
	time.Sleep(50 * time.Millisecond)
	assert.True(t, monitor.Running(), "loop must survive a panicking probe")
}

func TestMonitor_StartTwiceIsNoop(t *testing.T) {
	prober := &switchProber{}
	prober.healthy.Store(true)
	monitor := newTestMonitor(prober, &stubResolver{replacement: sqliteTarget})

	monitor.Start()
	monitor.Start()
	assert.True(t, monitor.Running())

	monitor.Stop()
	assert.False(t, monitor.Running())
}

func TestMonitor_StopIdempotent(t *testing.T) {
	prober := &switchProber{}
	monitor := newTestMonitor(prober, &stubResolver{replacement: sqliteTarget})

	// Never started: both are no-ops.
	monitor.Stop()
	monitor.Stop()

	monitor.Start()
	monitor.Stop()
	monitor.Stop()
	assert.False(t, monitor.Running())
}
