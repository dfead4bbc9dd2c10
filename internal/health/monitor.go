// Package health runs the background polling loop that watches the active
// database connection and reconnects through the fallback resolver when it
// goes away.
package health

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/relayline/relayline/internal/service"
)

// DefaultStopTimeout bounds how long Stop waits for the loop to exit.
const DefaultStopTimeout = 5 * time.Second

// Prober checks a single backend.
type Prober interface {
	Probe(ctx context.Context, target service.ConnectionTarget) service.Status
}

// Resolver re-selects a backend for a role after a failure.
type Resolver interface {
	Resolve(ctx context.Context, role service.Role) service.ConnectionTarget
}

// TransitionFunc is invoked when the active connection's availability
// changes. It receives the new health state and the active implementation.
type TransitionFunc func(healthy bool, impl service.Implementation)

// Config holds configuration for a Monitor.
type Config struct {
	// Interval between health checks. Defaults to 30s.
	Interval time.Duration

	// StopTimeout bounds Stop's wait for loop exit. Defaults to 5s.
	StopTimeout time.Duration

	Prober   Prober
	Resolver Resolver
	Registry *service.Registry
	Logger   zerolog.Logger
}

// Monitor owns exactly one polling goroutine that re-probes the currently
// active connection target, fires callbacks on availability transitions and
// attempts a reconnect through the resolver on failure. The monitor is the
// single writer of the active target after startup.
type Monitor struct {
	interval    time.Duration
	stopTimeout time.Duration
	prober      Prober
	resolver    Resolver
	registry    *service.Registry
	logger      zerolog.Logger

	mu          sync.Mutex
	callbacks   []TransitionFunc
	active      service.ConnectionTarget
	lastHealthy bool
	running     bool
	stop        chan struct{}
	done        chan struct{}
}

// NewMonitor creates a Monitor for the given active target. The target is
// assumed healthy at creation; the first check corrects that if needed.
func NewMonitor(cfg Config, active service.ConnectionTarget) *Monitor {
	interval := cfg.Interval
	if interval <= 0 {
		interval = 30 * time.Second
	}
	stopTimeout := cfg.StopTimeout
	if stopTimeout <= 0 {
		stopTimeout = DefaultStopTimeout
	}

	return &Monitor{
		interval:    interval,
		stopTimeout: stopTimeout,
		prober:      cfg.Prober,
		resolver:    cfg.Resolver,
		registry:    cfg.Registry,
		logger:      cfg.Logger,
		active:      active,
		lastHealthy: true,
	}
}

// OnTransition registers a callback fired on every availability change.
// Callbacks registered after Start are picked up on the next cycle.
func (m *Monitor) OnTransition(fn TransitionFunc) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.callbacks = append(m.callbacks, fn)
}

// Active returns the currently active connection target.
func (m *Monitor) Active() service.ConnectionTarget {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.active
}

// Start launches the polling loop. Starting an already-running monitor is
// a no-op.
func (m *Monitor) Start() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.running {
		return
	}
	m.running = true
	m.stop = make(chan struct{})
	m.done = make(chan struct{})

	go m.loop(m.stop, m.done)

	m.logger.Info().
		Dur("interval", m.interval).
		Str("implementation", string(m.active.Implementation)).
		Msg("health monitor started")
}

// Stop signals the loop to exit and waits, bounded, for it to terminate.
// Stopping a stopped (or never-started) monitor is a no-op.
func (m *Monitor) Stop() {
	m.mu.Lock()
	if !m.running {
		m.mu.Unlock()
		return
	}
	m.running = false
	stop, done := m.stop, m.done
	m.mu.Unlock()

	close(stop)
	select {
	case <-done:
		m.logger.Info().Msg("health monitor stopped")
	case <-time.After(m.stopTimeout):
		m.logger.Warn().Msg("health monitor did not stop within timeout")
	}
}

// Running reports whether the polling loop is live.
func (m *Monitor) Running() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.running
}

func (m *Monitor) loop(stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)

	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			m.check(context.Background())
		}
	}
}

// check probes the active target once, records the result and handles
// transitions. Any failure inside a cycle is contained; the loop always
// survives to its next tick.
func (m *Monitor) check(ctx context.Context) {
	defer func() {
		if r := recover(); r != nil {
			m.logger.Error().Interface("panic", r).Msg("health check cycle panicked")
		}
	}()

	active := m.Active()
	status := m.prober.Probe(ctx, active)
	m.registry.Record(status)

	m.mu.Lock()
	changed := status.Available != m.lastHealthy
	m.lastHealthy = status.Available
	callbacks := make([]TransitionFunc, len(m.callbacks))
	copy(callbacks, m.callbacks)
	m.mu.Unlock()

	if !changed {
		return
	}

	m.logger.Warn().
		Str("implementation", string(active.Implementation)).
		Bool("healthy", status.Available).
		Str("error", status.Error).
		Msg("availability transition detected")

	for _, fn := range callbacks {
		m.invoke(fn, status.Available, active.Implementation)
	}

	if !status.Available {
		m.reconnect(ctx, active)
	}
}

// invoke runs one callback with panic containment so a bad subscriber
// cannot kill the monitor loop.
func (m *Monitor) invoke(fn TransitionFunc, healthy bool, impl service.Implementation) {
	defer func() {
		if r := recover(); r != nil {
			m.logger.Error().Interface("panic", r).Msg("transition callback panicked")
		}
	}()
	fn(healthy, impl)
}

// reconnect re-runs the fallback resolver for the failed role and swaps the
// active target. A recovery transition is expected on the next cycle.
func (m *Monitor) reconnect(ctx context.Context, failed service.ConnectionTarget) {
	replacement := m.resolver.Resolve(ctx, failed.Role)

	m.mu.Lock()
	m.active = replacement
	m.mu.Unlock()

	m.logger.Info().
		Str("role", string(failed.Role)).
		Str("from", string(failed.Implementation)).
		Str("to", string(replacement.Implementation)).
		Msg("reconnected via fallback resolver")
}
