// Package probe performs bounded-time reachability checks against backing
// services. A probe is pure: it returns a Status and never touches the
// registry; recording results is the caller's job.
package probe

import (
	"context"
	"fmt"
	"net"
	"net/url"
	"time"

	"github.com/rs/zerolog"

	"github.com/relayline/relayline/internal/service"
)

// DefaultTimeout bounds a single probe when no timeout is configured.
const DefaultTimeout = 5 * time.Second

// Config holds configuration for a Prober.
type Config struct {
	// Timeout bounds both the TCP pre-check and the verification query.
	Timeout time.Duration

	Logger zerolog.Logger
}

// Prober checks one backend at a time: a raw TCP connect first for
// network-backed services, then a minimal protocol-level verification.
type Prober struct {
	timeout time.Duration
	logger  zerolog.Logger
}

// New creates a Prober.
func New(cfg Config) *Prober {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Prober{
		timeout: timeout,
		logger:  cfg.Logger,
	}
}

// Probe checks the target and reports its availability. Failures are
// returned as data, never as an error: an unreachable backend is an
// expected outcome, not an exceptional one.
func (p *Prober) Probe(ctx context.Context, target service.ConnectionTarget) service.Status {
	status := service.Status{
		Name:             target.Name(),
		LastCheck:        time.Now(),
		ConnectionString: service.MaskSecrets(target.ConnectionString),
	}

	var err error
	switch target.Implementation {
	case service.ImplPostgres:
		err = p.probePostgres(ctx, target.ConnectionString)
	case service.ImplSQLite:
		err = p.probeSQLite(ctx, target.ConnectionString)
	case service.ImplRedis:
		err = p.probeRedis(ctx, target.ConnectionString)
	case service.ImplMemory:
		// In-process cache needs no connectivity.
		err = nil
	default:
		err = fmt.Errorf("unknown implementation %q", target.Implementation)
	}

	if err != nil {
		status.Error = service.MaskSecrets(err.Error())
		p.logger.Debug().
			Str("service", status.Name).
			Str("error", status.Error).
			Msg("probe failed")
		return status
	}

	status.Available = true
	return status
}

// checkTCP attempts a raw socket connect so a dead host fails fast, without
// paying the full protocol handshake cost.
func (p *Prober) checkTCP(ctx context.Context, host string, port string) error {
	addr := net.JoinHostPort(host, port)

	dialer := net.Dialer{Timeout: p.timeout}
	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return fmt.Errorf("cannot connect to %s", addr)
	}
	_ = conn.Close()
	return nil
}

// hostPort extracts host and port from a URL-style connection string.
func hostPort(connectionString, defaultPort string) (string, string, error) {
	u, err := url.Parse(connectionString)
	if err != nil {
		return "", "", fmt.Errorf("parse connection string: %w", err)
	}

	host := u.Hostname()
	if host == "" {
		return "", "", fmt.Errorf("connection string has no host")
	}

	port := u.Port()
	if port == "" {
		port = defaultPort
	}
	return host, port, nil
}
