// Package service defines the shared vocabulary for backing services: roles,
// concrete implementations, resolved connection targets and probe results.
package service

import "time"

// Role is an abstract service category a call site depends on without caring
// which concrete backend satisfies it.
type Role string

// Supported roles.
const (
	RoleDatabase Role = "database"
	RoleCache    Role = "cache"
)

// Implementation identifies a concrete backend.
type Implementation string

// Supported implementations.
const (
	ImplPostgres Implementation = "postgres"
	ImplSQLite   Implementation = "sqlite"
	ImplRedis    Implementation = "redis"
	ImplMemory   Implementation = "memory"
)

// ConnectionTarget is a resolved backend selection for a role. It is
// immutable once selected; a reconnect replaces the whole value.
type ConnectionTarget struct {
	Role             Role
	Implementation   Implementation
	ConnectionString string
	Options          map[string]string
}

// Name returns the registry key for this target's implementation.
func (t ConnectionTarget) Name() string {
	return string(t.Implementation)
}

// Status is the outcome of a single probe against one backend. Only the
// latest value per service name is retained; no history is kept.
type Status struct {
	// Name is the service identifier, e.g. "postgres" or "redis".
	Name string `json:"name"`

	// Available reports whether the last probe succeeded.
	Available bool `json:"available"`

	// LastCheck is when the probe ran.
	LastCheck time.Time `json:"last_check"`

	// Error holds the failure detail, secrets masked. Empty when available.
	Error string `json:"error,omitempty"`

	// ConnectionString is the masked connection string that was probed.
	ConnectionString string `json:"connection_string,omitempty"`
}
