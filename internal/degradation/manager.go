package degradation

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/relayline/relayline/internal/config"
	"github.com/relayline/relayline/internal/service"
)

// Feature flag names. Flags have no independent state: each one is a pure
// function of current service availability or credential presence.
const (
	FlagCacheRedis     = "cache_redis"
	FlagRateLimiting   = "rate_limiting"
	FlagTaskQueue      = "task_queue"
	FlagSessionStore   = "session_store"
	FlagAIAssist       = "ai_assist"
	FlagBilling        = "billing"
	FlagTelegramAlerts = "telegram_alerts"
)

// Degradation records one service's departure from full availability. It is
// superseded, not accumulated, on each reassessment.
type Degradation struct {
	ServiceName          string    `json:"service_name"`
	Level                Level     `json:"level"`
	Reason               string    `json:"reason"`
	FallbackEnabled      bool      `json:"fallback_enabled"`
	UserMessage          string    `json:"user_message,omitempty"`
	AdminMessage         string    `json:"admin_message,omitempty"`
	RecoveryInstructions []string  `json:"recovery_instructions,omitempty"`
	Timestamp            time.Time `json:"timestamp"`
}

// Snapshot is the aggregate view served by the status endpoint.
type Snapshot struct {
	OverallLevel        Level
	HealthScore         float64
	DegradedServices    int
	UnavailableServices int
	ConfigurationIssues int
	CriticalIssues      int
	Degradations        []Degradation
}

// ManagerConfig holds dependencies for a Manager.
type ManagerConfig struct {
	Registry      *service.Registry
	Config        config.Config
	Issues        []Issue
	Notifications *Center
	Logger        zerolog.Logger
}

// Manager derives degradation records, feature flags and advisory
// notifications from the service registry. It never mutates the registry.
type Manager struct {
	registry *service.Registry
	cfg      config.Config
	issues   []Issue
	center   *Center
	logger   zerolog.Logger

	mu             sync.RWMutex
	activeDatabase service.ConnectionTarget
	activeCache    service.ConnectionTarget
	degradations   map[string]Degradation
}

// NewManager creates a Manager. Call SetActiveTargets and Assess before
// serving traffic.
func NewManager(cfg ManagerConfig) *Manager {
	center := cfg.Notifications
	if center == nil {
		center = NewCenter(DefaultNotificationCap)
	}
	return &Manager{
		registry:     cfg.Registry,
		cfg:          cfg.Config,
		issues:       cfg.Issues,
		center:       center,
		logger:       cfg.Logger,
		degradations: make(map[string]Degradation),
	}
}

// SetActiveTargets records the targets the resolver selected. The health
// monitor calls this again after a reconnect swaps the database target.
func (m *Manager) SetActiveTargets(database, cache service.ConnectionTarget) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.activeDatabase = database
	m.activeCache = cache
}

// SetActiveDatabase updates only the database target.
func (m *Manager) SetActiveDatabase(database service.ConnectionTarget) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.activeDatabase = database
}

// Assess re-derives the per-role degradation records from the current
// registry state and pushes notifications for level changes. Existing
// records are superseded wholesale.
func (m *Manager) Assess() {
	m.mu.Lock()

	previous := m.degradations
	current := make(map[string]Degradation)

	if d := m.assessDatabase(); d != nil {
		current[d.ServiceName] = *d
	}
	if d := m.assessCache(); d != nil {
		current[d.ServiceName] = *d
	}

	m.degradations = current
	m.mu.Unlock()

	m.notifyTransitions(previous, current)
}

// assessDatabase derives the database role's degradation, if any. Caller
// holds m.mu.
func (m *Manager) assessDatabase() *Degradation {
	target := m.activeDatabase
	status, probed := m.registry.Get(target.Name())
	now := time.Now()

	if probed && !status.Available {
		tmpl, _ := Lookup(MsgDatabaseUnavailable, LangEnglish)
		return &Degradation{
			ServiceName:          string(service.RoleDatabase),
			Level:                LevelUnavailable,
			Reason:               "no database backend is reachable",
			FallbackEnabled:      false,
			UserMessage:          tmpl.Body,
			AdminMessage:         fmt.Sprintf("active target %s failed: %s", target.Name(), status.Error),
			RecoveryInstructions: tmpl.ResolutionSteps,
			Timestamp:            now,
		}
	}

	// SQLite chosen as a fallback (not forced or preferred) means the
	// primary database is down even though the app keeps working.
	if target.Implementation == service.ImplSQLite && !m.cfg.ForceSQLite && !m.cfg.PreferSQLite {
		tmpl, _ := Lookup(MsgDatabaseFallback, LangEnglish)
		admin := "primary database unreachable, running on SQLite fallback"
		if pg, ok := m.registry.Get(string(service.ImplPostgres)); ok && pg.Error != "" {
			admin = fmt.Sprintf("%s: %s", admin, pg.Error)
		}
		return &Degradation{
			ServiceName:          string(service.RoleDatabase),
			Level:                LevelDegraded,
			Reason:               "primary database unreachable",
			FallbackEnabled:      true,
			UserMessage:          tmpl.Body,
			AdminMessage:         admin,
			RecoveryInstructions: tmpl.ResolutionSteps,
			Timestamp:            now,
		}
	}

	return nil
}

// assessCache derives the cache role's degradation, if any. Caller holds
// m.mu.
func (m *Manager) assessCache() *Degradation {
	target := m.activeCache
	if target.Implementation != service.ImplMemory {
		return nil
	}

	tmpl, _ := Lookup(MsgCacheFallback, LangEnglish)
	admin := "redis unreachable, caching runs in-process"
	if rd, ok := m.registry.Get(string(service.ImplRedis)); ok && rd.Error != "" {
		admin = fmt.Sprintf("%s: %s", admin, rd.Error)
	}
	return &Degradation{
		ServiceName:          string(service.RoleCache),
		Level:                LevelDegraded,
		Reason:               "redis unreachable",
		FallbackEnabled:      true,
		UserMessage:          tmpl.Body,
		AdminMessage:         admin,
		RecoveryInstructions: tmpl.ResolutionSteps,
		Timestamp:            time.Now(),
	}
}

// notifyTransitions pushes a notification for every role whose level moved.
func (m *Manager) notifyTransitions(previous, current map[string]Degradation) {
	names := make(map[string]struct{}, len(previous)+len(current))
	for name := range previous {
		names[name] = struct{}{}
	}
	for name := range current {
		names[name] = struct{}{}
	}

	for name := range names {
		oldLevel, newLevel := LevelFull, LevelFull
		if d, ok := previous[name]; ok {
			oldLevel = d.Level
		}
		if d, ok := current[name]; ok {
			newLevel = d.Level
		}
		if oldLevel == newLevel {
			continue
		}

		if !newLevel.Worse(oldLevel) && newLevel == LevelFull {
			m.center.Push(MsgServiceRecovered)
			continue
		}

		switch {
		case name == string(service.RoleDatabase) && newLevel == LevelUnavailable:
			m.center.Push(MsgDatabaseUnavailable)
		case name == string(service.RoleDatabase):
			m.center.Push(MsgDatabaseFallback)
		case name == string(service.RoleCache):
			m.center.Push(MsgCacheFallback)
		}
	}
}

// OverallLevel aggregates degradations into one level. A database outage is
// distinguished from everything else: the app cannot function without it,
// whereas any other failure only reduces capability.
func (m *Manager) OverallLevel() Level {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if d, ok := m.degradations[string(service.RoleDatabase)]; ok && d.Level == LevelUnavailable {
		return LevelUnavailable
	}

	for _, d := range m.degradations {
		if d.Level != LevelFull {
			return LevelDegraded
		}
	}
	return LevelFull
}

// HealthScore computes the linear advisory score in [0, 100]:
// 100 − (degraded×10 + unavailable×20 + critical_issues×30).
func (m *Manager) HealthScore() float64 {
	degraded, unavailable := m.countLevels()
	critical := CountCritical(m.issues)

	score := 100.0 - float64(degraded*10+unavailable*20+critical*30)
	if score < 0 {
		return 0
	}
	return score
}

func (m *Manager) countLevels() (degraded, unavailable int) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, d := range m.degradations {
		switch d.Level {
		case LevelDegraded, LevelMinimal:
			degraded++
		case LevelUnavailable:
			unavailable++
		}
	}
	return degraded, unavailable
}

// Features returns every flag evaluated against the current registry state
// and environment. No hysteresis: toggling the underlying probe result and
// reassessing toggles the flag identically.
func (m *Manager) Features() map[string]bool {
	redisUp := m.registry.IsAvailable(string(service.ImplRedis))
	return map[string]bool{
		FlagCacheRedis:     redisUp,
		FlagRateLimiting:   redisUp,
		FlagTaskQueue:      redisUp,
		FlagSessionStore:   redisUp,
		FlagAIAssist:       m.cfg.OpenAIAPIKey != "",
		FlagBilling:        m.cfg.StripeSecretKey != "",
		FlagTelegramAlerts: m.cfg.TelegramBotToken != "",
	}
}

// IsFeatureEnabled reports whether the named flag is on. Unknown flags are
// off.
func (m *Manager) IsFeatureEnabled(name string) bool {
	return m.Features()[name]
}

// IsServiceAvailable reports availability for a role name ("database",
// "cache") or a concrete service name ("postgres", "redis").
func (m *Manager) IsServiceAvailable(name string) bool {
	m.mu.RLock()
	d, degraded := m.degradations[name]
	isRole := name == string(service.RoleDatabase) || name == string(service.RoleCache)
	m.mu.RUnlock()

	if degraded {
		return d.Level != LevelUnavailable
	}
	if isRole {
		// No degradation recorded for the role means it is fully available.
		return true
	}
	return m.registry.IsAvailable(name)
}

// Degradations returns the current records sorted by service name.
func (m *Manager) Degradations() []Degradation {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]Degradation, 0, len(m.degradations))
	for _, d := range m.degradations {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ServiceName < out[j].ServiceName })
	return out
}

// Degradation returns the record for one service name.
func (m *Manager) Degradation(name string) (Degradation, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	d, ok := m.degradations[name]
	return d, ok
}

// Issues returns the startup configuration issues.
func (m *Manager) Issues() []Issue {
	return m.issues
}

// Notifications returns the notification center.
func (m *Manager) Notifications() *Center {
	return m.center
}

// StatusSnapshot assembles the aggregate status view.
func (m *Manager) StatusSnapshot() Snapshot {
	degraded, unavailable := m.countLevels()
	return Snapshot{
		OverallLevel:        m.OverallLevel(),
		HealthScore:         m.HealthScore(),
		DegradedServices:    degraded,
		UnavailableServices: unavailable,
		ConfigurationIssues: len(m.issues),
		CriticalIssues:      CountCritical(m.issues),
		Degradations:        m.Degradations(),
	}
}
