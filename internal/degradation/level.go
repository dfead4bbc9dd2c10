// Package degradation derives feature flags, advisory messages and an
// overall service level from the current state of the service registry.
package degradation

// Level describes how far a service has departed from full availability.
type Level string

// Degradation levels, from best to worst.
const (
	LevelFull        Level = "full"
	LevelDegraded    Level = "degraded"
	LevelMinimal     Level = "minimal"
	LevelUnavailable Level = "unavailable"
)

// rank orders levels for aggregation; higher is worse.
func (l Level) rank() int {
	switch l {
	case LevelFull:
		return 0
	case LevelDegraded:
		return 1
	case LevelMinimal:
		return 2
	case LevelUnavailable:
		return 3
	default:
		return 0
	}
}

// Worse reports whether l is a worse level than other.
func (l Level) Worse(other Level) bool {
	return l.rank() > other.rank()
}

// Severity classifies configuration issues.
type Severity string

// Issue severities.
const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

// Priority orders user notifications.
type Priority string

// Notification priorities.
const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
	PriorityUrgent Priority = "urgent"
)

// rank orders priorities for sorting; higher sorts first.
func (p Priority) rank() int {
	switch p {
	case PriorityUrgent:
		return 3
	case PriorityHigh:
		return 2
	case PriorityMedium:
		return 1
	case PriorityLow:
		return 0
	default:
		return 0
	}
}
