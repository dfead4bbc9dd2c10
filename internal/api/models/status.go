package models

import (
	"github.com/relayline/relayline/internal/contact"
	"github.com/relayline/relayline/internal/degradation"
	"github.com/relayline/relayline/internal/service"
)

// StatusResponse is the aggregate degradation view served by GET /v1/status.
type StatusResponse struct {
	OverallLevel        degradation.Level         `json:"overall_level"`
	HealthScore         float64                   `json:"health_score"`
	DegradedServices    int                       `json:"degraded_services"`
	UnavailableServices int                       `json:"unavailable_services"`
	ConfigurationIssues int                       `json:"configuration_issues"`
	CriticalIssues      int                       `json:"critical_issues"`
	Services            map[string]service.Status `json:"services"`
	Degradations        []degradation.Degradation `json:"degradations"`

	// Issues is only populated for admin callers.
	Issues []degradation.Issue `json:"issues,omitempty"`
}

// NewStatusResponse builds a StatusResponse from a degradation snapshot and
// the current registry view. Admin-only fields (per-degradation admin
// messages, configuration issue details) are stripped unless admin is set.
func NewStatusResponse(snap degradation.Snapshot, services map[string]service.Status, issues []degradation.Issue, admin bool) StatusResponse {
	degradations := snap.Degradations
	if !admin {
		redacted := make([]degradation.Degradation, len(degradations))
		for i, d := range degradations {
			d.AdminMessage = ""
			redacted[i] = d
		}
		degradations = redacted
		issues = nil
	}

	return StatusResponse{
		OverallLevel:        snap.OverallLevel,
		HealthScore:         snap.HealthScore,
		DegradedServices:    snap.DegradedServices,
		UnavailableServices: snap.UnavailableServices,
		ConfigurationIssues: snap.ConfigurationIssues,
		CriticalIssues:      snap.CriticalIssues,
		Services:            services,
		Degradations:        degradations,
		Issues:              issues,
	}
}

// ServiceStatusResponse is the single-service view served by
// GET /v1/status/services/{name}.
type ServiceStatusResponse struct {
	Service     service.Status           `json:"service"`
	Degradation *degradation.Degradation `json:"degradation,omitempty"`
}

// FeatureResponse is the single-flag view served by GET /v1/features/{name}.
type FeatureResponse struct {
	Name    string `json:"name"`
	Enabled bool   `json:"enabled"`
}

// FeaturesResponse is the full flag map served by GET /v1/features.
type FeaturesResponse struct {
	Features map[string]bool `json:"features"`
}

// NotificationsResponse wraps the active notification list.
type NotificationsResponse struct {
	Notifications []degradation.Notification `json:"notifications"`
}

// HealthResponse is the liveness payload served by GET /v1/ops/health.
type HealthResponse struct {
	Status  string `json:"status"`
	Service string `json:"service"`
	Version string `json:"version,omitempty"`
}

// ReadyResponse is the readiness payload served by GET /v1/ops/ready.
type ReadyResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}

// ContactRequest is the request body for creating or updating a contact.
type ContactRequest struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Phone   string `json:"phone"`
	Company string `json:"company"`
}

// ContactListResponse wraps a page of contacts.
type ContactListResponse struct {
	Contacts []*contact.Contact `json:"contacts"`
	Limit    int                `json:"limit"`
	Offset   int                `json:"offset"`
}
