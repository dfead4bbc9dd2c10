// Package contact provides CRM contact management.
package contact

import (
	"errors"
	"time"
)

// Predefined contact errors.
var (
	// ErrContactNotFound is returned when a contact does not exist or is
	// soft-deleted.
	ErrContactNotFound = errors.New("contact not found")

	// ErrReadOnly is returned for writes while the database is unavailable.
	ErrReadOnly = errors.New("contact store is read-only while the database is unavailable")
)

// Contact is a CRM contact belonging to one tenant.
type Contact struct {
	ID        string     `json:"id"`
	TenantID  string     `json:"tenantId"`
	Name      string     `json:"name"`
	Email     string     `json:"email,omitempty"`
	Phone     string     `json:"phone,omitempty"`
	Company   string     `json:"company,omitempty"`
	CreatedAt time.Time  `json:"createdAt"`
	UpdatedAt time.Time  `json:"updatedAt"`
	DeletedAt *time.Time `json:"-"`
}
