package contact

import (
	"context"
	"sort"
	"sync"
	"time"
)

// MemoryRepository is an in-memory implementation of Repository, used in
// tests and when no database handle could be opened at all.
type MemoryRepository struct {
	mu       sync.RWMutex
	contacts map[string]*Contact
}

// NewMemoryRepository creates an empty in-memory contact repository.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		contacts: make(map[string]*Contact),
	}
}

func nowUTC() time.Time {
	return time.Now().UTC()
}

// Get retrieves a contact by tenant and ID.
func (r *MemoryRepository) Get(_ context.Context, tenantID, id string) (*Contact, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	c, ok := r.contacts[id]
	if !ok || c.TenantID != tenantID || c.DeletedAt != nil {
		return nil, ErrContactNotFound
	}
	clone := *c
	return &clone, nil
}

// List retrieves a tenant's contacts ordered by creation time.
func (r *MemoryRepository) List(_ context.Context, tenantID string, opts ListOptions) ([]*Contact, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	limit := opts.Limit
	if limit <= 0 {
		limit = 50
	}

	var contacts []*Contact
	for _, c := range r.contacts {
		if c.TenantID != tenantID || c.DeletedAt != nil {
			continue
		}
		clone := *c
		contacts = append(contacts, &clone)
	}
	sort.Slice(contacts, func(i, j int) bool {
		if !contacts[i].CreatedAt.Equal(contacts[j].CreatedAt) {
			return contacts[i].CreatedAt.Before(contacts[j].CreatedAt)
		}
		return contacts[i].ID < contacts[j].ID
	})

	if opts.Offset >= len(contacts) {
		return nil, nil
	}
	contacts = contacts[opts.Offset:]
	if len(contacts) > limit {
		contacts = contacts[:limit]
	}
	return contacts, nil
}

// Create inserts a new contact.
func (r *MemoryRepository) Create(_ context.Context, contact *Contact) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	clone := *contact
	r.contacts[contact.ID] = &clone
	return nil
}

// Update persists changes to an existing contact.
func (r *MemoryRepository) Update(_ context.Context, contact *Contact) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	existing, ok := r.contacts[contact.ID]
	if !ok || existing.TenantID != contact.TenantID || existing.DeletedAt != nil {
		return ErrContactNotFound
	}
	clone := *contact
	clone.CreatedAt = existing.CreatedAt
	r.contacts[contact.ID] = &clone
	return nil
}

// SoftDelete marks a contact deleted.
func (r *MemoryRepository) SoftDelete(_ context.Context, tenantID, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	existing, ok := r.contacts[id]
	if !ok || existing.TenantID != tenantID || existing.DeletedAt != nil {
		return ErrContactNotFound
	}
	now := nowUTC()
	existing.DeletedAt = &now
	return nil
}
