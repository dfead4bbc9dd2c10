package contact

import "context"

// ListOptions contains options for listing contacts.
type ListOptions struct {
	Limit  int
	Offset int
}

// Repository defines the interface for contact persistence.
type Repository interface {
	// Get retrieves a contact by tenant and ID. Soft-deleted contacts are
	// not returned.
	Get(ctx context.Context, tenantID, id string) (*Contact, error)

	// List retrieves a tenant's contacts ordered by creation time.
	List(ctx context.Context, tenantID string, opts ListOptions) ([]*Contact, error)

	// Create inserts a new contact.
	Create(ctx context.Context, contact *Contact) error

	// Update persists changes to an existing contact.
	Update(ctx context.Context, contact *Contact) error

	// SoftDelete marks a contact deleted without removing the row.
	SoftDelete(ctx context.Context, tenantID, id string) error
}
