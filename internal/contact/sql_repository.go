package contact

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// SQLRepository is a database/sql implementation of Repository. The SQL is
// kept to the intersection both backends accept, so the same repository
// serves the PostgreSQL target and the SQLite fallback.
type SQLRepository struct {
	db *sql.DB
}

// NewSQLRepository creates a SQL contact repository.
func NewSQLRepository(db *sql.DB) *SQLRepository {
	return &SQLRepository{db: db}
}

// EnsureSchema creates the contacts table if it does not exist.
func (r *SQLRepository) EnsureSchema(ctx context.Context) error {
	query := `
		CREATE TABLE IF NOT EXISTS contacts (
			id         TEXT PRIMARY KEY,
			tenant_id  TEXT NOT NULL,
			name       TEXT NOT NULL,
			email      TEXT NOT NULL DEFAULT '',
			phone      TEXT NOT NULL DEFAULT '',
			company    TEXT NOT NULL DEFAULT '',
			created_at TIMESTAMP NOT NULL,
			updated_at TIMESTAMP NOT NULL,
			deleted_at TIMESTAMP
		)
	`
	if _, err := r.db.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("ensure contacts schema: %w", err)
	}
	return nil
}

// Get retrieves a contact by tenant and ID.
func (r *SQLRepository) Get(ctx context.Context, tenantID, id string) (*Contact, error) {
	query := `
		SELECT id, tenant_id, name, email, phone, company, created_at, updated_at
		FROM contacts
		WHERE tenant_id = $1 AND id = $2 AND deleted_at IS NULL
	`

	var c Contact
	err := r.db.QueryRowContext(ctx, query, tenantID, id).Scan(
		&c.ID,
		&c.TenantID,
		&c.Name,
		&c.Email,
		&c.Phone,
		&c.Company,
		&c.CreatedAt,
		&c.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrContactNotFound
		}
		return nil, err
	}
	return &c, nil
}

// List retrieves a tenant's contacts ordered by creation time.
func (r *SQLRepository) List(ctx context.Context, tenantID string, opts ListOptions) ([]*Contact, error) {
	limit := opts.Limit
	if limit <= 0 {
		limit = 50
	}

	query := `
		SELECT id, tenant_id, name, email, phone, company, created_at, updated_at
		FROM contacts
		WHERE tenant_id = $1 AND deleted_at IS NULL
		ORDER BY created_at, id
		LIMIT $2 OFFSET $3
	`

	rows, err := r.db.QueryContext(ctx, query, tenantID, limit, opts.Offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var contacts []*Contact
	for rows.Next() {
		var c Contact
		if err := rows.Scan(
			&c.ID,
			&c.TenantID,
			&c.Name,
			&c.Email,
			&c.Phone,
			&c.Company,
			&c.CreatedAt,
			&c.UpdatedAt,
		); err != nil {
			return nil, err
		}
		contacts = append(contacts, &c)
	}
	return contacts, rows.Err()
}

// Create inserts a new contact.
func (r *SQLRepository) Create(ctx context.Context, contact *Contact) error {
	query := `
		INSERT INTO contacts (id, tenant_id, name, email, phone, company, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	_, err := r.db.ExecContext(ctx, query,
		contact.ID,
		contact.TenantID,
		contact.Name,
		contact.Email,
		contact.Phone,
		contact.Company,
		contact.CreatedAt,
		contact.UpdatedAt,
	)
	return err
}

// Update persists changes to an existing contact.
func (r *SQLRepository) Update(ctx context.Context, contact *Contact) error {
	query := `
		UPDATE contacts
		SET name = $1, email = $2, phone = $3, company = $4, updated_at = $5
		WHERE tenant_id = $6 AND id = $7 AND deleted_at IS NULL
	`

	result, err := r.db.ExecContext(ctx, query,
		contact.Name,
		contact.Email,
		contact.Phone,
		contact.Company,
		contact.UpdatedAt,
		contact.TenantID,
		contact.ID,
	)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrContactNotFound
	}
	return nil
}

// SoftDelete marks a contact deleted.
func (r *SQLRepository) SoftDelete(ctx context.Context, tenantID, id string) error {
	query := `
		UPDATE contacts
		SET deleted_at = $1
		WHERE tenant_id = $2 AND id = $3 AND deleted_at IS NULL
	`

	result, err := r.db.ExecContext(ctx, query, nowUTC(), tenantID, id)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrContactNotFound
	}
	return nil
}
