package contact

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// ErrValidation wraps input validation failures.
var ErrValidation = errors.New("invalid contact")

var emailPattern = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

// WriteGuard reports whether writes are currently allowed. The degradation
// manager supplies this so CRM writes are rejected while the database role
// is unavailable.
type WriteGuard func() bool

// ServiceConfig holds dependencies for the contact service.
type ServiceConfig struct {
	Repository Repository
	WriteGuard WriteGuard
	Logger     zerolog.Logger
}

// Service provides contact lifecycle operations with validation and
// degradation-aware write gating.
type Service struct {
	repo       Repository
	writeGuard WriteGuard
	logger     zerolog.Logger
}

// NewService creates a contact service.
func NewService(cfg ServiceConfig) *Service {
	guard := cfg.WriteGuard
	if guard == nil {
		guard = func() bool { return true }
	}
	return &Service{
		repo:       cfg.Repository,
		writeGuard: guard,
		logger:     cfg.Logger,
	}
}

// CreateInput holds the fields accepted when creating a contact.
type CreateInput struct {
	Name    string
	Email   string
	Phone   string
	Company string
}

// Create validates the input and inserts a new contact.
func (s *Service) Create(ctx context.Context, tenantID string, input CreateInput) (*Contact, error) {
	if !s.writeGuard() {
		return nil, ErrReadOnly
	}
	if err := validate(input.Name, input.Email); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	contact := &Contact{
		ID:        uuid.New().String(),
		TenantID:  tenantID,
		Name:      strings.TrimSpace(input.Name),
		Email:     strings.TrimSpace(input.Email),
		Phone:     strings.TrimSpace(input.Phone),
		Company:   strings.TrimSpace(input.Company),
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.repo.Create(ctx, contact); err != nil {
		return nil, fmt.Errorf("create contact: %w", err)
	}

	s.logger.Info().
		Str("tenant_id", tenantID).
		Str("contact_id", contact.ID).
		Msg("contact created")

	return contact, nil
}

// Get retrieves a contact.
func (s *Service) Get(ctx context.Context, tenantID, id string) (*Contact, error) {
	return s.repo.Get(ctx, tenantID, id)
}

// List retrieves a tenant's contacts.
func (s *Service) List(ctx context.Context, tenantID string, opts ListOptions) ([]*Contact, error) {
	return s.repo.List(ctx, tenantID, opts)
}

// Update validates and persists changes to an existing contact.
func (s *Service) Update(ctx context.Context, tenantID, id string, input CreateInput) (*Contact, error) {
	if !s.writeGuard() {
		return nil, ErrReadOnly
	}
	if err := validate(input.Name, input.Email); err != nil {
		return nil, err
	}

	existing, err := s.repo.Get(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}

	existing.Name = strings.TrimSpace(input.Name)
	existing.Email = strings.TrimSpace(input.Email)
	existing.Phone = strings.TrimSpace(input.Phone)
	existing.Company = strings.TrimSpace(input.Company)
	existing.UpdatedAt = time.Now().UTC()

	if err := s.repo.Update(ctx, existing); err != nil {
		return nil, fmt.Errorf("update contact: %w", err)
	}
	return existing, nil
}

// Delete soft-deletes a contact.
func (s *Service) Delete(ctx context.Context, tenantID, id string) error {
	if !s.writeGuard() {
		return ErrReadOnly
	}
	return s.repo.SoftDelete(ctx, tenantID, id)
}

func validate(name, email string) error {
	if strings.TrimSpace(name) == "" {
		return fmt.Errorf("%w: name is required", ErrValidation)
	}
	if email != "" && !emailPattern.MatchString(strings.TrimSpace(email)) {
		return fmt.Errorf("%w: email format is invalid", ErrValidation)
	}
	return nil
}
