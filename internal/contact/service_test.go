package contact_test

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/relayline/relayline/internal/contact"
)

func newService(t *testing.T, writable bool) *contact.Service {
	t.Helper()
	return contact.NewService(contact.ServiceConfig{
		Repository: contact.NewMemoryRepository(),
		WriteGuard: func() bool { return writable },
		Logger:     zerolog.Nop(),
	})
}

func TestService_CreateAndGet(t *testing.T) {
	ctx := context.Background()
	svc := newService(t, true)

	created, err := svc.Create(ctx, "tenant-1", contact.CreateInput{
		Name:    "  Ada Lovelace  ",
		Email:   "ada@example.com",
		Company: "Analytical Engines",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, created.ID)
	assert.Equal(t, "Ada Lovelace", created.Name, "input is trimmed")
	assert.Equal(t, "tenant-1", created.TenantID)
	assert.False(t, created.CreatedAt.IsZero())

	got, err := svc.Get(ctx, "tenant-1", created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.ID, got.ID)
}

func TestService_CreateValidation(t *testing.T) {
	ctx := context.Background()
	svc := newService(t, true)

	_, err := svc.Create(ctx, "tenant-1", contact.CreateInput{Name: "   "})
	assert.ErrorIs(t, err, contact.ErrValidation)

	_, err = svc.Create(ctx, "tenant-1", contact.CreateInput{
		Name:  "Ada",
		Email: "not-an-email",
	})
	assert.ErrorIs(t, err, contact.ErrValidation)

	// Email is optional.
	_, err = svc.Create(ctx, "tenant-1", contact.CreateInput{Name: "Ada"})
	assert.NoError(t, err)
}

func TestService_WritesRejectedWhenReadOnly(t *testing.T) {
	ctx := context.Background()
	svc := newService(t, false)

	_, err := svc.Create(ctx, "tenant-1", contact.CreateInput{Name: "Ada"})
	assert.ErrorIs(t, err, contact.ErrReadOnly)

	_, err = svc.Update(ctx, "tenant-1", "some-id", contact.CreateInput{Name: "Ada"})
	assert.ErrorIs(t, err, contact.ErrReadOnly)

	err = svc.Delete(ctx, "tenant-1", "some-id")
	assert.ErrorIs(t, err, contact.ErrReadOnly)
}

func TestService_ReadsStillWorkWhenReadOnly(t *testing.T) {
	ctx := context.Background()
	repo := contact.NewMemoryRepository()

	writable := true
	svc := contact.NewService(contact.ServiceConfig{
		Repository: repo,
		WriteGuard: func() bool { return writable },
		Logger:     zerolog.Nop(),
	})

	created, err := svc.Create(ctx, "tenant-1", contact.CreateInput{Name: "Ada"})
	require.NoError(t, err)

	writable = false
	got, err := svc.Get(ctx, "tenant-1", created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.ID, got.ID)

	list, err := svc.List(ctx, "tenant-1", contact.ListOptions{})
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestService_UpdateAndDelete(t *testing.T) {
	ctx := context.Background()
	svc := newService(t, true)

	created, err := svc.Create(ctx, "tenant-1", contact.CreateInput{Name: "Ada"})
	require.NoError(t, err)

	updated, err := svc.Update(ctx, "tenant-1", created.ID, contact.CreateInput{
		Name:  "Ada Lovelace",
		Phone: "+31 6 1234 5678",
	})
	require.NoError(t, err)
	assert.Equal(t, "Ada Lovelace", updated.Name)
	assert.Equal(t, created.CreatedAt, updated.CreatedAt)

	require.NoError(t, svc.Delete(ctx, "tenant-1", created.ID))

	_, err = svc.Get(ctx, "tenant-1", created.ID)
	assert.ErrorIs(t, err, contact.ErrContactNotFound)
}

func TestService_TenantIsolation(t *testing.T) {
	ctx := context.Background()
	svc := newService(t, true)

	created, err := svc.Create(ctx, "tenant-1", contact.CreateInput{Name: "Ada"})
	require.NoError(t, err)

	_, err = svc.Get(ctx, "tenant-2", created.ID)
	assert.ErrorIs(t, err, contact.ErrContactNotFound)

	list, err := svc.List(ctx, "tenant-2", contact.ListOptions{})
	require.NoError(t, err)
	assert.Empty(t, list)
}
