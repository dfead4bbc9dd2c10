package contact_test

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"

	"github.com/relayline/relayline/internal/contact"
)

// The SQL repository targets the SQL subset both backends accept, so the
// SQLite driver doubles as the test backend for the shared queries.
func newSQLRepo(t *testing.T) *contact.SQLRepository {
	t.Helper()

	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	// In-memory SQLite lives per connection.
	db.SetMaxOpenConns(1)

	repo := contact.NewSQLRepository(db)
	require.NoError(t, repo.EnsureSchema(context.Background()))
	return repo
}

func seed(t *testing.T, repo *contact.SQLRepository, tenantID, name string, at time.Time) *contact.Contact {
	t.Helper()
	c := &contact.Contact{
		ID:        uuid.New().String(),
		TenantID:  tenantID,
		Name:      name,
		CreatedAt: at,
		UpdatedAt: at,
	}
	require.NoError(t, repo.Create(context.Background(), c))
	return c
}

func TestSQLRepository_CreateAndGet(t *testing.T) {
	ctx := context.Background()
	repo := newSQLRepo(t)

	created := seed(t, repo, "tenant-1", "Ada", time.Now().UTC().Truncate(time.Second))

	got, err := repo.Get(ctx, "tenant-1", created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.ID, got.ID)
	assert.Equal(t, "Ada", got.Name)
}

func TestSQLRepository_GetMissing(t *testing.T) {
	repo := newSQLRepo(t)

	_, err := repo.Get(context.Background(), "tenant-1", "no-such-id")
	assert.ErrorIs(t, err, contact.ErrContactNotFound)
}

func TestSQLRepository_ListOrderedAndPaged(t *testing.T) {
	ctx := context.Background()
	repo := newSQLRepo(t)

	base := time.Now().UTC().Truncate(time.Second)
	seed(t, repo, "tenant-1", "third", base.Add(2*time.Second))
	seed(t, repo, "tenant-1", "first", base)
	seed(t, repo, "tenant-1", "second", base.Add(time.Second))
	seed(t, repo, "tenant-2", "other", base)

	all, err := repo.List(ctx, "tenant-1", contact.ListOptions{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "first", all[0].Name)
	assert.Equal(t, "second", all[1].Name)
	assert.Equal(t, "third", all[2].Name)

	page, err := repo.List(ctx, "tenant-1", contact.ListOptions{Limit: 1, Offset: 1})
	require.NoError(t, err)
	require.Len(t, page, 1)
	assert.Equal(t, "second", page[0].Name)
}

func TestSQLRepository_Update(t *testing.T) {
	ctx := context.Background()
	repo := newSQLRepo(t)

	created := seed(t, repo, "tenant-1", "Ada", time.Now().UTC().Truncate(time.Second))
	created.Name = "Ada Lovelace"
	created.UpdatedAt = created.UpdatedAt.Add(time.Minute)

	require.NoError(t, repo.Update(ctx, created))

	got, err := repo.Get(ctx, "tenant-1", created.ID)
	require.NoError(t, err)
	assert.Equal(t, "Ada Lovelace", got.Name)
}

func TestSQLRepository_UpdateMissing(t *testing.T) {
	repo := newSQLRepo(t)

	err := repo.Update(context.Background(), &contact.Contact{
		ID:       "no-such-id",
		TenantID: "tenant-1",
		Name:     "Ghost",
	})
	assert.ErrorIs(t, err, contact.ErrContactNotFound)
}

func TestSQLRepository_SoftDelete(t *testing.T) {
	ctx := context.Background()
	repo := newSQLRepo(t)

	created := seed(t, repo, "tenant-1", "Ada", time.Now().UTC().Truncate(time.Second))

	require.NoError(t, repo.SoftDelete(ctx, "tenant-1", created.ID))

	_, err := repo.Get(ctx, "tenant-1", created.ID)
	assert.ErrorIs(t, err, contact.ErrContactNotFound)

	list, err := repo.List(ctx, "tenant-1", contact.ListOptions{})
	require.NoError(t, err)
	assert.Empty(t, list)

	// Already deleted: second soft delete misses.
	err = repo.SoftDelete(ctx, "tenant-1", created.ID)
	assert.ErrorIs(t, err, contact.ErrContactNotFound)
}

func TestSQLRepository_TenantIsolation(t *testing.T) {
	ctx := context.Background()
	repo := newSQLRepo(t)

	created := seed(t, repo, "tenant-1", "Ada", time.Now().UTC())

	_, err := repo.Get(ctx, "tenant-2", created.ID)
	assert.ErrorIs(t, err, contact.ErrContactNotFound)

	err = repo.SoftDelete(ctx, "tenant-2", created.ID)
	assert.ErrorIs(t, err, contact.ErrContactNotFound)
}
