package sqlite

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"myshop/backend/internal/store"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := New(filepath.Join(t.TempDir(), "myshop.db"))
	require.NoError(t, err)
	require.NoError(t, s.Migrate(context.Background()))
	t.Cleanup(func() {
		_ = s.Close()
	})
	return s
}

func TestSQLiteDocumentLifecycle(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	_, err := s.Create(ctx, store.CollectionCustomers, "c1", map[string]any{"name": "Asha", "contact": "98450"})
	require.NoError(t, err)

	_, err = s.Create(ctx, store.CollectionCustomers, "c1", map[string]any{"name": "Dup"})
	assert.ErrorIs(t, err, store.ErrDuplicateID)

	updated, err := s.Update(ctx, store.CollectionCustomers, "c1", map[string]any{"address": "MG Road"})
	require.NoError(t, err)
	assert.Equal(t, "Asha", updated.Data["name"])
	assert.Equal(t, "MG Road", updated.Data["address"])

	_, err = s.Update(ctx, store.CollectionCustomers, "missing", map[string]any{"name": "x"})
	assert.ErrorIs(t, err, store.ErrNotFound)

	require.NoError(t, s.Delete(ctx, store.CollectionCustomers, "c1"))
	_, err = s.Get(ctx, store.CollectionCustomers, "c1")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestSQLiteListKeepsCollectionsApart(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	_, err := s.Create(ctx, store.CollectionSuppliers, "s1", map[string]any{"name": "Acme"})
	require.NoError(t, err)
	_, err = s.Create(ctx, store.CollectionSuppliers, "s2", map[string]any{"name": "Bharat Traders"})
	require.NoError(t, err)
	_, err = s.Create(ctx, store.CollectionCustomers, "s3", map[string]any{"name": "Acme"})
	require.NoError(t, err)

	page, err := s.List(ctx, store.CollectionSuppliers, store.Query{
		Filters: []store.Filter{store.Contains("name", "acm")},
	})
	require.NoError(t, err)
	require.Equal(t, 1, page.Total)
	assert.Equal(t, "s1", page.Documents[0].ID)
}
