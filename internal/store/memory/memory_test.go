package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"myshop/backend/internal/store"
)

func seed(t *testing.T, s *Store) {
	t.Helper()
	ctx := context.Background()
	rows := []struct {
		id   string
		data map[string]any
	}{
		{"b1", map[string]any{"product_id": "p1", "quantity_in_stock": float64(5), "date_received": "2025-01-02T00:00:00.000000Z"}},
		{"b2", map[string]any{"product_id": "p1", "quantity_in_stock": float64(0), "date_received": "2025-01-01T00:00:00.000000Z"}},
		{"b3", map[string]any{"product_id": "p1", "quantity_in_stock": float64(7), "date_received": "2025-01-01T00:00:00.000000Z"}},
		{"b4", map[string]any{"product_id": "p2", "quantity_in_stock": float64(2), "date_received": "2025-01-03T00:00:00.000000Z"}},
	}
	for _, row := range rows {
		_, err := s.Create(ctx, store.CollectionBatches, row.id, row.data)
		require.NoError(t, err)
	}
}

func TestCreateGetUpdateDelete(t *testing.T) {
	s := New()
	ctx := context.Background()

	created, err := s.Create(ctx, "things", "t1", map[string]any{"name": "Tea", "count": float64(1)})
	require.NoError(t, err)
	assert.Equal(t, "t1", created.ID)
	assert.False(t, created.CreatedAt.IsZero())

	_, err = s.Create(ctx, "things", "t1", map[string]any{})
	assert.ErrorIs(t, err, store.ErrDuplicateID)

	updated, err := s.Update(ctx, "things", "t1", map[string]any{"count": float64(2)})
	require.NoError(t, err)
	assert.Equal(t, "Tea", updated.Data["name"])
	assert.Equal(t, float64(2), updated.Data["count"])

	require.NoError(t, s.Delete(ctx, "things", "t1"))
	_, err = s.Get(ctx, "things", "t1")
	assert.ErrorIs(t, err, store.ErrNotFound)
	assert.ErrorIs(t, s.Delete(ctx, "things", "t1"), store.ErrNotFound)
	_, err = s.Update(ctx, "things", "t1", map[string]any{"count": float64(3)})
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestReturnedDocumentsAreCopies(t *testing.T) {
	s := New()
	ctx := context.Background()
	_, err := s.Create(ctx, "things", "t1", map[string]any{"items": []any{map[string]any{"q": float64(1)}}})
	require.NoError(t, err)

	doc, err := s.Get(ctx, "things", "t1")
	require.NoError(t, err)
	doc.Data["items"].([]any)[0].(map[string]any)["q"] = float64(99)

	again, err := s.Get(ctx, "things", "t1")
	require.NoError(t, err)
	assert.Equal(t, float64(1), again.Data["items"].([]any)[0].(map[string]any)["q"])
}

func TestListFiltersAndSortsInFIFOOrder(t *testing.T) {
	s := New()
	seed(t, s)

	page, err := s.List(context.Background(), store.CollectionBatches, store.Query{
		Filters: []store.Filter{store.Equal("product_id", "p1"), store.Greater("quantity_in_stock", 0)},
		Sort:    []store.SortKey{store.Asc("date_received"), store.Asc(store.FieldID)},
	})
	require.NoError(t, err)
	require.Equal(t, 2, page.Total)
	assert.Equal(t, "b3", page.Documents[0].ID)
	assert.Equal(t, "b1", page.Documents[1].ID)
}

func TestListPaginatesAndCountsTotal(t *testing.T) {
	s := New()
	seed(t, s)

	page, err := s.List(context.Background(), store.CollectionBatches, store.Query{
		Sort:   []store.SortKey{store.Desc(store.FieldID)},
		Limit:  2,
		Offset: 1,
	})
	require.NoError(t, err)
	assert.Equal(t, 4, page.Total)
	require.Len(t, page.Documents, 2)
	assert.Equal(t, "b3", page.Documents[0].ID)
	assert.Equal(t, "b2", page.Documents[1].ID)

	beyond, err := s.List(context.Background(), store.CollectionBatches, store.Query{Offset: 10})
	require.NoError(t, err)
	assert.Equal(t, 4, beyond.Total)
	assert.Empty(t, beyond.Documents)
}

func TestListMembershipAndRange(t *testing.T) {
	s := New()
	seed(t, s)
	ctx := context.Background()

	page, err := s.List(ctx, store.CollectionBatches, store.Query{
		Filters: []store.Filter{store.In(store.FieldID, []string{"b1", "b4", "missing"})},
	})
	require.NoError(t, err)
	assert.Equal(t, 2, page.Total)

	page, err = s.List(ctx, store.CollectionBatches, store.Query{
		Filters: []store.Filter{
			store.GreaterEqual("date_received", "2025-01-02T00:00:00.000000Z"),
			store.LessEqual("date_received", "2025-01-02T23:59:59.999999Z"),
		},
	})
	require.NoError(t, err)
	require.Equal(t, 1, page.Total)
	assert.Equal(t, "b1", page.Documents[0].ID)
}

func TestListRejectsMalformedFilter(t *testing.T) {
	s := New()
	_, err := s.List(context.Background(), store.CollectionBatches, store.Query{
		Filters: []store.Filter{{Field: "product_id", Op: store.OpIn, Value: "p1"}},
	})
	assert.Error(t, err)
}
