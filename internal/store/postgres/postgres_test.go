package postgres

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"myshop/backend/internal/store"
)

func TestBuildWhereParameterisesFieldsAndValues(t *testing.T) {
	where, args, err := buildWhere("batches", []store.Filter{
		store.Equal("product_id", "p1"),
		store.Greater("quantity_in_stock", 0),
		store.In(store.FieldID, []string{"b1", "b2"}),
	})
	require.NoError(t, err)

	assert.Equal(t,
		`collection = $1 AND (data->>$2::text) COLLATE "C" = $3::text AND (data->>$4::text)::numeric > $5::numeric AND id = ANY($6::text[])`,
		where)
	assert.Equal(t, []any{"batches", "product_id", "p1", "quantity_in_stock", 0, []string{"b1", "b2"}}, args)
}

func TestBuildWhereContainsAndNotEqual(t *testing.T) {
	where, _, err := buildWhere("products", []store.Filter{
		store.Contains("product_name", "tea"),
		store.NotEqual(store.FieldID, "p1"),
	})
	require.NoError(t, err)
	assert.Equal(t,
		`collection = $1 AND strpos(lower((data->>$2::text)), lower($3::text)) > 0 AND id COLLATE "C" IS DISTINCT FROM $4::text`,
		where)
}

func TestBuildWhereRejectsUnsafeField(t *testing.T) {
	_, _, err := buildWhere("products", []store.Filter{store.Equal("name'; DROP TABLE documents; --", "x")})
	assert.Error(t, err)
}

func TestBuildOrderByAppendsIDTieBreak(t *testing.T) {
	orderBy, args := buildOrderBy([]store.SortKey{store.Desc("sale_date_time")}, []any{"sales_orders"})
	assert.Equal(t, []any{"sales_orders", "sale_date_time"}, args)
	assert.Contains(t, orderBy, `(data->>$2::text) COLLATE "C" DESC NULLS LAST`)
	assert.Contains(t, orderBy, `id COLLATE "C" ASC`)
}
