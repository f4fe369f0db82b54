package repository

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"myshop/backend/internal/domain"
	"myshop/backend/internal/store"
	"myshop/backend/internal/store/memory"
)

func TestProductRoundTripKeepsTypes(t *testing.T) {
	repo := New(memory.New())
	ctx := context.Background()

	created, err := repo.CreateProduct(ctx, domain.Product{
		ID:                 "p1",
		Name:               "Basmati Rice 1kg",
		Code:               "RICE1",
		TaxPercentage:      decimal.NewFromInt(5),
		GlobalSellingPrice: decimal.RequireFromString("120.50"),
	})
	require.NoError(t, err)
	assert.Equal(t, "p1", created.ID)

	got, err := repo.GetProduct(ctx, "p1")
	require.NoError(t, err)
	assert.True(t, got.GlobalSellingPrice.Equal(decimal.RequireFromString("120.5")))
	assert.Equal(t, 0, got.CurrentTotalStock)

	require.NoError(t, repo.SetProductStock(ctx, "p1", 12))
	got, err = repo.GetProduct(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, 12, got.CurrentTotalStock)
}

func TestCreateRejectsInvalidRecord(t *testing.T) {
	repo := New(memory.New())
	_, err := repo.CreateProduct(context.Background(), domain.Product{ID: "p1", Name: "No code"})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestTransactionAmountRules(t *testing.T) {
	repo := New(memory.New())
	ctx := context.Background()

	_, err := repo.CreateCustomerTransaction(ctx, domain.CustomerTransaction{
		ID: "t1", CustomerID: "c1", TransactionType: domain.TransactionCreditSale, SalesOrderID: "so1", Amount: decimal.Zero,
	})
	require.NoError(t, err)

	_, err = repo.CreateCustomerTransaction(ctx, domain.CustomerTransaction{
		ID: "t2", CustomerID: "c1", TransactionType: domain.TransactionPayment, Amount: decimal.Zero,
	})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = repo.CreateCustomerTransaction(ctx, domain.CustomerTransaction{
		ID: "t3", CustomerID: "c1", TransactionType: domain.TransactionCreditSale, SalesOrderID: "so1", Amount: decimal.NewFromInt(-1),
	})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestUnknownDocumentShapeIsUpstreamFailure(t *testing.T) {
	docs := memory.New()
	repo := New(docs)
	ctx := context.Background()

	_, err := docs.Create(ctx, store.CollectionCustomers, "c1", map[string]any{
		"name":                "Ravi",
		"contact":             "99000",
		"outstanding_balance": "0",
		"loyalty_tier":        "gold",
	})
	require.NoError(t, err)

	_, err = repo.GetCustomer(ctx, "c1")
	assert.ErrorIs(t, err, domain.ErrUpstream)
	assert.NotErrorIs(t, err, domain.ErrInvalidInput)
}

func TestStoreErrorsAreTranslated(t *testing.T) {
	repo := New(memory.New())
	ctx := context.Background()

	_, err := repo.GetBatch(ctx, "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	c := domain.Customer{ID: "c1", Name: "Ravi", Contact: "99000"}
	_, err = repo.CreateCustomer(ctx, c)
	require.NoError(t, err)
	_, err = repo.CreateCustomer(ctx, c)
	assert.ErrorIs(t, err, domain.ErrConflict)
}

func TestBatchQueriesUseFIFOOrder(t *testing.T) {
	repo := New(memory.New())
	ctx := context.Background()
	day := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)

	for _, b := range []domain.Batch{
		{ID: "b-c", ProductID: "p1", QuantityInStock: 4, InitialQuantity: 4, CostPrice: decimal.NewFromInt(10), DateReceived: domain.NewTimestamp(day.Add(time.Hour))},
		{ID: "b-b", ProductID: "p1", QuantityInStock: 2, InitialQuantity: 2, CostPrice: decimal.NewFromInt(11), DateReceived: domain.NewTimestamp(day)},
		{ID: "b-a", ProductID: "p1", QuantityInStock: 3, InitialQuantity: 3, CostPrice: decimal.NewFromInt(12), DateReceived: domain.NewTimestamp(day)},
		{ID: "b-d", ProductID: "p1", QuantityInStock: 0, InitialQuantity: 5, CostPrice: decimal.NewFromInt(9), DateReceived: domain.NewTimestamp(day.Add(-time.Hour))},
	} {
		_, err := repo.CreateBatch(ctx, b)
		require.NoError(t, err)
	}

	active, err := repo.ListActiveBatches(ctx, "p1")
	require.NoError(t, err)
	require.Len(t, active, 3)
	assert.Equal(t, []string{"b-a", "b-b", "b-c"}, []string{active[0].ID, active[1].ID, active[2].ID})

	all, err := repo.ListProductBatches(ctx, "p1")
	require.NoError(t, err)
	assert.Len(t, all, 4)
	assert.Equal(t, "b-d", all[0].ID)

	byID, err := repo.ListBatchesByIDs(ctx, []string{"b-d", "b-a"})
	require.NoError(t, err)
	assert.Len(t, byID, 2)
}

func TestSalesBetweenIsInclusive(t *testing.T) {
	repo := New(memory.New())
	ctx := context.Background()
	start := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	end := start.Add(24*time.Hour - time.Microsecond)

	for id, at := range map[string]time.Time{"s1": start, "s2": end, "s3": end.Add(time.Microsecond)} {
		_, err := repo.CreateSalesOrder(ctx, domain.SalesOrder{
			ID:            id,
			BillNumber:    id,
			SaleDateTime:  domain.NewTimestamp(at),
			PaymentMethod: domain.PaymentMethodCash,
			Items:         []domain.SoldItem{{ProductID: "p1", BatchID: "b1", Quantity: 1}},
		})
		require.NoError(t, err)
	}

	sales, err := repo.ListSalesBetween(ctx, start, end)
	require.NoError(t, err)
	require.Len(t, sales, 2)
	assert.Equal(t, "s1", sales[0].ID)
	assert.Equal(t, "s2", sales[1].ID)
}
