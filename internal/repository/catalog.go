package repository

import (
	"context"

	"github.com/shopspring/decimal"

	"myshop/backend/internal/domain"
	"myshop/backend/internal/store"
)

// fifoOrder is oldest received first; batches received at the same instant
// are ordered by id.
var fifoOrder = []store.SortKey{store.Asc("date_received"), store.Asc(store.FieldID)}

func (r *Repository) CreateProduct(ctx context.Context, p domain.Product) (domain.Product, error) {
	return create(ctx, r, store.CollectionProducts, "product", p.ID, &p)
}

func (r *Repository) GetProduct(ctx context.Context, id string) (domain.Product, error) {
	return get[domain.Product](ctx, r, store.CollectionProducts, "product", id)
}

func (r *Repository) UpdateProduct(ctx context.Context, id string, changes any) (domain.Product, error) {
	return update[domain.Product](ctx, r, store.CollectionProducts, "product", id, changes)
}

func (r *Repository) SetProductStock(ctx context.Context, id string, stock int) error {
	_, err := r.UpdateProduct(ctx, id, map[string]any{"current_total_stock": stock})
	return err
}

func (r *Repository) FindProducts(ctx context.Context, q store.Query) ([]domain.Product, error) {
	items, _, err := list[domain.Product](ctx, r, store.CollectionProducts, q)
	return items, err
}

func (r *Repository) CountProducts(ctx context.Context, filters ...store.Filter) (int, error) {
	return count(ctx, r, store.CollectionProducts, filters...)
}

func (r *Repository) CreateBatch(ctx context.Context, b domain.Batch) (domain.Batch, error) {
	return create(ctx, r, store.CollectionBatches, "batch", b.ID, &b)
}

func (r *Repository) GetBatch(ctx context.Context, id string) (domain.Batch, error) {
	return get[domain.Batch](ctx, r, store.CollectionBatches, "batch", id)
}

func (r *Repository) DeleteBatch(ctx context.Context, id string) error {
	return remove(ctx, r, store.CollectionBatches, "batch", id)
}

// ListActiveBatches returns the product's batches that still hold stock, in
// FIFO order.
func (r *Repository) ListActiveBatches(ctx context.Context, productID string) ([]domain.Batch, error) {
	items, _, err := list[domain.Batch](ctx, r, store.CollectionBatches, store.Query{
		Filters: []store.Filter{store.Equal("product_id", productID), store.Greater("quantity_in_stock", 0)},
		Sort:    fifoOrder,
	})
	return items, err
}

// ListProductBatches includes depleted batches.
func (r *Repository) ListProductBatches(ctx context.Context, productID string) ([]domain.Batch, error) {
	items, _, err := list[domain.Batch](ctx, r, store.CollectionBatches, store.Query{
		Filters: []store.Filter{store.Equal("product_id", productID)},
		Sort:    fifoOrder,
	})
	return items, err
}

func (r *Repository) ListBatchesByIDs(ctx context.Context, ids []string) ([]domain.Batch, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	items, _, err := list[domain.Batch](ctx, r, store.CollectionBatches, store.Query{
		Filters: []store.Filter{store.In(store.FieldID, ids)},
	})
	return items, err
}

func (r *Repository) ListAllActiveBatches(ctx context.Context) ([]domain.Batch, error) {
	items, _, err := list[domain.Batch](ctx, r, store.CollectionBatches, store.Query{
		Filters: []store.Filter{store.Greater("quantity_in_stock", 0)},
		Sort:    fifoOrder,
	})
	return items, err
}

func (r *Repository) SetBatchStock(ctx context.Context, id string, qty int) error {
	_, err := update[domain.Batch](ctx, r, store.CollectionBatches, "batch", id, map[string]any{"quantity_in_stock": qty})
	return err
}

func (r *Repository) SetBatchSellingPrice(ctx context.Context, id string, price decimal.Decimal) (domain.Batch, error) {
	return update[domain.Batch](ctx, r, store.CollectionBatches, "batch", id, map[string]any{
		"selling_price": decimal.NewNullDecimal(price),
	})
}

func (r *Repository) CreateSupplier(ctx context.Context, s domain.Supplier) (domain.Supplier, error) {
	return create(ctx, r, store.CollectionSuppliers, "supplier", s.ID, &s)
}

func (r *Repository) GetSupplier(ctx context.Context, id string) (domain.Supplier, error) {
	return get[domain.Supplier](ctx, r, store.CollectionSuppliers, "supplier", id)
}

func (r *Repository) UpdateSupplier(ctx context.Context, id string, changes any) (domain.Supplier, error) {
	return update[domain.Supplier](ctx, r, store.CollectionSuppliers, "supplier", id, changes)
}

func (r *Repository) DeleteSupplier(ctx context.Context, id string) error {
	return remove(ctx, r, store.CollectionSuppliers, "supplier", id)
}

func (r *Repository) FindSuppliers(ctx context.Context, q store.Query) ([]domain.Supplier, error) {
	items, _, err := list[domain.Supplier](ctx, r, store.CollectionSuppliers, q)
	return items, err
}

func (r *Repository) CountSuppliers(ctx context.Context, filters ...store.Filter) (int, error) {
	return count(ctx, r, store.CollectionSuppliers, filters...)
}

func (r *Repository) CreatePurchaseOrder(ctx context.Context, po domain.PurchaseOrder) (domain.PurchaseOrder, error) {
	return create(ctx, r, store.CollectionPurchaseOrders, "purchase order", po.ID, &po)
}

func (r *Repository) GetPurchaseOrder(ctx context.Context, id string) (domain.PurchaseOrder, error) {
	return get[domain.PurchaseOrder](ctx, r, store.CollectionPurchaseOrders, "purchase order", id)
}

func (r *Repository) UpdatePurchaseOrder(ctx context.Context, id string, changes any) (domain.PurchaseOrder, error) {
	return update[domain.PurchaseOrder](ctx, r, store.CollectionPurchaseOrders, "purchase order", id, changes)
}

func (r *Repository) DeletePurchaseOrder(ctx context.Context, id string) error {
	return remove(ctx, r, store.CollectionPurchaseOrders, "purchase order", id)
}

func (r *Repository) FindPurchaseOrders(ctx context.Context, q store.Query) ([]domain.PurchaseOrder, error) {
	items, _, err := list[domain.PurchaseOrder](ctx, r, store.CollectionPurchaseOrders, q)
	return items, err
}

func (r *Repository) CountPurchaseOrders(ctx context.Context, filters ...store.Filter) (int, error) {
	return count(ctx, r, store.CollectionPurchaseOrders, filters...)
}

func (r *Repository) ListUnpaidPurchaseOrders(ctx context.Context) ([]domain.PurchaseOrder, error) {
	return r.FindPurchaseOrders(ctx, store.Query{
		Filters: []store.Filter{store.Equal("payment_status", domain.PaymentStatusUnpaid)},
	})
}
