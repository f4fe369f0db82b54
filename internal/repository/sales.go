package repository

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"myshop/backend/internal/domain"
	"myshop/backend/internal/store"
)

func (r *Repository) CreateSalesOrder(ctx context.Context, so domain.SalesOrder) (domain.SalesOrder, error) {
	return create(ctx, r, store.CollectionSalesOrders, "sales order", so.ID, &so)
}

func (r *Repository) GetSalesOrder(ctx context.Context, id string) (domain.SalesOrder, error) {
	return get[domain.SalesOrder](ctx, r, store.CollectionSalesOrders, "sales order", id)
}

func (r *Repository) DeleteSalesOrder(ctx context.Context, id string) error {
	return remove(ctx, r, store.CollectionSalesOrders, "sales order", id)
}

// ListSalesBetween returns sales with sale_date_time in [from, to].
func (r *Repository) ListSalesBetween(ctx context.Context, from, to time.Time) ([]domain.SalesOrder, error) {
	items, _, err := list[domain.SalesOrder](ctx, r, store.CollectionSalesOrders, store.Query{
		Filters: []store.Filter{
			store.GreaterEqual("sale_date_time", domain.FormatTimestamp(from)),
			store.LessEqual("sale_date_time", domain.FormatTimestamp(to)),
		},
		Sort: []store.SortKey{store.Asc("sale_date_time")},
	})
	return items, err
}

// PageSalesOrders lists sales newest first.
func (r *Repository) PageSalesOrders(ctx context.Context, limit, offset int) ([]domain.SalesOrder, int, error) {
	return list[domain.SalesOrder](ctx, r, store.CollectionSalesOrders, store.Query{
		Sort:   []store.SortKey{store.Desc("sale_date_time"), store.Desc(store.FieldID)},
		Limit:  limit,
		Offset: offset,
	})
}

func (r *Repository) CreateCustomer(ctx context.Context, c domain.Customer) (domain.Customer, error) {
	return create(ctx, r, store.CollectionCustomers, "customer", c.ID, &c)
}

func (r *Repository) GetCustomer(ctx context.Context, id string) (domain.Customer, error) {
	return get[domain.Customer](ctx, r, store.CollectionCustomers, "customer", id)
}

func (r *Repository) UpdateCustomer(ctx context.Context, id string, changes any) (domain.Customer, error) {
	return update[domain.Customer](ctx, r, store.CollectionCustomers, "customer", id, changes)
}

func (r *Repository) SetCustomerBalance(ctx context.Context, id string, balance decimal.Decimal) error {
	_, err := r.UpdateCustomer(ctx, id, map[string]any{"outstanding_balance": balance})
	return err
}

func (r *Repository) DeleteCustomer(ctx context.Context, id string) error {
	return remove(ctx, r, store.CollectionCustomers, "customer", id)
}

func (r *Repository) FindCustomers(ctx context.Context, q store.Query) ([]domain.Customer, error) {
	items, _, err := list[domain.Customer](ctx, r, store.CollectionCustomers, q)
	return items, err
}

func (r *Repository) CountCustomers(ctx context.Context, filters ...store.Filter) (int, error) {
	return count(ctx, r, store.CollectionCustomers, filters...)
}

func (r *Repository) CreateCustomerTransaction(ctx context.Context, t domain.CustomerTransaction) (domain.CustomerTransaction, error) {
	return create(ctx, r, store.CollectionCustomerTransactions, "customer transaction", t.ID, &t)
}

func (r *Repository) DeleteCustomerTransaction(ctx context.Context, id string) error {
	return remove(ctx, r, store.CollectionCustomerTransactions, "customer transaction", id)
}

// ListCustomerTransactions returns the customer's full history, oldest first.
func (r *Repository) ListCustomerTransactions(ctx context.Context, customerID string) ([]domain.CustomerTransaction, error) {
	items, _, err := list[domain.CustomerTransaction](ctx, r, store.CollectionCustomerTransactions, store.Query{
		Filters: []store.Filter{store.Equal("customer_id", customerID)},
		Sort:    []store.SortKey{store.Asc("transaction_date"), store.Asc(store.FieldID)},
	})
	return items, err
}

func (r *Repository) PageCustomerTransactions(ctx context.Context, customerID string, limit, offset int) ([]domain.CustomerTransaction, int, error) {
	return list[domain.CustomerTransaction](ctx, r, store.CollectionCustomerTransactions, store.Query{
		Filters: []store.Filter{store.Equal("customer_id", customerID)},
		Sort:    []store.SortKey{store.Desc("transaction_date"), store.Desc(store.FieldID)},
		Limit:   limit,
		Offset:  offset,
	})
}

func (r *Repository) CountCustomerTransactions(ctx context.Context, customerID string) (int, error) {
	return count(ctx, r, store.CollectionCustomerTransactions, store.Equal("customer_id", customerID))
}

func (r *Repository) CreateOperatingCost(ctx context.Context, o domain.OperatingCost) (domain.OperatingCost, error) {
	return create(ctx, r, store.CollectionOperatingCosts, "operating cost", o.ID, &o)
}

// ListOperatingCostsBetween returns costs with expense_date in [from, to],
// newest first.
func (r *Repository) ListOperatingCostsBetween(ctx context.Context, from, to time.Time) ([]domain.OperatingCost, error) {
	items, _, err := list[domain.OperatingCost](ctx, r, store.CollectionOperatingCosts, store.Query{
		Filters: []store.Filter{
			store.GreaterEqual("expense_date", domain.FormatTimestamp(from)),
			store.LessEqual("expense_date", domain.FormatTimestamp(to)),
		},
		Sort: []store.SortKey{store.Desc("expense_date"), store.Desc(store.FieldID)},
	})
	return items, err
}

func (r *Repository) CreateUser(ctx context.Context, u domain.User) (domain.User, error) {
	return create(ctx, r, store.CollectionUsers, "user", u.ID, &u)
}

func (r *Repository) GetUser(ctx context.Context, id string) (domain.User, error) {
	return get[domain.User](ctx, r, store.CollectionUsers, "user", id)
}

// FindUserByEmail returns domain.ErrNotFound when no user has the address.
func (r *Repository) FindUserByEmail(ctx context.Context, email string) (domain.User, error) {
	items, _, err := list[domain.User](ctx, r, store.CollectionUsers, store.Query{
		Filters: []store.Filter{store.Equal("email", email)},
		Limit:   1,
	})
	if err != nil {
		return domain.User{}, err
	}
	if len(items) == 0 {
		return domain.User{}, translate(store.ErrNotFound, "user", email)
	}
	return items[0], nil
}
