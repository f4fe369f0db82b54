package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"myshop/backend/internal/domain"
	"myshop/backend/internal/ledger"
	"myshop/backend/internal/saga"
	"myshop/backend/internal/store"
	"myshop/backend/internal/xid"
)

func (s *Service) CreateCustomer(ctx context.Context, req domain.CustomerCreateRequest) (domain.Customer, error) {
	customer := domain.Customer{
		ID:                 xid.New("cust"),
		Name:               strings.TrimSpace(req.Name),
		Contact:            strings.TrimSpace(req.Contact),
		Address:            strings.TrimSpace(req.Address),
		OutstandingBalance: decimal.Zero,
	}
	if err := customer.Validate(); err != nil {
		return domain.Customer{}, err
	}
	if err := unique(ctx, s.repo.CountCustomers, "contact", customer.Contact, "", "customer contact"); err != nil {
		return domain.Customer{}, err
	}

	saved, err := s.repo.CreateCustomer(ctx, customer)
	if err != nil {
		return domain.Customer{}, err
	}
	s.logAudit(ctx, "customer_create", "customer", saved.ID, "")
	return saved, nil
}

func (s *Service) ListCustomers(ctx context.Context) ([]domain.Customer, error) {
	return s.repo.FindCustomers(ctx, store.Query{Sort: []store.SortKey{store.Asc("name")}})
}

func (s *Service) GetCustomer(ctx context.Context, id string) (domain.Customer, error) {
	return s.repo.GetCustomer(ctx, id)
}

// UpdateCustomer changes contact details only; the balance moves through
// credit sales and settlements.
func (s *Service) UpdateCustomer(ctx context.Context, id string, req domain.CustomerUpdateRequest) (domain.Customer, error) {
	if req.Empty() {
		return domain.Customer{}, fmt.Errorf("%w: no fields to update", domain.ErrInvalidInput)
	}
	existing, err := s.repo.GetCustomer(ctx, id)
	if err != nil {
		return domain.Customer{}, err
	}

	changes := map[string]any{}
	merged := existing
	if name := trimmed(req.Name); name != nil {
		merged.Name = *name
		changes["name"] = *name
	}
	if contact := trimmed(req.Contact); contact != nil {
		merged.Contact = *contact
		changes["contact"] = *contact
	}
	if address := trimmed(req.Address); address != nil {
		changes["address"] = *address
	}
	if err := merged.Validate(); err != nil {
		return domain.Customer{}, err
	}
	if merged.Contact != existing.Contact {
		if err := unique(ctx, s.repo.CountCustomers, "contact", merged.Contact, id, "customer contact"); err != nil {
			return domain.Customer{}, err
		}
	}

	updated, err := s.repo.UpdateCustomer(ctx, id, changes)
	if err != nil {
		return domain.Customer{}, err
	}
	s.logAudit(ctx, "customer_update", "customer", id, fmt.Sprintf("fields=%d", len(changes)))
	return updated, nil
}

// DeleteCustomer refuses while the customer owes money or has history.
func (s *Service) DeleteCustomer(ctx context.Context, id string) error {
	customer, err := s.repo.GetCustomer(ctx, id)
	if err != nil {
		return err
	}
	if customer.OutstandingBalance.IsPositive() {
		return fmt.Errorf("%w: customer %s has an outstanding balance", domain.ErrConflict, id)
	}
	n, err := s.repo.CountCustomerTransactions(ctx, id)
	if err != nil {
		return err
	}
	if n > 0 {
		return fmt.Errorf("%w: customer %s has %d transactions", domain.ErrConflict, id, n)
	}
	if err := s.repo.DeleteCustomer(ctx, id); err != nil {
		return err
	}
	s.logAudit(ctx, "customer_delete", "customer", id, "")
	return nil
}

// AddCredit puts a sale on the customer's tab. The sale, the ledger entry and
// the balance are written first and stock is deducted last; if any step fails
// the earlier writes are undone in reverse order.
func (s *Service) AddCredit(ctx context.Context, customerID string, req domain.AddCreditRequest) (domain.Customer, error) {
	customer, err := s.repo.GetCustomer(ctx, customerID)
	if err != nil {
		return domain.Customer{}, err
	}
	if len(req.Items) == 0 {
		return domain.Customer{}, fmt.Errorf("%w: cannot add an empty bill to credit", domain.ErrInvalidInput)
	}

	products := make(map[string]domain.Product)
	sum := totals{beforeTax: decimal.Zero, tax: decimal.Zero}
	items := make([]domain.SoldItem, 0, len(req.Items))
	for _, item := range req.Items {
		if item.Quantity < 1 || item.Quantity > domain.MaxLineQuantity || item.UnitPrice.IsNegative() {
			return domain.Customer{}, fmt.Errorf("%w: item for batch %s needs quantity between 1 and %d and a non-negative price", domain.ErrInvalidInput, item.BatchID, domain.MaxLineQuantity)
		}
		product, ok := products[item.ProductID]
		if !ok {
			product, err = s.repo.GetProduct(ctx, item.ProductID)
			if err != nil {
				return domain.Customer{}, err
			}
			products[product.ID] = product
		}
		sum.add(item.Quantity, item.UnitPrice, product.TaxPercentage)
		items = append(items, domain.SoldItem{
			ProductID:                 product.ID,
			ProductName:               product.Name,
			ProductCode:               product.Code,
			BatchID:                   item.BatchID,
			Quantity:                  item.Quantity,
			ActualSellingPricePerUnit: item.UnitPrice,
			TaxPercentageAtSale:       product.TaxPercentage,
		})
	}

	order := s.newSalesOrder(domain.PaymentMethodCustomerTab, false, sum, items)
	entry := domain.CustomerTransaction{
		ID:              xid.New("ctx"),
		CustomerID:      customerID,
		TransactionDate: order.SaleDateTime,
		TransactionType: domain.TransactionCreditSale,
		Amount:          order.GrandTotal,
		SalesOrderID:    order.ID,
	}
	previous := customer.OutstandingBalance

	tx := saga.New("credit_sale", s.log)
	if err := tx.Do(ctx, "sales_order", func(ctx context.Context) error {
		_, err := s.repo.CreateSalesOrder(ctx, order)
		return err
	}, func(ctx context.Context) error {
		return s.repo.DeleteSalesOrder(ctx, order.ID)
	}); err != nil {
		return domain.Customer{}, tx.Fail(ctx, err)
	}

	if err := tx.Do(ctx, "credit_transaction", func(ctx context.Context) error {
		_, err := s.repo.CreateCustomerTransaction(ctx, entry)
		return err
	}, func(ctx context.Context) error {
		return s.repo.DeleteCustomerTransaction(ctx, entry.ID)
	}); err != nil {
		return domain.Customer{}, tx.Fail(ctx, err)
	}

	var updated domain.Customer
	if err := tx.Do(ctx, "balance", func(ctx context.Context) error {
		var err error
		updated, err = s.repo.UpdateCustomer(ctx, customerID, map[string]any{
			"outstanding_balance": previous.Add(order.GrandTotal),
		})
		return err
	}, func(ctx context.Context) error {
		return s.repo.SetCustomerBalance(ctx, customerID, previous)
	}); err != nil {
		return domain.Customer{}, tx.Fail(ctx, err)
	}

	if err := tx.Do(ctx, "deduct_stock", func(ctx context.Context) error {
		_, err := s.fifo.Deduct(ctx, req.Items)
		return err
	}, nil); err != nil {
		return domain.Customer{}, tx.Fail(ctx, err)
	}

	s.logAudit(ctx, "credit_sale", "customer", customerID, fmt.Sprintf("sale=%s,amount=%s", order.ID, order.GrandTotal))
	return updated, nil
}

// SettleDues records a payment of the whole outstanding balance and zeroes
// it. Partial payments are not supported.
func (s *Service) SettleDues(ctx context.Context, customerID string, req domain.SettlePaymentRequest) (domain.Customer, error) {
	switch req.PaymentMethod {
	case domain.PaymentMethodCash, domain.PaymentMethodUPI:
	default:
		return domain.Customer{}, fmt.Errorf("%w: payment_method must be Cash or UPI", domain.ErrInvalidInput)
	}
	customer, err := s.repo.GetCustomer(ctx, customerID)
	if err != nil {
		return domain.Customer{}, err
	}
	if !customer.OutstandingBalance.IsPositive() {
		return domain.Customer{}, fmt.Errorf("%w: customer has no outstanding balance to settle", domain.ErrConflict)
	}

	payment := domain.CustomerTransaction{
		ID:              xid.New("ctx"),
		CustomerID:      customerID,
		TransactionDate: domain.NewTimestamp(s.now()),
		TransactionType: domain.TransactionPayment,
		Amount:          customer.OutstandingBalance,
		PaymentMethod:   req.PaymentMethod,
	}

	tx := saga.New("settle", s.log)
	if err := tx.Do(ctx, "payment_transaction", func(ctx context.Context) error {
		_, err := s.repo.CreateCustomerTransaction(ctx, payment)
		return err
	}, func(ctx context.Context) error {
		return s.repo.DeleteCustomerTransaction(ctx, payment.ID)
	}); err != nil {
		return domain.Customer{}, tx.Fail(ctx, err)
	}

	var updated domain.Customer
	if err := tx.Do(ctx, "balance", func(ctx context.Context) error {
		var err error
		updated, err = s.repo.UpdateCustomer(ctx, customerID, map[string]any{"outstanding_balance": decimal.Zero})
		return err
	}, nil); err != nil {
		return domain.Customer{}, tx.Fail(ctx, err)
	}

	s.logAudit(ctx, "settle", "customer", customerID, fmt.Sprintf("amount=%s,method=%s", payment.Amount, payment.PaymentMethod))
	return updated, nil
}

// Ledger lists the credit sales not yet covered by a payment.
func (s *Service) Ledger(ctx context.Context, customerID string) ([]domain.CustomerTransaction, error) {
	customer, err := s.repo.GetCustomer(ctx, customerID)
	if err != nil {
		return nil, err
	}
	if !customer.OutstandingBalance.IsPositive() {
		return []domain.CustomerTransaction{}, nil
	}
	history, err := s.repo.ListCustomerTransactions(ctx, customerID)
	if err != nil {
		return nil, err
	}
	return ledger.OpenCredits(customer.OutstandingBalance, history), nil
}

// History pages through all of the customer's transactions, newest first.
func (s *Service) History(ctx context.Context, customerID string, page int) (domain.Page[domain.CustomerTransaction], error) {
	limit, offset, err := s.page(page)
	if err != nil {
		return domain.Page[domain.CustomerTransaction]{}, err
	}
	if _, err := s.repo.GetCustomer(ctx, customerID); err != nil {
		return domain.Page[domain.CustomerTransaction]{}, err
	}
	data, total, err := s.repo.PageCustomerTransactions(ctx, customerID, limit, offset)
	if err != nil {
		return domain.Page[domain.CustomerTransaction]{}, err
	}
	return domain.Page[domain.CustomerTransaction]{Total: total, Limit: limit, Offset: offset, Data: data}, nil
}
