package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"myshop/backend/internal/domain"
	"myshop/backend/internal/saga"
	"myshop/backend/internal/store"
	"myshop/backend/internal/xid"
)

// CreatePurchase records a supplier delivery: one purchase order, one batch
// per line and the matching product stock increments. A failure part way
// removes what was already written.
func (s *Service) CreatePurchase(ctx context.Context, req domain.PurchaseCreateRequest) (domain.PurchaseOrder, error) {
	supplierID := strings.TrimSpace(req.SupplierID)
	if supplierID == "" {
		return domain.PurchaseOrder{}, fmt.Errorf("%w: supplier_id is required", domain.ErrInvalidInput)
	}
	if len(req.Items) == 0 {
		return domain.PurchaseOrder{}, fmt.Errorf("%w: purchase has no items", domain.ErrInvalidInput)
	}
	if req.TotalAmountOwed.IsNegative() {
		return domain.PurchaseOrder{}, fmt.Errorf("%w: total_amount_owed must not be negative", domain.ErrInvalidInput)
	}
	received, err := s.dayOrNow(req.PurchaseDate, "purchase_date")
	if err != nil {
		return domain.PurchaseOrder{}, err
	}

	if _, err := s.repo.GetSupplier(ctx, supplierID); err != nil {
		return domain.PurchaseOrder{}, err
	}
	products := make(map[string]domain.Product)
	items := make([]domain.PurchaseItem, 0, len(req.Items))
	for _, item := range req.Items {
		item.ProductID = strings.TrimSpace(item.ProductID)
		if item.Quantity < 1 || item.Quantity > domain.MaxLineQuantity || item.CostPrice.IsNegative() {
			return domain.PurchaseOrder{}, fmt.Errorf("%w: item %s needs quantity between 1 and %d and a non-negative cost", domain.ErrInvalidInput, item.ProductID, domain.MaxLineQuantity)
		}
		if _, ok := products[item.ProductID]; !ok {
			product, err := s.repo.GetProduct(ctx, item.ProductID)
			if err != nil {
				return domain.PurchaseOrder{}, err
			}
			products[product.ID] = product
		}
		items = append(items, domain.PurchaseItem{ProductID: item.ProductID, Quantity: item.Quantity, CostPrice: item.CostPrice})
	}

	po := domain.PurchaseOrder{
		ID:              xid.New("po"),
		SupplierID:      supplierID,
		PurchaseDate:    domain.NewTimestamp(received),
		TotalAmountOwed: req.TotalAmountOwed,
		PaymentStatus:   req.PaymentStatus,
		Items:           items,
	}
	switch req.PaymentStatus {
	case domain.PaymentStatusPaid:
		po.AmountPaid, po.RemainingBalance = req.TotalAmountOwed, decimal.Zero
	case domain.PaymentStatusUnpaid:
		po.AmountPaid, po.RemainingBalance = decimal.Zero, req.TotalAmountOwed
	default:
		return domain.PurchaseOrder{}, fmt.Errorf("%w: payment_status must be Paid or Unpaid", domain.ErrInvalidInput)
	}

	tx := saga.New("purchase", s.log)
	var created domain.PurchaseOrder
	err = tx.Do(ctx, "purchase_order", func(ctx context.Context) error {
		var err error
		created, err = s.repo.CreatePurchaseOrder(ctx, po)
		return err
	}, func(ctx context.Context) error {
		return s.repo.DeletePurchaseOrder(ctx, po.ID)
	})
	if err != nil {
		return domain.PurchaseOrder{}, tx.Fail(ctx, err)
	}

	for _, item := range items {
		batch := domain.Batch{
			ID:              xid.New("batch"),
			ProductID:       item.ProductID,
			QuantityInStock: item.Quantity,
			InitialQuantity: item.Quantity,
			CostPrice:       item.CostPrice,
			SellingPrice:    decimal.NewNullDecimal(products[item.ProductID].GlobalSellingPrice),
			DateReceived:    po.PurchaseDate,
			SupplierID:      supplierID,
			PurchaseOrderID: po.ID,
		}
		err := tx.Do(ctx, "batch", func(ctx context.Context) error {
			_, err := s.repo.CreateBatch(ctx, batch)
			return err
		}, func(ctx context.Context) error {
			return s.repo.DeleteBatch(ctx, batch.ID)
		})
		if err != nil {
			return domain.PurchaseOrder{}, tx.Fail(ctx, err)
		}
	}

	for _, item := range items {
		if err := tx.Do(ctx, "product_stock", func(ctx context.Context) error {
			return s.adjustProductStock(ctx, item.ProductID, item.Quantity)
		}, func(ctx context.Context) error {
			return s.adjustProductStock(ctx, item.ProductID, -item.Quantity)
		}); err != nil {
			return domain.PurchaseOrder{}, tx.Fail(ctx, err)
		}
	}

	s.logAudit(ctx, "purchase_create", "purchase_order", created.ID, fmt.Sprintf("items=%d,total=%s", len(items), created.TotalAmountOwed))
	return created, nil
}

// adjustProductStock re-reads the product and moves its stock by delta,
// never below zero.
func (s *Service) adjustProductStock(ctx context.Context, productID string, delta int) error {
	product, err := s.repo.GetProduct(ctx, productID)
	if err != nil {
		return err
	}
	return s.repo.SetProductStock(ctx, productID, max(0, product.CurrentTotalStock+delta))
}

// dayOrNow resolves an optional date-only field. Today or no date means now;
// a past date is midnight of that day in the shop's zone.
func (s *Service) dayOrNow(raw string, field string) (time.Time, error) {
	now := s.now()
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return now, nil
	}
	day, err := time.ParseInLocation(domain.DateLayout, raw, s.location)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %s must be YYYY-MM-DD", domain.ErrInvalidInput, field)
	}
	local := now.In(s.location)
	today := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, s.location)
	switch {
	case day.After(today):
		return time.Time{}, fmt.Errorf("%w: %s is in the future", domain.ErrInvalidInput, field)
	case day.Equal(today):
		return now, nil
	default:
		return day, nil
	}
}

// ListPurchases returns purchase orders newest first, optionally for one
// supplier.
func (s *Service) ListPurchases(ctx context.Context, supplierID string) ([]domain.PurchaseOrder, error) {
	q := store.Query{Sort: []store.SortKey{store.Desc("purchase_date"), store.Desc(store.FieldID)}}
	if supplierID = strings.TrimSpace(supplierID); supplierID != "" {
		q.Filters = append(q.Filters, store.Equal("supplier_id", supplierID))
	}
	return s.repo.FindPurchaseOrders(ctx, q)
}

func (s *Service) GetPurchase(ctx context.Context, id string) (domain.PurchaseOrder, error) {
	return s.repo.GetPurchaseOrder(ctx, id)
}

func (s *Service) MarkPurchasePaid(ctx context.Context, id string) (domain.PurchaseOrder, error) {
	po, err := s.repo.GetPurchaseOrder(ctx, id)
	if err != nil {
		return domain.PurchaseOrder{}, err
	}
	if po.PaymentStatus == domain.PaymentStatusPaid {
		return domain.PurchaseOrder{}, fmt.Errorf("%w: purchase order %s is already paid", domain.ErrConflict, id)
	}

	updated, err := s.repo.UpdatePurchaseOrder(ctx, id, map[string]any{
		"payment_status":    domain.PaymentStatusPaid,
		"amount_paid":       po.TotalAmountOwed,
		"remaining_balance": decimal.Zero,
	})
	if err != nil {
		return domain.PurchaseOrder{}, err
	}
	s.logAudit(ctx, "purchase_pay", "purchase_order", id, "amount="+po.TotalAmountOwed.String())
	return updated, nil
}
