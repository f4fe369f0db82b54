package service

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"myshop/backend/internal/domain"
	"myshop/backend/internal/fifo"
	"myshop/backend/internal/saga"
	"myshop/backend/internal/xid"
)

var hundred = decimal.NewFromInt(100)

// totals accumulates exclusive tax: tax is charged on top of the price the
// customer actually paid. Nothing is rounded until the order is built.
type totals struct {
	beforeTax decimal.Decimal
	tax       decimal.Decimal
}

func (t *totals) add(quantity int, unitPrice, taxPercentage decimal.Decimal) {
	subtotal := unitPrice.Mul(decimal.NewFromInt(int64(quantity)))
	t.beforeTax = t.beforeTax.Add(subtotal)
	t.tax = t.tax.Add(subtotal.Mul(taxPercentage).Div(hundred))
}

func (t totals) grand() decimal.Decimal {
	return t.beforeTax.Add(t.tax)
}

func (s *Service) newSalesOrder(method string, printed bool, sum totals, items []domain.SoldItem) domain.SalesOrder {
	bill := xid.New("bill")
	return domain.SalesOrder{
		ID:             bill,
		BillNumber:     bill,
		IsPrinted:      printed,
		SaleDateTime:   domain.NewTimestamp(s.now()),
		TotalBeforeTax: sum.beforeTax.Round(2),
		TotalTaxAmount: sum.tax.Round(2),
		GrandTotal:     sum.grand().Round(2),
		PaymentMethod:  method,
		Items:          items,
	}
}

// Checkout sells from explicit batches for cash or UPI. Stock is deducted
// before the sale is recorded; if recording fails the stock is put back.
func (s *Service) Checkout(ctx context.Context, req domain.CheckoutRequest) (domain.CheckoutResponse, error) {
	switch req.PaymentMethod {
	case domain.PaymentMethodCash, domain.PaymentMethodUPI:
	default:
		return domain.CheckoutResponse{}, fmt.Errorf("%w: payment_method must be Cash or UPI", domain.ErrInvalidInput)
	}
	if len(req.Items) == 0 {
		return domain.CheckoutResponse{}, fmt.Errorf("%w: cannot checkout an empty bill", domain.ErrInvalidInput)
	}

	tx := saga.New("checkout", s.log)
	var deduction fifo.Deduction
	err := tx.Do(ctx, "deduct_stock", func(ctx context.Context) error {
		var err error
		deduction, err = s.fifo.Deduct(ctx, req.Items)
		return err
	}, func(ctx context.Context) error {
		return s.fifo.Restock(ctx, deduction)
	})
	if err != nil {
		return domain.CheckoutResponse{}, tx.Fail(ctx, err)
	}

	sum := totals{beforeTax: decimal.Zero, tax: decimal.Zero}
	items := make([]domain.SoldItem, 0, len(deduction.Lines))
	for _, line := range deduction.Lines {
		sum.add(line.Item.Quantity, line.Item.UnitPrice, line.Product.TaxPercentage)
		items = append(items, domain.SoldItem{
			ProductID:                   line.Product.ID,
			ProductName:                 line.Product.Name,
			ProductCode:                 line.Product.Code,
			BatchID:                     line.Batch.ID,
			Quantity:                    line.Item.Quantity,
			CostPricePerUnit:            decimal.NewNullDecimal(line.Batch.CostPrice),
			OriginalSellingPricePerUnit: decimal.NewNullDecimal(line.Batch.SuggestedPrice(line.Product)),
			ActualSellingPricePerUnit:   line.Item.UnitPrice,
			TaxPercentageAtSale:         line.Product.TaxPercentage,
		})
	}
	order := s.newSalesOrder(req.PaymentMethod, req.PrintBill, sum, items)

	if err := tx.Do(ctx, "sales_order", func(ctx context.Context) error {
		_, err := s.repo.CreateSalesOrder(ctx, order)
		return err
	}, nil); err != nil {
		return domain.CheckoutResponse{}, tx.Fail(ctx, err)
	}

	s.logAudit(ctx, "checkout", "sales_order", order.ID, fmt.Sprintf("method=%s,total=%s,cogs=%s", order.PaymentMethod, order.GrandTotal, deduction.TotalCOGS.Round(2)))
	return domain.CheckoutResponse{
		Status:  "success",
		Message: "Checkout successful.",
		SaleID:  order.ID,
	}, nil
}

// ListSales pages through sales newest first.
func (s *Service) ListSales(ctx context.Context, page int) (domain.Page[domain.SaleSummary], error) {
	limit, offset, err := s.page(page)
	if err != nil {
		return domain.Page[domain.SaleSummary]{}, err
	}
	orders, total, err := s.repo.PageSalesOrders(ctx, limit, offset)
	if err != nil {
		return domain.Page[domain.SaleSummary]{}, err
	}

	data := make([]domain.SaleSummary, 0, len(orders))
	for _, o := range orders {
		data = append(data, domain.SaleSummary{
			ID:            o.ID,
			BillNumber:    o.BillNumber,
			SaleDateTime:  o.SaleDateTime,
			GrandTotal:    o.GrandTotal,
			PaymentMethod: o.PaymentMethod,
		})
	}
	return domain.Page[domain.SaleSummary]{Total: total, Limit: limit, Offset: offset, Data: data}, nil
}

func (s *Service) GetSale(ctx context.Context, id string) (domain.SalesOrder, error) {
	return s.repo.GetSalesOrder(ctx, id)
}
