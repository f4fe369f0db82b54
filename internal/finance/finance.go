// Package finance computes profit, cost of goods sold and stock valuation from
// recorded sales, batch costs and operating expenses.
package finance

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"myshop/backend/internal/domain"
)

type Source interface {
	ListSalesBetween(ctx context.Context, from, to time.Time) ([]domain.SalesOrder, error)
	ListBatchesByIDs(ctx context.Context, ids []string) ([]domain.Batch, error)
	ListOperatingCostsBetween(ctx context.Context, from, to time.Time) ([]domain.OperatingCost, error)
	ListAllActiveBatches(ctx context.Context) ([]domain.Batch, error)
	ListUnpaidPurchaseOrders(ctx context.Context) ([]domain.PurchaseOrder, error)
}

type Aggregator struct {
	src Source
}

func NewAggregator(src Source) *Aggregator {
	return &Aggregator{src: src}
}

// Summary reports the window [from, to]. Inventory value and vendor dues are
// current snapshots and ignore the window.
func (a *Aggregator) Summary(ctx context.Context, from, to time.Time) (domain.FinancialSummary, error) {
	sales, err := a.src.ListSalesBetween(ctx, from, to)
	if err != nil {
		return domain.FinancialSummary{}, err
	}

	totalSales, totalTax := decimal.Zero, decimal.Zero
	batchIDs := make([]string, 0)
	seen := make(map[string]struct{})
	for _, sale := range sales {
		totalSales = totalSales.Add(sale.GrandTotal)
		totalTax = totalTax.Add(sale.TotalTaxAmount)
		for _, item := range sale.Items {
			if _, ok := seen[item.BatchID]; ok || item.BatchID == "" {
				continue
			}
			seen[item.BatchID] = struct{}{}
			batchIDs = append(batchIDs, item.BatchID)
		}
	}

	costs, err := a.batchCosts(ctx, batchIDs)
	if err != nil {
		return domain.FinancialSummary{}, err
	}
	cogs := decimal.Zero
	for _, sale := range sales {
		for _, item := range sale.Items {
			// Unresolvable batches count at zero cost.
			cogs = cogs.Add(costs[item.BatchID].Mul(decimal.NewFromInt(int64(item.Quantity))))
		}
	}

	expenses, err := a.src.ListOperatingCostsBetween(ctx, from, to)
	if err != nil {
		return domain.FinancialSummary{}, err
	}
	opCosts := decimal.Zero
	for _, e := range expenses {
		opCosts = opCosts.Add(e.Amount)
	}

	inventory, err := a.InventoryValue(ctx)
	if err != nil {
		return domain.FinancialSummary{}, err
	}
	dues, err := a.VendorDues(ctx)
	if err != nil {
		return domain.FinancialSummary{}, err
	}

	return domain.FinancialSummary{
		TotalProfit:           totalSales.Sub(cogs).Sub(opCosts).Round(2),
		TotalSales:            totalSales.Round(2),
		TotalTaxCollected:     totalTax.Round(2),
		CurrentInventoryValue: inventory.Round(2),
		VendorDues:            dues.Round(2),
		TotalCOGS:             cogs.Round(2),
		TotalOperatingCosts:   opCosts.Round(2),
	}, nil
}

// InventoryValue is the cost of every unit still in stock.
func (a *Aggregator) InventoryValue(ctx context.Context) (decimal.Decimal, error) {
	batches, err := a.src.ListAllActiveBatches(ctx)
	if err != nil {
		return decimal.Zero, err
	}
	total := decimal.Zero
	for _, b := range batches {
		total = total.Add(b.CostPrice.Mul(decimal.NewFromInt(int64(b.QuantityInStock))))
	}
	return total, nil
}

func (a *Aggregator) VendorDues(ctx context.Context) (decimal.Decimal, error) {
	orders, err := a.src.ListUnpaidPurchaseOrders(ctx)
	if err != nil {
		return decimal.Zero, err
	}
	total := decimal.Zero
	for _, po := range orders {
		total = total.Add(po.RemainingBalance)
	}
	return total, nil
}

// batchCosts fetches every referenced batch in one query.
func (a *Aggregator) batchCosts(ctx context.Context, ids []string) (map[string]decimal.Decimal, error) {
	costs := make(map[string]decimal.Decimal, len(ids))
	if len(ids) == 0 {
		return costs, nil
	}
	batches, err := a.src.ListBatchesByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	for _, b := range batches {
		costs[b.ID] = b.CostPrice
	}
	return costs, nil
}
