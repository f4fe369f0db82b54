// Package fifo selects and consumes stock batches oldest-received first and
// prices the consumption at each batch's purchase cost.
package fifo

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"myshop/backend/internal/domain"
)

// Ledger is the batch and product storage the engine reads and writes.
type Ledger interface {
	GetProduct(ctx context.Context, id string) (domain.Product, error)
	GetBatch(ctx context.Context, id string) (domain.Batch, error)
	ListActiveBatches(ctx context.Context, productID string) ([]domain.Batch, error)
	SetBatchStock(ctx context.Context, id string, qty int) error
	SetProductStock(ctx context.Context, id string, stock int) error
}

type Engine struct {
	ledger Ledger
	log    zerolog.Logger
}

func NewEngine(ledger Ledger, log zerolog.Logger) *Engine {
	return &Engine{ledger: ledger, log: log}
}

// DeductedLine pairs a request line with the batch and product as they were
// read before the deduction.
type DeductedLine struct {
	Item    domain.SaleItem
	Batch   domain.Batch
	Product domain.Product
}

type Deduction struct {
	TotalCOGS decimal.Decimal
	Lines     []DeductedLine
}

// Simulate plans a sale of quantity units without writing anything.
func (e *Engine) Simulate(ctx context.Context, productID string, quantity int) (domain.SimulationResult, error) {
	if quantity < 1 || quantity > domain.MaxLineQuantity {
		return domain.SimulationResult{}, fmt.Errorf("%w: quantity must be between 1 and %d", domain.ErrInvalidInput, domain.MaxLineQuantity)
	}
	product, err := e.ledger.GetProduct(ctx, productID)
	if err != nil {
		return domain.SimulationResult{}, err
	}
	batches, err := e.ledger.ListActiveBatches(ctx, productID)
	if err != nil {
		return domain.SimulationResult{}, err
	}

	available := 0
	for _, b := range batches {
		available += b.QuantityInStock
	}
	if available < quantity {
		return domain.SimulationResult{
			Sufficient: false,
			Shortage:   quantity - available,
			LineItems:  []domain.SimulationLine{},
		}, nil
	}

	lines := make([]domain.SimulationLine, 0, len(batches))
	remaining := quantity
	for _, b := range batches {
		if remaining == 0 {
			break
		}
		take := min(remaining, b.QuantityInStock)
		lines = append(lines, domain.SimulationLine{
			BatchID:               b.ID,
			QuantityToSell:        take,
			CostPrice:             b.CostPrice,
			SuggestedSellingPrice: b.SuggestedPrice(product),
			AvailableStockInBatch: b.QuantityInStock,
			DateReceived:          b.DateReceived,
		})
		remaining -= take
	}

	return domain.SimulationResult{Sufficient: true, Shortage: 0, LineItems: lines}, nil
}

// Deduct removes the requested quantities from their batches and products.
//
// Every line is checked before anything is written: a missing batch or
// product, a batch that belongs to another product, or a batch without enough
// stock rejects the whole call. Lines naming the same batch are summed for the
// stock check, and no line may exceed domain.MaxLineQuantity. Writes are not
// atomic across documents; a failure while writing returns a
// *domain.PartialDeductionError.
func (e *Engine) Deduct(ctx context.Context, items []domain.SaleItem) (Deduction, error) {
	if len(items) == 0 {
		return Deduction{}, fmt.Errorf("%w: no items to deduct", domain.ErrInvalidInput)
	}

	batches := make(map[string]domain.Batch)
	products := make(map[string]domain.Product)
	requested := make(map[string]int)
	perProduct := make(map[string]int)
	batchOrder := make([]string, 0, len(items))
	productOrder := make([]string, 0, len(items))

	for _, item := range items {
		if item.Quantity < 1 || item.Quantity > domain.MaxLineQuantity {
			return Deduction{}, fmt.Errorf("%w: quantity for batch %s must be between 1 and %d", domain.ErrInvalidInput, item.BatchID, domain.MaxLineQuantity)
		}
		if item.UnitPrice.IsNegative() {
			return Deduction{}, fmt.Errorf("%w: price for batch %s must not be negative", domain.ErrInvalidInput, item.BatchID)
		}

		batch, ok := batches[item.BatchID]
		if !ok {
			loaded, err := e.ledger.GetBatch(ctx, item.BatchID)
			if err != nil {
				return Deduction{}, err
			}
			batch = loaded
			batches[batch.ID] = batch
			batchOrder = append(batchOrder, batch.ID)
		}
		if batch.ProductID != item.ProductID {
			return Deduction{}, fmt.Errorf("%w: batch %s does not belong to product %s", domain.ErrInvalidInput, batch.ID, item.ProductID)
		}

		if _, ok := products[item.ProductID]; !ok {
			product, err := e.ledger.GetProduct(ctx, item.ProductID)
			if err != nil {
				return Deduction{}, err
			}
			products[product.ID] = product
			productOrder = append(productOrder, product.ID)
		}

		// checked per line so the running sums stay within the batch's stock
		if item.Quantity > batch.QuantityInStock-requested[batch.ID] {
			return Deduction{}, &domain.InsufficientStockError{
				BatchID:   batch.ID,
				Requested: requested[batch.ID] + item.Quantity,
				Available: batch.QuantityInStock,
			}
		}
		requested[batch.ID] += item.Quantity
		perProduct[item.ProductID] += item.Quantity
	}

	result := Deduction{TotalCOGS: decimal.Zero, Lines: make([]DeductedLine, 0, len(items))}
	for _, item := range items {
		batch := batches[item.BatchID]
		result.TotalCOGS = result.TotalCOGS.Add(batch.CostPrice.Mul(decimal.NewFromInt(int64(item.Quantity))))
		result.Lines = append(result.Lines, DeductedLine{Item: item, Batch: batch, Product: products[item.ProductID]})
	}

	applied := make([]string, 0, len(batchOrder))
	for _, id := range batchOrder {
		remaining := max(0, batches[id].QuantityInStock-requested[id])
		if err := e.ledger.SetBatchStock(ctx, id, remaining); err != nil {
			return Deduction{}, e.partial(applied, err)
		}
		applied = append(applied, id)
	}

	// Product stock is re-read so that the write starts from the latest value.
	for _, id := range productOrder {
		current, err := e.ledger.GetProduct(ctx, id)
		if err != nil {
			return Deduction{}, e.partial(applied, err)
		}
		if err := e.ledger.SetProductStock(ctx, id, max(0, current.CurrentTotalStock-perProduct[id])); err != nil {
			return Deduction{}, e.partial(applied, err)
		}
	}

	return result, nil
}

// Restock returns the quantities of a completed deduction to their batches and
// products. It runs only as a compensation step and keeps going past errors.
func (e *Engine) Restock(ctx context.Context, d Deduction) error {
	perBatch := make(map[string]int)
	perProduct := make(map[string]int)
	batchOrder := make([]string, 0, len(d.Lines))
	productOrder := make([]string, 0, len(d.Lines))
	for _, line := range d.Lines {
		if _, seen := perBatch[line.Batch.ID]; !seen {
			batchOrder = append(batchOrder, line.Batch.ID)
		}
		if _, seen := perProduct[line.Product.ID]; !seen {
			productOrder = append(productOrder, line.Product.ID)
		}
		perBatch[line.Batch.ID] += line.Item.Quantity
		perProduct[line.Product.ID] += line.Item.Quantity
	}

	var errs []error
	for _, id := range batchOrder {
		batch, err := e.ledger.GetBatch(ctx, id)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if err := e.ledger.SetBatchStock(ctx, id, min(batch.InitialQuantity, batch.QuantityInStock+perBatch[id])); err != nil {
			errs = append(errs, err)
		}
	}
	for _, id := range productOrder {
		product, err := e.ledger.GetProduct(ctx, id)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if err := e.ledger.SetProductStock(ctx, id, product.CurrentTotalStock+perProduct[id]); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (e *Engine) partial(applied []string, err error) error {
	e.log.Error().
		Err(err).
		Strs("applied_batches", applied).
		Msg("stock deduction interrupted, manual reconciliation required")
	return &domain.PartialDeductionError{AppliedBatchIDs: append([]string(nil), applied...), Err: err}
}
