package service

import (
	"context"
	"fmt"
	"strings"

	"myshop/backend/internal/domain"
	"myshop/backend/internal/store"
	"myshop/backend/internal/xid"
)

func (s *Service) CreateProduct(ctx context.Context, req domain.ProductCreateRequest) (domain.Product, error) {
	product := domain.Product{
		ID:                 xid.New("prod"),
		Name:               strings.TrimSpace(req.Name),
		Code:               strings.TrimSpace(req.Code),
		TaxPercentage:      req.TaxPercentage,
		GlobalSellingPrice: req.GlobalSellingPrice,
	}
	if err := product.Validate(); err != nil {
		return domain.Product{}, err
	}
	if err := unique(ctx, s.repo.CountProducts, "product_code", product.Code, "", "product code"); err != nil {
		return domain.Product{}, err
	}
	if err := unique(ctx, s.repo.CountProducts, "product_name", product.Name, "", "product name"); err != nil {
		return domain.Product{}, err
	}

	created, err := s.repo.CreateProduct(ctx, product)
	if err != nil {
		return domain.Product{}, err
	}
	s.logAudit(ctx, "product_create", "product", created.ID, fmt.Sprintf("code=%s", created.Code))
	return created, nil
}

func (s *Service) ListProducts(ctx context.Context) ([]domain.Product, error) {
	return s.repo.FindProducts(ctx, store.Query{Sort: []store.SortKey{store.Asc("product_name")}})
}

func (s *Service) GetProduct(ctx context.Context, id string) (domain.Product, error) {
	return s.repo.GetProduct(ctx, id)
}

// UpdateProduct applies a partial change. Stock is not editable here.
func (s *Service) UpdateProduct(ctx context.Context, id string, req domain.ProductUpdateRequest) (domain.Product, error) {
	if req.Empty() {
		return domain.Product{}, fmt.Errorf("%w: no fields to update", domain.ErrInvalidInput)
	}
	existing, err := s.repo.GetProduct(ctx, id)
	if err != nil {
		return domain.Product{}, err
	}

	changes := map[string]any{}
	merged := existing
	if name := trimmed(req.Name); name != nil {
		merged.Name = *name
		changes["product_name"] = *name
	}
	if code := trimmed(req.Code); code != nil {
		merged.Code = *code
		changes["product_code"] = *code
	}
	if req.TaxPercentage != nil {
		merged.TaxPercentage = *req.TaxPercentage
		changes["tax_percentage"] = *req.TaxPercentage
	}
	if req.GlobalSellingPrice != nil {
		merged.GlobalSellingPrice = *req.GlobalSellingPrice
		changes["global_selling_price"] = *req.GlobalSellingPrice
	}
	if err := merged.Validate(); err != nil {
		return domain.Product{}, err
	}
	if merged.Code != existing.Code {
		if err := unique(ctx, s.repo.CountProducts, "product_code", merged.Code, id, "product code"); err != nil {
			return domain.Product{}, err
		}
	}
	if merged.Name != existing.Name {
		if err := unique(ctx, s.repo.CountProducts, "product_name", merged.Name, id, "product name"); err != nil {
			return domain.Product{}, err
		}
	}

	updated, err := s.repo.UpdateProduct(ctx, id, changes)
	if err != nil {
		return domain.Product{}, err
	}
	s.logAudit(ctx, "product_update", "product", id, fmt.Sprintf("fields=%d", len(changes)))
	return updated, nil
}

// SearchProducts matches query against product codes and names. Code matches
// come first; a product matching both appears once.
func (s *Service) SearchProducts(ctx context.Context, query string) ([]domain.Product, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return []domain.Product{}, nil
	}
	byName := []store.SortKey{store.Asc("product_name")}

	codeMatches, err := s.repo.FindProducts(ctx, store.Query{
		Filters: []store.Filter{store.Contains("product_code", query)},
		Sort:    byName,
	})
	if err != nil {
		return nil, err
	}
	nameMatches, err := s.repo.FindProducts(ctx, store.Query{
		Filters: []store.Filter{store.Contains("product_name", query)},
		Sort:    byName,
	})
	if err != nil {
		return nil, err
	}

	return mergeByID(codeMatches, nameMatches), nil
}

// mergeByID concatenates the lists keeping only the first occurrence of each
// product id.
func mergeByID(lists ...[]domain.Product) []domain.Product {
	seen := make(map[string]struct{})
	out := make([]domain.Product, 0)
	for _, list := range lists {
		for _, p := range list {
			if _, ok := seen[p.ID]; ok {
				continue
			}
			seen[p.ID] = struct{}{}
			out = append(out, p)
		}
	}
	return out
}

// ListProductBatches returns every batch of the product, depleted ones
// included, oldest first.
func (s *Service) ListProductBatches(ctx context.Context, productID string) ([]domain.Batch, error) {
	if _, err := s.repo.GetProduct(ctx, productID); err != nil {
		return nil, err
	}
	return s.repo.ListProductBatches(ctx, productID)
}

func (s *Service) UpdateBatchPrice(ctx context.Context, batchID string, req domain.BatchPriceUpdateRequest) (domain.Batch, error) {
	if req.SellingPrice.IsNegative() {
		return domain.Batch{}, fmt.Errorf("%w: selling_price must not be negative", domain.ErrInvalidInput)
	}
	batch, err := s.repo.SetBatchSellingPrice(ctx, batchID, req.SellingPrice)
	if err != nil {
		return domain.Batch{}, err
	}
	s.logAudit(ctx, "batch_price_update", "batch", batchID, "selling_price="+req.SellingPrice.String())
	return batch, nil
}

func (s *Service) SimulateSale(ctx context.Context, req domain.SimulateSaleRequest) (domain.SimulationResult, error) {
	return s.fifo.Simulate(ctx, strings.TrimSpace(req.ProductID), req.Quantity)
}
