package service

import (
	"context"
	"fmt"
	"strings"

	"myshop/backend/internal/domain"
	"myshop/backend/internal/store"
	"myshop/backend/internal/xid"
)

func (s *Service) CreateSupplier(ctx context.Context, req domain.SupplierCreateRequest) (domain.Supplier, error) {
	supplier := domain.Supplier{
		ID:          xid.New("sup"),
		Name:        strings.TrimSpace(req.Name),
		Contact:     strings.TrimSpace(req.Contact),
		Address:     strings.TrimSpace(req.Address),
		GSTINNumber: strings.ToUpper(strings.TrimSpace(req.GSTINNumber)),
	}
	if err := supplier.Validate(); err != nil {
		return domain.Supplier{}, err
	}
	if err := unique(ctx, s.repo.CountSuppliers, "name", supplier.Name, "", "supplier"); err != nil {
		return domain.Supplier{}, err
	}

	saved, err := s.repo.CreateSupplier(ctx, supplier)
	if err != nil {
		return domain.Supplier{}, err
	}
	s.logAudit(ctx, "supplier_create", "supplier", saved.ID, fmt.Sprintf("name=%s", saved.Name))
	return saved, nil
}

func (s *Service) ListSuppliers(ctx context.Context) ([]domain.Supplier, error) {
	return s.repo.FindSuppliers(ctx, store.Query{Sort: []store.SortKey{store.Asc("name")}})
}

func (s *Service) GetSupplier(ctx context.Context, id string) (domain.Supplier, error) {
	return s.repo.GetSupplier(ctx, id)
}

func (s *Service) UpdateSupplier(ctx context.Context, id string, req domain.SupplierUpdateRequest) (domain.Supplier, error) {
	if req.Empty() {
		return domain.Supplier{}, fmt.Errorf("%w: no fields to update", domain.ErrInvalidInput)
	}
	existing, err := s.repo.GetSupplier(ctx, id)
	if err != nil {
		return domain.Supplier{}, err
	}

	changes := map[string]any{}
	merged := existing
	if name := trimmed(req.Name); name != nil {
		merged.Name = *name
		changes["name"] = *name
	}
	if contact := trimmed(req.Contact); contact != nil {
		changes["contact"] = *contact
	}
	if address := trimmed(req.Address); address != nil {
		changes["address"] = *address
	}
	if gstin := trimmed(req.GSTINNumber); gstin != nil {
		changes["gstin_number"] = strings.ToUpper(*gstin)
	}
	if err := merged.Validate(); err != nil {
		return domain.Supplier{}, err
	}
	if merged.Name != existing.Name {
		if err := unique(ctx, s.repo.CountSuppliers, "name", merged.Name, id, "supplier"); err != nil {
			return domain.Supplier{}, err
		}
	}

	updated, err := s.repo.UpdateSupplier(ctx, id, changes)
	if err != nil {
		return domain.Supplier{}, err
	}
	s.logAudit(ctx, "supplier_update", "supplier", id, fmt.Sprintf("fields=%d", len(changes)))
	return updated, nil
}

// DeleteSupplier refuses while purchase orders still reference the supplier.
func (s *Service) DeleteSupplier(ctx context.Context, id string) error {
	if _, err := s.repo.GetSupplier(ctx, id); err != nil {
		return err
	}
	n, err := s.repo.CountPurchaseOrders(ctx, store.Equal("supplier_id", id))
	if err != nil {
		return err
	}
	if n > 0 {
		return fmt.Errorf("%w: supplier %s has %d purchase orders", domain.ErrConflict, id, n)
	}
	if err := s.repo.DeleteSupplier(ctx, id); err != nil {
		return err
	}
	s.logAudit(ctx, "supplier_delete", "supplier", id, "")
	return nil
}
