package service

import (
	"context"

	"github.com/shopspring/decimal"

	"myshop/backend/internal/domain"
)

type demoProduct struct {
	name  string
	code  string
	tax   int64
	price string
	cost  string
	qty   int
}

var demoCatalog = []demoProduct{
	{name: "Basmati Rice 1kg", code: "RICE-BAS-1", tax: 5, price: "120", cost: "92.50", qty: 40},
	{name: "Toor Dal 500g", code: "DAL-TOOR-05", tax: 5, price: "85", cost: "64", qty: 30},
	{name: "Sunflower Oil 1L", code: "OIL-SUN-1", tax: 5, price: "165", cost: "138", qty: 24},
	{name: "Masala Tea 250g", code: "TEA-MAS-250", tax: 5, price: "140", cost: "101", qty: 18},
	{name: "Bathing Soap 100g", code: "SOAP-100", tax: 18, price: "45", cost: "31.20", qty: 60},
}

// SeedDemo fills an empty catalog with a supplier, a few products and one
// received purchase so a fresh in-memory server has stock to sell. It does
// nothing when products already exist.
func (s *Service) SeedDemo(ctx context.Context) error {
	n, err := s.repo.CountProducts(ctx)
	if err != nil || n > 0 {
		return err
	}

	supplier, err := s.CreateSupplier(ctx, domain.SupplierCreateRequest{
		Name:        "Sharma Wholesale Traders",
		Contact:     "9876500011",
		Address:     "Market Yard, Pune",
		GSTINNumber: "27AAPFS1234K1Z5",
	})
	if err != nil {
		return err
	}

	purchase := domain.PurchaseCreateRequest{
		SupplierID:    supplier.ID,
		PaymentStatus: domain.PaymentStatusUnpaid,
	}
	total := decimal.Zero
	for _, item := range demoCatalog {
		product, err := s.CreateProduct(ctx, domain.ProductCreateRequest{
			Name:               item.name,
			Code:               item.code,
			TaxPercentage:      decimal.NewFromInt(item.tax),
			GlobalSellingPrice: decimal.RequireFromString(item.price),
		})
		if err != nil {
			return err
		}
		cost := decimal.RequireFromString(item.cost)
		purchase.Items = append(purchase.Items, domain.PurchaseItemRequest{
			ProductID: product.ID,
			Quantity:  item.qty,
			CostPrice: cost,
		})
		total = total.Add(cost.Mul(decimal.NewFromInt(int64(item.qty))))
	}
	purchase.TotalAmountOwed = total

	if _, err := s.CreatePurchase(ctx, purchase); err != nil {
		return err
	}
	s.log.Info().Int("products", len(demoCatalog)).Msg("seeded demo catalog")
	return nil
}
