package domain

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

const (
	PaymentStatusPaid   = "Paid"
	PaymentStatusUnpaid = "Unpaid"

	PaymentMethodCash        = "Cash"
	PaymentMethodUPI         = "UPI"
	PaymentMethodCustomerTab = "customer_tab"

	TransactionCreditSale = "Credit_Sale"
	TransactionPayment    = "Payment"
)

// MaxLineQuantity caps the units on a single purchase or sale line.
const MaxLineQuantity = 1_000_000

var hundred = decimal.NewFromInt(100)

type Actor struct {
	UserID string
	Email  string
	Name   string
}

type Product struct {
	ID                 string          `json:"id"`
	Name               string          `json:"product_name"`
	Code               string          `json:"product_code"`
	TaxPercentage      decimal.Decimal `json:"tax_percentage"`
	GlobalSellingPrice decimal.Decimal `json:"global_selling_price"`
	CurrentTotalStock  int             `json:"current_total_stock"`
}

func (p *Product) SetID(id string) { p.ID = id }

func (p *Product) Validate() error {
	if strings.TrimSpace(p.Name) == "" || strings.TrimSpace(p.Code) == "" {
		return fmt.Errorf("%w: product name and code are required", ErrInvalidInput)
	}
	if p.TaxPercentage.IsNegative() || p.TaxPercentage.GreaterThan(hundred) {
		return fmt.Errorf("%w: tax_percentage must be between 0 and 100", ErrInvalidInput)
	}
	if p.GlobalSellingPrice.IsNegative() {
		return fmt.Errorf("%w: global_selling_price must not be negative", ErrInvalidInput)
	}
	if p.CurrentTotalStock < 0 {
		return fmt.Errorf("%w: current_total_stock must not be negative", ErrInvalidInput)
	}
	return nil
}

// Batch is one received lot. CostPrice is fixed at receipt.
type Batch struct {
	ID              string              `json:"id"`
	ProductID       string              `json:"product_id"`
	QuantityInStock int                 `json:"quantity_in_stock"`
	InitialQuantity int                 `json:"initial_quantity"`
	CostPrice       decimal.Decimal     `json:"cost_price"`
	SellingPrice    decimal.NullDecimal `json:"selling_price"`
	DateReceived    Timestamp           `json:"date_received"`
	SupplierID      string              `json:"supplier_id,omitempty"`
	PurchaseOrderID string              `json:"purchase_order_id,omitempty"`
}

func (b *Batch) SetID(id string) { b.ID = id }

func (b *Batch) Validate() error {
	if strings.TrimSpace(b.ProductID) == "" {
		return fmt.Errorf("%w: batch product_id is required", ErrInvalidInput)
	}
	if b.QuantityInStock < 0 || b.QuantityInStock > b.InitialQuantity {
		return fmt.Errorf("%w: batch quantity_in_stock %d outside 0..%d", ErrInvalidInput, b.QuantityInStock, b.InitialQuantity)
	}
	if b.CostPrice.IsNegative() {
		return fmt.Errorf("%w: batch cost_price must not be negative", ErrInvalidInput)
	}
	return nil
}

// SuggestedPrice is the batch override when positive, otherwise the product's
// catalog price.
func (b Batch) SuggestedPrice(product Product) decimal.Decimal {
	if b.SellingPrice.Valid && b.SellingPrice.Decimal.IsPositive() {
		return b.SellingPrice.Decimal
	}
	return product.GlobalSellingPrice
}

type Supplier struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Contact     string `json:"contact,omitempty"`
	Address     string `json:"address,omitempty"`
	GSTINNumber string `json:"gstin_number,omitempty"`
}

func (s *Supplier) SetID(id string) { s.ID = id }

func (s *Supplier) Validate() error {
	if strings.TrimSpace(s.Name) == "" {
		return fmt.Errorf("%w: supplier name is required", ErrInvalidInput)
	}
	return nil
}

type PurchaseItem struct {
	ProductID string          `json:"product_id"`
	Quantity  int             `json:"quantity"`
	CostPrice decimal.Decimal `json:"cost_price"`
}

type PurchaseOrder struct {
	ID               string          `json:"id"`
	SupplierID       string          `json:"supplier_id"`
	PurchaseDate     Timestamp       `json:"purchase_date"`
	TotalAmountOwed  decimal.Decimal `json:"total_amount_owed"`
	PaymentStatus    string          `json:"payment_status"`
	AmountPaid       decimal.Decimal `json:"amount_paid"`
	RemainingBalance decimal.Decimal `json:"remaining_balance"`
	Items            []PurchaseItem  `json:"items_received"`
}

func (po *PurchaseOrder) SetID(id string) { po.ID = id }

func (po *PurchaseOrder) Validate() error {
	if po.PaymentStatus != PaymentStatusPaid && po.PaymentStatus != PaymentStatusUnpaid {
		return fmt.Errorf("%w: payment_status must be Paid or Unpaid", ErrInvalidInput)
	}
	if !po.AmountPaid.Add(po.RemainingBalance).Equal(po.TotalAmountOwed) {
		return fmt.Errorf("%w: amount_paid + remaining_balance must equal total_amount_owed", ErrInvalidInput)
	}
	for _, item := range po.Items {
		if item.Quantity < 1 || item.Quantity > MaxLineQuantity || item.CostPrice.IsNegative() {
			return fmt.Errorf("%w: purchase item for %s has invalid quantity or cost", ErrInvalidInput, item.ProductID)
		}
	}
	return nil
}

type SoldItem struct {
	ProductID                   string              `json:"product_id"`
	ProductName                 string              `json:"product_name"`
	ProductCode                 string              `json:"product_code"`
	BatchID                     string              `json:"batch_id"`
	Quantity                    int                 `json:"quantity"`
	CostPricePerUnit            decimal.NullDecimal `json:"cost_price_per_unit"`
	OriginalSellingPricePerUnit decimal.NullDecimal `json:"original_selling_price_per_unit"`
	ActualSellingPricePerUnit   decimal.Decimal     `json:"actual_selling_price_per_unit"`
	TaxPercentageAtSale         decimal.Decimal     `json:"tax_percentage_at_sale"`
}

// SalesOrder is written once and never updated. ID equals BillNumber.
type SalesOrder struct {
	ID             string          `json:"id"`
	BillNumber     string          `json:"bill_number"`
	IsPrinted      bool            `json:"is_printed"`
	SaleDateTime   Timestamp       `json:"sale_date_time"`
	TotalBeforeTax decimal.Decimal `json:"total_before_tax"`
	TotalTaxAmount decimal.Decimal `json:"total_tax_amount"`
	GrandTotal     decimal.Decimal `json:"grand_total"`
	PaymentMethod  string          `json:"payment_method"`
	Items          []SoldItem      `json:"items_sold"`
}

func (so *SalesOrder) SetID(id string) { so.ID = id }

func (so *SalesOrder) Validate() error {
	switch so.PaymentMethod {
	case PaymentMethodCash, PaymentMethodUPI, PaymentMethodCustomerTab:
	default:
		return fmt.Errorf("%w: unknown payment_method %q", ErrInvalidInput, so.PaymentMethod)
	}
	if len(so.Items) == 0 {
		return fmt.Errorf("%w: sales order has no items", ErrInvalidInput)
	}
	return nil
}

type Customer struct {
	ID                 string          `json:"id"`
	Name               string          `json:"name"`
	Contact            string          `json:"contact"`
	Address            string          `json:"address,omitempty"`
	OutstandingBalance decimal.Decimal `json:"outstanding_balance"`
}

func (c *Customer) SetID(id string) { c.ID = id }

func (c *Customer) Validate() error {
	if strings.TrimSpace(c.Name) == "" || strings.TrimSpace(c.Contact) == "" {
		return fmt.Errorf("%w: customer name and contact are required", ErrInvalidInput)
	}
	if c.OutstandingBalance.IsNegative() {
		return fmt.Errorf("%w: outstanding_balance must not be negative", ErrInvalidInput)
	}
	return nil
}

type CustomerTransaction struct {
	ID              string          `json:"id"`
	CustomerID      string          `json:"customer_id"`
	TransactionDate Timestamp       `json:"transaction_date"`
	TransactionType string          `json:"transaction_type"`
	Amount          decimal.Decimal `json:"amount"`
	SalesOrderID    string          `json:"sales_order_id,omitempty"`
	PaymentMethod   string          `json:"payment_method,omitempty"`
}

func (t *CustomerTransaction) SetID(id string) { t.ID = id }

func (t *CustomerTransaction) Validate() error {
	switch t.TransactionType {
	case TransactionCreditSale:
		if t.SalesOrderID == "" {
			return fmt.Errorf("%w: credit sale must reference a sales order", ErrInvalidInput)
		}
		// a bill of free items is still a credit sale
		if t.Amount.IsNegative() {
			return fmt.Errorf("%w: credit sale amount must not be negative", ErrInvalidInput)
		}
	case TransactionPayment:
		if !t.Amount.IsPositive() {
			return fmt.Errorf("%w: payment amount must be positive", ErrInvalidInput)
		}
	default:
		return fmt.Errorf("%w: unknown transaction_type %q", ErrInvalidInput, t.TransactionType)
	}
	return nil
}

type OperatingCost struct {
	ID          string          `json:"id"`
	ExpenseName string          `json:"expense_name"`
	Amount      decimal.Decimal `json:"amount"`
	ExpenseDate Timestamp       `json:"expense_date"`
	Description string          `json:"description,omitempty"`
}

func (o *OperatingCost) SetID(id string) { o.ID = id }

func (o *OperatingCost) Validate() error {
	if strings.TrimSpace(o.ExpenseName) == "" {
		return fmt.Errorf("%w: expense_name is required", ErrInvalidInput)
	}
	if !o.Amount.IsPositive() {
		return fmt.Errorf("%w: expense amount must be positive", ErrInvalidInput)
	}
	return nil
}

type User struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	CreatedAt Timestamp `json:"created_at"`
}

func (u *User) SetID(id string) { u.ID = id }

func (u *User) Validate() error {
	if strings.TrimSpace(u.Email) == "" {
		return fmt.Errorf("%w: user email is required", ErrInvalidInput)
	}
	return nil
}
