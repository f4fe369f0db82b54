package domain

import "github.com/shopspring/decimal"

type ProductCreateRequest struct {
	Name               string          `json:"product_name"`
	Code               string          `json:"product_code"`
	TaxPercentage      decimal.Decimal `json:"tax_percentage"`
	GlobalSellingPrice decimal.Decimal `json:"global_selling_price"`
}

// ProductUpdateRequest has no stock field: stock only moves through purchase
// intake and sales.
type ProductUpdateRequest struct {
	Name               *string          `json:"product_name,omitempty"`
	Code               *string          `json:"product_code,omitempty"`
	TaxPercentage      *decimal.Decimal `json:"tax_percentage,omitempty"`
	GlobalSellingPrice *decimal.Decimal `json:"global_selling_price,omitempty"`
}

func (r ProductUpdateRequest) Empty() bool {
	return r.Name == nil && r.Code == nil && r.TaxPercentage == nil && r.GlobalSellingPrice == nil
}

type BatchPriceUpdateRequest struct {
	SellingPrice decimal.Decimal `json:"selling_price"`
}

type SupplierCreateRequest struct {
	Name        string `json:"name"`
	Contact     string `json:"contact"`
	Address     string `json:"address"`
	GSTINNumber string `json:"gstin_number"`
}

type SupplierUpdateRequest struct {
	Name        *string `json:"name,omitempty"`
	Contact     *string `json:"contact,omitempty"`
	Address     *string `json:"address,omitempty"`
	GSTINNumber *string `json:"gstin_number,omitempty"`
}

func (r SupplierUpdateRequest) Empty() bool {
	return r.Name == nil && r.Contact == nil && r.Address == nil && r.GSTINNumber == nil
}

type PurchaseItemRequest struct {
	ProductID string          `json:"product_id"`
	Quantity  int             `json:"quantity"`
	CostPrice decimal.Decimal `json:"cost_price"`
}

type PurchaseCreateRequest struct {
	SupplierID      string                `json:"supplier_id"`
	TotalAmountOwed decimal.Decimal       `json:"total_amount_owed"`
	PaymentStatus   string                `json:"payment_status"`
	PurchaseDate    string                `json:"purchase_date,omitempty"`
	Items           []PurchaseItemRequest `json:"items"`
}

type SimulateSaleRequest struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
}

type SimulationLine struct {
	BatchID               string          `json:"batch_id"`
	QuantityToSell        int             `json:"quantity_to_sell"`
	CostPrice             decimal.Decimal `json:"cost_price"`
	SuggestedSellingPrice decimal.Decimal `json:"suggested_selling_price"`
	AvailableStockInBatch int             `json:"available_stock_in_batch"`
	DateReceived          Timestamp       `json:"date_received"`
}

type SimulationResult struct {
	Sufficient bool             `json:"is_sufficient_stock"`
	Shortage   int              `json:"stock_shortage"`
	LineItems  []SimulationLine `json:"line_items"`
}

// SaleItem is one requested line of a checkout or credit sale.
type SaleItem struct {
	ProductID   string          `json:"product_id"`
	BatchID     string          `json:"batch_id"`
	Quantity    int             `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"actual_selling_price_per_unit"`
	ProductName string          `json:"product_name,omitempty"`
}

type CheckoutRequest struct {
	PaymentMethod string     `json:"payment_method"`
	Items         []SaleItem `json:"items"`
	PrintBill     bool       `json:"print_bill"`
}

type CheckoutResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
	SaleID  string `json:"sale_id"`
}

type CustomerCreateRequest struct {
	Name    string `json:"name"`
	Contact string `json:"contact"`
	Address string `json:"address"`
}

type CustomerUpdateRequest struct {
	Name    *string `json:"name,omitempty"`
	Contact *string `json:"contact,omitempty"`
	Address *string `json:"address,omitempty"`
}

func (r CustomerUpdateRequest) Empty() bool {
	return r.Name == nil && r.Contact == nil && r.Address == nil
}

type AddCreditRequest struct {
	Items []SaleItem `json:"items"`
}

type SettlePaymentRequest struct {
	PaymentMethod string `json:"payment_method"`
}

type FinancialSummary struct {
	TotalProfit           decimal.Decimal `json:"total_profit"`
	TotalSales            decimal.Decimal `json:"total_sales"`
	TotalTaxCollected     decimal.Decimal `json:"total_tax_collected"`
	CurrentInventoryValue decimal.Decimal `json:"current_inventory_value"`
	VendorDues            decimal.Decimal `json:"vendor_dues"`
	TotalCOGS             decimal.Decimal `json:"total_cogs"`
	TotalOperatingCosts   decimal.Decimal `json:"total_operating_costs"`
}

type OperatingCostCreateRequest struct {
	ExpenseName string          `json:"expense_name"`
	Amount      decimal.Decimal `json:"amount"`
	ExpenseDate string          `json:"expense_date"`
	Description string          `json:"description"`
}

type SaleSummary struct {
	ID            string          `json:"id"`
	BillNumber    string          `json:"bill_number"`
	SaleDateTime  Timestamp       `json:"sale_date_time"`
	GrandTotal    decimal.Decimal `json:"grand_total"`
	PaymentMethod string          `json:"payment_method"`
}

type Page[T any] struct {
	Total  int `json:"total"`
	Limit  int `json:"limit"`
	Offset int `json:"offset"`
	Data   []T `json:"data"`
}

type SignupRequest struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

type LoginTokenRequest struct {
	Email string `json:"email"`
}

type LoginTokenResponse struct {
	UserID    string `json:"user_id"`
	ExpiresAt string `json:"expires_at"`
}

type VerifyOTPRequest struct {
	Email string `json:"email"`
	OTP   string `json:"otp"`
}

type TokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresAt   string `json:"expires_at"`
}
