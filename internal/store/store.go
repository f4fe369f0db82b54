package store

import (
	"context"
	"errors"
	"time"
)

var (
	ErrNotFound    = errors.New("document not found")
	ErrDuplicateID = errors.New("document id already exists")
)

// FieldID addresses the document id in filters and sort keys.
const FieldID = "$id"

const (
	CollectionProducts             = "products"
	CollectionBatches              = "batches"
	CollectionSuppliers            = "suppliers"
	CollectionPurchaseOrders       = "purchase_orders"
	CollectionSalesOrders          = "sales_orders"
	CollectionCustomers            = "customers"
	CollectionCustomerTransactions = "customer_transactions"
	CollectionOperatingCosts       = "operating_costs"
	CollectionUsers                = "users"
)

type Document struct {
	ID        string         `json:"id"`
	Data      map[string]any `json:"data"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
}

type Op string

const (
	OpEqual        Op = "eq"
	OpNotEqual     Op = "ne"
	OpGreater      Op = "gt"
	OpGreaterEqual Op = "gte"
	OpLessEqual    Op = "lte"
	OpContains     Op = "contains"
	OpIn           Op = "in"
)

type Filter struct {
	Field string
	Op    Op
	Value any
}

func Equal(field string, value any) Filter        { return Filter{Field: field, Op: OpEqual, Value: value} }
func NotEqual(field string, value any) Filter     { return Filter{Field: field, Op: OpNotEqual, Value: value} }
func Greater(field string, value any) Filter      { return Filter{Field: field, Op: OpGreater, Value: value} }
func GreaterEqual(field string, value any) Filter { return Filter{Field: field, Op: OpGreaterEqual, Value: value} }
func LessEqual(field string, value any) Filter    { return Filter{Field: field, Op: OpLessEqual, Value: value} }
func Contains(field string, value string) Filter  { return Filter{Field: field, Op: OpContains, Value: value} }
func In(field string, values []string) Filter     { return Filter{Field: field, Op: OpIn, Value: values} }

type SortKey struct {
	Field string
	Desc  bool
}

func Asc(field string) SortKey  { return SortKey{Field: field} }
func Desc(field string) SortKey { return SortKey{Field: field, Desc: true} }

// Query selects documents of one collection. Limit 0 returns every match.
type Query struct {
	Filters []Filter
	Sort    []SortKey
	Limit   int
	Offset  int
}

type Page struct {
	Documents []Document
	Total     int
}

// DocumentStore is a per-collection document database. Each call is atomic for
// the single document it touches; nothing spans documents.
type DocumentStore interface {
	Create(ctx context.Context, collection string, id string, fields map[string]any) (Document, error)
	Get(ctx context.Context, collection string, id string) (Document, error)
	Update(ctx context.Context, collection string, id string, fields map[string]any) (Document, error)
	Delete(ctx context.Context, collection string, id string) error
	List(ctx context.Context, collection string, q Query) (Page, error)
}
