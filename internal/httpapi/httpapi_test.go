package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"myshop/backend/internal/cache"
	"myshop/backend/internal/domain"
	"myshop/backend/internal/logger"
	"myshop/backend/internal/repository"
	"myshop/backend/internal/service"
	"myshop/backend/internal/store/memory"
)

const testSecret = "test-secret-that-is-long-enough-for-hs256"

type captureNotifier struct {
	mu    sync.Mutex
	codes map[string]string
}

func (n *captureNotifier) SendOTP(_ context.Context, user domain.User, code string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.codes == nil {
		n.codes = make(map[string]string)
	}
	n.codes[user.Email] = code
	return nil
}

func (n *captureNotifier) code(email string) string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.codes[email]
}

type testServer struct {
	t        *testing.T
	handler  http.Handler
	api      *API
	notifier *captureNotifier
}

func newTestServer(t *testing.T, attemptsPerMin int) *testServer {
	t.Helper()
	repo := repository.New(memory.New())
	svc := service.New(repo, logger.Nop(), service.Options{Location: time.UTC})
	notifier := &captureNotifier{}
	auth := NewAuthManager(testSecret, repo, cache.NewMemoryChallengeStore(), AuthOptions{Notifier: notifier})
	api := New(svc, auth, logger.Nop(), Options{AllowedOrigin: "http://localhost:5173", LoginAttemptsPerMin: attemptsPerMin})
	return &testServer{t: t, handler: api.Handler(), api: api, notifier: notifier}
}

func (s *testServer) do(method, path, token string, body any) *httptest.ResponseRecorder {
	s.t.Helper()
	var reader *bytes.Reader
	switch v := body.(type) {
	case nil:
		reader = bytes.NewReader(nil)
	case string:
		reader = bytes.NewReader([]byte(v))
	default:
		raw, err := json.Marshal(v)
		require.NoError(s.t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)
	return rec
}

func (s *testServer) decode(rec *httptest.ResponseRecorder, dest any) {
	s.t.Helper()
	require.NoError(s.t, json.Unmarshal(rec.Body.Bytes(), dest), rec.Body.String())
}

// login signs a user up and walks the OTP flow, returning a bearer token.
func (s *testServer) login(email string) string {
	s.t.Helper()
	rec := s.do(http.MethodPost, "/api/v1/auth/signup", "", map[string]any{"name": "Priya", "email": email})
	require.Equal(s.t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = s.do(http.MethodPost, "/api/v1/auth/login", "", map[string]any{"email": email})
	require.Equal(s.t, http.StatusOK, rec.Code, rec.Body.String())

	rec = s.do(http.MethodPost, "/api/v1/auth/verify", "", map[string]any{"email": email, "otp": s.notifier.code(email)})
	require.Equal(s.t, http.StatusOK, rec.Code, rec.Body.String())
	var token domain.TokenResponse
	s.decode(rec, &token)
	return token.AccessToken
}

func wrongCode(code string) string {
	if code == "999999" {
		return "000000"
	}
	return "999999"
}

func TestHealthIsPublicAndHardened(t *testing.T) {
	s := newTestServer(t, 50)

	rec := s.do(http.MethodGet, "/healthz", "", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "DENY", rec.Header().Get("X-Frame-Options"))
	assert.NotEmpty(t, rec.Header().Get("Referrer-Policy"))
	assert.NotEmpty(t, rec.Header().Get("X-Request-Id"))
	var body map[string]any
	s.decode(rec, &body)
	assert.Equal(t, true, body["ok"])
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	s := newTestServer(t, 50)

	rec := s.do(http.MethodGet, "/api/v1/inventory/products", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = s.do(http.MethodGet, "/api/v1/inventory/products", "not-a-jwt", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestOTPLoginFlow(t *testing.T) {
	s := newTestServer(t, 50)
	email := "priya@example.com"

	rec := s.do(http.MethodPost, "/api/v1/auth/signup", "", map[string]any{"name": "Priya", "email": "Priya@Example.com"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var user domain.User
	s.decode(rec, &user)
	assert.Equal(t, email, user.Email)

	rec = s.do(http.MethodPost, "/api/v1/auth/signup", "", map[string]any{"name": "Other", "email": email})
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = s.do(http.MethodPost, "/api/v1/auth/login", "", map[string]any{"email": "nobody@example.com"})
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = s.do(http.MethodPost, "/api/v1/auth/login", "", map[string]any{"email": email})
	require.Equal(t, http.StatusOK, rec.Code)
	code := s.notifier.code(email)
	require.Len(t, code, 6)

	rec = s.do(http.MethodPost, "/api/v1/auth/verify", "", map[string]any{"email": email, "otp": wrongCode(code)})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = s.do(http.MethodPost, "/api/v1/auth/verify", "", map[string]any{"email": email, "otp": code})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var token domain.TokenResponse
	s.decode(rec, &token)
	assert.Equal(t, "bearer", token.TokenType)
	require.NotEmpty(t, token.AccessToken)

	// codes are single use
	rec = s.do(http.MethodPost, "/api/v1/auth/verify", "", map[string]any{"email": email, "otp": code})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = s.do(http.MethodGet, "/api/v1/auth/me", token.AccessToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var me map[string]any
	s.decode(rec, &me)
	assert.Equal(t, email, me["email"])
	assert.Equal(t, user.ID, me["id"])
}

func TestOTPBurnsAfterRepeatedFailures(t *testing.T) {
	s := newTestServer(t, 50)
	email := "ravi@example.com"
	s.do(http.MethodPost, "/api/v1/auth/signup", "", map[string]any{"name": "Ravi", "email": email})
	s.do(http.MethodPost, "/api/v1/auth/login", "", map[string]any{"email": email})
	code := s.notifier.code(email)

	for range maxOTPAttempts {
		rec := s.do(http.MethodPost, "/api/v1/auth/verify", "", map[string]any{"email": email, "otp": wrongCode(code)})
		require.Equal(t, http.StatusUnauthorized, rec.Code)
	}

	rec := s.do(http.MethodPost, "/api/v1/auth/verify", "", map[string]any{"email": email, "otp": code})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestLoginIsRateLimited(t *testing.T) {
	s := newTestServer(t, 2)
	email := "meera@example.com"
	s.do(http.MethodPost, "/api/v1/auth/signup", "", map[string]any{"name": "Meera", "email": email})

	for range 2 {
		rec := s.do(http.MethodPost, "/api/v1/auth/login", "", map[string]any{"email": email})
		require.Equal(t, http.StatusOK, rec.Code)
	}
	rec := s.do(http.MethodPost, "/api/v1/auth/login", "", map[string]any{"email": email})
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
}

func TestTokenFromAnotherSecretIsRejected(t *testing.T) {
	s := newTestServer(t, 50)
	token := s.login("asha@example.com")

	other := NewAuthManager("a-completely-different-signing-secret!", nil, cache.NewMemoryChallengeStore(), AuthOptions{})
	_, err := other.ParseToken(token)
	assert.ErrorIs(t, err, domain.ErrUnauthorized)

	sub, err := s.api.auth.ParseToken(token)
	require.NoError(t, err)
	assert.NotEmpty(t, sub)
}

func TestPurchaseCheckoutAndReportsOverHTTP(t *testing.T) {
	s := newTestServer(t, 50)
	token := s.login("owner@example.com")

	rec := s.do(http.MethodPost, "/api/v1/suppliers", token, map[string]any{"name": "Gupta Distributors", "contact": "9811122233"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var supplier domain.Supplier
	s.decode(rec, &supplier)

	rec = s.do(http.MethodPost, "/api/v1/inventory/products", token, map[string]any{
		"product_name":         "Poha 500g",
		"product_code":         "POHA-500",
		"tax_percentage":       5,
		"global_selling_price": 60,
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var product domain.Product
	s.decode(rec, &product)

	rec = s.do(http.MethodPost, "/api/v1/purchases", token, map[string]any{
		"supplier_id":       supplier.ID,
		"total_amount_owed": 400,
		"payment_status":    "Unpaid",
		"items":             []map[string]any{{"product_id": product.ID, "quantity": 10, "cost_price": 40}},
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = s.do(http.MethodGet, "/api/v1/inventory/products/"+product.ID+"/batches", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var batches []domain.Batch
	s.decode(rec, &batches)
	require.Len(t, batches, 1)

	rec = s.do(http.MethodPost, "/api/v1/pos/simulate-sale", token, map[string]any{"product_id": product.ID, "quantity": 12})
	require.Equal(t, http.StatusOK, rec.Code)
	var sim domain.SimulationResult
	s.decode(rec, &sim)
	assert.False(t, sim.Sufficient)
	assert.Equal(t, 2, sim.Shortage)

	rec = s.do(http.MethodPost, "/api/v1/pos/checkout", token, map[string]any{
		"payment_method": "UPI",
		"items": []map[string]any{{
			"product_id":                    product.ID,
			"batch_id":                      batches[0].ID,
			"quantity":                      4,
			"actual_selling_price_per_unit": 60,
		}},
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var checkout domain.CheckoutResponse
	s.decode(rec, &checkout)
	assert.Equal(t, "success", checkout.Status)

	rec = s.do(http.MethodGet, "/api/v1/reports/sales/"+checkout.SaleID, token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var sale domain.SalesOrder
	s.decode(rec, &sale)
	assert.True(t, sale.GrandTotal.Equal(decimal.RequireFromString("252")), sale.GrandTotal.String())

	rec = s.do(http.MethodGet, "/api/v1/inventory/products/"+product.ID, token, nil)
	s.decode(rec, &product)
	assert.Equal(t, 6, product.CurrentTotalStock)

	rec = s.do(http.MethodGet, "/api/v1/reports/sales?page=1", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var sales domain.Page[domain.SaleSummary]
	s.decode(rec, &sales)
	assert.Equal(t, 1, sales.Total)

	rec = s.do(http.MethodGet, "/api/v1/reports/sales?page=abc", token, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(http.MethodGet, "/api/v1/purchases?supplier_id="+supplier.ID, token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var orders []domain.PurchaseOrder
	s.decode(rec, &orders)
	require.Len(t, orders, 1)

	rec = s.do(http.MethodPost, "/api/v1/purchases/"+orders[0].ID+"/pay", token, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	rec = s.do(http.MethodPost, "/api/v1/purchases/"+orders[0].ID+"/pay", token, nil)
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestCustomerCreditOverHTTP(t *testing.T) {
	s := newTestServer(t, 50)
	token := s.login("owner@example.com")

	rec := s.do(http.MethodPost, "/api/v1/customers", token, map[string]any{"name": "Kavita", "contact": "9000011111"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var customer domain.Customer
	s.decode(rec, &customer)

	rec = s.do(http.MethodPost, "/api/v1/customers/"+customer.ID+"/settle", token, map[string]any{"payment_method": "Cash"})
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = s.do(http.MethodGet, "/api/v1/customers/"+customer.ID+"/ledger", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, "[]", rec.Body.String())

	rec = s.do(http.MethodGet, "/api/v1/customers/"+customer.ID+"/history", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = s.do(http.MethodDelete, "/api/v1/customers/"+customer.ID, token, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = s.do(http.MethodGet, "/api/v1/customers/"+customer.ID, token, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRequestValidationStatuses(t *testing.T) {
	s := newTestServer(t, 50)
	token := s.login("owner@example.com")

	tests := []struct {
		name   string
		method string
		path   string
		body   any
		want   int
	}{
		{name: "unknown field", method: http.MethodPost, path: "/api/v1/suppliers", body: map[string]any{"name": "X", "fax": "1"}, want: http.StatusBadRequest},
		{name: "malformed json", method: http.MethodPost, path: "/api/v1/customers", body: `{"name":`, want: http.StatusBadRequest},
		{name: "missing product", method: http.MethodGet, path: "/api/v1/inventory/products/prod-missing", want: http.StatusNotFound},
		{name: "bad payment method", method: http.MethodPost, path: "/api/v1/pos/checkout", body: map[string]any{"payment_method": "Card", "items": []any{}}, want: http.StatusBadRequest},
		{name: "bad date range", method: http.MethodGet, path: "/api/v1/reports/financial-summary?start_date=2025-03-10&end_date=2025-03-01", want: http.StatusBadRequest},
		{name: "unknown route", method: http.MethodGet, path: "/api/v1/nothing-here", want: http.StatusNotFound},
		{name: "wrong method", method: http.MethodDelete, path: "/api/v1/pos/checkout", want: http.StatusMethodNotAllowed},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			rec := s.do(tc.method, tc.path, token, tc.body)
			assert.Equal(t, tc.want, rec.Code, rec.Body.String())
		})
	}
}

func TestStatusForTaxonomy(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{err: fmt.Errorf("%w: product", domain.ErrNotFound), want: http.StatusNotFound},
		{err: &domain.InsufficientStockError{BatchID: "b", Requested: 3, Available: 1}, want: http.StatusConflict},
		{err: fmt.Errorf("%w: bad", domain.ErrInvalidInput), want: http.StatusBadRequest},
		{err: domain.ErrUnauthorized, want: http.StatusUnauthorized},
		{err: domain.ErrRateLimited, want: http.StatusTooManyRequests},
		{err: &domain.PartialDeductionError{AppliedBatchIDs: []string{"b1"}, Err: errors.New("boom")}, want: http.StatusInternalServerError},
		{err: &domain.PartialDeductionError{AppliedBatchIDs: []string{"b1"}, Err: domain.ErrNotFound}, want: http.StatusInternalServerError},
		{err: errors.New("anything else"), want: http.StatusInternalServerError},
	}
	for _, tc := range tests {
		assert.Equal(t, tc.want, statusFor(tc.err), tc.err.Error())
	}
}

func TestServerErrorsHideCause(t *testing.T) {
	s := newTestServer(t, 50)
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/reports/sales", nil)

	s.api.fail(rec, req, fmt.Errorf("%w: postgres: connection refused", domain.ErrUpstream))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"error":"internal server error"}`, rec.Body.String())
}

func TestAttemptLimiterWindow(t *testing.T) {
	limiter := newAttemptLimiter(2, 50*time.Millisecond)

	assert.True(t, limiter.Allow("10.0.0.1"))
	assert.True(t, limiter.Allow("10.0.0.1"))
	assert.False(t, limiter.Allow("10.0.0.1"))
	assert.True(t, limiter.Allow("10.0.0.2"))

	time.Sleep(60 * time.Millisecond)
	assert.True(t, limiter.Allow("10.0.0.1"))
}
