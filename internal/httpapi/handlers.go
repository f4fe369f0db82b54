package httpapi

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"myshop/backend/internal/domain"
	"myshop/backend/internal/service"
)

func (a *API) handleSignup(w http.ResponseWriter, r *http.Request) {
	var req domain.SignupRequest
	if !a.decode(w, r, &req) {
		return
	}
	user, err := a.auth.Signup(r.Context(), req)
	a.respond(w, r, http.StatusCreated, user, err)
}

func (a *API) handleLogin(w http.ResponseWriter, r *http.Request) {
	if !a.loginLimiter.Allow(clientKey(r)) {
		a.fail(w, r, fmt.Errorf("%w: too many login attempts, try again later", domain.ErrRateLimited))
		return
	}
	var req domain.LoginTokenRequest
	if !a.decode(w, r, &req) {
		return
	}
	resp, err := a.auth.RequestLoginToken(r.Context(), req)
	a.respond(w, r, http.StatusOK, resp, err)
}

func (a *API) handleVerify(w http.ResponseWriter, r *http.Request) {
	if !a.verifyLimiter.Allow(clientKey(r)) {
		a.fail(w, r, fmt.Errorf("%w: too many verification attempts, try again later", domain.ErrRateLimited))
		return
	}
	var req domain.VerifyOTPRequest
	if !a.decode(w, r, &req) {
		return
	}
	resp, err := a.auth.VerifyOTP(r.Context(), req)
	a.respond(w, r, http.StatusOK, resp, err)
}

func (a *API) handleMe(w http.ResponseWriter, r *http.Request) {
	actor, _ := service.ActorFromContext(r.Context())
	writeJSON(w, http.StatusOK, map[string]any{
		"id":    actor.UserID,
		"email": actor.Email,
		"name":  actor.Name,
	})
}

// inventory

func (a *API) handleListProducts(w http.ResponseWriter, r *http.Request) {
	products, err := a.service.ListProducts(r.Context())
	a.respond(w, r, http.StatusOK, products, err)
}

func (a *API) handleCreateProduct(w http.ResponseWriter, r *http.Request) {
	var req domain.ProductCreateRequest
	if !a.decode(w, r, &req) {
		return
	}
	product, err := a.service.CreateProduct(r.Context(), req)
	a.respond(w, r, http.StatusCreated, product, err)
}

func (a *API) handleSearchProducts(w http.ResponseWriter, r *http.Request) {
	products, err := a.service.SearchProducts(r.Context(), r.URL.Query().Get("query"))
	a.respond(w, r, http.StatusOK, products, err)
}

func (a *API) handleGetProduct(w http.ResponseWriter, r *http.Request) {
	product, err := a.service.GetProduct(r.Context(), chi.URLParam(r, "id"))
	a.respond(w, r, http.StatusOK, product, err)
}

func (a *API) handleUpdateProduct(w http.ResponseWriter, r *http.Request) {
	var req domain.ProductUpdateRequest
	if !a.decode(w, r, &req) {
		return
	}
	product, err := a.service.UpdateProduct(r.Context(), chi.URLParam(r, "id"), req)
	a.respond(w, r, http.StatusOK, product, err)
}

func (a *API) handleProductBatches(w http.ResponseWriter, r *http.Request) {
	batches, err := a.service.ListProductBatches(r.Context(), chi.URLParam(r, "id"))
	a.respond(w, r, http.StatusOK, batches, err)
}

func (a *API) handleUpdateBatchPrice(w http.ResponseWriter, r *http.Request) {
	var req domain.BatchPriceUpdateRequest
	if !a.decode(w, r, &req) {
		return
	}
	batch, err := a.service.UpdateBatchPrice(r.Context(), chi.URLParam(r, "id"), req)
	a.respond(w, r, http.StatusOK, batch, err)
}

// suppliers

func (a *API) handleListSuppliers(w http.ResponseWriter, r *http.Request) {
	suppliers, err := a.service.ListSuppliers(r.Context())
	a.respond(w, r, http.StatusOK, suppliers, err)
}

func (a *API) handleCreateSupplier(w http.ResponseWriter, r *http.Request) {
	var req domain.SupplierCreateRequest
	if !a.decode(w, r, &req) {
		return
	}
	supplier, err := a.service.CreateSupplier(r.Context(), req)
	a.respond(w, r, http.StatusCreated, supplier, err)
}

func (a *API) handleGetSupplier(w http.ResponseWriter, r *http.Request) {
	supplier, err := a.service.GetSupplier(r.Context(), chi.URLParam(r, "id"))
	a.respond(w, r, http.StatusOK, supplier, err)
}

func (a *API) handleUpdateSupplier(w http.ResponseWriter, r *http.Request) {
	var req domain.SupplierUpdateRequest
	if !a.decode(w, r, &req) {
		return
	}
	supplier, err := a.service.UpdateSupplier(r.Context(), chi.URLParam(r, "id"), req)
	a.respond(w, r, http.StatusOK, supplier, err)
}

func (a *API) handleDeleteSupplier(w http.ResponseWriter, r *http.Request) {
	if err := a.service.DeleteSupplier(r.Context(), chi.URLParam(r, "id")); err != nil {
		a.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// purchases

func (a *API) handleListPurchases(w http.ResponseWriter, r *http.Request) {
	orders, err := a.service.ListPurchases(r.Context(), r.URL.Query().Get("supplier_id"))
	a.respond(w, r, http.StatusOK, orders, err)
}

func (a *API) handleCreatePurchase(w http.ResponseWriter, r *http.Request) {
	var req domain.PurchaseCreateRequest
	if !a.decode(w, r, &req) {
		return
	}
	order, err := a.service.CreatePurchase(r.Context(), req)
	a.respond(w, r, http.StatusCreated, order, err)
}

func (a *API) handleGetPurchase(w http.ResponseWriter, r *http.Request) {
	order, err := a.service.GetPurchase(r.Context(), chi.URLParam(r, "id"))
	a.respond(w, r, http.StatusOK, order, err)
}

func (a *API) handlePayPurchase(w http.ResponseWriter, r *http.Request) {
	order, err := a.service.MarkPurchasePaid(r.Context(), chi.URLParam(r, "id"))
	a.respond(w, r, http.StatusOK, order, err)
}

// point of sale

func (a *API) handleSimulateSale(w http.ResponseWriter, r *http.Request) {
	var req domain.SimulateSaleRequest
	if !a.decode(w, r, &req) {
		return
	}
	result, err := a.service.SimulateSale(r.Context(), req)
	a.respond(w, r, http.StatusOK, result, err)
}

func (a *API) handleCheckout(w http.ResponseWriter, r *http.Request) {
	var req domain.CheckoutRequest
	if !a.decode(w, r, &req) {
		return
	}
	resp, err := a.service.Checkout(r.Context(), req)
	a.respond(w, r, http.StatusCreated, resp, err)
}

// customers

func (a *API) handleListCustomers(w http.ResponseWriter, r *http.Request) {
	customers, err := a.service.ListCustomers(r.Context())
	a.respond(w, r, http.StatusOK, customers, err)
}

func (a *API) handleCreateCustomer(w http.ResponseWriter, r *http.Request) {
	var req domain.CustomerCreateRequest
	if !a.decode(w, r, &req) {
		return
	}
	customer, err := a.service.CreateCustomer(r.Context(), req)
	a.respond(w, r, http.StatusCreated, customer, err)
}

func (a *API) handleGetCustomer(w http.ResponseWriter, r *http.Request) {
	customer, err := a.service.GetCustomer(r.Context(), chi.URLParam(r, "id"))
	a.respond(w, r, http.StatusOK, customer, err)
}

func (a *API) handleUpdateCustomer(w http.ResponseWriter, r *http.Request) {
	var req domain.CustomerUpdateRequest
	if !a.decode(w, r, &req) {
		return
	}
	customer, err := a.service.UpdateCustomer(r.Context(), chi.URLParam(r, "id"), req)
	a.respond(w, r, http.StatusOK, customer, err)
}

func (a *API) handleDeleteCustomer(w http.ResponseWriter, r *http.Request) {
	if err := a.service.DeleteCustomer(r.Context(), chi.URLParam(r, "id")); err != nil {
		a.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (a *API) handleCustomerLedger(w http.ResponseWriter, r *http.Request) {
	entries, err := a.service.Ledger(r.Context(), chi.URLParam(r, "id"))
	a.respond(w, r, http.StatusOK, entries, err)
}

func (a *API) handleAddCredit(w http.ResponseWriter, r *http.Request) {
	var req domain.AddCreditRequest
	if !a.decode(w, r, &req) {
		return
	}
	customer, err := a.service.AddCredit(r.Context(), chi.URLParam(r, "id"), req)
	a.respond(w, r, http.StatusOK, customer, err)
}

func (a *API) handleSettle(w http.ResponseWriter, r *http.Request) {
	var req domain.SettlePaymentRequest
	if !a.decode(w, r, &req) {
		return
	}
	customer, err := a.service.SettleDues(r.Context(), chi.URLParam(r, "id"), req)
	a.respond(w, r, http.StatusOK, customer, err)
}

func (a *API) handleCustomerHistory(w http.ResponseWriter, r *http.Request) {
	page, err := parsePage(r.URL.Query().Get("page"))
	if err != nil {
		a.fail(w, r, err)
		return
	}
	history, err := a.service.History(r.Context(), chi.URLParam(r, "id"), page)
	a.respond(w, r, http.StatusOK, history, err)
}

// reports

func (a *API) handleFinancialSummary(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	summary, err := a.service.FinancialSummary(r.Context(), query.Get("start_date"), query.Get("end_date"))
	a.respond(w, r, http.StatusOK, summary, err)
}

func (a *API) handleListOperatingCosts(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	costs, err := a.service.ListOperatingCosts(r.Context(), query.Get("start_date"), query.Get("end_date"))
	a.respond(w, r, http.StatusOK, costs, err)
}

func (a *API) handleCreateOperatingCost(w http.ResponseWriter, r *http.Request) {
	var req domain.OperatingCostCreateRequest
	if !a.decode(w, r, &req) {
		return
	}
	cost, err := a.service.CreateOperatingCost(r.Context(), req)
	a.respond(w, r, http.StatusCreated, cost, err)
}

func (a *API) handleListSales(w http.ResponseWriter, r *http.Request) {
	page, err := parsePage(r.URL.Query().Get("page"))
	if err != nil {
		a.fail(w, r, err)
		return
	}
	sales, err := a.service.ListSales(r.Context(), page)
	a.respond(w, r, http.StatusOK, sales, err)
}

func (a *API) handleGetSale(w http.ResponseWriter, r *http.Request) {
	sale, err := a.service.GetSale(r.Context(), chi.URLParam(r, "id"))
	a.respond(w, r, http.StatusOK, sale, err)
}
