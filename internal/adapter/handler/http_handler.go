package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/julienschmidt/httprouter"
	"github.com/shopspring/decimal"

	"github.com/rl1809/retail-pos/internal/core/domain"
	"github.com/rl1809/retail-pos/internal/core/service"
)

type HTTPHandler struct {
	auth      *service.AuthService
	catalog   *service.CatalogService
	checkout  *service.CheckoutService
	ledger    *service.LedgerService
	analytics *service.AnalyticsService
	login     *IPLimiter
}

func NewHTTPHandler(
	auth *service.AuthService,
	catalog *service.CatalogService,
	checkout *service.CheckoutService,
	ledger *service.LedgerService,
	analytics *service.AnalyticsService,
	loginLimit *IPLimiter,
) *HTTPHandler {
	return &HTTPHandler{
		auth:      auth,
		catalog:   catalog,
		checkout:  checkout,
		ledger:    ledger,
		analytics: analytics,
		login:     loginLimit,
	}
}

// Router wires every route behind its role guard. Admin and cashier route
// groups mirror the two sidebars of the client this API serves.
func (h *HTTPHandler) Router() *httprouter.Router {
	r := httprouter.New()

	r.GET("/health", h.HealthCheck)

	r.POST("/api/login", h.rateLimited(h.Login))
	r.POST("/api/logout", h.Logout)
	r.GET("/api/me", h.guard(domain.RoleUnknown, h.Me))

	r.GET("/api/items", h.guard(domain.RoleUnknown, h.ListItems))
	r.GET("/api/items/:id", h.guard(domain.RoleUnknown, h.GetItem))
	r.POST("/api/items", h.guard(domain.RoleAdmin, h.CreateItem))
	r.PUT("/api/items/:id", h.guard(domain.RoleAdmin, h.UpdateItem))
	r.DELETE("/api/items/:id", h.guard(domain.RoleAdmin, h.DeleteItem))

	r.GET("/api/cashiers", h.guard(domain.RoleAdmin, h.ListCashiers))
	r.POST("/api/cashiers", h.guard(domain.RoleAdmin, h.CreateCashier))
	r.DELETE("/api/cashiers/:id", h.guard(domain.RoleAdmin, h.DeleteCashier))

	r.GET("/api/analytics", h.guard(domain.RoleAdmin, h.Analytics))
	r.GET("/api/dashboard", h.guard(domain.RoleAdmin, h.Dashboard))

	r.GET("/api/orders", h.guard(domain.RoleUnknown, h.ListOrders))

	r.GET("/api/cart", h.guard(domain.RoleCashier, h.GetCart))
	r.POST("/api/cart/items", h.guard(domain.RoleCashier, h.AddCartItem))
	r.PATCH("/api/cart/items/:id", h.guard(domain.RoleCashier, h.AdjustCartItem))
	r.DELETE("/api/cart/items/:id", h.guard(domain.RoleCashier, h.RemoveCartItem))
	r.POST("/api/cart/checkout", h.guard(domain.RoleCashier, h.BeginCheckout))
	r.POST("/api/cart/cancel", h.guard(domain.RoleCashier, h.CancelCheckout))
	r.POST("/api/cart/commit", h.guard(domain.RoleCashier, h.Commit))

	return r
}

func (h *HTTPHandler) HealthCheck(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// ---- auth ----

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *HTTPHandler) Login(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid request body")
		return
	}
	token, sess, err := h.auth.SignIn(r.Context(), req.Email, req.Password)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"token":   token,
		"session": sess,
		"home":    sess.Role.Home(),
	})
}

func (h *HTTPHandler) Logout(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	if err := h.auth.SignOut(r.Context(), bearerToken(r)); err != nil {
		writeError(w, err)
		return
	}
	writeMessage(w, http.StatusOK, "signed out")
}

func (h *HTTPHandler) Me(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	writeJSON(w, http.StatusOK, SessionFromContext(r.Context()))
}

// ---- catalog ----

func (h *HTTPHandler) ListItems(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	items, err := h.catalog.List(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	if items == nil {
		items = []domain.Item{}
	}
	writeJSON(w, http.StatusOK, items)
}

func (h *HTTPHandler) GetItem(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	item, err := h.catalog.Get(r.Context(), ps.ByName("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, item)
}

func (h *HTTPHandler) CreateItem(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var fields service.ItemFields
	if err := json.NewDecoder(r.Body).Decode(&fields); err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid request body")
		return
	}
	item, err := h.catalog.Create(r.Context(), fields)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, item)
}

func (h *HTTPHandler) UpdateItem(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	var fields service.ItemFields
	if err := json.NewDecoder(r.Body).Decode(&fields); err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid request body")
		return
	}
	item, err := h.catalog.Update(r.Context(), ps.ByName("id"), fields)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, item)
}

func (h *HTTPHandler) DeleteItem(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	if err := h.catalog.Delete(r.Context(), ps.ByName("id")); err != nil {
		writeError(w, err)
		return
	}
	writeMessage(w, http.StatusOK, "item deleted")
}

// ---- cashier accounts ----

type createCashierRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Username string `json:"username"`
}

func (h *HTTPHandler) ListCashiers(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	cashiers, err := h.auth.ListCashiers(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	if cashiers == nil {
		cashiers = []domain.Account{}
	}
	writeJSON(w, http.StatusOK, cashiers)
}

func (h *HTTPHandler) CreateCashier(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var req createCashierRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid request body")
		return
	}
	acct, err := h.auth.Provision(r.Context(), req.Email, req.Password, req.Username, domain.RoleCashier)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, acct)
}

func (h *HTTPHandler) DeleteCashier(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	if err := h.auth.Revoke(r.Context(), ps.ByName("id")); err != nil {
		writeError(w, err)
		return
	}
	writeMessage(w, http.StatusOK, "cashier revoked")
}

// ---- analytics ----

func (h *HTTPHandler) Analytics(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	report, err := h.analytics.Report(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func (h *HTTPHandler) Dashboard(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	summary, err := h.analytics.Dashboard(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

// ---- orders ----

func (h *HTTPHandler) ListOrders(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	sess := SessionFromContext(r.Context())

	var orders []domain.Order
	var err error
	if sess.Role == domain.RoleAdmin {
		orders, err = h.ledger.List(r.Context())
	} else {
		orders, err = h.ledger.ListByCashier(r.Context(), sess.UserID)
	}
	if err != nil {
		writeError(w, err)
		return
	}
	if orders == nil {
		orders = []domain.Order{}
	}
	writeJSON(w, http.StatusOK, orders)
}

// ---- cart & checkout ----

type cartItemRequest struct {
	ItemID string `json:"item_id"`
}

type adjustRequest struct {
	Delta int `json:"delta"`
}

type commitRequest struct {
	PaymentType    domain.PaymentMethod `json:"payment_type"`
	AmountTendered decimal.Decimal      `json:"amount_tendered"`
}

func (h *HTTPHandler) GetCart(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	sess := SessionFromContext(r.Context())
	writeJSON(w, http.StatusOK, h.checkout.Cart(sess.UserID))
}

func (h *HTTPHandler) AddCartItem(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var req cartItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.ItemID == "" {
		writeMessage(w, http.StatusBadRequest, "item_id is required")
		return
	}
	sess := SessionFromContext(r.Context())
	if err := h.checkout.AddItem(r.Context(), sess.UserID, req.ItemID); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, h.checkout.Cart(sess.UserID))
}

func (h *HTTPHandler) AdjustCartItem(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	var req adjustRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Delta == 0 {
		writeMessage(w, http.StatusBadRequest, "delta must be a non-zero step")
		return
	}
	sess := SessionFromContext(r.Context())
	if err := h.checkout.AdjustQuantity(sess.UserID, ps.ByName("id"), req.Delta); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, h.checkout.Cart(sess.UserID))
}

func (h *HTTPHandler) RemoveCartItem(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	sess := SessionFromContext(r.Context())
	if err := h.checkout.RemoveItem(sess.UserID, ps.ByName("id")); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, h.checkout.Cart(sess.UserID))
}

func (h *HTTPHandler) BeginCheckout(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	sess := SessionFromContext(r.Context())
	if err := h.checkout.BeginCheckout(sess.UserID); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, h.checkout.Cart(sess.UserID))
}

func (h *HTTPHandler) CancelCheckout(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	sess := SessionFromContext(r.Context())
	if err := h.checkout.CancelCheckout(sess.UserID); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, h.checkout.Cart(sess.UserID))
}

func (h *HTTPHandler) Commit(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var req commitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if !req.PaymentType.Valid() {
		writeMessage(w, http.StatusBadRequest, "payment_type must be CASH or GCASH")
		return
	}
	sess := SessionFromContext(r.Context())
	order, err := h.checkout.Commit(r.Context(), sess, req.PaymentType, req.AmountTendered)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, order)
}

// ---- response helpers ----

type messageResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeMessage(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, messageResponse{Success: status < 400, Message: msg})
}

// writeError maps domain errors to statuses and keeps the error text
// intact, so collaborator messages reach the client verbatim.
func writeError(w http.ResponseWriter, err error) {
	writeMessage(w, statusOf(err), err.Error())
}

func statusOf(err error) int {
	switch {
	case errors.Is(err, domain.ErrInvalidCredentials):
		return http.StatusUnauthorized
	case errors.Is(err, domain.ErrNotPermitted):
		return http.StatusForbidden
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrInsufficientPayment):
		return http.StatusPaymentRequired
	case errors.Is(err, domain.ErrInsufficientStock),
		errors.Is(err, domain.ErrCommitInFlight),
		errors.Is(err, domain.ErrDuplicateAccount):
		return http.StatusConflict
	case errors.Is(err, domain.ErrEmptyCart),
		errors.Is(err, domain.ErrCheckoutNotStarted),
		errors.Is(err, domain.ErrInvalidItem):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
