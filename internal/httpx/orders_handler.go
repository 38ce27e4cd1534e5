package httpx

import (
	"context"
	"encoding/json"
	"github.com/ariefcatur/go-preorder-cart.git/internal/preorder"
	"github.com/go-chi/chi/v5"
	"net/http"
	"time"
)

// OrderService is the slice of the order committer the HTTP layer depends on.
type OrderService interface {
	Checkout(ctx context.Context, userID string) (preorder.CheckoutResult, error)
	Order(ctx context.Context, userID, orderID string) (preorder.OrderDetail, error)
	ListOrders(ctx context.Context, userID string) ([]preorder.Order, error)
	AdvanceStatus(ctx context.Context, orderID string, from, to preorder.Status) error
}

type OrdersHandler struct {
	Orders OrderService
}

type advanceStatusReq struct {
	From preorder.Status `json:"from"`
	To   preorder.Status `json:"to"`
}

func (h *OrdersHandler) Register(r chi.Router) {
	r.Post("/checkout", h.checkout)
	r.Get("/orders", h.list)
	r.Get("/orders/{id}", h.get)
}

func (h *OrdersHandler) RegisterStaff(r chi.Router) {
	r.Post("/orders/{id}/status", h.advanceStatus)
}

func (h *OrdersHandler) checkout(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	res, err := h.Orders.Checkout(ctx, userID(r))
	if err != nil {
		writeError(w, err)
		return
	}
	writeData(w, http.StatusCreated, res)
}

func (h *OrdersHandler) list(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	out, err := h.Orders.ListOrders(ctx, userID(r))
	if err != nil {
		writeError(w, err)
		return
	}
	writeData(w, http.StatusOK, out)
}

func (h *OrdersHandler) get(w http.ResponseWriter, r *http.Request) {
	orderID := chi.URLParam(r, "id")

	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	d, err := h.Orders.Order(ctx, userID(r), orderID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeData(w, http.StatusOK, d)
}

func (h *OrdersHandler) advanceStatus(w http.ResponseWriter, r *http.Request) {
	orderID := chi.URLParam(r, "id")
	var req advanceStatusReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, badRequest("invalid json"))
		return
	}
	if req.From == "" || req.To == "" {
		writeError(w, badRequest("from and to are required"))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	if err := h.Orders.AdvanceStatus(ctx, orderID, req.From, req.To); err != nil {
		writeError(w, err)
		return
	}
	writeData(w, http.StatusOK, map[string]string{"order_id": orderID, "status": string(req.To)})
}
