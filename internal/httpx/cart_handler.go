package httpx

import (
	"context"
	"encoding/json"
	"github.com/ariefcatur/go-preorder-cart.git/internal/preorder"
	"github.com/go-chi/chi/v5"
	"net/http"
	"time"
)

// CartService is the slice of the cart store the HTTP layer depends on.
type CartService interface {
	AddItem(ctx context.Context, userID, itemID string, qty int) (preorder.AddItemResult, error)
	SetQuantity(ctx context.Context, userID, lineID string, newQty int) (preorder.SetQuantityResult, error)
	RemoveItem(ctx context.Context, userID, lineID string) (preorder.RemoveItemResult, error)
	Cart(ctx context.Context, userID string) (preorder.CartView, error)
}

type CartHandler struct {
	Cart CartService
}

type addItemReq struct {
	MenuItemID string `json:"menu_item_id"`
	Quantity   int    `json:"quantity"` // omitted means 1
}

type setQuantityReq struct {
	Quantity *int `json:"quantity"`
}

func (h *CartHandler) Register(r chi.Router) {
	r.Get("/cart", h.view)
	r.Post("/cart/items", h.addItem)
	r.Patch("/cart/items/{id}", h.setQuantity)
	r.Delete("/cart/items/{id}", h.removeItem)
}

func (h *CartHandler) view(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	cart, err := h.Cart.Cart(ctx, userID(r))
	if err != nil {
		writeError(w, err)
		return
	}
	writeData(w, http.StatusOK, cart)
}

func (h *CartHandler) addItem(w http.ResponseWriter, r *http.Request) {
	var req addItemReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, badRequest("invalid json"))
		return
	}
	if req.MenuItemID == "" {
		writeError(w, badRequest("menu_item_id is required"))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	res, err := h.Cart.AddItem(ctx, userID(r), req.MenuItemID, req.Quantity)
	if err != nil {
		writeError(w, err)
		return
	}
	writeData(w, http.StatusOK, res)
}

func (h *CartHandler) setQuantity(w http.ResponseWriter, r *http.Request) {
	lineID := chi.URLParam(r, "id")
	var req setQuantityReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, badRequest("invalid json"))
		return
	}
	if req.Quantity == nil {
		writeError(w, badRequest("quantity is required"))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	res, err := h.Cart.SetQuantity(ctx, userID(r), lineID, *req.Quantity)
	if err != nil {
		writeError(w, err)
		return
	}
	writeData(w, http.StatusOK, res)
}

func (h *CartHandler) removeItem(w http.ResponseWriter, r *http.Request) {
	lineID := chi.URLParam(r, "id")

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	res, err := h.Cart.RemoveItem(ctx, userID(r), lineID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeData(w, http.StatusOK, res)
}
