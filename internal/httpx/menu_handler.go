package httpx

import (
	"context"
	"encoding/json"
	"fmt"
	"github.com/ariefcatur/go-preorder-cart.git/internal/preorder"
	"github.com/ariefcatur/go-preorder-cart.git/internal/redisx"
	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"net/http"
	"time"
)

// MenuService is the slice of the catalog the HTTP layer depends on.
type MenuService interface {
	List(ctx context.Context) ([]preorder.MenuItem, error)
	Get(ctx context.Context, itemID string) (preorder.MenuItem, error)
	CreateItem(ctx context.Context, name string, price decimal.Decimal, qty int) (preorder.MenuItem, error)
	Restock(ctx context.Context, itemID string, qty int) (int, error)
	StockBreakdown(ctx context.Context, itemID string) (preorder.Breakdown, error)
}

type MenuHandler struct {
	Menu  MenuService
	Redis *redis.Client
}

type createMenuReq struct {
	Name     string          `json:"name"`
	Price    decimal.Decimal `json:"price"`
	Quantity int             `json:"quantity"`
}

type restockReq struct {
	Quantity int `json:"quantity"`
}

type restockResp struct {
	ItemID    string `json:"item_id"`
	Available int    `json:"available"`
}

type stockResp struct {
	preorder.Breakdown
	Balanced bool `json:"balanced"`
}

func (h *MenuHandler) Register(r chi.Router) {
	r.Get("/menu", h.list)
	r.Get("/menu/{id}", h.get)
}

func (h *MenuHandler) RegisterStaff(r chi.Router) {
	r.Post("/admin/menu", h.create)
	r.Post("/admin/menu/{id}/restock", h.restock)
	r.Get("/admin/stock/{id}", h.stock)
}

// list serves from the Redis cache when warm; the change-feed consumer
// drops the key whenever a menu row changes.
func (h *MenuHandler) list(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	if h.Redis != nil {
		if s, err := h.Redis.Get(ctx, redisx.KeyMenuList).Result(); err == nil && s != "" {
			writeData(w, http.StatusOK, json.RawMessage(s))
			return
		}
	}

	items, err := h.Menu.List(ctx)
	if err != nil {
		writeError(w, err)
		return
	}
	b, err := json.Marshal(items)
	if err != nil {
		writeError(w, err)
		return
	}
	if h.Redis != nil {
		_ = h.Redis.Set(ctx, redisx.KeyMenuList, b, redisx.TTLMenuCache).Err()
	}
	writeData(w, http.StatusOK, json.RawMessage(b))
}

func (h *MenuHandler) get(w http.ResponseWriter, r *http.Request) {
	itemID := chi.URLParam(r, "id")

	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	key := fmt.Sprintf(redisx.KeyMenuItem, itemID)
	if h.Redis != nil {
		if s, err := h.Redis.Get(ctx, key).Result(); err == nil && s != "" {
			writeData(w, http.StatusOK, json.RawMessage(s))
			return
		}
	}

	item, err := h.Menu.Get(ctx, itemID)
	if err != nil {
		writeError(w, err)
		return
	}
	b, err := json.Marshal(item)
	if err != nil {
		writeError(w, err)
		return
	}
	if h.Redis != nil {
		_ = h.Redis.Set(ctx, key, b, redisx.TTLMenuCache).Err()
	}
	writeData(w, http.StatusOK, json.RawMessage(b))
}

func (h *MenuHandler) create(w http.ResponseWriter, r *http.Request) {
	var req createMenuReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, badRequest("invalid json"))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	item, err := h.Menu.CreateItem(ctx, req.Name, req.Price, req.Quantity)
	if err != nil {
		writeError(w, err)
		return
	}
	writeData(w, http.StatusCreated, item)
}

func (h *MenuHandler) restock(w http.ResponseWriter, r *http.Request) {
	itemID := chi.URLParam(r, "id")
	var req restockReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, badRequest("invalid json"))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	available, err := h.Menu.Restock(ctx, itemID, req.Quantity)
	if err != nil {
		writeError(w, err)
		return
	}
	writeData(w, http.StatusOK, restockResp{ItemID: itemID, Available: available})
}

func (h *MenuHandler) stock(w http.ResponseWriter, r *http.Request) {
	itemID := chi.URLParam(r, "id")

	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	b, err := h.Menu.StockBreakdown(ctx, itemID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeData(w, http.StatusOK, stockResp{Breakdown: b, Balanced: b.Balanced()})
}
