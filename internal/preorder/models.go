package preorder

import (
	"github.com/shopspring/decimal"
	"time"
)

type MenuItem struct {
	ID                string          `json:"id"`
	Name              string          `json:"name"`
	Price             decimal.Decimal `json:"price"`
	QuantityAvailable int             `json:"quantity_available"`
	StockTotal        int             `json:"stock_total"`
	CreatedAt         time.Time       `json:"created_at"`
	UpdatedAt         time.Time       `json:"updated_at"`
}

// CartLine is stock reserved by one user for one menu item; at most one line
// exists per (user, item). CreatedAt is refreshed by every mutation.
type CartLine struct {
	ID         string    `json:"id"`
	UserID     string    `json:"user_id"`
	MenuItemID string    `json:"menu_item_id"`
	Quantity   int       `json:"quantity"`
	CreatedAt  time.Time `json:"created_at"`
}

type Order struct {
	ID            string          `json:"id"`
	UserID        string          `json:"user_id"`
	Status        Status          `json:"status"`
	PaymentStatus PaymentStatus   `json:"payment_status"`
	TotalAmount   decimal.Decimal `json:"total_amount"`
	CreatedAt     time.Time       `json:"created_at"`
}

// OrderLine copies quantity and unit price at checkout time; later price
// changes never affect recorded orders.
type OrderLine struct {
	OrderID    string          `json:"order_id"`
	MenuItemID string          `json:"menu_item_id"`
	Quantity   int             `json:"quantity"`
	Price      decimal.Decimal `json:"price"`
}

// ---- operation results ----

type AddItemResult struct {
	CartLineID     string `json:"cart_item_id"`
	LineQuantity   int    `json:"new_line_quantity"`
	RemainingStock int    `json:"remaining_stock"`
}

type LineAction string

const (
	LineUpdated LineAction = "updated"
	LineRemoved LineAction = "removed"
)

type SetQuantityResult struct {
	Action         LineAction `json:"action"`
	OldQuantity    int        `json:"old_quantity"`
	NewQuantity    int        `json:"new_quantity"`
	RemainingStock int        `json:"remaining_stock"`
}

type RemoveItemResult struct {
	RestoredQuantity int `json:"restored_quantity"`
	RemainingStock   int `json:"remaining_stock"`
}

type CheckoutResult struct {
	OrderID     string          `json:"order_id"`
	TotalAmount decimal.Decimal `json:"total_amount"`
	LineCount   int             `json:"line_count"`
}

// ---- read views ----

type CartViewLine struct {
	ID         string          `json:"id"`
	MenuItemID string          `json:"menu_item_id"`
	Name       string          `json:"name"`
	Quantity   int             `json:"quantity"`
	UnitPrice  decimal.Decimal `json:"unit_price"`
	Subtotal   decimal.Decimal `json:"subtotal"`
	TouchedAt  time.Time       `json:"touched_at"`
}

type CartView struct {
	Lines []CartViewLine  `json:"lines"`
	Total decimal.Decimal `json:"total"`
}

type OrderLineView struct {
	MenuItemID string          `json:"menu_item_id"`
	Name       string          `json:"name"`
	Quantity   int             `json:"quantity"`
	Price      decimal.Decimal `json:"price"`
	Subtotal   decimal.Decimal `json:"subtotal"`
}

type OrderDetail struct {
	Order Order           `json:"order"`
	Lines []OrderLineView `json:"lines"`
}

// Breakdown partitions one item's stock by where it currently sits. For a
// consistent snapshot Available+Reserved+Sold always equals StockTotal.
type Breakdown struct {
	ItemID     string `json:"item_id"`
	Available  int    `json:"available"`
	Reserved   int    `json:"reserved"`
	Sold       int    `json:"sold"`
	StockTotal int    `json:"stock_total"`
}

func (b Breakdown) Balanced() bool {
	return b.Available+b.Reserved+b.Sold == b.StockTotal
}
