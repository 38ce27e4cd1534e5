package preorder

import (
	"context"
	"errors"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
	"strings"
	"time"
)

// MenuRepo manages the menu catalog and the stock side of the ledger.
type MenuRepo struct {
	DB       *pgxpool.Pool
	LockWait time.Duration
}

// List returns the full menu ordered by name.
func (r *MenuRepo) List(ctx context.Context) ([]MenuItem, error) {
	rows, err := r.DB.Query(ctx,
		`SELECT id, name, price, quantity_available, stock_total, created_at, updated_at
		   FROM menu_items ORDER BY name`)
	if err != nil {
		return nil, classify(err)
	}
	defer rows.Close()

	out := []MenuItem{}
	for rows.Next() {
		var m MenuItem
		if err := rows.Scan(&m.ID, &m.Name, &m.Price, &m.QuantityAvailable, &m.StockTotal, &m.CreatedAt, &m.UpdatedAt); err != nil {
			return nil, classify(err)
		}
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return nil, classify(err)
	}
	return out, nil
}

// Get returns one menu item by id.
func (r *MenuRepo) Get(ctx context.Context, itemID string) (MenuItem, error) {
	var m MenuItem
	err := r.DB.QueryRow(ctx,
		`SELECT id, name, price, quantity_available, stock_total, created_at, updated_at
		   FROM menu_items WHERE id = $1`, itemID).
		Scan(&m.ID, &m.Name, &m.Price, &m.QuantityAvailable, &m.StockTotal, &m.CreatedAt, &m.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return MenuItem{}, errItemNotFound(itemID)
	}
	if err != nil {
		return MenuItem{}, classify(err)
	}
	return m, nil
}

// CreateItem adds a new menu item with its opening stock. The opening
// quantity seeds both the available pool and the cumulative stocked total.
func (r *MenuRepo) CreateItem(ctx context.Context, name string, price decimal.Decimal, qty int) (MenuItem, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return MenuItem{}, errInvalidArgument("menu item name must not be empty")
	}
	if price.IsNegative() {
		return MenuItem{}, errInvalidArgument("price must not be negative")
	}
	if qty < 0 {
		return MenuItem{}, errInvalidArgument("opening stock must not be negative")
	}

	m := MenuItem{ID: uuid.NewString(), Name: name, Price: price, QuantityAvailable: qty, StockTotal: qty}
	err := r.DB.QueryRow(ctx,
		`INSERT INTO menu_items (id, name, price, quantity_available, stock_total)
		 VALUES ($1, $2, $3, $4, $4)
		 RETURNING created_at, updated_at`,
		m.ID, m.Name, m.Price, qty).Scan(&m.CreatedAt, &m.UpdatedAt)
	if err != nil {
		return MenuItem{}, classify(err)
	}
	return m, nil
}

// Restock adds qty units of an item. Both the available pool and the
// cumulative stocked total grow by the same amount, so the conservation
// check stays balanced. Returns the new available quantity.
func (r *MenuRepo) Restock(ctx context.Context, itemID string, qty int) (int, error) {
	if qty <= 0 {
		return 0, errInvalidArgument("restock quantity must be positive, got %d", qty)
	}

	tx, err := beginOp(ctx, r.DB, r.LockWait)
	if err != nil {
		return 0, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := lockItemStock(ctx, tx, itemID); err != nil {
		return 0, err
	}
	var available int
	err = tx.QueryRow(ctx,
		`UPDATE menu_items
		    SET quantity_available = quantity_available + $2,
		        stock_total        = stock_total + $2,
		        updated_at         = now()
		  WHERE id = $1
		  RETURNING quantity_available`, itemID, qty).Scan(&available)
	if err != nil {
		return 0, classify(err)
	}
	if err := tx.Commit(ctx); err != nil {
		return 0, classify(err)
	}
	return available, nil
}

// StockBreakdown reports where every stocked unit of an item currently
// lives: still available, reserved in carts, or sold on non-cancelled
// orders. The three pools plus nothing else must add up to stock_total.
func (r *MenuRepo) StockBreakdown(ctx context.Context, itemID string) (Breakdown, error) {
	var b Breakdown
	err := r.DB.QueryRow(ctx,
		`SELECT mi.id,
		        mi.quantity_available,
		        mi.stock_total,
		        COALESCE((SELECT SUM(cl.quantity) FROM cart_lines cl WHERE cl.menu_item_id = mi.id), 0),
		        COALESCE((SELECT SUM(ol.quantity)
		                    FROM order_lines ol
		                    JOIN orders o ON o.id = ol.order_id
		                   WHERE ol.menu_item_id = mi.id AND o.status <> 'cancelled'), 0)
		   FROM menu_items mi WHERE mi.id = $1`, itemID).
		Scan(&b.ItemID, &b.Available, &b.StockTotal, &b.Reserved, &b.Sold)
	if errors.Is(err, pgx.ErrNoRows) {
		return Breakdown{}, errItemNotFound(itemID)
	}
	if err != nil {
		return Breakdown{}, classify(err)
	}
	return b, nil
}
