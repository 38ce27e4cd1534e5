package preorder

import (
	"context"
	"errors"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
	"time"
)

// OrderRepo converts carts into immutable orders and serves order reads.
type OrderRepo struct {
	DB       *pgxpool.Pool
	LockWait time.Duration
}

// Checkout turns every cart line of the user into one order. Totals use the
// live menu price at this moment; the price is copied onto each order line.
// Stock is not touched: the units were already moved out of the available
// pool when they were reserved into the cart, checkout only reclassifies
// them as sold. Only the cart line rows are locked, never menu item rows.
func (r *OrderRepo) Checkout(ctx context.Context, userID string) (CheckoutResult, error) {
	tx, err := beginOp(ctx, r.DB, r.LockWait)
	if err != nil {
		return CheckoutResult{}, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	rows, err := tx.Query(ctx,
		`SELECT cl.id, cl.menu_item_id, cl.quantity, mi.price
		   FROM cart_lines cl
		   JOIN menu_items mi ON mi.id = cl.menu_item_id
		  WHERE cl.user_id = $1
		  ORDER BY cl.id
		  FOR UPDATE OF cl`, userID)
	if err != nil {
		return CheckoutResult{}, classify(err)
	}

	type pickedLine struct {
		lineID string
		itemID string
		qty    int
		price  decimal.Decimal
	}
	var picked []pickedLine
	for rows.Next() {
		var l pickedLine
		if err := rows.Scan(&l.lineID, &l.itemID, &l.qty, &l.price); err != nil {
			rows.Close()
			return CheckoutResult{}, classify(err)
		}
		picked = append(picked, l)
	}
	if err := rows.Err(); err != nil {
		return CheckoutResult{}, classify(err)
	}
	if len(picked) == 0 {
		return CheckoutResult{}, errEmptyCart()
	}

	total := decimal.Zero
	for _, l := range picked {
		total = total.Add(l.price.Mul(decimal.NewFromInt(int64(l.qty))))
	}

	orderID := uuid.NewString()
	if _, err := tx.Exec(ctx,
		`INSERT INTO orders (id, user_id, status, payment_status, total_amount)
		 VALUES ($1, $2, $3, $4, $5)`,
		orderID, userID, StatusPending, PaymentPending, total); err != nil {
		return CheckoutResult{}, classify(err)
	}
	for _, l := range picked {
		if _, err := tx.Exec(ctx,
			`INSERT INTO order_lines (order_id, menu_item_id, quantity, price)
			 VALUES ($1, $2, $3, $4)`,
			orderID, l.itemID, l.qty, l.price); err != nil {
			return CheckoutResult{}, classify(err)
		}
	}

	// delete exactly the locked lines; a line added concurrently after the
	// snapshot stays in the cart with its reservation intact
	lineIDs := make([]string, 0, len(picked))
	for _, l := range picked {
		lineIDs = append(lineIDs, l.lineID)
	}
	ct, err := tx.Exec(ctx, `DELETE FROM cart_lines WHERE id = ANY($1::uuid[])`, lineIDs)
	if err != nil {
		return CheckoutResult{}, classify(err)
	}
	if int(ct.RowsAffected()) != len(picked) {
		return CheckoutResult{}, errInvariant("checkout deleted %d of %d locked cart lines", ct.RowsAffected(), len(picked))
	}

	if err := tx.Commit(ctx); err != nil {
		return CheckoutResult{}, classify(err)
	}
	return CheckoutResult{OrderID: orderID, TotalAmount: total, LineCount: len(picked)}, nil
}

// AdvanceStatus moves an order along its lifecycle with a guarded
// compare-and-set: the row is only updated while it still holds the expected
// current status. Cancelling returns every ordered unit to the available
// pool in the same transaction, keeping the stock accounting balanced.
func (r *OrderRepo) AdvanceStatus(ctx context.Context, orderID string, from, to Status) error {
	if !CanTransition(from, to) {
		return errInvalidArgument("illegal status transition %s -> %s", from, to)
	}

	tx, err := beginOp(ctx, r.DB, r.LockWait)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	ct, err := tx.Exec(ctx,
		`UPDATE orders SET status = $3 WHERE id = $1 AND status = $2`,
		orderID, from, to)
	if err != nil {
		return classify(err)
	}
	if ct.RowsAffected() == 0 {
		var exists bool
		if err := tx.QueryRow(ctx,
			`SELECT EXISTS (SELECT 1 FROM orders WHERE id = $1)`, orderID).Scan(&exists); err != nil {
			return classify(err)
		}
		if !exists {
			return &OpError{Kind: KindNotFound, Message: "order not found"}
		}
		return errInvalidArgument("order %s is not %s", orderID, from)
	}

	if to == StatusCancelled {
		if err := restockCancelledLines(ctx, tx, orderID); err != nil {
			return err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return classify(err)
	}
	return nil
}

// restockCancelledLines releases each order line's quantity back to the
// ledger. Items are processed in id order so concurrent cancellations
// acquire their row locks in the same sequence.
func restockCancelledLines(ctx context.Context, tx pgx.Tx, orderID string) error {
	rows, err := tx.Query(ctx,
		`SELECT menu_item_id, quantity FROM order_lines WHERE order_id = $1 ORDER BY menu_item_id`,
		orderID)
	if err != nil {
		return classify(err)
	}
	var lines []OrderLine
	for rows.Next() {
		var l OrderLine
		if err := rows.Scan(&l.MenuItemID, &l.Quantity); err != nil {
			rows.Close()
			return classify(err)
		}
		lines = append(lines, l)
	}
	if err := rows.Err(); err != nil {
		return classify(err)
	}
	for _, l := range lines {
		if _, err := releaseStock(ctx, tx, l.MenuItemID, l.Quantity); err != nil {
			return err
		}
	}
	return nil
}

// Order returns one order with its lines, scoped to the owning user.
func (r *OrderRepo) Order(ctx context.Context, userID, orderID string) (OrderDetail, error) {
	var d OrderDetail
	err := r.DB.QueryRow(ctx,
		`SELECT id, user_id, status, payment_status, total_amount, created_at
		   FROM orders WHERE id = $1 AND user_id = $2`,
		orderID, userID).Scan(&d.Order.ID, &d.Order.UserID, &d.Order.Status,
		&d.Order.PaymentStatus, &d.Order.TotalAmount, &d.Order.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return OrderDetail{}, &OpError{Kind: KindNotFound, Message: "order not found"}
	}
	if err != nil {
		return OrderDetail{}, classify(err)
	}

	rows, err := r.DB.Query(ctx,
		`SELECT ol.menu_item_id, mi.name, ol.quantity, ol.price
		   FROM order_lines ol
		   JOIN menu_items mi ON mi.id = ol.menu_item_id
		  WHERE ol.order_id = $1
		  ORDER BY mi.name`, orderID)
	if err != nil {
		return OrderDetail{}, classify(err)
	}
	defer rows.Close()

	d.Lines = []OrderLineView{}
	for rows.Next() {
		var l OrderLineView
		if err := rows.Scan(&l.MenuItemID, &l.Name, &l.Quantity, &l.Price); err != nil {
			return OrderDetail{}, classify(err)
		}
		l.Subtotal = l.Price.Mul(decimal.NewFromInt(int64(l.Quantity)))
		d.Lines = append(d.Lines, l)
	}
	if err := rows.Err(); err != nil {
		return OrderDetail{}, classify(err)
	}
	return d, nil
}

// ListOrders returns the user's order history, newest first.
func (r *OrderRepo) ListOrders(ctx context.Context, userID string) ([]Order, error) {
	rows, err := r.DB.Query(ctx,
		`SELECT id, user_id, status, payment_status, total_amount, created_at
		   FROM orders WHERE user_id = $1 ORDER BY created_at DESC`, userID)
	if err != nil {
		return nil, classify(err)
	}
	defer rows.Close()

	out := []Order{}
	for rows.Next() {
		var o Order
		if err := rows.Scan(&o.ID, &o.UserID, &o.Status, &o.PaymentStatus, &o.TotalAmount, &o.CreatedAt); err != nil {
			return nil, classify(err)
		}
		out = append(out, o)
	}
	if err := rows.Err(); err != nil {
		return nil, classify(err)
	}
	return out, nil
}
