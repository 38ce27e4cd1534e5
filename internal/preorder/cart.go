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

// CartRepo tracks per-user reservations. Every mutating operation is one
// all-or-nothing transaction pairing a ledger movement with the cart line
// write, so a failure anywhere leaves both untouched.
type CartRepo struct {
	DB       *pgxpool.Pool
	LockWait time.Duration
}

// AddItem reserves qty units of an item (default 1) and creates the user's
// cart line for it, or increments the existing one. The existing line is read
// FOR UPDATE before branching: the item row lock serializes other cart
// mutations of the item but not checkout, which locks only cart lines, so an
// unlocked read could see a line a committing checkout is about to delete.
func (r *CartRepo) AddItem(ctx context.Context, userID, itemID string, qty int) (AddItemResult, error) {
	if qty == 0 {
		qty = 1
	}
	if qty < 0 {
		return AddItemResult{}, errInvalidArgument("quantity must be positive, got %d", qty)
	}

	tx, err := beginOp(ctx, r.DB, r.LockWait)
	if err != nil {
		return AddItemResult{}, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	remaining, err := reserveStock(ctx, tx, itemID, qty)
	if err != nil {
		return AddItemResult{}, err
	}

	// a line mid-delete by checkout blocks this read until the delete
	// commits, after which it reads as absent and the insert branch runs
	var line CartLine
	err = tx.QueryRow(ctx,
		`SELECT id, quantity FROM cart_lines WHERE user_id = $1 AND menu_item_id = $2 FOR UPDATE`,
		userID, itemID).Scan(&line.ID, &line.Quantity)
	switch {
	case err == nil:
		line.Quantity += qty
		ct, err := tx.Exec(ctx,
			`UPDATE cart_lines SET quantity = $2, created_at = now() WHERE id = $1`,
			line.ID, line.Quantity)
		if err != nil {
			return AddItemResult{}, classify(err)
		}
		if ct.RowsAffected() != 1 {
			return AddItemResult{}, errInvariant("cart line %s vanished while locked", line.ID)
		}
	case errors.Is(err, pgx.ErrNoRows):
		line.ID = uuid.NewString()
		line.Quantity = qty
		if _, err := tx.Exec(ctx,
			`INSERT INTO cart_lines (id, user_id, menu_item_id, quantity) VALUES ($1, $2, $3, $4)`,
			line.ID, userID, itemID, qty); err != nil {
			return AddItemResult{}, classify(err)
		}
	default:
		return AddItemResult{}, classify(err)
	}

	if err := tx.Commit(ctx); err != nil {
		return AddItemResult{}, classify(err)
	}
	return AddItemResult{CartLineID: line.ID, LineQuantity: line.Quantity, RemainingStock: remaining}, nil
}

// SetQuantity changes a cart line to an absolute quantity, reserving or
// releasing the difference. newQty <= 0 removes the line entirely. Only the
// owning user can touch the line; anyone else gets not-found.
func (r *CartRepo) SetQuantity(ctx context.Context, userID, lineID string, newQty int) (SetQuantityResult, error) {
	tx, err := beginOp(ctx, r.DB, r.LockWait)
	if err != nil {
		return SetQuantityResult{}, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	itemID, curQty, available, err := lockLine(ctx, tx, userID, lineID)
	if err != nil {
		return SetQuantityResult{}, err
	}

	if newQty <= 0 {
		remaining, err := dropLineLocked(ctx, tx, itemID, lineID, curQty)
		if err != nil {
			return SetQuantityResult{}, err
		}
		if err := tx.Commit(ctx); err != nil {
			return SetQuantityResult{}, classify(err)
		}
		return SetQuantityResult{
			Action:         LineRemoved,
			OldQuantity:    curQty,
			NewQuantity:    0,
			RemainingStock: remaining,
		}, nil
	}

	diff := newQty - curQty
	remaining := available
	switch {
	case diff > 0:
		remaining, err = reserveStock(ctx, tx, itemID, diff)
		if oe := AsOpError(err); oe != nil && oe.Kind == KindInsufficientStock {
			// the caller asked for diff more units; report how many more
			// it could actually get
			return SetQuantityResult{}, errInsufficientIncrease(oe.Available)
		}
	case diff < 0:
		remaining, err = releaseStock(ctx, tx, itemID, -diff)
	}
	if err != nil {
		return SetQuantityResult{}, err
	}

	ct, err := tx.Exec(ctx,
		`UPDATE cart_lines SET quantity = $2, created_at = now() WHERE id = $1`,
		lineID, newQty)
	if err != nil {
		return SetQuantityResult{}, classify(err)
	}
	if ct.RowsAffected() != 1 {
		return SetQuantityResult{}, errInvariant("cart line %s vanished while locked", lineID)
	}

	if err := tx.Commit(ctx); err != nil {
		return SetQuantityResult{}, classify(err)
	}
	return SetQuantityResult{
		Action:         LineUpdated,
		OldQuantity:    curQty,
		NewQuantity:    newQty,
		RemainingStock: remaining,
	}, nil
}

// RemoveItem releases the line's full reserved quantity back to the ledger
// and deletes the line.
func (r *CartRepo) RemoveItem(ctx context.Context, userID, lineID string) (RemoveItemResult, error) {
	tx, err := beginOp(ctx, r.DB, r.LockWait)
	if err != nil {
		return RemoveItemResult{}, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	itemID, curQty, _, err := lockLine(ctx, tx, userID, lineID)
	if err != nil {
		return RemoveItemResult{}, err
	}
	remaining, err := dropLineLocked(ctx, tx, itemID, lineID, curQty)
	if err != nil {
		return RemoveItemResult{}, err
	}
	if err := tx.Commit(ctx); err != nil {
		return RemoveItemResult{}, classify(err)
	}
	return RemoveItemResult{RestoredQuantity: curQty, RemainingStock: remaining}, nil
}

// lockLine resolves a cart line for its owner and pins both the item row and
// the line row. The line is peeked first to learn the item, the item row is
// locked, then the line is re-read under that lock: it may have been removed
// or checked out while we waited, which must read as not-found rather than
// acting on stale quantities.
func lockLine(ctx context.Context, tx pgx.Tx, userID, lineID string) (itemID string, qty int, available int, err error) {
	err = tx.QueryRow(ctx,
		`SELECT menu_item_id FROM cart_lines WHERE id = $1 AND user_id = $2`,
		lineID, userID).Scan(&itemID)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", 0, 0, errLineNotFound()
	}
	if err != nil {
		return "", 0, 0, classify(err)
	}

	available, err = lockItemStock(ctx, tx, itemID)
	if err != nil {
		return "", 0, 0, err
	}

	err = tx.QueryRow(ctx,
		`SELECT quantity FROM cart_lines WHERE id = $1 AND user_id = $2 FOR UPDATE`,
		lineID, userID).Scan(&qty)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", 0, 0, errLineNotFound()
	}
	if err != nil {
		return "", 0, 0, classify(err)
	}
	return itemID, qty, available, nil
}

// dropLineLocked releases the line's reservation and deletes it. Caller must
// hold the item row lock and the line row lock.
func dropLineLocked(ctx context.Context, tx pgx.Tx, itemID, lineID string, qty int) (remaining int, err error) {
	remaining, err = releaseStock(ctx, tx, itemID, qty)
	if err != nil {
		return 0, err
	}
	ct, err := tx.Exec(ctx, `DELETE FROM cart_lines WHERE id = $1`, lineID)
	if err != nil {
		return 0, classify(err)
	}
	if ct.RowsAffected() != 1 {
		return 0, errInvariant("cart line %s vanished while locked", lineID)
	}
	return remaining, nil
}

// Cart returns the user's current reservations joined with live menu data.
func (r *CartRepo) Cart(ctx context.Context, userID string) (CartView, error) {
	rows, err := r.DB.Query(ctx,
		`SELECT cl.id, cl.menu_item_id, mi.name, cl.quantity, mi.price, cl.created_at
		   FROM cart_lines cl
		   JOIN menu_items mi ON mi.id = cl.menu_item_id
		  WHERE cl.user_id = $1
		  ORDER BY cl.created_at, cl.id`, userID)
	if err != nil {
		return CartView{}, classify(err)
	}
	defer rows.Close()

	view := CartView{Lines: []CartViewLine{}, Total: decimal.Zero}
	for rows.Next() {
		var l CartViewLine
		if err := rows.Scan(&l.ID, &l.MenuItemID, &l.Name, &l.Quantity, &l.UnitPrice, &l.TouchedAt); err != nil {
			return CartView{}, classify(err)
		}
		l.Subtotal = l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity)))
		view.Total = view.Total.Add(l.Subtotal)
		view.Lines = append(view.Lines, l)
	}
	if err := rows.Err(); err != nil {
		return CartView{}, classify(err)
	}
	return view, nil
}
