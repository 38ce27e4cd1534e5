package preorder

import (
	"context"
	"errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"strconv"
	"time"
)

// The stock ledger owns every movement of quantity_available. All reads and
// writes happen under an exclusive lock on the menu item row, inside the
// caller's transaction, so two concurrent reservations of the same item are
// fully serialized. Lock ordering everywhere: menu item row first, cart line
// rows second.

const defaultLockWait = 3 * time.Second

// beginOp opens the transaction every operation runs in and bounds how long
// it may wait on a contended row lock. A timed-out wait surfaces as a
// retryable error instead of blocking the caller indefinitely.
func beginOp(ctx context.Context, db *pgxpool.Pool, lockWait time.Duration) (pgx.Tx, error) {
	tx, err := db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, classify(err)
	}
	wait := lockWait
	if wait <= 0 {
		wait = defaultLockWait
	}
	ms := strconv.FormatInt(wait.Milliseconds(), 10)
	if _, err := tx.Exec(ctx, `SELECT set_config('lock_timeout', $1, true)`, ms); err != nil {
		_ = tx.Rollback(ctx)
		return nil, classify(err)
	}
	return tx, nil
}

// lockItemStock acquires the exclusive row lock on a menu item and returns
// the available quantity as observed under that lock.
func lockItemStock(ctx context.Context, tx pgx.Tx, itemID string) (int, error) {
	var available int
	err := tx.QueryRow(ctx,
		`SELECT quantity_available FROM menu_items WHERE id = $1 FOR UPDATE`,
		itemID).Scan(&available)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, errItemNotFound(itemID)
	}
	if err != nil {
		return 0, classify(err)
	}
	return available, nil
}

// reserveStock moves delta units out of the available pool. Fails with
// the actual remaining quantity when delta exceeds it.
func reserveStock(ctx context.Context, tx pgx.Tx, itemID string, delta int) (remaining int, err error) {
	if delta <= 0 {
		return 0, errInvalidArgument("reserve quantity must be positive, got %d", delta)
	}
	available, err := lockItemStock(ctx, tx, itemID)
	if err != nil {
		return 0, err
	}
	if available < delta {
		return 0, errInsufficientStock(available)
	}
	if _, err := tx.Exec(ctx,
		`UPDATE menu_items
		    SET quantity_available = quantity_available - $2, updated_at = now()
		  WHERE id = $1`,
		itemID, delta); err != nil {
		return 0, classify(err)
	}
	return available - delta, nil
}

// releaseStock returns delta units to the available pool.
func releaseStock(ctx context.Context, tx pgx.Tx, itemID string, delta int) (remaining int, err error) {
	if delta <= 0 {
		return 0, errInvalidArgument("release quantity must be positive, got %d", delta)
	}
	available, err := lockItemStock(ctx, tx, itemID)
	if err != nil {
		return 0, err
	}
	if _, err := tx.Exec(ctx,
		`UPDATE menu_items
		    SET quantity_available = quantity_available + $2, updated_at = now()
		  WHERE id = $1`,
		itemID, delta); err != nil {
		return 0, classify(err)
	}
	return available + delta, nil
}
