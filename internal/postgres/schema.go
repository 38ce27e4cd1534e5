package postgres

import (
	"context"
	"fmt"
	"github.com/jackc/pgx/v5/pgxpool"
)

// NotifyChannel is the pg_notify channel the row-change triggers emit on.
const NotifyChannel = "preorder_changes"

// The quantity_available CHECK is the last line of defense against oversell;
// the application must never rely on it firing. UNIQUE (user_id, menu_item_id)
// pins at most one cart line per user and item.
var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS menu_items (
		id                 uuid PRIMARY KEY,
		name               text NOT NULL,
		price              numeric(12,2) NOT NULL CHECK (price >= 0),
		quantity_available integer NOT NULL DEFAULT 0 CHECK (quantity_available >= 0),
		stock_total        integer NOT NULL DEFAULT 0 CHECK (stock_total >= 0),
		created_at         timestamptz NOT NULL DEFAULT now(),
		updated_at         timestamptz NOT NULL DEFAULT now()
	)`,

	`CREATE TABLE IF NOT EXISTS cart_lines (
		id           uuid PRIMARY KEY,
		user_id      text NOT NULL,
		menu_item_id uuid NOT NULL REFERENCES menu_items(id),
		quantity     integer NOT NULL CHECK (quantity > 0),
		created_at   timestamptz NOT NULL DEFAULT now(),
		UNIQUE (user_id, menu_item_id)
	)`,

	`CREATE INDEX IF NOT EXISTS cart_lines_user_idx ON cart_lines (user_id)`,

	`CREATE TABLE IF NOT EXISTS orders (
		id             uuid PRIMARY KEY,
		user_id        text NOT NULL,
		status         text NOT NULL CHECK (status IN ('pending','processing','ready','completed','cancelled')),
		payment_status text NOT NULL CHECK (payment_status IN ('pending','paid','failed')),
		total_amount   numeric(12,2) NOT NULL CHECK (total_amount >= 0),
		created_at     timestamptz NOT NULL DEFAULT now()
	)`,

	`CREATE INDEX IF NOT EXISTS orders_user_idx ON orders (user_id, created_at DESC)`,

	`CREATE TABLE IF NOT EXISTS order_lines (
		order_id     uuid NOT NULL REFERENCES orders(id),
		menu_item_id uuid NOT NULL REFERENCES menu_items(id),
		quantity     integer NOT NULL CHECK (quantity > 0),
		price        numeric(12,2) NOT NULL CHECK (price >= 0),
		PRIMARY KEY (order_id, menu_item_id)
	)`,

	// Row-change feed: the storage layer raises the notification as part of
	// the committing transaction, so subscribers can never observe an event
	// before the new state is visible.
	`CREATE OR REPLACE FUNCTION preorder_notify() RETURNS trigger AS $fn$
	DECLARE
		rec record;
	BEGIN
		IF TG_OP = 'DELETE' THEN
			rec := OLD;
		ELSE
			rec := NEW;
		END IF;
		PERFORM pg_notify('` + NotifyChannel + `', json_build_object(
			'txid', txid_current(),
			'tbl',  TG_TABLE_NAME,
			'op',   lower(TG_OP),
			'row',  to_jsonb(rec)
		)::text);
		RETURN NULL;
	END;
	$fn$ LANGUAGE plpgsql`,

	`DROP TRIGGER IF EXISTS menu_items_notify ON menu_items`,
	`CREATE TRIGGER menu_items_notify AFTER INSERT OR UPDATE OR DELETE ON menu_items
		FOR EACH ROW EXECUTE FUNCTION preorder_notify()`,

	`DROP TRIGGER IF EXISTS cart_lines_notify ON cart_lines`,
	`CREATE TRIGGER cart_lines_notify AFTER INSERT OR UPDATE OR DELETE ON cart_lines
		FOR EACH ROW EXECUTE FUNCTION preorder_notify()`,

	`DROP TRIGGER IF EXISTS orders_notify ON orders`,
	`CREATE TRIGGER orders_notify AFTER INSERT OR UPDATE OR DELETE ON orders
		FOR EACH ROW EXECUTE FUNCTION preorder_notify()`,

	`DROP TRIGGER IF EXISTS order_lines_notify ON order_lines`,
	`CREATE TRIGGER order_lines_notify AFTER INSERT OR UPDATE OR DELETE ON order_lines
		FOR EACH ROW EXECUTE FUNCTION preorder_notify()`,
}

// EnsureSchema applies the DDL idempotently.
func EnsureSchema(ctx context.Context, db *pgxpool.Pool) error {
	for _, stmt := range schemaStatements {
		if _, err := db.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("apply schema: %w", err)
		}
	}
	return nil
}
