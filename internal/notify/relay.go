package notify

import (
	"context"
	"encoding/json"
	"fmt"
	kafkax "github.com/ariefcatur/go-preorder-cart.git/internal/kafka"
	"github.com/ariefcatur/go-preorder-cart.git/internal/postgres"
	"github.com/ariefcatur/go-preorder-cart.git/internal/preorder"
	"github.com/ariefcatur/go-preorder-cart.git/internal/redisx"
	"github.com/cespare/xxhash/v2"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	kafkago "github.com/segmentio/kafka-go"
	"log"
	"strconv"
	"time"
)

// Publisher is what the relay needs from the Kafka producer.
type Publisher interface {
	Publish(topic string, key, value []byte, headers ...kafkago.Header)
}

// Relay bridges the database change feed onto Kafka. It holds one LISTEN
// connection and republishes every notification as a versioned event.
// Multiple replicas may run at once; each gets every notification, so the
// Redis dedup mark keeps a change from being published twice.
type Relay struct {
	DB          *pgxpool.Pool
	Redis       *redis.Client
	Producer    Publisher
	ServiceName string
}

// feedChange mirrors the JSON built by the notify trigger.
type feedChange struct {
	TxID  int64           `json:"txid"`
	Table string          `json:"tbl"`
	Op    string          `json:"op"` // insert | update | delete
	Row   json.RawMessage `json:"row"`
}

// rowIdent picks the identifying columns out of the row image. Only the
// columns present on the source table are set.
type rowIdent struct {
	ID         string `json:"id"`
	UserID     string `json:"user_id"`
	MenuItemID string `json:"menu_item_id"`
	OrderID    string `json:"order_id"`
}

// Run listens until the context is cancelled or the connection breaks.
// The caller owns reconnect policy.
func (r *Relay) Run(ctx context.Context) error {
	conn, err := r.DB.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire listen conn: %w", err)
	}
	defer conn.Release()

	if _, err := conn.Exec(ctx, "LISTEN "+postgres.NotifyChannel); err != nil {
		return fmt.Errorf("listen %s: %w", postgres.NotifyChannel, err)
	}
	log.Printf("relay listening on %s", postgres.NotifyChannel)

	for {
		n, err := conn.Conn().WaitForNotification(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("wait notification: %w", err)
		}
		if err := r.handle(ctx, n.Payload); err != nil {
			log.Printf("relay: %v", err)
		}
	}
}

func (r *Relay) handle(ctx context.Context, payload string) error {
	var change feedChange
	if err := json.Unmarshal([]byte(payload), &change); err != nil {
		return fmt.Errorf("decode change: %w", err)
	}
	topic, eventType, ok := routeChange(change.Table)
	if !ok {
		return nil // table not on the feed
	}

	// dedup across replicas; the payload carries txid so identical row
	// images from different transactions still fingerprint apart
	if r.Redis != nil {
		dkey := fmt.Sprintf(redisx.KeyDedup, r.ServiceName, fingerprint(payload))
		first, err := redisx.MarkOnce(ctx, r.Redis, dkey, redisx.TTLDedup)
		if err != nil {
			first = true // prefer a duplicate over a dropped event
		}
		if !first {
			return nil
		}
	}

	var ident rowIdent
	if err := json.Unmarshal(change.Row, &ident); err != nil {
		return fmt.Errorf("decode row: %w", err)
	}
	cp := preorder.ChangePayload{
		Table:      change.Table,
		Op:         change.Op,
		RowID:      ident.ID,
		UserID:     ident.UserID,
		MenuItemID: ident.MenuItemID,
		OrderID:    ident.OrderID,
	}

	ev := preorder.Envelope{
		EventID:      uuid.NewString(),
		EventType:    eventType,
		EventVersion: 1,
		OccurredAt:   time.Now().UTC(),
		Producer:     r.ServiceName,
		Payload:      kafkax.MustMarshal(cp),
	}
	r.Producer.Publish(topic, preorder.PartitionKey(partitionID(change.Table, ident)), kafkax.MustMarshal(ev),
		kafkago.Header{Key: "x-event-type", Value: []byte(eventType)},
		kafkago.Header{Key: "x-event-version", Value: []byte("1")},
	)
	return nil
}

func routeChange(table string) (topic, eventType string, ok bool) {
	switch table {
	case "menu_items":
		return preorder.TopicMenuChanged, preorder.EventMenuChanged, true
	case "cart_lines":
		return preorder.TopicCartChanged, preorder.EventCartChanged, true
	case "orders", "order_lines":
		return preorder.TopicOrderChanged, preorder.EventOrderChanged, true
	}
	return "", "", false
}

// partitionID keeps related changes on one partition: a user's cart events
// stay ordered by user, order events by order.
func partitionID(table string, ident rowIdent) string {
	switch table {
	case "cart_lines":
		if ident.UserID != "" {
			return ident.UserID
		}
	case "order_lines":
		return ident.OrderID
	}
	return ident.ID
}

func fingerprint(payload string) string {
	return strconv.FormatUint(xxhash.Sum64String(payload), 16)
}
