package notify

import (
	"context"
	"fmt"
	kafkax "github.com/ariefcatur/go-preorder-cart.git/internal/kafka"
	"github.com/ariefcatur/go-preorder-cart.git/internal/preorder"
	"github.com/ariefcatur/go-preorder-cart.git/internal/redisx"
	"github.com/redis/go-redis/v9"
	kafkago "github.com/segmentio/kafka-go"
	"log"
)

// Invalidator drops cached menu entries when a menu change event arrives,
// so readers fall through to the database on the next request.
type Invalidator struct {
	Redis *redis.Client
}

// HandleMenuChanged is mounted as a consumer handler on the menu topic.
func (iv *Invalidator) HandleMenuChanged(ctx context.Context, m kafkago.Message) error {
	env, err := kafkax.DecodeValue[preorder.Envelope](m.Value)
	if err != nil {
		return err
	}
	if env.EventType != preorder.EventMenuChanged {
		return nil // ignore
	}
	cp, err := kafkax.UnwrapPayload[preorder.ChangePayload](env.Payload)
	if err != nil {
		return err
	}

	keys := []string{redisx.KeyMenuList}
	if cp.RowID != "" {
		keys = append(keys, fmt.Sprintf(redisx.KeyMenuItem, cp.RowID))
	}
	if err := iv.Redis.Del(ctx, keys...).Err(); err != nil {
		return err
	}
	log.Printf("menu cache invalidated item=%s op=%s", cp.RowID, cp.Op)
	return nil
}
