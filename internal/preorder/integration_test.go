package preorder

import (
	"context"
	"github.com/ariefcatur/go-preorder-cart.git/internal/postgres"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"os"
	"testing"
)

// These tests need a running Postgres; point TEST_POSTGRES_DSN at one to
// enable them. Every test works on rows it created itself, so reruns
// against the same database do not interfere with each other.

type fixture struct {
	t      *testing.T
	pool   *pgxpool.Pool
	menu   *MenuRepo
	carts  *CartRepo
	orders *OrderRepo
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	dsn := os.Getenv("TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("TEST_POSTGRES_DSN not set")
	}
	ctx := context.Background()
	pool, err := postgres.Connect(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(pool.Close)
	require.NoError(t, postgres.EnsureSchema(ctx, pool))
	return &fixture{
		t:      t,
		pool:   pool,
		menu:   &MenuRepo{DB: pool},
		carts:  &CartRepo{DB: pool},
		orders: &OrderRepo{DB: pool},
	}
}

func (f *fixture) seedItem(stock int) MenuItem {
	f.t.Helper()
	name := "test item " + uuid.NewString()[:8]
	item, err := f.menu.CreateItem(context.Background(), name, decimal.NewFromInt(25000), stock)
	require.NoError(f.t, err)
	return item
}

func (f *fixture) seedItemPriced(price int64, stock int) MenuItem {
	f.t.Helper()
	name := "test item " + uuid.NewString()[:8]
	item, err := f.menu.CreateItem(context.Background(), name, decimal.NewFromInt(price), stock)
	require.NoError(f.t, err)
	return item
}

func (f *fixture) available(itemID string) int {
	f.t.Helper()
	item, err := f.menu.Get(context.Background(), itemID)
	require.NoError(f.t, err)
	return item.QuantityAvailable
}

// requireBalanced asserts the conservation law for one item: every stocked
// unit is available, reserved in a cart, or sold on a live order.
func (f *fixture) requireBalanced(itemID string) Breakdown {
	f.t.Helper()
	b, err := f.menu.StockBreakdown(context.Background(), itemID)
	require.NoError(f.t, err)
	require.True(f.t, b.Balanced(),
		"stock accounting out of balance: available=%d reserved=%d sold=%d total=%d",
		b.Available, b.Reserved, b.Sold, b.StockTotal)
	return b
}

func requireKind(t *testing.T, err error, kind Kind) *OpError {
	t.Helper()
	require.Error(t, err)
	oe := AsOpError(err)
	require.NotNil(t, oe, "error %v is not an OpError", err)
	require.Equal(t, kind, oe.Kind, "wrong kind for: %v", err)
	return oe
}

func newUser() string { return "user-" + uuid.NewString()[:8] }
