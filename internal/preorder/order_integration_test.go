package preorder

import (
	"context"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"testing"
)

func TestCheckout_commitsWholeCart(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	item1 := f.seedItemPriced(20000, 10)
	item2 := f.seedItemPriced(5000, 8)
	u := newUser()

	_, err := f.carts.AddItem(ctx, u, item1.ID, 2)
	require.NoError(t, err)
	_, err = f.carts.AddItem(ctx, u, item2.ID, 3)
	require.NoError(t, err)

	res, err := f.orders.Checkout(ctx, u)
	require.NoError(t, err)
	assert.Equal(t, 2, res.LineCount)
	assert.True(t, res.TotalAmount.Equal(decimal.NewFromInt(55000)), "total = %s", res.TotalAmount)

	// cart drained, reserved units reclassified as sold, availability untouched
	view, err := f.carts.Cart(ctx, u)
	require.NoError(t, err)
	assert.Empty(t, view.Lines)
	assert.Equal(t, 8, f.available(item1.ID))
	assert.Equal(t, 5, f.available(item2.ID))

	b1 := f.requireBalanced(item1.ID)
	assert.Equal(t, 2, b1.Sold)
	assert.Equal(t, 0, b1.Reserved)
	b2 := f.requireBalanced(item2.ID)
	assert.Equal(t, 3, b2.Sold)

	detail, err := f.orders.Order(ctx, u, res.OrderID)
	require.NoError(t, err)
	assert.Equal(t, StatusPending, detail.Order.Status)
	assert.Equal(t, PaymentPending, detail.Order.PaymentStatus)
	assert.True(t, detail.Order.TotalAmount.Equal(res.TotalAmount))
	require.Len(t, detail.Lines, 2)

	list, err := f.orders.ListOrders(ctx, u)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, res.OrderID, list[0].ID)
}

func TestCheckout_emptyCart(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	u := newUser()

	_, err := f.orders.Checkout(ctx, u)
	requireKind(t, err, KindEmptyCart)
	assert.True(t, IsEmptyCart(err))

	list, err := f.orders.ListOrders(ctx, u)
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestCheckout_usesPriceAtCheckoutTime(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	item := f.seedItemPriced(10000, 10)
	u := newUser()

	_, err := f.carts.AddItem(ctx, u, item.ID, 2)
	require.NoError(t, err)

	// menu price changes while the item sits in the cart
	_, err = f.pool.Exec(ctx, `UPDATE menu_items SET price = 12000 WHERE id = $1`, item.ID)
	require.NoError(t, err)

	res, err := f.orders.Checkout(ctx, u)
	require.NoError(t, err)
	assert.True(t, res.TotalAmount.Equal(decimal.NewFromInt(24000)), "total = %s", res.TotalAmount)

	detail, err := f.orders.Order(ctx, u, res.OrderID)
	require.NoError(t, err)
	require.Len(t, detail.Lines, 1)
	assert.True(t, detail.Lines[0].Price.Equal(decimal.NewFromInt(12000)))
}

func TestCheckout_ordersAreImmutableToLaterPriceChanges(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	item := f.seedItemPriced(10000, 10)
	u := newUser()

	_, err := f.carts.AddItem(ctx, u, item.ID, 1)
	require.NoError(t, err)
	res, err := f.orders.Checkout(ctx, u)
	require.NoError(t, err)

	_, err = f.pool.Exec(ctx, `UPDATE menu_items SET price = 99000 WHERE id = $1`, item.ID)
	require.NoError(t, err)

	detail, err := f.orders.Order(ctx, u, res.OrderID)
	require.NoError(t, err)
	assert.True(t, detail.Order.TotalAmount.Equal(decimal.NewFromInt(10000)))
	assert.True(t, detail.Lines[0].Price.Equal(decimal.NewFromInt(10000)))
}

func TestOrder_ownershipIsolation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	item := f.seedItem(10)
	owner := newUser()

	_, err := f.carts.AddItem(ctx, owner, item.ID, 1)
	require.NoError(t, err)
	res, err := f.orders.Checkout(ctx, owner)
	require.NoError(t, err)

	_, err = f.orders.Order(ctx, newUser(), res.OrderID)
	requireKind(t, err, KindNotFound)

	list, err := f.orders.ListOrders(ctx, newUser())
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestAdvanceStatus_walksTheLifecycle(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	item := f.seedItem(10)
	u := newUser()

	_, err := f.carts.AddItem(ctx, u, item.ID, 1)
	require.NoError(t, err)
	res, err := f.orders.Checkout(ctx, u)
	require.NoError(t, err)

	steps := []struct{ from, to Status }{
		{StatusPending, StatusProcessing},
		{StatusProcessing, StatusReady},
		{StatusReady, StatusCompleted},
	}
	for _, s := range steps {
		require.NoError(t, f.orders.AdvanceStatus(ctx, res.OrderID, s.from, s.to))
	}

	detail, err := f.orders.Order(ctx, u, res.OrderID)
	require.NoError(t, err)
	assert.Equal(t, StatusCompleted, detail.Order.Status)

	// completed is terminal
	err = f.orders.AdvanceStatus(ctx, res.OrderID, StatusCompleted, StatusCancelled)
	requireKind(t, err, KindInvalidArgument)
}

func TestAdvanceStatus_guardRejectsStaleFrom(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	item := f.seedItem(10)
	u := newUser()

	_, err := f.carts.AddItem(ctx, u, item.ID, 1)
	require.NoError(t, err)
	res, err := f.orders.Checkout(ctx, u)
	require.NoError(t, err)

	// legal transition shape, but the order is pending, not processing
	err = f.orders.AdvanceStatus(ctx, res.OrderID, StatusProcessing, StatusReady)
	oe := requireKind(t, err, KindInvalidArgument)
	assert.Contains(t, oe.Message, "is not")

	detail, err := f.orders.Order(ctx, u, res.OrderID)
	require.NoError(t, err)
	assert.Equal(t, StatusPending, detail.Order.Status)
}

func TestAdvanceStatus_unknownOrder(t *testing.T) {
	f := newFixture(t)

	err := f.orders.AdvanceStatus(context.Background(), uuid.NewString(), StatusPending, StatusProcessing)
	requireKind(t, err, KindNotFound)
}

func TestAdvanceStatus_cancelReturnsStock(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	item := f.seedItem(10)
	u := newUser()

	_, err := f.carts.AddItem(ctx, u, item.ID, 4)
	require.NoError(t, err)
	res, err := f.orders.Checkout(ctx, u)
	require.NoError(t, err)
	assert.Equal(t, 6, f.available(item.ID))

	require.NoError(t, f.orders.AdvanceStatus(ctx, res.OrderID, StatusPending, StatusCancelled))

	assert.Equal(t, 10, f.available(item.ID))
	b := f.requireBalanced(item.ID)
	assert.Equal(t, 0, b.Sold, "cancelled orders do not count as sold")
	assert.Equal(t, 10, b.Available)
}

func TestRestock_growsPoolAndTotal(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	item := f.seedItem(3)

	available, err := f.menu.Restock(ctx, item.ID, 5)
	require.NoError(t, err)
	assert.Equal(t, 8, available)

	got, err := f.menu.Get(ctx, item.ID)
	require.NoError(t, err)
	assert.Equal(t, 8, got.QuantityAvailable)
	assert.Equal(t, 8, got.StockTotal)
	f.requireBalanced(item.ID)
}

func TestRestock_rejectsNonPositive(t *testing.T) {
	f := newFixture(t)
	item := f.seedItem(3)

	_, err := f.menu.Restock(context.Background(), item.ID, 0)
	requireKind(t, err, KindInvalidArgument)
	_, err = f.menu.Restock(context.Background(), item.ID, -4)
	requireKind(t, err, KindInvalidArgument)
	assert.Equal(t, 3, f.available(item.ID))
}

func TestRestock_unknownItem(t *testing.T) {
	f := newFixture(t)

	_, err := f.menu.Restock(context.Background(), uuid.NewString(), 5)
	requireKind(t, err, KindItemNotFound)
}

func TestCreateItem_validation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.menu.CreateItem(ctx, "  ", decimal.NewFromInt(1000), 5)
	requireKind(t, err, KindInvalidArgument)

	_, err = f.menu.CreateItem(ctx, "negative price", decimal.NewFromInt(-1), 5)
	requireKind(t, err, KindInvalidArgument)

	_, err = f.menu.CreateItem(ctx, "negative stock", decimal.NewFromInt(1000), -5)
	requireKind(t, err, KindInvalidArgument)
}

// Two shoppers compete for a pool of 5: the winner grows their line to take
// the whole pool, the loser is told exactly how much was left each time, and
// checkout converts the reservation without touching availability.
func TestCart_twoShoppersDrainThePool(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	item := f.seedItemPriced(15000, 5)
	userA, userB := newUser(), newUser()

	added, err := f.carts.AddItem(ctx, userA, item.ID, 3)
	require.NoError(t, err)
	assert.Equal(t, 2, added.RemainingStock)

	_, err = f.carts.AddItem(ctx, userB, item.ID, 3)
	oe := requireKind(t, err, KindInsufficientStock)
	assert.Equal(t, 2, oe.Available)

	res, err := f.carts.SetQuantity(ctx, userA, added.CartLineID, 5)
	require.NoError(t, err)
	assert.Equal(t, 0, res.RemainingStock)

	_, err = f.carts.AddItem(ctx, userB, item.ID, 1)
	oe = requireKind(t, err, KindInsufficientStock)
	assert.Equal(t, 0, oe.Available)

	out, err := f.orders.Checkout(ctx, userA)
	require.NoError(t, err)
	assert.True(t, out.TotalAmount.Equal(decimal.NewFromInt(75000)), "total = %s", out.TotalAmount)
	assert.Equal(t, 0, f.available(item.ID))

	view, err := f.carts.Cart(ctx, userA)
	require.NoError(t, err)
	assert.Empty(t, view.Lines)
	b := f.requireBalanced(item.ID)
	assert.Equal(t, 5, b.Sold)
}

func TestBreakdown_staysBalancedThroughLifecycle(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	item := f.seedItem(10)
	u := newUser()

	b := f.requireBalanced(item.ID)
	assert.Equal(t, Breakdown{ItemID: item.ID, Available: 10, Reserved: 0, Sold: 0, StockTotal: 10}, b)

	added, err := f.carts.AddItem(ctx, u, item.ID, 4)
	require.NoError(t, err)
	b = f.requireBalanced(item.ID)
	assert.Equal(t, 6, b.Available)
	assert.Equal(t, 4, b.Reserved)

	_, err = f.carts.SetQuantity(ctx, u, added.CartLineID, 6)
	require.NoError(t, err)
	b = f.requireBalanced(item.ID)
	assert.Equal(t, 4, b.Available)
	assert.Equal(t, 6, b.Reserved)

	res, err := f.orders.Checkout(ctx, u)
	require.NoError(t, err)
	b = f.requireBalanced(item.ID)
	assert.Equal(t, 4, b.Available)
	assert.Equal(t, 0, b.Reserved)
	assert.Equal(t, 6, b.Sold)

	_, err = f.menu.Restock(ctx, item.ID, 5)
	require.NoError(t, err)
	b = f.requireBalanced(item.ID)
	assert.Equal(t, 9, b.Available)
	assert.Equal(t, 15, b.StockTotal)

	require.NoError(t, f.orders.AdvanceStatus(ctx, res.OrderID, StatusPending, StatusCancelled))
	b = f.requireBalanced(item.ID)
	assert.Equal(t, 15, b.Available)
	assert.Equal(t, 0, b.Sold)
}
