package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/RezaAbdollahigit/StoreTrack/internal/domain"
)

func TestPlaceOrderSuccess(t *testing.T) {
	store := newTestStore(t)
	pub := &capturingPublisher{}
	svc := newOrderService(store, pub)
	ctx := context.Background()

	p := seedProduct(t, store, "Keyboard", 49.90, 5)

	order, err := svc.PlaceOrder(ctx, "Alice", []domain.BasketLine{
		{ProductID: p.ID, Quantity: 3},
	})
	require.NoError(t, err)
	require.NotZero(t, order.ID)

	assert.Equal(t, domain.StatusPending, order.Status)
	assert.InDelta(t, 3*49.90, order.TotalAmount, 0.001)
	require.Len(t, order.Items, 1)
	assert.Equal(t, 49.90, order.Items[0].Price)
	assert.Equal(t, 3, order.Items[0].Quantity)

	// Stock decremented and exactly one ledger entry recorded.
	updated, err := store.GetProduct(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, updated.StockQuantity)

	history, err := store.StockHistory(ctx)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, -3, history[0].QuantityChange)
	assert.Equal(t, "Sale in order #1", history[0].Reason)

	// Stock fell to 2 (<= threshold, > 0): a low stock advisory goes out
	// after commit.
	require.Eventually(t, func() bool {
		return pub.lowStockCount() == 1 && pub.orderCount() == 1
	}, 2*time.Second, 10*time.Millisecond)
}

func TestPlaceOrderInsufficientStock(t *testing.T) {
	store := newTestStore(t)
	svc := newOrderService(store, &capturingPublisher{})
	ctx := context.Background()

	p := seedProduct(t, store, "Mouse", 19.90, 2)

	_, err := svc.PlaceOrder(ctx, "Bob", []domain.BasketLine{
		{ProductID: p.ID, Quantity: 5},
	})
	var insufficient *InsufficientStockError
	require.ErrorAs(t, err, &insufficient)
	assert.Equal(t, p.ID, insufficient.ProductID)
	assert.Equal(t, 2, insufficient.Available)
	assert.Equal(t, 5, insufficient.Requested)

	// Full rollback: nothing was written and stock is untouched.
	orders, err := store.ListOrders(ctx, domain.OrderFilter{})
	require.NoError(t, err)
	assert.Empty(t, orders)

	history, err := store.StockHistory(ctx)
	require.NoError(t, err)
	assert.Empty(t, history)

	updated, err := store.GetProduct(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, updated.StockQuantity)
}

func TestPlaceOrderEmptyBasket(t *testing.T) {
	store := newTestStore(t)
	svc := newOrderService(store, &capturingPublisher{})
	ctx := context.Background()

	_, err := svc.PlaceOrder(ctx, "Carol", nil)
	require.ErrorIs(t, err, ErrEmptyBasket)

	orders, err := store.ListOrders(ctx, domain.OrderFilter{})
	require.NoError(t, err)
	assert.Empty(t, orders)
}

func TestPlaceOrderProductNotFound(t *testing.T) {
	store := newTestStore(t)
	svc := newOrderService(store, &capturingPublisher{})

	p := seedProduct(t, store, "Desk", 120, 4)

	_, err := svc.PlaceOrder(context.Background(), "Dave", []domain.BasketLine{
		{ProductID: p.ID, Quantity: 1},
		{ProductID: 999, Quantity: 1},
	})
	var notFound *ProductNotFoundError
	require.ErrorAs(t, err, &notFound)
	assert.Equal(t, uint(999), notFound.ProductID)

	// The valid line must not have gone through either.
	updated, err := store.GetProduct(context.Background(), p.ID)
	require.NoError(t, err)
	assert.Equal(t, 4, updated.StockQuantity)
}

func TestPlaceOrderMultipleLines(t *testing.T) {
	store := newTestStore(t)
	svc := newOrderService(store, &capturingPublisher{})
	ctx := context.Background()

	a := seedProduct(t, store, "Pen", 2.50, 100)
	b := seedProduct(t, store, "Notebook", 7.00, 50)

	order, err := svc.PlaceOrder(ctx, "Erin", []domain.BasketLine{
		{ProductID: a.ID, Quantity: 4},
		{ProductID: b.ID, Quantity: 2},
	})
	require.NoError(t, err)
	assert.InDelta(t, 4*2.50+2*7.00, order.TotalAmount, 0.001)
	require.Len(t, order.Items, 2)

	// TotalAmount always equals the sum over the frozen item prices.
	var sum float64
	for _, item := range order.Items {
		sum += item.Price * float64(item.Quantity)
	}
	assert.InDelta(t, order.TotalAmount, sum, 0.001)
}

func TestPlaceOrderPriceFrozenAtPurchase(t *testing.T) {
	store := newTestStore(t)
	svc := newOrderService(store, &capturingPublisher{})
	ctx := context.Background()

	p := seedProduct(t, store, "Lamp", 30, 10)

	order, err := svc.PlaceOrder(ctx, "Frank", []domain.BasketLine{
		{ProductID: p.ID, Quantity: 1},
	})
	require.NoError(t, err)

	// A later price edit must not change the recorded order.
	newPrice := 45.0
	_, err = store.UpdateProductFields(ctx, p.ID, map[string]any{"price": newPrice})
	require.NoError(t, err)

	reloaded, err := svc.GetOrder(ctx, order.ID)
	require.NoError(t, err)
	assert.InDelta(t, 30.0, reloaded.TotalAmount, 0.001)
	assert.InDelta(t, 30.0, reloaded.Items[0].Price, 0.001)
}

func TestConcurrentOrdersCompeteForLastUnits(t *testing.T) {
	store := newTestStore(t)
	svc := newOrderService(store, &capturingPublisher{})
	ctx := context.Background()

	p := seedProduct(t, store, "Limited", 99, 5)

	// 4 + 4 > 5: exactly one order may win.
	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = svc.PlaceOrder(ctx, "Racer", []domain.BasketLine{
				{ProductID: p.ID, Quantity: 4},
			})
		}(i)
	}
	wg.Wait()

	var succeeded, failed int
	for _, err := range errs {
		if err == nil {
			succeeded++
			continue
		}
		var insufficient *InsufficientStockError
		require.ErrorAs(t, err, &insufficient)
		failed++
	}
	assert.Equal(t, 1, succeeded)
	assert.Equal(t, 1, failed)

	updated, err := store.GetProduct(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, updated.StockQuantity)
}

func TestLedgerMatchesStockChanges(t *testing.T) {
	store := newTestStore(t)
	svc := newOrderService(store, &capturingPublisher{})
	ctx := context.Background()

	initial := 20
	p := seedProduct(t, store, "Widget", 5, initial)

	_, err := svc.PlaceOrder(ctx, "G", []domain.BasketLine{{ProductID: p.ID, Quantity: 3}})
	require.NoError(t, err)
	_, err = svc.PlaceOrder(ctx, "H", []domain.BasketLine{{ProductID: p.ID, Quantity: 7}})
	require.NoError(t, err)
	_, err = store.AdjustStock(ctx, p.ID, 4, "Manual restock")
	require.NoError(t, err)

	sum, err := store.MovementSum(ctx, p.ID)
	require.NoError(t, err)
	updated, err := store.GetProduct(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, updated.StockQuantity-initial, sum)
	assert.GreaterOrEqual(t, updated.StockQuantity, 0)
}

func TestUpdateOrderStatusTransitions(t *testing.T) {
	store := newTestStore(t)
	svc := newOrderService(store, &capturingPublisher{})
	ctx := context.Background()

	p := seedProduct(t, store, "Chair", 80, 10)

	t.Run("pending to sent", func(t *testing.T) {
		order, err := svc.PlaceOrder(ctx, "I", []domain.BasketLine{{ProductID: p.ID, Quantity: 1}})
		require.NoError(t, err)
		updated, err := svc.UpdateOrderStatus(ctx, order.ID, "Sent")
		require.NoError(t, err)
		assert.Equal(t, domain.StatusSent, updated.Status)
	})

	t.Run("sent cannot be cancelled", func(t *testing.T) {
		order, err := svc.PlaceOrder(ctx, "J", []domain.BasketLine{{ProductID: p.ID, Quantity: 1}})
		require.NoError(t, err)
		_, err = svc.UpdateOrderStatus(ctx, order.ID, "Sent")
		require.NoError(t, err)

		_, err = svc.UpdateOrderStatus(ctx, order.ID, "Cancelled")
		var invalid *InvalidTransitionError
		require.ErrorAs(t, err, &invalid)
		assert.Equal(t, domain.StatusSent, invalid.From)

		reloaded, err := svc.GetOrder(ctx, order.ID)
		require.NoError(t, err)
		assert.Equal(t, domain.StatusSent, reloaded.Status)
	})

	t.Run("cancelled cannot be sent", func(t *testing.T) {
		order, err := svc.PlaceOrder(ctx, "K", []domain.BasketLine{{ProductID: p.ID, Quantity: 1}})
		require.NoError(t, err)
		_, err = svc.UpdateOrderStatus(ctx, order.ID, "Cancelled")
		require.NoError(t, err)

		_, err = svc.UpdateOrderStatus(ctx, order.ID, "Sent")
		var invalid *InvalidTransitionError
		require.ErrorAs(t, err, &invalid)
	})

	t.Run("unknown status", func(t *testing.T) {
		order, err := svc.PlaceOrder(ctx, "L", []domain.BasketLine{{ProductID: p.ID, Quantity: 1}})
		require.NoError(t, err)
		_, err = svc.UpdateOrderStatus(ctx, order.ID, "Shipped")
		require.ErrorIs(t, err, ErrInvalidStatus)
	})

	t.Run("missing order", func(t *testing.T) {
		_, err := svc.UpdateOrderStatus(ctx, 9999, "Sent")
		require.ErrorIs(t, err, ErrOrderNotFound)
	})
}

func TestAutoSend(t *testing.T) {
	store := newTestStore(t)
	svc := newOrderService(store, &capturingPublisher{})
	ctx := context.Background()

	p := seedProduct(t, store, "Table", 200, 10)

	t.Run("flips pending orders", func(t *testing.T) {
		order, err := svc.PlaceOrder(ctx, "M", []domain.BasketLine{{ProductID: p.ID, Quantity: 1}})
		require.NoError(t, err)

		require.NoError(t, svc.AutoSend(ctx, order.ID))
		reloaded, err := svc.GetOrder(ctx, order.ID)
		require.NoError(t, err)
		assert.Equal(t, domain.StatusSent, reloaded.Status)
	})

	t.Run("no-op on cancelled orders", func(t *testing.T) {
		order, err := svc.PlaceOrder(ctx, "N", []domain.BasketLine{{ProductID: p.ID, Quantity: 1}})
		require.NoError(t, err)
		_, err = svc.UpdateOrderStatus(ctx, order.ID, "Cancelled")
		require.NoError(t, err)

		require.NoError(t, svc.AutoSend(ctx, order.ID))
		reloaded, err := svc.GetOrder(ctx, order.ID)
		require.NoError(t, err)
		assert.Equal(t, domain.StatusCancelled, reloaded.Status)
	})

	t.Run("no-op on missing orders", func(t *testing.T) {
		require.NoError(t, svc.AutoSend(ctx, 424242))
	})
}

func TestDeleteOrderRemovesItems(t *testing.T) {
	store := newTestStore(t)
	svc := newOrderService(store, &capturingPublisher{})
	ctx := context.Background()

	p := seedProduct(t, store, "Shelf", 60, 10)
	order, err := svc.PlaceOrder(ctx, "O", []domain.BasketLine{{ProductID: p.ID, Quantity: 2}})
	require.NoError(t, err)

	require.NoError(t, svc.DeleteOrder(ctx, order.ID))

	_, err = svc.GetOrder(ctx, order.ID)
	require.ErrorIs(t, err, ErrOrderNotFound)

	err = svc.DeleteOrder(ctx, order.ID)
	require.ErrorIs(t, err, ErrOrderNotFound)
}

func TestListOrdersNewestFirstWithFilter(t *testing.T) {
	store := newTestStore(t)
	svc := newOrderService(store, &capturingPublisher{})
	ctx := context.Background()

	p := seedProduct(t, store, "Rug", 40, 50)

	first, err := svc.PlaceOrder(ctx, "Alice Smith", []domain.BasketLine{{ProductID: p.ID, Quantity: 1}})
	require.NoError(t, err)
	_, err = svc.PlaceOrder(ctx, "Bob Jones", []domain.BasketLine{{ProductID: p.ID, Quantity: 1}})
	require.NoError(t, err)

	all, err := svc.ListOrders(ctx, domain.OrderFilter{})
	require.NoError(t, err)
	require.Len(t, all, 2)
	require.Len(t, all[0].Items, 1)

	byName, err := svc.ListOrders(ctx, domain.OrderFilter{CustomerNameSearch: "Alice"})
	require.NoError(t, err)
	require.Len(t, byName, 1)
	assert.Equal(t, "Alice Smith", byName[0].CustomerName)

	byID, err := svc.ListOrders(ctx, domain.OrderFilter{IDSearch: first.ID})
	require.NoError(t, err)
	require.Len(t, byID, 1)
	assert.Equal(t, first.ID, byID[0].ID)
}

func TestSalesSummary(t *testing.T) {
	store := newTestStore(t)
	svc := newOrderService(store, &capturingPublisher{})
	ctx := context.Background()

	summary, err := svc.SalesSummary(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(0), summary.TotalOrders)
	assert.Equal(t, 0.0, summary.TotalRevenue)

	p := seedProduct(t, store, "Vase", 25, 50)
	_, err = svc.PlaceOrder(ctx, "P", []domain.BasketLine{{ProductID: p.ID, Quantity: 2}})
	require.NoError(t, err)
	_, err = svc.PlaceOrder(ctx, "Q", []domain.BasketLine{{ProductID: p.ID, Quantity: 1}})
	require.NoError(t, err)

	summary, err = svc.SalesSummary(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), summary.TotalOrders)
	assert.InDelta(t, 75.0, summary.TotalRevenue, 0.001)
}

func TestPlaceOrderDropsStaleCachedStock(t *testing.T) {
	store := newTestStore(t)
	cache := newMemProductCache()
	catalog := NewCatalogService(store, cache, zap.NewNop())
	svc := newOrderServiceWithCache(store, &capturingPublisher{}, cache)
	ctx := context.Background()

	p := seedProduct(t, store, "Monitor", 150, 8)

	// Warm the cache with the pre-sale quantity.
	cached, err := catalog.GetProduct(ctx, p.ID)
	require.NoError(t, err)
	require.Equal(t, 8, cached.StockQuantity)

	_, err = svc.PlaceOrder(ctx, "S", []domain.BasketLine{{ProductID: p.ID, Quantity: 3}})
	require.NoError(t, err)

	// The committed sale must not be masked by the cached copy.
	reloaded, err := catalog.GetProduct(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, 5, reloaded.StockQuantity)
}

func TestRepeatedProductGetsOneLowStockAdvisory(t *testing.T) {
	store := newTestStore(t)
	pub := &capturingPublisher{}
	svc := newOrderService(store, pub)
	ctx := context.Background()

	// Both lines land the product inside the advisory window; only its
	// final quantity matters.
	p := seedProduct(t, store, "Speaker", 70, 12)

	_, err := svc.PlaceOrder(ctx, "T", []domain.BasketLine{
		{ProductID: p.ID, Quantity: 4},
		{ProductID: p.ID, Quantity: 4},
	})
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		return pub.orderCount() == 1
	}, 2*time.Second, 10*time.Millisecond)
	assert.Equal(t, 1, pub.lowStockCount())

	updated, err := store.GetProduct(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, 4, updated.StockQuantity)
}

func TestListOrdersFilterByProductName(t *testing.T) {
	store := newTestStore(t)
	svc := newOrderService(store, &capturingPublisher{})
	ctx := context.Background()

	keyboard := seedProduct(t, store, "Keyboard", 50, 20)
	mouse := seedProduct(t, store, "Mouse", 20, 20)

	withKeyboard, err := svc.PlaceOrder(ctx, "U", []domain.BasketLine{
		{ProductID: keyboard.ID, Quantity: 1},
		{ProductID: mouse.ID, Quantity: 1},
	})
	require.NoError(t, err)
	_, err = svc.PlaceOrder(ctx, "V", []domain.BasketLine{
		{ProductID: mouse.ID, Quantity: 2},
	})
	require.NoError(t, err)

	matches, err := svc.ListOrders(ctx, domain.OrderFilter{ProductNameSearch: "Keyboard"})
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Equal(t, withKeyboard.ID, matches[0].ID)
	// Items come back complete, not narrowed to the matching product.
	assert.Len(t, matches[0].Items, 2)

	both, err := svc.ListOrders(ctx, domain.OrderFilter{ProductNameSearch: "Mouse"})
	require.NoError(t, err)
	require.Len(t, both, 2)
}

func TestPlaceOrderRejectsNonPositiveQuantity(t *testing.T) {
	store := newTestStore(t)
	svc := newOrderService(store, &capturingPublisher{})

	p := seedProduct(t, store, "Clip", 1, 10)

	_, err := svc.PlaceOrder(context.Background(), "R", []domain.BasketLine{
		{ProductID: p.ID, Quantity: 0},
	})
	require.Error(t, err)
	require.False(t, errors.Is(err, ErrEmptyBasket))
}
