package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storefront/cache"
	"storefront/models"
	"storefront/repository"
	"storefront/testutil"
)

func TestCreateOrderExampleScenario(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil)
	a := f.product(t, "Product A", "10.00", 5)
	u := f.user(t, 1001)
	_, err := f.users.AddToCart(ctx, u.ID, models.CartItem{ProductID: a.ID, Quantity: 2})
	require.NoError(t, err)

	in := orderFor(OrderLine{ProductID: a.ID, Quantity: 2})
	in.ShippingCost = money("5")
	order, err := f.orders.Create(ctx, u, in)
	require.NoError(t, err)

	assert.Equal(t, "2503140001", order.OrderNumber)
	assert.Equal(t, "20.00", order.Subtotal.StringFixed(2))
	assert.Equal(t, "1.60", order.TaxAmount.StringFixed(2))
	assert.Equal(t, "26.60", order.Total.StringFixed(2))
	assert.Equal(t, "USD", order.Currency)
	assert.Equal(t, models.OrderStatusPending, order.Status)
	assert.Equal(t, models.PaymentStatusPending, order.PaymentStatus)
	require.Len(t, order.StatusHistory, 1)
	assert.Equal(t, models.OrderStatusPending, order.StatusHistory[0].Status)
	assert.Equal(t, "Order created", order.StatusHistory[0].Note)
	require.NotNil(t, order.User)
	assert.Equal(t, int64(1001), order.User.TelegramID)
	assert.Equal(t, "Ada", order.User.FirstName)

	require.Len(t, order.Items, 1)
	assert.Equal(t, "Product A", order.Items[0].Name)
	assert.Equal(t, "10.00", order.Items[0].Price.StringFixed(2))

	assert.Equal(t, 3, testutil.ProductStock(t, f.db, a.ID))
	stored, err := repository.FindProductByID(ctx, f.db, a.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), stored.OrderCount)

	owner, err := f.users.FindByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Empty(t, owner.Cart.Items)
	assert.Equal(t, 1, owner.TotalOrders)
	assert.Equal(t, "26.60", owner.TotalSpent.StringFixed(2))
}

func TestCreateOrderIgnoresClientSubtotalAndTotal(t *testing.T) {
	f := newFixture(t, nil)
	p := f.product(t, "Beans", "12.50", 10)
	u := f.user(t, 1)

	in := orderFor(OrderLine{ProductID: p.ID, Quantity: 2})
	in.Subtotal = money("1.00")
	in.Total = money("1.00")
	in.TaxAmount = money("2.00")
	in.DiscountAmount = money("3.00")
	order, err := f.orders.Create(context.Background(), u, in)
	require.NoError(t, err)

	assert.Equal(t, "25.00", order.Subtotal.StringFixed(2))
	assert.Equal(t, "24.00", order.Total.StringFixed(2))
	assert.True(t, order.Total.Equal(order.Subtotal.Add(order.ShippingCost).Add(order.TaxAmount).Sub(order.DiscountAmount)))
}

func TestCreateOrderSnapshotSurvivesProductChanges(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil)
	p := f.product(t, "Grinder", "80.00", 3)
	u := f.user(t, 1)

	order, err := f.orders.Create(ctx, u, orderFor(OrderLine{ProductID: p.ID, Quantity: 1, SelectedVariant: "black"}))
	require.NoError(t, err)

	name, price := "Grinder v2", money("95.00")
	_, err = f.products.Update(ctx, p.ID, ProductInput{Name: &name, Price: price})
	require.NoError(t, err)

	stored, err := f.orders.Get(ctx, u, order.ID)
	require.NoError(t, err)
	require.Len(t, stored.Items, 1)
	assert.Equal(t, "Grinder", stored.Items[0].Name)
	assert.Equal(t, "80.00", stored.Items[0].Price.StringFixed(2))
	assert.Equal(t, "black", stored.Items[0].SelectedVariant)
}

func TestCreateOrderInsufficientStock(t *testing.T) {
	f := newFixture(t, nil)
	p := f.product(t, "Kettle", "30.00", 2)
	u := f.user(t, 1)

	_, err := f.orders.Create(context.Background(), u, orderFor(OrderLine{ProductID: p.ID, Quantity: 3}))

	require.Error(t, err)
	assert.True(t, IsRejected(err, RejectInsufficientStock))
	assert.Contains(t, err.Error(), "Kettle")
	assert.Contains(t, err.Error(), "Available: 2, Requested: 3")
	assert.Equal(t, 2, testutil.ProductStock(t, f.db, p.ID))
	assert.Empty(t, f.events.ofType(models.OrderEventCreated))
}

func TestCreateOrderRollsBackEarlierItems(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil)
	first := f.product(t, "Mug", "8.00", 5)
	second := f.product(t, "Filter", "4.00", 1)
	u := f.user(t, 1)

	_, err := f.orders.Create(ctx, u, orderFor(
		OrderLine{ProductID: first.ID, Quantity: 2},
		OrderLine{ProductID: second.ID, Quantity: 3},
	))

	assert.True(t, IsRejected(err, RejectInsufficientStock))
	assert.Equal(t, 5, testutil.ProductStock(t, f.db, first.ID))
	assert.Equal(t, 1, testutil.ProductStock(t, f.db, second.ID))

	page, err := f.orders.List(ctx, u, 1, 10)
	require.NoError(t, err)
	assert.Zero(t, page.Total)
}

func TestCreateOrderRepeatedLinesCannotOverdraw(t *testing.T) {
	f := newFixture(t, nil)
	p := f.product(t, "Dripper", "25.00", 3)
	u := f.user(t, 1)

	// The second line reads stock 1 inside the transaction; only the guarded
	// decrement stops it.
	_, err := f.orders.Create(context.Background(), u, orderFor(
		OrderLine{ProductID: p.ID, Quantity: 2},
		OrderLine{ProductID: p.ID, Quantity: 2},
	))

	assert.True(t, IsRejected(err, RejectInsufficientStock), "got %v", err)
	assert.Contains(t, err.Error(), "Available: 1, Requested: 2")
	assert.Equal(t, 3, testutil.ProductStock(t, f.db, p.ID))
}

func TestCreateOrderUnavailableProduct(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil)
	u := f.user(t, 1)

	_, err := f.orders.Create(ctx, u, orderFor(OrderLine{ProductID: 999, Quantity: 1}))
	assert.True(t, IsRejected(err, RejectProductUnavailable))

	p := f.product(t, "Retired", "5.00", 10)
	inactive := false
	_, err = f.products.Update(ctx, p.ID, ProductInput{IsActive: &inactive})
	require.NoError(t, err)

	_, err = f.orders.Create(ctx, u, orderFor(OrderLine{ProductID: p.ID, Quantity: 1}))
	assert.True(t, IsRejected(err, RejectProductUnavailable))
	assert.Equal(t, 10, testutil.ProductStock(t, f.db, p.ID))
}

func TestCreateOrderUntrackedStock(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil)
	p := f.product(t, "Gift card", "25.00", 0)
	track := false
	_, err := f.products.Update(ctx, p.ID, ProductInput{TrackStock: &track})
	require.NoError(t, err)

	_, err = f.orders.Create(ctx, f.user(t, 1), orderFor(OrderLine{ProductID: p.ID, Quantity: 4}))
	require.NoError(t, err)
	assert.Equal(t, 0, testutil.ProductStock(t, f.db, p.ID))
}

func TestCreateOrderValidation(t *testing.T) {
	f := newFixture(t, nil)
	p := f.product(t, "Beans", "10.00", 10)
	u := f.user(t, 1)

	tests := map[string]func(in *CreateOrderInput){
		"no items":          func(in *CreateOrderInput) { in.Items = nil },
		"zero quantity":     func(in *CreateOrderInput) { in.Items[0].Quantity = 0 },
		"negative discount": func(in *CreateOrderInput) { in.DiscountAmount = money("-1") },
		"missing address":   func(in *CreateOrderInput) { in.ShippingAddress.City = "" },
		"bad currency":      func(in *CreateOrderInput) { in.Currency = "EURO" },
		"discount too big":  func(in *CreateOrderInput) { in.DiscountAmount = money("500") },
	}
	for name, mutate := range tests {
		t.Run(name, func(t *testing.T) {
			in := orderFor(OrderLine{ProductID: p.ID, Quantity: 1})
			mutate(&in)

			_, err := f.orders.Create(context.Background(), u, in)

			var verr *ValidationError
			assert.True(t, errors.As(err, &verr), "got %v", err)
		})
	}
	assert.Equal(t, 10, testutil.ProductStock(t, f.db, p.ID))
}

func TestConcurrentOrdersGetDistinctSequentialNumbers(t *testing.T) {
	f := newFixture(t, nil)
	p := f.product(t, "Beans", "10.00", 100)
	u := f.user(t, 1)

	const n = 10
	numbers := make(chan string, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			order, err := f.orders.Create(context.Background(), u, orderFor(OrderLine{ProductID: p.ID, Quantity: 1}))
			if assert.NoError(t, err) {
				numbers <- order.OrderNumber
			}
		}()
	}
	wg.Wait()
	close(numbers)

	seen := map[string]bool{}
	for number := range numbers {
		assert.False(t, seen[number], "duplicate %s", number)
		seen[number] = true
	}
	require.Len(t, seen, n)
	for i := 1; i <= n; i++ {
		assert.True(t, seen[formatOrderNumber("250314", int64(i))], "missing sequence %d", i)
	}
	assert.Equal(t, 100-n, testutil.ProductStock(t, f.db, p.ID))
}

func TestConcurrentOrdersNeverOversell(t *testing.T) {
	f := newFixture(t, nil)
	p := f.product(t, "Last one", "10.00", 1)

	const n = 5
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		succeeded int
	)
	for i := 0; i < n; i++ {
		u := f.user(t, int64(100+i))
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.orders.Create(context.Background(), u, orderFor(OrderLine{ProductID: p.ID, Quantity: 1}))
			if err == nil {
				mu.Lock()
				succeeded++
				mu.Unlock()
				return
			}
			assert.True(t, IsRejected(err, RejectInsufficientStock), "got %v", err)
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, succeeded)
	assert.Equal(t, 0, testutil.ProductStock(t, f.db, p.ID))
}

func TestOrderNumbersFallBackToStoreWithoutCache(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, cache.Nop{})
	p := f.product(t, "Beans", "10.00", 10)
	u := f.user(t, 1)

	first, err := f.orders.Create(ctx, u, orderFor(OrderLine{ProductID: p.ID, Quantity: 1}))
	require.NoError(t, err)
	second, err := f.orders.Create(ctx, u, orderFor(OrderLine{ProductID: p.ID, Quantity: 1}))
	require.NoError(t, err)

	assert.Equal(t, "2503140001", first.OrderNumber)
	assert.Equal(t, "2503140002", second.OrderNumber)
}

func TestOrderAdmissionSurvivesCacheOutage(t *testing.T) {
	ctx := context.Background()
	c, mr := testutil.NewCache(t)
	f := newFixture(t, c)
	p := f.product(t, "Beans", "10.00", 10)
	u := f.user(t, 1)

	_, err := f.orders.Create(ctx, u, orderFor(OrderLine{ProductID: p.ID, Quantity: 1}))
	require.NoError(t, err)
	assert.Equal(t, cache.OrderCounterTTL, mr.TTL("order_counter:250314"))

	mr.Close()
	order, err := f.orders.Create(ctx, u, orderFor(OrderLine{ProductID: p.ID, Quantity: 1}))
	require.NoError(t, err)
	assert.Equal(t, "2503140002", order.OrderNumber)

	loaded, err := f.users.FindByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, loaded.TotalOrders)
}

func TestOrderNumberCollisionRetriesFromStore(t *testing.T) {
	ctx := context.Background()
	c, mr := testutil.NewCache(t)
	f := newFixture(t, c)
	p := f.product(t, "Beans", "10.00", 10)
	u := f.user(t, 1)

	_, err := f.orders.Create(ctx, u, orderFor(OrderLine{ProductID: p.ID, Quantity: 1}))
	require.NoError(t, err)

	// A counter lost with the cache restarts at 1 and collides.
	mr.Del("order_counter:250314")
	order, err := f.orders.Create(ctx, u, orderFor(OrderLine{ProductID: p.ID, Quantity: 1}))
	require.NoError(t, err)

	assert.Equal(t, "2503140002", order.OrderNumber)
	assert.Equal(t, 8, testutil.ProductStock(t, f.db, p.ID))

	// The stored sequence was written back, so the next order does not collide.
	counter, err := mr.Get("order_counter:250314")
	require.NoError(t, err)
	assert.Equal(t, "2", counter)
	assert.Positive(t, mr.TTL("order_counter:250314"))

	next, err := f.orders.Create(ctx, u, orderFor(OrderLine{ProductID: p.ID, Quantity: 1}))
	require.NoError(t, err)
	assert.Equal(t, "2503140003", next.OrderNumber)
}

func TestCancelGuard(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil)
	p := f.product(t, "Beans", "10.00", 10)
	u := f.user(t, 1)

	shipped, err := f.orders.Create(ctx, u, orderFor(OrderLine{ProductID: p.ID, Quantity: 1}))
	require.NoError(t, err)
	for _, status := range []models.OrderStatus{models.OrderStatusConfirmed, models.OrderStatusProcessing, models.OrderStatusShipped} {
		_, err = f.orders.UpdateStatus(ctx, shipped.ID, status, "")
		require.NoError(t, err)
	}

	_, err = f.orders.Cancel(ctx, u, shipped.ID, "changed my mind")
	assert.True(t, IsRejected(err, RejectInvalidState), "got %v", err)

	pending, err := f.orders.Create(ctx, u, orderFor(OrderLine{ProductID: p.ID, Quantity: 1}))
	require.NoError(t, err)

	cancelled, err := f.orders.Cancel(ctx, u, pending.ID, "changed my mind")
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusCancelled, cancelled.Status)
	require.NotNil(t, cancelled.CancelledAt)
	assert.True(t, cancelled.CancelledAt.Equal(testNow))
	assert.Equal(t, "changed my mind", cancelled.CancelReason)
	require.Len(t, cancelled.StatusHistory, 2)
	assert.Equal(t, models.OrderStatusCancelled, cancelled.StatusHistory[1].Status)
	assert.Equal(t, int64(1), cancelled.User.TelegramID)

	updates := f.events.ofType(models.OrderEventStatusUpdated)
	require.NotEmpty(t, updates)
	last := updates[len(updates)-1]
	assert.Equal(t, uint8(8), last.Priority)
	assert.Equal(t, models.OrderStatusCancelled, last.Event.Status)
}

func TestCancelOtherUsersOrderIsNotFound(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil)
	p := f.product(t, "Beans", "10.00", 10)
	owner := f.user(t, 1)
	stranger := f.user(t, 2)

	order, err := f.orders.Create(ctx, owner, orderFor(OrderLine{ProductID: p.ID, Quantity: 1}))
	require.NoError(t, err)

	_, err = f.orders.Cancel(ctx, stranger, order.ID, "")
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = f.orders.Get(ctx, stranger, order.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestStatusHistoryIsAppendOnly(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil)
	p := f.product(t, "Beans", "10.00", 10)
	u := f.user(t, 1)

	order, err := f.orders.Create(ctx, u, orderFor(OrderLine{ProductID: p.ID, Quantity: 1}))
	require.NoError(t, err)

	previous := order.StatusHistory
	path := []models.OrderStatus{
		models.OrderStatusConfirmed,
		models.OrderStatusProcessing,
		models.OrderStatusShipped,
		models.OrderStatusDelivered,
	}
	for _, status := range path {
		updated, err := f.orders.UpdateStatus(ctx, order.ID, status, "moved to "+string(status))
		require.NoError(t, err)

		require.Len(t, updated.StatusHistory, len(previous)+1)
		for i := range previous {
			assert.Equal(t, previous[i].Status, updated.StatusHistory[i].Status)
			assert.Equal(t, previous[i].Note, updated.StatusHistory[i].Note)
		}
		lastEntry := updated.StatusHistory[len(updated.StatusHistory)-1]
		assert.Equal(t, status, lastEntry.Status)
		assert.Equal(t, updated.Status, lastEntry.Status)
		previous = updated.StatusHistory
	}

	delivered, err := f.orders.Get(ctx, u, order.ID)
	require.NoError(t, err)
	require.NotNil(t, delivered.DeliveredAt)

	_, err = f.orders.UpdateStatus(ctx, order.ID, models.OrderStatusPending, "")
	assert.True(t, IsRejected(err, RejectInvalidState))
	unchanged, err := f.orders.Get(ctx, u, order.ID)
	require.NoError(t, err)
	assert.Len(t, unchanged.StatusHistory, len(path)+1)
	assert.Equal(t, models.OrderStatusDelivered, unchanged.Status)
}

func TestTransitionFromStaleStatusIsRejected(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil)
	p := f.product(t, "Beans", "10.00", 10)
	u := f.user(t, 1)

	stale, err := f.orders.Create(ctx, u, orderFor(OrderLine{ProductID: p.ID, Quantity: 1}))
	require.NoError(t, err)
	_, err = f.orders.UpdateStatus(ctx, stale.ID, models.OrderStatusConfirmed, "")
	require.NoError(t, err)

	// stale still says pending, which the stored order no longer is.
	_, err = f.orders.transition(ctx, stale, models.OrderStatusCancelled, "too late")
	assert.True(t, IsRejected(err, RejectInvalidState), "got %v", err)
	assert.Contains(t, err.Error(), "changed status concurrently")

	current, err := f.orders.Get(ctx, u, stale.ID)
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusConfirmed, current.Status)
	assert.Len(t, current.StatusHistory, 2)
	assert.Nil(t, current.CancelledAt)
	assert.Len(t, f.events.ofType(models.OrderEventStatusUpdated), 1)
}

func TestUpdateStatusRejectsUnknownStatus(t *testing.T) {
	f := newFixture(t, nil)
	_, err := f.orders.UpdateStatus(context.Background(), 1, models.OrderStatus("lost"), "")
	var verr *ValidationError
	assert.True(t, errors.As(err, &verr))
}

func TestCreateOrderPublishesEvents(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil)
	cheap := f.product(t, "Beans", "10.00", 10)
	pricey := f.product(t, "Espresso machine", "1200.00", 2)
	u := f.user(t, 1)

	small, err := f.orders.Create(ctx, u, orderFor(OrderLine{ProductID: cheap.ID, Quantity: 1}))
	require.NoError(t, err)
	_, err = f.orders.Create(ctx, u, orderFor(OrderLine{ProductID: pricey.ID, Quantity: 1}))
	require.NoError(t, err)

	created := f.events.ofType(models.OrderEventCreated)
	require.Len(t, created, 2)
	assert.Equal(t, small.ID, created[0].Event.OrderID)
	assert.Equal(t, uint8(5), created[0].Priority)
	assert.Equal(t, uint8(9), created[1].Priority)

	checks := f.events.ofType(models.OrderEventPaymentCheck)
	require.Len(t, checks, 2)
	assert.Equal(t, 15*time.Minute, checks[0].Delay)
	assert.Equal(t, small.OrderNumber, checks[0].Event.OrderNumber)
}

func TestHandlePaymentCheck(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil)
	p := f.product(t, "Beans", "10.00", 10)
	u := f.user(t, 1)

	unpaid, err := f.orders.Create(ctx, u, orderFor(OrderLine{ProductID: p.ID, Quantity: 1}))
	require.NoError(t, err)
	paid, err := f.orders.Create(ctx, u, orderFor(OrderLine{ProductID: p.ID, Quantity: 1}))
	require.NoError(t, err)
	status := models.PaymentStatusPaid
	_, err = f.orders.UpdateFulfilment(ctx, paid.ID, FulfilmentInput{PaymentStatus: &status})
	require.NoError(t, err)

	cancelled, err := f.orders.HandlePaymentCheck(ctx, unpaid.ID)
	require.NoError(t, err)
	assert.True(t, cancelled)
	reloaded, err := f.orders.Get(ctx, u, unpaid.ID)
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusCancelled, reloaded.Status)
	assert.Equal(t, "Payment not received", reloaded.CancelReason)

	again, err := f.orders.HandlePaymentCheck(ctx, unpaid.ID)
	require.NoError(t, err)
	assert.False(t, again)

	kept, err := f.orders.HandlePaymentCheck(ctx, paid.ID)
	require.NoError(t, err)
	assert.False(t, kept)

	missing, err := f.orders.HandlePaymentCheck(ctx, 12345)
	require.NoError(t, err)
	assert.False(t, missing)
}

func TestUpdateFulfilmentKeepsStatus(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil)
	p := f.product(t, "Beans", "10.00", 10)
	u := f.user(t, 1)
	order, err := f.orders.Create(ctx, u, orderFor(OrderLine{ProductID: p.ID, Quantity: 1}))
	require.NoError(t, err)

	tracking, carrier := "1Z999", "UPS"
	updated, err := f.orders.UpdateFulfilment(ctx, order.ID, FulfilmentInput{TrackingNumber: &tracking, ShippingCarrier: &carrier})
	require.NoError(t, err)
	assert.Equal(t, "1Z999", updated.TrackingNumber)
	assert.Equal(t, "UPS", updated.ShippingCarrier)
	assert.Equal(t, models.OrderStatusPending, updated.Status)

	bogus := models.PaymentStatus("maybe")
	_, err = f.orders.UpdateFulfilment(ctx, order.ID, FulfilmentInput{PaymentStatus: &bogus})
	var verr *ValidationError
	assert.True(t, errors.As(err, &verr))
}

func TestListAndStats(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil)
	p := f.product(t, "Beans", "10.00", 50)
	u := f.user(t, 1)
	other := f.user(t, 2)

	for i := 0; i < 3; i++ {
		_, err := f.orders.Create(ctx, u, orderFor(OrderLine{ProductID: p.ID, Quantity: 1}))
		require.NoError(t, err)
	}
	_, err := f.orders.Create(ctx, other, orderFor(OrderLine{ProductID: p.ID, Quantity: 1}))
	require.NoError(t, err)

	page, err := f.orders.List(ctx, u, 1, 2)
	require.NoError(t, err)
	assert.Equal(t, int64(3), page.Total)
	assert.Equal(t, 2, page.TotalPages)
	assert.Len(t, page.Orders, 2)
	for _, o := range page.Orders {
		assert.Equal(t, u.ID, o.UserID)
		assert.Len(t, o.Items, 1)
	}

	stats, err := f.orders.Stats(ctx, &u.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(3), stats.TotalOrders)
	assert.Equal(t, int64(3), stats.PendingOrders)
	assert.Equal(t, "32.40", stats.TotalRevenue.StringFixed(2))
	assert.Equal(t, "10.80", stats.AvgOrderValue.StringFixed(2))

	all, err := f.orders.Stats(ctx, nil)
	require.NoError(t, err)
	assert.Equal(t, int64(4), all.TotalOrders)
}
