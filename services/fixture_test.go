package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"

	"storefront/cache"
	"storefront/models"
	"storefront/testutil"
)

var testNow = time.Date(2025, 3, 14, 10, 30, 0, 0, time.UTC)

type publishedEvent struct {
	Event    models.OrderEvent
	Priority uint8
	Delay    time.Duration
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []publishedEvent
}

func (p *recordingPublisher) PublishOrderEvent(_ context.Context, event models.OrderEvent, priority uint8) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, publishedEvent{Event: event, Priority: priority})
	return nil
}

func (p *recordingPublisher) PublishDelayedOrderEvent(_ context.Context, event models.OrderEvent, delay time.Duration) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, publishedEvent{Event: event, Delay: delay})
	return nil
}

func (p *recordingPublisher) ofType(eventType string) []publishedEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []publishedEvent
	for _, e := range p.events {
		if e.Event.Type == eventType {
			out = append(out, e)
		}
	}
	return out
}

type fixture struct {
	db       *sqlx.DB
	cache    cache.Cache
	users    *UserService
	products *ProductService
	orders   *OrderService
	events   *recordingPublisher
	category *models.Category
}

func clock() time.Time { return testNow }

func newFixture(t *testing.T, c cache.Cache) *fixture {
	t.Helper()
	db := testutil.NewDB(t)
	if c == nil {
		c, _ = testutil.NewCache(t)
	}
	events := &recordingPublisher{}
	users := NewUserService(db, c).WithClock(clock)
	products := NewProductService(db, c, "USD")
	orders := NewOrderService(db, users, products, NewOrderNumbers(c, clock), events, OrderConfig{
		TaxRate:           decimal.RequireFromString("0.08"),
		Currency:          "USD",
		PaymentCheckDelay: 15 * time.Minute,
	})
	return &fixture{
		db:       db,
		cache:    c,
		users:    users,
		products: products,
		orders:   orders,
		events:   events,
		category: testutil.CreateCategory(t, db, "Coffee", "coffee"),
	}
}

func (f *fixture) product(t *testing.T, name, price string, stock int) *models.Product {
	return testutil.CreateProduct(t, f.db, f.category.ID, name, price, stock)
}

func (f *fixture) user(t *testing.T, telegramID int64) *models.User {
	return testutil.CreateUser(t, f.db, telegramID, "Ada")
}

func orderFor(lines ...OrderLine) CreateOrderInput {
	return CreateOrderInput{
		Items:           lines,
		Currency:        "USD",
		ShippingAddress: testutil.Address(),
	}
}

func money(s string) *decimal.Decimal {
	d := decimal.RequireFromString(s)
	return &d
}
