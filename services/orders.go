package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"

	"storefront/cache"
	"storefront/models"
	"storefront/repository"
)

// numberAttempts bounds how often admission retries after an order number
// collision, which can only follow a cache outage.
const numberAttempts = 3

// OrderEventPublisher delivers order events after the change is committed.
type OrderEventPublisher interface {
	PublishOrderEvent(ctx context.Context, event models.OrderEvent, priority uint8) error
	PublishDelayedOrderEvent(ctx context.Context, event models.OrderEvent, delay time.Duration) error
}

// NopPublisher drops every event. It is used when no broker is configured.
type NopPublisher struct{}

func (NopPublisher) PublishOrderEvent(context.Context, models.OrderEvent, uint8) error { return nil }

func (NopPublisher) PublishDelayedOrderEvent(context.Context, models.OrderEvent, time.Duration) error {
	return nil
}

// OrderNumbers hands out YYMMDD + zero padded daily sequence numbers.
type OrderNumbers struct {
	cache cache.Cache
	now   func() time.Time
}

func NewOrderNumbers(c cache.Cache, now func() time.Time) *OrderNumbers {
	if now == nil {
		now = time.Now
	}
	return &OrderNumbers{cache: c, now: now}
}

// Next returns the next order number for today. The sequence comes from an
// atomic cache increment; when the cache is unavailable, or fromStore is
// set, it is derived from the highest number already stored for the day
// and the cache counter is moved up to it.
func (g *OrderNumbers) Next(ctx context.Context, q sqlx.ExtContext, fromStore bool) (string, error) {
	day := g.now().UTC().Format("060102")
	key := cache.OrderCounterKey(day)
	if !fromStore {
		seq, err := g.cache.Incr(ctx, key)
		if err == nil {
			g.cache.Expire(ctx, key, cache.OrderCounterTTL)
			return formatOrderNumber(day, seq), nil
		}
		log.Printf("Order counter unavailable, using stored sequence: %v", err)
	}
	last, err := repository.LastOrderSequence(ctx, q, day)
	if err != nil {
		return "", fmt.Errorf("read last order number: %w", err)
	}
	g.cache.Set(ctx, key, strconv.FormatInt(last+1, 10), cache.OrderCounterTTL)
	return formatOrderNumber(day, last+1), nil
}

func formatOrderNumber(day string, seq int64) string {
	return fmt.Sprintf("%s%04d", day, seq)
}

// OrderLine is one requested purchase line.
type OrderLine struct {
	ProductID       int64  `json:"productId" binding:"required"`
	Quantity        int    `json:"quantity" binding:"required,min=1"`
	SelectedVariant string `json:"selectedVariant"`
}

// CreateOrderInput is the admission request. Subtotal and Total are
// accepted for compatibility with clients but always recomputed.
type CreateOrderInput struct {
	Items           []OrderLine      `json:"items" binding:"required,min=1,dive"`
	Subtotal        *decimal.Decimal `json:"subtotal"`
	ShippingCost    *decimal.Decimal `json:"shippingCost"`
	TaxAmount       *decimal.Decimal `json:"taxAmount"`
	DiscountAmount  *decimal.Decimal `json:"discountAmount"`
	Total           *decimal.Decimal `json:"total"`
	Currency        string           `json:"currency"`
	PaymentMethod   string           `json:"paymentMethod"`
	PaymentID       string           `json:"paymentId"`
	ShippingAddress models.Address   `json:"shippingAddress"`
	BillingAddress  *models.Address  `json:"billingAddress"`
	Notes           string           `json:"notes"`
}

func (in *CreateOrderInput) validate() error {
	if len(in.Items) == 0 {
		return invalid("order must contain at least one item")
	}
	for _, line := range in.Items {
		if line.ProductID <= 0 {
			return invalid("productId is required")
		}
		if line.Quantity < 1 {
			return invalid("quantity for product %d must be at least 1", line.ProductID)
		}
	}
	for name, amount := range map[string]*decimal.Decimal{
		"shippingCost":   in.ShippingCost,
		"taxAmount":      in.TaxAmount,
		"discountAmount": in.DiscountAmount,
	} {
		if amount != nil && amount.IsNegative() {
			return invalid("%s must not be negative", name)
		}
	}
	a := in.ShippingAddress
	if a.FirstName == "" || a.LastName == "" || a.Address1 == "" || a.City == "" ||
		a.PostalCode == "" || a.Country == "" || a.Phone == "" {
		return invalid("shipping address is incomplete")
	}
	if in.Currency != "" && len(in.Currency) != 3 {
		return invalid("currency must be a 3 letter code")
	}
	return nil
}

type OrderPage struct {
	Orders     []models.Order `json:"orders"`
	Total      int64          `json:"total"`
	Page       int            `json:"page"`
	Limit      int            `json:"limit"`
	TotalPages int            `json:"totalPages"`
}

type OrderConfig struct {
	TaxRate           decimal.Decimal
	Currency          string
	PaymentCheckDelay time.Duration
}

// OrderService admits orders and drives them through the status machine.
type OrderService struct {
	db        *sqlx.DB
	users     *UserService
	products  *ProductService
	numbers   *OrderNumbers
	publisher OrderEventPublisher
	cfg       OrderConfig
	now       func() time.Time
}

func NewOrderService(db *sqlx.DB, users *UserService, products *ProductService, numbers *OrderNumbers,
	publisher OrderEventPublisher, cfg OrderConfig) *OrderService {
	if publisher == nil {
		publisher = NopPublisher{}
	}
	return &OrderService{
		db:        db,
		users:     users,
		products:  products,
		numbers:   numbers,
		publisher: publisher,
		cfg:       cfg,
		now:       numbers.now,
	}
}

// Create admits an order for requester. Every item is checked and its stock
// taken inside one transaction, so a rejected order changes nothing.
func (s *OrderService) Create(ctx context.Context, requester *models.User, in CreateOrderInput) (*models.Order, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}

	var (
		order *models.Order
		err   error
	)
	for attempt := 0; attempt < numberAttempts; attempt++ {
		order, err = s.admit(ctx, requester, in, attempt > 0)
		if err == nil || !repository.IsDuplicate(err) {
			break
		}
		log.Printf("Order number collision for user %d, retrying from stored sequence", requester.ID)
	}
	if err != nil {
		return nil, err
	}

	productIDs := make([]int64, 0, len(order.Items))
	for _, item := range order.Items {
		productIDs = append(productIDs, item.ProductID)
	}
	s.products.ForgetProducts(ctx, productIDs...)
	s.users.Forget(ctx, requester)

	order.User = requester.Owner()
	s.publishCreated(ctx, order)
	return order, nil
}

func (s *OrderService) admit(ctx context.Context, requester *models.User, in CreateOrderInput, numberFromStore bool) (*models.Order, error) {
	var order *models.Order
	err := repository.WithTx(ctx, s.db, func(tx *sqlx.Tx) error {
		now := s.now().UTC()

		number, err := s.numbers.Next(ctx, tx, numberFromStore)
		if err != nil {
			return err
		}

		items := make([]models.OrderItem, 0, len(in.Items))
		for _, line := range in.Items {
			item, err := s.reserve(ctx, tx, line, now)
			if err != nil {
				return err
			}
			items = append(items, item)
		}

		totals := models.ComputeTotals(items, in.ShippingCost, in.TaxAmount, in.DiscountAmount, s.cfg.TaxRate)
		if totals.Total.IsNegative() {
			return invalid("discount exceeds the order value")
		}

		currency := strings.ToUpper(in.Currency)
		if currency == "" {
			currency = s.cfg.Currency
		}
		order = &models.Order{
			OrderNumber:     number,
			UserID:          requester.ID,
			UserTelegramID:  requester.TelegramID,
			Items:           items,
			Subtotal:        totals.Subtotal,
			ShippingCost:    totals.ShippingCost,
			TaxAmount:       totals.TaxAmount,
			DiscountAmount:  totals.DiscountAmount,
			Total:           totals.Total,
			Currency:        currency,
			Status:          models.OrderStatusPending,
			PaymentStatus:   models.PaymentStatusPending,
			PaymentMethod:   in.PaymentMethod,
			PaymentID:       in.PaymentID,
			ShippingAddress: in.ShippingAddress,
			BillingAddress:  in.BillingAddress,
			Notes:           in.Notes,
			StatusHistory: []models.StatusHistoryEntry{{
				Status:    models.OrderStatusPending,
				Timestamp: now,
				Note:      "Order created",
			}},
			CreatedAt: now,
			UpdatedAt: now,
		}
		if err := repository.InsertOrder(ctx, tx, order); err != nil {
			return err
		}

		for _, item := range items {
			if err := repository.IncrementOrderCount(ctx, tx, item.ProductID, item.Quantity); err != nil {
				return err
			}
		}
		if err := repository.AddUserOrderTotals(ctx, tx, requester.ID, order.Total); err != nil {
			return fmt.Errorf("update totals of user %d: %w", requester.ID, err)
		}
		return repository.ReplaceUserCart(ctx, tx, requester.ID, nil, now)
	})
	if err != nil {
		return nil, err
	}
	return order, nil
}

// reserve validates one line against the live product, takes its stock and
// returns the snapshot stored on the order.
func (s *OrderService) reserve(ctx context.Context, tx *sqlx.Tx, line OrderLine, now time.Time) (models.OrderItem, error) {
	p, err := repository.FindProductByID(ctx, tx, line.ProductID)
	if errors.Is(err, repository.ErrNotFound) || (err == nil && !p.IsActive) {
		return models.OrderItem{}, rejected(RejectProductUnavailable, "Product %d not found or inactive", line.ProductID)
	}
	if err != nil {
		return models.OrderItem{}, err
	}

	// The guarded decrement is the only stock check; the value read above
	// is used for the message alone.
	if p.TrackStock {
		ok, err := repository.DecrementStock(ctx, tx, p.ID, line.Quantity, now)
		if err != nil {
			return models.OrderItem{}, err
		}
		if !ok {
			return models.OrderItem{}, rejected(RejectInsufficientStock,
				"Insufficient stock for product %s. Available: %d, Requested: %d", p.Name, p.Stock, line.Quantity)
		}
	}

	return models.OrderItem{
		ProductID:       p.ID,
		Name:            p.Name,
		Price:           p.Price,
		Quantity:        line.Quantity,
		SelectedVariant: line.SelectedVariant,
		Thumbnail:       p.SnapshotThumbnail(),
	}, nil
}

func (s *OrderService) List(ctx context.Context, requester *models.User, page, limit int) (*OrderPage, error) {
	if limit < 1 {
		limit = 10
	}
	page, limit = normalisePage(page, limit)
	orders, total, err := repository.ListUserOrders(ctx, s.db, requester.ID, limit, (page-1)*limit)
	if err != nil {
		return nil, err
	}
	owner := requester.Owner()
	for i := range orders {
		orders[i].User = owner
	}
	return &OrderPage{
		Orders:     orders,
		Total:      total,
		Page:       page,
		Limit:      limit,
		TotalPages: int(math.Ceil(float64(total) / float64(limit))),
	}, nil
}

// Get returns an order owned by requester; other users' orders are not found.
func (s *OrderService) Get(ctx context.Context, requester *models.User, id int64) (*models.Order, error) {
	o, err := repository.FindUserOrder(ctx, s.db, id, requester.ID)
	if err != nil {
		return nil, err
	}
	o.User = requester.Owner()
	return o, nil
}

// Stats aggregates one user's orders, or all orders when userID is nil.
func (s *OrderService) Stats(ctx context.Context, userID *int64) (models.OrderStats, error) {
	return repository.OrderStats(ctx, s.db, userID)
}

// UpdateStatus is the administrative transition.
func (s *OrderService) UpdateStatus(ctx context.Context, id int64, status models.OrderStatus, note string) (*models.Order, error) {
	if !status.Valid() {
		return nil, invalid("unknown status %q", status)
	}
	o, err := repository.FindOrder(ctx, s.db, id)
	if err != nil {
		return nil, err
	}
	return s.transition(ctx, o, status, note)
}

// Cancel lets the owner withdraw an order that has not been processed yet.
func (s *OrderService) Cancel(ctx context.Context, requester *models.User, id int64, reason string) (*models.Order, error) {
	o, err := repository.FindUserOrder(ctx, s.db, id, requester.ID)
	if err != nil {
		return nil, err
	}
	if !o.Status.Cancellable() {
		return nil, rejected(RejectInvalidState, "Order cannot be cancelled at this stage (status %s)", o.Status)
	}
	return s.transition(ctx, o, models.OrderStatusCancelled, reason)
}

// HandlePaymentCheck cancels an order that is still waiting for payment.
// It reports whether the order was cancelled.
func (s *OrderService) HandlePaymentCheck(ctx context.Context, id int64) (bool, error) {
	o, err := repository.FindOrder(ctx, s.db, id)
	if errors.Is(err, repository.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if o.Status != models.OrderStatusPending || o.PaymentStatus != models.PaymentStatusPending {
		return false, nil
	}
	if _, err := s.transition(ctx, o, models.OrderStatusCancelled, "Payment not received"); err != nil {
		if IsRejected(err, RejectInvalidState) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func (s *OrderService) transition(ctx context.Context, o *models.Order, to models.OrderStatus, note string) (*models.Order, error) {
	if !o.Status.CanTransitionTo(to) {
		return nil, rejected(RejectInvalidState, "Order %s cannot move from %s to %s", o.OrderNumber, o.Status, to)
	}
	change := repository.StatusChange{From: o.Status, To: to, Note: note, At: s.now().UTC()}
	err := repository.WithTx(ctx, s.db, func(tx *sqlx.Tx) error {
		return repository.ApplyStatusChange(ctx, tx, o.ID, change)
	})
	if errors.Is(err, repository.ErrStatusConflict) {
		return nil, rejected(RejectInvalidState, "Order %s changed status concurrently", o.OrderNumber)
	}
	if err != nil {
		return nil, err
	}

	updated, err := repository.FindOrder(ctx, s.db, o.ID)
	if err != nil {
		return nil, err
	}
	s.attachOwner(ctx, updated)
	s.publishStatus(ctx, updated)
	return updated, nil
}

// FulfilmentInput carries administrative order fields other than status.
type FulfilmentInput struct {
	TrackingNumber  *string               `json:"trackingNumber"`
	ShippingCarrier *string               `json:"shippingCarrier"`
	Notes           *string               `json:"notes"`
	PaymentStatus   *models.PaymentStatus `json:"paymentStatus"`
	PaymentMethod   *string               `json:"paymentMethod"`
	PaymentID       *string               `json:"paymentId"`
}

func (s *OrderService) UpdateFulfilment(ctx context.Context, id int64, in FulfilmentInput) (*models.Order, error) {
	if in.PaymentStatus != nil && !in.PaymentStatus.Valid() {
		return nil, invalid("unknown payment status %q", *in.PaymentStatus)
	}
	o, err := repository.FindOrder(ctx, s.db, id)
	if err != nil {
		return nil, err
	}
	err = repository.UpdateOrderFulfilment(ctx, s.db, o, repository.OrderFulfilment{
		TrackingNumber:  in.TrackingNumber,
		ShippingCarrier: in.ShippingCarrier,
		Notes:           in.Notes,
		PaymentStatus:   in.PaymentStatus,
		PaymentMethod:   in.PaymentMethod,
		PaymentID:       in.PaymentID,
	}, s.now().UTC())
	if err != nil {
		return nil, err
	}
	s.attachOwner(ctx, o)
	return o, nil
}

func (s *OrderService) attachOwner(ctx context.Context, o *models.Order) {
	u, err := s.users.FindByID(ctx, o.UserID)
	if err != nil {
		log.Printf("Failed to load owner %d of order %s: %v", o.UserID, o.OrderNumber, err)
		return
	}
	o.User = u.Owner()
}

func orderEvent(o *models.Order, eventType string, at time.Time) models.OrderEvent {
	return models.OrderEvent{
		OrderID:     o.ID,
		OrderNumber: o.OrderNumber,
		UserID:      o.UserID,
		Type:        eventType,
		Status:      o.Status,
		Total:       o.Total.StringFixed(2),
		Occurred:    at,
	}
}

// Publishing happens after commit; a broker failure never undoes the order.
func (s *OrderService) publishCreated(ctx context.Context, o *models.Order) {
	priority := uint8(5)
	if o.Total.GreaterThan(decimal.NewFromInt(1000)) {
		priority = 9
	}
	now := s.now().UTC()
	if err := s.publisher.PublishOrderEvent(ctx, orderEvent(o, models.OrderEventCreated, now), priority); err != nil {
		log.Printf("Failed to publish order created event: %v", err)
	}
	if s.cfg.PaymentCheckDelay > 0 {
		event := orderEvent(o, models.OrderEventPaymentCheck, now)
		if err := s.publisher.PublishDelayedOrderEvent(ctx, event, s.cfg.PaymentCheckDelay); err != nil {
			log.Printf("Failed to publish delayed payment check event: %v", err)
		}
	}
}

func (s *OrderService) publishStatus(ctx context.Context, o *models.Order) {
	priority := uint8(5)
	if o.Status == models.OrderStatusCancelled {
		priority = 8
	}
	event := orderEvent(o, models.OrderEventStatusUpdated, s.now().UTC())
	if err := s.publisher.PublishOrderEvent(ctx, event, priority); err != nil {
		log.Printf("Failed to publish order updated event: %v", err)
	}
}
