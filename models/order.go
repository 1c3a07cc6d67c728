package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type OrderStatus string

const (
	OrderStatusPending    OrderStatus = "pending"
	OrderStatusConfirmed  OrderStatus = "confirmed"
	OrderStatusProcessing OrderStatus = "processing"
	OrderStatusShipped    OrderStatus = "shipped"
	OrderStatusDelivered  OrderStatus = "delivered"
	OrderStatusCancelled  OrderStatus = "cancelled"
	OrderStatusRefunded   OrderStatus = "refunded"
)

type PaymentStatus string

const (
	PaymentStatusPending  PaymentStatus = "pending"
	PaymentStatusPaid     PaymentStatus = "paid"
	PaymentStatusFailed   PaymentStatus = "failed"
	PaymentStatusRefunded PaymentStatus = "refunded"
)

func (s PaymentStatus) Valid() bool {
	switch s {
	case PaymentStatusPending, PaymentStatusPaid, PaymentStatusFailed, PaymentStatusRefunded:
		return true
	}
	return false
}

// transitions lists the statuses reachable from each status. Refunds are
// administrative and allowed from every state except refunded itself.
var transitions = map[OrderStatus][]OrderStatus{
	OrderStatusPending:    {OrderStatusConfirmed, OrderStatusCancelled, OrderStatusRefunded},
	OrderStatusConfirmed:  {OrderStatusProcessing, OrderStatusCancelled, OrderStatusRefunded},
	OrderStatusProcessing: {OrderStatusShipped, OrderStatusRefunded},
	OrderStatusShipped:    {OrderStatusDelivered, OrderStatusRefunded},
	OrderStatusDelivered:  {OrderStatusRefunded},
	OrderStatusCancelled:  {OrderStatusRefunded},
	OrderStatusRefunded:   {},
}

func (s OrderStatus) Valid() bool {
	_, ok := transitions[s]
	return ok
}

// CanTransitionTo reports whether an order in status s may move to next.
func (s OrderStatus) CanTransitionTo(next OrderStatus) bool {
	for _, allowed := range transitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Cancellable reports whether the owner may still cancel the order.
func (s OrderStatus) Cancellable() bool {
	return s == OrderStatusPending || s == OrderStatusConfirmed
}

// Terminal reports whether no further fulfilment happens in status s.
func (s OrderStatus) Terminal() bool {
	return s == OrderStatusDelivered || s == OrderStatusCancelled || s == OrderStatusRefunded
}

type Address struct {
	FirstName  string `json:"firstName" binding:"required"`
	LastName   string `json:"lastName" binding:"required"`
	Company    string `json:"company,omitempty"`
	Address1   string `json:"address1" binding:"required"`
	Address2   string `json:"address2,omitempty"`
	City       string `json:"city" binding:"required"`
	State      string `json:"state,omitempty"`
	PostalCode string `json:"postalCode" binding:"required"`
	Country    string `json:"country" binding:"required"`
	Phone      string `json:"phone" binding:"required"`
}

// OrderItem is the snapshot of a product taken when the order was admitted.
// It never follows later changes to the product.
type OrderItem struct {
	ProductID       int64           `json:"productId" db:"product_id"`
	Name            string          `json:"name" db:"name"`
	Price           decimal.Decimal `json:"price" db:"price"`
	Quantity        int             `json:"quantity" db:"quantity"`
	SelectedVariant string          `json:"selectedVariant,omitempty" db:"selected_variant"`
	Thumbnail       string          `json:"thumbnail,omitempty" db:"thumbnail"`
}

func (i OrderItem) LineTotal() decimal.Decimal {
	return i.Price.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

type StatusHistoryEntry struct {
	Status    OrderStatus `json:"status" db:"status"`
	Timestamp time.Time   `json:"timestamp" db:"created_at"`
	Note      string      `json:"note,omitempty" db:"note"`
}

// OrderOwner is the minimal identity projection joined onto order responses.
type OrderOwner struct {
	ID         int64  `json:"id"`
	TelegramID int64  `json:"telegramId"`
	FirstName  string `json:"firstName"`
	LastName   string `json:"lastName,omitempty"`
}

type Order struct {
	ID              int64                `json:"id"`
	OrderNumber     string               `json:"orderNumber"`
	UserID          int64                `json:"userId"`
	UserTelegramID  int64                `json:"userTelegramId"`
	User            *OrderOwner          `json:"user,omitempty"`
	Items           []OrderItem          `json:"items"`
	Subtotal        decimal.Decimal      `json:"subtotal"`
	ShippingCost    decimal.Decimal      `json:"shippingCost"`
	TaxAmount       decimal.Decimal      `json:"taxAmount"`
	DiscountAmount  decimal.Decimal      `json:"discountAmount"`
	Total           decimal.Decimal      `json:"total"`
	Currency        string               `json:"currency"`
	Status          OrderStatus          `json:"status"`
	PaymentStatus   PaymentStatus        `json:"paymentStatus"`
	PaymentMethod   string               `json:"paymentMethod,omitempty"`
	PaymentID       string               `json:"paymentId,omitempty"`
	ShippingAddress Address              `json:"shippingAddress"`
	BillingAddress  *Address             `json:"billingAddress,omitempty"`
	Notes           string               `json:"notes,omitempty"`
	TrackingNumber  string               `json:"trackingNumber,omitempty"`
	ShippingCarrier string               `json:"shippingCarrier,omitempty"`
	DeliveredAt     *time.Time           `json:"deliveredAt,omitempty"`
	CancelledAt     *time.Time           `json:"cancelledAt,omitempty"`
	CancelReason    string               `json:"cancelReason,omitempty"`
	StatusHistory   []StatusHistoryEntry `json:"statusHistory"`
	CreatedAt       time.Time            `json:"createdAt"`
	UpdatedAt       time.Time            `json:"updatedAt"`
}

// Totals holds the monetary fields of an order.
type Totals struct {
	Subtotal       decimal.Decimal
	ShippingCost   decimal.Decimal
	TaxAmount      decimal.Decimal
	DiscountAmount decimal.Decimal
	Total          decimal.Decimal
}

// ComputeTotals prices items server side. A nil tax is replaced by taxRate
// applied to the subtotal; nil shipping and discount count as zero.
func ComputeTotals(items []OrderItem, shipping, tax, discount *decimal.Decimal, taxRate decimal.Decimal) Totals {
	var t Totals
	for _, item := range items {
		t.Subtotal = t.Subtotal.Add(item.LineTotal())
	}
	if shipping != nil {
		t.ShippingCost = *shipping
	}
	if discount != nil {
		t.DiscountAmount = *discount
	}
	if tax != nil {
		t.TaxAmount = *tax
	} else {
		t.TaxAmount = t.Subtotal.Mul(taxRate).Round(2)
	}
	t.Total = t.Subtotal.Add(t.ShippingCost).Add(t.TaxAmount).Sub(t.DiscountAmount)
	return t
}

// OrderStats aggregates orders for dashboards.
type OrderStats struct {
	TotalOrders     int64           `json:"totalOrders" db:"total_orders"`
	TotalRevenue    decimal.Decimal `json:"totalRevenue" db:"total_revenue"`
	AvgOrderValue   decimal.Decimal `json:"avgOrderValue" db:"-"`
	PendingOrders   int64           `json:"pendingOrders" db:"pending_orders"`
	CompletedOrders int64           `json:"completedOrders" db:"completed_orders"`
	CancelledOrders int64           `json:"cancelledOrders" db:"cancelled_orders"`
}

type OrderEvent struct {
	OrderID     int64       `json:"order_id"`
	OrderNumber string      `json:"order_number"`
	UserID      int64       `json:"user_id"`
	Type        string      `json:"type"` // created, status_updated, payment_check
	Status      OrderStatus `json:"status"`
	Total       string      `json:"total"`
	Occurred    time.Time   `json:"occurred"`
}

const (
	OrderEventCreated       = "created"
	OrderEventStatusUpdated = "status_updated"
	OrderEventPaymentCheck  = "payment_check"
)
