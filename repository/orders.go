package repository

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"

	"storefront/models"
)

var ErrStatusConflict = errors.New("order status changed concurrently")

const orderColumns = `id, order_number, user_id, user_telegram_id, subtotal, shipping_cost, tax_amount,
	discount_amount, total, currency, status, payment_status, payment_method, payment_id, shipping_address,
	billing_address, notes, tracking_number, shipping_carrier, delivered_at, cancelled_at, cancel_reason,
	created_at, updated_at`

type orderRow struct {
	ID              int64                `db:"id"`
	OrderNumber     string               `db:"order_number"`
	UserID          int64                `db:"user_id"`
	UserTelegramID  int64                `db:"user_telegram_id"`
	Subtotal        decimal.Decimal      `db:"subtotal"`
	ShippingCost    decimal.Decimal      `db:"shipping_cost"`
	TaxAmount       decimal.Decimal      `db:"tax_amount"`
	DiscountAmount  decimal.Decimal      `db:"discount_amount"`
	Total           decimal.Decimal      `db:"total"`
	Currency        string               `db:"currency"`
	Status          models.OrderStatus   `db:"status"`
	PaymentStatus   models.PaymentStatus `db:"payment_status"`
	PaymentMethod   string               `db:"payment_method"`
	PaymentID       string               `db:"payment_id"`
	ShippingAddress models.Address       `db:"shipping_address"`
	BillingAddress  *models.Address      `db:"billing_address"`
	Notes           string               `db:"notes"`
	TrackingNumber  string               `db:"tracking_number"`
	ShippingCarrier string               `db:"shipping_carrier"`
	DeliveredAt     *time.Time           `db:"delivered_at"`
	CancelledAt     *time.Time           `db:"cancelled_at"`
	CancelReason    string               `db:"cancel_reason"`
	CreatedAt       time.Time            `db:"created_at"`
	UpdatedAt       time.Time            `db:"updated_at"`
}

func (r orderRow) order() models.Order {
	return models.Order{
		ID:              r.ID,
		OrderNumber:     r.OrderNumber,
		UserID:          r.UserID,
		UserTelegramID:  r.UserTelegramID,
		Subtotal:        r.Subtotal,
		ShippingCost:    r.ShippingCost,
		TaxAmount:       r.TaxAmount,
		DiscountAmount:  r.DiscountAmount,
		Total:           r.Total,
		Currency:        r.Currency,
		Status:          r.Status,
		PaymentStatus:   r.PaymentStatus,
		PaymentMethod:   r.PaymentMethod,
		PaymentID:       r.PaymentID,
		ShippingAddress: r.ShippingAddress,
		BillingAddress:  r.BillingAddress,
		Notes:           r.Notes,
		TrackingNumber:  r.TrackingNumber,
		ShippingCarrier: r.ShippingCarrier,
		DeliveredAt:     r.DeliveredAt,
		CancelledAt:     r.CancelledAt,
		CancelReason:    r.CancelReason,
		CreatedAt:       r.CreatedAt,
		UpdatedAt:       r.UpdatedAt,
	}
}

// InsertOrder stores o with its item snapshot and status history.
func InsertOrder(ctx context.Context, q sqlx.ExtContext, o *models.Order) error {
	id, err := insertID(ctx, q, `INSERT INTO orders (order_number, user_id, user_telegram_id, subtotal, shipping_cost,
		tax_amount, discount_amount, total, currency, status, payment_status, payment_method, payment_id,
		shipping_address, billing_address, notes, tracking_number, shipping_carrier, cancel_reason, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, '', '', '', ?, ?)`,
		o.OrderNumber, o.UserID, o.UserTelegramID, o.Subtotal, o.ShippingCost,
		o.TaxAmount, o.DiscountAmount, o.Total, o.Currency, o.Status, o.PaymentStatus, o.PaymentMethod, o.PaymentID,
		o.ShippingAddress, o.BillingAddress, o.Notes, o.CreatedAt, o.UpdatedAt)
	if err != nil {
		return err
	}
	o.ID = id

	for i, item := range o.Items {
		if _, err := exec(ctx, q, `INSERT INTO order_items (order_id, position, product_id, name, price, quantity,
			selected_variant, thumbnail) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			o.ID, i, item.ProductID, item.Name, item.Price, item.Quantity, item.SelectedVariant, item.Thumbnail); err != nil {
			return err
		}
	}
	for i, entry := range o.StatusHistory {
		if err := insertHistory(ctx, q, o.ID, i+1, entry); err != nil {
			return err
		}
	}
	return nil
}

func insertHistory(ctx context.Context, q sqlx.ExtContext, orderID int64, seq int, entry models.StatusHistoryEntry) error {
	_, err := exec(ctx, q, `INSERT INTO order_status_history (order_id, seq, status, note, created_at)
		VALUES (?, ?, ?, ?, ?)`, orderID, seq, entry.Status, entry.Note, entry.Timestamp)
	return err
}

// LastOrderSequence returns the highest daily sequence already used by an
// order number starting with prefix, or 0.
func LastOrderSequence(ctx context.Context, q sqlx.ExtContext, prefix string) (int64, error) {
	var last string
	err := get(ctx, q, &last, `SELECT order_number FROM orders WHERE order_number LIKE ?
		ORDER BY LENGTH(order_number) DESC, order_number DESC LIMIT 1`, prefix+"%")
	if errors.Is(err, ErrNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	seq, err := strconv.ParseInt(strings.TrimPrefix(last, prefix), 10, 64)
	if err != nil {
		return 0, nil
	}
	return seq, nil
}

func FindOrder(ctx context.Context, q sqlx.ExtContext, id int64) (*models.Order, error) {
	var row orderRow
	if err := get(ctx, q, &row, `SELECT `+orderColumns+` FROM orders WHERE id = ?`, id); err != nil {
		return nil, err
	}
	orders := []models.Order{row.order()}
	if err := attachOrderDetails(ctx, q, orders); err != nil {
		return nil, err
	}
	return &orders[0], nil
}

// FindUserOrder scopes the lookup to the owner; other users' orders are not found.
func FindUserOrder(ctx context.Context, q sqlx.ExtContext, id, userID int64) (*models.Order, error) {
	o, err := FindOrder(ctx, q, id)
	if err != nil {
		return nil, err
	}
	if o.UserID != userID {
		return nil, ErrNotFound
	}
	return o, nil
}

func ListUserOrders(ctx context.Context, q sqlx.ExtContext, userID int64, limit, offset int) ([]models.Order, int64, error) {
	var total int64
	if err := get(ctx, q, &total, `SELECT COUNT(*) FROM orders WHERE user_id = ?`, userID); err != nil {
		return nil, 0, err
	}
	var rows []orderRow
	if err := selectAll(ctx, q, &rows, `SELECT `+orderColumns+` FROM orders WHERE user_id = ?
		ORDER BY created_at DESC, id DESC LIMIT ? OFFSET ?`, userID, limit, offset); err != nil {
		return nil, 0, err
	}
	orders := make([]models.Order, 0, len(rows))
	for _, row := range rows {
		orders = append(orders, row.order())
	}
	if err := attachOrderDetails(ctx, q, orders); err != nil {
		return nil, 0, err
	}
	return orders, total, nil
}

// attachOrderDetails loads items and history for all orders in two queries.
func attachOrderDetails(ctx context.Context, q sqlx.ExtContext, orders []models.Order) error {
	if len(orders) == 0 {
		return nil
	}
	ids := make([]int64, 0, len(orders))
	index := make(map[int64]int, len(orders))
	for i := range orders {
		ids = append(ids, orders[i].ID)
		index[orders[i].ID] = i
		orders[i].Items = []models.OrderItem{}
		orders[i].StatusHistory = []models.StatusHistoryEntry{}
	}

	query, args, err := sqlx.In(`SELECT order_id, product_id, name, price, quantity, selected_variant, thumbnail
		FROM order_items WHERE order_id IN (?) ORDER BY order_id, position`, ids)
	if err != nil {
		return err
	}
	var items []struct {
		OrderID int64 `db:"order_id"`
		models.OrderItem
	}
	if err := selectAll(ctx, q, &items, query, args...); err != nil {
		return err
	}
	for _, it := range items {
		o := &orders[index[it.OrderID]]
		o.Items = append(o.Items, it.OrderItem)
	}

	query, args, err = sqlx.In(`SELECT order_id, status, note, created_at
		FROM order_status_history WHERE order_id IN (?) ORDER BY order_id, seq`, ids)
	if err != nil {
		return err
	}
	var history []struct {
		OrderID int64 `db:"order_id"`
		models.StatusHistoryEntry
	}
	if err := selectAll(ctx, q, &history, query, args...); err != nil {
		return err
	}
	for _, h := range history {
		o := &orders[index[h.OrderID]]
		o.StatusHistory = append(o.StatusHistory, h.StatusHistoryEntry)
	}
	return nil
}

// StatusChange describes one transition of an order.
type StatusChange struct {
	From models.OrderStatus
	To   models.OrderStatus
	Note string
	At   time.Time
}

// ApplyStatusChange moves the order from change.From to change.To and
// appends the history entry. The update only matches while the order is
// still in change.From, so two racing transitions cannot both apply.
func ApplyStatusChange(ctx context.Context, q sqlx.ExtContext, orderID int64, change StatusChange) error {
	set := "status = ?, updated_at = ?"
	args := []any{change.To, change.At}
	switch change.To {
	case models.OrderStatusDelivered:
		set += ", delivered_at = ?"
		args = append(args, change.At)
	case models.OrderStatusCancelled:
		set += ", cancelled_at = ?, cancel_reason = ?"
		args = append(args, change.At, change.Note)
	}
	args = append(args, orderID, change.From)

	if err := execOne(ctx, q, `UPDATE orders SET `+set+` WHERE id = ? AND status = ?`, args...); err != nil {
		if errors.Is(err, ErrNotFound) {
			return ErrStatusConflict
		}
		return err
	}

	var last int
	if err := get(ctx, q, &last, `SELECT COALESCE(MAX(seq), 0) FROM order_status_history WHERE order_id = ?`, orderID); err != nil {
		return err
	}
	return insertHistory(ctx, q, orderID, last+1, models.StatusHistoryEntry{
		Status:    change.To,
		Timestamp: change.At,
		Note:      change.Note,
	})
}

// OrderFulfilment carries the administrative fields that are not status.
type OrderFulfilment struct {
	TrackingNumber  *string
	ShippingCarrier *string
	Notes           *string
	PaymentStatus   *models.PaymentStatus
	PaymentMethod   *string
	PaymentID       *string
}

func UpdateOrderFulfilment(ctx context.Context, q sqlx.ExtContext, o *models.Order, f OrderFulfilment, at time.Time) error {
	if f.TrackingNumber != nil {
		o.TrackingNumber = *f.TrackingNumber
	}
	if f.ShippingCarrier != nil {
		o.ShippingCarrier = *f.ShippingCarrier
	}
	if f.Notes != nil {
		o.Notes = *f.Notes
	}
	if f.PaymentStatus != nil {
		o.PaymentStatus = *f.PaymentStatus
	}
	if f.PaymentMethod != nil {
		o.PaymentMethod = *f.PaymentMethod
	}
	if f.PaymentID != nil {
		o.PaymentID = *f.PaymentID
	}
	o.UpdatedAt = at
	return execOne(ctx, q, `UPDATE orders SET tracking_number = ?, shipping_carrier = ?, notes = ?, payment_status = ?,
		payment_method = ?, payment_id = ?, updated_at = ? WHERE id = ?`,
		o.TrackingNumber, o.ShippingCarrier, o.Notes, o.PaymentStatus, o.PaymentMethod, o.PaymentID, o.UpdatedAt, o.ID)
}

type orderStatsRow struct {
	TotalOrders     int64               `db:"total_orders"`
	TotalRevenue    decimal.NullDecimal `db:"total_revenue"`
	PendingOrders   int64               `db:"pending_orders"`
	CompletedOrders int64               `db:"completed_orders"`
	CancelledOrders int64               `db:"cancelled_orders"`
}

// OrderStats aggregates all orders, or one user's when userID is not nil.
func OrderStats(ctx context.Context, q sqlx.ExtContext, userID *int64) (models.OrderStats, error) {
	query := `SELECT
			COUNT(*) AS total_orders,
			ROUND(SUM(total), 2) AS total_revenue,
			COALESCE(SUM(CASE WHEN status = 'pending' THEN 1 ELSE 0 END), 0) AS pending_orders,
			COALESCE(SUM(CASE WHEN status = 'delivered' THEN 1 ELSE 0 END), 0) AS completed_orders,
			COALESCE(SUM(CASE WHEN status = 'cancelled' THEN 1 ELSE 0 END), 0) AS cancelled_orders
		FROM orders`
	var args []any
	if userID != nil {
		query += ` WHERE user_id = ?`
		args = append(args, *userID)
	}

	var row orderStatsRow
	if err := get(ctx, q, &row, query, args...); err != nil {
		return models.OrderStats{}, err
	}
	stats := models.OrderStats{
		TotalOrders:     row.TotalOrders,
		TotalRevenue:    row.TotalRevenue.Decimal,
		PendingOrders:   row.PendingOrders,
		CompletedOrders: row.CompletedOrders,
		CancelledOrders: row.CancelledOrders,
	}
	if row.TotalOrders > 0 {
		stats.AvgOrderValue = stats.TotalRevenue.Div(decimal.NewFromInt(row.TotalOrders)).Round(2)
	}
	return stats, nil
}
