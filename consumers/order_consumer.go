package consumers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"

	amqp "github.com/rabbitmq/amqp091-go"

	"storefront/config"
	"storefront/models"
)

var errMalformed = errors.New("malformed order event")

// PaymentChecker cancels orders whose payment never arrived.
type PaymentChecker interface {
	HandlePaymentCheck(ctx context.Context, orderID int64) (bool, error)
}

// Channel is the part of *amqp.Channel the consumer needs.
type Channel interface {
	Qos(prefetchCount, prefetchSize int, global bool) error
	Consume(queue, consumer string, autoAck, exclusive, noLocal, noWait bool, args amqp.Table) (<-chan amqp.Delivery, error)
}

type OrderConsumer struct {
	ch       Channel
	cfg      *config.Config
	payments PaymentChecker
}

func NewOrderConsumer(ch Channel, cfg *config.Config, payments PaymentChecker) *OrderConsumer {
	return &OrderConsumer{ch: ch, cfg: cfg, payments: payments}
}

// Start consumes the order queue and the dead letter queue until ctx ends.
// Each consumer holds at most ConsumerPrefetch unacknowledged deliveries.
func (c *OrderConsumer) Start(ctx context.Context) error {
	if err := c.ch.Qos(c.cfg.ConsumerPrefetch, 0, false); err != nil {
		return fmt.Errorf("set consumer prefetch: %w", err)
	}

	msgs, err := c.ch.Consume(
		c.cfg.OrderQueue,
		"storefront", // consumer tag
		false,        // auto-ack
		false,        // exclusive
		false,        // no-local
		false,        // no-wait
		nil,
	)
	if err != nil {
		return fmt.Errorf("register order consumer: %w", err)
	}

	dlqMsgs, err := c.ch.Consume(
		c.cfg.DeadLetterQueue,
		"storefront-dlq", // consumer tag
		false,            // auto-ack
		false,            // exclusive
		false,            // no-local
		false,            // no-wait
		nil,
	)
	if err != nil {
		return fmt.Errorf("register dead letter consumer: %w", err)
	}

	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-msgs:
				if !ok {
					return
				}
				c.processOrderMessage(ctx, msg)
			}
		}
	}()

	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-dlqMsgs:
				if !ok {
					return
				}
				processDeadLetterMessage(msg)
			}
		}
	}()
	return nil
}

func (c *OrderConsumer) processOrderMessage(ctx context.Context, msg amqp.Delivery) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("Recovered from panic in message processing: %v", r)
			msg.Nack(false, false)
		}
	}()

	err := c.Handle(ctx, msg.Body)
	switch {
	case err == nil:
		if err := msg.Ack(false); err != nil {
			log.Printf("Failed to ack order event: %v", err)
		}
	case errors.Is(err, errMalformed):
		log.Printf("Rejecting order event: %v", err)
		msg.Nack(false, false)
	default:
		// One redelivery, then the broker dead-letters it.
		log.Printf("Order event failed (redelivered=%t): %v", msg.Redelivered, err)
		msg.Nack(false, !msg.Redelivered)
	}
}

// Handle processes one encoded order event.
func (c *OrderConsumer) Handle(ctx context.Context, body []byte) error {
	var event models.OrderEvent
	if err := json.Unmarshal(body, &event); err != nil {
		return fmt.Errorf("%w: %v", errMalformed, err)
	}
	if event.OrderID <= 0 {
		return fmt.Errorf("%w: missing order id", errMalformed)
	}

	log.Printf("Processing order event: ID=%d, Number=%s, Type=%s", event.OrderID, event.OrderNumber, event.Type)

	switch event.Type {
	case models.OrderEventCreated:
		log.Printf("Order %s created for user %d, total %s", event.OrderNumber, event.UserID, event.Total)
	case models.OrderEventStatusUpdated:
		log.Printf("Order %s is now %s", event.OrderNumber, event.Status)
	case models.OrderEventPaymentCheck:
		cancelled, err := c.payments.HandlePaymentCheck(ctx, event.OrderID)
		if err != nil {
			return fmt.Errorf("payment check for order %d: %w", event.OrderID, err)
		}
		if cancelled {
			log.Printf("Auto-cancelled order %s due to non-payment", event.OrderNumber)
		}
	default:
		log.Printf("Unknown event type: %s", event.Type)
	}
	return nil
}

func processDeadLetterMessage(msg amqp.Delivery) {
	log.Printf("Received dead letter (type=%s): %s", msg.Type, msg.Body)
	if err := msg.Ack(false); err != nil {
		log.Printf("Failed to ack dead letter: %v", err)
	}
}
