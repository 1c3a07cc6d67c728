package rabbitmq

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storefront/config"
	"storefront/models"
)

func TestEncodeEvent(t *testing.T) {
	event := models.OrderEvent{
		OrderID:     3,
		OrderNumber: "2503140003",
		UserID:      9,
		Type:        models.OrderEventCreated,
		Status:      models.OrderStatusPending,
		Total:       "26.60",
		Occurred:    time.Date(2025, 3, 14, 10, 0, 0, 0, time.UTC),
	}

	msg, err := encodeEvent(event)
	require.NoError(t, err)
	assert.Equal(t, "application/json", msg.ContentType)
	assert.Equal(t, amqp.Persistent, msg.DeliveryMode)
	assert.Equal(t, models.OrderEventCreated, msg.Type)

	var decoded models.OrderEvent
	require.NoError(t, json.Unmarshal(msg.Body, &decoded))
	assert.Equal(t, event, decoded)
}

func TestDelayedPublishNeedsDelayExchange(t *testing.T) {
	r := &RabbitMQ{Cfg: &config.Config{DelayExchange: "delay_exchange"}}

	err := r.PublishDelayedOrderEvent(context.Background(), models.OrderEvent{OrderID: 1}, time.Minute)
	assert.ErrorContains(t, err, "delay_exchange")
}
