package messaging

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"

	"go-grocery/models"
)

type Publisher struct {
	pool      *ChannelPool
	queueName string
	logger    *zap.Logger
	timeout   time.Duration
}

func NewPublisher(pool *ChannelPool, queueName string, logger *zap.Logger) *Publisher {
	return &Publisher{
		pool:      pool,
		queueName: queueName,
		logger:    logger,
		timeout:   5 * time.Second,
	}
}

func (p *Publisher) OrderPlaced(ctx context.Context, order models.Order) error {
	return p.publish(ctx, NewOrderEvent(TypeOrderPlaced, order, "", time.Now()))
}

func (p *Publisher) OrderStatusChanged(ctx context.Context, order models.Order, previous models.OrderStatus) error {
	return p.publish(ctx, NewOrderEvent(TypeOrderStatusChanged, order, previous, time.Now()))
}

func (p *Publisher) publish(ctx context.Context, event OrderEvent) error {
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	ch, err := p.pool.Get(ctx)
	if err != nil {
		return fmt.Errorf("failed to get channel from pool: %w", err)
	}
	defer p.pool.Put(ch)

	// default exchange, routed by queue name
	err = ch.PublishWithContext(ctx, "", p.queueName, false, false, amqp.Publishing{
		DeliveryMode: amqp.Persistent,
		ContentType:  "application/json",
		MessageId:    event.ID,
		Type:         event.Type,
		Timestamp:    event.OccurredAt,
		Body:         body,
	})
	if err != nil {
		return fmt.Errorf("failed to publish %s: %w", event.Type, err)
	}

	p.logger.Debug("published order event",
		zap.String("type", event.Type),
		zap.String("order_id", event.OrderID),
		zap.String("event_id", event.ID))
	return nil
}

// Noop drops events. Used when RabbitMQ is not configured.
type Noop struct{}

func (Noop) OrderPlaced(context.Context, models.Order) error { return nil }

func (Noop) OrderStatusChanged(context.Context, models.Order, models.OrderStatus) error {
	return nil
}
