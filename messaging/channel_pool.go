// Package messaging publishes order events to RabbitMQ.
package messaging

import (
	"context"
	"errors"
	"fmt"
	"sync"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

var ErrPoolClosed = errors.New("channel pool closed")

// ChannelPool shares one connection between a fixed number of channel
// slots. A slot holding nil has lost its channel and is reopened by the
// next Get, so the pool never shrinks.
type ChannelPool struct {
	url       string
	queueName string
	logger    *zap.Logger

	slots chan *amqp.Channel
	open  func() (*amqp.Channel, error)

	mu     sync.Mutex // guards conn and closed
	conn   *amqp.Connection
	closed bool
}

// NewChannelPool dials url and pre-creates size channels, each with the
// queue declared.
func NewChannelPool(url, queueName string, size int, logger *zap.Logger) (*ChannelPool, error) {
	if size < 1 {
		size = 1
	}
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}

	pool := &ChannelPool{
		url:       url,
		queueName: queueName,
		logger:    logger,
		slots:     make(chan *amqp.Channel, size),
		conn:      conn,
	}
	pool.open = pool.openChannel

	for i := 0; i < size; i++ {
		ch, err := pool.open()
		if err != nil {
			pool.Close()
			return nil, fmt.Errorf("failed to create channel %d: %w", i, err)
		}
		pool.slots <- ch
	}

	logger.Info("rabbitmq channel pool ready", zap.Int("size", size), zap.String("queue", queueName))
	return pool, nil
}

// connection returns the shared connection, redialling if the broker
// dropped it.
func (p *ChannelPool) connection() (*amqp.Connection, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return nil, ErrPoolClosed
	}
	if p.conn != nil && !p.conn.IsClosed() {
		return p.conn, nil
	}

	p.logger.Warn("rabbitmq connection lost, redialling")
	conn, err := amqp.Dial(p.url)
	if err != nil {
		return nil, fmt.Errorf("failed to reconnect to RabbitMQ: %w", err)
	}
	p.conn = conn
	return conn, nil
}

func (p *ChannelPool) openChannel() (*amqp.Channel, error) {
	conn, err := p.connection()
	if err != nil {
		return nil, err
	}
	ch, err := conn.Channel()
	if err != nil {
		return nil, err
	}

	// durable, not auto-deleted, not exclusive
	_, err = ch.QueueDeclare(p.queueName, true, false, false, false, nil)
	if err != nil {
		ch.Close()
		return nil, fmt.Errorf("failed to declare queue: %w", err)
	}
	return ch, nil
}

// Get waits for a free slot and returns its channel, reopening it when
// it was lost. A failed reopen hands the slot back before returning.
func (p *ChannelPool) Get(ctx context.Context) (*amqp.Channel, error) {
	select {
	case ch, ok := <-p.slots:
		if !ok {
			return nil, ErrPoolClosed
		}
		if ch != nil && !ch.IsClosed() {
			return ch, nil
		}
		fresh, err := p.open()
		if err != nil {
			p.release(nil)
			return nil, err
		}
		return fresh, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Put returns a slot taken by Get. A closed or nil channel frees the
// slot for reopening.
func (p *ChannelPool) Put(ch *amqp.Channel) {
	if ch != nil && ch.IsClosed() {
		ch = nil
	}
	p.release(ch)
}

func (p *ChannelPool) release(ch *amqp.Channel) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		if ch != nil {
			ch.Close()
		}
		return
	}
	select {
	case p.slots <- ch:
	default:
		if ch != nil {
			ch.Close()
		}
	}
}

func (p *ChannelPool) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return
	}
	p.closed = true

	close(p.slots)
	for ch := range p.slots {
		if ch != nil {
			ch.Close()
		}
	}
	if p.conn != nil {
		p.conn.Close()
	}
	p.logger.Info("rabbitmq channel pool closed")
}
