package eventbus

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/amirasaad/masroofy/pkg/domain/events"
	"github.com/amirasaad/masroofy/pkg/eventbus"
	"github.com/rabbitmq/amqp091-go"
)

// AMQPEventBus publishes to a durable topic exchange with the event type as
// routing key. Each registered type consumes from its own durable queue.
type AMQPEventBus struct {
	conn     *amqp091.Connection
	channel  *amqp091.Channel
	pubMu    sync.Mutex
	exchange string
	queue    string
	handlers *handlerSet
	logger   *slog.Logger

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewWithAMQP dials url and declares the exchange.
func NewWithAMQP(url, exchange, queue string, logger *slog.Logger) (*AMQPEventBus, error) {
	conn, err := amqp091.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("amqp event bus: dial: %w", err)
	}
	channel, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("amqp event bus: open channel: %w", err)
	}
	err = channel.ExchangeDeclare(
		exchange, // name
		"topic",  // type
		true,     // durable
		false,    // auto-deleted
		false,    // internal
		false,    // no-wait
		nil,      // arguments
	)
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("amqp event bus: declare exchange: %w", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &AMQPEventBus{
		conn:     conn,
		channel:  channel,
		exchange: exchange,
		queue:    queue,
		handlers: newHandlerSet(),
		logger:   logger.With("bus", "amqp", "exchange", exchange),
		ctx:      ctx,
		cancel:   cancel,
	}, nil
}

func (b *AMQPEventBus) Emit(ctx context.Context, event events.Event) error {
	raw, err := encode(event)
	if err != nil {
		return fmt.Errorf("amqp event bus: %w", err)
	}
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	b.pubMu.Lock()
	defer b.pubMu.Unlock()
	err = b.channel.PublishWithContext(
		ctx,
		b.exchange,   // exchange
		event.Type(), // routing key
		false,        // mandatory
		false,        // immediate
		amqp091.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp091.Persistent,
			Timestamp:    time.Now(),
			Type:         event.Type(),
			Body:         raw,
		},
	)
	if err != nil {
		return fmt.Errorf("amqp event bus: publish: %w", err)
	}
	return nil
}

func (b *AMQPEventBus) Register(eventType events.EventType, handler eventbus.HandlerFunc) {
	if !b.handlers.add(eventType, handler) {
		return
	}
	deliveries, err := b.subscribe(eventType)
	if err != nil {
		b.logger.Error("failed to subscribe", "event_type", eventType, "error", err)
		return
	}
	b.wg.Add(1)
	go func() {
		defer b.wg.Done()
		b.consume(eventType, deliveries)
	}()
}

func (b *AMQPEventBus) subscribe(eventType events.EventType) (<-chan amqp091.Delivery, error) {
	ch, err := b.conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("open channel: %w", err)
	}
	queue := topicNameFor(b.queue, eventType)
	if _, err := ch.QueueDeclare(queue, true, false, false, false, nil); err != nil {
		return nil, fmt.Errorf("declare queue: %w", err)
	}
	if err := ch.QueueBind(queue, eventType.String(), b.exchange, false, nil); err != nil {
		return nil, fmt.Errorf("bind queue: %w", err)
	}
	return ch.Consume(
		queue, // queue
		"",    // consumer
		false, // auto-ack
		false, // exclusive
		false, // no-local
		false, // no-wait
		nil,   // args
	)
}

func (b *AMQPEventBus) consume(eventType events.EventType, deliveries <-chan amqp091.Delivery) {
	for {
		select {
		case <-b.ctx.Done():
			return
		case d, ok := <-deliveries:
			if !ok {
				return
			}
			evt, err := decode(d.Body)
			if err != nil {
				b.logger.Error("dropping undecodable message", "event_type", eventType, "error", err)
				_ = d.Nack(false, false)
				continue
			}
			if !dispatch(b.ctx, b.logger, evt, b.handlers.get(eventType)) {
				// not requeued; failed events are logged above
				_ = d.Nack(false, false)
				continue
			}
			_ = d.Ack(false)
		}
	}
}

// Close stops the consumers and the connection.
func (b *AMQPEventBus) Close() error {
	b.cancel()
	err := b.conn.Close()
	b.wg.Wait()
	return err
}

var _ eventbus.Bus = (*AMQPEventBus)(nil)
