package eventbus

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/amirasaad/masroofy/pkg/domain/events"
	"github.com/amirasaad/masroofy/pkg/eventbus"
	"github.com/redis/go-redis/v9"
)

// RedisEventBus publishes to one Redis stream. Every registered event type
// gets its own consumer group, so each type sees every message once and
// skips the others. Failed deliveries are copied to a DLQ stream.
type RedisEventBus struct {
	client   *redis.Client
	stream   string
	group    string
	consumer string
	minIdle  time.Duration
	handlers *handlerSet
	logger   *slog.Logger

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// ClaimMinIdle is how long a pending entry must sit unacknowledged before
// another consumer takes it over at start-up.
const ClaimMinIdle = time.Minute

// RedisOption configures a RedisEventBus.
type RedisOption func(*RedisEventBus)

// WithConsumer sets the consumer name used in every group. Empty keeps the
// hostname default.
func WithConsumer(name string) RedisOption {
	return func(b *RedisEventBus) {
		if name != "" {
			b.consumer = name
		}
	}
}

// WithClaimMinIdle overrides ClaimMinIdle.
func WithClaimMinIdle(d time.Duration) RedisOption {
	return func(b *RedisEventBus) { b.minIdle = d }
}

// defaultConsumerName is stable across restarts of one host, so a restarted
// process picks up its own pending entries.
func defaultConsumerName() string {
	host, err := os.Hostname()
	if err != nil || host == "" {
		return "masroofy"
	}
	return host
}

// NewWithRedis connects to url and prepares the stream.
func NewWithRedis(url, stream, group string, logger *slog.Logger, opts ...RedisOption) (*RedisEventBus, error) {
	if url == "" || stream == "" || group == "" {
		return nil, fmt.Errorf("redis event bus: url, stream, and group are required")
	}
	opt, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("redis event bus: invalid URL: %w", err)
	}
	client := redis.NewClient(opt)
	if err := client.Ping(context.Background()).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis event bus: connection failed: %w", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	b := &RedisEventBus{
		client:   client,
		stream:   stream,
		group:    group,
		consumer: defaultConsumerName(),
		minIdle:  ClaimMinIdle,
		handlers: newHandlerSet(),
		ctx:      ctx,
		cancel:   cancel,
	}
	for _, opt := range opts {
		opt(b)
	}
	b.logger = logger.With("bus", "redis", "stream", stream, "consumer", b.consumer)
	return b, nil
}

func (b *RedisEventBus) Emit(ctx context.Context, event events.Event) error {
	raw, err := encode(event)
	if err != nil {
		return fmt.Errorf("redis event bus: %w", err)
	}
	err = b.client.XAdd(ctx, &redis.XAddArgs{
		Stream: b.stream,
		Values: map[string]any{"event": string(raw)},
	}).Err()
	if err != nil {
		return fmt.Errorf("redis event bus: emit failed: %w", err)
	}
	return nil
}

func (b *RedisEventBus) Register(eventType events.EventType, handler eventbus.HandlerFunc) {
	if !b.handlers.add(eventType, handler) {
		return
	}
	group := fmt.Sprintf("%s:%s", b.group, eventType)
	if err := b.client.XGroupCreateMkStream(b.ctx, b.stream, group, "$").Err(); err != nil &&
		!redisGroupExists(err) {
		b.logger.Error("failed to create consumer group", "group", group, "error", err)
		return
	}
	b.wg.Add(1)
	go func() {
		defer b.wg.Done()
		b.consume(eventType, group)
	}()
	b.logger.Info("handler registered", "event_type", eventType, "group", group)
}

func (b *RedisEventBus) consume(eventType events.EventType, group string) {
	b.recoverPending(eventType, group)
	for {
		res, err := b.client.XReadGroup(b.ctx, &redis.XReadGroupArgs{
			Group:    group,
			Consumer: b.consumer,
			Streams:  []string{b.stream, ">"},
			Count:    10,
			Block:    2 * time.Second,
		}).Result()
		if b.ctx.Err() != nil {
			return
		}
		if err != nil {
			if !errors.Is(err, redis.Nil) {
				b.logger.Error("error reading from stream", "group", group, "error", err)
				time.Sleep(time.Second)
			}
			continue
		}
		for _, s := range res {
			for _, msg := range s.Messages {
				b.handle(eventType, group, msg)
			}
		}
	}
}

// recoverPending replays entries this consumer read but never acknowledged,
// then claims entries left idle by consumers that went away.
func (b *RedisEventBus) recoverPending(eventType events.EventType, group string) {
	res, err := b.client.XReadGroup(b.ctx, &redis.XReadGroupArgs{
		Group:    group,
		Consumer: b.consumer,
		Streams:  []string{b.stream, "0"},
		Count:    100,
		Block:    -1,
	}).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		b.logger.Error("failed to read pending entries", "group", group, "error", err)
	}
	for _, s := range res {
		for _, msg := range s.Messages {
			b.handle(eventType, group, msg)
		}
	}

	start := "0-0"
	for b.ctx.Err() == nil {
		msgs, next, err := b.client.XAutoClaim(b.ctx, &redis.XAutoClaimArgs{
			Stream:   b.stream,
			Group:    group,
			Consumer: b.consumer,
			MinIdle:  b.minIdle,
			Start:    start,
			Count:    100,
		}).Result()
		if err != nil {
			b.logger.Error("failed to claim idle entries", "group", group, "error", err)
			return
		}
		for _, msg := range msgs {
			b.handle(eventType, group, msg)
		}
		if next == "0-0" || next == "" {
			return
		}
		start = next
	}
}

func (b *RedisEventBus) handle(eventType events.EventType, group string, msg redis.XMessage) {
	defer func() {
		if err := b.client.XAck(b.ctx, b.stream, group, msg.ID).Err(); err != nil {
			b.logger.Error("failed to acknowledge message", "msg_id", msg.ID, "error", err)
		}
	}()
	raw, ok := msg.Values["event"].(string)
	if !ok {
		return
	}
	evt, err := decode([]byte(raw))
	if err != nil {
		b.logger.Error("dropping undecodable message", "msg_id", msg.ID, "error", err)
		return
	}
	if events.EventType(evt.Type()) != eventType {
		return
	}
	if !dispatch(b.ctx, b.logger, evt, b.handlers.get(eventType)) {
		b.pushToDLQ(msg.Values)
	}
}

func (b *RedisEventBus) pushToDLQ(values map[string]any) {
	dlq := b.stream + "-DLQ"
	if err := b.client.XAdd(b.ctx, &redis.XAddArgs{Stream: dlq, Values: values}).Err(); err != nil {
		b.logger.Error("failed to push to DLQ", "stream", dlq, "error", err)
		return
	}
	b.logger.Warn("event pushed to DLQ", "stream", dlq)
}

// Close stops the consumers and the client.
func (b *RedisEventBus) Close() error {
	b.cancel()
	b.wg.Wait()
	return b.client.Close()
}

func redisGroupExists(err error) bool {
	return err != nil && err.Error() == "BUSYGROUP Consumer Group name already exists"
}

var _ eventbus.Bus = (*RedisEventBus)(nil)
