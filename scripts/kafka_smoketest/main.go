// Command kafka_smoketest emits one TransactionRecorded event through the
// Kafka event bus and waits for it to come back, to check a local cluster.
package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/amirasaad/masroofy/infra/eventbus"
	"github.com/amirasaad/masroofy/pkg/domain/events"
	"github.com/google/uuid"
)

func envOr(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

// RunSmokeTest round-trips a single event and reports whether it arrived.
func RunSmokeTest() error {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))

	brokers := envOr("BROKERS", "localhost:9092")
	cfg := &eventbus.KafkaEventBusConfig{
		GroupID:     envOr("GROUP_ID", "masroofy-smoketest"),
		TopicPrefix: envOr("TOPIC_PREFIX", "masroofy.smoketest"),
	}
	bus, err := eventbus.NewWithKafka(brokers, logger, cfg)
	if err != nil {
		logger.Error("kafka bus unavailable", "brokers", brokers, "error", err)
		return err
	}
	defer func() { _ = bus.Close() }()

	want := uuid.New()
	received := make(chan uuid.UUID, 1)
	bus.Register(events.EventTypeTransactionRecorded, func(_ context.Context, e events.Event) error {
		if tr, ok := e.(*events.TransactionRecorded); ok && tr.TransactionID == want {
			select {
			case received <- tr.TransactionID:
			default:
			}
		}
		return nil
	})

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	receiver := uuid.New()
	err = bus.Emit(ctx, events.TransactionRecorded{
		TransactionID: want,
		Kind:          "deposit",
		Amount:        100,
		ReceiverID:    &receiver,
		Description:   "smoke test",
		ActorID:       receiver,
		OccurredAt:    time.Now().UTC(),
	})
	if err != nil {
		logger.Error("emit failed", "error", err)
		return err
	}
	logger.Info("produced", "transaction_id", want)

	select {
	case id := <-received:
		logger.Info("consumed", "transaction_id", id)
	case <-ctx.Done():
		logger.Error("event not consumed in time")
		return errors.New("timed out waiting for event")
	}

	logger.Info("kafka smoke test passed")
	return nil
}

func main() {
	if err := RunSmokeTest(); err != nil {
		os.Exit(1)
	}
}
