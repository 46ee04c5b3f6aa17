package eventbus

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/amirasaad/masroofy/pkg/domain/events"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestMemoryBusDispatchesByType(t *testing.T) {
	bus := NewWithMemory(discardLogger())

	var got []string
	bus.Register(events.EventTypeDependentCreated, func(ctx context.Context, e events.Event) error {
		got = append(got, e.(events.DependentCreated).Username)
		return nil
	})
	bus.Register(events.EventTypeDependentDeleted, func(ctx context.Context, e events.Event) error {
		t.Fatal("deleted handler must not see created events")
		return nil
	})

	err := bus.Emit(context.Background(), events.DependentCreated{Username: "omar"})
	require.NoError(t, err)
	assert.Equal(t, []string{"omar"}, got)
	assert.Len(t, bus.Published(), 1)

	bus.ClearPublished()
	assert.Empty(t, bus.Published())
}

func TestMemoryBusRunsEveryHandler(t *testing.T) {
	bus := NewWithMemory(discardLogger())
	calls := 0
	for range 3 {
		bus.Register(events.EventTypeTransactionRecorded, func(ctx context.Context, e events.Event) error {
			calls++
			return nil
		})
	}
	require.NoError(t, bus.Emit(context.Background(), events.TransactionRecorded{Amount: 100}))
	assert.Equal(t, 3, calls)
}

func TestMemoryBusIsolatesHandlerFailures(t *testing.T) {
	bus := NewWithMemory(discardLogger())
	reached := false
	bus.Register(events.EventTypeDependentDeleted, func(ctx context.Context, e events.Event) error {
		panic("boom")
	})
	bus.Register(events.EventTypeDependentDeleted, func(ctx context.Context, e events.Event) error {
		return errors.New("handler failed")
	})
	bus.Register(events.EventTypeDependentDeleted, func(ctx context.Context, e events.Event) error {
		reached = true
		return nil
	})

	err := bus.Emit(context.Background(), events.DependentDeleted{DependentID: uuid.New()})
	require.NoError(t, err, "handler errors are never returned to the emitter")
	assert.True(t, reached)
}

func TestDispatchReportsFailure(t *testing.T) {
	evt := events.DependentDeleted{}
	ok := dispatch(context.Background(), discardLogger(), evt, nil)
	assert.True(t, ok)

	set := newHandlerSet()
	assert.True(t, set.add(events.EventTypeDependentDeleted, func(context.Context, events.Event) error { return nil }))
	assert.False(t, set.add(events.EventTypeDependentDeleted, func(context.Context, events.Event) error {
		return errors.New("nope")
	}))
	ok = dispatch(context.Background(), discardLogger(), evt, set.get(events.EventTypeDependentDeleted))
	assert.False(t, ok)
}
