package eventbus

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/amirasaad/masroofy/pkg/domain/events"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

func setupRedis(tb testing.TB) string {
	tb.Helper()
	if testing.Short() {
		tb.Skip("skipping redis container test in short mode")
	}
	ctx := context.Background()
	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "redis:7.2-alpine",
			ExposedPorts: []string{"6379/tcp"},
			WaitingFor:   wait.ForLog("Ready to accept connections"),
		},
		Started: true,
	})
	if err != nil {
		tb.Skipf("redis container unavailable: %v", err)
	}
	tb.Cleanup(func() { _ = container.Terminate(ctx) })

	host, err := container.Host(ctx)
	require.NoError(tb, err)
	port, err := container.MappedPort(ctx, "6379")
	require.NoError(tb, err)
	return "redis://" + host + ":" + port.Port()
}

func TestRedisBusDeliversEachTypeToItsGroup(t *testing.T) {
	url := setupRedis(t)
	bus, err := NewWithRedis(url, "test:events", "test", discardLogger())
	require.NoError(t, err)
	t.Cleanup(func() { _ = bus.Close() })

	created := make(chan string, 1)
	deleted := make(chan uuid.UUID, 1)
	bus.Register(events.EventTypeDependentCreated, func(ctx context.Context, e events.Event) error {
		created <- e.(*events.DependentCreated).Username
		return nil
	})
	bus.Register(events.EventTypeDependentDeleted, func(ctx context.Context, e events.Event) error {
		deleted <- e.(*events.DependentDeleted).DependentID
		return nil
	})

	ctx := context.Background()
	id := uuid.New()
	require.NoError(t, bus.Emit(ctx, events.DependentCreated{Username: "omar"}))
	require.NoError(t, bus.Emit(ctx, events.DependentDeleted{DependentID: id}))

	select {
	case name := <-created:
		assert.Equal(t, "omar", name)
	case <-time.After(5 * time.Second):
		t.Fatal("created handler did not run")
	}
	select {
	case got := <-deleted:
		assert.Equal(t, id, got)
	case <-time.After(5 * time.Second):
		t.Fatal("deleted handler did not run")
	}
}

func TestRedisBusPushesFailuresToDLQ(t *testing.T) {
	url := setupRedis(t)
	bus, err := NewWithRedis(url, "test:dlq", "test", discardLogger())
	require.NoError(t, err)
	t.Cleanup(func() { _ = bus.Close() })

	done := make(chan struct{})
	bus.Register(events.EventTypeDependentDeleted, func(ctx context.Context, e events.Event) error {
		defer close(done)
		return errors.New("handler failed")
	})
	require.NoError(t, bus.Emit(context.Background(), events.DependentDeleted{DependentID: uuid.New()}))

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("handler did not run")
	}

	opt, err := redis.ParseURL(url)
	require.NoError(t, err)
	client := redis.NewClient(opt)
	defer client.Close()
	assert.Eventually(t, func() bool {
		n, err := client.XLen(context.Background(), "test:dlq-DLQ").Result()
		return err == nil && n == 1
	}, 5*time.Second, 100*time.Millisecond)
}

func TestRedisConsumerName(t *testing.T) {
	b := &RedisEventBus{consumer: defaultConsumerName()}
	assert.NotEmpty(t, b.consumer)
	assert.Equal(t, defaultConsumerName(), b.consumer)

	WithConsumer("")(b)
	assert.Equal(t, defaultConsumerName(), b.consumer)
	WithConsumer("worker-1")(b)
	assert.Equal(t, "worker-1", b.consumer)
}

// leavePending delivers the next entry of group to consumer without
// acknowledging it.
func leavePending(t *testing.T, client *redis.Client, stream, group, consumer string) {
	t.Helper()
	res, err := client.XReadGroup(context.Background(), &redis.XReadGroupArgs{
		Group:    group,
		Consumer: consumer,
		Streams:  []string{stream, ">"},
		Count:    1,
		Block:    -1,
	}).Result()
	require.NoError(t, err)
	require.Len(t, res, 1)
	require.Len(t, res[0].Messages, 1)
}

func TestRedisBusRecoversPendingEntries(t *testing.T) {
	url := setupRedis(t)
	opt, err := redis.ParseURL(url)
	require.NoError(t, err)
	client := redis.NewClient(opt)
	defer client.Close()
	ctx := context.Background()

	tests := []struct {
		name     string
		stream   string
		previous string
		opts     []RedisOption
	}{
		{"own entries after restart", "test:restart", "node-a", []RedisOption{WithConsumer("node-a")}},
		{"idle entries of a gone consumer", "test:claim", "node-gone", []RedisOption{WithConsumer("node-b"), WithClaimMinIdle(0)}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			group := fmt.Sprintf("test:%s", events.EventTypeDependentDeleted)
			require.NoError(t, client.XGroupCreateMkStream(ctx, tt.stream, group, "$").Err())

			first, err := NewWithRedis(url, tt.stream, "test", discardLogger())
			require.NoError(t, err)
			id := uuid.New()
			require.NoError(t, first.Emit(ctx, events.DependentDeleted{DependentID: id}))
			require.NoError(t, first.Close())
			leavePending(t, client, tt.stream, group, tt.previous)

			bus, err := NewWithRedis(url, tt.stream, "test", discardLogger(), tt.opts...)
			require.NoError(t, err)
			t.Cleanup(func() { _ = bus.Close() })
			got := make(chan uuid.UUID, 1)
			bus.Register(events.EventTypeDependentDeleted, func(ctx context.Context, e events.Event) error {
				got <- e.(*events.DependentDeleted).DependentID
				return nil
			})

			select {
			case recovered := <-got:
				assert.Equal(t, id, recovered)
			case <-time.After(5 * time.Second):
				t.Fatal("pending entry was not recovered")
			}
			assert.Eventually(t, func() bool {
				n, err := client.XPending(ctx, tt.stream, group).Result()
				return err == nil && n.Count == 0
			}, 5*time.Second, 100*time.Millisecond)
		})
	}
}

func TestNewWithRedisValidatesArguments(t *testing.T) {
	_, err := NewWithRedis("", "s", "g", discardLogger())
	assert.Error(t, err)
	_, err = NewWithRedis("://bad", "s", "g", discardLogger())
	assert.Error(t, err)
}
