package event

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/Erickgiber/debts-my-clients/internal/domain/offline"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

type recordingDeliverer struct {
	mu       sync.Mutex
	messages []offline.Message
	relayed  []bool
}

func (d *recordingDeliverer) Broadcast(ctx context.Context, msg offline.Message) int {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.messages = append(d.messages, msg)
	d.relayed = append(d.relayed, IsRelayed(ctx))
	return 1
}

func (d *recordingDeliverer) snapshot() []offline.Message {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]offline.Message(nil), d.messages...)
}

// unreachableClient fails every command, so any attempt to publish errors.
func unreachableClient(t *testing.T) *redis.Client {
	c := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1", DialTimeout: 50 * time.Millisecond, MaxRetries: -1})
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func TestRelay_PostMessageFilters(t *testing.T) {
	relay := NewRedisMessageRelay(unreachableClient(t), WithOrigin("a"))

	assert.Equal(t, "relay:a", relay.ID())
	assert.NoError(t, relay.PostMessage(context.Background(), offline.SkipWaiting()), "unrelayed type is skipped")

	relayedCtx := context.WithValue(context.Background(), relayedKey{}, true)
	assert.NoError(t, relay.PostMessage(relayedCtx, offline.Activated("v2")), "relayed messages are not echoed")

	assert.Error(t, relay.PostMessage(context.Background(), offline.Activated("v2")), "activation is published")
}

func TestRelay_WithMessageTypes(t *testing.T) {
	relay := NewRedisMessageRelay(unreachableClient(t), WithMessageTypes(offline.MessageSkipWaiting))
	assert.NoError(t, relay.PostMessage(context.Background(), offline.Activated("v2")))
	assert.Error(t, relay.PostMessage(context.Background(), offline.SkipWaiting()))
}

func TestRelay_Handle(t *testing.T) {
	relay := NewRedisMessageRelay(unreachableClient(t), WithOrigin("self"))
	target := &recordingDeliverer{}

	foreign, err := json.Marshal(Envelope{Origin: "other", Message: offline.Activated("v3")})
	require.NoError(t, err)
	own, err := json.Marshal(Envelope{Origin: "self", Message: offline.Activated("v4")})
	require.NoError(t, err)

	relay.handle(context.Background(), string(foreign), target)
	relay.handle(context.Background(), string(own), target)
	relay.handle(context.Background(), "{not json", target)

	require.Equal(t, []offline.Message{offline.Activated("v3")}, target.snapshot())
	assert.Equal(t, []bool{true}, target.relayed)
}

func newRedisClient(t *testing.T) *redis.Client {
	t.Helper()
	if testing.Short() || os.Getenv("VENTAS_INTEGRATION") == "" {
		t.Skip("set VENTAS_INTEGRATION=1 to run Redis integration tests")
	}
	ctx := context.Background()

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "redis:7-alpine",
			ExposedPorts: []string{"6379/tcp"},
			WaitingFor:   wait.ForLog("Ready to accept connections").WithStartupTimeout(60 * time.Second),
		},
		Started: true,
	})
	require.NoError(t, err, "Failed to start Redis container")
	t.Cleanup(func() { _ = container.Terminate(context.Background()) })

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "6379")
	require.NoError(t, err)

	client := redis.NewClient(&redis.Options{Addr: fmt.Sprintf("%s:%s", host, port.Port())})
	t.Cleanup(func() { _ = client.Close() })
	return client
}

func TestRelay_AcrossInstances(t *testing.T) {
	client := newRedisClient(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	receiver := NewRedisMessageRelay(client, WithOrigin("b"), WithChannel("test:relay"))
	sender := NewRedisMessageRelay(client, WithOrigin("a"), WithChannel("test:relay"))
	target := &recordingDeliverer{}

	done := make(chan error, 1)
	go func() { done <- receiver.Subscribe(ctx, target) }()

	// Publish until the subscription is confirmed and the message lands.
	require.Eventually(t, func() bool {
		_ = sender.PostMessage(ctx, offline.Activated("v9"))
		return len(target.snapshot()) > 0
	}, 10*time.Second, 100*time.Millisecond)
	assert.Equal(t, offline.Activated("v9"), target.snapshot()[0])

	assert.Error(t, receiver.Subscribe(ctx, target), "second subscription is rejected")

	cancel()
	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(5 * time.Second):
		t.Fatal("subscription did not stop")
	}
}
