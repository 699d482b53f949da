package events

import (
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// setupTestRedis creates a miniredis instance and a redis client for testing
func setupTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("Failed to start miniredis: %v", err)
	}
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{
		Addr: mr.Addr(),
	})
	t.Cleanup(func() { client.Close() })

	return mr, client
}

func TestPublishSubscribeRoundTrip(t *testing.T) {
	_, rdb := setupTestRedis(t)

	publisher := NewBus(rdb, zap.NewNop())
	t.Cleanup(publisher.Close)
	subscriber := NewBus(rdb, zap.NewNop())
	t.Cleanup(subscriber.Close)

	received := make(chan Event, 1)
	subscriber.Subscribe(func(ev Event) { received <- ev })

	// Give the subscription a moment to establish.
	time.Sleep(50 * time.Millisecond)

	require.NoError(t, publisher.Publish(EventSessionEnded, "ABC12345", "h@x.com"))

	select {
	case ev := <-received:
		assert.Equal(t, EventSessionEnded, ev.Type)
		assert.Equal(t, "ABC12345", ev.RoomCode)
		assert.Equal(t, "h@x.com", ev.Email)
		assert.Equal(t, publisher.InstanceID(), ev.InstanceID)
	case <-time.After(2 * time.Second):
		t.Fatal("expected lifecycle event to arrive")
	}
}

func TestSubscriberIgnoresOwnEvents(t *testing.T) {
	_, rdb := setupTestRedis(t)

	bus := NewBus(rdb, zap.NewNop())
	t.Cleanup(bus.Close)

	received := make(chan Event, 1)
	bus.Subscribe(func(ev Event) { received <- ev })
	time.Sleep(50 * time.Millisecond)

	require.NoError(t, bus.Publish(EventUserLeft, "ABC12345", "p@x.com"))

	select {
	case ev := <-received:
		t.Fatalf("own event must be ignored, got %#v", ev)
	case <-time.After(200 * time.Millisecond):
	}
}

func TestInstanceIDsAreUnique(t *testing.T) {
	_, rdb := setupTestRedis(t)

	a := NewBus(rdb, zap.NewNop())
	t.Cleanup(a.Close)
	b := NewBus(rdb, zap.NewNop())
	t.Cleanup(b.Close)

	assert.NotEqual(t, a.InstanceID(), b.InstanceID())
}
