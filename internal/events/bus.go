package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Channel carries room lifecycle events between service instances.
const Channel = "interview:events"

const (
	EventUserJoined   = "user-joined"
	EventUserLeft     = "user-left"
	EventSessionEnded = "session-ended"
)

// Event is one room lifecycle notification. InstanceID lets a subscriber
// ignore its own publications.
type Event struct {
	Type       string    `json:"type"`
	RoomCode   string    `json:"roomCode"`
	Email      string    `json:"email,omitempty"`
	InstanceID string    `json:"instanceId"`
	Timestamp  time.Time `json:"timestamp"`
}

// Bus publishes and subscribes to lifecycle events over Redis pub/sub, so a
// room ended on one instance is also torn down on any other holding runtime
// state for it.
type Bus struct {
	rdb        *redis.Client
	log        *zap.Logger
	instanceID string
	ctx        context.Context
	cancel     context.CancelFunc
}

func NewBus(rdb *redis.Client, log *zap.Logger) *Bus {
	ctx, cancel := context.WithCancel(context.Background())
	return &Bus{
		rdb:        rdb,
		log:        log,
		instanceID: uuid.New().String(),
		ctx:        ctx,
		cancel:     cancel,
	}
}

func (b *Bus) InstanceID() string { return b.instanceID }

func (b *Bus) Publish(eventType, roomCode, email string) error {
	ev := Event{
		Type:       eventType,
		RoomCode:   roomCode,
		Email:      email,
		InstanceID: b.instanceID,
		Timestamp:  time.Now().UTC(),
	}
	data, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("failed to marshal lifecycle event: %w", err)
	}
	return b.rdb.Publish(b.ctx, Channel, data).Err()
}

// Subscribe delivers events from other instances to onEvent until Close.
// Runs in its own goroutine.
func (b *Bus) Subscribe(onEvent func(Event)) {
	go func() {
		pubsub := b.rdb.Subscribe(b.ctx, Channel)
		defer pubsub.Close()

		ch := pubsub.Channel()
		b.log.Info("subscribed to lifecycle events", zap.String("instance", b.instanceID))

		for {
			select {
			case <-b.ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				var ev Event
				if err := json.Unmarshal([]byte(msg.Payload), &ev); err != nil {
					b.log.Warn("bad lifecycle event payload", zap.Error(err))
					continue
				}
				if ev.InstanceID == b.instanceID {
					continue
				}
				onEvent(ev)
			}
		}
	}()
}

func (b *Bus) Close() { b.cancel() }
