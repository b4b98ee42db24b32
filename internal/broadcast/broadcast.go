package broadcast

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// Event types published by the core.
const (
	EventMatch    = "match"
	EventPresence = "presence"
	EventChat     = "chat_message"
)

// Event is the structured payload handed to the transport. Delivery
// guarantees belong to the transport, not this core.
type Event struct {
	ID      string         `json:"id"`
	Type    string         `json:"type"`
	At      time.Time      `json:"at"`
	Payload map[string]any `json:"payload"`
}

// NewEvent stamps an event with a fresh id and timestamp.
func NewEvent(eventType string, payload map[string]any) Event {
	return Event{
		ID:      uuid.NewString(),
		Type:    eventType,
		At:      time.Now().UTC(),
		Payload: payload,
	}
}

// Channel keys. Match notifications go to each user's private channel;
// presence changes go to a shared topic and listeners filter by their own
// match set; chat messages go to the thread channel.
func MatchChannel(userID uint64) string  { return fmt.Sprintf("matches:%d", userID) }
func PresenceChannel() string            { return "presence" }
func ChatChannel(threadID uint64) string { return fmt.Sprintf("chat:%d", threadID) }

// Broadcaster pushes a structured event to a named channel.
type Broadcaster interface {
	Publish(ctx context.Context, channel string, event Event) error
}

// RedisBroadcaster fans events out over Redis pub/sub. The transport edge
// subscribes to the channels it serves and forwards to clients.
type RedisBroadcaster struct {
	client *redis.Client
}

func NewRedisBroadcaster(client *redis.Client) *RedisBroadcaster {
	return &RedisBroadcaster{client: client}
}

func (b *RedisBroadcaster) Publish(ctx context.Context, channel string, event Event) error {
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}
	if err := b.client.Publish(ctx, channel, body).Err(); err != nil {
		return fmt.Errorf("failed to publish to %s: %w", channel, err)
	}
	return nil
}
