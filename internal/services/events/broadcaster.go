package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/jwebster45206/blossom-engine/pkg/engine"
)

// EventType represents the type of event being broadcast
type EventType string

const (
	EventTypeSessionCreated EventType = "session.created"
	EventTypeFrame          EventType = "session.frame"
	EventTypeSessionEnded   EventType = "session.ended"
	EventTypeSessionDeleted EventType = "session.deleted"
)

// Event represents a generic event structure
type Event struct {
	Type      EventType      `json:"type"`
	SessionID string         `json:"session_id"`
	Frame     *engine.Frame  `json:"frame,omitempty"`
	Data      map[string]any `json:"data,omitempty"`
}

// Channel returns the Pub/Sub channel for a session.
func Channel(sessionID uuid.UUID) string {
	return fmt.Sprintf("session-events:%s", sessionID.String())
}

// Broadcaster publishes session events to Redis Pub/Sub for SSE distribution
type Broadcaster struct {
	redisClient *redis.Client
	logger      *slog.Logger
}

// NewBroadcaster creates a new event broadcaster
func NewBroadcaster(redisClient *redis.Client, logger *slog.Logger) *Broadcaster {
	return &Broadcaster{
		redisClient: redisClient,
		logger:      logger,
	}
}

// Subscribe opens a subscription to one session's events. Callers close it.
func (b *Broadcaster) Subscribe(ctx context.Context, sessionID uuid.UUID) *redis.PubSub {
	return b.redisClient.Subscribe(ctx, Channel(sessionID))
}

// PublishSessionCreated publishes a session.created event
func (b *Broadcaster) PublishSessionCreated(ctx context.Context, sessionID uuid.UUID, catalog string) error {
	return b.publish(ctx, sessionID, Event{
		Type: EventTypeSessionCreated,
		Data: map[string]any{"catalog": catalog},
	})
}

// PublishFrames publishes each recorded presentation frame in order
func (b *Broadcaster) PublishFrames(ctx context.Context, sessionID uuid.UUID, frames []engine.Frame) error {
	for i := range frames {
		if err := b.publish(ctx, sessionID, Event{Type: EventTypeFrame, Frame: &frames[i]}); err != nil {
			return err
		}
	}
	return nil
}

// PublishSessionEnded publishes a session.ended event
func (b *Broadcaster) PublishSessionEnded(ctx context.Context, sessionID uuid.UUID, endingID, branch string) error {
	return b.publish(ctx, sessionID, Event{
		Type: EventTypeSessionEnded,
		Data: map[string]any{
			"ending_id": endingID,
			"branch":    branch,
		},
	})
}

// PublishSessionDeleted publishes a session.deleted event
func (b *Broadcaster) PublishSessionDeleted(ctx context.Context, sessionID uuid.UUID) error {
	return b.publish(ctx, sessionID, Event{Type: EventTypeSessionDeleted})
}

func (b *Broadcaster) publish(ctx context.Context, sessionID uuid.UUID, event Event) error {
	event.SessionID = sessionID.String()
	channel := Channel(sessionID)

	data, err := json.Marshal(event)
	if err != nil {
		b.logger.Error("Failed to marshal event", "error", err, "event_type", event.Type)
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	if err := b.redisClient.Publish(ctx, channel, data).Err(); err != nil {
		b.logger.Error("Failed to publish event", "error", err, "channel", channel)
		return fmt.Errorf("failed to publish event: %w", err)
	}

	b.logger.Debug("Event published",
		"channel", channel,
		"event_type", event.Type,
	)
	return nil
}
