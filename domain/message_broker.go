package domain

import (
	"context"
	"time"
)

// MessageBroker defines the interface for message broker operations
type MessageBroker interface {
	// Publish sends a message to a specific topic/channel with a routing key
	Publish(ctx context.Context, topic string, routingKey string, message []byte) error

	// Subscribe listens for messages on a specific topic/channel and routing key
	Subscribe(ctx context.Context, topic string, routingKey string) (<-chan Message, error)

	// Close closes the message broker connection
	Close() error
}

// Message represents a message received from the broker
type Message struct {
	Topic      string
	RoutingKey string
	Payload    []byte
	Timestamp  time.Time
}

// ConversationTopic carries ConversationEvent payloads.
const ConversationTopic = "conversation.events"

type EventType string

const (
	EventTurnStarted    EventType = "turn.started"
	EventTurnResponse   EventType = "turn.response"
	EventTurnCompleted  EventType = "turn.completed"
	EventHistoryCleared EventType = "history.cleared"
	// EventError is sent only to the websocket client whose prompt failed.
	EventError EventType = "error"
)

// PromptMessage is what clients send over the websocket.
type PromptMessage struct {
	Type    string `json:"type"`
	Content string `json:"content"`
}

const PromptMessageType = "prompt"

// ConversationEvent is published on every change to the conversation.
type ConversationEvent struct {
	Type      EventType `json:"type"`
	TurnID    string    `json:"turn_id,omitempty"`
	Model     string    `json:"model,omitempty"`
	Label     string    `json:"label,omitempty"`
	Content   string    `json:"content,omitempty"`
	Failed    bool      `json:"failed,omitempty"`
	Turn      *Turn     `json:"turn,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}
