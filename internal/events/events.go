// Package events carries change notifications between modules, processes and browser tabs.
package events

import (
	"context"
	"encoding/json"
	"fmt"
)

// Topic names a class of notification.
type Topic string

const (
	// TopicStorage is published after a workspace key is written; Key names it.
	TopicStorage Topic = "storage"
	// TopicPSIRUpdated carries either a draft PSIR item or the persisted PSIR list.
	TopicPSIRUpdated Topic = "psir.updated"
	// TopicStockUpdated carries the stock ledger after every persist.
	TopicStockUpdated Topic = "stock.updated"
)

// Message is one notification scoped to a workspace.
type Message struct {
	Workspace string          `json:"workspace"`
	Topic     Topic           `json:"topic"`
	Key       string          `json:"key,omitempty"`
	Payload   json.RawMessage `json:"payload,omitempty"`
}

// Handler consumes delivered messages.
type Handler func(ctx context.Context, msg Message)

// Publisher sends messages.
type Publisher interface {
	Publish(ctx context.Context, msg Message) error
}

// Subscriber delivers messages to h until ctx is cancelled.
type Subscriber interface {
	Subscribe(ctx context.Context, h Handler) error
}

// Bus publishes and subscribes.
type Bus interface {
	Publisher
	Subscriber
}

// NewMessage marshals payload into a message.
func NewMessage(workspace string, topic Topic, payload any) (Message, error) {
	msg := Message{Workspace: workspace, Topic: topic}
	if payload == nil {
		return msg, nil
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return Message{}, fmt.Errorf("events: marshal %s payload: %w", topic, err)
	}
	msg.Payload = data
	return msg, nil
}
