package messaging

import (
	"context"
)

// Event channels published for the main application.
const (
	ChannelJobCompleted = "notification.job_completed"
	ChannelMilestone    = "notification.milestone"
)

// Publisher defines the interface for publishing messages
type Publisher interface {
	Publish(ctx context.Context, channel string, message interface{}) error
}

// Broker is a Publisher backed by a connection that can be probed and closed.
type Broker interface {
	Publisher
	Ping(ctx context.Context) error
	Close() error
}

type Message struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload"`
}

// NopPublisher drops every message. Used when no broker is configured.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, string, interface{}) error {
	return nil
}
