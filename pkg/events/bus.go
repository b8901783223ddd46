// Package events provides real-time delivery of execution lifecycle events
// from the engine to streaming clients, over an in-process bus or Redis
// pub/sub for multi-instance deployments.
package events

import (
	"context"
	"errors"
)

// ErrBusClosed is returned by operations on a closed bus.
var ErrBusClosed = errors.New("event bus is closed")

// Bus is the transport execution events travel over. Delivery is
// fire-and-forget: publishing never blocks the engine, and messages
// published to a channel without subscribers are dropped.
type Bus interface {
	Publish(ctx context.Context, channel string, payload []byte) error
	Subscribe(ctx context.Context, channel string) (Subscription, error)
	Close() error
}

// Subscription is one subscriber's view of a channel.
type Subscription interface {
	// Events yields raw payloads in publish order. The channel is closed
	// when the subscription or its bus shuts down.
	Events() <-chan []byte
	// Close unsubscribes and releases the subscription. Safe to call twice.
	Close() error
}

// ExecutionChannelPrefix namespaces per-run event channels.
const ExecutionChannelPrefix = "execution:"

// ExecutionChannel returns the channel name for a specific run's events.
// Format: "execution:{execution_id}"
func ExecutionChannel(executionID string) string {
	return ExecutionChannelPrefix + executionID
}
