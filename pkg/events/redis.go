package events

import (
	"context"
	"fmt"
	"sync"

	"github.com/redis/go-redis/v9"
)

// redisSubscriptionBuffer smooths bursts between the Redis reader goroutine
// and the consumer.
const redisSubscriptionBuffer = 256

// RedisBus distributes events through Redis PUBLISH/SUBSCRIBE so every API
// instance sees the stream regardless of which one runs the workflow.
type RedisBus struct {
	client *redis.Client
}

// NewRedisBus connects to the Redis instance described by url
// (redis://host:port/db form).
func NewRedisBus(url string) (*RedisBus, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("invalid redis url: %w", err)
	}
	return &RedisBus{client: redis.NewClient(opts)}, nil
}

// NewRedisBusFromClient wraps an existing client (useful for testing).
func NewRedisBusFromClient(client *redis.Client) *RedisBus {
	return &RedisBus{client: client}
}

// Ping verifies connectivity, for startup checks.
func (b *RedisBus) Ping(ctx context.Context) error {
	return b.client.Ping(ctx).Err()
}

func (b *RedisBus) Publish(ctx context.Context, channel string, payload []byte) error {
	return b.client.Publish(ctx, channel, payload).Err()
}

func (b *RedisBus) Subscribe(ctx context.Context, channel string) (Subscription, error) {
	pubsub := b.client.Subscribe(ctx, channel)

	// Wait for the subscription confirmation so events published right
	// after this call are not lost in the handshake gap.
	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		return nil, fmt.Errorf("redis subscribe failed: %w", err)
	}

	sub := &redisSubscription{
		pubsub: pubsub,
		events: make(chan []byte, redisSubscriptionBuffer),
	}
	go sub.forward()
	return sub, nil
}

func (b *RedisBus) Close() error {
	return b.client.Close()
}

type redisSubscription struct {
	pubsub *redis.PubSub
	events chan []byte
	once   sync.Once
}

// forward copies messages from the Redis subscription into the local
// channel until the subscription closes.
func (s *redisSubscription) forward() {
	defer close(s.events)
	for msg := range s.pubsub.Channel() {
		s.events <- []byte(msg.Payload)
	}
}

func (s *redisSubscription) Events() <-chan []byte {
	return s.events
}

func (s *redisSubscription) Close() error {
	var err error
	s.once.Do(func() {
		err = s.pubsub.Close()
	})
	return err
}
