package events

import (
	"context"
	"sync"
)

// memorySubscriptionBuffer sizes each subscriber's channel. A subscriber
// that falls this far behind starts losing messages instead of stalling
// the publisher.
const memorySubscriptionBuffer = 256

// MemoryBus is an in-process Bus for single-instance deployments and tests.
// Every subscriber owns a buffered channel; publishing fans out without
// blocking and drops messages for subscribers whose buffer is full.
type MemoryBus struct {
	mu     sync.RWMutex
	subs   map[string]map[int]*memorySubscription
	nextID int
	closed bool
}

// NewMemoryBus creates an empty in-process bus.
func NewMemoryBus() *MemoryBus {
	return &MemoryBus{subs: make(map[string]map[int]*memorySubscription)}
}

func (b *MemoryBus) Publish(ctx context.Context, channel string, payload []byte) error {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.closed {
		return ErrBusClosed
	}
	for _, sub := range b.subs[channel] {
		select {
		case sub.events <- payload:
		default:
			// Subscriber buffer full: drop for this subscriber only.
		}
	}
	return nil
}

func (b *MemoryBus) Subscribe(ctx context.Context, channel string) (Subscription, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return nil, ErrBusClosed
	}

	sub := &memorySubscription{
		bus:     b,
		channel: channel,
		id:      b.nextID,
		events:  make(chan []byte, memorySubscriptionBuffer),
	}
	b.nextID++

	if b.subs[channel] == nil {
		b.subs[channel] = make(map[int]*memorySubscription)
	}
	b.subs[channel][sub.id] = sub
	return sub, nil
}

// Close shuts down the bus and every open subscription.
func (b *MemoryBus) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return nil
	}
	b.closed = true
	for _, channelSubs := range b.subs {
		for _, sub := range channelSubs {
			sub.closed = true
			close(sub.events)
		}
	}
	b.subs = make(map[string]map[int]*memorySubscription)
	return nil
}

type memorySubscription struct {
	bus     *MemoryBus
	channel string
	id      int
	events  chan []byte
	closed  bool // guarded by bus.mu
}

func (s *memorySubscription) Events() <-chan []byte {
	return s.events
}

func (s *memorySubscription) Close() error {
	s.bus.mu.Lock()
	defer s.bus.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true

	if channelSubs := s.bus.subs[s.channel]; channelSubs != nil {
		delete(channelSubs, s.id)
		if len(channelSubs) == 0 {
			delete(s.bus.subs, s.channel)
		}
	}
	close(s.events)
	return nil
}
