// Package statebus provides a small in-process broadcast bus for the
// engine's two event kinds: continuous state snapshots and discrete
// repetition events. Multiple subscribers observe the same stream; slow
// subscribers never block the frame-processing path, they only lose events
// according to their drop policy.
package statebus

import (
	"errors"
	"sync"

	"github.com/google/uuid"
)

// ErrBusClosed is returned by Subscribe variants after Close.
var ErrBusClosed = errors.New("statebus: bus closed")

// DropPolicy defines what happens when a subscriber cannot keep up.
type DropPolicy int

const (
	// DropNew drops incoming events once the subscriber's buffer is full.
	// Suited to discrete events where a bounded backlog is acceptable.
	DropNew DropPolicy = iota
	// DropOld always accepts the newest event, displacing the buffered one.
	// Suited to snapshots where only the latest value matters.
	DropOld
)

type subscriber[T any] struct {
	policy DropPolicy
	ch     chan T
}

// Stats counts publish outcomes across all subscribers.
type Stats struct {
	Published uint64
	Delivered uint64
	Dropped   uint64
}

// Bus broadcasts values of one event type to any number of subscribers.
// Publish never blocks.
type Bus[T any] struct {
	mu     sync.Mutex
	subs   map[string]*subscriber[T]
	stats  Stats
	closed bool
}

// New creates an empty Bus.
func New[T any]() *Bus[T] {
	return &Bus[T]{subs: make(map[string]*subscriber[T])}
}

// Subscribe registers a DropNew subscriber with the given buffer size.
// The returned ID identifies the subscription for Unsubscribe.
func (b *Bus[T]) Subscribe(buffer int) (string, <-chan T, error) {
	return b.subscribe(DropNew, buffer)
}

// SubscribeLatest registers a DropOld subscriber that only ever holds the
// most recent value.
func (b *Bus[T]) SubscribeLatest() (string, <-chan T, error) {
	return b.subscribe(DropOld, 1)
}

func (b *Bus[T]) subscribe(policy DropPolicy, buffer int) (string, <-chan T, error) {
	if buffer < 1 {
		buffer = 1
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return "", nil, ErrBusClosed
	}
	id := uuid.NewString()
	sub := &subscriber[T]{policy: policy, ch: make(chan T, buffer)}
	b.subs[id] = sub
	return id, sub.ch, nil
}

// Unsubscribe removes a subscription and closes its channel. Unknown IDs are
// ignored.
func (b *Bus[T]) Unsubscribe(id string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if sub, ok := b.subs[id]; ok {
		close(sub.ch)
		delete(b.subs, id)
	}
}

// Publish broadcasts v to all subscribers without blocking.
func (b *Bus[T]) Publish(v T) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	b.stats.Published++
	for _, sub := range b.subs {
		select {
		case sub.ch <- v:
			b.stats.Delivered++
			continue
		default:
		}

		if sub.policy == DropNew {
			b.stats.Dropped++
			continue
		}

		// DropOld: displace the stale value, then deliver the new one.
		select {
		case <-sub.ch:
			b.stats.Dropped++
		default:
		}
		select {
		case sub.ch <- v:
			b.stats.Delivered++
		default:
			b.stats.Dropped++
		}
	}
}

// SubscriberCount returns the number of active subscriptions.
func (b *Bus[T]) SubscriberCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subs)
}

// GetStats returns a copy of the publish counters.
func (b *Bus[T]) GetStats() Stats {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.stats
}

// Close closes every subscriber channel and rejects further subscriptions.
func (b *Bus[T]) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	b.closed = true
	for id, sub := range b.subs {
		close(sub.ch)
		delete(b.subs, id)
	}
}
