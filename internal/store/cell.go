package store

import (
	"sync"

	"github.com/google/uuid"
)

// Cell is a concurrency-safe observable value. Its owner writes through Set;
// any number of subscribers receive each new value.
//
// Subscriber channels hold one value. A slow subscriber misses intermediate
// values but always sees the latest one.
type Cell[T any] struct {
	mu sync.RWMutex

	value T

	// key: subscription id, value: delivery channel
	subs map[uuid.UUID]chan T
}

// NewCell creates a Cell holding initial.
func NewCell[T any](initial T) *Cell[T] {
	return &Cell[T]{
		value: initial,
		subs:  make(map[uuid.UUID]chan T),
	}
}

// Get returns the current value.
func (c *Cell[T]) Get() T {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.value
}

// Set replaces the value and notifies every subscriber.
func (c *Cell[T]) Set(v T) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.value = v
	for _, ch := range c.subs {
		deliverLatest(ch, v)
	}
}

// Subscribe registers a subscriber. The returned channel immediately holds
// the current value and is closed by Unsubscribe.
func (c *Cell[T]) Subscribe() (uuid.UUID, <-chan T) {
	c.mu.Lock()
	defer c.mu.Unlock()

	id := uuid.New()
	ch := make(chan T, 1)
	ch <- c.value
	c.subs[id] = ch
	return id, ch
}

// Unsubscribe removes the subscriber and closes its channel. Unknown ids are ignored.
func (c *Cell[T]) Unsubscribe(id uuid.UUID) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if ch, ok := c.subs[id]; ok {
		delete(c.subs, id)
		close(ch)
	}
}

// Subscribers returns the number of active subscriptions.
func (c *Cell[T]) Subscribers() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.subs)
}

// deliverLatest replaces a pending undelivered value with v. Callers hold the
// write lock, so no other sender can refill the slot in between.
func deliverLatest[T any](ch chan T, v T) {
	select {
	case ch <- v:
		return
	default:
	}

	select {
	case <-ch:
	default:
	}
	ch <- v
}
