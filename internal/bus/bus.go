// Package bus is a synchronous per-collection publish/subscribe registry.
// Handlers run on the notifying goroutine, in subscription order.
package bus

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"
)

// ChangeType describes what happened to a collection.
type ChangeType string

const (
	ChangeAdd    ChangeType = "add"
	ChangeUpdate ChangeType = "update"
	ChangeDelete ChangeType = "delete"
)

// Change is delivered to every handler subscribed to a collection.
type Change struct {
	Type ChangeType
	Data any
}

// Handler receives changes for one collection.
type Handler func(Change)

// Subscription identifies a registered handler.
type Subscription struct {
	Collection string
	ID         string

	bus *Bus
}

// Unsubscribe removes the handler. Calling it more than once is harmless.
func (s Subscription) Unsubscribe() {
	if s.bus != nil {
		s.bus.Unsubscribe(s.Collection, s.ID)
	}
}

type subscriber struct {
	id string
	fn Handler
}

// Bus holds handlers keyed by collection name.
type Bus struct {
	mu          sync.RWMutex
	subscribers map[string][]subscriber
	logger      *slog.Logger
}

// New creates a bus. Pass nil logger for default.
func New(logger *slog.Logger) *Bus {
	if logger == nil {
		logger = slog.Default()
	}
	return &Bus{
		subscribers: make(map[string][]subscriber),
		logger:      logger.With("component", "bus"),
	}
}

// Subscribe registers fn for changes on collection.
func (b *Bus) Subscribe(collection string, fn Handler) Subscription {
	id := uuid.New().String()

	b.mu.Lock()
	b.subscribers[collection] = append(b.subscribers[collection], subscriber{id: id, fn: fn})
	b.mu.Unlock()

	b.logger.Debug("subscriber added", "collection", collection, "sub_id", id)
	return Subscription{Collection: collection, ID: id, bus: b}
}

// Unsubscribe removes the handler registered under id.
func (b *Bus) Unsubscribe(collection, id string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	subs := b.subscribers[collection]
	for i, s := range subs {
		if s.id != id {
			continue
		}
		subs = append(subs[:i:i], subs[i+1:]...)
		if len(subs) == 0 {
			delete(b.subscribers, collection)
		} else {
			b.subscribers[collection] = subs
		}
		b.logger.Debug("subscriber removed", "collection", collection, "sub_id", id)
		return
	}
}

// Notify delivers c to every handler of collection. A panicking handler is
// logged and does not stop delivery to the ones after it.
func (b *Bus) Notify(collection string, c Change) {
	b.mu.RLock()
	targets := make([]subscriber, len(b.subscribers[collection]))
	copy(targets, b.subscribers[collection])
	b.mu.RUnlock()

	for _, s := range targets {
		if err := deliver(s.fn, c); err != nil {
			b.logger.Error("subscriber failed",
				"collection", collection,
				"sub_id", s.id,
				"change", c.Type,
				"error", err)
		}
	}
}

// Count returns the number of handlers registered for collection.
func (b *Bus) Count(collection string) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subscribers[collection])
}

func deliver(fn Handler, c Change) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("handler panic: %v", r)
		}
	}()
	fn(c)
	return nil
}
