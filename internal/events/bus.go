/**
 * @description
 * A synchronous, in-process event bus keyed by the concrete event type.
 * Publishing invokes every handler registered for that type, in registration
 * order, on the caller's stack. There is no buffering and no cross-process
 * delivery — the bus is a decoupling seam between use cases and infrastructure
 * reactions, not a message broker.
 *
 * @notes
 * - Use cases depend on the single-method Publisher interface, so a
 *   broker-backed implementation can replace the in-process bus without
 *   touching them.
 */

package events

import (
	"reflect"
	"sync"
)

// Publisher is the only surface use cases see.
type Publisher interface {
	Publish(event any)
}

// Bus is the in-process Publisher implementation.
type Bus struct {
	mu       sync.RWMutex
	handlers map[reflect.Type][]func(any)
}

func NewBus() *Bus {
	return &Bus{handlers: make(map[reflect.Type][]func(any))}
}

// Subscribe registers a handler for the concrete type of prototype. The
// prototype value itself is only used for its type.
func (b *Bus) Subscribe(prototype any, handler func(any)) {
	b.mu.Lock()
	defer b.mu.Unlock()
	t := reflect.TypeOf(prototype)
	b.handlers[t] = append(b.handlers[t], handler)
}

// Publish invokes all handlers registered for the event's concrete type, in
// registration order.
func (b *Bus) Publish(event any) {
	b.mu.RLock()
	handlers := b.handlers[reflect.TypeOf(event)]
	b.mu.RUnlock()

	for _, handler := range handlers {
		handler(event)
	}
}
