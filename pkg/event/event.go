// Package event provides a simple synchronous event dispatcher.
//
// A Bus is an instance rather than package state so that each console, CLI
// invocation and test owns its listeners.
package event

import (
	"sync"
)

// Names fired by stockdesk.
const (
	CacheInvalidated = "cache.invalidated"
	ProductCreated   = "product.created"
	StockMutated     = "stock.mutated"
	Navigated        = "navigated"
)

// Handler is a function that receives an event payload.
type Handler func(payload interface{})

// Bus holds listeners keyed by event name.
type Bus struct {
	mu       sync.RWMutex
	handlers map[string][]*listener
}

type listener struct{ fn Handler }

func NewBus() *Bus {
	return &Bus{handlers: map[string][]*listener{}}
}

// Listen registers a handler for the given event name. The returned func
// removes it again.
func (b *Bus) Listen(event string, handler Handler) (unlisten func()) {
	b.mu.Lock()
	defer b.mu.Unlock()
	l := &listener{fn: handler}
	b.handlers[event] = append(b.handlers[event], l)

	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		hs := b.handlers[event]
		for i, x := range hs {
			if x == l {
				b.handlers[event] = append(hs[:i:i], hs[i+1:]...)
				return
			}
		}
	}
}

func (b *Bus) snapshot(event string) []Handler {
	b.mu.RLock()
	defer b.mu.RUnlock()
	hs := make([]Handler, 0, len(b.handlers[event]))
	for _, l := range b.handlers[event] {
		hs = append(hs, l.fn)
	}
	return hs
}

// Fire dispatches an event synchronously to all registered listeners.
func (b *Bus) Fire(event string, payload interface{}) {
	for _, h := range b.snapshot(event) {
		h(payload)
	}
}
