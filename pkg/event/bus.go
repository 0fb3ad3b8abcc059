// Package event provides typed, synchronous publish/subscribe channels used
// to wire UI input and notifications without a container.
package event

import "sync"

// Bus delivers events of one type to its subscribers, synchronously and in
// subscription order.
type Bus[E any] struct {
	mu       sync.RWMutex
	nextID   int
	handlers []subscription[E]
}

type subscription[E any] struct {
	id int
	fn func(E)
}

// NewBus creates a bus with no subscribers.
func NewBus[E any]() *Bus[E] {
	return &Bus[E]{}
}

// Subscribe registers fn and returns a function removing it again.
func (b *Bus[E]) Subscribe(fn func(E)) (unsubscribe func()) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.nextID++
	id := b.nextID
	b.handlers = append(b.handlers, subscription[E]{id: id, fn: fn})
	return func() { b.remove(id) }
}

func (b *Bus[E]) remove(id int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for i, s := range b.handlers {
		if s.id == id {
			b.handlers = append(b.handlers[:i:i], b.handlers[i+1:]...)
			return
		}
	}
}

// Publish delivers e to every current subscriber. Handlers may subscribe or
// unsubscribe while being called; the change applies to the next Publish.
func (b *Bus[E]) Publish(e E) {
	b.mu.RLock()
	handlers := make([]subscription[E], len(b.handlers))
	copy(handlers, b.handlers)
	b.mu.RUnlock()

	for _, s := range handlers {
		s.fn(e)
	}
}

// Len returns the number of subscribers.
func (b *Bus[E]) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.handlers)
}
