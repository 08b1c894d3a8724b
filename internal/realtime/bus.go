package realtime

import (
	"context"
	"sync"
)

// Bus carries change events from the services that produce them to whatever
// delivers them to clients. A single-node deployment runs on the in-process
// implementation; multi-node deployments relay through NATS.
type Bus interface {
	Publish(ctx context.Context, evt Event) error
	Subscribe(handler func(Event)) (unsubscribe func(), err error)
	Close() error
}

// InProcBus dispatches events to subscribers in the publishing goroutine.
type InProcBus struct {
	mu     sync.RWMutex
	nextID int
	subs   map[int]func(Event)
}

func NewInProcBus() *InProcBus {
	return &InProcBus{subs: make(map[int]func(Event))}
}

func (b *InProcBus) Publish(ctx context.Context, evt Event) error {
	b.mu.RLock()
	handlers := make([]func(Event), 0, len(b.subs))
	for _, h := range b.subs {
		handlers = append(handlers, h)
	}
	b.mu.RUnlock()

	for _, h := range handlers {
		h(evt)
	}
	return nil
}

func (b *InProcBus) Subscribe(handler func(Event)) (func(), error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	id := b.nextID
	b.nextID++
	b.subs[id] = handler

	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		delete(b.subs, id)
	}, nil
}

func (b *InProcBus) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subs = make(map[int]func(Event))
	return nil
}
