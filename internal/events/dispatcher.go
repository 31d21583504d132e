package events

import (
	"context"
	"sync"

	"github.com/spec-kit/onboarding-service/internal/domain"
)

// Handler handles a published domain event.
type Handler func(context.Context, domain.Event) error

// Publisher delivers drained domain events downstream.
type Publisher interface {
	Publish(ctx context.Context, event domain.Event) error
}

// Dispatcher allows in-process event publication/subscription.
type Dispatcher interface {
	Publisher
	Subscribe(eventType domain.EventType, handler Handler)
}

// inMemoryDispatcher is a simple synchronous dispatcher.
type inMemoryDispatcher struct {
	mu        sync.RWMutex
	listeners map[domain.EventType][]Handler
}

// NewInMemoryDispatcher creates a dispatcher instance.
func NewInMemoryDispatcher() Dispatcher {
	return &inMemoryDispatcher{
		listeners: make(map[domain.EventType][]Handler),
	}
}

// Publish synchronously invokes handlers for the given event. Handler
// errors do not stop delivery to the remaining handlers.
func (d *inMemoryDispatcher) Publish(ctx context.Context, event domain.Event) error {
	d.mu.RLock()
	handlers := append([]Handler{}, d.listeners[event.Type]...)
	d.mu.RUnlock()

	for _, handler := range handlers {
		_ = handler(ctx, event)
	}
	return nil
}

// Subscribe registers a handler for the given event type.
func (d *inMemoryDispatcher) Subscribe(eventType domain.EventType, handler Handler) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.listeners[eventType] = append(d.listeners[eventType], handler)
}

// fanout publishes each event to every configured publisher.
type fanout struct {
	publishers []Publisher
}

// NewFanout combines publishers; nil entries are skipped.
func NewFanout(publishers ...Publisher) Publisher {
	kept := make([]Publisher, 0, len(publishers))
	for _, p := range publishers {
		if p != nil {
			kept = append(kept, p)
		}
	}
	return &fanout{publishers: kept}
}

func (f *fanout) Publish(ctx context.Context, event domain.Event) error {
	for _, p := range f.publishers {
		if err := p.Publish(ctx, event); err != nil {
			return err
		}
	}
	return nil
}
