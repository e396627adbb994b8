// Package messaging implements the in-process event bus wiring the record
// store, ingestion pipeline, and notification layer together. Dispatch is
// synchronous: the client session is a single logical thread of control and
// handlers must observe events in the order they were published.
package messaging

import (
	"errors"
	"sync"

	"github.com/edurisk/atrisk-tracker/internal/domain/shared"
	"github.com/edurisk/atrisk-tracker/pkg/logger"
)

// ErrEventBusClosed is returned when publishing to a closed bus.
var ErrEventBusClosed = errors.New("event bus is closed")

// EventBus is a simple in-memory publish/subscribe bus.
type EventBus struct {
	mu          sync.RWMutex
	handlers    map[shared.EventType][]shared.EventHandler
	allHandlers []shared.EventHandler
	logger      *logger.Logger
	closed      bool
}

// NewEventBus creates a new in-memory event bus.
func NewEventBus(log *logger.Logger) *EventBus {
	if log == nil {
		log = logger.Default()
	}
	return &EventBus{
		handlers:    make(map[shared.EventType][]shared.EventHandler),
		allHandlers: make([]shared.EventHandler, 0),
		logger:      log.With(logger.Component("eventbus")),
	}
}

// Subscribe registers a handler for a specific event type.
func (b *EventBus) Subscribe(eventType shared.EventType, handler shared.EventHandler) error {
	if handler == nil {
		return errors.New("handler cannot be nil")
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return ErrEventBusClosed
	}

	b.handlers[eventType] = append(b.handlers[eventType], handler)
	b.logger.Debug("subscribed handler", logger.String("event_type", string(eventType)))
	return nil
}

// SubscribeAll registers a handler for all events.
func (b *EventBus) SubscribeAll(handler shared.EventHandler) error {
	if handler == nil {
		return errors.New("handler cannot be nil")
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return ErrEventBusClosed
	}

	b.allHandlers = append(b.allHandlers, handler)
	return nil
}

// Publish delivers an event to all subscribed handlers, synchronously and in
// subscription order.
func (b *EventBus) Publish(event shared.Event) error {
	if event == nil {
		return errors.New("event cannot be nil")
	}

	b.mu.RLock()
	if b.closed {
		b.mu.RUnlock()
		return ErrEventBusClosed
	}
	handlers := make([]shared.EventHandler, 0, len(b.handlers[event.EventType()])+len(b.allHandlers))
	handlers = append(handlers, b.handlers[event.EventType()]...)
	handlers = append(handlers, b.allHandlers...)
	b.mu.RUnlock()

	if len(handlers) == 0 {
		b.logger.Debug("no handlers for event", logger.String("event_type", string(event.EventType())))
		return nil
	}

	for _, h := range handlers {
		h(event)
	}
	return nil
}

// Close shuts the bus down; subsequent publishes fail.
func (b *EventBus) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.closed = true
}
