package shared

import (
	"time"
)

// EventType represents the type of domain event.
type EventType string

// Domain event types - these drive the event-driven flow between the
// record store, the ingestion pipeline, and the notification layer.
const (
	// Record store events
	EventRecordsReplaced EventType = "store.records_replaced"
	EventSummaryReplaced EventType = "store.summary_replaced"
	EventRecordUpserted  EventType = "store.record_upserted"
	EventRecordRemoved   EventType = "store.record_removed"
	EventStoreCleared    EventType = "store.cleared"

	// Session events
	EventSessionStarted EventType = "session.started"
	EventSessionEnded   EventType = "session.ended"
	EventReauthRequired EventType = "session.reauth_required"

	// Ingestion events
	EventBatchCompleted EventType = "ingest.batch_completed"

	// Destructive operation events
	EventRecordDeleted     EventType = "destructive.record_deleted"
	EventAllRecordsDeleted EventType = "destructive.all_records_deleted"

	// Outbound notification dispatch events
	EventAlertsDispatched EventType = "alerts.dispatched"
)

// Event is the base interface for all domain events.
type Event interface {
	// EventType returns the type of the event.
	EventType() EventType

	// OccurredAt returns when the event occurred.
	OccurredAt() time.Time

	// AggregateID returns the ID of the aggregate that produced this event.
	AggregateID() string
}

// BaseEvent provides common event functionality.
type BaseEvent struct {
	Type          EventType `json:"type"`
	Timestamp     time.Time `json:"timestamp"`
	AggregateId   string    `json:"aggregate_id"`
	CorrelationID string    `json:"correlation_id,omitempty"`
}

// EventType implements Event interface.
func (e BaseEvent) EventType() EventType {
	return e.Type
}

// OccurredAt implements Event interface.
func (e BaseEvent) OccurredAt() time.Time {
	return e.Timestamp
}

// AggregateID implements Event interface.
func (e BaseEvent) AggregateID() string {
	return e.AggregateId
}

// NewBaseEvent creates a new base event.
func NewBaseEvent(eventType EventType, aggregateID string) BaseEvent {
	return BaseEvent{
		Type:        eventType,
		Timestamp:   time.Now(),
		AggregateId: aggregateID,
	}
}

// WithCorrelationID sets the correlation ID for tracing.
func (e BaseEvent) WithCorrelationID(id string) BaseEvent {
	e.CorrelationID = id
	return e
}

// EventHandler processes a published event.
type EventHandler func(Event)

// EventPublisher publishes domain events. The in-memory bus in
// internal/infrastructure/messaging implements this.
type EventPublisher interface {
	Publish(Event) error
}
