package student

import (
	"github.com/edurisk/atrisk-tracker/internal/domain/shared"
)

// ═══════════════════════════════════════════════════════════════════════════
// Record store events
// ═══════════════════════════════════════════════════════════════════════════

// RecordsReplacedEvent is emitted when a fetch replaces the full record list.
type RecordsReplacedEvent struct {
	shared.BaseEvent
	Count int  `json:"count"`
	Stale bool `json:"stale"` // true when hydrated from a snapshot, not the API
}

// NewRecordsReplacedEvent creates a RecordsReplacedEvent.
func NewRecordsReplacedEvent(count int, stale bool) RecordsReplacedEvent {
	return RecordsReplacedEvent{
		BaseEvent: shared.NewBaseEvent(shared.EventRecordsReplaced, "store"),
		Count:     count,
		Stale:     stale,
	}
}

// SummaryReplacedEvent is emitted when the risk-tier summary is replaced.
type SummaryReplacedEvent struct {
	shared.BaseEvent
	Summary Summary `json:"summary"`
}

// NewSummaryReplacedEvent creates a SummaryReplacedEvent.
func NewSummaryReplacedEvent(s Summary) SummaryReplacedEvent {
	return SummaryReplacedEvent{
		BaseEvent: shared.NewBaseEvent(shared.EventSummaryReplaced, "store"),
		Summary:   s,
	}
}

// RecordUpsertedEvent is emitted when a single record is created or updated.
type RecordUpsertedEvent struct {
	shared.BaseEvent
	StudentID StudentID      `json:"student_id"`
	Partition ActorPartition `json:"partition,omitempty"`
	Created   bool           `json:"created"`
}

// NewRecordUpsertedEvent creates a RecordUpsertedEvent.
func NewRecordUpsertedEvent(id StudentID, partition ActorPartition, created bool) RecordUpsertedEvent {
	return RecordUpsertedEvent{
		BaseEvent: shared.NewBaseEvent(shared.EventRecordUpserted, id.String()),
		StudentID: id,
		Partition: partition,
		Created:   created,
	}
}

// RecordRemovedEvent is emitted when a single record is removed.
type RecordRemovedEvent struct {
	shared.BaseEvent
	StudentID StudentID `json:"student_id"`
}

// NewRecordRemovedEvent creates a RecordRemovedEvent.
func NewRecordRemovedEvent(id StudentID) RecordRemovedEvent {
	return RecordRemovedEvent{
		BaseEvent: shared.NewBaseEvent(shared.EventRecordRemoved, id.String()),
		StudentID: id,
	}
}

// StoreClearedEvent is emitted on logout teardown or delete-all.
type StoreClearedEvent struct {
	shared.BaseEvent
	Reason string `json:"reason"` // "logout" | "delete_all" | "reauth"
}

// NewStoreClearedEvent creates a StoreClearedEvent.
func NewStoreClearedEvent(reason string) StoreClearedEvent {
	return StoreClearedEvent{
		BaseEvent: shared.NewBaseEvent(shared.EventStoreCleared, "store"),
		Reason:    reason,
	}
}
