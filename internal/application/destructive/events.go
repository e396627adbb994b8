package destructive

import (
	"github.com/edurisk/atrisk-tracker/internal/domain/shared"
	"github.com/edurisk/atrisk-tracker/internal/domain/student"
)

// RecordDeletedEvent fires after a confirmed single delete succeeds.
type RecordDeletedEvent struct {
	shared.BaseEvent
	StudentID student.StudentID
}

func NewRecordDeletedEvent(id student.StudentID) *RecordDeletedEvent {
	return &RecordDeletedEvent{
		BaseEvent: shared.NewBaseEvent(shared.EventRecordDeleted, id.String()),
		StudentID: id,
	}
}

// AllRecordsDeletedEvent fires after a confirmed delete-all succeeds.
type AllRecordsDeletedEvent struct {
	shared.BaseEvent
	DeletedCount int
}

func NewAllRecordsDeletedEvent(count int) *AllRecordsDeletedEvent {
	return &AllRecordsDeletedEvent{
		BaseEvent:    shared.NewBaseEvent(shared.EventAllRecordsDeleted, "all"),
		DeletedCount: count,
	}
}
