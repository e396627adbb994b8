package ingest

import (
	"github.com/edurisk/atrisk-tracker/internal/domain/shared"
	"github.com/edurisk/atrisk-tracker/internal/domain/student"
)

// BatchCompletedEvent fires exactly once per batch, whether the batch
// succeeded fully, partially, or not at all. LastSuccess carries the
// server payload of the final successful upload, nil when none succeeded.
type BatchCompletedEvent struct {
	shared.BaseEvent
	BatchID     string
	Partition   student.ActorPartition
	Outcomes    []UploadOutcome
	Succeeded   int
	Failed      int
	LastSuccess *UploadPayload
}

// UploadPayload is the server-reported effect of one accepted file.
type UploadPayload struct {
	Created int
	Updated int
	Summary *student.Summary
}

func NewBatchCompletedEvent(result *BatchResult) *BatchCompletedEvent {
	return &BatchCompletedEvent{
		BaseEvent:   shared.NewBaseEvent(shared.EventBatchCompleted, result.BatchID),
		BatchID:     result.BatchID,
		Partition:   result.Partition,
		Outcomes:    result.Outcomes,
		Succeeded:   result.Succeeded,
		Failed:      result.Failed,
		LastSuccess: result.LastSuccess,
	}
}
