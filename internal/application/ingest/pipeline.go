// Package ingest turns operator-supplied files into tracker records.
// Files are validated locally, submitted sequentially, and reported
// per-file so a partial failure never hides what did go through.
package ingest

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"

	"github.com/edurisk/atrisk-tracker/internal/domain/shared"
	"github.com/edurisk/atrisk-tracker/internal/domain/student"
	"github.com/edurisk/atrisk-tracker/internal/infrastructure/external/trackerapi"
	"github.com/edurisk/atrisk-tracker/pkg/logger"
)

// ═══════════════════════════════════════════════════════════════════════════
// COLLABORATOR INTERFACES
// ═══════════════════════════════════════════════════════════════════════════

// Uploader submits one file to the tracker backend.
type Uploader interface {
	UploadFile(ctx context.Context, partition student.ActorPartition, filename string, content io.Reader) (trackerapi.UploadResult, error)
}

// RecordEcho receives parsed contributions after a successful upload,
// so the local view reflects the file before the authoritative refresh.
type RecordEcho interface {
	ApplyContribution(c student.Contribution) error
}

// Refresher schedules the post-batch data refresh.
type Refresher interface {
	RefreshData()
}

// Notifier surfaces the batch summary to the operator.
type Notifier interface {
	Success(message string)
	Warning(message string)
	Error(message string)
}

// ═══════════════════════════════════════════════════════════════════════════
// BATCH TYPES
// ═══════════════════════════════════════════════════════════════════════════

// File is one upload candidate, already read into memory.
type File struct {
	Name    string
	Content []byte
}

type OutcomeStatus string

const (
	StatusSuccess OutcomeStatus = "success"
	StatusError   OutcomeStatus = "error"
)

// UploadOutcome is the per-file verdict, in submission order.
type UploadOutcome struct {
	Filename      string
	Status        OutcomeStatus
	AffectedCount int
	ErrorMessage  string
}

// BatchResult is the terminal state of one batch. A mix of success and
// error outcomes is a valid terminal state, not an abort.
type BatchResult struct {
	BatchID     string
	Partition   student.ActorPartition
	Outcomes    []UploadOutcome
	Succeeded   int
	Failed      int
	LastSuccess *UploadPayload
	CompletedAt time.Time
}

// PartialFailure reports whether some but not all files failed.
func (r *BatchResult) PartialFailure() bool {
	return r.Succeeded > 0 && r.Failed > 0
}

// ═══════════════════════════════════════════════════════════════════════════
// PIPELINE
// ═══════════════════════════════════════════════════════════════════════════

// Pipeline runs upload batches. Files go one at a time, in the order
// given, and a failure on one file never stops the rest.
type Pipeline struct {
	uploader  Uploader
	echo      RecordEcho
	refresher Refresher
	notifier  Notifier
	publisher shared.EventPublisher
	logger    *logger.Logger
}

func NewPipeline(uploader Uploader, echo RecordEcho, refresher Refresher, notifier Notifier, publisher shared.EventPublisher, log *logger.Logger) *Pipeline {
	if log == nil {
		log = logger.Discard()
	}
	return &Pipeline{
		uploader:  uploader,
		echo:      echo,
		refresher: refresher,
		notifier:  notifier,
		publisher: publisher,
		logger:    log.With(logger.Component("ingest")),
	}
}

// Run processes the batch and returns its terminal state. The returned
// error covers batch-level problems only (empty batch, bad partition);
// per-file failures live in the outcome list.
func (p *Pipeline) Run(ctx context.Context, partition student.ActorPartition, files []File) (*BatchResult, error) {
	if len(files) == 0 {
		return nil, shared.ErrEmptyBatch
	}
	if !partition.IsValid() {
		return nil, shared.ErrUnknownPartition
	}

	result := &BatchResult{
		BatchID:   uuid.NewString(),
		Partition: partition,
		Outcomes:  make([]UploadOutcome, 0, len(files)),
	}
	log := p.logger.With(logger.BatchID(result.BatchID), logger.Partition(string(partition)))
	log.Info("batch started", logger.Count(len(files)))

	for _, file := range files {
		result.Outcomes = append(result.Outcomes, p.processFile(ctx, log, partition, file, result))
	}
	result.CompletedAt = time.Now()

	p.report(log, result)
	if result.Succeeded > 0 && p.refresher != nil {
		p.refresher.RefreshData()
	}
	return result, nil
}

// processFile validates and submits a single file. Validation failures
// are reported without touching the network.
func (p *Pipeline) processFile(ctx context.Context, log *logger.Logger, partition student.ActorPartition, file File, result *BatchResult) UploadOutcome {
	outcome := UploadOutcome{Filename: file.Name}

	parsed, err := ParseAndValidate(file.Name, file.Content, partition)
	if err != nil {
		log.Warn("file rejected locally", logger.Filename(file.Name), logger.Err(err))
		result.Failed++
		outcome.Status = StatusError
		outcome.ErrorMessage = err.Error()
		return outcome
	}

	uploaded, err := p.uploader.UploadFile(ctx, partition, file.Name, bytes.NewReader(file.Content))
	if err != nil {
		log.Warn("upload failed", logger.Filename(file.Name), logger.Err(err))
		result.Failed++
		outcome.Status = StatusError
		outcome.ErrorMessage = err.Error()
		return outcome
	}

	result.Succeeded++
	result.LastSuccess = &UploadPayload{
		Created: uploaded.Created,
		Updated: uploaded.Updated,
		Summary: uploaded.Summary,
	}
	outcome.Status = StatusSuccess
	outcome.AffectedCount = uploaded.Affected()

	// Echo the parsed rows into the local store; the refresh that follows
	// the batch replaces this with the server's authoritative view.
	if p.echo != nil {
		for _, contrib := range parsed.Rows {
			if echoErr := p.echo.ApplyContribution(contrib); echoErr != nil {
				log.Debug("echo skipped",
					logger.StudentID(string(contrib.StudentID)),
					logger.Err(echoErr))
			}
		}
	}

	log.Info("file uploaded",
		logger.Filename(file.Name),
		logger.Int("created", uploaded.Created),
		logger.Int("updated", uploaded.Updated))
	return outcome
}

// report publishes the completion event and raises the operator toast.
func (p *Pipeline) report(log *logger.Logger, result *BatchResult) {
	if p.publisher != nil {
		if err := p.publisher.Publish(NewBatchCompletedEvent(result)); err != nil {
			log.Warn("batch event publish failed", logger.Err(err))
		}
	}

	log.Info("batch completed",
		logger.Int("succeeded", result.Succeeded),
		logger.Int("failed", result.Failed))

	if p.notifier == nil {
		return
	}
	total := result.Succeeded + result.Failed
	switch {
	case result.Failed == 0:
		p.notifier.Success(fmt.Sprintf("Uploaded %d file(s)", total))
	case result.Succeeded == 0:
		p.notifier.Error(fmt.Sprintf("All %d file(s) failed to upload", total))
	default:
		p.notifier.Warning(fmt.Sprintf("Uploaded %d of %d file(s); %d failed", result.Succeeded, total, result.Failed))
	}
}
