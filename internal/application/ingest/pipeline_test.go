package ingest

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edurisk/atrisk-tracker/internal/domain/shared"
	"github.com/edurisk/atrisk-tracker/internal/domain/student"
	"github.com/edurisk/atrisk-tracker/internal/infrastructure/external/trackerapi"
)

// ═══════════════════════════════════════════════════════════════════════════
// FAKES
// ═══════════════════════════════════════════════════════════════════════════

type fakeUploader struct {
	mu      sync.Mutex
	calls   []string
	failOn  map[string]error
	results map[string]trackerapi.UploadResult
}

func (f *fakeUploader) UploadFile(_ context.Context, _ student.ActorPartition, filename string, content io.Reader) (trackerapi.UploadResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, filename)
	if _, err := io.ReadAll(content); err != nil {
		return trackerapi.UploadResult{}, err
	}
	if err, ok := f.failOn[filename]; ok {
		return trackerapi.UploadResult{}, err
	}
	if res, ok := f.results[filename]; ok {
		return res, nil
	}
	return trackerapi.UploadResult{Created: 1}, nil
}

type fakeEcho struct {
	mu       sync.Mutex
	contribs []student.Contribution
}

func (f *fakeEcho) ApplyContribution(c student.Contribution) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.contribs = append(f.contribs, c)
	return nil
}

type fakeRefresher struct{ calls int }

func (f *fakeRefresher) RefreshData() { f.calls++ }

type fakeNotifier struct {
	successes, warnings, errs []string
}

func (f *fakeNotifier) Success(m string) { f.successes = append(f.successes, m) }
func (f *fakeNotifier) Warning(m string) { f.warnings = append(f.warnings, m) }
func (f *fakeNotifier) Error(m string)   { f.errs = append(f.errs, m) }

type capturePublisher struct {
	events []shared.Event
}

func (p *capturePublisher) Publish(e shared.Event) error {
	p.events = append(p.events, e)
	return nil
}

func attendanceCSV(id string, rate string) []byte {
	return []byte("student_id,attendance_rate\n" + id + "," + rate + "\n")
}

// ═══════════════════════════════════════════════════════════════════════════
// TESTS
// ═══════════════════════════════════════════════════════════════════════════

func TestRun_EmptyBatchRejected(t *testing.T) {
	p := NewPipeline(&fakeUploader{}, nil, nil, nil, nil, nil)

	_, err := p.Run(context.Background(), student.PartitionExam, nil)
	assert.ErrorIs(t, err, shared.ErrEmptyBatch)
}

func TestRun_UnknownPartitionRejected(t *testing.T) {
	p := NewPipeline(&fakeUploader{}, nil, nil, nil, nil, nil)

	_, err := p.Run(context.Background(), "registrar", []File{{Name: "a.csv", Content: attendanceCSV("s1", "80")}})
	assert.ErrorIs(t, err, shared.ErrUnknownPartition)
}

func TestRun_AllFilesSucceed(t *testing.T) {
	uploader := &fakeUploader{}
	echo := &fakeEcho{}
	refresher := &fakeRefresher{}
	notifier := &fakeNotifier{}
	p := NewPipeline(uploader, echo, refresher, notifier, nil, nil)

	result, err := p.Run(context.Background(), student.PartitionAttendance, []File{
		{Name: "a.csv", Content: attendanceCSV("s1", "80")},
		{Name: "b.csv", Content: attendanceCSV("s2", "55")},
	})
	require.NoError(t, err)

	assert.Equal(t, 2, result.Succeeded)
	assert.Equal(t, 0, result.Failed)
	assert.False(t, result.PartialFailure())
	assert.NotEmpty(t, result.BatchID)
	assert.Equal(t, []string{"a.csv", "b.csv"}, uploader.calls)
	assert.Len(t, echo.contribs, 2)
	assert.Equal(t, 1, refresher.calls)
	assert.Len(t, notifier.successes, 1)
}

func TestRun_PartialFailureDoesNotAbort(t *testing.T) {
	// Three files: the second fails validation locally and never reaches
	// the uploader. The batch still reports three outcomes in order and
	// completes with the third file's payload.
	summary := &student.Summary{Total: 42, High: 3}
	uploader := &fakeUploader{results: map[string]trackerapi.UploadResult{
		"one.csv":   {Created: 2},
		"three.csv": {Created: 1, Updated: 4, Summary: summary},
	}}
	refresher := &fakeRefresher{}
	notifier := &fakeNotifier{}
	publisher := &capturePublisher{}
	p := NewPipeline(uploader, nil, refresher, notifier, publisher, nil)

	result, err := p.Run(context.Background(), student.PartitionAttendance, []File{
		{Name: "one.csv", Content: attendanceCSV("s1", "80")},
		{Name: "two.pdf", Content: []byte("not a table")},
		{Name: "three.csv", Content: attendanceCSV("s3", "60")},
	})
	require.NoError(t, err)

	require.Len(t, result.Outcomes, 3)
	assert.Equal(t, "one.csv", result.Outcomes[0].Filename)
	assert.Equal(t, StatusSuccess, result.Outcomes[0].Status)
	assert.Equal(t, 2, result.Outcomes[0].AffectedCount)
	assert.Equal(t, StatusError, result.Outcomes[1].Status)
	assert.NotEmpty(t, result.Outcomes[1].ErrorMessage)
	assert.Equal(t, StatusSuccess, result.Outcomes[2].Status)
	assert.Equal(t, 5, result.Outcomes[2].AffectedCount)

	assert.True(t, result.PartialFailure())
	assert.Equal(t, []string{"one.csv", "three.csv"}, uploader.calls, "invalid file must not reach the network")

	// The completion signal fires once, carrying the last success.
	require.Len(t, publisher.events, 1)
	completed, ok := publisher.events[0].(*BatchCompletedEvent)
	require.True(t, ok)
	require.NotNil(t, completed.LastSuccess)
	assert.Equal(t, 1, completed.LastSuccess.Created)
	assert.Equal(t, 4, completed.LastSuccess.Updated)
	assert.Equal(t, summary, completed.LastSuccess.Summary)

	assert.Len(t, notifier.warnings, 1)
	assert.Equal(t, 1, refresher.calls)
}

func TestRun_TotalFailureStillCompletes(t *testing.T) {
	uploader := &fakeUploader{failOn: map[string]error{
		"a.csv": errors.New("server exploded"),
	}}
	refresher := &fakeRefresher{}
	notifier := &fakeNotifier{}
	publisher := &capturePublisher{}
	p := NewPipeline(uploader, nil, refresher, notifier, publisher, nil)

	result, err := p.Run(context.Background(), student.PartitionAttendance, []File{
		{Name: "a.csv", Content: attendanceCSV("s1", "80")},
	})
	require.NoError(t, err)

	assert.Equal(t, 0, result.Succeeded)
	assert.Equal(t, 1, result.Failed)
	assert.Contains(t, result.Outcomes[0].ErrorMessage, "server exploded")

	require.Len(t, publisher.events, 1)
	completed := publisher.events[0].(*BatchCompletedEvent)
	assert.Nil(t, completed.LastSuccess)

	assert.Len(t, notifier.errs, 1)
	assert.Zero(t, refresher.calls, "nothing succeeded, no refresh")
}

func TestRun_NameOnlyFileIsUploaded(t *testing.T) {
	uploader := &fakeUploader{}
	echo := &fakeEcho{}
	refresher := &fakeRefresher{}
	p := NewPipeline(uploader, echo, refresher, nil, nil, nil)

	result, err := p.Run(context.Background(), student.PartitionAttendance, []File{
		{Name: "roster.csv", Content: []byte("name,attendance_rate\nAizhan,92.5\n")},
	})
	require.NoError(t, err)

	assert.Equal(t, 1, result.Succeeded)
	assert.Equal(t, []string{"roster.csv"}, uploader.calls)
	assert.Empty(t, echo.contribs, "no stable identity to echo on")
	assert.Equal(t, 1, refresher.calls, "refresh carries name-only rows back")
}

func TestRun_EchoAppliesParsedRows(t *testing.T) {
	echo := &fakeEcho{}
	p := NewPipeline(&fakeUploader{}, echo, nil, nil, nil, nil)

	_, err := p.Run(context.Background(), student.PartitionAttendance, []File{
		{Name: "a.csv", Content: []byte("student_id,attendance_rate\ns1,80\ns2,70\ns3,60\n")},
	})
	require.NoError(t, err)

	require.Len(t, echo.contribs, 3)
	assert.Equal(t, student.PartitionAttendance, echo.contribs[0].Partition)
	assert.Equal(t, student.StudentID("s2"), echo.contribs[1].StudentID)
}
