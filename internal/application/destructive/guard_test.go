package destructive

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edurisk/atrisk-tracker/internal/domain/shared"
	"github.com/edurisk/atrisk-tracker/internal/domain/student"
)

// ═══════════════════════════════════════════════════════════════════════════
// FAKES
// ═══════════════════════════════════════════════════════════════════════════

type fakeDeleter struct {
	deleteCalls    []student.StudentID
	deleteAllCalls int
	deleteErr      error
	deleteAllErr   error
	allCount       int
}

func (f *fakeDeleter) DeleteStudent(_ context.Context, id student.StudentID) (int, error) {
	f.deleteCalls = append(f.deleteCalls, id)
	if f.deleteErr != nil {
		return 0, f.deleteErr
	}
	return 1, nil
}

func (f *fakeDeleter) DeleteAllStudents(_ context.Context) (int, error) {
	f.deleteAllCalls++
	if f.deleteAllErr != nil {
		return 0, f.deleteAllErr
	}
	return f.allCount, nil
}

type fakeRecords struct {
	removed []student.StudentID
	cleared []string
}

func (f *fakeRecords) RemoveStudent(id student.StudentID) bool {
	f.removed = append(f.removed, id)
	return true
}

func (f *fakeRecords) Clear(reason string) { f.cleared = append(f.cleared, reason) }

type fakeRefresher struct{ calls int }

func (f *fakeRefresher) RefreshData() { f.calls++ }

type fakeNotifier struct {
	successes, errs []string
}

func (f *fakeNotifier) Success(m string) { f.successes = append(f.successes, m) }
func (f *fakeNotifier) Error(m string)   { f.errs = append(f.errs, m) }

type capturePublisher struct{ events []shared.Event }

func (p *capturePublisher) Publish(e shared.Event) error {
	p.events = append(p.events, e)
	return nil
}

func newTestGuard(deleter *fakeDeleter) (*Guard, *fakeRecords, *fakeRefresher, *fakeNotifier, *capturePublisher) {
	records := &fakeRecords{}
	refresher := &fakeRefresher{}
	notifier := &fakeNotifier{}
	publisher := &capturePublisher{}
	return NewGuard(deleter, records, refresher, notifier, publisher, nil), records, refresher, notifier, publisher
}

// ═══════════════════════════════════════════════════════════════════════════
// SINGLE DELETE
// ═══════════════════════════════════════════════════════════════════════════

func TestSingleDelete_RequiresConfirmation(t *testing.T) {
	deleter := &fakeDeleter{}
	guard, _, _, _, _ := newTestGuard(deleter)

	require.NoError(t, guard.RequestDelete("s1"))
	assert.Equal(t, StateAwaitingConfirmation, guard.State())
	assert.Empty(t, deleter.deleteCalls, "request alone must not delete")

	require.NoError(t, guard.Confirm(context.Background()))
	assert.Equal(t, []student.StudentID{"s1"}, deleter.deleteCalls)
	assert.Equal(t, StateIdle, guard.State())
}

func TestSingleDelete_SuccessUpdatesStoreAndRefreshes(t *testing.T) {
	guard, records, refresher, notifier, publisher := newTestGuard(&fakeDeleter{})

	require.NoError(t, guard.RequestDelete("s1"))
	require.NoError(t, guard.Confirm(context.Background()))

	assert.Equal(t, []student.StudentID{"s1"}, records.removed)
	assert.Equal(t, 1, refresher.calls)
	assert.Len(t, notifier.successes, 1)
	require.Len(t, publisher.events, 1)
	assert.Equal(t, shared.EventRecordDeleted, publisher.events[0].EventType())
}

func TestSingleDelete_FailureNotifiesAndResets(t *testing.T) {
	deleter := &fakeDeleter{deleteErr: errors.New("boom")}
	guard, records, refresher, notifier, _ := newTestGuard(deleter)

	require.NoError(t, guard.RequestDelete("s1"))
	err := guard.Confirm(context.Background())
	require.Error(t, err)

	assert.Equal(t, StateIdle, guard.State())
	assert.Empty(t, records.removed)
	assert.Zero(t, refresher.calls)
	assert.Len(t, notifier.errs, 1)
}

func TestCancel_AbandonsPendingDelete(t *testing.T) {
	deleter := &fakeDeleter{}
	guard, _, _, _, _ := newTestGuard(deleter)

	require.NoError(t, guard.RequestDelete("s1"))
	guard.Cancel()

	assert.Equal(t, StateIdle, guard.State())
	assert.Empty(t, deleter.deleteCalls)
	assert.ErrorIs(t, guard.Confirm(context.Background()), shared.ErrNoPendingOperation)
}

func TestRequestDelete_RejectsWhileBusy(t *testing.T) {
	guard, _, _, _, _ := newTestGuard(&fakeDeleter{})

	require.NoError(t, guard.RequestDelete("s1"))
	assert.ErrorIs(t, guard.RequestDelete("s2"), shared.ErrGuardBusy)
	assert.ErrorIs(t, guard.RequestDeleteAll(), shared.ErrGuardBusy)
}

func TestRequestDelete_RejectsInvalidID(t *testing.T) {
	guard, _, _, _, _ := newTestGuard(&fakeDeleter{})
	assert.ErrorIs(t, guard.RequestDelete(""), shared.ErrInvalidID)
}

// ═══════════════════════════════════════════════════════════════════════════
// DELETE ALL
// ═══════════════════════════════════════════════════════════════════════════

func TestDeleteAll_RequiresTypedPhrase(t *testing.T) {
	deleter := &fakeDeleter{allCount: 12}
	guard, records, _, _, publisher := newTestGuard(deleter)

	require.NoError(t, guard.RequestDeleteAll())
	require.NoError(t, guard.Confirm(context.Background()))
	assert.Equal(t, StateAwaitingTypedPhrase, guard.State())
	assert.Zero(t, deleter.deleteAllCalls, "confirmation alone must not delete")

	require.NoError(t, guard.ConfirmPhrase(context.Background(), ConfirmAllPhrase))
	assert.Equal(t, 1, deleter.deleteAllCalls)
	assert.Equal(t, []string{"delete_all"}, records.cleared)
	require.Len(t, publisher.events, 1)
	assert.Equal(t, shared.EventAllRecordsDeleted, publisher.events[0].EventType())
}

func TestDeleteAll_PhraseMismatchCancelsSilently(t *testing.T) {
	deleter := &fakeDeleter{}
	guard, records, _, notifier, publisher := newTestGuard(deleter)

	require.NoError(t, guard.RequestDeleteAll())
	require.NoError(t, guard.Confirm(context.Background()))

	// Case matters: near-misses cancel without any side effect.
	require.NoError(t, guard.ConfirmPhrase(context.Background(), "delete all students"))

	assert.Equal(t, StateIdle, guard.State())
	assert.Zero(t, deleter.deleteAllCalls, "mismatch must not reach the network")
	assert.Empty(t, records.cleared)
	assert.Empty(t, notifier.errs)
	assert.Empty(t, notifier.successes)
	assert.Empty(t, publisher.events)
}

func TestDeleteAll_FailureNotifiesAndResets(t *testing.T) {
	deleter := &fakeDeleter{deleteAllErr: errors.New("boom")}
	guard, records, _, notifier, _ := newTestGuard(deleter)

	require.NoError(t, guard.RequestDeleteAll())
	require.NoError(t, guard.Confirm(context.Background()))
	err := guard.ConfirmPhrase(context.Background(), ConfirmAllPhrase)
	require.Error(t, err)

	assert.Equal(t, StateIdle, guard.State())
	assert.Empty(t, records.cleared)
	assert.Len(t, notifier.errs, 1)
}

func TestConfirmPhrase_WithoutPendingOperation(t *testing.T) {
	guard, _, _, _, _ := newTestGuard(&fakeDeleter{})
	assert.ErrorIs(t, guard.ConfirmPhrase(context.Background(), ConfirmAllPhrase), shared.ErrNoPendingOperation)
}

func TestPending_ReportsOperation(t *testing.T) {
	guard, _, _, _, _ := newTestGuard(&fakeDeleter{})

	_, _, ok := guard.Pending()
	assert.False(t, ok)

	require.NoError(t, guard.RequestDelete("s9"))
	kind, id, ok := guard.Pending()
	assert.True(t, ok)
	assert.Equal(t, OpDeleteStudent, kind)
	assert.Equal(t, student.StudentID("s9"), id)
}
