// Package destructive gates irreversible delete operations behind an
// explicit confirmation state machine. No delete request reaches the
// network until every required confirmation step has been taken, and a
// failed or abandoned confirmation always lands back in the idle state
// with zero side effects.
package destructive

import (
	"context"
	"fmt"
	"sync"

	"github.com/edurisk/atrisk-tracker/internal/domain/shared"
	"github.com/edurisk/atrisk-tracker/internal/domain/student"
	"github.com/edurisk/atrisk-tracker/pkg/logger"
)

// ConfirmAllPhrase must be typed exactly, case included, to confirm the
// delete-everything operation. Anything else cancels silently.
const ConfirmAllPhrase = "DELETE ALL STUDENTS"

// ═══════════════════════════════════════════════════════════════════════════
// STATES
// ═══════════════════════════════════════════════════════════════════════════

// State is the guard's position in the confirmation flow.
type State string

const (
	StateIdle                 State = "idle"
	StateAwaitingConfirmation State = "awaiting_confirmation"
	StateAwaitingTypedPhrase  State = "awaiting_typed_phrase"
	StateExecuting            State = "executing"
)

// OperationKind distinguishes the two destructive flows.
type OperationKind string

const (
	OpDeleteStudent OperationKind = "delete_student"
	OpDeleteAll     OperationKind = "delete_all"
)

// ═══════════════════════════════════════════════════════════════════════════
// COLLABORATOR INTERFACES
// ═══════════════════════════════════════════════════════════════════════════

// Deleter performs the remote deletes.
type Deleter interface {
	DeleteStudent(ctx context.Context, id student.StudentID) (int, error)
	DeleteAllStudents(ctx context.Context) (int, error)
}

// RecordSink mirrors confirmed deletes into the local store.
type RecordSink interface {
	RemoveStudent(id student.StudentID) bool
	Clear(reason string)
}

// Refresher schedules the post-delete data refresh.
type Refresher interface {
	RefreshData()
}

// Notifier surfaces outcomes to the operator.
type Notifier interface {
	Success(message string)
	Error(message string)
}

// ═══════════════════════════════════════════════════════════════════════════
// GUARD
// ═══════════════════════════════════════════════════════════════════════════

// Guard is the confirmation state machine. A single delete needs one
// confirmation; delete-all needs a confirmation AND the typed phrase.
// Only one pending operation exists at a time.
type Guard struct {
	mu        sync.Mutex
	state     State
	pending   OperationKind
	pendingID student.StudentID

	deleter   Deleter
	records   RecordSink
	refresher Refresher
	notifier  Notifier
	publisher shared.EventPublisher
	logger    *logger.Logger
}

func NewGuard(deleter Deleter, records RecordSink, refresher Refresher, notifier Notifier, publisher shared.EventPublisher, log *logger.Logger) *Guard {
	if log == nil {
		log = logger.Discard()
	}
	return &Guard{
		state:     StateIdle,
		deleter:   deleter,
		records:   records,
		refresher: refresher,
		notifier:  notifier,
		publisher: publisher,
		logger:    log.With(logger.Component("destructive")),
	}
}

// State returns the guard's current position.
func (g *Guard) State() State {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.state
}

// Pending returns the operation awaiting confirmation, if any.
func (g *Guard) Pending() (OperationKind, student.StudentID, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.state == StateIdle {
		return "", "", false
	}
	return g.pending, g.pendingID, true
}

// RequestDelete opens the confirmation flow for one student.
func (g *Guard) RequestDelete(id student.StudentID) error {
	if !id.IsValid() {
		return shared.ErrInvalidStudentID
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.state != StateIdle {
		return shared.ErrGuardBusy
	}
	g.state = StateAwaitingConfirmation
	g.pending = OpDeleteStudent
	g.pendingID = id
	return nil
}

// RequestDeleteAll opens the confirmation flow for wiping every record.
func (g *Guard) RequestDeleteAll() error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.state != StateIdle {
		return shared.ErrGuardBusy
	}
	g.state = StateAwaitingConfirmation
	g.pending = OpDeleteAll
	g.pendingID = ""
	return nil
}

// Cancel abandons the pending operation from any pre-execution state.
func (g *Guard) Cancel() {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.state == StateExecuting {
		return
	}
	g.reset()
}

// Confirm advances the flow. For a single delete this executes the
// operation; for delete-all it moves to the typed-phrase step.
func (g *Guard) Confirm(ctx context.Context) error {
	g.mu.Lock()
	if g.state != StateAwaitingConfirmation {
		g.mu.Unlock()
		return shared.ErrNoPendingOperation
	}
	if g.pending == OpDeleteAll {
		g.state = StateAwaitingTypedPhrase
		g.mu.Unlock()
		return nil
	}
	id := g.pendingID
	g.state = StateExecuting
	g.mu.Unlock()

	return g.executeDelete(ctx, id)
}

// ConfirmPhrase completes the delete-all flow. The phrase must match
// ConfirmAllPhrase exactly; a mismatch cancels the operation silently
// without any network call.
func (g *Guard) ConfirmPhrase(ctx context.Context, phrase string) error {
	g.mu.Lock()
	if g.state != StateAwaitingTypedPhrase {
		g.mu.Unlock()
		return shared.ErrNoPendingOperation
	}
	if phrase != ConfirmAllPhrase {
		g.reset()
		g.mu.Unlock()
		g.logger.Info("delete-all cancelled by phrase mismatch")
		return nil
	}
	g.state = StateExecuting
	g.mu.Unlock()

	return g.executeDeleteAll(ctx)
}

// reset returns to idle; the caller holds the lock.
func (g *Guard) reset() {
	g.state = StateIdle
	g.pending = ""
	g.pendingID = ""
}

func (g *Guard) finish() {
	g.mu.Lock()
	g.reset()
	g.mu.Unlock()
}

func (g *Guard) executeDelete(ctx context.Context, id student.StudentID) error {
	defer g.finish()

	if _, err := g.deleter.DeleteStudent(ctx, id); err != nil {
		g.logger.Warn("delete failed", logger.StudentID(id.String()), logger.Err(err))
		if g.notifier != nil {
			g.notifier.Error(fmt.Sprintf("Failed to delete student %s", id))
		}
		return err
	}

	if g.records != nil {
		g.records.RemoveStudent(id)
	}
	g.publish(NewRecordDeletedEvent(id))
	if g.notifier != nil {
		g.notifier.Success(fmt.Sprintf("Student %s deleted", id))
	}
	if g.refresher != nil {
		g.refresher.RefreshData()
	}
	g.logger.Info("student deleted", logger.StudentID(id.String()))
	return nil
}

func (g *Guard) executeDeleteAll(ctx context.Context) error {
	defer g.finish()

	deleted, err := g.deleter.DeleteAllStudents(ctx)
	if err != nil {
		g.logger.Warn("delete-all failed", logger.Err(err))
		if g.notifier != nil {
			g.notifier.Error("Failed to delete all students")
		}
		return err
	}

	if g.records != nil {
		g.records.Clear("delete_all")
	}
	g.publish(NewAllRecordsDeletedEvent(deleted))
	if g.notifier != nil {
		g.notifier.Success(fmt.Sprintf("Deleted %d student(s)", deleted))
	}
	g.logger.Info("all students deleted", logger.Count(deleted))
	return nil
}

func (g *Guard) publish(event shared.Event) {
	if g.publisher == nil {
		return
	}
	if err := g.publisher.Publish(event); err != nil {
		g.logger.Warn("event publish failed", logger.Err(err))
	}
}
