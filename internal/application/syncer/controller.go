package syncer

import (
	"context"
	"sync"
	"time"

	"github.com/edurisk/atrisk-tracker/internal/domain/shared"
	"github.com/edurisk/atrisk-tracker/internal/domain/student"
	"github.com/edurisk/atrisk-tracker/internal/infrastructure/external/trackerapi"
	"github.com/edurisk/atrisk-tracker/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// DEPENDENCIES (Interfaces)
// ══════════════════════════════════════════════════════════════════════════════

// API is the slice of the tracker client the controller consumes.
type API interface {
	ListStudents(ctx context.Context, filters trackerapi.Filters) ([]student.StudentRecord, error)
	GetSummary(ctx context.Context) (student.Summary, error)
	Recalculate(ctx context.Context, id student.StudentID) (student.StudentRecord, error)
	CleanupDuplicates(ctx context.Context) (int, error)
}

// Session gates all network access.
type Session interface {
	IsAuthenticated() bool
}

// RecordSink is the record store surface the controller writes through.
type RecordSink interface {
	ReplaceStudents(records []student.StudentRecord, stale bool)
	ReplaceSummary(sum student.Summary)
	ZeroSummary()
	UpsertStudent(rec student.StudentRecord)
	Clear(reason string)
	Students() []student.StudentRecord
	Summary() student.Summary
}

// Notifier surfaces user-visible failures.
type Notifier interface {
	Error(message string)
	Success(message string)
}

// SnapshotCache persists the last good store view for warm starts.
type SnapshotCache interface {
	Save(ctx context.Context, snap student.Snapshot) error
	Load(ctx context.Context) (*student.Snapshot, error)
}

// ══════════════════════════════════════════════════════════════════════════════
// CONTROLLER
// ══════════════════════════════════════════════════════════════════════════════

// Config tunes the controller.
type Config struct {
	// DebounceWindow coalesces rapid RefreshData triggers.
	DebounceWindow time.Duration

	// FetchTimeout bounds the background fetches fired by RefreshData.
	FetchTimeout time.Duration
}

// Controller owns the decision of when to (re)fetch records and summary.
// Authorization failures are recovered locally into an empty-but-valid
// state; every other failure is surfaced and nothing is retried silently.
type Controller struct {
	api       API
	store     RecordSink
	session   Session
	gate      *RouteGate
	notifier  Notifier
	snapshots SnapshotCache // optional
	logger    *logger.Logger

	debouncer    *Debouncer
	fetchTimeout time.Duration

	mu    sync.RWMutex
	route string
}

// NewController wires the sync controller. snapshots may be nil.
func NewController(api API, store RecordSink, session Session, gate *RouteGate, notifier Notifier, snapshots SnapshotCache, cfg Config, log *logger.Logger) *Controller {
	if log == nil {
		log = logger.Default()
	}
	if cfg.FetchTimeout <= 0 {
		cfg.FetchTimeout = 30 * time.Second
	}
	return &Controller{
		api:          api,
		store:        store,
		session:      session,
		gate:         gate,
		notifier:     notifier,
		snapshots:    snapshots,
		logger:       log.With(logger.Component("syncer")),
		debouncer:    NewDebouncer(cfg.DebounceWindow),
		fetchTimeout: cfg.FetchTimeout,
		route:        "/",
	}
}

// SetRoute records the current screen; the gate re-evaluates on every call.
func (c *Controller) SetRoute(path string) {
	c.mu.Lock()
	c.route = path
	c.mu.Unlock()
}

// Route returns the current screen path.
func (c *Controller) Route() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.route
}

// allowed checks the session and route gates. Disallowed syncs are silent
// no-ops: no queueing, no error, no state change.
func (c *Controller) allowed() bool {
	if !c.session.IsAuthenticated() {
		return false
	}
	return c.gate.IsSyncAllowed(c.Route())
}

// FetchStudents fetches and full-replaces the student list.
func (c *Controller) FetchStudents(ctx context.Context, filters trackerapi.Filters) error {
	if !c.allowed() {
		return nil
	}

	records, err := c.api.ListStudents(ctx, filters)
	if err != nil {
		if shared.IsAuthorization(err) {
			// Recover locally: empty-but-valid state, user must sign in again.
			c.logger.Warn("authorization failure on fetch, clearing store")
			c.store.Clear("reauth")
			return nil
		}
		c.logger.Error("fetch students failed", logger.Err(err))
		c.notifier.Error("Could not load students. Please try again.")
		return err
	}

	// A response landing after logout must be discarded, not applied.
	if !c.session.IsAuthenticated() {
		c.logger.Debug("discarding fetch result after logout")
		return nil
	}

	c.store.ReplaceStudents(records, false)
	c.saveSnapshot(ctx)
	return nil
}

// FetchSummary fetches the risk-tier summary. On failure the summary is
// zeroed rather than left stale, so misleading counts are never shown.
func (c *Controller) FetchSummary(ctx context.Context) error {
	if !c.allowed() {
		return nil
	}

	sum, err := c.api.GetSummary(ctx)
	if err != nil {
		if shared.IsAuthorization(err) {
			c.store.Clear("reauth")
			return nil
		}
		c.logger.Error("fetch summary failed", logger.Err(err))
		c.store.ZeroSummary()
		c.notifier.Error("Could not load dashboard summary.")
		return err
	}

	if !c.session.IsAuthenticated() {
		return nil
	}

	c.store.ReplaceSummary(sum)
	return nil
}

// RefreshData coalesces rapid manual refresh triggers into a single pair of
// fetches. A pending refresh is replaced, never double-fired. The two
// fetches run concurrently and independently.
func (c *Controller) RefreshData() {
	c.debouncer.Trigger(func() {
		ctx, cancel := context.WithTimeout(context.Background(), c.fetchTimeout)
		var wg sync.WaitGroup
		wg.Add(2)
		go func() {
			defer wg.Done()
			_ = c.FetchStudents(ctx, trackerapi.Filters{})
		}()
		go func() {
			defer wg.Done()
			_ = c.FetchSummary(ctx)
		}()
		go func() {
			wg.Wait()
			cancel()
		}()
	})
}

// Recalculate asks the collaborator to re-score one student and upserts the
// reclassified record.
func (c *Controller) Recalculate(ctx context.Context, id student.StudentID) error {
	if !c.allowed() {
		return nil
	}

	rec, err := c.api.Recalculate(ctx, id)
	if err != nil {
		if shared.IsAuthorization(err) {
			c.store.Clear("reauth")
			return nil
		}
		c.logger.Error("recalculate failed", logger.StudentID(id.String()), logger.Err(err))
		c.notifier.Error("Risk recalculation failed.")
		return err
	}

	if !c.session.IsAuthenticated() {
		return nil
	}

	c.store.UpsertStudent(rec)
	// Tier counts may have shifted; pick up the new summary within one
	// debounce window.
	c.RefreshData()
	return nil
}

// CleanupDuplicates triggers the server-side duplicate repair operation and
// refreshes the store afterwards.
func (c *Controller) CleanupDuplicates(ctx context.Context) error {
	if !c.allowed() {
		return nil
	}

	removed, err := c.api.CleanupDuplicates(ctx)
	if err != nil {
		if shared.IsAuthorization(err) {
			c.store.Clear("reauth")
			return nil
		}
		c.logger.Error("cleanup duplicates failed", logger.Err(err))
		c.notifier.Error("Duplicate cleanup failed.")
		return err
	}

	c.logger.Info("duplicates cleaned", logger.Count(removed))
	if removed > 0 {
		c.notifier.Success("Duplicate records cleaned up.")
	}
	c.RefreshData()
	return nil
}

// Hydrate warms the store from the last persisted snapshot, marked stale,
// while the first real fetch is in flight. Silent no-op without a cache,
// without a session, or on a cache miss.
func (c *Controller) Hydrate(ctx context.Context) {
	if c.snapshots == nil || !c.session.IsAuthenticated() {
		return
	}

	snap, err := c.snapshots.Load(ctx)
	if err != nil || snap == nil || snap.IsEmpty() {
		return
	}

	c.store.ReplaceStudents(snap.Students, true)
	c.store.ReplaceSummary(snap.Summary)
	c.logger.Info("store hydrated from snapshot", logger.Count(len(snap.Students)))
}

// Stop cancels any pending debounced refresh.
func (c *Controller) Stop() {
	c.debouncer.Cancel()
}

func (c *Controller) saveSnapshot(ctx context.Context) {
	if c.snapshots == nil {
		return
	}
	snap := student.Snapshot{
		Students: c.store.Students(),
		Summary:  c.store.Summary(),
		SavedAt:  time.Now(),
	}
	if err := c.snapshots.Save(ctx, snap); err != nil {
		c.logger.Warn("snapshot save failed", logger.Err(err))
	}
}
