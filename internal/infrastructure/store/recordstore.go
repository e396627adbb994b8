// Package store implements the in-memory record store: the single mutable
// shared resource of a client session. All writes go through reducer-style
// transitions; no component mutates a StudentRecord in place from outside.
package store

import (
	"sort"
	"sync"

	"github.com/edurisk/atrisk-tracker/internal/domain/shared"
	"github.com/edurisk/atrisk-tracker/internal/domain/student"
	"github.com/edurisk/atrisk-tracker/pkg/logger"
)

// RecordStore caches the student list and its derived risk-tier summary.
// The two are invalidated together: a summary is never left stale for more
// than one refresh cycle after the list changes.
type RecordStore struct {
	mu      sync.RWMutex
	records map[student.StudentID]*student.StudentRecord
	order   []student.StudentID
	summary student.Summary

	// stale marks data hydrated from a snapshot rather than the API.
	stale bool

	// reauthRequired is set when an authorization failure emptied the store;
	// views render a "sign in again" state instead of "no students".
	reauthRequired bool

	bus    shared.EventPublisher
	logger *logger.Logger
}

// New creates an empty record store. The bus may be nil (events dropped).
func New(bus shared.EventPublisher, log *logger.Logger) *RecordStore {
	if log == nil {
		log = logger.Default()
	}
	return &RecordStore{
		records: make(map[student.StudentID]*student.StudentRecord),
		bus:     bus,
		logger:  log.With(logger.Component("recordstore")),
	}
}

// ══════════════════════════════════════════════════════════════════════════════
// TRANSITIONS (the only write paths)
// ══════════════════════════════════════════════════════════════════════════════

// ReplaceStudents applies full-replace semantics after a fetch: the server is
// the source of truth per fetch, so no incremental merging happens here.
func (s *RecordStore) ReplaceStudents(records []student.StudentRecord, stale bool) {
	s.mu.Lock()
	s.records = make(map[student.StudentID]*student.StudentRecord, len(records))
	s.order = make([]student.StudentID, 0, len(records))
	for i := range records {
		rec := records[i].Clone()
		if _, dup := s.records[rec.ID]; dup {
			// Duplicate IDs in one payload: last one wins, order keeps the
			// first position. The server-side cleanup operation repairs the
			// underlying duplication.
			s.records[rec.ID] = rec
			continue
		}
		s.records[rec.ID] = rec
		s.order = append(s.order, rec.ID)
	}
	s.stale = stale
	s.reauthRequired = false
	s.mu.Unlock()

	s.publish(student.NewRecordsReplacedEvent(len(records), stale))
}

// ReplaceSummary swaps in a freshly computed summary.
func (s *RecordStore) ReplaceSummary(sum student.Summary) {
	s.mu.Lock()
	s.summary = sum
	s.mu.Unlock()

	s.publish(student.NewSummaryReplacedEvent(sum))
}

// ZeroSummary resets the summary after a failed summary fetch so stale
// aggregate counts are never shown.
func (s *RecordStore) ZeroSummary() {
	s.ReplaceSummary(student.Summary{})
}

// UpsertStudent creates or replaces a single record (e.g. from a
// recalculate response).
func (s *RecordStore) UpsertStudent(rec student.StudentRecord) {
	s.mu.Lock()
	_, existed := s.records[rec.ID]
	s.records[rec.ID] = rec.Clone()
	if !existed {
		s.order = append(s.order, rec.ID)
	}
	s.mu.Unlock()

	s.publish(student.NewRecordUpsertedEvent(rec.ID, "", !existed))
}

// ApplyContribution merges one actor's contribution into the identified
// record, creating it on first contact. The domain's field-ownership map
// guarantees no other actor's fields are altered. This is the optimistic
// local echo after an upload; the authoritative refresh replaces it.
func (s *RecordStore) ApplyContribution(c student.Contribution) error {
	s.mu.Lock()
	rec, ok := s.records[c.StudentID]
	var created bool
	var err error
	if ok {
		err = rec.ApplyContribution(c)
	} else {
		rec, err = student.FromContribution(c)
		if err == nil {
			s.records[c.StudentID] = rec
			s.order = append(s.order, c.StudentID)
			created = true
		}
	}
	s.mu.Unlock()

	if err != nil {
		return err
	}
	s.publish(student.NewRecordUpsertedEvent(c.StudentID, c.Partition, created))
	return nil
}

// RemoveStudent drops a single record, e.g. after a confirmed delete.
func (s *RecordStore) RemoveStudent(id student.StudentID) bool {
	s.mu.Lock()
	_, ok := s.records[id]
	if ok {
		delete(s.records, id)
		for i, oid := range s.order {
			if oid == id {
				s.order = append(s.order[:i], s.order[i+1:]...)
				break
			}
		}
	}
	s.mu.Unlock()

	if ok {
		s.publish(student.NewRecordRemovedEvent(id))
	}
	return ok
}

// Clear empties the store and zeroes the summary. Used on logout teardown,
// delete-all, and authorization-failure recovery.
func (s *RecordStore) Clear(reason string) {
	s.mu.Lock()
	s.records = make(map[student.StudentID]*student.StudentRecord)
	s.order = nil
	s.summary = student.Summary{}
	s.stale = false
	s.reauthRequired = reason == "reauth"
	s.mu.Unlock()

	s.publish(student.NewStoreClearedEvent(reason))
}

// ══════════════════════════════════════════════════════════════════════════════
// READS (snapshot semantics, no aliasing of internal state)
// ══════════════════════════════════════════════════════════════════════════════

// Students returns a copy of the cached record list in server order.
func (s *RecordStore) Students() []student.StudentRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]student.StudentRecord, 0, len(s.order))
	for _, id := range s.order {
		if rec, ok := s.records[id]; ok {
			out = append(out, *rec.Clone())
		}
	}
	return out
}

// Student returns a copy of one record.
func (s *RecordStore) Student(id student.StudentID) (student.StudentRecord, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.records[id]
	if !ok {
		return student.StudentRecord{}, false
	}
	return *rec.Clone(), true
}

// Summary returns the cached risk-tier summary.
func (s *RecordStore) Summary() student.Summary {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.summary
}

// Len returns the number of cached records.
func (s *RecordStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}

// Stale reports whether the current contents came from a warm-start
// snapshot rather than the API.
func (s *RecordStore) Stale() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.stale
}

// ReauthRequired reports whether the store was emptied by an authorization
// failure and the user must sign in again.
func (s *RecordStore) ReauthRequired() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.reauthRequired
}

// IDs returns the cached student IDs, sorted, for diagnostics.
func (s *RecordStore) IDs() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := make([]string, 0, len(s.records))
	for id := range s.records {
		ids = append(ids, id.String())
	}
	sort.Strings(ids)
	return ids
}

func (s *RecordStore) publish(e shared.Event) {
	if s.bus == nil {
		return
	}
	if err := s.bus.Publish(e); err != nil {
		s.logger.Warn("event publish failed", logger.Err(err), logger.String("event_type", string(e.EventType())))
	}
}
