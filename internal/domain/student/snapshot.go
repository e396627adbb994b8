package student

import (
	"time"
)

// Snapshot is the last known good view of the record store, persisted after
// a successful full refresh. A new session hydrates from it (marked stale)
// while the first real fetch is in flight; it is never a source of truth.
type Snapshot struct {
	Students []StudentRecord `json:"students"`
	Summary  Summary         `json:"summary"`
	SavedAt  time.Time       `json:"saved_at"`
}

// IsEmpty reports whether the snapshot carries no records.
func (s Snapshot) IsEmpty() bool {
	return len(s.Students) == 0 && s.Summary.IsZero()
}

// Age returns how old the snapshot is at time t.
func (s Snapshot) Age(t time.Time) time.Duration {
	return t.Sub(s.SavedAt)
}
