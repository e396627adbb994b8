// Package student contains the domain model for at-risk student records.
// A record is assembled incrementally from contributions made by three
// unrelated actors (exam department, faculty, guardian); the risk
// classification itself is computed by an external collaborator and is
// read-only here. This is the core business logic - no external dependencies.
package student

import (
	"strings"
	"time"

	"github.com/edurisk/atrisk-tracker/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// VALUE OBJECTS
// ══════════════════════════════════════════════════════════════════════════════

// StudentID is the stable, unique identity of a student record. It is
// assigned or validated on the first ingestion from any actor.
type StudentID string

// IsValid reports whether the ID is usable as a record identity.
func (id StudentID) IsValid() bool {
	s := string(id)
	return len(s) > 0 && len(s) <= 64 && !strings.ContainsAny(s, " \t\n\r")
}

// String returns the string representation of the ID.
func (id StudentID) String() string {
	return string(id)
}

// ══════════════════════════════════════════════════════════════════════════════
// ENUMS
// ══════════════════════════════════════════════════════════════════════════════

// FeesStatus is the guardian-reported payment state.
type FeesStatus string

const (
	FeesComplete FeesStatus = "Complete"
	FeesPartial  FeesStatus = "Partial"
	FeesDue      FeesStatus = "Due"
	FeesOverdue  FeesStatus = "Overdue"
	FeesPending  FeesStatus = "pending"
)

// IsValid checks that the status is one of the known values.
func (f FeesStatus) IsValid() bool {
	switch f {
	case FeesComplete, FeesPartial, FeesDue, FeesOverdue, FeesPending:
		return true
	default:
		return false
	}
}

// ParseFeesStatus normalizes a raw cell/wire value into a FeesStatus.
// Unknown values map to FeesPending rather than failing the row.
func ParseFeesStatus(raw string) FeesStatus {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "complete", "paid":
		return FeesComplete
	case "partial":
		return FeesPartial
	case "due":
		return FeesDue
	case "overdue":
		return FeesOverdue
	default:
		return FeesPending
	}
}

// RiskLevel is the externally computed classification. The zero value means
// the collaborator has not produced a classification yet.
type RiskLevel string

const (
	RiskUnknown RiskLevel = ""
	RiskLow     RiskLevel = "low"
	RiskMedium  RiskLevel = "medium"
	RiskHigh    RiskLevel = "high"
)

// IsValid checks that the level is a known classification.
func (r RiskLevel) IsValid() bool {
	switch r {
	case RiskLow, RiskMedium, RiskHigh:
		return true
	default:
		return false
	}
}

// ParseRiskLevel normalizes a wire value; anything unrecognized is RiskUnknown.
func ParseRiskLevel(raw string) RiskLevel {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "low":
		return RiskLow
	case "medium":
		return RiskMedium
	case "high":
		return RiskHigh
	default:
		return RiskUnknown
	}
}

// ══════════════════════════════════════════════════════════════════════════════
// CONTRIBUTIONS (per-actor field partitions)
// ══════════════════════════════════════════════════════════════════════════════

// ExamContribution holds the fields owned by the exam department.
type ExamContribution struct {
	Scores   map[string]float64 `json:"scores"`
	ExamType string             `json:"exam_type"`
}

// FacultyContribution holds the fields owned by faculty.
type FacultyContribution struct {
	AttendanceRate float64 `json:"attendance_rate"` // 0-100
}

// GuardianContribution holds the fields owned by the guardian.
type GuardianContribution struct {
	FeesStatus FeesStatus `json:"fees_status"`
	AmountPaid float64    `json:"amount_paid"`
	AmountDue  float64    `json:"amount_due"`
	DueDate    time.Time  `json:"due_date"`
}

// RiskAssessment is the derived slice of a record. It is written only when
// mapped from the external collaborator's responses, never computed locally.
type RiskAssessment struct {
	Level           RiskLevel `json:"level"`
	Score           float64   `json:"score"` // 0-100
	Factors         []string  `json:"factors"`
	Recommendations []string  `json:"recommendations"`
}

// Completion tracks which actors have contributed at least once, plus the
// collaborator's overall data-complete verdict.
type Completion struct {
	Exam         bool `json:"exam"`
	Attendance   bool `json:"attendance"`
	Fees         bool `json:"fees"`
	DataComplete bool `json:"data_complete"`
}

// ══════════════════════════════════════════════════════════════════════════════
// STUDENT RECORD
// ══════════════════════════════════════════════════════════════════════════════

// StudentRecord is the aggregate assembled from independent actor
// contributions. Nil contribution pointers mean that actor has not
// contributed yet.
type StudentRecord struct {
	ID   StudentID `json:"student_id"`
	Name string    `json:"name"`

	Exam     *ExamContribution     `json:"exam,omitempty"`
	Faculty  *FacultyContribution  `json:"faculty,omitempty"`
	Guardian *GuardianContribution `json:"guardian,omitempty"`

	Risk       *RiskAssessment `json:"risk,omitempty"`
	Completion Completion      `json:"completion"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewStudentRecord creates a record from its shared identity fields.
func NewStudentRecord(id StudentID, name string) (*StudentRecord, error) {
	if !id.IsValid() {
		return nil, shared.ErrInvalidStudentID
	}
	now := time.Now()
	return &StudentRecord{
		ID:        id,
		Name:      strings.TrimSpace(name),
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

// touch bumps the modification timestamp.
func (r *StudentRecord) touch() {
	r.UpdatedAt = time.Now()
}

// HasRisk reports whether the external collaborator has produced a
// classification for this record.
func (r *StudentRecord) HasRisk() bool {
	return r.Risk != nil && r.Risk.Level.IsValid()
}

// Clone returns a deep copy of the record. Store reads hand out clones so
// that no caller can mutate cached state in place.
func (r *StudentRecord) Clone() *StudentRecord {
	if r == nil {
		return nil
	}
	cp := *r
	if r.Exam != nil {
		exam := *r.Exam
		if r.Exam.Scores != nil {
			exam.Scores = make(map[string]float64, len(r.Exam.Scores))
			for k, v := range r.Exam.Scores {
				exam.Scores[k] = v
			}
		}
		cp.Exam = &exam
	}
	if r.Faculty != nil {
		faculty := *r.Faculty
		cp.Faculty = &faculty
	}
	if r.Guardian != nil {
		guardian := *r.Guardian
		cp.Guardian = &guardian
	}
	if r.Risk != nil {
		risk := *r.Risk
		risk.Factors = append([]string(nil), r.Risk.Factors...)
		risk.Recommendations = append([]string(nil), r.Risk.Recommendations...)
		cp.Risk = &risk
	}
	return &cp
}

// ══════════════════════════════════════════════════════════════════════════════
// SUMMARY
// ══════════════════════════════════════════════════════════════════════════════

// Summary holds aggregate counts by risk tier. It is recomputed by the
// external API and cached alongside the record list; the two are always
// invalidated together.
type Summary struct {
	Total  int `json:"total"`
	High   int `json:"high"`
	Medium int `json:"medium"`
	Low    int `json:"low"`
}

// IsZero reports whether the summary carries no counts.
func (s Summary) IsZero() bool {
	return s == Summary{}
}
