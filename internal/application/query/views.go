// Package query projects stored student records into role-specific
// read models. Projections never write and never recompute derived
// fields: a risk tier or completion flag the collaborator has not
// produced yet renders as a defined placeholder, not a local guess.
package query

import (
	"fmt"
	"sort"
	"strings"

	"github.com/edurisk/atrisk-tracker/internal/domain/student"
)

// Placeholder renders in place of any value the collaborator has not
// supplied yet.
const Placeholder = "—"

// RiskPendingLabel renders while the risk classification is absent.
const RiskPendingLabel = "pending"

// RecordSource is the read side of the record store.
type RecordSource interface {
	Students() []student.StudentRecord
	Student(id student.StudentID) (student.StudentRecord, bool)
	Summary() student.Summary
	Stale() bool
}

// Views builds projections over a record source.
type Views struct {
	source RecordSource
}

func NewViews(source RecordSource) *Views {
	return &Views{source: source}
}

// ═══════════════════════════════════════════════════════════════════════════
// VIEW MODELS
// ═══════════════════════════════════════════════════════════════════════════

// ExamView is the exam department's slice of one record.
type ExamView struct {
	StudentID string
	Name      string
	Scores    map[string]float64
	ExamType  string
	HasData   bool
}

// FacultyView is the faculty's slice: attendance only.
type FacultyView struct {
	StudentID  string
	Name       string
	Attendance string
	HasData    bool
}

// GuardianView is the guardian's slice: fees only.
type GuardianView struct {
	StudentID  string
	Name       string
	FeesStatus string
	AmountPaid string
	AmountDue  string
	DueDate    string
	HasData    bool
}

// DashboardCard is the full per-student card shown on the main screen.
type DashboardCard struct {
	StudentID       string
	Name            string
	RiskLevel       string
	RiskScore       string
	RiskFactors     []string
	Recommendations []string
	Completion      CompletionView
	DataComplete    bool
}

// CompletionView reports which actor partitions have contributed.
type CompletionView struct {
	Exam       bool
	Attendance bool
	Fees       bool
}

// SummaryView is the dashboard headline row.
type SummaryView struct {
	Total  int
	High   int
	Medium int
	Low    int
	Stale  bool
}

// ═══════════════════════════════════════════════════════════════════════════
// PROJECTIONS
// ═══════════════════════════════════════════════════════════════════════════

// Summary projects the risk distribution plus the staleness flag of the
// backing data.
func (v *Views) Summary() SummaryView {
	s := v.source.Summary()
	return SummaryView{
		Total:  s.Total,
		High:   s.High,
		Medium: s.Medium,
		Low:    s.Low,
		Stale:  v.source.Stale(),
	}
}

// ExamViews lists the exam department's view of every record, sorted by
// student ID for stable rendering.
func (v *Views) ExamViews() []ExamView {
	records := v.source.Students()
	views := make([]ExamView, 0, len(records))
	for _, rec := range records {
		views = append(views, projectExam(rec))
	}
	sortByID(views, func(e ExamView) string { return e.StudentID })
	return views
}

// FacultyViews lists attendance for every record.
func (v *Views) FacultyViews() []FacultyView {
	records := v.source.Students()
	views := make([]FacultyView, 0, len(records))
	for _, rec := range records {
		views = append(views, projectFaculty(rec))
	}
	sortByID(views, func(f FacultyView) string { return f.StudentID })
	return views
}

// GuardianViews lists fees state for every record.
func (v *Views) GuardianViews() []GuardianView {
	records := v.source.Students()
	views := make([]GuardianView, 0, len(records))
	for _, rec := range records {
		views = append(views, projectGuardian(rec))
	}
	sortByID(views, func(g GuardianView) string { return g.StudentID })
	return views
}

// DashboardCards lists the full card for every record, those at highest
// risk first, then by ID.
func (v *Views) DashboardCards() []DashboardCard {
	records := v.source.Students()
	cards := make([]DashboardCard, 0, len(records))
	for _, rec := range records {
		cards = append(cards, projectCard(rec))
	}
	sort.SliceStable(cards, func(i, j int) bool {
		ri, rj := riskRank(cards[i].RiskLevel), riskRank(cards[j].RiskLevel)
		if ri != rj {
			return ri < rj
		}
		return cards[i].StudentID < cards[j].StudentID
	})
	return cards
}

// Card projects a single student's dashboard card.
func (v *Views) Card(id student.StudentID) (DashboardCard, bool) {
	rec, ok := v.source.Student(id)
	if !ok {
		return DashboardCard{}, false
	}
	return projectCard(rec), true
}

// ═══════════════════════════════════════════════════════════════════════════
// PROJECTION HELPERS
// ═══════════════════════════════════════════════════════════════════════════

func projectExam(rec student.StudentRecord) ExamView {
	view := ExamView{
		StudentID: rec.ID.String(),
		Name:      displayName(rec.Name),
		ExamType:  Placeholder,
	}
	if rec.Exam == nil {
		return view
	}
	view.HasData = true
	view.Scores = rec.Exam.Scores
	if rec.Exam.ExamType != "" {
		view.ExamType = rec.Exam.ExamType
	}
	return view
}

func projectFaculty(rec student.StudentRecord) FacultyView {
	view := FacultyView{
		StudentID:  rec.ID.String(),
		Name:       displayName(rec.Name),
		Attendance: Placeholder,
	}
	if rec.Faculty == nil {
		return view
	}
	view.HasData = true
	view.Attendance = fmt.Sprintf("%.1f%%", rec.Faculty.AttendanceRate)
	return view
}

func projectGuardian(rec student.StudentRecord) GuardianView {
	view := GuardianView{
		StudentID:  rec.ID.String(),
		Name:       displayName(rec.Name),
		FeesStatus: Placeholder,
		AmountPaid: Placeholder,
		AmountDue:  Placeholder,
		DueDate:    Placeholder,
	}
	if rec.Guardian == nil {
		return view
	}
	view.HasData = true
	view.FeesStatus = string(rec.Guardian.FeesStatus)
	view.AmountPaid = fmt.Sprintf("%.2f", rec.Guardian.AmountPaid)
	view.AmountDue = fmt.Sprintf("%.2f", rec.Guardian.AmountDue)
	if !rec.Guardian.DueDate.IsZero() {
		view.DueDate = rec.Guardian.DueDate.Format("2006-01-02")
	}
	return view
}

func projectCard(rec student.StudentRecord) DashboardCard {
	card := DashboardCard{
		StudentID: rec.ID.String(),
		Name:      displayName(rec.Name),
		RiskLevel: RiskPendingLabel,
		RiskScore: Placeholder,
		Completion: CompletionView{
			Exam:       rec.Completion.Exam,
			Attendance: rec.Completion.Attendance,
			Fees:       rec.Completion.Fees,
		},
		DataComplete: rec.Completion.DataComplete,
	}
	if rec.Risk == nil {
		return card
	}
	if rec.Risk.Level.IsValid() {
		card.RiskLevel = string(rec.Risk.Level)
		card.RiskScore = fmt.Sprintf("%.0f", rec.Risk.Score)
	}
	card.RiskFactors = rec.Risk.Factors
	card.Recommendations = rec.Risk.Recommendations
	return card
}

func displayName(name string) string {
	if strings.TrimSpace(name) == "" {
		return Placeholder
	}
	return name
}

// riskRank orders high before medium before low before pending.
func riskRank(level string) int {
	switch student.RiskLevel(level) {
	case student.RiskHigh:
		return 0
	case student.RiskMedium:
		return 1
	case student.RiskLow:
		return 2
	default:
		return 3
	}
}

func sortByID[T any](views []T, key func(T) string) {
	sort.Slice(views, func(i, j int) bool { return key(views[i]) < key(views[j]) })
}
