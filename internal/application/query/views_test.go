package query

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edurisk/atrisk-tracker/internal/domain/student"
)

type fakeSource struct {
	students []student.StudentRecord
	summary  student.Summary
	stale    bool
}

func (f *fakeSource) Students() []student.StudentRecord { return f.students }

func (f *fakeSource) Student(id student.StudentID) (student.StudentRecord, bool) {
	for _, rec := range f.students {
		if rec.ID == id {
			return rec, true
		}
	}
	return student.StudentRecord{}, false
}

func (f *fakeSource) Summary() student.Summary { return f.summary }
func (f *fakeSource) Stale() bool              { return f.stale }

func record(t *testing.T, id, name string) *student.StudentRecord {
	t.Helper()
	rec, err := student.NewStudentRecord(student.StudentID(id), name)
	require.NoError(t, err)
	return rec
}

func TestExamViews_PlaceholdersWhenNoContribution(t *testing.T) {
	source := &fakeSource{students: []student.StudentRecord{*record(t, "s1", "")}}
	views := NewViews(source).ExamViews()

	require.Len(t, views, 1)
	assert.Equal(t, Placeholder, views[0].Name)
	assert.Equal(t, Placeholder, views[0].ExamType)
	assert.False(t, views[0].HasData)
	assert.Nil(t, views[0].Scores)
}

func TestExamViews_ProjectsScores(t *testing.T) {
	rec := record(t, "s1", "Aizhan")
	rec.Exam = &student.ExamContribution{
		Scores:   map[string]float64{"math": 72},
		ExamType: "midterm",
	}
	rec.Completion.Exam = true

	views := NewViews(&fakeSource{students: []student.StudentRecord{*rec}}).ExamViews()
	require.Len(t, views, 1)
	assert.True(t, views[0].HasData)
	assert.Equal(t, "midterm", views[0].ExamType)
	assert.Equal(t, 72.0, views[0].Scores["math"])
}

func TestFacultyViews_FormatsAttendance(t *testing.T) {
	rec := record(t, "s1", "Aizhan")
	rec.Faculty = &student.FacultyContribution{AttendanceRate: 87.25}

	views := NewViews(&fakeSource{students: []student.StudentRecord{*rec}}).FacultyViews()
	require.Len(t, views, 1)
	assert.Equal(t, "87.2%", views[0].Attendance)
}

func TestGuardianViews_Placeholders(t *testing.T) {
	withFees := record(t, "s1", "Aizhan")
	withFees.Guardian = &student.GuardianContribution{
		FeesStatus: student.FeesPartial,
		AmountPaid: 25000,
		AmountDue:  25000,
		DueDate:    time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC),
	}
	without := record(t, "s2", "Marat")

	views := NewViews(&fakeSource{students: []student.StudentRecord{*withFees, *without}}).GuardianViews()
	require.Len(t, views, 2)

	assert.Equal(t, "Partial", views[0].FeesStatus)
	assert.Equal(t, "25000.00", views[0].AmountPaid)
	assert.Equal(t, "2026-10-01", views[0].DueDate)

	assert.Equal(t, Placeholder, views[1].FeesStatus)
	assert.Equal(t, Placeholder, views[1].DueDate)
	assert.False(t, views[1].HasData)
}

func TestDashboardCards_RiskPendingWithoutAssessment(t *testing.T) {
	source := &fakeSource{students: []student.StudentRecord{*record(t, "s1", "Aizhan")}}
	cards := NewViews(source).DashboardCards()

	require.Len(t, cards, 1)
	assert.Equal(t, RiskPendingLabel, cards[0].RiskLevel)
	assert.Equal(t, Placeholder, cards[0].RiskScore)
	assert.False(t, cards[0].DataComplete)
}

func TestDashboardCards_SortedByRiskThenID(t *testing.T) {
	low := record(t, "a1", "Low")
	low.Risk = &student.RiskAssessment{Level: student.RiskLow, Score: 10}
	high := record(t, "z9", "High")
	high.Risk = &student.RiskAssessment{Level: student.RiskHigh, Score: 90, Factors: []string{"attendance below 50%"}}
	pending := record(t, "m5", "Pending")

	source := &fakeSource{students: []student.StudentRecord{*low, *pending, *high}}
	cards := NewViews(source).DashboardCards()

	require.Len(t, cards, 3)
	assert.Equal(t, "z9", cards[0].StudentID)
	assert.Equal(t, "90", cards[0].RiskScore)
	assert.Equal(t, []string{"attendance below 50%"}, cards[0].RiskFactors)
	assert.Equal(t, "a1", cards[1].StudentID)
	assert.Equal(t, "m5", cards[2].StudentID)
}

func TestCard_MissingStudent(t *testing.T) {
	_, ok := NewViews(&fakeSource{}).Card("ghost")
	assert.False(t, ok)
}

func TestSummary_CarriesStaleness(t *testing.T) {
	source := &fakeSource{
		summary: student.Summary{Total: 10, High: 2, Medium: 3, Low: 5},
		stale:   true,
	}
	view := NewViews(source).Summary()

	assert.Equal(t, 10, view.Total)
	assert.Equal(t, 2, view.High)
	assert.True(t, view.Stale)
}

func TestCompletionFlagsProjected(t *testing.T) {
	rec := record(t, "s1", "Aizhan")
	rec.Completion = student.Completion{Exam: true, Fees: true, DataComplete: false}

	card, ok := NewViews(&fakeSource{students: []student.StudentRecord{*rec}}).Card("s1")
	require.True(t, ok)
	assert.True(t, card.Completion.Exam)
	assert.False(t, card.Completion.Attendance)
	assert.True(t, card.Completion.Fees)
}
