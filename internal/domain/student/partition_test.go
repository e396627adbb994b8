package student

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edurisk/atrisk-tracker/internal/domain/shared"
)

func examContribution(id StudentID, scores map[string]float64) Contribution {
	return Contribution{
		Partition: PartitionExam,
		StudentID: id,
		Exam:      &ExamContribution{Scores: scores, ExamType: "midterm"},
	}
}

func TestFromContribution_CreatesRecordWithCompletionFlag(t *testing.T) {
	c := examContribution("S001", map[string]float64{"math": 78})
	c.Name = "Aruzhan K."

	rec, err := FromContribution(c)
	require.NoError(t, err)

	assert.Equal(t, StudentID("S001"), rec.ID)
	assert.Equal(t, "Aruzhan K.", rec.Name)
	require.NotNil(t, rec.Exam)
	assert.Equal(t, 78.0, rec.Exam.Scores["math"])
	assert.True(t, rec.Completion.Exam)
	assert.False(t, rec.Completion.Attendance)
	assert.False(t, rec.Completion.Fees)
	assert.Nil(t, rec.Risk, "risk is never derived locally")
}

func TestApplyContribution_IdempotentWithinPartition(t *testing.T) {
	rec, err := FromContribution(examContribution("S001", map[string]float64{"math": 60}))
	require.NoError(t, err)

	// Second ingestion for the same student and partition replaces, not duplicates.
	err = rec.ApplyContribution(examContribution("S001", map[string]float64{"math": 85, "physics": 70}))
	require.NoError(t, err)

	assert.Equal(t, 85.0, rec.Exam.Scores["math"], "second ingestion's values win")
	assert.Equal(t, 70.0, rec.Exam.Scores["physics"])
}

func TestApplyContribution_NeverClobbersOtherPartitions(t *testing.T) {
	rec, err := FromContribution(examContribution("S001", map[string]float64{"math": 92}))
	require.NoError(t, err)

	err = rec.ApplyContribution(Contribution{
		Partition: PartitionFees,
		StudentID: "S001",
		Guardian: &GuardianContribution{
			FeesStatus: FeesOverdue,
			AmountPaid: 100,
			AmountDue:  400,
			DueDate:    time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
		},
	})
	require.NoError(t, err)

	err = rec.ApplyContribution(Contribution{
		Partition: PartitionAttendance,
		StudentID: "S001",
		Faculty:   &FacultyContribution{AttendanceRate: 64.5},
	})
	require.NoError(t, err)

	// Faculty ingestion altered neither exam nor fees fields.
	assert.Equal(t, 92.0, rec.Exam.Scores["math"])
	assert.Equal(t, FeesOverdue, rec.Guardian.FeesStatus)
	assert.Equal(t, 64.5, rec.Faculty.AttendanceRate)
	assert.True(t, rec.Completion.Exam)
	assert.True(t, rec.Completion.Attendance)
	assert.True(t, rec.Completion.Fees)
}

func TestApplyContribution_RejectsForeignPartitionPayload(t *testing.T) {
	rec, err := NewStudentRecord("S002", "Daniyar")
	require.NoError(t, err)

	err = rec.ApplyContribution(Contribution{
		Partition: PartitionExam,
		StudentID: "S002",
		Faculty:   &FacultyContribution{AttendanceRate: 50},
	})
	assert.ErrorIs(t, err, shared.ErrForbidden)
	assert.Nil(t, rec.Faculty)
}

func TestApplyContribution_RejectsMismatchedStudent(t *testing.T) {
	rec, err := NewStudentRecord("S002", "Daniyar")
	require.NoError(t, err)

	err = rec.ApplyContribution(examContribution("S003", nil))
	assert.ErrorIs(t, err, shared.ErrInvalidID)
}

func TestApplyContribution_GeneralIsIdentityOnly(t *testing.T) {
	rec, err := FromContribution(Contribution{
		Partition: PartitionGeneral,
		StudentID: "S010",
		Name:      "Madina",
	})
	require.NoError(t, err)

	assert.Nil(t, rec.Exam)
	assert.Nil(t, rec.Faculty)
	assert.Nil(t, rec.Guardian)
	assert.False(t, rec.Completion.Exam)
}

func TestClone_IsDeep(t *testing.T) {
	rec, err := FromContribution(examContribution("S001", map[string]float64{"math": 50}))
	require.NoError(t, err)
	rec.Risk = &RiskAssessment{Level: RiskHigh, Score: 81, Factors: []string{"low_attendance"}}

	cp := rec.Clone()
	cp.Exam.Scores["math"] = 99
	cp.Risk.Factors[0] = "changed"

	assert.Equal(t, 50.0, rec.Exam.Scores["math"])
	assert.Equal(t, "low_attendance", rec.Risk.Factors[0])
}

func TestParseFeesStatus(t *testing.T) {
	assert.Equal(t, FeesComplete, ParseFeesStatus("PAID"))
	assert.Equal(t, FeesOverdue, ParseFeesStatus(" overdue "))
	assert.Equal(t, FeesPending, ParseFeesStatus("whatever"))
}

func TestParseRiskLevel(t *testing.T) {
	assert.Equal(t, RiskHigh, ParseRiskLevel("High"))
	assert.Equal(t, RiskUnknown, ParseRiskLevel("critical"))
	assert.False(t, RiskUnknown.IsValid())
}
