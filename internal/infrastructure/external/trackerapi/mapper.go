package trackerapi

import (
	"time"

	"github.com/edurisk/atrisk-tracker/internal/domain/student"
)

// Mapper converts wire DTOs into domain entities. Conversion is the only
// place derived fields (risk, completion flags) are ever written client-side.
type Mapper struct{}

// NewMapper creates a new Mapper.
func NewMapper() *Mapper {
	return &Mapper{}
}

// StudentFromDTO maps one wire record into the domain model.
func (m *Mapper) StudentFromDTO(dto StudentDTO) student.StudentRecord {
	rec := student.StudentRecord{
		ID:        student.StudentID(dto.StudentID),
		Name:      dto.Name,
		CreatedAt: dto.CreatedAt,
		UpdatedAt: dto.UpdatedAt,
		Completion: student.Completion{
			Exam:         dto.HasExamData,
			Attendance:   dto.HasAttendanceData,
			Fees:         dto.HasFeesData,
			DataComplete: dto.DataComplete,
		},
	}

	if dto.HasExamData || len(dto.Scores) > 0 {
		exam := &student.ExamContribution{ExamType: dto.ExamType}
		if len(dto.Scores) > 0 {
			exam.Scores = make(map[string]float64, len(dto.Scores))
			for k, v := range dto.Scores {
				exam.Scores[k] = v
			}
		}
		rec.Exam = exam
	}

	if dto.AttendanceRate != nil {
		rec.Faculty = &student.FacultyContribution{AttendanceRate: *dto.AttendanceRate}
	}

	if dto.HasFeesData || dto.FeesStatus != "" {
		guardian := &student.GuardianContribution{
			FeesStatus: student.ParseFeesStatus(dto.FeesStatus),
		}
		if dto.AmountPaid != nil {
			guardian.AmountPaid = *dto.AmountPaid
		}
		if dto.AmountDue != nil {
			guardian.AmountDue = *dto.AmountDue
		}
		if dto.DueDate != "" {
			if due, err := time.Parse(time.RFC3339, dto.DueDate); err == nil {
				guardian.DueDate = due
			} else if due, err := time.Parse("2006-01-02", dto.DueDate); err == nil {
				guardian.DueDate = due
			}
		}
		rec.Guardian = guardian
	}

	// Derived slice is only present once the collaborator has classified.
	if level := student.ParseRiskLevel(dto.RiskLevel); level.IsValid() {
		risk := &student.RiskAssessment{
			Level:           level,
			Factors:         append([]string(nil), dto.RiskFactors...),
			Recommendations: append([]string(nil), dto.Recommendations...),
		}
		if dto.RiskScore != nil {
			risk.Score = *dto.RiskScore
		}
		rec.Risk = risk
	}

	return rec
}

// StudentsFromDTO maps a list payload, skipping records with unusable IDs.
func (m *Mapper) StudentsFromDTO(dtos []StudentDTO) []student.StudentRecord {
	out := make([]student.StudentRecord, 0, len(dtos))
	for _, dto := range dtos {
		rec := m.StudentFromDTO(dto)
		if !rec.ID.IsValid() {
			continue
		}
		out = append(out, rec)
	}
	return out
}

// SummaryFromDTO maps the aggregate counts.
func (m *Mapper) SummaryFromDTO(dto SummaryDTO) student.Summary {
	return student.Summary{
		Total:  dto.Total,
		High:   dto.High,
		Medium: dto.Medium,
		Low:    dto.Low,
	}
}
