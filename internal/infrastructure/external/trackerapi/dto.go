package trackerapi

import (
	"fmt"
	"time"
)

// ══════════════════════════════════════════════════════════════════════════════
// WIRE TYPES
// The exact wire format is owned by the external risk collaborator; these
// DTOs mirror its response contract and never leak outside this package.
// ══════════════════════════════════════════════════════════════════════════════

// StudentDTO is one student record as returned by the collaborator.
type StudentDTO struct {
	StudentID string `json:"student_id"`
	Name      string `json:"name"`

	// Exam partition
	Scores   map[string]float64 `json:"scores,omitempty"`
	ExamType string             `json:"exam_type,omitempty"`

	// Faculty partition
	AttendanceRate *float64 `json:"attendance_rate,omitempty"`

	// Guardian partition
	FeesStatus string   `json:"fees_status,omitempty"`
	AmountPaid *float64 `json:"amount_paid,omitempty"`
	AmountDue  *float64 `json:"amount_due,omitempty"`
	DueDate    string   `json:"due_date,omitempty"`

	// Derived by the collaborator's rule engine
	RiskLevel       string   `json:"risk_level,omitempty"`
	RiskScore       *float64 `json:"risk_score,omitempty"`
	RiskFactors     []string `json:"risk_factors,omitempty"`
	Recommendations []string `json:"recommendations,omitempty"`
	DataComplete    bool     `json:"data_complete"`

	// Per-actor completion flags
	HasExamData       bool `json:"has_exam_data"`
	HasAttendanceData bool `json:"has_attendance_data"`
	HasFeesData       bool `json:"has_fees_data"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// SummaryDTO carries aggregate counts by risk tier.
type SummaryDTO struct {
	Total  int `json:"total"`
	High   int `json:"high"`
	Medium int `json:"medium"`
	Low    int `json:"low"`
}

// StudentsResponse is the GET /students envelope.
type StudentsResponse struct {
	Success  bool         `json:"success"`
	Students []StudentDTO `json:"students"`
	Error    string       `json:"error,omitempty"`
}

// SummaryResponse is the GET /students/dashboard/summary envelope.
type SummaryResponse struct {
	Success bool       `json:"success"`
	Summary SummaryDTO `json:"summary"`
	Error   string     `json:"error,omitempty"`
}

// UploadResponse is the POST /upload/* envelope.
type UploadResponse struct {
	Success      bool        `json:"success"`
	CreatedCount int         `json:"createdCount"`
	UpdatedCount int         `json:"updatedCount"`
	Summary      *SummaryDTO `json:"summary,omitempty"`
	Error        string      `json:"error,omitempty"`
}

// RecalculateResponse is the POST /students/:id/recalculate envelope.
type RecalculateResponse struct {
	Success bool       `json:"success"`
	Student StudentDTO `json:"student"`
	Error   string     `json:"error,omitempty"`
}

// DeleteResponse is the DELETE /students[/:id] envelope.
type DeleteResponse struct {
	Success      bool   `json:"success"`
	DeletedCount int    `json:"deletedCount"`
	Error        string `json:"error,omitempty"`
}

// CleanupResponse is the POST /students/cleanup-duplicates envelope.
type CleanupResponse struct {
	Success      bool   `json:"success"`
	RemovedCount int    `json:"removedCount"`
	Error        string `json:"error,omitempty"`
}

// DispatchRequest asks the collaborator to send guardian/faculty alerts.
type DispatchRequest struct {
	StudentIDs []string `json:"student_ids,omitempty"`
	RiskLevel  string   `json:"risk_level,omitempty"`
	Message    string   `json:"message,omitempty"`
}

// DispatchResponse is the POST /notifications envelope.
type DispatchResponse struct {
	Sent       int    `json:"sent"`
	Successful int    `json:"successful"`
	Failed     int    `json:"failed"`
	Duration   string `json:"duration"`
}

// APIError is a structured error response from the collaborator.
type APIError struct {
	StatusCode int    `json:"-"`
	Code       string `json:"code,omitempty"`
	Message    string `json:"error"`
}

// Error implements the error interface.
func (e *APIError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("tracker api: %s (%s)", e.Message, e.Code)
	}
	return fmt.Sprintf("tracker api: %s (status %d)", e.Message, e.StatusCode)
}

// Filters narrows a student list fetch.
type Filters struct {
	RiskLevel string
	Search    string
	ExamType  string
}

// IsZero reports whether no filters are set.
func (f Filters) IsZero() bool {
	return f == Filters{}
}
