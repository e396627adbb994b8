package student

import (
	"github.com/edurisk/atrisk-tracker/internal/domain/shared"
)

// ActorPartition identifies which contributing role owns a slice of a
// StudentRecord's fields. The ingestion upload routes map one-to-one onto
// these partitions; ownership is enforced here, centrally, instead of each
// upload path promising not to touch foreign fields.
type ActorPartition string

const (
	// PartitionExam - exam department: subject scores and exam type.
	PartitionExam ActorPartition = "exam"
	// PartitionAttendance - faculty: attendance rate.
	PartitionAttendance ActorPartition = "attendance"
	// PartitionFees - guardian: fees status and amounts.
	PartitionFees ActorPartition = "fees"
	// PartitionGeneral - combined sheets carrying columns from any partition;
	// the server splits them, the client treats them as identity-only.
	PartitionGeneral ActorPartition = "general"
)

// IsValid checks that the partition is a known actor category.
func (p ActorPartition) IsValid() bool {
	switch p {
	case PartitionExam, PartitionAttendance, PartitionFees, PartitionGeneral:
		return true
	default:
		return false
	}
}

// String returns the string representation of the partition.
func (p ActorPartition) String() string {
	return string(p)
}

// Contribution is one actor's payload for a single student. Exactly one of
// the typed fields matching Partition must be set; shared identity fields
// (ID, Name) are always allowed.
type Contribution struct {
	Partition ActorPartition
	StudentID StudentID
	Name      string

	Exam     *ExamContribution
	Faculty  *FacultyContribution
	Guardian *GuardianContribution
}

// Validate checks the contribution's identity and shape.
func (c Contribution) Validate() error {
	if !c.Partition.IsValid() {
		return shared.ErrUnknownPartition
	}
	if !c.StudentID.IsValid() {
		return shared.ErrInvalidStudentID
	}
	switch c.Partition {
	case PartitionExam:
		if c.Faculty != nil || c.Guardian != nil {
			return shared.ErrPartitionConflict
		}
	case PartitionAttendance:
		if c.Exam != nil || c.Guardian != nil {
			return shared.ErrPartitionConflict
		}
	case PartitionFees:
		if c.Exam != nil || c.Faculty != nil {
			return shared.ErrPartitionConflict
		}
	case PartitionGeneral:
		// identity-only on the client side
		if c.Exam != nil || c.Faculty != nil || c.Guardian != nil {
			return shared.ErrPartitionConflict
		}
	}
	return nil
}

// ApplyContribution merges a contribution into the record, enforcing the
// field-ownership map. Only the contributing partition's fields plus the
// shared identity fields are touched; a second contribution from the same
// partition replaces that partition's values (idempotence per student
// within a partition). Fields owned by other actors are structurally
// unreachable from here.
func (r *StudentRecord) ApplyContribution(c Contribution) error {
	if err := c.Validate(); err != nil {
		return err
	}
	if c.StudentID != r.ID {
		return shared.NewDomainError("student", "Apply", shared.ErrInvalidID, "contribution targets a different student")
	}

	// Shared identity fields: any actor may fill in a missing name.
	if c.Name != "" {
		r.Name = c.Name
	}

	switch c.Partition {
	case PartitionExam:
		if c.Exam != nil {
			exam := *c.Exam
			if c.Exam.Scores != nil {
				exam.Scores = make(map[string]float64, len(c.Exam.Scores))
				for k, v := range c.Exam.Scores {
					exam.Scores[k] = v
				}
			}
			r.Exam = &exam
			r.Completion.Exam = true
		}
	case PartitionAttendance:
		if c.Faculty != nil {
			faculty := *c.Faculty
			r.Faculty = &faculty
			r.Completion.Attendance = true
		}
	case PartitionFees:
		if c.Guardian != nil {
			guardian := *c.Guardian
			r.Guardian = &guardian
			r.Completion.Fees = true
		}
	case PartitionGeneral:
		// nothing beyond identity
	}

	r.touch()
	return nil
}

// FromContribution creates a new record from the first contribution seen
// for an unknown student ID.
func FromContribution(c Contribution) (*StudentRecord, error) {
	rec, err := NewStudentRecord(c.StudentID, c.Name)
	if err != nil {
		return nil, err
	}
	if err := rec.ApplyContribution(c); err != nil {
		return nil, err
	}
	return rec, nil
}
