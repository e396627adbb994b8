package ingest

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/xuri/excelize/v2"

	"github.com/edurisk/atrisk-tracker/internal/domain/shared"
	"github.com/edurisk/atrisk-tracker/internal/domain/student"
)

// FileCategory is the recognized upload file family.
type FileCategory string

const (
	CategorySpreadsheet FileCategory = "spreadsheet"
	CategoryDelimited   FileCategory = "delimited"
	CategoryUnknown     FileCategory = "unknown"
)

// DetectCategory classifies a filename by extension.
func DetectCategory(filename string) FileCategory {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".xlsx", ".xls":
		return CategorySpreadsheet
	case ".csv", ".tsv", ".txt":
		return CategoryDelimited
	default:
		return CategoryUnknown
	}
}

// ParsedFile is the local view of an upload candidate. Parsing happens
// before submission: files that fail here never reach the network.
// Rows holds only the contributions carrying a stable student ID, the
// ones the local echo can merge; ValidRows additionally counts rows
// identified by name alone, which the server accepts but the echo
// cannot address.
type ParsedFile struct {
	Filename    string
	Category    FileCategory
	Rows        []student.Contribution
	ValidRows   int
	SkippedRows int
}

// rowModel is the per-row shape checked before a contribution is built.
// At least one identifying field is required; numeric fields are bounded.
type rowModel struct {
	StudentID      string   `validate:"required_without=Name,omitempty,max=64"`
	Name           string   `validate:"required_without=StudentID,omitempty,max=200"`
	AttendanceRate *float64 `validate:"omitempty,gte=0,lte=100"`
	AmountPaid     *float64 `validate:"omitempty,gte=0"`
	AmountDue      *float64 `validate:"omitempty,gte=0"`
}

var rowValidator = validator.New()

// Header column names recognized per role. Normalization lowercases and
// collapses spaces to underscores, so "Student ID" and "student_id" match.
var (
	idHeaders       = set("student_id", "id", "studentid", "roll_no", "roll_number")
	nameHeaders     = set("name", "student_name", "full_name")
	attendanceCols  = set("attendance_rate", "attendance", "attendance_%")
	examTypeCols    = set("exam_type", "exam")
	feesStatusCols  = set("fees_status", "fee_status", "status")
	amountPaidCols  = set("amount_paid", "paid")
	amountDueCols   = set("amount_due", "due", "balance")
	dueDateCols     = set("due_date", "deadline")
	ignoredFeesCols = set("fees_status", "fee_status", "status", "amount_paid", "paid", "amount_due", "due", "balance", "due_date", "deadline")
)

func set(keys ...string) map[string]struct{} {
	m := make(map[string]struct{}, len(keys))
	for _, k := range keys {
		m[k] = struct{}{}
	}
	return m
}

func normalizeHeader(h string) string {
	h = strings.TrimPrefix(h, "\ufeff") // BOM on the first CSV header
	h = strings.ToLower(strings.TrimSpace(h))
	return strings.ReplaceAll(h, " ", "_")
}

// ParseAndValidate runs the local pre-submission check for one file:
// a recognized extension category and at least one identifying column.
// The rows are parsed into partition-tagged contributions used for the
// optimistic store echo after a successful upload.
func ParseAndValidate(filename string, content []byte, partition student.ActorPartition) (*ParsedFile, error) {
	category := DetectCategory(filename)

	var table [][]string
	var err error
	switch category {
	case CategorySpreadsheet:
		table, err = readSpreadsheet(content)
	case CategoryDelimited:
		table, err = readDelimited(filename, content)
	default:
		return nil, shared.ErrUnsupportedFileType
	}
	if err != nil {
		return nil, shared.WrapError("ingest", "Validate", shared.ErrInvalidFormat, "unreadable file", err)
	}
	if len(table) == 0 {
		return nil, shared.ErrEmptyFile
	}

	header := make([]string, len(table[0]))
	for i, h := range table[0] {
		header[i] = normalizeHeader(h)
	}

	idCol, nameCol := -1, -1
	for i, h := range header {
		if _, ok := idHeaders[h]; ok && idCol < 0 {
			idCol = i
		}
		if _, ok := nameHeaders[h]; ok && nameCol < 0 {
			nameCol = i
		}
	}
	if idCol < 0 && nameCol < 0 {
		return nil, shared.ErrMissingIdentifier
	}
	if len(table) == 1 {
		return nil, shared.ErrEmptyFile
	}

	parsed := &ParsedFile{Filename: filename, Category: category}
	for _, row := range table[1:] {
		contrib, ok := buildContribution(header, row, idCol, nameCol, partition)
		if !ok {
			parsed.SkippedRows++
			continue
		}
		parsed.ValidRows++
		if contrib.StudentID != "" {
			parsed.Rows = append(parsed.Rows, contrib)
		}
	}
	if parsed.ValidRows == 0 {
		return nil, shared.ErrEmptyFile
	}
	return parsed, nil
}

// buildContribution converts one data row. Rows that fail validation are
// skipped rather than failing the file - the server stays authoritative
// over row-level acceptance.
func buildContribution(header, row []string, idCol, nameCol int, partition student.ActorPartition) (student.Contribution, bool) {
	cell := func(i int) string {
		if i < 0 || i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}

	model := rowModel{StudentID: cell(idCol), Name: cell(nameCol)}

	contrib := student.Contribution{
		Partition: partition,
		StudentID: student.StudentID(model.StudentID),
		Name:      model.Name,
	}

	switch partition {
	case student.PartitionExam:
		exam := &student.ExamContribution{Scores: map[string]float64{}}
		for i, h := range header {
			if i == idCol || i == nameCol {
				continue
			}
			if _, ok := examTypeCols[h]; ok {
				exam.ExamType = cell(i)
				continue
			}
			if score, err := strconv.ParseFloat(cell(i), 64); err == nil && h != "" {
				exam.Scores[h] = score
			}
		}
		if len(exam.Scores) == 0 && exam.ExamType == "" {
			return student.Contribution{}, false
		}
		contrib.Exam = exam

	case student.PartitionAttendance:
		var rate *float64
		for i, h := range header {
			if _, ok := attendanceCols[h]; ok {
				if v, err := strconv.ParseFloat(cell(i), 64); err == nil {
					rate = &v
				}
			}
		}
		if rate == nil {
			return student.Contribution{}, false
		}
		model.AttendanceRate = rate
		contrib.Faculty = &student.FacultyContribution{AttendanceRate: *rate}

	case student.PartitionFees:
		guardian := &student.GuardianContribution{FeesStatus: student.FeesPending}
		seen := false
		for i, h := range header {
			if _, ok := ignoredFeesCols[h]; !ok {
				continue
			}
			value := cell(i)
			if value == "" {
				continue
			}
			seen = true
			switch {
			case contains(feesStatusCols, h):
				guardian.FeesStatus = student.ParseFeesStatus(value)
			case contains(amountPaidCols, h):
				if v, err := strconv.ParseFloat(value, 64); err == nil {
					guardian.AmountPaid = v
					model.AmountPaid = &v
				}
			case contains(amountDueCols, h):
				if v, err := strconv.ParseFloat(value, 64); err == nil {
					guardian.AmountDue = v
					model.AmountDue = &v
				}
			case contains(dueDateCols, h):
				if d, err := time.Parse("2006-01-02", value); err == nil {
					guardian.DueDate = d
				}
			}
		}
		if !seen {
			return student.Contribution{}, false
		}
		contrib.Guardian = guardian

	case student.PartitionGeneral:
		// identity-only; the server splits combined sheets
	}

	if err := rowValidator.Struct(model); err != nil {
		return student.Contribution{}, false
	}
	if contrib.StudentID == "" {
		// Identified by name alone: uploadable, but there is no stable
		// identity for the local echo to merge on; the post-batch
		// refresh carries these rows back.
		return contrib, true
	}
	if err := contrib.Validate(); err != nil {
		return student.Contribution{}, false
	}
	return contrib, true
}

func contains(m map[string]struct{}, k string) bool {
	_, ok := m[k]
	return ok
}

// readSpreadsheet extracts the first sheet of an xlsx workbook.
func readSpreadsheet(content []byte) ([][]string, error) {
	f, err := excelize.OpenReader(bytes.NewReader(content))
	if err != nil {
		return nil, err
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("workbook has no sheets")
	}
	return f.GetRows(sheets[0])
}

// readDelimited parses CSV/TSV content. The delimiter comes from the
// extension, falling back to sniffing the first line.
func readDelimited(filename string, content []byte) ([][]string, error) {
	delimiter := ','
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".tsv":
		delimiter = '\t'
	default:
		if line, _, ok := strings.Cut(string(content), "\n"); ok || len(line) > 0 {
			if strings.Contains(line, "\t") && !strings.Contains(line, ",") {
				delimiter = '\t'
			}
		}
	}

	reader := csv.NewReader(bytes.NewReader(content))
	reader.Comma = delimiter
	reader.FieldsPerRecord = -1 // ragged rows are tolerated, cells go missing
	reader.TrimLeadingSpace = true

	var table [][]string
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		table = append(table, row)
	}
	return table, nil
}
