package common

import (
	"errors"
	"fmt"
)

// ErrValueOutOfRange is returned when a mark falls outside the range of its type.
var ErrValueOutOfRange = errors.New("value out of range")

// RecordType identifies what a performance record measures.
// The ordinal values are part of the on-disk format; never reorder them.
type RecordType int

const (
	Attendance RecordType = iota
	Internal1
	Assignment1
	Internal2
	Assignment2
	SemesterExam
)

// AttendanceSubject is the subject recorded on attendance entries.
const AttendanceSubject = "Attendance"

// ScoredTypes lists the record types that contribute to a subject mark.
var ScoredTypes = []RecordType{Internal1, Assignment1, Internal2, Assignment2, SemesterExam}

// ParseRecordType maps an on-disk ordinal back to a RecordType.
func ParseRecordType(n int) (RecordType, error) {
	t := RecordType(n)
	if !t.Valid() {
		return 0, fmt.Errorf("unknown record type %d", n)
	}
	return t, nil
}

func (t RecordType) Valid() bool {
	return t >= Attendance && t <= SemesterExam
}

// MaxValue is the highest value a record of this type may hold.
func (t RecordType) MaxValue() int {
	switch t {
	case Attendance:
		return 1
	case Internal1, Internal2:
		return 20
	case Assignment1, Assignment2:
		return 5
	case SemesterExam:
		return 100
	default:
		return 0
	}
}

// Validate checks value against [0, MaxValue].
func (t RecordType) Validate(value int) error {
	if !t.Valid() {
		return fmt.Errorf("record type %d: %w", int(t), ErrValueOutOfRange)
	}
	if value < 0 || value > t.MaxValue() {
		return fmt.Errorf("%s must be between 0 and %d, got %d: %w", t, t.MaxValue(), value, ErrValueOutOfRange)
	}
	return nil
}

func (t RecordType) String() string {
	switch t {
	case Attendance:
		return "Attendance"
	case Internal1:
		return "Internal 1"
	case Assignment1:
		return "Assignment 1"
	case Internal2:
		return "Internal 2"
	case Assignment2:
		return "Assignment 2"
	case SemesterExam:
		return "Semester Exam"
	default:
		return fmt.Sprintf("RecordType(%d)", int(t))
	}
}

// FormatValue renders a value the way reports show it:
// Present/Absent for attendance, "value / max" otherwise.
func (t RecordType) FormatValue(value int) string {
	if t == Attendance {
		if value == 1 {
			return "Present"
		}
		return "Absent"
	}
	return fmt.Sprintf("%d / %d", value, t.MaxValue())
}

// PerformanceRecord is one entry in a student's history.
type PerformanceRecord struct {
	Type        RecordType
	Value       int
	Subject     string
	Description string
}

// String is handy for debug output.
func (r PerformanceRecord) String() string {
	return fmt.Sprintf("Record{%s %s: %d (%s)}", r.Subject, r.Type, r.Value, r.Description)
}
