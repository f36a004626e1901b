// Package report computes read-only views over a student's performance history.
package report

import (
	"studenttracker/pkg/common"
	"studenttracker/pkg/core"
)

const (
	CIEMax      = 50.0
	SemesterMax = 50.0
	FinalMax    = 100.0
)

// Score is a computed mark that may be unavailable when inputs are missing.
type Score struct {
	Value     float64
	Max       float64
	Available bool
}

// SubjectReport summarises one subject for one student.
type SubjectReport struct {
	SRN     string
	Name    string
	Subject string

	// Entries are the scored records for the subject, in history order.
	Entries []common.PerformanceRecord
	// Components holds the most recently added value per scored type.
	Components map[common.RecordType]int

	TotalCIE       Score
	ScaledSemester Score
	FinalMark      Score
}

// Component returns the value recorded for typ and whether one exists.
func (r *SubjectReport) Component(typ common.RecordType) (int, bool) {
	v, ok := r.Components[typ]
	return v, ok
}

// Subject builds the subject report for st.
//
// The history is newest-first and the scan keeps the first value it sees for
// each type, so the most recently added record wins.
func Subject(st *core.Student, subject string) *SubjectReport {
	r := &SubjectReport{
		SRN:        st.SRN(),
		Name:       st.Name,
		Subject:    subject,
		Components: make(map[common.RecordType]int),
	}

	st.History.Each(func(rec common.PerformanceRecord) bool {
		if rec.Subject != subject || rec.Type == common.Attendance {
			return true
		}
		r.Entries = append(r.Entries, rec)
		if _, seen := r.Components[rec.Type]; !seen {
			r.Components[rec.Type] = rec.Value
		}
		return true
	})

	r.TotalCIE = Score{Max: CIEMax}
	i1, ok1 := r.Components[common.Internal1]
	a1, ok2 := r.Components[common.Assignment1]
	i2, ok3 := r.Components[common.Internal2]
	a2, ok4 := r.Components[common.Assignment2]
	if ok1 && ok2 && ok3 && ok4 {
		r.TotalCIE.Value = float64(i1 + a1 + i2 + a2)
		r.TotalCIE.Available = true
	}

	r.ScaledSemester = Score{Max: SemesterMax}
	if sem, ok := r.Components[common.SemesterExam]; ok {
		r.ScaledSemester.Value = float64(sem) / 2.0
		r.ScaledSemester.Available = true
	}

	r.FinalMark = Score{Max: FinalMax}
	if r.TotalCIE.Available && r.ScaledSemester.Available {
		r.FinalMark.Value = r.TotalCIE.Value + r.ScaledSemester.Value
		r.FinalMark.Available = true
	}
	return r
}

// MasterEntry is one history record with its display value.
type MasterEntry struct {
	common.PerformanceRecord
	Display string
}

// AttendanceSummary counts attendance records.
type AttendanceSummary struct {
	Present int
	Total   int
}

// Percent returns the share of present days, or 0 with no attendance records.
func (a AttendanceSummary) Percent() float64 {
	if a.Total == 0 {
		return 0
	}
	return float64(a.Present) * 100 / float64(a.Total)
}

// MasterReport lists every record of a student in history order.
type MasterReport struct {
	SRN        string
	Name       string
	Entries    []MasterEntry
	Attendance AttendanceSummary
}

func Master(st *core.Student) *MasterReport {
	r := &MasterReport{SRN: st.SRN(), Name: st.Name}
	st.History.Each(func(rec common.PerformanceRecord) bool {
		r.Entries = append(r.Entries, MasterEntry{
			PerformanceRecord: rec,
			Display:           rec.Type.FormatValue(rec.Value),
		})
		if rec.Type == common.Attendance {
			r.Attendance.Total++
			if rec.Value == 1 {
				r.Attendance.Present++
			}
		}
		return true
	})
	return r
}
