package report

import (
	"errors"
	"fmt"
	"io"
	"log"
	"strings"

	"github.com/xuri/excelize/v2"

	"studenttracker/pkg/common"
	"studenttracker/pkg/core"
)

const (
	MasterSheet   = "Master"
	SubjectsSheet = "Subjects"
)

// ExportWorkbook writes a spreadsheet with the master report of st and a
// summary row per subject.
func ExportWorkbook(w io.Writer, st *core.Student, subjects ...string) error {
	f := excelize.NewFile()
	defer func() {
		if err := f.Close(); err != nil {
			log.Printf("[Report] Error closing workbook: %v", err)
		}
	}()

	if err := f.SetSheetName("Sheet1", MasterSheet); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}
	if err := writeMasterSheet(f, Master(st)); err != nil {
		return err
	}

	if _, err := f.NewSheet(SubjectsSheet); err != nil {
		return fmt.Errorf("create subjects sheet: %w", err)
	}
	header := []interface{}{"Subject"}
	for _, t := range common.ScoredTypes {
		header = append(header, t.String())
	}
	header = append(header, "Total CIE", "Semester (scaled)", "Final")
	if err := f.SetSheetRow(SubjectsSheet, "A1", &header); err != nil {
		return err
	}
	for i, subject := range subjects {
		if err := writeSubjectRow(f, i+2, Subject(st, subject)); err != nil {
			return err
		}
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

func writeMasterSheet(f *excelize.File, r *MasterReport) error {
	rows := [][]interface{}{
		{"SRN", r.SRN},
		{"Name", r.Name},
		{"Attendance", fmt.Sprintf("%d / %d", r.Attendance.Present, r.Attendance.Total)},
		{},
		{"Subject", "Description", "Type", "Value"},
	}
	for _, e := range r.Entries {
		rows = append(rows, []interface{}{e.Subject, e.Description, e.Type.String(), e.Display})
	}
	for i := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(MasterSheet, cell, &rows[i]); err != nil {
			return fmt.Errorf("write master row %d: %w", i+1, err)
		}
	}
	return nil
}

func writeSubjectRow(f *excelize.File, row int, r *SubjectReport) error {
	vals := []interface{}{r.Subject}
	for _, t := range common.ScoredTypes {
		if v, ok := r.Component(t); ok {
			vals = append(vals, v)
		} else {
			vals = append(vals, "N/A")
		}
	}
	for _, s := range []Score{r.TotalCIE, r.ScaledSemester, r.FinalMark} {
		if s.Available {
			vals = append(vals, s.Value)
		} else {
			vals = append(vals, "N/A")
		}
	}
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	return f.SetSheetRow(SubjectsSheet, cell, &vals)
}

// ImportRoster adds students from the first sheet of a workbook.
// Column A is the SRN, column B the name; the first row is a header.
// Rows with a missing field or an SRN already in the store are skipped.
func ImportRoster(r io.Reader, students *core.StudentStore) (int, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return 0, fmt.Errorf("open roster: %w", err)
	}
	defer func() {
		if err := f.Close(); err != nil {
			log.Printf("[Report] Error closing roster: %v", err)
		}
	}()

	sheet := f.GetSheetName(0)
	if sheet == "" {
		return 0, errors.New("roster workbook has no sheets")
	}
	rows, err := f.GetRows(sheet)
	if err != nil {
		return 0, fmt.Errorf("read roster sheet %s: %w", sheet, err)
	}

	imported := 0
	for i, row := range rows {
		if i == 0 {
			continue
		}
		var srn, name string
		if len(row) > 0 {
			srn = strings.TrimSpace(row[0])
		}
		if len(row) > 1 {
			name = strings.TrimSpace(row[1])
		}
		if srn == "" || name == "" {
			log.Printf("[Report] Skipping roster row %d: missing SRN or name", i+1)
			continue
		}
		if _, err := students.Insert(srn, name); err != nil {
			log.Printf("[Report] Skipping roster row %d: %v", i+1, err)
			continue
		}
		imported++
	}
	return imported, nil
}
