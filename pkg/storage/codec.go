package storage

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"studenttracker/pkg/common"
	"studenttracker/pkg/core"
)

// Block markers of the text format. Every field sits on its own line:
//
//	TEACHER / id / name / password / subject
//	STUDENT / srn / name
//	RECORD  / type ordinal / value / subject / description
//	END_OF_FILE
//
// RECORD blocks belong to the closest preceding STUDENT block.
const (
	MarkerTeacher = "TEACHER"
	MarkerStudent = "STUDENT"
	MarkerRecord  = "RECORD"
	MarkerEOF     = "END_OF_FILE"
)

// Encode writes teachers then students, both in pre-order, each student
// followed by its history newest first.
func Encode(w io.Writer, teachers *core.TeacherStore, students *core.StudentStore) error {
	bw := bufio.NewWriter(w)
	enc := &encoder{w: bw}

	teachers.WalkPreOrder(func(t *core.Teacher) bool {
		enc.block(MarkerTeacher, t.ID(), t.Name, t.Password, t.Subject)
		return enc.err == nil
	})
	students.WalkPreOrder(func(st *core.Student) bool {
		enc.block(MarkerStudent, st.SRN(), st.Name)
		st.History.Each(func(rec common.PerformanceRecord) bool {
			enc.block(MarkerRecord,
				strconv.Itoa(int(rec.Type)),
				strconv.Itoa(rec.Value),
				rec.Subject,
				rec.Description)
			return enc.err == nil
		})
		return enc.err == nil
	})
	enc.line(MarkerEOF)

	if enc.err != nil {
		return enc.err
	}
	return bw.Flush()
}

type encoder struct {
	w   *bufio.Writer
	err error
}

func (e *encoder) block(marker string, fields ...string) {
	for _, f := range fields {
		if strings.ContainsAny(f, "\r\n") {
			e.err = fmt.Errorf("%s field %q contains a line break: %w", marker, f, core.ErrMalformedState)
			return
		}
	}
	e.line(marker)
	for _, f := range fields {
		e.line(f)
	}
}

func (e *encoder) line(s string) {
	if e.err != nil {
		return
	}
	if _, err := e.w.WriteString(s); err != nil {
		e.err = err
		return
	}
	e.err = e.w.WriteByte('\n')
}

// Decode rebuilds both stores by replaying the file through Insert.
//
// Unparseable fragments are dropped and reported in the returned error, which
// then matches core.ErrMalformedState; the stores hold everything that did
// parse. A read failure is returned as is, also alongside a partial load.
//
// A duplicate STUDENT key is rejected by Insert and the RECORD blocks after
// it are attached to the student that already holds the key.
func Decode(r io.Reader) (*core.TeacherStore, *core.StudentStore, error) {
	d := &decoder{
		sc:       bufio.NewScanner(r),
		teachers: core.NewTeacherStore(),
		students: core.NewStudentStore(),
	}
	d.sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	err := d.run()
	d.flush()
	if err != nil {
		return d.teachers, d.students, err
	}
	return d.teachers, d.students, errors.Join(d.errs...)
}

type decoder struct {
	sc       *bufio.Scanner
	lineNo   int
	teachers *core.TeacherStore
	students *core.StudentStore

	cur     *core.Student
	pending []common.PerformanceRecord
	errs    []error
}

func (d *decoder) run() error {
	for {
		marker, ok := d.next()
		if !ok {
			return d.sc.Err()
		}
		marker = strings.TrimSpace(marker)
		start := d.lineNo

		switch marker {
		case "":
			continue
		case MarkerEOF:
			return nil
		case MarkerTeacher:
			d.flush()
			f, ok := d.fields(4)
			if !ok {
				d.malformed(start, "truncated TEACHER block")
				return d.sc.Err()
			}
			if _, err := d.teachers.Insert(f[0], f[1], f[2], f[3]); err != nil {
				d.malformed(start, err.Error())
			}
		case MarkerStudent:
			d.flush()
			f, ok := d.fields(2)
			if !ok {
				d.malformed(start, "truncated STUDENT block")
				return d.sc.Err()
			}
			st, err := d.students.Insert(f[0], f[1])
			if err != nil {
				d.malformed(start, err.Error())
				st = d.students.Find(f[0])
			}
			d.cur = st
		case MarkerRecord:
			f, ok := d.fields(4)
			if !ok {
				d.malformed(start, "truncated RECORD block")
				return d.sc.Err()
			}
			d.record(start, f)
		default:
			d.malformed(start, fmt.Sprintf("unexpected line %q", marker))
		}
	}
}

func (d *decoder) record(start int, f []string) {
	if d.cur == nil {
		d.malformed(start, "RECORD without a preceding STUDENT")
		return
	}
	n, err := strconv.Atoi(strings.TrimSpace(f[0]))
	if err != nil {
		d.malformed(start, fmt.Sprintf("record type %q is not a number", f[0]))
		return
	}
	typ, err := common.ParseRecordType(n)
	if err != nil {
		d.malformed(start, err.Error())
		return
	}
	value, err := strconv.Atoi(strings.TrimSpace(f[1]))
	if err != nil {
		d.malformed(start, fmt.Sprintf("record value %q is not a number", f[1]))
		return
	}
	d.pending = append(d.pending, common.PerformanceRecord{
		Type:        typ,
		Value:       value,
		Subject:     f[2],
		Description: f[3],
	})
}

// flush attaches buffered records to the current student and closes its block.
// The file lists history newest first, so the records go behind whatever the
// student already holds.
func (d *decoder) flush() {
	if d.cur != nil && len(d.pending) > 0 {
		d.cur.History.AppendOldest(d.pending...)
	}
	d.cur = nil
	d.pending = d.pending[:0]
}

func (d *decoder) next() (string, bool) {
	if !d.sc.Scan() {
		return "", false
	}
	d.lineNo++
	return strings.TrimSuffix(d.sc.Text(), "\r"), true
}

func (d *decoder) fields(n int) ([]string, bool) {
	out := make([]string, 0, n)
	for i := 0; i < n; i++ {
		s, ok := d.next()
		if !ok {
			return nil, false
		}
		out = append(out, s)
	}
	return out, true
}

func (d *decoder) malformed(line int, msg string) {
	d.errs = append(d.errs, fmt.Errorf("line %d: %s: %w", line, msg, core.ErrMalformedState))
}
