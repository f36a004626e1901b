package storage

import (
	"database/sql"
	"errors"
	"fmt"
	"log"

	_ "modernc.org/sqlite"

	"studenttracker/pkg/common"
	"studenttracker/pkg/core"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS teachers (
	seq      INTEGER PRIMARY KEY,
	id       TEXT NOT NULL,
	name     TEXT NOT NULL,
	password TEXT NOT NULL,
	subject  TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS students (
	seq  INTEGER PRIMARY KEY,
	srn  TEXT NOT NULL,
	name TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS records (
	student_seq INTEGER NOT NULL,
	pos         INTEGER NOT NULL,
	type        INTEGER NOT NULL,
	value       INTEGER NOT NULL,
	subject     TEXT NOT NULL,
	description TEXT NOT NULL,
	PRIMARY KEY (student_seq, pos)
);`

// SQLiteBackend stores the snapshot in three tables. Rows carry the pre-order
// position of their node so a reload rebuilds the same tree shape.
type SQLiteBackend struct {
	db *sql.DB
}

func NewSQLiteBackend(path string) (*SQLiteBackend, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	if _, err := db.Exec(sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("init schema: %w", err)
	}

	_, err = db.Exec(`
		PRAGMA journal_mode = WAL;
		PRAGMA synchronous = NORMAL;
	`)
	if err != nil {
		log.Printf("[Storage] Warning: Failed to set PRAGMA: %v", err)
	}

	return &SQLiteBackend{db: db}, nil
}

// Save replaces the stored snapshot in a single transaction.
func (s *SQLiteBackend) Save(teachers *core.TeacherStore, students *core.StudentStore) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	if err := saveTx(tx, teachers, students); err != nil {
		tx.Rollback()
		return err
	}
	return tx.Commit()
}

func saveTx(tx *sql.Tx, teachers *core.TeacherStore, students *core.StudentStore) error {
	for _, table := range []string{"records", "students", "teachers"} {
		if _, err := tx.Exec("DELETE FROM " + table); err != nil {
			return err
		}
	}

	tStmt, err := tx.Prepare("INSERT INTO teachers (seq, id, name, password, subject) VALUES (?, ?, ?, ?, ?)")
	if err != nil {
		return err
	}
	defer tStmt.Close()
	sStmt, err := tx.Prepare("INSERT INTO students (seq, srn, name) VALUES (?, ?, ?)")
	if err != nil {
		return err
	}
	defer sStmt.Close()
	rStmt, err := tx.Prepare("INSERT INTO records (student_seq, pos, type, value, subject, description) VALUES (?, ?, ?, ?, ?, ?)")
	if err != nil {
		return err
	}
	defer rStmt.Close()

	var werr error
	seq := 0
	teachers.WalkPreOrder(func(t *core.Teacher) bool {
		_, werr = tStmt.Exec(seq, t.ID(), t.Name, t.Password, t.Subject)
		seq++
		return werr == nil
	})
	if werr != nil {
		return werr
	}

	seq = 0
	students.WalkPreOrder(func(st *core.Student) bool {
		if _, werr = sStmt.Exec(seq, st.SRN(), st.Name); werr != nil {
			return false
		}
		pos := 0
		st.History.Each(func(rec common.PerformanceRecord) bool {
			_, werr = rStmt.Exec(seq, pos, int(rec.Type), rec.Value, rec.Subject, rec.Description)
			pos++
			return werr == nil
		})
		seq++
		return werr == nil
	})
	return werr
}

// rowIter is the part of *sql.Rows that eachRow needs.
type rowIter interface {
	Next() bool
	Scan(dest ...any) error
	Err() error
	Close() error
}

// eachRow calls fn for every row and closes rows. It returns the first error
// from fn, or the iteration error reported by rows.Err.
func eachRow(rows rowIter, fn func(scan func(dest ...any) error) error) error {
	defer rows.Close()
	for rows.Next() {
		if err := fn(rows.Scan); err != nil {
			return err
		}
	}
	return rows.Err()
}

// Load mirrors Decode: rows are replayed through Insert and rows that cannot
// be applied are reported as core.ErrMalformedState. A query or iteration
// failure is returned with whatever was loaded before it.
func (s *SQLiteBackend) Load() (*core.TeacherStore, *core.StudentStore, error) {
	teachers := core.NewTeacherStore()
	students := core.NewStudentStore()
	var malformed []error

	rows, err := s.db.Query("SELECT id, name, password, subject FROM teachers ORDER BY seq ASC")
	if err != nil {
		return teachers, students, err
	}
	err = eachRow(rows, func(scan func(dest ...any) error) error {
		var id, name, pw, subject string
		if err := scan(&id, &name, &pw, &subject); err != nil {
			return err
		}
		if _, err := teachers.Insert(id, name, pw, subject); err != nil {
			malformed = append(malformed, fmt.Errorf("teacher row: %v: %w", err, core.ErrMalformedState))
		}
		return nil
	})
	if err != nil {
		return teachers, students, fmt.Errorf("load teachers: %w", err)
	}

	bySeq := make(map[int64]*core.Student)
	rows, err = s.db.Query("SELECT seq, srn, name FROM students ORDER BY seq ASC")
	if err != nil {
		return teachers, students, err
	}
	err = eachRow(rows, func(scan func(dest ...any) error) error {
		var seq int64
		var srn, name string
		if err := scan(&seq, &srn, &name); err != nil {
			return err
		}
		st, err := students.Insert(srn, name)
		if err != nil {
			malformed = append(malformed, fmt.Errorf("student row %d: %v: %w", seq, err, core.ErrMalformedState))
			st = students.Find(srn)
		}
		bySeq[seq] = st
		return nil
	})
	if err != nil {
		return teachers, students, fmt.Errorf("load students: %w", err)
	}

	pending := make(map[*core.Student][]common.PerformanceRecord)
	var order []*core.Student
	rows, err = s.db.Query("SELECT student_seq, type, value, subject, description FROM records ORDER BY student_seq ASC, pos ASC")
	if err != nil {
		return teachers, students, err
	}
	err = eachRow(rows, func(scan func(dest ...any) error) error {
		var seq int64
		var typ, value int
		var subject, desc string
		if err := scan(&seq, &typ, &value, &subject, &desc); err != nil {
			return err
		}
		st, ok := bySeq[seq]
		if !ok {
			malformed = append(malformed, fmt.Errorf("record for unknown student %d: %w", seq, core.ErrMalformedState))
			return nil
		}
		rt, err := common.ParseRecordType(typ)
		if err != nil {
			malformed = append(malformed, fmt.Errorf("student row %d: %v: %w", seq, err, core.ErrMalformedState))
			return nil
		}
		if _, seen := pending[st]; !seen {
			order = append(order, st)
		}
		pending[st] = append(pending[st], common.PerformanceRecord{Type: rt, Value: value, Subject: subject, Description: desc})
		return nil
	})
	for _, st := range order {
		st.History.AppendOldest(pending[st]...)
	}
	if err != nil {
		return teachers, students, fmt.Errorf("load records: %w", err)
	}
	return teachers, students, errors.Join(malformed...)
}

func (s *SQLiteBackend) Close() error {
	return s.db.Close()
}
