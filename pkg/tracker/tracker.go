package tracker

import (
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"sync/atomic"

	"studenttracker/pkg/common"
	"studenttracker/pkg/config"
	"studenttracker/pkg/core"
	"studenttracker/pkg/monitor"
	"studenttracker/pkg/report"
	"studenttracker/pkg/storage"
)

// Tracker owns both stores for the lifetime of a session and ties them to
// persistence, authentication and reporting. Not safe for concurrent use.
type Tracker struct {
	Teachers *core.TeacherStore
	Students *core.StudentStore

	auth    *core.Authenticator
	backend storage.Backend
	alerts  *storage.AlertLog
	stats   *monitor.Stats
	conf    *config.Config
}

// Open creates the data directory, opens the configured backend and loads the
// last snapshot. Malformed fragments of the snapshot are logged and skipped.
func Open(cfg *config.Config) (*Tracker, error) {
	if err := os.MkdirAll(cfg.Storage.Path, 0755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}

	var backend storage.Backend
	switch cfg.Storage.Backend {
	case config.BackendSQLite:
		b, err := storage.NewSQLiteBackend(cfg.SQLitePath())
		if err != nil {
			return nil, err
		}
		backend = b
	default:
		backend = storage.NewFileBackend(cfg.DataFile())
	}

	alerts, err := storage.OpenAlertLog(cfg.AlertLogPath())
	if err != nil {
		backend.Close()
		return nil, fmt.Errorf("open alert log: %w", err)
	}

	t := &Tracker{
		backend: backend,
		alerts:  alerts,
		stats:   monitor.NewStats(),
		conf:    cfg,
	}
	t.load()
	return t, nil
}

func (t *Tracker) load() {
	teachers, students, err := t.backend.Load()
	switch {
	case err == nil:
	case errors.Is(err, core.ErrMalformedState):
		log.Printf("[Storage] Snapshot partially loaded, dropped fragments: %v", err)
	default:
		log.Printf("[Storage] Load error, continuing with what was read: %v", err)
	}
	t.Teachers = teachers
	t.Students = students
	t.auth = core.NewAuthenticator(teachers, core.AlertFunc(t.logAlert), t.alerts)
	log.Printf("[Tracker] Loaded %d teacher(s) and %d student(s) via %s backend.",
		teachers.Len(), students.Len(), t.conf.Storage.Backend)
}

func (t *Tracker) logAlert(a core.SecurityAlert) error {
	t.stats.RecordLockout()
	log.Printf("[SECURITY] %d failed login attempts. Account %s (%s) is now LOCKED.", a.Attempts, a.TeacherID, a.Name)
	return nil
}

// Login authenticates a teacher; see core.Authenticator.Login.
func (t *Tracker) Login(id, password string) (*core.Session, error) {
	sess, err := t.auth.Login(id, password)
	if err != nil {
		if errors.Is(err, core.ErrInvalidCredentials) {
			t.stats.RecordFailedLogin()
		}
		log.Printf("[Auth] Login failed for %s: %v", id, err)
		return nil, err
	}
	log.Printf("[Auth] %s logged in (session %s)", id, sess.ID)
	return sess, nil
}

func (t *Tracker) CreateTeacher(id, name, password, subject string) error {
	t.stats.RecordWrite()
	_, err := t.Teachers.Insert(id, name, password, subject)
	return err
}

func (t *Tracker) AddStudent(srn, name string) error {
	t.stats.RecordWrite()
	_, err := t.Students.Insert(srn, name)
	return err
}

// FindStudent is Students.Find with a NotFound error instead of nil.
func (t *Tracker) FindStudent(srn string) (*core.Student, error) {
	t.stats.RecordRead()
	st := t.Students.Find(srn)
	if st == nil {
		return nil, &core.OpError{Store: "student", Op: "Find", Key: srn, Kind: core.ErrNotFound}
	}
	return st, nil
}

func (t *Tracker) DeleteStudent(srn string) error {
	t.stats.RecordWrite()
	return t.Students.Delete(srn)
}

func (t *Tracker) RenameStudent(oldSRN, newSRN string) error {
	t.stats.RecordWrite()
	return t.Students.Rename(oldSRN, newSRN)
}

func (t *Tracker) SetStudentName(srn, name string) error {
	t.stats.RecordWrite()
	return t.Students.SetName(srn, name)
}

// LogMark validates value against the range of typ and records it for subject.
func (t *Tracker) LogMark(srn string, typ common.RecordType, value int, subject string) error {
	if err := typ.Validate(value); err != nil {
		return err
	}
	st, err := t.FindStudent(srn)
	if err != nil {
		return err
	}
	t.stats.RecordWrite()
	st.AddRecord(typ, value, subject, typ.String())
	return nil
}

// ModifyMark changes the most recent (typ, subject) mark of a student.
func (t *Tracker) ModifyMark(srn string, typ common.RecordType, subject string, value int) error {
	if err := typ.Validate(value); err != nil {
		return err
	}
	st, err := t.FindStudent(srn)
	if err != nil {
		return err
	}
	t.stats.RecordWrite()
	if !st.ModifyRecord(typ, subject, value) {
		return &core.OpError{Store: "student", Op: "ModifyMark", Key: srn, Kind: core.ErrNotFound}
	}
	return nil
}

// TakeAttendance asks present for every student in SRN order and records the answer for date.
// It stops at the first error from present.
func (t *Tracker) TakeAttendance(date string, present func(st *core.Student) (bool, error)) (int, error) {
	var err error
	n := 0
	t.Students.Walk(func(st *core.Student) bool {
		var ok bool
		if ok, err = present(st); err != nil {
			return false
		}
		core.MarkAttendance(st, date, ok)
		t.stats.RecordWrite()
		n++
		return true
	})
	return n, err
}

func (t *Tracker) SubjectReport(srn, subject string) (*report.SubjectReport, error) {
	st, err := t.FindStudent(srn)
	if err != nil {
		return nil, err
	}
	return report.Subject(st, subject), nil
}

func (t *Tracker) MasterReport(srn string) (*report.MasterReport, error) {
	st, err := t.FindStudent(srn)
	if err != nil {
		return nil, err
	}
	return report.Master(st), nil
}

func (t *Tracker) Ranking(subject string) []report.Standing {
	t.stats.RecordRead()
	return report.RankSubject(t.Students, subject)
}

// ExportStudent writes <export_dir>/<srn>.xlsx and returns its path.
func (t *Tracker) ExportStudent(srn string, subjects ...string) (string, error) {
	st, err := t.FindStudent(srn)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(t.conf.Report.ExportDir, 0755); err != nil {
		return "", err
	}
	path := filepath.Join(t.conf.Report.ExportDir, srn+".xlsx")
	f, err := os.Create(path)
	if err != nil {
		return "", err
	}
	if err := report.ExportWorkbook(f, st, subjects...); err != nil {
		f.Close()
		return "", err
	}
	return path, f.Close()
}

// ImportRoster adds the students listed in an .xlsx roster.
func (t *Tracker) ImportRoster(path string) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()
	n, err := report.ImportRoster(f, t.Students)
	for i := 0; i < n; i++ {
		t.stats.RecordWrite()
	}
	return n, err
}

func (t *Tracker) Save() error {
	if err := t.backend.Save(t.Teachers, t.Students); err != nil {
		return err
	}
	if err := t.alerts.Sync(); err != nil {
		log.Printf("[Storage] Warning: Failed to sync alert log: %v", err)
	}
	t.stats.RecordSave()
	log.Printf("[Storage] Saved %d teacher(s) and %d student(s).", t.Teachers.Len(), t.Students.Len())
	return nil
}

// Alerts returns every lockout recorded in the alert journal.
func (t *Tracker) Alerts() ([]core.SecurityAlert, error) {
	it, err := t.alerts.NewIterator()
	if err != nil {
		return nil, err
	}
	defer it.Close()

	var out []core.SecurityAlert
	for {
		a, err := it.Next()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return out, nil
			}
			return out, err
		}
		out = append(out, a)
	}
}

// ClearAlerts empties the alert journal. Locked accounts stay locked.
func (t *Tracker) ClearAlerts() error {
	if err := t.alerts.Truncate(); err != nil {
		return err
	}
	log.Printf("[SECURITY] Alert log cleared.")
	return nil
}

func (t *Tracker) Stats() map[string]interface{} {
	alertBytes, err := t.alerts.Size()
	if err != nil {
		log.Printf("[Tracker] Failed to stat alert log: %v", err)
		alertBytes = -1
	}
	return map[string]interface{}{
		"alert_log_bytes": alertBytes,
		"teachers":        t.Teachers.Len(),
		"students":        t.Students.Len(),
		"reads":           atomic.LoadUint64(&t.stats.ReadCount),
		"writes":          atomic.LoadUint64(&t.stats.WriteCount),
		"failed_logins":   atomic.LoadUint64(&t.stats.FailedLoginCount),
		"lockouts":        atomic.LoadUint64(&t.stats.LockoutCount),
		"saves":           atomic.LoadUint64(&t.stats.SaveCount),
		"rw_ratio":        t.stats.GetReadWriteRatio(),
		"backend":         t.conf.Storage.Backend,
	}
}

// Close releases the stores and closes the backend and alert journal. It does not save.
func (t *Tracker) Close() error {
	t.Students.Clear()
	t.Teachers.Clear()
	return errors.Join(t.alerts.Close(), t.backend.Close())
}
