package tracker

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"studenttracker/pkg/common"
	"studenttracker/pkg/config"
	"studenttracker/pkg/core"
)

func testConfig(t *testing.T, backend string) *config.Config {
	t.Helper()
	dir := t.TempDir()
	return &config.Config{
		Storage: config.StorageConfig{
			Path:       filepath.Join(dir, "data"),
			File:       "data.dat",
			Backend:    backend,
			SQLiteFile: "tracker.db",
		},
		Security: config.SecurityConfig{AlertLog: "alerts.log"},
		Report:   config.ReportConfig{ExportDir: filepath.Join(dir, "reports")},
	}
}

func openTracker(t *testing.T, cfg *config.Config) *Tracker {
	t.Helper()
	tr, err := Open(cfg)
	require.NoError(t, err)
	return tr
}

func TestSaveAndReopen(t *testing.T) {
	for _, backend := range []string{config.BackendText, config.BackendSQLite} {
		t.Run(backend, func(t *testing.T) {
			cfg := testConfig(t, backend)
			tr := openTracker(t, cfg)

			require.NoError(t, tr.CreateTeacher("T1", "Grace", "pw", "Math"))
			require.NoError(t, tr.AddStudent("S2", "Bo"))
			require.NoError(t, tr.AddStudent("S1", "Ada"))
			require.NoError(t, tr.LogMark("S1", common.Internal1, 18, "Math"))
			require.NoError(t, tr.LogMark("S1", common.SemesterExam, 80, "Math"))
			require.NoError(t, tr.Save())
			require.NoError(t, tr.Close())

			tr = openTracker(t, cfg)
			defer tr.Close()
			assert.Equal(t, 1, tr.Teachers.Len())
			assert.Equal(t, 2, tr.Students.Len())

			st, err := tr.FindStudent("S1")
			require.NoError(t, err)
			recs := st.History.Records()
			require.Len(t, recs, 2)
			assert.Equal(t, common.SemesterExam, recs[0].Type)
			assert.Equal(t, "Semester Exam", recs[0].Description)
		})
	}
}

func TestUnsavedChangesAreLost(t *testing.T) {
	cfg := testConfig(t, config.BackendText)
	tr := openTracker(t, cfg)
	require.NoError(t, tr.AddStudent("S1", "Ada"))
	require.NoError(t, tr.Save())
	require.NoError(t, tr.AddStudent("S2", "Bo"))
	require.NoError(t, tr.Close())

	tr = openTracker(t, cfg)
	defer tr.Close()
	assert.Equal(t, 1, tr.Students.Len())
}

func TestOpenWithMalformedSnapshot(t *testing.T) {
	cfg := testConfig(t, config.BackendText)
	require.NoError(t, os.MkdirAll(cfg.Storage.Path, 0755))
	data := "STUDENT\nS1\nAda\nRECORD\nx\n1\nMath\nbad\nEND_OF_FILE\n"
	require.NoError(t, os.WriteFile(cfg.DataFile(), []byte(data), 0644))

	tr := openTracker(t, cfg)
	defer tr.Close()
	st, err := tr.FindStudent("S1")
	require.NoError(t, err)
	assert.Equal(t, 0, st.History.Len())
}

func TestLockoutIsJournaled(t *testing.T) {
	cfg := testConfig(t, config.BackendText)
	tr := openTracker(t, cfg)
	defer tr.Close()
	require.NoError(t, tr.CreateTeacher("T1", "Grace", "pw", "Math"))

	for i := 0; i < core.MaxFailedAttempts; i++ {
		_, err := tr.Login("T1", "wrong")
		assert.ErrorIs(t, err, core.ErrInvalidCredentials)
	}
	_, err := tr.Login("T1", "pw")
	assert.ErrorIs(t, err, core.ErrAccountLocked)

	alerts, err := tr.Alerts()
	require.NoError(t, err)
	require.Len(t, alerts, 1)
	assert.Equal(t, "T1", alerts[0].TeacherID)
	assert.Equal(t, core.MaxFailedAttempts, alerts[0].Attempts)

	stats := tr.Stats()
	assert.Equal(t, uint64(3), stats["failed_logins"])
	assert.Equal(t, uint64(1), stats["lockouts"])
	assert.Greater(t, stats["alert_log_bytes"], int64(0))
}

func TestClearAlerts(t *testing.T) {
	cfg := testConfig(t, config.BackendText)
	tr := openTracker(t, cfg)
	require.NoError(t, tr.CreateTeacher("T1", "Grace", "pw", "Math"))
	for i := 0; i < core.MaxFailedAttempts; i++ {
		_, _ = tr.Login("T1", "wrong")
	}
	require.NoError(t, tr.Save())

	require.NoError(t, tr.ClearAlerts())
	alerts, err := tr.Alerts()
	require.NoError(t, err)
	assert.Empty(t, alerts)
	assert.Equal(t, int64(0), tr.Stats()["alert_log_bytes"])

	_, err = tr.Login("T1", "pw")
	assert.ErrorIs(t, err, core.ErrAccountLocked, "clearing the log does not unlock the account")
	require.NoError(t, tr.Close())

	tr = openTracker(t, cfg)
	defer tr.Close()
	alerts, err = tr.Alerts()
	require.NoError(t, err)
	assert.Empty(t, alerts, "a cleared log stays empty after reopening")
}

func TestLoginSuccess(t *testing.T) {
	tr := openTracker(t, testConfig(t, config.BackendText))
	defer tr.Close()
	require.NoError(t, tr.CreateTeacher("T1", "Grace", "pw", "Math"))

	sess, err := tr.Login("T1", "pw")
	require.NoError(t, err)
	assert.NotEmpty(t, sess.ID)
	assert.Equal(t, "Math", sess.Teacher.Subject)

	_, err = tr.Login("T9", "pw")
	assert.ErrorIs(t, err, core.ErrNotFound)
}

func TestMarkValidation(t *testing.T) {
	tr := openTracker(t, testConfig(t, config.BackendText))
	defer tr.Close()
	require.NoError(t, tr.AddStudent("S1", "Ada"))

	assert.ErrorIs(t, tr.LogMark("S1", common.Internal1, 21, "Math"), common.ErrValueOutOfRange)
	assert.ErrorIs(t, tr.LogMark("S1", common.Assignment1, -1, "Math"), common.ErrValueOutOfRange)
	assert.ErrorIs(t, tr.LogMark("S9", common.Internal1, 10, "Math"), core.ErrNotFound)

	require.NoError(t, tr.LogMark("S1", common.Internal1, 10, "Math"))
	require.NoError(t, tr.ModifyMark("S1", common.Internal1, "Math", 15))
	assert.ErrorIs(t, tr.ModifyMark("S1", common.Internal2, "Math", 15), core.ErrNotFound)

	r, err := tr.SubjectReport("S1", "Math")
	require.NoError(t, err)
	v, ok := r.Component(common.Internal1)
	require.True(t, ok)
	assert.Equal(t, 15, v)
}

func TestTakeAttendance(t *testing.T) {
	tr := openTracker(t, testConfig(t, config.BackendText))
	defer tr.Close()
	for _, srn := range []string{"S2", "S1", "S3"} {
		require.NoError(t, tr.AddStudent(srn, "Name "+srn))
	}

	var asked []string
	n, err := tr.TakeAttendance("2025-11-01", func(st *core.Student) (bool, error) {
		asked = append(asked, st.SRN())
		return st.SRN() != "S2", nil
	})
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	assert.Equal(t, []string{"S1", "S2", "S3"}, asked)

	m, err := tr.MasterReport("S2")
	require.NoError(t, err)
	assert.Equal(t, 0, m.Attendance.Present)
	assert.Equal(t, 1, m.Attendance.Total)

	stop := errors.New("stop")
	n, err = tr.TakeAttendance("2025-11-02", func(st *core.Student) (bool, error) {
		if st.SRN() == "S2" {
			return false, stop
		}
		return true, nil
	})
	assert.ErrorIs(t, err, stop)
	assert.Equal(t, 1, n)
}

func TestRenameAndDelete(t *testing.T) {
	tr := openTracker(t, testConfig(t, config.BackendText))
	defer tr.Close()
	require.NoError(t, tr.AddStudent("S1", "Ada"))
	require.NoError(t, tr.AddStudent("S2", "Bo"))

	assert.ErrorIs(t, tr.RenameStudent("S1", "S2"), core.ErrDuplicateKey)
	require.NoError(t, tr.RenameStudent("S1", "S9"))
	require.NoError(t, tr.SetStudentName("S9", "Ada L."))
	st, err := tr.FindStudent("S9")
	require.NoError(t, err)
	assert.Equal(t, "Ada L.", st.Name)

	require.NoError(t, tr.DeleteStudent("S2"))
	assert.ErrorIs(t, tr.DeleteStudent("S2"), core.ErrNotFound)
	assert.Equal(t, 1, tr.Students.Len())
}

func TestExportAndImport(t *testing.T) {
	cfg := testConfig(t, config.BackendText)
	tr := openTracker(t, cfg)
	defer tr.Close()
	require.NoError(t, tr.AddStudent("S1", "Ada"))
	require.NoError(t, tr.LogMark("S1", common.Internal1, 18, "Math"))

	path, err := tr.ExportStudent("S1", "Math")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(cfg.Report.ExportDir, "S1.xlsx"), path)
	_, err = os.Stat(path)
	require.NoError(t, err)

	_, err = tr.ExportStudent("S404")
	assert.ErrorIs(t, err, core.ErrNotFound)

	_, err = tr.ImportRoster(filepath.Join(cfg.Report.ExportDir, "missing.xlsx"))
	assert.Error(t, err)
}
