package storage

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"studenttracker/pkg/common"
	"studenttracker/pkg/core"
)

func TestFileBackendMissingFileStartsEmpty(t *testing.T) {
	b := NewFileBackend(filepath.Join(t.TempDir(), "data.dat"))
	teachers, students, err := b.Load()
	require.NoError(t, err)
	assert.Equal(t, 0, teachers.Len())
	assert.Equal(t, 0, students.Len())
}

func TestFileBackendSaveLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data.dat")
	b := NewFileBackend(path)
	teachers, students := sampleStores(t)

	require.NoError(t, b.Save(teachers, students))
	_, err := os.Stat(path + ".tmp")
	assert.True(t, os.IsNotExist(err), "temporary file should be renamed away")

	gotT, gotS, err := b.Load()
	require.NoError(t, err)
	assert.Equal(t, tuples(students), tuples(gotS))
	assert.Equal(t, preOrder(students), preOrder(gotS))
	assert.Equal(t, 3, gotT.Len())
}

func TestFileBackendFailedSaveKeepsPreviousSnapshot(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data.dat")
	b := NewFileBackend(path)
	teachers, students := sampleStores(t)
	require.NoError(t, b.Save(teachers, students))
	before, err := os.ReadFile(path)
	require.NoError(t, err)

	_, err = students.Insert("BAD", "line\nbreak")
	require.NoError(t, err)
	assert.ErrorIs(t, b.Save(teachers, students), core.ErrMalformedState)

	after, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, before, after)
}

func TestSQLiteBackendRoundTrip(t *testing.T) {
	b, err := NewSQLiteBackend(filepath.Join(t.TempDir(), "tracker.db"))
	require.NoError(t, err)
	defer b.Close()

	teachers, students, err := b.Load()
	require.NoError(t, err)
	assert.Equal(t, 0, students.Len())

	teachers, students = sampleStores(t)
	require.NoError(t, b.Save(teachers, students))

	gotT, gotS, err := b.Load()
	require.NoError(t, err)
	assert.Equal(t, tuples(students), tuples(gotS))
	assert.Equal(t, preOrder(students), preOrder(gotS))
	require.NotNil(t, gotT.Find("T9"))
	assert.Equal(t, "secret T9", gotT.Find("T9").Password)

	// A second save replaces rather than accumulates.
	require.NoError(t, students.Delete("PES1"))
	students.Find("PES4").AddRecord(common.Internal2, 15, "Math", "Internal 2")
	require.NoError(t, b.Save(teachers, students))

	_, gotS, err = b.Load()
	require.NoError(t, err)
	assert.Equal(t, tuples(students), tuples(gotS))
	assert.Nil(t, gotS.Find("PES1"))
}

// stubRows yields n rows, then stops with err.
type stubRows struct {
	n      int
	err    error
	closed bool
}

func (r *stubRows) Next() bool {
	if r.n == 0 {
		return false
	}
	r.n--
	return true
}

func (r *stubRows) Scan(dest ...any) error { return nil }
func (r *stubRows) Err() error             { return r.err }
func (r *stubRows) Close() error           { r.closed = true; return nil }

func TestEachRowReportsIterationError(t *testing.T) {
	broken := errors.New("connection reset mid-scan")
	rows := &stubRows{n: 1, err: broken}

	visited := 0
	err := eachRow(rows, func(scan func(dest ...any) error) error {
		visited++
		return scan()
	})
	assert.ErrorIs(t, err, broken)
	assert.Equal(t, 1, visited)
	assert.True(t, rows.closed)
}

func TestEachRowStopsOnCallbackError(t *testing.T) {
	stop := errors.New("bad row")
	rows := &stubRows{n: 3}

	visited := 0
	err := eachRow(rows, func(func(dest ...any) error) error {
		visited++
		return stop
	})
	assert.ErrorIs(t, err, stop)
	assert.Equal(t, 1, visited)
	assert.True(t, rows.closed)
}
