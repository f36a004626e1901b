package storage

import (
	"bufio"
	"errors"
	"fmt"
	"io/fs"
	"log"
	"os"

	"studenttracker/pkg/core"
)

// Backend persists both stores as one snapshot.
type Backend interface {
	// Load returns empty stores when nothing has been saved yet.
	Load() (*core.TeacherStore, *core.StudentStore, error)
	Save(teachers *core.TeacherStore, students *core.StudentStore) error
	Close() error
}

// FileBackend keeps the snapshot in a single text file in the codec format.
type FileBackend struct {
	path string
}

func NewFileBackend(path string) *FileBackend {
	return &FileBackend{path: path}
}

func (b *FileBackend) Path() string { return b.path }

func (b *FileBackend) Load() (*core.TeacherStore, *core.StudentStore, error) {
	f, err := os.Open(b.path)
	if errors.Is(err, fs.ErrNotExist) {
		log.Printf("[Storage] No save file at %s. Starting with a fresh database.", b.path)
		return core.NewTeacherStore(), core.NewStudentStore(), nil
	}
	if err != nil {
		return core.NewTeacherStore(), core.NewStudentStore(), err
	}
	defer f.Close()

	return Decode(bufio.NewReader(f))
}

// Save writes to a temporary file and renames it over the old snapshot,
// so a failed save leaves the previous file intact.
func (b *FileBackend) Save(teachers *core.TeacherStore, students *core.StudentStore) error {
	tmp := b.path + ".tmp"
	f, err := os.OpenFile(tmp, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
	if err != nil {
		return err
	}

	if err := Encode(f, teachers, students); err != nil {
		f.Close()
		os.Remove(tmp)
		return fmt.Errorf("encode snapshot: %w", err)
	}
	if err := f.Sync(); err != nil {
		f.Close()
		os.Remove(tmp)
		return err
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return err
	}
	return os.Rename(tmp, b.path)
}

func (b *FileBackend) Close() error { return nil }
