package storage

import (
	"bufio"
	"encoding/binary"
	"errors"
	"hash/crc32"
	"io"
	"os"
	"sync"
	"time"

	"studenttracker/pkg/core"
)

// [CRC32 4B] [Timestamp 8B] [Attempts 4B] [IDLen 2B] [NameLen 2B] [ID] [Name]

const (
	AlertHeaderSize = 4 + 8 + 4 + 2 + 2 // 20 Bytes
)

// AlertLog is an append-only journal of account lockouts. It implements core.AlertSink.
type AlertLog struct {
	file *os.File
	mu   sync.Mutex
	buf  *bufio.Writer
}

func OpenAlertLog(path string) (*AlertLog, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR|os.O_APPEND, 0644)
	if err != nil {
		return nil, err
	}

	return &AlertLog{
		file: f,
		buf:  bufio.NewWriter(f),
	}, nil
}

// Alert appends a and flushes it to the file.
func (l *AlertLog) Alert(a core.SecurityAlert) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	id, name := []byte(a.TeacherID), []byte(a.Name)
	if len(id) > 0xFFFF || len(name) > 0xFFFF {
		return errors.New("alertlog: field too long")
	}

	header := make([]byte, AlertHeaderSize)
	binary.LittleEndian.PutUint64(header[4:12], uint64(a.At.UnixNano()))
	binary.LittleEndian.PutUint32(header[12:16], uint32(a.Attempts))
	binary.LittleEndian.PutUint16(header[16:18], uint16(len(id)))
	binary.LittleEndian.PutUint16(header[18:20], uint16(len(name)))

	checksum := crc32.NewIEEE()
	checksum.Write(header[4:])
	checksum.Write(id)
	checksum.Write(name)
	binary.LittleEndian.PutUint32(header[0:4], checksum.Sum32())

	for _, chunk := range [][]byte{header, id, name} {
		if _, err := l.buf.Write(chunk); err != nil {
			return err
		}
	}
	return l.buf.Flush()
}

func (l *AlertLog) Sync() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if err := l.buf.Flush(); err != nil {
		return err
	}
	return l.file.Sync()
}

func (l *AlertLog) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return errors.Join(l.buf.Flush(), l.file.Close())
}

func (l *AlertLog) Truncate() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if err := l.buf.Flush(); err != nil {
		return err
	}
	path := l.file.Name()
	if err := l.file.Close(); err != nil {
		return err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR|os.O_TRUNC|os.O_APPEND, 0644)
	if err != nil {
		return err
	}
	l.file = f
	l.buf = bufio.NewWriter(f)
	return l.file.Sync()
}

func (l *AlertLog) Size() (int64, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if err := l.buf.Flush(); err != nil {
		return 0, err
	}
	st, err := l.file.Stat()
	if err != nil {
		return 0, err
	}
	return st.Size(), nil
}

type AlertIterator struct {
	reader *bufio.Reader
	file   *os.File
}

func (l *AlertLog) NewIterator() (*AlertIterator, error) {
	f, err := os.Open(l.file.Name())
	if err != nil {
		return nil, err
	}
	return &AlertIterator{
		file:   f,
		reader: bufio.NewReader(f),
	}, nil
}

// Next returns io.EOF after the last alert.
func (it *AlertIterator) Next() (core.SecurityAlert, error) {
	header := make([]byte, AlertHeaderSize)
	if _, err := io.ReadFull(it.reader, header); err != nil {
		return core.SecurityAlert{}, err
	}

	storedCRC := binary.LittleEndian.Uint32(header[0:4])
	ts := int64(binary.LittleEndian.Uint64(header[4:12]))
	attempts := binary.LittleEndian.Uint32(header[12:16])
	idLen := binary.LittleEndian.Uint16(header[16:18])
	nameLen := binary.LittleEndian.Uint16(header[18:20])

	payload := make([]byte, int(idLen)+int(nameLen))
	if _, err := io.ReadFull(it.reader, payload); err != nil {
		return core.SecurityAlert{}, errors.New("alertlog: corrupted payload")
	}

	checksum := crc32.NewIEEE()
	checksum.Write(header[4:])
	checksum.Write(payload)
	if checksum.Sum32() != storedCRC {
		return core.SecurityAlert{}, errors.New("alertlog: crc mismatch")
	}

	return core.SecurityAlert{
		TeacherID: string(payload[:idLen]),
		Name:      string(payload[idLen:]),
		Attempts:  int(attempts),
		At:        time.Unix(0, ts),
	}, nil
}

func (it *AlertIterator) Close() {
	it.file.Close()
}
