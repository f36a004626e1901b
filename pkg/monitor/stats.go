package monitor

import (
	"sync/atomic"
)

// Stats counts tracker operations for the session summary.
type Stats struct {
	ReadCount        uint64
	WriteCount       uint64
	FailedLoginCount uint64
	LockoutCount     uint64
	SaveCount        uint64
}

func NewStats() *Stats {
	return &Stats{}
}

func (s *Stats) RecordRead() {
	atomic.AddUint64(&s.ReadCount, 1)
}

func (s *Stats) RecordWrite() {
	atomic.AddUint64(&s.WriteCount, 1)
}

func (s *Stats) RecordFailedLogin() {
	atomic.AddUint64(&s.FailedLoginCount, 1)
}

func (s *Stats) RecordLockout() {
	atomic.AddUint64(&s.LockoutCount, 1)
}

func (s *Stats) RecordSave() {
	atomic.AddUint64(&s.SaveCount, 1)
}

func (s *Stats) GetReadWriteRatio() float64 {
	reads := atomic.LoadUint64(&s.ReadCount)
	writes := atomic.LoadUint64(&s.WriteCount)

	if writes == 0 {
		if reads > 0 {
			return 100.0
		}
		return 0.0
	}
	return float64(reads) / float64(writes)
}
