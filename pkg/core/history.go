package core

import "studenttracker/pkg/common"

// History is a student's performance history, most recent first.
// Records are kept oldest-first internally so that adding a record is an append.
type History struct {
	records []*common.PerformanceRecord
}

// Add records a new entry as the most recent one. No range validation is done here.
func (h *History) Add(rec common.PerformanceRecord) {
	r := rec
	h.records = append(h.records, &r)
}

// AppendOldest attaches records behind the existing ones.
// recs must be in history order (most recent first), as they appear on disk.
func (h *History) AppendOldest(recs ...common.PerformanceRecord) {
	if len(recs) == 0 {
		return
	}
	merged := make([]*common.PerformanceRecord, 0, len(recs)+len(h.records))
	for i := len(recs) - 1; i >= 0; i-- {
		r := recs[i]
		merged = append(merged, &r)
	}
	h.records = append(merged, h.records...)
}

// Modify sets the value of the first record, in history order, matching typ and subject.
func (h *History) Modify(typ common.RecordType, subject string, value int) bool {
	for i := len(h.records) - 1; i >= 0; i-- {
		r := h.records[i]
		if r.Type == typ && r.Subject == subject {
			r.Value = value
			return true
		}
	}
	return false
}

// Each calls fn for every record, most recent first, until fn returns false.
func (h *History) Each(fn func(rec common.PerformanceRecord) bool) {
	for i := len(h.records) - 1; i >= 0; i-- {
		if !fn(*h.records[i]) {
			return
		}
	}
}

// Records returns a copy of the history, most recent first.
func (h *History) Records() []common.PerformanceRecord {
	out := make([]common.PerformanceRecord, 0, len(h.records))
	h.Each(func(rec common.PerformanceRecord) bool {
		out = append(out, rec)
		return true
	})
	return out
}

func (h *History) Len() int {
	return len(h.records)
}
