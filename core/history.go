package core

import "sync"

const defaultHistoryCapacity = 100

// taskHistory is a bounded ring buffer of finished tasks. It is guarded by a
// mutex so inspectors may read it off the scheduling goroutine.
type taskHistory struct {
	mu    sync.Mutex
	items []HistoryRecord
	head  int
	count int
}

func newTaskHistory(capacity int) *taskHistory {
	if capacity < 1 {
		capacity = defaultHistoryCapacity
	}
	return &taskHistory{items: make([]HistoryRecord, capacity)}
}

func (h *taskHistory) Add(record HistoryRecord) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.items[h.head] = record
	h.head = (h.head + 1) % len(h.items)
	if h.count < len(h.items) {
		h.count++
	}
}

// Recent returns up to limit records, newest first. limit <= 0 returns all.
func (h *taskHistory) Recent(limit int) []HistoryRecord {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.count == 0 {
		return nil
	}
	if limit <= 0 || limit > h.count {
		limit = h.count
	}

	out := make([]HistoryRecord, 0, limit)
	for i := range limit {
		idx := (h.head - 1 - i + len(h.items)) % len(h.items)
		out = append(out, h.items[idx])
	}
	return out
}

// Last returns the most recent record.
func (h *taskHistory) Last() (HistoryRecord, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.count == 0 {
		return HistoryRecord{}, false
	}
	idx := (h.head - 1 + len(h.items)) % len(h.items)
	return h.items[idx], true
}
