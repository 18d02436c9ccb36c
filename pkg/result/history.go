package result

import (
	"sync"
	"time"
)

const defaultHistorySize = 50

// HistoryEntry is one line of the run history: enough to render the
// recent-activity panel without holding the full row set alive.
type HistoryEntry struct {
	ID           string    `json:"id"`
	Filename     string    `json:"filename"`
	CreatedAt    time.Time `json:"created_at"`
	RowCount     int       `json:"row_count"`
	AnomalyCount int       `json:"anomaly_count"`
	AnomalyRate  float64   `json:"anomaly_rate"`
	AvgScore     *float64  `json:"avg_score,omitempty"`
	Downsampled  bool      `json:"downsampled"`
}

// History is a bounded, most-recent-first log of completed runs.
type History struct {
	mu      sync.RWMutex
	size    int
	entries []HistoryEntry
}

// NewHistory creates a history retaining at most size entries.
func NewHistory(size int) *History {
	if size <= 0 {
		size = defaultHistorySize
	}
	return &History{size: size}
}

// Push prepends an entry, dropping the oldest once the bound is reached.
func (h *History) Push(e HistoryEntry) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.entries = append([]HistoryEntry{e}, h.entries...)
	if len(h.entries) > h.size {
		h.entries = h.entries[:h.size]
	}
}

// List returns up to limit entries, newest first. limit <= 0 means all.
func (h *History) List(limit int) []HistoryEntry {
	h.mu.RLock()
	defer h.mu.RUnlock()
	n := len(h.entries)
	if limit > 0 && limit < n {
		n = limit
	}
	out := make([]HistoryEntry, n)
	copy(out, h.entries[:n])
	return out
}

// Len reports the number of retained entries.
func (h *History) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.entries)
}
