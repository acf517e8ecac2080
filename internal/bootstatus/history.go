package bootstatus

import (
	"sync"
	"time"
)

// HistoryEntry is one retained resolution outcome.
type HistoryEntry struct {
	Target     string    `json:"target"`
	ResolvedAt time.Time `json:"resolved_at"`
	Record     *Record   `json:"record,omitempty"`
	Error      string    `json:"error,omitempty"`
}

// ---------------------------------------------------------------------------
// in-memory ring buffer (maxEntries) ----------------------------------------
// ---------------------------------------------------------------------------

var (
	histMu     sync.Mutex
	histBuf    []HistoryEntry
	maxEntries = 1_000
)

// AddHistory appends the outcomes of one batch, trimming the oldest entries
// when the ring is full.
func AddHistory(results []Result) {
	now := time.Now()

	histMu.Lock()
	defer histMu.Unlock()

	for _, res := range results {
		entry := HistoryEntry{Target: res.Target, ResolvedAt: now, Record: res.Record}
		if res.Err != nil {
			entry.Error = res.Err.Error()
		}
		histBuf = append(histBuf, entry)
	}
	if len(histBuf) > maxEntries {
		histBuf = histBuf[len(histBuf)-maxEntries:]
	}
}

// GetHistory returns a *copy* of the current buffer (thread-safe).
func GetHistory() []HistoryEntry {
	histMu.Lock()
	defer histMu.Unlock()

	out := make([]HistoryEntry, len(histBuf))
	copy(out, histBuf)
	return out
}

// ClearHistory erases the buffer.
func ClearHistory() {
	histMu.Lock()
	defer histMu.Unlock()
	histBuf = nil
}
