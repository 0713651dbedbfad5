package runtime

import (
	"sync"

	"corpchat/domain"
)

// HistoryLog is the append-only ordered sequence of chat and system events.
// Append order is the single source of truth for replay and broadcast
// order. Growth is unbounded; retention is out of scope for this engine.
type HistoryLog struct {
	mu      sync.RWMutex
	entries []domain.Entry
}

func NewHistoryLog() *HistoryLog {
	return &HistoryLog{}
}

func (h *HistoryLog) Append(e domain.Entry) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.entries = append(h.entries, e)
}

// Replay returns a snapshot copy of the full log in append order.
// The copy is safe to iterate while concurrent appends continue.
func (h *HistoryLog) Replay() []domain.Entry {
	h.mu.RLock()
	defer h.mu.RUnlock()
	snapshot := make([]domain.Entry, len(h.entries))
	copy(snapshot, h.entries)
	return snapshot
}

func (h *HistoryLog) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.entries)
}
