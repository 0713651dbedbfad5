package sink

import (
	"context"
	"sync"

	"corpchat/domain"
)

// Timeline is a projection of the most recent entries, used by the admin
// console to inspect activity without touching the history log.
type Timeline struct {
	mu      sync.Mutex
	limit   int
	entries []domain.Entry
}

func NewTimeline(limit int) *Timeline {
	return &Timeline{limit: limit}
}

func (t *Timeline) Consume(_ context.Context, e domain.Entry) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.entries = append(t.entries, e)
	if t.limit > 0 && len(t.entries) > t.limit {
		t.entries = t.entries[len(t.entries)-t.limit:]
	}
	return nil
}

// Recent returns up to n entries, newest last.
func (t *Timeline) Recent(n int) []domain.Entry {
	t.mu.Lock()
	defer t.mu.Unlock()

	if n <= 0 || n > len(t.entries) {
		n = len(t.entries)
	}
	out := make([]domain.Entry, n)
	copy(out, t.entries[len(t.entries)-n:])
	return out
}
