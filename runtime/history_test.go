package runtime

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"corpchat/domain"
)

func TestHistoryLog_ReplayPreservesAppendOrder(t *testing.T) {
	req := require.New(t)
	history := NewHistoryLog()

	first := domain.NewChat("alice", "one")
	second := domain.NewJoined("bob")
	third := domain.NewChat("bob", "two")
	history.Append(first)
	history.Append(second)
	history.Append(third)

	replay := history.Replay()
	req.Len(replay, 3)
	req.Equal(first.ID, replay[0].ID)
	req.Equal(second.ID, replay[1].ID)
	req.Equal(third.ID, replay[2].ID)
}

func TestHistoryLog_ReplayIsSnapshot(t *testing.T) {
	req := require.New(t)
	history := NewHistoryLog()
	history.Append(domain.NewChat("alice", "one"))

	snapshot := history.Replay()

	// Appends after the snapshot must not leak into it
	history.Append(domain.NewChat("alice", "two"))
	req.Len(snapshot, 1)
	req.Equal(2, history.Len())
}

func TestHistoryLog_ConcurrentAppendsAllLand(t *testing.T) {
	req := require.New(t)
	history := NewHistoryLog()

	const writers = 10
	const perWriter = 100
	var wg sync.WaitGroup
	for w := 0; w < writers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < perWriter; i++ {
				history.Append(domain.NewChat(fmt.Sprintf("writer-%d", w), fmt.Sprintf("msg-%d", i)))
			}
		}(w)
	}
	wg.Wait()

	req.Equal(writers*perWriter, history.Len())

	// Per-writer order is preserved even though writers interleave
	replay := history.Replay()
	lastSeen := make(map[string]int)
	for _, e := range replay {
		var n int
		_, err := fmt.Sscanf(e.Text, "msg-%d", &n)
		req.NoError(err)
		if last, ok := lastSeen[e.Author]; ok {
			req.Greater(n, last)
		}
		lastSeen[e.Author] = n
	}
}
