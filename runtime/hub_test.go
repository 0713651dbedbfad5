package runtime

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"corpchat/domain"
	"corpchat/mocks"
	"corpchat/observability"
	"corpchat/sink"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestHub() *Hub {
	return NewHub(testLogger(), NewHistoryLog(), NewRegistry(), observability.NewServerStats())
}

// drain reads everything currently buffered in a channel sink.
func drain(s *sink.ChannelSink) []domain.Entry {
	var out []domain.Entry
	for {
		select {
		case e := <-s.C:
			out = append(out, e)
		default:
			return out
		}
	}
}

func TestHub_BroadcastReachesAllSessions(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	hub := newTestHub()

	alice := sink.NewChannelSink(16)
	bob := sink.NewChannelSink(16)
	hub.Join(ctx, "alice", alice)
	hub.Join(ctx, "bob", bob)
	drain(alice)
	drain(bob)

	// When alice broadcasts
	hub.Broadcast(ctx, "alice", "hi")

	// Then both sessions observe the same chat entry
	aliceGot := drain(alice)
	bobGot := drain(bob)
	req.Len(aliceGot, 1)
	req.Len(bobGot, 1)
	req.Equal(domain.KindChat, aliceGot[0].Kind)
	req.Equal("hi", aliceGot[0].Text)
	req.Equal(aliceGot[0].ID, bobGot[0].ID)
}

func TestHub_BroadcastWithZeroSessionsStillAppends(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	hub := newTestHub()

	hub.ServerBroadcast(ctx, "maintenance at noon")

	history := hub.History()
	req.Len(history, 1)
	req.Equal(domain.KindServerBroadcast, history[0].Kind)
	req.Equal("maintenance at noon", history[0].Text)
}

func TestHub_JoinReturnsReplayThenBroadcastsJoinedOnce(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	hub := newTestHub()

	hub.ServerBroadcast(ctx, "welcome")
	hub.Broadcast(ctx, "alice", "hi")

	// Given alice is already connected
	alice := sink.NewChannelSink(16)
	hub.Join(ctx, "alice", alice)
	drain(alice)

	// When bob joins
	bob := sink.NewChannelSink(16)
	replay := hub.Join(ctx, "bob", bob)

	// Then the returned replay holds the prior history, in order, ending
	// just before bob's own Joined entry
	req.Len(replay, 3)
	req.Equal(domain.KindServerBroadcast, replay[0].Kind)
	req.Equal(domain.KindChat, replay[1].Kind)
	req.Equal(domain.KindJoined, replay[2].Kind)
	req.Equal("alice", replay[2].Author)

	// And bob's own Joined arrives live, exactly once, as his first push
	bobGot := drain(bob)
	req.Len(bobGot, 1)
	req.Equal(domain.KindJoined, bobGot[0].Kind)
	req.Equal("bob", bobGot[0].Author)

	// And alice sees bob's Joined exactly once, live
	aliceGot := drain(alice)
	req.Len(aliceGot, 1)
	req.Equal(domain.KindJoined, aliceGot[0].Kind)
	req.Equal("bob", aliceGot[0].Author)
}

func TestHub_ReplayNotLimitedBySinkBuffer(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	hub := newTestHub()

	const messages = 500
	for i := 0; i < messages; i++ {
		hub.Broadcast(ctx, "alice", fmt.Sprintf("msg-%04d", i))
	}

	// Given a sink far smaller than the history
	bob := sink.NewChannelSink(4)
	replay := hub.Join(ctx, "bob", bob)

	// Then the replay is complete and ordered regardless of the buffer
	req.Len(replay, messages)
	for i, e := range replay {
		req.Equal(fmt.Sprintf("msg-%04d", i), e.Text)
	}

	// And the only live entry is bob's own Joined
	live := drain(bob)
	req.Len(live, 1)
	req.Equal(domain.KindJoined, live[0].Kind)
	req.Equal("bob", live[0].Author)
}

func TestHub_ReplayIsPrefixStableUnderConcurrentBroadcasts(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	hub := newTestHub()

	const messages = 200
	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < messages; i++ {
			hub.Broadcast(ctx, "alice", fmt.Sprintf("msg-%04d", i))
		}
	}()

	// When bob joins mid-stream
	bob := sink.NewChannelSink(messages + 8)
	replay := hub.Join(ctx, "bob", bob)
	<-done

	// Then the union of replay and live delivery has no gap and no
	// duplicate: every chat index appears exactly once, ascending.
	got := append(replay, drain(bob)...)
	next := 0
	joined := 0
	for _, e := range got {
		switch e.Kind {
		case domain.KindChat:
			req.Equal(fmt.Sprintf("msg-%04d", next), e.Text)
			next++
		case domain.KindJoined:
			joined++
		}
	}
	req.Equal(messages, next)
	req.Equal(1, joined)
}

func TestHub_GlobalOrderIsIdenticalForAllRecipients(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	hub := newTestHub()

	const producers = 5
	const perProducer = 50
	capacity := producers*perProducer + 16

	alice := sink.NewChannelSink(capacity)
	bob := sink.NewChannelSink(capacity)
	hub.Join(ctx, "alice", alice)
	hub.Join(ctx, "bob", bob)
	drain(alice)
	drain(bob)

	var wg sync.WaitGroup
	for p := 0; p < producers; p++ {
		wg.Add(1)
		go func(p int) {
			defer wg.Done()
			for i := 0; i < perProducer; i++ {
				hub.Broadcast(ctx, fmt.Sprintf("user-%d", p), fmt.Sprintf("msg-%d", i))
			}
		}(p)
	}
	wg.Wait()

	aliceGot := drain(alice)
	bobGot := drain(bob)
	req.Len(aliceGot, producers*perProducer)
	req.Len(bobGot, len(aliceGot))

	// Both recipients observe the exact same interleaving, which is also
	// the history order.
	history := hub.History()[2:] // skip the two Joined entries
	for i := range aliceGot {
		req.Equal(aliceGot[i].ID, bobGot[i].ID)
		req.Equal(history[i].ID, aliceGot[i].ID)
	}
}

func TestHub_SlowSinkDoesNotAffectOthers(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	hub := newTestHub()

	// Given a saturated recipient: buffer of one, never drained
	slow := sink.NewChannelSink(1)
	healthy := sink.NewChannelSink(16)
	hub.Join(ctx, "slow", slow)
	hub.Join(ctx, "healthy", healthy)
	drain(healthy)

	// When three broadcasts go out
	hub.Broadcast(ctx, "healthy", "one")
	hub.Broadcast(ctx, "healthy", "two")
	hub.Broadcast(ctx, "healthy", "three")

	// Then the healthy recipient got everything and the producer never
	// blocked; the slow one lost the overflow silently.
	healthyGot := drain(healthy)
	req.Len(healthyGot, 3)
	req.Equal(3, len(hub.History())-2)
}

func TestHub_FailingSinkErrorIsSwallowed(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	hub := newTestHub()

	failing := mocks.NewMockEventSink(ctrl)
	failing.EXPECT().
		Consume(gomock.Any(), gomock.Any()).
		Return(fmt.Errorf("recipient unreachable")).
		AnyTimes()
	healthy := sink.NewChannelSink(16)

	hub.Join(ctx, "failing", failing)
	hub.Join(ctx, "healthy", healthy)
	drain(healthy)

	// A failing recipient never propagates to the caller
	hub.Broadcast(ctx, "healthy", "hi")

	got := drain(healthy)
	req.Len(got, 1)
	req.Equal("hi", got[0].Text)
}

func TestHub_LeaveBroadcastsLeftToRemaining(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	hub := newTestHub()

	alice := sink.NewChannelSink(16)
	bob := sink.NewChannelSink(16)
	hub.Join(ctx, "alice", alice)
	hub.Join(ctx, "bob", bob)
	drain(alice)
	drain(bob)

	// When bob leaves
	hub.Leave(ctx, "bob", bob)

	// Then alice observes Left and bob is gone from the online set
	aliceGot := drain(alice)
	req.Len(aliceGot, 1)
	req.Equal(domain.KindLeft, aliceGot[0].Kind)
	req.Equal("bob", aliceGot[0].Author)
	req.NotContains(hub.Online(), "bob")
	req.Contains(hub.Online(), "alice")
}

func TestHub_StaleLeaveKeepsNewerSession(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	hub := newTestHub()

	// Given a second login replaced alice's first connection
	first := sink.NewChannelSink(16)
	second := sink.NewChannelSink(16)
	hub.Join(ctx, "alice", first)
	hub.Join(ctx, "alice", second)
	drain(second)

	// When the first connection's teardown runs
	hub.Leave(ctx, "alice", first)

	// Then the newer session is untouched: still online, no Left entry
	req.Contains(hub.Online(), "alice")
	for _, e := range hub.History() {
		req.NotEqual(domain.KindLeft, e.Kind)
	}

	// And it keeps receiving broadcasts
	hub.Broadcast(ctx, "alice", "still here")
	got := drain(second)
	req.Len(got, 1)
	req.Equal("still here", got[0].Text)

	// A leave carrying the live sink still removes and broadcasts
	hub.Leave(ctx, "alice", second)
	req.NotContains(hub.Online(), "alice")
}

func TestHub_PermanentSinksSeeEveryEntry(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	hub := newTestHub()

	timeline := sink.NewTimeline(100)
	hub.AddSink(timeline)

	client := sink.NewChannelSink(16)
	hub.Join(ctx, "alice", client)
	hub.Broadcast(ctx, "alice", "hi")
	hub.Leave(ctx, "alice", client)

	recent := timeline.Recent(0)
	req.Len(recent, 3)
	req.Equal(domain.KindJoined, recent[0].Kind)
	req.Equal(domain.KindChat, recent[1].Kind)
	req.Equal(domain.KindLeft, recent[2].Kind)
}
