package runtime

import (
	"context"
	"log/slog"
	"sync"

	"corpchat/contract"
	"corpchat/domain"
	"corpchat/observability"
)

// Hub is the single ordering point of the engine. Every history append and
// every fan-out, no matter which session produced it, goes through the same
// mutex, so replay order, history order and the order observed by every
// recipient are identical.
//
// The critical section only appends to history and enqueues entries into
// per-client sinks. Sinks are required to be non-blocking (buffered, drop
// on overflow), so no lock is ever held across a network send and one slow
// client cannot stall the whole server.
type Hub struct {
	mu       sync.Mutex
	log      *slog.Logger
	history  contract.IHistoryLog
	registry contract.IRegistry
	stats    *observability.ServerStats

	// permanentSinks receive every entry regardless of session
	// registrations: server console log, projections.
	permanentSinks []contract.EventSink
}

func NewHub(log *slog.Logger, history contract.IHistoryLog,
	registry contract.IRegistry, stats *observability.ServerStats) *Hub {
	return &Hub{
		log:      log,
		history:  history,
		registry: registry,
		stats:    stats,
	}
}

// AddSink attaches permanent sinks. Call during wiring, before traffic.
func (h *Hub) AddSink(sinks ...contract.EventSink) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.permanentSinks = append(h.permanentSinks, sinks...)
}

// Join performs the authenticated-entry sequence atomically with respect to
// concurrent broadcasts:
//
//  1. snapshot the current history;
//  2. register the sink;
//  3. append and broadcast the Joined entry.
//
// The snapshot is returned instead of being pushed through the sink: the
// transport writes it to the new client directly, so replay completeness is
// never limited by the sink's bounded buffer. Snapshot-before-register
// guarantees the joining client sees its own Joined event exactly once
// (live, after replay) and that no entry can land in both the replay and
// the live stream.
func (h *Hub) Join(ctx context.Context, username string, sink contract.EventSink) []domain.Entry {
	h.mu.Lock()
	defer h.mu.Unlock()

	replay := h.history.Replay()
	h.registry.Add(username, sink)
	h.publishLocked(ctx, domain.NewJoined(username))
	return replay
}

// Leave deregisters the departing session and broadcasts a Left entry to
// the remaining sessions. When a later login already replaced the
// registration, the stale teardown removes nothing and no Left is
// broadcast: the newer session keeps receiving.
func (h *Hub) Leave(ctx context.Context, username string, sink contract.EventSink) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if !h.registry.RemoveIfSink(username, sink) {
		h.log.Debug("Skipping leave for superseded session", "username", username)
		return
	}
	h.publishLocked(ctx, domain.NewLeft(username))
}

// Broadcast appends a chat entry and fans it out to every registered sink.
func (h *Hub) Broadcast(ctx context.Context, author, text string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.publishLocked(ctx, domain.NewChat(author, text))
}

// ServerBroadcast is the administrative path: an operator message appended
// and fanned out without an associated session.
func (h *Hub) ServerBroadcast(ctx context.Context, text string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.publishLocked(ctx, domain.NewServerBroadcast(text))
}

func (h *Hub) History() []domain.Entry {
	return h.history.Replay()
}

func (h *Hub) Online() []string {
	return h.registry.ListOnline()
}

// publishLocked appends the entry and enqueues it into every sink.
// Delivery to one sink is independent of the others: a failed or saturated
// sink is counted and logged, never propagated to the producer. A broadcast
// with zero registered sessions is still appended to history.
func (h *Hub) publishLocked(ctx context.Context, e domain.Entry) {
	h.history.Append(e)
	h.stats.IncrEntriesBroadcast()

	for _, sink := range h.permanentSinks {
		if err := sink.Consume(ctx, e); err != nil {
			h.log.Debug("Permanent sink rejected entry", "kind", e.Kind, "error", err)
		}
	}

	for username, sink := range h.registry.Snapshot() {
		if err := sink.Consume(ctx, e); err != nil {
			h.stats.IncrDroppedDeliveries()
			h.log.Warn("Delivery failed, dropping entry for recipient",
				"username", username, "kind", e.Kind, "error", err)
		}
	}
}
