// Package observability aggregates runtime counters for telemetry.
package observability

import (
	"sync/atomic"
)

// StatsSnapshot is a point-in-time copy of the server counters.
type StatsSnapshot struct {
	SessionsOpened    uint64 `json:"sessions_opened"`
	SessionsClosed    uint64 `json:"sessions_closed"`
	EntriesBroadcast  uint64 `json:"entries_broadcast"`
	DroppedDeliveries uint64 `json:"dropped_deliveries"`
	LoginFailures     uint64 `json:"login_failures"`
}

// ServerStats tracks engine activity with atomic counters so the hot
// broadcast path never takes a lock for accounting.
type ServerStats struct {
	sessionsOpened    atomic.Uint64
	sessionsClosed    atomic.Uint64
	entriesBroadcast  atomic.Uint64
	droppedDeliveries atomic.Uint64
	loginFailures     atomic.Uint64
}

func NewServerStats() *ServerStats {
	return &ServerStats{}
}

func (s *ServerStats) IncrSessionsOpened()    { s.sessionsOpened.Add(1) }
func (s *ServerStats) IncrSessionsClosed()    { s.sessionsClosed.Add(1) }
func (s *ServerStats) IncrEntriesBroadcast()  { s.entriesBroadcast.Add(1) }
func (s *ServerStats) IncrDroppedDeliveries() { s.droppedDeliveries.Add(1) }
func (s *ServerStats) IncrLoginFailures()     { s.loginFailures.Add(1) }

func (s *ServerStats) Snapshot() StatsSnapshot {
	return StatsSnapshot{
		SessionsOpened:    s.sessionsOpened.Load(),
		SessionsClosed:    s.sessionsClosed.Load(),
		EntriesBroadcast:  s.entriesBroadcast.Load(),
		DroppedDeliveries: s.droppedDeliveries.Load(),
		LoginFailures:     s.loginFailures.Load(),
	}
}
