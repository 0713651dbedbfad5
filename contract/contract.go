//go:generate go run go.uber.org/mock/mockgen -source=contract.go -destination=../mocks/mock_contract.go -package=mocks
package contract

import (
	"context"
	"corpchat/domain"
	"reflect"
)

// EventSink is an abstract outbound channel capable of delivering one event
// to one connected client. The sink itself is owned by the transport layer;
// Consume must never block on the network.
type EventSink interface {
	Consume(ctx context.Context, e domain.Entry) error
}

// ICredentialStore is the durable username -> password-hash table.
// Implementations deal in hashes only; plain passwords never cross this
// boundary.
type ICredentialStore interface {
	// Create inserts a credential if the username is absent.
	// The check and the insert are atomic under concurrency.
	Create(username, passwordHash string) error
	// HashFor returns the stored hash; ok is false for an unknown username.
	HashFor(username string) (hash string, ok bool)
}

// IHistoryLog is the append-only ordered sequence of chat and system events.
type IHistoryLog interface {
	Append(e domain.Entry)
	// Replay returns a snapshot copy of the full log in append order,
	// safe to iterate while concurrent appends continue.
	Replay() []domain.Entry
	Len() int
}

// IRegistry maps each logged-in username to its outbound sink.
type IRegistry interface {
	Add(username string, sink EventSink)
	// Remove is idempotent; removing an unknown username is a no-op.
	Remove(username string)
	// RemoveIfSink deregisters the username only if it is still mapped to
	// the given sink, reporting whether a removal happened. A session that
	// was superseded by a later login must not evict its replacement.
	RemoveIfSink(username string, sink EventSink) bool
	ListOnline() []string
	SinkFor(username string) (EventSink, bool)
	// Snapshot returns a copy of the full username -> sink mapping.
	Snapshot() map[string]EventSink
}

// IHub is the single ordering point for history appends and fan-out.
// History order and broadcast order are identical for all producers.
type IHub interface {
	// Join registers the sink, then appends and broadcasts a Joined entry.
	// It returns the history snapshot taken atomically with the
	// registration: the caller delivers it to the new client directly, so
	// replay is never subject to the sink's bounded buffer.
	Join(ctx context.Context, username string, sink EventSink) []domain.Entry
	// Leave deregisters the username and broadcasts a Left entry, unless
	// the registration was already superseded by a newer sink.
	Leave(ctx context.Context, username string, sink EventSink)
	Broadcast(ctx context.Context, author, text string)
	ServerBroadcast(ctx context.Context, text string)
	History() []domain.Entry
	Online() []string
}

// IAuthService verifies and creates credentials on behalf of sessions.
type IAuthService interface {
	Register(username, password string) error
	// Login returns a resume token on success.
	Login(username, password string) (string, error)
	// Resume re-authenticates from a token and returns the username.
	Resume(token string) (string, error)
}

type WorkerName string

// Worker doesn't protect itself
// Can be silly, focused
type Worker interface {
	Run(ctx context.Context) error
}

type ISupervisor interface {
	Add(worker ...Worker) ISupervisor
	Run(ctx context.Context)
	Start(ctx context.Context, worker Worker)
	Stop()
}

// GetWorkerName uses reflection to retrieve the type name of the worker.
// This is used for logging and supervision purposes during worker
// initialization or lifecycle events, avoiding the need for manual naming
// in the Worker interface.
func GetWorkerName(w Worker) string {
	if w == nil {
		return "NilWorker"
	}
	t := reflect.TypeOf(w)
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	return t.Name()
}
