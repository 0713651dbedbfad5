package runtime

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"corpchat/domain"
)

type nopSink struct {
	name string
}

func (s nopSink) Consume(ctx context.Context, e domain.Entry) error {
	return nil
}

func TestRegistry_AddOneSession(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry()
	username := uuid.NewString()
	sink := nopSink{name: "a"}

	// Given no user is connected
	req.Empty(registry.ListOnline())

	// When a session registers
	registry.Add(username, sink)

	// Then
	req.Len(registry.ListOnline(), 1)
	req.Contains(registry.ListOnline(), username)

	got, ok := registry.SinkFor(username)
	req.True(ok)
	req.Equal(sink, got)
}

func TestRegistry_LastRegisterWins(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry()
	username := uuid.NewString()

	// Given a registered session
	registry.Add(username, nopSink{name: "first"})

	// When a second login registers under the same username
	registry.Add(username, nopSink{name: "second"})

	// Then the new sink silently replaces the old one
	req.Len(registry.ListOnline(), 1)
	got, ok := registry.SinkFor(username)
	req.True(ok)
	req.Equal(nopSink{name: "second"}, got)
}

func TestRegistry_RemoveIsIdempotent(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry()
	username := uuid.NewString()

	registry.Add(username, nopSink{})

	// When the session deregisters twice
	registry.Remove(username)
	registry.Remove(username)

	// Then no session is left and no panic occurred
	req.Empty(registry.ListOnline())
	_, ok := registry.SinkFor(username)
	req.False(ok)

	// Removing a username that never registered is a no-op too
	registry.Remove(uuid.NewString())
	req.Empty(registry.ListOnline())
}

func TestRegistry_RemoveIfSinkOnlyMatchesTheCurrentSink(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry()
	username := uuid.NewString()

	// Given a registration that was superseded
	registry.Add(username, nopSink{name: "first"})
	registry.Add(username, nopSink{name: "second"})

	// When the superseded session tries to deregister
	removed := registry.RemoveIfSink(username, nopSink{name: "first"})

	// Then the newer registration survives
	req.False(removed)
	got, ok := registry.SinkFor(username)
	req.True(ok)
	req.Equal(nopSink{name: "second"}, got)

	// The current sink still removes normally
	req.True(registry.RemoveIfSink(username, nopSink{name: "second"}))
	req.Empty(registry.ListOnline())

	// And an unknown username is a no-op
	req.False(registry.RemoveIfSink(uuid.NewString(), nopSink{}))
}

func TestRegistry_SnapshotIsACopy(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry()
	username := uuid.NewString()
	registry.Add(username, nopSink{name: "a"})

	snapshot := registry.Snapshot()
	req.Len(snapshot, 1)

	// Mutations after the snapshot must not show up in it
	registry.Remove(username)
	req.Len(snapshot, 1)
	req.Empty(registry.ListOnline())
}
