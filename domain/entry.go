// Package domain contains core concepts of the chat system.
// This file defines history entries and related rules.
// Entries are immutable and produced in strict arrival order.
package domain

import (
	"time"

	"github.com/google/uuid"
)

// EntryKind discriminates the events that flow through history and fan-out.
type EntryKind string

const (
	KindChat            EntryKind = "CHAT"
	KindJoined          EntryKind = "JOINED"
	KindLeft            EntryKind = "LEFT"
	KindServerBroadcast EntryKind = "SERVER"
)

// Entry represents an immutable chat or system event.
// The order in which entries are appended to the history log is the order
// in which they are replayed and broadcast.
type Entry struct {
	ID     uuid.UUID
	Kind   EntryKind
	Author string
	Text   string
	At     time.Time
}

func NewChat(author, text string) Entry {
	return Entry{
		ID:     uuid.New(),
		Kind:   KindChat,
		Author: author,
		Text:   text,
		At:     time.Now().UTC(),
	}
}

func NewJoined(username string) Entry {
	return Entry{
		ID:     uuid.New(),
		Kind:   KindJoined,
		Author: username,
		At:     time.Now().UTC(),
	}
}

func NewLeft(username string) Entry {
	return Entry{
		ID:     uuid.New(),
		Kind:   KindLeft,
		Author: username,
		At:     time.Now().UTC(),
	}
}

func NewServerBroadcast(text string) Entry {
	return Entry{
		ID:   uuid.New(),
		Kind: KindServerBroadcast,
		Text: text,
		At:   time.Now().UTC(),
	}
}
