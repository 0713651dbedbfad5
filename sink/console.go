package sink

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/gookit/color"

	"corpchat/domain"
)

// Console renders every entry to the server operator's terminal,
// colorized by kind. It replaces the GUI chat-log pane of earlier
// deployments with a plain presentation sink.
type Console struct {
	mu       sync.Mutex
	out      io.Writer
	colorize bool
}

func NewConsole(out io.Writer, colorize bool) *Console {
	return &Console{out: out, colorize: colorize}
}

func (c *Console) Consume(_ context.Context, e domain.Entry) error {
	line := RenderEntry(e)
	if c.colorize {
		line = colorFor(e.Kind).Sprint(line)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	_, err := fmt.Fprintln(c.out, line)
	return err
}

// RenderEntry formats an entry the way the original server log did.
func RenderEntry(e domain.Entry) string {
	switch e.Kind {
	case domain.KindChat:
		return fmt.Sprintf("%s: %s", e.Author, e.Text)
	case domain.KindJoined:
		return fmt.Sprintf("SERVER: %s has joined", e.Author)
	case domain.KindLeft:
		return fmt.Sprintf("SERVER: %s has left", e.Author)
	case domain.KindServerBroadcast:
		return fmt.Sprintf("SERVER: %s", e.Text)
	}
	return fmt.Sprintf("%s %s %s", e.Kind, e.Author, e.Text)
}

func colorFor(kind domain.EntryKind) color.Color {
	switch kind {
	case domain.KindJoined:
		return color.Green
	case domain.KindLeft:
		return color.Yellow
	case domain.KindServerBroadcast:
		return color.Cyan
	default:
		return color.Normal
	}
}
