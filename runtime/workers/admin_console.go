package workers

import (
	"bufio"
	"context"
	"io"
	"log/slog"
	"strings"

	"github.com/olekukonko/tablewriter"

	"corpchat/contract"
	"corpchat/sink"
)

// AdminConsole is the server operator's broadcast path. Every plain line
// typed on the console is appended and fanned out as a ServerBroadcast
// entry, without an associated session. Slash commands inspect the engine.
type AdminConsole struct {
	log      *slog.Logger
	hub      contract.IHub
	timeline *sink.Timeline
	in       io.Reader
	out      io.Writer
}

func NewAdminConsole(log *slog.Logger, hub contract.IHub,
	timeline *sink.Timeline, in io.Reader, out io.Writer) *AdminConsole {
	return &AdminConsole{log: log, hub: hub, timeline: timeline, in: in, out: out}
}

func (w *AdminConsole) Run(ctx context.Context) error {
	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(w.in)
		for scanner.Scan() {
			lines <- scanner.Text()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case line, ok := <-lines:
			if !ok {
				// Console closed (EOF): nothing left to read,
				// terminate without triggering a restart.
				w.log.Debug("Admin console input closed")
				return nil
			}
			w.handleLine(ctx, strings.TrimSpace(line))
		}
	}
}

func (w *AdminConsole) handleLine(ctx context.Context, line string) {
	switch {
	case line == "":
	case line == "/who":
		w.printOnline()
	case line == "/recent":
		w.printRecent()
	default:
		w.hub.ServerBroadcast(ctx, line)
	}
}

func (w *AdminConsole) printOnline() {
	table := tablewriter.NewWriter(w.out)
	table.SetHeader([]string{"Online users"})
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	for _, username := range w.hub.Online() {
		table.Append([]string{username})
	}
	table.Render()
}

func (w *AdminConsole) printRecent() {
	table := tablewriter.NewWriter(w.out)
	table.SetHeader([]string{"Kind", "Author", "Text"})
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	for _, e := range w.timeline.Recent(20) {
		table.Append([]string{string(e.Kind), e.Author, e.Text})
	}
	table.Render()
}
