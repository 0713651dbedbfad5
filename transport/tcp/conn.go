package tcp

import (
	"fmt"
	"io"
	"sync"
)

// lineWriter serializes line writes to one connection. Two goroutines write
// to every client socket (the command dispatcher and the sink drainer), so
// each line must go out atomically.
type lineWriter struct {
	mu  sync.Mutex
	out io.Writer
}

func newLineWriter(out io.Writer) *lineWriter {
	return &lineWriter{out: out}
}

func (w *lineWriter) WriteLine(line string) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	_, err := fmt.Fprintf(w.out, "%s\n", line)
	return err
}

// WriteLines writes a framed block under one lock so pushed events cannot
// interleave inside it.
func (w *lineWriter) WriteLines(lines []string) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	for _, line := range lines {
		if _, err := fmt.Fprintf(w.out, "%s\n", line); err != nil {
			return err
		}
	}
	return nil
}
