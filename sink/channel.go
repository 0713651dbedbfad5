package sink

import (
	"context"

	"corpchat/domain"
	"corpchat/errors"
)

// ChannelSink buffers entries for one connected client. The hub enqueues
// into the channel under its ordering lock; the transport's writer
// goroutine drains it and performs the actual network sends.
type ChannelSink struct {
	C chan domain.Entry
}

func NewChannelSink(bufferSize int) *ChannelSink {
	return &ChannelSink{C: make(chan domain.Entry, bufferSize)}
}

// Consume never blocks. If the client cannot keep up and the buffer is
// saturated, the entry is dropped for this recipient only and the hub
// records the failure. The enqueue is attempted before the context is
// checked so a producer tearing down concurrently cannot lose a delivery
// that still fits in the buffer.
func (s *ChannelSink) Consume(ctx context.Context, e domain.Entry) error {
	select {
	case s.C <- e:
		return nil
	default:
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
		return errors.ErrSinkFull
	}
}
