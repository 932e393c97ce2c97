package audit

import (
	"context"

	derrors "accountd/pkg/domain-errors"
)

// Inbox is a buffered Appender that hands events to a Worker, keeping sink
// latency off the request path. Append never blocks: when the buffer is full
// the event is rejected and the emitting side decides how loudly to complain.
type Inbox struct {
	ch chan Event
}

func NewInbox(size int) *Inbox {
	return &Inbox{ch: make(chan Event, size)}
}

func (i *Inbox) Append(_ context.Context, event Event) error {
	select {
	case i.ch <- event:
		return nil
	default:
		return derrors.New(derrors.CodeInternal, "audit inbox full, event dropped")
	}
}

// Events is the channel a Worker consumes.
func (i *Inbox) Events() <-chan Event {
	return i.ch
}
