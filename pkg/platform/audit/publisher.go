package audit

import (
	"context"

	"accountd/pkg/requestcontext"
)

// Publisher stamps and forwards audit events. It is append-only and delegates
// persistence to the sink so tests can swap it easily.
type Publisher struct {
	sink Appender
}

func NewPublisher(sink Appender) *Publisher {
	return &Publisher{sink: sink}
}

// Emit records an event. The category is always derived from the action so
// callers cannot misroute an event, and a missing timestamp is filled in.
func (p *Publisher) Emit(ctx context.Context, event Event) error {
	if p == nil || p.sink == nil {
		return nil
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = requestcontext.Now(ctx)
	}
	event.Category = AuditEvent(event.Action).Category()
	return p.sink.Append(ctx, event)
}
