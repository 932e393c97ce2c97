package audit

import (
	"context"
	"log/slog"
)

// Worker consumes audit events from a channel and appends them to a sink,
// keeping emission off the request path. Append failures are logged and
// dropped; audit delivery is best-effort here and must never fail a request.
type Worker struct {
	sink   Appender
	inbox  <-chan Event
	logger *slog.Logger
}

func NewWorker(sink Appender, inbox <-chan Event, logger *slog.Logger) *Worker {
	return &Worker{sink: sink, inbox: inbox, logger: logger}
}

// Run drains the inbox until the context is cancelled.
func (w *Worker) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event := <-w.inbox:
			if err := w.sink.Append(ctx, event); err != nil {
				w.logger.ErrorContext(ctx, "failed to append audit event",
					"action", event.Action,
					"error", err,
				)
			}
		}
	}
}
