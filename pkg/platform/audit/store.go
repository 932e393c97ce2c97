package audit

import "context"

// Appender is the write side of an audit sink. Fire-and-forget publishers only
// need this.
type Appender interface {
	Append(ctx context.Context, event Event) error
}

// Store is a queryable audit sink. The in-memory implementation backs tests;
// production deployments typically append to Kafka and query elsewhere.
type Store interface {
	Appender
	ListByUsername(ctx context.Context, username string) ([]Event, error)
}
