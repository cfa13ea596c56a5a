package jobs

import (
	"context"
	"time"
)

// ObjectRef names one uploaded document in the object store.
type ObjectRef struct {
	Key string `json:"key"`
}

// StatementEvent is one delivery from the triggering transport: a
// batch of document references to run through the pipeline. Delivery
// is at-least-once with no ordering guarantee across events; the
// pipeline's content-hash replay guard compensates for redelivery.
type StatementEvent struct {
	EventID    string      `json:"event_id"`
	Objects    []ObjectRef `json:"objects"`
	EnqueuedAt time.Time   `json:"enqueued_at"`

	// Attempts counts deliveries of this event, including the current
	// one once it is in flight.
	Attempts int `json:"attempts"`
}

// Handler processes one event. A non-nil error asks the transport to
// consider redelivery.
type Handler func(ctx context.Context, event *StatementEvent) error

// Publisher enqueues statement events. Abstracted so the in-process
// queue can later be swapped for a managed broker without touching the
// pipeline.
type Publisher interface {
	Publish(ctx context.Context, event *StatementEvent) error
	Close() error
}

// Consumer delivers events to a handler until stopped.
type Consumer interface {
	Start(ctx context.Context, handler Handler) error
	Stop(ctx context.Context) error
}
