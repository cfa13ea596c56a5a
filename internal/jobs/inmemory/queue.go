package inmemory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"finsight-etl/internal/jobs"

	"github.com/google/uuid"
)

// Queue is a channel-backed implementation of the statement event
// transport, suitable for single-instance deployments where the API
// and the ETL worker share a process. Failed events are redelivered
// with linear backoff up to maxAttempts, which gives the pipeline its
// assumed at-least-once delivery.
type Queue struct {
	events      chan *jobs.StatementEvent
	closeChan   chan struct{}
	wg          sync.WaitGroup
	mu          sync.RWMutex
	workers     int
	maxAttempts int
	closed      bool
}

// NewQueue creates an in-memory event queue. bufferSize bounds how
// many events can be pending before Publish blocks.
func NewQueue(bufferSize, workers, maxAttempts int) *Queue {
	if workers <= 0 {
		workers = 1
	}
	if maxAttempts <= 0 {
		maxAttempts = 3
	}
	return &Queue{
		events:      make(chan *jobs.StatementEvent, bufferSize),
		closeChan:   make(chan struct{}),
		workers:     workers,
		maxAttempts: maxAttempts,
	}
}

// Publish implements jobs.Publisher.
func (q *Queue) Publish(ctx context.Context, event *jobs.StatementEvent) error {
	q.mu.RLock()
	defer q.mu.RUnlock()

	if q.closed {
		return fmt.Errorf("queue is closed")
	}

	if event.EventID == "" {
		event.EventID = uuid.New().String()
	}
	if event.EnqueuedAt.IsZero() {
		event.EnqueuedAt = time.Now()
	}

	select {
	case q.events <- event:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-q.closeChan:
		return fmt.Errorf("queue is closed")
	}
}

// Start implements jobs.Consumer. Each worker pulls events and invokes
// the handler; a failed event is re-enqueued until maxAttempts.
func (q *Queue) Start(ctx context.Context, handler jobs.Handler) error {
	q.mu.RLock()
	if q.closed {
		q.mu.RUnlock()
		return fmt.Errorf("queue is closed")
	}
	q.mu.RUnlock()

	for i := 0; i < q.workers; i++ {
		q.wg.Add(1)
		go q.worker(ctx, handler)
	}
	return nil
}

func (q *Queue) worker(ctx context.Context, handler jobs.Handler) {
	defer q.wg.Done()

	for {
		select {
		case <-ctx.Done():
			return
		case <-q.closeChan:
			return
		case event := <-q.events:
			if event == nil {
				return
			}
			q.deliver(ctx, event, handler)
		}
	}
}

func (q *Queue) deliver(ctx context.Context, event *jobs.StatementEvent, handler jobs.Handler) {
	event.Attempts++

	if err := handler(ctx, event); err == nil {
		return
	}

	if event.Attempts >= q.maxAttempts {
		return
	}

	backoff := time.Duration(event.Attempts) * time.Second
	time.AfterFunc(backoff, func() {
		_ = q.Publish(ctx, event)
	})
}

// Stop implements jobs.Consumer. It stops delivery and waits for
// in-flight events to finish.
func (q *Queue) Stop(ctx context.Context) error {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return nil
	}
	q.closed = true
	close(q.closeChan)
	q.mu.Unlock()

	done := make(chan struct{})
	go func() {
		q.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close implements jobs.Publisher.
func (q *Queue) Close() error {
	return q.Stop(context.Background())
}

var _ jobs.Publisher = (*Queue)(nil)
var _ jobs.Consumer = (*Queue)(nil)
