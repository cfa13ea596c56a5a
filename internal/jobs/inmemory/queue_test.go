package inmemory

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"finsight-etl/internal/jobs"
)

// collector records every delivery and signals when the expected number
// has arrived.
type collector struct {
	mu       sync.Mutex
	attempts []int
	done     chan struct{}
	want     int
	fail     int
}

func newCollector(want, failFirst int) *collector {
	return &collector{done: make(chan struct{}), want: want, fail: failFirst}
}

func (c *collector) handle(ctx context.Context, event *jobs.StatementEvent) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.attempts = append(c.attempts, event.Attempts)
	if len(c.attempts) == c.want {
		close(c.done)
	}
	if len(c.attempts) <= c.fail {
		return errors.New("transient failure")
	}
	return nil
}

func (c *collector) wait(t *testing.T, timeout time.Duration) []int {
	t.Helper()
	select {
	case <-c.done:
	case <-time.After(timeout):
		c.mu.Lock()
		got := len(c.attempts)
		c.mu.Unlock()
		t.Fatalf("timed out with %d deliveries, want %d", got, c.want)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]int(nil), c.attempts...)
}

func TestQueue_DeliversPublishedEvent(t *testing.T) {
	queue := NewQueue(4, 1, 3)
	defer queue.Close()

	c := newCollector(1, 0)
	if err := queue.Start(context.Background(), c.handle); err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	event := &jobs.StatementEvent{Objects: []jobs.ObjectRef{{Key: "statements/jan.pdf"}}}
	if err := queue.Publish(context.Background(), event); err != nil {
		t.Fatalf("Publish() error = %v", err)
	}

	attempts := c.wait(t, 2*time.Second)
	if attempts[0] != 1 {
		t.Errorf("first delivery attempt = %d, want 1", attempts[0])
	}
	if event.EventID == "" {
		t.Error("Publish did not assign an event id")
	}
	if event.EnqueuedAt.IsZero() {
		t.Error("Publish did not stamp the enqueue time")
	}
}

func TestQueue_RedeliversFailedEvent(t *testing.T) {
	queue := NewQueue(4, 1, 2)
	defer queue.Close()

	c := newCollector(2, 1)
	if err := queue.Start(context.Background(), c.handle); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	if err := queue.Publish(context.Background(), &jobs.StatementEvent{}); err != nil {
		t.Fatalf("Publish() error = %v", err)
	}

	attempts := c.wait(t, 5*time.Second)
	if attempts[0] != 1 || attempts[1] != 2 {
		t.Errorf("attempt sequence = %v, want [1 2]", attempts)
	}
}

func TestQueue_StopsRedeliveryAtMaxAttempts(t *testing.T) {
	queue := NewQueue(4, 1, 2)
	defer queue.Close()

	c := newCollector(2, 2)
	if err := queue.Start(context.Background(), c.handle); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	if err := queue.Publish(context.Background(), &jobs.StatementEvent{}); err != nil {
		t.Fatalf("Publish() error = %v", err)
	}

	c.wait(t, 5*time.Second)
	// Give a would-be third delivery time to happen.
	time.Sleep(2500 * time.Millisecond)

	c.mu.Lock()
	got := len(c.attempts)
	c.mu.Unlock()
	if got != 2 {
		t.Errorf("delivered %d times, want exactly 2", got)
	}
}

func TestQueue_PublishAfterCloseFails(t *testing.T) {
	queue := NewQueue(4, 1, 3)
	if err := queue.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	err := queue.Publish(context.Background(), &jobs.StatementEvent{})
	if err == nil {
		t.Fatal("Publish() on a closed queue succeeded")
	}
}

func TestQueue_StopIsIdempotent(t *testing.T) {
	queue := NewQueue(4, 2, 3)
	if err := queue.Start(context.Background(), func(ctx context.Context, event *jobs.StatementEvent) error {
		return nil
	}); err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := queue.Stop(ctx); err != nil {
		t.Fatalf("Stop() error = %v", err)
	}
	if err := queue.Stop(ctx); err != nil {
		t.Fatalf("second Stop() error = %v", err)
	}
}
