package analytics

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
)

// Event is one category/action/label/value tuple
type Event struct {
	ID       string    `json:"id"`
	Category string    `json:"category"`
	Action   string    `json:"action"`
	Label    string    `json:"label,omitempty"`
	Value    int64     `json:"value,omitempty"`
	At       time.Time `json:"at"`
}

// NewEvent stamps an event with an id and the current time
func NewEvent(category, action, label string, value int64) Event {
	return Event{
		ID:       uuid.New().String(),
		Category: category,
		Action:   action,
		Label:    label,
		Value:    value,
		At:       time.Now().UTC(),
	}
}

// Reporter accepts events fire-and-forget. Implementations must not block
// the caller and must never surface failures.
type Reporter interface {
	Report(ctx context.Context, ev Event)
}

// Sink persists events
type Sink interface {
	Write(ctx context.Context, ev Event) error
}

// Nop discards every event
type Nop struct{}

// Report does nothing
func (Nop) Report(context.Context, Event) {}

// AsyncReporter buffers events and hands them to a sink from one worker
// goroutine. When the buffer is full events are dropped.
type AsyncReporter struct {
	sink         Sink
	events       chan Event
	writeTimeout time.Duration

	closeOnce sync.Once
	done      chan struct{}
	mu        sync.RWMutex
	closed    bool

	dropped atomic.Int64
	failed  atomic.Int64
}

// NewAsyncReporter starts a reporter with the given buffer size
func NewAsyncReporter(sink Sink, buffer int) *AsyncReporter {
	if buffer <= 0 {
		buffer = 256
	}

	r := &AsyncReporter{
		sink:         sink,
		events:       make(chan Event, buffer),
		writeTimeout: 2 * time.Second,
		done:         make(chan struct{}),
	}
	go r.run()
	return r
}

// Report queues an event, dropping it if the buffer is full or the reporter
// is closed
func (r *AsyncReporter) Report(_ context.Context, ev Event) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.closed {
		r.dropped.Add(1)
		return
	}

	select {
	case r.events <- ev:
	default:
		if r.dropped.Add(1)%100 == 1 {
			slog.Warn("analytics buffer full, dropping events", "dropped_total", r.dropped.Load())
		}
	}
}

// Dropped returns how many events were discarded without reaching the sink
func (r *AsyncReporter) Dropped() int64 {
	return r.dropped.Load()
}

// Failed returns how many sink writes failed
func (r *AsyncReporter) Failed() int64 {
	return r.failed.Load()
}

// Close stops accepting events and waits for queued ones to be written
func (r *AsyncReporter) Close() error {
	r.closeOnce.Do(func() {
		r.mu.Lock()
		r.closed = true
		close(r.events)
		r.mu.Unlock()
	})
	<-r.done
	return nil
}

func (r *AsyncReporter) run() {
	defer close(r.done)

	for ev := range r.events {
		r.write(ev)
	}
}

func (r *AsyncReporter) write(ev Event) {
	defer func() {
		if rec := recover(); rec != nil {
			r.failed.Add(1)
			slog.Error("analytics sink panicked", "panic", rec, "category", ev.Category, "action", ev.Action)
		}
	}()

	ctx, cancel := context.WithTimeout(context.Background(), r.writeTimeout)
	defer cancel()

	if err := r.sink.Write(ctx, ev); err != nil {
		r.failed.Add(1)
		slog.Warn("failed to write analytics event",
			"error", err,
			"category", ev.Category,
			"action", ev.Action,
		)
	}
}
