package audit

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/openvault/openvault/internal/observability"
)

// Status classifies the outcome an event records
type Status string

const (
	StatusSuccess Status = "success"
	StatusBlocked Status = "blocked"
	StatusFailure Status = "failure"
)

// Event is a single audit record. Details may carry safety findings that are
// deliberately withheld from caller-facing errors.
type Event struct {
	ID           string         `json:"id"`
	Action       string         `json:"action"`
	ActorID      string         `json:"actor_id,omitempty"`
	Details      map[string]any `json:"details,omitempty"`
	Status       Status         `json:"status"`
	ErrorMessage string         `json:"error_message,omitempty"`
	Timestamp    time.Time      `json:"timestamp"`
}

// Sink records audit events. Record is fire-and-forget: implementations
// must not block the caller on slow storage, and recording failures must
// never propagate.
type Sink interface {
	Record(ctx context.Context, event Event)
}

// NewEvent creates an event with a fresh id and timestamp
func NewEvent(action string, status Status) Event {
	return Event{
		ID:        uuid.New().String(),
		Action:    action,
		Status:    status,
		Timestamp: time.Now().UTC(),
	}
}

// NopSink discards all events
type NopSink struct{}

func (NopSink) Record(ctx context.Context, event Event) {}

// LogSink writes events to a structured logger
type LogSink struct {
	logger *slog.Logger
}

// NewLogSink creates a sink that logs events at info level
func NewLogSink(logger *slog.Logger) *LogSink {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogSink{logger: logger}
}

// Record logs the event, correlated with the active span when one is in ctx.
func (s *LogSink) Record(ctx context.Context, event Event) {
	observability.WithTrace(ctx, s.logger).InfoContext(ctx, "audit event",
		"audit_id", event.ID,
		"action", event.Action,
		"actor_id", event.ActorID,
		"status", event.Status,
		"error", event.ErrorMessage,
		"details", event.Details,
	)
}

// MemorySink retains events in memory. Intended for tests.
type MemorySink struct {
	mu     sync.Mutex
	events []Event
}

// NewMemorySink creates an empty in-memory sink
func NewMemorySink() *MemorySink {
	return &MemorySink{}
}

func (s *MemorySink) Record(ctx context.Context, event Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, event)
}

// Events returns a copy of all recorded events
func (s *MemorySink) Events() []Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	events := make([]Event, len(s.events))
	copy(events, s.events)
	return events
}

// ByAction returns recorded events matching the action
func (s *MemorySink) ByAction(action string) []Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	var matched []Event
	for _, e := range s.events {
		if e.Action == action {
			matched = append(matched, e)
		}
	}
	return matched
}
