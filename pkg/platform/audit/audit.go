// Package audit captures the directory's noteworthy actions, such as
// who dialed whom and which contacts changed, as transport-agnostic
// events.
// Services emit through the Publisher interface; sinks decide where
// events land (log, Kafka, memory in tests).
package audit

import (
	"context"
	"log/slog"
	"sync"
	"time"

	id "switchboard/pkg/domain"
)

// Action names an auditable operation.
type Action string

const (
	ActionContactSaved    Action = "contact_saved"
	ActionContactDeleted  Action = "contact_deleted"
	ActionCallOriginated  Action = "call_originated"
	ActionCallRefused     Action = "call_refused"
	ActionCallerIDLookup  Action = "callerid_lookup"
	ActionTagRemoved      Action = "tag_removed"
	ActionOrphanedCleanup Action = "orphan_cleanup"
)

// Event is emitted from domain logic. Keep it flat and string-typed so
// every sink can serialize it without knowing domain types.
type Event struct {
	Action    Action
	Timestamp time.Time
	UserID    id.UserID
	// Subject identifies the entity acted on (contact id, phone
	// number id, canonical number for lookups).
	Subject string
	// Outcome is "ok" or a short failure word ("refused", "gateway_error").
	Outcome string
	// RequestID correlates the event with the HTTP request.
	RequestID string
	Detail    string
}

// Publisher delivers events to a sink. Emit must be safe for
// concurrent use and must not block request handling for long.
type Publisher interface {
	Emit(ctx context.Context, event Event) error
}

// LogPublisher writes events to structured logs. It is the always-on
// baseline sink.
type LogPublisher struct {
	logger *slog.Logger
}

// NewLogPublisher creates a publisher that logs every event.
func NewLogPublisher(logger *slog.Logger) *LogPublisher {
	return &LogPublisher{logger: logger}
}

func (p *LogPublisher) Emit(ctx context.Context, event Event) error {
	if p.logger == nil {
		return nil
	}
	p.logger.InfoContext(ctx, "audit",
		"action", string(event.Action),
		"subject", event.Subject,
		"outcome", event.Outcome,
		"user_id", event.UserID.String(),
		"request_id", event.RequestID,
		"detail", event.Detail,
	)
	return nil
}

// MemoryPublisher collects events in memory. Test sink.
type MemoryPublisher struct {
	mu     sync.Mutex
	events []Event
}

// NewMemoryPublisher creates an empty in-memory sink.
func NewMemoryPublisher() *MemoryPublisher {
	return &MemoryPublisher{}
}

func (p *MemoryPublisher) Emit(_ context.Context, event Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return nil
}

// Events returns a copy of everything emitted so far.
func (p *MemoryPublisher) Events() []Event {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]Event{}, p.events...)
}

// Fanout emits to several publishers in order, returning the first
// error after attempting all of them.
type Fanout []Publisher

func (f Fanout) Emit(ctx context.Context, event Event) error {
	var firstErr error
	for _, p := range f {
		if err := p.Emit(ctx, event); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
