package audit

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"aidgate/pkg/requestcontext"
)

// Publisher emits audit events for security-relevant operations.
type Publisher interface {
	Emit(ctx context.Context, event Event) error
}

// Store persists audit events append-only.
type Store interface {
	Append(ctx context.Context, event Event) error
	ListBySubject(ctx context.Context, subject string) ([]Event, error)
}

// StorePublisher captures structured audit events. It is append-only and uses
// the storage layer for persistence so tests can swap sinks easily.
type StorePublisher struct {
	store Store
}

func NewPublisher(store Store) *StorePublisher {
	return &StorePublisher{store: store}
}

func (p *StorePublisher) Emit(ctx context.Context, event Event) error {
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = requestcontext.Now(ctx)
	}
	if event.RequestID == "" {
		event.RequestID = requestcontext.RequestID(ctx)
	}
	return p.store.Append(ctx, event)
}

func (p *StorePublisher) List(ctx context.Context, subject string) ([]Event, error) {
	return p.store.ListBySubject(ctx, subject)
}

// Log is a shared helper for logging audit events across services.
// It logs to both the structured logger and the audit publisher if available.
func Log(ctx context.Context, logger *slog.Logger, publisher Publisher, event Event, attrs ...any) {
	if event.Timestamp.IsZero() {
		event.Timestamp = requestcontext.Now(ctx)
	}
	if event.RequestID == "" {
		event.RequestID = requestcontext.RequestID(ctx)
	}

	if logger != nil {
		args := append(attrs,
			"event", string(event.Action),
			"subject", event.Subject,
			"outcome", event.Outcome,
			"log_type", "audit",
		)
		if event.RequestID != "" {
			args = append(args, "request_id", event.RequestID)
		}
		logger.InfoContext(ctx, string(event.Action), args...)
	}

	if publisher == nil {
		return
	}
	if err := publisher.Emit(ctx, event); err != nil && logger != nil {
		logger.WarnContext(ctx, "failed to emit audit event", "event", string(event.Action), "error", err)
	}
}

// Fanout emits every event to multiple publishers, logging and continuing on
// individual failures so one slow sink cannot drop the others.
type Fanout struct {
	publishers []Publisher
	logger     *slog.Logger
}

func NewFanout(logger *slog.Logger, publishers ...Publisher) *Fanout {
	return &Fanout{publishers: publishers, logger: logger}
}

func (f *Fanout) Emit(ctx context.Context, event Event) error {
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	for _, p := range f.publishers {
		if p == nil {
			continue
		}
		if err := p.Emit(ctx, event); err != nil && f.logger != nil {
			f.logger.WarnContext(ctx, "audit sink emit failed", "action", string(event.Action), "error", err)
		}
	}
	return nil
}
