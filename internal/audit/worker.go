package audit

import (
	"context"
	"log/slog"
)

// Worker consumes audit events from a channel and hands them to the real
// publisher. It decouples request latency from sink latency (Postgres or
// Kafka round-trips).
type Worker struct {
	sink   Publisher
	inbox  <-chan Event
	logger *slog.Logger
}

func NewWorker(sink Publisher, inbox <-chan Event, logger *slog.Logger) *Worker {
	return &Worker{sink: sink, inbox: inbox, logger: logger}
}

func (w *Worker) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event := <-w.inbox:
			if err := w.sink.Emit(ctx, event); err != nil && w.logger != nil {
				w.logger.WarnContext(ctx, "audit worker emit failed",
					"action", string(event.Action), "error", err)
			}
		}
	}
}

// ChannelPublisher is the request-side half of the worker pair: Emit enqueues
// and never blocks; a full inbox drops the event with a warning rather than
// stalling a public search.
type ChannelPublisher struct {
	inbox  chan<- Event
	logger *slog.Logger
}

func NewChannelPublisher(inbox chan<- Event, logger *slog.Logger) *ChannelPublisher {
	return &ChannelPublisher{inbox: inbox, logger: logger}
}

func (p *ChannelPublisher) Emit(ctx context.Context, event Event) error {
	select {
	case p.inbox <- event:
		return nil
	default:
		if p.logger != nil {
			p.logger.WarnContext(ctx, "audit inbox full, dropping event", "action", string(event.Action))
		}
		return nil
	}
}
