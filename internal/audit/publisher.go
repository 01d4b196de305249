package audit

import (
	"context"
	"log/slog"
)

// Publisher accepts audit events from domain logic and hands them to the
// background worker through a bounded inbox. Emit never blocks the scoring
// path: when the inbox is full the event is dropped with a warning, which
// is preferable to stalling a batch on a slow sink.
type Publisher struct {
	inbox  chan Event
	logger *slog.Logger
}

func NewPublisher(buffer int, logger *slog.Logger) *Publisher {
	if buffer <= 0 {
		buffer = 256
	}
	return &Publisher{
		inbox:  make(chan Event, buffer),
		logger: logger,
	}
}

// Emit enqueues the event for the worker. Safe on a nil publisher so
// callers do not have to guard the audit trail being disabled.
func (p *Publisher) Emit(ctx context.Context, event Event) {
	if p == nil {
		return
	}
	select {
	case p.inbox <- event:
	case <-ctx.Done():
	default:
		if p.logger != nil {
			p.logger.Warn("audit inbox full, event dropped",
				"action", event.Action,
				"subject", event.Subject,
			)
		}
	}
}

// Inbox exposes the receive side for the worker.
func (p *Publisher) Inbox() <-chan Event {
	return p.inbox
}
