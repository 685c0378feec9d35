package events

import (
	"context"
	"log/slog"
)

// Sink delivers events to their transport. Implementations: KafkaSink for
// production, memorySink for tests.
type Sink interface {
	Publish(ctx context.Context, event Event) error
	Close()
}

// Publisher decouples event emission from delivery with a buffered inbox and
// a background worker, so the verification hot path never blocks on the
// broker.
type Publisher struct {
	sink   Sink
	logger *slog.Logger
	inbox  chan Event
}

// NewPublisher builds a publisher with the given buffer size.
func NewPublisher(sink Sink, logger *slog.Logger, buffer int) *Publisher {
	if buffer <= 0 {
		buffer = 256
	}
	return &Publisher{
		sink:   sink,
		logger: logger,
		inbox:  make(chan Event, buffer),
	}
}

// Emit queues an event for delivery. When the buffer is full the event is
// dropped: verification latency matters more than event completeness.
func (p *Publisher) Emit(ctx context.Context, event Event) {
	if p == nil {
		return
	}
	select {
	case p.inbox <- event:
	default:
		p.logger.WarnContext(ctx, "event buffer full, dropping event",
			"event_type", event.Type,
			"carrier_key", event.CarrierKey,
		)
	}
}

// Run drains the inbox until ctx is cancelled. Delivery failures are logged
// and the event is dropped; there is no redelivery.
func (p *Publisher) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event := <-p.inbox:
			if err := p.sink.Publish(ctx, event); err != nil {
				p.logger.ErrorContext(ctx, "event delivery failed",
					"event_type", event.Type,
					"carrier_key", event.CarrierKey,
					"error", err,
				)
			}
		}
	}
}
