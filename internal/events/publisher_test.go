package events

import (
	"context"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"loadvoice/internal/carrier"
)

type memorySink struct {
	mu     sync.Mutex
	events []Event
}

func (s *memorySink) Publish(_ context.Context, event Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, event)
	return nil
}

func (s *memorySink) Close() {}

func (s *memorySink) snapshot() []Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Event(nil), s.events...)
}

func TestPublisherDeliversEvents(t *testing.T) {
	sink := &memorySink{}
	pub := NewPublisher(sink, slog.Default(), 8)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan struct{})
	go func() {
		_ = pub.Run(ctx)
		close(done)
	}()

	pub.Emit(ctx, Event{ID: "1", Type: TypeVerificationCompleted, CarrierKey: "mc:123"})
	pub.Emit(ctx, Event{ID: "2", Type: TypeVerificationNotFound, CarrierKey: "mc:999"})

	require.Eventually(t, func() bool {
		return len(sink.snapshot()) == 2
	}, time.Second, 10*time.Millisecond)

	got := sink.snapshot()
	assert.Equal(t, "1", got[0].ID)
	assert.Equal(t, "2", got[1].ID)

	cancel()
	<-done
}

func TestPublisherDropsWhenBufferFull(t *testing.T) {
	// No worker running: the buffer fills and overflow is dropped silently.
	sink := &memorySink{}
	pub := NewPublisher(sink, slog.Default(), 2)

	ctx := context.Background()
	for i := 0; i < 5; i++ {
		pub.Emit(ctx, Event{ID: "x", CarrierKey: "mc:123"})
	}

	assert.Len(t, pub.inbox, 2)
}

func TestNilPublisherIsSafe(t *testing.T) {
	var pub *Publisher
	pub.Emit(context.Background(), Event{})
}

func TestFromRecord(t *testing.T) {
	t.Run("verified record", func(t *testing.T) {
		rec := carrier.VerificationRecord{
			Identifier: carrier.Identifier{MCNumber: "123456"},
			Verified:   true,
			Assessment: &carrier.RiskAssessment{Score: 85, Level: carrier.RiskLow},
			VerifiedAt: time.Now(),
		}
		e := FromRecord("evt-1", rec)
		assert.Equal(t, TypeVerificationCompleted, e.Type)
		assert.Equal(t, "mc:123456", e.CarrierKey)
		assert.Equal(t, 85, e.RiskScore)
		assert.Equal(t, "LOW", e.RiskLevel)
	})

	t.Run("not found record", func(t *testing.T) {
		rec := carrier.VerificationRecord{
			Identifier: carrier.Identifier{MCNumber: "999999"},
			Verified:   false,
			VerifiedAt: time.Now(),
		}
		e := FromRecord("evt-2", rec)
		assert.Equal(t, TypeVerificationNotFound, e.Type)
		assert.False(t, e.Verified)
		assert.Zero(t, e.RiskScore)
	})
}
