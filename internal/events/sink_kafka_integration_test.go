//go:build integration

package events_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/twmb/franz-go/pkg/kgo"

	"loadvoice/internal/events"
	"loadvoice/pkg/testutil/containers"
)

func TestKafkaSinkRoundTrip(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	redpanda := containers.GetManager().GetRedpanda(t)

	sink, err := events.NewKafkaSink(ctx, []string{redpanda.Broker}, "loadvoice.verification.events.test")
	require.NoError(t, err)
	defer sink.Close()

	sent := events.Event{
		ID:         "evt-int-1",
		Type:       events.TypeVerificationCompleted,
		CarrierKey: "mc:123456",
		Verified:   true,
		RiskScore:  92,
		RiskLevel:  "LOW",
		OccurredAt: time.Now().UTC(),
	}
	require.NoError(t, sink.Publish(ctx, sent))

	consumer, err := kgo.NewClient(
		kgo.SeedBrokers(redpanda.Broker),
		kgo.ConsumeTopics("loadvoice.verification.events.test"),
		kgo.ConsumeResetOffset(kgo.NewOffset().AtStart()),
	)
	require.NoError(t, err)
	defer consumer.Close()

	fetches := consumer.PollFetches(ctx)
	require.NoError(t, fetches.Err())

	records := fetches.Records()
	require.NotEmpty(t, records)

	var got events.Event
	require.NoError(t, json.Unmarshal(records[0].Value, &got))
	require.Equal(t, sent.ID, got.ID)
	require.Equal(t, sent.CarrierKey, got.CarrierKey)
	require.Equal(t, string(records[0].Key), sent.CarrierKey)
}
