//go:build integration

package kafka_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/twmb/franz-go/pkg/kgo"

	"accountd/pkg/platform/audit"
	auditkafka "accountd/pkg/platform/audit/publishers/kafka"
	"accountd/pkg/testutil/containers"
)

func TestPublisherAppend(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	ctx := context.Background()
	redpanda := containers.NewRedpandaContainer(t)
	const topic = "accountd.audit.test"

	publisher, err := auditkafka.New(ctx, redpanda.Brokers, topic)
	require.NoError(t, err)
	defer publisher.Close()

	event := audit.Event{
		Category:      audit.CategoryCompliance,
		Timestamp:     time.Now(),
		Username:      "bob",
		Action:        string(audit.EventUserProvisioned),
		CorrelationID: "corr-1",
	}
	require.NoError(t, publisher.Append(ctx, event))

	consumer, err := kgo.NewClient(
		kgo.SeedBrokers(redpanda.Brokers...),
		kgo.ConsumeTopics(topic),
		kgo.ConsumeResetOffset(kgo.NewOffset().AtStart()),
	)
	require.NoError(t, err)
	defer consumer.Close()

	pollCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	fetches := consumer.PollFetches(pollCtx)
	require.NoError(t, fetches.Err())

	records := fetches.Records()
	require.Len(t, records, 1)
	require.Equal(t, "bob", string(records[0].Key), "records are keyed by username")

	var got map[string]any
	require.NoError(t, json.Unmarshal(records[0].Value, &got))
	require.Equal(t, string(audit.EventUserProvisioned), got["action"])
	require.Equal(t, string(audit.CategoryCompliance), got["category"])
	require.Equal(t, "corr-1", got["correlation_id"])
	require.NotEmpty(t, got["id"])
}
