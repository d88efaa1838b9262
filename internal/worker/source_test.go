//go:build integration
// +build integration

package worker

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/birbparty/birb-academy/internal/database"
	"github.com/birbparty/birb-academy/internal/queue"
	"github.com/birbparty/birb-academy/internal/testutil"
)

func TestJetStreamSource_EndToEnd(t *testing.T) {
	ctx := context.Background()

	url, cleanup, err := testutil.StartNATS(ctx)
	require.NoError(t, err)
	defer cleanup()

	client, err := queue.NewClient(&queue.Config{
		URL:              url,
		Name:             "academy-worker-test",
		StreamName:       "ACADEMY_WORKER_TEST",
		StreamMaxAge:     time.Hour,
		StreamMaxBytes:   1 << 20,
		StreamMaxMsgs:    1000,
		StreamMaxMsgSize: 1 << 14,
		StreamReplicas:   1,
		PublishTimeout:   5 * time.Second,
		MaxDeliver:       5,
	}, nil)
	require.NoError(t, err)
	defer client.Close()

	sub, err := client.PullSubscribe("activity-test")
	require.NoError(t, err)
	source := NewJetStreamSource(sub)
	defer source.Close()

	msgs, err := source.Fetch(ctx, 10, 100*time.Millisecond)
	require.NoError(t, err, "an idle stream is not an error")
	assert.Empty(t, msgs)

	require.NoError(t, client.Publish(ctx, queue.NewProgressEvent(1, 1, 1, 25, "m1", "l2")))
	require.NoError(t, client.Publish(ctx, queue.NewMessageEvent(1, 1, 3, 101, "student")))

	log, _ := testLogger()
	sink := database.NewMemoryActivityLog()
	p := NewProcessor(testConfig(), source, sink, NewMetrics(), log)
	done := make(chan error, 1)
	go func() { done <- p.Start(ctx) }()

	assert.Eventually(t, func() bool {
		entries, err := sink.RecentActivity(ctx, 1, 10)
		return err == nil && len(entries) == 2
	}, 10*time.Second, 50*time.Millisecond)

	p.Stop()
	require.NoError(t, <-done)
}
