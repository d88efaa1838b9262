package worker

import (
	"context"
	"fmt"

	"github.com/birbparty/birb-academy/internal/database"
	"github.com/birbparty/birb-academy/internal/queue"
)

// DirectPublisher writes events straight into an activity log. It stands in
// for the NATS publisher when no broker is configured so the activity feed
// still fills up.
type DirectPublisher struct {
	sink    database.ActivityLog
	metrics *Metrics
}

var _ queue.Publisher = (*DirectPublisher)(nil)

// NewDirectPublisher creates a publisher backed by sink
func NewDirectPublisher(sink database.ActivityLog, metrics *Metrics) *DirectPublisher {
	if metrics == nil {
		metrics = NewMetrics()
	}
	return &DirectPublisher{sink: sink, metrics: metrics}
}

// Publish implements queue.Publisher
func (d *DirectPublisher) Publish(ctx context.Context, ev queue.Event) error {
	entry, err := EntryFromEvent(ev)
	if err != nil {
		d.metrics.RecordError("decode_error")
		return err
	}

	stored, err := d.sink.RecordActivity(ctx, []database.ActivityEntry{entry})
	if err != nil {
		d.metrics.RecordError("store_error")
		return fmt.Errorf("failed to record event %s: %w", entry.EventID, err)
	}
	d.metrics.RecordBatch(1, stored, 0, 0)
	return nil
}

// Health implements queue.Publisher
func (d *DirectPublisher) Health() error { return nil }

// Close implements queue.Publisher
func (d *DirectPublisher) Close() error { return nil }
