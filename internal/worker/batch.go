package worker

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"

	"github.com/birbparty/birb-academy/internal/database"
	"github.com/birbparty/birb-academy/internal/telemetry"
)

// Message is one delivery from the event stream.
type Message interface {
	Data() []byte
	Subject() string
	Ack() error
	Nak() error
	Term() error
}

// Batch represents a batch of messages to process
type Batch struct {
	Messages  []Message
	StartTime time.Time
}

// Size returns the number of messages in the batch
func (b *Batch) Size() int { return len(b.Messages) }

// BatchProcessor records batches of events into the activity log
type BatchProcessor struct {
	config  *Config
	sink    database.ActivityLog
	metrics *Metrics
	log     logrus.FieldLogger
}

// NewBatchProcessor creates a new batch processor
func NewBatchProcessor(config *Config, sink database.ActivityLog, metrics *Metrics, log logrus.FieldLogger) *BatchProcessor {
	return &BatchProcessor{
		config:  config,
		sink:    sink,
		metrics: metrics,
		log:     log,
	}
}

// Process decodes and stores a batch. Undecodable messages are terminated so
// they are never redelivered. If the sink fails every decodable message is
// nak'd and the error is returned; otherwise each one is acked.
func (bp *BatchProcessor) Process(ctx context.Context, batch *Batch) error {
	if batch.Size() == 0 {
		return nil
	}

	ctx, span := telemetry.StartSpan(ctx, "worker.batch",
		attribute.String("messaging.system", "nats"),
		attribute.String("messaging.operation", "process"),
		attribute.Int("messaging.batch.message_count", batch.Size()),
	)
	defer span.End()

	start := time.Now()
	entries := make([]database.ActivityEntry, 0, batch.Size())
	valid := make([]Message, 0, batch.Size())
	failed := 0

	for _, msg := range batch.Messages {
		entry, err := decodeEntry(msg.Data())
		if err != nil {
			failed++
			bp.metrics.RecordError("decode_error")
			bp.log.WithError(err).WithField("subject", msg.Subject()).Warn("Dropping undecodable event")
			if err := msg.Term(); err != nil {
				bp.metrics.RecordError("ack_error")
			}
			continue
		}
		entries = append(entries, entry)
		valid = append(valid, msg)
	}

	stored := 0
	if len(entries) > 0 {
		var err error
		stored, err = bp.sink.RecordActivity(ctx, entries)
		if err != nil {
			bp.metrics.RecordError("store_error")
			telemetry.RecordError(ctx, err)
			telemetry.SetErrorStatus(ctx, "failed to store batch")
			for _, msg := range valid {
				if nakErr := msg.Nak(); nakErr != nil {
					bp.metrics.RecordError("ack_error")
				}
			}
			bp.metrics.RecordBatch(batch.Size(), 0, batch.Size(), time.Since(start))
			return fmt.Errorf("failed to record %d events: %w", len(entries), err)
		}
	}

	for _, msg := range valid {
		if err := msg.Ack(); err != nil {
			bp.metrics.RecordError("ack_error")
			bp.log.WithError(err).Warn("Failed to ack event")
		}
	}

	duration := time.Since(start)
	bp.metrics.RecordBatch(batch.Size(), stored, failed, duration)
	telemetry.SetOKStatus(ctx)

	bp.log.WithFields(logrus.Fields{
		"size":     batch.Size(),
		"stored":   stored,
		"failed":   failed,
		"duration": duration.Milliseconds(),
	}).Debug("Processed activity batch")

	return nil
}
