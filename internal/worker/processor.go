package worker

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/birbparty/birb-academy/internal/database"
)

// ErrAlreadyStarted is returned by a second call to Start.
var ErrAlreadyStarted = errors.New("processor already started")

// Processor pulls events from a Source and records them into the activity log
type Processor struct {
	config         *Config
	source         Source
	batchProcessor *BatchProcessor
	metrics        *Metrics
	log            logrus.FieldLogger

	// Control channels
	started   atomic.Bool
	stopOnce  sync.Once
	stopCh    chan struct{}
	stoppedCh chan struct{}
}

// NewProcessor creates a new message processor
func NewProcessor(config *Config, source Source, sink database.ActivityLog, metrics *Metrics, log logrus.FieldLogger) *Processor {
	log = log.WithField("worker_id", config.WorkerID)
	return &Processor{
		config:         config,
		source:         source,
		batchProcessor: NewBatchProcessor(config, sink, metrics, log),
		metrics:        metrics,
		log:            log,
		stopCh:         make(chan struct{}),
		stoppedCh:      make(chan struct{}),
	}
}

// Start runs the processing loop until ctx is done or Stop is called.
func (p *Processor) Start(ctx context.Context) error {
	if !p.started.CompareAndSwap(false, true) {
		return ErrAlreadyStarted
	}
	defer close(p.stoppedCh)
	p.log.Info("🚀 Worker starting event processing...")

	metricsTicker := time.NewTicker(p.config.MetricsInterval)
	defer metricsTicker.Stop()

	backoff := p.config.RetryBackoff
	for {
		select {
		case <-ctx.Done():
			return p.shutdown()
		case <-p.stopCh:
			return p.shutdown()
		case <-metricsTicker.C:
			p.reportMetrics()
		default:
		}

		msgs, err := p.source.Fetch(ctx, p.config.BatchSize, p.config.BatchTimeout)
		if err != nil {
			if ctx.Err() != nil {
				continue
			}
			p.metrics.RecordError("fetch_error")
			p.metrics.SetHealthy(false)
			p.log.WithError(err).WithField("retry_in", backoff.String()).Warn("Failed to fetch events")

			if !p.sleep(ctx, backoff) {
				return p.shutdown()
			}
			backoff = p.config.nextBackoff(backoff)
			continue
		}
		backoff = p.config.RetryBackoff

		if len(msgs) == 0 {
			p.metrics.SetHealthy(true)
			continue
		}
		p.processBatch(ctx, &Batch{Messages: msgs, StartTime: time.Now()})
	}
}

// processBatch gives each batch its own deadline so shutdown does not abort a
// half-written batch.
func (p *Processor) processBatch(ctx context.Context, batch *Batch) {
	batchCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), p.config.BatchDeadline)
	defer cancel()

	if err := p.batchProcessor.Process(batchCtx, batch); err != nil {
		p.metrics.SetHealthy(false)
		p.log.WithError(err).Error("Batch processing failed, events will be redelivered")
		return
	}
	p.metrics.SetHealthy(true)
}

// sleep waits for d and reports whether the loop should keep running.
func (p *Processor) sleep(ctx context.Context, d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-p.stopCh:
		return false
	case <-timer.C:
		return true
	}
}

// reportMetrics logs the current metrics
func (p *Processor) reportMetrics() {
	stats := p.metrics.GetStats()
	p.log.WithFields(logrus.Fields{
		"events_received":   stats["events_received"],
		"events_stored":     stats["events_stored"],
		"events_duplicate":  stats["events_duplicate"],
		"events_failed":     stats["events_failed"],
		"batches_processed": stats["batches_processed"],
		"is_healthy":        stats["is_healthy"],
	}).Info("📊 Worker metrics")
}

// Stop signals the processor to stop and waits for a running loop to exit.
// A Start that begins after Stop returns immediately.
func (p *Processor) Stop() {
	p.stopOnce.Do(func() { close(p.stopCh) })
	if p.started.Load() {
		<-p.stoppedCh
	}
}

func (p *Processor) shutdown() error {
	p.log.Info("🛑 Worker shutting down gracefully...")
	p.reportMetrics()
	return nil
}
