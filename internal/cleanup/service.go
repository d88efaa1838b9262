// Package cleanup prunes activity entries past their retention, archiving
// them to object storage first.
package cleanup

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/sirupsen/logrus"

	"github.com/birbparty/birb-academy/internal/database"
)

var prunedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "academy_activity_pruned_total",
	Help: "Activity entries handled by the retention sweep",
}, []string{"result"})

// Archiver stores a pruned batch before it is deleted.
type Archiver interface {
	UploadArchive(ctx context.Context, name string, data []byte) (string, error)
}

// CleanupConfig contains configuration for the cleanup service
type CleanupConfig struct {
	Retention           time.Duration
	CleanupInterval     time.Duration
	BatchSize           int
	DryRun              bool
	ArchiveBeforeDelete bool
}

// CleanupResult summarises one sweep.
type CleanupResult struct {
	Cutoff   time.Time
	Expired  int
	Deleted  int
	Archives []string
	DryRun   bool
}

// CleanupService periodically removes old activity
type CleanupService struct {
	store    database.ActivityPruner
	archiver Archiver
	config   CleanupConfig
	log      logrus.FieldLogger
	now      func() time.Time
}

// NewCleanupService creates a new cleanup service. archiver may be nil, in
// which case entries are deleted without an archive.
func NewCleanupService(store database.ActivityPruner, archiver Archiver, config CleanupConfig, log logrus.FieldLogger) *CleanupService {
	// Set defaults
	if config.Retention == 0 {
		config.Retention = 30 * 24 * time.Hour
	}
	if config.CleanupInterval == 0 {
		config.CleanupInterval = time.Hour
	}
	if config.BatchSize <= 0 {
		config.BatchSize = 500
	}
	if archiver == nil {
		config.ArchiveBeforeDelete = false
	}

	return &CleanupService{
		store:    store,
		archiver: archiver,
		config:   config,
		log:      log.WithField("component", "cleanup"),
		now:      time.Now,
	}
}

// Start runs a sweep immediately and then every CleanupInterval until ctx is done.
func (c *CleanupService) Start(ctx context.Context) {
	ticker := time.NewTicker(c.config.CleanupInterval)
	defer ticker.Stop()

	c.log.WithFields(logrus.Fields{
		"dry_run":   c.config.DryRun,
		"interval":  c.config.CleanupInterval.String(),
		"retention": c.config.Retention.String(),
		"archive":   c.config.ArchiveBeforeDelete,
	}).Info("🧹 Cleanup service started")

	c.sweep(ctx)
	for {
		select {
		case <-ticker.C:
			c.sweep(ctx)
		case <-ctx.Done():
			c.log.Info("Cleanup service stopped")
			return
		}
	}
}

func (c *CleanupService) sweep(ctx context.Context) {
	result, err := c.RunOnce(ctx)
	if err != nil {
		c.log.WithError(err).Error("Cleanup cycle failed")
		return
	}

	entry := c.log.WithFields(logrus.Fields{
		"expired":  result.Expired,
		"deleted":  result.Deleted,
		"archives": len(result.Archives),
	})
	if result.DryRun {
		entry.Info("DRY RUN: cleanup cycle found expired activity")
		return
	}
	entry.Info("Cleanup cycle completed")
}

// RunOnce prunes everything older than the retention window, one batch at a
// time. A batch is deleted only after its archive upload succeeds. In dry-run
// mode only the first batch is counted and nothing is changed.
func (c *CleanupService) RunOnce(ctx context.Context) (*CleanupResult, error) {
	result := &CleanupResult{
		Cutoff:   c.now().Add(-c.config.Retention),
		Archives: []string{},
		DryRun:   c.config.DryRun,
	}

	for seq := 1; ; seq++ {
		entries, err := c.store.ActivityBefore(ctx, result.Cutoff, c.config.BatchSize)
		if err != nil {
			return result, fmt.Errorf("failed to list expired activity: %w", err)
		}
		if len(entries) == 0 {
			return result, nil
		}
		result.Expired += len(entries)

		if c.config.DryRun {
			prunedTotal.WithLabelValues("dry_run").Add(float64(len(entries)))
			return result, nil
		}

		if c.config.ArchiveBeforeDelete {
			archivePath, err := c.archiveBatch(ctx, result.Cutoff, seq, entries)
			if err != nil {
				prunedTotal.WithLabelValues("archive_failed").Add(float64(len(entries)))
				return result, fmt.Errorf("failed to archive: %w", err)
			}
			result.Archives = append(result.Archives, archivePath)
		}

		ids := make([]string, len(entries))
		for i, e := range entries {
			ids[i] = e.EventID
		}
		deleted, err := c.store.DeleteActivity(ctx, ids)
		if err != nil {
			return result, fmt.Errorf("failed to delete: %w", err)
		}
		result.Deleted += deleted
		prunedTotal.WithLabelValues("deleted").Add(float64(deleted))

		if deleted == 0 || len(entries) < c.config.BatchSize {
			return result, nil
		}
	}
}

// archiveBatch uploads entries as newline-delimited JSON
func (c *CleanupService) archiveBatch(ctx context.Context, cutoff time.Time, seq int, entries []database.ActivityEntry) (string, error) {
	var buf bytes.Buffer
	encoder := json.NewEncoder(&buf)
	for _, e := range entries {
		if err := encoder.Encode(e); err != nil {
			return "", fmt.Errorf("failed to encode %s: %w", e.EventID, err)
		}
	}

	name := fmt.Sprintf("activity/%s-%04d.jsonl", cutoff.UTC().Format("20060102T150405Z"), seq)
	archivePath, err := c.archiver.UploadArchive(ctx, name, buf.Bytes())
	if err != nil {
		return "", fmt.Errorf("upload failed: %w", err)
	}

	c.log.WithFields(logrus.Fields{
		"path":    archivePath,
		"entries": len(entries),
	}).Info("Archived expired activity")
	return archivePath, nil
}
