// Package gc removes orphaned content: bytes in the content store that no
// file in the metadata store refers to.
//
// Orphans appear when a persistent content store (filesystem, S3) outlives
// the namespace that referenced it, e.g. after switching to a fresh metadata
// store, or when a file's creation fails after its content was written.
package gc

import (
	"context"
	"fmt"
	"time"

	"github.com/marmos91/dittofd/internal/logger"
	"github.com/marmos91/dittofd/pkg/store/content"
	"github.com/marmos91/dittofd/pkg/store/metadata"
)

// Collector periodically scans for orphaned content and deletes it.
//
// Thread Safety: Safe for concurrent use.
type Collector struct {
	metadataStore metadata.MetadataStore
	contentStore  content.ContentStore
	config        Config
	stopCh        chan struct{}
	doneCh        chan struct{}
}

// Config contains configuration for the garbage collector.
type Config struct {
	// Enabled controls whether periodic collection runs
	Enabled bool `mapstructure:"enabled" yaml:"enabled"`

	// Interval is how often to collect (default: 1h)
	Interval time.Duration `mapstructure:"interval" yaml:"interval"`

	// DryRun logs what would be deleted without deleting
	DryRun bool `mapstructure:"dry_run" yaml:"dry_run"`
}

// NewCollector creates a collector that is not yet started.
func NewCollector(metadataStore metadata.MetadataStore, contentStore content.ContentStore, config Config) *Collector {
	if config.Interval <= 0 {
		config.Interval = time.Hour
	}

	return &Collector{
		metadataStore: metadataStore,
		contentStore:  contentStore,
		config:        config,
		stopCh:        make(chan struct{}),
		doneCh:        make(chan struct{}),
	}
}

// Start begins periodic collection in a background goroutine.
func (c *Collector) Start() {
	if !c.config.Enabled {
		logger.Info("Garbage collection disabled")
		close(c.doneCh)
		return
	}

	logger.Info("Starting garbage collector: interval=%s dry_run=%v", c.config.Interval, c.config.DryRun)
	go c.worker()
}

// Stop signals the worker to stop and waits for it, up to ctx's deadline.
// Call it at most once, after Start.
func (c *Collector) Stop(ctx context.Context) error {
	close(c.stopCh)

	select {
	case <-c.doneCh:
		return nil
	case <-ctx.Done():
		logger.Warn("Garbage collector shutdown timeout")
		return ctx.Err()
	}
}

// RunNow performs one collection and blocks until it completes.
func (c *Collector) RunNow(ctx context.Context) (*Stats, error) {
	return c.collect(ctx)
}

func (c *Collector) worker() {
	defer close(c.doneCh)

	ticker := time.NewTicker(c.config.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
			stats, err := c.collect(ctx)
			cancel()

			if err != nil {
				logger.Error("Garbage collection failed: %v", err)
			} else {
				logger.Info("Garbage collection completed: %s", stats.Summary())
			}

		case <-c.stopCh:
			return
		}
	}
}

// collect runs one pass:
//  1. List every ContentID in the content store
//  2. Get every ContentID referenced by metadata
//  3. Delete existing - referenced
//
// Content is listed before references are read: a file created between the
// two steps is referenced but not listed, so it is never mistaken for an
// orphan.
func (c *Collector) collect(ctx context.Context) (*Stats, error) {
	stats := &Stats{StartTime: time.Now()}

	existing, err := c.contentStore.ListAllContent(ctx)
	if err != nil {
		return stats, fmt.Errorf("failed to list content: %w", err)
	}
	stats.ExistingCount = uint64(len(existing))

	referenced, err := c.metadataStore.GetAllContentIDs(ctx)
	if err != nil {
		return stats, fmt.Errorf("failed to get referenced content: %w", err)
	}
	stats.ReferencedCount = uint64(len(referenced))

	referencedSet := make(map[metadata.ContentID]struct{}, len(referenced))
	for _, id := range referenced {
		referencedSet[id] = struct{}{}
	}

	var orphaned []metadata.ContentID
	for _, id := range existing {
		if _, ok := referencedSet[id]; !ok {
			orphaned = append(orphaned, id)
		}
	}
	stats.OrphanedCount = uint64(len(orphaned))

	if len(orphaned) == 0 || c.config.DryRun {
		for _, id := range orphaned {
			logger.Info("GC: dry run, would delete %s", id)
		}
		stats.EndTime = time.Now()
		return stats, nil
	}

	for _, id := range orphaned {
		if err := ctx.Err(); err != nil {
			stats.EndTime = time.Now()
			return stats, err
		}

		if err := c.contentStore.Delete(ctx, id); err != nil {
			logger.Debug("GC: failed to delete %s: %v", id, err)
			stats.FailedCount++
			continue
		}
		stats.DeletedCount++
	}

	stats.EndTime = time.Now()
	return stats, nil
}

// Stats contains statistics from a garbage collection run.
type Stats struct {
	StartTime       time.Time // When collection started
	EndTime         time.Time // When collection ended
	ReferencedCount uint64    // ContentIDs referenced by metadata
	ExistingCount   uint64    // ContentIDs in the content store
	OrphanedCount   uint64    // Existing but unreferenced ContentIDs
	DeletedCount    uint64    // Orphans deleted
	FailedCount     uint64    // Orphans that failed to delete
}

// Duration returns the total collection duration.
func (s *Stats) Duration() time.Duration {
	if s.EndTime.IsZero() {
		return time.Since(s.StartTime)
	}
	return s.EndTime.Sub(s.StartTime)
}

// Summary returns a human-readable summary of the collection.
func (s *Stats) Summary() string {
	return fmt.Sprintf("referenced=%d existing=%d orphaned=%d deleted=%d failed=%d duration=%s",
		s.ReferencedCount, s.ExistingCount, s.OrphanedCount,
		s.DeletedCount, s.FailedCount, s.Duration())
}
