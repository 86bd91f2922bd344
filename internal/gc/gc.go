// Package gc implements C9: the detached periodic reconciliation task of
// spec §4.9 — stuck-upload reaping, orphaned blob-row collection, and
// optional filesystem-orphan reconciliation.
package gc

import (
	"context"
	"log/slog"
	"time"

	"github.com/pepperjack/objectstore/internal/blobstore"
	"github.com/pepperjack/objectstore/internal/catalog"
	"github.com/pepperjack/objectstore/internal/metrics"
	"github.com/pepperjack/objectstore/internal/objstore"
)

// Config holds the scheduling knobs of §4.9 and §6.
type Config struct {
	// Interval is T, the base cycle period. Default 60s.
	Interval time.Duration

	// StuckUploadEveryN: the stuck-upload sweep runs every N cycles
	// (default 10, i.e. 10x less often than the orphan-blob sweep).
	StuckUploadEveryN int

	// StuckUploadAgeHours is the WRITING-row age threshold.
	StuckUploadAgeHours float64

	// BatchSize bounds how many orphaned blobs are fetched per cycle.
	BatchSize int

	// ConcurrentBatchSize bounds how many blob deletions run in parallel.
	ConcurrentBatchSize int

	// ReconcileFilesystem enables the optional §4.9 step 3 sweep. Off by
	// default: not required for correctness when all writes go through C3.
	ReconcileFilesystem bool
}

// DefaultConfig returns the §4.9 defaults.
func DefaultConfig() Config {
	return Config{
		Interval:            60 * time.Second,
		StuckUploadEveryN:   10,
		StuckUploadAgeHours: 1,
		BatchSize:           100,
		ConcurrentBatchSize: 10,
	}
}

// Collector runs the periodic GC cycle.
type Collector struct {
	cfg     Config
	objects catalog.ObjectCatalog
	blobs   catalog.BlobCatalog
	store   blobstore.Store
	logger  *slog.Logger
	metrics *metrics.Metrics // optional; nil disables metric recording

	cyclesSinceStuckSweep int
}

// New creates a Collector. m may be nil.
func New(cfg Config, objects catalog.ObjectCatalog, blobs catalog.BlobCatalog, store blobstore.Store, logger *slog.Logger, m *metrics.Metrics) *Collector {
	return &Collector{cfg: cfg, objects: objects, blobs: blobs, store: store, logger: logger, metrics: m}
}

// Run blocks, executing one cycle every cfg.Interval, until ctx is
// cancelled. Each cycle's per-item failures are logged and retried on the
// next cycle; the GC never fails its host task (§7).
func (c *Collector) Run(ctx context.Context) {
	ticker := time.NewTicker(c.cfg.Interval)
	defer ticker.Stop()

	for {
		c.RunOnce(ctx)
		select {
		case <-ticker.C:
		case <-ctx.Done():
			return
		}
	}
}

// RunOnce executes a single GC cycle: stuck uploads (every N×T), then
// orphaned blob rows, then (if enabled) filesystem reconciliation.
func (c *Collector) RunOnce(ctx context.Context) {
	if c.metrics != nil {
		c.metrics.GCCyclesTotal.Inc()
	}

	if c.cyclesSinceStuckSweep <= 0 {
		c.sweepStuckUploads(ctx)
		c.cyclesSinceStuckSweep = c.cfg.StuckUploadEveryN
		if c.cyclesSinceStuckSweep < 1 {
			c.cyclesSinceStuckSweep = 1
		}
	}
	c.cyclesSinceStuckSweep--

	c.sweepOrphanedBlobs(ctx)

	if c.cfg.ReconcileFilesystem {
		c.sweepFilesystemOrphans(ctx)
	}
}

func (c *Collector) sweepStuckUploads(ctx context.Context) {
	n, err := c.objects.CleanupStuckUploads(ctx, c.cfg.StuckUploadAgeHours)
	if err != nil {
		c.logger.Warn("gc: stuck-upload sweep failed, will retry next scheduled sweep", "err", err)
		return
	}
	if n > 0 {
		c.logger.Info("gc: reaped stuck uploads", "count", n)
		if c.metrics != nil {
			c.metrics.GCStuckUploadsReaped.Add(float64(n))
		}
	}
}

func (c *Collector) sweepOrphanedBlobs(ctx context.Context) {
	orphans, err := c.blobs.FindOrphaned(ctx, c.cfg.BatchSize)
	if err != nil {
		c.logger.Warn("gc: find orphaned blobs failed", "err", err)
		return
	}
	if len(orphans) == 0 {
		return
	}

	succeeded, failed := runBatches(ctx, orphans, c.cfg.ConcurrentBatchSize, c.logger, c.reclaimBlob)
	c.logger.Info("gc: orphaned blob sweep complete", "reclaimed", succeeded, "deferred", failed)
	if c.metrics != nil && succeeded > 0 {
		c.metrics.GCBlobsReclaimed.Add(float64(succeeded))
	}
}

// sweepFilesystemOrphans implements the optional §4.9 step 3: files present
// on disk with no corresponding blob row at all (as opposed to a row with
// ref_count=0, already handled by sweepOrphanedBlobs). This guards against
// drift introduced outside the normal write path — a failed rename cleanup,
// manual intervention, restored backup — and is skipped entirely unless the
// store implements blobstore.FilesystemLister.
func (c *Collector) sweepFilesystemOrphans(ctx context.Context) {
	lister, ok := c.store.(blobstore.FilesystemLister)
	if !ok {
		c.logger.Warn("gc: filesystem reconciliation enabled but store does not support listing, skipping")
		return
	}

	for _, class := range []objstore.StorageClass{objstore.StorageHot, objstore.StorageCold} {
		hashes, err := lister.ListHashes(ctx, class)
		if err != nil {
			c.logger.Warn("gc: list filesystem hashes failed", "class", class, "err", err)
			continue
		}
		for _, hash := range hashes {
			exists, err := c.blobs.Exists(ctx, hash)
			if err != nil {
				c.logger.Warn("gc: check blob existence failed", "hash", hash, "err", err)
				continue
			}
			if exists {
				continue
			}
			// No catalog row at all: safe to remove outright, nothing could
			// be mid-reservation against a hash with zero catalog trace.
			if err := c.store.Delete(ctx, hash, class); err != nil {
				c.logger.Warn("gc: remove filesystem orphan failed", "hash", hash, "class", class, "err", err)
				continue
			}
			c.logger.Info("gc: removed filesystem orphan", "hash", hash, "class", class)
		}
	}
}

// reclaimBlob deletes the physical file then the row, in that order —
// deleting the row first would let a concurrent GetOrCreate for the same
// hash race a dangling file with no catalog entry.
func (c *Collector) reclaimBlob(ctx context.Context, b objstore.Blob) error {
	if err := c.store.Delete(ctx, b.ContentHash, b.StorageClass); err != nil {
		return err
	}
	return c.blobs.Delete(ctx, b.ContentHash)
}
