// Package delete implements C7: the reverse two-phase delete protocol of
// spec §4.7.
package delete

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/pepperjack/objectstore/internal/blobstore"
	"github.com/pepperjack/objectstore/internal/catalog"
	"github.com/pepperjack/objectstore/internal/metrics"
	"github.com/pepperjack/objectstore/internal/objstore"
)

// Coordinator executes the reverse two-phase delete protocol.
type Coordinator struct {
	objects catalog.ObjectCatalog
	blobs   catalog.BlobCatalog
	store   blobstore.Store
	logger  *slog.Logger
	metrics *metrics.Metrics // optional; nil disables metric recording
}

// New creates a delete Coordinator. m may be nil.
func New(objects catalog.ObjectCatalog, blobs catalog.BlobCatalog, store blobstore.Store, logger *slog.Logger, m *metrics.Metrics) *Coordinator {
	return &Coordinator{objects: objects, blobs: blobs, store: store, logger: logger, metrics: m}
}

// Execute runs the steps of §4.7:
//  1. load the COMMITTED object
//  2. transition to DELETING (object becomes invisible to reads)
//  3. decrement the blob ref count
//  4. if the count reached zero, remove the physical blob then its row
//  5. transition to DELETED
func (c *Coordinator) Execute(ctx context.Context, id string) error {
	obj, err := c.objects.FindByID(ctx, id)
	if err != nil {
		c.recordDelete("not_found")
		return fmt.Errorf("delete: load: %w", err)
	}

	obj.Status = objstore.StatusDeleting
	if err := c.objects.Save(ctx, &obj); err != nil {
		c.recordDelete("error")
		return fmt.Errorf("delete: mark deleting: %w", err)
	}
	c.logger.Info("delete: marked deleting", "object_id", obj.ID)

	// Decrementing after marking DELETING guarantees a crash here leaves
	// the blob over-counted (safe: file stays, reclaimed by GC) rather than
	// under-counted (unsafe: file removed while still referenced) — §4.7
	// "Failure ordering rationale".
	newCount, err := c.blobs.DecrementRef(ctx, obj.ContentHash)
	if err != nil {
		var inconsistency *objstore.InternalInconsistencyError
		if errors.As(err, &inconsistency) {
			c.logger.Error("delete: blob row missing for committed object", "object_id", obj.ID, "hash", obj.ContentHash)
		}
		c.recordDelete("error")
		return fmt.Errorf("delete: decrement ref: %w", err)
	}

	if newCount == 0 {
		if err := c.store.Delete(ctx, obj.ContentHash, obj.StorageClass); err != nil {
			// Non-fatal: GC will retry on the next cycle (§4.9 step 2).
			c.logger.Warn("delete: blob file removal failed, deferring to GC", "hash", obj.ContentHash, "err", err)
		} else if err := c.blobs.Delete(ctx, obj.ContentHash); err != nil {
			c.logger.Warn("delete: blob row removal failed, deferring to GC", "hash", obj.ContentHash, "err", err)
		}
	}

	obj.Status = objstore.StatusDeleted
	if err := c.objects.Save(ctx, &obj); err != nil {
		c.recordDelete("error")
		return fmt.Errorf("delete: mark deleted: %w", err)
	}

	c.recordDelete("ok")
	c.logger.Info("delete: complete", "object_id", obj.ID, "blob_ref_count", newCount)
	return nil
}

func (c *Coordinator) recordDelete(outcome string) {
	if c.metrics == nil {
		return
	}
	c.metrics.DeletesTotal.WithLabelValues(outcome).Inc()
}
