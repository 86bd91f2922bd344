// Package download implements C8: resolving a logical id or key to a blob
// and returning a streaming reader plus metadata, per spec §4.8.
package download

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/pepperjack/objectstore/internal/blobstore"
	"github.com/pepperjack/objectstore/internal/catalog"
	"github.com/pepperjack/objectstore/internal/metrics"
	"github.com/pepperjack/objectstore/internal/objstore"
)

// Result is returned by Execute*: a streaming reader plus the metadata the
// boundary needs to set response headers (§6: Content-Length, Content-Type,
// X-Content-Hash).
type Result struct {
	Reader      io.ReadCloser
	Size        int64
	ContentHash string
	ContentType string
	Object      objstore.Object
}

// Coordinator resolves objects and opens their blobs for streaming.
type Coordinator struct {
	objects catalog.ObjectCatalog
	store   blobstore.Store
	logger  *slog.Logger
	metrics *metrics.Metrics // optional; nil disables metric recording
}

// New creates a download Coordinator. m may be nil.
func New(objects catalog.ObjectCatalog, store blobstore.Store, logger *slog.Logger, m *metrics.Metrics) *Coordinator {
	return &Coordinator{objects: objects, store: store, logger: logger, metrics: m}
}

// ExecuteByID implements §4.8's primary form.
func (c *Coordinator) ExecuteByID(ctx context.Context, id string) (Result, error) {
	obj, err := c.objects.FindByID(ctx, id)
	if err != nil {
		c.recordDownload("not_found")
		return Result{}, fmt.Errorf("download: load: %w", err)
	}
	return c.open(ctx, obj)
}

// ExecuteByKey implements §4.8's key-resolution form.
func (c *Coordinator) ExecuteByKey(ctx context.Context, namespace, tenant, key string) (Result, error) {
	obj, err := c.objects.FindByKey(ctx, namespace, tenant, key)
	if err != nil {
		c.recordDownload("not_found")
		return Result{}, fmt.Errorf("download: load: %w", err)
	}
	return c.open(ctx, obj)
}

func (c *Coordinator) open(ctx context.Context, obj objstore.Object) (Result, error) {
	rc, size, err := c.store.Read(ctx, obj.ContentHash, obj.StorageClass)
	if err != nil {
		if errors.Is(err, objstore.ErrNotFound) {
			// The catalog points at a blob that isn't on disk — this is
			// impossible under normal operation and is surfaced as a
			// server error for the boundary; GC reconciles the drift.
			c.logger.Error("download: catalog points at missing blob",
				"object_id", obj.ID, "hash", obj.ContentHash, "class", obj.StorageClass)
			c.recordDownload("inconsistent")
			return Result{}, objstore.NewInternalInconsistency(
				fmt.Sprintf("object %s references missing blob %s", obj.ID, obj.ContentHash))
		}
		c.recordDownload("error")
		return Result{}, fmt.Errorf("download: open blob: %w", err)
	}
	c.recordDownload("ok")
	return Result{
		Reader:      rc,
		Size:        size,
		ContentHash: obj.ContentHash,
		ContentType: obj.ContentType,
		Object:      obj,
	}, nil
}

func (c *Coordinator) recordDownload(outcome string) {
	if c.metrics == nil {
		return
	}
	c.metrics.DownloadsTotal.WithLabelValues(outcome).Inc()
}
