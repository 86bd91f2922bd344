// Package upload implements C6: the two-phase write protocol of spec §4.6.
package upload

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/pepperjack/objectstore/internal/blobstore"
	"github.com/pepperjack/objectstore/internal/catalog"
	"github.com/pepperjack/objectstore/internal/metrics"
	"github.com/pepperjack/objectstore/internal/objstore"
)

// Request carries the caller-supplied fields of an upload. The boundary
// passes them through unchecked (it only defaults an empty storage class to
// hot); validate performs the §4.6 step 1 checks.
type Request struct {
	Namespace    string
	TenantID     string
	Key          string // optional
	StorageClass objstore.StorageClass
	ContentType  string
	Metadata     objstore.Metadata
}

// Coordinator executes the two-phase write protocol.
type Coordinator struct {
	objects catalog.ObjectCatalog
	blobs   catalog.BlobCatalog
	store   blobstore.Store
	logger  *slog.Logger
	metrics *metrics.Metrics // optional; nil disables metric recording
}

// New creates an upload Coordinator. m may be nil.
func New(objects catalog.ObjectCatalog, blobs catalog.BlobCatalog, store blobstore.Store, logger *slog.Logger, m *metrics.Metrics) *Coordinator {
	return &Coordinator{objects: objects, blobs: blobs, store: store, logger: logger, metrics: m}
}

// Execute runs the five steps of §4.6:
//  1. validate
//  2. reserve (WRITING row, durable before any bytes are accepted)
//  3. write bytes (streamed; hash computed in the same pass)
//  4. register blob (dedup happens here via BlobCatalog.GetOrCreate)
//  5. commit (linearization point — object becomes visible to readers)
func (c *Coordinator) Execute(ctx context.Context, req Request, r io.Reader) (objstore.Object, error) {
	namespace, err := validate(req)
	if err != nil {
		c.recordUpload(req.Namespace, req.StorageClass, "rejected")
		return objstore.Object{}, err
	}

	obj := &objstore.Object{
		ID:           uuid.NewString(),
		Namespace:    namespace,
		TenantID:     req.TenantID,
		Key:          req.Key,
		Status:       objstore.StatusWriting,
		StorageClass: req.StorageClass,
		ContentType:  req.ContentType,
		Metadata:     req.Metadata,
	}

	if err := c.objects.Save(ctx, obj); err != nil {
		c.recordUpload(namespace, req.StorageClass, "error")
		return objstore.Object{}, fmt.Errorf("upload: reserve: %w", err)
	}
	c.logger.Info("upload: reserved", "object_id", obj.ID, "namespace", obj.Namespace, "tenant_id", obj.TenantID)

	// Step 3: if this fails, obj remains WRITING and is reaped by GC
	// (§4.6 step 3) — no catalog cleanup needed here.
	writeResult, err := c.store.Write(ctx, r, req.StorageClass)
	if err != nil {
		c.logger.Error("upload: write failed", "object_id", obj.ID, "err", err)
		c.recordUpload(namespace, req.StorageClass, "error")
		return objstore.Object{}, fmt.Errorf("upload: write: %w", err)
	}

	// Step 4: dedup happens here. A crash between this line and the commit
	// below leaves an over-counted blob, never an under-referenced one
	// (§4.6 "Failure ordering rationale").
	blob, err := c.blobs.GetOrCreate(ctx, writeResult.SHA256Hex, req.StorageClass, writeResult.Size)
	if err != nil {
		c.recordUpload(namespace, req.StorageClass, "error")
		return objstore.Object{}, fmt.Errorf("upload: register blob: %w", err)
	}

	obj.Status = objstore.StatusCommitted
	obj.ContentHash = blob.ContentHash
	obj.SizeBytes = writeResult.Size

	if err := c.objects.Save(ctx, obj); err != nil {
		c.recordUpload(namespace, req.StorageClass, "error")
		return objstore.Object{}, fmt.Errorf("upload: commit: %w", err)
	}

	if blob.RefCount > 1 {
		c.recordDedup(true)
	} else {
		c.recordDedup(false)
		c.recordBytesWritten(writeResult.Size)
	}
	c.recordUpload(namespace, req.StorageClass, "committed")

	c.logger.Info("upload: committed",
		"object_id", obj.ID, "sha256", obj.ContentHash, "size", obj.SizeBytes, "ref_count", blob.RefCount)

	return *obj, nil
}

func (c *Coordinator) recordUpload(namespace string, class objstore.StorageClass, outcome string) {
	if c.metrics == nil {
		return
	}
	c.metrics.UploadsTotal.WithLabelValues(namespace, string(class), outcome).Inc()
}

func (c *Coordinator) recordDedup(hit bool) {
	if c.metrics == nil {
		return
	}
	if hit {
		c.metrics.DedupHits.Inc()
	} else {
		c.metrics.DedupMisses.Inc()
	}
}

func (c *Coordinator) recordBytesWritten(n int64) {
	if c.metrics == nil {
		return
	}
	c.metrics.BytesWritten.Add(float64(n))
}

// validate implements §4.6 step 1 and the shape rules of §3.1, returning
// the normalized (lowercased) namespace.
func validate(req Request) (string, error) {
	ns := strings.ToLower(strings.TrimSpace(req.Namespace))
	if !objstore.ValidNamespace(ns) {
		return "", fmt.Errorf("%w: invalid namespace %q", objstore.ErrInvalidRequest, req.Namespace)
	}
	if strings.TrimSpace(req.TenantID) == "" {
		return "", fmt.Errorf("%w: tenant_id is required", objstore.ErrInvalidRequest)
	}
	if !req.StorageClass.Valid() {
		return "", fmt.Errorf("%w: invalid storage class %q", objstore.ErrInvalidRequest, req.StorageClass)
	}
	return ns, nil
}
