// Package memory provides in-memory fakes of catalog.BlobCatalog and
// catalog.ObjectCatalog for coordinator/GC tests, per spec §9's
// "in-memory fakes for tests" guidance.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/pepperjack/objectstore/internal/objstore"
)

// BlobCatalog is an in-memory catalog.BlobCatalog fake.
type BlobCatalog struct {
	mu    sync.Mutex
	blobs map[string]objstore.Blob
}

// NewBlobCatalog creates an empty in-memory blob catalog.
func NewBlobCatalog() *BlobCatalog {
	return &BlobCatalog{blobs: map[string]objstore.Blob{}}
}

func (c *BlobCatalog) GetOrCreate(ctx context.Context, hash string, class objstore.StorageClass, size int64) (objstore.Blob, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if b, ok := c.blobs[hash]; ok {
		b.RefCount++
		c.blobs[hash] = b
		return b, nil
	}
	b := objstore.Blob{
		ContentHash:  hash,
		StorageClass: class,
		SizeBytes:    size,
		RefCount:     1,
		CreatedAt:    time.Now(),
	}
	c.blobs[hash] = b
	return b, nil
}

func (c *BlobCatalog) IncrementRef(ctx context.Context, hash string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	b, ok := c.blobs[hash]
	if !ok {
		return objstore.NewInternalInconsistency("increment_ref: no blob row for hash " + hash)
	}
	b.RefCount++
	c.blobs[hash] = b
	return nil
}

func (c *BlobCatalog) DecrementRef(ctx context.Context, hash string) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	b, ok := c.blobs[hash]
	if !ok {
		return 0, objstore.NewInternalInconsistency("decrement_ref: no blob row for hash " + hash)
	}
	if b.RefCount > 0 {
		b.RefCount--
	}
	c.blobs[hash] = b
	return b.RefCount, nil
}

func (c *BlobCatalog) FindOrphaned(ctx context.Context, limit int) ([]objstore.Blob, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	var out []objstore.Blob
	for _, b := range c.blobs {
		if b.RefCount == 0 {
			out = append(out, b)
			if len(out) >= limit {
				break
			}
		}
	}
	return out, nil
}

func (c *BlobCatalog) Exists(ctx context.Context, hash string) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.blobs[hash]
	return ok, nil
}

func (c *BlobCatalog) Delete(ctx context.Context, hash string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.blobs, hash)
	return nil
}

// Get is a test helper exposing the raw row (production catalogs expose no
// equivalent; tests assert against this directly instead of round-tripping
// through SQL).
func (c *BlobCatalog) Get(hash string) (objstore.Blob, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	b, ok := c.blobs[hash]
	return b, ok
}
