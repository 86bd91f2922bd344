// Package blobstore implements C3: physical blob I/O backed by a local,
// tiered filesystem — write-to-temp then atomic rename, read, exists,
// delete. See spec §4.3.
package blobstore

import (
	"context"
	"io"

	"github.com/pepperjack/objectstore/internal/objstore"
)

// WriteResult is returned by Store.Write.
type WriteResult struct {
	SHA256Hex string
	Size      int64
}

// Store is the narrow capability contract for physical blob I/O. The
// production implementation is the local filesystem (Local); tests use an
// in-memory fake (see Memory in memory.go for the equivalent of the spec's
// "in-memory fakes for tests").
type Store interface {
	// Write streams r into a new blob on class, computing its SHA-256 as it
	// goes. If a blob with the resulting hash already exists, the temp file
	// is discarded and the existing (hash, size) is returned — this is the
	// filesystem-level half of deduplication described in §4.6 step 4's
	// note.
	Write(ctx context.Context, r io.Reader, class objstore.StorageClass) (WriteResult, error)

	// Read opens hash for streaming read on class. Returns
	// objstore.ErrNotFound if absent.
	Read(ctx context.Context, hash string, class objstore.StorageClass) (io.ReadCloser, int64, error)

	// Exists reports whether hash is present on class.
	Exists(ctx context.Context, hash string, class objstore.StorageClass) (bool, error)

	// Delete unlinks hash on class. Missing is not an error (idempotent).
	Delete(ctx context.Context, hash string, class objstore.StorageClass) error
}

// FilesystemLister is an optional capability implemented by stores that can
// enumerate their on-disk blobs for the filesystem-orphan reconciliation of
// §4.9 step 3. The in-memory fake does not implement it — that sweep is
// meaningless without a real filesystem.
type FilesystemLister interface {
	ListHashes(ctx context.Context, class objstore.StorageClass) ([]string, error)
}

// DiskUsageReporter is an optional capability for stores that can report
// filesystem capacity per storage class, used by the readiness probe to
// surface hot/cold pressure (see StorageClassUsage).
type DiskUsageReporter interface {
	DiskUsage() ([]StorageClassUsage, error)
}
