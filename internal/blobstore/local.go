package blobstore

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/pepperjack/objectstore/internal/hasher"
	"github.com/pepperjack/objectstore/internal/objstore"
	"github.com/pepperjack/objectstore/internal/pathbuilder"
)

// Local is the production Store: a tiered local-filesystem backend using
// write-to-temp-then-atomic-rename, in the teacher's store/local.go and
// store/cas.go idiom.
type Local struct {
	paths   *pathbuilder.Builder
	durable bool // whether writes are fsynced before the commit rename
}

// NewLocal creates a Local store over paths, ensuring both storage roots'
// temp and sha256 directories exist.
func NewLocal(paths *pathbuilder.Builder, durable bool) (*Local, error) {
	l := &Local{paths: paths, durable: durable}
	for _, class := range []objstore.StorageClass{objstore.StorageHot, objstore.StorageCold} {
		tempDir, err := paths.TempDir(class)
		if err != nil {
			return nil, err
		}
		if err := os.MkdirAll(tempDir, 0o750); err != nil {
			return nil, fmt.Errorf("blobstore: create temp dir %q: %w", tempDir, err)
		}
		root, err := paths.Root(class)
		if err != nil {
			return nil, err
		}
		if err := os.MkdirAll(filepath.Join(root, "sha256"), 0o750); err != nil {
			return nil, fmt.Errorf("blobstore: create sha256 dir: %w", err)
		}
	}
	return l, nil
}

// Write implements Store.Write using write-to-temp, hash-while-writing,
// then atomic rename (§4.3). On any failure the temp file is unlinked
// best-effort.
func (l *Local) Write(ctx context.Context, r io.Reader, class objstore.StorageClass) (WriteResult, error) {
	tempPath, err := l.paths.TempPath(class)
	if err != nil {
		return WriteResult{}, objstore.NewStorageError("write: allocate temp path", err)
	}

	f, err := os.OpenFile(tempPath, os.O_CREATE|os.O_WRONLY|os.O_EXCL, 0o640)
	if err != nil {
		return WriteResult{}, objstore.NewStorageError("write: create temp file", err)
	}

	res, hashErr := hasher.WriteAndHash(f, r, l.durable)
	closeErr := f.Close()
	if hashErr != nil {
		os.Remove(tempPath) //nolint:errcheck
		return WriteResult{}, objstore.NewStorageError("write: stream", hashErr)
	}
	if closeErr != nil {
		os.Remove(tempPath) //nolint:errcheck
		return WriteResult{}, objstore.NewStorageError("write: close temp file", closeErr)
	}

	finalPath, err := l.paths.FinalPath(class, res.SHA256Hex)
	if err != nil {
		os.Remove(tempPath) //nolint:errcheck
		return WriteResult{}, objstore.NewStorageError("write: resolve final path", err)
	}

	if _, statErr := os.Stat(finalPath); statErr == nil {
		// Dedup hit at the filesystem level — identical bytes already
		// committed by a previous writer. Discard our temp file; the
		// caller (C4) still performs the ref-count bookkeeping.
		os.Remove(tempPath) //nolint:errcheck
		return WriteResult{SHA256Hex: res.SHA256Hex, Size: res.Size}, nil
	} else if !errors.Is(statErr, os.ErrNotExist) {
		os.Remove(tempPath) //nolint:errcheck
		return WriteResult{}, objstore.NewStorageError("write: stat final path", statErr)
	}

	finalDir, err := l.paths.FinalDir(class, res.SHA256Hex)
	if err != nil {
		os.Remove(tempPath) //nolint:errcheck
		return WriteResult{}, objstore.NewStorageError("write: resolve final dir", err)
	}
	if err := os.MkdirAll(finalDir, 0o750); err != nil {
		os.Remove(tempPath) //nolint:errcheck
		return WriteResult{}, objstore.NewStorageError("write: mkdir final dir", err)
	}

	if err := os.Rename(tempPath, finalPath); err != nil {
		os.Remove(tempPath) //nolint:errcheck
		return WriteResult{}, objstore.NewStorageError("write: rename to final path", err)
	}

	return WriteResult{SHA256Hex: res.SHA256Hex, Size: res.Size}, nil
}

// Read implements Store.Read.
func (l *Local) Read(ctx context.Context, hash string, class objstore.StorageClass) (io.ReadCloser, int64, error) {
	if !objstore.ValidContentHash(hash) {
		return nil, 0, fmt.Errorf("%w: malformed content hash", objstore.ErrInvalidRequest)
	}
	finalPath, err := l.paths.FinalPath(class, hash)
	if err != nil {
		return nil, 0, objstore.NewStorageError("read: resolve final path", err)
	}
	f, err := os.Open(finalPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, 0, objstore.ErrNotFound
		}
		return nil, 0, objstore.NewStorageError("read: open", err)
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, 0, objstore.NewStorageError("read: stat", err)
	}
	return f, info.Size(), nil
}

// Exists implements Store.Exists.
func (l *Local) Exists(ctx context.Context, hash string, class objstore.StorageClass) (bool, error) {
	if !objstore.ValidContentHash(hash) {
		return false, fmt.Errorf("%w: malformed content hash", objstore.ErrInvalidRequest)
	}
	finalPath, err := l.paths.FinalPath(class, hash)
	if err != nil {
		return false, objstore.NewStorageError("exists: resolve final path", err)
	}
	_, err = os.Stat(finalPath)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	}
	return false, objstore.NewStorageError("exists: stat", err)
}

// ListHashes implements FilesystemLister by walking class's sha256 fan-out
// directory and returning every entry whose name is a well-formed content
// hash. Non-matching entries (stray files, partial writes outside temp/) are
// skipped rather than reported, since they aren't blob candidates at all.
func (l *Local) ListHashes(ctx context.Context, class objstore.StorageClass) ([]string, error) {
	root, err := l.paths.Root(class)
	if err != nil {
		return nil, err
	}
	sha256Dir := filepath.Join(root, "sha256")

	var hashes []string
	err = filepath.WalkDir(sha256Dir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		name := d.Name()
		if objstore.ValidContentHash(name) {
			hashes = append(hashes, name)
		}
		return nil
	})
	if err != nil {
		return nil, objstore.NewStorageError("list_hashes: walk", err)
	}
	return hashes, nil
}

// StorageClassUsage reports disk capacity for a single storage class root,
// surfaced by the readiness probe (§C.2) so operators can see hot/cold
// pressure before it causes write failures.
type StorageClassUsage struct {
	Class          objstore.StorageClass
	AvailableBytes uint64
	TotalBytes     uint64
}

// DiskUsage implements DiskUsageReporter, reporting capacity for both the
// hot and cold roots.
func (l *Local) DiskUsage() ([]StorageClassUsage, error) {
	usage := make([]StorageClassUsage, 0, 2)
	for _, class := range []objstore.StorageClass{objstore.StorageHot, objstore.StorageCold} {
		root, err := l.paths.Root(class)
		if err != nil {
			return nil, err
		}
		avail, total := diskStats(root)
		usage = append(usage, StorageClassUsage{Class: class, AvailableBytes: avail, TotalBytes: total})
	}
	return usage, nil
}

// Delete implements Store.Delete. Missing is success (idempotent per §7).
func (l *Local) Delete(ctx context.Context, hash string, class objstore.StorageClass) error {
	if !objstore.ValidContentHash(hash) {
		return fmt.Errorf("%w: malformed content hash", objstore.ErrInvalidRequest)
	}
	finalPath, err := l.paths.FinalPath(class, hash)
	if err != nil {
		return objstore.NewStorageError("delete: resolve final path", err)
	}
	if err := os.Remove(finalPath); err != nil && !errors.Is(err, os.ErrNotExist) {
		return objstore.NewStorageError("delete: unlink", err)
	}
	return nil
}
