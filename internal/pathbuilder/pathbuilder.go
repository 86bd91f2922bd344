// Package pathbuilder implements the deterministic mapping from
// (storage class, content hash) to filesystem paths described in spec §4.1.
//
// Layout under each storage root:
//
//	{root}/temp/{uuid}            — one unique path per upload attempt
//	{root}/sha256/{hash[0:2]}/{hash} — two-char fan-out prefix
package pathbuilder

import (
	"fmt"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/pepperjack/objectstore/internal/objstore"
)

// Builder resolves temp and final paths against a pair of storage roots.
type Builder struct {
	roots map[objstore.StorageClass]string
}

// New creates a Builder rooted at hotRoot/coldRoot. Both must be absolute
// or caller-resolved paths; Builder does not create directories itself —
// callers (blobstore) own directory creation on demand.
func New(hotRoot, coldRoot string) *Builder {
	return &Builder{
		roots: map[objstore.StorageClass]string{
			objstore.StorageHot:  hotRoot,
			objstore.StorageCold: coldRoot,
		},
	}
}

// Root returns the configured root for class, or an error if class is
// unknown.
func (b *Builder) Root(class objstore.StorageClass) (string, error) {
	root, ok := b.roots[class]
	if !ok {
		return "", fmt.Errorf("pathbuilder: unknown storage class %q", class)
	}
	return root, nil
}

// TempPath allocates a fresh, collision-free path for an in-flight write.
// Every call returns a unique path, even for concurrent calls with the same
// class.
func (b *Builder) TempPath(class objstore.StorageClass) (string, error) {
	root, err := b.Root(class)
	if err != nil {
		return "", err
	}
	return filepath.Join(root, "temp", uuid.NewString()), nil
}

// FinalPath returns the canonical committed-blob location for hash on class.
func (b *Builder) FinalPath(class objstore.StorageClass, hash string) (string, error) {
	root, err := b.Root(class)
	if err != nil {
		return "", err
	}
	if len(hash) < 2 {
		return "", fmt.Errorf("pathbuilder: hash %q too short", hash)
	}
	return filepath.Join(root, "sha256", hash[0:2], hash), nil
}

// FinalDir returns the fan-out prefix directory that must exist before a
// rename into FinalPath can succeed.
func (b *Builder) FinalDir(class objstore.StorageClass, hash string) (string, error) {
	root, err := b.Root(class)
	if err != nil {
		return "", err
	}
	if len(hash) < 2 {
		return "", fmt.Errorf("pathbuilder: hash %q too short", hash)
	}
	return filepath.Join(root, "sha256", hash[0:2]), nil
}

// TempDir returns the temp directory for class, used by the blob store to
// ensure it exists before allocating a temp file.
func (b *Builder) TempDir(class objstore.StorageClass) (string, error) {
	root, err := b.Root(class)
	if err != nil {
		return "", err
	}
	return filepath.Join(root, "temp"), nil
}
