package blobstore

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/pepperjack/objectstore/internal/objstore"
	"github.com/pepperjack/objectstore/internal/pathbuilder"
)

func newLocal(t *testing.T) *Local {
	t.Helper()
	dir := t.TempDir()
	paths := pathbuilder.New(filepath.Join(dir, "hot"), filepath.Join(dir, "cold"))
	l, err := NewLocal(paths, false)
	require.NoError(t, err)
	return l
}

func hashOf(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

func TestLocal_WriteReadExistsDelete(t *testing.T) {
	ctx := context.Background()
	l := newLocal(t)
	content := []byte("hello content-addressable world")

	res, err := l.Write(ctx, bytes.NewReader(content), objstore.StorageHot)
	require.NoError(t, err)
	require.Equal(t, hashOf(content), res.SHA256Hex)
	require.Equal(t, int64(len(content)), res.Size)

	exists, err := l.Exists(ctx, res.SHA256Hex, objstore.StorageHot)
	require.NoError(t, err)
	require.True(t, exists)

	rc, size, err := l.Read(ctx, res.SHA256Hex, objstore.StorageHot)
	require.NoError(t, err)
	defer rc.Close()
	require.Equal(t, int64(len(content)), size)
	read, err := io.ReadAll(rc)
	require.NoError(t, err)
	require.Equal(t, content, read)

	require.NoError(t, l.Delete(ctx, res.SHA256Hex, objstore.StorageHot))
	exists, err = l.Exists(ctx, res.SHA256Hex, objstore.StorageHot)
	require.NoError(t, err)
	require.False(t, exists)
}

func TestLocal_Write_DedupSameHash(t *testing.T) {
	ctx := context.Background()
	l := newLocal(t)
	content := []byte("duplicate me")

	first, err := l.Write(ctx, bytes.NewReader(content), objstore.StorageHot)
	require.NoError(t, err)
	second, err := l.Write(ctx, bytes.NewReader(content), objstore.StorageHot)
	require.NoError(t, err)

	require.Equal(t, first.SHA256Hex, second.SHA256Hex)
	require.Equal(t, first.Size, second.Size)
}

func TestLocal_Read_NotFound(t *testing.T) {
	ctx := context.Background()
	l := newLocal(t)

	_, _, err := l.Read(ctx, "e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855", objstore.StorageHot)
	require.ErrorIs(t, err, objstore.ErrNotFound)
}

func TestLocal_Delete_MissingIsIdempotent(t *testing.T) {
	ctx := context.Background()
	l := newLocal(t)

	err := l.Delete(ctx, "e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855", objstore.StorageCold)
	require.NoError(t, err)
}

func TestLocal_MalformedHash(t *testing.T) {
	ctx := context.Background()
	l := newLocal(t)

	_, _, err := l.Read(ctx, "not-a-hash", objstore.StorageHot)
	require.ErrorIs(t, err, objstore.ErrInvalidRequest)

	_, err = l.Exists(ctx, "not-a-hash", objstore.StorageHot)
	require.ErrorIs(t, err, objstore.ErrInvalidRequest)

	err = l.Delete(ctx, "not-a-hash", objstore.StorageHot)
	require.ErrorIs(t, err, objstore.ErrInvalidRequest)
}

func TestLocal_ListHashes(t *testing.T) {
	ctx := context.Background()
	l := newLocal(t)

	a, err := l.Write(ctx, bytes.NewReader([]byte("alpha")), objstore.StorageHot)
	require.NoError(t, err)
	b, err := l.Write(ctx, bytes.NewReader([]byte("beta")), objstore.StorageHot)
	require.NoError(t, err)
	_, err = l.Write(ctx, bytes.NewReader([]byte("gamma")), objstore.StorageCold)
	require.NoError(t, err)

	hashes, err := l.ListHashes(ctx, objstore.StorageHot)
	require.NoError(t, err)
	require.ElementsMatch(t, []string{a.SHA256Hex, b.SHA256Hex}, hashes)
}

func TestLocal_ListHashes_IgnoresStrayFiles(t *testing.T) {
	ctx := context.Background()
	l := newLocal(t)
	dir := t.TempDir()
	_ = dir

	root, err := l.paths.Root(objstore.StorageHot)
	require.NoError(t, err)
	strayDir := filepath.Join(root, "sha256", "zz")
	require.NoError(t, os.MkdirAll(strayDir, 0o750))
	require.NoError(t, os.WriteFile(filepath.Join(strayDir, "not-a-hash"), []byte("x"), 0o640))

	hashes, err := l.ListHashes(ctx, objstore.StorageHot)
	require.NoError(t, err)
	require.Empty(t, hashes)
}

func TestLocal_DiskUsage(t *testing.T) {
	l := newLocal(t)
	usage, err := l.DiskUsage()
	require.NoError(t, err)
	require.Len(t, usage, 2)
}

func TestMemory_WriteReadExistsDelete(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	content := []byte("in-memory bytes")

	res, err := m.Write(ctx, bytes.NewReader(content), objstore.StorageHot)
	require.NoError(t, err)
	require.Equal(t, hashOf(content), res.SHA256Hex)

	exists, err := m.Exists(ctx, res.SHA256Hex, objstore.StorageHot)
	require.NoError(t, err)
	require.True(t, exists)

	rc, size, err := m.Read(ctx, res.SHA256Hex, objstore.StorageHot)
	require.NoError(t, err)
	defer rc.Close()
	require.Equal(t, int64(len(content)), size)

	require.NoError(t, m.Delete(ctx, res.SHA256Hex, objstore.StorageHot))
	exists, err = m.Exists(ctx, res.SHA256Hex, objstore.StorageHot)
	require.NoError(t, err)
	require.False(t, exists)
}

func TestMemory_Read_NotFound(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	_, _, err := m.Read(ctx, "deadbeef", objstore.StorageHot)
	require.ErrorIs(t, err, objstore.ErrNotFound)
}

func TestMemory_UnknownClass(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	_, err := m.Write(ctx, bytes.NewReader([]byte("x")), objstore.StorageClass("glacier"))
	require.Error(t, err)
	var storageErr *objstore.StorageError
	require.True(t, errors.As(err, &storageErr))
}

// Compile-time capability checks.
var (
	_ FilesystemLister  = (*Local)(nil)
	_ DiskUsageReporter = (*Local)(nil)
	_ Store             = (*Memory)(nil)
)
