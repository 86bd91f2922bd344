package delete

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/pepperjack/objectstore/internal/blobstore"
	"github.com/pepperjack/objectstore/internal/catalog/memory"
	"github.com/pepperjack/objectstore/internal/objstore"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestExecute_ReclaimsBlobWhenRefCountHitsZero(t *testing.T) {
	ctx := context.Background()
	objects := memory.NewObjectCatalog()
	blobs := memory.NewBlobCatalog()
	store := blobstore.NewMemory()

	hash := "deadbeef00000000000000000000000000000000000000000000000000beef"
	_, err := blobs.GetOrCreate(ctx, hash, objstore.StorageHot, 5)
	require.NoError(t, err)
	require.NoError(t, store.Delete(ctx, hash, objstore.StorageHot)) // no-op, idempotent check

	objects.Put(objstore.Object{
		ID: "obj-1", Namespace: "ns", TenantID: "t", Status: objstore.StatusCommitted,
		StorageClass: objstore.StorageHot, ContentHash: hash, SizeBytes: 5,
	})

	c := New(objects, blobs, store, discardLogger(), nil)
	require.NoError(t, c.Execute(ctx, "obj-1"))

	_, found := blobs.Get(hash)
	require.False(t, found)

	_, err = objects.FindByID(ctx, "obj-1")
	require.ErrorIs(t, err, objstore.ErrNotFound) // DELETED is not COMMITTED
}

func TestExecute_KeepsBlobWhenRefCountStillPositive(t *testing.T) {
	ctx := context.Background()
	objects := memory.NewObjectCatalog()
	blobs := memory.NewBlobCatalog()
	store := blobstore.NewMemory()

	hash := "cafef00d00000000000000000000000000000000000000000000000000dead"
	_, err := blobs.GetOrCreate(ctx, hash, objstore.StorageHot, 5)
	require.NoError(t, err)
	_, err = blobs.GetOrCreate(ctx, hash, objstore.StorageHot, 5) // second reference
	require.NoError(t, err)

	objects.Put(objstore.Object{
		ID: "obj-1", Namespace: "ns", TenantID: "t", Status: objstore.StatusCommitted,
		StorageClass: objstore.StorageHot, ContentHash: hash, SizeBytes: 5,
	})

	c := New(objects, blobs, store, discardLogger(), nil)
	require.NoError(t, c.Execute(ctx, "obj-1"))

	blob, found := blobs.Get(hash)
	require.True(t, found)
	require.Equal(t, int64(1), blob.RefCount)
}

func TestExecute_NotFound(t *testing.T) {
	ctx := context.Background()
	objects := memory.NewObjectCatalog()
	blobs := memory.NewBlobCatalog()
	store := blobstore.NewMemory()

	c := New(objects, blobs, store, discardLogger(), nil)
	err := c.Execute(ctx, "missing")
	require.ErrorIs(t, err, objstore.ErrNotFound)
}
