package postgres

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/pepperjack/objectstore/internal/objstore"
)

func TestBlobCatalog_GetOrCreate_FirstWriteSetsRefCountOne(t *testing.T) {
	catalogs := setupCatalogs(t)
	ctx := context.Background()
	hash := uniqueHash(t)

	blob, err := catalogs.Blobs.GetOrCreate(ctx, hash, objstore.StorageHot, 42)
	require.NoError(t, err)
	require.Equal(t, hash, blob.ContentHash)
	require.Equal(t, objstore.StorageHot, blob.StorageClass)
	require.EqualValues(t, 42, blob.SizeBytes)
	require.EqualValues(t, 1, blob.RefCount)
}

func TestBlobCatalog_GetOrCreate_SecondWriteIncrementsRefCount(t *testing.T) {
	catalogs := setupCatalogs(t)
	ctx := context.Background()
	hash := uniqueHash(t)

	_, err := catalogs.Blobs.GetOrCreate(ctx, hash, objstore.StorageHot, 42)
	require.NoError(t, err)

	blob, err := catalogs.Blobs.GetOrCreate(ctx, hash, objstore.StorageHot, 42)
	require.NoError(t, err)
	require.EqualValues(t, 2, blob.RefCount)
}

func TestBlobCatalog_IncrementDecrementRef(t *testing.T) {
	catalogs := setupCatalogs(t)
	ctx := context.Background()
	hash := uniqueHash(t)

	_, err := catalogs.Blobs.GetOrCreate(ctx, hash, objstore.StorageHot, 10)
	require.NoError(t, err)

	require.NoError(t, catalogs.Blobs.IncrementRef(ctx, hash))

	count, err := catalogs.Blobs.DecrementRef(ctx, hash)
	require.NoError(t, err)
	require.EqualValues(t, 1, count)

	count, err = catalogs.Blobs.DecrementRef(ctx, hash)
	require.NoError(t, err)
	require.EqualValues(t, 0, count)
}

func TestBlobCatalog_DecrementRef_SaturatesAtZero(t *testing.T) {
	catalogs := setupCatalogs(t)
	ctx := context.Background()
	hash := uniqueHash(t)

	_, err := catalogs.Blobs.GetOrCreate(ctx, hash, objstore.StorageHot, 10)
	require.NoError(t, err)

	_, err = catalogs.Blobs.DecrementRef(ctx, hash)
	require.NoError(t, err)

	count, err := catalogs.Blobs.DecrementRef(ctx, hash)
	require.NoError(t, err)
	require.EqualValues(t, 0, count)
}

func TestBlobCatalog_IncrementRef_MissingHashIsInternalInconsistency(t *testing.T) {
	catalogs := setupCatalogs(t)
	ctx := context.Background()

	err := catalogs.Blobs.IncrementRef(ctx, uniqueHash(t))
	require.Error(t, err)
	var target *objstore.InternalInconsistencyError
	require.ErrorAs(t, err, &target)
}

func TestBlobCatalog_FindOrphaned_ReturnsOnlyZeroRefRows(t *testing.T) {
	catalogs := setupCatalogs(t)
	ctx := context.Background()

	referenced := uniqueHash(t)
	orphaned := uniqueHash(t)

	_, err := catalogs.Blobs.GetOrCreate(ctx, referenced, objstore.StorageHot, 1)
	require.NoError(t, err)

	_, err = catalogs.Blobs.GetOrCreate(ctx, orphaned, objstore.StorageHot, 1)
	require.NoError(t, err)
	_, err = catalogs.Blobs.DecrementRef(ctx, orphaned)
	require.NoError(t, err)

	blobs, err := catalogs.Blobs.FindOrphaned(ctx, 1000)
	require.NoError(t, err)

	var sawOrphan, sawReferenced bool
	for _, b := range blobs {
		if b.ContentHash == orphaned {
			sawOrphan = true
		}
		if b.ContentHash == referenced {
			sawReferenced = true
		}
	}
	require.True(t, sawOrphan, "orphaned blob should be in the result set")
	require.False(t, sawReferenced, "referenced blob must not be in the result set")
}

func TestBlobCatalog_Exists(t *testing.T) {
	catalogs := setupCatalogs(t)
	ctx := context.Background()
	hash := uniqueHash(t)

	ok, err := catalogs.Blobs.Exists(ctx, hash)
	require.NoError(t, err)
	require.False(t, ok)

	_, err = catalogs.Blobs.GetOrCreate(ctx, hash, objstore.StorageHot, 1)
	require.NoError(t, err)

	ok, err = catalogs.Blobs.Exists(ctx, hash)
	require.NoError(t, err)
	require.True(t, ok)
}

func TestBlobCatalog_Delete_MissingRowIsSuccess(t *testing.T) {
	catalogs := setupCatalogs(t)
	ctx := context.Background()

	require.NoError(t, catalogs.Blobs.Delete(ctx, uniqueHash(t)))
}

func TestBlobCatalog_Delete_RemovesRow(t *testing.T) {
	catalogs := setupCatalogs(t)
	ctx := context.Background()
	hash := uniqueHash(t)

	_, err := catalogs.Blobs.GetOrCreate(ctx, hash, objstore.StorageHot, 1)
	require.NoError(t, err)

	require.NoError(t, catalogs.Blobs.Delete(ctx, hash))

	ok, err := catalogs.Blobs.Exists(ctx, hash)
	require.NoError(t, err)
	require.False(t, ok)
}
