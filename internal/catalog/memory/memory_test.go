package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/pepperjack/objectstore/internal/catalog"
	"github.com/pepperjack/objectstore/internal/objstore"
)

func TestBlobCatalog_GetOrCreate_IncrementsOnRepeat(t *testing.T) {
	ctx := context.Background()
	c := NewBlobCatalog()

	b1, err := c.GetOrCreate(ctx, "hash1", objstore.StorageHot, 128)
	require.NoError(t, err)
	require.Equal(t, int64(1), b1.RefCount)

	b2, err := c.GetOrCreate(ctx, "hash1", objstore.StorageHot, 128)
	require.NoError(t, err)
	require.Equal(t, int64(2), b2.RefCount)
}

func TestBlobCatalog_DecrementRef_SaturatesAtZero(t *testing.T) {
	ctx := context.Background()
	c := NewBlobCatalog()
	_, err := c.GetOrCreate(ctx, "hash1", objstore.StorageHot, 1)
	require.NoError(t, err)

	n, err := c.DecrementRef(ctx, "hash1")
	require.NoError(t, err)
	require.Equal(t, int64(0), n)

	n, err = c.DecrementRef(ctx, "hash1")
	require.NoError(t, err)
	require.Equal(t, int64(0), n)
}

func TestBlobCatalog_FindOrphaned(t *testing.T) {
	ctx := context.Background()
	c := NewBlobCatalog()
	_, err := c.GetOrCreate(ctx, "orphan", objstore.StorageHot, 1)
	require.NoError(t, err)
	_, err = c.DecrementRef(ctx, "orphan")
	require.NoError(t, err)
	_, err = c.GetOrCreate(ctx, "referenced", objstore.StorageHot, 1)
	require.NoError(t, err)

	orphans, err := c.FindOrphaned(ctx, 10)
	require.NoError(t, err)
	require.Len(t, orphans, 1)
	require.Equal(t, "orphan", orphans[0].ContentHash)
}

func TestBlobCatalog_Exists(t *testing.T) {
	ctx := context.Background()
	c := NewBlobCatalog()
	exists, err := c.Exists(ctx, "missing")
	require.NoError(t, err)
	require.False(t, exists)

	_, err = c.GetOrCreate(ctx, "present", objstore.StorageHot, 1)
	require.NoError(t, err)
	exists, err = c.Exists(ctx, "present")
	require.NoError(t, err)
	require.True(t, exists)
}

func TestObjectCatalog_LifecycleTransitions(t *testing.T) {
	ctx := context.Background()
	c := NewObjectCatalog()

	obj := &objstore.Object{ID: "obj1", Namespace: "ns", TenantID: "t1", Status: objstore.StatusWriting}
	require.NoError(t, c.Save(ctx, obj))

	// Reserving the same id twice is invalid.
	dup := &objstore.Object{ID: "obj1", Namespace: "ns", TenantID: "t1", Status: objstore.StatusWriting}
	require.ErrorIs(t, c.Save(ctx, dup), objstore.ErrInvalidTransition)

	obj.Status = objstore.StatusCommitted
	obj.ContentHash = "hash1"
	obj.SizeBytes = 10
	require.NoError(t, c.Save(ctx, obj))

	found, err := c.FindByID(ctx, "obj1")
	require.NoError(t, err)
	require.Equal(t, objstore.StatusCommitted, found.Status)

	// COMMITTED -> WRITING is not in the whitelist.
	bad := found
	bad.Status = objstore.StatusWriting
	require.ErrorIs(t, c.Save(ctx, &bad), objstore.ErrInvalidTransition)
}

func TestObjectCatalog_KeyConflict(t *testing.T) {
	ctx := context.Background()
	c := NewObjectCatalog()

	first := &objstore.Object{ID: "a", Namespace: "ns", TenantID: "t", Key: "dup", Status: objstore.StatusWriting}
	require.NoError(t, c.Save(ctx, first))
	first.Status = objstore.StatusCommitted
	first.ContentHash = "h1"
	require.NoError(t, c.Save(ctx, first))

	second := &objstore.Object{ID: "b", Namespace: "ns", TenantID: "t", Key: "dup", Status: objstore.StatusWriting}
	require.NoError(t, c.Save(ctx, second))
	second.Status = objstore.StatusCommitted
	second.ContentHash = "h2"
	require.ErrorIs(t, c.Save(ctx, second), objstore.ErrConflict)
}

func TestObjectCatalog_FindByID_NotFoundUnlessCommitted(t *testing.T) {
	ctx := context.Background()
	c := NewObjectCatalog()
	obj := &objstore.Object{ID: "obj1", Namespace: "ns", TenantID: "t1", Status: objstore.StatusWriting}
	require.NoError(t, c.Save(ctx, obj))

	_, err := c.FindByID(ctx, "obj1")
	require.ErrorIs(t, err, objstore.ErrNotFound)
}

func TestObjectCatalog_ListPagination(t *testing.T) {
	ctx := context.Background()
	c := NewObjectCatalog()
	for i := 0; i < 5; i++ {
		o := objstore.Object{
			ID: string(rune('a' + i)), Namespace: "ns", TenantID: "t",
			Status: objstore.StatusCommitted, ContentHash: "h", CreatedAt: time.Now().Add(time.Duration(i) * time.Second),
		}
		c.Put(o)
	}

	page, err := c.List(ctx, "ns", "t", 2, 0)
	require.NoError(t, err)
	require.Len(t, page, 2)

	page, err = c.List(ctx, "ns", "t", 2, 4)
	require.NoError(t, err)
	require.Len(t, page, 1)
}

func TestObjectCatalog_Search_Filters(t *testing.T) {
	ctx := context.Background()
	c := NewObjectCatalog()
	c.Put(objstore.Object{ID: "a", Namespace: "ns", TenantID: "t", Status: objstore.StatusCommitted, ContentType: "text/plain", SizeBytes: 10, CreatedAt: time.Now()})
	c.Put(objstore.Object{ID: "b", Namespace: "ns", TenantID: "t", Status: objstore.StatusCommitted, ContentType: "image/png", SizeBytes: 1000, CreatedAt: time.Now()})

	results, err := c.Search(ctx, catalog.SearchRequest{Namespace: "ns", TenantID: "t", ContentType: "text/plain"})
	require.NoError(t, err)
	require.Len(t, results, 1)
	require.Equal(t, "a", results[0].ID)

	min := int64(500)
	results, err = c.Search(ctx, catalog.SearchRequest{Namespace: "ns", TenantID: "t", MinSizeBytes: &min})
	require.NoError(t, err)
	require.Len(t, results, 1)
	require.Equal(t, "b", results[0].ID)
}

func TestObjectCatalog_TextSearch_RequiresQueryAndTarget(t *testing.T) {
	ctx := context.Background()
	c := NewObjectCatalog()

	_, err := c.TextSearch(ctx, catalog.TextSearchRequest{Namespace: "ns", TenantID: "t", MatchKey: true})
	require.ErrorIs(t, err, objstore.ErrInvalidRequest)

	_, err = c.TextSearch(ctx, catalog.TextSearchRequest{Namespace: "ns", TenantID: "t", Query: "x"})
	require.ErrorIs(t, err, objstore.ErrInvalidRequest)
}

func TestObjectCatalog_TextSearch_MatchesKeyAndMetadata(t *testing.T) {
	ctx := context.Background()
	c := NewObjectCatalog()
	c.Put(objstore.Object{ID: "a", Namespace: "ns", TenantID: "t", Key: "quarterly-report", Status: objstore.StatusCommitted, CreatedAt: time.Now()})
	c.Put(objstore.Object{ID: "b", Namespace: "ns", TenantID: "t", Key: "other", Status: objstore.StatusCommitted,
		Metadata: objstore.Metadata{Summary: "quarterly numbers"}, CreatedAt: time.Now()})

	results, err := c.TextSearch(ctx, catalog.TextSearchRequest{Namespace: "ns", TenantID: "t", Query: "quarterly", MatchKey: true, MatchMetadata: true})
	require.NoError(t, err)
	require.Len(t, results, 2)
}

func TestObjectCatalog_CleanupStuckUploads(t *testing.T) {
	ctx := context.Background()
	c := NewObjectCatalog()
	c.Put(objstore.Object{ID: "stuck", Namespace: "ns", TenantID: "t", Status: objstore.StatusWriting, CreatedAt: time.Now().Add(-2 * time.Hour)})
	c.Put(objstore.Object{ID: "fresh", Namespace: "ns", TenantID: "t", Status: objstore.StatusWriting, CreatedAt: time.Now()})

	n, err := c.CleanupStuckUploads(ctx, 1)
	require.NoError(t, err)
	require.Equal(t, 1, n)
}

// Compile-time contract checks.
var (
	_ catalog.BlobCatalog   = (*BlobCatalog)(nil)
	_ catalog.ObjectCatalog = (*ObjectCatalog)(nil)
)
