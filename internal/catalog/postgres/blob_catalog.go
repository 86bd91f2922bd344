package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/pepperjack/objectstore/internal/objstore"
)

// BlobCatalog is the production catalog.BlobCatalog implementation,
// grounded on marmos91-dittofs's postgresLockStore.PutLock upsert pattern.
type BlobCatalog struct {
	pool *pgxpool.Pool
}

// NewBlobCatalog wraps an existing pool. Pool lifecycle is owned by the
// caller (see Open in conn.go).
func NewBlobCatalog(pool *pgxpool.Pool) *BlobCatalog {
	return &BlobCatalog{pool: pool}
}

// GetOrCreate is the single-statement, race-free upsert required by §4.4:
// ON CONFLICT lets concurrent writers of identical content serialize on the
// row lock rather than on application code.
func (c *BlobCatalog) GetOrCreate(ctx context.Context, hash string, class objstore.StorageClass, size int64) (objstore.Blob, error) {
	const query = `
		INSERT INTO blobs (content_hash, storage_class, size_bytes, ref_count)
		VALUES ($1, $2, $3, 1)
		ON CONFLICT (content_hash) DO UPDATE SET
			ref_count = blobs.ref_count + 1
		RETURNING content_hash, storage_class, size_bytes, ref_count, created_at
	`
	var b objstore.Blob
	var storageClass string
	err := c.pool.QueryRow(ctx, query, hash, string(class), size).Scan(
		&b.ContentHash, &storageClass, &b.SizeBytes, &b.RefCount, &b.CreatedAt,
	)
	if err != nil {
		return objstore.Blob{}, objstore.NewCatalogError("blob.get_or_create", err)
	}
	b.StorageClass = objstore.StorageClass(storageClass)
	return b, nil
}

// IncrementRef increments the ref count for hash.
func (c *BlobCatalog) IncrementRef(ctx context.Context, hash string) error {
	const query = `UPDATE blobs SET ref_count = ref_count + 1 WHERE content_hash = $1`
	tag, err := c.pool.Exec(ctx, query, hash)
	if err != nil {
		return objstore.NewCatalogError("blob.increment_ref", err)
	}
	if tag.RowsAffected() == 0 {
		return objstore.NewInternalInconsistency(fmt.Sprintf("increment_ref: no blob row for hash %s", hash))
	}
	return nil
}

// DecrementRef decrements the ref count for hash, saturating at zero, and
// returns the resulting count (§4.2, §4.4).
func (c *BlobCatalog) DecrementRef(ctx context.Context, hash string) (int64, error) {
	const query = `
		UPDATE blobs
		SET ref_count = GREATEST(ref_count - 1, 0)
		WHERE content_hash = $1
		RETURNING ref_count
	`
	var refCount int64
	err := c.pool.QueryRow(ctx, query, hash).Scan(&refCount)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, objstore.NewInternalInconsistency(fmt.Sprintf("decrement_ref: no blob row for hash %s", hash))
		}
		return 0, objstore.NewCatalogError("blob.decrement_ref", err)
	}
	return refCount, nil
}

// FindOrphaned returns up to limit blobs with ref_count=0.
func (c *BlobCatalog) FindOrphaned(ctx context.Context, limit int) ([]objstore.Blob, error) {
	const query = `
		SELECT content_hash, storage_class, size_bytes, ref_count, created_at
		FROM blobs
		WHERE ref_count = 0
		ORDER BY created_at
		LIMIT $1
	`
	rows, err := c.pool.Query(ctx, query, limit)
	if err != nil {
		return nil, objstore.NewCatalogError("blob.find_orphaned", err)
	}
	defer rows.Close()

	var out []objstore.Blob
	for rows.Next() {
		var b objstore.Blob
		var storageClass string
		if err := rows.Scan(&b.ContentHash, &storageClass, &b.SizeBytes, &b.RefCount, &b.CreatedAt); err != nil {
			return nil, objstore.NewCatalogError("blob.find_orphaned", err)
		}
		b.StorageClass = objstore.StorageClass(storageClass)
		out = append(out, b)
	}
	if err := rows.Err(); err != nil {
		return nil, objstore.NewCatalogError("blob.find_orphaned", err)
	}
	return out, nil
}

// Exists reports whether a row for hash is present, regardless of ref count.
func (c *BlobCatalog) Exists(ctx context.Context, hash string) (bool, error) {
	const query = `SELECT EXISTS(SELECT 1 FROM blobs WHERE content_hash = $1)`
	var ok bool
	if err := c.pool.QueryRow(ctx, query, hash).Scan(&ok); err != nil {
		return false, objstore.NewCatalogError("blob.exists", err)
	}
	return ok, nil
}

// Delete hard-removes the blob row. Missing row is success (§7).
func (c *BlobCatalog) Delete(ctx context.Context, hash string) error {
	const query = `DELETE FROM blobs WHERE content_hash = $1`
	if _, err := c.pool.Exec(ctx, query, hash); err != nil {
		return objstore.NewCatalogError("blob.delete", err)
	}
	return nil
}
