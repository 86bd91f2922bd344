// Package catalog defines the narrow capability contracts for C4 (blob
// catalog) and C5 (object catalog) — see spec §4.4 and §4.5 — plus the
// search/list request shapes consumed by C10. Production implementations
// live in catalog/postgres; in-memory fakes live in catalog/memory.
package catalog

import (
	"context"
	"time"

	"github.com/pepperjack/objectstore/internal/objstore"
)

// BlobCatalog is C4: the reference-counted record of physical blobs.
type BlobCatalog interface {
	// GetOrCreate atomically upserts a blob row for hash: increments
	// RefCount if a row exists, otherwise inserts one with RefCount=1.
	// Must be race-free against concurrent calls for the same hash (§5).
	GetOrCreate(ctx context.Context, hash string, class objstore.StorageClass, size int64) (objstore.Blob, error)

	// IncrementRef increments the ref count for hash.
	IncrementRef(ctx context.Context, hash string) error

	// DecrementRef decrements the ref count for hash, saturating at zero,
	// and returns the resulting count.
	DecrementRef(ctx context.Context, hash string) (int64, error)

	// FindOrphaned returns up to limit blobs with RefCount=0.
	FindOrphaned(ctx context.Context, limit int) ([]objstore.Blob, error)

	// Exists reports whether a row for hash is present, regardless of ref
	// count. Used by the optional filesystem-orphan reconciliation of §4.9
	// step 3 to distinguish "ref_count=0" from "no row at all".
	Exists(ctx context.Context, hash string) (bool, error)

	// Delete hard-removes the blob row. Caller guarantees the physical
	// file is already gone. Missing row is not an error (§7 idempotency).
	Delete(ctx context.Context, hash string) error
}

// ObjectCatalog is C5: the durable record of logical objects.
type ObjectCatalog interface {
	// Save inserts or updates obj by ID, enforcing the lifecycle
	// transition whitelist (§3.1). Returns objstore.ErrInvalidTransition
	// if the move is not permitted, objstore.ErrConflict on a
	// (namespace, tenant, key) collision among COMMITTED rows.
	Save(ctx context.Context, obj *objstore.Object) error

	// FindByID returns the COMMITTED object with id, or ErrNotFound.
	FindByID(ctx context.Context, id string) (objstore.Object, error)

	// FindByKey returns the COMMITTED object with (namespace, tenant, key),
	// or ErrNotFound.
	FindByKey(ctx context.Context, namespace, tenant, key string) (objstore.Object, error)

	// List returns a page of COMMITTED objects for (namespace, tenant),
	// ordered by created_at desc then id, per §4.5.
	List(ctx context.Context, namespace, tenant string, limit, offset int) ([]objstore.Object, error)

	// Search returns COMMITTED objects matching req.
	Search(ctx context.Context, req SearchRequest) ([]objstore.Object, error)

	// TextSearch returns COMMITTED objects whose key and/or metadata
	// document match req.Query.
	TextSearch(ctx context.Context, req TextSearchRequest) ([]objstore.Object, error)

	// Delete hard-removes the row. Neither the delete coordinator nor GC
	// calls it: deleted and reaped objects stay as DELETED rows.
	Delete(ctx context.Context, id string) error

	// CleanupStuckUploads transitions WRITING rows older than ageHours to
	// DELETED (or removes them outright) and returns the count affected.
	CleanupStuckUploads(ctx context.Context, ageHours float64) (int, error)
}

// SortField is a column Search results may be ordered by.
type SortField string

const (
	SortCreatedAt SortField = "created_at"
	SortUpdatedAt SortField = "updated_at"
	SortSizeBytes SortField = "size_bytes"
	SortKey       SortField = "key"
)

// SortDirection is the direction of a Search sort.
type SortDirection string

const (
	SortAsc  SortDirection = "asc"
	SortDesc SortDirection = "desc"
)

// SearchRequest carries the optional, logically-ANDed filters of §4.10.
type SearchRequest struct {
	Namespace      string
	TenantID       string
	KeySubstring   string
	ContentType    string
	StorageClass   objstore.StorageClass // empty means any
	MinSizeBytes   *int64
	MaxSizeBytes   *int64
	CreatedAfter   *time.Time
	CreatedBefore  *time.Time
	UpdatedAfter   *time.Time
	UpdatedBefore  *time.Time
	MetadataEquals map[string]string // tag-key -> value equality filters

	SortBy        SortField
	SortDirection SortDirection

	Limit  int
	Offset int
}

// TextSearchRequest carries the query and match-target flags of §4.10.
type TextSearchRequest struct {
	Namespace     string
	TenantID      string
	Query         string
	MatchKey      bool // match against Object.Key
	MatchMetadata bool // match against the serialized metadata document

	Limit  int
	Offset int
}

// ClampLimit applies the §4.10 pagination rule: limit clamped to [1,1000]
// with default 100; offset >= 0.
func ClampLimit(limit, offset int) (int, int) {
	if limit <= 0 {
		limit = 100
	}
	if limit > 1000 {
		limit = 1000
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}
