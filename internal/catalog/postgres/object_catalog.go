package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/pepperjack/objectstore/internal/catalog"
	"github.com/pepperjack/objectstore/internal/objstore"
)

// ObjectCatalog is the production catalog.ObjectCatalog implementation.
type ObjectCatalog struct {
	pool *pgxpool.Pool
}

// NewObjectCatalog wraps an existing pool.
func NewObjectCatalog(pool *pgxpool.Pool) *ObjectCatalog {
	return &ObjectCatalog{pool: pool}
}

// Save enforces the §3.1 lifecycle whitelist with a single conditional
// statement: WRITING reservations are a plain INSERT (no prior row can
// exist yet); every other transition is an UPDATE guarded by
// `status IN (allowed priors)`, so a concurrent writer attempting an
// invalid move affects zero rows instead of racing a read-then-write.
func (c *ObjectCatalog) Save(ctx context.Context, obj *objstore.Object) error {
	metaJSON, err := json.Marshal(obj.Metadata)
	if err != nil {
		return fmt.Errorf("%w: marshal metadata: %v", objstore.ErrInvalidRequest, err)
	}

	if obj.Status == objstore.StatusWriting {
		return c.insertReservation(ctx, obj, metaJSON)
	}
	return c.transition(ctx, obj, metaJSON)
}

func (c *ObjectCatalog) insertReservation(ctx context.Context, obj *objstore.Object, metaJSON []byte) error {
	const query = `
		INSERT INTO objects (id, namespace, tenant_id, key, status, storage_class, metadata, created_at, updated_at)
		VALUES ($1, $2, $3, NULLIF($4, ''), $5, $6, $7, now(), now())
		RETURNING created_at, updated_at
	`
	err := c.pool.QueryRow(ctx, query,
		obj.ID, obj.Namespace, obj.TenantID, obj.Key, string(obj.Status), string(obj.StorageClass), metaJSON,
	).Scan(&obj.CreatedAt, &obj.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			// id collision: a fresh UUID should never repeat, but treat it
			// as an invalid transition rather than leaking the constraint.
			return fmt.Errorf("%w: id already reserved", objstore.ErrInvalidTransition)
		}
		return objstore.NewCatalogError("object.save(reserve)", err)
	}
	return nil
}

func (c *ObjectCatalog) transition(ctx context.Context, obj *objstore.Object, metaJSON []byte) error {
	priors := objstore.AllowedPriors(obj.Status)
	if len(priors) == 0 {
		return fmt.Errorf("%w: no valid prior state for %s", objstore.ErrInvalidTransition, obj.Status)
	}
	priorStrs := make([]string, len(priors))
	for i, p := range priors {
		priorStrs[i] = string(p)
	}

	const query = `
		UPDATE objects SET
			status = $1,
			content_hash = NULLIF($2, ''),
			size_bytes = $3,
			content_type = NULLIF($4, ''),
			metadata = $5,
			updated_at = now()
		WHERE id = $6 AND status = ANY($7)
		RETURNING updated_at
	`
	var sizeBytes *int64
	if obj.ContentHash != "" {
		sizeBytes = &obj.SizeBytes
	}

	err := c.pool.QueryRow(ctx, query,
		string(obj.Status), obj.ContentHash, sizeBytes, obj.ContentType, metaJSON, obj.ID, priorStrs,
	).Scan(&obj.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			// Either the row doesn't exist, or it exists but not in an
			// eligible prior state — both are invalid-transition from the
			// caller's perspective (§7), unless a concurrent committed
			// object already claimed the same key.
			if hasKeyConflict(ctx, c.pool, obj) {
				return fmt.Errorf("%w", objstore.ErrConflict)
			}
			return fmt.Errorf("%w", objstore.ErrInvalidTransition)
		}
		if isUniqueViolation(err) {
			return fmt.Errorf("%w", objstore.ErrConflict)
		}
		return objstore.NewCatalogError("object.save(transition)", err)
	}
	return nil
}

// hasKeyConflict re-checks, best-effort, whether a zero-rows transition
// UPDATE was caused by a (namespace, tenant, key) collision rather than a
// genuinely invalid transition. Returns false when it cannot determine
// this (caller falls back to ErrInvalidTransition).
func hasKeyConflict(ctx context.Context, pool *pgxpool.Pool, obj *objstore.Object) bool {
	if obj.Status != objstore.StatusCommitted || obj.Key == "" {
		return false
	}
	const query = `
		SELECT 1 FROM objects
		WHERE namespace = $1 AND tenant_id = $2 AND key = $3 AND status = 'COMMITTED' AND id <> $4
	`
	var dummy int
	err := pool.QueryRow(ctx, query, obj.Namespace, obj.TenantID, obj.Key, obj.ID).Scan(&dummy)
	return err == nil
}

func isUniqueViolation(err error) bool {
	type sqlStater interface{ SQLState() string }
	var s sqlStater
	if errors.As(err, &s) {
		return s.SQLState() == "23505"
	}
	return false
}

// FindByID returns the COMMITTED object with id.
func (c *ObjectCatalog) FindByID(ctx context.Context, id string) (objstore.Object, error) {
	const query = `
		SELECT id, namespace, tenant_id, COALESCE(key, ''), status, storage_class,
		       COALESCE(content_hash, ''), COALESCE(size_bytes, 0), COALESCE(content_type, ''),
		       metadata, created_at, updated_at
		FROM objects
		WHERE id = $1 AND status = 'COMMITTED'
	`
	return c.scanOne(c.pool.QueryRow(ctx, query, id))
}

// FindByKey returns the COMMITTED object with (namespace, tenant, key).
func (c *ObjectCatalog) FindByKey(ctx context.Context, namespace, tenant, key string) (objstore.Object, error) {
	const query = `
		SELECT id, namespace, tenant_id, COALESCE(key, ''), status, storage_class,
		       COALESCE(content_hash, ''), COALESCE(size_bytes, 0), COALESCE(content_type, ''),
		       metadata, created_at, updated_at
		FROM objects
		WHERE namespace = $1 AND tenant_id = $2 AND key = $3 AND status = 'COMMITTED'
	`
	return c.scanOne(c.pool.QueryRow(ctx, query, namespace, tenant, key))
}

func (c *ObjectCatalog) scanOne(row pgx.Row) (objstore.Object, error) {
	var o objstore.Object
	var status, class string
	var metaJSON []byte
	err := row.Scan(&o.ID, &o.Namespace, &o.TenantID, &o.Key, &status, &class,
		&o.ContentHash, &o.SizeBytes, &o.ContentType, &metaJSON, &o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return objstore.Object{}, objstore.ErrNotFound
		}
		return objstore.Object{}, objstore.NewCatalogError("object.find", err)
	}
	o.Status = objstore.Status(status)
	o.StorageClass = objstore.StorageClass(class)
	if len(metaJSON) > 0 {
		if err := json.Unmarshal(metaJSON, &o.Metadata); err != nil {
			return objstore.Object{}, objstore.NewCatalogError("object.find: unmarshal metadata", err)
		}
	}
	return o, nil
}

// List returns a page of COMMITTED objects, ordered by created_at desc then
// id (§4.5).
func (c *ObjectCatalog) List(ctx context.Context, namespace, tenant string, limit, offset int) ([]objstore.Object, error) {
	limit, offset = catalog.ClampLimit(limit, offset)
	const query = `
		SELECT id, namespace, tenant_id, COALESCE(key, ''), status, storage_class,
		       COALESCE(content_hash, ''), COALESCE(size_bytes, 0), COALESCE(content_type, ''),
		       metadata, created_at, updated_at
		FROM objects
		WHERE namespace = $1 AND tenant_id = $2 AND status = 'COMMITTED'
		ORDER BY created_at DESC, id DESC
		LIMIT $3 OFFSET $4
	`
	rows, err := c.pool.Query(ctx, query, namespace, tenant, limit, offset)
	if err != nil {
		return nil, objstore.NewCatalogError("object.list", err)
	}
	return c.scanMany(rows)
}

func (c *ObjectCatalog) scanMany(rows pgx.Rows) ([]objstore.Object, error) {
	defer rows.Close()
	var out []objstore.Object
	for rows.Next() {
		var o objstore.Object
		var status, class string
		var metaJSON []byte
		if err := rows.Scan(&o.ID, &o.Namespace, &o.TenantID, &o.Key, &status, &class,
			&o.ContentHash, &o.SizeBytes, &o.ContentType, &metaJSON, &o.CreatedAt, &o.UpdatedAt); err != nil {
			return nil, objstore.NewCatalogError("object.scan", err)
		}
		o.Status = objstore.Status(status)
		o.StorageClass = objstore.StorageClass(class)
		if len(metaJSON) > 0 {
			if err := json.Unmarshal(metaJSON, &o.Metadata); err != nil {
				return nil, objstore.NewCatalogError("object.scan: unmarshal metadata", err)
			}
		}
		out = append(out, o)
	}
	if err := rows.Err(); err != nil {
		return nil, objstore.NewCatalogError("object.scan", err)
	}
	return out, nil
}

// Delete hard-removes the row. Missing row is success. Neither the delete
// coordinator nor GC calls it; they leave DELETED rows in place.
func (c *ObjectCatalog) Delete(ctx context.Context, id string) error {
	const query = `DELETE FROM objects WHERE id = $1`
	if _, err := c.pool.Exec(ctx, query, id); err != nil {
		return objstore.NewCatalogError("object.delete", err)
	}
	return nil
}

// CleanupStuckUploads transitions WRITING rows older than ageHours directly
// to DELETED (§4.5, §4.9 step 1).
func (c *ObjectCatalog) CleanupStuckUploads(ctx context.Context, ageHours float64) (int, error) {
	const query = `
		UPDATE objects
		SET status = 'DELETED', updated_at = now()
		WHERE status = 'WRITING' AND created_at < now() - ($1 || ' hours')::interval
	`
	tag, err := c.pool.Exec(ctx, query, ageHours)
	if err != nil {
		return 0, objstore.NewCatalogError("object.cleanup_stuck_uploads", err)
	}
	return int(tag.RowsAffected()), nil
}
