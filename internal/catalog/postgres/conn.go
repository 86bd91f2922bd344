package postgres

import (
	"context"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Catalogs bundles the two production catalog implementations over a
// single shared pool, matching §5's "shared via a pooled connection handle"
// resource model.
type Catalogs struct {
	Pool    *pgxpool.Pool
	Blobs   *BlobCatalog
	Objects *ObjectCatalog
}

// Open creates the connection pool, verifies connectivity, and returns both
// catalog implementations wired to it. Callers should call Close on
// shutdown.
func Open(ctx context.Context, cfg *Config, logger *slog.Logger) (*Catalogs, error) {
	pool, err := newPool(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}
	return &Catalogs{
		Pool:    pool,
		Blobs:   NewBlobCatalog(pool),
		Objects: NewObjectCatalog(pool),
	}, nil
}

// Close releases the pool.
func (c *Catalogs) Close() {
	c.Pool.Close()
}

// Ping checks catalog connectivity — used by the boundary's readiness probe
// (see SPEC_FULL.md §C.2).
func (c *Catalogs) Ping(ctx context.Context) error {
	return c.Pool.Ping(ctx)
}
