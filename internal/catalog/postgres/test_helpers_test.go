package postgres

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/google/uuid"

	"github.com/pepperjack/objectstore/internal/objstore"
)

func newDiscardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// setupCatalogs opens a fresh pool against the shared container for a single
// test. Each test gets its own pool (cheap — the container stays up) so pool
// exhaustion in one test can't starve another.
func setupCatalogs(t *testing.T) *Catalogs {
	t.Helper()
	if sharedTestContainer == nil {
		t.Fatal("shared test container not initialized — TestMain() not run?")
	}

	cfg := &Config{DSN: sharedTestContainer.connStr}
	cfg.ApplyDefaults()

	catalogs, err := Open(context.Background(), cfg, newDiscardLogger())
	if err != nil {
		t.Fatalf("failed to open catalogs: %v", err)
	}
	t.Cleanup(catalogs.Close)
	return catalogs
}

// uniqueHash generates a syntactically SHA-256-shaped (64 lowercase hex
// chars) content hash unlikely to collide with rows left by other tests
// sharing the container.
func uniqueHash(t *testing.T) string {
	t.Helper()
	a := strings.ReplaceAll(uuid.New().String(), "-", "")
	b := strings.ReplaceAll(uuid.New().String(), "-", "")
	return (a + b)[:64]
}

func uniqueNamespace(t *testing.T) string {
	t.Helper()
	return "ns-" + uuid.New().String()[:8]
}

// newWritingObject builds a reserved-but-uncommitted object ready for Save.
func newWritingObject(namespace string) *objstore.Object {
	return &objstore.Object{
		ID:           uuid.New().String(),
		Namespace:    namespace,
		TenantID:     "tenant-a",
		Status:       objstore.StatusWriting,
		StorageClass: objstore.StorageHot,
	}
}
