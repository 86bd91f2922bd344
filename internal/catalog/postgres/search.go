package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/pepperjack/objectstore/internal/catalog"
	"github.com/pepperjack/objectstore/internal/objstore"
)

// Search implements catalog.ObjectCatalog.Search: every filter is optional
// and logically ANDed (§4.10).
func (c *ObjectCatalog) Search(ctx context.Context, req catalog.SearchRequest) ([]objstore.Object, error) {
	limit, offset := catalog.ClampLimit(req.Limit, req.Offset)

	var b strings.Builder
	args := []any{req.Namespace, req.TenantID}
	b.WriteString(`
		SELECT id, namespace, tenant_id, COALESCE(key, ''), status, storage_class,
		       COALESCE(content_hash, ''), COALESCE(size_bytes, 0), COALESCE(content_type, ''),
		       metadata, created_at, updated_at
		FROM objects
		WHERE namespace = $1 AND tenant_id = $2 AND status = 'COMMITTED'
	`)

	if req.KeySubstring != "" {
		args = append(args, "%"+req.KeySubstring+"%")
		fmt.Fprintf(&b, " AND key ILIKE $%d", len(args))
	}
	if req.ContentType != "" {
		args = append(args, req.ContentType)
		fmt.Fprintf(&b, " AND content_type = $%d", len(args))
	}
	if req.StorageClass != "" {
		args = append(args, string(req.StorageClass))
		fmt.Fprintf(&b, " AND storage_class = $%d", len(args))
	}
	if req.MinSizeBytes != nil {
		args = append(args, *req.MinSizeBytes)
		fmt.Fprintf(&b, " AND size_bytes >= $%d", len(args))
	}
	if req.MaxSizeBytes != nil {
		args = append(args, *req.MaxSizeBytes)
		fmt.Fprintf(&b, " AND size_bytes <= $%d", len(args))
	}
	if req.CreatedAfter != nil {
		args = append(args, *req.CreatedAfter)
		fmt.Fprintf(&b, " AND created_at >= $%d", len(args))
	}
	if req.CreatedBefore != nil {
		args = append(args, *req.CreatedBefore)
		fmt.Fprintf(&b, " AND created_at <= $%d", len(args))
	}
	if req.UpdatedAfter != nil {
		args = append(args, *req.UpdatedAfter)
		fmt.Fprintf(&b, " AND updated_at >= $%d", len(args))
	}
	if req.UpdatedBefore != nil {
		args = append(args, *req.UpdatedBefore)
		fmt.Fprintf(&b, " AND updated_at <= $%d", len(args))
	}
	for key, value := range req.MetadataEquals {
		args = append(args, key, value)
		fmt.Fprintf(&b, " AND metadata->'tags'->>$%d = $%d", len(args)-1, len(args))
	}

	sortCol := sortColumn(req.SortBy)
	dir := "DESC"
	if req.SortDirection == catalog.SortAsc {
		dir = "ASC"
	}
	fmt.Fprintf(&b, " ORDER BY %s %s, id %s", sortCol, dir, dir)

	args = append(args, limit, offset)
	fmt.Fprintf(&b, " LIMIT $%d OFFSET $%d", len(args)-1, len(args))

	rows, err := c.pool.Query(ctx, b.String(), args...)
	if err != nil {
		return nil, objstore.NewCatalogError("object.search", err)
	}
	return c.scanMany(rows)
}

func sortColumn(field catalog.SortField) string {
	switch field {
	case catalog.SortUpdatedAt:
		return "updated_at"
	case catalog.SortSizeBytes:
		return "size_bytes"
	case catalog.SortKey:
		return "key"
	default:
		return "created_at"
	}
}

// TextSearch implements catalog.ObjectCatalog.TextSearch: a substring match
// against key and/or the serialized metadata document, configurable by two
// boolean flags (§4.10). An empty query is a client error.
func (c *ObjectCatalog) TextSearch(ctx context.Context, req catalog.TextSearchRequest) ([]objstore.Object, error) {
	if strings.TrimSpace(req.Query) == "" {
		return nil, fmt.Errorf("%w: text search query must not be empty", objstore.ErrInvalidRequest)
	}
	if !req.MatchKey && !req.MatchMetadata {
		return nil, fmt.Errorf("%w: at least one of match_key/match_metadata must be set", objstore.ErrInvalidRequest)
	}
	limit, offset := catalog.ClampLimit(req.Limit, req.Offset)

	var clauses []string
	args := []any{req.Namespace, req.TenantID, "%" + req.Query + "%"}
	if req.MatchKey {
		clauses = append(clauses, "key ILIKE $3")
	}
	if req.MatchMetadata {
		clauses = append(clauses, "metadata::text ILIKE $3")
	}

	query := fmt.Sprintf(`
		SELECT id, namespace, tenant_id, COALESCE(key, ''), status, storage_class,
		       COALESCE(content_hash, ''), COALESCE(size_bytes, 0), COALESCE(content_type, ''),
		       metadata, created_at, updated_at
		FROM objects
		WHERE namespace = $1 AND tenant_id = $2 AND status = 'COMMITTED' AND (%s)
		ORDER BY created_at DESC, id DESC
		LIMIT $4 OFFSET $5
	`, strings.Join(clauses, " OR "))

	args = append(args, limit, offset)
	rows, err := c.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, objstore.NewCatalogError("object.text_search", err)
	}
	return c.scanMany(rows)
}
