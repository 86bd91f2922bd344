package boundary

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/pepperjack/objectstore/internal/catalog"
	"github.com/pepperjack/objectstore/internal/objstore"
)

// searchRequestBody is the wire shape accepted by POST /v1/objects/search.
type searchRequestBody struct {
	Namespace      string            `json:"namespace"`
	TenantID       string            `json:"tenant_id"`
	KeySubstring   string            `json:"key_substring"`
	ContentType    string            `json:"content_type"`
	StorageClass   string            `json:"storage_class"`
	MinSizeBytes   *int64            `json:"min_size_bytes"`
	MaxSizeBytes   *int64            `json:"max_size_bytes"`
	CreatedAfter   *time.Time        `json:"created_after"`
	CreatedBefore  *time.Time        `json:"created_before"`
	UpdatedAfter   *time.Time        `json:"updated_after"`
	UpdatedBefore  *time.Time        `json:"updated_before"`
	MetadataEquals map[string]string `json:"metadata_equals"`
	SortBy         string            `json:"sort_by"`
	SortDirection  string            `json:"sort_direction"`
	Limit          int               `json:"limit"`
	Offset         int               `json:"offset"`
}

// search handles POST /v1/objects/search (§6, §4.10).
func (h *handlers) search(w http.ResponseWriter, r *http.Request) {
	var body searchRequestBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if body.Namespace == "" || body.TenantID == "" {
		writeError(w, http.StatusBadRequest, "namespace and tenant_id are required")
		return
	}

	limit, offset := catalog.ClampLimit(body.Limit, body.Offset)

	req := catalog.SearchRequest{
		Namespace:      body.Namespace,
		TenantID:       body.TenantID,
		KeySubstring:   body.KeySubstring,
		ContentType:    body.ContentType,
		StorageClass:   objstore.StorageClass(body.StorageClass),
		MinSizeBytes:   body.MinSizeBytes,
		MaxSizeBytes:   body.MaxSizeBytes,
		CreatedAfter:   body.CreatedAfter,
		CreatedBefore:  body.CreatedBefore,
		UpdatedAfter:   body.UpdatedAfter,
		UpdatedBefore:  body.UpdatedBefore,
		MetadataEquals: body.MetadataEquals,
		SortBy:         catalog.SortField(body.SortBy),
		SortDirection:  catalog.SortDirection(body.SortDirection),
		Limit:          limit,
		Offset:         offset,
	}

	objs, err := h.deps.Objects.Search(r.Context(), req)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	dtos := make([]objectDTO, len(objs))
	for i, o := range objs {
		dtos[i] = toDTO(o)
	}
	writeJSON(w, http.StatusOK, map[string]any{"objects": dtos, "limit": limit, "offset": offset})
}

// textSearchRequestBody is the wire shape accepted by
// POST /v1/objects/search/text.
type textSearchRequestBody struct {
	Namespace     string `json:"namespace"`
	TenantID      string `json:"tenant_id"`
	Query         string `json:"query"`
	MatchKey      bool   `json:"match_key"`
	MatchMetadata bool   `json:"match_metadata"`
	Limit         int    `json:"limit"`
	Offset        int    `json:"offset"`
}

// textSearch handles POST /v1/objects/search/text (§6, §4.10).
func (h *handlers) textSearch(w http.ResponseWriter, r *http.Request) {
	var body textSearchRequestBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if body.Namespace == "" || body.TenantID == "" || body.Query == "" {
		writeError(w, http.StatusBadRequest, "namespace, tenant_id, and query are required")
		return
	}
	if !body.MatchKey && !body.MatchMetadata {
		body.MatchKey = true
		body.MatchMetadata = true
	}

	limit, offset := catalog.ClampLimit(body.Limit, body.Offset)

	req := catalog.TextSearchRequest{
		Namespace:     body.Namespace,
		TenantID:      body.TenantID,
		Query:         body.Query,
		MatchKey:      body.MatchKey,
		MatchMetadata: body.MatchMetadata,
		Limit:         limit,
		Offset:        offset,
	}

	objs, err := h.deps.Objects.TextSearch(r.Context(), req)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	dtos := make([]objectDTO, len(objs))
	for i, o := range objs {
		dtos[i] = toDTO(o)
	}
	writeJSON(w, http.StatusOK, map[string]any{"objects": dtos, "limit": limit, "offset": offset})
}
