package boundary

import (
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/pepperjack/objectstore/internal/catalog"
	"github.com/pepperjack/objectstore/internal/objstore"
	"github.com/pepperjack/objectstore/internal/upload"
)

// upload handles POST /v1/objects?namespace&tenant_id&key?&storage_class?
// (§6). The body is streamed straight into the upload coordinator — never
// buffered in full.
func (h *handlers) upload(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	class := objstore.StorageClass(q.Get("storage_class"))
	if class == "" {
		class = objstore.StorageHot
	}

	req := upload.Request{
		Namespace:    q.Get("namespace"),
		TenantID:     q.Get("tenant_id"),
		Key:          q.Get("key"),
		StorageClass: class,
		ContentType:  r.Header.Get("Content-Type"),
	}

	obj, err := h.deps.Upload.Execute(r.Context(), req, r.Body)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toDTO(obj))
}

// list handles GET /v1/objects?namespace&tenant_id&limit?&offset? (§6).
func (h *handlers) list(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	namespace := q.Get("namespace")
	tenant := q.Get("tenant_id")
	if namespace == "" || tenant == "" {
		writeError(w, http.StatusBadRequest, "namespace and tenant_id are required")
		return
	}

	limit, _ := strconv.Atoi(q.Get("limit"))
	offset, _ := strconv.Atoi(q.Get("offset"))
	limit, offset = catalog.ClampLimit(limit, offset)

	objs, err := h.deps.Objects.List(r.Context(), namespace, tenant, limit, offset)
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

// download handles GET /v1/objects/{id} (§6): streams the blob and sets
// Content-Length, Content-Type, and X-Content-Hash.
func (h *handlers) download(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	result, err := h.deps.Download.ExecuteByID(r.Context(), id)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	defer result.Reader.Close()

	w.Header().Set("Content-Length", strconv.FormatInt(result.Size, 10))
	w.Header().Set("Content-Type", "application/octet-stream")
	w.Header().Set("X-Content-Hash", result.ContentHash)
	w.WriteHeader(http.StatusOK)
	_, _ = io.Copy(w, result.Reader)
}

// delete handles DELETE /v1/objects/{id} (§6).
func (h *handlers) delete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if err := h.deps.Delete.Execute(r.Context(), id); err != nil {
		writeDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
