package boundary

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/pepperjack/objectstore/internal/objstore"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// writeDomainError maps the §7 error taxonomy to the status codes named in
// §6's route table. Storage/catalog/internal errors are never described to
// the caller beyond a generic message — their Error() strings are already
// sanitized. This function does not log the error.
func writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, objstore.ErrNotFound):
		writeError(w, http.StatusNotFound, "not found")
	case errors.Is(err, objstore.ErrInvalidRequest):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, objstore.ErrInvalidTransition):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, objstore.ErrConflict):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, objstore.ErrHashMismatch):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

// objectDTO is the wire representation of objstore.Object returned by
// upload, list, and search.
type objectDTO struct {
	ID           string            `json:"id"`
	Namespace    string            `json:"namespace"`
	TenantID     string            `json:"tenant_id"`
	Key          string            `json:"key,omitempty"`
	Status       string            `json:"status"`
	StorageClass string            `json:"storage_class"`
	ContentHash  string            `json:"content_hash,omitempty"`
	SizeBytes    int64             `json:"size_bytes"`
	ContentType  string            `json:"content_type,omitempty"`
	Metadata     objstore.Metadata `json:"metadata,omitempty"`
	CreatedAt    string            `json:"created_at"`
	UpdatedAt    string            `json:"updated_at"`
}

func toDTO(o objstore.Object) objectDTO {
	return objectDTO{
		ID:           o.ID,
		Namespace:    o.Namespace,
		TenantID:     o.TenantID,
		Key:          o.Key,
		Status:       string(o.Status),
		StorageClass: string(o.StorageClass),
		ContentHash:  o.ContentHash,
		SizeBytes:    o.SizeBytes,
		ContentType:  o.ContentType,
		Metadata:     o.Metadata,
		CreatedAt:    o.CreatedAt.Format(timeLayout),
		UpdatedAt:    o.UpdatedAt.Format(timeLayout),
	}
}

const timeLayout = "2006-01-02T15:04:05.000Z07:00"
