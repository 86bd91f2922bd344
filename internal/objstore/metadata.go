package objstore

import "time"

// Metadata is the structured document attached to every object (§3.3). The
// catalog stores it verbatim (as JSON) and exposes it to search; the core
// never interprets Kind-specific subfields beyond the common ones below.
type Metadata struct {
	// Kind discriminates the document shape: "model", "kb_doc", "upload",
	// "log", or a caller-supplied custom tag. Opaque to the core.
	Kind string `json:"kind,omitempty"`

	// ContentType duplicates Object.ContentType for documents that prefer to
	// carry it inside the metadata body (e.g. imported from another system).
	ContentType string `json:"content_type,omitempty"`

	// Summary is a short, human-readable description.
	Summary string `json:"summary,omitempty"`

	// LastAccessedAt is an optional application-maintained access timestamp;
	// the core never writes to it on download (read-path is side-effect
	// free per §4.8).
	LastAccessedAt *time.Time `json:"last_accessed_at,omitempty"`

	// Origin records provenance, e.g. "import:s3://bucket/key" or
	// "upload:cli".
	Origin string `json:"origin,omitempty"`

	// Tags is the extensible tag map for kind-specific and caller-defined
	// fields. Stored and searched verbatim; the core does not validate keys.
	Tags map[string]string `json:"tags,omitempty"`
}

// IsEmpty reports whether the document carries no fields at all.
func (m Metadata) IsEmpty() bool {
	return m.Kind == "" && m.ContentType == "" && m.Summary == "" &&
		m.LastAccessedAt == nil && m.Origin == "" && len(m.Tags) == 0
}
