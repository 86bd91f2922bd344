// Package boundary implements C11: the thin HTTP contract surface of §4.11
// and §6's route table. It is deliberately minimal — authentication, audit
// logging, rate limiting, CORS, and deep input sanitization are named
// out-of-core collaborators in §1 and §4.11, not reimplemented here.
// Resolving a caller to an (api_key_id, tenant_id) pair is the job of auth
// middleware in front of this package; nothing here performs or checks that
// resolution, and tenant_id is taken from the request (query parameter or
// JSON body) as given.
//
// Routing follows marmos91-dittofs's pkg/api/router.go: chi with its
// request-id/real-ip/recoverer middleware stack plus a request logger in
// the teacher's slog idiom.
package boundary

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/pepperjack/objectstore/internal/blobstore"
	"github.com/pepperjack/objectstore/internal/catalog"
	"github.com/pepperjack/objectstore/internal/delete"
	"github.com/pepperjack/objectstore/internal/download"
	"github.com/pepperjack/objectstore/internal/upload"
)

// Deps are the coordinators and catalogs the boundary dispatches to.
type Deps struct {
	Upload   *upload.Coordinator
	Download *download.Coordinator
	Delete   *delete.Coordinator
	Objects  catalog.ObjectCatalog
	Pinger   Pinger // checked by /health/ready
	Store    blobstore.Store // optionally a blobstore.DiskUsageReporter, surfaced by /health/ready
	Logger   *slog.Logger
}

// Pinger is implemented by catalog/postgres.Catalogs for the readiness probe.
type Pinger interface {
	Ping(ctx context.Context) error
}

// NewRouter builds the route table of §6.
func NewRouter(deps Deps) http.Handler {
	h := &handlers{deps: deps}

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(requestLogger(deps.Logger))
	r.Use(chimw.Recoverer)
	r.Use(chimw.Timeout(60 * time.Second))

	r.Route("/health", func(r chi.Router) {
		r.Get("/", h.liveness)
		r.Get("/ready", h.readiness)
	})

	r.Route("/v1/objects", func(r chi.Router) {
		r.Post("/", h.upload)
		r.Get("/", h.list)
		r.Post("/search", h.search)
		r.Post("/search/text", h.textSearch)
		r.Get("/{id}", h.download)
		r.Delete("/{id}", h.delete)
	})

	return r
}

func requestLogger(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)
			logger.Info("request",
				"request_id", chimw.GetReqID(r.Context()),
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"bytes", ww.BytesWritten(),
				"duration", time.Since(start).String(),
			)
		})
	}
}

type handlers struct {
	deps Deps
}
