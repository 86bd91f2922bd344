// Package metrics defines the process-lifetime Prometheus collectors
// exposed at GET /metrics, grounded on buchgr-bazel-remote's promauto usage
// (cache/metricsdecorator) and replacing the teacher's hand-rolled
// atomic-counter JSON dump in handler/metrics.go.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds every counter/gauge the store exposes, registered against
// its own registry rather than the global default — this keeps multiple
// Metrics instances (e.g. across package tests) from colliding on duplicate
// collector registration while still exposing a process-wide handler at
// startup via Handler.
type Metrics struct {
	registry *prometheus.Registry

	UploadsTotal   *prometheus.CounterVec // labels: namespace, storage_class, outcome
	BytesWritten   prometheus.Counter
	DedupHits      prometheus.Counter
	DedupMisses    prometheus.Counter
	DeletesTotal   *prometheus.CounterVec // labels: outcome
	DownloadsTotal *prometheus.CounterVec // labels: outcome

	GCCyclesTotal        prometheus.Counter
	GCBlobsReclaimed     prometheus.Counter
	GCStuckUploadsReaped prometheus.Counter
}

// New creates a fresh registry and registers the full collector set against
// it. Construct once at startup and thread the single instance through the
// coordinators.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,

		UploadsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "objectstore_uploads_total",
			Help: "Upload attempts by namespace, storage class, and outcome.",
		}, []string{"namespace", "storage_class", "outcome"}),

		BytesWritten: factory.NewCounter(prometheus.CounterOpts{
			Name: "objectstore_bytes_written_total",
			Help: "Bytes committed to blob storage, counting only new (non-deduplicated) writes.",
		}),

		DedupHits: factory.NewCounter(prometheus.CounterOpts{
			Name: "objectstore_dedup_hits_total",
			Help: "Uploads whose content hash already existed as a blob.",
		}),

		DedupMisses: factory.NewCounter(prometheus.CounterOpts{
			Name: "objectstore_dedup_misses_total",
			Help: "Uploads that wrote a new blob.",
		}),

		DeletesTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "objectstore_deletes_total",
			Help: "Delete attempts by outcome.",
		}, []string{"outcome"}),

		DownloadsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "objectstore_downloads_total",
			Help: "Download attempts by outcome.",
		}, []string{"outcome"}),

		GCCyclesTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "objectstore_gc_cycles_total",
			Help: "Completed garbage collection cycles.",
		}),

		GCBlobsReclaimed: factory.NewCounter(prometheus.CounterOpts{
			Name: "objectstore_gc_blobs_reclaimed_total",
			Help: "Orphaned blobs reclaimed by garbage collection.",
		}),

		GCStuckUploadsReaped: factory.NewCounter(prometheus.CounterOpts{
			Name: "objectstore_gc_stuck_uploads_reaped_total",
			Help: "WRITING objects reaped for exceeding the stuck-upload age threshold.",
		}),
	}
}

// Handler returns the HTTP handler for this instance's registry, mounted at
// GET /metrics by cmd/objstore-server.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
