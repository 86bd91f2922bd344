package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func TestNew_CountersStartAtZero(t *testing.T) {
	m := New()
	require.Equal(t, float64(0), testutil.ToFloat64(m.BytesWritten))
	require.Equal(t, float64(0), testutil.ToFloat64(m.DedupHits))
	require.Equal(t, float64(0), testutil.ToFloat64(m.GCCyclesTotal))
}

func TestMetrics_CounterVecIncrements(t *testing.T) {
	m := New()
	m.UploadsTotal.WithLabelValues("docs", "hot", "committed").Inc()
	require.Equal(t, float64(1), testutil.ToFloat64(m.UploadsTotal.WithLabelValues("docs", "hot", "committed")))
}

func TestHandler_NotNil(t *testing.T) {
	m := New()
	require.NotNil(t, m.Handler())
}

func TestNew_MultipleInstancesDoNotCollide(t *testing.T) {
	require.NotPanics(t, func() {
		New()
		New()
	})
}
