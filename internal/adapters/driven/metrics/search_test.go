package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lynxlsy/GANGBOYZ-DEMO-sub002/internal/core/ports/driven"
)

func newTestMetrics(t *testing.T) (*SearchMetrics, *prometheus.Registry) {
	t.Helper()
	registry := prometheus.NewRegistry()
	m, err := NewSearchMetrics(registry)
	require.NoError(t, err)
	return m, registry
}

func TestNewSearchMetrics_DuplicateRegistration(t *testing.T) {
	_, registry := newTestMetrics(t)

	_, err := NewSearchMetrics(registry)

	assert.Error(t, err)
}

func TestObserveQuery(t *testing.T) {
	m, _ := newTestMetrics(t)

	m.ObserveQuery(false, 3)
	m.ObserveQuery(true, 3)
	m.ObserveQuery(true, 0)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.Queries.WithLabelValues("miss")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.Queries.WithLabelValues("hit")))
}

func TestObserveRebuild(t *testing.T) {
	m, _ := newTestMetrics(t)

	m.ObserveRebuild(driven.RebuildCompleted, 11, 20*time.Millisecond)
	m.ObserveRebuild(driven.RebuildThrottled, 11, 0)
	m.ObserveRebuild(driven.RebuildFailed, 11, 0)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.Rebuilds.WithLabelValues("rebuilt")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Rebuilds.WithLabelValues("throttled")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Rebuilds.WithLabelValues("failed")))
	assert.Equal(t, 11.0, testutil.ToFloat64(m.Records))

	// Only completed rebuilds are timed.
	var pb dto.Metric
	require.NoError(t, m.RebuildSeconds.Write(&pb))
	assert.Equal(t, uint64(1), pb.GetHistogram().GetSampleCount())
}

func TestHandler(t *testing.T) {
	m, registry := newTestMetrics(t)
	m.ObserveQuery(false, 1)

	srv := httptest.NewServer(Handler(registry))
	defer srv.Close()

	resp, err := http.Get(srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), `gangboyz_search_queries_total{cache="miss"} 1`)
}
