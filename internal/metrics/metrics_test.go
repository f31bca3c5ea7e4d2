package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHTTPMetricsObserve(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewHTTPMetrics(reg)

	m.Observe("/api/brands", "GET", 200, 15*time.Millisecond)
	m.Observe("/api/brands", "GET", 200, 5*time.Millisecond)
	m.Observe("", "POST", 403, time.Millisecond)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.requests.WithLabelValues("/api/brands", "GET", "200")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.requests.WithLabelValues("unknown", "POST", "403")))

	families, err := reg.Gather()
	require.NoError(t, err)
	var histogram *dto.Histogram
	for _, family := range families {
		if family.GetName() == "http_request_duration_seconds" {
			for _, metric := range family.GetMetric() {
				if labelValue(metric, "route") == "/api/brands" {
					histogram = metric.GetHistogram()
				}
			}
		}
	}
	require.NotNil(t, histogram)
	assert.Equal(t, uint64(2), histogram.GetSampleCount())
}

func labelValue(metric *dto.Metric, name string) string {
	for _, label := range metric.GetLabel() {
		if label.GetName() == name {
			return label.GetValue()
		}
	}
	return ""
}

func TestNilRegistererIsSafe(t *testing.T) {
	NewHTTPMetrics(nil).Observe("/", "GET", 200, time.Second)
	NewPushMetrics(nil).Inc("sent")
	NewCacheMetrics(nil).Inc("geo", "hit")

	var nilMetrics *PushMetrics
	nilMetrics.Inc("sent")
}

func TestPushAndCacheCounters(t *testing.T) {
	reg := prometheus.NewRegistry()
	push := NewPushMetrics(reg)
	cache := NewCacheMetrics(reg)

	push.Inc("gone")
	cache.Inc("geo", "miss")
	cache.Inc("geo", "miss")

	assert.Equal(t, 1.0, testutil.ToFloat64(push.deliveries.WithLabelValues("gone")))
	assert.Equal(t, 2.0, testutil.ToFloat64(cache.lookups.WithLabelValues("geo", "miss")))
}
