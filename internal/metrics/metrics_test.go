package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCollector(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.ObserveRender("success", "", 20*time.Millisecond)
	c.ObserveRender("failure", "theme_not_found", time.Millisecond)
	c.ObserveRender("failure", "theme_not_found", time.Millisecond)
	c.IncFallback("favicon_decode_failure")
	c.SetQueueDepth(3)
	c.RecordHTTPStatus(http.StatusTooManyRequests)

	assert.Equal(t, 1.0, testutil.ToFloat64(c.renders.WithLabelValues("success", "")))
	assert.Equal(t, 2.0, testutil.ToFloat64(c.renders.WithLabelValues("failure", "theme_not_found")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.fallbacks.WithLabelValues("favicon_decode_failure")))
	assert.Equal(t, 3.0, testutil.ToFloat64(c.queueDepth))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.httpStatus.WithLabelValues("429")))
}

func TestHandler(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)
	c.IncFallback("background")

	rec := httptest.NewRecorder()
	Handler(reg).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), `quotecard_fallbacks_total{kind="background"} 1`))
}
