package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCollector_Counters(t *testing.T) {
	c := NewCollector("reflections")

	c.ReflectionCreated()
	c.TopicCreated()
	c.TopicCreated()
	c.ObserveClassification("ok", 120*time.Millisecond)
	c.ObserveHTTP(http.MethodGet, "/api/users", http.StatusOK, time.Millisecond)

	assert.Equal(t, 1.0, testutil.ToFloat64(c.ReflectionsCreated))
	assert.Equal(t, 2.0, testutil.ToFloat64(c.TopicsCreated))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.Classifications.WithLabelValues("ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.HTTPRequests.WithLabelValues("GET", "/api/users", "200")))
}

func TestCollector_NilIsNoop(t *testing.T) {
	var c *Collector
	assert.NotPanics(t, func() {
		c.ReflectionCreated()
		c.TopicCreated()
		c.ObserveClassification("error", time.Second)
		c.ObserveHTTP(http.MethodPost, "/", 500, time.Second)
	})
}

func TestCollector_Handler(t *testing.T) {
	c := NewCollector("reflections")
	c.ReflectionCreated()

	rec := httptest.NewRecorder()
	c.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), "reflections_reflections_created_total 1"))
}
