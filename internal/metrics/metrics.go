// Package metrics holds the Prometheus collectors for the reflections service.
// A nil *Collector is valid and records nothing.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Collector struct {
	registry *prometheus.Registry

	HTTPRequests *prometheus.CounterVec
	HTTPDuration *prometheus.HistogramVec

	ReflectionsCreated prometheus.Counter
	TopicsCreated      prometheus.Counter

	Classifications       *prometheus.CounterVec
	ClassificationLatency prometheus.Histogram
}

// NewCollector creates collectors registered on a private registry, so
// several collectors can coexist in tests.
func NewCollector(namespace string) *Collector {
	c := &Collector{
		registry: prometheus.NewRegistry(),
		HTTPRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "Total number of HTTP requests",
			},
			[]string{"method", "route", "status"},
		),
		HTTPDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request duration in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		),
		ReflectionsCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reflections_created_total",
			Help:      "Total number of reflections persisted",
		}),
		TopicsCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "topics_created_total",
			Help:      "Total number of topics created by get-or-create",
		}),
		Classifications: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "classifications_total",
				Help:      "Classifier calls by outcome",
			},
			[]string{"outcome"},
		),
		ClassificationLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "classification_duration_seconds",
			Help:      "Classifier call duration in seconds",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}),
	}

	c.registry.MustRegister(
		c.HTTPRequests,
		c.HTTPDuration,
		c.ReflectionsCreated,
		c.TopicsCreated,
		c.Classifications,
		c.ClassificationLatency,
		collectors.NewGoCollector(),
	)
	return c
}

func (c *Collector) Registry() *prometheus.Registry { return c.registry }

// Handler serves the registry in the Prometheus exposition format.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

func (c *Collector) ObserveHTTP(method, route string, status int, d time.Duration) {
	if c == nil {
		return
	}
	c.HTTPRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	c.HTTPDuration.WithLabelValues(method, route).Observe(d.Seconds())
}

func (c *Collector) ReflectionCreated() {
	if c == nil {
		return
	}
	c.ReflectionsCreated.Inc()
}

func (c *Collector) TopicCreated() {
	if c == nil {
		return
	}
	c.TopicsCreated.Inc()
}

// ObserveClassification records one classifier call; outcome is "ok" or "error".
func (c *Collector) ObserveClassification(outcome string, d time.Duration) {
	if c == nil {
		return
	}
	c.Classifications.WithLabelValues(outcome).Inc()
	c.ClassificationLatency.Observe(d.Seconds())
}
