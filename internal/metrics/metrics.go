// Package metrics exposes Prometheus instruments for mutations, the event
// bus and HTTP traffic.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/emilythestrangee/qa-forum/backend/internal/events"
)

const namespace = "qa_forum"

// Metrics holds every instrument registered for the process.
type Metrics struct {
	gatherer prometheus.Gatherer

	// mutations counts service mutations.
	// Labels: op (add_comment, add_answer, upvote, ...), status (ok, error)
	mutations *prometheus.CounterVec

	// published counts events handed to the bus.
	// Labels: kind
	published *prometheus.CounterVec

	// fanout is the number of subscribers each event was delivered to.
	fanout prometheus.Histogram

	subscribers prometheus.Gauge

	// requests counts HTTP requests.
	// Labels: method, route, status
	requests *prometheus.CounterVec

	latency *prometheus.HistogramVec
}

// New registers all instruments on reg.
func New(reg *prometheus.Registry) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		gatherer: reg,
		mutations: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "service",
			Name:      "mutations_total",
			Help:      "Mutations applied by the service, by outcome",
		}, []string{"op", "status"}),
		published: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "events",
			Name:      "published_total",
			Help:      "Events published to the bus",
		}, []string{"kind"}),
		fanout: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "events",
			Name:      "fanout",
			Help:      "Subscribers reached per published event",
			Buckets:   []float64{0, 1, 2, 5, 10, 25, 50, 100, 250},
		}),
		subscribers: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "events",
			Name:      "subscribers",
			Help:      "Live bus subscribers",
		}),
		requests: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "HTTP requests by route and status",
		}, []string{"method", "route", "status"}),
		latency: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request latency in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
	}
}

// Mutation implements service.Recorder.
func (m *Metrics) Mutation(op string, err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	m.mutations.WithLabelValues(op, status).Inc()
}

// Published implements events.Observer.
func (m *Metrics) Published(kind events.Kind, subscribers int) {
	m.published.WithLabelValues(string(kind)).Inc()
	m.fanout.Observe(float64(subscribers))
}

// SubscribersChanged implements events.Observer.
func (m *Metrics) SubscribersChanged(n int) {
	m.subscribers.Set(float64(n))
}

// Middleware records request counts and latency per matched route.
func (m *Metrics) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		m.requests.WithLabelValues(c.Request.Method, route, strconv.Itoa(c.Writer.Status())).Inc()
		m.latency.WithLabelValues(c.Request.Method, route).Observe(time.Since(start).Seconds())
	}
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}
