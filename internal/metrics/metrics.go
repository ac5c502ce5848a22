// Package metrics owns the prometheus registry for the API server.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"booktracker/pkg/models"
)

const namespace = "booktracker"

// Metrics is nil-safe: recording on a nil *Metrics does nothing.
type Metrics struct {
	Registry *prometheus.Registry

	inFlight      prometheus.Gauge
	requests      *prometheus.CounterVec
	duration      *prometheus.HistogramVec
	booksCreated  prometheus.Counter
	purchases     prometheus.Counter
	statusChanges *prometheus.CounterVec
	events        *prometheus.CounterVec
}

func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	f := promauto.With(reg)

	return &Metrics{
		Registry: reg,
		inFlight: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "http_requests_in_flight",
			Help:      "HTTP requests currently being served.",
		}),
		requests: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by route, method and status.",
		}, []string{"route", "method", "status"}),
		duration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by route.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route", "method"}),
		booksCreated: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "books_created_total",
			Help:      "Books registered.",
		}),
		purchases: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "purchases_total",
			Help:      "Purchases registered.",
		}),
		statusChanges: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "status_changes_total",
			Help:      "Book status changes by target status.",
		}, []string{"status"}),
		events: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "events_published_total",
			Help:      "Book events published to sync clients.",
		}, []string{"type"}),
	}
}

// Middleware records request counts and latency labelled by the route template,
// so /api/libros/7/status and /api/libros/8/status share one series.
func (m *Metrics) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if m == nil {
			c.Next()
			return
		}
		m.inFlight.Inc()
		start := time.Now()

		c.Next()

		m.inFlight.Dec()
		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		method := c.Request.Method
		m.requests.WithLabelValues(route, method, strconv.Itoa(c.Writer.Status())).Inc()
		m.duration.WithLabelValues(route, method).Observe(time.Since(start).Seconds())
	}
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{Registry: m.Registry})
}

func (m *Metrics) BookCreated() {
	if m != nil {
		m.booksCreated.Inc()
	}
}

func (m *Metrics) PurchaseRegistered() {
	if m != nil {
		m.purchases.Inc()
	}
}

// StatusChanged counts a transition. Statuses are free-form, so names outside
// the known lifecycle share the "other" label.
func (m *Metrics) StatusChanged(status string) {
	if m != nil {
		m.statusChanges.WithLabelValues(statusLabel(status)).Inc()
	}
}

const otherStatus = "other"

func statusLabel(status string) string {
	switch status {
	case models.StatusWishlist, models.StatusPending, models.StatusReading,
		models.StatusFinished, models.StatusRated:
		return status
	}
	return otherStatus
}

func (m *Metrics) EventPublished(kind string) {
	if m != nil {
		m.events.WithLabelValues(kind).Inc()
	}
}
