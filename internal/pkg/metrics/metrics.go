package metrics

import (
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/valyala/fasthttp/fasthttpadaptor"
)

var (
	// HTTP metrics
	httpRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "gpxcorpus",
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "Total HTTP requests processed",
	}, []string{"method", "path", "status"})

	httpRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "gpxcorpus",
		Subsystem: "http",
		Name:      "request_duration_seconds",
		Help:      "HTTP request latency in seconds",
		Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
	}, []string{"method", "path"})

	httpResponseSize = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "gpxcorpus",
		Subsystem: "http",
		Name:      "response_size_bytes",
		Help:      "HTTP response size in bytes",
		Buckets:   prometheus.ExponentialBuckets(100, 10, 6),
	}, []string{"method", "path"})

	// Corpus metrics
	DocumentsParsed = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "gpxcorpus",
		Subsystem: "corpus",
		Name:      "documents_parsed_total",
		Help:      "Total corpus documents parsed successfully",
	})

	DocumentsSkipped = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "gpxcorpus",
		Subsystem: "corpus",
		Name:      "documents_skipped_total",
		Help:      "Total corpus documents left out of a scan",
	}, []string{"reason"})

	ScanDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "gpxcorpus",
		Subsystem: "corpus",
		Name:      "scan_duration_seconds",
		Help:      "Duration of a full corpus scan",
		Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
	}, []string{"operation"})

	PathMatches = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "gpxcorpus",
		Subsystem: "corpus",
		Name:      "path_matches_total",
		Help:      "Total routes and tracks returned by path searches",
	})

	DocumentMutations = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "gpxcorpus",
		Subsystem: "documents",
		Name:      "mutations_total",
		Help:      "Total document writes by operation and outcome",
	}, []string{"operation", "outcome"})

	MirrorDocumentsStored = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "gpxcorpus",
		Subsystem: "mirror",
		Name:      "documents_stored_total",
		Help:      "Total documents written to the relational mirror",
	}, []string{"outcome"})

	EventsPublished = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "gpxcorpus",
		Subsystem: "events",
		Name:      "published_total",
		Help:      "Total document events published",
	}, []string{"type", "outcome"})

	ActiveWebSockets = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "gpxcorpus",
		Subsystem: "ws",
		Name:      "active_connections",
		Help:      "Current number of active WebSocket connections",
	})

	LockWaitDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "gpxcorpus",
		Subsystem: "lock",
		Name:      "wait_duration_seconds",
		Help:      "Time spent waiting for a document write lock",
		Buckets:   []float64{0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
	})

	// Database pool metrics
	DBPoolConnsOpen = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "gpxcorpus",
		Subsystem: "db",
		Name:      "pool_conns_open",
		Help:      "Total connections open in the database pool",
	})

	DBPoolConnsAcquired = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "gpxcorpus",
		Subsystem: "db",
		Name:      "pool_conns_acquired",
		Help:      "Connections currently acquired from the database pool",
	})

	DBPoolConnsIdle = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "gpxcorpus",
		Subsystem: "db",
		Name:      "pool_conns_idle",
		Help:      "Idle connections in the database pool",
	})
)

// Middleware records request metrics.
func Middleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()

		err := c.Next()

		duration := time.Since(start).Seconds()
		status := strconv.Itoa(c.Response().StatusCode())
		path := c.Route().Path
		if path == "" {
			path = c.Path()
		}
		method := c.Method()

		httpRequestsTotal.WithLabelValues(method, path, status).Inc()
		httpRequestDuration.WithLabelValues(method, path).Observe(duration)
		httpResponseSize.WithLabelValues(method, path).Observe(float64(len(c.Response().Body())))

		return err
	}
}

// Handler returns a Fiber handler serving Prometheus /metrics endpoint.
func Handler() fiber.Handler {
	handler := promhttp.Handler()
	return func(c *fiber.Ctx) error {
		fasthttpadaptor.NewFastHTTPHandler(handler)(c.Context())
		return nil
	}
}

// UpdateDBPoolMetrics updates database pool metrics from pgx pool stats.
func UpdateDBPoolMetrics(stat interface {
	AcquiredConns() int32
	IdleConns() int32
	TotalConns() int32
}) {
	DBPoolConnsAcquired.Set(float64(stat.AcquiredConns()))
	DBPoolConnsIdle.Set(float64(stat.IdleConns()))
	DBPoolConnsOpen.Set(float64(stat.TotalConns()))
}
