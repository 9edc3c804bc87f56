package metrics

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// HTTP request latency in seconds
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 12), // 1ms to ~4s
		},
		[]string{"method", "path", "status"},
	)

	ActivityEntries = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "activity_entries_total",
			Help: "Total number of activity log entries written",
		},
		[]string{"action"},
	)

	NotificationsSent = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "notifications_sent_total",
			Help: "Total number of notifications delivered per channel",
		},
		[]string{"type", "channel"}, // channel: store, realtime, push, email
	)

	ProgressRecalculations = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "progress_recalculations_total",
			Help: "Total number of project progress recalculations",
		},
	)

	RateLimited = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rate_limited_requests_total",
			Help: "Requests rejected by a rate limiter",
		},
		[]string{"policy"},
	)
)

func RecordHTTPRequestDuration(method, path, status string, duration time.Duration) {
	HTTPRequestDuration.WithLabelValues(method, path, status).Observe(duration.Seconds())
}

func IncrementActivity(action string) {
	ActivityEntries.WithLabelValues(action).Inc()
}

func IncrementNotification(kind, channel string) {
	NotificationsSent.WithLabelValues(kind, channel).Inc()
}

func IncrementProgressRecalculation() {
	ProgressRecalculations.Inc()
}

func IncrementRateLimited(policy string) {
	RateLimited.WithLabelValues(policy).Inc()
}

// GinMiddleware records request latency labelled by route template.
func GinMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		RecordHTTPRequestDuration(c.Request.Method, path, strconv.Itoa(c.Writer.Status()), time.Since(start))
	}
}

// Handler serves the Prometheus exposition format.
func Handler() gin.HandlerFunc {
	return gin.WrapH(promhttp.Handler())
}
