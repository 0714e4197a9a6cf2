package monitoring

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	RequestCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status"},
	)

	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests",
			Buckets: []float64{0.1, 0.5, 1, 2, 5},
		},
		[]string{"method", "endpoint"},
	)

	QuizSubmissions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "quiz_submissions_total",
			Help: "Stage quiz submissions by outcome",
		},
		[]string{"outcome"},
	)

	QuickTestSubmissions = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "quick_test_submissions_total",
			Help: "Completed quick test sittings",
		},
	)

	CertificatesIssued = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "certificates_issued_total",
			Help: "Certificates issued by path (auto or admin)",
		},
		[]string{"path"},
	)

	WSConnectedClients = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "ws_connected_clients",
			Help: "Currently connected notification websocket clients",
		},
	)

	WSPushedMessages = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ws_pushed_messages_total",
			Help: "Messages pushed over the notification websocket",
		},
		[]string{"type"},
	)
)

func Init() {
	prometheus.MustRegister(RequestCounter)
	prometheus.MustRegister(RequestDuration)
	prometheus.MustRegister(QuizSubmissions)
	prometheus.MustRegister(QuickTestSubmissions)
	prometheus.MustRegister(CertificatesIssued)
	prometheus.MustRegister(WSConnectedClients)
	prometheus.MustRegister(WSPushedMessages)
}

func MetricsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		duration := time.Since(start).Seconds()
		status := c.Writer.Status()

		RequestCounter.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
			strconv.Itoa(status),
		).Inc()

		RequestDuration.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
		).Observe(duration)
	}
}

func PrometheusHandler() gin.HandlerFunc {
	h := promhttp.Handler()
	return func(c *gin.Context) {
		h.ServeHTTP(c.Writer, c.Request)
	}
}
