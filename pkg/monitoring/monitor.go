package monitoring

import (
	"strconv"
	"sync"
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

	// 行级数据缺陷，按类型计数：row / attendance / exam
	IngestionSkipped = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ingestion_skipped_total",
			Help: "Rows or candidates silently skipped during ingestion",
		},
		[]string{"kind"},
	)

	IngestionDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "ingestion_duration_seconds",
			Help:    "Duration of one cohort ingestion pass",
			Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 5},
		},
	)

	CohortStudents = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "cohort_students",
			Help: "Number of students in the published cohort",
		},
	)

	// 外部调用结果，outcome 为 remote 或 fallback
	ExternalCalls = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "external_calls_total",
			Help: "Forecast and insight calls by outcome",
		},
		[]string{"service", "outcome"},
	)

	ExternalCallDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "external_call_duration_seconds",
			Help:    "Duration of forecast and insight calls, fallback included",
			Buckets: []float64{0.05, 0.1, 0.5, 1, 2, 5, 15, 30},
		},
		[]string{"service"},
	)
)

var initOnce sync.Once

func Init() {
	initOnce.Do(func() {
		prometheus.MustRegister(
			RequestCounter,
			RequestDuration,
			IngestionSkipped,
			IngestionDuration,
			CohortStudents,
			ExternalCalls,
			ExternalCallDuration,
		)
	})
}

// ObserveExternalCall 记录一次外部调用
func ObserveExternalCall(service string, fellBack bool, started time.Time) {
	outcome := "remote"
	if fellBack {
		outcome = "fallback"
	}
	ExternalCalls.WithLabelValues(service, outcome).Inc()
	ExternalCallDuration.WithLabelValues(service).Observe(time.Since(started).Seconds())
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
