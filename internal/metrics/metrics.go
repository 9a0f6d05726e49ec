package metrics

import (
	"strconv"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	initOnce sync.Once

	requestsTotal      *prometheus.CounterVec
	presignedURLsTotal *prometheus.CounterVec
	multipartTotal     *prometheus.CounterVec
)

// InitMetrics registers the application collectors. Safe to call more than
// once; registration happens on the first call only.
func InitMetrics() {
	initOnce.Do(func() {
		requestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "ghostdrive_http_requests_total",
			Help: "HTTP requests processed, labeled by method and status.",
		}, []string{"method", "status"})

		presignedURLsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "ghostdrive_presigned_urls_issued_total",
			Help: "Presigned URLs issued, labeled by kind (upload, download, part).",
		}, []string{"kind"})

		multipartTotal = promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "ghostdrive_multipart_sessions_total",
			Help: "Multipart upload session transitions, labeled by event.",
		}, []string{"event"})
	})
}

// Middleware counts every processed request.
func Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()
		if requestsTotal != nil {
			requestsTotal.WithLabelValues(c.Request.Method, strconv.Itoa(c.Writer.Status())).Inc()
		}
	}
}

// Register attaches the Prometheus metrics endpoint to the router.
func Register(router *gin.Engine, path string) {
	router.GET(path, gin.WrapH(promhttp.Handler()))
}

// PresignedURLIssued records one issued presigned URL of the given kind.
func PresignedURLIssued(kind string) {
	if presignedURLsTotal != nil {
		presignedURLsTotal.WithLabelValues(kind).Inc()
	}
}

// MultipartEvent records a multipart session transition
// ("initiated", "completed", "aborted").
func MultipartEvent(event string) {
	if multipartTotal != nil {
		multipartTotal.WithLabelValues(event).Inc()
	}
}
