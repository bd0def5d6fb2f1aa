// Package metrics holds the HTTP-level Prometheus metrics shared by
// every endpoint; per-context metrics live with their services.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// HTTP tracks request throughput and latency per method and status.
type HTTP struct {
	RequestsTotal   *prometheus.CounterVec
	RequestDuration prometheus.Histogram
}

// NewHTTP creates and registers the HTTP metrics.
func NewHTTP() *HTTP {
	return &HTTP{
		RequestsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "switchboard_http_requests_total",
			Help: "HTTP requests by method and status code",
		}, []string{"method", "status"}),
		RequestDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "switchboard_http_request_duration_seconds",
			Help:    "HTTP request duration",
			Buckets: prometheus.DefBuckets,
		}),
	}
}

// Middleware instruments every request passing through the router.
func (m *HTTP) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		m.RequestsTotal.WithLabelValues(r.Method, strconv.Itoa(ww.Status())).Inc()
		m.RequestDuration.Observe(time.Since(start).Seconds())
	})
}
