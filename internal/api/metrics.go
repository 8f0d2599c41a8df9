package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
)

var (
	apiRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hivegrid_api_requests_total",
			Help: "API requests by chi route, method, and response code.",
		},
		[]string{"route", "method", "code"},
	)

	apiLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "hivegrid_api_request_seconds",
			Help:    "API request latency in seconds per chi route.",
			Buckets: []float64{.005, .025, .1, .5, 1, 5},
		},
		[]string{"route"},
	)
)

func init() {
	prometheus.MustRegister(apiRequests, apiLatency)
}

// metricsMiddleware observes every request under its matched chi route
// pattern so label cardinality stays bounded regardless of request paths.
func metricsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		defer func() {
			route := "(unmatched)"
			if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
				route = rctx.RoutePattern()
			}
			code := ww.Status()
			if code == 0 {
				code = http.StatusOK
			}
			apiRequests.WithLabelValues(route, r.Method, strconv.Itoa(code)).Inc()
			apiLatency.WithLabelValues(route).Observe(time.Since(start).Seconds())
		}()

		next.ServeHTTP(ww, r)
	})
}
