package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "venuemap"

var (
	httpRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "http_requests_total",
		Help:      "HTTP requests by route pattern, method and status.",
	}, []string{"route", "method", "status"})

	httpDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "http_request_duration_seconds",
		Help:      "HTTP request latency by route pattern.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"route", "method"})

	geocoderRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "geocoder_requests_total",
		Help:      "Upstream geocoding calls by strategy and outcome.",
	}, []string{"strategy", "outcome"})

	geocodeCache = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "event_geocode_cache_total",
		Help:      "Event geocode cache lookups by result.",
	}, []string{"result"})
)

// Geocoder outcomes.
const (
	OutcomeOK    = "ok"
	OutcomeError = "error"
)

// ObserveGeocode counts one upstream geocoding call.
func ObserveGeocode(strategy string, err error) {
	outcome := OutcomeOK
	if err != nil {
		outcome = OutcomeError
	}
	geocoderRequests.WithLabelValues(strategy, outcome).Inc()
}

// ObserveGeocodeCache counts a cache hit or miss in the event geocoder.
func ObserveGeocodeCache(hit bool) {
	if hit {
		geocodeCache.WithLabelValues("hit").Inc()
		return
	}
	geocodeCache.WithLabelValues("miss").Inc()
}

// Handler serves the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}

// Middleware records request counts and latency keyed by chi route pattern so
// path parameters do not explode label cardinality.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if p := rctx.RoutePattern(); p != "" {
				route = p
			}
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		httpRequests.WithLabelValues(route, r.Method, strconv.Itoa(status)).Inc()
		httpDuration.WithLabelValues(route, r.Method).Observe(time.Since(start).Seconds())
	})
}
