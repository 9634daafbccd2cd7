// Package telemetry records per-request timing as Prometheus series and
// logs requests that cross the slow threshold. It is mounted on the
// router so route templates ({id} instead of raw values) keep the label
// cardinality bounded.
package telemetry

import (
	"net/http"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"framelabel/pkg/logger"
)

var (
	requestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "framelabel_http_requests_total",
		Help: "HTTP requests served, by route template, method and status code.",
	}, []string{"route", "method", "code"})

	requestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "framelabel_http_request_duration_seconds",
		Help:    "HTTP request latency by route template.",
		Buckets: prometheus.DefBuckets,
	}, []string{"route"})

	annotationsStored = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "framelabel_annotations_stored_total",
		Help: "Annotations appended to the store since process start, by label.",
	}, []string{"label"})

	slowThresholdNs int64 = int64(500 * time.Millisecond)
)

// SetSlowThreshold adjusts the duration above which a request is logged
// as slow. Zero or negative disables slow logging.
func SetSlowThreshold(d time.Duration) {
	atomic.StoreInt64(&slowThresholdNs, int64(d))
}

// AnnotationStored counts one persisted annotation.
func AnnotationStored(label string) {
	annotationsStored.WithLabelValues(label).Inc()
}

// Middleware wraps the matched handler and records request timing and
// status. Attach with Router.Use so mux.CurrentRoute is populated.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		srw := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(srw, r)

		dur := time.Since(start)
		route := routeLabel(r)
		requestsTotal.WithLabelValues(route, r.Method, strconv.Itoa(srw.status)).Inc()
		requestDuration.WithLabelValues(route).Observe(dur.Seconds())

		if th := atomic.LoadInt64(&slowThresholdNs); th > 0 && dur > time.Duration(th) {
			logger.Warn("slow_request",
				"route", route,
				"method", r.Method,
				"status", srw.status,
				"duration_ms", dur.Milliseconds(),
			)
		}
	})
}

// routeLabel prefers the mux path template over the raw URL path so
// parameterized routes collapse into one series.
func routeLabel(r *http.Request) string {
	if cur := mux.CurrentRoute(r); cur != nil {
		if tpl, err := cur.GetPathTemplate(); err == nil && tpl != "" {
			return tpl
		}
	}
	return r.URL.Path
}

// statusRecorder captures the response status code.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}
