package store

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	appendsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "framelabel_store_appends_total",
			Help: "Annotations appended, by backend.",
		},
		[]string{"backend"},
	)

	appendErrorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "framelabel_store_append_errors_total",
			Help: "Failed annotation appends, by backend.",
		},
		[]string{"backend"},
	)

	listDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "framelabel_store_list_duration_seconds",
			Help:    "Full-listing round-trip latency, by backend.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"backend"},
	)
)

func init() {
	prometheus.MustRegister(appendsTotal)
	prometheus.MustRegister(appendErrorsTotal)
	prometheus.MustRegister(listDuration)
}

func observeAppend(backend string, err error) {
	if err != nil {
		appendErrorsTotal.WithLabelValues(backend).Inc()
		return
	}
	appendsTotal.WithLabelValues(backend).Inc()
}

func observeList(backend string, start time.Time) {
	listDuration.WithLabelValues(backend).Observe(time.Since(start).Seconds())
}
