// Package metrics provides Prometheus metrics for the Avro bridge.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the bridge. A nil *Metrics is
// valid and records nothing, so components never have to guard.
type Metrics struct {
	NotificationsTotal *prometheus.CounterVec
	LoadJobsTotal      *prometheus.CounterVec
	LoadDuration       *prometheus.HistogramVec
	DeletesTotal       *prometheus.CounterVec
	LoadsInFlight      prometheus.Gauge
}

// Init initializes the metrics on the default registry.
// Call this once at startup.
func Init(namespace string) *Metrics {
	if namespace == "" {
		namespace = "avro_bridge"
	}

	return &Metrics{
		NotificationsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "notifications_total",
				Help:      "Total number of push notifications received",
			},
			[]string{"result"},
		),
		LoadJobsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "load_jobs_total",
				Help:      "Total number of warehouse load jobs by terminal status",
			},
			[]string{"table", "status"},
		),
		LoadDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "load_duration_seconds",
				Help:      "Time from load-job submission to terminal status",
				Buckets:   prometheus.ExponentialBuckets(0.5, 2, 10), // 0.5s to ~4m
			},
			[]string{"table"},
		),
		DeletesTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "deletes_total",
				Help:      "Total number of source-object delete attempts",
			},
			[]string{"status"},
		),
		LoadsInFlight: promauto.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "loads_in_flight",
				Help:      "Load orchestrations currently running",
			},
		),
	}
}

// Notification records a notification outcome ("accepted" | "rejected").
func (m *Metrics) Notification(result string) {
	if m == nil {
		return
	}
	m.NotificationsTotal.WithLabelValues(result).Inc()
}

// JobDone records a load job's terminal status and duration.
func (m *Metrics) JobDone(table, status string, d time.Duration) {
	if m == nil {
		return
	}
	m.LoadJobsTotal.WithLabelValues(table, status).Inc()
	m.LoadDuration.WithLabelValues(table).Observe(d.Seconds())
}

// Delete records a source-object delete attempt ("ok" | "failed").
func (m *Metrics) Delete(status string) {
	if m == nil {
		return
	}
	m.DeletesTotal.WithLabelValues(status).Inc()
}

// LoadStarted marks an orchestration as in flight; the returned func ends it.
func (m *Metrics) LoadStarted() func() {
	if m == nil {
		return func() {}
	}
	m.LoadsInFlight.Inc()
	return m.LoadsInFlight.Dec
}

// Handler returns the HTTP handler serving the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}
