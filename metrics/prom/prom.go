// Package prom exports autosave engine metrics to Prometheus.
package prom

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	autosave "github.com/c0deZ3R0/go-autosave-kit"
)

// Collector implements autosave.MetricsCollector backed by Prometheus
// instruments.
type Collector struct {
	saveDuration  prometheus.Histogram
	saves         *prometheus.CounterVec
	saveErrors    *prometheus.CounterVec
	retries       prometheus.Counter
	pendingFields prometheus.Gauge
}

var _ autosave.MetricsCollector = (*Collector)(nil)

// NewCollector creates a Collector and registers its instruments with reg.
// Pass prometheus.DefaultRegisterer for the process-wide registry.
func NewCollector(reg prometheus.Registerer, namespace string) (*Collector, error) {
	if namespace == "" {
		namespace = "autosave"
	}

	c := &Collector{
		saveDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "save_duration_seconds",
			Help:      "Duration of settled save cycles.",
			Buckets:   prometheus.DefBuckets,
		}),
		saves: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "saves_total",
			Help:      "Settled save cycles by status.",
		}, []string{"status"}),
		saveErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "save_errors_total",
			Help:      "Failed save cycles by error code.",
		}, []string{"code"}),
		retries: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "retries_total",
			Help:      "Retry attempts across all save cycles.",
		}),
		pendingFields: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "pending_fields",
			Help:      "Dirty field count at the start of the latest cycle.",
		}),
	}

	for _, col := range []prometheus.Collector{
		c.saveDuration, c.saves, c.saveErrors, c.retries, c.pendingFields,
	} {
		if err := reg.Register(col); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// RecordSaveDuration implements autosave.MetricsCollector.
func (c *Collector) RecordSaveDuration(duration time.Duration) {
	c.saveDuration.Observe(duration.Seconds())
}

// RecordSave implements autosave.MetricsCollector.
func (c *Collector) RecordSave(status string) {
	c.saves.WithLabelValues(status).Inc()
}

// RecordSaveError implements autosave.MetricsCollector.
func (c *Collector) RecordSaveError(code string) {
	c.saveErrors.WithLabelValues(code).Inc()
}

// RecordRetry implements autosave.MetricsCollector.
func (c *Collector) RecordRetry() {
	c.retries.Inc()
}

// RecordPendingFields implements autosave.MetricsCollector.
func (c *Collector) RecordPendingFields(count int) {
	c.pendingFields.Set(float64(count))
}
