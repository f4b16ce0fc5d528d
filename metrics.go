package autosave

import "time"

// MetricsCollector provides hooks for collecting save operation metrics
type MetricsCollector interface {
	// RecordSaveDuration records how long a settled save cycle took
	RecordSaveDuration(duration time.Duration)

	// RecordSave records a settled save outcome by status
	// ("success", "failure", "canceled", "skipped")
	RecordSave(status string)

	// RecordSaveError records save failures by error code
	RecordSaveError(code string)

	// RecordRetry records a single retry attempt
	RecordRetry()

	// RecordPendingFields records the dirty field count at gate time
	RecordPendingFields(count int)
}

// NoOpMetricsCollector is a default implementation that does nothing
type NoOpMetricsCollector struct{}

// NewNoOpMetricsCollector returns a collector that discards everything.
func NewNoOpMetricsCollector() *NoOpMetricsCollector { return &NoOpMetricsCollector{} }

func (n *NoOpMetricsCollector) RecordSaveDuration(duration time.Duration) {}
func (n *NoOpMetricsCollector) RecordSave(status string)                  {}
func (n *NoOpMetricsCollector) RecordSaveError(code string)               {}
func (n *NoOpMetricsCollector) RecordRetry()                              {}
func (n *NoOpMetricsCollector) RecordPendingFields(count int)             {}
