// Package metrics provides custom Prometheus metrics for swimform.
package metrics

// Recorder defines a minimal interface for recording metrics.
// Components depend on it rather than on concrete collectors so tests can
// substitute a TestRecorder.
type Recorder interface {
	// RecordOperation records an operation with its status
	// (e.g. "frame", "success" or "frame", "skipped_no_pose").
	RecordOperation(operation, status string)

	// RecordDuration records the duration of an operation in seconds.
	RecordDuration(operation string, seconds float64)

	// RecordError records an error occurrence with its type, usually the
	// error category.
	RecordError(operation, errorType string)
}
