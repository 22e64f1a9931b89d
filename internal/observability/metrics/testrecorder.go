package metrics

import "sync"

// TestRecorder captures recorded metrics in memory for verification in
// tests. It is safe for concurrent use.
type TestRecorder struct {
	mu         sync.RWMutex
	operations map[string]map[string]int // operation -> status -> count
	durations  map[string][]float64      // operation -> durations
	errors     map[string]map[string]int // operation -> errorType -> count
	scores     []float64
}

// NewTestRecorder creates an empty TestRecorder.
func NewTestRecorder() *TestRecorder {
	return &TestRecorder{
		operations: make(map[string]map[string]int),
		durations:  make(map[string][]float64),
		errors:     make(map[string]map[string]int),
	}
}

// RecordOperation implements Recorder.
func (r *TestRecorder) RecordOperation(operation, status string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.operations[operation] == nil {
		r.operations[operation] = make(map[string]int)
	}
	r.operations[operation][status]++
}

// RecordDuration implements Recorder.
func (r *TestRecorder) RecordDuration(operation string, seconds float64) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.durations[operation] = append(r.durations[operation], seconds)
}

// RecordError implements Recorder.
func (r *TestRecorder) RecordError(operation, errorType string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.errors[operation] == nil {
		r.errors[operation] = make(map[string]int)
	}
	r.errors[operation][errorType]++
}

// RecordScore captures a composite frame score.
func (r *TestRecorder) RecordScore(score float64) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.scores = append(r.scores, score)
}

// GetOperationCount returns the count of an operation with a status.
func (r *TestRecorder) GetOperationCount(operation, status string) int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.operations[operation][status]
}

// GetDurations returns a copy of the durations recorded for an operation.
func (r *TestRecorder) GetDurations(operation string) []float64 {
	r.mu.RLock()
	defer r.mu.RUnlock()

	durations, ok := r.durations[operation]
	if !ok {
		return nil
	}
	result := make([]float64, len(durations))
	copy(result, durations)
	return result
}

// GetErrorCount returns the count of an error type for an operation.
func (r *TestRecorder) GetErrorCount(operation, errorType string) int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.errors[operation][errorType]
}

// GetScores returns a copy of the recorded scores.
func (r *TestRecorder) GetScores() []float64 {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]float64, len(r.scores))
	copy(result, r.scores)
	return result
}

// HasRecordedMetrics reports whether anything was recorded.
func (r *TestRecorder) HasRecordedMetrics() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.operations) > 0 || len(r.durations) > 0 || len(r.errors) > 0 || len(r.scores) > 0
}

// Reset clears all recorded metrics.
func (r *TestRecorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.operations = make(map[string]map[string]int)
	r.durations = make(map[string][]float64)
	r.errors = make(map[string]map[string]int)
	r.scores = nil
}

// NoOpRecorder discards everything.
type NoOpRecorder struct{}

// RecordOperation does nothing.
func (NoOpRecorder) RecordOperation(string, string) {}

// RecordDuration does nothing.
func (NoOpRecorder) RecordDuration(string, float64) {}

// RecordError does nothing.
func (NoOpRecorder) RecordError(string, string) {}

// RecordScore does nothing.
func (NoOpRecorder) RecordScore(float64) {}
