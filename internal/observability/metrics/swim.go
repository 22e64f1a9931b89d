package metrics

import (
	"fmt"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"

	"github.com/swimform/swimform-go/internal/logger"
)

// SwimMetrics contains the Prometheus metrics of the analysis pipeline.
type SwimMetrics struct {
	registry *prometheus.Registry

	framesTotal        *prometheus.CounterVec   // status: success, skipped_<reason>
	operationsTotal    *prometheus.CounterVec   // operation, status
	operationDuration  *prometheus.HistogramVec // operation
	errorsTotal        *prometheus.CounterVec   // operation, error_type
	strokesTotal       prometheus.Counter
	breathsTotal       *prometheus.CounterVec // side
	frameScore         prometheus.Histogram
	activeSessions     prometheus.Gauge
	sessionsCompleted  prometheus.Counter
	sessionDurationSec prometheus.Histogram
}

// NewSwimMetrics creates and registers the analysis metrics.
func NewSwimMetrics(registry *prometheus.Registry) (*SwimMetrics, error) {
	m := &SwimMetrics{registry: registry}
	if err := m.initMetrics(); err != nil {
		return nil, fmt.Errorf("failed to initialize swim metrics: %w", err)
	}
	if err := registry.Register(m); err != nil {
		return nil, fmt.Errorf("failed to register swim metrics: %w", err)
	}
	return m, nil
}

func (m *SwimMetrics) initMetrics() error {
	m.framesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "swimform_frames_total",
			Help: "Total number of frames processed by outcome",
		},
		[]string{"status"},
	)

	m.operationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "swimform_operations_total",
			Help: "Total number of pipeline operations",
		},
		[]string{"operation", "status"},
	)

	m.operationDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "swimform_operation_duration_seconds",
			Help:    "Duration of pipeline operations",
			Buckets: prometheus.ExponentialBuckets(BucketStart1ms, BucketFactor2, BucketCount12),
		},
		[]string{"operation"},
	)

	m.errorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "swimform_errors_total",
			Help: "Total number of pipeline errors",
		},
		[]string{"operation", "error_type"},
	)

	m.strokesTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "swimform_strokes_total",
		Help: "Total number of registered strokes",
	})

	m.breathsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "swimform_breaths_total",
			Help: "Total number of registered breaths by side",
		},
		[]string{"side"},
	)

	m.frameScore = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "swimform_frame_score",
		Help:    "Composite technique score of accepted frames",
		Buckets: prometheus.LinearBuckets(0, ScoreBucketWidth, ScoreBucketCount),
	})

	m.activeSessions = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "swimform_active_sessions",
		Help: "Number of analysis sessions in progress",
	})

	m.sessionsCompleted = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "swimform_sessions_completed_total",
		Help: "Total number of finished analysis sessions",
	})

	m.sessionDurationSec = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "swimform_session_duration_seconds",
		Help:    "Wall-clock duration of analysis sessions",
		Buckets: prometheus.ExponentialBuckets(BucketStart100ms, BucketFactor2, BucketCount12),
	})

	return nil
}

// Describe implements the prometheus.Collector interface.
func (m *SwimMetrics) Describe(ch chan<- *prometheus.Desc) {
	m.framesTotal.Describe(ch)
	m.operationsTotal.Describe(ch)
	m.operationDuration.Describe(ch)
	m.errorsTotal.Describe(ch)
	ch <- m.strokesTotal.Desc()
	m.breathsTotal.Describe(ch)
	ch <- m.frameScore.Desc()
	ch <- m.activeSessions.Desc()
	ch <- m.sessionsCompleted.Desc()
	ch <- m.sessionDurationSec.Desc()
}

// Collect implements the prometheus.Collector interface.
func (m *SwimMetrics) Collect(ch chan<- prometheus.Metric) {
	m.framesTotal.Collect(ch)
	m.operationsTotal.Collect(ch)
	m.operationDuration.Collect(ch)
	m.errorsTotal.Collect(ch)
	ch <- m.strokesTotal
	m.breathsTotal.Collect(ch)
	ch <- m.frameScore
	ch <- m.activeSessions
	ch <- m.sessionsCompleted
	ch <- m.sessionDurationSec
}

// RecordOperation implements Recorder. Frame outcomes, strokes and breaths
// feed their dedicated counters; everything else is a generic operation.
func (m *SwimMetrics) RecordOperation(operation, status string) {
	switch operation {
	case OpFrame:
		m.framesTotal.WithLabelValues(status).Inc()
	case OpStroke:
		m.strokesTotal.Inc()
	case OpBreath:
		m.breathsTotal.WithLabelValues(status).Inc()
	case OpSession:
		m.sessionsCompleted.Inc()
	default:
		m.operationsTotal.WithLabelValues(operation, status).Inc()
	}
}

// RecordDuration implements Recorder.
func (m *SwimMetrics) RecordDuration(operation string, seconds float64) {
	if operation == OpSession {
		m.sessionDurationSec.Observe(seconds)
		return
	}
	m.operationDuration.WithLabelValues(operation).Observe(seconds)
}

// RecordError implements Recorder.
func (m *SwimMetrics) RecordError(operation, errorType string) {
	m.errorsTotal.WithLabelValues(operation, errorType).Inc()
}

// RecordScore observes a composite frame score.
func (m *SwimMetrics) RecordScore(score float64) {
	m.frameScore.Observe(score)
}

// SessionStarted increments the active session gauge.
func (m *SwimMetrics) SessionStarted() { m.activeSessions.Inc() }

// SessionFinished decrements the active session gauge.
func (m *SwimMetrics) SessionFinished() { m.activeSessions.Dec() }

// Totals is a point-in-time snapshot of the headline counters.
type Totals struct {
	FramesAccepted float64 `json:"frames_accepted"`
	FramesSkipped  float64 `json:"frames_skipped"`
	Strokes        float64 `json:"strokes"`
	Sessions       float64 `json:"sessions"`
	ActiveSessions float64 `json:"active_sessions"`
}

// Totals reads the headline counters.
func (m *SwimMetrics) Totals() Totals {
	var t Totals
	t.Strokes = readValue(m.strokesTotal)
	t.Sessions = readValue(m.sessionsCompleted)
	t.ActiveSessions = readValue(m.activeSessions)

	ch := make(chan prometheus.Metric, 16)
	go func() {
		m.framesTotal.Collect(ch)
		close(ch)
	}()
	for metric := range ch {
		var pb dto.Metric
		if err := metric.Write(&pb); err != nil || pb.GetCounter() == nil {
			continue
		}
		status := ""
		for _, lp := range pb.GetLabel() {
			if lp.GetName() == "status" {
				status = lp.GetValue()
			}
		}
		if status == StatusSuccess {
			t.FramesAccepted += pb.GetCounter().GetValue()
		} else if strings.HasPrefix(status, StatusSkipped) {
			t.FramesSkipped += pb.GetCounter().GetValue()
		}
	}
	return t
}

// readValue returns the current value of a counter or gauge.
func readValue(m prometheus.Metric) float64 {
	var pb dto.Metric
	if err := m.Write(&pb); err != nil {
		GetLogger().Debug("failed to read metric", logger.Error(err))
		return 0
	}
	switch {
	case pb.GetCounter() != nil:
		return pb.GetCounter().GetValue()
	case pb.GetGauge() != nil:
		return pb.GetGauge().GetValue()
	default:
		return 0
	}
}
