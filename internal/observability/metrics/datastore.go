package metrics

import (
	"fmt"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
)

// DatastoreMetrics contains Prometheus metrics for session persistence.
type DatastoreMetrics struct {
	registry *prometheus.Registry

	dbOperationsTotal      *prometheus.CounterVec
	dbOperationDuration    *prometheus.HistogramVec
	dbOperationErrorsTotal *prometheus.CounterVec
	dbTransactionsTotal    *prometheus.CounterVec
	dbTransactionDuration  prometheus.Histogram
	storedSessions         prometheus.Gauge
}

// NewDatastoreMetrics creates and registers the datastore metrics.
func NewDatastoreMetrics(registry *prometheus.Registry) (*DatastoreMetrics, error) {
	m := &DatastoreMetrics{registry: registry}
	if err := m.initMetrics(); err != nil {
		return nil, fmt.Errorf("failed to initialize datastore metrics: %w", err)
	}
	if err := registry.Register(m); err != nil {
		return nil, fmt.Errorf("failed to register datastore metrics: %w", err)
	}
	return m, nil
}

func (m *DatastoreMetrics) initMetrics() error {
	m.dbOperationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "swimform_db_operations_total",
			Help: "Total number of database operations",
		},
		[]string{"operation", "table", "status"}, // operation: db_query, db_insert, db_delete
	)

	m.dbOperationDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "swimform_db_operation_duration_seconds",
			Help:    "Time taken for database operations",
			Buckets: prometheus.ExponentialBuckets(BucketStart1ms, BucketFactor2, BucketCount12),
		},
		[]string{"operation", "table"},
	)

	m.dbOperationErrorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "swimform_db_operation_errors_total",
			Help: "Total number of database operation errors",
		},
		[]string{"operation", "table", "error_type"},
	)

	m.dbTransactionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "swimform_db_transactions_total",
			Help: "Total number of database transactions",
		},
		[]string{"status"},
	)

	m.dbTransactionDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "swimform_db_transaction_duration_seconds",
		Help:    "Time taken for database transactions",
		Buckets: prometheus.ExponentialBuckets(BucketStart1ms, BucketFactor2, BucketCount12),
	})

	m.storedSessions = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "swimform_db_sessions",
		Help: "Number of stored analysis sessions",
	})

	return nil
}

// Describe implements the prometheus.Collector interface.
func (m *DatastoreMetrics) Describe(ch chan<- *prometheus.Desc) {
	m.dbOperationsTotal.Describe(ch)
	m.dbOperationDuration.Describe(ch)
	m.dbOperationErrorsTotal.Describe(ch)
	m.dbTransactionsTotal.Describe(ch)
	ch <- m.dbTransactionDuration.Desc()
	ch <- m.storedSessions.Desc()
}

// Collect implements the prometheus.Collector interface.
func (m *DatastoreMetrics) Collect(ch chan<- prometheus.Metric) {
	m.dbOperationsTotal.Collect(ch)
	m.dbOperationDuration.Collect(ch)
	m.dbOperationErrorsTotal.Collect(ch)
	m.dbTransactionsTotal.Collect(ch)
	ch <- m.dbTransactionDuration
	ch <- m.storedSessions
}

// UpdateStoredSessions sets the stored session count.
func (m *DatastoreMetrics) UpdateStoredSessions(count int64) {
	m.storedSessions.Set(float64(count))
}

// parseTableFromOperation splits operations like "db_query:sessions".
func parseTableFromOperation(operation string) (op, table string) {
	parts := strings.SplitN(operation, ":", SplitPartsCount)
	if len(parts) == SplitPartsCount {
		return parts[0], parts[1]
	}
	return operation, "unknown"
}

// RecordOperation implements Recorder. Database operations use the
// "operation:table" form, e.g. "db_insert:sessions".
func (m *DatastoreMetrics) RecordOperation(operation, status string) {
	op, table := parseTableFromOperation(operation)
	switch op {
	case OpDbQuery, OpDbInsert, OpDbDelete:
		m.dbOperationsTotal.WithLabelValues(op, table, status).Inc()
	case OpTransaction:
		m.dbTransactionsTotal.WithLabelValues(status).Inc()
	}
}

// RecordDuration implements Recorder.
func (m *DatastoreMetrics) RecordDuration(operation string, seconds float64) {
	op, table := parseTableFromOperation(operation)
	switch op {
	case OpDbQuery, OpDbInsert, OpDbDelete:
		m.dbOperationDuration.WithLabelValues(op, table).Observe(seconds)
	case OpTransaction:
		m.dbTransactionDuration.Observe(seconds)
	}
}

// RecordError implements Recorder. The matching operation counter is also
// incremented with status "error".
func (m *DatastoreMetrics) RecordError(operation, errorType string) {
	op, table := parseTableFromOperation(operation)
	switch op {
	case OpDbQuery, OpDbInsert, OpDbDelete:
		m.dbOperationErrorsTotal.WithLabelValues(op, table, errorType).Inc()
		m.dbOperationsTotal.WithLabelValues(op, table, StatusError).Inc()
	case OpTransaction:
		m.dbTransactionsTotal.WithLabelValues(StatusError).Inc()
	}
}
