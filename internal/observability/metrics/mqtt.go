package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// MQTTMetrics covers the broker connection and the session event publisher.
type MQTTMetrics struct {
	ConnectionStatus  prometheus.Gauge
	MessagesPublished *prometheus.CounterVec // kind: strokes, breaths, summary
	EventsDropped     prometheus.Counter
	Errors            prometheus.Counter
	ReconnectAttempts prometheus.Counter
	MessageSize       prometheus.Histogram
	PublishLatency    prometheus.Histogram

	collectors []prometheus.Collector
}

// NewMQTTMetrics creates the MQTT collectors and registers them on registry.
func NewMQTTMetrics(registry *prometheus.Registry) (*MQTTMetrics, error) {
	m := &MQTTMetrics{}
	m.initMetrics()
	if err := registry.Register(m); err != nil {
		return nil, fmt.Errorf("failed to register MQTT metrics: %w", err)
	}
	return m, nil
}

func (m *MQTTMetrics) initMetrics() {
	m.ConnectionStatus = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "swimform_mqtt_connected",
		Help: "1 while the publisher holds a broker connection",
	})
	m.MessagesPublished = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "swimform_mqtt_messages_published_total",
		Help: "Session messages delivered to the broker by kind",
	}, []string{"kind"})
	m.EventsDropped = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "swimform_mqtt_events_dropped_total",
		Help: "Stroke and breath events discarded because the publish queue was full",
	})
	m.Errors = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "swimform_mqtt_errors_total",
		Help: "Failed publishes and lost connections",
	})
	m.ReconnectAttempts = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "swimform_mqtt_reconnect_attempts_total",
		Help: "Broker reconnection attempts",
	})
	m.MessageSize = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "swimform_mqtt_message_size_bytes",
		Help:    "Encoded session message size",
		Buckets: prometheus.ExponentialBuckets(BucketStart64B, BucketFactor2, BucketCount10),
	})
	m.PublishLatency = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "swimform_mqtt_publish_latency_seconds",
		Help:    "Time until the broker acknowledged a publish",
		Buckets: prometheus.ExponentialBuckets(BucketStart1ms, BucketFactor2, BucketCount10),
	})

	m.collectors = []prometheus.Collector{
		m.ConnectionStatus,
		m.MessagesPublished,
		m.EventsDropped,
		m.Errors,
		m.ReconnectAttempts,
		m.MessageSize,
		m.PublishLatency,
	}
}

// UpdateConnectionStatus records whether the client is connected.
func (m *MQTTMetrics) UpdateConnectionStatus(connected bool) {
	var v float64
	if connected {
		v = 1
	}
	m.ConnectionStatus.Set(v)
}

// ObservePublish records one acknowledged publish.
func (m *MQTTMetrics) ObservePublish(kind string, sizeBytes int, latency time.Duration) {
	m.MessagesPublished.WithLabelValues(kind).Inc()
	m.MessageSize.Observe(float64(sizeBytes))
	m.PublishLatency.Observe(latency.Seconds())
}

// IncrementDropped counts one event discarded by the publisher.
func (m *MQTTMetrics) IncrementDropped() { m.EventsDropped.Inc() }

func (m *MQTTMetrics) IncrementErrors() { m.Errors.Inc() }

func (m *MQTTMetrics) IncrementReconnectAttempts() { m.ReconnectAttempts.Inc() }

// Collect implements prometheus.Collector.
func (m *MQTTMetrics) Collect(ch chan<- prometheus.Metric) {
	for _, c := range m.collectors {
		c.Collect(ch)
	}
}

// Describe implements prometheus.Collector.
func (m *MQTTMetrics) Describe(ch chan<- *prometheus.Desc) {
	for _, c := range m.collectors {
		c.Describe(ch)
	}
}
