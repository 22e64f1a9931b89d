package mqtt

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/swimform/swimform-go/internal/analysis"
	"github.com/swimform/swimform-go/internal/analysis/events"
	"github.com/swimform/swimform-go/internal/errors"
	"github.com/swimform/swimform-go/internal/logger"
	"github.com/swimform/swimform-go/internal/observability/metrics"
)

var _ analysis.EventSink = (*Publisher)(nil)

// DefaultQueueSize is the number of events buffered between the analysis
// loop and the broker.
const DefaultQueueSize = 256

type message struct {
	topic   string
	payload []byte
}

// Publisher sends session events to MQTT. Stroke and breath events are
// queued and published from a background worker so the analysis loop never
// waits on the network; when the queue is full, events are dropped. The
// summary is published synchronously.
type Publisher struct {
	client  Client
	topic   string
	log     logger.Logger
	metrics *metrics.MQTTMetrics

	mu      sync.RWMutex
	queue   chan message
	closed  bool
	started bool
	wg      sync.WaitGroup
	dropped atomic.Int64
}

// NewPublisher creates a Publisher rooted at topic. Start must be called
// before queued events are delivered.
func NewPublisher(client Client, topic string, queueSize int) *Publisher {
	if queueSize <= 0 {
		queueSize = DefaultQueueSize
	}
	if topic == "" {
		topic = DefaultConfig().Topic
	}
	return &Publisher{
		client: client,
		topic:  topic,
		log:    GetLogger(),
		queue:  make(chan message, queueSize),
	}
}

// SetMetrics attaches the collector counting dropped events. Call before Start.
func (p *Publisher) SetMetrics(m *metrics.MQTTMetrics) {
	p.metrics = m
}

// SessionTopic returns the topic for kind under a session.
func (p *Publisher) SessionTopic(sessionID, kind string) string {
	return fmt.Sprintf("%s/sessions/%s/%s", p.topic, sessionID, kind)
}

// Start launches the delivery worker. It drains the queue until Close.
func (p *Publisher) Start(ctx context.Context) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.started || p.closed {
		return
	}
	p.started = true

	p.wg.Go(func() {
		for msg := range p.queue {
			if err := p.client.Publish(ctx, msg.topic, msg.payload); err != nil {
				p.log.Warn("failed to publish event",
					logger.String("topic", msg.topic),
					logger.Error(err))
			}
		}
	})
}

// Close stops accepting events and waits for queued ones to be delivered.
func (p *Publisher) Close() {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.closed = true
	close(p.queue)
	p.mu.Unlock()

	p.wg.Wait()
	if n := p.dropped.Load(); n > 0 {
		p.log.Warn("events dropped while the queue was full", logger.Int64("dropped", n))
	}
}

// Dropped returns the number of events discarded because the queue was full.
func (p *Publisher) Dropped() int64 {
	return p.dropped.Load()
}

// StrokeDetected implements analysis.EventSink.
func (p *Publisher) StrokeDetected(sessionID string, rec analysis.FrameRecord) {
	p.enqueue(p.SessionTopic(sessionID, TopicStrokes), newStrokeEvent(sessionID, &rec))
}

// BreathDetected implements analysis.EventSink.
func (p *Publisher) BreathDetected(sessionID string, side events.BreathSide, rec analysis.FrameRecord) {
	p.enqueue(p.SessionTopic(sessionID, TopicBreaths), newBreathEvent(sessionID, side, &rec))
}

func (p *Publisher) enqueue(topic string, v any) {
	payload, err := json.Marshal(v)
	if err != nil {
		p.log.Warn("failed to encode event",
			logger.String("topic", topic),
			logger.Error(err))
		return
	}

	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return
	}
	select {
	case p.queue <- message{topic: topic, payload: payload}:
	default:
		p.dropped.Add(1)
		if p.metrics != nil {
			p.metrics.IncrementDropped()
		}
	}
}

// PublishSummary publishes the final report of a session.
func (p *Publisher) PublishSummary(ctx context.Context, source string, report *analysis.Report) error {
	if report == nil {
		return errors.Newf("nil report").
			Component("mqtt").
			Category(errors.CategoryValidation).
			Build()
	}
	payload, err := json.Marshal(SummaryMessage{
		SessionID:  report.ID,
		Source:     source,
		FinishedAt: time.Now().UTC(),
		Summary:    report.Summary,
	})
	if err != nil {
		return errors.New(err).
			Component("mqtt").
			Category(errors.CategoryMQTTPublish).
			Context("session_id", report.ID).
			Build()
	}
	return p.client.Publish(ctx, p.SessionTopic(report.ID, TopicSummary), payload)
}
