package mqtt

import (
	"encoding/json"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/swimform/swimform-go/internal/analysis"
	"github.com/swimform/swimform-go/internal/analysis/events"
	"github.com/swimform/swimform-go/internal/analysis/record"
	"github.com/swimform/swimform-go/internal/analysis/summary"
	"github.com/swimform/swimform-go/internal/biomech"
	"github.com/swimform/swimform-go/internal/observability/metrics"
)

func connectedPublisher(t *testing.T, queueSize int) (*Publisher, *fakePaho) {
	t.Helper()
	fake := &fakePaho{}
	c := newTestClient(t, fake, nil)
	require.NoError(t, c.Connect(t.Context()))
	return NewPublisher(c, "pool", queueSize), fake
}

func TestPublisherEvents(t *testing.T) {
	t.Parallel()
	p, fake := connectedPublisher(t, 0)
	p.Start(t.Context())

	rec := analysis.FrameRecord{
		Index:     42,
		Timestamp: 1.4,
		Phase:     biomech.PhasePull,
		PullSide:  biomech.Left,
		Score:     81.5,
		Smoothed:  record.Metrics{ElbowAngle: 95},
		Flags:     record.Flags{BreathDuringPull: true},
	}
	p.StrokeDetected("s1", rec)
	p.BreathDetected("s1", events.BreathSide("right"), rec)
	p.Close()

	sent := fake.sent()
	require.Len(t, sent, 2)
	assert.Equal(t, "pool/sessions/s1/strokes", sent[0].topic)
	assert.Equal(t, "pool/sessions/s1/breaths", sent[1].topic)

	var stroke StrokeEvent
	require.NoError(t, json.Unmarshal(sent[0].payload, &stroke))
	assert.Equal(t, 42, stroke.Frame)
	assert.InDelta(t, 95, stroke.ElbowAngle, 1e-9)
	assert.Equal(t, string(biomech.PhasePull), stroke.Phase)

	var breath BreathEvent
	require.NoError(t, json.Unmarshal(sent[1].payload, &breath))
	assert.Equal(t, "right", breath.Side)
	assert.True(t, breath.DuringPull)
	assert.Zero(t, p.Dropped())
}

func TestPublisherDropsWhenFull(t *testing.T) {
	t.Parallel()
	p, fake := connectedPublisher(t, 1)
	m, err := metrics.NewMQTTMetrics(prometheus.NewRegistry())
	require.NoError(t, err)
	p.SetMetrics(m)

	rec := analysis.FrameRecord{Index: 1}
	p.StrokeDetected("s1", rec)
	p.StrokeDetected("s1", rec)
	assert.Equal(t, int64(1), p.Dropped())
	assert.InDelta(t, 1, testutil.ToFloat64(m.EventsDropped), 0)

	// Queued events are delivered once the worker starts.
	p.Start(t.Context())
	p.Close()
	assert.Len(t, fake.sent(), 1)

	// Events after Close are ignored.
	p.StrokeDetected("s1", rec)
	p.Close()
	assert.Len(t, fake.sent(), 1)
}

func TestPublishSummary(t *testing.T) {
	t.Parallel()
	p, fake := connectedPublisher(t, 0)
	defer p.Close()

	report := &analysis.Report{
		ID:      "s9",
		Summary: summary.SessionSummary{Frames: 120, StrokeCount: 7},
	}
	require.NoError(t, p.PublishSummary(t.Context(), "lane4.rgb", report))

	sent := fake.sent()
	require.Len(t, sent, 1)
	assert.Equal(t, "pool/sessions/s9/summary", sent[0].topic)

	var msg SummaryMessage
	require.NoError(t, json.Unmarshal(sent[0].payload, &msg))
	assert.Equal(t, "s9", msg.SessionID)
	assert.Equal(t, "lane4.rgb", msg.Source)
	assert.Equal(t, 7, msg.Summary.StrokeCount)
	assert.False(t, msg.FinishedAt.IsZero())

	require.Error(t, p.PublishSummary(t.Context(), "", nil))
}
