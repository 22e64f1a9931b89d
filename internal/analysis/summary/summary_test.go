package summary

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/swimform/swimform-go/internal/analysis/events"
	"github.com/swimform/swimform-go/internal/analysis/record"
	"github.com/swimform/swimform-go/internal/analysis/scene"
	"github.com/swimform/swimform-go/internal/biomech"
	"github.com/swimform/swimform-go/internal/framesource"
)

// frame builds a well-formed Pull record with neutral metrics; every fifth
// frame is gliding.
func frame(i int, conf float64) record.FrameRecord {
	m := record.Metrics{
		ElbowAngle:   120,
		Lateral:      2,
		VerticalDrop: 3,
		Deviation:    5,
		BodyRoll:     45,
		KickDepth:    0.05,
		TorsoLean:    4,
		CatchAngle:   25,
	}
	return record.FrameRecord{
		Index:      i,
		Timestamp:  float64(i) / 30,
		Confidence: conf,
		Phase:      biomech.PhasePull,
		Raw:        m,
		Smoothed:   m,
		Score:      80,
		Flags:      record.Flags{Gliding: i%5 == 0},
	}
}

func sideUnderwater() scene.Context {
	return scene.Context{
		View:         scene.ViewSide,
		Water:        scene.WaterUnderwater,
		Confidence:   1,
		Capabilities: scene.Capabilities(scene.ViewSide, scene.WaterUnderwater),
		Complete:     true,
	}
}

func TestConfidenceFloorExcludesLowFrames(t *testing.T) {
	t.Parallel()

	var records []record.FrameRecord
	for i := range 40 {
		r := frame(i, 0.2)
		r.Smoothed.BodyRoll = 5
		r.Smoothed.VerticalDrop = 30
		r.Score = 10
		records = append(records, r)
	}
	for i := 40; i < 50; i++ {
		records = append(records, frame(i, 0.9))
	}

	s := Summarize(Input{Records: records, Context: sideUnderwater()}, DefaultConfig())
	assert.Equal(t, 50, s.Frames)
	assert.Equal(t, 10, s.FramesUsed)
	assert.False(t, s.ConfidenceFallback)
	assert.InDelta(t, 45, s.AvgBodyRoll, 1e-9)
	assert.InDelta(t, 3, s.AvgVerticalDrop, 1e-9)
	assert.InDelta(t, 80, s.AvgScore, 1e-9)
	assert.InDelta(t, 80, s.MinScore, 1e-9)
	assert.Equal(t, []string{AffirmativeMessage}, s.Diagnostics)
}

func TestConfidenceFloorFallsBackToAllFrames(t *testing.T) {
	t.Parallel()

	records := []record.FrameRecord{frame(0, 0.1), frame(1, 0.2)}
	records[1].Score = 60

	s := Summarize(Input{Records: records}, DefaultConfig())
	assert.True(t, s.ConfidenceFallback)
	assert.Equal(t, 2, s.FramesUsed)
	assert.InDelta(t, 70, s.AvgScore, 1e-9)
	assert.InDelta(t, 60, s.MinScore, 1e-9)
	assert.InDelta(t, 80, s.MaxScore, 1e-9)
}

func TestEmptySession(t *testing.T) {
	t.Parallel()

	s := Summarize(Input{}, DefaultConfig())
	assert.Zero(t, s.Frames)
	assert.Zero(t, s.FramesUsed)
	assert.False(t, s.ConfidenceFallback)
	assert.Zero(t, s.DroppedElbowPct)
	assert.Zero(t, s.StrokeRate)
	assert.Nil(t, s.Best)
	assert.Equal(t, []string{AffirmativeMessage}, s.Diagnostics)
}

func TestRates(t *testing.T) {
	t.Parallel()

	records := make([]record.FrameRecord, 0, 301)
	for i := range 301 {
		records = append(records, frame(i, 0.9))
	}
	in := Input{
		Records: records,
		Strokes: StrokeStats{Count: 6, First: 1, Last: 6},
		Breaths: events.BreathCounts{Left: 2, Right: 3, Total: 5},
	}
	s := Summarize(in, DefaultConfig())
	assert.InDelta(t, 10, s.Duration, 1e-9)
	assert.InDelta(t, 60, s.StrokeRate, 1e-9)
	assert.InDelta(t, 30, s.BreathRate, 1e-9)

	in.Strokes = StrokeStats{Count: 1, First: 2, Last: 2}
	assert.Zero(t, Summarize(in, DefaultConfig()).StrokeRate)
}

func TestDroppedElbowPercentage(t *testing.T) {
	t.Parallel()

	var records []record.FrameRecord
	for i := range 10 {
		r := frame(i, 0.9)
		r.Flags.DroppedElbow = i < 4
		records = append(records, r)
	}
	// Neither qualifies: bent elbow, and not a Pull frame.
	bent := frame(10, 0.9)
	bent.Raw.ElbowAngle = 95
	bent.Flags.DroppedElbow = true
	entry := frame(11, 0.9)
	entry.Phase = biomech.PhaseEntry
	entry.Flags.DroppedElbow = true
	records = append(records, bent, entry)

	s := Summarize(Input{Records: records, Context: sideUnderwater()}, DefaultConfig())
	assert.InDelta(t, 40, s.DroppedElbowPct, 1e-9)
	assert.Equal(t, biomech.StatusDroppedElbow, s.CatchStatus)
	require.NotEmpty(t, s.Diagnostics)
	assert.Contains(t, s.Diagnostics[0], "Dropped elbow")

	noPull := []record.FrameRecord{entry, bent}
	assert.Zero(t, Summarize(Input{Records: noPull}, DefaultConfig()).DroppedElbowPct)
}

func TestDiagnosticCascadeOrder(t *testing.T) {
	t.Parallel()

	s := SessionSummary{
		FramesUsed:      100,
		DroppedElbowPct: 50,
		AvgVerticalDrop: 15,
		AvgLateral:      12,
		AvgCatchAngle:   50,
		AvgBodyRoll:     20,
		GlideRatio:      0.5,
		Breaths:         events.BreathCounts{Left: 5, Total: 5, DuringPull: 3},
	}
	all := scene.Context{Capabilities: scene.AllCapabilities()}
	d := Diagnose(s, all, DefaultThresholds())
	require.Len(t, d, 7)
	assert.Contains(t, d[0], "Dropped elbow")
	assert.Contains(t, d[1], "sink")
	assert.Contains(t, d[2], "snakes")
	assert.Contains(t, d[3], "during the pull", "EVF skipped when dropped elbow flagged")
	assert.Contains(t, d[4], "Body roll is only")
	assert.Contains(t, d[5], "to the left")
	assert.Contains(t, d[6], "Gliding in 50%")

	s.DroppedElbowPct = 0
	d = Diagnose(s, all, DefaultThresholds())
	assert.Contains(t, d[1], "snakes")
	assert.Contains(t, d[2], "vertical forearm")
}

func TestDiagnosticsGatedByCapabilities(t *testing.T) {
	t.Parallel()

	s := SessionSummary{
		FramesUsed:      100,
		DroppedElbowPct: 50,
		AvgVerticalDrop: 15,
		AvgBodyRoll:     45,
		GlideRatio:      0.2,
		AvgHeadLift:     25,
		Breaths:         events.BreathCounts{Right: 4, Total: 4},
	}
	above := scene.Context{Capabilities: scene.Capabilities(scene.ViewSide, scene.WaterAbove)}
	d := Diagnose(s, above, DefaultThresholds())
	require.Len(t, d, 2)
	assert.Contains(t, d[0], "to the right")
	assert.Contains(t, d[1], "Head lifts")
}

func TestRecoveryElbowAveragesRecoveryFrames(t *testing.T) {
	t.Parallel()

	var records []record.FrameRecord
	for i := range 20 {
		r := frame(i, 0.9)
		r.Smoothed.RecoveryElbowHeight = 0.9
		if i%2 == 0 {
			r.Phase = biomech.PhaseRecovery
			r.Smoothed.RecoveryElbowHeight = -0.1 + float64(i%4)*0.05
		}
		records = append(records, r)
	}

	s := Summarize(Input{Records: records, Context: sideUnderwater()}, DefaultConfig())
	assert.Equal(t, 10, s.RecoveryFrames)
	assert.InDelta(t, -0.05, s.AvgRecoveryElbowHeight, 1e-9, "pull frames excluded")

	var pullOnly []record.FrameRecord
	for i := range 10 {
		pullOnly = append(pullOnly, frame(i, 0.9))
	}
	s = Summarize(Input{Records: pullOnly, Context: sideUnderwater()}, DefaultConfig())
	assert.Zero(t, s.RecoveryFrames)
	assert.Zero(t, s.AvgRecoveryElbowHeight)
}

func TestRecoveryDiagnostic(t *testing.T) {
	t.Parallel()

	low := SessionSummary{FramesUsed: 100, AvgBodyRoll: 45, RecoveryFrames: 30, AvgRecoveryElbowHeight: -0.05}
	above := scene.Context{Capabilities: scene.Capabilities(scene.ViewSide, scene.WaterAbove)}
	under := sideUnderwater()

	tests := []struct {
		name    string
		summary SessionSummary
		ctx     scene.Context
		want    bool
	}{
		{"low elbow above water", low, above, true},
		{"recovery not visible underwater", low, under, false},
		{"high elbow", SessionSummary{FramesUsed: 100, AvgBodyRoll: 45, RecoveryFrames: 30, AvgRecoveryElbowHeight: 0.3}, above, false},
		{"no recovery frames", SessionSummary{FramesUsed: 100, AvgBodyRoll: 45}, above, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			d := Diagnose(tt.summary, tt.ctx, DefaultThresholds())
			found := false
			for _, msg := range d {
				if strings.Contains(msg, "high elbow") {
					found = true
				}
			}
			assert.Equal(t, tt.want, found, d)
		})
	}
}

func TestChallenge(t *testing.T) {
	t.Parallel()

	var empty Champion
	assert.True(t, Challenge(empty, 0, Highest))
	assert.True(t, Challenge(empty, 100, Lowest))

	c := Champion{Score: 70, set: true}
	assert.True(t, Challenge(c, 71, Highest))
	assert.False(t, Challenge(c, 70, Highest))
	assert.True(t, Challenge(c, 69, Lowest))
	assert.False(t, Challenge(c, 70, Lowest))
}

func TestTrackerKeepsPullExtremes(t *testing.T) {
	t.Parallel()

	var tr Tracker
	renders := 0
	render := func() *framesource.Frame {
		renders++
		f := framesource.NewFrame(2, 1)
		f.Set(0, 0, uint8(renders), 0, 0)
		return f
	}

	scores := []float64{60, 75, 40, 75, 50}
	for i, sc := range scores {
		r := frame(i, 0.9)
		r.Score = sc
		tr.Offer(r, render)
	}
	recovery := frame(9, 0.9)
	recovery.Phase = biomech.PhaseRecovery
	recovery.Score = 100
	tr.Offer(recovery, render)

	assert.Equal(t, 3, renders, "first frame, new best, new worst")
	assert.Equal(t, 1, tr.Best.FrameIndex)
	assert.InDelta(t, 75, tr.Best.Score, 1e-9)
	assert.Equal(t, 2, tr.Worst.FrameIndex)
	assert.InDelta(t, 40, tr.Worst.Score, 1e-9)
	assert.Equal(t, []byte{2, 0, 0, 0, 0, 0}, tr.Best.Image)
	assert.Equal(t, []byte{3, 0, 0, 0, 0, 0}, tr.Worst.Image)
	assert.Equal(t, 2, tr.Best.Width)

	s := Summarize(Input{Best: &tr.Best, Worst: &tr.Worst}, DefaultConfig())
	require.NotNil(t, s.Best)
	assert.Equal(t, 1, s.Best.FrameIndex)
	assert.True(t, s.Best.HasImage)
	assert.Equal(t, 2, s.Worst.FrameIndex)
}

func TestTrackerWithoutPixels(t *testing.T) {
	t.Parallel()

	var tr Tracker
	tr.Offer(frame(0, 0.9), nil)
	assert.True(t, tr.Best.Set())
	assert.Empty(t, tr.Best.Image)
	assert.Zero(t, tr.Best.Width)
}
