package analysis

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/swimform/swimform-go/internal/analysis/events"
	"github.com/swimform/swimform-go/internal/analysis/scene"
	"github.com/swimform/swimform-go/internal/analysis/validator"
	"github.com/swimform/swimform-go/internal/errors"
	"github.com/swimform/swimform-go/internal/framesource"
	"github.com/swimform/swimform-go/internal/observability/metrics"
	"github.com/swimform/swimform-go/internal/pose"
)

// swimmer is a side-view body whose left arm sweeps around the elbow, so
// the elbow angle oscillates between roughly 64 and 164 degrees.
type swimmer struct {
	period float64 // frames per arm cycle
	offset float64 // radians
	// collapsed puts both shoulders on the same point.
	collapsed bool
}

func (s swimmer) keypoints(t *testing.T, i int) pose.KeypointSet {
	t.Helper()
	theta := (-10 + 50*math.Sin(2*math.Pi*float64(i)/s.period+s.offset)) * math.Pi / 180
	base := map[pose.Landmark]pose.Point{
		pose.Nose:          {X: 150, Y: 150},
		pose.LeftShoulder:  {X: 190, Y: 140},
		pose.RightShoulder: {X: 200, Y: 175},
		pose.LeftElbow:     {X: 230, Y: 200},
		pose.RightElbow:    {X: 160, Y: 120},
		pose.LeftWrist:     {X: 230 + 50*math.Cos(theta), Y: 200 + 50*math.Sin(theta)},
		pose.RightWrist:    {X: 110, Y: 130},
		pose.LeftHip:       {X: 320, Y: 150},
		pose.RightHip:      {X: 325, Y: 175},
		pose.LeftKnee:      {X: 410, Y: 160},
		pose.RightKnee:     {X: 415, Y: 170},
		pose.LeftAnkle:     {X: 500, Y: 155},
		pose.RightAnkle:    {X: 505, Y: 170},
	}
	if s.collapsed {
		base[pose.RightShoulder] = pose.Point{X: 191, Y: 141}
	}
	points := make(map[pose.Landmark]pose.Keypoint, len(base))
	for l, p := range base {
		points[l] = pose.Keypoint{X: p.X, Y: p.Y, Visibility: 0.8}
	}
	kp, err := pose.NewKeypointSet(points)
	require.NoError(t, err)
	return kp
}

// provider detects the swimmer on every frame.
func (s swimmer) provider(t *testing.T) pose.Provider {
	t.Helper()
	return pose.ProviderFunc(func(_ context.Context, f *framesource.Frame, _ int64) (pose.KeypointSet, bool, error) {
		return s.keypoints(t, f.Seq), true, nil
	})
}

func testFrame(i int) *framesource.Frame {
	return &framesource.Frame{Seq: i, Width: 640, Height: 360, Timestamp: float64(i) / 30}
}

func runSession(t *testing.T, s *Session, frames int) {
	t.Helper()
	for i := range frames {
		_, err := s.ProcessFrame(t.Context(), testFrame(i))
		require.NoError(t, err)
	}
}

type recordKey struct {
	Index  int
	Phase  string
	Score  float64
	Stroke bool
	Breath bool
}

func keys(records []FrameRecord) []recordKey {
	out := make([]recordKey, len(records))
	for i, r := range records {
		out[i] = recordKey{r.Index, string(r.Phase), r.Score, r.Flags.Stroke, r.Flags.Breath}
	}
	return out
}

func TestInterleavedSessionsAreIndependent(t *testing.T) {
	t.Parallel()
	a := swimmer{period: 29, offset: 0.3}
	b := swimmer{period: 23, offset: 1.1}
	const frames = 90

	aloneA := NewSession(DefaultConfig(), a.provider(t))
	runSession(t, aloneA, frames)
	aloneB := NewSession(DefaultConfig(), b.provider(t))
	runSession(t, aloneB, frames)

	mixedA := NewSession(DefaultConfig(), a.provider(t))
	mixedB := NewSession(DefaultConfig(), b.provider(t))
	for i := range frames {
		_, err := mixedA.ProcessFrame(t.Context(), testFrame(i))
		require.NoError(t, err)
		_, err = mixedB.ProcessFrame(t.Context(), testFrame(i))
		require.NoError(t, err)
	}

	require.Len(t, mixedA.Records(), frames)
	assert.Equal(t, keys(aloneA.Records()), keys(mixedA.Records()))
	assert.Equal(t, keys(aloneB.Records()), keys(mixedB.Records()))
	assert.NotEqual(t, mixedA.ID(), mixedB.ID())
}

func TestStrokesReachSinkAndSummary(t *testing.T) {
	t.Parallel()
	sink := &countingSink{}
	rec := metrics.NewTestRecorder()
	s := NewSession(DefaultConfig(), swimmer{period: 29, offset: 0.3}.provider(t),
		WithEventSink(sink), WithMetrics(rec), WithID("lane-4"))
	runSession(t, s, 150)

	report := s.Finish()
	assert.Equal(t, "lane-4", report.ID)
	assert.Positive(t, report.Summary.StrokeCount)
	assert.Equal(t, report.Summary.StrokeCount, sink.strokes)
	assert.Equal(t, report.Summary.Breaths.Total, sink.breaths)
	for _, id := range sink.ids {
		assert.Equal(t, "lane-4", id)
	}

	assert.Equal(t, 150, rec.GetOperationCount(metrics.OpFrame, metrics.StatusSuccess))
	assert.Len(t, rec.GetScores(), 150)
	assert.Equal(t, report.Summary.StrokeCount, rec.GetOperationCount(metrics.OpStroke, metrics.StatusSuccess))
	assert.Len(t, rec.GetDurations(metrics.OpPoseDetect), 150)
	assert.Equal(t, 1, rec.GetOperationCount(metrics.OpSession, metrics.StatusSuccess))
}

func TestForceContext(t *testing.T) {
	t.Parallel()
	s := NewSession(DefaultConfig(), swimmer{period: 29}.provider(t))
	require.NoError(t, s.ForceContext(scene.ViewSide, scene.WaterUnderwater))
	assert.True(t, s.Context().Forced)

	runSession(t, s, 1)
	err := s.ForceContext(scene.ViewFront, scene.WaterAbove)
	require.Error(t, err)
	assert.True(t, errors.IsCategory(err, errors.CategoryState))
	assert.Equal(t, scene.ViewSide, s.Context().View)
	assert.Nil(t, s.Finish().Evidence, "forced context has no classifier evidence")
}

func TestCanceledContext(t *testing.T) {
	t.Parallel()
	s := NewSession(DefaultConfig(), swimmer{period: 29}.provider(t))
	ctx, cancel := context.WithCancel(t.Context())
	cancel()

	_, err := s.ProcessFrame(ctx, testFrame(0))
	require.Error(t, err)
	assert.True(t, errors.IsCategory(err, errors.CategoryCancellation))
	assert.Zero(t, s.Stats().Frames)
}

func TestSkips(t *testing.T) {
	t.Parallel()
	good := swimmer{period: 29}
	narrow := swimmer{period: 29, collapsed: true}
	providerErr := errors.NewStd("pose service unavailable")

	calls := 0
	p := pose.ProviderFunc(func(_ context.Context, f *framesource.Frame, _ int64) (pose.KeypointSet, bool, error) {
		calls++
		switch f.Seq {
		case 0:
			return pose.KeypointSet{}, false, providerErr
		case 1:
			return pose.KeypointSet{}, false, nil
		case 2:
			return narrow.keypoints(t, f.Seq), true, nil
		default:
			return good.keypoints(t, f.Seq), true, nil
		}
	})
	rec := metrics.NewTestRecorder()
	s := NewSession(DefaultConfig(), p, WithMetrics(rec))

	want := []string{SkipProviderError, SkipNoPose, validator.ReasonNarrowShoulders, ""}
	for i, reason := range want {
		res, err := s.ProcessFrame(t.Context(), testFrame(i))
		require.NoError(t, err)
		assert.Equal(t, reason, res.SkipReason, "frame %d", i)
		assert.Equal(t, reason == "", res.Accepted, "frame %d", i)
	}
	assert.Equal(t, 4, calls)

	stats := s.Stats()
	assert.Equal(t, 4, stats.Frames)
	assert.Equal(t, 1, stats.Accepted)
	assert.Equal(t, 1, stats.ProviderErrors)
	assert.Equal(t, map[string]int{
		SkipProviderError:               1,
		SkipNoPose:                      1,
		validator.ReasonNarrowShoulders: 1,
	}, stats.Skipped)
	assert.Equal(t, 1, rec.GetOperationCount(metrics.OpFrame, metrics.StatusSkipped+"_"+SkipNoPose))
	assert.Equal(t, 1, rec.GetErrorCount(metrics.OpPoseDetect, string(errors.CategoryGeneric)))

	// Stats is a copy.
	stats.Skipped[SkipNoPose] = 99
	assert.Equal(t, 1, s.Stats().Skipped[SkipNoPose])
}

func TestFinish(t *testing.T) {
	t.Parallel()
	s := NewSession(DefaultConfig(), swimmer{period: 29, offset: 0.3}.provider(t))
	runSession(t, s, 40)

	first := s.Finish()
	second := s.Finish()
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, first.Summary.StrokeCount, second.Summary.StrokeCount)
	assert.Equal(t, first.Summary.Context, second.Summary.Context)
	assert.Len(t, first.Records, 40)
	assert.Equal(t, 40, first.Summary.Frames)

	_, err := s.ProcessFrame(t.Context(), testFrame(40))
	require.Error(t, err)
	assert.True(t, errors.IsCategory(err, errors.CategoryState))
}

func TestNilFrame(t *testing.T) {
	t.Parallel()
	s := NewSession(DefaultConfig(), swimmer{period: 29}.provider(t))
	_, err := s.ProcessFrame(t.Context(), nil)
	assert.True(t, errors.IsCategory(err, errors.CategoryValidation))
}

func TestRecordsReturnsCopy(t *testing.T) {
	t.Parallel()
	s := NewSession(DefaultConfig(), swimmer{period: 29}.provider(t))
	runSession(t, s, 3)

	records := s.Records()
	require.Len(t, records, 3)
	records[0].Score = -1
	assert.NotEqual(t, -1.0, s.Records()[0].Score)
}

func TestRetainedAndAnnotatedFrames(t *testing.T) {
	t.Parallel()
	cfg := DefaultConfig()
	cfg.Annotate = true
	s := NewSession(cfg, swimmer{period: 29, offset: 0.3}.provider(t))

	annotated := 0
	for i := range 40 {
		f := framesource.NewFrame(640, 360)
		f.Seq = i
		f.Timestamp = float64(i) / 30
		res, err := s.ProcessFrame(t.Context(), f)
		require.NoError(t, err)
		require.True(t, res.Accepted)
		if res.Annotated != nil {
			annotated++
			assert.NotSame(t, f, res.Annotated)
		}
	}
	assert.Equal(t, 40, annotated)

	report := s.Finish()
	require.NotNil(t, report.Best)
	require.True(t, report.Best.Set())
	assert.Len(t, report.Best.Image, 640*360*3)
	assert.Equal(t, 640, report.Best.Width)
	require.NotNil(t, report.Summary.Best)
	assert.True(t, report.Summary.Best.HasImage)
}

func TestWithoutRetainedFrames(t *testing.T) {
	t.Parallel()
	cfg := DefaultConfig()
	cfg.RetainFrames = false
	s := NewSession(cfg, swimmer{period: 29, offset: 0.3}.provider(t))

	for i := range 40 {
		f := framesource.NewFrame(640, 360)
		f.Seq = i
		f.Timestamp = float64(i) / 30
		_, err := s.ProcessFrame(t.Context(), f)
		require.NoError(t, err)
	}
	report := s.Finish()
	require.NotNil(t, report.Summary.Best)
	assert.False(t, report.Summary.Best.HasImage)
}

type countingSink struct {
	strokes int
	breaths int
	ids     []string
}

func (c *countingSink) StrokeDetected(id string, _ FrameRecord) {
	c.strokes++
	c.ids = append(c.ids, id)
}

func (c *countingSink) BreathDetected(id string, _ events.BreathSide, _ FrameRecord) {
	c.breaths++
	c.ids = append(c.ids, id)
}

func poolFrame(i int) *framesource.Frame {
	f := framesource.NewFrame(640, 360)
	f.Seq = i
	f.Timestamp = float64(i) / 30
	for y := range f.Height {
		for x := range f.Width {
			f.Set(x, y, 30, 120, 200)
		}
	}
	return f
}

func TestContextDetectedWithoutDetections(t *testing.T) {
	t.Parallel()
	absent := pose.ProviderFunc(func(context.Context, *framesource.Frame, int64) (pose.KeypointSet, bool, error) {
		return pose.KeypointSet{}, false, nil
	})
	s := NewSession(DefaultConfig(), absent)

	for i := range scene.DefaultWindow + 10 {
		res, err := s.ProcessFrame(t.Context(), poolFrame(i))
		require.NoError(t, err)
		assert.Equal(t, SkipNoPose, res.SkipReason)
	}

	ctx := s.Context()
	assert.True(t, ctx.Complete)
	assert.Equal(t, scene.WaterUnderwater, ctx.Water)
	assert.Equal(t, scene.ViewUnknown, ctx.View, "no landmarks, no body proportions")
	assert.Positive(t, ctx.Confidence)
	assert.Empty(t, s.Records())

	rep := s.Finish()
	require.NotNil(t, rep.Evidence)
	assert.Greater(t, rep.Evidence.UnderwaterScore, rep.Evidence.AboveScore)
	assert.Equal(t, scene.WaterUnderwater, rep.Evidence.Water)
}
