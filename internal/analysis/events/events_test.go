package events

import (
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/swimform/swimform-go/internal/biomech"
	"github.com/swimform/swimform-go/internal/pose"
)

const fps = 30.0

func TestStrokeRegistersAtCenterMinimum(t *testing.T) {
	t.Parallel()

	d := NewStrokeDetector(StrokeWindow, StrokeMinInterval)
	angles := []float64{160, 140, 120, 100, 80, 100, 120, 140, 160}

	var hits []float64
	for i, a := range angles {
		if ok, at := d.Observe(a, float64(i)/fps); ok {
			hits = append(hits, at)
		}
	}
	require.Len(t, hits, 1)
	assert.InDelta(t, 4/fps, hits[0], 1e-9)
	assert.Equal(t, 1, d.Count())

	first, last, ok := d.Span()
	assert.True(t, ok)
	assert.InDelta(t, 4/fps, first, 1e-9)
	assert.InDelta(t, first, last, 1e-9)
}

func TestStrokeRequiresStrictMinimum(t *testing.T) {
	t.Parallel()

	d := NewStrokeDetector(StrokeWindow, StrokeMinInterval)
	for i, a := range []float64{160, 140, 120, 80, 80, 100, 120, 140, 160} {
		ok, _ := d.Observe(a, float64(i)/fps)
		assert.False(t, ok)
	}
	_, _, ok := d.Span()
	assert.False(t, ok)
}

func TestStrokeRefractoryInterval(t *testing.T) {
	t.Parallel()

	// Minima every 10 frames (0.33s) at 30fps; only every other one may count.
	d := NewStrokeDetector(StrokeWindow, StrokeMinInterval)
	var hits []float64
	for i := range 200 {
		a := 160.0
		if i%10 == 0 {
			a = 80
		}
		if ok, at := d.Observe(a, float64(i)/fps); ok {
			hits = append(hits, at)
		}
	}
	require.NotEmpty(t, hits)
	for i := 1; i < len(hits); i++ {
		assert.GreaterOrEqual(t, hits[i]-hits[i-1], StrokeMinInterval-1e-9)
	}
}

func TestStrokeSpacingProperty(t *testing.T) {
	t.Parallel()

	rng := rand.New(rand.NewPCG(7, 11))
	for range 50 {
		d := NewStrokeDetector(StrokeWindow, StrokeMinInterval)
		last := -1.0
		for i := range 600 {
			ok, at := d.Observe(rng.Float64()*180, float64(i)/fps)
			if !ok {
				continue
			}
			if last >= 0 {
				assert.GreaterOrEqual(t, at-last, StrokeMinInterval-1e-9)
			}
			last = at
		}
	}
}

func TestStrokeDetectorDefaults(t *testing.T) {
	t.Parallel()

	d := NewStrokeDetector(4, 0)
	assert.Equal(t, 5, d.size)
	assert.InDelta(t, StrokeMinInterval, d.minInterval, 1e-9)
	assert.Equal(t, StrokeWindow, NewStrokeDetector(0, 0).size)
}

// head returns a set with shoulders 40px apart and the nose offset by
// yaw shoulder widths.
func head(t *testing.T, yaw float64) pose.KeypointSet {
	t.Helper()
	base := map[pose.Landmark]pose.Point{
		pose.Nose:          {X: 100 + yaw*40, Y: 90},
		pose.LeftShoulder:  {X: 80, Y: 100},
		pose.RightShoulder: {X: 120, Y: 100},
		pose.LeftElbow:     {X: 80, Y: 130},
		pose.RightElbow:    {X: 120, Y: 130},
		pose.LeftWrist:     {X: 80, Y: 160},
		pose.RightWrist:    {X: 120, Y: 160},
		pose.LeftHip:       {X: 90, Y: 200},
		pose.RightHip:      {X: 110, Y: 200},
		pose.LeftKnee:      {X: 90, Y: 260},
		pose.RightKnee:     {X: 110, Y: 260},
		pose.LeftAnkle:     {X: 90, Y: 320},
		pose.RightAnkle:    {X: 110, Y: 320},
	}
	points := make(map[pose.Landmark]pose.Keypoint, len(base))
	for l, p := range base {
		points[l] = pose.Keypoint{X: p.X, Y: p.Y, Visibility: 1}
	}
	set, err := pose.NewKeypointSet(points)
	require.NoError(t, err)
	return set
}

func TestYaw(t *testing.T) {
	t.Parallel()
	assert.InDelta(t, 0.5, Yaw(head(t, 0.5)), 1e-9)
	assert.InDelta(t, -0.25, Yaw(head(t, -0.25)), 1e-9)
}

func TestBreathNeedsSustainedTurn(t *testing.T) {
	t.Parallel()

	d := NewBreathDetector(DefaultBreathConfig())
	turned := head(t, 0.6)
	level := head(t, 0)

	// Two turned frames then level: hold never reaches three.
	for i, kp := range []pose.KeypointSet{turned, turned, level, turned, turned} {
		res := d.Observe(kp, biomech.PhaseRecovery, float64(i)/fps)
		assert.False(t, res.Registered)
	}
	res := d.Observe(turned, biomech.PhaseRecovery, 5/fps)
	assert.True(t, res.Registered)
	assert.Equal(t, BreathRight, res.Side)
	assert.Equal(t, BreathCounts{Right: 1, Total: 1}, d.Counts())
}

func TestBreathSidesAndDuringPull(t *testing.T) {
	t.Parallel()

	d := NewBreathDetector(DefaultBreathConfig())
	left := head(t, -0.6)

	var res BreathResult
	for i := range 3 {
		res = d.Observe(left, biomech.PhasePull, float64(i)/fps)
	}
	assert.True(t, res.Registered)
	assert.True(t, res.DuringPull)
	assert.Equal(t, BreathLeft, res.Side)

	// Still turned but inside the cooldown.
	for i := 3; i < 20; i++ {
		res = d.Observe(left, biomech.PhasePull, float64(i)/fps)
		assert.False(t, res.Registered)
		assert.Equal(t, BreathLeft, res.Side)
	}
	assert.Equal(t, BreathCounts{Left: 1, Total: 1, DuringPull: 1}, d.Counts())

	none := d.Observe(head(t, 0.1), biomech.PhasePull, 1)
	assert.Equal(t, BreathNone, none.Side)
}

func TestBreathSpacingProperty(t *testing.T) {
	t.Parallel()

	yaws := []pose.KeypointSet{head(t, -0.8), head(t, -0.2), head(t, 0), head(t, 0.4), head(t, 0.9)}
	rng := rand.New(rand.NewPCG(3, 5))
	for range 20 {
		d := NewBreathDetector(DefaultBreathConfig())
		last := -1.0
		for i := range 900 {
			at := float64(i) / fps
			res := d.Observe(yaws[rng.IntN(len(yaws))], biomech.PhasePull, at)
			if !res.Registered {
				continue
			}
			if last >= 0 {
				assert.GreaterOrEqual(t, at-last, BreathMinInterval-1e-9)
			}
			last = at
		}
		c := d.Counts()
		assert.Equal(t, c.Total, c.Left+c.Right)
		assert.Equal(t, c.Total, c.DuringPull)
	}
}
