package phase

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/swimform/swimform-go/internal/biomech"
	"github.com/swimform/swimform-go/internal/pose"
)

// arm builds a set where the left arm is the pulling arm with the given
// elbow and wrist; the right arm is recovering above the shoulders.
func arm(t *testing.T, elbow, wrist pose.Point) pose.KeypointSet {
	t.Helper()
	base := map[pose.Landmark]pose.Point{
		pose.Nose:          {90, 100},
		pose.LeftShoulder:  {100, 100},
		pose.RightShoulder: {104, 102},
		pose.LeftElbow:     elbow,
		pose.RightElbow:    {90, 70},
		pose.LeftWrist:     wrist,
		pose.RightWrist:    {60, 60},
		pose.LeftHip:       {200, 100},
		pose.RightHip:      {204, 102},
		pose.LeftKnee:      {290, 100},
		pose.RightKnee:     {294, 102},
		pose.LeftAnkle:     {380, 100},
		pose.RightAnkle:    {384, 102},
	}
	points := make(map[pose.Landmark]pose.Keypoint)
	for l, p := range base {
		points[l] = pose.Keypoint{X: p.X, Y: p.Y, Visibility: 1}
	}
	set, err := pose.NewKeypointSet(points)
	require.NoError(t, err)
	return set
}

func TestClassify(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name         string
		elbow, wrist pose.Point
		want         biomech.Phase
	}{
		// Shoulder at (100,100). Extended forward and down: elbow angle ~170.
		{"entry", pose.Point{70, 110}, pose.Point{40, 125}, biomech.PhaseEntry},
		// Elbow bent to ~122 degrees.
		{"pull", pose.Point{100, 150}, pose.Point{60, 175}, biomech.PhasePull},
		// Elbow folded under 90 degrees.
		{"push", pose.Point{130, 140}, pose.Point{100, 160}, biomech.PhasePush},
		// Wrist within the margin below the shoulder.
		{"recovery at surface", pose.Point{130, 80}, pose.Point{160, 108}, biomech.PhaseRecovery},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			c := New(DefaultConfig())
			res := c.Classify(arm(t, tt.elbow, tt.wrist))
			assert.Equal(t, tt.want, res.Phase, "elbow angle %.1f", res.ElbowAngle)
			assert.Equal(t, biomech.Left, res.Side)
		})
	}
}

func TestWristVelocityDoesNotSplitPullAndPush(t *testing.T) {
	t.Parallel()

	c := New(Config{UnderwaterMarginPx: 10, EntryMinElbow: 140, PullMinElbow: 90, FPS: 25})

	first := c.Classify(arm(t, pose.Point{100, 150}, pose.Point{60, 175}))
	assert.Zero(t, first.WristVelocity, "no previous sample")

	// Same elbow geometry shifted up by 4px: wrist rises.
	rising := c.Classify(arm(t, pose.Point{100, 146}, pose.Point{60, 171}))
	assert.InDelta(t, -4*25, rising.WristVelocity, 1e-9)
	assert.Equal(t, first.Phase, rising.Phase)

	sinking := c.Classify(arm(t, pose.Point{100, 150}, pose.Point{60, 175}))
	assert.InDelta(t, 4*25, sinking.WristVelocity, 1e-9)
	assert.Equal(t, biomech.PhasePull, sinking.Phase)
}

func TestNoTransitionLegality(t *testing.T) {
	t.Parallel()

	c := New(DefaultConfig())
	push := arm(t, pose.Point{130, 140}, pose.Point{100, 160})
	entry := arm(t, pose.Point{70, 110}, pose.Point{40, 125})

	assert.Equal(t, biomech.PhasePush, c.Classify(push).Phase)
	assert.Equal(t, biomech.PhaseEntry, c.Classify(entry).Phase, "Push may jump straight to Entry")
	assert.Equal(t, biomech.PhasePush, c.Classify(push).Phase)
}
