package biomech

import (
	"math"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/swimform/swimform-go/internal/pose"
)

// swimmer returns a horizontal side-view swimmer with the given overrides.
func swimmer(t *testing.T, overrides map[pose.Landmark]pose.Point) pose.KeypointSet {
	t.Helper()
	base := map[pose.Landmark]pose.Point{
		pose.Nose:          {X: 90, Y: 101},
		pose.LeftShoulder:  {X: 110, Y: 100},
		pose.RightShoulder: {X: 112, Y: 102},
		pose.LeftElbow:     {X: 130, Y: 140},
		pose.RightElbow:    {X: 100, Y: 80},
		pose.LeftWrist:     {X: 135, Y: 190},
		pose.RightWrist:    {X: 80, Y: 70},
		pose.LeftHip:       {X: 210, Y: 100},
		pose.RightHip:      {X: 212, Y: 102},
		pose.LeftKnee:      {X: 300, Y: 105},
		pose.RightKnee:     {X: 302, Y: 100},
		pose.LeftAnkle:     {X: 390, Y: 100},
		pose.RightAnkle:    {X: 392, Y: 102},
	}
	points := make(map[pose.Landmark]pose.Keypoint, len(base))
	for l, p := range base {
		if o, ok := overrides[l]; ok {
			p = o
		}
		points[l] = pose.Keypoint{X: p.X, Y: p.Y, Visibility: 0.9}
	}
	set, err := pose.NewKeypointSet(points)
	require.NoError(t, err)
	return set
}

func TestAngle(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		a, b, c pose.Point
		want    float64
	}{
		{"right angle", pose.Point{X: 1, Y: 0}, pose.Point{X: 0, Y: 0}, pose.Point{X: 0, Y: 1}, 90},
		{"straight", pose.Point{X: -1, Y: 0}, pose.Point{X: 0, Y: 0}, pose.Point{X: 1, Y: 0}, 180},
		{"folded", pose.Point{X: 1, Y: 0}, pose.Point{X: 0, Y: 0}, pose.Point{X: 2, Y: 0}, 0},
		{"degenerate ray", pose.Point{X: 0, Y: 0}, pose.Point{X: 0, Y: 0}, pose.Point{X: 1, Y: 0}, 0},
		{"45 degrees", pose.Point{X: 1, Y: 0}, pose.Point{X: 0, Y: 0}, pose.Point{X: 1, Y: 1}, 45},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.InDelta(t, tt.want, Angle(tt.a, tt.b, tt.c), 1e-9)
		})
	}
}

func TestHorizontalLineWithRolledShoulders(t *testing.T) {
	t.Parallel()

	kp := swimmer(t, map[pose.Landmark]pose.Point{
		pose.LeftShoulder:  {X: 100, Y: 100},
		pose.RightShoulder: {X: 120, Y: 120},
		pose.LeftHip:       {X: 210, Y: 110},
		pose.RightHip:      {X: 210, Y: 110},
		pose.LeftAnkle:     {X: 410, Y: 110},
		pose.RightAnkle:    {X: 410, Y: 110},
	})

	a := ComputeAlignment(kp)
	assert.InDelta(t, 0, a.VerticalDrop, 1e-9)
	assert.InDelta(t, 0, a.Lateral, 1e-9)
	assert.Equal(t, StatusGoodAlignment, a.Status)
	assert.InDelta(t, 45, BodyRoll(kp), 1e-9)
}

func TestAlignmentCountsOnlySinking(t *testing.T) {
	t.Parallel()

	sinking := swimmer(t, map[pose.Landmark]pose.Point{
		pose.LeftAnkle:  {X: 390, Y: 160},
		pose.RightAnkle: {X: 390, Y: 160},
	})
	rising := swimmer(t, map[pose.Landmark]pose.Point{
		pose.LeftAnkle:  {X: 390, Y: 40},
		pose.RightAnkle: {X: 390, Y: 40},
		pose.LeftHip:    {X: 210, Y: 70},
		pose.RightHip:   {X: 210, Y: 70},
	})

	assert.Greater(t, ComputeAlignment(sinking).VerticalDrop, 10.0)
	assert.InDelta(t, 0, ComputeAlignment(rising).VerticalDrop, 1e-9)
}

func TestAlignmentStatusBands(t *testing.T) {
	t.Parallel()
	assert.Equal(t, StatusGoodAlignment, AlignmentStatus(9.9))
	assert.Equal(t, StatusModerateAlignment, AlignmentStatus(10))
	assert.Equal(t, StatusPoorAlignment, AlignmentStatus(20))
}

func TestDroppedElbowScenario(t *testing.T) {
	t.Parallel()

	dx := 10 * math.Tan(10*math.Pi/180)
	kp := swimmer(t, map[pose.Landmark]pose.Point{
		pose.LeftShoulder: {X: 180, Y: 110},
		pose.LeftElbow:    {X: 200, Y: 150},
		pose.LeftWrist:    {X: 200 + dx, Y: 160},
	})

	c := ComputeCatch(kp)
	assert.Equal(t, Left, c.Side)
	assert.True(t, c.DroppedElbow)
	assert.Equal(t, StatusDroppedElbow, c.Status)
	assert.InDelta(t, 10, c.ForearmAngle, 1e-6)
	assert.InDelta(t, 45, c.EffectiveAngle, 1e-6)
}

func TestHighElbowCatch(t *testing.T) {
	t.Parallel()

	kp := swimmer(t, map[pose.Landmark]pose.Point{
		pose.LeftElbow: {X: 140, Y: 120},
		pose.LeftWrist: {X: 145, Y: 190},
	})
	c := ComputeCatch(kp)
	assert.False(t, c.DroppedElbow)
	assert.Less(t, c.EffectiveAngle, 20.0)
	assert.Equal(t, StatusExcellentEVF, c.Status)
}

func TestCatchStatusBands(t *testing.T) {
	t.Parallel()
	assert.Equal(t, StatusExcellentEVF, CatchStatus(20, false))
	assert.Equal(t, StatusGoodEVF, CatchStatus(35, false))
	assert.Equal(t, StatusOKCatch, CatchStatus(50, false))
	assert.Equal(t, StatusSweeping, CatchStatus(50.1, false))
	assert.Equal(t, StatusDroppedElbow, CatchStatus(5, true))
}

func TestKickDepth(t *testing.T) {
	t.Parallel()

	straight := swimmer(t, map[pose.Landmark]pose.Point{
		pose.LeftKnee:  {X: 300, Y: 100},
		pose.RightKnee: {X: 302, Y: 102},
	})
	assert.InDelta(t, 0, ComputeKick(straight).Depth, 1e-9)

	bent := swimmer(t, map[pose.Landmark]pose.Point{
		pose.LeftKnee:  {X: 300, Y: 118},
		pose.RightKnee: {X: 302, Y: 102},
	})
	k := ComputeKick(bent)
	assert.InDelta(t, 18.0/180/2, k.Depth, 1e-9)
	assert.Greater(t, k.Symmetry, 0.0)
	assert.Equal(t, StatusMinimalKick, KickStatus(0.01))
	assert.Equal(t, StatusGoodKick, KickStatus(0.05))
	assert.Equal(t, StatusDeepKick, KickStatus(0.15))
	assert.Equal(t, StatusVeryDeepKick, KickStatus(0.3))
}

func TestGlide(t *testing.T) {
	t.Parallel()

	extended := swimmer(t, map[pose.Landmark]pose.Point{
		pose.RightElbow: {X: 80, Y: 101},
		pose.RightWrist: {X: 50, Y: 100},
	})

	g := ComputeGlide(extended, PhaseEntry, 3)
	require.True(t, g.Gliding)
	assert.Equal(t, Right, g.LeadSide)
	assert.Greater(t, g.ElbowAngle, 170.0)
	assert.InDelta(t, GlideScore(g.ElbowAngle, 3), g.Score, 1e-9)
	assert.LessOrEqual(t, g.Score, 100.0)

	assert.False(t, ComputeGlide(extended, PhasePush, 3).Gliding, "phase gate")
	assert.False(t, ComputeGlide(extended, PhaseEntry, 15).Gliding, "alignment gate")

	assert.InDelta(t, 100, GlideScore(180, 0), 1e-9)
	assert.InDelta(t, 20+25+12, GlideScore(160, 7), 1e-9)
	assert.InDelta(t, 0+10+5, GlideScore(140, 12), 1e-9)
}

func TestHeadLiftAndRecovery(t *testing.T) {
	t.Parallel()

	level := swimmer(t, nil)
	assert.InDelta(t, 0, HeadLift(level), 1e-9)

	lifted := swimmer(t, map[pose.Landmark]pose.Point{pose.Nose: {X: 91, Y: 81}})
	assert.InDelta(t, 45, HeadLift(lifted), 1e-9)

	// Right wrist is higher, so the right arm recovers; its elbow sits 22px
	// above the right shoulder with a 100px torso.
	assert.InDelta(t, 0.22, RecoveryElbowHeight(level), 1e-9)
}

func TestDegenerateGeometry(t *testing.T) {
	t.Parallel()

	points := make(map[pose.Landmark]pose.Keypoint)
	for _, l := range pose.Landmarks() {
		points[l] = pose.Keypoint{X: 50, Y: 50, Visibility: 1}
	}
	kp, err := pose.NewKeypointSet(points)
	require.NoError(t, err)

	assert.Zero(t, ComputeAlignment(kp).Deviation)
	assert.Zero(t, ComputeKick(kp).Depth)
	assert.Zero(t, ComputeCatch(kp).ForearmAngle)
	assert.Zero(t, BodyRoll(kp))
	assert.Zero(t, TorsoLean(kp))
	assert.Zero(t, RecoveryElbowHeight(kp))
}

func TestRandomPosesStayInRange(t *testing.T) {
	t.Parallel()

	rng := rand.New(rand.NewPCG(7, 11))
	for range 2000 {
		points := make(map[pose.Landmark]pose.Keypoint)
		for _, l := range pose.Landmarks() {
			points[l] = pose.Keypoint{X: rng.Float64() * 640, Y: rng.Float64() * 360, Visibility: rng.Float64()}
		}
		kp, err := pose.NewKeypointSet(points)
		require.NoError(t, err)

		for _, side := range []Side{Left, Right} {
			assertAngle(t, ElbowAngle(kp, side))
			assertAngle(t, KneeAngle(kp, side))
		}
		c := ComputeCatch(kp)
		assertAngle(t, c.ElbowAngle)
		assertAngle(t, c.ForearmAngle)

		a := ComputeAlignment(kp)
		assert.GreaterOrEqual(t, a.Lateral, 0.0)
		assert.GreaterOrEqual(t, a.VerticalDrop, 0.0)
		assert.GreaterOrEqual(t, a.Deviation, 0.0)

		k := ComputeKick(kp)
		assert.GreaterOrEqual(t, k.Depth, 0.0)
		assertAngle(t, k.Symmetry)

		g := ComputeGlide(kp, PhasePull, a.Deviation)
		assert.GreaterOrEqual(t, g.Score, 0.0)
		assert.LessOrEqual(t, g.Score, 100.0)
	}
}

func assertAngle(t *testing.T, v float64) {
	t.Helper()
	assert.GreaterOrEqual(t, v, 0.0)
	assert.LessOrEqual(t, v, 180.0)
}
