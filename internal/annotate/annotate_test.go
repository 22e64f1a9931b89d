package annotate

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/swimform/swimform-go/internal/framesource"
	"github.com/swimform/swimform-go/internal/pose"
)

func skeleton(t *testing.T) pose.KeypointSet {
	t.Helper()
	base := map[pose.Landmark]pose.Point{
		pose.Nose:          {X: 10, Y: 20},
		pose.LeftShoulder:  {X: 20, Y: 20},
		pose.RightShoulder: {X: 20, Y: 30},
		pose.LeftElbow:     {X: 30, Y: 10},
		pose.RightElbow:    {X: 30, Y: 40},
		pose.LeftWrist:     {X: 40, Y: 10},
		pose.RightWrist:    {X: 40, Y: 40},
		pose.LeftHip:       {X: 50, Y: 20},
		pose.RightHip:      {X: 50, Y: 30},
		pose.LeftKnee:      {X: 70, Y: 20},
		pose.RightKnee:     {X: 70, Y: 30},
		pose.LeftAnkle:     {X: 90, Y: 20},
		pose.RightAnkle:    {X: 95, Y: 30},
	}
	points := make(map[pose.Landmark]pose.Keypoint, len(base))
	for l, p := range base {
		points[l] = pose.Keypoint{X: p.X, Y: p.Y, Visibility: 1}
	}
	set, err := pose.NewKeypointSet(points)
	require.NoError(t, err)
	return set
}

func TestFrameDrawsOnCopy(t *testing.T) {
	t.Parallel()

	src := framesource.NewFrame(100, 50)
	out := Frame(src, skeleton(t), 50, DefaultStyle())

	require.NotSame(t, src, out)
	assert.Equal(t, src.Width, out.Width)
	assert.Equal(t, src.Height, out.Height)
	assert.Len(t, out.Data, len(src.Data))
	for _, b := range src.Data {
		require.Zero(t, b, "source frame untouched")
	}

	// Mid-point of the left upper arm lies inside the bone stroke.
	r, g, b := out.At(25, 15)
	assertColor(t, Color{0, 255, 0}, r, g, b)

	// Joint marker.
	r, g, b = out.At(40, 10)
	assertColor(t, Color{255, 64, 64}, r, g, b)

	// Score bar covers half the width.
	r, g, _ = out.At(10, 0)
	assert.Equal(t, uint8(127), r)
	assert.Equal(t, uint8(127), g)
	r, g, b = out.At(60, 0)
	assert.Equal(t, [3]uint8{0, 0, 0}, [3]uint8{r, g, b})
}

func TestFrameClipsOffscreenLandmarks(t *testing.T) {
	t.Parallel()

	src := framesource.NewFrame(30, 30)
	out := Frame(src, skeleton(t), 0, Style{Bone: Color{1, 2, 3}, Joint: Color{4, 5, 6}, BoneWidth: 1, JointRadius: 1})
	assert.Len(t, out.Data, 30*30*framesource.BytesPerPixel)
}

func TestFrameWithoutPixels(t *testing.T) {
	t.Parallel()

	src := &framesource.Frame{Width: 10, Height: 10}
	out := Frame(src, skeleton(t), 80, DefaultStyle())
	assert.Equal(t, 10, out.Width)
	assert.Empty(t, out.Data)
}

func TestBoneWidth(t *testing.T) {
	t.Parallel()

	painted := func(width float64) int {
		src := framesource.NewFrame(100, 50)
		out := Frame(src, skeleton(t), 0, Style{Bone: Color{G: 255}, Joint: Color{G: 255}, BoneWidth: width, JointRadius: 1})
		n := 0
		for i := 0; i < len(out.Data); i += framesource.BytesPerPixel {
			if out.Data[i+1] > 0 {
				n++
			}
		}
		return n
	}

	thin, thick := painted(1), painted(5)
	assert.Positive(t, thin)
	assert.Greater(t, thick, 2*thin)
}

func assertColor(t *testing.T, want Color, r, g, b uint8) {
	t.Helper()
	assert.InDelta(t, want.R, r, 2)
	assert.InDelta(t, want.G, g, 2)
	assert.InDelta(t, want.B, b, 2)
}
