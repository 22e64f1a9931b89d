// Package annotate draws the detected skeleton and a score bar over a copy
// of a frame.
package annotate

import (
	"github.com/fogleman/gg"

	"github.com/swimform/swimform-go/internal/framesource"
	"github.com/swimform/swimform-go/internal/pose"
)

// Color is an rgb24 pixel.
type Color struct{ R, G, B uint8 }

// Style configures the overlay.
type Style struct {
	Bone        Color
	Joint       Color
	BoneWidth   float64 // stroke width in pixels
	JointRadius float64 // joint marker radius in pixels
	ScoreBar    bool
}

// DefaultStyle returns the standard overlay style.
func DefaultStyle() Style {
	return Style{
		Bone:        Color{0, 255, 0},
		Joint:       Color{255, 64, 64},
		BoneWidth:   3,
		JointRadius: 2.5,
		ScoreBar:    true,
	}
}

// bones are the skeleton segments.
var bones = [][2]pose.Landmark{
	{pose.LeftShoulder, pose.RightShoulder},
	{pose.LeftShoulder, pose.LeftElbow},
	{pose.LeftElbow, pose.LeftWrist},
	{pose.RightShoulder, pose.RightElbow},
	{pose.RightElbow, pose.RightWrist},
	{pose.LeftShoulder, pose.LeftHip},
	{pose.RightShoulder, pose.RightHip},
	{pose.LeftHip, pose.RightHip},
	{pose.LeftHip, pose.LeftKnee},
	{pose.LeftKnee, pose.LeftAnkle},
	{pose.RightHip, pose.RightKnee},
	{pose.RightKnee, pose.RightAnkle},
}

// Frame returns an annotated copy of f with identical dimensions. The input
// is not modified. score in [0,100] sets the length of the bar along the top
// edge, colored from red to green.
func Frame(f *framesource.Frame, kp pose.KeypointSet, score float64, style Style) *framesource.Frame {
	out := f.Clone()
	if !out.HasPixels() {
		return out
	}

	img := out.RGBA()
	dc := gg.NewContextForRGBA(img)

	dc.SetRGB255(int(style.Bone.R), int(style.Bone.G), int(style.Bone.B))
	dc.SetLineWidth(max(style.BoneWidth, 1))
	dc.SetLineCap(gg.LineCapRound)
	for _, b := range bones {
		p, q := kp.Pt(b[0]), kp.Pt(b[1])
		dc.DrawLine(p.X, p.Y, q.X, q.Y)
		dc.Stroke()
	}

	dc.SetRGB255(int(style.Joint.R), int(style.Joint.G), int(style.Joint.B))
	for _, l := range pose.Landmarks() {
		p := kp.Pt(l)
		dc.DrawCircle(p.X, p.Y, max(style.JointRadius, 1))
		dc.Fill()
	}

	if style.ScoreBar {
		score = min(max(score, 0), 100)
		dc.SetRGB255(int(255*(100-score)/100), int(255*score/100), 0)
		dc.DrawRectangle(0, 0, float64(out.Width)*score/100, barHeight)
		dc.Fill()
	}

	out.CopyFrom(img)
	return out
}

const barHeight = 4
