// Package biomech computes stroke metrics from a single keypoint set. All
// functions are stateless; degenerate geometry yields neutral values.
package biomech

import (
	"math"

	"github.com/swimform/swimform-go/internal/pose"
)

// epsilon is the length below which a vector or span counts as degenerate.
const epsilon = 1e-6

// Side selects the left or right limb.
type Side string

const (
	Left  Side = "left"
	Right Side = "right"
)

// Phase is the stroke-cycle position of the pulling arm.
type Phase string

const (
	PhaseEntry    Phase = "Entry"
	PhasePull     Phase = "Pull"
	PhasePush     Phase = "Push"
	PhaseRecovery Phase = "Recovery"
)

// Underwater reports whether the phase has the hand in the water.
func (p Phase) Underwater() bool {
	return p == PhaseEntry || p == PhasePull || p == PhasePush
}

// Angle returns the angle ABC at vertex b in degrees, in [0,180]. A
// zero-length ray gives 0.
func Angle(a, b, c pose.Point) float64 {
	ba := a.Sub(b)
	bc := c.Sub(b)
	la, lc := ba.Len(), bc.Len()
	if la < epsilon || lc < epsilon {
		return 0
	}
	cos := (ba.X*bc.X + ba.Y*bc.Y) / (la * lc)
	cos = min(max(cos, -1), 1)
	return degrees(math.Acos(cos))
}

// tiltFromHorizontal returns the angle of segment a->b above or below the
// horizontal, folded to [0,90].
func tiltFromHorizontal(a, b pose.Point) float64 {
	d := b.Sub(a)
	if d.Len() < epsilon {
		return 0
	}
	return degrees(math.Atan2(math.Abs(d.Y), math.Abs(d.X)))
}

// dropFromHorizontal returns the signed angle of a->b relative to the
// horizontal. Positive means b lies lower in the image than a.
func dropFromHorizontal(a, b pose.Point) float64 {
	d := b.Sub(a)
	if d.Len() < epsilon {
		return 0
	}
	return degrees(math.Atan2(d.Y, math.Abs(d.X)))
}

// perpendicularDistance returns the distance of p from the line through a
// and b, or 0 when a and b coincide.
func perpendicularDistance(p, a, b pose.Point) float64 {
	ab := b.Sub(a)
	l := ab.Len()
	if l < epsilon {
		return 0
	}
	ap := p.Sub(a)
	return math.Abs(ab.X*ap.Y-ab.Y*ap.X) / l
}

func degrees(rad float64) float64 {
	return rad * 180 / math.Pi
}

func limb(side Side) (shoulder, elbow, wrist pose.Landmark) {
	if side == Left {
		return pose.LeftShoulder, pose.LeftElbow, pose.LeftWrist
	}
	return pose.RightShoulder, pose.RightElbow, pose.RightWrist
}

// ElbowAngle returns the shoulder-elbow-wrist angle for side.
func ElbowAngle(kp pose.KeypointSet, side Side) float64 {
	s, e, w := limb(side)
	return Angle(kp.Pt(s), kp.Pt(e), kp.Pt(w))
}

// KneeAngle returns the hip-knee-ankle angle for side.
func KneeAngle(kp pose.KeypointSet, side Side) float64 {
	if side == Left {
		return Angle(kp.Pt(pose.LeftHip), kp.Pt(pose.LeftKnee), kp.Pt(pose.LeftAnkle))
	}
	return Angle(kp.Pt(pose.RightHip), kp.Pt(pose.RightKnee), kp.Pt(pose.RightAnkle))
}

// PullingSide returns the arm whose wrist is lower in the image, i.e. deeper
// in the water. Ties go to the left arm.
func PullingSide(kp pose.KeypointSet) Side {
	if kp.Pt(pose.RightWrist).Y > kp.Pt(pose.LeftWrist).Y {
		return Right
	}
	return Left
}

// Arm returns the shoulder, elbow and wrist positions for side.
func Arm(kp pose.KeypointSet, side Side) (shoulder, elbow, wrist pose.Point) {
	s, e, w := limb(side)
	return kp.Pt(s), kp.Pt(e), kp.Pt(w)
}
