package biomech

import (
	"math"

	"github.com/swimform/swimform-go/internal/pose"
)

// Alignment status thresholds on combined deviation, degrees.
const (
	alignmentGoodMax     = 10.0
	alignmentModerateMax = 20.0

	StatusGoodAlignment     = "Good alignment"
	StatusModerateAlignment = "Moderate alignment"
	StatusPoorAlignment     = "Poor alignment"
)

// Catch thresholds. The pixel margin and shoulder ratio were tuned on
// side-view footage around 720p and are not known to generalize.
const (
	// DroppedElbowMarginPx is how far (pixels) the wrist must hang below the
	// elbow for the elbow to count as held high.
	DroppedElbowMarginPx = 15.0
	// ElbowBelowShoulderRatio is the elbow depth below the shoulder, as a
	// fraction of torso length, beyond which the elbow has dropped.
	ElbowBelowShoulderRatio = 0.9
	// DroppedElbowPenalty is added to the forearm angle of a dropped elbow.
	DroppedElbowPenalty = 35.0

	evfExcellentMax = 20.0
	evfGoodMax      = 35.0
	evfOKMax        = 50.0

	StatusDroppedElbow = "DROPPED ELBOW"
	StatusExcellentEVF = "Excellent EVF"
	StatusGoodEVF      = "Good EVF"
	StatusOKCatch      = "OK catch"
	StatusSweeping     = "Sweeping"
)

// Glide thresholds.
const (
	GlideMinElbowAngle = 140.0
	GlideMaxDeviation  = 15.0

	glideExtensionRange = 40.0
	glideExtensionMax   = 40.0
)

// Kick status thresholds on normalized depth.
const (
	kickMinimalMax = 0.02
	kickGoodMax    = 0.10
	kickDeepMax    = 0.20

	StatusMinimalKick  = "Minimal kick"
	StatusGoodKick     = "Good kick"
	StatusDeepKick     = "Slightly deep kick"
	StatusVeryDeepKick = "Kick too deep"
)

// Alignment is the straightness of the shoulder-hip-ankle line.
type Alignment struct {
	Lateral      float64 `json:"lateral"`       // hip offset from the shoulder-ankle line, degrees
	VerticalDrop float64 `json:"vertical_drop"` // sinking of hips or legs, degrees
	Deviation    float64 `json:"deviation"`     // Lateral + VerticalDrop
	Status       string  `json:"status"`
}

// ComputeAlignment measures body-line alignment.
func ComputeAlignment(kp pose.KeypointSet) Alignment {
	shoulder, hip, ankle := kp.ShoulderMid(), kp.HipMid(), kp.AnkleMid()

	var lateral float64
	if half := pose.Dist(shoulder, ankle) / 2; half >= epsilon {
		offset := perpendicularDistance(hip, shoulder, ankle)
		lateral = degrees(math.Atan2(offset, half))
	}

	vertical := max(0, dropFromHorizontal(shoulder, ankle), dropFromHorizontal(shoulder, hip))

	a := Alignment{
		Lateral:      lateral,
		VerticalDrop: vertical,
		Deviation:    lateral + vertical,
	}
	a.Status = AlignmentStatus(a.Deviation)
	return a
}

// AlignmentStatus labels a combined deviation.
func AlignmentStatus(deviation float64) string {
	switch {
	case deviation < alignmentGoodMax:
		return StatusGoodAlignment
	case deviation < alignmentModerateMax:
		return StatusModerateAlignment
	default:
		return StatusPoorAlignment
	}
}

// Catch describes the pulling arm's forearm position.
type Catch struct {
	Side           Side    `json:"side"`
	ElbowAngle     float64 `json:"elbow_angle"`
	ForearmAngle   float64 `json:"forearm_angle"`   // forearm from vertical, degrees
	EffectiveAngle float64 `json:"effective_angle"` // ForearmAngle plus dropped-elbow penalty
	DroppedElbow   bool    `json:"dropped_elbow"`
	Status         string  `json:"status"`
}

// ComputeCatch evaluates the catch on the arm with the lower wrist.
func ComputeCatch(kp pose.KeypointSet) Catch {
	side := PullingSide(kp)
	shoulder, elbow, wrist := Arm(kp, side)

	c := Catch{
		Side:         side,
		ElbowAngle:   Angle(shoulder, elbow, wrist),
		ForearmAngle: forearmFromVertical(elbow, wrist),
	}

	elbowNotAboveWrist := wrist.Y-elbow.Y < DroppedElbowMarginPx
	torso := kp.TorsoLength()
	elbowSunk := torso >= epsilon && elbow.Y-shoulder.Y > ElbowBelowShoulderRatio*torso
	c.DroppedElbow = elbowNotAboveWrist || elbowSunk

	c.EffectiveAngle = c.ForearmAngle
	if c.DroppedElbow {
		c.EffectiveAngle = min(c.ForearmAngle+DroppedElbowPenalty, 180)
	}
	c.Status = CatchStatus(c.EffectiveAngle, c.DroppedElbow)
	return c
}

// CatchStatus labels an effective catch angle.
func CatchStatus(effectiveAngle float64, dropped bool) string {
	switch {
	case dropped:
		return StatusDroppedElbow
	case effectiveAngle <= evfExcellentMax:
		return StatusExcellentEVF
	case effectiveAngle <= evfGoodMax:
		return StatusGoodEVF
	case effectiveAngle <= evfOKMax:
		return StatusOKCatch
	default:
		return StatusSweeping
	}
}

// forearmFromVertical is the angle between elbow->wrist and straight down.
func forearmFromVertical(elbow, wrist pose.Point) float64 {
	d := wrist.Sub(elbow)
	l := d.Len()
	if l < epsilon {
		return 0
	}
	cos := min(max(d.Y/l, -1), 1)
	return degrees(math.Acos(cos))
}

// Kick measures knee bend relative to the hip-ankle line.
type Kick struct {
	Depth    float64 `json:"depth"`    // mean normalized knee offset of both legs
	Left     float64 `json:"left"`     // left leg normalized offset
	Right    float64 `json:"right"`    // right leg normalized offset
	Symmetry float64 `json:"symmetry"` // |left knee angle - right knee angle|, degrees
	Status   string  `json:"status"`
}

// ComputeKick measures kick depth and symmetry.
func ComputeKick(kp pose.KeypointSet) Kick {
	left := legDepth(kp.Pt(pose.LeftHip), kp.Pt(pose.LeftKnee), kp.Pt(pose.LeftAnkle))
	right := legDepth(kp.Pt(pose.RightHip), kp.Pt(pose.RightKnee), kp.Pt(pose.RightAnkle))
	k := Kick{
		Left:     left,
		Right:    right,
		Depth:    (left + right) / 2,
		Symmetry: math.Abs(KneeAngle(kp, Left) - KneeAngle(kp, Right)),
	}
	k.Status = KickStatus(k.Depth)
	return k
}

func legDepth(hip, knee, ankle pose.Point) float64 {
	span := pose.Dist(hip, ankle)
	if span < epsilon {
		return 0
	}
	return perpendicularDistance(knee, hip, ankle) / span
}

// KickStatus labels a normalized kick depth.
func KickStatus(depth float64) string {
	switch {
	case depth < kickMinimalMax:
		return StatusMinimalKick
	case depth <= kickGoodMax:
		return StatusGoodKick
	case depth <= kickDeepMax:
		return StatusDeepKick
	default:
		return StatusVeryDeepKick
	}
}

// Glide describes lead-arm extension before the catch.
type Glide struct {
	Gliding    bool    `json:"gliding"`
	LeadSide   Side    `json:"lead_side"`
	ElbowAngle float64 `json:"elbow_angle"`
	Score      float64 `json:"score"` // 0-100, 0 when not gliding
}

// ComputeGlide evaluates the glide. Only Entry and Pull frames with an
// extended lead arm and a straight body line count as gliding.
func ComputeGlide(kp pose.KeypointSet, phase Phase, deviation float64) Glide {
	left, right := ElbowAngle(kp, Left), ElbowAngle(kp, Right)
	g := Glide{LeadSide: Left, ElbowAngle: left}
	if right > left {
		g.LeadSide, g.ElbowAngle = Right, right
	}

	if phase != PhaseEntry && phase != PhasePull {
		return g
	}
	if g.ElbowAngle <= GlideMinElbowAngle || deviation >= GlideMaxDeviation {
		return g
	}

	g.Gliding = true
	g.Score = GlideScore(g.ElbowAngle, deviation)
	return g
}

// GlideScore is extension (0-40) + alignment band (10-40) + angle bonus (5-20).
func GlideScore(elbowAngle, deviation float64) float64 {
	ext := min(max((elbowAngle-GlideMinElbowAngle)/glideExtensionRange, 0), 1) * glideExtensionMax

	var align float64
	switch {
	case deviation < 5:
		align = 40
	case deviation < 10:
		align = 25
	default:
		align = 10
	}

	var bonus float64
	switch {
	case elbowAngle >= 170:
		bonus = 20
	case elbowAngle >= 160:
		bonus = 12
	default:
		bonus = 5
	}
	return ext + align + bonus
}

// TorsoLean is the shoulder-hip line angle from horizontal, degrees in [0,90].
func TorsoLean(kp pose.KeypointSet) float64 {
	return tiltFromHorizontal(kp.ShoulderMid(), kp.HipMid())
}

// BodyRoll is the shoulder-line tilt from horizontal, degrees in [0,90].
func BodyRoll(kp pose.KeypointSet) float64 {
	return tiltFromHorizontal(kp.Pt(pose.LeftShoulder), kp.Pt(pose.RightShoulder))
}

// HeadLift is how far the nose rises above the shoulder line, degrees in
// [0,90]. Zero when the head is level or lower.
func HeadLift(kp pose.KeypointSet) float64 {
	return max(0, -dropFromHorizontal(kp.ShoulderMid(), kp.Pt(pose.Nose)))
}

// RecoveryElbowHeight is the recovering elbow's height above its shoulder as
// a fraction of torso length. The recovering arm is the one with the higher
// wrist. Negative values mean the elbow trails below the shoulder.
func RecoveryElbowHeight(kp pose.KeypointSet) float64 {
	side := Left
	if PullingSide(kp) == Left {
		side = Right
	}
	shoulder, elbow, _ := Arm(kp, side)
	torso := kp.TorsoLength()
	if torso < epsilon {
		return 0
	}
	return (shoulder.Y - elbow.Y) / torso
}
