package summary

import (
	"fmt"

	"github.com/swimform/swimform-go/internal/analysis/scene"
)

// Thresholds trigger the coaching diagnostics.
type Thresholds struct {
	DroppedElbowPct     float64 // percent of qualifying Pull frames
	SinkingDrop         float64 // average vertical drop, degrees
	SnakingLateral      float64 // average lateral deviation, degrees
	EVFAngle            float64 // average catch angle, degrees
	BreathInPullShare   float64 // share of breaths taken during Pull
	RollMin             float64
	RollMax             float64
	BreathImbalance     float64 // share of breaths to one side
	BreathImbalanceMinN int     // breaths required before judging balance
	GlideMax            float64 // glide ratio
	GlideMin            float64
	HeadLift            float64 // average head lift, degrees
	RecoveryElbowMin    float64 // average recovering elbow height, torso lengths
}

// DefaultThresholds returns the standard diagnostic thresholds.
func DefaultThresholds() Thresholds {
	return Thresholds{
		DroppedElbowPct:     30,
		SinkingDrop:         10,
		SnakingLateral:      8,
		EVFAngle:            35,
		BreathInPullShare:   0.30,
		RollMin:             25,
		RollMax:             65,
		BreathImbalance:     0.80,
		BreathImbalanceMinN: 4,
		GlideMax:            0.35,
		GlideMin:            0.05,
		HeadLift:            15,
		RecoveryElbowMin:    0.1,
	}
}

// AffirmativeMessage is the only diagnostic when nothing is flagged.
const AffirmativeMessage = "Solid stroke: no major technique issues detected. Keep it up."

// Diagnose returns the coaching messages in priority order. Each check runs
// only when the context can measure the metric behind it.
func Diagnose(s SessionSummary, ctx scene.Context, t Thresholds) []string {
	var out []string
	can := func(c scene.Capability) bool {
		return len(ctx.Capabilities) == 0 || ctx.Has(c)
	}

	droppedFlagged := false
	if can(scene.CapCatch) && s.DroppedElbowPct > t.DroppedElbowPct {
		droppedFlagged = true
		out = append(out, fmt.Sprintf(
			"Dropped elbow in %.0f%% of pull frames: keep the elbow high and press the forearm back.",
			s.DroppedElbowPct))
	}
	if can(scene.CapAlignment) && s.AvgVerticalDrop > t.SinkingDrop {
		out = append(out, fmt.Sprintf(
			"Hips and legs sink %.1f° below the line: press the chest down and engage the core.",
			s.AvgVerticalDrop))
	}
	if can(scene.CapAlignment) && s.AvgLateral > t.SnakingLateral {
		out = append(out, fmt.Sprintf(
			"Body snakes %.1f° side to side: avoid crossing over the centre line on entry.",
			s.AvgLateral))
	}
	if can(scene.CapCatch) && !droppedFlagged && s.AvgCatchAngle > t.EVFAngle {
		out = append(out, fmt.Sprintf(
			"Forearm is %.0f° from vertical in the catch: set up an earlier vertical forearm.",
			s.AvgCatchAngle))
	}
	if can(scene.CapBreathing) && s.Breaths.Total > 0 &&
		float64(s.Breaths.DuringPull)/float64(s.Breaths.Total) > t.BreathInPullShare {
		out = append(out, fmt.Sprintf(
			"%d of %d breaths taken during the pull: time the breath with the arm recovery.",
			s.Breaths.DuringPull, s.Breaths.Total))
	}
	if can(scene.CapBodyRoll) && s.FramesUsed > 0 {
		switch {
		case s.AvgBodyRoll < t.RollMin:
			out = append(out, fmt.Sprintf(
				"Body roll is only %.0f°: rotate more from the hips.", s.AvgBodyRoll))
		case s.AvgBodyRoll > t.RollMax:
			out = append(out, fmt.Sprintf(
				"Body roll reaches %.0f°: over-rotation costs stability.", s.AvgBodyRoll))
		}
	}
	if can(scene.CapBreathing) && s.Breaths.Total >= t.BreathImbalanceMinN {
		left := float64(s.Breaths.Left) / float64(s.Breaths.Total)
		right := float64(s.Breaths.Right) / float64(s.Breaths.Total)
		switch {
		case left >= t.BreathImbalance:
			out = append(out, fmt.Sprintf(
				"%.0f%% of breaths to the left: practise bilateral breathing.", left*100))
		case right >= t.BreathImbalance:
			out = append(out, fmt.Sprintf(
				"%.0f%% of breaths to the right: practise bilateral breathing.", right*100))
		}
	}
	if can(scene.CapGlide) && s.FramesUsed > 0 {
		switch {
		case s.GlideRatio > t.GlideMax:
			out = append(out, fmt.Sprintf(
				"Gliding in %.0f%% of frames: start the catch sooner to keep momentum.", s.GlideRatio*100))
		case s.GlideRatio < t.GlideMin:
			out = append(out, "Almost no glide: let the lead arm extend before the catch.")
		}
	}
	if can(scene.CapRecovery) && s.RecoveryFrames > 0 && s.AvgRecoveryElbowHeight < t.RecoveryElbowMin {
		out = append(out, "Elbow drags low over the water: lead the recovery with a high elbow and relaxed forearm.")
	}
	if can(scene.CapHeadPosition) && s.AvgHeadLift > t.HeadLift {
		out = append(out, fmt.Sprintf(
			"Head lifts %.0f° above the shoulder line: keep the eyes down.", s.AvgHeadLift))
	}

	if len(out) == 0 {
		out = append(out, AffirmativeMessage)
	}
	return out
}
