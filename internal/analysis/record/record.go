// Package record defines the per-frame analysis record shared by the session
// and its aggregators.
package record

import (
	"github.com/swimform/swimform-go/internal/analysis/events"
	"github.com/swimform/swimform-go/internal/analysis/scoring"
	"github.com/swimform/swimform-go/internal/biomech"
)

// Metrics are the geometric measurements of one frame. Angles are degrees;
// KickDepth is normalized by hip-ankle span; RecoveryElbowHeight by torso
// length.
type Metrics struct {
	ElbowAngle          float64 `json:"elbow_angle"`
	Lateral             float64 `json:"lateral"`
	VerticalDrop        float64 `json:"vertical_drop"`
	Deviation           float64 `json:"deviation"`
	BodyRoll            float64 `json:"body_roll"`
	KickDepth           float64 `json:"kick_depth"`
	KickSymmetry        float64 `json:"kick_symmetry"`
	TorsoLean           float64 `json:"torso_lean"`
	ForearmAngle        float64 `json:"forearm_angle"`
	CatchAngle          float64 `json:"catch_angle"`
	HeadLift            float64 `json:"head_lift"`
	RecoveryElbowHeight float64 `json:"recovery_elbow_height"`
	GlideScore          float64 `json:"glide_score"`
}

// Flags are the per-frame events and faults.
type Flags struct {
	DroppedElbow     bool `json:"dropped_elbow"`
	Gliding          bool `json:"gliding"`
	Stroke           bool `json:"stroke"`
	Breath           bool `json:"breath"`
	BreathDuringPull bool `json:"breath_during_pull"`
}

// FrameRecord is the analysis of one accepted frame. Records are created
// once and never modified.
type FrameRecord struct {
	Index      int               `json:"index"`
	Timestamp  float64           `json:"timestamp"`
	Confidence float64           `json:"confidence"`
	Phase      biomech.Phase     `json:"phase"`
	PullSide   biomech.Side      `json:"pull_side"`
	BreathSide events.BreathSide `json:"breath_side"`

	Raw      Metrics `json:"raw"`
	Smoothed Metrics `json:"smoothed"`

	AlignmentStatus string `json:"alignment_status"`
	CatchStatus     string `json:"catch_status"`
	KickStatus      string `json:"kick_status"`

	Score     float64           `json:"score"`
	SubScores scoring.SubScores `json:"sub_scores"`
	Penalty   float64           `json:"penalty"`
	Flags     Flags             `json:"flags"`
}
