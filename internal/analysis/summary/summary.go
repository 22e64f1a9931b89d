// Package summary aggregates a session's frame records into statistics,
// coaching diagnostics and best/worst frame references.
package summary

import (
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/swimform/swimform-go/internal/analysis/events"
	"github.com/swimform/swimform-go/internal/analysis/record"
	"github.com/swimform/swimform-go/internal/analysis/scene"
	"github.com/swimform/swimform-go/internal/biomech"
)

// DefaultConfidenceFloor is the minimum frame confidence used for averages.
const DefaultConfidenceFloor = 0.5

// DroppedElbowMinAngle is the elbow angle above which a Pull frame counts
// toward the dropped-elbow percentage.
const DroppedElbowMinAngle = 100.0

// Config configures aggregation.
type Config struct {
	ConfidenceFloor float64
	Thresholds      Thresholds
}

// DefaultConfig returns the standard aggregation settings.
func DefaultConfig() Config {
	return Config{
		ConfidenceFloor: DefaultConfidenceFloor,
		Thresholds:      DefaultThresholds(),
	}
}

// StrokeStats are the stroke detector totals.
type StrokeStats struct {
	Count int
	First float64
	Last  float64
}

// Input is everything the aggregator needs from a finished session.
type Input struct {
	Records []record.FrameRecord
	Strokes StrokeStats
	Breaths events.BreathCounts
	Context scene.Context
	Best    *Champion
	Worst   *Champion
}

// FrameRef points at a retained frame.
type FrameRef struct {
	FrameIndex int     `json:"frame_index"`
	Timestamp  float64 `json:"timestamp"`
	Score      float64 `json:"score"`
	HasImage   bool    `json:"has_image"`
}

// SessionSummary is the end-of-session report.
type SessionSummary struct {
	Frames             int     `json:"frames"`
	FramesUsed         int     `json:"frames_used"`
	ConfidenceFallback bool    `json:"confidence_fallback"`
	Duration           float64 `json:"duration"`

	AvgScore        float64 `json:"avg_score"`
	MinScore        float64 `json:"min_score"`
	MaxScore        float64 `json:"max_score"`
	AvgElbowAngle   float64 `json:"avg_elbow_angle"`
	AvgLateral      float64 `json:"avg_lateral"`
	AvgVerticalDrop float64 `json:"avg_vertical_drop"`
	AvgDeviation    float64 `json:"avg_deviation"`
	MaxDeviation    float64 `json:"max_deviation"`
	AvgBodyRoll     float64 `json:"avg_body_roll"`
	MaxBodyRoll     float64 `json:"max_body_roll"`
	AvgKickDepth    float64 `json:"avg_kick_depth"`
	AvgKickSymmetry float64 `json:"avg_kick_symmetry"`
	AvgTorsoLean    float64 `json:"avg_torso_lean"`
	AvgCatchAngle   float64 `json:"avg_catch_angle"` // Pull frames only
	AvgHeadLift     float64 `json:"avg_head_lift"`

	RecoveryFrames         int     `json:"recovery_frames"`
	AvgRecoveryElbowHeight float64 `json:"avg_recovery_elbow_height"` // Recovery frames only, torso lengths

	StrokeCount int     `json:"stroke_count"`
	StrokeRate  float64 `json:"stroke_rate"` // strokes per minute

	Breaths    events.BreathCounts `json:"breaths"`
	BreathRate float64             `json:"breath_rate"` // breaths per minute

	DroppedElbowPct float64 `json:"dropped_elbow_pct"`
	GlideRatio      float64 `json:"glide_ratio"`
	AvgGlideScore   float64 `json:"avg_glide_score"`

	AlignmentStatus string `json:"alignment_status"`
	KickStatus      string `json:"kick_status"`
	CatchStatus     string `json:"catch_status"`

	Context     scene.Context `json:"context"`
	Diagnostics []string      `json:"diagnostics"`

	Best  *FrameRef `json:"best,omitempty"`
	Worst *FrameRef `json:"worst,omitempty"`
}

// Summarize aggregates a session. Frames under the confidence floor are
// left out of averages unless that would leave nothing, in which case every
// frame is used.
func Summarize(in Input, cfg Config) SessionSummary {
	s := SessionSummary{
		Frames:      len(in.Records),
		Breaths:     in.Breaths,
		StrokeCount: in.Strokes.Count,
		Context:     in.Context,
		Best:        in.Best.ref(),
		Worst:       in.Worst.ref(),
	}

	used := filterConfidence(in.Records, cfg.ConfidenceFloor)
	if len(used) == 0 {
		used = in.Records
		s.ConfidenceFallback = len(in.Records) > 0
	}
	s.FramesUsed = len(used)

	if n := len(in.Records); n > 1 {
		s.Duration = in.Records[n-1].Timestamp - in.Records[0].Timestamp
	}
	if in.Strokes.Count > 1 {
		if span := in.Strokes.Last - in.Strokes.First; span > 0 {
			s.StrokeRate = float64(in.Strokes.Count-1) / span * 60
		}
	}
	if s.Duration > 0 {
		s.BreathRate = float64(in.Breaths.Total) / s.Duration * 60
	}

	if len(used) > 0 {
		s.fillMetrics(used)
	}
	s.DroppedElbowPct = droppedElbowPct(used)

	s.AlignmentStatus = biomech.AlignmentStatus(s.AvgDeviation)
	s.KickStatus = biomech.KickStatus(s.AvgKickDepth)
	s.CatchStatus = biomech.CatchStatus(s.AvgCatchAngle, s.DroppedElbowPct > cfg.Thresholds.DroppedElbowPct)

	s.Diagnostics = Diagnose(s, in.Context, cfg.Thresholds)
	return s
}

func filterConfidence(records []record.FrameRecord, floor float64) []record.FrameRecord {
	out := make([]record.FrameRecord, 0, len(records))
	for _, r := range records {
		if r.Confidence >= floor {
			out = append(out, r)
		}
	}
	return out
}

func (s *SessionSummary) fillMetrics(used []record.FrameRecord) {
	n := len(used)
	scores := make([]float64, n)
	elbow := make([]float64, n)
	lateral := make([]float64, n)
	vertical := make([]float64, n)
	deviation := make([]float64, n)
	roll := make([]float64, n)
	kick := make([]float64, n)
	symmetry := make([]float64, n)
	torso := make([]float64, n)
	head := make([]float64, n)
	var catch, glide, recovery []float64

	for i, r := range used {
		m := r.Smoothed
		scores[i] = r.Score
		elbow[i] = m.ElbowAngle
		lateral[i] = m.Lateral
		vertical[i] = m.VerticalDrop
		deviation[i] = m.Deviation
		roll[i] = m.BodyRoll
		kick[i] = m.KickDepth
		symmetry[i] = m.KickSymmetry
		torso[i] = m.TorsoLean
		head[i] = m.HeadLift
		switch r.Phase {
		case biomech.PhasePull:
			catch = append(catch, m.CatchAngle)
		case biomech.PhaseRecovery:
			recovery = append(recovery, m.RecoveryElbowHeight)
		}
		if r.Flags.Gliding {
			glide = append(glide, r.Raw.GlideScore)
		}
	}

	s.AvgScore = stat.Mean(scores, nil)
	s.MinScore = floats.Min(scores)
	s.MaxScore = floats.Max(scores)
	s.AvgElbowAngle = stat.Mean(elbow, nil)
	s.AvgLateral = stat.Mean(lateral, nil)
	s.AvgVerticalDrop = stat.Mean(vertical, nil)
	s.AvgDeviation = stat.Mean(deviation, nil)
	s.MaxDeviation = floats.Max(deviation)
	s.AvgBodyRoll = stat.Mean(roll, nil)
	s.MaxBodyRoll = floats.Max(roll)
	s.AvgKickDepth = stat.Mean(kick, nil)
	s.AvgKickSymmetry = stat.Mean(symmetry, nil)
	s.AvgTorsoLean = stat.Mean(torso, nil)
	s.AvgHeadLift = stat.Mean(head, nil)
	if len(catch) > 0 {
		s.AvgCatchAngle = stat.Mean(catch, nil)
	}
	s.RecoveryFrames = len(recovery)
	if len(recovery) > 0 {
		s.AvgRecoveryElbowHeight = stat.Mean(recovery, nil)
	}
	s.GlideRatio = float64(len(glide)) / float64(n)
	if len(glide) > 0 {
		s.AvgGlideScore = stat.Mean(glide, nil)
	}
}

// droppedElbowPct is the share of qualifying Pull frames with a dropped
// elbow, in [0,100]. Zero when no frame qualifies.
func droppedElbowPct(records []record.FrameRecord) float64 {
	var qualifying, dropped int
	for _, r := range records {
		if r.Phase != biomech.PhasePull || r.Raw.ElbowAngle <= DroppedElbowMinAngle {
			continue
		}
		qualifying++
		if r.Flags.DroppedElbow {
			dropped++
		}
	}
	if qualifying == 0 {
		return 0
	}
	return 100 * float64(dropped) / float64(qualifying)
}
