package mqtt

import (
	"time"

	"github.com/swimform/swimform-go/internal/analysis"
	"github.com/swimform/swimform-go/internal/analysis/events"
	"github.com/swimform/swimform-go/internal/analysis/summary"
)

// Topic suffixes under {topic}/sessions/{id}/.
const (
	TopicStrokes = "strokes"
	TopicBreaths = "breaths"
	TopicSummary = "summary"
)

// StrokeEvent is published for every registered stroke.
type StrokeEvent struct {
	SessionID  string  `json:"session_id"`
	Frame      int     `json:"frame"`
	Timestamp  float64 `json:"timestamp"`
	Phase      string  `json:"phase"`
	PullSide   string  `json:"pull_side"`
	ElbowAngle float64 `json:"elbow_angle"`
	Score      float64 `json:"score"`
}

// BreathEvent is published for every registered breath.
type BreathEvent struct {
	SessionID  string  `json:"session_id"`
	Frame      int     `json:"frame"`
	Timestamp  float64 `json:"timestamp"`
	Side       string  `json:"side"`
	DuringPull bool    `json:"during_pull"`
	Phase      string  `json:"phase"`
}

// SummaryMessage is published once a session finishes.
type SummaryMessage struct {
	SessionID  string                 `json:"session_id"`
	Source     string                 `json:"source,omitempty"`
	FinishedAt time.Time              `json:"finished_at"`
	Summary    summary.SessionSummary `json:"summary"`
}

func newStrokeEvent(sessionID string, rec *analysis.FrameRecord) StrokeEvent {
	return StrokeEvent{
		SessionID:  sessionID,
		Frame:      rec.Index,
		Timestamp:  rec.Timestamp,
		Phase:      string(rec.Phase),
		PullSide:   string(rec.PullSide),
		ElbowAngle: rec.Smoothed.ElbowAngle,
		Score:      rec.Score,
	}
}

func newBreathEvent(sessionID string, side events.BreathSide, rec *analysis.FrameRecord) BreathEvent {
	return BreathEvent{
		SessionID:  sessionID,
		Frame:      rec.Index,
		Timestamp:  rec.Timestamp,
		Side:       string(side),
		DuringPull: rec.Flags.BreathDuringPull,
		Phase:      string(rec.Phase),
	}
}
