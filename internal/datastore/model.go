package datastore

import (
	"time"

	"github.com/swimform/swimform-go/internal/analysis/record"
	"github.com/swimform/swimform-go/internal/analysis/summary"
)

// Image kinds stored per session.
const (
	ImageBest  = "best"
	ImageWorst = "worst"
)

// Session is a persisted analysis session. The headline figures are copied
// into columns for listing and sorting; the full summary travels as JSON.
type Session struct {
	ID            string    `gorm:"primaryKey;size:36" json:"id"`
	CreatedAt     time.Time `gorm:"index" json:"created_at"`
	Source        string    `gorm:"size:512" json:"source"`
	CameraView    string    `gorm:"size:16" json:"camera_view"`
	WaterPosition string    `gorm:"size:16" json:"water_position"`

	Frames          int     `json:"frames"`
	FramesUsed      int     `json:"frames_used"`
	Duration        float64 `json:"duration"`
	AvgScore        float64 `gorm:"index" json:"avg_score"`
	StrokeCount     int     `json:"stroke_count"`
	StrokeRate      float64 `json:"stroke_rate"`
	BreathCount     int     `json:"breath_count"`
	BreathRate      float64 `json:"breath_rate"`
	DroppedElbowPct float64 `json:"dropped_elbow_pct"`
	GlideRatio      float64 `json:"glide_ratio"`

	Summary summary.SessionSummary `gorm:"serializer:json" json:"summary"`
}

// FrameRow is one persisted frame record.
type FrameRow struct {
	ID         uint               `gorm:"primaryKey" json:"-"`
	SessionID  string             `gorm:"size:36;index:idx_frame_rows_session_frame,priority:1" json:"session_id"`
	FrameIndex int                `gorm:"index:idx_frame_rows_session_frame,priority:2" json:"frame_index"`
	Timestamp  float64            `json:"timestamp"`
	Phase      string             `gorm:"size:16" json:"phase"`
	Score      float64            `json:"score"`
	Record     record.FrameRecord `gorm:"serializer:json" json:"record"`
}

// FrameImage is a retained rgb24 frame (best or worst Pull frame).
type FrameImage struct {
	ID         uint    `gorm:"primaryKey" json:"-"`
	SessionID  string  `gorm:"size:36;uniqueIndex:idx_frame_images_session_kind,priority:1" json:"session_id"`
	Kind       string  `gorm:"size:8;uniqueIndex:idx_frame_images_session_kind,priority:2" json:"kind"`
	FrameIndex int     `json:"frame_index"`
	Timestamp  float64 `json:"timestamp"`
	Score      float64 `json:"score"`
	Width      int     `json:"width"`
	Height     int     `json:"height"`
	Data       []byte  `json:"-"`
}

// models lists every table managed by AutoMigrate.
func models() []any {
	return []any{&Session{}, &FrameRow{}, &FrameImage{}}
}

// newSession flattens a session summary into its row.
func newSession(id, source string, s *summary.SessionSummary) *Session {
	return &Session{
		ID:              id,
		Source:          source,
		CameraView:      string(s.Context.View),
		WaterPosition:   string(s.Context.Water),
		Frames:          s.Frames,
		FramesUsed:      s.FramesUsed,
		Duration:        s.Duration,
		AvgScore:        s.AvgScore,
		StrokeCount:     s.StrokeCount,
		StrokeRate:      s.StrokeRate,
		BreathCount:     s.Breaths.Total,
		BreathRate:      s.BreathRate,
		DroppedElbowPct: s.DroppedElbowPct,
		GlideRatio:      s.GlideRatio,
		Summary:         *s,
	}
}

// newFrameImage copies a retained champion; nil when nothing was kept.
func newFrameImage(sessionID, kind string, c *summary.Champion) *FrameImage {
	if !c.Set() || len(c.Image) == 0 {
		return nil
	}
	data := make([]byte, len(c.Image))
	copy(data, c.Image)
	return &FrameImage{
		SessionID:  sessionID,
		Kind:       kind,
		FrameIndex: c.FrameIndex,
		Timestamp:  c.Timestamp,
		Score:      c.Score,
		Width:      c.Width,
		Height:     c.Height,
		Data:       data,
	}
}
