package events

import (
	"github.com/swimform/swimform-go/internal/biomech"
	"github.com/swimform/swimform-go/internal/pose"
)

// Breath detection defaults.
const (
	BreathYawThreshold = 0.35
	BreathMinHold      = 3   // consecutive frames of turned head
	BreathMinInterval  = 1.0 // seconds between registered breaths
)

// BreathSide is the per-frame head-turn label.
type BreathSide string

const (
	BreathNone  BreathSide = "none"
	BreathLeft  BreathSide = "left"
	BreathRight BreathSide = "right"
)

// BreathConfig holds the breath detector thresholds.
type BreathConfig struct {
	YawThreshold float64
	MinHold      int
	MinInterval  float64
}

// DefaultBreathConfig returns the standard thresholds.
func DefaultBreathConfig() BreathConfig {
	return BreathConfig{
		YawThreshold: BreathYawThreshold,
		MinHold:      BreathMinHold,
		MinInterval:  BreathMinInterval,
	}
}

// BreathCounts are the running breath totals.
type BreathCounts struct {
	Left       int `json:"left"`
	Right      int `json:"right"`
	Total      int `json:"total"`
	DuringPull int `json:"during_pull"`
}

// BreathResult is the outcome of one observed frame.
type BreathResult struct {
	Yaw        float64
	Side       BreathSide
	Registered bool
	DuringPull bool
}

// BreathDetector registers breaths from sustained head yaw.
type BreathDetector struct {
	cfg       BreathConfig
	holdLeft  int
	holdRight int
	last      float64
	seen      bool
	counts    BreathCounts
}

// NewBreathDetector creates a detector; zero fields take the defaults.
func NewBreathDetector(cfg BreathConfig) *BreathDetector {
	def := DefaultBreathConfig()
	if cfg.YawThreshold <= 0 {
		cfg.YawThreshold = def.YawThreshold
	}
	if cfg.MinHold <= 0 {
		cfg.MinHold = def.MinHold
	}
	if cfg.MinInterval <= 0 {
		cfg.MinInterval = def.MinInterval
	}
	return &BreathDetector{cfg: cfg}
}

// Yaw is the nose offset from the shoulder midpoint in shoulder widths.
// Zero when the shoulders collapse to a point.
func Yaw(kp pose.KeypointSet) float64 {
	width := kp.ShoulderWidth()
	if width < 1e-6 {
		return 0
	}
	return (kp.Pt(pose.Nose).X - kp.ShoulderMid().X) / width
}

// Observe updates the detector with the head position at time at.
func (d *BreathDetector) Observe(kp pose.KeypointSet, phase biomech.Phase, at float64) BreathResult {
	res := BreathResult{Yaw: Yaw(kp), Side: BreathNone}

	var hold *int
	switch {
	case res.Yaw > d.cfg.YawThreshold:
		res.Side = BreathRight
		d.holdRight++
		d.holdLeft = 0
		hold = &d.holdRight
	case res.Yaw < -d.cfg.YawThreshold:
		res.Side = BreathLeft
		d.holdLeft++
		d.holdRight = 0
		hold = &d.holdLeft
	default:
		d.holdLeft, d.holdRight = 0, 0
		return res
	}

	if *hold < d.cfg.MinHold {
		return res
	}
	if d.seen && at-d.last < d.cfg.MinInterval {
		return res
	}

	*hold = 0
	d.last, d.seen = at, true
	res.Registered = true
	d.counts.Total++
	if res.Side == BreathLeft {
		d.counts.Left++
	} else {
		d.counts.Right++
	}
	if phase == biomech.PhasePull {
		res.DuringPull = true
		d.counts.DuringPull++
	}
	return res
}

// Counts returns the running totals.
func (d *BreathDetector) Counts() BreathCounts { return d.counts }
