// Package phase labels each frame with the stroke-cycle phase of the
// pulling arm.
package phase

import (
	"github.com/swimform/swimform-go/internal/biomech"
	"github.com/swimform/swimform-go/internal/pose"
)

// Config holds the phase thresholds.
type Config struct {
	// UnderwaterMarginPx is how far (pixels) the wrist must sit below the
	// shoulder for the hand to count as in the water.
	UnderwaterMarginPx float64
	EntryMinElbow      float64 // elbow angle above which the arm is still extending
	PullMinElbow       float64 // elbow angle above which the arm is pulling
	FPS                float64 // frame rate for wrist velocity
}

// DefaultConfig returns the standard thresholds.
func DefaultConfig() Config {
	return Config{
		UnderwaterMarginPx: 10,
		EntryMinElbow:      140,
		PullMinElbow:       90,
		FPS:                30,
	}
}

// Result is the phase of one frame.
type Result struct {
	Phase      biomech.Phase
	Side       biomech.Side
	ElbowAngle float64
	// WristVelocity is the vertical wrist speed in px/s, positive downward.
	// It is reported for diagnostics and does not influence Phase.
	WristVelocity float64
}

// Classifier labels frames. Every frame is classified on its own; there is
// no transition model, so any phase may follow any other.
type Classifier struct {
	cfg      Config
	prevY    map[biomech.Side]float64
	prevSeen map[biomech.Side]bool
}

// New creates a Classifier.
func New(cfg Config) *Classifier {
	if cfg.FPS <= 0 {
		cfg.FPS = DefaultConfig().FPS
	}
	return &Classifier{
		cfg:      cfg,
		prevY:    make(map[biomech.Side]float64, 2),
		prevSeen: make(map[biomech.Side]bool, 2),
	}
}

// Classify returns the phase for kp.
//
// Underwater frames are split by elbow angle alone; the wrist velocity sign
// does not separate Pull from Push.
func (c *Classifier) Classify(kp pose.KeypointSet) Result {
	side := biomech.PullingSide(kp)
	shoulder, _, wrist := biomech.Arm(kp, side)

	res := Result{
		Side:       side,
		ElbowAngle: biomech.ElbowAngle(kp, side),
	}
	if c.prevSeen[side] {
		res.WristVelocity = (wrist.Y - c.prevY[side]) * c.cfg.FPS
	}
	c.prevY[side] = wrist.Y
	c.prevSeen[side] = true

	if wrist.Y-shoulder.Y <= c.cfg.UnderwaterMarginPx {
		res.Phase = biomech.PhaseRecovery
		return res
	}

	switch {
	case res.ElbowAngle > c.cfg.EntryMinElbow:
		res.Phase = biomech.PhaseEntry
	case res.ElbowAngle > c.cfg.PullMinElbow:
		res.Phase = biomech.PhasePull
	default:
		res.Phase = biomech.PhasePush
	}
	return res
}
