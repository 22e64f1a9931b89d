package analysis

import (
	"github.com/swimform/swimform-go/internal/analysis/events"
	"github.com/swimform/swimform-go/internal/analysis/phase"
	"github.com/swimform/swimform-go/internal/analysis/scene"
	"github.com/swimform/swimform-go/internal/analysis/scoring"
	"github.com/swimform/swimform-go/internal/analysis/summary"
	"github.com/swimform/swimform-go/internal/analysis/validator"
	"github.com/swimform/swimform-go/internal/annotate"
	"github.com/swimform/swimform-go/internal/conf"
)

// DefaultSmoothingWindow is the moving-average length for noisy metrics.
const DefaultSmoothingWindow = 5

// Config is the complete configuration of a Session. Every threshold the
// pipeline uses is carried here; nothing is read from package state.
type Config struct {
	Validator validator.Config
	Scene     scene.Config
	Phase     phase.Config
	Scoring   scoring.Config
	Summary   summary.Config
	Breath    events.BreathConfig

	StrokeWindow      int
	StrokeMinInterval float64
	SmoothingWindow   int

	// Annotate returns an annotated copy of each accepted frame.
	Annotate bool
	// RetainFrames keeps rgb24 copies of the best and worst Pull frames.
	RetainFrames bool
	Style        annotate.Style
}

// DefaultConfig returns the standard pipeline configuration.
func DefaultConfig() Config {
	return Config{
		Validator:         validator.DefaultConfig(),
		Scene:             scene.DefaultConfig(),
		Phase:             phase.DefaultConfig(),
		Scoring:           scoring.DefaultConfig(),
		Summary:           summary.DefaultConfig(),
		Breath:            events.DefaultBreathConfig(),
		StrokeWindow:      events.StrokeWindow,
		StrokeMinInterval: events.StrokeMinInterval,
		SmoothingWindow:   DefaultSmoothingWindow,
		RetainFrames:      true,
		Style:             annotate.DefaultStyle(),
	}
}

// ConfigFromSettings maps application settings onto a pipeline
// configuration. Zero settings keep the defaults.
func ConfigFromSettings(s *conf.Settings) Config {
	cfg := DefaultConfig()
	if s == nil {
		return cfg
	}
	a := s.Analysis

	if a.Video.FPS > 0 {
		cfg.Phase.FPS = a.Video.FPS
	}
	if a.SmoothingWindow > 0 {
		cfg.SmoothingWindow = a.SmoothingWindow
	}
	if a.ContextWindow > 0 {
		cfg.Scene.Window = a.ContextWindow
	}
	if a.ConfidenceFloor > 0 {
		cfg.Summary.ConfidenceFloor = a.ConfidenceFloor
	}
	if a.Stroke.Window > 0 {
		cfg.StrokeWindow = a.Stroke.Window
	}
	if a.Stroke.MinInterval > 0 {
		cfg.StrokeMinInterval = a.Stroke.MinInterval
	}
	if a.Breath.YawThreshold > 0 {
		cfg.Breath.YawThreshold = a.Breath.YawThreshold
	}
	if a.Breath.MinHold > 0 {
		cfg.Breath.MinHold = a.Breath.MinHold
	}
	if a.Breath.MinInterval > 0 {
		cfg.Breath.MinInterval = a.Breath.MinInterval
	}

	w := a.Weights
	if w.Alignment+w.Catch+w.Roll+w.Kick+w.Torso+w.Glide+w.Baseline > 0 {
		cfg.Scoring.Weights = scoring.Weights{
			Alignment: w.Alignment,
			Catch:     w.Catch,
			Roll:      w.Roll,
			Kick:      w.Kick,
			Torso:     w.Torso,
			Glide:     w.Glide,
			Baseline:  w.Baseline,
		}
	}
	if a.BreathInPullPenalty > 0 {
		cfg.Scoring.BreathInPullPenalty = a.BreathInPullPenalty
	}

	cfg.Annotate = a.Annotate
	cfg.RetainFrames = a.RetainFrames
	return cfg
}
