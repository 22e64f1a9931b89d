package scene

import (
	"github.com/swimform/swimform-go/internal/framesource"
	"github.com/swimform/swimform-go/internal/logger"
	"github.com/swimform/swimform-go/internal/pose"
)

// DefaultWindow is the number of frames observed before the context freezes.
const DefaultWindow = 30

// Config configures a Detector.
type Config struct {
	Window     int
	SampleStep int
	Rules      Rules
}

// DefaultConfig returns the standard detector configuration.
func DefaultConfig() Config {
	return Config{
		Window:     DefaultWindow,
		SampleStep: DefaultSampleStep,
		Rules:      DefaultRules(),
	}
}

// Detector accumulates signals over the first frames of a session and
// freezes the resulting context. Once complete, further observations are
// ignored and the context never changes except through ForceContext.
type Detector struct {
	cfg      Config
	acc      accumulator
	decision Decision
	ctx      Context
	log      logger.Logger
}

// NewDetector creates a Detector. A nil logger uses the package logger.
func NewDetector(cfg Config, log logger.Logger) *Detector {
	if cfg.Window <= 0 {
		cfg.Window = DefaultWindow
	}
	if cfg.SampleStep <= 0 {
		cfg.SampleStep = DefaultSampleStep
	}
	if log == nil {
		log = GetLogger()
	}
	return &Detector{
		cfg: cfg,
		log: log,
		ctx: Context{
			View:         ViewUnknown,
			Water:        WaterUnknown,
			Capabilities: AllCapabilities(),
		},
	}
}

// Observe adds one frame and, when present, its validated keypoints. The
// context freezes when the window fills.
func (d *Detector) Observe(frame *framesource.Frame, kp *pose.KeypointSet) {
	if d.ctx.Complete || frame == nil {
		return
	}
	d.acc.add(frame, kp, d.cfg.SampleStep)
	if d.acc.frames >= d.cfg.Window {
		d.freeze()
	}
}

// Context returns the current context. Mid-window it is a best-effort
// classification of what has been seen so far, with confidence scaled by
// how much of the window has filled.
func (d *Detector) Context() Context {
	if d.ctx.Complete || d.acc.frames == 0 {
		return d.ctx
	}
	dec := Classify(d.acc.signals(), d.cfg.Rules)
	return Context{
		View:         dec.View,
		Water:        dec.Water,
		Confidence:   dec.Confidence() * d.fill(),
		Capabilities: Capabilities(dec.View, dec.Water),
	}
}

// Decision returns the evidence behind the frozen context. It is zero until
// the context completes by observation and after ForceContext.
func (d *Detector) Decision() Decision { return d.decision }

// Complete reports whether the context is frozen.
func (d *Detector) Complete() bool { return d.ctx.Complete }

// ForceContext sets the context manually with full confidence and stops
// accumulation.
func (d *Detector) ForceContext(view CameraView, water WaterPosition) Context {
	if d.ctx.Complete {
		d.log.Warn("overriding completed context",
			logger.String("previous_view", string(d.ctx.View)),
			logger.String("previous_water", string(d.ctx.Water)),
			logger.String("view", string(view)),
			logger.String("water", string(water)))
	}
	d.decision = Decision{}
	d.ctx = Context{
		View:         view,
		Water:        water,
		Confidence:   1.0,
		Capabilities: Capabilities(view, water),
		Complete:     true,
		Forced:       true,
	}
	return d.ctx
}

// Finalize freezes the context at stream end. A window that never filled
// yields a best-effort context with reduced confidence.
func (d *Detector) Finalize() Context {
	if !d.ctx.Complete {
		d.freeze()
	}
	return d.ctx
}

func (d *Detector) fill() float64 {
	return min(1, float64(d.acc.frames)/float64(d.cfg.Window))
}

func (d *Detector) freeze() {
	d.decision = Classify(d.acc.signals(), d.cfg.Rules)
	d.ctx = Context{
		View:         d.decision.View,
		Water:        d.decision.Water,
		Confidence:   d.decision.Confidence() * d.fill(),
		Capabilities: Capabilities(d.decision.View, d.decision.Water),
		Complete:     true,
	}
	d.log.Info("context classified",
		logger.String("view", string(d.ctx.View)),
		logger.String("water", string(d.ctx.Water)),
		logger.Float64("confidence", d.ctx.Confidence),
		logger.Int("frames", d.acc.frames),
		logger.Int("underwater_score", d.decision.UnderwaterScore),
		logger.Int("above_score", d.decision.AboveScore))
}
