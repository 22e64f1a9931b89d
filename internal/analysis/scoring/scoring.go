// Package scoring turns per-frame metrics into a 0-100 composite score.
package scoring

import (
	"math"

	"github.com/swimform/swimform-go/internal/biomech"
)

// Band grades a value: full credit inside [GoodMin, GoodMax], linear credit
// falling to Floor across the rest of [OkMin, OkMax], Floor outside.
type Band struct {
	GoodMin, GoodMax float64
	OkMin, OkMax     float64
	Floor            float64
}

// Score grades v on a 0-100 scale.
func (b Band) Score(v float64) float64 {
	switch {
	case math.IsNaN(v):
		return b.Floor
	case v >= b.GoodMin && v <= b.GoodMax:
		return 100
	case v < b.GoodMin && v >= b.OkMin:
		return lerp(b.GoodMin-v, b.GoodMin-b.OkMin, b.Floor)
	case v > b.GoodMax && v <= b.OkMax:
		return lerp(v-b.GoodMax, b.OkMax-b.GoodMax, b.Floor)
	default:
		return b.Floor
	}
}

func lerp(dist, span, floor float64) float64 {
	if span <= 0 {
		return floor
	}
	return 100 - (100-floor)*dist/span
}

// Standard sub-score bands.
var (
	AlignmentBand = Band{GoodMin: 0, GoodMax: 10, OkMin: 0, OkMax: 25, Floor: 20}
	CatchBand     = Band{GoodMin: 0, GoodMax: 35, OkMin: 0, OkMax: 60, Floor: 20}
	RollBand      = Band{GoodMin: 30, GoodMax: 60, OkMin: 15, OkMax: 75, Floor: 30}
	KickBand      = Band{GoodMin: 0.02, GoodMax: 0.10, OkMin: 0, OkMax: 0.20, Floor: 30}
	TorsoBand     = Band{GoodMin: 0, GoodMax: 10, OkMin: 0, OkMax: 25, Floor: 30}
)

// Weights of the composite score.
type Weights struct {
	Alignment float64 `yaml:"alignment" mapstructure:"alignment" json:"alignment"`
	Catch     float64 `yaml:"catch" mapstructure:"catch" json:"catch"`
	Roll      float64 `yaml:"roll" mapstructure:"roll" json:"roll"`
	Kick      float64 `yaml:"kick" mapstructure:"kick" json:"kick"`
	Torso     float64 `yaml:"torso" mapstructure:"torso" json:"torso"`
	Glide     float64 `yaml:"glide" mapstructure:"glide" json:"glide"`
	Baseline  float64 `yaml:"baseline" mapstructure:"baseline" json:"baseline"`
}

// Config holds the scorer constants.
type Config struct {
	Weights             Weights
	BaselineScore       float64 // constant contribution weighted by Weights.Baseline
	NoGlideScore        float64 // glide sub-score when not gliding
	NeutralCatchScore   float64 // catch sub-score outside Pull and Push
	BreathInPullPenalty float64
}

// DefaultConfig returns the standard weights and constants.
func DefaultConfig() Config {
	return Config{
		Weights: Weights{
			Alignment: 0.20,
			Catch:     0.20,
			Roll:      0.15,
			Kick:      0.15,
			Torso:     0.10,
			Glide:     0.10,
			Baseline:  0.10,
		},
		BaselineScore:       80,
		NoGlideScore:        70,
		NeutralCatchScore:   100,
		BreathInPullPenalty: 10,
	}
}

// Inputs are the smoothed metrics of one frame.
type Inputs struct {
	Phase              biomech.Phase
	AlignmentDeviation float64
	CatchAngle         float64 // effective catch angle
	BodyRoll           float64
	KickDepth          float64
	TorsoLean          float64
	Gliding            bool
	GlideScore         float64
	BreathInPull       bool // a breath was registered during Pull on this frame
}

// SubScores are the per-component grades.
type SubScores struct {
	Alignment float64 `json:"alignment"`
	Catch     float64 `json:"catch"`
	Roll      float64 `json:"roll"`
	Kick      float64 `json:"kick"`
	Torso     float64 `json:"torso"`
	Glide     float64 `json:"glide"`
}

// Result is a graded frame.
type Result struct {
	Composite float64   `json:"composite"`
	Sub       SubScores `json:"sub_scores"`
	Penalty   float64   `json:"penalty"`
}

// Scorer computes composite scores.
type Scorer struct {
	cfg Config
}

// New creates a Scorer.
func New(cfg Config) *Scorer {
	return &Scorer{cfg: cfg}
}

// Score grades one frame. The composite is clamped to [0,100].
func (s *Scorer) Score(in Inputs) Result {
	sub := SubScores{
		Alignment: AlignmentBand.Score(in.AlignmentDeviation),
		Catch:     s.cfg.NeutralCatchScore,
		Roll:      RollBand.Score(in.BodyRoll),
		Kick:      KickBand.Score(in.KickDepth),
		Torso:     TorsoBand.Score(in.TorsoLean),
		Glide:     s.cfg.NoGlideScore,
	}
	if in.Phase == biomech.PhasePull || in.Phase == biomech.PhasePush {
		sub.Catch = CatchBand.Score(in.CatchAngle)
	}
	if in.Gliding {
		sub.Glide = in.GlideScore
	}

	w := s.cfg.Weights
	total := w.Alignment*sub.Alignment +
		w.Catch*sub.Catch +
		w.Roll*sub.Roll +
		w.Kick*sub.Kick +
		w.Torso*sub.Torso +
		w.Glide*sub.Glide +
		w.Baseline*s.cfg.BaselineScore

	res := Result{Sub: sub}
	if in.BreathInPull {
		res.Penalty = s.cfg.BreathInPullPenalty
		total -= res.Penalty
	}
	if math.IsNaN(total) {
		total = 0
	}
	res.Composite = min(max(total, 0), 100)
	return res
}
