// Package validator rejects implausible pose detections, mostly false
// positives on lane ropes, tiles and reflections.
package validator

import (
	"math"

	"github.com/swimform/swimform-go/internal/framesource"
	"github.com/swimform/swimform-go/internal/pose"
)

// Rejection reasons.
const (
	ReasonNarrowShoulders = "shoulder_width"
	ReasonNarrowHips      = "hip_width"
	ReasonShortTorso      = "torso_length"
	ReasonAspectRatio     = "aspect_ratio"
	ReasonHeadDistance    = "head_distance"
	ReasonOutOfBounds     = "out_of_bounds"
	ReasonSmallBody       = "bbox_area"
	ReasonBackgroundColor = "background_color"
)

// Config holds the plausibility cutoffs. Width and area minimums are
// fractions of the frame width and frame area.
type Config struct {
	MinShoulderWidthRatio float64 // of frame width
	MinHipWidthRatio      float64 // of frame width
	MinTorsoToShoulder    float64 // torso length / shoulder width
	MaxAspectRatio        float64 // long side / short side of the landmark box
	MaxHeadToTorso        float64 // nose to shoulder-mid / torso length
	BoundsMargin          float64 // fraction of frame size landmarks may exceed the edge by
	MinAreaRatio          float64 // of frame area
	// Color check: sampled pixels in the landmark box. Rejected when the
	// water/tile hue share exceeds MaxBackgroundRatio and skin share is
	// below MinSkinRatio.
	MaxBackgroundRatio float64
	MinSkinRatio       float64
	ColorSampleStep    int
}

// DefaultConfig returns cutoffs tuned on side and front pool footage.
func DefaultConfig() Config {
	return Config{
		MinShoulderWidthRatio: 0.01,
		MinHipWidthRatio:      0.01,
		MinTorsoToShoulder:    0.3,
		MaxAspectRatio:        15,
		MaxHeadToTorso:        1.5,
		BoundsMargin:          0.05,
		MinAreaRatio:          0.005,
		MaxBackgroundRatio:    0.85,
		MinSkinRatio:          0.02,
		ColorSampleStep:       4,
	}
}

// Result is the outcome of a validation. Reason is empty when OK.
type Result struct {
	OK     bool
	Reason string
}

func reject(reason string) Result { return Result{Reason: reason} }

// Validator checks keypoint sets against a frame.
type Validator struct {
	cfg Config
}

// New creates a Validator.
func New(cfg Config) *Validator {
	if cfg.ColorSampleStep <= 0 {
		cfg.ColorSampleStep = DefaultConfig().ColorSampleStep
	}
	return &Validator{cfg: cfg}
}

// Validate runs the checks in order and stops at the first failure. The
// color check is skipped for frames without pixel data.
func (v *Validator) Validate(kp pose.KeypointSet, frame *framesource.Frame) Result {
	w, h := float64(frame.Width), float64(frame.Height)

	shoulderWidth := kp.ShoulderWidth()
	if shoulderWidth < v.cfg.MinShoulderWidthRatio*w {
		return reject(ReasonNarrowShoulders)
	}
	if kp.HipWidth() < v.cfg.MinHipWidthRatio*w {
		return reject(ReasonNarrowHips)
	}

	torso := kp.TorsoLength()
	if torso < v.cfg.MinTorsoToShoulder*shoulderWidth {
		return reject(ReasonShortTorso)
	}

	minX, minY, maxX, maxY := kp.Bounds()
	bw, bh := maxX-minX, maxY-minY
	if short := math.Min(bw, bh); short <= 0 || math.Max(bw, bh)/short > v.cfg.MaxAspectRatio {
		return reject(ReasonAspectRatio)
	}

	if pose.Dist(kp.Pt(pose.Nose), kp.ShoulderMid()) > v.cfg.MaxHeadToTorso*torso {
		return reject(ReasonHeadDistance)
	}

	mx, my := v.cfg.BoundsMargin*w, v.cfg.BoundsMargin*h
	if minX < -mx || minY < -my || maxX > w+mx || maxY > h+my {
		return reject(ReasonOutOfBounds)
	}

	if bw*bh < v.cfg.MinAreaRatio*w*h {
		return reject(ReasonSmallBody)
	}

	if frame.HasPixels() {
		background, skin := v.sampleColors(frame, minX, minY, maxX, maxY)
		if background > v.cfg.MaxBackgroundRatio && skin < v.cfg.MinSkinRatio {
			return reject(ReasonBackgroundColor)
		}
	}

	return Result{OK: true}
}

// sampleColors returns the share of water/tile-hued and skin-toned pixels in
// the landmark box.
func (v *Validator) sampleColors(frame *framesource.Frame, minX, minY, maxX, maxY float64) (background, skin float64) {
	x0 := max(int(minX), 0)
	y0 := max(int(minY), 0)
	x1 := min(int(maxX), frame.Width-1)
	y1 := min(int(maxY), frame.Height-1)

	var total, bg, sk int
	for y := y0; y <= y1; y += v.cfg.ColorSampleStep {
		for x := x0; x <= x1; x += v.cfg.ColorSampleStep {
			r, g, b := frame.At(x, y)
			total++
			if IsSkin(r, g, b) {
				sk++
				continue
			}
			if IsWaterOrTile(r, g, b) {
				bg++
			}
		}
	}
	if total == 0 {
		return 0, 0
	}
	return float64(bg) / float64(total), float64(sk) / float64(total)
}

// IsSkin is the RGB skin-tone rule used for the color check.
func IsSkin(r, g, b uint8) bool {
	ri, gi, bi := int(r), int(g), int(b)
	diff := ri - gi
	if diff < 0 {
		diff = -diff
	}
	return ri > 95 && gi > 40 && bi > 20 && ri > gi && ri > bi && diff > 15
}

// IsWaterOrTile reports cyan-to-blue hues and washed-out tile whites.
func IsWaterOrTile(r, g, b uint8) bool {
	h, s, val := framesource.RGBToHSV(r, g, b)
	if h >= 170 && h <= 250 && s >= 0.15 && val >= 0.15 {
		return true
	}
	return s < 0.1 && val > 0.8
}
