// Package scene classifies the camera view and water position of a video
// from its first frames, and maps the result to the metrics that are
// meaningful for that footage.
package scene

import "slices"

// CameraView is the filming angle relative to the swimmer.
type CameraView string

const (
	ViewSide    CameraView = "side"
	ViewFront   CameraView = "front"
	ViewTop     CameraView = "top"
	ViewUnknown CameraView = "unknown"
)

// ParseCameraView parses a view name; ok is false for unrecognized input.
func ParseCameraView(s string) (CameraView, bool) {
	switch v := CameraView(s); v {
	case ViewSide, ViewFront, ViewTop, ViewUnknown:
		return v, true
	}
	return ViewUnknown, false
}

// WaterPosition is where the camera sits relative to the water surface.
type WaterPosition string

const (
	WaterUnderwater WaterPosition = "underwater"
	WaterAbove      WaterPosition = "above_water"
	WaterMixed      WaterPosition = "mixed"
	WaterUnknown    WaterPosition = "unknown"
)

// ParseWaterPosition parses a water position name.
func ParseWaterPosition(s string) (WaterPosition, bool) {
	switch w := WaterPosition(s); w {
	case WaterUnderwater, WaterAbove, WaterMixed, WaterUnknown:
		return w, true
	}
	return WaterUnknown, false
}

// Capability names a metric family that can be measured from the footage.
type Capability string

const (
	CapCatch        Capability = "catch"
	CapAlignment    Capability = "alignment"
	CapKick         Capability = "kick"
	CapGlide        Capability = "glide"
	CapBodyRoll     Capability = "body_roll"
	CapPhase        Capability = "phase"
	CapRecovery     Capability = "recovery"
	CapBreathing    Capability = "breathing"
	CapHeadPosition Capability = "head_position"
)

// AllCapabilities lists every capability in a stable order.
func AllCapabilities() []Capability {
	return []Capability{
		CapCatch, CapAlignment, CapKick, CapGlide, CapBodyRoll,
		CapPhase, CapRecovery, CapBreathing, CapHeadPosition,
	}
}

type viewWater struct {
	view  CameraView
	water WaterPosition
}

var capabilityTable = map[viewWater][]Capability{
	{ViewSide, WaterUnderwater}:  {CapCatch, CapAlignment, CapKick, CapGlide, CapBodyRoll, CapPhase},
	{ViewSide, WaterAbove}:       {CapRecovery, CapBreathing, CapHeadPosition, CapBodyRoll, CapPhase},
	{ViewFront, WaterUnderwater}: {CapCatch, CapBodyRoll, CapKick, CapPhase},
	{ViewFront, WaterAbove}:      {CapBreathing, CapHeadPosition, CapBodyRoll, CapRecovery},
	{ViewTop, WaterUnderwater}:   {CapAlignment, CapKick, CapBodyRoll},
	{ViewTop, WaterAbove}:        {CapAlignment, CapBodyRoll, CapBreathing, CapRecovery},
}

// Capabilities returns the metric families available for a context, sorted
// in AllCapabilities order. Mixed water combines both positions; an unknown
// view combines every view; unknown water enables everything.
func Capabilities(view CameraView, water WaterPosition) []Capability {
	if water == WaterUnknown {
		return AllCapabilities()
	}

	waters := []WaterPosition{water}
	if water == WaterMixed {
		waters = []WaterPosition{WaterUnderwater, WaterAbove}
	}
	views := []CameraView{view}
	if view == ViewUnknown {
		views = []CameraView{ViewSide, ViewFront, ViewTop}
	}

	set := make(map[Capability]bool)
	for _, w := range waters {
		for _, v := range views {
			for _, c := range capabilityTable[viewWater{v, w}] {
				set[c] = true
			}
		}
	}

	out := make([]Capability, 0, len(set))
	for _, c := range AllCapabilities() {
		if set[c] {
			out = append(out, c)
		}
	}
	return out
}

// Context is the classified filming context.
type Context struct {
	View         CameraView    `json:"camera_view"`
	Water        WaterPosition `json:"water_position"`
	Confidence   float64       `json:"confidence"`
	Capabilities []Capability  `json:"capabilities"`
	Complete     bool          `json:"complete"`
	Forced       bool          `json:"forced"`
}

// Has reports whether the context supports capability c.
func (c Context) Has(capability Capability) bool {
	return slices.Contains(c.Capabilities, capability)
}
