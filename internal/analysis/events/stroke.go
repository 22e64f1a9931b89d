// Package events detects stroke cycles and breaths from per-frame samples.
package events

// Stroke detection defaults.
const (
	StrokeWindow      = 9
	StrokeMinInterval = 0.5 // seconds between registered strokes
)

type strokeSample struct {
	angle float64
	at    float64
}

// StrokeDetector registers a stroke at each local minimum of the pulling-arm
// elbow angle. The window is a fixed FIFO; the center sample is tested once
// the window is full.
type StrokeDetector struct {
	window      []strokeSample
	size        int
	minInterval float64

	count int
	first float64
	last  float64
}

// NewStrokeDetector creates a detector. Non-positive arguments take the
// defaults; even window sizes are rounded up so there is a center sample.
func NewStrokeDetector(window int, minInterval float64) *StrokeDetector {
	if window < 3 {
		window = StrokeWindow
	}
	if window%2 == 0 {
		window++
	}
	if minInterval <= 0 {
		minInterval = StrokeMinInterval
	}
	return &StrokeDetector{
		window:      make([]strokeSample, 0, window),
		size:        window,
		minInterval: minInterval,
	}
}

// Observe adds a sample and reports whether a stroke was registered, along
// with the registration time (the center sample's timestamp).
func (d *StrokeDetector) Observe(elbowAngle, at float64) (bool, float64) {
	if len(d.window) == d.size {
		copy(d.window, d.window[1:])
		d.window = d.window[:d.size-1]
	}
	d.window = append(d.window, strokeSample{angle: elbowAngle, at: at})
	if len(d.window) < d.size {
		return false, 0
	}

	mid := d.size / 2
	center := d.window[mid]
	for i, s := range d.window {
		if i != mid && s.angle <= center.angle {
			return false, 0
		}
	}
	if d.count > 0 && center.at-d.last < d.minInterval {
		return false, 0
	}

	if d.count == 0 {
		d.first = center.at
	}
	d.last = center.at
	d.count++
	return true, center.at
}

// Count returns the number of registered strokes.
func (d *StrokeDetector) Count() int { return d.count }

// Span returns the first and last registration times. ok is false before
// the first stroke.
func (d *StrokeDetector) Span() (first, last float64, ok bool) {
	return d.first, d.last, d.count > 0
}
