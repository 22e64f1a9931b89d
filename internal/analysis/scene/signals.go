package scene

import (
	"math"

	"github.com/swimform/swimform-go/internal/framesource"
	"github.com/swimform/swimform-go/internal/pose"
)

// Pixel classification and sampling constants.
const (
	BlueHueMin        = 170.0
	BlueHueMax        = 250.0
	BlueMinSat        = 0.25
	BlueMinValue      = 0.2
	WhiteMaxSat       = 0.15
	WhiteMinValue     = 0.85
	EdgeThreshold     = 0.12 // luminance step counted as an edge
	LineFillRatio     = 0.6  // share of a row or column that must be edge to count as a line
	DefaultSampleStep = 4
)

// frameSample holds the statistics of a single frame.
type frameSample struct {
	blue, white             float64
	topBright, bottomBright float64
	topSat, bottomSat       float64
	topEdge, bottomEdge     float64
	hLines, vLines          float64
	variance                float64
}

// sampleFrame measures one frame on a grid of step pixels.
func sampleFrame(f *framesource.Frame, step int) frameSample {
	var s frameSample
	if step < 1 {
		step = DefaultSampleStep
	}
	half := f.Height / 2

	var n, topN, bottomN float64
	var blue, white float64
	var sum, sumSq float64
	for y := 0; y < f.Height; y += step {
		for x := 0; x < f.Width; x += step {
			r, g, b := f.At(x, y)
			h, sat, val := framesource.RGBToHSV(r, g, b)
			n++
			if h >= BlueHueMin && h <= BlueHueMax && sat >= BlueMinSat && val >= BlueMinValue {
				blue++
			}
			if sat <= WhiteMaxSat && val >= WhiteMinValue {
				white++
			}

			l := f.Luma(x, y)
			sum += l
			sumSq += l * l

			dx := math.Abs(f.Luma(x+step, y) - l)
			dy := math.Abs(f.Luma(x, y+step) - l)
			edge := 0.0
			if max(dx, dy) > EdgeThreshold {
				edge = 1
			}

			if y < half {
				topN++
				s.topBright += val
				s.topSat += sat
				s.topEdge += edge
			} else {
				bottomN++
				s.bottomBright += val
				s.bottomSat += sat
				s.bottomEdge += edge
			}
		}
	}
	if n == 0 {
		return s
	}

	s.blue = blue / n
	s.white = white / n
	mean := sum / n
	s.variance = max(0, sumSq/n-mean*mean)
	if topN > 0 {
		s.topBright /= topN
		s.topSat /= topN
		s.topEdge /= topN
	}
	if bottomN > 0 {
		s.bottomBright /= bottomN
		s.bottomSat /= bottomN
		s.bottomEdge /= bottomN
	}
	s.hLines = float64(countHorizontalLines(f, step))
	s.vLines = float64(countVerticalLines(f, step))
	return s
}

// countHorizontalLines counts runs of sampled rows whose vertical luminance
// step is an edge across most of the width.
func countHorizontalLines(f *framesource.Frame, step int) int {
	lines, inLine := 0, false
	for y := 0; y+step < f.Height; y += step {
		var edges, total int
		for x := 0; x < f.Width; x += step {
			total++
			if math.Abs(f.Luma(x, y+step)-f.Luma(x, y)) > EdgeThreshold {
				edges++
			}
		}
		isLine := total > 0 && float64(edges)/float64(total) >= LineFillRatio
		if isLine && !inLine {
			lines++
		}
		inLine = isLine
	}
	return lines
}

// countVerticalLines is countHorizontalLines rotated.
func countVerticalLines(f *framesource.Frame, step int) int {
	lines, inLine := 0, false
	for x := 0; x+step < f.Width; x += step {
		var edges, total int
		for y := 0; y < f.Height; y += step {
			total++
			if math.Abs(f.Luma(x+step, y)-f.Luma(x, y)) > EdgeThreshold {
				edges++
			}
		}
		isLine := total > 0 && float64(edges)/float64(total) >= LineFillRatio
		if isLine && !inLine {
			lines++
		}
		inLine = isLine
	}
	return lines
}

// bodyProportions returns the landmark box width/height and the shoulder
// width over the longest box side. ok is false for a degenerate box.
func bodyProportions(kp pose.KeypointSet) (ratio, spread float64, ok bool) {
	minX, minY, maxX, maxY := kp.Bounds()
	w, h := maxX-minX, maxY-minY
	if w < 1 || h < 1 {
		return 0, 0, false
	}
	return w / h, kp.ShoulderWidth() / max(w, h), true
}

// accumulator sums per-frame statistics over the window.
type accumulator struct {
	sum         frameSample
	pixelFrames int
	bodyFrames  int
	bodyRatio   float64
	spread      float64
	aspect      float64
	frames      int
}

func (a *accumulator) add(f *framesource.Frame, kp *pose.KeypointSet, step int) {
	a.frames++
	if aspect := f.Aspect(); aspect > 0 {
		a.aspect = aspect
	}
	if f.HasPixels() {
		s := sampleFrame(f, step)
		a.pixelFrames++
		a.sum.blue += s.blue
		a.sum.white += s.white
		a.sum.topBright += s.topBright
		a.sum.bottomBright += s.bottomBright
		a.sum.topSat += s.topSat
		a.sum.bottomSat += s.bottomSat
		a.sum.topEdge += s.topEdge
		a.sum.bottomEdge += s.bottomEdge
		a.sum.hLines += s.hLines
		a.sum.vLines += s.vLines
		a.sum.variance += s.variance
	}
	if kp != nil {
		if ratio, spread, ok := bodyProportions(*kp); ok {
			a.bodyFrames++
			a.bodyRatio += ratio
			a.spread += spread
		}
	}
}

// signals returns the window averages.
func (a *accumulator) signals() Signals {
	s := Signals{Aspect: a.aspect, Frames: a.frames}
	if n := float64(a.pixelFrames); n > 0 {
		s.HasPixels = true
		s.BlueRatio = a.sum.blue / n
		s.WhiteRatio = a.sum.white / n
		s.TopBrightness = a.sum.topBright / n
		s.BottomBrightness = a.sum.bottomBright / n
		s.TopSaturation = a.sum.topSat / n
		s.BottomSaturation = a.sum.bottomSat / n
		s.TopEdgeDensity = a.sum.topEdge / n
		s.BottomEdgeDensity = a.sum.bottomEdge / n
		s.HorizontalLines = a.sum.hLines / n
		s.VerticalLines = a.sum.vLines / n
		s.TextureVariance = a.sum.variance / n
	}
	if n := float64(a.bodyFrames); n > 0 {
		s.HasBody = true
		s.BodyRatio = a.bodyRatio / n
		s.ShoulderSpread = a.spread / n
	}
	return s
}
