// Package smoothing provides fixed-size moving averages for noisy
// per-frame metrics.
package smoothing

// Window is a bounded FIFO of the most recent values.
type Window struct {
	buf  []float64
	next int
	n    int
	sum  float64
}

// NewWindow creates a window holding up to size values (minimum 1).
func NewWindow(size int) *Window {
	return &Window{buf: make([]float64, max(size, 1))}
}

// Push adds v, evicting the oldest value when full, and returns the mean.
func (w *Window) Push(v float64) float64 {
	if w.n == len(w.buf) {
		w.sum -= w.buf[w.next]
	} else {
		w.n++
	}
	w.buf[w.next] = v
	w.sum += v
	w.next = (w.next + 1) % len(w.buf)
	return w.Mean()
}

// Mean returns the average of the held values, or 0 when empty.
func (w *Window) Mean() float64 {
	if w.n == 0 {
		return 0
	}
	return w.sum / float64(w.n)
}

// Channel identifies a smoothed metric.
type Channel int

const (
	ElbowAngle Channel = iota
	Lateral
	VerticalDrop
	BodyRoll
	KickDepth
	TorsoLean
	CatchAngle
	HeadLift
	RecoveryElbowHeight

	numChannels
)

// Smoother keeps one window per metric channel.
type Smoother struct {
	windows [numChannels]*Window
}

// New creates a Smoother whose windows hold size values each.
func New(size int) *Smoother {
	s := &Smoother{}
	for i := range s.windows {
		s.windows[i] = NewWindow(size)
	}
	return s
}

// Smooth pushes v into ch and returns the channel's moving average.
func (s *Smoother) Smooth(ch Channel, v float64) float64 {
	return s.windows[ch].Push(v)
}
