package smoothing

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWindowMovingAverage(t *testing.T) {
	t.Parallel()

	w := NewWindow(3)
	assert.Zero(t, w.Mean())
	assert.InDelta(t, 3, w.Push(3), 1e-9)
	assert.InDelta(t, 4.5, w.Push(6), 1e-9)
	assert.InDelta(t, 5, w.Push(6), 1e-9)
	assert.InDelta(t, 8, w.Push(12), 1e-9, "oldest value evicted")
}

func TestWindowStaysBounded(t *testing.T) {
	t.Parallel()

	w := NewWindow(5)
	for i := range 1000 {
		w.Push(float64(i))
	}
	assert.InDelta(t, 997, w.Mean(), 1e-9)
}

func TestWindowMinimumSize(t *testing.T) {
	t.Parallel()

	w := NewWindow(0)
	w.Push(4)
	assert.InDelta(t, 9, w.Push(9), 1e-9)
	assert.InDelta(t, 9, w.Mean(), 1e-9)
}

func TestSmootherChannelsIndependent(t *testing.T) {
	t.Parallel()

	s := New(2)
	s.Smooth(ElbowAngle, 100)
	s.Smooth(BodyRoll, 40)
	assert.InDelta(t, 120, s.Smooth(ElbowAngle, 140), 1e-9)
	assert.InDelta(t, 45, s.Smooth(BodyRoll, 50), 1e-9)
	assert.InDelta(t, 0.2, s.Smooth(RecoveryElbowHeight, 0.2), 1e-9)
}
