package pose

import (
	"context"
	"math"

	"github.com/swimform/swimform-go/internal/framesource"
)

// Provider detects at most one body per frame. timestampMs must be strictly
// increasing across calls on the same provider; use a Clock to guarantee it.
// ok is false when no body was found.
type Provider interface {
	Detect(ctx context.Context, frame *framesource.Frame, timestampMs int64) (set KeypointSet, ok bool, err error)
}

// ProviderFunc adapts a function to Provider.
type ProviderFunc func(ctx context.Context, frame *framesource.Frame, timestampMs int64) (KeypointSet, bool, error)

func (f ProviderFunc) Detect(ctx context.Context, frame *framesource.Frame, timestampMs int64) (KeypointSet, bool, error) {
	return f(ctx, frame, timestampMs)
}

// Clock converts frame timestamps in seconds to strictly increasing
// millisecond timestamps. Duplicate or regressing inputs are bumped to one
// past the previous value.
type Clock struct {
	last    int64
	started bool
}

// Next returns the provider timestamp for a frame at seconds.
func (c *Clock) Next(seconds float64) int64 {
	ms := int64(math.Round(seconds * 1000))
	if c.started && ms <= c.last {
		ms = c.last + 1
	}
	c.last = ms
	c.started = true
	return ms
}
