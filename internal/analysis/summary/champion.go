package summary

import (
	"github.com/swimform/swimform-go/internal/analysis/record"
	"github.com/swimform/swimform-go/internal/biomech"
	"github.com/swimform/swimform-go/internal/framesource"
)

// Direction selects which score wins a challenge.
type Direction int

const (
	Highest Direction = iota
	Lowest
)

// Champion is a retained frame and the score it won with. Image holds an
// rgb24 copy of the frame and is reused in place across replacements.
type Champion struct {
	Score      float64
	FrameIndex int
	Timestamp  float64
	Image      []byte
	Width      int
	Height     int
	set        bool
}

// Set reports whether a frame has been retained.
func (c *Champion) Set() bool { return c != nil && c.set }

func (c *Champion) ref() *FrameRef {
	if !c.Set() {
		return nil
	}
	return &FrameRef{
		FrameIndex: c.FrameIndex,
		Timestamp:  c.Timestamp,
		Score:      c.Score,
		HasImage:   len(c.Image) > 0,
	}
}

// Challenge reports whether score beats the current champion. An empty
// champion is beaten by any score; equal scores keep the incumbent.
func Challenge(current Champion, score float64, dir Direction) bool {
	if !current.set {
		return true
	}
	if dir == Lowest {
		return score < current.Score
	}
	return score > current.Score
}

// Tracker keeps the best and worst Pull-phase frames of a session.
type Tracker struct {
	Best  Champion
	Worst Champion
}

// Offer considers rec for both titles. render is called at most once, only
// when rec wins, and may return nil when no pixels are available.
func (t *Tracker) Offer(rec record.FrameRecord, render func() *framesource.Frame) {
	if rec.Phase != biomech.PhasePull {
		return
	}
	winsBest := Challenge(t.Best, rec.Score, Highest)
	winsWorst := Challenge(t.Worst, rec.Score, Lowest)
	if !winsBest && !winsWorst {
		return
	}

	var img *framesource.Frame
	if render != nil {
		img = render()
	}
	if winsBest {
		t.Best.replace(rec, img)
	}
	if winsWorst {
		t.Worst.replace(rec, img)
	}
}

func (c *Champion) replace(rec record.FrameRecord, img *framesource.Frame) {
	c.Score = rec.Score
	c.FrameIndex = rec.Index
	c.Timestamp = rec.Timestamp
	c.set = true
	c.Image = c.Image[:0]
	c.Width, c.Height = 0, 0
	if img.HasPixels() {
		c.Image = append(c.Image, img.Data...)
		c.Width, c.Height = img.Width, img.Height
	}
}
