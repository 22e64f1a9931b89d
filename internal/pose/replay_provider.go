package pose

import (
	"bufio"
	"context"
	"encoding/json"
	"io"

	"github.com/swimform/swimform-go/internal/errors"
	"github.com/swimform/swimform-go/internal/framesource"
)

// ReplayProvider serves landmarks recorded earlier by a pose service, one
// JSON object per frame in the HTTP response format. A line with no
// landmarks, or running past the end of the file, means no detection.
type ReplayProvider struct {
	scanner *bufio.Scanner
	line    int
}

// NewReplayProvider reads recorded detections from r.
func NewReplayProvider(r io.Reader) *ReplayProvider {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxResponseBytes)
	return &ReplayProvider{scanner: scanner}
}

// Detect implements Provider. Frames are matched to lines by call order.
func (p *ReplayProvider) Detect(ctx context.Context, frame *framesource.Frame, _ int64) (KeypointSet, bool, error) {
	if err := ctx.Err(); err != nil {
		return KeypointSet{}, false, err
	}
	if !p.scanner.Scan() {
		if err := p.scanner.Err(); err != nil {
			return KeypointSet{}, false, errors.New(err).
				Component("pose").
				Category(errors.CategoryFileIO).
				Context("line", p.line).
				Build()
		}
		return KeypointSet{}, false, nil
	}
	p.line++

	var rec detectResponse
	if err := json.Unmarshal(p.scanner.Bytes(), &rec); err != nil {
		return KeypointSet{}, false, errors.New(err).
			Component("pose").
			Category(errors.CategoryPoseProvider).
			Context("line", p.line).
			Build()
	}
	return landmarksToSet(rec.Landmarks, frame.Width, frame.Height)
}
