package pose

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/swimform/swimform-go/internal/errors"
	"github.com/swimform/swimform-go/internal/framesource"
	"github.com/swimform/swimform-go/internal/logger"
)

const (
	detectPath         = "/v1/pose"
	maxResponseBytes   = 1 << 20
	defaultHTTPTimeout = 10 * time.Second
)

// HTTPConfig configures the pose service client.
type HTTPConfig struct {
	Endpoint string        // base URL of the pose service
	Timeout  time.Duration // per-request timeout
	APIKey   string        // sent as a bearer token when set
}

// DefaultHTTPConfig returns the client defaults.
func DefaultHTTPConfig() HTTPConfig {
	return HTTPConfig{
		Endpoint: "http://localhost:8000",
		Timeout:  defaultHTTPTimeout,
	}
}

type detectRequest struct {
	TimestampMs int64  `json:"timestamp_ms"`
	Width       int    `json:"width"`
	Height      int    `json:"height"`
	Format      string `json:"format"`
	Data        string `json:"data"`
}

type wireLandmark struct {
	Name       string  `json:"name"`
	X          float64 `json:"x"`
	Y          float64 `json:"y"`
	Visibility float64 `json:"visibility"`
}

type detectResponse struct {
	Landmarks []wireLandmark `json:"landmarks"`
}

// HTTPProvider calls an external pose service over JSON/HTTP. The service
// receives the raw rgb24 frame and answers with named landmarks in
// normalized [0,1] image coordinates, which are scaled to pixels here.
type HTTPProvider struct {
	config     HTTPConfig
	httpClient *http.Client
	log        logger.Logger
}

// NewHTTPProvider creates a pose service client.
func NewHTTPProvider(config HTTPConfig) (*HTTPProvider, error) {
	if config.Endpoint == "" {
		return nil, errors.Newf("pose service endpoint is required").
			Component("pose").
			Category(errors.CategoryConfiguration).
			Build()
	}
	if config.Timeout <= 0 {
		config.Timeout = defaultHTTPTimeout
	}
	config.Endpoint = strings.TrimRight(config.Endpoint, "/")

	return &HTTPProvider{
		config:     config,
		httpClient: &http.Client{Timeout: config.Timeout},
		log:        GetLogger(),
	}, nil
}

// Detect implements Provider.
func (p *HTTPProvider) Detect(ctx context.Context, frame *framesource.Frame, timestampMs int64) (KeypointSet, bool, error) {
	if !frame.HasPixels() {
		return KeypointSet{}, false, errors.Newf("frame %d has no pixel data", frame.Seq).
			Component("pose").
			Category(errors.CategoryValidation).
			Build()
	}

	body, err := json.Marshal(detectRequest{
		TimestampMs: timestampMs,
		Width:       frame.Width,
		Height:      frame.Height,
		Format:      "rgb24",
		Data:        base64.StdEncoding.EncodeToString(frame.Data),
	})
	if err != nil {
		return KeypointSet{}, false, errors.New(err).
			Component("pose").
			Category(errors.CategoryPoseProvider).
			Context("operation", "encode_request").
			Build()
	}

	reqCtx, cancel := context.WithTimeout(ctx, p.config.Timeout)
	defer cancel()

	url := p.config.Endpoint + detectPath
	req, err := http.NewRequestWithContext(reqCtx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return KeypointSet{}, false, errors.New(err).
			Component("pose").
			Category(errors.CategoryConfiguration).
			Context("endpoint", url).
			Build()
	}
	req.Header.Set("Content-Type", "application/json")
	if p.config.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+p.config.APIKey)
	}

	start := time.Now()
	resp, err := p.httpClient.Do(req)
	if err != nil {
		return KeypointSet{}, false, errors.New(err).
			Component("pose").
			Category(errors.CategoryPoseProvider).
			Context("endpoint", url).
			Timing("detect", time.Since(start)).
			Build()
	}
	defer func() {
		if cerr := resp.Body.Close(); cerr != nil {
			p.log.Debug("failed to close pose response body", logger.Error(cerr))
		}
	}()

	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 256))
		return KeypointSet{}, false, errors.Newf("pose service returned %d: %s", resp.StatusCode, strings.TrimSpace(string(snippet))).
			Component("pose").
			Category(errors.CategoryPoseProvider).
			Context("endpoint", url).
			Context("status_code", resp.StatusCode).
			Build()
	}

	var decoded detectResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxResponseBytes)).Decode(&decoded); err != nil {
		return KeypointSet{}, false, errors.New(err).
			Component("pose").
			Category(errors.CategoryPoseProvider).
			Context("operation", "decode_response").
			Build()
	}

	p.log.Trace("pose response",
		logger.Int("frame", frame.Seq),
		logger.Int("landmarks", len(decoded.Landmarks)),
		logger.Duration("elapsed", time.Since(start)))

	return landmarksToSet(decoded.Landmarks, frame.Width, frame.Height)
}

// landmarksToSet scales normalized landmarks to pixels. Unknown names are
// ignored; an empty or incomplete list means no detection.
func landmarksToSet(landmarks []wireLandmark, width, height int) (KeypointSet, bool, error) {
	if len(landmarks) == 0 {
		return KeypointSet{}, false, nil
	}
	points := make(map[Landmark]Keypoint, NumLandmarks)
	for _, lm := range landmarks {
		l, ok := ParseLandmark(lm.Name)
		if !ok {
			continue
		}
		points[l] = Keypoint{
			X:          lm.X * float64(width),
			Y:          lm.Y * float64(height),
			Visibility: lm.Visibility,
		}
	}
	if len(points) < int(NumLandmarks) {
		return KeypointSet{}, false, nil
	}
	set, err := NewKeypointSet(points)
	if err != nil {
		return KeypointSet{}, false, errors.New(err).
			Component("pose").
			Category(errors.CategoryPoseProvider).
			Build()
	}
	return set, true, nil
}
