package pose

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"testing"

	"github.com/jarcoal/httpmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/swimform/swimform-go/internal/errors"
	"github.com/swimform/swimform-go/internal/framesource"
)

func fullResponse(t *testing.T) string {
	t.Helper()
	resp := detectResponse{}
	for i, l := range Landmarks() {
		resp.Landmarks = append(resp.Landmarks, wireLandmark{
			Name:       l.String(),
			X:          0.1 + 0.05*float64(i),
			Y:          0.5,
			Visibility: 0.9,
		})
	}
	data, err := json.Marshal(resp)
	require.NoError(t, err)
	return string(data)
}

func TestClockStrictlyIncreasing(t *testing.T) {
	t.Parallel()

	var c Clock
	got := []int64{
		c.Next(0),
		c.Next(0),
		c.Next(0.0004),
		c.Next(0.5),
		c.Next(0.4),
		c.Next(1),
	}
	assert.Equal(t, []int64{0, 1, 2, 500, 501, 1000}, got)
}

func TestNewKeypointSet(t *testing.T) {
	t.Parallel()

	points := make(map[Landmark]Keypoint)
	for _, l := range Landmarks() {
		points[l] = Keypoint{X: float64(l), Y: 2 * float64(l), Visibility: 1.5}
	}
	set, err := NewKeypointSet(points)
	require.NoError(t, err)
	assert.InDelta(t, 1.0, set.MeanVisibility(), 1e-9, "visibility clamps to 1")

	minX, minY, maxX, maxY := set.Bounds()
	assert.InDelta(t, 0.0, minX, 1e-9)
	assert.InDelta(t, 0.0, minY, 1e-9)
	assert.InDelta(t, 12.0, maxX, 1e-9)
	assert.InDelta(t, 24.0, maxY, 1e-9)

	delete(points, RightAnkle)
	_, err = NewKeypointSet(points)
	require.Error(t, err)
}

func TestParseLandmark(t *testing.T) {
	t.Parallel()

	for _, l := range Landmarks() {
		got, ok := ParseLandmark(l.String())
		require.True(t, ok)
		assert.Equal(t, l, got)
	}
	_, ok := ParseLandmark("left_ear")
	assert.False(t, ok)
}

func TestHTTPProviderDetect(t *testing.T) {
	httpmock.Activate()
	t.Cleanup(httpmock.DeactivateAndReset)

	var captured detectRequest
	httpmock.RegisterResponder(http.MethodPost, "http://pose.test/v1/pose",
		func(req *http.Request) (*http.Response, error) {
			if err := json.NewDecoder(req.Body).Decode(&captured); err != nil {
				return httpmock.NewStringResponse(http.StatusBadRequest, err.Error()), nil
			}
			assert.Equal(t, "Bearer secret", req.Header.Get("Authorization"))
			return httpmock.NewStringResponse(http.StatusOK, fullResponse(t)), nil
		})

	p, err := NewHTTPProvider(HTTPConfig{Endpoint: "http://pose.test/", APIKey: "secret"})
	require.NoError(t, err)

	frame := framesource.NewFrame(200, 100)
	set, ok, err := p.Detect(context.Background(), frame, 1234)
	require.NoError(t, err)
	require.True(t, ok)

	assert.Equal(t, int64(1234), captured.TimestampMs)
	assert.Equal(t, "rgb24", captured.Format)
	assert.Equal(t, 200, captured.Width)
	assert.InDelta(t, 20.0, set.Get(Nose).X, 1e-9, "x scaled by width")
	assert.InDelta(t, 50.0, set.Get(Nose).Y, 1e-9, "y scaled by height")
	assert.InDelta(t, 0.9, set.MeanVisibility(), 1e-9)
}

func TestHTTPProviderNoDetection(t *testing.T) {
	httpmock.Activate()
	t.Cleanup(httpmock.DeactivateAndReset)

	httpmock.RegisterResponder(http.MethodPost, "http://pose.test/v1/pose",
		httpmock.NewStringResponder(http.StatusOK, `{"landmarks":[]}`))

	p, err := NewHTTPProvider(HTTPConfig{Endpoint: "http://pose.test"})
	require.NoError(t, err)

	_, ok, err := p.Detect(context.Background(), framesource.NewFrame(10, 10), 0)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestHTTPProviderServerError(t *testing.T) {
	httpmock.Activate()
	t.Cleanup(httpmock.DeactivateAndReset)

	httpmock.RegisterResponder(http.MethodPost, "http://pose.test/v1/pose",
		httpmock.NewStringResponder(http.StatusServiceUnavailable, "model loading"))

	p, err := NewHTTPProvider(HTTPConfig{Endpoint: "http://pose.test"})
	require.NoError(t, err)

	_, ok, err := p.Detect(context.Background(), framesource.NewFrame(10, 10), 0)
	require.Error(t, err)
	assert.False(t, ok)
	assert.True(t, errors.IsCategory(err, errors.CategoryPoseProvider))
	assert.Contains(t, err.Error(), "503")
}

func TestHTTPProviderRequiresEndpoint(t *testing.T) {
	t.Parallel()
	_, err := NewHTTPProvider(HTTPConfig{})
	require.Error(t, err)
	assert.True(t, errors.IsCategory(err, errors.CategoryConfiguration))
}

func TestHTTPProviderMalformedEndpoint(t *testing.T) {
	t.Parallel()
	p, err := NewHTTPProvider(HTTPConfig{Endpoint: "http://pose\x7f.test"})
	require.NoError(t, err)

	_, ok, err := p.Detect(context.Background(), framesource.NewFrame(10, 10), 0)
	require.Error(t, err)
	assert.False(t, ok)
	assert.True(t, errors.IsCategory(err, errors.CategoryConfiguration))

	var ee *errors.EnhancedError
	require.True(t, errors.As(err, &ee))
	assert.Equal(t, "pose", ee.Component)
	assert.Equal(t, "http://pose\x7f.test/v1/pose", ee.GetContext()["endpoint"])
}

func TestReplayProvider(t *testing.T) {
	t.Parallel()

	lines := strings.Join([]string{
		fullResponse(t),
		`{"landmarks":[]}`,
		`{"landmarks":[{"name":"nose","x":0.5,"y":0.5,"visibility":1}]}`,
	}, "\n")
	p := NewReplayProvider(strings.NewReader(lines))
	frame := framesource.NewFrame(100, 100)
	ctx := context.Background()

	_, ok, err := p.Detect(ctx, frame, 0)
	require.NoError(t, err)
	assert.True(t, ok)

	_, ok, err = p.Detect(ctx, frame, 1)
	require.NoError(t, err)
	assert.False(t, ok, "empty landmarks")

	_, ok, err = p.Detect(ctx, frame, 2)
	require.NoError(t, err)
	assert.False(t, ok, "incomplete landmark set")

	_, ok, err = p.Detect(ctx, frame, 3)
	require.NoError(t, err)
	assert.False(t, ok, "past end of recording")
}
