package framesource

import (
	"bytes"
	"context"
	"image/color"
	"io"
	"testing"
	"testing/iotest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func rawFrames(width, height, count int) []byte {
	size := width * height * BytesPerPixel
	out := make([]byte, size*count)
	for i := range count {
		for j := range size {
			out[i*size+j] = byte(i + 1)
		}
	}
	return out
}

func TestReaderSplitsFramesAcrossShortReads(t *testing.T) {
	t.Parallel()

	const w, h = 4, 3
	src := iotest.OneByteReader(bytes.NewReader(rawFrames(w, h, 3)))
	r, err := NewReader(src, Config{Width: w, Height: h, FPS: 25})
	require.NoError(t, err)

	ctx := context.Background()
	for i := range 3 {
		f, err := r.Next(ctx)
		require.NoError(t, err)
		assert.Equal(t, i, f.Seq)
		assert.InDelta(t, float64(i)/25, f.Timestamp, 1e-9)
		assert.Len(t, f.Data, w*h*BytesPerPixel)
		assert.Equal(t, byte(i+1), f.Data[0])
		assert.Equal(t, byte(i+1), f.Data[len(f.Data)-1])
	}

	_, err = r.Next(ctx)
	assert.ErrorIs(t, err, io.EOF)
	assert.Equal(t, 3, r.Frames())
}

func TestReaderDropsTrailingPartialFrame(t *testing.T) {
	t.Parallel()

	data := rawFrames(2, 2, 1)
	data = append(data, 1, 2, 3)
	r, err := NewReader(bytes.NewReader(data), Config{Width: 2, Height: 2, FPS: 30})
	require.NoError(t, err)

	_, err = r.Next(context.Background())
	require.NoError(t, err)
	_, err = r.Next(context.Background())
	assert.ErrorIs(t, err, io.EOF)
}

func TestReaderHonoursCancellation(t *testing.T) {
	t.Parallel()

	r, err := NewReader(bytes.NewReader(rawFrames(2, 2, 2)), Config{Width: 2, Height: 2, FPS: 30})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = r.Next(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

// stallReader yields (0, nil) for stall reads before each read of src.
type stallReader struct {
	src    io.Reader
	stall  int
	stalls int
	calls  int
}

func (s *stallReader) Read(p []byte) (int, error) {
	s.calls++
	if s.stalls < s.stall {
		s.stalls++
		return 0, nil
	}
	s.stalls = 0
	return s.src.Read(p)
}

func TestReaderFailsWithoutProgress(t *testing.T) {
	t.Parallel()

	src := &stallReader{src: bytes.NewReader(nil), stall: 1 << 30}
	r, err := NewReader(src, Config{Width: 2, Height: 2, FPS: 30})
	require.NoError(t, err)

	_, err = r.Next(context.Background())
	require.ErrorIs(t, err, io.ErrNoProgress)
	assert.Equal(t, maxEmptyReads, src.calls)
}

func TestReaderToleratesIntermittentEmptyReads(t *testing.T) {
	t.Parallel()

	src := &stallReader{src: iotest.OneByteReader(bytes.NewReader(rawFrames(2, 2, 2))), stall: maxEmptyReads - 1}
	r, err := NewReader(src, Config{Width: 2, Height: 2, FPS: 30})
	require.NoError(t, err)

	for range 2 {
		_, err := r.Next(context.Background())
		require.NoError(t, err)
	}
	_, err = r.Next(context.Background())
	assert.ErrorIs(t, err, io.EOF)
}

func TestConfigValidate(t *testing.T) {
	t.Parallel()

	_, err := NewReader(bytes.NewReader(nil), Config{Width: 0, Height: 10, FPS: 30})
	require.Error(t, err)
	_, err = NewReader(bytes.NewReader(nil), Config{Width: 10, Height: 10})
	require.Error(t, err)
}

func TestRGBToHSV(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		r, g, b uint8
		h, s, v float64
	}{
		{"black", 0, 0, 0, 0, 0, 0},
		{"white", 255, 255, 255, 0, 0, 1},
		{"red", 255, 0, 0, 0, 1, 1},
		{"green", 0, 255, 0, 120, 1, 1},
		{"blue", 0, 0, 255, 240, 1, 1},
		{"magenta wraps", 255, 0, 128, 329.88, 1, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			h, s, v := RGBToHSV(tt.r, tt.g, tt.b)
			assert.InDelta(t, tt.h, h, 0.1)
			assert.InDelta(t, tt.s, s, 1e-9)
			assert.InDelta(t, tt.v, v, 1e-9)
		})
	}
}

func TestFramePixelAccess(t *testing.T) {
	t.Parallel()

	f := NewFrame(3, 2)
	f.Set(2, 1, 10, 20, 30)
	f.Set(5, 5, 1, 1, 1)

	r, g, b := f.At(2, 1)
	assert.Equal(t, []uint8{10, 20, 30}, []uint8{r, g, b})
	r, g, b = f.At(99, 99)
	assert.Equal(t, []uint8{10, 20, 30}, []uint8{r, g, b}, "coordinates clamp")

	c := f.Clone()
	c.Set(0, 0, 255, 255, 255)
	r, _, _ = f.At(0, 0)
	assert.Equal(t, uint8(0), r)
	assert.True(t, f.HasPixels())
	assert.InDelta(t, 1.5, f.Aspect(), 1e-9)
}

func TestFrameImageConversion(t *testing.T) {
	t.Parallel()

	f := NewFrame(3, 2)
	f.Set(2, 1, 10, 20, 30)

	img := f.RGBA()
	assert.Equal(t, 3, img.Bounds().Dx())
	assert.Equal(t, color.RGBA{10, 20, 30, 255}, img.RGBAAt(2, 1))

	img.SetRGBA(0, 0, color.RGBA{1, 2, 3, 128})
	f.CopyFrom(img)
	r, g, b := f.At(0, 0)
	assert.Equal(t, []uint8{1, 2, 3}, []uint8{r, g, b})

	// Mismatched bounds are ignored.
	f.CopyFrom(NewFrame(2, 2).RGBA())
	r, g, b = f.At(2, 1)
	assert.Equal(t, []uint8{10, 20, 30}, []uint8{r, g, b})
}
