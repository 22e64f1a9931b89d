// Package framesource turns a raw rgb24 byte stream into timestamped frames.
package framesource

import (
	"image"

	"github.com/lucasb-eyer/go-colorful"
)

// BytesPerPixel is the rgb24 pixel size.
const BytesPerPixel = 3

// Frame is one decoded video frame. Data holds Width*Height rgb24 pixels in
// row-major order; Timestamp is the real-time position in seconds.
type Frame struct {
	Seq       int
	Width     int
	Height    int
	Data      []byte
	Timestamp float64
}

// NewFrame allocates a black frame.
func NewFrame(width, height int) *Frame {
	return &Frame{
		Width:  width,
		Height: height,
		Data:   make([]byte, width*height*BytesPerPixel),
	}
}

// HasPixels reports whether the frame carries pixel data of the declared size.
func (f *Frame) HasPixels() bool {
	return f != nil && f.Width > 0 && f.Height > 0 && len(f.Data) >= f.Width*f.Height*BytesPerPixel
}

// Aspect returns width/height, or 0 for an empty frame.
func (f *Frame) Aspect() float64 {
	if f == nil || f.Height == 0 {
		return 0
	}
	return float64(f.Width) / float64(f.Height)
}

// At returns the pixel at (x, y). Coordinates are clamped to the frame.
func (f *Frame) At(x, y int) (r, g, b uint8) {
	x = min(max(x, 0), f.Width-1)
	y = min(max(y, 0), f.Height-1)
	i := (y*f.Width + x) * BytesPerPixel
	return f.Data[i], f.Data[i+1], f.Data[i+2]
}

// Set writes the pixel at (x, y); out-of-range coordinates are ignored.
func (f *Frame) Set(x, y int, r, g, b uint8) {
	if x < 0 || y < 0 || x >= f.Width || y >= f.Height {
		return
	}
	i := (y*f.Width + x) * BytesPerPixel
	f.Data[i], f.Data[i+1], f.Data[i+2] = r, g, b
}

// Clone returns a deep copy of the frame.
func (f *Frame) Clone() *Frame {
	if f == nil {
		return nil
	}
	c := *f
	c.Data = append([]byte(nil), f.Data...)
	return &c
}

// Luma returns the Rec. 601 luminance of the pixel at (x, y) in [0,1].
func (f *Frame) Luma(x, y int) float64 {
	r, g, b := f.At(x, y)
	return (0.299*float64(r) + 0.587*float64(g) + 0.114*float64(b)) / 255
}

// RGBToHSV converts an 8-bit pixel to hue in [0,360) and saturation and
// value in [0,1]. Achromatic pixels report hue 0.
func RGBToHSV(r, g, b uint8) (h, s, v float64) {
	return colorful.Color{
		R: float64(r) / 255,
		G: float64(g) / 255,
		B: float64(b) / 255,
	}.Hsv()
}

// RGBA returns the frame as an image for drawing. The pixels are copied.
func (f *Frame) RGBA() *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, f.Width, f.Height))
	if !f.HasPixels() {
		return img
	}
	for i, j := 0, 0; i < f.Width*f.Height*BytesPerPixel; i, j = i+BytesPerPixel, j+4 {
		img.Pix[j], img.Pix[j+1], img.Pix[j+2], img.Pix[j+3] = f.Data[i], f.Data[i+1], f.Data[i+2], 0xff
	}
	return img
}

// CopyFrom overwrites the frame pixels with img, which must have the frame
// dimensions. Alpha is dropped.
func (f *Frame) CopyFrom(img *image.RGBA) {
	b := img.Bounds()
	if !f.HasPixels() || b.Dx() != f.Width || b.Dy() != f.Height {
		return
	}
	for y := range f.Height {
		row := img.Pix[y*img.Stride:]
		for x := range f.Width {
			i := (y*f.Width + x) * BytesPerPixel
			f.Data[i], f.Data[i+1], f.Data[i+2] = row[x*4], row[x*4+1], row[x*4+2]
		}
	}
}
