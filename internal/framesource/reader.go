package framesource

import (
	"context"
	"io"

	"github.com/smallnest/ringbuffer"

	"github.com/swimform/swimform-go/internal/errors"
	"github.com/swimform/swimform-go/internal/logger"
)

const (
	defaultBufferFrames = 2
	readChunkSize       = 64 * 1024
	maxEmptyReads       = 100 // consecutive (0, nil) reads before giving up
)

// Config describes the raw stream layout.
type Config struct {
	Width        int     // frame width in pixels
	Height       int     // frame height in pixels
	FPS          float64 // nominal frame rate used for timestamps
	BufferFrames int     // ring capacity in frames, default 2
}

// Validate checks the stream geometry.
func (c Config) Validate() error {
	if c.Width <= 0 || c.Height <= 0 {
		return errors.Newf("invalid frame size %dx%d", c.Width, c.Height).
			Component("framesource").
			Category(errors.CategoryValidation).
			Build()
	}
	if c.FPS <= 0 {
		return errors.Newf("invalid fps %v", c.FPS).
			Component("framesource").
			Category(errors.CategoryValidation).
			Build()
	}
	return nil
}

// FrameSize is the number of bytes in one rgb24 frame.
func (c Config) FrameSize() int {
	return c.Width * c.Height * BytesPerPixel
}

// Reader reads fixed-size rgb24 frames from an io.Reader, for example the
// stdout of `ffmpeg -f rawvideo -pix_fmt rgb24`. Reads are staged through a
// byte ring so short reads from pipes never split a frame.
type Reader struct {
	src   io.Reader
	cfg   Config
	ring  *ringbuffer.RingBuffer
	chunk []byte
	seq   int
	eof   bool
	log   logger.Logger
}

// NewReader creates a Reader over src.
func NewReader(src io.Reader, cfg Config) (*Reader, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if cfg.BufferFrames <= 0 {
		cfg.BufferFrames = defaultBufferFrames
	}
	return &Reader{
		src:   src,
		cfg:   cfg,
		ring:  ringbuffer.New(cfg.FrameSize() * cfg.BufferFrames),
		chunk: make([]byte, min(readChunkSize, cfg.FrameSize()*cfg.BufferFrames)),
		log:   GetLogger(),
	}, nil
}

// Next returns the next frame, or io.EOF once the stream is exhausted.
// A trailing partial frame is dropped.
func (r *Reader) Next(ctx context.Context) (*Frame, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	frameSize := r.cfg.FrameSize()
	if err := r.fill(ctx, frameSize); err != nil {
		return nil, err
	}

	if r.ring.Length() < frameSize {
		if rest := r.ring.Length(); rest > 0 {
			r.log.Warn("dropping trailing partial frame",
				logger.Int("bytes", rest),
				logger.Int("frame_size", frameSize))
			r.ring.Reset()
		}
		return nil, io.EOF
	}

	frame := &Frame{
		Seq:       r.seq,
		Width:     r.cfg.Width,
		Height:    r.cfg.Height,
		Data:      make([]byte, frameSize),
		Timestamp: float64(r.seq) / r.cfg.FPS,
	}
	if _, err := io.ReadFull(r.ring, frame.Data); err != nil {
		return nil, errors.New(err).
			Component("framesource").
			Category(errors.CategoryFrameSource).
			Context("seq", r.seq).
			Build()
	}
	r.seq++
	return frame, nil
}

func (r *Reader) fill(ctx context.Context, want int) error {
	empty := 0
	for !r.eof && r.ring.Length() < want {
		if err := ctx.Err(); err != nil {
			return err
		}
		n := min(r.ring.Free(), len(r.chunk))
		read, err := r.src.Read(r.chunk[:n])
		if read > 0 {
			empty = 0
			if _, werr := r.ring.Write(r.chunk[:read]); werr != nil {
				return errors.New(werr).
					Component("framesource").
					Category(errors.CategoryFrameSource).
					Context("operation", "ring_write").
					Build()
			}
		}
		switch {
		case errors.Is(err, io.EOF):
			r.eof = true
		case err == nil && read == 0:
			empty++
			if empty >= maxEmptyReads {
				return errors.New(io.ErrNoProgress).
					Component("framesource").
					Category(errors.CategoryFrameSource).
					Context("empty_reads", empty).
					Build()
			}
		case err != nil:
			return errors.New(err).
				Component("framesource").
				Category(errors.CategoryFrameSource).
				Context("operation", "read").
				Build()
		}
	}
	return nil
}

// Frames returns how many frames have been read so far.
func (r *Reader) Frames() int {
	return r.seq
}
