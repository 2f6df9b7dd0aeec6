// Package mjpeg provides a pure Go Motion-JPEG encoder. It registers itself
// as "mjpeg".
package mjpeg

import (
	"bytes"
	"fmt"
	"image"
	"image/jpeg"

	"github.com/vidpipe/vidpipe/pkg/codec"
)

func init() {
	codec.Register("mjpeg", NewEncoder)
}

type encoder struct {
	quality int
	buf     bytes.Buffer
	closed  bool
}

// NewEncoder builds an MJPEG encoder. The JPEG quality factor is derived
// from the requested bitrate and frame geometry.
func NewEncoder(s codec.Settings) (codec.VideoEncoder, error) {
	if s.Width <= 0 || s.Height <= 0 {
		return nil, fmt.Errorf("mjpeg: invalid frame size %dx%d", s.Width, s.Height)
	}
	if s.BitRate <= 0 {
		return nil, fmt.Errorf("mjpeg: invalid bitrate %d", s.BitRate)
	}

	return &encoder{quality: qualityFor(s)}, nil
}

// qualityFor maps a target bitrate to a JPEG quality factor via bits per
// pixel per frame. The mapping is a heuristic: MJPEG has no rate control,
// so quality is fixed per stream.
func qualityFor(s codec.Settings) int {
	rate := s.FrameRate
	if rate <= 0 {
		rate = 30
	}
	bpp := float64(s.BitRate) / (float64(s.Width) * float64(s.Height) * float64(rate))

	// Roughly 0.25 bpp is heavily compressed, 4 bpp is visually lossless.
	quality := int(30 + bpp*16)
	if quality < 30 {
		quality = 30
	}
	if quality > 95 {
		quality = 95
	}
	return quality
}

func (e *encoder) Encode(img image.Image) ([]byte, error) {
	if e.closed {
		return nil, fmt.Errorf("mjpeg: encoder is closed")
	}

	e.buf.Reset()
	if err := jpeg.Encode(&e.buf, img, &jpeg.Options{Quality: e.quality}); err != nil {
		return nil, fmt.Errorf("mjpeg: encode: %w", err)
	}
	return e.buf.Bytes(), nil
}

func (e *encoder) Close() error {
	e.closed = true
	return nil
}
