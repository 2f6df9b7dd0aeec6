// Package videotest provides a synthetic color-bar video source for tests
// and examples. No hardware is touched.
package videotest

import (
	"image"
	"image/color"
	"io"
	"sync"

	"github.com/vidpipe/vidpipe/pkg/caps"
	"github.com/vidpipe/vidpipe/pkg/driver"
	"github.com/vidpipe/vidpipe/pkg/io/video"
)

// Standard 75% color bars, left to right.
var barColors = []color.RGBA{
	{R: 0xc0, G: 0xc0, B: 0xc0, A: 0xff}, // white
	{R: 0xc0, G: 0xc0, B: 0x00, A: 0xff}, // yellow
	{R: 0x00, G: 0xc0, B: 0xc0, A: 0xff}, // cyan
	{R: 0x00, G: 0xc0, B: 0x00, A: 0xff}, // green
	{R: 0xc0, G: 0x00, B: 0xc0, A: 0xff}, // magenta
	{R: 0xc0, G: 0x00, B: 0x00, A: 0xff}, // red
	{R: 0x00, G: 0x00, B: 0xc0, A: 0xff}, // blue
}

type source struct {
	mu     sync.Mutex
	closed bool
}

// NewAdapter returns a synthetic source adapter. Register it with the driver
// manager to make it discoverable, or hand its reader straight to a
// pipeline.
func NewAdapter() driver.Adapter {
	return &source{}
}

// Register registers a synthetic source under the given label and returns
// its driver ID.
func Register(label string) string {
	return driver.GetManager().Register(NewAdapter(), driver.Info{
		Label:      label,
		DeviceType: driver.Synthetic,
	})
}

func (s *source) Open() error {
	s.mu.Lock()
	s.closed = false
	s.mu.Unlock()
	return nil
}

func (s *source) Close() error {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
	return nil
}

func (s *source) RawCapabilities() ([]caps.RawCapability, error) {
	return []caps.RawCapability{
		{
			FourCC:    "RGBA",
			Width:     caps.Int(640),
			Height:    caps.Int(480),
			Framerate: caps.FracList{{Num: 15, Denom: 1}, {Num: 30, Denom: 1}},
		},
		{
			FourCC:    "RGBA",
			Width:     caps.IntRange{Low: 160, High: 1280, Step: 16},
			Height:    caps.IntRange{Low: 120, High: 720, Step: 16},
			Framerate: caps.FracRange{Low: caps.Fraction{Num: 5, Denom: 1}, High: caps.Fraction{Num: 60, Denom: 1}},
		},
	}, nil
}

func (s *source) VideoRecord(c caps.Capability) (video.Reader, error) {
	width, height := c.Width, c.Height
	if width <= 0 {
		width = 640
	}
	if height <= 0 {
		height = 480
	}

	var count int
	return video.ReaderFunc(func() (image.Image, func(), error) {
		s.mu.Lock()
		closed := s.closed
		s.mu.Unlock()
		if closed {
			return nil, func() {}, io.EOF
		}

		img := image.NewRGBA(image.Rect(0, 0, width, height))
		Frame(img, count)
		count++
		return img, func() {}, nil
	}), nil
}

// Frame renders the synthetic pattern for the given frame counter into img:
// color bars with a moving vertical marker so that consecutive frames
// differ deterministically.
func Frame(img *image.RGBA, count int) {
	bounds := img.Bounds()
	width, height := bounds.Dx(), bounds.Dy()
	barWidth := (width + len(barColors) - 1) / len(barColors)
	marker := count % width

	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			c := barColors[x/barWidth]
			if x == marker {
				c = color.RGBA{A: 0xff}
			}
			img.SetRGBA(bounds.Min.X+x, bounds.Min.Y+y, c)
		}
	}
}
