// Package screen registers one capture driver per active display.
package screen

import (
	"fmt"
	"image"
	"io"
	"sync"
	"time"

	"github.com/kbinani/screenshot"

	"github.com/vidpipe/vidpipe/pkg/caps"
	"github.com/vidpipe/vidpipe/pkg/driver"
	"github.com/vidpipe/vidpipe/pkg/io/video"
)

// Display capture has no hardware-negotiated rate; this is the rate offered
// in the capability table and used to pace reads.
var defaultRate = caps.Fraction{Num: 30, Denom: 1}

func init() {
	Initialize()
}

// Initialize registers all active displays.
func Initialize() {
	for i := 0; i < screenshot.NumActiveDisplays(); i++ {
		driver.GetManager().Register(newScreen(i), driver.Info{
			Label:      fmt.Sprintf("screen:%d", i),
			DeviceType: driver.Screen,
		})
	}
}

type screen struct {
	index  int
	mu     sync.Mutex
	closed bool
}

func newScreen(index int) *screen {
	return &screen{index: index}
}

func (s *screen) Open() error {
	s.mu.Lock()
	s.closed = false
	s.mu.Unlock()
	return nil
}

func (s *screen) Close() error {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
	return nil
}

func (s *screen) RawCapabilities() ([]caps.RawCapability, error) {
	bounds := screenshot.GetDisplayBounds(s.index)
	return []caps.RawCapability{
		{
			FourCC:    "RGBA",
			Width:     caps.Int(bounds.Dx()),
			Height:    caps.Int(bounds.Dy()),
			Framerate: caps.Frac(defaultRate),
		},
	}, nil
}

func (s *screen) VideoRecord(c caps.Capability) (video.Reader, error) {
	bounds := screenshot.GetDisplayBounds(s.index)

	rate := c.Fraction()
	if rate.Float() <= 0 {
		rate = defaultRate
	}
	interval := time.Duration(float64(time.Second) / rate.Float())
	ticker := time.NewTicker(interval)

	return video.ReaderFunc(func() (image.Image, func(), error) {
		s.mu.Lock()
		closed := s.closed
		s.mu.Unlock()
		if closed {
			ticker.Stop()
			return nil, func() {}, io.EOF
		}

		<-ticker.C
		img, err := screenshot.CaptureRect(bounds)
		if err != nil {
			return nil, func() {}, fmt.Errorf("screen: capture: %w", err)
		}
		return img, func() {}, nil
	}), nil
}
