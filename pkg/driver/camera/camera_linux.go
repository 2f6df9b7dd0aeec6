//go:build linux

// Package camera registers V4L2 capture devices with the driver manager.
package camera

import (
	"errors"
	"fmt"
	"image"
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/blackjack/webcam"

	"github.com/vidpipe/vidpipe/internal/logging"
	"github.com/vidpipe/vidpipe/pkg/caps"
	"github.com/vidpipe/vidpipe/pkg/driver"
	"github.com/vidpipe/vidpipe/pkg/frame"
	"github.com/vidpipe/vidpipe/pkg/io/video"
)

const maxEmptyFrameCount = 5

var (
	errReadTimeout = errors.New("read timeout")
	errEmptyFrame  = errors.New("empty frame")

	logger = logging.NewLogger("camera")
)

// Device symlink directories, in preference order. by-id names are stable
// across reboots and are what capability tables report as device names.
var searchPaths = []string{"/dev/v4l/by-id", "/dev/v4l/by-path"}

// fourcc string -> decodable frame format.
var formats = map[string]frame.Format{
	"YUYV": frame.FormatYUY2,
	"UYVY": frame.FormatUYVY,
	"YU12": frame.FormatI420,
	"NV21": frame.FormatNV21,
	"MJPG": frame.FormatMJPEG,
	"JPEG": frame.FormatMJPEG,
}

func init() {
	Initialize()
}

// Initialize enumerates the V4L2 device directory and registers one driver
// per device. It is called from init and again by the hotplug monitor.
func Initialize() {
	for _, dir := range searchPaths {
		entries, err := os.ReadDir(dir)
		if err != nil {
			continue
		}
		for _, entry := range entries {
			registerDevice(filepath.Join(dir, entry.Name()), entry.Name())
		}
		return
	}
}

func registerDevice(path, label string) string {
	if len(driver.GetManager().Query(driver.FilterLabel(label))) > 0 {
		return ""
	}
	logger.Debugf("registering %s", path)
	return driver.GetManager().Register(newCamera(path), driver.Info{
		Label:      label,
		DeviceType: driver.Camera,
	})
}

// camera implements driver.Adapter on top of V4L2.
// Reference: https://linuxtv.org/downloads/v4l-dvb-apis/uapi/v4l/videodev.html
type camera struct {
	path   string
	cam    *webcam.Webcam
	mutex  sync.Mutex
	cancel func()
}

func newCamera(path string) *camera {
	return &camera{path: path}
}

func (c *camera) Open() error {
	cam, err := webcam.Open(c.path)
	if err != nil {
		return fmt.Errorf("camera: open %s: %w", c.path, err)
	}
	c.cam = cam
	return nil
}

func (c *camera) Close() error {
	if c.cam == nil {
		return nil
	}

	if c.cancel != nil {
		// Let the reader know the camera is going away, then wait for it to
		// unref the mmap buffer before freeing it.
		c.cancel()
		c.mutex.Lock()
		defer c.mutex.Unlock()

		c.cam.StopStreaming()
		c.cancel = nil
	}
	c.cam.Close()
	c.cam = nil
	return nil
}

func (c *camera) RawCapabilities() ([]caps.RawCapability, error) {
	if c.cam == nil {
		return nil, errors.New("camera: not opened")
	}

	var raw []caps.RawCapability
	for pf := range c.cam.GetSupportedFormats() {
		fourcc := caps.FourCCString(uint32(pf))
		for _, size := range c.cam.GetSupportedFrameSizes(pf) {
			rc := caps.RawCapability{
				FourCC: fourcc,
				Width:  sizeValue(size.MinWidth, size.MaxWidth, size.StepWidth),
				Height: sizeValue(size.MinHeight, size.MaxHeight, size.StepHeight),
			}
			rc.Framerate = framerateValue(
				c.cam.GetSupportedFramerates(pf, size.MaxWidth, size.MaxHeight))
			raw = append(raw, rc)
		}
	}
	return raw, nil
}

func sizeValue(min, max, step uint32) caps.IntValue {
	if step == 0 && min == max {
		return caps.Int(max)
	}
	return caps.IntRange{Low: int(min), High: int(max), Step: int(step)}
}

func framerateValue(rates []webcam.FrameRate) caps.FractionValue {
	if len(rates) == 0 {
		// Older drivers don't enumerate intervals; assume the V4L2 default.
		return caps.Frac{Num: 30, Denom: 1}
	}

	var list caps.FracList
	for _, r := range rates {
		if r.StepNumerator == 0 && r.StepDenominator == 0 &&
			r.MinNumerator == r.MaxNumerator && r.MinDenominator == r.MaxDenominator {
			list = append(list, caps.Fraction{Num: int(r.MaxNumerator), Denom: int(r.MaxDenominator)})
			continue
		}

		low := caps.Fraction{Num: int(r.MinNumerator), Denom: int(r.MinDenominator)}
		high := caps.Fraction{Num: int(r.MaxNumerator), Denom: int(r.MaxDenominator)}
		if high.Less(low) {
			low, high = high, low
		}
		if len(rates) == 1 {
			return caps.FracRange{Low: low, High: high}
		}
		list = append(list, low, high)
	}
	if len(list) == 1 {
		return caps.Frac(list[0])
	}
	return list
}

func (c *camera) VideoRecord(p caps.Capability) (video.Reader, error) {
	if c.cam == nil {
		return nil, errors.New("camera: not opened")
	}

	format, ok := formats[p.FourCC]
	if !ok {
		return nil, fmt.Errorf("camera: no decoder for format %s", p.FourCC)
	}
	decoder, err := frame.NewDecoder(format)
	if err != nil {
		return nil, err
	}

	pf := webcam.PixelFormat(caps.FourCCCode(p.FourCC))
	_, width, height, err := c.cam.SetImageFormat(pf, uint32(p.Width), uint32(p.Height))
	if err != nil {
		return nil, fmt.Errorf("camera: set format: %w", err)
	}

	if err := c.cam.StartStreaming(); err != nil {
		return nil, fmt.Errorf("camera: start streaming: %w", err)
	}

	cam := c.cam
	done := make(chan struct{})
	var once sync.Once
	c.cancel = func() { once.Do(func() { close(done) }) }

	var buf []byte
	r := video.ReaderFunc(func() (image.Image, func(), error) {
		// Hold the lock so Close can't free the mmap buffer mid-read.
		c.mutex.Lock()
		defer c.mutex.Unlock()

		for i := 0; i < maxEmptyFrameCount; i++ {
			select {
			case <-done:
				return nil, func() {}, io.EOF
			default:
			}

			err := cam.WaitForFrame(5) // seconds
			switch err.(type) {
			case nil:
			case *webcam.Timeout:
				return nil, func() {}, errReadTimeout
			default:
				return nil, func() {}, err
			}

			b, err := cam.ReadFrame()
			if err != nil {
				return nil, func() {}, err
			}
			if len(b) == 0 {
				continue
			}

			if len(b) > len(buf) {
				buf = make([]byte, len(b))
			}
			// Copy out of the mmap region so the frame stays valid after the
			// kernel buffer is requeued.
			n := copy(buf, b)
			return decoder.Decode(buf[:n], int(width), int(height))
		}
		return nil, func() {}, errEmptyFrame
	})

	return r, nil
}
