package overlay

import (
	"fmt"
	"image"
	"image/draw"
	"sync"
	"sync/atomic"

	"github.com/vidpipe/vidpipe/internal/logging"
	"github.com/vidpipe/vidpipe/pkg/io/video"
)

var logger = logging.NewLogger("overlay")

// DrawFunc draws directly onto a frame. Returning an error marks the frame
// as a failed draw; the frame is forwarded either way.
type DrawFunc func(*image.RGBA) error

// Overlay renders annotations on top of a video stream. The active
// instruction list can be swapped at any time, including while the stream
// is running; each frame sees a consistent snapshot.
type Overlay struct {
	mu       sync.RWMutex
	ops      []Op
	drawFunc DrawFunc

	failures atomic.Uint64
}

func New() *Overlay {
	return &Overlay{}
}

// SetInstructions parses and installs a serialized instruction list. An
// invalid blob is rejected without touching the active list.
func (o *Overlay) SetInstructions(blob []byte) error {
	ops, err := Unmarshal(blob)
	if err != nil {
		return err
	}
	o.mu.Lock()
	o.ops = ops
	o.mu.Unlock()
	return nil
}

// SetDrawFunc installs a callback invoked after the instruction list on
// every frame. A nil f removes the callback.
func (o *Overlay) SetDrawFunc(f DrawFunc) {
	o.mu.Lock()
	o.drawFunc = f
	o.mu.Unlock()
}

// Clear removes the active instruction list and draw callback.
func (o *Overlay) Clear() {
	o.mu.Lock()
	o.ops = nil
	o.drawFunc = nil
	o.mu.Unlock()
}

// Failures reports how many frames had a failed draw since creation.
func (o *Overlay) Failures() uint64 {
	return o.failures.Load()
}

// Transform returns the stream stage. Each frame is copied into an RGBA
// buffer owned by the stage, drawn on, and forwarded. A draw failure of
// any kind, panics included, never stops the stream.
func (o *Overlay) Transform() video.TransformFunc {
	return func(r video.Reader) video.Reader {
		var dst *image.RGBA
		return video.ReaderFunc(func() (image.Image, func(), error) {
			img, release, err := r.Read()
			if err != nil {
				return nil, release, err
			}

			bounds := img.Bounds()
			if dst == nil || dst.Bounds() != bounds {
				dst = image.NewRGBA(bounds)
			}
			draw.Draw(dst, bounds, img, bounds.Min, draw.Src)
			release()

			if err := o.draw(dst); err != nil {
				o.failures.Add(1)
				logger.Warnf("draw failed, forwarding frame: %v", err)
			}
			return dst, func() {}, nil
		})
	}
}

func (o *Overlay) draw(dst *image.RGBA) (err error) {
	o.mu.RLock()
	ops := o.ops
	drawFunc := o.drawFunc
	o.mu.RUnlock()

	if len(ops) == 0 && drawFunc == nil {
		return nil
	}

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("overlay: draw panicked: %v", r)
		}
	}()

	if len(ops) > 0 {
		if rerr := newRenderer(dst).render(ops); rerr != nil {
			return fmt.Errorf("overlay: %w", rerr)
		}
	}
	if drawFunc != nil {
		if derr := drawFunc(dst); derr != nil {
			return fmt.Errorf("overlay: draw callback: %w", derr)
		}
	}
	return nil
}
