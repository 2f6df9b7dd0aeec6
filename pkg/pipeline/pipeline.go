// Package pipeline assembles a capture graph from a video source: a
// rate-normalized backbone feeding a display branch with optional
// processing stages and, when recording is requested, an MJPEG/AVI
// capture branch.
package pipeline

import (
	"fmt"
	"image"
	"image/draw"
	"os"
	"sync"

	"github.com/vidpipe/vidpipe/internal/logging"
	"github.com/vidpipe/vidpipe/pkg/avi"
	"github.com/vidpipe/vidpipe/pkg/caps"
	"github.com/vidpipe/vidpipe/pkg/codec"
	_ "github.com/vidpipe/vidpipe/pkg/codec/mjpeg"
	"github.com/vidpipe/vidpipe/pkg/io/video"
	"github.com/vidpipe/vidpipe/pkg/overlay"
)

var logger = logging.NewLogger("pipeline")

const defaultQueueSize = 2

// Config describes one pipeline. Source is required; every processing
// stage is enabled by its own field and absent by default. The capture
// branch exists only when both Bitrate and OutputPath are set.
type Config struct {
	// Source delivers raw frames, usually driver.VideoRecord output.
	Source video.Reader
	// Capability is the negotiated mode: geometry for the encoder and
	// Framerate for rate normalization. A zero Framerate disables
	// throttling.
	Capability caps.Capability

	// Sink receives display-branch frames. The frame is only valid for
	// the duration of the call. A nil Sink discards frames.
	Sink func(image.Image) error

	// OnFrameGrabbed, when set, enables the grab tap: it gets an isolated
	// copy of every display frame.
	OnFrameGrabbed func(*image.NRGBA)
	// ScaleWidth and ScaleHeight enable the scale stage when either is
	// positive; a non-positive one is derived from the aspect ratio.
	ScaleWidth  int
	ScaleHeight int
	// WarpMatrix enables the warp stage when non-nil and not identity.
	WarpMatrix *video.WarpMatrix
	// Overlay is the draw stage's element. It may be supplied directly;
	// otherwise New builds one when DrawInstructions or DrawFunc is set.
	Overlay *overlay.Overlay
	// DrawInstructions is a serialized overlay instruction list; DrawFunc
	// is a direct callback. Either enables the draw stage.
	DrawInstructions []byte
	DrawFunc         overlay.DrawFunc

	// Bitrate is the capture encoder target in bits per second.
	Bitrate int
	// OutputPath is the AVI file the capture branch records to.
	OutputPath string

	// QueueSize bounds each branch queue; defaults to 2 frames.
	QueueSize int
}

// State is the pipeline lifecycle position.
type State int

const (
	StateIdle State = iota
	StateRunning
	StateStopped
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRunning:
		return "running"
	case StateStopped:
		return "stopped"
	}
	return "invalid"
}

// Pipeline is an assembled graph. New builds it, Start runs it, Stop
// tears it down; a stopped pipeline cannot be restarted.
type Pipeline struct {
	cfg Config

	display       video.Reader
	capture       video.Reader
	displayStages []string
	captureStages []string

	encoder codec.VideoEncoder
	muxer   *avi.Writer
	file    *os.File

	stop     chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup

	mu    sync.Mutex
	state State
}

func init() {
	RegisterStage("grab", func(cfg *Config) (video.TransformFunc, error) {
		return video.Grab(cfg.OnFrameGrabbed), nil
	})
	RegisterStage("scale", func(cfg *Config) (video.TransformFunc, error) {
		return video.Scale(cfg.ScaleWidth, cfg.ScaleHeight, video.ScalerApproxBiLinear), nil
	})
	RegisterStage("warp", func(cfg *Config) (video.TransformFunc, error) {
		if cfg.WarpMatrix == nil {
			return nil, nil
		}
		return video.Warp(*cfg.WarpMatrix), nil
	})
	RegisterStage("draw", func(cfg *Config) (video.TransformFunc, error) {
		if cfg.Overlay == nil {
			return nil, nil
		}
		return cfg.Overlay.Transform(), nil
	})
}

// New assembles the graph described by cfg without starting it.
func New(cfg Config) (*Pipeline, error) {
	if cfg.Source == nil {
		return nil, fmt.Errorf("pipeline: no source")
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = defaultQueueSize
	}

	p := &Pipeline{stop: make(chan struct{})}

	if cfg.Overlay == nil && (cfg.DrawInstructions != nil || cfg.DrawFunc != nil) {
		cfg.Overlay = overlay.New()
	}
	if cfg.Overlay != nil {
		if cfg.DrawInstructions != nil {
			if err := cfg.Overlay.SetInstructions(cfg.DrawInstructions); err != nil {
				return nil, err
			}
		}
		if cfg.DrawFunc != nil {
			cfg.Overlay.SetDrawFunc(cfg.DrawFunc)
		}
	}

	// Backbone: source -> videorate -> tee. The rate stage is a
	// passthrough when the capability carries no rate.
	source := p.stoppable(cfg.Source)
	if t := video.Throttle(float32(cfg.Capability.Framerate)); t != nil {
		source = t(source)
	}
	tee := video.NewBroadcaster(source)

	// Display branch: queue -> optional stages -> sink.
	stages, present, err := buildStages(&cfg)
	if err != nil {
		return nil, err
	}
	p.display = stages(video.Queue(cfg.QueueSize)(tee.NewReader(false)))
	p.displayStages = append([]string{"source", "videorate", "tee", "queue"}, present...)
	p.displayStages = append(p.displayStages, "sink")

	// Capture branch: queue -> convert -> encoder -> muxer -> filesink.
	// Only assembled when both the bitrate and the destination are given;
	// one without the other records nothing.
	if cfg.Bitrate > 0 && cfg.OutputPath != "" {
		if err := p.buildCapture(&cfg, tee); err != nil {
			p.closeCapture()
			return nil, err
		}
		p.captureStages = []string{"queue", "convert", "encoder", "muxer", "filesink"}
	} else if cfg.Bitrate > 0 || cfg.OutputPath != "" {
		logger.Debugf("capture disabled: needs both bitrate and output path")
	}

	p.cfg = cfg
	return p, nil
}

func (p *Pipeline) buildCapture(cfg *Config, tee *video.Broadcaster) error {
	width, height := cfg.Capability.Width, cfg.Capability.Height
	if width <= 0 || height <= 0 {
		return fmt.Errorf("pipeline: capture needs frame geometry, got %dx%d", width, height)
	}

	enc, err := codec.Build("mjpeg", codec.Settings{
		Width:     width,
		Height:    height,
		BitRate:   cfg.Bitrate,
		FrameRate: float32(cfg.Capability.Framerate),
	})
	if err != nil {
		return fmt.Errorf("pipeline: encoder: %w", err)
	}
	p.encoder = enc

	f, err := os.Create(cfg.OutputPath)
	if err != nil {
		return fmt.Errorf("pipeline: output: %w", err)
	}
	p.file = f

	fps := cfg.Capability.Fraction()
	if fps.Num <= 0 || fps.Denom <= 0 {
		fps = caps.Fraction{Num: 30, Denom: 1}
	}
	muxer, err := avi.NewWriter(f, width, height, fps)
	if err != nil {
		return fmt.Errorf("pipeline: muxer: %w", err)
	}
	p.muxer = muxer

	p.capture = cloneRGBA(video.Queue(cfg.QueueSize)(tee.NewReader(false)))
	return nil
}

// cloneRGBA is the colorspace-convert stage: every frame becomes a freshly
// allocated RGBA image the encoder owns outright.
func cloneRGBA(r video.Reader) video.Reader {
	return video.ReaderFunc(func() (image.Image, func(), error) {
		img, release, err := r.Read()
		if err != nil {
			return nil, func() {}, err
		}
		bounds := img.Bounds()
		dst := image.NewRGBA(bounds)
		draw.Draw(dst, bounds, img, bounds.Min, draw.Src)
		if release != nil {
			release()
		}
		return dst, func() {}, nil
	})
}

// Start begins pumping both branches.
func (p *Pipeline) Start() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.state != StateIdle {
		return fmt.Errorf("pipeline: cannot start from state %s", p.state)
	}
	p.state = StateRunning

	p.wg.Add(1)
	go p.runDisplay()
	if p.capture != nil {
		p.wg.Add(1)
		go p.runCapture()
	}
	return nil
}

func (p *Pipeline) runDisplay() {
	defer p.wg.Done()
	for {
		img, release, err := p.display.Read()
		if err != nil {
			logger.Debugf("display branch done: %v", err)
			return
		}
		if p.cfg.Sink != nil {
			if err := p.cfg.Sink(img); err != nil {
				logger.Warnf("sink rejected frame: %v", err)
			}
		}
		release()
	}
}

func (p *Pipeline) runCapture() {
	defer p.wg.Done()
	// After a mux failure recording is over, but the branch keeps draining:
	// returning early would leave the queue pump parked on a full channel
	// with no way out.
	var muxFailed bool
	for {
		img, release, err := p.capture.Read()
		if err != nil {
			logger.Debugf("capture branch done: %v", err)
			return
		}
		if muxFailed {
			release()
			continue
		}
		data, err := p.encoder.Encode(img)
		release()
		if err != nil {
			logger.Errorf("encode failed, dropping frame: %v", err)
			continue
		}
		if err := p.muxer.WriteFrame(data); err != nil {
			logger.Errorf("mux failed, discarding remaining frames: %v", err)
			muxFailed = true
		}
	}
}

// Stop drains both branches and finalizes the capture file. It is safe to
// call more than once; later calls return the first outcome.
func (p *Pipeline) Stop() error {
	p.stopOnce.Do(func() {
		close(p.stop)
	})
	p.wg.Wait()

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.state == StateStopped {
		return nil
	}
	p.state = StateStopped
	return p.closeCapture()
}

func (p *Pipeline) closeCapture() error {
	var first error
	if p.muxer != nil {
		if err := p.muxer.Close(); err != nil && first == nil {
			first = err
		}
		p.muxer = nil
	}
	if p.file != nil {
		if err := p.file.Close(); err != nil && first == nil {
			first = err
		}
		p.file = nil
	}
	if p.encoder != nil {
		if err := p.encoder.Close(); err != nil && first == nil {
			first = err
		}
		p.encoder = nil
	}
	return first
}

// State reports the lifecycle position.
func (p *Pipeline) State() State {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

// DisplayStages lists the display branch elements in order, including the
// always-present backbone.
func (p *Pipeline) DisplayStages() []string {
	return append([]string(nil), p.displayStages...)
}

// CaptureStages lists the capture branch elements, or nil when the
// pipeline records nothing.
func (p *Pipeline) CaptureStages() []string {
	return append([]string(nil), p.captureStages...)
}

// Overlay returns the draw stage's overlay for runtime instruction swaps,
// or nil when the pipeline has no draw stage.
func (p *Pipeline) Overlay() *overlay.Overlay {
	return p.cfg.Overlay
}

// SetDrawInstructions replaces the active overlay instruction list while
// the pipeline runs.
func (p *Pipeline) SetDrawInstructions(blob []byte) error {
	if p.cfg.Overlay == nil {
		return fmt.Errorf("pipeline: no draw stage configured")
	}
	return p.cfg.Overlay.SetInstructions(blob)
}

// stoppable wraps the source so that Stop ends the stream from upstream,
// letting both branch queues drain and exit.
func (p *Pipeline) stoppable(r video.Reader) video.Reader {
	return video.ReaderFunc(func() (image.Image, func(), error) {
		select {
		case <-p.stop:
			return nil, func() {}, errPipelineStopped
		default:
		}
		return r.Read()
	})
}

var errPipelineStopped = fmt.Errorf("pipeline stopped")
