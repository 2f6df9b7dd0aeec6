package pipeline

import (
	"encoding/binary"
	"image"
	"image/color"
	"io"
	"os"
	"path/filepath"
	"reflect"
	"runtime"
	"sync"
	"testing"
	"time"

	"github.com/vidpipe/vidpipe/pkg/caps"
	"github.com/vidpipe/vidpipe/pkg/io/video"
	"github.com/vidpipe/vidpipe/pkg/overlay"
)

// finiteSource yields n solid frames and then io.EOF, closing done on the
// first EOF so tests can wait for exhaustion before stopping.
func finiteSource(n, w, h int, done chan struct{}) video.Reader {
	var once sync.Once
	count := 0
	return video.ReaderFunc(func() (image.Image, func(), error) {
		if count >= n {
			if done != nil {
				once.Do(func() { close(done) })
			}
			return nil, func() {}, io.EOF
		}
		count++
		img := image.NewRGBA(image.Rect(0, 0, w, h))
		for i := 3; i < len(img.Pix); i += 4 {
			img.Pix[i] = 0xff
		}
		return img, func() {}, nil
	})
}

type countingSink struct {
	mu     sync.Mutex
	frames int
}

func (s *countingSink) sink(image.Image) error {
	s.mu.Lock()
	s.frames++
	s.mu.Unlock()
	return nil
}

func (s *countingSink) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.frames
}

func TestNewRequiresSource(t *testing.T) {
	if _, err := New(Config{}); err == nil {
		t.Fatal("expected error for missing source")
	}
}

func TestDefaultChainShape(t *testing.T) {
	p, err := New(Config{Source: finiteSource(1, 4, 4, nil)})
	if err != nil {
		t.Fatal(err)
	}

	want := []string{"source", "videorate", "tee", "queue", "sink"}
	if got := p.DisplayStages(); !reflect.DeepEqual(got, want) {
		t.Errorf("display stages = %v, want %v", got, want)
	}
	if got := p.CaptureStages(); got != nil {
		t.Errorf("capture stages = %v, want none", got)
	}
}

func TestFullChainShape(t *testing.T) {
	warp := video.WarpMatrix{1, 0, 2, 0, 1, 0}
	instr, err := overlay.Marshal([]overlay.Op{{Op: overlay.OpFill}})
	if err != nil {
		t.Fatal(err)
	}

	p, err := New(Config{
		Source:           finiteSource(1, 4, 4, nil),
		OnFrameGrabbed:   func(*image.NRGBA) {},
		ScaleWidth:       8,
		WarpMatrix:       &warp,
		DrawInstructions: instr,
	})
	if err != nil {
		t.Fatal(err)
	}

	want := []string{"source", "videorate", "tee", "queue", "grab", "scale", "warp", "draw", "sink"}
	if got := p.DisplayStages(); !reflect.DeepEqual(got, want) {
		t.Errorf("display stages = %v, want %v", got, want)
	}
}

func TestCaptureNeedsBothBitrateAndPath(t *testing.T) {
	for _, tc := range []struct {
		name    string
		bitrate int
		path    string
	}{
		{"bitrate only", 1_000_000, ""},
		{"path only", 0, "out.avi"},
	} {
		t.Run(tc.name, func(t *testing.T) {
			path := tc.path
			if path != "" {
				path = filepath.Join(t.TempDir(), path)
			}
			p, err := New(Config{
				Source:     finiteSource(1, 4, 4, nil),
				Capability: caps.Capability{Width: 4, Height: 4},
				Bitrate:    tc.bitrate,
				OutputPath: path,
			})
			if err != nil {
				t.Fatal(err)
			}
			if got := p.CaptureStages(); got != nil {
				t.Errorf("capture stages = %v, want none", got)
			}
		})
	}
}

func TestCaptureChainShape(t *testing.T) {
	p, err := New(Config{
		Source:     finiteSource(1, 4, 4, nil),
		Capability: caps.Capability{Width: 4, Height: 4},
		Bitrate:    1_000_000,
		OutputPath: filepath.Join(t.TempDir(), "out.avi"),
	})
	if err != nil {
		t.Fatal(err)
	}
	defer p.Stop()

	want := []string{"queue", "convert", "encoder", "muxer", "filesink"}
	if got := p.CaptureStages(); !reflect.DeepEqual(got, want) {
		t.Errorf("capture stages = %v, want %v", got, want)
	}
	// Capture never changes the display branch shape.
	wantDisplay := []string{"source", "videorate", "tee", "queue", "sink"}
	if got := p.DisplayStages(); !reflect.DeepEqual(got, wantDisplay) {
		t.Errorf("display stages = %v, want %v", got, wantDisplay)
	}
}

func TestCaptureNeedsGeometry(t *testing.T) {
	_, err := New(Config{
		Source:     finiteSource(1, 4, 4, nil),
		Bitrate:    1_000_000,
		OutputPath: filepath.Join(t.TempDir(), "out.avi"),
	})
	if err == nil {
		t.Fatal("expected error for missing capture geometry")
	}
}

func TestDisplayDeliversAllFrames(t *testing.T) {
	const n = 5
	done := make(chan struct{})
	sink := &countingSink{}

	p, err := New(Config{
		Source: finiteSource(n, 8, 8, done),
		Sink:   sink.sink,
	})
	if err != nil {
		t.Fatal(err)
	}
	if err := p.Start(); err != nil {
		t.Fatal(err)
	}

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("source never drained")
	}
	if err := p.Stop(); err != nil {
		t.Fatal(err)
	}

	if got := sink.count(); got != n {
		t.Errorf("sink saw %d frames, want %d", got, n)
	}
	if p.State() != StateStopped {
		t.Errorf("state = %s, want stopped", p.State())
	}
}

func TestDrawFailureDoesNotStopStream(t *testing.T) {
	const n = 5
	done := make(chan struct{})
	sink := &countingSink{}

	p, err := New(Config{
		Source:   finiteSource(n, 8, 8, done),
		Sink:     sink.sink,
		DrawFunc: func(*image.RGBA) error { panic("bad overlay") },
	})
	if err != nil {
		t.Fatal(err)
	}
	if err := p.Start(); err != nil {
		t.Fatal(err)
	}

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("source never drained")
	}
	if err := p.Stop(); err != nil {
		t.Fatal(err)
	}

	if got := sink.count(); got != n {
		t.Errorf("sink saw %d frames, want %d", got, n)
	}
	if got := p.Overlay().Failures(); got != n {
		t.Errorf("overlay failures = %d, want %d", got, n)
	}
}

func TestCaptureWritesPlayableFile(t *testing.T) {
	const n = 100
	done := make(chan struct{})
	out := filepath.Join(t.TempDir(), "out.avi")

	p, err := New(Config{
		Source:     finiteSource(n, 16, 16, done),
		Capability: caps.Capability{Width: 16, Height: 16, FramerateNum: 30, FramerateDenom: 1},
		Bitrate:    2_000_000,
		OutputPath: out,
	})
	if err != nil {
		t.Fatal(err)
	}
	if err := p.Start(); err != nil {
		t.Fatal(err)
	}

	select {
	case <-done:
	case <-time.After(10 * time.Second):
		t.Fatal("source never drained")
	}
	if err := p.Stop(); err != nil {
		t.Fatal(err)
	}

	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatal(err)
	}
	if string(data[0:4]) != "RIFF" || string(data[8:12]) != "AVI " {
		t.Fatalf("bad RIFF header: %q %q", data[0:4], data[8:12])
	}
	if frames := binary.LittleEndian.Uint32(data[48:]); frames == 0 {
		t.Error("capture recorded zero frames")
	}
}

func TestMuxFailureDrainsWithoutLeaking(t *testing.T) {
	const n = 20
	done := make(chan struct{})
	sink := &countingSink{}
	before := runtime.NumGoroutine()

	p, err := New(Config{
		Source:     finiteSource(n, 8, 8, done),
		Capability: caps.Capability{Width: 8, Height: 8},
		Bitrate:    1_000_000,
		OutputPath: filepath.Join(t.TempDir(), "out.avi"),
		Sink:       sink.sink,
	})
	if err != nil {
		t.Fatal(err)
	}
	// Every WriteFrame fails from the first frame on.
	if err := p.muxer.Close(); err != nil {
		t.Fatal(err)
	}

	if err := p.Start(); err != nil {
		t.Fatal(err)
	}
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("source never drained: a branch stopped pulling")
	}
	if err := p.Stop(); err != nil {
		t.Fatal(err)
	}

	if got := sink.count(); got == 0 {
		t.Error("display branch starved after mux failure")
	}

	// Both branch loops and both queue pumps must be gone.
	deadline := time.Now().Add(5 * time.Second)
	for runtime.NumGoroutine() > before {
		if time.Now().After(deadline) {
			t.Fatalf("goroutines leaked: %d running, started with %d",
				runtime.NumGoroutine(), before)
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestConfigOverlayEnablesDrawStage(t *testing.T) {
	p, err := New(Config{
		Source:  finiteSource(1, 4, 4, nil),
		Overlay: overlay.New(),
	})
	if err != nil {
		t.Fatal(err)
	}

	want := []string{"source", "videorate", "tee", "queue", "draw", "sink"}
	if got := p.DisplayStages(); !reflect.DeepEqual(got, want) {
		t.Errorf("display stages = %v, want %v", got, want)
	}
	if p.Overlay() == nil {
		t.Fatal("Overlay() = nil with a configured overlay")
	}

	blob, err := overlay.Marshal([]overlay.Op{{Op: overlay.OpClosePath}})
	if err != nil {
		t.Fatal(err)
	}
	if err := p.SetDrawInstructions(blob); err != nil {
		t.Fatal(err)
	}
}

func TestSetDrawInstructionsAtRuntime(t *testing.T) {
	p, err := New(Config{
		Source:   finiteSource(1, 4, 4, nil),
		DrawFunc: func(*image.RGBA) error { return nil },
	})
	if err != nil {
		t.Fatal(err)
	}

	blob, err := overlay.Marshal([]overlay.Op{
		{Op: overlay.OpSetRGBA, R: 1, A: 1},
		{Op: overlay.OpMoveTo, X: 0, Y: 0},
		{Op: overlay.OpLineTo, X: 4, Y: 0},
		{Op: overlay.OpLineTo, X: 4, Y: 4},
		{Op: overlay.OpClosePath},
		{Op: overlay.OpFill},
	})
	if err != nil {
		t.Fatal(err)
	}
	if err := p.SetDrawInstructions(blob); err != nil {
		t.Fatal(err)
	}

	bare, err := New(Config{Source: finiteSource(1, 4, 4, nil)})
	if err != nil {
		t.Fatal(err)
	}
	if err := bare.SetDrawInstructions(blob); err == nil {
		t.Error("expected error without a draw stage")
	}
}

func TestStartTwiceFails(t *testing.T) {
	done := make(chan struct{})
	p, err := New(Config{Source: finiteSource(1, 4, 4, done)})
	if err != nil {
		t.Fatal(err)
	}
	if err := p.Start(); err != nil {
		t.Fatal(err)
	}
	if err := p.Start(); err == nil {
		t.Error("expected error starting a running pipeline")
	}
	<-done
	if err := p.Stop(); err != nil {
		t.Fatal(err)
	}
	if err := p.Start(); err == nil {
		t.Error("expected error starting a stopped pipeline")
	}
}

func TestStageRegistryOrder(t *testing.T) {
	want := []string{"grab", "scale", "warp", "draw"}
	if got := StageNames(); !reflect.DeepEqual(got, want) {
		t.Errorf("stage names = %v, want %v", got, want)
	}
}

func TestRegisterStageReplacesInPlace(t *testing.T) {
	before := StageNames()
	RegisterStage("scale", func(cfg *Config) (video.TransformFunc, error) {
		return video.Scale(cfg.ScaleWidth, cfg.ScaleHeight, video.ScalerApproxBiLinear), nil
	})
	if got := StageNames(); !reflect.DeepEqual(got, before) {
		t.Errorf("stage names changed on replace: %v, want %v", got, before)
	}
}

func TestRegisterStageExtendsChain(t *testing.T) {
	RegisterStage("invert", func(cfg *Config) (video.TransformFunc, error) {
		return func(r video.Reader) video.Reader {
			return video.ReaderFunc(func() (image.Image, func(), error) {
				img, release, err := r.Read()
				if err != nil {
					return nil, release, err
				}
				rgba := img.(*image.RGBA)
				out := image.NewRGBA(rgba.Rect)
				for i := 0; i < len(rgba.Pix); i += 4 {
					out.Pix[i] = 0xff - rgba.Pix[i]
					out.Pix[i+1] = 0xff - rgba.Pix[i+1]
					out.Pix[i+2] = 0xff - rgba.Pix[i+2]
					out.Pix[i+3] = rgba.Pix[i+3]
				}
				release()
				return out, func() {}, nil
			})
		}, nil
	})
	t.Cleanup(func() {
		stageMu.Lock()
		for i, e := range stages {
			if e.name == "invert" {
				stages = append(stages[:i], stages[i+1:]...)
				break
			}
		}
		stageMu.Unlock()
	})

	done := make(chan struct{})
	var got color.RGBA
	var mu sync.Mutex

	p, err := New(Config{
		Source: finiteSource(1, 4, 4, done),
		Sink: func(img image.Image) error {
			mu.Lock()
			got = img.(*image.RGBA).RGBAAt(0, 0)
			mu.Unlock()
			return nil
		},
	})
	if err != nil {
		t.Fatal(err)
	}

	want := []string{"source", "videorate", "tee", "queue", "invert", "sink"}
	if stagesGot := p.DisplayStages(); !reflect.DeepEqual(stagesGot, want) {
		t.Fatalf("display stages = %v, want %v", stagesGot, want)
	}

	if err := p.Start(); err != nil {
		t.Fatal(err)
	}
	<-done
	if err := p.Stop(); err != nil {
		t.Fatal(err)
	}

	mu.Lock()
	defer mu.Unlock()
	if got != (color.RGBA{R: 0xff, G: 0xff, B: 0xff, A: 0xff}) {
		t.Errorf("inverted pixel = %v, want white", got)
	}
}
