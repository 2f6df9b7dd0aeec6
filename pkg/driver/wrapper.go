package driver

import (
	"fmt"

	"github.com/vidpipe/vidpipe/pkg/caps"
	"github.com/vidpipe/vidpipe/pkg/io/video"
)

// wrappedAdapter guards an Adapter with the driver state machine and gives
// it a registry identity.
type wrappedAdapter struct {
	adapter Adapter
	id      string
	info    Info
	state   State
}

func (w *wrappedAdapter) ID() string {
	return w.id
}

func (w *wrappedAdapter) Info() Info {
	return w.info
}

func (w *wrappedAdapter) Status() State {
	return w.state
}

func (w *wrappedAdapter) Open() error {
	return w.state.Update(StateOpened, w.adapter.Open)
}

func (w *wrappedAdapter) Close() error {
	return w.state.Update(StateClosed, w.adapter.Close)
}

func (w *wrappedAdapter) RawCapabilities() ([]caps.RawCapability, error) {
	if w.state == StateClosed {
		return nil, fmt.Errorf("invalid state: driver hasn't been opened")
	}
	return w.adapter.RawCapabilities()
}

func (w *wrappedAdapter) VideoRecord(c caps.Capability) (video.Reader, error) {
	var r video.Reader
	err := w.state.Update(StateRunning, func() error {
		var err error
		r, err = w.adapter.VideoRecord(c)
		return err
	})
	return r, err
}
