// Package driver defines the video source abstraction and the registry
// through which platform drivers announce devices.
package driver

import (
	"github.com/vidpipe/vidpipe/pkg/caps"
	"github.com/vidpipe/vidpipe/pkg/io/video"
)

// Adapter is what a platform driver implements. The registry wraps every
// adapter with an ID and a guarded state machine before exposing it as a
// Driver.
type Adapter interface {
	Open() error
	Close() error
	// RawCapabilities reports the allowed capabilities negotiated from the
	// device. Valid only while the adapter is open.
	RawCapabilities() ([]caps.RawCapability, error)
	// VideoRecord configures the device for the given concrete capability and
	// starts streaming.
	VideoRecord(c caps.Capability) (video.Reader, error)
}

// Driver is a registered adapter.
type Driver interface {
	Adapter
	ID() string
	Info() Info
	Status() State
}

// Info describes a registered device.
type Info struct {
	// Label is the stable, human readable device name, e.g. the
	// /dev/v4l/by-id entry for cameras.
	Label      string
	DeviceType DeviceType
}

// DeviceType represents a human readable device class, useful for filtering
// registered drivers.
type DeviceType string

const (
	// Camera represents camera devices.
	Camera DeviceType = "camera"
	// Screen represents display capture devices.
	Screen DeviceType = "screen"
	// Synthetic represents generated test sources.
	Synthetic DeviceType = "synthetic"
)
