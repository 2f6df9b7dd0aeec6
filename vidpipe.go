// Package vidpipe discovers video sources, normalizes their capabilities
// into concrete mode tables and opens them for streaming. Platform driver
// packages register devices on import:
//
//	import (
//		_ "github.com/vidpipe/vidpipe/pkg/driver/camera"
//		_ "github.com/vidpipe/vidpipe/pkg/driver/screen"
//	)
package vidpipe

import (
	"errors"
	"fmt"

	"github.com/vidpipe/vidpipe/internal/logging"
	"github.com/vidpipe/vidpipe/pkg/caps"
	"github.com/vidpipe/vidpipe/pkg/driver"
	"github.com/vidpipe/vidpipe/pkg/io/video"
)

var logger = logging.NewLogger("vidpipe")

// ErrDeviceNotFound is returned when discovery finds no registered devices.
var ErrDeviceNotFound = errors.New("no devices available")

// DeviceInfo identifies one registered device.
type DeviceInfo struct {
	ID         string
	Label      string
	DeviceType driver.DeviceType
}

// EnumerateDevices lists every registered device, ordered by label.
func EnumerateDevices() []DeviceInfo {
	drivers := driver.GetManager().Query()
	devices := make([]DeviceInfo, 0, len(drivers))
	for _, d := range drivers {
		info := d.Info()
		devices = append(devices, DeviceInfo{
			ID:         d.ID(),
			Label:      info.Label,
			DeviceType: info.DeviceType,
		})
	}
	return devices
}

// VideoSourceNames lists the labels of every registered device. It returns
// ErrDeviceNotFound when nothing is registered.
func VideoSourceNames() ([]string, error) {
	drivers := driver.GetManager().Query()
	if len(drivers) == 0 {
		return nil, ErrDeviceNotFound
	}
	names := make([]string, 0, len(drivers))
	for _, d := range drivers {
		names = append(names, d.Info().Label)
	}
	return names, nil
}

// AllowedCapabilities probes the named device and returns its normalized
// capability table: one row per concrete mode.
func AllowedCapabilities(name string) ([]caps.Capability, error) {
	d, err := lookup(name)
	if err != nil {
		return nil, err
	}

	if err := d.Open(); err != nil {
		return nil, fmt.Errorf("open %s: %w", name, err)
	}
	defer func() {
		if err := d.Close(); err != nil {
			logger.Warnf("close %s: %v", name, err)
		}
	}()

	raw, err := d.RawCapabilities()
	if err != nil {
		return nil, fmt.Errorf("probe %s: %w", name, err)
	}
	return caps.Expand(name, raw), nil
}

// SourceCapabilities aggregates the capability tables of the named devices,
// or of every registered device when no names are given. A device that
// fails to probe is skipped with a log line, never failing the whole
// aggregation; the result can be empty. Discovering zero devices is the
// only error case.
func SourceCapabilities(names ...string) ([]caps.Capability, error) {
	if len(names) == 0 {
		var err error
		names, err = VideoSourceNames()
		if err != nil {
			return nil, err
		}
	}

	var table []caps.Capability
	for _, name := range names {
		rows, err := AllowedCapabilities(name)
		if err != nil {
			logger.Debugf("skipping %s: %v", name, err)
			continue
		}
		table = append(table, rows...)
	}
	return table, nil
}

// OpenSource opens the device named by c.DeviceName in the given mode. The
// returned stop function closes the device; the reader returns an error
// after that.
func OpenSource(c caps.Capability) (video.Reader, func() error, error) {
	d, err := lookup(c.DeviceName)
	if err != nil {
		return nil, nil, err
	}

	if err := d.Open(); err != nil {
		return nil, nil, fmt.Errorf("open %s: %w", c.DeviceName, err)
	}
	r, err := d.VideoRecord(c)
	if err != nil {
		if cerr := d.Close(); cerr != nil {
			logger.Warnf("close %s: %v", c.DeviceName, cerr)
		}
		return nil, nil, fmt.Errorf("record %s: %w", c.DeviceName, err)
	}
	return r, d.Close, nil
}

func lookup(name string) (driver.Driver, error) {
	drivers := driver.GetManager().Query(driver.FilterLabel(name))
	if len(drivers) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrDeviceNotFound, name)
	}
	return drivers[0], nil
}
