//go:build linux

package camera

import (
	"path/filepath"

	"github.com/fsnotify/fsnotify"

	"github.com/vidpipe/vidpipe/pkg/driver"
)

// EventType classifies a hotplug event.
type EventType int

const (
	// Added means a new capture device appeared and was registered.
	Added EventType = iota
	// Removed means a capture device disappeared and was deregistered.
	Removed
)

// Event is one device hotplug notification.
type Event struct {
	Type  EventType
	Label string
}

// Monitor watches the V4L2 device directory and keeps the driver registry in
// sync as cameras are plugged and unplugged.
type Monitor struct {
	watcher *fsnotify.Watcher
	events  chan Event
	done    chan struct{}
}

// NewMonitor starts watching for camera hotplug. Close releases the watcher.
func NewMonitor() (*Monitor, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	var watched bool
	for _, dir := range searchPaths {
		if err := watcher.Add(dir); err == nil {
			watched = true
			break
		}
	}
	if !watched {
		// No device directory yet; the watcher still runs so a later
		// plug-in of the first camera can be picked up via re-Add.
		if err := watcher.Add("/dev"); err != nil {
			watcher.Close()
			return nil, err
		}
	}

	m := &Monitor{
		watcher: watcher,
		events:  make(chan Event, 8),
		done:    make(chan struct{}),
	}
	go m.loop()
	return m, nil
}

// Events delivers hotplug notifications. The channel is closed by Close.
func (m *Monitor) Events() <-chan Event {
	return m.events
}

// Close stops the monitor.
func (m *Monitor) Close() error {
	close(m.done)
	return m.watcher.Close()
}

func (m *Monitor) loop() {
	defer close(m.events)

	for {
		select {
		case <-m.done:
			return
		case ev, ok := <-m.watcher.Events:
			if !ok {
				return
			}
			label := filepath.Base(ev.Name)
			switch {
			case ev.Op.Has(fsnotify.Create):
				if id := registerDevice(ev.Name, label); id != "" {
					logger.Infof("camera added: %s", label)
					m.emit(Event{Type: Added, Label: label})
				}
			case ev.Op.Has(fsnotify.Remove):
				for _, d := range driver.GetManager().Query(driver.FilterLabel(label)) {
					driver.GetManager().Delete(d.ID())
					logger.Infof("camera removed: %s", label)
					m.emit(Event{Type: Removed, Label: label})
				}
			}
		case _, ok := <-m.watcher.Errors:
			if !ok {
				return
			}
		}
	}
}

func (m *Monitor) emit(ev Event) {
	select {
	case m.events <- ev:
	default:
		// Nobody is draining; hotplug registry updates still happened.
	}
}
