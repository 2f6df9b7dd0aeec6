package driver

import (
	"sort"
	"sync"

	"github.com/google/uuid"
)

// Manager is the registry of available drivers. Platform driver packages
// register their devices here, usually from init; consumers query it.
type Manager struct {
	mu      sync.RWMutex
	drivers map[string]Driver
}

var defaultManager = &Manager{
	drivers: make(map[string]Driver),
}

// GetManager returns the default driver registry.
func GetManager() *Manager {
	return defaultManager
}

// Register wraps the adapter and adds it to the registry, returning the
// assigned driver ID.
func (m *Manager) Register(a Adapter, info Info) string {
	d := &wrappedAdapter{
		adapter: a,
		id:      uuid.NewString(),
		info:    info,
		state:   StateClosed,
	}

	m.mu.Lock()
	m.drivers[d.id] = d
	m.mu.Unlock()
	return d.id
}

// Delete removes a driver from the registry, e.g. after a device was
// unplugged. The driver is not closed.
func (m *Manager) Delete(id string) {
	m.mu.Lock()
	delete(m.drivers, id)
	m.mu.Unlock()
}

// Query returns the registered drivers matching all given filters, ordered
// by label for stable output.
func (m *Manager) Query(filters ...FilterFn) []Driver {
	m.mu.RLock()
	results := make([]Driver, 0, len(m.drivers))
	for _, d := range m.drivers {
		if FilterAnd(filters...)(d) {
			results = append(results, d)
		}
	}
	m.mu.RUnlock()

	sort.Slice(results, func(i, j int) bool {
		li, lj := results[i].Info().Label, results[j].Info().Label
		if li != lj {
			return li < lj
		}
		return results[i].ID() < results[j].ID()
	})
	return results
}
