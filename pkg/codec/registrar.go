package codec

import (
	"fmt"
	"sort"
	"sync"
)

var (
	registryMu    sync.RWMutex
	videoEncoders = make(map[string]VideoEncoderBuilder)
)

// Register adds an encoder builder under the given name. Encoder packages
// call this from init; later registrations replace earlier ones.
func Register(name string, builder VideoEncoderBuilder) {
	registryMu.Lock()
	videoEncoders[name] = builder
	registryMu.Unlock()
}

// Build constructs the named encoder.
func Build(name string, s Settings) (VideoEncoder, error) {
	registryMu.RLock()
	builder, ok := videoEncoders[name]
	registryMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("codec: can't find %s video encoder", name)
	}
	return builder(s)
}

// Names lists the registered encoders, sorted.
func Names() []string {
	registryMu.RLock()
	names := make([]string, 0, len(videoEncoders))
	for name := range videoEncoders {
		names = append(names, name)
	}
	registryMu.RUnlock()
	sort.Strings(names)
	return names
}
