package pipeline

import (
	"fmt"
	"sync"

	"github.com/vidpipe/vidpipe/pkg/io/video"
)

// StageFunc builds the transform for one optional display stage. Returning
// a nil transform means the stage is absent for this configuration; the
// chain is folded over the present stages only.
type StageFunc func(cfg *Config) (video.TransformFunc, error)

type stageEntry struct {
	name string
	fn   StageFunc
}

var (
	stageMu sync.RWMutex
	stages  []stageEntry
)

// RegisterStage appends an optional display stage to the registration
// table. Stages run in registration order, after the branch queue and
// before the sink. Registering an existing name replaces it in place.
func RegisterStage(name string, fn StageFunc) {
	stageMu.Lock()
	defer stageMu.Unlock()
	for i, e := range stages {
		if e.name == name {
			stages[i].fn = fn
			return
		}
	}
	stages = append(stages, stageEntry{name: name, fn: fn})
}

// StageNames lists the registered optional stages in chain order.
func StageNames() []string {
	stageMu.RLock()
	defer stageMu.RUnlock()
	names := make([]string, len(stages))
	for i, e := range stages {
		names[i] = e.name
	}
	return names
}

// buildStages folds the registration table into one transform and reports
// which stages were present.
func buildStages(cfg *Config) (video.TransformFunc, []string, error) {
	stageMu.RLock()
	table := make([]stageEntry, len(stages))
	copy(table, stages)
	stageMu.RUnlock()

	var (
		transforms []video.TransformFunc
		present    []string
	)
	for _, e := range table {
		t, err := e.fn(cfg)
		if err != nil {
			return nil, nil, fmt.Errorf("pipeline: stage %s: %w", e.name, err)
		}
		if t == nil {
			continue
		}
		transforms = append(transforms, t)
		present = append(present, e.name)
	}
	return video.Merge(transforms...), present, nil
}
