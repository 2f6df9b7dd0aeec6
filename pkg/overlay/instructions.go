// Package overlay draws vector annotations onto video frames. Instructions
// arrive as a serialized list so that they can cross process boundaries;
// a frame is always forwarded even when drawing it fails.
package overlay

import (
	"encoding/json"
	"fmt"
)

// Version is the instruction envelope version understood by this package.
const Version = 1

// Op names accepted in an instruction list.
const (
	OpSetRGBA   = "set_rgba"
	OpMoveTo    = "move_to"
	OpLineTo    = "line_to"
	OpArc       = "arc"
	OpClosePath = "close_path"
	OpFill      = "fill"
	OpStroke    = "stroke"
	OpText      = "text"
)

// Op is a single drawing instruction. Which fields are meaningful depends
// on Op; unused fields are omitted from the wire form.
type Op struct {
	Op string `json:"op"`

	// move_to, line_to, text
	X float64 `json:"x,omitempty"`
	Y float64 `json:"y,omitempty"`

	// set_rgba, components in [0, 1]
	R float64 `json:"r,omitempty"`
	G float64 `json:"g,omitempty"`
	B float64 `json:"b,omitempty"`
	A float64 `json:"a,omitempty"`

	// arc: center is (X, Y), angles in radians, counterclockwise
	Radius float64 `json:"radius,omitempty"`
	Angle1 float64 `json:"angle1,omitempty"`
	Angle2 float64 `json:"angle2,omitempty"`

	// stroke
	Width float64 `json:"width,omitempty"`

	// text
	Text string `json:"text,omitempty"`
}

type envelope struct {
	Version int  `json:"version"`
	Ops     []Op `json:"ops"`
}

// Marshal serializes an instruction list into the versioned envelope.
func Marshal(ops []Op) ([]byte, error) {
	return json.Marshal(envelope{Version: Version, Ops: ops})
}

// Unmarshal parses an instruction envelope and validates every op name.
func Unmarshal(blob []byte) ([]Op, error) {
	var env envelope
	if err := json.Unmarshal(blob, &env); err != nil {
		return nil, fmt.Errorf("overlay: parse instructions: %w", err)
	}
	if env.Version != Version {
		return nil, fmt.Errorf("overlay: unsupported instruction version %d", env.Version)
	}
	for i, op := range env.Ops {
		switch op.Op {
		case OpSetRGBA, OpMoveTo, OpLineTo, OpArc, OpClosePath, OpFill, OpStroke, OpText:
		default:
			return nil, fmt.Errorf("overlay: unknown op %q at index %d", op.Op, i)
		}
	}
	return env.Ops, nil
}
