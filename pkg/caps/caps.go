// Package caps models video source capabilities and their normalization into
// concrete, fully resolved configurations.
package caps

import "sort"

// RawCapability is one allowed-capabilities structure as negotiated from a
// source, before normalization. Width, height and frame rate may still be
// ranges or lists.
type RawCapability struct {
	FourCC    string
	Width     IntValue
	Height    IntValue
	Framerate FractionValue
}

// Capability is one concrete source configuration: a single row of the
// capability table handed to device-selection UIs.
type Capability struct {
	DeviceName     string
	Width          int
	Height         int
	FourCC         string
	FramerateNum   int
	FramerateDenom int
	// Framerate is FramerateNum/FramerateDenom as a float. Use the rational
	// pair when configuring a source; the float is for display and sorting.
	Framerate float64
}

// Fraction returns the row's frame rate in rational form.
func (c Capability) Fraction() Fraction {
	return Fraction{Num: c.FramerateNum, Denom: c.FramerateDenom}
}

// collapseInt resolves a dimension to a concrete value. Ranges collapse to
// their upper bound: when a device can do anything in [low, high], the
// highest resolution is the one worth offering.
func collapseInt(v IntValue) int {
	switch v := v.(type) {
	case Int:
		return int(v)
	case IntRange:
		return v.High
	default:
		return 0
	}
}

// expandFractions resolves a frame rate field to the set of concrete rates it
// stands for. A range contributes exactly its two endpoints; a list
// contributes every distinct member. The result is deduplicated and sorted
// ascending.
func expandFractions(v FractionValue) []Fraction {
	var fractions []Fraction
	switch v := v.(type) {
	case Frac:
		fractions = []Fraction{Fraction(v)}
	case FracRange:
		fractions = []Fraction{v.Low, v.High}
	case FracList:
		fractions = append(fractions, v...)
	}

	sort.Slice(fractions, func(i, j int) bool {
		return fractions[i].Less(fractions[j])
	})

	deduped := fractions[:0]
	for i, f := range fractions {
		if i > 0 && f == fractions[i-1] {
			continue
		}
		deduped = append(deduped, f)
	}
	return deduped
}

// Expand normalizes raw capabilities into one Capability row per concrete
// (width, height, format, framerate) combination for the named device. Raw
// entries keep their relative order; frame rates expand in ascending order
// within an entry.
func Expand(deviceName string, raw []RawCapability) []Capability {
	rows := make([]Capability, 0, len(raw))
	for _, rc := range raw {
		width := collapseInt(rc.Width)
		height := collapseInt(rc.Height)
		for _, f := range expandFractions(rc.Framerate) {
			rows = append(rows, Capability{
				DeviceName:     deviceName,
				Width:          width,
				Height:         height,
				FourCC:         rc.FourCC,
				FramerateNum:   f.Num,
				FramerateDenom: f.Denom,
				Framerate:      f.Float(),
			})
		}
	}
	return rows
}
