package caps

// A dimension or frame rate read from a device arrives either as a single
// value, a bounded range, or a list of values. Each encoding is its own
// variant so that normalization is a single type switch per field instead of
// duck typing.

// IntValue is a width or height field.
type IntValue interface {
	isIntValue()
}

// Int is a fixed dimension.
type Int int

func (Int) isIntValue() {}

// IntRange is a bounded dimension. Step may be zero when the device does not
// report one.
type IntRange struct {
	Low  int
	High int
	Step int
}

func (IntRange) isIntValue() {}

// FractionValue is a frame rate field.
type FractionValue interface {
	isFractionValue()
}

// Frac is a single frame rate.
type Frac Fraction

func (Frac) isFractionValue() {}

// FracRange is a bounded frame rate.
type FracRange struct {
	Low  Fraction
	High Fraction
}

func (FracRange) isFractionValue() {}

// FracList is an enumerated set of frame rates.
type FracList []Fraction

func (FracList) isFractionValue() {}
