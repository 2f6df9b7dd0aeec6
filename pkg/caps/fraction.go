package caps

import "fmt"

// Fraction is an exact rational frame rate. The rational form is
// authoritative; Float is a convenience projection only.
type Fraction struct {
	Num   int
	Denom int
}

func (f Fraction) Float() float64 {
	if f.Denom == 0 {
		return 0
	}
	return float64(f.Num) / float64(f.Denom)
}

func (f Fraction) String() string {
	return fmt.Sprintf("%d/%d", f.Num, f.Denom)
}

// Less orders fractions by value, falling back to the numerator so that
// equal-valued fractions with different encodings sort deterministically.
func (f Fraction) Less(o Fraction) bool {
	lhs := int64(f.Num) * int64(o.Denom)
	rhs := int64(o.Num) * int64(f.Denom)
	if lhs != rhs {
		return lhs < rhs
	}
	return f.Num < o.Num
}
