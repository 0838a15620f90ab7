package pricing

import (
	"math"
	"strconv"
	"strings"
)

// Money is a monetary amount in minor units (cents). All discount and
// subtotal arithmetic happens on this type; decimal strings exist only at
// the formatting boundary.
type Money int64

// FromDecimal converts a decimal display amount (dollars) into minor units,
// rounding half away from zero. NaN and infinities collapse to zero instead
// of poisoning downstream arithmetic.
func FromDecimal(v float64) Money {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return Money(math.Round(v * 100))
}

// ParseDecimal parses a decimal string such as "19.99" into minor units.
// Unparsable input is treated as zero.
func ParseDecimal(s string) Money {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0
	}
	return FromDecimal(v)
}

// Display renders the amount with exactly two decimal places and no
// thousands separator: Money(1) -> "0.01".
func (m Money) Display() string {
	return strconv.FormatFloat(float64(m)/100, 'f', 2, 64)
}
