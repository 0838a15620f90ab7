package pricing

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFromDecimal(t *testing.T) {
	require.Equal(t, Money(1000), FromDecimal(10))
	require.Equal(t, Money(2600), FromDecimal(25.996))
	require.Equal(t, Money(1999), FromDecimal(19.99))
	require.Equal(t, Money(0), FromDecimal(math.NaN()))
	require.Equal(t, Money(0), FromDecimal(math.Inf(1)))
	require.Equal(t, Money(0), FromDecimal(math.Inf(-1)))
}

func TestParseDecimal(t *testing.T) {
	require.Equal(t, Money(1999), ParseDecimal("19.99"))
	require.Equal(t, Money(1000), ParseDecimal(" 10 "))
	require.Equal(t, Money(0), ParseDecimal("not-a-number"))
	require.Equal(t, Money(0), ParseDecimal(""))
}

func TestDisplay(t *testing.T) {
	require.Equal(t, "0.01", Money(1).Display())
	require.Equal(t, "0.00", Money(0).Display())
	require.Equal(t, "1234.50", Money(123450).Display())
}

func TestDisplayRoundTrip(t *testing.T) {
	for _, v := range []string{"0.00", "0.01", "19.99", "999.99"} {
		require.Equal(t, v, ParseDecimal(v).Display())
	}
}
