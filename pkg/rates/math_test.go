package rates

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestWholeUnit(t *testing.T) {
	require.Equal(t, "1", wholeUnit(0).String())
	require.Equal(t, "1000000", wholeUnit(6).String())
	require.Equal(t, "1000000000000000000000000", wholeUnit(24).String())
}

func TestQuoteUnitPrice(t *testing.T) {
	tests := []struct {
		name          string
		outRaw        string
		quoteDecimals uint8
		want          float64
	}{
		{name: "one dollar", outRaw: "1000000", quoteDecimals: 6, want: 1},
		{name: "fraction", outRaw: "1234567", quoteDecimals: 6, want: 1.234567},
		{name: "dust", outRaw: "1", quoteDecimals: 6, want: 0.000001},
		{name: "zero is unresolved", outRaw: "0", quoteDecimals: 6, want: 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, ok := new(big.Int).SetString(tt.outRaw, 10)
			require.True(t, ok)
			require.Equal(t, tt.want, quoteUnitPrice(out, tt.quoteDecimals))
		})
	}
	require.Equal(t, 0.0, quoteUnitPrice(nil, 6))
}

func TestParseRawAmount(t *testing.T) {
	v, ok := parseRawAmount("18446744073709551616")
	require.True(t, ok)
	require.Equal(t, "18446744073709551616", v.String())

	_, ok = parseRawAmount("-1")
	require.False(t, ok)
	_, ok = parseRawAmount("1.5")
	require.False(t, ok)
}
