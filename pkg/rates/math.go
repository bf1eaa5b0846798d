package rates

import (
	"math/big"
)

// wholeUnit returns 10^decimals, the raw amount of exactly one token.
func wholeUnit(decimals uint8) *big.Int {
	return new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(decimals)), nil)
}

// parseRawAmount parses a decimal integer string as returned by quote endpoints.
func parseRawAmount(s string) (*big.Int, bool) {
	v, ok := new(big.Int).SetString(s, 10)
	if !ok || v.Sign() < 0 {
		return nil, false
	}
	return v, true
}

// quoteUnitPrice converts the raw amount of the quote asset received for one whole
// input token into a unit price. The division is the only inexact step.
func quoteUnitPrice(outRaw *big.Int, quoteDecimals uint8) float64 {
	if outRaw == nil || outRaw.Sign() <= 0 {
		return 0
	}
	price, _ := new(big.Rat).SetFrac(outRaw, wholeUnit(quoteDecimals)).Float64()
	return price
}
