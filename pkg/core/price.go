package core

import (
	"math"

	"github.com/shopspring/decimal"
)

// NativeAsset is the key of the native currency in Prices.
const NativeAsset = "NATIVE"

// Prices maps an asset id (a base58 mint or NativeAsset) to its USD unit price.
// A missing key means the price is unknown.
type Prices map[string]float64

// IsValidPrice reports whether p can be used as a unit price.
// Zero, negative and non-finite values mean "unresolved".
func IsValidPrice(p float64) bool {
	return p > 0 && !math.IsInf(p, 0) && !math.IsNaN(p)
}

// Get returns the price of the given asset if it is known.
func (p Prices) Get(asset string) (float64, bool) {
	price, ok := p[asset]
	if !ok || !IsValidPrice(price) {
		return 0, false
	}
	return price, true
}

// Value returns amount*price in USD, or false if the price is unknown.
func (p Prices) Value(asset string, amount decimal.Decimal) (decimal.Decimal, bool) {
	price, ok := p.Get(asset)
	if !ok {
		return decimal.Zero, false
	}
	return amount.Mul(decimal.NewFromFloat(price)), true
}
