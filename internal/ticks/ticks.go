// Package ticks converts Uniswap v3 integer ticks into prices.
package ticks

import "math"

// PriceFromTick returns 1.0001^tick, the raw tick-space price. Total over all
// integer ticks; extreme ticks simply produce very large or very small floats.
func PriceFromTick(tick int) float64 {
	return math.Pow(1.0001, float64(tick))
}

// PriceWithDecimals rescales the tick-space price into human units by the
// difference in token decimal precision: (1.0001^tick) / 10^(decimals1-decimals0).
func PriceWithDecimals(tick, decimals0, decimals1 int) float64 {
	return PriceFromTick(tick) / math.Pow(10, float64(decimals1-decimals0))
}
