// Package outlier validates position amounts and price bounds against sanity
// ceilings and derives an outlier-robust global price range for binning.
package outlier

import (
	"errors"
	"log"
	"math"
	"sort"

	"liquidity-bands/internal/domain"
)

const (
	MinReasonablePrice = 100.0
	MaxReasonablePrice = 100000.0

	// Per-token ceilings: 1M WETH, 1T USDT.
	MaxWETH = 1e6
	MaxUSDT = 1e12

	// Absolute guard-band, a second line of defense independent of the
	// reasonable-range parameters.
	MinPriceThreshold = 1e-10
	MaxPriceThreshold = 1e10
)

// ErrNoPriceData is returned when no usable price bounds survive range detection.
var ErrNoPriceData = errors.New("no valid price data found in positions")

// ValidateAmounts rejects NaN, infinite, negative, or over-ceiling amounts.
// A nil amount means the value was absent upstream and is vacuously valid.
// nftID is logged on rejection when non-zero.
func ValidateAmounts(amountWETH, amountUSDT *float64, nftID int64) bool {
	if amountWETH != nil {
		v := *amountWETH
		if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 || v > MaxWETH {
			if nftID != 0 {
				log.Printf("Warning: filtering out NFT %d with invalid amount_weth: %v", nftID, v)
			}
			return false
		}
	}
	if amountUSDT != nil {
		v := *amountUSDT
		if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 || v > MaxUSDT {
			if nftID != 0 {
				log.Printf("Warning: filtering out NFT %d with invalid amount_usdt: %v", nftID, v)
			}
			return false
		}
	}
	return true
}

// ValidatePositionPrices checks a summary position's price bounds against the
// reasonable range, the bound ordering, the absolute guard-band, and re-checks
// its amounts.
func ValidatePositionPrices(p domain.SummaryPosition, minReasonable, maxReasonable float64) bool {
	lower := p.PriceLowerAdjusted
	upper := p.PriceUpperAdjusted

	if lower < minReasonable || upper > maxReasonable {
		return false
	}
	if lower >= upper {
		return false
	}
	if lower < MinPriceThreshold || upper > MaxPriceThreshold {
		return false
	}

	weth := p.AmountWETH
	usdt := p.AmountUSDT
	return ValidateAmounts(&weth, &usdt, 0)
}

// FilterValid partitions positions into those with reasonable prices and those
// without, preserving input order in both partitions. Every rejection is
// logged, never raised.
func FilterValid(positions []domain.SummaryPosition, minReasonable, maxReasonable float64) (valid, invalid []domain.SummaryPosition) {
	for _, p := range positions {
		if ValidatePositionPrices(p, minReasonable, maxReasonable) {
			valid = append(valid, p)
			continue
		}
		invalid = append(invalid, p)
		log.Printf("Warning: filtered out position %d with invalid prices: lower=%v, upper=%v",
			p.NFTID, p.PriceLowerAdjusted, p.PriceUpperAdjusted)
	}
	if len(invalid) > 0 {
		log.Printf("Filtered out %d invalid positions, keeping %d valid positions", len(invalid), len(valid))
	}
	return valid, invalid
}

// PriceRange finds a global [min, max] price range across positions using the
// 5th percentile of lower bounds and the 95th percentile of upper bounds, so
// extreme outliers shape neither end without being dropped from aggregation.
// If the percentile pick still violates the guard-band it falls back to the
// medians, and then to the min/max restricted to in-band values.
func PriceRange(positions []domain.SummaryPosition) (float64, float64, error) {
	var lowers, uppers []float64
	for _, p := range positions {
		if p.PriceLowerAdjusted > 0 {
			lowers = append(lowers, p.PriceLowerAdjusted)
		}
		if p.PriceUpperAdjusted > 0 {
			uppers = append(uppers, p.PriceUpperAdjusted)
		}
	}
	if len(lowers) == 0 || len(uppers) == 0 {
		return 0, 0, ErrNoPriceData
	}

	sort.Float64s(lowers)
	sort.Float64s(uppers)

	lowerIdx := int(float64(len(lowers)) * 0.05)
	upperIdx := int(float64(len(uppers)) * 0.95)
	if upperIdx > len(uppers)-1 {
		upperIdx = len(uppers) - 1
	}

	minPrice := lowers[lowerIdx]
	maxPrice := uppers[upperIdx]

	if minPrice < MinPriceThreshold || maxPrice > MaxPriceThreshold {
		medianLower := lowers[len(lowers)/2]
		medianUpper := uppers[len(uppers)/2]

		if medianLower >= MinPriceThreshold && medianUpper <= MaxPriceThreshold {
			minPrice = medianLower
			maxPrice = medianUpper
		} else {
			reasonableLowers := inBand(lowers)
			reasonableUppers := inBand(uppers)
			if len(reasonableLowers) == 0 || len(reasonableUppers) == 0 {
				return 0, 0, errors.New("no reasonable price range found in positions")
			}
			minPrice = reasonableLowers[0]
			maxPrice = reasonableUppers[len(reasonableUppers)-1]
		}
	}

	log.Printf("Min price: %v, Max price: %v", minPrice, maxPrice)
	return minPrice, maxPrice, nil
}

// inBand keeps values inside the absolute guard-band; input must be sorted.
func inBand(sorted []float64) []float64 {
	var out []float64
	for _, v := range sorted {
		if v >= MinPriceThreshold && v <= MaxPriceThreshold {
			out = append(out, v)
		}
	}
	return out
}
