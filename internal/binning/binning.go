// Package binning partitions a price range into equal-width bins and
// distributes each position's amounts across the bins its range overlaps.
package binning

import (
	"errors"
	"fmt"
	"log"

	"liquidity-bands/internal/domain"
	"liquidity-bands/internal/outlier"
)

// DefaultNumBins is the bin count for a full analysis run.
const DefaultNumBins = 50

var (
	ErrNoPositions      = errors.New("no positions provided")
	ErrNoValidPositions = errors.New("no valid positions after filtering")
)

// NewBins partitions [minPrice, maxPrice) into n contiguous equal-width bins.
func NewBins(minPrice, maxPrice float64, n int) ([]domain.Bin, error) {
	if minPrice >= maxPrice {
		return nil, fmt.Errorf("min price %v must be less than max price %v", minPrice, maxPrice)
	}

	binSize := (maxPrice - minPrice) / float64(n)
	bins := make([]domain.Bin, n)
	for i := range bins {
		bins[i] = domain.Bin{
			BinIndex:   i,
			PriceLower: minPrice + float64(i)*binSize,
			PriceUpper: minPrice + float64(i+1)*binSize,
		}
	}
	return bins, nil
}

// Overlap returns the length of the intersection of two intervals, zero for
// disjoint or touching intervals.
func Overlap(aLower, aUpper, bLower, bUpper float64) float64 {
	lower := aLower
	if bLower > lower {
		lower = bLower
	}
	upper := aUpper
	if bUpper < upper {
		upper = bUpper
	}
	if lower >= upper {
		return 0
	}
	return upper - lower
}

// Distribute adds a position's amounts to every overlapping bin in proportion
// to the overlap length over the position's full range width. Each touched bin
// counts the position once, regardless of how small the overlap is. A
// degenerate range contributes nothing.
func Distribute(pos domain.SummaryPosition, bins []domain.Bin) {
	positionRange := pos.PriceUpperAdjusted - pos.PriceLowerAdjusted
	if positionRange == 0 {
		return
	}

	for i := range bins {
		overlap := Overlap(pos.PriceLowerAdjusted, pos.PriceUpperAdjusted,
			bins[i].PriceLower, bins[i].PriceUpper)
		if overlap <= 0 {
			continue
		}
		proportion := overlap / positionRange
		bins[i].AmountWETH += pos.AmountWETH * proportion
		bins[i].AmountUSDT += pos.AmountUSDT * proportion
		bins[i].CountNFTs++
	}
}

// Run filters positions, detects the robust price range from the valid subset,
// builds numBins bins, and distributes every valid position into them. It
// fails rather than returning an empty or partial result.
func Run(positions []domain.SummaryPosition, numBins int, minReasonable, maxReasonable float64) ([]domain.Bin, error) {
	if len(positions) == 0 {
		return nil, ErrNoPositions
	}

	valid, _ := outlier.FilterValid(positions, minReasonable, maxReasonable)
	if len(valid) == 0 {
		return nil, ErrNoValidPositions
	}

	minPrice, maxPrice, err := outlier.PriceRange(valid)
	if err != nil {
		return nil, fmt.Errorf("detect price range: %w", err)
	}

	bins, err := NewBins(minPrice, maxPrice, numBins)
	if err != nil {
		return nil, err
	}
	log.Printf("Created %d bins over [%v, %v]", len(bins), minPrice, maxPrice)

	for _, pos := range valid {
		Distribute(pos, bins)
	}
	return bins, nil
}
