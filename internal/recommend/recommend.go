// Package recommend ranks bins by USD-equivalent liquidity and enriches the
// top bands with recent trading volume.
package recommend

import (
	"context"
	"log"
	"sort"
	"sync"
	"time"

	"liquidity-bands/internal/domain"
)

// Top-band counts: 5 for a full run, 3 when a price filter narrows the bins.
const (
	TopBandsDefault  = 5
	TopBandsFiltered = 3

	volumeWindow = 24 * time.Hour
)

// VolumeSource fetches aggregated trade volume for a price interval and time
// window. Production and test implementations both satisfy it.
type VolumeSource interface {
	FetchVolume(ctx context.Context, priceLow, priceHigh float64, start, end time.Time) (float64, error)
}

// BandValue approximates a bin's liquidity in USD using the bin's own
// midpoint price for the WETH leg. No external price oracle is involved.
func BandValue(bin domain.Bin) float64 {
	var midPrice float64
	if bin.PriceLower > 0 && bin.PriceUpper > 0 {
		midPrice = (bin.PriceLower + bin.PriceUpper) / 2
	}
	return bin.AmountUSDT + bin.AmountWETH*midPrice
}

// TopBands returns the k highest-value bands, stable-sorted descending by
// BandValue so ties keep their original bin order.
func TopBands(bins []domain.Bin, k int) []domain.RecommendationBand {
	bands := make([]domain.RecommendationBand, 0, len(bins))
	for _, bin := range bins {
		bands = append(bands, domain.RecommendationBand{
			Bin:            bin,
			TotalLiquidity: BandValue(bin),
		})
	}

	sort.SliceStable(bands, func(i, j int) bool {
		return bands[i].TotalLiquidity > bands[j].TotalLiquidity
	})

	if k < len(bands) {
		bands = bands[:k]
	}
	return bands
}

// Recommend selects the top-k bands and, when a volume source is supplied,
// attaches each band's trade volume over the last 24 hours. Bands are
// independent: the fetches run concurrently and a failure only zeroes that
// band's volume.
func Recommend(ctx context.Context, bins []domain.Bin, k int, volumes VolumeSource) domain.Recommendation {
	bands := TopBands(bins, k)

	if volumes != nil {
		end := time.Now().UTC()
		start := end.Add(-volumeWindow)

		var wg sync.WaitGroup
		for i := range bands {
			wg.Add(1)
			go func(band *domain.RecommendationBand) {
				defer wg.Done()
				vol := 0.0
				if band.PriceLower > 0 && band.PriceUpper > 0 {
					v, err := volumes.FetchVolume(ctx, band.PriceLower, band.PriceUpper, start, end)
					if err != nil {
						log.Printf("Warning: volume fetch failed for band %d: %v", band.BinIndex, err)
					} else {
						vol = v
					}
				}
				band.TradingVolume24h = &vol
			}(&bands[i])
		}
		wg.Wait()
	}

	return domain.Recommendation{TopLiquidityBands: bands}
}
