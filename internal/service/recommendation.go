// Package service orchestrates the recommendation pipeline: fetch raw calls,
// parse positions, bin liquidity, rank bands. The latest full run is kept in
// an in-process snapshot with a TTL so repeat requests skip the upstream.
package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"liquidity-bands/internal/binning"
	"liquidity-bands/internal/domain"
	"liquidity-bands/internal/outlier"
	"liquidity-bands/internal/parser"
	"liquidity-bands/internal/recommend"

	"go.opentelemetry.io/otel/trace"
)

const (
	DefaultCacheTTL = 10 * time.Minute
	DefaultLookback = 240 * time.Hour
)

// ErrNoData means the analysis window produced no usable positions. Handlers
// map it to 404; every other pipeline error is a server-side failure.
var ErrNoData = errors.New("no mint positions found")

// PositionSource fetches raw call records for the tracked pair.
type PositionSource interface {
	FetchMintCalls(ctx context.Context, start, end time.Time) ([]domain.RawCall, error)
	FetchLiquidityCalls(ctx context.Context, nftIDs []int64, start, end time.Time) ([]domain.RawCall, error)
}

// Options select cache behavior and optional price filtering for one request.
type Options struct {
	PriceLower *float64
	PriceUpper *float64
	Refresh    bool
}

// snapshot is the cached result of the last full pipeline run. Bins are kept
// unfiltered so price-filtered requests can reuse them without a refetch; the
// ranked recommendation is only kept for unfiltered runs.
type snapshot struct {
	bins           []domain.Bin
	recommendation *domain.Recommendation
	totalPositions int
	timestamp      time.Time
}

type RecommendationService struct {
	tracer   trace.Tracer
	source   PositionSource
	volumes  recommend.VolumeSource
	numBins  int
	cacheTTL time.Duration
	lookback time.Duration
	now      func() time.Time

	mu   sync.RWMutex
	snap *snapshot

	// Serializes full pipeline runs so concurrent cache misses do not
	// stampede the upstream API.
	refreshMu sync.Mutex
}

func NewRecommendationService(
	tracer trace.Tracer,
	source PositionSource,
	volumes recommend.VolumeSource,
	numBins int,
	cacheTTL time.Duration,
	lookback time.Duration,
) *RecommendationService {
	return &RecommendationService{
		tracer:   tracer,
		source:   source,
		volumes:  volumes,
		numBins:  numBins,
		cacheTTL: cacheTTL,
		lookback: lookback,
		now:      time.Now,
	}
}

// GetRecommendations returns ranked liquidity bands, serving from the cached
// snapshot when it is fresh. Price-filtered requests never trigger a refetch
// while cached bins are warm; they filter and re-rank the cached bins.
func (s *RecommendationService) GetRecommendations(ctx context.Context, opts Options) (*domain.Recommendation, error) {
	ctx, span := s.tracer.Start(ctx, "recommendation-service.get-recommendations")
	defer span.End()

	hasFilters := opts.PriceLower != nil || opts.PriceUpper != nil

	if hasFilters {
		log.Printf("Price filters active (lower=%v, upper=%v)", formatFilter(opts.PriceLower), formatFilter(opts.PriceUpper))
		if rec, ok := s.fromCachedBins(ctx, opts); ok {
			return rec, nil
		}
	} else if !opts.Refresh {
		if rec, ok := s.cachedRecommendation(); ok {
			return rec, nil
		}
	} else {
		log.Printf("Cache bypass requested (refresh=true)")
	}

	return s.refresh(ctx, opts)
}

// fromCachedBins serves a filtered request from the cached bins when they are
// still fresh. Filtered results use the smaller top-band count.
func (s *RecommendationService) fromCachedBins(ctx context.Context, opts Options) (*domain.Recommendation, bool) {
	s.mu.RLock()
	snap := s.snap
	s.mu.RUnlock()

	if snap == nil {
		log.Printf("No cached bins available, fetching new data")
		return nil, false
	}
	age := s.now().Sub(snap.timestamp)
	if age >= s.cacheTTL {
		log.Printf("Cached bins expired (age: %.2f minutes), fetching new data", age.Minutes())
		return nil, false
	}

	bins := filterBinsByPriceRange(snap.bins, opts.PriceLower, opts.PriceUpper)
	log.Printf("Using cached bins (age: %.2f minutes), %d of %d match price range", age.Minutes(), len(bins), len(snap.bins))

	rec := recommend.Recommend(ctx, bins, recommend.TopBandsFiltered, s.volumes)
	rec.Metadata = s.metadata(bins, snap.totalPositions, snap.timestamp, opts)
	return &rec, true
}

// cachedRecommendation returns the cached unfiltered recommendation if fresh.
func (s *RecommendationService) cachedRecommendation() (*domain.Recommendation, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.snap == nil || s.snap.recommendation == nil {
		log.Printf("Cache miss, no cached recommendation available")
		return nil, false
	}
	age := s.now().Sub(s.snap.timestamp)
	if age >= s.cacheTTL {
		log.Printf("Cache miss, cache expired (age: %.2f minutes)", age.Minutes())
		return nil, false
	}

	log.Printf("Using cached recommendation (age: %.2f minutes)", age.Minutes())
	rec := *s.snap.recommendation
	return &rec, true
}

// refresh runs the full pipeline against the upstream and updates the cached
// snapshot. Unfiltered runs cache bins plus the recommendation; filtered runs
// cache the unfiltered bins only.
func (s *RecommendationService) refresh(ctx context.Context, opts Options) (*domain.Recommendation, error) {
	s.refreshMu.Lock()
	defer s.refreshMu.Unlock()

	hasFilters := opts.PriceLower != nil || opts.PriceUpper != nil

	// Another request may have refreshed while we waited for the lock.
	if !hasFilters && !opts.Refresh {
		if rec, ok := s.cachedRecommendation(); ok {
			return rec, nil
		}
	}

	started := time.Now()
	end := s.now().UTC()
	windowStart := end.Add(-s.lookback)
	log.Printf("Analysis period: %s to %s", windowStart.Format(time.RFC3339), end.Format(time.RFC3339))

	fetchStart := time.Now()
	calls, err := s.source.FetchMintCalls(ctx, windowStart, end)
	if err != nil {
		return nil, fmt.Errorf("fetching mint positions: %w", err)
	}
	log.Printf("Fetched %d mint calls in %.2fs", len(calls), time.Since(fetchStart).Seconds())

	positions := parser.ParsePositions(calls)
	log.Printf("Parsed %d mint positions", len(positions))
	if len(positions) == 0 {
		return nil, ErrNoData
	}

	nftIDs := make([]int64, 0, len(positions))
	for _, pos := range positions {
		nftIDs = append(nftIDs, pos.NFTID)
	}

	// Liquidity events refine the amounts; losing them degrades the result
	// but must not fail the request.
	deltas := map[int64]domain.LiquidityDelta{}
	liquidityStart := time.Now()
	liquidityCalls, err := s.source.FetchLiquidityCalls(ctx, nftIDs, windowStart, end)
	if err != nil {
		log.Printf("Warning: failed to fetch liquidity events: %v", err)
	} else {
		deltas = parser.FoldLiquidityDeltas(liquidityCalls)
		log.Printf("Found liquidity events for %d NFT IDs in %.2fs", len(deltas), time.Since(liquidityStart).Seconds())
	}

	summary := parser.BuildSummary(positions, deltas)
	log.Printf("Created final summary with %d positions", len(summary))

	bins, err := binning.Run(summary, s.numBins, outlier.MinReasonablePrice, outlier.MaxReasonablePrice)
	if err != nil {
		if errors.Is(err, binning.ErrNoPositions) || errors.Is(err, binning.ErrNoValidPositions) || errors.Is(err, outlier.ErrNoPriceData) {
			return nil, fmt.Errorf("%w: %s", ErrNoData, err)
		}
		return nil, fmt.Errorf("binning positions: %w", err)
	}
	withPositions := 0
	for _, bin := range bins {
		if bin.CountNFTs > 0 {
			withPositions++
		}
	}
	log.Printf("Created %d bins (%d with positions)", len(bins), withPositions)

	now := s.now()
	s.mu.Lock()
	s.snap = &snapshot{bins: bins, totalPositions: len(positions), timestamp: now}
	s.mu.Unlock()

	selected := bins
	topN := recommend.TopBandsDefault
	if hasFilters {
		selected = filterBinsByPriceRange(bins, opts.PriceLower, opts.PriceUpper)
		topN = recommend.TopBandsFiltered
		log.Printf("Filtered to %d bins matching price range", len(selected))
	}

	rec := recommend.Recommend(ctx, selected, topN, s.volumes)
	rec.Metadata = s.metadata(selected, len(positions), now, opts)

	if !hasFilters {
		s.mu.Lock()
		if s.snap != nil && s.snap.timestamp.Equal(now) {
			cached := rec
			s.snap.recommendation = &cached
		}
		s.mu.Unlock()
	}

	log.Printf("Data refresh completed in %.2fs", time.Since(started).Seconds())
	return &rec, nil
}

func (s *RecommendationService) metadata(bins []domain.Bin, totalPositions int, cachedAt time.Time, opts Options) domain.Metadata {
	withPositions := 0
	for _, bin := range bins {
		if bin.CountNFTs > 0 {
			withPositions++
		}
	}
	return domain.Metadata{
		TotalPositions:    totalPositions,
		TotalBins:         len(bins),
		BinsWithPositions: withPositions,
		AnalysisDate:      s.now().UTC().Format(time.RFC3339),
		TimeRangeHours:    int(s.lookback / time.Hour),
		CacheTimestamp:    cachedAt.Format(time.RFC3339),
		PriceFilterLower:  opts.PriceLower,
		PriceFilterUpper:  opts.PriceUpper,
	}
}

// filterBinsByPriceRange keeps bins whose price interval overlaps the
// requested range. Bounds are inclusive; a nil bound is open-ended.
func filterBinsByPriceRange(bins []domain.Bin, lower, upper *float64) []domain.Bin {
	if lower == nil && upper == nil {
		return bins
	}
	filtered := make([]domain.Bin, 0, len(bins))
	for _, bin := range bins {
		if lower != nil && bin.PriceUpper < *lower {
			continue
		}
		if upper != nil && bin.PriceLower > *upper {
			continue
		}
		filtered = append(filtered, bin)
	}
	return filtered
}

func formatFilter(v *float64) string {
	if v == nil {
		return "none"
	}
	return fmt.Sprintf("%g", *v)
}
