package outlier

import (
	"errors"
	"math"
	"testing"

	"liquidity-bands/internal/domain"
)

func fptr(v float64) *float64 { return &v }

func summary(id int64, lower, upper, weth, usdt float64) domain.SummaryPosition {
	return domain.SummaryPosition{
		NFTID:              id,
		NumberOfPositions:  1,
		PriceLowerAdjusted: lower,
		PriceUpperAdjusted: upper,
		AmountWETH:         weth,
		AmountUSDT:         usdt,
	}
}

func TestValidateAmounts(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name  string
		weth  *float64
		usdt  *float64
		valid bool
	}{
		{"both absent", nil, nil, true},
		{"both fine", fptr(10), fptr(25000), true},
		{"negative weth", fptr(-1), fptr(100), false},
		{"weth over ceiling", fptr(2e6), fptr(100), false},
		{"usdt over ceiling", fptr(1), fptr(2e12), false},
		{"nan", fptr(math.NaN()), nil, false},
		{"inf", nil, fptr(math.Inf(1)), false},
		{"zero amounts", fptr(0), fptr(0), true},
	}
	for _, tc := range cases {
		if got := ValidateAmounts(tc.weth, tc.usdt, 0); got != tc.valid {
			t.Fatalf("%s: expected %v, got %v", tc.name, tc.valid, got)
		}
	}
}

func TestValidatePositionPrices(t *testing.T) {
	t.Parallel()

	if !ValidatePositionPrices(summary(1, 2000, 3000, 5, 10000), MinReasonablePrice, MaxReasonablePrice) {
		t.Fatal("expected in-range position to validate")
	}
	if ValidatePositionPrices(summary(2, 3000, 2000, 5, 10000), MinReasonablePrice, MaxReasonablePrice) {
		t.Fatal("expected inverted bounds to fail")
	}
	if ValidatePositionPrices(summary(3, 50, 3000, 5, 10000), MinReasonablePrice, MaxReasonablePrice) {
		t.Fatal("expected below-reasonable lower bound to fail")
	}
	if ValidatePositionPrices(summary(4, 2000, 2e5, 5, 10000), MinReasonablePrice, MaxReasonablePrice) {
		t.Fatal("expected above-reasonable upper bound to fail")
	}
	// Wide reasonable range must not defeat the absolute guard-band.
	if ValidatePositionPrices(summary(5, 1e-12, 3000, 5, 10000), 0, MaxReasonablePrice) {
		t.Fatal("expected guard-band to reject tiny lower bound")
	}
	if ValidatePositionPrices(summary(6, 2000, 1e11, 5, 10000), MinReasonablePrice, 1e12) {
		t.Fatal("expected guard-band to reject huge upper bound")
	}
	if ValidatePositionPrices(summary(7, 2000, 3000, -1, 10000), MinReasonablePrice, MaxReasonablePrice) {
		t.Fatal("expected invalid amounts to fail price validation")
	}
}

func TestFilterValidPartition(t *testing.T) {
	t.Parallel()

	in := []domain.SummaryPosition{
		summary(1, 2000, 3000, 1, 1000),
		summary(2, 3000, 2000, 1, 1000), // inverted
		summary(3, 2500, 3500, 1, 1000),
		summary(4, 2000, 3000, -5, 1000), // bad amount
	}
	valid, invalid := FilterValid(in, MinReasonablePrice, MaxReasonablePrice)

	if len(valid) != 2 || len(invalid) != 2 {
		t.Fatalf("expected 2/2 split, got %d/%d", len(valid), len(invalid))
	}
	if valid[0].NFTID != 1 || valid[1].NFTID != 3 {
		t.Fatalf("valid partition should preserve input order, got %+v", valid)
	}
	if invalid[0].NFTID != 2 || invalid[1].NFTID != 4 {
		t.Fatalf("invalid partition should preserve input order, got %+v", invalid)
	}
	if len(valid)+len(invalid) != len(in) {
		t.Fatalf("partitions must cover the input")
	}
}

func TestPriceRangeTrimsOutliers(t *testing.T) {
	t.Parallel()

	var positions []domain.SummaryPosition
	// 100 positions spread uniformly across [1000, 2000] lowers, [3000, 4000] uppers.
	for i := 0; i < 100; i++ {
		positions = append(positions, summary(int64(i), 1000+float64(i)*10, 3000+float64(i)*10, 1, 1000))
	}
	// 5 extreme outliers at each end.
	for i := 0; i < 5; i++ {
		positions = append(positions, summary(int64(200+i), 1e-9, 3500, 1, 1000))
		positions = append(positions, summary(int64(300+i), 1500, 1e9, 1, 1000))
	}

	minPrice, maxPrice, err := PriceRange(positions)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if minPrice < 1000 || minPrice > 2000 {
		t.Fatalf("min price should exclude low outliers, got %v", minPrice)
	}
	if maxPrice < 3000 || maxPrice > 4000 {
		t.Fatalf("max price should exclude high outliers, got %v", maxPrice)
	}
}

func TestPriceRangeEmpty(t *testing.T) {
	t.Parallel()

	_, _, err := PriceRange(nil)
	if !errors.Is(err, ErrNoPriceData) {
		t.Fatalf("expected ErrNoPriceData, got %v", err)
	}

	// Non-positive bounds contribute nothing.
	_, _, err = PriceRange([]domain.SummaryPosition{summary(1, -5, 0, 1, 1)})
	if !errors.Is(err, ErrNoPriceData) {
		t.Fatalf("expected ErrNoPriceData, got %v", err)
	}
}

func TestPriceRangeMedianFallback(t *testing.T) {
	t.Parallel()

	// Few positions, so the 5th/95th percentile indexes land on the extremes;
	// the extremes violate the guard-band and the medians take over.
	positions := []domain.SummaryPosition{
		summary(1, 1e-11, 2000, 1, 1),
		summary(2, 1500, 3000, 1, 1),
		summary(3, 1600, 1e11, 1, 1),
	}
	minPrice, maxPrice, err := PriceRange(positions)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if minPrice != 1500 {
		t.Fatalf("expected median lower 1500, got %v", minPrice)
	}
	if maxPrice != 3000 {
		t.Fatalf("expected median upper 3000, got %v", maxPrice)
	}
}

func TestPriceRangeGuardedMinMaxFallback(t *testing.T) {
	t.Parallel()

	// Medians themselves are out of band; the last resort keeps the in-band
	// extremes only.
	positions := []domain.SummaryPosition{
		summary(1, 1e-11, 1e-11, 1, 1),
		summary(2, 1e-11, 1e11, 1, 1),
		summary(3, 1500, 5000, 1, 1),
	}
	minPrice, maxPrice, err := PriceRange(positions)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if minPrice != 1500 || maxPrice != 5000 {
		t.Fatalf("expected guarded min/max 1500/5000, got %v/%v", minPrice, maxPrice)
	}
}
