package parser

import (
	"math"
	"testing"
	"time"

	"liquidity-bands/internal/domain"
)

var blockTime = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

// mintCall builds a WETH/USDT mint record with WETH in the token0 slot and
// returns matched by name.
func mintCall(nftID string, tickLower, tickUpper string, amount0, amount1 string) domain.RawCall {
	return domain.RawCall{
		Signature: domain.SignatureMint,
		Arguments: []domain.CallValue{
			{Index: 0, Name: "token0", Address: domain.WETHAddress},
			{Index: 1, Name: "token1", Address: domain.USDTAddress},
			{Index: 2, Name: "fee", BigInt: "3000"},
			{Index: 3, Name: "tickLower", BigInt: tickLower},
			{Index: 4, Name: "tickUpper", BigInt: tickUpper},
		},
		Returns: []domain.CallValue{
			{Name: "tokenId", BigInt: nftID},
			{Name: "liquidity", BigInt: "12345"},
			{Name: "amount0", BigInt: amount0},
			{Name: "amount1", BigInt: amount1},
		},
		BlockTime: blockTime,
	}
}

func TestExtractPositionByName(t *testing.T) {
	t.Parallel()

	// 2 WETH and 5000 USDT in raw units.
	pos := ExtractPosition(mintCall("987654", "-198000", "-196000", "2000000000000000000", "5000000000"))
	if pos == nil {
		t.Fatal("expected a position")
	}
	if pos.NFTID != 987654 || pos.TickLower != -198000 || pos.TickUpper != -196000 {
		t.Fatalf("unexpected identity fields: %+v", pos)
	}
	if !pos.Timestamp.Equal(blockTime) {
		t.Fatalf("expected block time, got %v", pos.Timestamp)
	}
	if !pos.IsWETHToken0() {
		t.Fatal("expected WETH in token0 slot")
	}
	// WETH is token0: adjusted price = 1.0001^tick * 1e12, landing in the
	// thousands for these ticks.
	if pos.PriceLowerAdjusted < 2000 || pos.PriceLowerAdjusted > 3000 {
		t.Fatalf("unexpected adjusted lower price: %v", pos.PriceLowerAdjusted)
	}
	if pos.PriceUpperAdjusted <= pos.PriceLowerAdjusted {
		t.Fatalf("adjusted bounds inverted: %+v", pos)
	}
	if pos.PriceLower >= pos.PriceUpper {
		t.Fatalf("tick-space bounds inverted: %+v", pos)
	}
	if pos.AmountWETH == nil || math.Abs(*pos.AmountWETH-2.0) > 1e-9 {
		t.Fatalf("expected 2 WETH, got %v", pos.AmountWETH)
	}
	if pos.AmountUSDT == nil || math.Abs(*pos.AmountUSDT-5000.0) > 1e-9 {
		t.Fatalf("expected 5000 USDT, got %v", pos.AmountUSDT)
	}
}

func TestExtractPositionUSDTToken0(t *testing.T) {
	t.Parallel()

	call := mintCall("1", "100", "200", "5000000000", "2000000000000000000")
	call.Arguments[0].Address = domain.USDTAddress
	call.Arguments[1].Address = domain.WETHAddress

	pos := ExtractPosition(call)
	if pos == nil {
		t.Fatal("expected a position")
	}
	if pos.IsWETHToken0() {
		t.Fatal("expected USDT in token0 slot")
	}
	// Slot assignment flips the mapping: amount0 is USDT, amount1 is WETH.
	if pos.AmountUSDT == nil || math.Abs(*pos.AmountUSDT-5000.0) > 1e-9 {
		t.Fatalf("expected 5000 USDT from amount0, got %v", pos.AmountUSDT)
	}
	if pos.AmountWETH == nil || math.Abs(*pos.AmountWETH-2.0) > 1e-9 {
		t.Fatalf("expected 2 WETH from amount1, got %v", pos.AmountWETH)
	}
}

func TestExtractPositionAmountFallbackByIndex(t *testing.T) {
	t.Parallel()

	call := mintCall("42", "-198000", "-196000", "0", "0")
	// Strip the names so only the fixed positions (2 and 3) identify amounts.
	call.Returns = []domain.CallValue{
		{Name: "tokenId", BigInt: "42"},
		{BigInt: "12345"},
		{BigInt: "3000000000000000000"},
		{BigInt: "7000000000"},
	}

	pos := ExtractPosition(call)
	if pos == nil {
		t.Fatal("expected a position")
	}
	if pos.AmountWETH == nil || math.Abs(*pos.AmountWETH-3.0) > 1e-9 {
		t.Fatalf("expected 3 WETH via index fallback, got %v", pos.AmountWETH)
	}
	if pos.AmountUSDT == nil || math.Abs(*pos.AmountUSDT-7000.0) > 1e-9 {
		t.Fatalf("expected 7000 USDT via index fallback, got %v", pos.AmountUSDT)
	}
}

func TestExtractPositionRejections(t *testing.T) {
	t.Parallel()

	// Untracked pair.
	other := mintCall("1", "-198000", "-196000", "1", "1")
	other.Arguments[1].Address = "0x0000000000000000000000000000000000000001"
	if ExtractPosition(other) != nil {
		t.Fatal("expected untracked pair to be filtered")
	}

	// Missing tick.
	noTick := mintCall("1", "-198000", "-196000", "1", "1")
	noTick.Arguments = noTick.Arguments[:4]
	if ExtractPosition(noTick) != nil {
		t.Fatal("expected missing tickUpper to be filtered")
	}

	// Missing tokenId.
	noID := mintCall("1", "-198000", "-196000", "1", "1")
	noID.Returns[0].Name = "somethingElse"
	if ExtractPosition(noID) != nil {
		t.Fatal("expected missing tokenId to be filtered")
	}

	// No timestamp at all.
	noTime := mintCall("1", "-198000", "-196000", "1", "1")
	noTime.BlockTime = time.Time{}
	if ExtractPosition(noTime) != nil {
		t.Fatal("expected missing timestamp to be filtered")
	}

	// Too few arguments.
	if ExtractPosition(domain.RawCall{Arguments: []domain.CallValue{{Index: 0}}}) != nil {
		t.Fatal("expected short argument list to be filtered")
	}
}

func TestExtractPositionTxTimeFallback(t *testing.T) {
	t.Parallel()

	call := mintCall("7", "-198000", "-196000", "1", "1")
	call.BlockTime = time.Time{}
	call.TxTime = blockTime.Add(time.Second)

	pos := ExtractPosition(call)
	if pos == nil {
		t.Fatal("expected a position")
	}
	if !pos.Timestamp.Equal(blockTime.Add(time.Second)) {
		t.Fatalf("expected transaction time fallback, got %v", pos.Timestamp)
	}
}

func TestParsePositionsSkipsMalformed(t *testing.T) {
	t.Parallel()

	calls := []domain.RawCall{
		mintCall("1", "-198000", "-196000", "1000000000000000000", "3000000000"),
		{Signature: domain.SignatureMint}, // malformed
		mintCall("2", "-198000", "-196000", "1000000000000000000", "3000000000"),
	}
	positions := ParsePositions(calls)
	if len(positions) != 2 {
		t.Fatalf("expected 2 positions, got %d", len(positions))
	}
	if positions[0].NFTID != 1 || positions[1].NFTID != 2 {
		t.Fatalf("unexpected order: %+v", positions)
	}
}

func liquidityCall(signature, nftID, amount0, amount1 string) domain.RawCall {
	return domain.RawCall{
		Signature: signature,
		Arguments: []domain.CallValue{
			{Index: 0, Name: "tokenId", BigInt: nftID},
		},
		Returns: []domain.CallValue{
			{Name: "liquidity", BigInt: "999"},
			{Name: "amount0", BigInt: amount0},
			{Name: "amount1", BigInt: amount1},
		},
		BlockTime: blockTime,
	}
}

func TestFoldLiquidityDeltas(t *testing.T) {
	t.Parallel()

	calls := []domain.RawCall{
		liquidityCall(domain.SignatureIncreaseLiquidity, "10", "100", "200"),
		liquidityCall(domain.SignatureIncreaseLiquidity, "10", "50", "60"),
		liquidityCall(domain.SignatureDecreaseLiquidity, "10", "30", "40"),
		liquidityCall(domain.SignatureIncreaseLiquidity, "11", "5", "6"),
		liquidityCall("collect", "10", "1", "1"), // unrelated signature
	}

	deltas := FoldLiquidityDeltas(calls)
	if len(deltas) != 2 {
		t.Fatalf("expected deltas for 2 NFTs, got %d", len(deltas))
	}

	d10 := deltas[10]
	if d10.Count != 3 {
		t.Fatalf("expected count 3 (decreases count too), got %d", d10.Count)
	}
	if d10.TotalAmount0 != 120 || d10.TotalAmount1 != 220 {
		t.Fatalf("expected net amounts 120/220, got %v/%v", d10.TotalAmount0, d10.TotalAmount1)
	}

	d11 := deltas[11]
	if d11.Count != 1 || d11.TotalAmount0 != 5 || d11.TotalAmount1 != 6 {
		t.Fatalf("unexpected delta for NFT 11: %+v", d11)
	}
}

func TestFoldLiquidityDeltasIndexFallback(t *testing.T) {
	t.Parallel()

	call := liquidityCall(domain.SignatureIncreaseLiquidity, "12", "0", "0")
	// Liquidity-call returns are (liquidity, amount0, amount1) positionally.
	call.Returns = []domain.CallValue{
		{BigInt: "999"},
		{BigInt: "70"},
		{BigInt: "80"},
	}

	deltas := FoldLiquidityDeltas([]domain.RawCall{call})
	d := deltas[12]
	if d.TotalAmount0 != 70 || d.TotalAmount1 != 80 {
		t.Fatalf("expected 70/80 via index fallback, got %v/%v", d.TotalAmount0, d.TotalAmount1)
	}
}

func TestFoldLiquidityDeltasMissingID(t *testing.T) {
	t.Parallel()

	call := liquidityCall(domain.SignatureIncreaseLiquidity, "1", "2", "3")
	call.Arguments = nil
	if deltas := FoldLiquidityDeltas([]domain.RawCall{call}); len(deltas) != 0 {
		t.Fatalf("expected no deltas without an NFT ID, got %+v", deltas)
	}
}

func TestBuildSummaryMergesDeltas(t *testing.T) {
	t.Parallel()

	pos := ExtractPosition(mintCall("20", "-198000", "-196000", "2000000000000000000", "5000000000"))
	if pos == nil {
		t.Fatal("expected a position")
	}

	deltas := map[int64]domain.LiquidityDelta{
		20: {Count: 2, TotalAmount0: 1000000000000000000, TotalAmount1: -2000000000},
	}

	summary := BuildSummary([]domain.Position{*pos}, deltas)
	if len(summary) != 1 {
		t.Fatalf("expected 1 summary entry, got %d", len(summary))
	}

	s := summary[0]
	if s.NumberOfPositions != 3 {
		t.Fatalf("expected 1 mint + 2 delta events, got %d", s.NumberOfPositions)
	}
	if math.Abs(s.AmountWETH-3.0) > 1e-9 {
		t.Fatalf("expected 2 + 1 WETH, got %v", s.AmountWETH)
	}
	if math.Abs(s.AmountUSDT-3000.0) > 1e-9 {
		t.Fatalf("expected 5000 - 2000 USDT, got %v", s.AmountUSDT)
	}
	if s.PriceLowerAdjusted != pos.PriceLowerAdjusted || s.PriceUpperAdjusted != pos.PriceUpperAdjusted {
		t.Fatal("summary price bounds must stay the mint-time bounds")
	}
	if !s.CreateTime.Equal(pos.Timestamp) {
		t.Fatalf("unexpected create time: %v", s.CreateTime)
	}
}

func TestBuildSummaryDefaultsToZeroDelta(t *testing.T) {
	t.Parallel()

	pos := ExtractPosition(mintCall("21", "-198000", "-196000", "1000000000000000000", "2000000000"))
	summary := BuildSummary([]domain.Position{*pos}, nil)
	if len(summary) != 1 {
		t.Fatalf("expected 1 summary entry, got %d", len(summary))
	}
	if summary[0].NumberOfPositions != 1 {
		t.Fatalf("expected mint-only count 1, got %d", summary[0].NumberOfPositions)
	}
	if math.Abs(summary[0].AmountWETH-1.0) > 1e-9 || math.Abs(summary[0].AmountUSDT-2000.0) > 1e-9 {
		t.Fatalf("unexpected amounts: %+v", summary[0])
	}
}

func TestBuildSummaryDropsInvalid(t *testing.T) {
	t.Parallel()

	good := ExtractPosition(mintCall("30", "-198000", "-196000", "1000000000000000000", "2000000000"))

	// Net decrease below zero makes the final WETH amount negative.
	drained := ExtractPosition(mintCall("31", "-198000", "-196000", "1000000000000000000", "2000000000"))
	deltas := map[int64]domain.LiquidityDelta{
		31: {Count: 1, TotalAmount0: -5000000000000000000},
	}

	// Ticks around zero give an adjusted price near 1e12, far outside the
	// reasonable range.
	farOut := ExtractPosition(mintCall("32", "-100", "100", "1000000000000000000", "2000000000"))

	summary := BuildSummary([]domain.Position{*good, *drained, *farOut}, deltas)
	if len(summary) != 1 || summary[0].NFTID != 30 {
		t.Fatalf("expected only NFT 30 to survive, got %+v", summary)
	}
}
