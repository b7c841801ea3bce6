// Package parser normalizes raw call records into typed positions, folds
// liquidity-delta calls per NFT, and merges both into summary positions.
package parser

import (
	"log"
	"math"
	"strconv"

	"liquidity-bands/internal/domain"
	"liquidity-bands/internal/outlier"
	"liquidity-bands/internal/ticks"
)

// Mint call layout: token0 and token1 at argument indexes 0/1, tickLower and
// tickUpper at 3/4. Return values are matched by name first (tokenId, amount0,
// amount1) and fall back to fixed positions 2/3 for the amounts.
const (
	argIndexToken0    = 0
	argIndexToken1    = 1
	argIndexTickLower = 3
	argIndexTickUpper = 4

	mintReturnIndexAmount0 = 2
	mintReturnIndexAmount1 = 3

	// Liquidity calls return (liquidity, amount0, amount1).
	liqReturnIndexAmount0 = 1
	liqReturnIndexAmount1 = 2
)

func parseBigInt(v string) (float64, bool) {
	if v == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

// ExtractPosition maps one mint call record to a Position. It returns nil for
// records that are not a WETH/USDT mint or that miss a required field;
// malformed records never abort a batch.
func ExtractPosition(call domain.RawCall) *domain.Position {
	if len(call.Arguments) < 2 {
		return nil
	}

	var token0, token1 string
	for _, arg := range call.Arguments[:2] {
		switch arg.Index {
		case argIndexToken0:
			if arg.Address != "" {
				token0 = domain.NormalizeAddress(arg.Address)
			}
		case argIndexToken1:
			if arg.Address != "" {
				token1 = domain.NormalizeAddress(arg.Address)
			}
		}
	}

	hasWETH := token0 == domain.WETHAddress || token1 == domain.WETHAddress
	hasUSDT := token0 == domain.USDTAddress || token1 == domain.USDTAddress
	if !hasWETH || !hasUSDT {
		return nil
	}

	var tickLower, tickUpper *int
	for _, arg := range call.Arguments {
		switch arg.Index {
		case argIndexTickLower:
			if v, ok := parseBigInt(arg.BigInt); ok {
				t := int(v)
				tickLower = &t
			}
		case argIndexTickUpper:
			if v, ok := parseBigInt(arg.BigInt); ok {
				t := int(v)
				tickUpper = &t
			}
		}
	}

	var nftID *int64
	var amount0, amount1 *float64
	for _, ret := range call.Returns {
		switch ret.Name {
		case "tokenId":
			if v, ok := parseBigInt(ret.BigInt); ok {
				id := int64(v)
				nftID = &id
			}
		case "amount0":
			if v, ok := parseBigInt(ret.BigInt); ok {
				amount0 = &v
			}
		case "amount1":
			if v, ok := parseBigInt(ret.BigInt); ok {
				amount1 = &v
			}
		}
	}

	// Positional fallback when name-based lookup fails: mint returns are
	// (tokenId, liquidity, amount0, amount1).
	if amount0 == nil || amount1 == nil {
		for i, ret := range call.Returns {
			v, ok := parseBigInt(ret.BigInt)
			if !ok {
				continue
			}
			switch i {
			case mintReturnIndexAmount0:
				amount0 = &v
			case mintReturnIndexAmount1:
				amount1 = &v
			}
		}
	}

	timestamp := call.BlockTime
	if timestamp.IsZero() {
		timestamp = call.TxTime
	}

	if tickLower == nil || tickUpper == nil || nftID == nil || timestamp.IsZero() {
		return nil
	}

	decimals0, decimals1 := pairDecimals(token0 == domain.WETHAddress)

	pos := &domain.Position{
		NFTID:              *nftID,
		TickLower:          *tickLower,
		TickUpper:          *tickUpper,
		Timestamp:          timestamp,
		Token0:             token0,
		Token1:             token1,
		PriceLower:         ticks.PriceFromTick(*tickLower),
		PriceUpper:         ticks.PriceFromTick(*tickUpper),
		PriceLowerAdjusted: ticks.PriceWithDecimals(*tickLower, decimals0, decimals1),
		PriceUpperAdjusted: ticks.PriceWithDecimals(*tickUpper, decimals0, decimals1),
		Amount0:            amount0,
		Amount1:            amount1,
	}

	var amount0Adj, amount1Adj *float64
	if amount0 != nil {
		v := *amount0 / math.Pow(10, float64(decimals0))
		amount0Adj = &v
	}
	if amount1 != nil {
		v := *amount1 / math.Pow(10, float64(decimals1))
		amount1Adj = &v
	}
	if pos.IsWETHToken0() {
		pos.AmountWETH = amount0Adj
		pos.AmountUSDT = amount1Adj
	} else {
		pos.AmountWETH = amount1Adj
		pos.AmountUSDT = amount0Adj
	}

	return pos
}

// ParsePositions extracts all WETH/USDT positions from a batch of mint calls,
// skipping records that do not parse.
func ParsePositions(calls []domain.RawCall) []domain.Position {
	var positions []domain.Position
	for _, call := range calls {
		if p := ExtractPosition(call); p != nil {
			positions = append(positions, *p)
		}
	}
	return positions
}

// FoldLiquidityDeltas accumulates increase/decrease-liquidity calls into one
// LiquidityDelta per NFT. Every matching call increments the count; amounts
// are added on increase and subtracted on decrease. Each call is attributed to
// exactly one NFT, taken from argument index 0.
func FoldLiquidityDeltas(calls []domain.RawCall) map[int64]domain.LiquidityDelta {
	deltas := make(map[int64]domain.LiquidityDelta)

	for _, call := range calls {
		if call.Signature != domain.SignatureIncreaseLiquidity &&
			call.Signature != domain.SignatureDecreaseLiquidity {
			continue
		}
		isDecrease := call.Signature == domain.SignatureDecreaseLiquidity

		var nftID *int64
		for _, arg := range call.Arguments {
			if arg.Index == 0 {
				if v, ok := parseBigInt(arg.BigInt); ok {
					id := int64(v)
					nftID = &id
				}
				break
			}
		}
		if nftID == nil {
			continue
		}

		var amount0, amount1 *float64
		for _, ret := range call.Returns {
			switch ret.Name {
			case "amount0":
				if v, ok := parseBigInt(ret.BigInt); ok {
					amount0 = &v
				}
			case "amount1":
				if v, ok := parseBigInt(ret.BigInt); ok {
					amount1 = &v
				}
			}
		}
		// Positional fallback: liquidity-call returns are (liquidity, amount0, amount1).
		if amount0 == nil || amount1 == nil {
			for i, ret := range call.Returns {
				v, ok := parseBigInt(ret.BigInt)
				if !ok {
					continue
				}
				switch i {
				case liqReturnIndexAmount0:
					amount0 = &v
				case liqReturnIndexAmount1:
					amount1 = &v
				}
			}
		}

		delta := deltas[*nftID]
		delta.Count++
		sign := 1.0
		if isDecrease {
			sign = -1.0
		}
		if amount0 != nil {
			delta.TotalAmount0 += sign * *amount0
		}
		if amount1 != nil {
			delta.TotalAmount1 += sign * *amount1
		}
		deltas[*nftID] = delta
	}

	return deltas
}

// BuildSummary merges each mint position with its liquidity delta (zero delta
// if none), producing the final per-NFT amounts. Entries whose final amounts
// or mint-time price bounds fail validation are dropped. Price bounds are
// never recomputed from delta events.
func BuildSummary(positions []domain.Position, deltas map[int64]domain.LiquidityDelta) []domain.SummaryPosition {
	var summary []domain.SummaryPosition

	for _, pos := range positions {
		delta := deltas[pos.NFTID]

		decimals0, decimals1 := pairDecimals(pos.IsWETHToken0())

		var mintAmount0, mintAmount1 float64
		if pos.Amount0 != nil {
			mintAmount0 = *pos.Amount0
		}
		if pos.Amount1 != nil {
			mintAmount1 = *pos.Amount1
		}

		totalAmount0 := (mintAmount0 + delta.TotalAmount0) / math.Pow(10, float64(decimals0))
		totalAmount1 := (mintAmount1 + delta.TotalAmount1) / math.Pow(10, float64(decimals1))

		var amountWETH, amountUSDT float64
		if pos.IsWETHToken0() {
			amountWETH, amountUSDT = totalAmount0, totalAmount1
		} else {
			amountWETH, amountUSDT = totalAmount1, totalAmount0
		}

		if !outlier.ValidateAmounts(&amountWETH, &amountUSDT, pos.NFTID) {
			continue
		}

		item := domain.SummaryPosition{
			NFTID:              pos.NFTID,
			CreateTime:         pos.Timestamp,
			NumberOfPositions:  1 + delta.Count,
			PriceLowerAdjusted: pos.PriceLowerAdjusted,
			PriceUpperAdjusted: pos.PriceUpperAdjusted,
			AmountWETH:         amountWETH,
			AmountUSDT:         amountUSDT,
		}

		if !outlier.ValidatePositionPrices(item, outlier.MinReasonablePrice, outlier.MaxReasonablePrice) {
			log.Printf("Warning: filtering out NFT %d with invalid prices in final summary: lower=%v, upper=%v",
				pos.NFTID, item.PriceLowerAdjusted, item.PriceUpperAdjusted)
			continue
		}

		summary = append(summary, item)
	}

	return summary
}

func pairDecimals(wethIsToken0 bool) (int, int) {
	if wethIsToken0 {
		return domain.WETHDecimals, domain.USDTDecimals
	}
	return domain.USDTDecimals, domain.WETHDecimals
}
