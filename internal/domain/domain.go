package domain

import (
	"strings"
	"time"
)

// Tracked pair: Uniswap v3 WETH/USDT on Ethereum mainnet.
const (
	WETHAddress = "0xc02aaa39b223fe8d0a0e5c4f27ead9083c756cc2"
	USDTAddress = "0xdac17f958d2ee523a2206206994597c13d831ec7"

	WETHDecimals = 18
	USDTDecimals = 6

	// Uniswap v3 NonfungiblePositionManager, the contract whose calls we ingest.
	PositionManagerAddress = "0xC36442b4a4522E871399CD717aBDD847Ab11FE88"
)

const (
	SignatureMint              = "mint"
	SignatureIncreaseLiquidity = "increaseLiquidity"
	SignatureDecreaseLiquidity = "decreaseLiquidity"
)

// NormalizeAddress lowercases an address for comparison.
func NormalizeAddress(address string) string {
	return strings.ToLower(address)
}

// CallValue is one decoded argument or return value of a call record.
// Exactly one of Address/BigInt is populated depending on the ABI type;
// BigInt stays a string because on-chain amounts overflow int64.
type CallValue struct {
	Index   int
	Name    string
	Address string
	BigInt  string
}

// RawCall is a typed call record from the upstream data source. It is decoded
// at the provider boundary so the pipeline never touches untyped maps.
type RawCall struct {
	Signature string
	Arguments []CallValue
	Returns   []CallValue
	BlockTime time.Time
	TxTime    time.Time
}

// Position is a liquidity position created by a mint call. Immutable once
// extracted; price bounds are fixed at mint time.
type Position struct {
	NFTID     int64     `json:"nft_id"`
	TickLower int       `json:"tick_lower"`
	TickUpper int       `json:"tick_upper"`
	Timestamp time.Time `json:"timestamp"`
	Token0    string    `json:"token0"`
	Token1    string    `json:"token1"`

	// Tick-space prices (1.0001^tick) and their decimals-adjusted variants.
	PriceLower         float64 `json:"price_lower"`
	PriceUpper         float64 `json:"price_upper"`
	PriceLowerAdjusted float64 `json:"price_lower_afterdecimals"`
	PriceUpperAdjusted float64 `json:"price_upper_afterdecimals"`

	// Raw-unit mint amounts; nil when the mint returns omitted them.
	Amount0 *float64 `json:"amount0"`
	Amount1 *float64 `json:"amount1"`

	// Decimals-adjusted amounts mapped to the tracked tokens.
	AmountWETH *float64 `json:"amount_weth"`
	AmountUSDT *float64 `json:"amount_usdt"`
}

// IsWETHToken0 reports whether WETH occupies the token0 slot, which decides
// the decimal precision and token mapping of amount0/amount1.
func (p *Position) IsWETHToken0() bool {
	return p.Token0 == WETHAddress
}

// LiquidityDelta accumulates increase/decrease-liquidity calls for one NFT.
// Amounts are signed raw-unit nets: increases add, decreases subtract.
type LiquidityDelta struct {
	Count        int
	TotalAmount0 float64
	TotalAmount1 float64
}

// SummaryPosition merges a mint Position with its net liquidity delta.
// Price bounds are the mint-time bounds; deltas never move them.
type SummaryPosition struct {
	NFTID              int64     `json:"nft_id"`
	CreateTime         time.Time `json:"create_time"`
	NumberOfPositions  int       `json:"number_of_positions"`
	PriceLowerAdjusted float64   `json:"price_lower_afterdecimals"`
	PriceUpperAdjusted float64   `json:"price_upper_afterdecimals"`
	AmountWETH         float64   `json:"amount_weth"`
	AmountUSDT         float64   `json:"amount_usdt"`
}

// Bin is one equal-width price band of a binning run.
type Bin struct {
	BinIndex   int     `json:"bin_index"`
	PriceLower float64 `json:"price_lower"`
	PriceUpper float64 `json:"price_upper"`
	AmountWETH float64 `json:"amount_weth"`
	AmountUSDT float64 `json:"amount_usdt"`
	CountNFTs  int     `json:"count_nfts"`
}

// RecommendationBand is a Bin ranked by USD-equivalent liquidity, optionally
// enriched with 24h trading volume for its price interval.
type RecommendationBand struct {
	Bin
	TotalLiquidity   float64  `json:"total_liquidity"`
	TradingVolume24h *float64 `json:"trading_volume_24h,omitempty"`
}

// Metadata describes the state a recommendation was computed from.
type Metadata struct {
	TotalPositions    int      `json:"total_positions"`
	TotalBins         int      `json:"total_bins"`
	BinsWithPositions int      `json:"bins_with_positions"`
	AnalysisDate      string   `json:"analysis_date"`
	TimeRangeHours    int      `json:"time_range_hours"`
	CacheTimestamp    string   `json:"cache_timestamp"`
	PriceFilterLower  *float64 `json:"price_filter_lower"`
	PriceFilterUpper  *float64 `json:"price_filter_upper"`
}

// Recommendation is the API response payload.
type Recommendation struct {
	TopLiquidityBands []RecommendationBand `json:"top_liquidity_bands"`
	Metadata          Metadata             `json:"metadata"`
}
