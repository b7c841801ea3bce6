// Package provider talks to the Bitquery streaming GraphQL API, the upstream
// source of mint/liquidity call records and trade-volume aggregates.
package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"liquidity-bands/internal/domain"

	"go.opentelemetry.io/otel/trace"
)

const bitqueryBaseURL = "https://streaming.bitquery.io/graphql"

// BitqueryProvider fetches call records and trade volume from Bitquery.
type BitqueryProvider struct {
	client  *http.Client
	baseURL string
	apiKey  string
	tracer  trace.Tracer
	limiter *RateLimiter
}

// NewBitqueryProvider creates a provider with built-in rate limiting
// (10 requests per minute, one token every 6 seconds).
func NewBitqueryProvider(apiKey string, tracer trace.Tracer) *BitqueryProvider {
	return &BitqueryProvider{
		client:  &http.Client{Timeout: 30 * time.Second},
		baseURL: bitqueryBaseURL,
		apiKey:  apiKey,
		tracer:  tracer,
		limiter: NewRateLimiter(10, 6*time.Second),
	}
}

// FetchMintCalls returns mint calls against the position manager touching the
// tracked pair inside [start, end].
func (p *BitqueryProvider) FetchMintCalls(ctx context.Context, start, end time.Time) ([]domain.RawCall, error) {
	ctx, span := p.tracer.Start(ctx, "bitquery.fetch-mint-calls")
	defer span.End()

	body, err := p.doQuery(ctx, mintCallsQuery, map[string]interface{}{
		"startDate": start.UTC().Format(time.RFC3339),
		"endDate":   end.UTC().Format(time.RFC3339),
	})
	if err != nil {
		return nil, fmt.Errorf("fetch mint calls: %w", err)
	}
	return decodeCalls(body)
}

// FetchLiquidityCalls returns increase/decrease-liquidity calls for the given
// NFT IDs inside [start, end].
func (p *BitqueryProvider) FetchLiquidityCalls(ctx context.Context, nftIDs []int64, start, end time.Time) ([]domain.RawCall, error) {
	ctx, span := p.tracer.Start(ctx, "bitquery.fetch-liquidity-calls")
	defer span.End()

	ids := make([]string, 0, len(nftIDs))
	for _, id := range nftIDs {
		ids = append(ids, strconv.FormatInt(id, 10))
	}

	body, err := p.doQuery(ctx, liquidityCallsQuery, map[string]interface{}{
		"nftIds":    ids,
		"startDate": start.UTC().Format(time.RFC3339),
		"endDate":   end.UTC().Format(time.RFC3339),
	})
	if err != nil {
		return nil, fmt.Errorf("fetch liquidity calls: %w", err)
	}
	return decodeCalls(body)
}

// FetchVolume returns the aggregated USD trade volume for the tracked pair in
// a price interval over [start, end]. Satisfies recommend.VolumeSource.
func (p *BitqueryProvider) FetchVolume(ctx context.Context, priceLow, priceHigh float64, start, end time.Time) (float64, error) {
	ctx, span := p.tracer.Start(ctx, "bitquery.fetch-volume")
	defer span.End()

	body, err := p.doQuery(ctx, tradingVolumeQuery, map[string]interface{}{
		"priceLow":  priceLow,
		"priceHigh": priceHigh,
		"startDate": start.UTC().Format(time.RFC3339),
		"endDate":   end.UTC().Format(time.RFC3339),
	})
	if err != nil {
		return 0, fmt.Errorf("fetch trading volume: %w", err)
	}

	var resp struct {
		Data struct {
			EVM struct {
				DEXTradeByTokens []struct {
					Volume string `json:"volume"`
				} `json:"DEXTradeByTokens"`
			} `json:"EVM"`
		} `json:"data"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return 0, fmt.Errorf("parse trading volume: %w", err)
	}
	trades := resp.Data.EVM.DEXTradeByTokens
	if len(trades) == 0 || trades[0].Volume == "" {
		return 0, nil
	}
	volume, err := strconv.ParseFloat(trades[0].Volume, 64)
	if err != nil {
		return 0, nil
	}
	return volume, nil
}

func (p *BitqueryProvider) doQuery(ctx context.Context, query string, variables map[string]interface{}) ([]byte, error) {
	if err := p.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait: %w", err)
	}

	payload, err := json.Marshal(map[string]interface{}{
		"query":     query,
		"variables": variables,
	})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL, bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+p.apiKey)

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("bitquery API error %d: %s", resp.StatusCode, string(body))
	}

	return io.ReadAll(resp.Body)
}

// Wire shapes of the Bitquery Calls payload. Argument and return values are
// ABI unions; only the variants the pipeline reads are decoded.
type abiValue struct {
	Address    string `json:"address"`
	BigInteger string `json:"bigInteger"`
}

type callArgument struct {
	Index int      `json:"Index"`
	Name  string   `json:"Name"`
	Value abiValue `json:"Value"`
}

type callReturn struct {
	Name  string   `json:"Name"`
	Value abiValue `json:"Value"`
}

type callRecord struct {
	Arguments []callArgument `json:"Arguments"`
	Returns   []callReturn   `json:"Returns"`
	Call      struct {
		Signature struct {
			Name string `json:"Name"`
		} `json:"Signature"`
	} `json:"Call"`
	Block struct {
		Time time.Time `json:"Time"`
	} `json:"Block"`
	Transaction struct {
		Time time.Time `json:"Time"`
	} `json:"Transaction"`
}

// decodeCalls converts the dynamic wire payload into typed records at the
// boundary; everything downstream works on domain.RawCall.
func decodeCalls(body []byte) ([]domain.RawCall, error) {
	var resp struct {
		Data struct {
			EVM struct {
				Calls []callRecord `json:"Calls"`
			} `json:"EVM"`
		} `json:"data"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("parse calls response: %w", err)
	}

	calls := make([]domain.RawCall, 0, len(resp.Data.EVM.Calls))
	for _, rec := range resp.Data.EVM.Calls {
		call := domain.RawCall{
			Signature: rec.Call.Signature.Name,
			BlockTime: rec.Block.Time,
			TxTime:    rec.Transaction.Time,
		}
		for _, arg := range rec.Arguments {
			call.Arguments = append(call.Arguments, domain.CallValue{
				Index:   arg.Index,
				Name:    arg.Name,
				Address: arg.Value.Address,
				BigInt:  arg.Value.BigInteger,
			})
		}
		for i, ret := range rec.Returns {
			call.Returns = append(call.Returns, domain.CallValue{
				Index:  i,
				Name:   ret.Name,
				BigInt: ret.Value.BigInteger,
			})
		}
		calls = append(calls, call)
	}
	return calls, nil
}
