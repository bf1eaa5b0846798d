package rates

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math/big"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/Narasimha1997/ratelimiter"
	"github.com/go-faster/errors"
)

// List of services used to resolve prices
const (
	birdeye      string = "Birdeye"
	jupiterV4    string = "Jupiter price"
	jupiterQuote string = "Jupiter quote"
)

var (
	errNotConfigured = errors.New("source is not configured")
	errRateLimited   = errors.New("rate limited")
	errNoPrice       = errors.New("no price")
)

func sendRequest(ctx context.Context, client *http.Client, req *http.Request) (io.ReadCloser, error) {
	resp, err := client.Do(req.WithContext(ctx))
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, fmt.Errorf("bad status code: %v", resp.StatusCode)
	}
	return resp.Body, nil
}

// Birdeye is a spot price source queried per asset.
type Birdeye struct {
	client  *http.Client
	baseURL string
	apiKey  string
	limiter *ratelimiter.DefaultLimiter
}

// NewBirdeye creates a Birdeye client allowing at most rps requests per second.
// Without an API key every request fails with errNotConfigured.
func NewBirdeye(baseURL, apiKey string, rps uint64) *Birdeye {
	b := &Birdeye{
		client:  &http.Client{Timeout: 10 * time.Second},
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
	}
	if rps > 0 {
		b.limiter = ratelimiter.NewDefaultLimiter(rps, time.Second)
	}
	return b
}

func (b *Birdeye) SpotPrice(ctx context.Context, mint string) (float64, error) {
	if b.apiKey == "" {
		return 0, errNotConfigured
	}
	if b.limiter != nil {
		allowed, err := b.limiter.ShouldAllow(1)
		if err != nil {
			return 0, err
		}
		if !allowed {
			return 0, errRateLimited
		}
	}
	req, err := http.NewRequest(http.MethodGet, fmt.Sprintf("%v/defi/price?address=%v", b.baseURL, url.QueryEscape(mint)), nil)
	if err != nil {
		return 0, err
	}
	req.Header.Set("X-API-KEY", b.apiKey)
	req.Header.Set("x-chain", "solana")
	req.Header.Set("accept", "application/json")
	respBody, err := sendRequest(ctx, b.client, req)
	if err != nil {
		return 0, fmt.Errorf("[Birdeye.SpotPrice] failed to send request: %w", err)
	}
	return convertedBirdeyeResponse(respBody)
}

// Close stops the rate limiter.
func (b *Birdeye) Close() {
	if b.limiter != nil {
		b.limiter.Kill()
	}
}

func convertedBirdeyeResponse(respBody io.ReadCloser) (float64, error) {
	defer respBody.Close()
	var data struct {
		Data *struct {
			Value float64 `json:"value"`
		} `json:"data"`
	}
	if err := json.NewDecoder(respBody).Decode(&data); err != nil {
		return 0, fmt.Errorf("[convertedBirdeyeResponse] failed to decode response: %w", err)
	}
	if data.Data == nil {
		return 0, errNoPrice
	}
	return data.Data.Value, nil
}

// Jupiter is both a symbol-indexed price aggregator and a conversion-quote source.
type Jupiter struct {
	client    *http.Client
	priceURL  string
	quoteURL  string
	quoteMint string
	// slippageBps is passed to quote requests.
	slippageBps int
}

func NewJupiter(priceURL, quoteURL, quoteMint string) *Jupiter {
	return &Jupiter{
		client:      &http.Client{Timeout: 10 * time.Second},
		priceURL:    priceURL,
		quoteURL:    quoteURL,
		quoteMint:   quoteMint,
		slippageBps: 50,
	}
}

// Prices returns USD prices of the given ids in a single request.
// An id is either a mint address or a symbol like "SOL".
func (j *Jupiter) Prices(ctx context.Context, ids []string) (map[string]float64, error) {
	if len(ids) == 0 {
		return map[string]float64{}, nil
	}
	req, err := http.NewRequest(http.MethodGet, fmt.Sprintf("%v?ids=%v", j.priceURL, url.QueryEscape(strings.Join(ids, ","))), nil)
	if err != nil {
		return nil, err
	}
	respBody, err := sendRequest(ctx, j.client, req)
	if err != nil {
		return nil, fmt.Errorf("[Jupiter.Prices] failed to send request: %w", err)
	}
	return convertedJupiterPriceResponse(respBody)
}

func convertedJupiterPriceResponse(respBody io.ReadCloser) (map[string]float64, error) {
	defer respBody.Close()
	var data struct {
		Data map[string]struct {
			Price float64 `json:"price"`
		} `json:"data"`
	}
	if err := json.NewDecoder(respBody).Decode(&data); err != nil {
		return nil, fmt.Errorf("[convertedJupiterPriceResponse] failed to decode response: %w", err)
	}
	prices := make(map[string]float64, len(data.Data))
	for id, v := range data.Data {
		if v.Price > 0 {
			prices[id] = v.Price
		}
	}
	return prices, nil
}

// Quote returns how many raw units of the quote mint the given raw amount of inputMint converts to.
func (j *Jupiter) Quote(ctx context.Context, inputMint string, amount *big.Int) (*big.Int, error) {
	q := url.Values{}
	q.Set("inputMint", inputMint)
	q.Set("outputMint", j.quoteMint)
	q.Set("amount", amount.String())
	q.Set("slippageBps", fmt.Sprintf("%d", j.slippageBps))
	req, err := http.NewRequest(http.MethodGet, j.quoteURL+"?"+q.Encode(), nil)
	if err != nil {
		return nil, err
	}
	respBody, err := sendRequest(ctx, j.client, req)
	if err != nil {
		return nil, fmt.Errorf("[Jupiter.Quote] failed to send request: %w", err)
	}
	return convertedJupiterQuoteResponse(respBody)
}

// convertedJupiterQuoteResponse accepts both the flat v6 shape and the older
// shape with a list of routes under "data".
func convertedJupiterQuoteResponse(respBody io.ReadCloser) (*big.Int, error) {
	defer respBody.Close()
	var data struct {
		OutAmount string `json:"outAmount"`
		Data      []struct {
			OutAmount string `json:"outAmount"`
		} `json:"data"`
	}
	if err := json.NewDecoder(respBody).Decode(&data); err != nil {
		return nil, fmt.Errorf("[convertedJupiterQuoteResponse] failed to decode response: %w", err)
	}
	outAmount := data.OutAmount
	if outAmount == "" && len(data.Data) > 0 {
		outAmount = data.Data[0].OutAmount
	}
	if outAmount == "" {
		return nil, errNoPrice
	}
	out, ok := parseRawAmount(outAmount)
	if !ok {
		return nil, fmt.Errorf("[convertedJupiterQuoteResponse] invalid out amount %q", outAmount)
	}
	return out, nil
}
