package rates

import (
	"context"
	"math/big"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/go-faster/errors"
	"github.com/puzpuzpuz/xsync/v2"
	"github.com/sony/gobreaker"
	"github.com/sourcegraph/conc/iter"
	"go.uber.org/zap"

	"github.com/arnac-io/tokensweep/pkg/cache"
	"github.com/arnac-io/tokensweep/pkg/core"
)

// nativeSymbol is the symbol the aggregator knows the native currency by.
const nativeSymbol = "SOL"

// Asset is an asset to be priced.
type Asset struct {
	Mint     string
	Decimals uint8
}

type spotSource interface {
	SpotPrice(ctx context.Context, mint string) (float64, error)
}

type aggregatorSource interface {
	// Prices returns prices of several ids (mints or symbols) in one call.
	Prices(ctx context.Context, ids []string) (map[string]float64, error)
}

type quoteSource interface {
	// Quote converts a raw amount of the input mint into a raw amount of the reference stable asset.
	Quote(ctx context.Context, inputMint string, amount *big.Int) (*big.Int, error)
}

// Resolver resolves USD prices through a chain of sources.
// Each stage only looks for assets still missing after the previous stages,
// and a stage never overwrites a price found earlier.
type Resolver struct {
	logger     *zap.Logger
	spot       spotSource
	aggregator aggregatorSource
	quote      quoteSource
	// quoteDecimals is the number of decimals of the reference stable asset.
	quoteDecimals uint8
	probeTimeout  time.Duration
	maxGoroutines int
	breakers      *xsync.MapOf[string, *gobreaker.CircuitBreaker]
	// cache is optional and owned by this resolver.
	cache *cache.Cache[string, float64]
}

type Options struct {
	quoteDecimals uint8
	probeTimeout  time.Duration
	maxGoroutines int
	cacheTTL      time.Duration
}

type Option func(o *Options)

func WithQuoteDecimals(decimals uint8) Option {
	return func(o *Options) {
		o.quoteDecimals = decimals
	}
}

// WithProbeTimeout bounds every single source call.
func WithProbeTimeout(d time.Duration) Option {
	return func(o *Options) {
		o.probeTimeout = d
	}
}

func WithMaxGoroutines(n int) Option {
	return func(o *Options) {
		o.maxGoroutines = n
	}
}

// WithCacheTTL keeps resolved prices for the given duration. Zero disables caching.
func WithCacheTTL(ttl time.Duration) Option {
	return func(o *Options) {
		o.cacheTTL = ttl
	}
}

func NewResolver(logger *zap.Logger, spot spotSource, aggregator aggregatorSource, quote quoteSource, opts ...Option) *Resolver {
	o := &Options{
		quoteDecimals: 6,
		probeTimeout:  5 * time.Second,
		maxGoroutines: 8,
	}
	for i := range opts {
		opts[i](o)
	}
	r := &Resolver{
		logger:        logger,
		spot:          spot,
		aggregator:    aggregator,
		quote:         quote,
		quoteDecimals: o.quoteDecimals,
		probeTimeout:  o.probeTimeout,
		maxGoroutines: o.maxGoroutines,
		breakers:      xsync.NewMapOf[*gobreaker.CircuitBreaker](),
	}
	if o.cacheTTL > 0 {
		r.cache = cache.NewLRUCache[string, float64](10_000, o.cacheTTL, "prices")
	}
	return r
}

// Resolve returns the USD unit price of every asset it could resolve.
// The native currency is keyed by core.NativeAsset.
// Resolve never fails: an asset that no source could price is simply absent.
func (r *Resolver) Resolve(ctx context.Context, assets []Asset, includeNative bool) core.Prices {
	assets = uniqueAssets(assets)
	acc := core.Prices{}
	r.fromCache(acc, assets, includeNative)

	// stage 1: spot price per asset, the native currency through its wrapped mint.
	wrapped := solana.WrappedSol.String()
	probes := missingAssets(acc, assets)
	if includeNative && !has(acc, core.NativeAsset) && !containsMint(probes, wrapped) {
		probes = append(probes, Asset{Mint: wrapped, Decimals: core.NativeDecimals})
	}
	spot := r.probeEach(probes, birdeye, func(ctx context.Context, a Asset) (float64, error) {
		return r.spot.SpotPrice(ctx, a.Mint)
	})
	if p, ok := spot[wrapped]; ok && includeNative {
		spot[core.NativeAsset] = p
		if !containsMint(assets, wrapped) {
			delete(spot, wrapped)
		}
	}
	merge(acc, spot, "spot")

	// stage 2: the native currency by symbol.
	if includeNative && !has(acc, core.NativeAsset) {
		prices := r.aggregate(ctx, []string{nativeSymbol})
		if p, ok := prices[nativeSymbol]; ok {
			merge(acc, map[string]float64{core.NativeAsset: p}, "aggregator_native")
		}
	}

	// stage 3: everything still missing in one batched call.
	if missing := missingAssets(acc, assets); len(missing) > 0 {
		ids := make([]string, len(missing))
		for i, a := range missing {
			ids[i] = a.Mint
		}
		merge(acc, r.aggregate(ctx, ids), "aggregator")
	}

	// stage 4: a quote of one whole token into the reference stable asset.
	quoted := r.probeEach(missingAssets(acc, assets), jupiterQuote, func(ctx context.Context, a Asset) (float64, error) {
		out, err := r.quote.Quote(ctx, a.Mint, wholeUnit(a.Decimals))
		if err != nil {
			return 0, err
		}
		return quoteUnitPrice(out, r.quoteDecimals), nil
	})
	merge(acc, quoted, "quote")

	r.toCache(acc)
	r.logger.Debug("prices resolved",
		zap.Int("requested", len(assets)),
		zap.Int("resolved", len(acc)),
		zap.Bool("native", includeNative))
	return acc
}

// probeEach runs probe concurrently for every asset and returns once all probes have settled.
func (r *Resolver) probeEach(assets []Asset, source string, probe func(ctx context.Context, a Asset) (float64, error)) map[string]float64 {
	if len(assets) == 0 {
		return map[string]float64{}
	}
	mapper := iter.Mapper[Asset, float64]{MaxGoroutines: r.maxGoroutines}
	prices := mapper.Map(assets, func(a *Asset) float64 {
		// probes outlive an abandoned caller, each bounded by its own timeout.
		ctx, cancel := context.WithTimeout(context.Background(), r.probeTimeout)
		defer cancel()
		price, err := r.guard(source, func() (float64, error) {
			return probe(ctx, *a)
		})
		if err != nil {
			r.logger.Debug("price probe failed",
				zap.String("source", source),
				zap.String("mint", a.Mint),
				zap.Error(err))
			return 0
		}
		return price
	})
	res := make(map[string]float64, len(assets))
	for i, a := range assets {
		res[a.Mint] = prices[i]
	}
	return res
}

func (r *Resolver) aggregate(ctx context.Context, ids []string) map[string]float64 {
	ctx, cancel := context.WithTimeout(ctx, r.probeTimeout)
	defer cancel()
	var prices map[string]float64
	_, err := r.guard(jupiterV4, func() (float64, error) {
		var err error
		prices, err = r.aggregator.Prices(ctx, ids)
		return 0, err
	})
	if err != nil {
		r.logger.Debug("aggregator failed", zap.Strings("ids", ids), zap.Error(err))
		return map[string]float64{}
	}
	return prices
}

// guard passes the call through the source's circuit breaker.
func (r *Resolver) guard(source string, fn func() (float64, error)) (float64, error) {
	breaker, _ := r.breakers.LoadOrCompute(source, func() *gobreaker.CircuitBreaker {
		return newBreaker(r.logger, source)
	})
	res, err := breaker.Execute(func() (interface{}, error) {
		return fn()
	})
	if err != nil {
		errorsCounter.WithLabelValues(source).Inc()
		return 0, err
	}
	return res.(float64), nil
}

func newBreaker(logger *zap.Logger, source string) *gobreaker.CircuitBreaker {
	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:    source,
		Timeout: 30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 20
		},
		// local throttling and abandoned calls say nothing about the source's health.
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, errRateLimited) || errors.Is(err, context.Canceled)
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			logger.Warn("price source breaker state changed",
				zap.String("source", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()))
		},
	})
}

func (r *Resolver) fromCache(acc core.Prices, assets []Asset, includeNative bool) {
	if r.cache == nil {
		return
	}
	keys := make([]string, 0, len(assets)+1)
	for _, a := range assets {
		keys = append(keys, a.Mint)
	}
	if includeNative {
		keys = append(keys, core.NativeAsset)
	}
	for _, key := range keys {
		if p, ok := r.cache.Get(key); ok {
			acc[key] = p
		}
	}
}

func (r *Resolver) toCache(acc core.Prices) {
	if r.cache == nil {
		return
	}
	for key, p := range acc {
		r.cache.Set(key, p)
	}
}

// merge adds valid prices of a stage to the accumulator without overwriting existing ones.
func merge(acc core.Prices, stage map[string]float64, stageName string) {
	for id, p := range stage {
		if has(acc, id) || !core.IsValidPrice(p) {
			continue
		}
		acc[id] = p
		resolvedCounter.WithLabelValues(stageName).Inc()
	}
}

func has(acc core.Prices, id string) bool {
	_, ok := acc[id]
	return ok
}

func missingAssets(acc core.Prices, assets []Asset) []Asset {
	var missing []Asset
	for _, a := range assets {
		if !has(acc, a.Mint) {
			missing = append(missing, a)
		}
	}
	return missing
}

func containsMint(assets []Asset, mint string) bool {
	for _, a := range assets {
		if a.Mint == mint {
			return true
		}
	}
	return false
}

func uniqueAssets(assets []Asset) []Asset {
	seen := make(map[string]struct{}, len(assets))
	res := make([]Asset, 0, len(assets))
	for _, a := range assets {
		if _, ok := seen[a.Mint]; ok {
			continue
		}
		seen[a.Mint] = struct{}{}
		res = append(res, a)
	}
	return res
}
