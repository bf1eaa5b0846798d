package addressbook

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/sourcegraph/conc/iter"
	"go.uber.org/zap"

	"github.com/arnac-io/tokensweep/pkg/cache"
	"github.com/arnac-io/tokensweep/pkg/core"
)

// tokenListKey is the single key the whole token list is cached under.
const tokenListKey = "all"

// KnownToken represents an entry of the public token list.
type KnownToken struct {
	Address string `json:"address"`
	Name    string `json:"name"`
	Symbol  string `json:"symbol"`
	LogoURI string `json:"logoURI"`
}

type Option func(o *Options)

type Options struct {
	ttl           time.Duration
	retryAfter    time.Duration
	client        *http.Client
	maxGoroutines int
}

// WithTTL sets how long the token list and looked up assets are kept.
func WithTTL(ttl time.Duration) Option {
	return func(o *Options) {
		o.ttl = ttl
	}
}

// WithRetryAfter sets how long a failed token list download is remembered before the next attempt.
func WithRetryAfter(d time.Duration) Option {
	return func(o *Options) {
		o.retryAfter = d
	}
}

func WithHTTPClient(client *http.Client) Option {
	return func(o *Options) {
		o.client = client
	}
}

func WithMaxGoroutines(n int) Option {
	return func(o *Options) {
		o.maxGoroutines = n
	}
}

// Book resolves display metadata of mints.
// The public token list is consulted first, the asset index of a DAS-capable RPC endpoint second.
type Book struct {
	logger        *zap.Logger
	client        *http.Client
	tokenListURL  string
	dasURL        string
	maxGoroutines int
	tokenList     *cache.Cache[string, map[string]KnownToken]
	assets        *cache.Cache[string, core.AssetMetadata]

	// listMu serializes token list downloads.
	listMu       sync.Mutex
	listErr      error
	listFailedAt time.Time
	retryAfter   time.Duration
}

// NewAddressBook creates a Book. An empty dasURL disables the second lookup.
func NewAddressBook(logger *zap.Logger, tokenListURL, dasURL string, opts ...Option) *Book {
	options := Options{
		ttl:           time.Hour,
		retryAfter:    time.Minute,
		client:        &http.Client{Timeout: 15 * time.Second},
		maxGoroutines: 4,
	}
	for _, opt := range opts {
		opt(&options)
	}
	return &Book{
		logger:        logger,
		client:        options.client,
		tokenListURL:  tokenListURL,
		dasURL:        dasURL,
		maxGoroutines: options.maxGoroutines,
		retryAfter:    options.retryAfter,
		tokenList:     cache.NewLRUCache[string, map[string]KnownToken](1, options.ttl, "token_list"),
		assets:        cache.NewLRUCache[string, core.AssetMetadata](10_000, options.ttl, "asset_metadata"),
	}
}

// GetMetadata returns an entry for every requested mint.
// Mints no source knows about get an entry with only the mint set.
func (b *Book) GetMetadata(ctx context.Context, mints []string) map[string]core.AssetMetadata {
	res := make(map[string]core.AssetMetadata, len(mints))
	tokens, err := b.loadTokenList(ctx)
	if err != nil {
		b.logger.Warn("failed to load token list", zap.Error(err))
	}
	var missing []string
	for _, mint := range mints {
		if _, ok := res[mint]; ok {
			continue
		}
		meta := core.AssetMetadata{Mint: mint}
		if token, ok := tokens[mint]; ok {
			meta = core.AssetMetadata{Mint: mint, Name: token.Name, Symbol: token.Symbol, Image: token.LogoURI}
		}
		res[mint] = meta
		if meta.IsComplete() {
			continue
		}
		if found, ok := b.assets.Get(mint); ok {
			res[mint] = mergeMetadata(meta, found)
			continue
		}
		missing = append(missing, mint)
	}
	if len(missing) > 0 && b.dasURL != "" {
		mapper := iter.Mapper[string, *core.AssetMetadata]{MaxGoroutines: b.maxGoroutines}
		found := mapper.Map(missing, func(mint *string) *core.AssetMetadata {
			meta, err := b.lookupAsset(ctx, *mint)
			if err != nil {
				b.logger.Warn("failed to look up asset", zap.String("mint", *mint), zap.Error(err))
				return nil
			}
			return meta
		})
		for i, mint := range missing {
			if found[i] == nil {
				continue
			}
			b.assets.Set(mint, *found[i])
			res[mint] = mergeMetadata(res[mint], *found[i])
		}
	}
	return res
}

func (b *Book) loadTokenList(ctx context.Context) (map[string]KnownToken, error) {
	if tokens, ok := b.tokenList.Get(tokenListKey); ok {
		return tokens, nil
	}
	if b.tokenListURL == "" {
		return nil, nil
	}
	b.listMu.Lock()
	defer b.listMu.Unlock()
	// another caller may have finished the download while we waited.
	if tokens, ok := b.tokenList.Get(tokenListKey); ok {
		return tokens, nil
	}
	if b.listErr != nil && time.Since(b.listFailedAt) < b.retryAfter {
		return nil, b.listErr
	}
	list, err := downloadJson[KnownToken](ctx, b.client, b.tokenListURL)
	if err != nil {
		b.listErr, b.listFailedAt = err, time.Now()
		return nil, err
	}
	b.listErr = nil
	tokens := make(map[string]KnownToken, len(list))
	for _, item := range list {
		tokens[item.Address] = item
	}
	b.tokenList.Set(tokenListKey, tokens)
	return tokens, nil
}

type dasAsset struct {
	Content struct {
		JsonURI  string `json:"json_uri"`
		Metadata struct {
			Name   string `json:"name"`
			Symbol string `json:"symbol"`
		} `json:"metadata"`
		Links struct {
			Image string `json:"image"`
		} `json:"links"`
	} `json:"content"`
}

type offChainMetadata struct {
	Name   string `json:"name"`
	Symbol string `json:"symbol"`
	Image  string `json:"image"`
}

// lookupAsset queries getAsset and then the off-chain json the asset points to.
func (b *Book) lookupAsset(ctx context.Context, mint string) (*core.AssetMetadata, error) {
	payload, err := json.Marshal(map[string]any{
		"jsonrpc": "2.0",
		"id":      "get-asset",
		"method":  "getAsset",
		"params":  map[string]string{"id": mint},
	})
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, b.dasURL, bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	var resp struct {
		Result *dasAsset `json:"result"`
	}
	if err := b.doJson(req, &resp); err != nil {
		return nil, err
	}
	if resp.Result == nil {
		return nil, fmt.Errorf("asset %v not found", mint)
	}
	content := resp.Result.Content
	meta := core.AssetMetadata{
		Mint:   mint,
		Name:   content.Metadata.Name,
		Symbol: content.Metadata.Symbol,
		Image:  content.Links.Image,
	}
	if content.JsonURI == "" {
		return &meta, nil
	}
	req, err = http.NewRequestWithContext(ctx, http.MethodGet, content.JsonURI, nil)
	if err != nil {
		return &meta, nil
	}
	var offChain offChainMetadata
	if err := b.doJson(req, &offChain); err != nil {
		b.logger.Debug("failed to fetch off-chain metadata", zap.String("uri", content.JsonURI), zap.Error(err))
		return &meta, nil
	}
	return &core.AssetMetadata{
		Mint:   mint,
		Name:   firstNonEmpty(meta.Name, offChain.Name),
		Symbol: firstNonEmpty(meta.Symbol, offChain.Symbol),
		Image:  firstNonEmpty(meta.Image, offChain.Image),
	}, nil
}

func (b *Book) doJson(req *http.Request, dest any) error {
	response, err := b.client.Do(req)
	if err != nil {
		return err
	}
	defer response.Body.Close()
	if response.StatusCode >= 300 {
		return fmt.Errorf("invalid status code %v", response.StatusCode)
	}
	return json.NewDecoder(response.Body).Decode(dest)
}

// mergeMetadata fills the gaps of current with the fields of found.
func mergeMetadata(current, found core.AssetMetadata) core.AssetMetadata {
	current.Name = firstNonEmpty(current.Name, found.Name)
	current.Symbol = firstNonEmpty(current.Symbol, found.Symbol)
	current.Image = firstNonEmpty(current.Image, found.Image)
	return current
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func downloadJson[T any](ctx context.Context, client *http.Client, url string) ([]T, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	response, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer response.Body.Close()
	if response.StatusCode >= 300 {
		return nil, fmt.Errorf("invalid status code %v", response.StatusCode)
	}
	content, err := io.ReadAll(response.Body)
	if err != nil {
		return nil, err
	}
	var data []T
	if err = json.Unmarshal(content, &data); err != nil {
		return nil, err
	}
	return data, nil
}
