package sweep

import (
	"context"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/go-faster/errors"
	"github.com/sourcegraph/conc"
	"go.uber.org/zap"

	"github.com/arnac-io/tokensweep/pkg/core"
	"github.com/arnac-io/tokensweep/pkg/rates"
)

type ledger interface {
	GetNativeBalance(ctx context.Context, owner solana.PublicKey) (uint64, error)
	GetHoldingsByOwner(ctx context.Context, owner solana.PublicKey) ([]core.Holding, error)
}

type priceResolver interface {
	Resolve(ctx context.Context, assets []rates.Asset, includeNative bool) core.Prices
}

type metadataSource interface {
	GetMetadata(ctx context.Context, mints []string) map[string]core.AssetMetadata
}

// Overview is a snapshot together with everything needed to display it.
// Prices and Metadata are best-effort.
type Overview struct {
	Snapshot core.Snapshot
	Prices   core.Prices
	Metadata map[string]core.AssetMetadata
}

// Snapshotter loads fresh views of a wallet.
type Snapshotter struct {
	logger   *zap.Logger
	ledger   ledger
	prices   priceResolver
	metadata metadataSource
}

func NewSnapshotter(logger *zap.Logger, ledger ledger, prices priceResolver, metadata metadataSource) *Snapshotter {
	return &Snapshotter{
		logger:   logger,
		ledger:   ledger,
		prices:   prices,
		metadata: metadata,
	}
}

// Refresh reads balances straight from the ledger. Any failure aborts the refresh.
func (s *Snapshotter) Refresh(ctx context.Context, owner solana.PublicKey) (core.Snapshot, error) {
	balance, err := s.ledger.GetNativeBalance(ctx, owner)
	if err != nil {
		return core.Snapshot{}, errors.Wrap(core.ErrDependencyUnavailable, "native balance: "+err.Error())
	}
	holdings, err := s.ledger.GetHoldingsByOwner(ctx, owner)
	if err != nil {
		return core.Snapshot{}, errors.Wrap(core.ErrDependencyUnavailable, "holdings: "+err.Error())
	}
	core.SortHoldings(holdings)
	return core.Snapshot{
		Owner:         owner,
		NativeBalance: balance,
		Holdings:      holdings,
		FetchedAt:     time.Now(),
	}, nil
}

// Overview refreshes the snapshot and then resolves prices and metadata of its assets.
func (s *Snapshotter) Overview(ctx context.Context, owner solana.PublicKey) (*Overview, error) {
	snapshot, err := s.Refresh(ctx, owner)
	if err != nil {
		return nil, err
	}
	mints := snapshot.Mints()
	ids := make([]string, len(mints))
	for i, m := range mints {
		ids[i] = m.String()
	}
	assets := make([]rates.Asset, 0, len(snapshot.Holdings))
	for _, h := range snapshot.Holdings {
		assets = append(assets, rates.Asset{Mint: h.Mint.String(), Decimals: h.Decimals})
	}

	res := &Overview{Snapshot: snapshot}
	var wg conc.WaitGroup
	wg.Go(func() {
		res.Prices = s.prices.Resolve(ctx, assets, true)
	})
	wg.Go(func() {
		res.Metadata = s.metadata.GetMetadata(ctx, ids)
	})
	wg.Wait()

	s.logger.Debug("overview loaded",
		zap.Stringer("owner", owner),
		zap.Int("holdings", len(snapshot.Holdings)),
		zap.Int("prices", len(res.Prices)))
	return res, nil
}
