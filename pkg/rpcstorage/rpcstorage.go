package rpcstorage

import (
	"context"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
	"github.com/go-faster/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"

	"github.com/arnac-io/tokensweep/pkg/core"
)

var storageTimeHistogramVec = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Name:    "rpcstorage_functions_time",
		Help:    "RPCStorage functions execution duration distribution in seconds",
		Buckets: []float64{0.001, 0.01, 0.05, 0.1, 1, 5, 10},
	},
	[]string{"method"},
)

// rpcClient is a subset of rpc.Client used by Storage.
type rpcClient interface {
	GetBalance(ctx context.Context, account solana.PublicKey, commitment rpc.CommitmentType) (*rpc.GetBalanceResult, error)
	GetTokenAccountsByOwner(ctx context.Context, owner solana.PublicKey, conf *rpc.GetTokenAccountsConfig, opts *rpc.GetTokenAccountsOpts) (*rpc.GetTokenAccountsResult, error)
	GetAccountInfo(ctx context.Context, account solana.PublicKey) (*rpc.GetAccountInfoResult, error)
	GetLatestBlockhash(ctx context.Context, commitment rpc.CommitmentType) (*rpc.GetLatestBlockhashResult, error)
}

// Storage answers account queries using a Solana JSON-RPC node.
type Storage struct {
	logger     *zap.Logger
	client     rpcClient
	commitment rpc.CommitmentType
}

type Options struct {
	commitment rpc.CommitmentType
}

type Option func(o *Options)

// WithCommitment sets the commitment level of read queries.
func WithCommitment(c rpc.CommitmentType) Option {
	return func(o *Options) {
		o.commitment = c
	}
}

func NewStorage(logger *zap.Logger, client rpcClient, opts ...Option) *Storage {
	o := &Options{commitment: rpc.CommitmentConfirmed}
	for i := range opts {
		opts[i](o)
	}
	return &Storage{
		logger:     logger,
		client:     client,
		commitment: o.commitment,
	}
}

func observe(method string) *prometheus.Timer {
	return prometheus.NewTimer(prometheus.ObserverFunc(func(v float64) {
		storageTimeHistogramVec.WithLabelValues(method).Observe(v)
	}))
}

// GetNativeBalance returns the lamports held by the account.
func (s *Storage) GetNativeBalance(ctx context.Context, owner solana.PublicKey) (uint64, error) {
	defer observe("get_native_balance").ObserveDuration()
	res, err := s.client.GetBalance(ctx, owner, s.commitment)
	if err != nil {
		return 0, errors.Wrap(err, "get balance")
	}
	return res.Value, nil
}

// GetHoldingsByOwner returns every token account of the owner, empty ones included.
func (s *Storage) GetHoldingsByOwner(ctx context.Context, owner solana.PublicKey) ([]core.Holding, error) {
	defer observe("get_holdings_by_owner").ObserveDuration()
	programID := solana.TokenProgramID
	res, err := s.client.GetTokenAccountsByOwner(ctx, owner,
		&rpc.GetTokenAccountsConfig{ProgramId: &programID},
		&rpc.GetTokenAccountsOpts{Commitment: s.commitment, Encoding: solana.EncodingJSONParsed},
	)
	if err != nil {
		return nil, errors.Wrap(err, "get token accounts")
	}
	holdings := make([]core.Holding, 0, len(res.Value))
	for _, acc := range res.Value {
		if acc == nil || acc.Account.Data == nil {
			continue
		}
		h, err := parseTokenAccount(acc.Pubkey, acc.Account.Data.GetRawJSON())
		if err != nil {
			return nil, errors.Wrapf(err, "token account %v", acc.Pubkey)
		}
		holdings = append(holdings, h)
	}
	return holdings, nil
}

// AccountExists reports whether the account is allocated on the ledger.
func (s *Storage) AccountExists(ctx context.Context, account solana.PublicKey) (bool, error) {
	defer observe("account_exists").ObserveDuration()
	res, err := s.client.GetAccountInfo(ctx, account)
	if errors.Is(err, rpc.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, errors.Wrap(err, "get account info")
	}
	return res != nil && res.Value != nil, nil
}

// GetLatestBlockhash returns a recent blockhash and the last block height it is valid for.
func (s *Storage) GetLatestBlockhash(ctx context.Context) (solana.Hash, uint64, error) {
	defer observe("get_latest_blockhash").ObserveDuration()
	res, err := s.client.GetLatestBlockhash(ctx, rpc.CommitmentFinalized)
	if err != nil {
		return solana.Hash{}, 0, errors.Wrap(err, "get latest blockhash")
	}
	if res == nil || res.Value == nil {
		return solana.Hash{}, 0, core.ErrEntityNotFound
	}
	return res.Value.Blockhash, res.Value.LastValidBlockHeight, nil
}
