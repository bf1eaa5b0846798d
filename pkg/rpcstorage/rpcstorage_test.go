package rpcstorage

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/arnac-io/tokensweep/pkg/core"
)

var (
	usdc  = solana.MustPublicKeyFromBase58("EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v")
	owner = solana.MustPublicKeyFromBase58("9WzDXwBbmkg8ZTbNMqUxvQRAyrZzDsGYdLVL9zYtAWWM")
)

type mockClient struct {
	accounts    []*rpc.TokenAccount
	existing    map[solana.PublicKey]bool
	accountsErr error
}

func (m *mockClient) GetBalance(ctx context.Context, account solana.PublicKey, commitment rpc.CommitmentType) (*rpc.GetBalanceResult, error) {
	return &rpc.GetBalanceResult{Value: 42}, nil
}

func (m *mockClient) GetTokenAccountsByOwner(ctx context.Context, owner solana.PublicKey, conf *rpc.GetTokenAccountsConfig, opts *rpc.GetTokenAccountsOpts) (*rpc.GetTokenAccountsResult, error) {
	if m.accountsErr != nil {
		return nil, m.accountsErr
	}
	return &rpc.GetTokenAccountsResult{Value: m.accounts}, nil
}

func (m *mockClient) GetAccountInfo(ctx context.Context, account solana.PublicKey) (*rpc.GetAccountInfoResult, error) {
	if m.existing[account] {
		return &rpc.GetAccountInfoResult{Value: &rpc.Account{Lamports: 2039280}}, nil
	}
	return nil, rpc.ErrNotFound
}

func (m *mockClient) GetLatestBlockhash(ctx context.Context, commitment rpc.CommitmentType) (*rpc.GetLatestBlockhashResult, error) {
	return &rpc.GetLatestBlockhashResult{Value: &rpc.LatestBlockhashResult{
		Blockhash:            solana.Hash{7},
		LastValidBlockHeight: 100,
	}}, nil
}

func tokenAccount(t *testing.T, address solana.PublicKey, mint solana.PublicKey, amount string, decimals int) *rpc.TokenAccount {
	raw := fmt.Sprintf(`{"program":"spl-token","parsed":{"type":"account","info":{"mint":"%v","owner":"%v","tokenAmount":{"amount":"%v","decimals":%d}}},"space":165}`,
		mint, owner, amount, decimals)
	var data rpc.DataBytesOrJSON
	require.NoError(t, json.Unmarshal([]byte(raw), &data))
	return &rpc.TokenAccount{Pubkey: address, Account: rpc.Account{Data: &data}}
}

func TestStorage_GetHoldingsByOwner(t *testing.T) {
	first := solana.NewWallet().PublicKey()
	second := solana.NewWallet().PublicKey()
	client := &mockClient{accounts: []*rpc.TokenAccount{
		tokenAccount(t, first, usdc, "1500000", 6),
		tokenAccount(t, second, usdc, "0", 6),
	}}
	storage := NewStorage(zap.NewNop(), client)

	holdings, err := storage.GetHoldingsByOwner(context.Background(), owner)
	require.NoError(t, err)
	require.Equal(t, []core.Holding{
		{Account: first, Mint: usdc, RawAmount: 1_500_000, Decimals: 6},
		{Account: second, Mint: usdc, RawAmount: 0, Decimals: 6},
	}, holdings)
	require.Equal(t, "1.5", holdings[0].DisplayAmount().String())
}

func TestStorage_GetHoldingsByOwner_rejectsOverflow(t *testing.T) {
	client := &mockClient{accounts: []*rpc.TokenAccount{
		tokenAccount(t, solana.NewWallet().PublicKey(), usdc, "18446744073709551616", 6),
	}}
	_, err := NewStorage(zap.NewNop(), client).GetHoldingsByOwner(context.Background(), owner)
	require.Error(t, err)
}

func TestStorage_AccountExists(t *testing.T) {
	existing := solana.NewWallet().PublicKey()
	storage := NewStorage(zap.NewNop(), &mockClient{existing: map[solana.PublicKey]bool{existing: true}})

	ok, err := storage.AccountExists(context.Background(), existing)
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = storage.AccountExists(context.Background(), solana.NewWallet().PublicKey())
	require.NoError(t, err)
	require.False(t, ok)
}

func TestStorage_GetLatestBlockhash(t *testing.T) {
	hash, lastValid, err := NewStorage(zap.NewNop(), &mockClient{}).GetLatestBlockhash(context.Background())
	require.NoError(t, err)
	require.Equal(t, solana.Hash{7}, hash)
	require.Equal(t, uint64(100), lastValid)
}
