package wallet

import (
	"math/big"
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/require"

	"github.com/arnac-io/tokensweep/pkg/core"
)

func TestExtractRisk(t *testing.T) {
	owner := solana.NewWallet().PublicKey()
	recipient := solana.NewWallet().PublicKey()
	mintA := solana.NewWallet().PublicKey()
	mintB := solana.NewWallet().PublicKey()
	accountA1 := solana.NewWallet().PublicKey()
	accountA2 := solana.NewWallet().PublicKey()
	accountB := solana.NewWallet().PublicKey()
	receiving := solana.NewWallet().PublicKey()

	tests := []struct {
		name        string
		batch       *core.Batch
		lamports    uint64
		transferred map[solana.PublicKey]string
		burned      map[solana.PublicKey]string
		closed      []solana.PublicKey
		deposits    []solana.PublicKey
		created     int
	}{
		{
			name:        "empty batch",
			batch:       &core.Batch{FeePayer: owner},
			transferred: map[solana.PublicKey]string{},
			burned:      map[solana.PublicKey]string{},
		},
		{
			name: "sweep",
			batch: &core.Batch{
				FeePayer: owner,
				Operations: []core.Operation{
					{Kind: core.OpNativeTransfer, Account: owner, Destination: recipient, Amount: 92_000},
					{Kind: core.OpCreateReceivingAccount, Account: receiving, Mint: mintA, Destination: recipient},
					{Kind: core.OpTransfer, Account: accountA1, Mint: mintA, Destination: receiving, Amount: 18_000_000_000_000_000_000},
					{Kind: core.OpClose, Account: accountA1, Mint: mintA, Destination: recipient},
					{Kind: core.OpTransfer, Account: accountA2, Mint: mintA, Destination: receiving, Amount: 1_000_000_000_000_000_000},
					{Kind: core.OpClose, Account: accountA2, Mint: mintA, Destination: recipient},
					{Kind: core.OpDestroy, Account: accountB, Mint: mintB, Amount: 42},
					{Kind: core.OpClose, Account: accountB, Mint: mintB, Destination: owner},
				},
			},
			lamports:    92_000,
			transferred: map[solana.PublicKey]string{mintA: "19000000000000000000"},
			burned:      map[solana.PublicKey]string{mintB: "42"},
			closed:      []solana.PublicKey{accountA1, accountA2, accountB},
			deposits:    []solana.PublicKey{recipient, owner},
			created:     1,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			risk := ExtractRisk(tt.batch)
			require.Equal(t, tt.lamports, risk.Lamports)
			require.Equal(t, tt.transferred, amounts(risk.Transferred))
			require.Equal(t, tt.burned, amounts(risk.Burned))
			require.Equal(t, tt.closed, risk.ClosedAccounts)
			require.Equal(t, tt.deposits, risk.DepositDestinations)
			require.Equal(t, tt.created, risk.CreatedAccounts)
		})
	}
}

func amounts(m map[solana.PublicKey]big.Int) map[solana.PublicKey]string {
	res := make(map[solana.PublicKey]string, len(m))
	for k, v := range m {
		res[k] = v.String()
	}
	return res
}
