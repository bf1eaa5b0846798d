package core

import (
	"bytes"
	"math/big"
	"sort"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/shopspring/decimal"
)

// LamportsPerSol is the number of lamports in one SOL.
const LamportsPerSol = 1_000_000_000

// NativeDecimals is the number of fractional digits of the native currency.
const NativeDecimals = 9

// Holding is a balance of one asset kept in its own token account.
type Holding struct {
	// Account is the address of the token account.
	Account solana.PublicKey
	// Mint identifies the asset. Several holdings may share the same mint.
	Mint      solana.PublicKey
	RawAmount uint64
	Decimals  uint8
}

// DisplayAmount renders RawAmount with respect to Decimals.
func (h Holding) DisplayAmount() decimal.Decimal {
	return decimal.NewFromBigInt(new(big.Int).SetUint64(h.RawAmount), -int32(h.Decimals))
}

func (h Holding) IsEmpty() bool {
	return h.RawAmount == 0
}

// Snapshot is a view of a wallet's holdings taken at FetchedAt.
type Snapshot struct {
	Owner         solana.PublicKey
	NativeBalance uint64
	Holdings      []Holding
	FetchedAt     time.Time
}

// NativeDisplayAmount renders NativeBalance in SOL.
func (s Snapshot) NativeDisplayAmount() decimal.Decimal {
	return decimal.NewFromBigInt(new(big.Int).SetUint64(s.NativeBalance), -NativeDecimals)
}

// Mints returns unique mints of the snapshot's holdings in their order of appearance.
func (s Snapshot) Mints() []solana.PublicKey {
	seen := make(map[solana.PublicKey]struct{}, len(s.Holdings))
	mints := make([]solana.PublicKey, 0, len(s.Holdings))
	for _, h := range s.Holdings {
		if _, ok := seen[h.Mint]; ok {
			continue
		}
		seen[h.Mint] = struct{}{}
		mints = append(mints, h.Mint)
	}
	return mints
}

// SortHoldings orders holdings by display amount, largest first.
// Ties are broken by account address so the order is stable across refreshes.
func SortHoldings(holdings []Holding) {
	sort.SliceStable(holdings, func(i, j int) bool {
		cmp := holdings[i].DisplayAmount().Cmp(holdings[j].DisplayAmount())
		if cmp != 0 {
			return cmp > 0
		}
		return bytes.Compare(holdings[i].Account[:], holdings[j].Account[:]) < 0
	})
}
