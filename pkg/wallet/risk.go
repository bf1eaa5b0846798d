package wallet

import (
	"math/big"

	"github.com/gagliardetto/solana-go"

	"github.com/arnac-io/tokensweep/pkg/core"
)

// Risk specifies assets that leave the wallet if a batch is signed.
// It makes sense to show the risk BEFORE asking the user to sign.
type Risk struct {
	// Lamports sent away by native transfers. Rent of created accounts and fees are not included.
	Lamports uint64
	// Transferred and Burned are raw amounts per mint and have to be post-processed with respect to mint decimals.
	Transferred map[solana.PublicKey]big.Int
	Burned      map[solana.PublicKey]big.Int
	// ClosedAccounts are token accounts removed by the batch.
	ClosedAccounts []solana.PublicKey
	// DepositDestinations receive the deposits of closed accounts.
	DepositDestinations []solana.PublicKey
	CreatedAccounts     int
}

func ExtractRisk(batch *core.Batch) *Risk {
	risk := Risk{
		Transferred: map[solana.PublicKey]big.Int{},
		Burned:      map[solana.PublicKey]big.Int{},
	}
	for _, op := range batch.Operations {
		risk = ExtractRiskFromOperation(op, risk)
	}
	return &risk
}

func ExtractRiskFromOperation(op core.Operation, risk Risk) Risk {
	switch op.Kind {
	case core.OpNativeTransfer:
		risk.Lamports += op.Amount
	case core.OpTransfer:
		addAmount(risk.Transferred, op.Mint, op.Amount)
	case core.OpDestroy:
		addAmount(risk.Burned, op.Mint, op.Amount)
	case core.OpClose:
		risk.ClosedAccounts = append(risk.ClosedAccounts, op.Account)
		for _, dest := range risk.DepositDestinations {
			if dest.Equals(op.Destination) {
				return risk
			}
		}
		risk.DepositDestinations = append(risk.DepositDestinations, op.Destination)
	case core.OpCreateReceivingAccount:
		risk.CreatedAccounts++
	}
	return risk
}

func addAmount(amounts map[solana.PublicKey]big.Int, mint solana.PublicKey, amount uint64) {
	current := amounts[mint]
	var total big.Int
	amounts[mint] = *total.Add(&current, new(big.Int).SetUint64(amount))
}
