package api

import (
	"github.com/gagliardetto/solana-go"
	"github.com/go-faster/errors"

	"github.com/arnac-io/tokensweep/pkg/core"
	"github.com/arnac-io/tokensweep/pkg/sweep"
)

// convertPlan applies asset-wide choices first so that per-account choices override them.
func convertPlan(req BuildRequest, holdings []core.Holding) (sweep.Plan, error) {
	plan := sweep.Plan{
		Choices:        make(map[solana.PublicKey]sweep.Choice, len(req.Choices)),
		AutoCloseEmpty: req.AutoCloseEmpty,
		SweepNative:    req.SweepNative,
	}
	for mint, choice := range req.AssetChoices {
		pk, err := solana.PublicKeyFromBase58(mint)
		if err != nil {
			return sweep.Plan{}, errors.Wrapf(err, "invalid mint %q", mint)
		}
		plan.ApplyToAsset(pk, choice, holdings)
	}
	for account, choice := range req.Choices {
		pk, err := solana.PublicKeyFromBase58(account)
		if err != nil {
			return sweep.Plan{}, errors.Wrapf(err, "invalid account %q", account)
		}
		plan.Choices[pk] = choice
	}
	return plan, nil
}
