package api

import (
	"fmt"
	"math/big"

	"github.com/gagliardetto/solana-go"
	"github.com/shopspring/decimal"

	"github.com/arnac-io/tokensweep/internal/g"
	"github.com/arnac-io/tokensweep/pkg/api/i18n"
	"github.com/arnac-io/tokensweep/pkg/core"
	"github.com/arnac-io/tokensweep/pkg/sweep"
	"github.com/arnac-io/tokensweep/pkg/wallet"
)

func convertHoldings(overview *sweep.Overview) HoldingsResponse {
	snapshot := overview.Snapshot
	res := HoldingsResponse{
		Owner: snapshot.Owner.String(),
		Native: NativeBalance{
			Lamports: fmt.Sprintf("%d", snapshot.NativeBalance),
			Amount:   snapshot.NativeDisplayAmount().String(),
		},
		Holdings:  make([]Holding, 0, len(snapshot.Holdings)),
		FetchedAt: snapshot.FetchedAt,
	}
	if price, ok := overview.Prices.Get(core.NativeAsset); ok {
		res.Native.Price = g.Pointer(price)
		res.Native.Value = g.Pointer(usdValue(snapshot.NativeDisplayAmount(), price))
	}
	for _, h := range snapshot.Holdings {
		mint := h.Mint.String()
		meta := overview.Metadata[mint]
		holding := Holding{
			Account:   h.Account.String(),
			Mint:      mint,
			RawAmount: fmt.Sprintf("%d", h.RawAmount),
			Decimals:  h.Decimals,
			Amount:    h.DisplayAmount().String(),
			Name:      meta.Name,
			Symbol:    meta.Symbol,
			Image:     meta.Image,
		}
		if price, ok := overview.Prices.Get(mint); ok {
			holding.Price = g.Pointer(price)
			holding.Value = g.Pointer(usdValue(h.DisplayAmount(), price))
		}
		res.Holdings = append(res.Holdings, holding)
	}
	return res
}

func usdValue(amount decimal.Decimal, price float64) string {
	return i18n.FormatUSD(amount.Mul(decimal.NewFromFloat(price)))
}

// convertOperations renders operations with a description in the requested language.
func convertOperations(batch *core.Batch, holdings []core.Holding, lang string) []Operation {
	decimals := make(map[solana.PublicKey]uint8, len(holdings))
	for _, h := range holdings {
		decimals[h.Mint] = h.Decimals
	}
	res := make([]Operation, 0, len(batch.Operations))
	for _, op := range batch.Operations {
		o := Operation{
			Kind:    string(op.Kind),
			Account: op.Account.String(),
		}
		if !op.Mint.IsZero() {
			o.Mint = op.Mint.String()
		}
		if !op.Destination.IsZero() {
			o.Destination = op.Destination.String()
		}
		if op.Amount > 0 {
			o.Amount = fmt.Sprintf("%d", op.Amount)
		}
		var amount string
		if op.Kind == core.OpNativeTransfer {
			amount = i18n.FormatSOL(op.Amount)
		} else {
			amount = i18n.FormatTokens(*new(big.Int).SetUint64(op.Amount), int32(decimals[op.Mint]), shortAddress(op.Mint))
		}
		o.Description = i18n.T(lang, i18n.C{
			MessageID: descriptionID(op.Kind),
			TemplateData: i18n.Template{
				"Amount":      amount,
				"Asset":       shortAddress(op.Mint),
				"Account":     shortAddress(op.Account),
				"Destination": shortAddress(op.Destination),
			},
		})
		res = append(res, o)
	}
	return res
}

func descriptionID(kind core.OperationKind) string {
	switch kind {
	case core.OpNativeTransfer:
		return "nativeTransfer"
	case core.OpCreateReceivingAccount:
		return "createReceivingAccount"
	}
	return string(kind)
}

func convertRisk(risk *wallet.Risk) Risk {
	res := Risk{
		Lamports:            fmt.Sprintf("%d", risk.Lamports),
		Transferred:         make(map[string]string, len(risk.Transferred)),
		Burned:              make(map[string]string, len(risk.Burned)),
		ClosedAccounts:      make([]string, 0, len(risk.ClosedAccounts)),
		DepositDestinations: make([]string, 0, len(risk.DepositDestinations)),
		CreatedAccounts:     risk.CreatedAccounts,
	}
	for mint, amount := range risk.Transferred {
		res.Transferred[mint.String()] = amount.String()
	}
	for mint, amount := range risk.Burned {
		res.Burned[mint.String()] = amount.String()
	}
	for _, account := range risk.ClosedAccounts {
		res.ClosedAccounts = append(res.ClosedAccounts, account.String())
	}
	for _, account := range risk.DepositDestinations {
		res.DepositDestinations = append(res.DepositDestinations, account.String())
	}
	return res
}

// shortAddress renders an address as its first and last four characters.
func shortAddress(pk solana.PublicKey) string {
	s := pk.String()
	if len(s) <= 10 {
		return s
	}
	return s[:4] + "…" + s[len(s)-4:]
}
