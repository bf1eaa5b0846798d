package rpcstorage

import (
	"encoding/json"
	"strconv"

	"github.com/gagliardetto/solana-go"
	"github.com/go-faster/errors"

	"github.com/arnac-io/tokensweep/pkg/core"
)

// parsedTokenAccount is the jsonParsed representation of an SPL token account.
type parsedTokenAccount struct {
	Parsed struct {
		Type string `json:"type"`
		Info struct {
			Mint        string `json:"mint"`
			Owner       string `json:"owner"`
			TokenAmount struct {
				Amount   string `json:"amount"`
				Decimals uint8  `json:"decimals"`
			} `json:"tokenAmount"`
		} `json:"info"`
	} `json:"parsed"`
}

func parseTokenAccount(address solana.PublicKey, data []byte) (core.Holding, error) {
	if len(data) == 0 {
		return core.Holding{}, errors.New("account data is not jsonParsed")
	}
	var acc parsedTokenAccount
	if err := json.Unmarshal(data, &acc); err != nil {
		return core.Holding{}, errors.Wrap(err, "decode")
	}
	mint, err := solana.PublicKeyFromBase58(acc.Parsed.Info.Mint)
	if err != nil {
		return core.Holding{}, errors.Wrap(err, "mint")
	}
	amount, err := strconv.ParseUint(acc.Parsed.Info.TokenAmount.Amount, 10, 64)
	if err != nil {
		return core.Holding{}, errors.Wrap(err, "amount")
	}
	return core.Holding{
		Account:   address,
		Mint:      mint,
		RawAmount: amount,
		Decimals:  acc.Parsed.Info.TokenAmount.Decimals,
	}, nil
}
