package api

import (
	"time"

	"github.com/arnac-io/tokensweep/pkg/sweep"
)

type Holding struct {
	Account   string   `json:"account"`
	Mint      string   `json:"mint"`
	RawAmount string   `json:"raw_amount"`
	Decimals  uint8    `json:"decimals"`
	Amount    string   `json:"amount"`
	Name      string   `json:"name,omitempty"`
	Symbol    string   `json:"symbol,omitempty"`
	Image     string   `json:"image,omitempty"`
	Price     *float64 `json:"price,omitempty"`
	Value     *string  `json:"value,omitempty"`
}

type NativeBalance struct {
	Lamports string   `json:"lamports"`
	Amount   string   `json:"amount"`
	Price    *float64 `json:"price,omitempty"`
	Value    *string  `json:"value,omitempty"`
}

type HoldingsResponse struct {
	Owner     string        `json:"owner"`
	Native    NativeBalance `json:"native"`
	Holdings  []Holding     `json:"holdings"`
	FetchedAt time.Time     `json:"fetched_at"`
}

type BuildRequest struct {
	Owner          string                  `json:"owner"`
	ValueRecipient string                  `json:"value_recipient"`
	AssetRecipient string                  `json:"asset_recipient"`
	AutoCloseEmpty bool                    `json:"auto_close_empty"`
	SweepNative    bool                    `json:"sweep_native"`
	Choices        map[string]sweep.Choice `json:"choices"`
	AssetChoices   map[string]sweep.Choice `json:"asset_choices"`
}

type Operation struct {
	Kind        string `json:"kind"`
	Account     string `json:"account"`
	Mint        string `json:"mint,omitempty"`
	Destination string `json:"destination,omitempty"`
	Amount      string `json:"amount,omitempty"`
	Description string `json:"description"`
}

type Risk struct {
	Lamports            string            `json:"lamports"`
	Transferred         map[string]string `json:"transferred"`
	Burned              map[string]string `json:"burned"`
	ClosedAccounts      []string          `json:"closed_accounts"`
	DepositDestinations []string          `json:"deposit_destinations"`
	CreatedAccounts     int               `json:"created_accounts"`
}

type BuildResponse struct {
	Transaction          string      `json:"transaction"`
	Blockhash            string      `json:"blockhash"`
	LastValidBlockHeight uint64      `json:"last_valid_block_height"`
	Operations           []Operation `json:"operations"`
	Warnings             []string    `json:"warnings"`
	Risk                 Risk        `json:"risk"`
}

type SendRequest struct {
	Transaction string `json:"transaction"`
}

type SendResponse struct {
	Signature string `json:"signature"`
}

type errorJSON struct {
	Error string `json:"error"`
}
