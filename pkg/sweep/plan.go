package sweep

import (
	"fmt"

	"github.com/gagliardetto/solana-go"

	"github.com/arnac-io/tokensweep/pkg/core"
)

// Choice is what the user asked to do with a single token account.
type Choice struct {
	Transfer bool `json:"transfer"`
	Destroy  bool `json:"destroy"`
	Close    bool `json:"close"`
}

// Plan collects per-account choices and global toggles for one build.
type Plan struct {
	// Choices are keyed by token account address.
	Choices map[solana.PublicKey]Choice
	// AutoCloseEmpty closes every empty token account even without an explicit choice.
	AutoCloseEmpty bool
	// SweepNative moves the remaining native balance to the value recipient.
	SweepNative bool
}

// ApplyToAsset sets the same choice for every account holding the given mint.
func (p *Plan) ApplyToAsset(mint solana.PublicKey, choice Choice, holdings []core.Holding) {
	if p.Choices == nil {
		p.Choices = make(map[solana.PublicKey]Choice)
	}
	for _, h := range holdings {
		if h.Mint.Equals(mint) {
			p.Choices[h.Account] = choice
		}
	}
}

// Action is the normalized action for a single holding.
type Action struct {
	Transfer bool
	Destroy  bool
	Close    bool
	Warnings []string
}

// IsNoop reports whether the action produces no operations.
func (a Action) IsNoop() bool {
	return !a.Transfer && !a.Destroy && !a.Close
}

// EffectiveAction derives what is actually going to happen to a holding.
// Transfer and destroy are mutually exclusive, destroy wins.
// A non-empty account can only be closed after it has been emptied.
func EffectiveAction(h core.Holding, choice Choice, autoCloseEmpty bool) Action {
	if h.IsEmpty() {
		return Action{Close: choice.Close || autoCloseEmpty}
	}
	action := Action{
		Destroy:  choice.Destroy,
		Transfer: choice.Transfer,
		Close:    choice.Close || autoCloseEmpty,
	}
	if action.Destroy && action.Transfer {
		action.Transfer = false
		action.Warnings = append(action.Warnings,
			fmt.Sprintf("transfer ignored: destroy requested for %v", h.Account))
	}
	if action.Close && !action.Destroy && !action.Transfer {
		action.Close = false
		if choice.Close {
			action.Warnings = append(action.Warnings,
				fmt.Sprintf("close skipped: %v is not empty and nothing moves its balance", h.Account))
		}
	}
	return action
}

// Actions normalizes the plan against every holding of a snapshot, in snapshot order.
func (p Plan) Actions(holdings []core.Holding) []Action {
	actions := make([]Action, len(holdings))
	for i, h := range holdings {
		actions[i] = EffectiveAction(h, p.Choices[h.Account], p.AutoCloseEmpty)
	}
	return actions
}
