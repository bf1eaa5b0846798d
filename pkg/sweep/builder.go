package sweep

import (
	"context"
	"fmt"

	"github.com/gagliardetto/solana-go"
	"github.com/go-faster/errors"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/arnac-io/tokensweep/pkg/core"
)

const (
	// DefaultFeeBuffer is kept on the fee payer to cover the batch's own fee.
	DefaultFeeBuffer = 10_000
	// DefaultMaxOperations is a practical limit of instructions in one legacy transaction.
	DefaultMaxOperations = 20
)

// accountChecker tells whether an account exists on the ledger.
type accountChecker interface {
	AccountExists(ctx context.Context, account solana.PublicKey) (bool, error)
}

// Builder assembles a Batch out of a snapshot and a plan.
// It holds no state between calls and can be used concurrently.
type Builder struct {
	logger  *zap.Logger
	checker accountChecker
	// feeBuffer is reserved from the native balance when sweeping it.
	feeBuffer uint64
	// accountRent is reserved from the native balance for every receiving account the batch creates.
	accountRent   uint64
	maxOperations int
}

type Options struct {
	feeBuffer     uint64
	accountRent   uint64
	maxOperations int
}

type Option func(o *Options)

func WithFeeBuffer(lamports uint64) Option {
	return func(o *Options) {
		o.feeBuffer = lamports
	}
}

// WithAccountRent reserves lamports for every receiving account the batch creates,
// on top of the fee buffer. Zero leaves the native amount at balance minus fee buffer.
func WithAccountRent(lamports uint64) Option {
	return func(o *Options) {
		o.accountRent = lamports
	}
}

// WithMaxOperations limits the number of operations in a batch. Zero means no limit.
func WithMaxOperations(n int) Option {
	return func(o *Options) {
		o.maxOperations = n
	}
}

func NewBuilder(logger *zap.Logger, checker accountChecker, opts ...Option) *Builder {
	o := &Options{
		feeBuffer:     DefaultFeeBuffer,
		maxOperations: DefaultMaxOperations,
	}
	for i := range opts {
		opts[i](o)
	}
	return &Builder{
		logger:        logger,
		checker:       checker,
		feeBuffer:     o.feeBuffer,
		accountRent:   o.accountRent,
		maxOperations: o.maxOperations,
	}
}

// BuildRequest is the input of Builder.Build.
// Snapshot must be fetched right before the build.
type BuildRequest struct {
	Snapshot core.Snapshot
	Plan     Plan
	// ValueRecipient receives the native balance and the reclaimed deposits.
	ValueRecipient string
	// AssetRecipient owns the accounts receiving transferred tokens.
	AssetRecipient string
}

type receivingAccount struct {
	address solana.PublicKey
	exists  bool
}

// Build returns a batch of operations or an error. It never returns a partial batch.
//
// Operations are emitted in snapshot order:
// the native transfer first, then for each holding destroy or
// create-receiving-account + transfer, and close last.
func (b *Builder) Build(ctx context.Context, req BuildRequest) (*core.Batch, error) {
	valueRecipient, assetRecipient, err := parseRecipients(req.ValueRecipient, req.AssetRecipient)
	if err != nil {
		return nil, err
	}
	owner := req.Snapshot.Owner
	holdings := req.Snapshot.Holdings
	actions := req.Plan.Actions(holdings)

	var warnings []string
	actionable := false
	for _, action := range actions {
		warnings = append(warnings, action.Warnings...)
		if !action.IsNoop() {
			actionable = true
		}
	}
	sweepNative := req.Plan.SweepNative
	if sweepNative && valueRecipient.Equals(owner) {
		sweepNative = false
		warnings = append(warnings, "native transfer skipped: value recipient is the wallet itself")
	}
	if !actionable && !(sweepNative && req.Snapshot.NativeBalance > b.feeBuffer) {
		return nil, core.ErrEmptyBatch
	}

	receiving := make(map[int]solana.PublicKey)
	for i, h := range holdings {
		if !actions[i].Transfer {
			continue
		}
		ata, _, err := solana.FindAssociatedTokenAddress(assetRecipient, h.Mint)
		if err != nil {
			return nil, errors.Wrap(core.ErrValidation, fmt.Sprintf("derive receiving account for %v: %v", h.Mint, err))
		}
		if ata.Equals(h.Account) {
			return nil, errors.Wrap(core.ErrValidation, fmt.Sprintf("%v would transfer to itself", h.Account))
		}
		receiving[i] = ata
	}
	keepReceivingAccountsOpen(holdings, actions, receiving, &warnings)

	accounts, err := b.resolveReceivingAccounts(ctx, holdings, receiving)
	if err != nil {
		return nil, err
	}
	created := 0
	for _, acc := range accounts {
		if !acc.exists {
			created++
		}
	}

	batch := &core.Batch{FeePayer: owner, Warnings: warnings}
	if sweepNative {
		if amount := b.nativeSendAmount(req.Snapshot.NativeBalance, created); amount > 0 {
			batch.Operations = append(batch.Operations, core.Operation{
				Kind:        core.OpNativeTransfer,
				Account:     owner,
				Destination: valueRecipient,
				Amount:      amount,
			})
		}
	}

	createdInBatch := make(map[solana.PublicKey]struct{})
	for i, h := range holdings {
		action := actions[i]
		if h.IsEmpty() {
			if action.Close {
				batch.Operations = append(batch.Operations, closeOperation(h, valueRecipient))
			}
			continue
		}
		if action.Destroy {
			batch.Operations = append(batch.Operations, core.Operation{
				Kind:    core.OpDestroy,
				Account: h.Account,
				Mint:    h.Mint,
				Amount:  h.RawAmount,
			})
		}
		if action.Transfer {
			ata := receiving[i]
			_, alreadyCreated := createdInBatch[ata]
			if !accounts[ata].exists && !alreadyCreated {
				batch.Operations = append(batch.Operations, core.Operation{
					Kind:        core.OpCreateReceivingAccount,
					Account:     ata,
					Mint:        h.Mint,
					Destination: assetRecipient,
				})
				createdInBatch[ata] = struct{}{}
			}
			batch.Operations = append(batch.Operations, core.Operation{
				Kind:        core.OpTransfer,
				Account:     h.Account,
				Mint:        h.Mint,
				Destination: ata,
				Amount:      h.RawAmount,
			})
		}
		if action.Close {
			batch.Operations = append(batch.Operations, closeOperation(h, valueRecipient))
		}
	}

	if len(batch.Operations) == 0 {
		return nil, core.ErrEmptyBatch
	}
	if b.maxOperations > 0 && len(batch.Operations) > b.maxOperations {
		return nil, errors.Wrap(core.ErrTooManyOperations,
			fmt.Sprintf("%d operations, limit is %d", len(batch.Operations), b.maxOperations))
	}
	b.logger.Debug("batch built",
		zap.Stringer("owner", owner),
		zap.Int("operations", len(batch.Operations)),
		zap.Int("created_accounts", created),
		zap.Int("warnings", len(batch.Warnings)))
	return batch, nil
}

// resolveReceivingAccounts checks every distinct receiving account once, in holding order.
func (b *Builder) resolveReceivingAccounts(ctx context.Context, holdings []core.Holding, receiving map[int]solana.PublicKey) (map[solana.PublicKey]receivingAccount, error) {
	accounts := make(map[solana.PublicKey]receivingAccount, len(receiving))
	for i := range holdings {
		ata, ok := receiving[i]
		if !ok {
			continue
		}
		if _, ok := accounts[ata]; ok {
			continue
		}
		exists, err := b.checker.AccountExists(ctx, ata)
		if err != nil {
			return nil, errors.Wrap(core.ErrDependencyUnavailable, fmt.Sprintf("check receiving account %v: %v", ata, err))
		}
		accounts[ata] = receivingAccount{address: ata, exists: exists}
	}
	return accounts, nil
}

// keepReceivingAccountsOpen drops the close of every holding that receives tokens in the same batch.
// Such an account is non-empty once the transfer lands, or gone before it if closed first.
func keepReceivingAccountsOpen(holdings []core.Holding, actions []Action, receiving map[int]solana.PublicKey, warnings *[]string) {
	receivers := make(map[solana.PublicKey]struct{}, len(receiving))
	for _, ata := range receiving {
		receivers[ata] = struct{}{}
	}
	for i, h := range holdings {
		if _, ok := receivers[h.Account]; !ok || !actions[i].Close {
			continue
		}
		actions[i].Close = false
		*warnings = append(*warnings, fmt.Sprintf("close ignored: %v receives transferred tokens", h.Account))
	}
}

func (b *Builder) nativeSendAmount(balance uint64, createdAccounts int) uint64 {
	reserve := b.feeBuffer + b.accountRent*uint64(createdAccounts)
	if balance <= reserve {
		return 0
	}
	return balance - reserve
}

func closeOperation(h core.Holding, destination solana.PublicKey) core.Operation {
	return core.Operation{
		Kind:        core.OpClose,
		Account:     h.Account,
		Mint:        h.Mint,
		Destination: destination,
	}
}

func parseRecipients(value, asset string) (solana.PublicKey, solana.PublicKey, error) {
	valueRecipient, valueErr := solana.PublicKeyFromBase58(value)
	if valueErr != nil {
		valueErr = errors.Wrapf(valueErr, "value recipient %q", value)
	}
	assetRecipient, assetErr := solana.PublicKeyFromBase58(asset)
	if assetErr != nil {
		assetErr = errors.Wrapf(assetErr, "asset recipient %q", asset)
	}
	if err := multierr.Combine(valueErr, assetErr); err != nil {
		return solana.PublicKey{}, solana.PublicKey{}, errors.Wrap(core.ErrValidation, err.Error())
	}
	return valueRecipient, assetRecipient, nil
}
