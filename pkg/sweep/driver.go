package sweep

import (
	"context"

	"github.com/gagliardetto/solana-go"
	"github.com/go-faster/errors"
	"go.uber.org/zap"

	"github.com/arnac-io/tokensweep/pkg/core"
	"github.com/arnac-io/tokensweep/pkg/sentry"
)

// Signer signs a transaction on the user's device. The key never reaches this process.
type Signer interface {
	Sign(ctx context.Context, tx *solana.Transaction) (*solana.Transaction, error)
}

type blockhashSource interface {
	// GetLatestBlockhash returns a recent blockhash and the last block height it is valid for.
	GetLatestBlockhash(ctx context.Context) (solana.Hash, uint64, error)
}

type txSender interface {
	SendTransaction(ctx context.Context, tx *solana.Transaction) (solana.Signature, error)
	AwaitConfirmation(ctx context.Context, signature solana.Signature) error
}

// Prepared is an unsigned transaction ready to be handed to a signer.
type Prepared struct {
	Transaction          *solana.Transaction
	Blockhash            solana.Hash
	LastValidBlockHeight uint64
}

// Driver hands a built batch to a signer and then to the ledger.
// A failed submission is never retried: the caller has to build a new batch.
type Driver struct {
	logger    *zap.Logger
	blockhash blockhashSource
	sender    txSender
}

func NewDriver(logger *zap.Logger, blockhash blockhashSource, sender txSender) *Driver {
	return &Driver{
		logger:    logger,
		blockhash: blockhash,
		sender:    sender,
	}
}

// Prepare binds the batch to a fresh blockhash.
func (d *Driver) Prepare(ctx context.Context, batch *core.Batch) (*Prepared, error) {
	hash, lastValid, err := d.blockhash.GetLatestBlockhash(ctx)
	if err != nil {
		return nil, errors.Wrap(core.ErrDependencyUnavailable, "latest blockhash: "+err.Error())
	}
	tx, err := batch.Transaction(hash)
	if err != nil {
		return nil, err
	}
	return &Prepared{
		Transaction:          tx,
		Blockhash:            hash,
		LastValidBlockHeight: lastValid,
	}, nil
}

// Broadcast transmits a signed transaction and waits until it is confirmed.
func (d *Driver) Broadcast(ctx context.Context, tx *solana.Transaction) (solana.Signature, error) {
	if err := tx.VerifySignatures(); err != nil {
		return solana.Signature{}, errors.Wrap(core.ErrValidation, "signatures: "+err.Error())
	}
	signature, err := d.sender.SendTransaction(ctx, tx)
	if err != nil {
		d.reportFailure("send transaction", tx, err)
		return solana.Signature{}, errors.Wrap(core.ErrSubmissionFailed, err.Error())
	}
	if err := d.sender.AwaitConfirmation(ctx, signature); err != nil {
		d.reportFailure("await confirmation", tx, err)
		return signature, errors.Wrap(core.ErrSubmissionFailed, err.Error())
	}
	d.logger.Info("batch confirmed", zap.Stringer("signature", signature))
	return signature, nil
}

// Submit runs the whole flow: prepare, sign, broadcast.
func (d *Driver) Submit(ctx context.Context, batch *core.Batch, signer Signer) (solana.Signature, error) {
	prepared, err := d.Prepare(ctx, batch)
	if err != nil {
		return solana.Signature{}, err
	}
	signed, err := signer.Sign(ctx, prepared.Transaction)
	if err != nil {
		d.logger.Warn("signer rejected batch", zap.Error(err))
		return solana.Signature{}, errors.Wrap(core.ErrSignerRejected, err.Error())
	}
	if signed == nil {
		return solana.Signature{}, core.ErrSignerRejected
	}
	return d.Broadcast(ctx, signed)
}

func (d *Driver) reportFailure(stage string, tx *solana.Transaction, err error) {
	d.logger.Error("submission failed", zap.String("stage", stage), zap.Error(err))
	var signature string
	if len(tx.Signatures) > 0 {
		signature = tx.Signatures[0].String()
	}
	sentry.Send("submission failed", sentry.SentryInfoData{
		"stage":     stage,
		"signature": signature,
		"error":     err.Error(),
	}, sentry.LevelError)
}
