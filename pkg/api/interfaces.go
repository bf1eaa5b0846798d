package api

import (
	"context"

	"github.com/gagliardetto/solana-go"

	"github.com/arnac-io/tokensweep/pkg/core"
	"github.com/arnac-io/tokensweep/pkg/sweep"
)

// snapshotter provides fresh views of a wallet.
type snapshotter interface {
	// Refresh reads balances from the ledger. It is used right before building a batch.
	Refresh(ctx context.Context, owner solana.PublicKey) (core.Snapshot, error)
	// Overview additionally resolves prices and metadata for display.
	Overview(ctx context.Context, owner solana.PublicKey) (*sweep.Overview, error)
}

type batchBuilder interface {
	Build(ctx context.Context, req sweep.BuildRequest) (*core.Batch, error)
}

// submissionDriver binds batches to a blockhash and broadcasts transactions signed by the user.
type submissionDriver interface {
	Prepare(ctx context.Context, batch *core.Batch) (*sweep.Prepared, error)
	Broadcast(ctx context.Context, tx *solana.Transaction) (solana.Signature, error)
}
