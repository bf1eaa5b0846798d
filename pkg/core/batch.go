package core

import (
	"github.com/gagliardetto/solana-go"
	associatedtokenaccount "github.com/gagliardetto/solana-go/programs/associated-token-account"
	"github.com/gagliardetto/solana-go/programs/system"
	"github.com/gagliardetto/solana-go/programs/token"
	"github.com/go-faster/errors"
)

type OperationKind string

const (
	OpNativeTransfer         OperationKind = "native_transfer"
	OpCreateReceivingAccount OperationKind = "create_receiving_account"
	OpTransfer               OperationKind = "transfer"
	OpDestroy                OperationKind = "destroy"
	OpClose                  OperationKind = "close"
)

// Operation is a single ledger instruction of a Batch.
type Operation struct {
	Kind OperationKind
	// Account is the account the operation acts on:
	// the source of a transfer, the burned or closed token account,
	// the receiving account being created or the fee payer for a native transfer.
	Account solana.PublicKey
	// Mint is empty for native transfers.
	Mint solana.PublicKey
	// Destination receives the value moved by the operation.
	// For create_receiving_account it is the owner of the new account.
	Destination solana.PublicKey
	Amount      uint64
}

// Instruction converts the operation to a Solana instruction signed by authority.
func (op Operation) Instruction(authority solana.PublicKey) (solana.Instruction, error) {
	switch op.Kind {
	case OpNativeTransfer:
		return system.NewTransferInstruction(op.Amount, authority, op.Destination).Build(), nil
	case OpCreateReceivingAccount:
		return associatedtokenaccount.NewCreateInstruction(authority, op.Destination, op.Mint).Build(), nil
	case OpTransfer:
		return token.NewTransferInstruction(op.Amount, op.Account, op.Destination, authority, nil).Build(), nil
	case OpDestroy:
		return token.NewBurnInstruction(op.Amount, op.Account, op.Mint, authority, nil).Build(), nil
	case OpClose:
		return token.NewCloseAccountInstruction(op.Account, op.Destination, authority, nil).Build(), nil
	}
	return nil, errors.Errorf("unknown operation kind %q", op.Kind)
}

// Batch is an ordered list of operations executed atomically in one transaction.
type Batch struct {
	// FeePayer is the wallet owner. It pays fees and signs every operation.
	FeePayer   solana.PublicKey
	Operations []Operation
	// Warnings explain the adjustments made to the requested plan.
	Warnings []string
}

// Instructions converts the batch's operations to Solana instructions.
func (b *Batch) Instructions() ([]solana.Instruction, error) {
	instructions := make([]solana.Instruction, 0, len(b.Operations))
	for _, op := range b.Operations {
		inst, err := op.Instruction(b.FeePayer)
		if err != nil {
			return nil, err
		}
		instructions = append(instructions, inst)
	}
	return instructions, nil
}

// Transaction builds an unsigned transaction bound to the given blockhash.
func (b *Batch) Transaction(blockhash solana.Hash) (*solana.Transaction, error) {
	instructions, err := b.Instructions()
	if err != nil {
		return nil, err
	}
	tx, err := solana.NewTransaction(instructions, blockhash, solana.TransactionPayer(b.FeePayer))
	if err != nil {
		return nil, errors.Wrap(err, "new transaction")
	}
	return tx, nil
}

// OperationsOn returns indexes of operations touching the given account.
func (b *Batch) OperationsOn(account solana.PublicKey) []int {
	var idx []int
	for i, op := range b.Operations {
		if op.Account.Equals(account) || op.Destination.Equals(account) {
			idx = append(idx, i)
		}
	}
	return idx
}
