package blockchain

import (
	"context"
	"testing"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
	"github.com/go-faster/errors"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type mockRPC struct {
	sendErr  error
	statuses []*rpc.SignatureStatusesResult
	calls    int
}

func (m *mockRPC) SendTransactionWithOpts(ctx context.Context, tx *solana.Transaction, opts rpc.TransactionOpts) (solana.Signature, error) {
	if m.sendErr != nil {
		return solana.Signature{}, m.sendErr
	}
	return solana.Signature{1, 2, 3}, nil
}

func (m *mockRPC) GetSignatureStatuses(ctx context.Context, searchHistory bool, sigs ...solana.Signature) (*rpc.GetSignatureStatusesResult, error) {
	idx := m.calls
	m.calls++
	if idx >= len(m.statuses) {
		idx = len(m.statuses) - 1
	}
	return &rpc.GetSignatureStatusesResult{Value: []*rpc.SignatureStatusesResult{m.statuses[idx]}}, nil
}

func TestTxSender_AwaitConfirmation(t *testing.T) {
	tests := []struct {
		name      string
		statuses  []*rpc.SignatureStatusesResult
		wantErr   bool
		wantCalls int
	}{
		{
			name: "confirmed after pending",
			statuses: []*rpc.SignatureStatusesResult{
				nil,
				{ConfirmationStatus: rpc.ConfirmationStatusProcessed},
				{ConfirmationStatus: rpc.ConfirmationStatusConfirmed},
			},
			wantCalls: 3,
		},
		{
			name: "finalized right away",
			statuses: []*rpc.SignatureStatusesResult{
				{ConfirmationStatus: rpc.ConfirmationStatusFinalized},
			},
			wantCalls: 1,
		},
		{
			name: "failed on chain stops polling",
			statuses: []*rpc.SignatureStatusesResult{
				{ConfirmationStatus: rpc.ConfirmationStatusConfirmed, Err: map[string]any{"InstructionError": []any{2, "Custom"}}},
			},
			wantErr:   true,
			wantCalls: 1,
		},
		{
			name:      "never confirmed",
			statuses:  []*rpc.SignatureStatusesResult{nil},
			wantErr:   true,
			wantCalls: 4,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := &mockRPC{statuses: tt.statuses}
			sender := NewTxSender(zap.NewNop(), client, 4, time.Millisecond)
			err := sender.AwaitConfirmation(context.Background(), solana.Signature{1})
			if tt.wantErr {
				require.Error(t, err)
			} else {
				require.NoError(t, err)
			}
			require.Equal(t, tt.wantCalls, client.calls)
		})
	}
}

func TestTxSender_SendTransaction(t *testing.T) {
	sender := NewTxSender(zap.NewNop(), &mockRPC{sendErr: errors.New("blockhash not found")}, 1, time.Millisecond)
	_, err := sender.SendTransaction(context.Background(), &solana.Transaction{})
	require.ErrorContains(t, err, "blockhash not found")

	sender = NewTxSender(zap.NewNop(), &mockRPC{}, 1, time.Millisecond)
	sig, err := sender.SendTransaction(context.Background(), &solana.Transaction{})
	require.NoError(t, err)
	require.Equal(t, solana.Signature{1, 2, 3}, sig)
}
