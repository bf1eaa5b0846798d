package sweep

import (
	"context"
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/go-faster/errors"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/arnac-io/tokensweep/pkg/core"
)

type mockBlockhash struct {
	err error
}

func (m *mockBlockhash) GetLatestBlockhash(ctx context.Context) (solana.Hash, uint64, error) {
	if m.err != nil {
		return solana.Hash{}, 0, m.err
	}
	return solana.Hash{9}, 1234, nil
}

type mockSender struct {
	sendErr    error
	confirmErr error
	sent       int
}

func (m *mockSender) SendTransaction(ctx context.Context, tx *solana.Transaction) (solana.Signature, error) {
	m.sent++
	if m.sendErr != nil {
		return solana.Signature{}, m.sendErr
	}
	return tx.Signatures[0], nil
}

func (m *mockSender) AwaitConfirmation(ctx context.Context, signature solana.Signature) error {
	return m.confirmErr
}

type walletSigner struct {
	wallet *solana.Wallet
	err    error
}

func (s *walletSigner) Sign(ctx context.Context, tx *solana.Transaction) (*solana.Transaction, error) {
	if s.err != nil {
		return nil, s.err
	}
	_, err := tx.Sign(func(key solana.PublicKey) *solana.PrivateKey {
		if key.Equals(s.wallet.PublicKey()) {
			return &s.wallet.PrivateKey
		}
		return nil
	})
	return tx, err
}

func testBatch(owner solana.PublicKey) *core.Batch {
	return &core.Batch{
		FeePayer: owner,
		Operations: []core.Operation{
			{Kind: core.OpNativeTransfer, Account: owner, Destination: solana.NewWallet().PublicKey(), Amount: 1000},
		},
	}
}

func TestDriver_Submit(t *testing.T) {
	wallet := solana.NewWallet()
	signErr := errors.New("user declined")

	tests := []struct {
		name      string
		blockhash *mockBlockhash
		sender    *mockSender
		signer    Signer
		wantErr   error
		wantSent  int
	}{
		{
			name:      "confirmed",
			blockhash: &mockBlockhash{},
			sender:    &mockSender{},
			signer:    &walletSigner{wallet: wallet},
			wantSent:  1,
		},
		{
			name:      "blockhash unavailable",
			blockhash: &mockBlockhash{err: errors.New("rpc down")},
			sender:    &mockSender{},
			signer:    &walletSigner{wallet: wallet},
			wantErr:   core.ErrDependencyUnavailable,
		},
		{
			name:      "signer rejects",
			blockhash: &mockBlockhash{},
			sender:    &mockSender{},
			signer:    &walletSigner{wallet: wallet, err: signErr},
			wantErr:   core.ErrSignerRejected,
		},
		{
			name:      "signed by a different key",
			blockhash: &mockBlockhash{},
			sender:    &mockSender{},
			signer:    &walletSigner{wallet: solana.NewWallet()},
			wantErr:   core.ErrSignerRejected,
		},
		{
			name:      "send fails",
			blockhash: &mockBlockhash{},
			sender:    &mockSender{sendErr: errors.New("insufficient funds")},
			signer:    &walletSigner{wallet: wallet},
			wantErr:   core.ErrSubmissionFailed,
			wantSent:  1,
		},
		{
			name:      "not confirmed",
			blockhash: &mockBlockhash{},
			sender:    &mockSender{confirmErr: errors.New("expired")},
			signer:    &walletSigner{wallet: wallet},
			wantErr:   core.ErrSubmissionFailed,
			wantSent:  1,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			driver := NewDriver(zap.NewNop(), tt.blockhash, tt.sender)
			sig, err := driver.Submit(context.Background(), testBatch(wallet.PublicKey()), tt.signer)
			require.Equal(t, tt.wantSent, tt.sender.sent)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			require.NotEqual(t, solana.Signature{}, sig)
		})
	}
}

func TestDriver_Prepare(t *testing.T) {
	wallet := solana.NewWallet()
	driver := NewDriver(zap.NewNop(), &mockBlockhash{}, &mockSender{})

	prepared, err := driver.Prepare(context.Background(), testBatch(wallet.PublicKey()))
	require.NoError(t, err)
	require.Equal(t, solana.Hash{9}, prepared.Blockhash)
	require.Equal(t, uint64(1234), prepared.LastValidBlockHeight)
	require.Equal(t, solana.Hash{9}, prepared.Transaction.Message.RecentBlockhash)
	require.Empty(t, prepared.Transaction.Signatures)
}

func TestDriver_Broadcast_unsigned(t *testing.T) {
	wallet := solana.NewWallet()
	sender := &mockSender{}
	driver := NewDriver(zap.NewNop(), &mockBlockhash{}, sender)

	prepared, err := driver.Prepare(context.Background(), testBatch(wallet.PublicKey()))
	require.NoError(t, err)
	_, err = driver.Broadcast(context.Background(), prepared.Transaction)
	require.ErrorIs(t, err, core.ErrValidation)
	require.Zero(t, sender.sent)
}
