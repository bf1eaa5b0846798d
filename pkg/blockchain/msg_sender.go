package blockchain

import (
	"context"
	"fmt"
	"time"

	"github.com/avast/retry-go"
	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
	"github.com/go-faster/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"
)

var submissionsCounter = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "tx_sender_submissions_total",
	Help: "Transactions sent to the ledger grouped by outcome",
}, []string{"result"})

var errNotConfirmed = errors.New("not confirmed yet")

// rpcClient is a subset of rpc.Client used by TxSender.
type rpcClient interface {
	SendTransactionWithOpts(ctx context.Context, transaction *solana.Transaction, opts rpc.TransactionOpts) (solana.Signature, error)
	GetSignatureStatuses(ctx context.Context, searchTransactionHistory bool, transactionSignatures ...solana.Signature) (*rpc.GetSignatureStatusesResult, error)
}

// TxSender provides methods to send a transaction to the blockchain and wait for its confirmation.
type TxSender struct {
	logger *zap.Logger
	client rpcClient
	// attempts and delay bound confirmation polling.
	attempts uint
	delay    time.Duration
}

func NewTxSender(logger *zap.Logger, client rpcClient, attempts uint, delay time.Duration) *TxSender {
	if attempts == 0 {
		attempts = 30
	}
	if delay == 0 {
		delay = time.Second
	}
	return &TxSender{
		logger:   logger,
		client:   client,
		attempts: attempts,
		delay:    delay,
	}
}

// SendTransaction sends the given signed transaction with preflight checks enabled.
func (s *TxSender) SendTransaction(ctx context.Context, tx *solana.Transaction) (solana.Signature, error) {
	signature, err := s.client.SendTransactionWithOpts(ctx, tx, rpc.TransactionOpts{
		SkipPreflight:       false,
		PreflightCommitment: rpc.CommitmentConfirmed,
	})
	if err != nil {
		submissionsCounter.WithLabelValues("rejected").Inc()
		return solana.Signature{}, errors.Wrap(err, "send transaction")
	}
	s.logger.Info("transaction sent", zap.Stringer("signature", signature))
	return signature, nil
}

// AwaitConfirmation polls the signature status until the transaction is confirmed,
// fails on-chain or the polling attempts are exhausted.
func (s *TxSender) AwaitConfirmation(ctx context.Context, signature solana.Signature) error {
	var failure error
	err := retry.Do(func() error {
		res, err := s.client.GetSignatureStatuses(ctx, false, signature)
		if err != nil {
			s.logger.Warn("signature status", zap.Stringer("signature", signature), zap.Error(err))
			return errNotConfirmed
		}
		if res == nil || len(res.Value) == 0 || res.Value[0] == nil {
			return errNotConfirmed
		}
		status := res.Value[0]
		if status.Err != nil {
			failure = fmt.Errorf("transaction %v failed: %v", signature, status.Err)
			return failure
		}
		switch status.ConfirmationStatus {
		case rpc.ConfirmationStatusConfirmed, rpc.ConfirmationStatusFinalized:
			return nil
		}
		return errNotConfirmed
	},
		retry.Context(ctx),
		retry.RetryIf(func(err error) bool {
			return errors.Is(err, errNotConfirmed)
		}),
		retry.Attempts(s.attempts),
		retry.Delay(s.delay),
		retry.DelayType(retry.FixedDelay),
		retry.LastErrorOnly(true),
	)
	switch {
	case failure != nil:
		submissionsCounter.WithLabelValues("failed").Inc()
		return failure
	case err != nil:
		submissionsCounter.WithLabelValues("expired").Inc()
		return errors.Wrapf(err, "await %v", signature)
	}
	submissionsCounter.WithLabelValues("confirmed").Inc()
	return nil
}
