// Package pipeline broadcasts fully-signed transactions and resolves them to
// a terminal outcome, and tracks the fee payer's balances for the health
// surface.
package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
	"github.com/rs/zerolog"

	"sol-relay/pkg/codec"
	"sol-relay/pkg/logging"
)

// State is the terminal state of a submission.
type State string

const (
	// StateSubmitted means the network entry point accepted the transaction
	// and confirmation is still pending.
	StateSubmitted State = "submitted"
	// StateConfirmed means the transaction reached the required commitment
	// level with no on-chain error.
	StateConfirmed State = "confirmed"
	// StateOnChainError means the transaction landed but its recorded
	// execution result is an error. Terminal; never retried.
	StateOnChainError State = "onchain_error"
	// StateTimeout means no confirmation arrived within the deadline. The
	// transaction may still land; callers re-query by signature instead of
	// resubmitting.
	StateTimeout State = "timeout"
)

// Outcome is the result of submitting a transaction. Signature is populated
// whenever the network handed one out, including on timeout.
type Outcome struct {
	Signature   solana.Signature
	State       State
	ErrorDetail string
}

// Broadcaster is the slice of the RPC client the pipeline needs. *rpc.Client
// satisfies it.
type Broadcaster interface {
	SendRawTransactionWithOpts(ctx context.Context, rawTx []byte, opts rpc.TransactionOpts) (solana.Signature, error)
	GetSignatureStatuses(ctx context.Context, searchTransactionHistory bool, sigs ...solana.Signature) (*rpc.GetSignatureStatusesResult, error)
	GetBalance(ctx context.Context, account solana.PublicKey, commitment rpc.CommitmentType) (*rpc.GetBalanceResult, error)
	GetTokenAccountBalance(ctx context.Context, account solana.PublicKey, commitment rpc.CommitmentType) (*rpc.GetTokenAccountBalanceResult, error)
}

// Pipeline submits transactions and waits for confirmation.
type Pipeline struct {
	client         Broadcaster
	commitment     rpc.CommitmentType
	confirmTimeout time.Duration
	pollInterval   time.Duration
	log            zerolog.Logger
}

// New builds a pipeline polling at the given commitment level.
func New(client Broadcaster, commitment rpc.CommitmentType, confirmTimeout time.Duration, log zerolog.Logger) *Pipeline {
	if confirmTimeout <= 0 {
		confirmTimeout = 30 * time.Second
	}
	return &Pipeline{
		client:         client,
		commitment:     commitment,
		confirmTimeout: confirmTimeout,
		pollInterval:   time.Second,
		log:            logging.WithComponent(log, "pipeline"),
	}
}

// Submit serializes and broadcasts a fully-signed transaction, then waits
// for confirmation up to the configured deadline. Preflight stays enabled so
// invalid transactions are rejected before a confirmation round trip. An
// error return means the network never handed out a signature; once a
// signature exists the result is always expressed as an Outcome.
func (p *Pipeline) Submit(ctx context.Context, tx *solana.Transaction) (Outcome, error) {
	raw, err := codec.Encode(tx)
	if err != nil {
		return Outcome{}, err
	}

	sig, err := p.client.SendRawTransactionWithOpts(ctx, raw, rpc.TransactionOpts{
		SkipPreflight:       false,
		PreflightCommitment: p.commitment,
	})
	if err != nil {
		return Outcome{}, fmt.Errorf("failed to send transaction: %w", err)
	}

	p.log.Debug().Str(logging.FieldSignature, sig.String()).Msg("transaction accepted by RPC")
	return p.Confirm(ctx, sig), nil
}

// Confirm polls signature status until the transaction reaches the required
// commitment level, fails on chain, or the deadline passes. The wait is a
// cancellable ticker loop, never a blocking sleep.
func (p *Pipeline) Confirm(ctx context.Context, sig solana.Signature) Outcome {
	ctx, cancel := context.WithTimeout(ctx, p.confirmTimeout)
	defer cancel()

	started := time.Now()
	ticker := time.NewTicker(p.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			p.log.Warn().
				Str(logging.FieldSignature, sig.String()).
				Dur(logging.FieldDuration, time.Since(started)).
				Msg("confirmation deadline passed")
			return Outcome{
				Signature:   sig,
				State:       StateTimeout,
				ErrorDetail: "no confirmation within deadline; re-query by signature",
			}
		case <-ticker.C:
			if out, done := p.checkStatus(ctx, sig); done {
				return out
			}
		}
	}
}

func (p *Pipeline) checkStatus(ctx context.Context, sig solana.Signature) (Outcome, bool) {
	statuses, err := p.client.GetSignatureStatuses(ctx, false, sig)
	if err != nil {
		// Transient RPC failures only consume poll budget.
		p.log.Debug().Err(err).Str(logging.FieldSignature, sig.String()).Msg("status query failed")
		return Outcome{}, false
	}
	if statuses == nil || len(statuses.Value) == 0 || statuses.Value[0] == nil {
		return Outcome{}, false
	}

	status := statuses.Value[0]
	if status.Err != nil {
		return Outcome{
			Signature:   sig,
			State:       StateOnChainError,
			ErrorDetail: fmt.Sprintf("%v", status.Err),
		}, true
	}
	if p.commitmentReached(status.ConfirmationStatus) {
		return Outcome{Signature: sig, State: StateConfirmed}, true
	}
	return Outcome{}, false
}

// commitmentReached reports whether an observed confirmation status
// satisfies the pipeline's target commitment; a finalized transaction always
// satisfies a confirmed target.
func (p *Pipeline) commitmentReached(observed rpc.ConfirmationStatusType) bool {
	switch p.commitment {
	case rpc.CommitmentFinalized:
		return observed == rpc.ConfirmationStatusFinalized
	case rpc.CommitmentProcessed:
		return observed != ""
	default:
		return observed == rpc.ConfirmationStatusConfirmed || observed == rpc.ConfirmationStatusFinalized
	}
}
