// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package chain

import (
	"bytes"
	"context"
	"fmt"

	"github.com/ava-labs/avalanchego/utils/math"
	"golang.org/x/sync/errgroup"

	"github.com/ava-labs/utxostate/policy"
)

// Verdict is the result of verifying a transition. [Reason] is nil iff the
// transition was accepted.
type Verdict struct {
	Accepted bool  `json:"accepted"`
	Reason   error `json:"-"`
}

func accept() *Verdict {
	return &Verdict{Accepted: true}
}

func reject(err error) *Verdict {
	return &Verdict{Reason: err}
}

func (v *Verdict) String() string {
	if v.Accepted {
		return "accepted"
	}
	return fmt.Sprintf("rejected: %v", v.Reason)
}

// Verify checks that [tx] is a valid transition of the contract it spends at
// [ContractInputIndex]. It only depends on [tx].
func Verify(ctx context.Context, tx *Transaction) *Verdict {
	if err := verify(ctx, tx); err != nil {
		return reject(err)
	}
	return accept()
}

func verify(ctx context.Context, tx *Transaction) error {
	if tx == nil || len(tx.Inputs) == 0 {
		return ErrNoInputs
	}
	if err := tx.checkShape(); err != nil {
		return err
	}
	spent := tx.Inputs[ContractInputIndex].Spent
	if spent.Type != CommitmentOutput {
		return ErrNoContractInput
	}
	// Every other contract must be spent by its own transition.
	for i, in := range tx.Inputs[ContractInputIndex+1:] {
		if in.Spent.Type == CommitmentOutput {
			return fmt.Errorf("%w: input %d", ErrUnexpectedInput, ContractInputIndex+1+i)
		}
	}
	current, err := policy.Decode(spent.Commitment)
	if err != nil {
		return err
	}
	if tx.Witness == nil {
		return ErrMissingWitness
	}
	call := tx.Witness.Call
	outcome, err := current.Next(call)
	if err != nil {
		return err
	}
	if len(tx.Outputs) == 0 {
		return ErrNoOutputs
	}

	first := tx.Outputs[0]
	switch outcome.Kind {
	case policy.ReCommitKind:
		if first.Type != CommitmentOutput {
			return fmt.Errorf("%w: expected commitment, found %s", ErrUnexpectedOutput, first.Type)
		}
		next, err := policy.Decode(first.Commitment)
		if err != nil {
			return err
		}
		expected, err := policy.Encode(outcome.Next)
		if err != nil {
			return err
		}
		if !bytes.Equal(expected, first.Commitment) {
			return fmt.Errorf("%w: commitment does not match %s transition", ErrUnexpectedOutput, call.Method)
		}
		if len(next.Participants()) != len(current.Participants()) {
			return fmt.Errorf("%w: %d != %d", ErrParticipantCountChanged, len(next.Participants()), len(current.Participants()))
		}
	case policy.TerminalKind:
		if first.Type != AddressOutput || first.Address != outcome.Payee {
			return fmt.Errorf("%w: expected payout to %s", ErrUnexpectedOutput, outcome.Payee)
		}
	}

	valueIn, err := tx.ValueIn()
	if err != nil {
		return fmt.Errorf("%w: %w", ErrValueNotConserved, err)
	}
	valueOut, err := tx.ValueOut()
	if err != nil {
		return fmt.Errorf("%w: %w", ErrValueNotConserved, err)
	}
	fee, err := math.Sub(valueIn, valueOut)
	if err != nil {
		return fmt.Errorf("%w: in %d < out %d", ErrValueNotConserved, valueIn, valueOut)
	}
	// Only the fee may leave the contract's value.
	kept, err := math.Add64(first.Value, fee)
	if err != nil || kept < spent.Value {
		return fmt.Errorf("%w: contract output %d with fee %d below %d", ErrValueNotConserved, first.Value, fee, spent.Value)
	}

	digest, err := tx.Digest()
	if err != nil {
		return err
	}
	env := &policy.Env{Digest: digest, LockTime: tx.LockTime}
	return current.Authorize(ctx, call, env, tx.Witness.Evidence)
}

// VerifyAll verifies independent transitions using at most [workers]
// goroutines. Verdicts are returned in the order of [txs].
func VerifyAll(ctx context.Context, txs []*Transaction, workers int) ([]*Verdict, error) {
	verdicts := make([]*Verdict, len(txs))
	g, gctx := errgroup.WithContext(ctx)
	if workers > 0 {
		g.SetLimit(workers)
	}
	for i, tx := range txs {
		i, tx := i, tx
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			verdicts[i] = Verify(gctx, tx)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return verdicts, nil
}
