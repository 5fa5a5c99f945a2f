// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package chain

import (
	"fmt"

	"github.com/ava-labs/avalanchego/utils/math"

	"github.com/ava-labs/utxostate/codec"
	"github.com/ava-labs/utxostate/policy"
)

type BuildOptions struct {
	// Fee is left to the network by the transition.
	Fee uint64
	// Funding inputs pay the fee instead of the contract balance. Whatever
	// they carry beyond the fee is returned to [ChangeAddress]. They must
	// spend address outputs.
	Funding       []*Input
	ChangeAddress *codec.Address
	LockTime      uint64
}

type Result struct {
	// Tx is unsigned. Attach a witness with [Result.Finalize].
	Tx           *Transaction
	AtInputIndex int
	Outcome      *policy.Outcome
	// Next is the successor snapshot when the outcome re-commits, bound to
	// the unsigned transaction.
	Next *Snapshot
}

// Finalize attaches [w] to the built transaction and rebinds the successor
// snapshot to the resulting transaction ID.
func (r *Result) Finalize(w *Witness) (*Transaction, *Snapshot, error) {
	tx := r.Tx.WithWitness(w)
	if r.Next == nil {
		return tx, nil, nil
	}
	id, err := tx.ID()
	if err != nil {
		return nil, nil, err
	}
	return tx, &Snapshot{
		State:    r.Next.State,
		Outpoint: Outpoint{TxID: id, Index: 0},
		Balance:  r.Next.Balance,
	}, nil
}

// Build creates the unsigned transition that applies [call] to [current].
// It is deterministic and never modifies [current].
func Build(current *Snapshot, call policy.Call, opts *BuildOptions) (*Result, error) {
	if opts == nil {
		opts = &BuildOptions{}
	}
	outcome, err := current.State.Next(call)
	if err != nil {
		return nil, err
	}
	contractIn, err := current.Input()
	if err != nil {
		return nil, err
	}

	var funding uint64
	for i, in := range opts.Funding {
		if in == nil || in.Spent == nil {
			return nil, fmt.Errorf("%w: funding %d carries no spent output", ErrMalformedTransaction, i)
		}
		if in.Spent.Type == CommitmentOutput {
			return nil, fmt.Errorf("%w: funding %d", ErrUnexpectedInput, i)
		}
		funding, err = math.Add64(funding, in.Spent.Value)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrValueNotConserved, err)
		}
	}

	var contractValue, change uint64
	if len(opts.Funding) == 0 {
		contractValue, err = math.Sub(current.Balance, opts.Fee)
		if err != nil {
			return nil, fmt.Errorf("%w: fee %d exceeds balance %d", ErrValueNotConserved, opts.Fee, current.Balance)
		}
	} else {
		contractValue = current.Balance
		change, err = math.Sub(funding, opts.Fee)
		if err != nil {
			return nil, fmt.Errorf("%w: fee %d exceeds funding %d", ErrValueNotConserved, opts.Fee, funding)
		}
		if change > 0 && opts.ChangeAddress == nil {
			return nil, fmt.Errorf("%w: %d", ErrMissingChangeAddress, change)
		}
	}

	var first *Output
	switch outcome.Kind {
	case policy.ReCommitKind:
		commitment, err := policy.Encode(outcome.Next)
		if err != nil {
			return nil, err
		}
		first = NewCommitmentOutput(contractValue, commitment)
	case policy.TerminalKind:
		first = NewAddressOutput(contractValue, outcome.Payee)
	}

	inputs := make([]*Input, 0, 1+len(opts.Funding))
	inputs = append(inputs, contractIn)
	inputs = append(inputs, opts.Funding...)
	outputs := []*Output{first}
	if change > 0 {
		outputs = append(outputs, NewAddressOutput(change, *opts.ChangeAddress))
	}
	tx := &Transaction{
		Inputs:   inputs,
		Outputs:  outputs,
		LockTime: opts.LockTime,
	}

	r := &Result{
		Tx:           tx,
		AtInputIndex: ContractInputIndex,
		Outcome:      outcome,
	}
	if !outcome.IsTerminal() {
		id, err := tx.ID()
		if err != nil {
			return nil, err
		}
		r.Next = &Snapshot{
			State:    outcome.Next,
			Outpoint: Outpoint{TxID: id, Index: 0},
			Balance:  contractValue,
		}
	}
	return r, nil
}
