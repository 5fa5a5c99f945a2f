// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package chain

import (
	"fmt"

	"github.com/ava-labs/utxostate/policy"
)

// Snapshot is one value of a contract's state bound to the output that
// commits to it. Snapshots are never modified after creation.
type Snapshot struct {
	State    policy.State `json:"-"`
	Outpoint Outpoint     `json:"outpoint"`
	Balance  uint64       `json:"balance"`
}

// Output returns the commitment output holding the snapshot.
func (s *Snapshot) Output() (*Output, error) {
	commitment, err := policy.Encode(s.State)
	if err != nil {
		return nil, err
	}
	return NewCommitmentOutput(s.Balance, commitment), nil
}

// Input returns the contract input spending the snapshot.
func (s *Snapshot) Input() (*Input, error) {
	out, err := s.Output()
	if err != nil {
		return nil, err
	}
	return &Input{Outpoint: s.Outpoint, Spent: out}, nil
}

// SnapshotAt decodes the state committed to output [index] of [tx].
func SnapshotAt(tx *Transaction, index uint32) (*Snapshot, error) {
	if int(index) >= len(tx.Outputs) {
		return nil, fmt.Errorf("%w: output %d of %d", ErrNoOutputs, index, len(tx.Outputs))
	}
	out := tx.Outputs[index]
	if out.Type != CommitmentOutput {
		return nil, fmt.Errorf("%w: output %d is %s", ErrNotRecommitted, index, out.Type)
	}
	state, err := policy.Decode(out.Commitment)
	if err != nil {
		return nil, err
	}
	id, err := tx.ID()
	if err != nil {
		return nil, err
	}
	return &Snapshot{
		State:    state,
		Outpoint: Outpoint{TxID: id, Index: index},
		Balance:  out.Value,
	}, nil
}
