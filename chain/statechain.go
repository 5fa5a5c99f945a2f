// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package chain

import (
	"bytes"
	"context"
	"fmt"
	"sync"
)

// StateChain is the ordered history of one contract: every snapshot and the
// transition that spent it. The last transition may end the chain with a
// payout.
type StateChain struct {
	l sync.RWMutex

	snapshots    []*Snapshot
	transactions []*Transaction
	payout       *Output
}

func NewStateChain(genesis *Snapshot) *StateChain {
	return &StateChain{snapshots: []*Snapshot{genesis}}
}

// Head returns the latest snapshot. Once the chain is terminated this is the
// snapshot spent by the payout.
func (c *StateChain) Head() *Snapshot {
	c.l.RLock()
	defer c.l.RUnlock()

	return c.snapshots[len(c.snapshots)-1]
}

func (c *StateChain) Snapshots() []*Snapshot {
	c.l.RLock()
	defer c.l.RUnlock()

	snapshots := make([]*Snapshot, len(c.snapshots))
	copy(snapshots, c.snapshots)
	return snapshots
}

func (c *StateChain) Transactions() []*Transaction {
	c.l.RLock()
	defer c.l.RUnlock()

	txs := make([]*Transaction, len(c.transactions))
	copy(txs, c.transactions)
	return txs
}

func (c *StateChain) Terminated() bool {
	c.l.RLock()
	defer c.l.RUnlock()

	return c.payout != nil
}

// Payout returns the terminal output, if any.
func (c *StateChain) Payout() (*Output, bool) {
	c.l.RLock()
	defer c.l.RUnlock()

	return c.payout, c.payout != nil
}

// Append records [tx] as the transition spending the head. It returns the new
// head, or nil when [tx] terminates the chain.
func (c *StateChain) Append(ctx context.Context, tx *Transaction) (*Snapshot, error) {
	c.l.Lock()
	defer c.l.Unlock()

	if c.payout != nil {
		return nil, ErrChainTerminated
	}
	head := c.snapshots[len(c.snapshots)-1]
	if len(tx.Inputs) == 0 {
		return nil, ErrNotHeadSpend
	}
	if err := tx.checkShape(); err != nil {
		return nil, err
	}
	in := tx.Inputs[ContractInputIndex]
	if in.Outpoint != head.Outpoint {
		return nil, fmt.Errorf("%w: spends %s, head is %s", ErrNotHeadSpend, in.Outpoint, head.Outpoint)
	}
	expected, err := head.Output()
	if err != nil {
		return nil, err
	}
	if !expected.Equal(in.Spent) {
		return nil, fmt.Errorf("%w: spent output differs from head", ErrNotHeadSpend)
	}
	if verdict := Verify(ctx, tx); !verdict.Accepted {
		return nil, verdict.Reason
	}

	c.transactions = append(c.transactions, tx)
	outcome, err := head.State.Next(tx.Witness.Call)
	if err != nil {
		return nil, err
	}
	if outcome.IsTerminal() {
		c.payout = tx.Outputs[0]
		return nil, nil
	}
	next, err := SnapshotAt(tx, 0)
	if err != nil {
		return nil, err
	}
	c.snapshots = append(c.snapshots, next)
	return next, nil
}

// Audit re-verifies every recorded transition and checks that each one links
// the snapshots it sits between.
func (c *StateChain) Audit(ctx context.Context, workers int) error {
	snapshots := c.Snapshots()
	txs := c.Transactions()

	verdicts, err := VerifyAll(ctx, txs, workers)
	if err != nil {
		return err
	}
	participants := len(snapshots[0].State.Participants())
	for i, verdict := range verdicts {
		if !verdict.Accepted {
			return fmt.Errorf("transition %d: %w", i, verdict.Reason)
		}
		if txs[i].Inputs[ContractInputIndex].Outpoint != snapshots[i].Outpoint {
			return fmt.Errorf("transition %d: %w", i, ErrNotHeadSpend)
		}
		if i+1 < len(snapshots) {
			next := snapshots[i+1]
			if len(next.State.Participants()) != participants {
				return fmt.Errorf("transition %d: %w", i, ErrParticipantCountChanged)
			}
			expected, err := next.Output()
			if err != nil {
				return err
			}
			if !bytes.Equal(expected.Commitment, txs[i].Outputs[0].Commitment) {
				return fmt.Errorf("transition %d: %w", i, ErrUnexpectedOutput)
			}
		}
	}
	return nil
}
