// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package ledger

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/ava-labs/avalanchego/ids"
	"github.com/ava-labs/avalanchego/utils/logging"
	"github.com/ava-labs/avalanchego/utils/set"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/atomic"
	"go.uber.org/zap"

	"github.com/ava-labs/utxostate/chain"
	"github.com/ava-labs/utxostate/codec"
	"github.com/ava-labs/utxostate/policy"
)

var _ chain.Broadcaster = (*Ledger)(nil)

type Config struct {
	// ChainTime is the initial time lock times are compared against.
	ChainTime uint64
	// Namespace prefixes every metric.
	Namespace string
}

// Ledger is an in-process UTXO set. It confirms a transaction only if every
// input is unspent, its lock time has passed and the contract transition
// verifies. Confirmed transactions are applied atomically.
type Ledger struct {
	log     logging.Logger
	db      Database
	metrics *metrics

	time   atomic.Uint64
	height atomic.Uint64

	// l serializes writes so two spends of one output cannot both confirm.
	l sync.Mutex
}

func New(log logging.Logger, db Database, cfg Config, registerer prometheus.Registerer) (*Ledger, error) {
	metrics, err := newMetrics(cfg.Namespace, registerer)
	if err != nil {
		return nil, err
	}
	height, err := getHeight(db)
	if err != nil {
		return nil, err
	}
	l := &Ledger{
		log:     log,
		db:      db,
		metrics: metrics,
	}
	l.time.Store(cfg.ChainTime)
	l.height.Store(height)
	return l, nil
}

// SetTime moves the chain clock. Lock times are compared against it.
func (l *Ledger) SetTime(t uint64) {
	l.time.Store(t)
}

func (l *Ledger) Time() uint64 {
	return l.time.Load()
}

// Height is the number of confirmed transactions, mints included.
func (l *Ledger) Height() uint64 {
	return l.height.Load()
}

// Fund mints an output of [value] to [addr] and returns an input spending it.
func (l *Ledger) Fund(ctx context.Context, addr codec.Address, value uint64) (*chain.Input, error) {
	out := chain.NewAddressOutput(value, addr)
	outpoint, err := l.mint(ctx, out)
	if err != nil {
		return nil, err
	}
	return &chain.Input{Outpoint: outpoint, Spent: out}, nil
}

// Deploy mints a contract output committing to [state].
func (l *Ledger) Deploy(ctx context.Context, state policy.State, value uint64) (*chain.Snapshot, error) {
	commitment, err := policy.Encode(state)
	if err != nil {
		return nil, err
	}
	outpoint, err := l.mint(ctx, chain.NewCommitmentOutput(value, commitment))
	if err != nil {
		return nil, err
	}
	l.log.Info("deployed contract",
		zap.String("policy", policy.Name(state.GetTypeID())),
		zap.Stringer("outpoint", outpoint),
		zap.Uint64("value", value),
	)
	return &chain.Snapshot{State: state, Outpoint: outpoint, Balance: value}, nil
}

// mint confirms a transaction without inputs. The new height is used as its
// lock time so every mint has a distinct ID.
func (l *Ledger) mint(ctx context.Context, out *chain.Output) (chain.Outpoint, error) {
	if out.Value == 0 {
		return chain.Outpoint{}, ErrZeroValue
	}
	if err := ctx.Err(); err != nil {
		return chain.Outpoint{}, err
	}

	l.l.Lock()
	defer l.l.Unlock()

	height := l.height.Load() + 1
	tx := &chain.Transaction{Outputs: []*chain.Output{out}, LockTime: height}
	id, err := tx.ID()
	if err != nil {
		return chain.Outpoint{}, err
	}
	if err := l.apply(id, tx, height); err != nil {
		return chain.Outpoint{}, err
	}
	return chain.Outpoint{TxID: id}, nil
}

// Get returns the unspent output at [outpoint].
func (l *Ledger) Get(ctx context.Context, outpoint chain.Outpoint) (*chain.Output, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return getUTXO(l.db, outpoint)
}

// Submit confirms [tx] or returns a [*Rejection] describing why it was not.
// Errors that are not rejections come from the database.
func (l *Ledger) Submit(ctx context.Context, tx *chain.Transaction) (*chain.Confirmation, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	id, err := tx.ID()
	if err != nil {
		return nil, l.reject(id, err)
	}

	l.l.Lock()
	defer l.l.Unlock()

	seen := set.NewSet[chain.Outpoint](len(tx.Inputs))
	for i, in := range tx.Inputs {
		if seen.Contains(in.Outpoint) {
			return nil, l.reject(id, fmt.Errorf("%w: input %d repeats %s", ErrMissingInput, i, in.Outpoint))
		}
		seen.Add(in.Outpoint)
		stored, err := getUTXO(l.db, in.Outpoint)
		if errors.Is(err, ErrMissingInput) {
			l.metrics.doubleSpends.Inc()
			return nil, l.reject(id, fmt.Errorf("%w: %s", ErrMissingInput, in.Outpoint))
		}
		if err != nil {
			return nil, err
		}
		if !stored.Equal(in.Spent) {
			return nil, l.reject(id, fmt.Errorf("%w: %s", ErrSpentMismatch, in.Outpoint))
		}
	}
	if now := l.time.Load(); tx.LockTime > now {
		return nil, l.reject(id, fmt.Errorf("%w: %d > %d", ErrNonFinal, tx.LockTime, now))
	}
	if verdict := chain.Verify(ctx, tx); !verdict.Accepted {
		return nil, l.reject(id, verdict.Reason)
	}

	height := l.height.Load() + 1
	if err := l.apply(id, tx, height); err != nil {
		return nil, err
	}
	l.log.Info("confirmed transaction",
		zap.Stringer("txID", id),
		zap.Uint64("height", height),
		zap.Stringer("method", tx.Witness.Call.Method),
	)
	return &chain.Confirmation{TxID: id, Height: height}, nil
}

// apply spends the inputs of [tx] and stores its outputs in one batch.
func (l *Ledger) apply(id ids.ID, tx *chain.Transaction, height uint64) error {
	batch := l.db.NewBatch()
	for _, in := range tx.Inputs {
		if err := batch.Delete(UTXOKey(in.Outpoint)); err != nil {
			return err
		}
	}
	for i, out := range tx.Outputs {
		if err := putUTXO(batch, chain.Outpoint{TxID: id, Index: uint32(i)}, out); err != nil {
			return err
		}
	}
	if err := putHeight(batch, height); err != nil {
		return err
	}
	if err := batch.Write(); err != nil {
		return err
	}
	l.height.Store(height)
	l.metrics.accepted.Inc()
	l.metrics.utxos.Add(float64(len(tx.Outputs) - len(tx.Inputs)))
	return nil
}

func (l *Ledger) reject(id ids.ID, reason error) error {
	l.metrics.rejected.Inc()
	r := reject(reason)
	l.log.Debug("rejected transaction",
		zap.Stringer("txID", id),
		zap.String("message", r.Message),
		zap.Error(reason),
	)
	return r
}
