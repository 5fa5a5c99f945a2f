// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package ledger

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/ava-labs/avalanchego/database/memdb"
	"github.com/ava-labs/avalanchego/utils/logging"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"

	"github.com/ava-labs/utxostate/chain"
	"github.com/ava-labs/utxostate/codec"
	"github.com/ava-labs/utxostate/crypto/secp256k1"
	"github.com/ava-labs/utxostate/policy"
)

const (
	testValue    = 50_000
	testLockTime = 1673510000
)

func newTestLedger(t *testing.T, db Database) *Ledger {
	l, err := New(logging.NoLog{}, db, Config{ChainTime: testLockTime}, prometheus.NewRegistry())
	require.NoError(t, err)
	return l
}

func newKeys(t *testing.T, n int) ([]secp256k1.PrivateKey, []secp256k1.PublicKey) {
	privs := make([]secp256k1.PrivateKey, n)
	pubs := make([]secp256k1.PublicKey, n)
	for i := range privs {
		priv, err := secp256k1.GeneratePrivateKey()
		require.NoError(t, err)
		privs[i] = priv
		pubs[i] = priv.PublicKey()
	}
	return privs, pubs
}

// signed builds [call] against [current] and signs it with [privs].
func signed(
	t *testing.T,
	current *chain.Snapshot,
	call policy.Call,
	opts *chain.BuildOptions,
	preimage []byte,
	privs ...secp256k1.PrivateKey,
) *chain.Transaction {
	r, err := chain.Build(current, call, opts)
	require.NoError(t, err)
	return withEvidence(t, r.Tx, call, preimage, privs...)
}

func withEvidence(t *testing.T, tx *chain.Transaction, call policy.Call, preimage []byte, privs ...secp256k1.PrivateKey) *chain.Transaction {
	digest, err := tx.Digest()
	require.NoError(t, err)
	evidence := &policy.Evidence{Preimage: preimage}
	for _, priv := range privs {
		sig, err := secp256k1.Sign(digest, priv)
		require.NoError(t, err)
		evidence.Signatures = append(evidence.Signatures, &policy.Signature{PublicKey: priv.PublicKey(), Value: sig})
	}
	return tx.WithWitness(&chain.Witness{Call: call, Evidence: evidence})
}

func TestFundAndDeploy(t *testing.T) {
	require := require.New(t)
	ctx := context.Background()
	db := memdb.New()
	l := newTestLedger(t, db)
	_, pubs := newKeys(t, 2)

	in, err := l.Fund(ctx, pubs[0].Address(), 100)
	require.NoError(err)
	out, err := l.Get(ctx, in.Outpoint)
	require.NoError(err)
	require.Equal(in.Spent, out)

	// Identical mints have distinct outpoints.
	again, err := l.Fund(ctx, pubs[0].Address(), 100)
	require.NoError(err)
	require.NotEqual(in.Outpoint, again.Outpoint)

	state, err := policy.NewOrdered(pubs, codec.EmptyAddress)
	require.NoError(err)
	snapshot, err := l.Deploy(ctx, state, testValue)
	require.NoError(err)
	out, err = l.Get(ctx, snapshot.Outpoint)
	require.NoError(err)
	expected, err := snapshot.Output()
	require.NoError(err)
	require.Equal(expected, out)
	require.Equal(uint64(3), l.Height())

	_, err = l.Fund(ctx, pubs[0].Address(), 0)
	require.ErrorIs(err, ErrZeroValue)

	// Height survives a restart.
	require.Equal(uint64(3), newTestLedger(t, db).Height())
}

func TestSubmitSpendsInputs(t *testing.T) {
	require := require.New(t)
	ctx := context.Background()
	l := newTestLedger(t, memdb.New())
	privs, pubs := newKeys(t, 2)
	change := pubs[1].Address()

	state, err := policy.NewThreshold(pubs, 1, pubs[0].Address())
	require.NoError(err)
	snapshot, err := l.Deploy(ctx, state, testValue)
	require.NoError(err)
	funding, err := l.Fund(ctx, change, 1_000)
	require.NoError(err)

	add := policy.Call{Method: policy.MethodAdd, Index: 1}
	tx := signed(t, snapshot, add, &chain.BuildOptions{
		Fee:           100,
		Funding:       []*chain.Input{funding},
		ChangeAddress: &change,
	}, nil, privs[1])
	confirmation, err := l.Submit(ctx, tx)
	require.NoError(err)
	require.Equal(l.Height(), confirmation.Height)

	id, err := tx.ID()
	require.NoError(err)
	require.Equal(id, confirmation.TxID)
	_, err = l.Get(ctx, snapshot.Outpoint)
	require.ErrorIs(err, ErrMissingInput)
	_, err = l.Get(ctx, funding.Outpoint)
	require.ErrorIs(err, ErrMissingInput)

	next, err := chain.SnapshotAt(tx, 0)
	require.NoError(err)
	require.Equal(uint64(testValue), next.Balance)
	out, err := l.Get(ctx, chain.Outpoint{TxID: id, Index: 1})
	require.NoError(err)
	require.Equal(chain.NewAddressOutput(900, change), out)
}

// A contract can only be spent by its own transition, never as funding for
// another contract's call.
func TestSubmitRejectsContractAsFunding(t *testing.T) {
	require := require.New(t)
	ctx := context.Background()
	l := newTestLedger(t, memdb.New())
	privs, pubs := newKeys(t, 4)
	attacker := pubs[3].Address()

	victimState, err := policy.NewThreshold(pubs[:3], 3, pubs[0].Address())
	require.NoError(err)
	victim, err := l.Deploy(ctx, victimState, testValue)
	require.NoError(err)
	victimIn, err := victim.Input()
	require.NoError(err)

	ownState, err := policy.NewOrdered(pubs[3:], attacker)
	require.NoError(err)
	own, err := l.Deploy(ctx, ownState, 1)
	require.NoError(err)

	unlock := policy.Call{Method: policy.MethodUnlock}
	_, err = chain.Build(own, unlock, &chain.BuildOptions{
		Funding:       []*chain.Input{victimIn},
		ChangeAddress: &attacker,
	})
	require.ErrorIs(err, chain.ErrUnexpectedInput)

	// Assemble the same spend by hand.
	r, err := chain.Build(own, unlock, nil)
	require.NoError(err)
	r.Tx.Inputs = append(r.Tx.Inputs, victimIn)
	r.Tx.Outputs = append(r.Tx.Outputs, chain.NewAddressOutput(testValue, attacker))
	tx := withEvidence(t, r.Tx, unlock, nil, privs[3])

	_, err = l.Submit(ctx, tx)
	require.ErrorIs(err, chain.ErrUnexpectedInput)
	var rejection *Rejection
	require.ErrorAs(err, &rejection)
	require.Equal(MsgExecution, rejection.Message)

	out, err := l.Get(ctx, victim.Outpoint)
	require.NoError(err)
	require.Equal(victimIn.Spent, out)
	_, err = l.Get(ctx, own.Outpoint)
	require.NoError(err)
}

func TestSwapDoubleSpend(t *testing.T) {
	for _, first := range []policy.Method{policy.MethodUnlock, policy.MethodCancel} {
		t.Run(first.String(), func(t *testing.T) {
			require := require.New(t)
			ctx := context.Background()
			l := newTestLedger(t, memdb.New())
			privs, pubs := newKeys(t, 2)
			preimage := []byte("secret")

			state, err := policy.NewSwap(pubs[0], pubs[1], policy.HashPreimage(preimage), testLockTime)
			require.NoError(err)
			snapshot, err := l.Deploy(ctx, state, testValue)
			require.NoError(err)

			unlock := signed(t, snapshot, policy.Call{Method: policy.MethodUnlock}, nil, preimage, privs[0])
			cancel := signed(t, snapshot, policy.Call{Method: policy.MethodCancel}, &chain.BuildOptions{LockTime: testLockTime}, nil, privs[1])
			txs := []*chain.Transaction{unlock, cancel}
			if first == policy.MethodCancel {
				txs[0], txs[1] = txs[1], txs[0]
			}

			_, err = l.Submit(ctx, txs[0])
			require.NoError(err)
			_, err = l.Submit(ctx, txs[1])
			require.ErrorIs(err, ErrMissingInput)
			var r *Rejection
			require.True(errors.As(err, &r))
			require.Equal(MsgExecution, r.Message)
		})
	}
}

func TestSubmitRejects(t *testing.T) {
	ctx := context.Background()
	privs, pubs := newKeys(t, 3)
	preimage := []byte("secret")

	tests := []struct {
		name    string
		setup   func(*testing.T, *Ledger) *chain.Transaction
		err     error
		message string
	}{
		{
			name: "pay below threshold",
			setup: func(t *testing.T, l *Ledger) *chain.Transaction {
				state, err := policy.NewThreshold(pubs, 3, pubs[0].Address())
				require.NoError(t, err)
				snapshot, err := l.Deploy(ctx, state, testValue)
				require.NoError(t, err)
				in, err := snapshot.Input()
				require.NoError(t, err)
				return &chain.Transaction{
					Inputs:  []*chain.Input{in},
					Outputs: []*chain.Output{chain.NewAddressOutput(testValue, pubs[0].Address())},
					Witness: &chain.Witness{Call: policy.Call{Method: policy.MethodPay}},
				}
			},
			err:     policy.ErrThresholdNotMet,
			message: MsgThresholdNotMet,
		},
		{
			name: "wrong owner signs",
			setup: func(t *testing.T, l *Ledger) *chain.Transaction {
				state, err := policy.NewThreshold(pubs, 3, pubs[0].Address())
				require.NoError(t, err)
				snapshot, err := l.Deploy(ctx, state, testValue)
				require.NoError(t, err)
				return signed(t, snapshot, policy.Call{Method: policy.MethodAdd, Index: 0}, nil, nil, privs[1])
			},
			err:     policy.ErrSignatureInvalid,
			message: MsgSignature,
		},
		{
			name: "out of order",
			setup: func(t *testing.T, l *Ledger) *chain.Transaction {
				state, err := policy.NewOrdered(pubs, pubs[0].Address())
				require.NoError(t, err)
				snapshot, err := l.Deploy(ctx, state, testValue)
				require.NoError(t, err)
				return signed(t, snapshot, policy.Call{Method: policy.MethodUnlock}, nil, nil, privs[2])
			},
			err:     policy.ErrOutOfOrder,
			message: MsgSignature,
		},
		{
			name: "wrong preimage",
			setup: func(t *testing.T, l *Ledger) *chain.Transaction {
				state, err := policy.NewSwap(pubs[0], pubs[1], policy.HashPreimage(preimage), testLockTime)
				require.NoError(t, err)
				snapshot, err := l.Deploy(ctx, state, testValue)
				require.NoError(t, err)
				return signed(t, snapshot, policy.Call{Method: policy.MethodUnlock}, nil, []byte("guess"), privs[0])
			},
			err:     policy.ErrPreimageMismatch,
			message: MsgHashMismatch,
		},
		{
			name: "early cancel",
			setup: func(t *testing.T, l *Ledger) *chain.Transaction {
				state, err := policy.NewSwap(pubs[0], pubs[1], policy.HashPreimage(preimage), testLockTime)
				require.NoError(t, err)
				snapshot, err := l.Deploy(ctx, state, testValue)
				require.NoError(t, err)
				return signed(t, snapshot, policy.Call{Method: policy.MethodCancel}, &chain.BuildOptions{LockTime: testLockTime - 1}, nil, privs[1])
			},
			err:     policy.ErrLocktimeNotExpired,
			message: MsgLocktime,
		},
		{
			name: "non final",
			setup: func(t *testing.T, l *Ledger) *chain.Transaction {
				state, err := policy.NewSwap(pubs[0], pubs[1], policy.HashPreimage(preimage), testLockTime)
				require.NoError(t, err)
				snapshot, err := l.Deploy(ctx, state, testValue)
				require.NoError(t, err)
				return signed(t, snapshot, policy.Call{Method: policy.MethodCancel}, &chain.BuildOptions{LockTime: testLockTime + 1}, nil, privs[1])
			},
			err:     ErrNonFinal,
			message: MsgExecution,
		},
		{
			name: "spent output mismatch",
			setup: func(t *testing.T, l *Ledger) *chain.Transaction {
				state, err := policy.NewOrdered(pubs, pubs[0].Address())
				require.NoError(t, err)
				snapshot, err := l.Deploy(ctx, state, testValue)
				require.NoError(t, err)
				inflated := &chain.Snapshot{State: state, Outpoint: snapshot.Outpoint, Balance: testValue * 2}
				return signed(t, inflated, policy.Call{Method: policy.MethodUnlock}, nil, nil, privs[0])
			},
			err:     ErrSpentMismatch,
			message: MsgExecution,
		},
		{
			name: "input spent twice",
			setup: func(t *testing.T, l *Ledger) *chain.Transaction {
				state, err := policy.NewOrdered(pubs, pubs[0].Address())
				require.NoError(t, err)
				snapshot, err := l.Deploy(ctx, state, testValue)
				require.NoError(t, err)
				funding, err := l.Fund(ctx, pubs[1].Address(), 10)
				require.NoError(t, err)
				return signed(t, snapshot, policy.Call{Method: policy.MethodUnlock}, &chain.BuildOptions{
					Fee:     20,
					Funding: []*chain.Input{funding, funding},
				}, nil, privs[0])
			},
			err:     ErrMissingInput,
			message: MsgExecution,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require := require.New(t)
			l := newTestLedger(t, memdb.New())
			tx := tt.setup(t, l)
			height := l.Height()

			_, err := l.Submit(ctx, tx)
			require.ErrorIs(err, tt.err)
			var r *Rejection
			require.True(errors.As(err, &r))
			require.Equal(tt.message, r.Message)
			require.Equal(height, l.Height())

			in := tx.Inputs[chain.ContractInputIndex]
			out, err := l.Get(ctx, in.Outpoint)
			require.NoError(err)
			require.NotNil(out)
		})
	}
}

func TestMessage(t *testing.T) {
	tests := []struct {
		err     error
		message string
	}{
		{policy.ErrThresholdNotMet, MsgThresholdNotMet},
		{fmt.Errorf("%w: 1 of 3", policy.ErrThresholdNotMet), MsgThresholdNotMet},
		{policy.ErrLocktimeNotExpired, MsgLocktime},
		{policy.ErrSignatureInvalid, MsgSignature},
		{policy.ErrPreimageMismatch, MsgHashMismatch},
		{policy.ErrMalformedCommitment, MsgExecution},
		{chain.ErrValueNotConserved, MsgExecution},
	}
	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			require.Equal(t, tt.message, Message(tt.err))
		})
	}
}

func TestSubmitCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := newTestLedger(t, memdb.New()).Submit(ctx, &chain.Transaction{})
	require.ErrorIs(t, err, context.Canceled)
}
