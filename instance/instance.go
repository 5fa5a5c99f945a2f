// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package instance

import (
	"context"
	"fmt"

	"github.com/ava-labs/avalanchego/utils/logging"
	"go.uber.org/zap"

	"github.com/ava-labs/utxostate/chain"
	"github.com/ava-labs/utxostate/codec"
	"github.com/ava-labs/utxostate/crypto/secp256k1"
	"github.com/ava-labs/utxostate/policy"
)

// Ledger confirms transitions and mints new contracts.
type Ledger interface {
	chain.Broadcaster
	Deploy(ctx context.Context, state policy.State, value uint64) (*chain.Snapshot, error)
}

// KeyRef names a signer by public key or, when the key is empty, by address.
type KeyRef struct {
	PublicKey secp256k1.PublicKey
	Address   codec.Address
}

func ByKey(pk secp256k1.PublicKey) KeyRef {
	return KeyRef{PublicKey: pk}
}

func ByAddress(addr codec.Address) KeyRef {
	return KeyRef{Address: addr}
}

// SelectFunc picks the evidence signatures from everything the signer
// produced.
type SelectFunc func(sigs []*policy.Signature, req *policy.Requirement) ([]*policy.Signature, error)

type CallOptions struct {
	// PubKeyOrAddrToSign overrides the keys asked to sign. By default the
	// keys named by the requirement sign.
	PubKeyOrAddrToSign []KeyRef
	ChangeAddress      *codec.Address
	Funding            []*chain.Input
	LockTime           uint64
	Fee                uint64
	Preimage           []byte
	// SelectSigs defaults to one signature per signing key, in order.
	SelectSigs SelectFunc
}

type CallResult struct {
	Tx           *chain.Transaction
	AtInputIndex int
	Confirmation *chain.Confirmation
	// Next is nil when the call ended the contract.
	Next *Instance
}

// Instance is a deployed contract at one snapshot. Calls never modify an
// instance; they return the next one.
type Instance struct {
	log      logging.Logger
	ledger   Ledger
	signer   chain.Signer
	snapshot *chain.Snapshot
}

// Deploy mints [amount] to a new contract committing to [state].
func Deploy(
	ctx context.Context,
	ledger Ledger,
	signer chain.Signer,
	state policy.State,
	amount uint64,
	log logging.Logger,
) (*Instance, error) {
	snapshot, err := ledger.Deploy(ctx, state, amount)
	if err != nil {
		return nil, err
	}
	return New(log, ledger, signer, snapshot), nil
}

func New(log logging.Logger, ledger Ledger, signer chain.Signer, snapshot *chain.Snapshot) *Instance {
	return &Instance{
		log:      log,
		ledger:   ledger,
		signer:   signer,
		snapshot: snapshot,
	}
}

// Connect returns a copy of the instance that signs with [signer].
func (i *Instance) Connect(signer chain.Signer) *Instance {
	return New(i.log, i.ledger, signer, i.snapshot)
}

func (i *Instance) Snapshot() *chain.Snapshot { return i.snapshot }

func (i *Instance) State() policy.State { return i.snapshot.State }

func (i *Instance) Balance() uint64 { return i.snapshot.Balance }

// Call builds, signs and submits [call]. Policy and ledger rejections are
// returned unchanged.
func (i *Instance) Call(ctx context.Context, call policy.Call, opts *CallOptions) (*CallResult, error) {
	if opts == nil {
		opts = &CallOptions{}
	}
	req, err := i.snapshot.State.Requirement(call)
	if err != nil {
		return nil, err
	}
	r, err := chain.Build(i.snapshot, call, &chain.BuildOptions{
		Fee:           opts.Fee,
		Funding:       opts.Funding,
		ChangeAddress: opts.ChangeAddress,
		LockTime:      opts.LockTime,
	})
	if err != nil {
		return nil, err
	}

	keys, err := i.signingKeys(ctx, req, opts.PubKeyOrAddrToSign)
	if err != nil {
		return nil, err
	}
	var sigs []*policy.Signature
	if len(keys) > 0 {
		sigs, err = i.signer.Sign(ctx, r.Tx, keys)
		if err != nil {
			return nil, err
		}
	}
	selectSigs := opts.SelectSigs
	if selectSigs == nil {
		selectSigs = func(sigs []*policy.Signature, _ *policy.Requirement) ([]*policy.Signature, error) {
			return policy.FindSigs(sigs, keys)
		}
	}
	selected, err := selectSigs(sigs, req)
	if err != nil {
		return nil, err
	}

	tx, next, err := r.Finalize(&chain.Witness{
		Call: call,
		Evidence: &policy.Evidence{
			Signatures: selected,
			Preimage:   opts.Preimage,
		},
	})
	if err != nil {
		return nil, err
	}
	confirmation, err := i.ledger.Submit(ctx, tx)
	if err != nil {
		i.log.Debug("call rejected",
			zap.Stringer("method", call.Method),
			zap.Stringer("outpoint", i.snapshot.Outpoint),
			zap.Error(err),
		)
		return nil, err
	}
	i.log.Info("contract called",
		zap.Stringer("method", call.Method),
		zap.Uint8("index", call.Index),
		zap.Stringer("txID", confirmation.TxID),
		zap.Bool("terminal", r.Outcome.IsTerminal()),
	)

	result := &CallResult{
		Tx:           tx,
		AtInputIndex: r.AtInputIndex,
		Confirmation: confirmation,
	}
	if next != nil {
		result.Next = New(i.log, i.ledger, i.signer, next)
	}
	return result, nil
}

// signingKeys resolves [refs], or the keys [req] names when [refs] is empty.
func (i *Instance) signingKeys(ctx context.Context, req *policy.Requirement, refs []KeyRef) ([]secp256k1.PublicKey, error) {
	if len(refs) == 0 {
		if len(req.Keys) > 0 {
			return req.Keys, nil
		}
		refs = make([]KeyRef, len(req.KeyHashes))
		for j, h := range req.KeyHashes {
			refs[j] = ByAddress(h)
		}
	}
	keys := make([]secp256k1.PublicKey, len(refs))
	for j, ref := range refs {
		switch {
		case ref.PublicKey != secp256k1.EmptyPublicKey:
			keys[j] = ref.PublicKey
		case ref.Address != codec.EmptyAddress:
			pk, err := i.signer.Lookup(ctx, ref.Address)
			if err != nil {
				return nil, err
			}
			keys[j] = pk
		default:
			return nil, fmt.Errorf("%w: %d", ErrEmptyKeyRef, j)
		}
	}
	return keys, nil
}
