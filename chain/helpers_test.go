// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package chain

import (
	"testing"

	"github.com/ava-labs/avalanchego/ids"
	"github.com/stretchr/testify/require"

	"github.com/ava-labs/utxostate/codec"
	"github.com/ava-labs/utxostate/crypto/secp256k1"
	"github.com/ava-labs/utxostate/policy"
)

const testBalance = 10_000

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

func testAddress(t *testing.T) codec.Address {
	_, pubs := newKeys(t, 1)
	return pubs[0].Address()
}

func genesis(state policy.State, balance uint64) *Snapshot {
	return &Snapshot{
		State:    state,
		Outpoint: Outpoint{TxID: ids.GenerateTestID()},
		Balance:  balance,
	}
}

func fundingInput(t *testing.T, value uint64) *Input {
	return &Input{
		Outpoint: Outpoint{TxID: ids.GenerateTestID(), Index: 1},
		Spent:    NewAddressOutput(value, testAddress(t)),
	}
}

// signWitness signs the digest of [tx] with every key in [privs].
func signWitness(t *testing.T, tx *Transaction, call policy.Call, privs ...secp256k1.PrivateKey) *Witness {
	digest, err := tx.Digest()
	require.NoError(t, err)
	evidence := &policy.Evidence{}
	for _, priv := range privs {
		sig, err := secp256k1.Sign(digest, priv)
		require.NoError(t, err)
		evidence.Signatures = append(evidence.Signatures, &policy.Signature{
			PublicKey: priv.PublicKey(),
			Value:     sig,
		})
	}
	return &Witness{Call: call, Evidence: evidence}
}

// transition builds and signs [call] against [current].
func transition(
	t *testing.T,
	current *Snapshot,
	call policy.Call,
	opts *BuildOptions,
	privs ...secp256k1.PrivateKey,
) (*Transaction, *Snapshot) {
	r, err := Build(current, call, opts)
	require.NoError(t, err)
	tx, next, err := r.Finalize(signWitness(t, r.Tx, call, privs...))
	require.NoError(t, err)
	return tx, next
}
