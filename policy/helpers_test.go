// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package policy

import (
	"testing"

	"github.com/ava-labs/avalanchego/utils/hashing"
	"github.com/stretchr/testify/require"

	"github.com/ava-labs/utxostate/codec"
	"github.com/ava-labs/utxostate/crypto/secp256k1"
)

var testEnv = &Env{Digest: hashing.ComputeHash256([]byte("successor transaction"))}

func newKeys(t *testing.T, n int) ([]secp256k1.PrivateKey, []secp256k1.PublicKey) {
	privs := make([]secp256k1.PrivateKey, n)
	pubs := make([]secp256k1.PublicKey, n)
	for i := 0; i < n; i++ {
		priv, err := secp256k1.GeneratePrivateKey()
		require.NoError(t, err)
		privs[i] = priv
		pubs[i] = priv.PublicKey()
	}
	return privs, pubs
}

func sign(t *testing.T, env *Env, priv secp256k1.PrivateKey) *Signature {
	sig, err := secp256k1.Sign(env.Digest, priv)
	require.NoError(t, err)
	return &Signature{PublicKey: priv.PublicKey(), Value: sig}
}

func evidenceOf(sigs ...*Signature) *Evidence {
	return &Evidence{Signatures: sigs}
}

func testDest(t *testing.T) codec.Address {
	_, pubs := newKeys(t, 1)
	return pubs[0].Address()
}

func validated(t *testing.T, s *Threshold, owners ...int) *Threshold {
	for _, i := range owners {
		var err error
		s, err = s.WithValidated(i)
		require.NoError(t, err)
	}
	return s
}
