// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package policy

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ava-labs/utxostate/codec"
)

func TestMultiSigPayment(t *testing.T) {
	ctx := context.Background()
	privs, pubs := newKeys(t, 2)
	dest := testDest(t)
	state, err := NewMultiSig([]codec.Address{pubs[0].Address(), pubs[1].Address()}, dest)
	require.NoError(t, err)

	good := []*Signature{sign(t, testEnv, privs[0]), sign(t, testEnv, privs[1])}
	dummy := sign(t, testEnv, privs[1])
	dummy.Value = [64]byte{}

	tests := []struct {
		name string
		sigs []*Signature
		err  error
	}{
		{
			name: "all owners",
			sigs: good,
		},
		{
			name: "reversed",
			sigs: []*Signature{good[1], good[0]},
			err:  ErrSignatureInvalid,
		},
		{
			name: "missing owner",
			sigs: good[:1],
			err:  ErrSignatureInvalid,
		},
		{
			name: "dummy signature",
			sigs: []*Signature{good[0], dummy},
			err:  ErrSignatureInvalid,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := state.Authorize(ctx, Call{Method: MethodUnlock}, testEnv, evidenceOf(tt.sigs...))
			require.ErrorIs(t, err, tt.err)
		})
	}

	outcome, err := state.Next(Call{Method: MethodUnlock})
	require.NoError(t, err)
	require.True(t, outcome.IsTerminal())
	require.Equal(t, dest, outcome.Payee)
	require.Empty(t, state.Participants())
}
