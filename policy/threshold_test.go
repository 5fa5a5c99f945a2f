// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package policy

import (
	"context"
	"math/bits"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestThresholdAddThenPay(t *testing.T) {
	require := require.New(t)
	ctx := context.Background()
	privs, pubs := newKeys(t, 3)
	dest := testDest(t)

	state, err := NewThreshold(pubs, 3, dest)
	require.NoError(err)

	var current State = state
	for i := range privs {
		call := Call{Method: MethodAdd, Index: uint8(i)}
		require.NoError(current.Authorize(ctx, call, testEnv, evidenceOf(sign(t, testEnv, privs[i]))))
		outcome, err := current.Next(call)
		require.NoError(err)
		require.False(outcome.IsTerminal())
		current = outcome.Next
	}
	require.Equal(3, current.(*Threshold).ValidatedCount())

	pay := Call{Method: MethodPay}
	require.NoError(current.Authorize(ctx, pay, testEnv, nil))
	outcome, err := current.Next(pay)
	require.NoError(err)
	require.True(outcome.IsTerminal())
	require.Equal(dest, outcome.Payee)
}

func TestThresholdPayBelowThreshold(t *testing.T) {
	require := require.New(t)
	_, pubs := newKeys(t, 3)

	state, err := NewThreshold(pubs, 3, testDest(t))
	require.NoError(err)
	state = validated(t, state, 0)

	_, err = state.Next(Call{Method: MethodPay})
	require.ErrorIs(err, ErrThresholdNotMet)
	err = state.Authorize(context.Background(), Call{Method: MethodPay}, testEnv, nil)
	require.ErrorIs(err, ErrThresholdNotMet)
}

// Every subset of validated owners pays iff it has at least [Required]
// members, regardless of the order owners signed in.
func TestThresholdSubsets(t *testing.T) {
	for n := 1; n <= 4; n++ {
		_, pubs := newKeys(t, n)
		dest := testDest(t)
		for m := 1; m <= n; m++ {
			state, err := NewThreshold(pubs, uint8(m), dest)
			require.NoError(t, err)
			for mask := 0; mask < 1<<n; mask++ {
				forward, backward := state, state
				for i := 0; i < n; i++ {
					if mask&(1<<i) != 0 {
						forward = validated(t, forward, i)
					}
					if j := n - 1 - i; mask&(1<<j) != 0 {
						backward = validated(t, backward, j)
					}
				}
				require.True(t, Equal(forward, backward))

				_, err := forward.Next(Call{Method: MethodPay})
				if bits.OnesCount(uint(mask)) >= m {
					require.NoError(t, err, "n=%d m=%d mask=%b", n, m, mask)
				} else {
					require.ErrorIs(t, err, ErrThresholdNotMet, "n=%d m=%d mask=%b", n, m, mask)
				}
			}
		}
	}
}

func TestThresholdAddIdempotent(t *testing.T) {
	require := require.New(t)
	_, pubs := newKeys(t, 2)

	state, err := NewThreshold(pubs, 2, testDest(t))
	require.NoError(err)
	once := validated(t, state, 1)
	twice := validated(t, once, 1)
	require.True(Equal(once, twice))
	require.Equal(1, twice.ValidatedCount())

	// Transitions never mutate their receiver.
	require.Zero(state.ValidatedCount())

	for _, i := range []int{-1, 2} {
		_, err = state.WithValidated(i)
		require.ErrorIs(err, ErrInvalidIndex)
	}
}

func TestThresholdAddRejects(t *testing.T) {
	ctx := context.Background()
	privs, pubs := newKeys(t, 3)
	state, err := NewThreshold(pubs, 2, testDest(t))
	require.NoError(t, err)

	tests := []struct {
		name     string
		call     Call
		evidence *Evidence
		err      error
	}{
		{
			name:     "other owner's signature",
			call:     Call{Method: MethodAdd, Index: 0},
			evidence: evidenceOf(sign(t, testEnv, privs[1])),
			err:      ErrSignatureInvalid,
		},
		{
			name:     "signature over another digest",
			call:     Call{Method: MethodAdd, Index: 0},
			evidence: evidenceOf(sign(t, &Env{Digest: make([]byte, 32)}, privs[0])),
			err:      ErrSignatureInvalid,
		},
		{
			name:     "no evidence",
			call:     Call{Method: MethodAdd, Index: 2},
			evidence: nil,
			err:      ErrSignatureInvalid,
		},
		{
			name:     "index out of range",
			call:     Call{Method: MethodAdd, Index: 3},
			evidence: evidenceOf(sign(t, testEnv, privs[0])),
			err:      ErrInvalidIndex,
		},
		{
			name:     "unknown method",
			call:     Call{Method: MethodUnlock},
			evidence: evidenceOf(sign(t, testEnv, privs[0])),
			err:      ErrUnknownMethod,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := state.Authorize(ctx, tt.call, testEnv, tt.evidence)
			require.ErrorIs(t, err, tt.err)
		})
	}
}

func TestThresholdParticipantsStable(t *testing.T) {
	require := require.New(t)
	_, pubs := newKeys(t, 3)
	state, err := NewThreshold(pubs, 1, testDest(t))
	require.NoError(err)

	outcome, err := state.Next(Call{Method: MethodAdd, Index: 2})
	require.NoError(err)
	require.Equal(state.Participants(), outcome.Next.Participants())
	require.Equal(pubs, outcome.Next.Participants())
}
