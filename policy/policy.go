// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package policy

import (
	"context"
	"fmt"

	"github.com/ava-labs/utxostate/codec"
	"github.com/ava-labs/utxostate/crypto/secp256k1"
)

type Method uint8

const (
	MethodAdd Method = iota
	MethodPay
	MethodUnlock
	MethodCancel
)

func (m Method) String() string {
	switch m {
	case MethodAdd:
		return "add"
	case MethodPay:
		return "pay"
	case MethodUnlock:
		return "unlock"
	case MethodCancel:
		return "cancel"
	default:
		return fmt.Sprintf("method(%d)", uint8(m))
	}
}

func ParseMethod(s string) (Method, error) {
	switch s {
	case "add":
		return MethodAdd, nil
	case "pay":
		return MethodPay, nil
	case "unlock":
		return MethodUnlock, nil
	case "cancel":
		return MethodCancel, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownMethod, s)
	}
}

// Call names the transition a spend performs. Index is only read by methods
// that address a single participant.
type Call struct {
	Method Method `json:"method"`
	Index  uint8  `json:"index"`
}

// Env is what a policy may observe about the successor transaction.
type Env struct {
	// Digest is the signature hash of the successor transaction.
	Digest []byte
	// LockTime is the successor transaction's lock time.
	LockTime uint64
}

// State is the mutable payload committed to a contract output. Every
// implementation is an immutable value: transitions return new states.
type State interface {
	// GetTypeID uniquely identifies the policy and is the first byte of its
	// commitment.
	GetTypeID() uint8

	// Size is the exact byte length of the commitment.
	Size() int

	Marshal(p *codec.Packer)

	// Participants returns a copy of the key set. Its length never changes
	// across the chain.
	Participants() []secp256k1.PublicKey

	// Requirement returns the evidence [call] needs against this state. It
	// fails early when no evidence could satisfy the call.
	Requirement(call Call) (*Requirement, error)

	// Next returns the outcome of [call] without looking at evidence.
	Next(call Call) (*Outcome, error)

	// Authorize checks [evidence] against the successor transaction.
	Authorize(ctx context.Context, call Call, env *Env, evidence *Evidence) error
}

// Requirement is the evidence shape bound to one state and call.
type Requirement struct {
	Method Method `json:"method"`
	// Keys that must each contribute a signature, in order.
	Keys []secp256k1.PublicKey `json:"keys,omitempty"`
	// KeyHashes that must each be matched, in order, by a signature whose
	// public key hashes to it.
	KeyHashes []codec.Address `json:"keyHashes,omitempty"`
	// Preimage is set when a hash preimage must be revealed.
	Preimage bool `json:"preimage,omitempty"`
	// MinLockTime is the smallest acceptable transaction lock time.
	MinLockTime uint64 `json:"minLockTime,omitempty"`
}

type OutcomeKind uint8

const (
	ReCommitKind OutcomeKind = iota
	TerminalKind
)

// Outcome is either a re-commitment of [Next] or a terminal payout to
// [Payee].
type Outcome struct {
	Kind  OutcomeKind
	Next  State
	Payee codec.Address
}

func ReCommit(next State) *Outcome {
	return &Outcome{Kind: ReCommitKind, Next: next}
}

func Terminal(payee codec.Address) *Outcome {
	return &Outcome{Kind: TerminalKind, Payee: payee}
}

func (o *Outcome) IsTerminal() bool {
	return o.Kind == TerminalKind
}
