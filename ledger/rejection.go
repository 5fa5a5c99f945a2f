// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package ledger

import (
	"errors"
	"fmt"

	"github.com/ava-labs/utxostate/policy"
)

const (
	MsgThresholdNotMet = "Not enough valid signatures."
	MsgLocktime        = "locktime has not yet expired"
	MsgSignature       = "signature check failed"
	MsgHashMismatch    = "hash mismatch"
	MsgExecution       = "Execution failed"
)

// Rejection is returned by [Ledger.Submit] when a transaction is not
// confirmed. [Message] is the human readable form of [Reason].
type Rejection struct {
	Reason  error
	Message string
}

func reject(reason error) *Rejection {
	return &Rejection{Reason: reason, Message: Message(reason)}
}

func (r *Rejection) Error() string {
	return fmt.Sprintf("%s (%v)", r.Message, r.Reason)
}

func (r *Rejection) Unwrap() error {
	return r.Reason
}

// Message maps a rejection reason to the message reported to callers.
func Message(err error) string {
	switch {
	case errors.Is(err, policy.ErrThresholdNotMet):
		return MsgThresholdNotMet
	case errors.Is(err, policy.ErrLocktimeNotExpired):
		return MsgLocktime
	case errors.Is(err, policy.ErrSignatureInvalid):
		return MsgSignature
	case errors.Is(err, policy.ErrPreimageMismatch):
		return MsgHashMismatch
	default:
		return MsgExecution
	}
}
