// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package policy

import "errors"

var (
	ErrMalformedCommitment  = errors.New("malformed commitment")
	ErrSignatureInvalid     = errors.New("signature invalid")
	ErrThresholdNotMet      = errors.New("threshold not met")
	ErrOutOfOrder           = errors.New("signature out of order")
	ErrPreimageMismatch     = errors.New("preimage mismatch")
	ErrLocktimeNotExpired   = errors.New("locktime not expired")
	ErrMissingSignature     = errors.New("missing signature")
	ErrUnknownMethod        = errors.New("unknown method")
	ErrUnknownPolicy        = errors.New("unknown policy")
	ErrInvalidIndex         = errors.New("invalid participant index")
	ErrInvalidParticipants  = errors.New("invalid participant count")
	ErrDuplicateParticipant = errors.New("duplicate participant")
	ErrInvalidThreshold     = errors.New("invalid threshold")
)
