// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package chain

import "errors"

var (
	// Value
	ErrValueNotConserved    = errors.New("value not conserved")
	ErrMissingChangeAddress = errors.New("change without change address")

	// Shape
	ErrNoContractInput         = errors.New("no contract input")
	ErrUnexpectedInput         = errors.New("funding input spends a contract")
	ErrMalformedTransaction    = errors.New("malformed transaction")
	ErrUnexpectedOutput        = errors.New("unexpected contract output")
	ErrMissingWitness          = errors.New("missing witness")
	ErrParticipantCountChanged = errors.New("participant count changed")
	ErrInvalidOutputType       = errors.New("invalid output type")
	ErrNoInputs                = errors.New("no inputs")
	ErrNoOutputs               = errors.New("no outputs")

	// State chain
	ErrChainTerminated = errors.New("state chain terminated")
	ErrNotHeadSpend    = errors.New("transaction does not spend the head")
	ErrNotRecommitted  = errors.New("output is not a commitment")
)
