// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package ledger

import "errors"

var (
	ErrMissingInput  = errors.New("missing or spent input")
	ErrSpentMismatch = errors.New("spent output does not match utxo")
	ErrNonFinal      = errors.New("transaction lock time not reached")
	ErrZeroValue     = errors.New("zero value")
)
