// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package signer

import "errors"

var (
	ErrKeyNotFound = errors.New("key not found")
	ErrNoKeys      = errors.New("no keys")
)
