// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package consts

import "github.com/ava-labs/avalanchego/utils/units"

const (
	ByteLen   = 1
	BoolLen   = 1
	Uint32Len = 4
	Uint64Len = 8
	IDLen     = 32

	MaxUint = ^uint(0)
	MaxInt  = int(MaxUint >> 1)

	// NetworkSizeLimit bounds any serialized transaction accepted by the
	// ledger.
	NetworkSizeLimit = 2 * units.MiB

	// MaxParticipants bounds the key set of a single contract.
	MaxParticipants = 32
)
