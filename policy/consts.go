// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package policy

// Note: commitments carry the type ID as their first byte. IDs are assigned
// explicitly because changing one breaks every deployed commitment.
const (
	ThresholdID uint8 = 0
	OrderedID   uint8 = 1
	SwapID      uint8 = 2
	MultiSigID  uint8 = 3

	ThresholdKey = "threshold"
	OrderedKey   = "ordered"
	SwapKey      = "swap"
	MultiSigKey  = "multisig"

	// HashLen is the width of the swap digest.
	HashLen = 32

	// MaxPreimageLen matches the largest stack element a Bitcoin script
	// may push.
	MaxPreimageLen = 520
)
