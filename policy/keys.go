// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package policy

import (
	"fmt"

	"github.com/ava-labs/avalanchego/utils/set"

	"github.com/ava-labs/utxostate/codec"
	"github.com/ava-labs/utxostate/consts"
	"github.com/ava-labs/utxostate/crypto/secp256k1"
)

func checkParticipants(keys []secp256k1.PublicKey) error {
	if len(keys) == 0 || len(keys) > consts.MaxParticipants {
		return fmt.Errorf("%w: %d", ErrInvalidParticipants, len(keys))
	}
	seen := set.NewSet[secp256k1.PublicKey](len(keys))
	for _, key := range keys {
		if _, err := secp256k1.ParsePublicKey(key[:]); err != nil {
			return fmt.Errorf("%w: %s", err, key)
		}
		if seen.Contains(key) {
			return fmt.Errorf("%w: %s", ErrDuplicateParticipant, key)
		}
		seen.Add(key)
	}
	return nil
}

func packKeys(p *codec.Packer, keys []secp256k1.PublicKey) {
	for _, key := range keys {
		p.PackFixedBytes(key[:])
	}
}

func unpackKeys(p *codec.Packer, n int) []secp256k1.PublicKey {
	keys := make([]secp256k1.PublicKey, n)
	for i := range keys {
		var b []byte
		p.UnpackFixedBytes(secp256k1.PublicKeyLen, &b)
		copy(keys[i][:], b)
	}
	return keys
}

// unpackCount reads a participant count and checks that the remaining
// commitment is exactly [size(n)] bytes long.
func unpackCount(p *codec.Packer, total int, size func(n int) int) (int, error) {
	n := int(p.UnpackByte())
	if err := p.Err(); err != nil {
		return 0, err
	}
	if n == 0 || n > consts.MaxParticipants {
		return 0, fmt.Errorf("%w: %d", ErrInvalidParticipants, n)
	}
	if expected := size(n); total != expected {
		return 0, fmt.Errorf("%w: expected %d bytes, got %d", codec.ErrInvalidSize, expected, total)
	}
	return n, nil
}

func copyKeys(keys []secp256k1.PublicKey) []secp256k1.PublicKey {
	c := make([]secp256k1.PublicKey, len(keys))
	copy(c, keys)
	return c
}
