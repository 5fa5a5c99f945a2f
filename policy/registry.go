// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package policy

import (
	"bytes"
	"fmt"

	"github.com/ava-labs/utxostate/codec"
)

// Encode returns the commitment of [s].
func Encode(s State) ([]byte, error) {
	size := s.Size()
	p := codec.NewWriter(size, size)
	s.Marshal(p)
	if err := p.Err(); err != nil {
		return nil, err
	}
	return p.Bytes(), nil
}

// Decode recovers a state from its commitment. Any deviation from the fixed
// layout of the encoded type is reported as ErrMalformedCommitment.
func Decode(b []byte) (State, error) {
	if len(b) == 0 {
		return nil, fmt.Errorf("%w: empty", ErrMalformedCommitment)
	}
	p := codec.NewReader(b, len(b))
	var (
		s   State
		err error
	)
	switch b[0] {
	case ThresholdID:
		s, err = unmarshalThreshold(p, len(b))
	case OrderedID:
		s, err = unmarshalOrdered(p, len(b))
	case SwapID:
		s, err = unmarshalSwap(p, len(b))
	case MultiSigID:
		s, err = unmarshalMultiSig(p, len(b))
	default:
		err = fmt.Errorf("%w: type %d", ErrUnknownPolicy, b[0])
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedCommitment, err)
	}
	return s, nil
}

// Equal reports whether two states have identical commitments.
func Equal(a, b State) bool {
	ab, err := Encode(a)
	if err != nil {
		return false
	}
	bb, err := Encode(b)
	if err != nil {
		return false
	}
	return bytes.Equal(ab, bb)
}

// Name returns the human readable name of a policy type.
func Name(typeID uint8) string {
	switch typeID {
	case ThresholdID:
		return ThresholdKey
	case OrderedID:
		return OrderedKey
	case SwapID:
		return SwapKey
	case MultiSigID:
		return MultiSigKey
	default:
		return fmt.Sprintf("policy(%d)", typeID)
	}
}
