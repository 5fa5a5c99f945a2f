// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package policy

import (
	"context"
	"fmt"

	"github.com/ava-labs/avalanchego/utils/hashing"

	"github.com/ava-labs/utxostate/codec"
	"github.com/ava-labs/utxostate/consts"
	"github.com/ava-labs/utxostate/crypto/secp256k1"
)

var _ State = (*Swap)(nil)

const swapSize = consts.ByteLen + 2*secp256k1.PublicKeyLen + HashLen + consts.Uint64Len

// Swap locks funds for a cross-chain atomic swap. The initiator claims them by
// revealing the preimage of [Digest]; after [MinLockTime] the counterparty may
// take them back instead.
type Swap struct {
	Initiator    secp256k1.PublicKey `json:"initiator"`
	Counterparty secp256k1.PublicKey `json:"counterparty"`
	Digest       [HashLen]byte       `json:"digest"`
	MinLockTime  uint64              `json:"minLockTime"`
}

func NewSwap(initiator, counterparty secp256k1.PublicKey, digest [HashLen]byte, minLockTime uint64) (*Swap, error) {
	if err := checkParticipants([]secp256k1.PublicKey{initiator, counterparty}); err != nil {
		return nil, err
	}
	return &Swap{
		Initiator:    initiator,
		Counterparty: counterparty,
		Digest:       digest,
		MinLockTime:  minLockTime,
	}, nil
}

// HashPreimage returns the sha256 digest a swap commits to.
func HashPreimage(preimage []byte) [HashLen]byte {
	return [HashLen]byte(hashing.ComputeHash256Array(preimage))
}

func (*Swap) GetTypeID() uint8 {
	return SwapID
}

func (*Swap) Size() int {
	return swapSize
}

func (s *Swap) Marshal(p *codec.Packer) {
	p.PackByte(SwapID)
	p.PackFixedBytes(s.Initiator[:])
	p.PackFixedBytes(s.Counterparty[:])
	p.PackFixedBytes(s.Digest[:])
	p.PackUint64(s.MinLockTime)
}

func unmarshalSwap(p *codec.Packer, total int) (*Swap, error) {
	if total != swapSize {
		return nil, fmt.Errorf("%w: expected %d bytes, got %d", codec.ErrInvalidSize, swapSize, total)
	}
	p.UnpackByte() // type ID
	keys := unpackKeys(p, 2)
	var digest []byte
	p.UnpackFixedBytes(HashLen, &digest)
	s := &Swap{
		Initiator:    keys[0],
		Counterparty: keys[1],
		MinLockTime:  p.UnpackUint64(false),
	}
	copy(s.Digest[:], digest)
	p.Done()
	if err := p.Err(); err != nil {
		return nil, err
	}
	if err := checkParticipants(keys); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Swap) Participants() []secp256k1.PublicKey {
	return []secp256k1.PublicKey{s.Initiator, s.Counterparty}
}

func (s *Swap) Requirement(call Call) (*Requirement, error) {
	switch call.Method {
	case MethodUnlock:
		return &Requirement{
			Method:   MethodUnlock,
			Keys:     []secp256k1.PublicKey{s.Initiator},
			Preimage: true,
		}, nil
	case MethodCancel:
		return &Requirement{
			Method:      MethodCancel,
			Keys:        []secp256k1.PublicKey{s.Counterparty},
			MinLockTime: s.MinLockTime,
		}, nil
	default:
		return nil, fmt.Errorf("%w: %s on %s", ErrUnknownMethod, call.Method, SwapKey)
	}
}

func (s *Swap) Next(call Call) (*Outcome, error) {
	if _, err := s.Requirement(call); err != nil {
		return nil, err
	}
	if call.Method == MethodCancel {
		return Terminal(s.Counterparty.Address()), nil
	}
	return Terminal(s.Initiator.Address()), nil
}

func (s *Swap) Authorize(_ context.Context, call Call, env *Env, evidence *Evidence) error {
	req, err := s.Requirement(call)
	if err != nil {
		return err
	}
	switch call.Method {
	case MethodUnlock:
		if evidence == nil || HashPreimage(evidence.Preimage) != s.Digest {
			return ErrPreimageMismatch
		}
	case MethodCancel:
		if env.LockTime < s.MinLockTime {
			return fmt.Errorf("%w: %d < %d", ErrLocktimeNotExpired, env.LockTime, s.MinLockTime)
		}
	}
	return verifySig(env, evidence, req.Keys[0])
}
