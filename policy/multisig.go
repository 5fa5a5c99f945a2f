// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package policy

import (
	"context"
	"fmt"

	"github.com/ava-labs/avalanchego/utils/set"

	"github.com/ava-labs/utxostate/codec"
	"github.com/ava-labs/utxostate/consts"
	"github.com/ava-labs/utxostate/crypto/secp256k1"
)

var _ State = (*MultiSig)(nil)

// MultiSig is a stateless N-of-N payment to [Destination]. Owners are
// committed by key hash and reveal their public keys when they sign.
type MultiSig struct {
	KeyHashes   []codec.Address `json:"keyHashes"`
	Destination codec.Address   `json:"destination"`
}

func NewMultiSig(keyHashes []codec.Address, dest codec.Address) (*MultiSig, error) {
	if err := checkKeyHashes(keyHashes); err != nil {
		return nil, err
	}
	hashes := make([]codec.Address, len(keyHashes))
	copy(hashes, keyHashes)
	return &MultiSig{
		KeyHashes:   hashes,
		Destination: dest,
	}, nil
}

func checkKeyHashes(hashes []codec.Address) error {
	if len(hashes) == 0 || len(hashes) > consts.MaxParticipants {
		return fmt.Errorf("%w: %d", ErrInvalidParticipants, len(hashes))
	}
	seen := set.Of(hashes...)
	if seen.Len() != len(hashes) {
		return ErrDuplicateParticipant
	}
	return nil
}

func multiSigSize(n int) int {
	return consts.ByteLen*2 + n*codec.AddressLen + codec.AddressLen
}

func (*MultiSig) GetTypeID() uint8 {
	return MultiSigID
}

func (m *MultiSig) Size() int {
	return multiSigSize(len(m.KeyHashes))
}

func (m *MultiSig) Marshal(p *codec.Packer) {
	p.PackByte(MultiSigID)
	p.PackByte(uint8(len(m.KeyHashes)))
	for _, h := range m.KeyHashes {
		p.PackAddress(h)
	}
	p.PackAddress(m.Destination)
}

func unmarshalMultiSig(p *codec.Packer, total int) (*MultiSig, error) {
	p.UnpackByte() // type ID
	n, err := unpackCount(p, total, multiSigSize)
	if err != nil {
		return nil, err
	}
	m := MultiSig{KeyHashes: make([]codec.Address, n)}
	for i := range m.KeyHashes {
		p.UnpackAddress(&m.KeyHashes[i])
	}
	p.UnpackAddress(&m.Destination)
	p.Done()
	if err := p.Err(); err != nil {
		return nil, err
	}
	if err := checkKeyHashes(m.KeyHashes); err != nil {
		return nil, err
	}
	return &m, nil
}

// Participants is empty until owners reveal their keys.
func (*MultiSig) Participants() []secp256k1.PublicKey {
	return nil
}

func (m *MultiSig) Requirement(call Call) (*Requirement, error) {
	if call.Method != MethodUnlock {
		return nil, fmt.Errorf("%w: %s on %s", ErrUnknownMethod, call.Method, MultiSigKey)
	}
	hashes := make([]codec.Address, len(m.KeyHashes))
	copy(hashes, m.KeyHashes)
	return &Requirement{
		Method:    MethodUnlock,
		KeyHashes: hashes,
	}, nil
}

func (m *MultiSig) Next(call Call) (*Outcome, error) {
	if _, err := m.Requirement(call); err != nil {
		return nil, err
	}
	return Terminal(m.Destination), nil
}

// Authorize requires one signature per key hash, in commitment order.
func (m *MultiSig) Authorize(_ context.Context, call Call, env *Env, evidence *Evidence) error {
	if _, err := m.Requirement(call); err != nil {
		return err
	}
	if evidence == nil || len(evidence.Signatures) != len(m.KeyHashes) {
		return fmt.Errorf("%w: expected %d signatures", ErrSignatureInvalid, len(m.KeyHashes))
	}
	for i, sig := range evidence.Signatures {
		if sig.PublicKey.Address() != m.KeyHashes[i] {
			return fmt.Errorf("%w: key %d does not match its hash", ErrSignatureInvalid, i)
		}
		if !secp256k1.Verify(env.Digest, sig.PublicKey, sig.Value) {
			return fmt.Errorf("%w: bad signature %d", ErrSignatureInvalid, i)
		}
	}
	return nil
}
