// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package policy

import (
	"context"
	"fmt"

	"github.com/ava-labs/utxostate/codec"
	"github.com/ava-labs/utxostate/consts"
	"github.com/ava-labs/utxostate/crypto/secp256k1"
)

var _ State = (*Ordered)(nil)

// Ordered accepts one signature per transition, strictly in the order of
// [Signers]. The last signature pays [Destination].
type Ordered struct {
	Signers     []secp256k1.PublicKey `json:"signers"`
	Cursor      uint64                `json:"cursor"`
	Destination codec.Address         `json:"destination"`
}

func NewOrdered(signers []secp256k1.PublicKey, dest codec.Address) (*Ordered, error) {
	if err := checkParticipants(signers); err != nil {
		return nil, err
	}
	return &Ordered{
		Signers:     copyKeys(signers),
		Destination: dest,
	}, nil
}

func orderedSize(n int) int {
	return consts.ByteLen*2 + n*secp256k1.PublicKeyLen + consts.Uint64Len + codec.AddressLen
}

func (*Ordered) GetTypeID() uint8 {
	return OrderedID
}

func (o *Ordered) Size() int {
	return orderedSize(len(o.Signers))
}

func (o *Ordered) Marshal(p *codec.Packer) {
	p.PackByte(OrderedID)
	p.PackByte(uint8(len(o.Signers)))
	packKeys(p, o.Signers)
	p.PackUint64(o.Cursor)
	p.PackAddress(o.Destination)
}

func unmarshalOrdered(p *codec.Packer, total int) (*Ordered, error) {
	p.UnpackByte() // type ID
	n, err := unpackCount(p, total, orderedSize)
	if err != nil {
		return nil, err
	}
	var o Ordered
	o.Signers = unpackKeys(p, n)
	o.Cursor = p.UnpackUint64(false)
	p.UnpackAddress(&o.Destination)
	p.Done()
	if err := p.Err(); err != nil {
		return nil, err
	}
	if err := checkParticipants(o.Signers); err != nil {
		return nil, err
	}
	// A state whose cursor ran past the last signer is never committed.
	if o.Cursor >= uint64(n) {
		return nil, fmt.Errorf("%w: cursor %d >= %d", ErrInvalidIndex, o.Cursor, n)
	}
	return &o, nil
}

func (o *Ordered) Participants() []secp256k1.PublicKey {
	return copyKeys(o.Signers)
}

// Advance returns a new state with the cursor moved to the next signer.
func (o *Ordered) Advance() *Ordered {
	return &Ordered{
		Signers:     copyKeys(o.Signers),
		Cursor:      o.Cursor + 1,
		Destination: o.Destination,
	}
}

func (o *Ordered) Requirement(call Call) (*Requirement, error) {
	if call.Method != MethodUnlock {
		return nil, fmt.Errorf("%w: %s on %s", ErrUnknownMethod, call.Method, OrderedKey)
	}
	if o.Cursor >= uint64(len(o.Signers)) {
		return nil, fmt.Errorf("%w: cursor %d >= %d", ErrInvalidIndex, o.Cursor, len(o.Signers))
	}
	return &Requirement{
		Method: MethodUnlock,
		Keys:   []secp256k1.PublicKey{o.Signers[o.Cursor]},
	}, nil
}

func (o *Ordered) Next(call Call) (*Outcome, error) {
	if _, err := o.Requirement(call); err != nil {
		return nil, err
	}
	if o.Cursor == uint64(len(o.Signers)-1) {
		return Terminal(o.Destination), nil
	}
	return ReCommit(o.Advance()), nil
}

func (o *Ordered) Authorize(_ context.Context, call Call, env *Env, evidence *Evidence) error {
	req, err := o.Requirement(call)
	if err != nil {
		return err
	}
	expected := req.Keys[0]
	if evidence != nil {
		if _, err := FindSig(evidence.Signatures, expected); err != nil {
			// Only the cursor's slot is checked, so a valid signature by any
			// other signer is rejected as well.
			for _, sig := range evidence.Signatures {
				for i, signer := range o.Signers {
					if sig.PublicKey == signer {
						return fmt.Errorf("%w: %w: signer %d presented at cursor %d", ErrOutOfOrder, ErrSignatureInvalid, i, o.Cursor)
					}
				}
			}
		}
	}
	return verifySig(env, evidence, expected)
}
