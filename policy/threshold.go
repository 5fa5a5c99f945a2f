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

var _ State = (*Threshold)(nil)

type Owner struct {
	PublicKey secp256k1.PublicKey `json:"publicKey"`
	Validated bool                `json:"validated"`
}

// Threshold collects signatures from its owners in any order, one transition
// per signature, and pays [Destination] once [Required] owners have signed.
type Threshold struct {
	Owners      []Owner       `json:"owners"`
	Required    uint8         `json:"required"`
	Destination codec.Address `json:"destination"`
}

func NewThreshold(keys []secp256k1.PublicKey, required uint8, dest codec.Address) (*Threshold, error) {
	if err := checkParticipants(keys); err != nil {
		return nil, err
	}
	if required == 0 || int(required) > len(keys) {
		return nil, fmt.Errorf("%w: %d of %d", ErrInvalidThreshold, required, len(keys))
	}
	owners := make([]Owner, len(keys))
	for i, key := range keys {
		owners[i] = Owner{PublicKey: key}
	}
	return &Threshold{
		Owners:      owners,
		Required:    required,
		Destination: dest,
	}, nil
}

func thresholdSize(n int) int {
	return consts.ByteLen*3 + n*(secp256k1.PublicKeyLen+consts.BoolLen) + codec.AddressLen
}

func (*Threshold) GetTypeID() uint8 {
	return ThresholdID
}

func (t *Threshold) Size() int {
	return thresholdSize(len(t.Owners))
}

func (t *Threshold) Marshal(p *codec.Packer) {
	p.PackByte(ThresholdID)
	p.PackByte(uint8(len(t.Owners)))
	p.PackByte(t.Required)
	for _, owner := range t.Owners {
		p.PackFixedBytes(owner.PublicKey[:])
	}
	for _, owner := range t.Owners {
		p.PackBool(owner.Validated)
	}
	p.PackAddress(t.Destination)
}

func unmarshalThreshold(p *codec.Packer, total int) (*Threshold, error) {
	p.UnpackByte() // type ID
	n, err := unpackCount(p, total, thresholdSize)
	if err != nil {
		return nil, err
	}
	var t Threshold
	t.Required = p.UnpackByte()
	keys := unpackKeys(p, n)
	t.Owners = make([]Owner, n)
	for i := range t.Owners {
		t.Owners[i] = Owner{
			PublicKey: keys[i],
			Validated: p.UnpackBool(),
		}
	}
	p.UnpackAddress(&t.Destination)
	p.Done()
	if err := p.Err(); err != nil {
		return nil, err
	}
	if err := checkParticipants(keys); err != nil {
		return nil, err
	}
	if t.Required == 0 || int(t.Required) > n {
		return nil, fmt.Errorf("%w: %d of %d", ErrInvalidThreshold, t.Required, n)
	}
	return &t, nil
}

func (t *Threshold) Participants() []secp256k1.PublicKey {
	keys := make([]secp256k1.PublicKey, len(t.Owners))
	for i, owner := range t.Owners {
		keys[i] = owner.PublicKey
	}
	return keys
}

// ValidatedCount returns the number of owners that have signed.
func (t *Threshold) ValidatedCount() int {
	var count int
	for _, owner := range t.Owners {
		if owner.Validated {
			count++
		}
	}
	return count
}

// WithValidated returns a new state with owner [i] marked as validated.
func (t *Threshold) WithValidated(i int) (*Threshold, error) {
	if i < 0 || i >= len(t.Owners) {
		return nil, fmt.Errorf("%w: %d >= %d", ErrInvalidIndex, i, len(t.Owners))
	}
	owners := make([]Owner, len(t.Owners))
	copy(owners, t.Owners)
	owners[i].Validated = true
	return &Threshold{
		Owners:      owners,
		Required:    t.Required,
		Destination: t.Destination,
	}, nil
}

func (t *Threshold) Requirement(call Call) (*Requirement, error) {
	switch call.Method {
	case MethodAdd:
		if int(call.Index) >= len(t.Owners) {
			return nil, fmt.Errorf("%w: %d >= %d", ErrInvalidIndex, call.Index, len(t.Owners))
		}
		return &Requirement{
			Method: MethodAdd,
			Keys:   []secp256k1.PublicKey{t.Owners[call.Index].PublicKey},
		}, nil
	case MethodPay:
		if count := t.ValidatedCount(); count < int(t.Required) {
			return nil, fmt.Errorf("%w: %d of %d validated", ErrThresholdNotMet, count, t.Required)
		}
		return &Requirement{Method: MethodPay}, nil
	default:
		return nil, fmt.Errorf("%w: %s on %s", ErrUnknownMethod, call.Method, ThresholdKey)
	}
}

func (t *Threshold) Next(call Call) (*Outcome, error) {
	if _, err := t.Requirement(call); err != nil {
		return nil, err
	}
	if call.Method == MethodPay {
		return Terminal(t.Destination), nil
	}
	next, err := t.WithValidated(int(call.Index))
	if err != nil {
		return nil, err
	}
	return ReCommit(next), nil
}

func (t *Threshold) Authorize(_ context.Context, call Call, env *Env, evidence *Evidence) error {
	req, err := t.Requirement(call)
	if err != nil {
		return err
	}
	for _, key := range req.Keys {
		if err := verifySig(env, evidence, key); err != nil {
			return err
		}
	}
	return nil
}
