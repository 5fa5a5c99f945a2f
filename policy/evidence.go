// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package policy

import (
	"fmt"

	"github.com/ava-labs/utxostate/codec"
	"github.com/ava-labs/utxostate/consts"
	"github.com/ava-labs/utxostate/crypto/secp256k1"
)

const signatureSize = secp256k1.PublicKeyLen + secp256k1.SignatureLen

// Signature is a signature over a successor digest, keyed to the public key
// that produced it.
type Signature struct {
	PublicKey secp256k1.PublicKey `json:"publicKey"`
	Value     secp256k1.Signature `json:"signature"`
}

// Evidence is supplied by participants for a single transition. It is only
// ever serialized inside the witness of the transaction it authorizes.
type Evidence struct {
	Signatures []*Signature `json:"signatures"`
	Preimage   []byte       `json:"preimage,omitempty"`
}

func (e *Evidence) Size() int {
	return consts.ByteLen + len(e.Signatures)*signatureSize + codec.BytesLen(e.Preimage)
}

func (e *Evidence) Marshal(p *codec.Packer) {
	p.PackByte(uint8(len(e.Signatures)))
	for _, sig := range e.Signatures {
		p.PackFixedBytes(sig.PublicKey[:])
		p.PackFixedBytes(sig.Value[:])
	}
	p.PackBytes(e.Preimage)
}

func UnmarshalEvidence(p *codec.Packer) (*Evidence, error) {
	var e Evidence
	count := int(p.UnpackByte())
	if count > consts.MaxParticipants {
		return nil, fmt.Errorf("%w: %d signatures", codec.ErrTooManyItems, count)
	}
	if count > 0 {
		e.Signatures = make([]*Signature, count)
	}
	for i := 0; i < count; i++ {
		var pk, sig []byte
		p.UnpackFixedBytes(secp256k1.PublicKeyLen, &pk)
		p.UnpackFixedBytes(secp256k1.SignatureLen, &sig)
		if err := p.Err(); err != nil {
			return nil, err
		}
		e.Signatures[i] = &Signature{
			PublicKey: secp256k1.PublicKey(pk),
			Value:     secp256k1.Signature(sig),
		}
	}
	p.UnpackBytes(MaxPreimageLen, false, &e.Preimage)
	if len(e.Preimage) == 0 {
		e.Preimage = nil
	}
	return &e, p.Err()
}

// FindSig returns the first signature in [pool] made by [key].
func FindSig(pool []*Signature, key secp256k1.PublicKey) (*Signature, error) {
	for _, sig := range pool {
		if sig.PublicKey == key {
			return sig, nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrMissingSignature, key)
}

// FindSigs selects one signature per key from [pool], in the order of
// [keys]. It fails if any key has no match.
func FindSigs(pool []*Signature, keys []secp256k1.PublicKey) ([]*Signature, error) {
	sigs := make([]*Signature, len(keys))
	for i, key := range keys {
		sig, err := FindSig(pool, key)
		if err != nil {
			return nil, err
		}
		sigs[i] = sig
	}
	return sigs, nil
}

// verifySig checks that [evidence] carries a valid signature by [key] over
// the successor digest.
func verifySig(env *Env, evidence *Evidence, key secp256k1.PublicKey) error {
	if evidence == nil {
		return fmt.Errorf("%w: no evidence", ErrSignatureInvalid)
	}
	sig, err := FindSig(evidence.Signatures, key)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrSignatureInvalid, err)
	}
	if !secp256k1.Verify(env.Digest, key, sig.Value) {
		return fmt.Errorf("%w: bad signature by %s", ErrSignatureInvalid, key)
	}
	return nil
}
