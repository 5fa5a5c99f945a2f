// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package secp256k1

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"math/big"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcec/v2/ecdsa"
	"github.com/btcsuite/btcd/btcutil"
	"golang.org/x/crypto/cryptobyte"
	"golang.org/x/crypto/cryptobyte/asn1"

	"github.com/ava-labs/utxostate/codec"
	"github.com/ava-labs/utxostate/crypto"
)

const (
	PublicKeyLen  = 33 // compressed
	PrivateKeyLen = 32
	SignatureLen  = 64 // r || s

	rsLen = 32
)

type (
	PublicKey  [PublicKeyLen]byte
	PrivateKey [PrivateKeyLen]byte
	Signature  [SignatureLen]byte
)

var (
	EmptyPublicKey  = [PublicKeyLen]byte{}
	EmptyPrivateKey = [PrivateKeyLen]byte{}
	EmptySignature  = [SignatureLen]byte{}
)

// GeneratePrivateKey returns a secp256k1 PrivateKey.
func GeneratePrivateKey() (PrivateKey, error) {
	k, err := btcec.NewPrivateKey()
	if err != nil {
		return EmptyPrivateKey, err
	}
	return PrivateKey(k.Serialize()), nil
}

// PublicKey returns the compressed PublicKey associated with p.
func (p PrivateKey) PublicKey() PublicKey {
	_, pub := btcec.PrivKeyFromBytes(p[:])
	return PublicKey(pub.SerializeCompressed())
}

// ToHex converts a PrivateKey to a hex string.
func (p PrivateKey) ToHex() string {
	return hex.EncodeToString(p[:])
}

// HexToKey converts a hexadecimal encoded key into a PrivateKey. Returns
// an EmptyPrivateKey and error if key is invalid.
func HexToKey(key string) (PrivateKey, error) {
	bytes, err := codec.LoadHex(key, PrivateKeyLen)
	if err != nil {
		return EmptyPrivateKey, crypto.ErrInvalidPrivateKey
	}
	return PrivateKey(bytes), nil
}

// ParsePublicKey checks that [b] is a valid compressed point on the curve.
func ParsePublicKey(b []byte) (PublicKey, error) {
	if len(b) != PublicKeyLen {
		return EmptyPublicKey, crypto.ErrInvalidPublicKey
	}
	if _, err := btcec.ParsePubKey(b); err != nil {
		return EmptyPublicKey, crypto.ErrInvalidPublicKey
	}
	return PublicKey(b), nil
}

// String implements fmt.Stringer.
func (p PublicKey) String() string {
	return hex.EncodeToString(p[:])
}

// MarshalText returns the hex representation of p.
func (p PublicKey) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

// UnmarshalText parses a hex-encoded compressed public key.
func (p *PublicKey) UnmarshalText(text []byte) error {
	b, err := codec.LoadHex(string(text), PublicKeyLen)
	if err != nil {
		return err
	}
	pk, err := ParsePublicKey(b)
	if err != nil {
		return err
	}
	*p = pk
	return nil
}

// Address returns the HASH160 destination paying to p.
func (p PublicKey) Address() codec.Address {
	return codec.Address(btcutil.Hash160(p[:]))
}

// parseASN1Signature parses a DER encoded secp256k1 signature.
//
// source: https://cs.opensource.google/go/go/+/refs/tags/go1.21.3:src/crypto/ecdsa/ecdsa.go;l=549
func parseASN1Signature(sig []byte) (r, s *big.Int, err error) {
	var inner cryptobyte.String
	input := cryptobyte.String(sig)
	r, s = new(big.Int), new(big.Int)
	if !input.ReadASN1(&inner, asn1.SEQUENCE) ||
		!input.Empty() ||
		!inner.ReadASN1Integer(r) ||
		!inner.ReadASN1Integer(s) ||
		!inner.Empty() {
		return nil, nil, errors.New("invalid ASN.1")
	}
	return r, s, nil
}

// Sign returns a deterministic (RFC6979) signature of sha256(msg) by p.
//
// btcec always produces an [s] in the lower half of the curve order.
func Sign(msg []byte, p PrivateKey) (Signature, error) {
	priv, _ := btcec.PrivKeyFromBytes(p[:])
	digest := sha256.Sum256(msg)
	r, s, err := parseASN1Signature(ecdsa.Sign(priv, digest[:]).Serialize())
	if err != nil {
		return EmptySignature, err
	}
	var sig Signature
	r.FillBytes(sig[:rsLen])
	s.FillBytes(sig[rsLen:])
	return sig, nil
}

// Verify returns whether sig is a valid signature of msg by p.
//
// The value of [s] in [sig] must be in the lower half of the curve
// order for the signature to be considered valid.
func Verify(msg []byte, p PublicKey, sig Signature) bool {
	pub, err := btcec.ParsePubKey(p[:])
	if err != nil {
		return false
	}

	var r, s btcec.ModNScalar
	if overflow := r.SetByteSlice(sig[:rsLen]); overflow || r.IsZero() {
		return false
	}
	if overflow := s.SetByteSlice(sig[rsLen:]); overflow || s.IsZero() {
		return false
	}
	if s.IsOverHalfOrder() {
		return false
	}

	digest := sha256.Sum256(msg)
	return ecdsa.NewSignature(&r, &s).Verify(digest[:], pub)
}
