// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package signer

import (
	"bytes"
	"context"
	"fmt"
	"slices"
	"sync"

	"golang.org/x/exp/maps"

	"github.com/ava-labs/utxostate/chain"
	"github.com/ava-labs/utxostate/codec"
	"github.com/ava-labs/utxostate/crypto/secp256k1"
	"github.com/ava-labs/utxostate/policy"
)

var _ chain.Signer = (*Local)(nil)

// Local holds private keys in memory and signs transaction digests with them.
type Local struct {
	l    sync.RWMutex
	keys map[secp256k1.PublicKey]secp256k1.PrivateKey
}

func New(keys ...secp256k1.PrivateKey) *Local {
	s := &Local{keys: make(map[secp256k1.PublicKey]secp256k1.PrivateKey, len(keys))}
	for _, key := range keys {
		s.Add(key)
	}
	return s
}

// Add stores [key] and returns its public key.
func (s *Local) Add(key secp256k1.PrivateKey) secp256k1.PublicKey {
	s.l.Lock()
	defer s.l.Unlock()

	pk := key.PublicKey()
	s.keys[pk] = key
	return pk
}

// PublicKeys returns every stored public key in byte order.
func (s *Local) PublicKeys() []secp256k1.PublicKey {
	s.l.RLock()
	defer s.l.RUnlock()

	keys := maps.Keys(s.keys)
	slices.SortFunc(keys, func(a, b secp256k1.PublicKey) int {
		return bytes.Compare(a[:], b[:])
	})
	return keys
}

// DefaultAddress is the address of the first public key.
func (s *Local) DefaultAddress() (codec.Address, error) {
	keys := s.PublicKeys()
	if len(keys) == 0 {
		return codec.EmptyAddress, ErrNoKeys
	}
	return keys[0].Address(), nil
}

// Lookup returns the stored public key hashing to [addr].
func (s *Local) Lookup(ctx context.Context, addr codec.Address) (secp256k1.PublicKey, error) {
	if err := ctx.Err(); err != nil {
		return secp256k1.EmptyPublicKey, err
	}
	for _, pk := range s.PublicKeys() {
		if pk.Address() == addr {
			return pk, nil
		}
	}
	return secp256k1.EmptyPublicKey, fmt.Errorf("%w: %s", ErrKeyNotFound, addr)
}

func (s *Local) Sign(ctx context.Context, tx *chain.Transaction, keys []secp256k1.PublicKey) ([]*policy.Signature, error) {
	digest, err := tx.Digest()
	if err != nil {
		return nil, err
	}

	s.l.RLock()
	defer s.l.RUnlock()

	sigs := make([]*policy.Signature, 0, len(keys))
	for _, pk := range keys {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		priv, ok := s.keys[pk]
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrKeyNotFound, pk)
		}
		sig, err := secp256k1.Sign(digest, priv)
		if err != nil {
			return nil, err
		}
		sigs = append(sigs, &policy.Signature{PublicKey: pk, Value: sig})
	}
	return sigs, nil
}
