// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package chain

import (
	"context"

	"github.com/ava-labs/avalanchego/ids"

	"github.com/ava-labs/utxostate/codec"
	"github.com/ava-labs/utxostate/crypto/secp256k1"
	"github.com/ava-labs/utxostate/policy"
)

//go:generate go run go.uber.org/mock/mockgen -package=signertest -destination=../signer/signertest/mocks.go . Signer,Broadcaster

// Signer produces signatures over [Transaction.Digest] for the requested
// keys.
type Signer interface {
	// Lookup returns the held public key hashing to [addr].
	Lookup(ctx context.Context, addr codec.Address) (secp256k1.PublicKey, error)

	// Sign fails if it does not hold one of [keys].
	Sign(ctx context.Context, tx *Transaction, keys []secp256k1.PublicKey) ([]*policy.Signature, error)
}

// Broadcaster submits a signed transition. It returns a confirmation once the
// transition is final or an error describing the rejection.
type Broadcaster interface {
	Submit(ctx context.Context, tx *Transaction) (*Confirmation, error)
}

type Confirmation struct {
	TxID   ids.ID `json:"txID"`
	Height uint64 `json:"height"`
}
