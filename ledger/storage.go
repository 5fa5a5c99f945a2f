// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package ledger

import (
	"errors"

	"github.com/ava-labs/avalanchego/database"

	"github.com/ava-labs/utxostate/chain"
	"github.com/ava-labs/utxostate/codec"
	"github.com/ava-labs/utxostate/consts"
)

const (
	utxoPrefix   = 0x0
	heightPrefix = 0x1
)

var heightKey = []byte{heightPrefix}

// Database is the subset of [database.Database] the ledger writes through.
type Database interface {
	database.KeyValueReaderWriterDeleter
	database.Batcher
}

// UTXOKey is [utxoPrefix] + txID + output index.
func UTXOKey(o chain.Outpoint) []byte {
	p := codec.NewWriter(consts.ByteLen+consts.IDLen+consts.Uint32Len, consts.MaxInt)
	p.PackByte(utxoPrefix)
	o.Marshal(p)
	return p.Bytes()
}

func getUTXO(db database.KeyValueReader, o chain.Outpoint) (*chain.Output, error) {
	v, err := db.Get(UTXOKey(o))
	if errors.Is(err, database.ErrNotFound) {
		return nil, ErrMissingInput
	}
	if err != nil {
		return nil, err
	}
	p := codec.NewReader(v, len(v))
	out, err := chain.UnmarshalOutput(p)
	if err != nil {
		return nil, err
	}
	p.Done()
	return out, p.Err()
}

func putUTXO(w database.KeyValueWriter, o chain.Outpoint, out *chain.Output) error {
	size := out.Size()
	p := codec.NewWriter(size, size)
	out.Marshal(p)
	if err := p.Err(); err != nil {
		return err
	}
	return w.Put(UTXOKey(o), p.Bytes())
}

func getHeight(db database.KeyValueReader) (uint64, error) {
	v, err := db.Get(heightKey)
	if errors.Is(err, database.ErrNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	p := codec.NewReader(v, consts.Uint64Len)
	height := p.UnpackUint64(false)
	return height, p.Err()
}

func putHeight(w database.KeyValueWriter, height uint64) error {
	p := codec.NewWriter(consts.Uint64Len, consts.Uint64Len)
	p.PackUint64(height)
	return w.Put(heightKey, p.Bytes())
}
