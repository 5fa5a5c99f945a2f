// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package codec

import (
	"testing"

	"github.com/ava-labs/avalanchego/ids"
	"github.com/ava-labs/avalanchego/utils/wrappers"
	"github.com/stretchr/testify/require"

	"github.com/ava-labs/utxostate/consts"
)

func TestNewWriter(t *testing.T) {
	require := require.New(t)
	wr := NewWriter(2, 2)
	// Pack up to the limit
	wr.PackByte(1)
	wr.PackByte(2)
	require.NoError(wr.Err())
	require.Equal([]byte{1, 2}, wr.Bytes())

	// Pack past the limit
	wr.PackByte(3)
	require.ErrorIs(wr.Err(), wrappers.ErrInsufficientLength)
}

func TestPackerID(t *testing.T) {
	require := require.New(t)
	id := ids.GenerateTestID()

	wp := NewWriter(consts.IDLen, consts.IDLen)
	wp.PackID(id)
	require.NoError(wp.Err())

	rp := NewReader(wp.Bytes(), consts.IDLen)
	var unpacked ids.ID
	rp.UnpackID(true, &unpacked)
	require.Equal(id, unpacked)
	require.NoError(rp.Err())
	require.True(rp.Empty())

	// Required empty ID
	rp = NewReader(make([]byte, consts.IDLen), consts.IDLen)
	rp.UnpackID(true, &unpacked)
	require.ErrorIs(rp.Err(), ErrFieldNotPopulated)
}

func TestPackerUint64(t *testing.T) {
	require := require.New(t)
	wp := NewWriter(consts.Uint64Len, consts.Uint64Len)
	wp.PackUint64(1673510000)
	require.Equal([]byte{0, 0, 0, 0, 0x63, 0xbf, 0xbc, 0x70}, wp.Bytes())

	rp := NewReader(wp.Bytes(), consts.Uint64Len)
	require.Equal(uint64(1673510000), rp.UnpackUint64(true))
	require.NoError(rp.Err())

	rp = NewReader(make([]byte, consts.Uint64Len), consts.Uint64Len)
	require.Zero(rp.UnpackUint64(true))
	require.ErrorIs(rp.Err(), ErrFieldNotPopulated)
}

func TestPackerBool(t *testing.T) {
	require := require.New(t)
	wp := NewWriter(2, 2)
	wp.PackBool(true)
	wp.PackBool(false)
	require.Equal([]byte{1, 0}, wp.Bytes())

	rp := NewReader(wp.Bytes(), 2)
	require.True(rp.UnpackBool())
	require.False(rp.UnpackBool())
	require.NoError(rp.Err())

	// Only 0 and 1 are valid flags
	rp = NewReader([]byte{2}, 1)
	rp.UnpackBool()
	require.Error(rp.Err())
}

func TestPackerFixedBytes(t *testing.T) {
	require := require.New(t)
	src := []byte{1, 2, 3, 4}
	rp := NewReader(src, len(src))

	var dest []byte
	rp.UnpackFixedBytes(3, &dest)
	require.NoError(rp.Err())
	require.Equal([]byte{1, 2, 3}, dest)

	// Result must not alias the source buffer
	src[0] = 9
	require.Equal(byte(1), dest[0])

	rp.UnpackFixedBytes(3, &dest)
	require.ErrorIs(rp.Err(), wrappers.ErrInsufficientLength)
	require.Nil(dest)
}

func TestPackerUnpackBytes(t *testing.T) {
	tests := []struct {
		name        string
		value       []byte
		limit       int
		required    bool
		expectedErr error
	}{
		{
			name:  "within limit",
			value: []byte("preimage"),
			limit: 32,
		},
		{
			name:  "no limit",
			value: []byte("preimage"),
			limit: -1,
		},
		{
			name:        "over limit",
			value:       []byte("preimage"),
			limit:       2,
			expectedErr: ErrTooManyItems,
		},
		{
			name:        "required but empty",
			value:       []byte{},
			limit:       32,
			required:    true,
			expectedErr: ErrFieldNotPopulated,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require := require.New(t)
			wp := NewWriter(BytesLen(tt.value), consts.MaxInt)
			wp.PackBytes(tt.value)
			require.NoError(wp.Err())

			rp := NewReader(wp.Bytes(), consts.MaxInt)
			var dest []byte
			rp.UnpackBytes(tt.limit, tt.required, &dest)
			require.ErrorIs(rp.Err(), tt.expectedErr)
			if tt.expectedErr == nil {
				require.Equal(tt.value, dest)
			}
		})
	}
}

func TestPackerAddress(t *testing.T) {
	require := require.New(t)
	addr := testAddress()

	wp := NewWriter(AddressLen, AddressLen)
	wp.PackAddress(addr)
	require.NoError(wp.Err())

	rp := NewReader(wp.Bytes(), AddressLen)
	var unpacked Address
	rp.UnpackAddress(&unpacked)
	require.NoError(rp.Err())
	require.Equal(addr, unpacked)
}

func TestPackerDone(t *testing.T) {
	require := require.New(t)
	rp := NewReader([]byte{1, 2}, 2)
	rp.UnpackByte()
	rp.Done()
	require.ErrorIs(rp.Err(), ErrTrailingBytes)

	rp = NewReader([]byte{1}, 1)
	rp.UnpackByte()
	rp.Done()
	require.NoError(rp.Err())
}
