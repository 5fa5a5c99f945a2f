// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package codec

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

func testAddress() Address {
	var a Address
	for i := range a {
		a[i] = byte(i + 1)
	}
	return a
}

func TestAddress(t *testing.T) {
	require := require.New(t)
	addr := testAddress()

	addrStr, err := addr.MarshalText()
	require.NoError(err)
	require.Equal("0x0102030405060708090a0b0c0d0e0f1011121314", string(addrStr))

	var parsedAddr Address
	require.NoError(parsedAddr.UnmarshalText(addrStr))
	require.Equal(addr, parsedAddr)
}

func TestAddressJSON(t *testing.T) {
	require := require.New(t)
	addr := testAddress()

	addrJSONBytes, err := json.Marshal(addr)
	require.NoError(err)

	var parsedAddr Address
	require.NoError(json.Unmarshal(addrJSONBytes, &parsedAddr))
	require.Equal(addr, parsedAddr)
}

func TestHexToAddress(t *testing.T) {
	require := require.New(t)
	addr := testAddress()

	parsed, err := HexToAddress(addr.String())
	require.NoError(err)
	require.Equal(addr, parsed)

	_, err = HexToAddress("0102")
	require.ErrorIs(err, ErrInvalidSize)

	_, err = HexToAddress("zz")
	require.Error(err)
}
