// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package utils

import (
	"os"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/ava-labs/avalanchego/ids"
	"github.com/stretchr/testify/require"
)

func TestSaveBytes(t *testing.T) {
	require := require.New(t)
	filename := filepath.Join(t.TempDir(), "SaveBytes")

	id := ids.GenerateTestID()
	require.NoError(SaveBytes(filename, id[:]))
	require.FileExists(filename)

	b, err := LoadBytes(filename, ids.IDLen)
	require.NoError(err)
	require.Equal(id[:], b)
}

func TestLoadBytesIncorrectLength(t *testing.T) {
	require := require.New(t)
	filename := filepath.Join(t.TempDir(), "LoadBytes")
	require.NoError(os.WriteFile(filename, []byte{1, 2, 3, 4, 5}, 0o600))

	_, err := LoadBytes(filename, ids.IDLen)
	require.ErrorIs(err, ErrInvalidSize)
}

func TestLoadKeyInvalidFile(t *testing.T) {
	_, err := LoadBytes(filepath.Join(t.TempDir(), "FileNameDoesntExist"), ids.IDLen)
	require.ErrorIs(t, err, os.ErrNotExist)
}

func TestInitSubDirectory(t *testing.T) {
	require := require.New(t)
	root := t.TempDir()
	p, err := InitSubDirectory(root, "utxodb")
	require.NoError(err)
	require.DirExists(p)
	require.Equal(filepath.Join(root, "utxodb"), p)
}

func TestFormatAndParseBalance(t *testing.T) {
	require := require.New(t)

	testCases := []struct {
		input    uint64
		expected string
	}{
		{100000000, "1.00000000"},
		{12345678, "0.12345678"},
		{123456789, "1.23456789"},
		{987654321, "9.87654321"},
		{0, "0.00000000"},
	}

	for _, tc := range testCases {
		formatted := FormatBalance(tc.input)
		require.Equal(tc.expected, formatted)

		parsed, err := ParseBalance(tc.expected)
		require.NoError(err)
		require.Equal(tc.input, parsed)
	}

	_, err := ParseBalance("invalid")
	require.ErrorIs(err, strconv.ErrSyntax)
}
