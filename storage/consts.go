// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package storage

// UTXODir is the sub-directory of the data directory holding the UTXO set.
const UTXODir = "utxodb"
