// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package codec

import "github.com/ava-labs/utxostate/consts"

func BytesLen(msg []byte) int {
	return consts.Uint32Len + len(msg)
}
