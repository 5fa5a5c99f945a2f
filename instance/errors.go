// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package instance

import "errors"

var ErrEmptyKeyRef = errors.New("key reference names neither a key nor an address")
