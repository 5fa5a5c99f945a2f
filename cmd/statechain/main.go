// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// "statechain" drives contract instances against a local ledger.
package main

import (
	"context"
	"os"

	"github.com/ava-labs/utxostate/cmd/statechain/cmd"
	"github.com/ava-labs/utxostate/utils"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := cmd.NewRootCmd().ExecuteContext(ctx); err != nil {
		utils.Outf("{{red}}error: {{/}}%+v\n", err)
		os.Exit(1)
	}
	os.Exit(0)
}
