// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package cmd

import (
	"github.com/spf13/cobra"

	"github.com/ava-labs/utxostate/crypto/secp256k1"
	"github.com/ava-labs/utxostate/utils"
)

func newKeyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "key",
		Short: "Manage secp256k1 keys",
		Run: func(cmd *cobra.Command, _ []string) {
			_ = cmd.Help()
		},
	}
	cmd.AddCommand(newKeyGenerateCmd(), newKeyShowCmd())
	return cmd
}

func newKeyGenerateCmd() *cobra.Command {
	var out string
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate a new private key",
		Args:  cobra.NoArgs,
		RunE: func(*cobra.Command, []string) error {
			priv, err := secp256k1.GeneratePrivateKey()
			if err != nil {
				return err
			}
			if len(out) > 0 {
				if err := utils.SaveBytes(out, priv[:]); err != nil {
					return err
				}
				utils.Outf("{{green}}saved key to:{{/}} %s\n", out)
			}
			printKey(priv)
			return nil
		},
	}
	cmd.Flags().StringVar(&out, "out", "", "file the raw private key is written to")
	return cmd
}

func newKeyShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show [path]",
		Short: "Print the public key and address of a saved private key",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			b, err := utils.LoadBytes(args[0], secp256k1.PrivateKeyLen)
			if err != nil {
				return err
			}
			printKey(secp256k1.PrivateKey(b))
			return nil
		},
	}
}

func printKey(priv secp256k1.PrivateKey) {
	pk := priv.PublicKey()
	utils.Outf("{{yellow}}private key:{{/}} %s\n", priv.ToHex())
	utils.Outf("{{yellow}}public key:{{/}} %s\n", pk)
	utils.Outf("{{yellow}}address:{{/}} %s\n", pk.Address())
}
