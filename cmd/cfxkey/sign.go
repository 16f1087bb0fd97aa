package main

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/spf13/cobra"

	"github.com/uhyunpark/cfxkit/pkg/crypto"
)

var (
	signKey      string
	signKeystore string
	signPassword string
)

type signatureOutput struct {
	Address   string `json:"address"`
	R         string `json:"r"`
	S         string `json:"s"`
	V         uint8  `json:"v"`
	Signature string `json:"signature"`
}

var signCmd = &cobra.Command{
	Use:   "sign <hash>",
	Short: "Sign a 32-byte digest",
	Long: `Sign a 32-byte digest with a raw key (--key) or a keystore file (--keystore).

The signature is r || s || v with v in {0, 1}.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		hash, err := hexutil.Decode(args[0])
		if err != nil {
			return fmt.Errorf("hash: %w", err)
		}

		var signer *crypto.Signer
		switch {
		case signKey != "" && signKeystore == "":
			signer, err = crypto.FromPrivateKeyHex(signKey)
		case signKey == "" && signKeystore != "":
			signer, err = openKeystore(signKeystore, signPassword)
		default:
			return fmt.Errorf("set exactly one of --key or --keystore")
		}
		if err != nil {
			return err
		}

		sig, err := signer.Sign(hash)
		if err != nil {
			return err
		}
		addr, err := signer.Address(netName)
		if err != nil {
			return err
		}
		return printJSON(signatureOutput{
			Address:   addr.String(),
			R:         hexutil.Encode(sig.R[:]),
			S:         hexutil.Encode(sig.S[:]),
			V:         sig.V,
			Signature: hexutil.Encode(sig.Bytes()),
		})
	},
}

var recoverCmd = &cobra.Command{
	Use:   "recover <hash> <signature>",
	Short: "Recover the signer address of a digest",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		hash, err := hexutil.Decode(args[0])
		if err != nil {
			return fmt.Errorf("hash: %w", err)
		}
		raw, err := hexutil.Decode(args[1])
		if err != nil {
			return fmt.Errorf("signature: %w", err)
		}
		sig, err := crypto.SignatureFromBytes(raw)
		if err != nil {
			return err
		}
		addr, err := crypto.RecoverAddress(hash, sig, netName)
		if err != nil {
			return err
		}
		return printAddress(addr)
	},
}

func init() {
	signCmd.Flags().StringVarP(&signKey, "key", "k", "", "0x-prefixed private key")
	signCmd.Flags().StringVar(&signKeystore, "keystore", "", "keystore file")
	signCmd.Flags().StringVarP(&signPassword, "password", "p", "", "keystore password (prompted when empty)")
}
