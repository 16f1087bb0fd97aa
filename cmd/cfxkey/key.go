package main

import (
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/spf13/cobra"

	"github.com/uhyunpark/cfxkit/pkg/crypto"
)

var keyEntropy string

type keyOutput struct {
	PrivateKey string `json:"privateKey"`
	PublicKey  string `json:"publicKey"`
	Hex        string `json:"hex"`
	Address    string `json:"address"`
}

var keyCmd = &cobra.Command{
	Use:   "key",
	Short: "Generate and inspect secp256k1 keys",
}

var keyNewCmd = &cobra.Command{
	Use:   "new",
	Short: "Generate a random private key",
	Long: `Generate a random private key.

--entropy mixes 32 extra bytes (hex) into the system randomness.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		var entropy []byte
		if keyEntropy != "" {
			var err error
			if entropy, err = hexutil.Decode(keyEntropy); err != nil {
				return err
			}
		}
		key, err := crypto.RandomPrivateKey(entropy)
		if err != nil {
			return err
		}
		signer, err := crypto.FromPrivateKey(key)
		if err != nil {
			return err
		}
		return printKey(signer)
	},
}

var keyInspectCmd = &cobra.Command{
	Use:   "inspect <privateKey>",
	Short: "Show the public key and address of a private key",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		signer, err := crypto.FromPrivateKeyHex(args[0])
		if err != nil {
			return err
		}
		return printKey(signer)
	},
}

func printKey(signer *crypto.Signer) error {
	addr, err := signer.Address(netName)
	if err != nil {
		return err
	}
	return printJSON(keyOutput{
		PrivateKey: signer.PrivateKeyHex(),
		PublicKey:  signer.PublicKeyHex(),
		Hex:        signer.HexAddress(),
		Address:    addr.String(),
	})
}

func init() {
	keyCmd.AddCommand(keyNewCmd)
	keyCmd.AddCommand(keyInspectCmd)

	keyNewCmd.Flags().StringVar(&keyEntropy, "entropy", "", "32 bytes of extra entropy, 0x-prefixed hex")
}
