package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/uhyunpark/cfxkit/pkg/crypto"
)

var (
	keystorePassword string
	keystoreOut      string
	keystoreScryptN  int
	keystoreScryptP  int
)

var keystoreCmd = &cobra.Command{
	Use:   "keystore",
	Short: "Seal and open V3 keystore files",
}

var keystoreEncryptCmd = &cobra.Command{
	Use:   "encrypt <privateKey>",
	Short: "Encrypt a private key into a V3 keystore",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		signer, err := crypto.FromPrivateKeyHex(args[0])
		if err != nil {
			return err
		}
		password, err := passwordOrPrompt(keystorePassword, true)
		if err != nil {
			return err
		}

		ks, err := signer.Keystore(password, crypto.ScryptParams{N: keystoreScryptN, P: keystoreScryptP})
		if err != nil {
			return err
		}
		if keystoreOut == "" {
			return printJSON(ks)
		}

		data, err := ks.JSON()
		if err != nil {
			return err
		}
		if err := os.WriteFile(keystoreOut, data, 0600); err != nil {
			return fmt.Errorf("write keystore: %w", err)
		}
		fmt.Fprintf(os.Stderr, "keystore for 0x%s written to %s\n", ks.Address, keystoreOut)
		return nil
	},
}

var keystoreDecryptCmd = &cobra.Command{
	Use:   "decrypt <file>",
	Short: "Decrypt a V3 keystore and print the key",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		signer, err := openKeystore(args[0], keystorePassword)
		if err != nil {
			return err
		}
		return printKey(signer)
	},
}

// openKeystore reads and decrypts a keystore file
func openKeystore(path, password string) (*crypto.Signer, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read keystore: %w", err)
	}
	ks, err := crypto.ParseKeystore(data)
	if err != nil {
		return nil, err
	}
	password, err = passwordOrPrompt(password, false)
	if err != nil {
		return nil, err
	}
	key, err := crypto.Decrypt(ks, password)
	if err != nil {
		return nil, err
	}
	return crypto.FromPrivateKey(key)
}

func init() {
	keystoreCmd.AddCommand(keystoreEncryptCmd)
	keystoreCmd.AddCommand(keystoreDecryptCmd)

	keystoreEncryptCmd.Flags().StringVarP(&keystorePassword, "password", "p", "", "keystore password (prompted when empty)")
	keystoreEncryptCmd.Flags().StringVarP(&keystoreOut, "out", "o", "", "write the keystore to this file instead of stdout")
	keystoreEncryptCmd.Flags().IntVar(&keystoreScryptN, "scrypt-n", crypto.DefaultScryptN, "scrypt cost parameter")
	keystoreEncryptCmd.Flags().IntVar(&keystoreScryptP, "scrypt-p", crypto.DefaultScryptP, "scrypt parallelism")

	keystoreDecryptCmd.Flags().StringVarP(&keystorePassword, "password", "p", "", "keystore password (prompted when empty)")
}
