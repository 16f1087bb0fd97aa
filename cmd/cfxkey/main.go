package main

import (
	"encoding/json"
	"fmt"
	"os"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/uhyunpark/cfxkit/pkg/address"
)

var (
	netName string
	chainID uint64
)

// rootCmd is the offline key and address tool
var rootCmd = &cobra.Command{
	Use:   "cfxkey",
	Short: "Conflux address and key utility",
	Long: `cfxkey converts between hex and base32 checksum addresses,
generates secp256k1 keys, seals them into V3 keystores and signs digests.

Everything runs offline. Nothing is written unless --out is given.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if !cmd.Flags().Changed("chain-id") {
			return nil
		}
		if cmd.Flags().Changed("net") {
			return fmt.Errorf("--net and --chain-id are mutually exclusive")
		}
		netName = address.NetNameFromChainID(chainID)
		return nil
	},
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&netName, "net", "n", address.NetMain, "network name (CFX, CFXTEST or NET<chainId>)")
	rootCmd.PersistentFlags().Uint64Var(&chainID, "chain-id", 0, "chain id, resolved to a network name (1029 is CFX, 1 is CFXTEST)")

	rootCmd.AddCommand(addressCmd)
	rootCmd.AddCommand(keyCmd)
	rootCmd.AddCommand(keystoreCmd)
	rootCmd.AddCommand(signCmd)
	rootCmd.AddCommand(recoverCmd)
}

// printJSON writes v indented to stdout
func printJSON(v interface{}) error {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal output: %w", err)
	}
	fmt.Println(string(out))
	return nil
}

// promptPassword reads a password from the terminal without echo
func promptPassword(prompt string) (string, error) {
	fmt.Fprint(os.Stderr, prompt+": ")
	pw, err := term.ReadPassword(int(syscall.Stdin))
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", fmt.Errorf("read password: %w", err)
	}
	return string(pw), nil
}

// passwordOrPrompt returns flagValue or asks for one, twice when confirm is set
func passwordOrPrompt(flagValue string, confirm bool) (string, error) {
	if flagValue != "" {
		return flagValue, nil
	}
	pw, err := promptPassword("Password")
	if err != nil {
		return "", err
	}
	if confirm {
		again, err := promptPassword("Repeat password")
		if err != nil {
			return "", err
		}
		if pw != again {
			return "", fmt.Errorf("passwords do not match")
		}
	}
	return pw, nil
}
