package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/uhyunpark/cfxkit/pkg/address"
)

type addressOutput struct {
	Address string         `json:"address"`
	Simple  string         `json:"simple"`
	Hex     string         `json:"hex"`
	Valid   bool           `json:"valid"`
	Object  address.Object `json:"object"`
}

var addressCmd = &cobra.Command{
	Use:   "address",
	Short: "Encode, decode and validate checksum addresses",
}

var addressEncodeCmd = &cobra.Command{
	Use:   "encode <hex>",
	Short: "Encode a 0x-prefixed hex address for --net",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		addr, err := address.FromHex(args[0], netName)
		if err != nil {
			return err
		}
		return printAddress(addr)
	},
}

var addressDecodeCmd = &cobra.Command{
	Use:   "decode <address>",
	Short: "Decode a canonical or simple address",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		addr, err := address.Parse(args[0], netName)
		if err != nil {
			return err
		}
		return printAddress(addr)
	},
}

var addressValidateCmd = &cobra.Command{
	Use:   "validate <address>",
	Short: "Check the format and checksum of an address",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		addr, err := address.Parse(args[0], netName)
		if err != nil {
			return err
		}
		if !addr.IsValid() {
			return fmt.Errorf("checksum mismatch: %s", args[0])
		}
		fmt.Println("valid")
		return nil
	},
}

func printAddress(addr address.ChecksumAddress) error {
	h, err := addr.Hex()
	if err != nil {
		return err
	}
	return printJSON(addressOutput{
		Address: addr.String(),
		Simple:  addr.Simple(),
		Hex:     h,
		Valid:   addr.IsValid(),
		Object:  addr.Object(),
	})
}

func init() {
	addressCmd.AddCommand(addressEncodeCmd)
	addressCmd.AddCommand(addressDecodeCmd)
	addressCmd.AddCommand(addressValidateCmd)
}
