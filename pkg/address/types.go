package address

import (
	"bytes"
	"encoding/hex"
	"fmt"
	"strconv"
)

// Type classifies an address by the top nibble of its first byte.
type Type string

const (
	TypeNull     Type = "NULL"     // all-zero address
	TypeBuiltin  Type = "BUILTIN"  // 0x0_
	TypeUser     Type = "USER"     // 0x1_
	TypeContract Type = "CONTRACT" // 0x8_
)

func (t Type) String() string { return string(t) }

// Net names. Networks other than main and test are named NET<chainID>.
const (
	NetMain = "CFX"
	NetTest = "CFXTEST"
)

// Chain IDs with reserved net names.
const (
	MainnetChainID uint64 = 1029
	TestnetChainID uint64 = 1
)

// NetNameFromChainID maps a chain ID to its net name.
func NetNameFromChainID(chainID uint64) string {
	switch chainID {
	case MainnetChainID:
		return NetMain
	case TestnetChainID:
		return NetTest
	default:
		return "NET" + strconv.FormatUint(chainID, 10)
	}
}

var nullAddress [20]byte

// GetType classifies a raw 20-byte address. The all-zero address is checked
// first and is always TypeNull.
func GetType(buf []byte) (Type, error) {
	if len(buf) == 0 {
		return "", fmt.Errorf("%w: empty address", ErrInvalidLength)
	}
	if bytes.Equal(buf, nullAddress[:]) {
		return TypeNull, nil
	}
	switch buf[0] & 0xf0 {
	case 0x00:
		return TypeBuiltin, nil
	case 0x10:
		return TypeUser, nil
	case 0x80:
		return TypeContract, nil
	default:
		return "", fmt.Errorf("%w %s", ErrUnexpectedPrefix, hex.EncodeToString(buf))
	}
}
