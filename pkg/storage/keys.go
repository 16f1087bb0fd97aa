package storage

import (
	"encoding/hex"
	"fmt"
)

// Keystore key schema for Pebble storage
//
//   ks:<hex40 address>  → Record (JSON)
//
// Addresses are stored as raw lower-case hex so one record serves every
// net name the address is rendered under.

const prefixKeystore = "ks:"

// keystoreKey returns the key for a keystore record
// Format: "ks:{hex address}"
func keystoreKey(addr []byte) []byte {
	return []byte(prefixKeystore + hex.EncodeToString(addr))
}

// keystorePrefix returns the prefix for all keystore records
func keystorePrefix() []byte {
	return []byte(prefixKeystore)
}

// keyUpperBound returns the exclusive upper bound for a prefix scan
func keyUpperBound(prefix []byte) []byte {
	bound := make([]byte, len(prefix))
	copy(bound, prefix)
	bound[len(bound)-1]++
	return bound
}

// addressFromKey extracts the raw address from a keystore key
// Inverse of keystoreKey() - used for parsing iterator keys
func addressFromKey(key []byte) ([]byte, error) {
	if len(key) != len(prefixKeystore)+40 {
		return nil, fmt.Errorf("invalid keystore key length: %d", len(key))
	}
	return hex.DecodeString(string(key[len(prefixKeystore):]))
}
