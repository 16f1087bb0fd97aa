package api

import (
	"encoding/json"

	"github.com/uhyunpark/cfxkit/pkg/address"
)

// API request/response types for REST endpoints

// ==============================
// REST Response Types
// ==============================

// AddressInfo describes one address in every form
type AddressInfo struct {
	Address address.ChecksumAddress `json:"address"` // Canonical "CFX:TYPE.USER:..."
	Simple  string                  `json:"simple"`  // Lower case, no type tag
	Hex     string                  `json:"hex"`     // 0x-prefixed raw address
	Type    string                  `json:"type"`    // NULL, BUILTIN, USER, CONTRACT
	NetName string                  `json:"netName"`
	Valid   bool                    `json:"valid"` // Checksum verified
	Object  address.Object          `json:"object"`
}

// SignatureInfo carries a recoverable signature in split and joined form
type SignatureInfo struct {
	R         string `json:"r"`
	S         string `json:"s"`
	V         uint8  `json:"v"`
	Signature string `json:"signature"` // 0x || R || S || V
}

// ErrorResponse is returned for all errors
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// ==============================
// REST Request Types
// ==============================

// EncodeAddressRequest is the payload for POST /api/v1/addresses/encode
type EncodeAddressRequest struct {
	Hex     string `json:"hex"`
	NetName string `json:"netName,omitempty"` // defaults to the node's network
}

// CreateAccountRequest is the payload for POST /api/v1/accounts
type CreateAccountRequest struct {
	Label    string `json:"label,omitempty"`
	Password string `json:"password"`
}

// ImportAccountRequest is the payload for POST /api/v1/accounts/import
// Exactly one of PrivateKey or Keystore is set.
type ImportAccountRequest struct {
	Label      string          `json:"label,omitempty"`
	Password   string          `json:"password"`
	PrivateKey string          `json:"privateKey,omitempty"`
	Keystore   json.RawMessage `json:"keystore,omitempty"`
}

// PasswordRequest is the payload for unlock and delete
type PasswordRequest struct {
	Password string `json:"password"`
}

// SignRequest is the payload for POST /api/v1/accounts/{address}/sign
type SignRequest struct {
	Hash string `json:"hash"` // 0x-prefixed 32-byte digest
}

// RecoverRequest is the payload for POST /api/v1/recover
type RecoverRequest struct {
	Hash      string `json:"hash"`
	Signature string `json:"signature"` // 65 bytes, 0x-prefixed
	NetName   string `json:"netName,omitempty"`
}
