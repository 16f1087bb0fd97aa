package crypto

import (
	"crypto/ecdsa"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"

	"github.com/uhyunpark/cfxkit/pkg/address"
)

// Signer holds a secp256k1 key pair and its derived account address
type Signer struct {
	privateKey *ecdsa.PrivateKey
	publicKey  []byte // 64 bytes, no prefix
	address    common.Address // 0x1_ type nibble
}

// GenerateKey creates a new random key pair
func GenerateKey() (*Signer, error) {
	key, err := RandomPrivateKey(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to generate key: %w", err)
	}
	return FromPrivateKey(key)
}

// FromPrivateKeyHex creates a Signer from a hex-encoded private key
// Format: "0x1234..." or "1234..." (64 hex chars)
func FromPrivateKeyHex(hexKey string) (*Signer, error) {
	if !strings.HasPrefix(hexKey, "0x") && !strings.HasPrefix(hexKey, "0X") {
		hexKey = "0x" + hexKey
	}
	key, err := hexutil.Decode(hexKey)
	if err != nil {
		return nil, fmt.Errorf("failed to parse private key: %w", err)
	}
	return FromPrivateKey(key)
}

// FromPrivateKey creates a Signer from 32 raw bytes
func FromPrivateKey(key []byte) (*Signer, error) {
	if len(key) != PrivateKeyLength {
		return nil, fmt.Errorf("%w: private key is %d bytes", ErrKeyLength, len(key))
	}
	privateKey, err := crypto.ToECDSA(key)
	if err != nil {
		return nil, fmt.Errorf("failed to parse private key: %w", err)
	}

	publicKey := crypto.FromECDSAPub(&privateKey.PublicKey)[1:]
	addr, err := PublicKeyToAddress(publicKey)
	if err != nil {
		return nil, err
	}

	return &Signer{
		privateKey: privateKey,
		publicKey:  publicKey,
		address:    common.BytesToAddress(addr),
	}, nil
}

// Address returns the CIP-37 address for netName
func (s *Signer) Address(netName string) (address.ChecksumAddress, error) {
	return address.FromCommon(s.address, netName)
}

// AddressBytes returns a copy of the raw 20-byte address
func (s *Signer) AddressBytes() []byte {
	return s.address.Bytes()
}

// HexAddress returns the raw address as 0x-prefixed lower-case hex
func (s *Signer) HexAddress() string {
	return hexutil.Encode(s.address[:])
}

// PrivateKey returns a copy of the 32-byte private key
// WARNING: Keep this secret! Never expose to users or logs
func (s *Signer) PrivateKey() []byte {
	return crypto.FromECDSA(s.privateKey)
}

// PrivateKeyHex returns the private key as hex string (WITHOUT 0x prefix)
// WARNING: Keep this secret! Never expose to users or logs
func (s *Signer) PrivateKeyHex() string {
	return fmt.Sprintf("%x", crypto.FromECDSA(s.privateKey))
}

// PublicKeyHex returns the public key as hex string (uncompressed, 128 chars)
func (s *Signer) PublicKeyHex() string {
	return fmt.Sprintf("%x", s.publicKey)
}

// Sign signs a 32-byte digest
func (s *Signer) Sign(hash []byte) (Signature, error) {
	return EcdsaSign(hash, crypto.FromECDSA(s.privateKey))
}

// SignMessage signs a message (not a hash) by first hashing it with Keccak256
func (s *Signer) SignMessage(message []byte) (Signature, error) {
	return s.Sign(crypto.Keccak256(message))
}

// Keystore seals the private key under password
func (s *Signer) Keystore(password string, params ScryptParams) (*Keystore, error) {
	return EncryptWithParams(crypto.FromECDSA(s.privateKey), password, params)
}

// RecoverAddress recovers the signer's address from a digest and signature
func RecoverAddress(hash []byte, sig Signature, netName string) (address.ChecksumAddress, error) {
	pub, err := EcdsaRecover(hash, sig)
	if err != nil {
		return address.ChecksumAddress{}, err
	}
	addr, err := PublicKeyToAddress(pub)
	if err != nil {
		return address.ChecksumAddress{}, err
	}
	return address.FromCommon(common.BytesToAddress(addr), netName)
}

// VerifySignature reports whether sig over hash was produced by the key
// behind addr. The net name of addr does not take part.
func VerifySignature(addr address.ChecksumAddress, hash []byte, sig Signature) bool {
	want, err := addr.Common()
	if err != nil {
		return false
	}
	pub, err := EcdsaRecover(hash, sig)
	if err != nil {
		return false
	}
	got, err := PublicKeyToAddress(pub)
	if err != nil {
		return false
	}
	return common.BytesToAddress(got) == want
}
