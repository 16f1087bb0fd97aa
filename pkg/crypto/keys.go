package crypto

import (
	"crypto/rand"
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/crypto"
	"golang.org/x/crypto/sha3"
)

const (
	PrivateKeyLength = 32
	PublicKeyLength  = 64
	AddressLength    = 20
	HashLength       = 32
	SignatureLength  = 65
	EntropyLength    = 32
)

var (
	ErrEntropyLength = errors.New("entropy must be 32 length")
	ErrKeyLength     = errors.New("invalid key length")
	ErrHashLength    = errors.New("hash must be 32 bytes")
)

// RandomBuffer returns size bytes from crypto/rand. Caller entropy, when
// given, is hashed together with the system randomness; it never replaces it.
func RandomBuffer(size int, entropy []byte) ([]byte, error) {
	if entropy != nil && len(entropy) != EntropyLength {
		return nil, fmt.Errorf("%w, got %d", ErrEntropyLength, len(entropy))
	}
	buf := make([]byte, size)
	if _, err := rand.Read(buf); err != nil {
		return nil, fmt.Errorf("failed to read random bytes: %w", err)
	}
	if entropy == nil {
		return buf, nil
	}

	h := sha3.NewLegacyKeccak256()
	var block []byte
	for off := 0; off < size; off += len(block) {
		h.Reset()
		h.Write(buf)
		h.Write(entropy)
		h.Write([]byte{byte(off >> 24), byte(off >> 16), byte(off >> 8), byte(off)})
		block = h.Sum(nil)
		for i := 0; i < len(block) && off+i < size; i++ {
			buf[off+i] ^= block[i]
		}
	}
	return buf, nil
}

// RandomPrivateKey draws a 32-byte secp256k1 private key.
func RandomPrivateKey(entropy []byte) ([]byte, error) {
	for {
		key, err := RandomBuffer(PrivateKeyLength, entropy)
		if err != nil {
			return nil, err
		}
		// out-of-range scalars are rejected by ToECDSA; draw again
		if _, err := crypto.ToECDSA(key); err == nil {
			return key, nil
		}
	}
}

// PrivateKeyToPublicKey returns the 64-byte uncompressed public key,
// without the 0x04 prefix.
func PrivateKeyToPublicKey(privateKey []byte) ([]byte, error) {
	if len(privateKey) != PrivateKeyLength {
		return nil, fmt.Errorf("%w: private key is %d bytes", ErrKeyLength, len(privateKey))
	}
	key, err := crypto.ToECDSA(privateKey)
	if err != nil {
		return nil, fmt.Errorf("failed to parse private key: %w", err)
	}
	return crypto.FromECDSAPub(&key.PublicKey)[1:], nil
}

// PublicKeyToAddress hashes a 64-byte public key with Keccak-256 and keeps
// the last 20 bytes. The type nibble is forced to 0x1 (user account).
func PublicKeyToAddress(publicKey []byte) ([]byte, error) {
	if len(publicKey) == PublicKeyLength+1 && publicKey[0] == 0x04 {
		publicKey = publicKey[1:]
	}
	if len(publicKey) != PublicKeyLength {
		return nil, fmt.Errorf("%w: public key is %d bytes", ErrKeyLength, len(publicKey))
	}
	addr := crypto.Keccak256(publicKey)[HashLength-AddressLength:]
	addr[0] = addr[0]&0x0f | 0x10
	return addr, nil
}

func PrivateKeyToAddress(privateKey []byte) ([]byte, error) {
	pub, err := PrivateKeyToPublicKey(privateKey)
	if err != nil {
		return nil, err
	}
	return PublicKeyToAddress(pub)
}

// Signature is a recoverable secp256k1 signature. V is the recovery id (0 or 1).
type Signature struct {
	R [32]byte
	S [32]byte
	V byte
}

// Bytes returns the signature in [R || S || V] form.
func (sig Signature) Bytes() []byte {
	out := make([]byte, SignatureLength)
	copy(out[:32], sig.R[:])
	copy(out[32:64], sig.S[:])
	out[64] = sig.V
	return out
}

// SignatureFromBytes splits a 65-byte [R || S || V] signature. A V of 27 or
// 28 is normalised to a recovery id.
func SignatureFromBytes(b []byte) (Signature, error) {
	if len(b) != SignatureLength {
		return Signature{}, fmt.Errorf("invalid signature length: %d", len(b))
	}
	var sig Signature
	copy(sig.R[:], b[:32])
	copy(sig.S[:], b[32:64])
	sig.V = b[64]
	if sig.V >= 27 {
		sig.V -= 27
	}
	return sig, nil
}

// EcdsaSign signs a 32-byte digest.
func EcdsaSign(hash []byte, privateKey []byte) (Signature, error) {
	if len(hash) != HashLength {
		return Signature{}, fmt.Errorf("%w, got %d", ErrHashLength, len(hash))
	}
	key, err := crypto.ToECDSA(privateKey)
	if err != nil {
		return Signature{}, fmt.Errorf("failed to parse private key: %w", err)
	}
	raw, err := crypto.Sign(hash, key)
	if err != nil {
		return Signature{}, fmt.Errorf("failed to sign: %w", err)
	}
	return SignatureFromBytes(raw)
}

// EcdsaRecover returns the 64-byte public key that produced sig over hash.
func EcdsaRecover(hash []byte, sig Signature) ([]byte, error) {
	if len(hash) != HashLength {
		return nil, fmt.Errorf("%w, got %d", ErrHashLength, len(hash))
	}
	pub, err := crypto.Ecrecover(hash, sig.Bytes())
	if err != nil {
		return nil, fmt.Errorf("failed to recover public key: %w", err)
	}
	return pub[1:], nil
}
