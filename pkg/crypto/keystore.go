package crypto

import (
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/keystore"
	"github.com/google/uuid"

	"github.com/uhyunpark/cfxkit/pkg/address"
)

// Keystore V3 constants. Only scrypt with aes-128-ctr is produced or accepted.
const (
	KeystoreVersion = 3
	CipherAES128CTR = "aes-128-ctr"
	KDFScrypt       = "scrypt"

	DefaultScryptN = 8192
	DefaultScryptP = 1
	scryptDKLen    = 32 // r=8 and dklen=32 are fixed by the V3 encoder

	// Upper bounds on scrypt cost accepted from keystore files. 128*r*n bytes
	// are allocated per derivation, so n=2^20 with r=8 is 1 GiB.
	MaxScryptN = 1 << 20
	maxScryptR = 32
	MaxScryptP = 16
)

var (
	ErrWrongPassword       = errors.New("Key derivation failed, possibly wrong password!")
	ErrUnsupportedKeystore = errors.New("unsupported keystore")
	ErrMalformedKeystore   = errors.New("malformed keystore")
)

// ScryptParams tunes the key-derivation cost of new keystores.
type ScryptParams struct {
	N int
	P int
}

func DefaultScryptParams() ScryptParams {
	return ScryptParams{N: DefaultScryptN, P: DefaultScryptP}
}

// Keystore is the V3 encrypted key container. Hex fields are lower case
// without a 0x prefix.
type Keystore struct {
	Version int        `json:"version"`
	ID      string     `json:"id"`
	Address string     `json:"address"`
	Crypto  CryptoJSON `json:"crypto"`
}

type CryptoJSON struct {
	Cipher       string       `json:"cipher"`
	CipherParams CipherParams `json:"cipherparams"`
	CipherText   string       `json:"ciphertext"`
	KDF          string       `json:"kdf"`
	KDFParams    KDFParams    `json:"kdfparams"`
	MAC          string       `json:"mac"`
}

type CipherParams struct {
	IV string `json:"iv"`
}

type KDFParams struct {
	Salt  string `json:"salt"`
	N     int    `json:"n"`
	R     int    `json:"r"`
	P     int    `json:"p"`
	DKLen int    `json:"dklen"`
}

// Encrypt seals a private key under password with the default scrypt cost.
func Encrypt(privateKey []byte, password string) (*Keystore, error) {
	return EncryptWithParams(privateKey, password, DefaultScryptParams())
}

// EncryptWithParams seals a private key: scrypt derives a 32-byte key, the
// first half keys aes-128-ctr and the second half is hashed with the
// ciphertext into the MAC.
func EncryptWithParams(privateKey []byte, password string, params ScryptParams) (*Keystore, error) {
	addr, err := PrivateKeyToAddress(privateKey)
	if err != nil {
		return nil, err
	}
	if !validScryptN(params.N) {
		return nil, fmt.Errorf("scrypt n must be a power of two in (1, %d], got %d", MaxScryptN, params.N)
	}
	if params.P < 1 || params.P > MaxScryptP {
		return nil, fmt.Errorf("scrypt p must be in [1, %d], got %d", MaxScryptP, params.P)
	}

	sealed, err := keystore.EncryptDataV3(privateKey, []byte(password), params.N, params.P)
	if err != nil {
		return nil, fmt.Errorf("failed to encrypt key: %w", err)
	}
	id, err := uuid.NewRandom()
	if err != nil {
		return nil, fmt.Errorf("failed to generate keystore id: %w", err)
	}

	c, err := fromV3(sealed)
	if err != nil {
		return nil, err
	}
	return &Keystore{
		Version: KeystoreVersion,
		ID:      id.String(),
		Address: hex.EncodeToString(addr),
		Crypto:  c,
	}, nil
}

// Decrypt recovers the private key. A MAC mismatch yields ErrWrongPassword.
func Decrypt(ks *Keystore, password string) ([]byte, error) {
	if ks == nil {
		return nil, fmt.Errorf("%w: nil keystore", ErrMalformedKeystore)
	}
	if ks.Version != KeystoreVersion {
		return nil, fmt.Errorf("%w: version %d", ErrUnsupportedKeystore, ks.Version)
	}
	if ks.Crypto.Cipher != CipherAES128CTR {
		return nil, fmt.Errorf("%w: cipher %q", ErrUnsupportedKeystore, ks.Crypto.Cipher)
	}
	if ks.Crypto.KDF != KDFScrypt {
		return nil, fmt.Errorf("%w: kdf %q", ErrUnsupportedKeystore, ks.Crypto.KDF)
	}
	if err := ks.Crypto.validate(); err != nil {
		return nil, err
	}

	key, err := keystore.DecryptDataV3(ks.Crypto.toV3(), password)
	if errors.Is(err, keystore.ErrDecrypt) {
		return nil, ErrWrongPassword
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedKeystore, err)
	}
	if len(key) != PrivateKeyLength {
		return nil, fmt.Errorf("%w: sealed key is %d bytes", ErrMalformedKeystore, len(key))
	}
	addr, err := PrivateKeyToAddress(key)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedKeystore, err)
	}
	if !strings.EqualFold(hex.EncodeToString(addr), ks.Address) {
		return nil, fmt.Errorf("%w: key derives 0x%x, file says 0x%s", ErrMalformedKeystore, addr, ks.Address)
	}
	return key, nil
}

// ParseKeystore decodes keystore JSON.
func ParseKeystore(data []byte) (*Keystore, error) {
	var ks Keystore
	if err := json.Unmarshal(data, &ks); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedKeystore, err)
	}
	return &ks, nil
}

// JSON encodes the keystore in its interchange form.
func (ks *Keystore) JSON() ([]byte, error) {
	return json.Marshal(ks)
}

// ChecksumAddress renders the embedded address for netName.
func (ks *Keystore) ChecksumAddress(netName string) (address.ChecksumAddress, error) {
	raw, err := hex.DecodeString(ks.Address)
	if err != nil {
		return address.ChecksumAddress{}, fmt.Errorf("%w: address: %v", ErrMalformedKeystore, err)
	}
	return address.FromBuffer(raw, netName)
}

func (c CryptoJSON) validate() error {
	fields := map[string]string{
		"ciphertext": c.CipherText,
		"iv":         c.CipherParams.IV,
		"salt":       c.KDFParams.Salt,
		"mac":        c.MAC,
	}
	for name, v := range fields {
		if _, err := hex.DecodeString(v); err != nil || v == "" {
			return fmt.Errorf("%w: %s is not hex", ErrMalformedKeystore, name)
		}
	}
	p := c.KDFParams
	if !validScryptN(p.N) || p.R < 1 || p.R > maxScryptR || p.P < 1 || p.P > MaxScryptP || p.DKLen != scryptDKLen {
		return fmt.Errorf("%w: kdfparams n=%d r=%d p=%d dklen=%d", ErrMalformedKeystore, p.N, p.R, p.P, p.DKLen)
	}
	return nil
}

func validScryptN(n int) bool {
	return n > 1 && n <= MaxScryptN && n&(n-1) == 0
}

func (c CryptoJSON) toV3() keystore.CryptoJSON {
	out := keystore.CryptoJSON{
		Cipher:     c.Cipher,
		CipherText: c.CipherText,
		KDF:        c.KDF,
		MAC:        c.MAC,
		KDFParams: map[string]interface{}{
			"salt":  c.KDFParams.Salt,
			"n":     c.KDFParams.N,
			"r":     c.KDFParams.R,
			"p":     c.KDFParams.P,
			"dklen": c.KDFParams.DKLen,
		},
	}
	out.CipherParams.IV = c.CipherParams.IV
	return out
}

func fromV3(c keystore.CryptoJSON) (CryptoJSON, error) {
	salt, ok := c.KDFParams["salt"].(string)
	if !ok {
		return CryptoJSON{}, fmt.Errorf("%w: salt missing", ErrMalformedKeystore)
	}
	return CryptoJSON{
		Cipher:       c.Cipher,
		CipherParams: CipherParams{IV: c.CipherParams.IV},
		CipherText:   c.CipherText,
		KDF:          c.KDF,
		KDFParams: KDFParams{
			Salt:  salt,
			N:     paramInt(c.KDFParams["n"]),
			R:     paramInt(c.KDFParams["r"]),
			P:     paramInt(c.KDFParams["p"]),
			DKLen: paramInt(c.KDFParams["dklen"]),
		},
		MAC: c.MAC,
	}, nil
}

func paramInt(v interface{}) int {
	switch n := v.(type) {
	case int:
		return n
	case float64:
		return int(n)
	default:
		return 0
	}
}
