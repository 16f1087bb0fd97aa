package address

import (
	"encoding/hex"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/ethereum/go-ethereum/common"
)

// Base32 alphabet without the visually ambiguous I, L, O and Q.
const alphabet = "ABCDEFGHJKMNPRSTUVWXYZ0123456789"

const (
	versionByte = 0 // 20-byte hash => version 0
	addressLen  = 20
)

var (
	canonicalRegex = regexp.MustCompile(`^(CFX|CFXTEST|NET\d+):TYPE\.(USER|CONTRACT|BUILTIN|NULL):([` + alphabet + `]{34})([` + alphabet + `]{8})$`)
	simpleRegex    = regexp.MustCompile(`^(CFX|CFXTEST|NET\d+):([` + alphabet + `]{34})([` + alphabet + `]{8})$`)
	hexRegex       = regexp.MustCompile(`^0x[0-9a-f]{40}$`)
	netNameRegex   = regexp.MustCompile(`^(CFX|CFXTEST|NET\d+)$`)
)

var (
	ErrFormat           = errors.New("not match regex")
	ErrHexMismatch      = errors.New("hex not match regex /0x[0-9a-f]{40}/")
	ErrInvalidLength    = errors.New("invalid address length")
	ErrInvalidNetName   = errors.New("invalid net name")
	ErrUnexpectedPrefix = errors.New("unexpected address prefix")
	ErrVersionMismatch  = errors.New("unexpected version byte")
)

var alphabetIndex = func() [256]int8 {
	var idx [256]int8
	for i := range idx {
		idx[i] = -1
	}
	for i := 0; i < len(alphabet); i++ {
		idx[alphabet[i]] = int8(i)
	}
	return idx
}()

// Object is the structural decomposition of a CIP-37 address.
type Object struct {
	NetName     string `json:"netName"`
	AddressType Type   `json:"addressType"`
	Payload     string `json:"payload"`
	Checksum    string `json:"checksum"`
}

// ChecksumAddress is an immutable CIP-37 address of the form
// <netName>:TYPE.<type>:<payload><checksum>, always upper case.
//
// Construction validates the shape only. Checksum correctness is reported
// by IsValid, so a well-formed address with a wrong checksum can still be
// held and displayed.
type ChecksumAddress struct {
	str string
	obj Object
}

// New parses a canonical address string. Input is case-insensitive.
func New(s string) (ChecksumAddress, error) {
	upper := strings.ToUpper(s)
	m := canonicalRegex.FindStringSubmatch(upper)
	if m == nil {
		return ChecksumAddress{}, fmt.Errorf("string %q %w %s", s, ErrFormat, canonicalRegex)
	}
	return ChecksumAddress{
		str: upper,
		obj: Object{NetName: m[1], AddressType: Type(m[2]), Payload: m[3], Checksum: m[4]},
	}, nil
}

// MustNew is like New but panics on malformed input.
func MustNew(s string) ChecksumAddress {
	a, err := New(s)
	if err != nil {
		panic(err)
	}
	return a
}

// FromObject assembles an address from its parts without decoding them.
func FromObject(o Object) (ChecksumAddress, error) {
	return New(fmt.Sprintf("%s:TYPE.%s:%s%s", o.NetName, o.AddressType, o.Payload, o.Checksum))
}

// FromSimple expands a simple address such as
// "cfx:aarc9abycue0hhzgyrr53m6cxedgccrmmyybjgh4xg". The type is not part of
// the simple form, so the payload is decoded and classified.
func FromSimple(s string) (ChecksumAddress, error) {
	m := simpleRegex.FindStringSubmatch(strings.ToUpper(s))
	if m == nil {
		return ChecksumAddress{}, fmt.Errorf("string %q %w %s", s, ErrFormat, simpleRegex)
	}
	obj := Object{NetName: m[1], AddressType: TypeNull, Payload: m[2], Checksum: m[3]}
	untyped, err := FromObject(obj)
	if err != nil {
		return ChecksumAddress{}, err
	}
	buf, err := untyped.Bytes()
	if err != nil {
		return ChecksumAddress{}, err
	}
	if obj.AddressType, err = GetType(buf); err != nil {
		return ChecksumAddress{}, err
	}
	return FromObject(obj)
}

// FromBuffer encodes a raw 20-byte address for netName (CFX when empty).
func FromBuffer(buf []byte, netName string) (ChecksumAddress, error) {
	if netName == "" {
		netName = NetMain
	}
	netName = strings.ToUpper(netName)
	if !netNameRegex.MatchString(netName) {
		return ChecksumAddress{}, fmt.Errorf("%w %q", ErrInvalidNetName, netName)
	}
	if len(buf) != addressLen {
		return ChecksumAddress{}, fmt.Errorf("%w: got %d bytes, want %d", ErrInvalidLength, len(buf), addressLen)
	}
	addressType, err := GetType(buf)
	if err != nil {
		return ChecksumAddress{}, err
	}

	payload5, err := ConvertBits(append([]byte{versionByte}, buf...), 8, 5, true)
	if err != nil {
		return ChecksumAddress{}, err
	}

	symbols := make([]byte, 0, len(netName)+1+len(payload5)+8)
	symbols = append(symbols, netName5Bits(netName)...)
	symbols = append(symbols, 0)
	symbols = append(symbols, payload5...)
	symbols = append(symbols, 0, 0, 0, 0, 0, 0, 0, 0)
	checksum5 := checksumSymbols(PolyMod(symbols))

	return FromObject(Object{
		NetName:     netName,
		AddressType: addressType,
		Payload:     encodeSymbols(payload5),
		Checksum:    encodeSymbols(checksum5),
	})
}

// FromHex encodes a "0x"-prefixed lower-case 40 digit hex address.
func FromHex(h string, netName string) (ChecksumAddress, error) {
	if !hexRegex.MatchString(h) {
		return ChecksumAddress{}, ErrHexMismatch
	}
	buf, err := hex.DecodeString(h[2:])
	if err != nil {
		return ChecksumAddress{}, fmt.Errorf("decode hex: %w", err)
	}
	return FromBuffer(buf, netName)
}

// FromCommon encodes a go-ethereum address.
func FromCommon(addr common.Address, netName string) (ChecksumAddress, error) {
	return FromBuffer(addr.Bytes(), netName)
}

// Parse accepts any of the three textual forms: canonical, simple or hex.
// netName is only consulted for hex input. Hex input may be mixed case.
func Parse(s string, netName string) (ChecksumAddress, error) {
	s = strings.TrimSpace(s)
	switch {
	case strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X"):
		return FromHex("0x"+strings.ToLower(s[2:]), netName)
	case strings.Contains(strings.ToUpper(s), ":TYPE."):
		return New(s)
	default:
		return FromSimple(s)
	}
}

// String returns the canonical upper-case form.
func (a ChecksumAddress) String() string { return a.str }

// Object returns the structural decomposition of the address.
func (a ChecksumAddress) Object() Object { return a.obj }

func (a ChecksumAddress) NetName() string { return a.obj.NetName }
func (a ChecksumAddress) Type() Type      { return a.obj.AddressType }

// IsZero reports whether a is the zero value rather than a parsed address.
func (a ChecksumAddress) IsZero() bool { return a.str == "" }

func (a ChecksumAddress) Equal(b ChecksumAddress) bool { return a.str == b.str }

// Simple returns the lower-case form without the type tag.
func (a ChecksumAddress) Simple() string {
	if a.IsZero() {
		return ""
	}
	return strings.ToLower(a.obj.NetName + ":" + a.obj.Payload + a.obj.Checksum)
}

// Bytes decodes the payload back to the raw 20-byte address.
func (a ChecksumAddress) Bytes() ([]byte, error) {
	if a.IsZero() {
		return nil, fmt.Errorf("%w: empty address", ErrFormat)
	}
	payload5, err := decodeSymbols(a.obj.Payload)
	if err != nil {
		return nil, err
	}
	raw, err := ConvertBits(payload5, 5, 8, false)
	if err != nil {
		return nil, fmt.Errorf("decode payload: %w", err)
	}
	if len(raw) != addressLen+1 {
		return nil, fmt.Errorf("%w: decoded %d bytes", ErrInvalidLength, len(raw))
	}
	if raw[0] != versionByte {
		return nil, fmt.Errorf("%w %d", ErrVersionMismatch, raw[0])
	}
	return raw[1:], nil
}

// Hex returns the "0x"-prefixed lower-case hex of the raw address.
func (a ChecksumAddress) Hex() (string, error) {
	buf, err := a.Bytes()
	if err != nil {
		return "", err
	}
	return "0x" + hex.EncodeToString(buf), nil
}

// Common returns the raw address as a go-ethereum address.
func (a ChecksumAddress) Common() (common.Address, error) {
	buf, err := a.Bytes()
	if err != nil {
		return common.Address{}, err
	}
	return common.BytesToAddress(buf), nil
}

// IsValid recomputes the checksum. It never panics.
func (a ChecksumAddress) IsValid() bool {
	if a.IsZero() {
		return false
	}
	payload5, err := decodeSymbols(a.obj.Payload)
	if err != nil {
		return false
	}
	checksum5, err := decodeSymbols(a.obj.Checksum)
	if err != nil {
		return false
	}
	symbols := make([]byte, 0, len(a.obj.NetName)+1+len(payload5)+len(checksum5))
	symbols = append(symbols, netName5Bits(a.obj.NetName)...)
	symbols = append(symbols, 0)
	symbols = append(symbols, payload5...)
	symbols = append(symbols, checksum5...)
	return PolyMod(symbols) == 0
}

func (a ChecksumAddress) MarshalText() ([]byte, error) {
	return []byte(a.str), nil
}

// UnmarshalText accepts the canonical or the simple form.
func (a *ChecksumAddress) UnmarshalText(text []byte) error {
	parsed, err := Parse(string(text), NetMain)
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}

func netName5Bits(netName string) []byte {
	out := make([]byte, len(netName))
	for i := 0; i < len(netName); i++ {
		out[i] = netName[i] & 0x1f
	}
	return out
}

func encodeSymbols(symbols []byte) string {
	var sb strings.Builder
	sb.Grow(len(symbols))
	for _, s := range symbols {
		sb.WriteByte(alphabet[s])
	}
	return sb.String()
}

func decodeSymbols(s string) ([]byte, error) {
	out := make([]byte, len(s))
	for i := 0; i < len(s); i++ {
		v := alphabetIndex[s[i]]
		if v < 0 {
			return nil, fmt.Errorf("%w: invalid character %q", ErrFormat, s[i])
		}
		out[i] = byte(v)
	}
	return out, nil
}
