package address

import (
	"bytes"
	"crypto/rand"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/ethereum/go-ethereum/common"
)

const nullCFX = "CFX:TYPE.NULL:AAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAA0SFBNJM2"

func TestNew(t *testing.T) {
	_, err := New("")
	if !errors.Is(err, ErrFormat) {
		t.Fatalf("err = %v, want %v", err, ErrFormat)
	}
	if !strings.Contains(err.Error(), "not match regex") {
		t.Errorf("error message = %q", err.Error())
	}

	a, err := New("CFX:TYPE.USER:AARC9ABYCUE0HHZGYRR53M6CXEDGCCRMMYYBJGH4XG")
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if a.String() != "CFX:TYPE.USER:AARC9ABYCUE0HHZGYRR53M6CXEDGCCRMMYYBJGH4XG" {
		t.Errorf("string = %s", a)
	}

	lower, err := New("cfx:type.user:aarc9abycue0hhzgyrr53m6cxedgccrmmyybjgh4xg")
	if err != nil {
		t.Fatalf("new lower: %v", err)
	}
	if !a.Equal(lower) {
		t.Errorf("%s != %s", a, lower)
	}

	for _, bad := range []string{
		"CFX:TYPE.USER:AARC9ABYCUE0HHZGYRR53M6CXEDGCCRMMYYBJGH4XL", // 'L' is outside the alphabet
		"CFX:TYPE.USER:AARC9ABYCUE0HHZGYRR53M6CXEDGCCRMMYYBJGH4X",  // checksum one character short
	} {
		if _, err := New(bad); !errors.Is(err, ErrFormat) {
			t.Errorf("New(%q) err = %v, want %v", bad, err, ErrFormat)
		}
	}
}

func TestFromHex(t *testing.T) {
	tests := []struct {
		hex     string
		netName string
		want    string
	}{
		{"0x0000000000000000000000000000000000000000", "", nullCFX},
		{"0x0000000000000000000000000000000000000000", "CFXTEST", "CFXTEST:TYPE.NULL:AAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAA6F0VRCSW"},
		{"0x0000000000000000000000000000000000000000", "NET8", "NET8:TYPE.NULL:AAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAABM73N8R6"},
		{"0x0888000000000000000000000000000000000002", "CFX", "CFX:TYPE.BUILTIN:AAEJUAAAAAAAAAAAAAAAAAAAAAAAAAAAAJRWUC9JNB"},
		{"0x0888000000000000000000000000000000000002", "CFXTEST", "CFXTEST:TYPE.BUILTIN:AAEJUAAAAAAAAAAAAAAAAAAAAAAAAAAAAJH3DW3CTN"},
		{"0x1a2f80341409639ea6a35bbcab8299066109aa55", "CFX", "CFX:TYPE.USER:AARC9ABYCUE0HHZGYRR53M6CXEDGCCRMMYYBJGH4XG"},
		{"0x1a2f80341409639ea6a35bbcab8299066109aa55", "CFXTEST", "CFXTEST:TYPE.USER:AARC9ABYCUE0HHZGYRR53M6CXEDGCCRMMY8M50BU1P"},
		{"0x85d80245dc02f5a89589e1f19c5c718e405b56cd", "CFX", "CFX:TYPE.CONTRACT:ACC7UAWF5UBTNMEZVHU9DHC6SGHEA0403Y2DGPYFJP"},
		{"0x85d80245dc02f5a89589e1f19c5c718e405b56cd", "CFXTEST", "CFXTEST:TYPE.CONTRACT:ACC7UAWF5UBTNMEZVHU9DHC6SGHEA0403YWJZ6WTPG"},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			a, err := FromHex(tt.hex, tt.netName)
			if err != nil {
				t.Fatalf("from hex: %v", err)
			}
			if a.String() != tt.want {
				t.Errorf("address = %s, want %s", a, tt.want)
			}
			if !a.IsValid() {
				t.Errorf("%s has invalid checksum", a)
			}

			h, err := a.Hex()
			if err != nil {
				t.Fatalf("hex: %v", err)
			}
			if h != tt.hex {
				t.Errorf("hex = %s, want %s", h, tt.hex)
			}
		})
	}

	for _, bad := range []string{
		"",
		"0x00000000000000000000000000000000000000",
		"0x1A2F80341409639EA6A35BBCAB8299066109AA55",
	} {
		if _, err := FromHex(bad, NetMain); !errors.Is(err, ErrHexMismatch) {
			t.Errorf("FromHex(%q) err = %v, want %v", bad, err, ErrHexMismatch)
		}
	}

	_, err := FromHex("0x2000000000000000000000000000000000000000", NetMain)
	if !errors.Is(err, ErrUnexpectedPrefix) {
		t.Fatalf("err = %v, want %v", err, ErrUnexpectedPrefix)
	}
	if !strings.Contains(err.Error(), "unexpected address prefix") {
		t.Errorf("error message = %q", err.Error())
	}
}

func TestFromBufferNetName(t *testing.T) {
	buf := make([]byte, 20)
	if _, err := FromBuffer(buf, "MAINNET"); !errors.Is(err, ErrInvalidNetName) {
		t.Errorf("err = %v, want %v", err, ErrInvalidNetName)
	}
	if _, err := FromBuffer(buf[:19], NetMain); !errors.Is(err, ErrInvalidLength) {
		t.Errorf("err = %v, want %v", err, ErrInvalidLength)
	}

	// Lower-case net names are normalised
	a, err := FromBuffer(buf, "cfxtest")
	if err != nil {
		t.Fatalf("from buffer: %v", err)
	}
	if a.NetName() != NetTest {
		t.Errorf("net name = %s, want %s", a.NetName(), NetTest)
	}
}

func TestFromSimple(t *testing.T) {
	tests := map[string]string{
		"cfx:aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa0sfbnjm2": nullCFX,
		"cfx:aaejuaaaaaaaaaaaaaaaaaaaaaaaaaaaajrwuc9jnb": "CFX:TYPE.BUILTIN:AAEJUAAAAAAAAAAAAAAAAAAAAAAAAAAAAJRWUC9JNB",
		"cfx:aarc9abycue0hhzgyrr53m6cxedgccrmmyybjgh4xg": "CFX:TYPE.USER:AARC9ABYCUE0HHZGYRR53M6CXEDGCCRMMYYBJGH4XG",
		"cfx:acc7uawf5ubtnmezvhu9dhc6sghea0403y2dgpyfjp": "CFX:TYPE.CONTRACT:ACC7UAWF5UBTNMEZVHU9DHC6SGHEA0403Y2DGPYFJP",
	}
	for simple, want := range tests {
		a, err := FromSimple(simple)
		if err != nil {
			t.Errorf("FromSimple(%s): %v", simple, err)
			continue
		}
		if a.String() != want {
			t.Errorf("FromSimple(%s) = %s, want %s", simple, a, want)
		}
		if a.Simple() != simple {
			t.Errorf("simple = %s, want %s", a.Simple(), simple)
		}
	}

	if _, err := FromSimple("cfx:aauaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa054z9ya"); !errors.Is(err, ErrFormat) {
		t.Errorf("err = %v, want %v", err, ErrFormat)
	}
	if _, err := FromSimple("cfx:aauaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa054z9ya1"); !errors.Is(err, ErrUnexpectedPrefix) {
		t.Errorf("err = %v, want %v", err, ErrUnexpectedPrefix)
	}
}

func TestConversions(t *testing.T) {
	a := MustNew(nullCFX)
	if !a.IsValid() {
		t.Error("null address has invalid checksum")
	}

	h, err := a.Hex()
	if err != nil {
		t.Fatalf("hex: %v", err)
	}
	if h != "0x0000000000000000000000000000000000000000" {
		t.Errorf("hex = %s", h)
	}

	buf, err := a.Bytes()
	if err != nil {
		t.Fatalf("bytes: %v", err)
	}
	if !bytes.Equal(buf, make([]byte, 20)) {
		t.Errorf("bytes = %x", buf)
	}

	if a.Simple() != "cfx:aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa0sfbnjm2" {
		t.Errorf("simple = %s", a.Simple())
	}
	want := Object{
		NetName:     "CFX",
		AddressType: TypeNull,
		Payload:     "AAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAA",
		Checksum:    "0SFBNJM2",
	}
	if a.Object() != want {
		t.Errorf("object = %+v, want %+v", a.Object(), want)
	}

	b := MustNew("CFX:TYPE.BUILTIN:AAEJUAAAAAAAAAAAAAAAAAAAAAAAAAAAAJRWUC9JNB")
	h, err = b.Hex()
	if err != nil {
		t.Fatalf("hex: %v", err)
	}
	if h != "0x0888000000000000000000000000000000000002" {
		t.Errorf("hex = %s", h)
	}
}

func TestIsValid(t *testing.T) {
	tests := []struct {
		addr ChecksumAddress
		want bool
	}{
		{MustNew("CFX:TYPE.NULL:AAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAA0SFBNJM2"), true},
		{MustNew("CFX:TYPE.NULL:AAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAA0SFBNJM3"), false},
		// The checksum is bound to the net name
		{MustNew("CFXTEST:TYPE.NULL:AAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAA0SFBNJM2"), false},
		{ChecksumAddress{}, false},
	}
	for _, tt := range tests {
		if got := tt.addr.IsValid(); got != tt.want {
			t.Errorf("IsValid(%q) = %v, want %v", tt.addr, got, tt.want)
		}
	}
}

func TestChecksumSensitivity(t *testing.T) {
	a, err := FromHex("0x1a2f80341409639ea6a35bbcab8299066109aa55", NetMain)
	if err != nil {
		t.Fatalf("from hex: %v", err)
	}
	s := a.String()
	last := len(s) - 1

	for _, c := range alphabet {
		if byte(c) == s[last] {
			continue
		}
		mutated := MustNew(s[:last] + string(c))
		if mutated.IsValid() {
			t.Errorf("%s should be invalid", mutated)
		}
	}
}

func TestGetType(t *testing.T) {
	buf := make([]byte, 20)
	typ, err := GetType(buf)
	if err != nil || typ != TypeNull {
		t.Errorf("GetType(zero) = %s, %v; want NULL", typ, err)
	}

	tests := []struct {
		first byte
		want  Type
	}{
		{0x08, TypeBuiltin},
		{0x1a, TypeUser},
		{0x85, TypeContract},
	}
	for _, tt := range tests {
		buf := make([]byte, 20)
		buf[0], buf[1] = tt.first, 0x88
		typ, err := GetType(buf)
		if err != nil {
			t.Errorf("GetType(%#x): %v", tt.first, err)
			continue
		}
		if typ != tt.want {
			t.Errorf("GetType(%#x) = %s, want %s", tt.first, typ, tt.want)
		}
	}

	buf[0] = 0x20
	if _, err := GetType(buf); !errors.Is(err, ErrUnexpectedPrefix) {
		t.Errorf("err = %v, want %v", err, ErrUnexpectedPrefix)
	}
}

func TestRoundTrip(t *testing.T) {
	for _, netName := range []string{NetMain, NetTest, "NET8", "NET2021"} {
		for i := 0; i < 64; i++ {
			buf := make([]byte, 20)
			if _, err := rand.Read(buf); err != nil {
				t.Fatalf("rand: %v", err)
			}
			buf[0] = buf[0]&0x0f | []byte{0x00, 0x10, 0x80}[i%3]

			a, err := FromBuffer(buf, netName)
			if err != nil {
				t.Fatalf("from buffer %x: %v", buf, err)
			}
			if !a.IsValid() {
				t.Fatalf("%s has invalid checksum", a)
			}

			got, err := a.Bytes()
			if err != nil {
				t.Fatalf("bytes: %v", err)
			}
			if !bytes.Equal(got, buf) {
				t.Fatalf("bytes = %x, want %x", got, buf)
			}

			simple, err := FromSimple(a.Simple())
			if err != nil || !a.Equal(simple) {
				t.Fatalf("simple round trip of %s: %s, %v", a, simple, err)
			}

			obj, err := FromObject(a.Object())
			if err != nil || !a.Equal(obj) {
				t.Fatalf("object round trip of %s: %s, %v", a, obj, err)
			}
		}
	}
}

func TestParse(t *testing.T) {
	want := "CFX:TYPE.USER:AARC9ABYCUE0HHZGYRR53M6CXEDGCCRMMYYBJGH4XG"
	inputs := []string{
		want,
		strings.ToLower(want),
		"cfx:aarc9abycue0hhzgyrr53m6cxedgccrmmyybjgh4xg",
		"0x1a2f80341409639ea6a35bbcab8299066109aa55",
		" 0x1A2F80341409639EA6A35BBCAB8299066109AA55 ",
	}
	for _, in := range inputs {
		a, err := Parse(in, NetMain)
		if err != nil {
			t.Errorf("Parse(%q): %v", in, err)
			continue
		}
		if a.String() != want {
			t.Errorf("Parse(%q) = %s, want %s", in, a, want)
		}
	}

	if _, err := Parse("not-an-address", NetMain); !errors.Is(err, ErrFormat) {
		t.Errorf("err = %v, want %v", err, ErrFormat)
	}
}

func TestCommon(t *testing.T) {
	addr := common.HexToAddress("0x85d80245dc02f5a89589e1f19c5c718e405b56cd")
	a, err := FromCommon(addr, NetMain)
	if err != nil {
		t.Fatalf("from common: %v", err)
	}
	if a.Type() != TypeContract {
		t.Errorf("type = %s, want CONTRACT", a.Type())
	}

	back, err := a.Common()
	if err != nil {
		t.Fatalf("common: %v", err)
	}
	if back != addr {
		t.Errorf("common = %s, want %s", back.Hex(), addr.Hex())
	}
}

func TestJSON(t *testing.T) {
	type holder struct {
		Address ChecksumAddress `json:"address"`
	}
	in := holder{Address: MustNew(nullCFX)}
	data, err := json.Marshal(in)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(data) != `{"address":"`+nullCFX+`"}` {
		t.Errorf("json = %s", data)
	}

	var out holder
	if err := json.Unmarshal([]byte(`{"address":"cfx:aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa0sfbnjm2"}`), &out); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if !in.Address.Equal(out.Address) {
		t.Errorf("unmarshal = %s, want %s", out.Address, in.Address)
	}

	if err := json.Unmarshal([]byte(`{"address":"bogus"}`), &out); err == nil {
		t.Error("bogus address should not unmarshal")
	}
}

func TestNetNameFromChainID(t *testing.T) {
	tests := map[uint64]string{
		1029: NetMain,
		1:    NetTest,
		8:    "NET8",
	}
	for id, want := range tests {
		if got := NetNameFromChainID(id); got != want {
			t.Errorf("NetNameFromChainID(%d) = %s, want %s", id, got, want)
		}
	}
}
