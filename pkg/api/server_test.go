package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/ethereum/go-ethereum/common/hexutil"

	"github.com/uhyunpark/cfxkit/pkg/address"
	"github.com/uhyunpark/cfxkit/pkg/crypto"
	"github.com/uhyunpark/cfxkit/pkg/storage"
	"github.com/uhyunpark/cfxkit/pkg/wallet"
)

const (
	testKeyHex   = "0x0123456789abcdef0123456789abcdef0123456789abcdef0123456789abcdef"
	testHex      = "0x1cad0b19bb29d4674531d6f115237e16afce377c"
	vectorHex    = "0x1a2f80341409639ea6a35bbcab8299066109aa55"
	testCanonCfx = "CFX:TYPE.USER:AARC9ABYCUE0HHZGYRR53M6CXEDGCCRMMYYBJGH4XG"
)

func newTestServer(t *testing.T) *Server {
	store, err := storage.NewInMemoryKeystoreStore(nil)
	if err != nil {
		t.Fatalf("failed to open store: %v", err)
	}
	m, err := wallet.NewManager(store, wallet.Options{
		NetName: address.NetMain,
		Scrypt:  crypto.ScryptParams{N: 1 << 10, P: 1},
	})
	if err != nil {
		t.Fatalf("failed to create manager: %v", err)
	}
	t.Cleanup(func() { m.Close() })
	return NewServer(m, []string{"*"}, nil)
}

func doRequest(t *testing.T, s *Server, method, path string, body interface{}) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("failed to encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	var v T
	if err := json.Unmarshal(rec.Body.Bytes(), &v); err != nil {
		t.Fatalf("failed to decode %q: %v", rec.Body.String(), err)
	}
	return v
}

func expectStatus(t *testing.T, rec *httptest.ResponseRecorder, want int) {
	t.Helper()
	if rec.Code != want {
		t.Fatalf("status = %d, want %d (body %s)", rec.Code, want, rec.Body.String())
	}
}

func TestHealth(t *testing.T) {
	s := newTestServer(t)
	rec := doRequest(t, s, "GET", "/health", nil)
	expectStatus(t, rec, http.StatusOK)
	if got := decode[map[string]string](t, rec)["netName"]; got != "CFX" {
		t.Errorf("netName = %s, want CFX", got)
	}
}

func TestAddressEndpoints(t *testing.T) {
	s := newTestServer(t)

	rec := doRequest(t, s, "POST", "/api/v1/addresses/encode", EncodeAddressRequest{Hex: vectorHex})
	expectStatus(t, rec, http.StatusOK)
	info := decode[AddressInfo](t, rec)
	if info.Address.String() != testCanonCfx {
		t.Errorf("address = %s, want %s", info.Address, testCanonCfx)
	}
	if info.Type != "USER" || !info.Valid {
		t.Errorf("type = %s valid = %v, want USER true", info.Type, info.Valid)
	}

	rec = doRequest(t, s, "GET", "/api/v1/addresses/"+testCanonCfx, nil)
	expectStatus(t, rec, http.StatusOK)
	info = decode[AddressInfo](t, rec)
	if info.Hex != vectorHex {
		t.Errorf("hex = %s, want %s", info.Hex, vectorHex)
	}
	if info.Simple != "cfx:aarc9abycue0hhzgyrr53m6cxedgccrmmyybjgh4xg" {
		t.Errorf("simple = %s", info.Simple)
	}

	rec = doRequest(t, s, "GET", "/api/v1/addresses/"+testHex+"?netName=cfxtest", nil)
	expectStatus(t, rec, http.StatusOK)
	if got := decode[AddressInfo](t, rec).NetName; got != address.NetTest {
		t.Errorf("netName = %s, want %s", got, address.NetTest)
	}

	rec = doRequest(t, s, "POST", "/api/v1/addresses/encode", EncodeAddressRequest{Hex: "0x1234"})
	expectStatus(t, rec, http.StatusBadRequest)
	if got := decode[ErrorResponse](t, rec).Error; got != "invalid address" {
		t.Errorf("error = %s, want invalid address", got)
	}
}

func TestAccountLifecycle(t *testing.T) {
	s := newTestServer(t)

	rec := doRequest(t, s, "POST", "/api/v1/accounts/import", ImportAccountRequest{
		Label:      "main",
		Password:   "pw",
		PrivateKey: testKeyHex,
	})
	expectStatus(t, rec, http.StatusCreated)
	acc := decode[wallet.Account](t, rec)
	if acc.Hex != testHex {
		t.Fatalf("hex = %s, want %s", acc.Hex, testHex)
	}
	base := "/api/v1/accounts/" + acc.Address.String()

	rec = doRequest(t, s, "GET", "/api/v1/accounts", nil)
	expectStatus(t, rec, http.StatusOK)
	if n := len(decode[[]wallet.Account](t, rec)); n != 1 {
		t.Errorf("accounts = %d, want 1", n)
	}

	hash := hexutil.Encode(make([]byte, 32))
	rec = doRequest(t, s, "POST", base+"/sign", SignRequest{Hash: hash})
	expectStatus(t, rec, http.StatusLocked)

	rec = doRequest(t, s, "POST", base+"/unlock", PasswordRequest{Password: "wrong"})
	expectStatus(t, rec, http.StatusUnauthorized)
	if msg := decode[ErrorResponse](t, rec).Message; !strings.Contains(msg, "Key derivation failed") {
		t.Errorf("message = %q", msg)
	}

	rec = doRequest(t, s, "POST", base+"/unlock", PasswordRequest{Password: "pw"})
	expectStatus(t, rec, http.StatusOK)

	rec = doRequest(t, s, "POST", base+"/sign", SignRequest{Hash: hash})
	expectStatus(t, rec, http.StatusOK)
	sig := decode[SignatureInfo](t, rec)
	if len(sig.Signature) != 2+2*crypto.SignatureLength {
		t.Fatalf("signature = %s, want %d bytes", sig.Signature, crypto.SignatureLength)
	}

	rec = doRequest(t, s, "POST", "/api/v1/recover", RecoverRequest{Hash: hash, Signature: sig.Signature})
	expectStatus(t, rec, http.StatusOK)
	if got := decode[AddressInfo](t, rec).Hex; got != testHex {
		t.Errorf("recovered = %s, want %s", got, testHex)
	}

	rec = doRequest(t, s, "POST", base+"/lock", nil)
	expectStatus(t, rec, http.StatusOK)

	rec = doRequest(t, s, "GET", base+"/keystore", nil)
	expectStatus(t, rec, http.StatusOK)
	if ks := decode[crypto.Keystore](t, rec); ks.Address != testHex[2:] {
		t.Errorf("keystore address = %s, want %s", ks.Address, testHex[2:])
	}

	rec = doRequest(t, s, "DELETE", base, PasswordRequest{Password: "pw"})
	expectStatus(t, rec, http.StatusOK)

	rec = doRequest(t, s, "GET", base+"/keystore", nil)
	expectStatus(t, rec, http.StatusNotFound)
}

func TestImportValidation(t *testing.T) {
	s := newTestServer(t)

	tests := []struct {
		name string
		path string
		body interface{}
		want int
	}{
		{"import without key", "/api/v1/accounts/import", ImportAccountRequest{Password: "pw"}, http.StatusBadRequest},
		{"create without password", "/api/v1/accounts", CreateAccountRequest{Label: "x"}, http.StatusBadRequest},
		{"create", "/api/v1/accounts", CreateAccountRequest{Password: "pw"}, http.StatusCreated},
		{"unsupported keystore version", "/api/v1/accounts/import", ImportAccountRequest{
			Password: "pw",
			Keystore: json.RawMessage(`{"version":2}`),
		}, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			expectStatus(t, doRequest(t, s, "POST", tt.path, tt.body), tt.want)
		})
	}
}
