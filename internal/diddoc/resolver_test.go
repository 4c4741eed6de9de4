package diddoc_test

import (
	"context"
	"crypto/ed25519"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"wcnotify/internal/crypto"
	"wcnotify/internal/diddoc"
	"wcnotify/internal/domain"
)

// didJSON renders a minimal did.json for the given keys.
func didJSON(agreementHex, authHex string) string {
	agreement, _ := hex.DecodeString(agreementHex)
	authentication, _ := hex.DecodeString(authHex)
	return fmt.Sprintf(`{
		"id": "did:web:gm.example",
		"verificationMethod": [
			{"id": "did:web:gm.example#key-0", "publicKeyJwk": {"kty":"OKP","crv":"Ed25519","x":%q}},
			{"id": "did:web:gm.example#key-1", "publicKeyJwk": {"kty":"OKP","crv":"X25519","x":%q}}
		],
		"authentication": ["did:web:gm.example#key-0"],
		"keyAgreement": ["did:web:gm.example#key-1"]
	}`,
		base64.RawURLEncoding.EncodeToString(authentication),
		base64.RawURLEncoding.EncodeToString(agreement))
}

func testKeys(t *testing.T) (agreementHex, authHex string) {
	t.Helper()
	_, agreement, err := crypto.GenerateX25519()
	if err != nil {
		t.Fatalf("GenerateX25519: %v", err)
	}
	authPub, _, err := ed25519.GenerateKey(nil)
	if err != nil {
		t.Fatalf("ed25519.GenerateKey: %v", err)
	}
	return hex.EncodeToString(agreement[:]), hex.EncodeToString(authPub)
}

func TestResolveKeys_OK(t *testing.T) {
	agreementHex, authHex := testKeys(t)
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != diddoc.DIDDocPath {
			http.NotFound(w, r)
			return
		}
		fmt.Fprint(w, didJSON(agreementHex, authHex))
	}))
	defer ts.Close()

	r := diddoc.NewResolver(nil)
	id, err := r.ResolveKeys(context.Background(), ts.URL)
	if err != nil {
		t.Fatalf("ResolveKeys: %v", err)
	}
	if id.KeyAgreement != agreementHex {
		t.Fatalf("keyAgreement mismatch: %s", id.KeyAgreement)
	}
	if id.Authentication != authHex {
		t.Fatalf("authentication mismatch: %s", id.Authentication)
	}
}

func TestResolveKeys_CachedPerProcess(t *testing.T) {
	agreementHex, authHex := testKeys(t)
	var gets atomic.Int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gets.Add(1)
		fmt.Fprint(w, didJSON(agreementHex, authHex))
	}))
	defer ts.Close()

	r := diddoc.NewResolver(nil)
	for i := 0; i < 3; i++ {
		if _, err := r.ResolveKeys(context.Background(), ts.URL); err != nil {
			t.Fatalf("ResolveKeys #%d: %v", i, err)
		}
	}
	if n := gets.Load(); n != 1 {
		t.Fatalf("want exactly one GET on the happy path, got %d", n)
	}
}

func TestResolveKeys_Missing(t *testing.T) {
	ts := httptest.NewServer(http.NotFoundHandler())
	defer ts.Close()

	r := diddoc.NewResolver(nil)
	_, err := r.ResolveKeys(context.Background(), ts.URL)
	if !errors.Is(err, domain.ErrDidDocUnavailable) {
		t.Fatalf("want ErrDidDocUnavailable, got %v", err)
	}
}

func TestResolveKeys_Malformed(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// References a verification method that is not present.
		fmt.Fprint(w, `{"verificationMethod":[],"keyAgreement":["#key-1"],"authentication":["#key-0"]}`)
	}))
	defer ts.Close()

	r := diddoc.NewResolver(nil)
	_, err := r.ResolveKeys(context.Background(), ts.URL)
	if !errors.Is(err, domain.ErrDidDocMalformed) {
		t.Fatalf("want ErrDidDocMalformed, got %v", err)
	}
}

func TestResolveNotifyConfig_OK(t *testing.T) {
	var gets atomic.Int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != diddoc.NotifyConfigPath {
			http.NotFound(w, r)
			return
		}
		gets.Add(1)
		fmt.Fprint(w, `{"name":"GM Dapp","description":"gm","icons":["https://gm.example/icon.png"],
			"types":[{"name":"gm_hourly","description":"Hourly gm"}]}`)
	}))
	defer ts.Close()

	r := diddoc.NewResolver(nil)
	for i := 0; i < 2; i++ {
		cfg, err := r.ResolveNotifyConfig(context.Background(), ts.URL)
		if err != nil {
			t.Fatalf("ResolveNotifyConfig: %v", err)
		}
		if cfg.Name != "GM Dapp" || len(cfg.Types) != 1 || cfg.Types[0].Name != "gm_hourly" {
			t.Fatalf("unexpected config: %+v", cfg)
		}
	}
	if n := gets.Load(); n != 1 {
		t.Fatalf("want one GET, got %d", n)
	}
}

func TestResolveNotifyConfig_Unavailable(t *testing.T) {
	ts := httptest.NewServer(http.NotFoundHandler())
	defer ts.Close()

	r := diddoc.NewResolver(nil)
	_, err := r.ResolveNotifyConfig(context.Background(), ts.URL)
	if !errors.Is(err, domain.ErrConfigUnavailable) {
		t.Fatalf("want ErrConfigUnavailable, got %v", err)
	}
}
