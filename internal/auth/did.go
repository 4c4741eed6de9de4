package auth

import (
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/mr-tron/base58"

	"wcnotify/internal/domain"
)

// DID method prefixes used inside claim sets.
const (
	DIDKeyPrefix = "did:key:"
	DIDPKHPrefix = "did:pkh:"
	DIDWebPrefix = "did:web:"
)

// ed25519Multicodec is the two-byte multicodec header for Ed25519 public
// keys in the did:key method.
var ed25519Multicodec = []byte{0xed, 0x01}

// EncodeEd25519DIDKey encodes a hex Ed25519 public key as a did:key string
// (base58btc multibase, 0xed01 multicodec).
func EncodeEd25519DIDKey(publicKeyHex string) (string, error) {
	raw, err := hex.DecodeString(publicKeyHex)
	if err != nil {
		return "", fmt.Errorf("%w: bad key hex: %v", domain.ErrIdentityFailure, err)
	}
	if len(raw) != 32 {
		return "", fmt.Errorf("%w: want 32 key bytes, got %d", domain.ErrIdentityFailure, len(raw))
	}
	payload := append(append([]byte{}, ed25519Multicodec...), raw...)
	return DIDKeyPrefix + "z" + base58.Encode(payload), nil
}

// DecodeEd25519DIDKey reverses EncodeEd25519DIDKey, returning the hex key.
func DecodeEd25519DIDKey(did string) (string, error) {
	multibase, ok := strings.CutPrefix(did, DIDKeyPrefix)
	if !ok || len(multibase) < 2 || multibase[0] != 'z' {
		return "", fmt.Errorf("%w: not an ed25519 did:key: %q", domain.ErrJwtDecodeFailed, did)
	}
	payload, err := base58.Decode(multibase[1:])
	if err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrJwtDecodeFailed, err)
	}
	if len(payload) != 34 || payload[0] != ed25519Multicodec[0] || payload[1] != ed25519Multicodec[1] {
		return "", fmt.Errorf("%w: bad did:key payload", domain.ErrJwtDecodeFailed)
	}
	return hex.EncodeToString(payload[2:]), nil
}

// DIDPKH encodes a CAIP-10 account as a did:pkh string.
func DIDPKH(account domain.Account) string {
	return DIDPKHPrefix + account.String()
}

// AccountFromDIDPKH extracts the CAIP-10 account from a did:pkh string.
func AccountFromDIDPKH(did string) (domain.Account, error) {
	account, ok := strings.CutPrefix(did, DIDPKHPrefix)
	if !ok {
		return "", fmt.Errorf("%w: not a did:pkh: %q", domain.ErrJwtDecodeFailed, did)
	}
	return domain.Account(account), nil
}

// DIDWeb encodes a dapp domain as a did:web string. Any URL scheme and path
// are stripped first.
func DIDWeb(appDomain string) string {
	d := appDomain
	if i := strings.Index(d, "://"); i >= 0 {
		d = d[i+3:]
	}
	if i := strings.IndexByte(d, '/'); i >= 0 {
		d = d[:i]
	}
	return DIDWebPrefix + d
}
