package identity

import (
	"bytes"
	"context"
	"crypto/ed25519"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"wcnotify/internal/auth"
	"wcnotify/internal/domain"
)

// Identity statements are the user-visible text signed with the blockchain
// key when binding an identity key to an account. The exact strings are part
// of the keyserver's contract.
const (
	LimitedStatement   = "I further authorize this app to send me notifications. Read more at https://walletconnect.com/notifications"
	UnlimitedStatement = "I further authorize this app to view and manage my notifications for ALL apps. Read more at https://walletconnect.com/notifications"
)

const aliasPrefix = "identity/"

// Service registers Ed25519 identity keys with a keyserver and signs claim
// sets on their behalf. Key seeds live in the key chain under an alias per
// account.
type Service struct {
	keyserverURL string
	keychain     domain.Keychain
	http         *http.Client
	logger       zerolog.Logger
}

// New returns an identity service talking to the keyserver at keyserverURL.
func New(keyserverURL string, keychain domain.Keychain, client *http.Client, logger zerolog.Logger) *Service {
	if client == nil {
		client = http.DefaultClient
	}
	return &Service{
		keyserverURL: strings.TrimSuffix(keyserverURL, "/"),
		keychain:     keychain,
		http:         client,
		logger:       logger.With().Str("component", "identity").Logger(),
	}
}

// cacao is the signed statement envelope posted to the keyserver.
type cacao struct {
	Header    cacaoHeader    `json:"h"`
	Payload   cacaoPayload   `json:"p"`
	Signature cacaoSignature `json:"s"`
}

type cacaoHeader struct {
	Type string `json:"t"`
}

type cacaoPayload struct {
	Issuer    string   `json:"iss"`
	Domain    string   `json:"domain"`
	Audience  string   `json:"aud"`
	Version   string   `json:"version"`
	Nonce     string   `json:"nonce"`
	IssuedAt  string   `json:"iat"`
	Statement string   `json:"statement"`
	Resources []string `json:"resources"`
}

type cacaoSignature struct {
	Type      string `json:"t"`
	Signature string `json:"s"`
}

// Register generates an identity key for the account, has the owner sign
// the authorization statement, and publishes the binding to the keyserver.
// Registering an already-registered account returns the existing key.
func (s *Service) Register(ctx context.Context, params domain.RegisterIdentityParams) (string, error) {
	if pub, ok, err := s.keychain.Alias(aliasPrefix + params.Account.String()); err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrStoreFailure, err)
	} else if ok {
		return pub, nil
	}

	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrIdentityFailure, err)
	}
	pubHex := hex.EncodeToString(pub)

	didKey, err := auth.EncodeEd25519DIDKey(pubHex)
	if err != nil {
		return "", err
	}

	statement := UnlimitedStatement
	if params.IsLimited {
		statement = LimitedStatement
	}
	payload := cacaoPayload{
		Issuer:    auth.DIDPKH(params.Account),
		Domain:    params.Domain,
		Audience:  didKey,
		Version:   "1",
		Nonce:     newNonce(),
		IssuedAt:  time.Now().UTC().Format(time.RFC3339),
		Statement: statement,
		Resources: []string{s.keyserverURL},
	}

	signature, err := params.OnSign(formatMessage(payload))
	if err != nil {
		return "", fmt.Errorf("%w: owner declined to sign: %v", domain.ErrIdentityFailure, err)
	}

	body := cacao{
		Header:    cacaoHeader{Type: "eip4361"},
		Payload:   payload,
		Signature: cacaoSignature{Type: "eip191", Signature: signature},
	}
	if err := s.postJSON(ctx, "/identity", map[string]any{"cacao": body}); err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrIdentityFailure, err)
	}

	seed := priv.Seed()
	if err := s.keychain.SetKeyPair(pubHex, hex.EncodeToString(seed), true); err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrStoreFailure, err)
	}
	if err := s.keychain.SetAlias(aliasPrefix+params.Account.String(), pubHex); err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrStoreFailure, err)
	}

	s.logger.Info().
		Str("account", params.Account.String()).
		Str("identity", didKey).
		Msg("identity registered")
	return pubHex, nil
}

// PublicKey returns the registered identity key for an account, if any.
func (s *Service) PublicKey(account domain.Account) (string, bool, error) {
	return s.keychain.Alias(aliasPrefix + account.String())
}

// SignClaims signs a typed claim set as an EdDSA JWS with the account's
// identity key.
func (s *Service) SignClaims(account domain.Account, claims any) (string, error) {
	typed, ok := claims.(auth.ActClaims)
	if !ok {
		return "", fmt.Errorf("%w: unsupported claim set %T", domain.ErrIdentityFailure, claims)
	}
	pubHex, ok, err := s.PublicKey(account)
	if err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrStoreFailure, err)
	}
	if !ok {
		return "", fmt.Errorf("%w: no identity registered for %s", domain.ErrIdentityFailure, account)
	}
	seedHex, ok, err := s.keychain.PrivateKey(pubHex)
	if err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrStoreFailure, err)
	}
	if !ok {
		return "", fmt.Errorf("%w: identity key missing from key chain", domain.ErrIdentityFailure)
	}
	seed, err := hex.DecodeString(seedHex)
	if err != nil || len(seed) != ed25519.SeedSize {
		return "", fmt.Errorf("%w: corrupt identity seed", domain.ErrIdentityFailure)
	}
	return auth.Sign(typed, ed25519.NewKeyFromSeed(seed))
}

// formatMessage renders the CAIP-122-style text presented to the owner.
func formatMessage(p cacaoPayload) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s wants you to sign in with your blockchain account:\n", p.Domain)
	fmt.Fprintf(&b, "%s\n\n", strings.TrimPrefix(p.Issuer, auth.DIDPKHPrefix))
	fmt.Fprintf(&b, "%s\n\n", p.Statement)
	fmt.Fprintf(&b, "URI: %s\n", p.Audience)
	fmt.Fprintf(&b, "Version: %s\n", p.Version)
	fmt.Fprintf(&b, "Nonce: %s\n", p.Nonce)
	fmt.Fprintf(&b, "Issued At: %s", p.IssuedAt)
	return b.String()
}

func newNonce() string {
	var raw [16]byte
	rand.Read(raw[:])
	return hex.EncodeToString(raw[:])
}

func (s *Service) postJSON(ctx context.Context, path string, in any) error {
	buf := new(bytes.Buffer)
	if err := json.NewEncoder(buf).Encode(in); err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.keyserverURL+path, buf)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := s.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode/100 != 2 {
		return fmt.Errorf("keyserver post %s: %s", path, resp.Status)
	}
	return nil
}

// Compile-time assertion that Service implements domain.Identity.
var _ domain.Identity = (*Service)(nil)
