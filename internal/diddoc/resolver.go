package diddoc

import (
	"context"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync"

	"wcnotify/internal/domain"
)

// Well-known document paths.
const (
	DIDDocPath       = "/.well-known/did.json"
	NotifyConfigPath = "/.well-known/wc-notify-config.json"
)

// didDocument is the subset of a did.json document we read.
type didDocument struct {
	VerificationMethod []verificationMethod `json:"verificationMethod"`
	KeyAgreement       []string             `json:"keyAgreement"`
	Authentication     []string             `json:"authentication"`
}

type verificationMethod struct {
	ID           string `json:"id"`
	PublicKeyJwk struct {
		X string `json:"x"`
	} `json:"publicKeyJwk"`
}

// Resolver fetches and caches a dapp's well-known documents. Both documents
// are cached per URL for the process lifetime, so the happy path performs at
// most one GET per document per dapp.
type Resolver struct {
	http *http.Client

	mu      sync.Mutex
	keys    map[string]domain.DappIdentity
	configs map[string]domain.NotifyConfig
}

// NewResolver returns a resolver using the given HTTP client, or
// http.DefaultClient when nil.
func NewResolver(client *http.Client) *Resolver {
	if client == nil {
		client = http.DefaultClient
	}
	return &Resolver{
		http:    client,
		keys:    make(map[string]domain.DappIdentity),
		configs: make(map[string]domain.NotifyConfig),
	}
}

// ResolveKeys returns the dapp's key-agreement and authentication keys from
// its did.json document.
func (r *Resolver) ResolveKeys(ctx context.Context, dappURL string) (domain.DappIdentity, error) {
	base := normalizeURL(dappURL)

	r.mu.Lock()
	if id, ok := r.keys[base]; ok {
		r.mu.Unlock()
		return id, nil
	}
	r.mu.Unlock()

	var doc didDocument
	if err := r.getJSON(ctx, base+DIDDocPath, &doc); err != nil {
		return domain.DappIdentity{}, fmt.Errorf("%w: %v", domain.ErrDidDocUnavailable, err)
	}

	id, err := identityFromDoc(doc)
	if err != nil {
		return domain.DappIdentity{}, err
	}

	r.mu.Lock()
	r.keys[base] = id
	r.mu.Unlock()
	return id, nil
}

// ResolveNotifyConfig returns the dapp's notify configuration document.
func (r *Resolver) ResolveNotifyConfig(ctx context.Context, dappURL string) (domain.NotifyConfig, error) {
	base := normalizeURL(dappURL)

	r.mu.Lock()
	if cfg, ok := r.configs[base]; ok {
		r.mu.Unlock()
		return cfg, nil
	}
	r.mu.Unlock()

	var cfg domain.NotifyConfig
	if err := r.getJSON(ctx, base+NotifyConfigPath, &cfg); err != nil {
		return domain.NotifyConfig{}, fmt.Errorf("%w: %v", domain.ErrConfigUnavailable, err)
	}

	r.mu.Lock()
	r.configs[base] = cfg
	r.mu.Unlock()
	return cfg, nil
}

func identityFromDoc(doc didDocument) (domain.DappIdentity, error) {
	if len(doc.KeyAgreement) == 0 || len(doc.Authentication) == 0 {
		return domain.DappIdentity{}, fmt.Errorf("%w: missing keyAgreement or authentication", domain.ErrDidDocMalformed)
	}
	agreement, err := methodKey(doc, doc.KeyAgreement[0])
	if err != nil {
		return domain.DappIdentity{}, err
	}
	authentication, err := methodKey(doc, doc.Authentication[0])
	if err != nil {
		return domain.DappIdentity{}, err
	}
	return domain.DappIdentity{KeyAgreement: agreement, Authentication: authentication}, nil
}

// methodKey locates the verification method with the given id and returns
// its JWK x coordinate as hex.
func methodKey(doc didDocument, id string) (string, error) {
	for _, vm := range doc.VerificationMethod {
		if vm.ID != id {
			continue
		}
		raw, err := base64.RawURLEncoding.DecodeString(vm.PublicKeyJwk.X)
		if err != nil {
			return "", fmt.Errorf("%w: bad publicKeyJwk.x: %v", domain.ErrDidDocMalformed, err)
		}
		return hex.EncodeToString(raw), nil
	}
	return "", fmt.Errorf("%w: verification method %q not found", domain.ErrDidDocMalformed, id)
}

func (r *Resolver) getJSON(ctx context.Context, url string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	resp, err := r.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode/100 != 2 {
		return fmt.Errorf("get %s: %s", url, resp.Status)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

// normalizeURL accepts a bare domain or a full URL and returns a scheme-
// qualified base URL without a trailing slash.
func normalizeURL(dappURL string) string {
	u := strings.TrimSuffix(dappURL, "/")
	if !strings.Contains(u, "://") {
		u = "https://" + u
	}
	return u
}

// Compile-time assertion that Resolver implements domain.Resolver.
var _ domain.Resolver = (*Resolver)(nil)
