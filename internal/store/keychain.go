package store

import (
	"crypto/rand"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"sync"

	"golang.org/x/crypto/chacha20poly1305"

	"wcnotify/internal/domain"
)

const (
	deviceKeyFile = "device.key"    // raw 32-byte store key
	keychainFile  = "keychain.enc"  // encrypted keychainData
)

type keyPairEntry struct {
	Priv       string `json:"priv"`
	Persistent bool   `json:"persistent"`
}

type keychainData struct {
	SymKeys map[domain.Topic]string `json:"symKeys"`
	Pairs   map[string]keyPairEntry `json:"pairs"`   // by public key hex
	Aliases map[string]string       `json:"aliases"` // alias -> public key hex
}

// KeychainFileStore holds symmetric keys and X25519 private halves,
// encrypted at rest with a per-device key.
type KeychainFileStore struct {
	dir string
	mu  sync.Mutex
}

// NewKeychainFileStore returns a key chain rooted at dir. The device key is
// created on first use.
func NewKeychainFileStore(dir string) *KeychainFileStore {
	return &KeychainFileStore{dir: dir}
}

// ---------- Symmetric keys ----------

func (s *KeychainFileStore) SetSymKey(topic domain.Topic, symKeyHex string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.mutate(func(d *keychainData) { d.SymKeys[topic] = symKeyHex })
}

func (s *KeychainFileStore) SymKey(topic domain.Topic) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	d, err := s.load()
	if err != nil {
		return "", false, err
	}
	key, ok := d.SymKeys[topic]
	return key, ok, nil
}

func (s *KeychainFileStore) DeleteSymKey(topic domain.Topic) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.mutate(func(d *keychainData) { delete(d.SymKeys, topic) })
}

// ---------- Key pairs ----------

func (s *KeychainFileStore) SetKeyPair(publicKey, privateKey string, persistent bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.mutate(func(d *keychainData) {
		d.Pairs[publicKey] = keyPairEntry{Priv: privateKey, Persistent: persistent}
	})
}

func (s *KeychainFileStore) PrivateKey(publicKey string) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	d, err := s.load()
	if err != nil {
		return "", false, err
	}
	entry, ok := d.Pairs[publicKey]
	return entry.Priv, ok, nil
}

func (s *KeychainFileStore) DeleteKeyPair(publicKey string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.mutate(func(d *keychainData) {
		delete(d.Pairs, publicKey)
		for alias, pub := range d.Aliases {
			if pub == publicKey {
				delete(d.Aliases, alias)
			}
		}
	})
}

// ---------- Aliases ----------

func (s *KeychainFileStore) SetAlias(alias, publicKey string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.mutate(func(d *keychainData) { d.Aliases[alias] = publicKey })
}

func (s *KeychainFileStore) Alias(alias string) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	d, err := s.load()
	if err != nil {
		return "", false, err
	}
	pub, ok := d.Aliases[alias]
	return pub, ok, nil
}

// ---------- Encrypted persistence ----------

func (s *KeychainFileStore) mutate(fn func(*keychainData)) error {
	d, err := s.load()
	if err != nil {
		return err
	}
	fn(d)
	return s.save(d)
}

func (s *KeychainFileStore) load() (*keychainData, error) {
	d := &keychainData{
		SymKeys: make(map[domain.Topic]string),
		Pairs:   make(map[string]keyPairEntry),
		Aliases: make(map[string]string),
	}
	blob, err := os.ReadFile(filepath.Join(s.dir, keychainFile))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return d, nil
		}
		return nil, err
	}
	key, err := s.deviceKey()
	if err != nil {
		return nil, err
	}
	raw, err := decryptBlob(key, blob)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(raw, d); err != nil {
		return nil, err
	}
	return d, nil
}

func (s *KeychainFileStore) save(d *keychainData) error {
	raw, err := json.Marshal(d)
	if err != nil {
		return err
	}
	key, err := s.deviceKey()
	if err != nil {
		return err
	}
	blob, err := encryptBlob(key, raw)
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(s.dir, keychainFile), blob, 0o600)
}

// deviceKey loads the per-device store key, creating it on first use.
func (s *KeychainFileStore) deviceKey() ([]byte, error) {
	path := filepath.Join(s.dir, deviceKeyFile)
	key, err := os.ReadFile(path)
	if err == nil {
		if len(key) != chacha20poly1305.KeySize {
			return nil, errors.New("corrupt device key")
		}
		return key, nil
	}
	if !errors.Is(err, os.ErrNotExist) {
		return nil, err
	}
	key = make([]byte, chacha20poly1305.KeySize)
	if _, err := rand.Read(key); err != nil {
		return nil, err
	}
	if err := os.WriteFile(path, key, 0o600); err != nil {
		return nil, err
	}
	return key, nil
}

// nonce || ciphertext
func encryptBlob(key, plaintext []byte) ([]byte, error) {
	aead, err := chacha20poly1305.New(key)
	if err != nil {
		return nil, err
	}
	nonce := make([]byte, chacha20poly1305.NonceSize)
	if _, err := rand.Read(nonce); err != nil {
		return nil, err
	}
	return aead.Seal(nonce, nonce, plaintext, nil), nil
}

func decryptBlob(key, blob []byte) ([]byte, error) {
	if len(blob) < chacha20poly1305.NonceSize {
		return nil, errors.New("keychain blob too short")
	}
	aead, err := chacha20poly1305.New(key)
	if err != nil {
		return nil, err
	}
	return aead.Open(nil, blob[:chacha20poly1305.NonceSize], blob[chacha20poly1305.NonceSize:], nil)
}

// Compile-time assertion that the store satisfies the domain contract.
var _ domain.Keychain = (*KeychainFileStore)(nil)
