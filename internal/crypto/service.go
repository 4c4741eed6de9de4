package crypto

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"wcnotify/internal/domain"
)

// Service implements the crypto contract over a key chain store. All private
// material stays inside the key chain; callers only ever see public keys,
// topics and envelope bytes.
type Service struct {
	keychain domain.Keychain
}

// NewService returns a crypto service backed by the given key chain.
func NewService(keychain domain.Keychain) *Service {
	return &Service{keychain: keychain}
}

// GenerateKeyPair creates an X25519 pair and stores the private half. A
// non-empty alias tags the pair persistent and names it for later lookup.
func (s *Service) GenerateKeyPair(alias string) (string, error) {
	priv, pub, err := GenerateX25519()
	if err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrCryptoFailure, err)
	}
	pubHex := hex.EncodeToString(pub[:])
	persistent := alias != ""
	if err := s.keychain.SetKeyPair(pubHex, hex.EncodeToString(priv[:]), persistent); err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrStoreFailure, err)
	}
	if persistent {
		if err := s.keychain.SetAlias(alias, pubHex); err != nil {
			return "", fmt.Errorf("%w: %v", domain.ErrStoreFailure, err)
		}
	}
	return pubHex, nil
}

// AliasedKeyPair returns the public key stored under alias, if any.
func (s *Service) AliasedKeyPair(alias string) (string, bool, error) {
	return s.keychain.Alias(alias)
}

// GenerateSharedKey derives the symmetric channel between our key pair and a
// peer public key. The shared secret is the symmetric key; the topic is its
// SHA256. The key is installed in the key chain under the topic.
func (s *Service) GenerateSharedKey(selfPublicKey, peerPublicKey string) (domain.Topic, error) {
	privHex, ok, err := s.keychain.PrivateKey(selfPublicKey)
	if err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrStoreFailure, err)
	}
	if !ok {
		return "", fmt.Errorf("%w: no private key for %s", domain.ErrCryptoFailure, Fingerprint([]byte(selfPublicKey)))
	}
	priv, err := keyFromHex(privHex)
	if err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrCryptoFailure, err)
	}
	peer, err := keyFromHex(peerPublicKey)
	if err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrCryptoFailure, err)
	}
	shared, err := DH(priv, peer)
	if err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrCryptoFailure, err)
	}

	symKey := hex.EncodeToString(shared[:])
	sum := sha256.Sum256(shared[:])
	topic := domain.Topic(hex.EncodeToString(sum[:]))
	if err := s.keychain.SetSymKey(topic, symKey); err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrStoreFailure, err)
	}
	return topic, nil
}

// SetSymKey installs a symmetric key for a topic.
func (s *Service) SetSymKey(symKeyHex string, topic domain.Topic) error {
	if _, err := keyFromHex(symKeyHex); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrCryptoFailure, err)
	}
	return s.keychain.SetSymKey(topic, symKeyHex)
}

// DeleteSymKey removes the symmetric key for a topic.
func (s *Service) DeleteSymKey(topic domain.Topic) error {
	return s.keychain.DeleteSymKey(topic)
}

// DeleteKeyPair removes a stored key pair.
func (s *Service) DeleteKeyPair(publicKey string) error {
	return s.keychain.DeleteKeyPair(publicKey)
}

// Encode wraps payload for topic. Type-0 seals with the topic's symmetric
// key. Type-1 seals with the secret shared between the caller-supplied
// sender and receiver keys and attaches the sender public key to the frame.
func (s *Service) Encode(topic domain.Topic, payload []byte, opts *domain.EncodeOptions) ([]byte, error) {
	if opts == nil || opts.Type == domain.EnvelopeType0 {
		key, err := s.topicKey(topic)
		if err != nil {
			return nil, err
		}
		env, err := sealEnvelope(domain.EnvelopeType0, nil, key, payload)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", domain.ErrCryptoFailure, err)
		}
		return env, nil
	}

	if opts.SenderPublicKey == "" || opts.ReceiverPublicKey == "" {
		return nil, fmt.Errorf("%w: type-1 envelope needs sender and receiver keys", domain.ErrCryptoFailure)
	}
	privHex, ok, err := s.keychain.PrivateKey(opts.SenderPublicKey)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrStoreFailure, err)
	}
	if !ok {
		return nil, fmt.Errorf("%w: no private key for sender", domain.ErrCryptoFailure)
	}
	priv, err := keyFromHex(privHex)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrCryptoFailure, err)
	}
	receiver, err := keyFromHex(opts.ReceiverPublicKey)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrCryptoFailure, err)
	}
	shared, err := DH(priv, receiver)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrCryptoFailure, err)
	}
	senderPub, err := keyFromHex(opts.SenderPublicKey)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrCryptoFailure, err)
	}
	env, err := sealEnvelope(domain.EnvelopeType1, senderPub[:], shared, payload)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrCryptoFailure, err)
	}
	return env, nil
}

// Decode unwraps an envelope received on topic using the topic's symmetric
// key. Type-1 frames carry the sender key for the peer's benefit; on our
// side the channel key is already installed by the time traffic arrives.
func (s *Service) Decode(topic domain.Topic, envelope []byte) ([]byte, error) {
	_, _, nonce, ct, err := splitEnvelope(envelope)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrCryptoFailure, err)
	}
	key, err := s.topicKey(topic)
	if err != nil {
		return nil, err
	}
	payload, err := openEnvelope(key, nonce, ct)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrCryptoFailure, err)
	}
	return payload, nil
}

func (s *Service) topicKey(topic domain.Topic) ([32]byte, error) {
	symHex, ok, err := s.keychain.SymKey(topic)
	if err != nil {
		return [32]byte{}, fmt.Errorf("%w: %v", domain.ErrStoreFailure, err)
	}
	if !ok {
		return [32]byte{}, fmt.Errorf("%w: no sym key for topic %s", domain.ErrCryptoFailure, topic)
	}
	key, err := keyFromHex(symHex)
	if err != nil {
		return [32]byte{}, fmt.Errorf("%w: %v", domain.ErrCryptoFailure, err)
	}
	return key, nil
}

// Compile-time assertion that Service implements domain.Crypto.
var _ domain.Crypto = (*Service)(nil)
