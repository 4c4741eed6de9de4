package interfaces

import domaintypes "wcnotify/internal/domain/types"

// Crypto is the key-chain-backed cryptographic service the engine consumes.
// The engine never sees cipher bytes or private key material.
type Crypto interface {
	// GenerateKeyPair creates an X25519 key pair, stores the private half in
	// the key chain, and returns the public key as hex. A non-empty alias
	// marks the pair persistent and retrievable by that alias; an empty
	// alias marks it ephemeral.
	GenerateKeyPair(alias string) (string, error)

	// AliasedKeyPair returns the public key previously generated under alias.
	AliasedKeyPair(alias string) (string, bool, error)

	// GenerateSharedKey runs X25519 between our stored private key for
	// selfPublicKey and peerPublicKey, installs the shared secret as the
	// symmetric key for the derived topic, and returns that topic.
	GenerateSharedKey(selfPublicKey, peerPublicKey string) (domaintypes.Topic, error)

	SetSymKey(symKeyHex string, topic domaintypes.Topic) error
	DeleteSymKey(topic domaintypes.Topic) error
	DeleteKeyPair(publicKey string) error

	// Encode wraps payload in an encrypted envelope for topic. nil opts means
	// type-0; type-1 requires sender and receiver public keys.
	Encode(topic domaintypes.Topic, payload []byte, opts *domaintypes.EncodeOptions) ([]byte, error)

	// Decode unwraps an envelope received on topic.
	Decode(topic domaintypes.Topic, envelope []byte) ([]byte, error)
}
