package interfaces

import domaintypes "wcnotify/internal/domain/types"

// StoreEvent is a lifecycle notification emitted by a store after a
// successful mutation.
type StoreEvent struct {
	Op  string // "set", "update" or "delete"
	Key string
}

// SubscriptionStore is the authoritative local mirror of active
// subscriptions, keyed by derived topic.
type SubscriptionStore interface {
	Get(topic domaintypes.Topic) (domaintypes.Subscription, bool, error)
	Set(topic domaintypes.Topic, sub domaintypes.Subscription) error
	Delete(topic domaintypes.Topic, reason string) error
	Keys() ([]domaintypes.Topic, error)
	All(filter func(domaintypes.Subscription) bool) ([]domaintypes.Subscription, error)
	Watch(fn func(StoreEvent))
}

// MessageStore holds received messages per subscription topic, keyed by the
// JSON-RPC id they arrived with.
type MessageStore interface {
	// Init installs an empty record for topic if none exists.
	Init(topic domaintypes.Topic) error
	Has(topic domaintypes.Topic) (bool, error)
	Get(topic domaintypes.Topic) (map[uint64]domaintypes.MessageRecord, bool, error)
	Append(topic domaintypes.Topic, rec domaintypes.MessageRecord) error
	DeleteMessage(id uint64) error
	Delete(topic domaintypes.Topic, reason string) error
	Keys() ([]domaintypes.Topic, error)
	Watch(fn func(StoreEvent))
}

// RequestStore is the ledger of in-flight outgoing requests, keyed by
// JSON-RPC id.
type RequestStore interface {
	Get(id uint64) (domaintypes.PendingRequest, bool, error)
	Set(id uint64, req domaintypes.PendingRequest) error
	Delete(id uint64, reason string) error
	Keys() ([]uint64, error)
	Watch(fn func(StoreEvent))
}

// Keychain exclusively owns raw private material: symmetric keys by topic,
// X25519 private halves by public key, and aliases naming persistent pairs.
type Keychain interface {
	SetSymKey(topic domaintypes.Topic, symKeyHex string) error
	SymKey(topic domaintypes.Topic) (string, bool, error)
	DeleteSymKey(topic domaintypes.Topic) error

	SetKeyPair(publicKey, privateKey string, persistent bool) error
	PrivateKey(publicKey string) (string, bool, error)
	DeleteKeyPair(publicKey string) error

	SetAlias(alias, publicKey string) error
	Alias(alias string) (string, bool, error)
}
