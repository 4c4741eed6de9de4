package types

import "time"

// PublishOptions carries relay publish parameters. Tag identifies the
// protocol method to the paired relay; Prompt is always false for
// wallet-published frames.
type PublishOptions struct {
	TTL    time.Duration
	Tag    int
	Prompt bool
}

// RelayEvent is one inbound opaque payload delivered for a subscribed topic.
type RelayEvent struct {
	Topic       Topic
	Payload     []byte
	PublishedAt int64 // unix millis
}

// EnvelopeType selects the encrypted frame layout.
type EnvelopeType byte

const (
	// EnvelopeType0 is symmetric-only: both peers already share the topic key.
	EnvelopeType0 EnvelopeType = 0
	// EnvelopeType1 attaches the sender's X25519 public key for the first
	// message to a known-pubkey recipient.
	EnvelopeType1 EnvelopeType = 1
)

// EncodeOptions selects the envelope type for Encode. A nil options value
// means type-0. Type-1 requires both public keys.
type EncodeOptions struct {
	Type              EnvelopeType
	SenderPublicKey   string
	ReceiverPublicKey string
}
