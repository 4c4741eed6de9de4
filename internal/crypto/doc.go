// Package crypto exposes the primitives and the key-chain-backed service
// used by the notify client.
//
// Contents
//
//   - X25519 key generation, clamping and Diffie–Hellman (GenerateX25519, DH)
//   - Topic derivation from public and symmetric keys (SubscribeTopic,
//     SubscriptionTopic)
//   - Type-0/type-1 envelope sealing and opening over ChaCha20-Poly1305
//   - Service, the stateful crypto contract the engine consumes
//
// # Notes
//
// The symmetric key of a channel is the raw X25519 shared secret and every
// topic is the SHA256 of the key that rides on it. Private halves never
// leave the key chain store.
package crypto
