// Package relay provides implementations of the domain.Relay contract: a
// WebSocket client speaking the deployed relay's JSON-RPC dialect, and an
// in-process loopback bus for tests and single-process pairings.
//
// The relay is a store-and-forward pub/sub service indexed by topic string,
// carrying opaque encrypted envelopes. Publish parameters (ttl, tag, prompt)
// are round-tripped bit-exactly; the client never inspects payloads.
package relay
