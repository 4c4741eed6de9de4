// Package engine implements the wallet-side notify protocol state machine.
//
// Public operations (Register, Subscribe, Update, DeleteSubscription,
// DecryptMessage and the read accessors) build typed JWT claim sets, have
// the identity service sign them and publish encrypted JSON-RPC frames
// through the relay. A single relay listener decodes inbound envelopes and
// routes requests by method and responses by the ledger-recorded method of
// their request; handlers mutate the stores and surface typed events to the
// host through a subscribe-callback registry.
//
// Subscription state is server-authoritative: the reconciler applies the
// list carried by watch responses and subscriptions_changed pushes,
// creating and tearing down topics, message records and key-chain entries
// so the local mirror always matches SHA256-of-sym-key derivation.
package engine
