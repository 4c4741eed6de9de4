// Package diddoc resolves a dapp's cryptographic identity and notify
// configuration from its well-known documents.
//
// ResolveKeys reads did.json and returns the X25519 key-agreement and
// Ed25519 authentication keys referenced by the document's keyAgreement and
// authentication sections. ResolveNotifyConfig reads
// wc-notify-config.json. Both results are cached per URL for the process
// lifetime.
package diddoc
