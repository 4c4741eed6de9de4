// Package identity binds a wallet account's Ed25519 identity key to a
// keyserver and signs protocol claim sets with it.
//
// Registration has the owner sign a human-readable authorization statement
// (limited to one dapp, or unlimited across all dapps) with their blockchain
// key; the signed statement and the new identity key are published to the
// keyserver. The key seed is kept in the key chain and used afterwards to
// issue the EdDSA JWS carried by every protocol action.
package identity
