// Package auth builds and checks the JWT authorization envelopes carried by
// every protocol action.
//
// Each action has a typed claim set discriminated by the act claim; tokens
// are EdDSA JWS over the wallet's Ed25519 identity key. Decoding on receipt
// extracts claims without signature verification — trust derives from the
// encrypted channel — but act and time bounds are always asserted.
//
// The package also holds the DID helpers used inside claims: did:key for
// Ed25519 keys, did:pkh for CAIP-10 accounts, did:web for dapp domains.
package auth
