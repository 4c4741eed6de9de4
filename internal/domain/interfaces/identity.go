package interfaces

import (
	"context"

	domaintypes "wcnotify/internal/domain/types"
)

// OnSign asks the wallet owner to sign a human-readable statement with their
// blockchain key and return the signature.
type OnSign func(message string) (signature string, err error)

// RegisterIdentityParams carries everything needed to bind an identity key
// to an account at the keyserver.
type RegisterIdentityParams struct {
	Account   domaintypes.Account
	OnSign    OnSign
	IsLimited bool
	Domain    string
}

// Identity registers a wallet account's Ed25519 identity key with a
// keyserver and signs JWT claim sets on its behalf.
type Identity interface {
	Register(ctx context.Context, params RegisterIdentityParams) (string, error)
	PublicKey(account domaintypes.Account) (string, bool, error)

	// SignClaims signs a typed claim set as an EdDSA JWS with the account's
	// identity key and returns the compact serialization.
	SignClaims(account domaintypes.Account, claims any) (string, error)
}
