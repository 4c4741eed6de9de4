package interfaces

import (
	"context"

	domaintypes "wcnotify/internal/domain/types"
)

// Resolver fetches a dapp's well-known documents. Results are cached for the
// process lifetime: the happy path performs one network call per document
// per URL.
type Resolver interface {
	ResolveKeys(ctx context.Context, dappURL string) (domaintypes.DappIdentity, error)
	ResolveNotifyConfig(ctx context.Context, dappURL string) (domaintypes.NotifyConfig, error)
}
