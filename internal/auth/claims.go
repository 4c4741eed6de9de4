package auth

import (
	"github.com/golang-jwt/jwt/v5"

	domaintypes "wcnotify/internal/domain/types"
)

// Act discriminates the protocol action a claim set authorizes. It must be
// checked before any per-action field is read.
type Act string

const (
	ActSubscription               Act = "notify_subscription"
	ActUpdate                     Act = "notify_update"
	ActDelete                     Act = "notify_delete"
	ActMessage                    Act = "notify_message"
	ActMessageResponse            Act = "notify_message_response"
	ActWatchSubscriptions         Act = "notify_watch_subscriptions"
	ActWatchSubscriptionsResponse Act = "notify_watch_subscriptions_response"
	ActSubscriptionsChanged       Act = "notify_subscriptions_changed"
)

// ScopeSeparator joins notification type names in the scp claim.
const ScopeSeparator = " "

// CommonClaims are the fields present in every protocol JWT.
type CommonClaims struct {
	IssuedAt  int64  `json:"iat"`
	Expiry    int64  `json:"exp"`
	Issuer    string `json:"iss"` // did:key of the signing identity key
	Audience  string `json:"aud"` // did:key of the receiving authentication key
	Subject   string `json:"sub"` // did:pkh of the account
	Keyserver string `json:"ksu"`
	Act       Act    `json:"act"`
}

// Action returns the act discriminator.
func (c *CommonClaims) Action() Act { return c.Act }

// jwt.Claims plumbing. Validation of iat/exp happens in Validate with the
// protocol's skew rules, not in the jwt library.

func (c *CommonClaims) GetExpirationTime() (*jwt.NumericDate, error) { return nil, nil }
func (c *CommonClaims) GetIssuedAt() (*jwt.NumericDate, error)       { return nil, nil }
func (c *CommonClaims) GetNotBefore() (*jwt.NumericDate, error)      { return nil, nil }
func (c *CommonClaims) GetIssuer() (string, error)                   { return c.Issuer, nil }
func (c *CommonClaims) GetSubject() (string, error)                  { return c.Subject, nil }
func (c *CommonClaims) GetAudience() (jwt.ClaimStrings, error) {
	return jwt.ClaimStrings{c.Audience}, nil
}

// SubscriptionClaims authorize an outgoing subscribe request.
type SubscriptionClaims struct {
	CommonClaims
	Scope string `json:"scp"`
	App   string `json:"app"` // did:web of the dapp
}

// UpdateClaims authorize an outgoing scope update.
type UpdateClaims struct {
	CommonClaims
	Scope string `json:"scp"`
	App   string `json:"app"`
}

// DeleteClaims authorize an outgoing subscription deletion.
type DeleteClaims struct {
	CommonClaims
	App string `json:"app"`
}

// MessageClaims carry one inbound notification.
type MessageClaims struct {
	CommonClaims
	Message domaintypes.NotifyMessage `json:"msg"`
}

// MessageResponseClaims acknowledge an inbound notification.
type MessageResponseClaims struct {
	CommonClaims
	App string `json:"app"`
}

// WatchSubscriptionsClaims authorize an outgoing watch request.
type WatchSubscriptionsClaims struct {
	CommonClaims
}

// WatchSubscriptionsResponseClaims carry the server-authoritative
// subscription list in a watch response.
type WatchSubscriptionsResponseClaims struct {
	CommonClaims
	Subscriptions []domaintypes.ServerSubscription `json:"sbs"`
}

// SubscriptionsChangedClaims carry the server-authoritative subscription
// list in a pushed change notification.
type SubscriptionsChangedClaims struct {
	CommonClaims
	Subscriptions []domaintypes.ServerSubscription `json:"sbs"`
}
