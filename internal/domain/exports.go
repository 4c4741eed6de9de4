package domain

import (
	interfaces "wcnotify/internal/domain/interfaces"
	types "wcnotify/internal/domain/types"
)

// Type aliases expose domain types from the types subpackage for compact imports.
type (
	Topic              = types.Topic
	Account            = types.Account
	ScopeSetting       = types.ScopeSetting
	Metadata           = types.Metadata
	RelayOptions       = types.RelayOptions
	Subscription       = types.Subscription
	ServerSubscription = types.ServerSubscription
	NotifyMessage      = types.NotifyMessage
	MessageRecord      = types.MessageRecord
	SubscribeContext   = types.SubscribeContext
	PendingRequest     = types.PendingRequest
	DappIdentity       = types.DappIdentity
	NotifyType         = types.NotifyType
	NotifyConfig       = types.NotifyConfig
	Request            = types.Request
	Response           = types.Response
	ErrorBody          = types.ErrorBody
	PublishOptions     = types.PublishOptions
	RelayEvent         = types.RelayEvent
	EnvelopeType       = types.EnvelopeType
	EncodeOptions      = types.EncodeOptions

	Event                     = types.Event
	SubscriptionEvent         = types.SubscriptionEvent
	MessageEvent              = types.MessageEvent
	UpdateEvent               = types.UpdateEvent
	DeleteEvent               = types.DeleteEvent
	SubscriptionsChangedEvent = types.SubscriptionsChangedEvent
	RequestExpireEvent        = types.RequestExpireEvent
)

// Interface aliases expose domain interfaces from the interfaces subpackage.
type (
	Relay                  = interfaces.Relay
	Crypto                 = interfaces.Crypto
	Identity               = interfaces.Identity
	OnSign                 = interfaces.OnSign
	RegisterIdentityParams = interfaces.RegisterIdentityParams
	Resolver               = interfaces.Resolver
	Expirer                = interfaces.Expirer
	Expiration             = interfaces.Expiration
	StoreEvent             = interfaces.StoreEvent
	SubscriptionStore      = interfaces.SubscriptionStore
	MessageStore           = interfaces.MessageStore
	RequestStore           = interfaces.RequestStore
	Keychain               = interfaces.Keychain
)

// Envelope type constants re-exported for callers of the crypto service.
const (
	EnvelopeType0 = types.EnvelopeType0
	EnvelopeType1 = types.EnvelopeType1
)

// DefaultRelayProtocol mirrors types.DefaultRelayProtocol.
const DefaultRelayProtocol = types.DefaultRelayProtocol

// JSONRPCVersion mirrors types.JSONRPCVersion.
const JSONRPCVersion = types.JSONRPCVersion
