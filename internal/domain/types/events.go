package types

// Event is implemented by every notification the engine emits to the host.
type Event interface {
	// Name returns the protocol event name.
	Name() string
}

// SubscriptionEvent reports the outcome of an outgoing subscribe request.
// The authoritative subscription record arrives separately via
// SubscriptionsChangedEvent.
type SubscriptionEvent struct {
	ID    uint64
	Error *ErrorBody
}

// MessageEvent delivers one decrypted inbound notification.
type MessageEvent struct {
	ID      uint64
	Topic   Topic
	Message NotifyMessage
}

// UpdateEvent reports the outcome of an outgoing scope update.
type UpdateEvent struct {
	ID    uint64
	Topic Topic
	Error *ErrorBody
}

// DeleteEvent reports a dapp-initiated subscription deletion.
type DeleteEvent struct {
	ID    uint64
	Topic Topic
}

// SubscriptionsChangedEvent reports that the local subscription set was
// reconciled against server state. Subscriptions is the full local set after
// reconciliation.
type SubscriptionsChangedEvent struct {
	Subscriptions []Subscription
}

// RequestExpireEvent reports that an outgoing request expired unanswered.
type RequestExpireEvent struct {
	ID uint64
}

func (SubscriptionEvent) Name() string         { return "notify_subscription" }
func (MessageEvent) Name() string              { return "notify_message" }
func (UpdateEvent) Name() string               { return "notify_update" }
func (DeleteEvent) Name() string               { return "notify_delete" }
func (SubscriptionsChangedEvent) Name() string { return "notify_subscriptions_changed" }
func (RequestExpireEvent) Name() string        { return "request_expire" }
