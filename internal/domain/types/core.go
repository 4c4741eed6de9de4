package types

// Topic is a 32-byte lowercase hex relay routing key, derived from a public
// key or a symmetric key.
type Topic string

// String returns the string form of the topic.
func (t Topic) String() string { return string(t) }

// Account is a CAIP-10 chain account string, namespace:chain:address.
type Account string

// String returns the string form of the account.
func (a Account) String() string { return string(a) }

// DefaultRelayProtocol is the relay protocol subscriptions ride on unless a
// server-provided record says otherwise.
const DefaultRelayProtocol = "irn"
