package types

// DappIdentity is the key pair a dapp publishes in its did.json document,
// both as lowercase hex.
type DappIdentity struct {
	KeyAgreement   string // X25519, drives topic and channel derivation
	Authentication string // Ed25519, the audience of outgoing JWTs
}

// NotifyType is one notification category a dapp declares.
type NotifyType struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// NotifyConfig is a dapp's wc-notify-config.json document.
type NotifyConfig struct {
	Name        string       `json:"name"`
	Description string       `json:"description"`
	Icons       []string     `json:"icons"`
	Types       []NotifyType `json:"types"`
}
