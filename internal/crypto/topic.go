package crypto

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"wcnotify/internal/domain"
)

// SubscribeTopic derives the topic both parties know from the dapp's
// published key-agreement public key: SHA256 of the key bytes.
func SubscribeTopic(dappPublicKey string) (domain.Topic, error) {
	raw, err := hex.DecodeString(dappPublicKey)
	if err != nil {
		return "", fmt.Errorf("%w: bad public key hex: %v", domain.ErrCryptoFailure, err)
	}
	sum := sha256.Sum256(raw)
	return domain.Topic(hex.EncodeToString(sum[:])), nil
}

// SubscriptionTopic derives the routing topic of a live subscription from
// its symmetric key: SHA256 of the key bytes.
func SubscriptionTopic(symKeyHex string) (domain.Topic, error) {
	raw, err := hex.DecodeString(symKeyHex)
	if err != nil {
		return "", fmt.Errorf("%w: bad sym key hex: %v", domain.ErrCryptoFailure, err)
	}
	sum := sha256.Sum256(raw)
	return domain.Topic(hex.EncodeToString(sum[:])), nil
}
