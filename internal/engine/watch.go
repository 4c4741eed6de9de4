package engine

import (
	"context"
	"fmt"
	"time"

	"wcnotify/internal/auth"
	"wcnotify/internal/crypto"
	"wcnotify/internal/domain"
)

// watchKeyAlias names the persistent watch key pair of an account, so the
// device's watch response topic is stable across restarts.
func watchKeyAlias(account domain.Account) string {
	return "watch/" + account.String()
}

func subscribeTopicFor(dapp domain.DappIdentity) (domain.Topic, error) {
	return crypto.SubscribeTopic(dapp.KeyAgreement)
}

// watchSubscriptions opens (or re-opens) the watch channel with the notify
// server: the server answers with the authoritative subscription list and
// pushes subscriptions_changed updates to the derived response topic.
func (e *Engine) watchSubscriptions(ctx context.Context, account domain.Account) error {
	server, err := e.deps.Resolver.ResolveKeys(ctx, e.cfg.NotifyServerURL)
	if err != nil {
		return err
	}
	watchTopic, err := subscribeTopicFor(server)
	if err != nil {
		return err
	}

	alias := watchKeyAlias(account)
	selfKey, ok, err := e.deps.Crypto.AliasedKeyPair(alias)
	if err != nil {
		return err
	}
	if !ok {
		if selfKey, err = e.deps.Crypto.GenerateKeyPair(alias); err != nil {
			return err
		}
	}

	responseTopic, err := e.deps.Crypto.GenerateSharedKey(selfKey, server.KeyAgreement)
	if err != nil {
		return err
	}
	if err := e.deps.Relay.Subscribe(ctx, responseTopic); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrRelayFailure, err)
	}

	common, err := e.commonClaims(account, server.Authentication, auth.ActWatchSubscriptions)
	if err != nil {
		return err
	}
	claims := auth.WatchSubscriptionsClaims{CommonClaims: common}
	watchAuth, err := e.deps.Identity.SignClaims(account, &claims)
	if err != nil {
		return err
	}

	id, err := newRequestID()
	if err != nil {
		return err
	}
	pending := domain.PendingRequest{
		Topic:   responseTopic,
		Method:  MethodNotifyWatchSubscriptions,
		Request: domain.SubscribeContext{Account: account},
	}
	if err := e.deps.Requests.Set(id, pending); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrStoreFailure, err)
	}
	e.deps.Expirer.Set(requestTarget(id), time.Now().Add(requestTTL).Unix())

	return e.publishRequest(ctx, watchTopic, id, MethodNotifyWatchSubscriptions,
		watchPayload{WatchSubscriptionsAuth: watchAuth},
		&domain.EncodeOptions{
			Type:              domain.EnvelopeType1,
			SenderPublicKey:   selfKey,
			ReceiverPublicKey: server.KeyAgreement,
		})
}
