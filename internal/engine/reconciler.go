package engine

import (
	"context"
	"fmt"
	"sync"

	"wcnotify/internal/crypto"
	"wcnotify/internal/domain"
)

// reconcile makes the local stores for one account match a
// server-authoritative subscription list.
//
// Vanished topics are cleaned up first, serialized, so a subscription that
// briefly "moves" cannot race its own re-subscribe. The listed
// subscriptions are then applied concurrently. A failure on one
// subscription is logged and never aborts the rest of the batch; applying
// the same list twice is a no-op.
func (e *Engine) reconcile(ctx context.Context, account domain.Account, sbs []domain.ServerSubscription) {
	wanted := make(map[domain.Topic]domain.ServerSubscription, len(sbs))
	for _, sb := range sbs {
		topic, err := crypto.SubscriptionTopic(sb.SymKey)
		if err != nil {
			e.logger.Warn().Err(err).Str("appDomain", sb.AppDomain).Msg("skipping subscription with bad sym key")
			continue
		}
		wanted[topic] = sb
	}

	locals, err := e.deps.Subscriptions.All(func(s domain.Subscription) bool { return s.Account == account })
	if err != nil {
		e.logger.Error().Err(err).Msg("subscription store read failed during reconcile")
		return
	}
	for _, local := range locals {
		if _, ok := wanted[local.Topic]; !ok {
			e.cleanupSubscription(ctx, local.Topic)
		}
	}

	var wg sync.WaitGroup
	for topic, sb := range wanted {
		wg.Add(1)
		go func(topic domain.Topic, sb domain.ServerSubscription) {
			defer wg.Done()
			if err := e.applyServerSubscription(ctx, topic, sb); err != nil {
				e.logger.Warn().Err(err).
					Str("topic", topic.String()).
					Str("appDomain", sb.AppDomain).
					Msg("applying server subscription failed")
			}
		}(topic, sb)
	}
	wg.Wait()
}

// cleanupSubscription tears one subscription down. The relay unsubscribe
// completes first so an in-flight decrypt still finds the sym key; the
// record, message and key deletions then run concurrently.
func (e *Engine) cleanupSubscription(ctx context.Context, topic domain.Topic) {
	if err := e.deps.Relay.Unsubscribe(ctx, topic); err != nil {
		e.logger.Warn().Err(err).Str("topic", topic.String()).Msg("relay unsubscribe failed during cleanup")
	}

	var wg sync.WaitGroup
	for _, del := range []func() error{
		func() error { return e.deps.Subscriptions.Delete(topic, "reconcile") },
		func() error { return e.deps.Messages.Delete(topic, "reconcile") },
		func() error { return e.deps.Crypto.DeleteSymKey(topic) },
	} {
		wg.Add(1)
		go func(del func() error) {
			defer wg.Done()
			if err := del(); err != nil {
				e.logger.Warn().Err(err).Str("topic", topic.String()).Msg("cleanup step failed")
			}
		}(del)
	}
	wg.Wait()
}

// applyServerSubscription upserts one listed subscription. New topics get
// the sym key installed, an empty message record and a relay subscription.
func (e *Engine) applyServerSubscription(ctx context.Context, topic domain.Topic, sb domain.ServerSubscription) error {
	cfg, err := e.deps.Resolver.ResolveNotifyConfig(ctx, sb.AppDomain)
	if err != nil {
		return err
	}

	enabled := make(map[string]bool, len(sb.Scope))
	for _, name := range sb.Scope {
		enabled[name] = true
	}
	scope := make(map[string]domain.ScopeSetting, len(cfg.Types))
	for _, t := range cfg.Types {
		scope[t.Name] = domain.ScopeSetting{Description: t.Description, Enabled: enabled[t.Name]}
	}

	_, existed, err := e.deps.Subscriptions.Get(topic)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrStoreFailure, err)
	}

	sub := domain.Subscription{
		Topic:   topic,
		Account: sb.Account,
		Expiry:  sb.Expiry,
		SymKey:  sb.SymKey,
		Scope:   scope,
		Metadata: domain.Metadata{
			Name:        cfg.Name,
			Description: cfg.Description,
			Icons:       cfg.Icons,
			AppDomain:   sb.AppDomain,
		},
		Relay: domain.RelayOptions{Protocol: domain.DefaultRelayProtocol},
	}
	if err := e.deps.Subscriptions.Set(topic, sub); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrStoreFailure, err)
	}

	if !existed {
		if err := e.deps.Crypto.SetSymKey(sb.SymKey, topic); err != nil {
			return err
		}
		if err := e.deps.Messages.Init(topic); err != nil {
			return fmt.Errorf("%w: %v", domain.ErrStoreFailure, err)
		}
		if err := e.deps.Relay.Subscribe(ctx, topic); err != nil {
			return fmt.Errorf("%w: %v", domain.ErrRelayFailure, err)
		}
	}
	return nil
}
