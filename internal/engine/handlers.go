package engine

import (
	"context"
	"encoding/json"
	"time"

	"wcnotify/internal/auth"
	"wcnotify/internal/domain"
)

// onNotifySubscribeResponse surfaces the outcome of an outgoing subscribe.
// The authoritative subscription record arrives separately through the
// watch channel, so the event carries only the correlation id and the
// response error, if any.
func (e *Engine) onNotifySubscribeResponse(pending domain.PendingRequest, resp domain.Response) {
	e.events.emit(domain.SubscriptionEvent{ID: resp.ID, Error: resp.Error})
}

// onNotifyUpdateResponse surfaces the outcome of an outgoing update. The
// actual scope change lands via reconciliation.
func (e *Engine) onNotifyUpdateResponse(pending domain.PendingRequest, resp domain.Response) {
	e.events.emit(domain.UpdateEvent{ID: resp.ID, Topic: pending.Topic, Error: resp.Error})
}

// onNotifyMessageRequest ingests one encrypted notification: validate its
// JWT, persist it, acknowledge on the same topic, then emit. The
// acknowledgement is published before the event so a host reacting to the
// event always observes a completed exchange.
func (e *Engine) onNotifyMessageRequest(ctx context.Context, topic domain.Topic, req domain.Request, publishedAt int64) {
	resTag := methodSpecs[MethodNotifyMessage].ResTag

	var body messagePayload
	if req.Params != nil {
		if err := json.Unmarshal(req.Params, &body); err != nil {
			e.sendError(ctx, topic, req.ID, "malformed params", resTag)
			return
		}
	}
	if body.MessageAuth == "" {
		e.sendError(ctx, topic, req.ID, "missing messageAuth", resTag)
		return
	}

	var claims auth.MessageClaims
	if err := auth.DecodeAndValidate(body.MessageAuth, &claims, auth.ActMessage, time.Now()); err != nil {
		e.logger.Warn().Err(err).Str("topic", topic.String()).Msg("rejecting notify message")
		e.sendError(ctx, topic, req.ID, err.Error(), resTag)
		return
	}

	// Archived messages can arrive before the subscription itself syncs;
	// install the record on demand rather than dropping them.
	has, err := e.deps.Messages.Has(topic)
	if err != nil {
		e.logger.Error().Err(err).Msg("message store read failed")
		e.sendError(ctx, topic, req.ID, "store failure", resTag)
		return
	}
	if !has {
		if err := e.deps.Messages.Init(topic); err != nil {
			e.logger.Error().Err(err).Msg("message store init failed")
			e.sendError(ctx, topic, req.ID, "store failure", resTag)
			return
		}
	}

	rec := domain.MessageRecord{
		ID:          req.ID,
		Topic:       topic,
		Message:     claims.Message,
		PublishedAt: claims.IssuedAt * 1000,
	}
	if err := e.deps.Messages.Append(topic, rec); err != nil {
		e.logger.Error().Err(err).Msg("message store append failed")
		e.sendError(ctx, topic, req.ID, "store failure", resTag)
		return
	}

	responseAuth, err := e.messageResponseAuth(topic, claims)
	if err != nil {
		e.logger.Error().Err(err).Msg("signing message response failed")
		e.sendError(ctx, topic, req.ID, "signing failure", resTag)
		return
	}
	if err := e.sendResult(ctx, topic, req.ID, responsePayload{ResponseAuth: responseAuth}, resTag); err != nil {
		e.logger.Error().Err(err).Uint64("id", req.ID).Msg("publishing message response failed")
		return
	}

	e.events.emit(domain.MessageEvent{ID: req.ID, Topic: topic, Message: claims.Message})
}

// messageResponseAuth builds the notify_message_response JWT for an inbound
// message. The audience is the message's issuer.
func (e *Engine) messageResponseAuth(topic domain.Topic, claims auth.MessageClaims) (string, error) {
	account, err := e.accountFor(topic, claims.Subject)
	if err != nil {
		return "", err
	}
	identityKey, ok, err := e.deps.Identity.PublicKey(account)
	if err != nil || !ok {
		return "", domain.ErrIdentityFailure
	}
	issuer, err := auth.EncodeEd25519DIDKey(identityKey)
	if err != nil {
		return "", err
	}

	app := ""
	if sub, ok, err := e.deps.Subscriptions.Get(topic); err == nil && ok {
		app = auth.DIDWeb(sub.Metadata.AppDomain)
	}

	now := time.Now()
	response := auth.MessageResponseClaims{
		CommonClaims: auth.CommonClaims{
			IssuedAt:  now.Unix(),
			Expiry:    now.Add(auth.ClaimsTTL).Unix(),
			Issuer:    issuer,
			Audience:  claims.Issuer,
			Subject:   auth.DIDPKH(account),
			Keyserver: e.cfg.KeyserverURL,
			Act:       auth.ActMessageResponse,
		},
		App: app,
	}
	return e.deps.Identity.SignClaims(account, &response)
}

// accountFor resolves the owning account of a topic, falling back to the
// did:pkh subject of the triggering claims when the subscription has not
// synced yet.
func (e *Engine) accountFor(topic domain.Topic, subject string) (domain.Account, error) {
	if sub, ok, err := e.deps.Subscriptions.Get(topic); err == nil && ok {
		return sub.Account, nil
	}
	return auth.AccountFromDIDPKH(subject)
}

// onNotifyDeleteRequest acknowledges a dapp-initiated deletion and hands it
// to the host. Local cleanup is driven by the server's subsequent
// subscriptions_changed, not by this handler.
func (e *Engine) onNotifyDeleteRequest(ctx context.Context, topic domain.Topic, req domain.Request) {
	resTag := methodSpecs[MethodNotifyDelete].ResTag

	var body deletePayload
	if req.Params != nil {
		if err := json.Unmarshal(req.Params, &body); err != nil {
			e.sendError(ctx, topic, req.ID, "malformed params", resTag)
			return
		}
	}
	if err := e.sendResult(ctx, topic, req.ID, true, resTag); err != nil {
		e.logger.Error().Err(err).Uint64("id", req.ID).Msg("publishing delete response failed")
		return
	}
	e.events.emit(domain.DeleteEvent{ID: req.ID, Topic: topic})
}

// onNotifyWatchSubscriptionsResponse applies the server-authoritative
// subscription list delivered in answer to our watch request.
func (e *Engine) onNotifyWatchSubscriptionsResponse(ctx context.Context, pending domain.PendingRequest, resp domain.Response) {
	if resp.Error != nil {
		e.logger.Warn().Str("error", resp.Error.Message).Msg("watch subscriptions rejected")
		return
	}
	var body responsePayload
	if err := json.Unmarshal(resp.Result, &body); err != nil {
		e.logger.Warn().Err(err).Msg("malformed watch response")
		return
	}
	var claims auth.WatchSubscriptionsResponseClaims
	if err := auth.DecodeAndValidate(body.ResponseAuth, &claims, auth.ActWatchSubscriptionsResponse, time.Now()); err != nil {
		e.logger.Warn().Err(err).Msg("invalid watch response auth")
		return
	}
	account, err := auth.AccountFromDIDPKH(claims.Subject)
	if err != nil {
		e.logger.Warn().Err(err).Msg("watch response without did:pkh subject")
		return
	}
	e.reconcile(ctx, account, claims.Subscriptions)
	e.emitSubscriptionsChanged()
}

// onNotifySubscriptionsChangedRequest applies a server push of the
// authoritative subscription list. Fire-and-forget: no response is sent.
func (e *Engine) onNotifySubscriptionsChangedRequest(ctx context.Context, topic domain.Topic, req domain.Request) {
	var body subscriptionsChangedPayload
	if req.Params != nil {
		if err := json.Unmarshal(req.Params, &body); err != nil {
			e.logger.Warn().Err(err).Msg("malformed subscriptions_changed params")
			return
		}
	}
	var claims auth.SubscriptionsChangedClaims
	if err := auth.DecodeAndValidate(body.SubscriptionsChangedAuth, &claims, auth.ActSubscriptionsChanged, time.Now()); err != nil {
		e.logger.Warn().Err(err).Msg("invalid subscriptions_changed auth")
		return
	}
	account, err := auth.AccountFromDIDPKH(claims.Subject)
	if err != nil {
		e.logger.Warn().Err(err).Msg("subscriptions_changed without did:pkh subject")
		return
	}
	e.reconcile(ctx, account, claims.Subscriptions)
	e.emitSubscriptionsChanged()
}

func (e *Engine) emitSubscriptionsChanged() {
	subs, err := e.deps.Subscriptions.All(nil)
	if err != nil {
		e.logger.Error().Err(err).Msg("subscription store read failed")
		subs = nil
	}
	e.events.emit(domain.SubscriptionsChangedEvent{Subscriptions: subs})
}
