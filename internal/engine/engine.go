package engine

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"wcnotify/internal/auth"
	"wcnotify/internal/domain"
)

// Config carries engine construction options.
type Config struct {
	Logger zerolog.Logger

	// KeyserverURL is recorded in every claim set's ksu claim.
	KeyserverURL string

	// NotifyServerURL is the domain (or URL) whose did.json identifies the
	// notify server for the watch channel.
	NotifyServerURL string
}

// Dependencies are the engine's collaborators.
type Dependencies struct {
	Relay         domain.Relay
	Crypto        domain.Crypto
	Identity      domain.Identity
	Resolver      domain.Resolver
	Subscriptions domain.SubscriptionStore
	Messages      domain.MessageStore
	Requests      domain.RequestStore
	Expirer       domain.Expirer
}

var errInvalidDeps = errors.New("engine: missing dependency")

// Engine is the wallet-side notify protocol state machine. Public
// operations build claims, have the identity service sign them, and publish
// through the relay; inbound traffic flows through the dispatcher into
// typed handlers and out as events.
type Engine struct {
	cfg    Config
	deps   Dependencies
	logger zerolog.Logger

	started atomic.Bool
	events  Emitter
}

// New wires up an Engine and installs its relay and expirer handlers. Call
// Start before invoking operations.
func New(cfg Config, deps Dependencies) (*Engine, error) {
	if deps.Relay == nil || deps.Crypto == nil || deps.Identity == nil || deps.Resolver == nil ||
		deps.Subscriptions == nil || deps.Messages == nil || deps.Requests == nil || deps.Expirer == nil {
		return nil, errInvalidDeps
	}
	e := &Engine{
		cfg:    cfg,
		deps:   deps,
		logger: cfg.Logger.With().Str("component", "notify_engine").Logger(),
	}
	deps.Relay.RegisterHandler(e.handleRelayEvent)
	deps.Expirer.RegisterHandler(e.handleExpiration)
	return e, nil
}

// Events exposes the engine's event registry.
func (e *Engine) Events() *Emitter { return &e.events }

// Start re-subscribes every persisted subscription topic and marks the
// engine ready. Register, Subscribe, Update and DeleteSubscription invoked
// before Start fail with ErrNotInitialized; DecryptMessage and the local
// accessors (MessageHistory, ActiveSubscriptions, DeleteNotifyMessage) do
// not check it.
func (e *Engine) Start(ctx context.Context) error {
	topics, err := e.deps.Subscriptions.Keys()
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrStoreFailure, err)
	}
	for _, topic := range topics {
		if err := e.deps.Relay.Subscribe(ctx, topic); err != nil {
			return fmt.Errorf("%w: resubscribe %s: %v", domain.ErrRelayFailure, topic, err)
		}
	}
	e.started.Store(true)
	e.logger.Info().Int("subscriptions", len(topics)).Msg("engine started")
	return nil
}

func (e *Engine) ready() error {
	if !e.started.Load() {
		return domain.ErrNotInitialized
	}
	return nil
}

// Register binds an identity key for the account and opens the watch
// channel with the notify server. Watch failures are logged, not returned:
// registration succeeds once the identity does.
func (e *Engine) Register(ctx context.Context, params domain.RegisterIdentityParams) (string, error) {
	if err := e.ready(); err != nil {
		return "", err
	}
	identityKey, err := e.deps.Identity.Register(ctx, params)
	if err != nil {
		return "", err
	}
	if err := e.watchSubscriptions(ctx, params.Account); err != nil {
		e.logger.Warn().Err(err).
			Str("account", params.Account.String()).
			Msg("watch subscriptions failed after register")
	}
	return identityKey, nil
}

// Subscribe opens a subscription to a dapp's notifications with every
// declared type enabled. The returned id correlates the eventual
// notify_subscription event; the subscription record itself arrives through
// the watch channel.
func (e *Engine) Subscribe(ctx context.Context, appDomain string, account domain.Account) (uint64, string, error) {
	if err := e.ready(); err != nil {
		return 0, "", err
	}

	dapp, err := e.deps.Resolver.ResolveKeys(ctx, appDomain)
	if err != nil {
		return 0, "", err
	}
	cfg, err := e.deps.Resolver.ResolveNotifyConfig(ctx, appDomain)
	if err != nil {
		return 0, "", err
	}

	subscribeTopic, err := subscribeTopicFor(dapp)
	if err != nil {
		return 0, "", err
	}

	// Fresh ephemeral pair for this subscribe; its response channel becomes
	// the subscription's first point of contact.
	selfKey, err := e.deps.Crypto.GenerateKeyPair("")
	if err != nil {
		return 0, "", err
	}
	responseTopic, err := e.deps.Crypto.GenerateSharedKey(selfKey, dapp.KeyAgreement)
	if err != nil {
		return 0, "", err
	}
	if err := e.deps.Relay.Subscribe(ctx, responseTopic); err != nil {
		return 0, "", fmt.Errorf("%w: %v", domain.ErrRelayFailure, err)
	}

	typeNames := make([]string, 0, len(cfg.Types))
	for _, t := range cfg.Types {
		typeNames = append(typeNames, t.Name)
	}

	common, err := e.commonClaims(account, dapp.Authentication, auth.ActSubscription)
	if err != nil {
		return 0, "", err
	}
	claims := auth.SubscriptionClaims{
		CommonClaims: common,
		Scope:        strings.Join(typeNames, auth.ScopeSeparator),
		App:          auth.DIDWeb(appDomain),
	}
	subscriptionAuth, err := e.deps.Identity.SignClaims(account, &claims)
	if err != nil {
		return 0, "", err
	}

	id, err := newRequestID()
	if err != nil {
		return 0, "", err
	}
	pending := domain.PendingRequest{
		Topic:  responseTopic,
		Method: MethodNotifySubscribe,
		Request: domain.SubscribeContext{
			Account: account,
			Metadata: domain.Metadata{
				Name:        cfg.Name,
				Description: cfg.Description,
				Icons:       cfg.Icons,
				AppDomain:   appDomain,
			},
			PublicKey: selfKey,
			Scope:     typeNames,
		},
	}
	// Ledger before publish: an instantaneous response must find its entry.
	if err := e.deps.Requests.Set(id, pending); err != nil {
		return 0, "", fmt.Errorf("%w: %v", domain.ErrStoreFailure, err)
	}
	e.deps.Expirer.Set(requestTarget(id), time.Now().Add(requestTTL).Unix())

	err = e.publishRequest(ctx, subscribeTopic, id, MethodNotifySubscribe,
		subscribePayload{SubscriptionAuth: subscriptionAuth},
		&domain.EncodeOptions{
			Type:              domain.EnvelopeType1,
			SenderPublicKey:   selfKey,
			ReceiverPublicKey: dapp.KeyAgreement,
		})
	if err != nil {
		return 0, "", err
	}
	return id, subscriptionAuth, nil
}

// Update replaces the enabled scope of a subscription. The new scope takes
// effect locally once the server confirms via subscriptions_changed.
func (e *Engine) Update(ctx context.Context, topic domain.Topic, scope []string) error {
	if err := e.ready(); err != nil {
		return err
	}
	sub, ok, err := e.deps.Subscriptions.Get(topic)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrStoreFailure, err)
	}
	if !ok {
		return fmt.Errorf("%w: %s", domain.ErrUnknownSubscription, topic)
	}

	dapp, err := e.deps.Resolver.ResolveKeys(ctx, sub.Metadata.AppDomain)
	if err != nil {
		return err
	}
	common, err := e.commonClaims(sub.Account, dapp.Authentication, auth.ActUpdate)
	if err != nil {
		return err
	}
	claims := auth.UpdateClaims{
		CommonClaims: common,
		Scope:        strings.Join(scope, auth.ScopeSeparator),
		App:          auth.DIDWeb(sub.Metadata.AppDomain),
	}
	updateAuth, err := e.deps.Identity.SignClaims(sub.Account, &claims)
	if err != nil {
		return err
	}

	id, err := newRequestID()
	if err != nil {
		return err
	}
	pending := domain.PendingRequest{
		Topic:  topic,
		Method: MethodNotifyUpdate,
		Request: domain.SubscribeContext{
			Account:     sub.Account,
			Metadata:    sub.Metadata,
			Scope:       scope,
			ScopeUpdate: scope,
		},
	}
	if err := e.deps.Requests.Set(id, pending); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrStoreFailure, err)
	}
	e.deps.Expirer.Set(requestTarget(id), time.Now().Add(requestTTL).Unix())

	return e.publishRequest(ctx, topic, id, MethodNotifyUpdate, updatePayload{UpdateAuth: updateAuth}, nil)
}

// DeleteSubscription asks the dapp to drop a subscription. Local state is
// torn down when the server confirms via subscriptions_changed.
func (e *Engine) DeleteSubscription(ctx context.Context, topic domain.Topic) error {
	if err := e.ready(); err != nil {
		return err
	}
	sub, ok, err := e.deps.Subscriptions.Get(topic)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrStoreFailure, err)
	}
	if !ok {
		return fmt.Errorf("%w: %s", domain.ErrUnknownSubscription, topic)
	}

	dapp, err := e.deps.Resolver.ResolveKeys(ctx, sub.Metadata.AppDomain)
	if err != nil {
		return err
	}
	common, err := e.commonClaims(sub.Account, dapp.Authentication, auth.ActDelete)
	if err != nil {
		return err
	}
	claims := auth.DeleteClaims{
		CommonClaims: common,
		App:          auth.DIDWeb(sub.Metadata.AppDomain),
	}
	deleteAuth, err := e.deps.Identity.SignClaims(sub.Account, &claims)
	if err != nil {
		return err
	}

	id, err := newRequestID()
	if err != nil {
		return err
	}
	pending := domain.PendingRequest{
		Topic:  topic,
		Method: MethodNotifyDelete,
		Request: domain.SubscribeContext{
			Account:  sub.Account,
			Metadata: sub.Metadata,
		},
	}
	if err := e.deps.Requests.Set(id, pending); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrStoreFailure, err)
	}
	e.deps.Expirer.Set(requestTarget(id), time.Now().Add(requestTTL).Unix())

	return e.publishRequest(ctx, topic, id, MethodNotifyDelete, deletePayload{DeleteAuth: deleteAuth}, nil)
}

// DecryptMessage decodes an encrypted wc_notifyMessage envelope and returns
// its notification. Purely functional: no state is touched.
func (e *Engine) DecryptMessage(topic domain.Topic, ciphertext []byte) (domain.NotifyMessage, error) {
	payload, err := e.deps.Crypto.Decode(topic, ciphertext)
	if err != nil {
		return domain.NotifyMessage{}, err
	}
	var req domain.Request
	if err := json.Unmarshal(payload, &req); err != nil {
		return domain.NotifyMessage{}, fmt.Errorf("%w: %v", domain.ErrInvalidMessagePayload, err)
	}
	var body messagePayload
	if req.Params != nil {
		if err := json.Unmarshal(req.Params, &body); err != nil {
			return domain.NotifyMessage{}, fmt.Errorf("%w: %v", domain.ErrInvalidMessagePayload, err)
		}
	}
	if body.MessageAuth == "" {
		return domain.NotifyMessage{}, fmt.Errorf("%w: missing messageAuth", domain.ErrInvalidMessagePayload)
	}
	var claims auth.MessageClaims
	if err := auth.DecodeAndValidate(body.MessageAuth, &claims, auth.ActMessage, time.Now()); err != nil {
		return domain.NotifyMessage{}, err
	}
	return claims.Message, nil
}

// MessageHistory returns the received messages of a subscription topic.
func (e *Engine) MessageHistory(topic domain.Topic) (map[uint64]domain.MessageRecord, error) {
	recs, ok, err := e.deps.Messages.Get(topic)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrStoreFailure, err)
	}
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrUnknownSubscription, topic)
	}
	return recs, nil
}

// ActiveSubscriptions returns the local subscription set keyed by topic,
// optionally filtered to one account.
func (e *Engine) ActiveSubscriptions(account domain.Account) (map[domain.Topic]domain.Subscription, error) {
	var filter func(domain.Subscription) bool
	if account != "" {
		filter = func(s domain.Subscription) bool { return s.Account == account }
	}
	subs, err := e.deps.Subscriptions.All(filter)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrStoreFailure, err)
	}
	out := make(map[domain.Topic]domain.Subscription, len(subs))
	for _, sub := range subs {
		out[sub.Topic] = sub
	}
	return out, nil
}

// DeleteNotifyMessage removes one received message by its id.
func (e *Engine) DeleteNotifyMessage(id uint64) error {
	if err := e.deps.Messages.DeleteMessage(id); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrStoreFailure, err)
	}
	return nil
}

// commonClaims assembles the shared claim fields for an outgoing action.
func (e *Engine) commonClaims(account domain.Account, audienceKeyHex string, act auth.Act) (auth.CommonClaims, error) {
	identityKey, ok, err := e.deps.Identity.PublicKey(account)
	if err != nil {
		return auth.CommonClaims{}, fmt.Errorf("%w: %v", domain.ErrStoreFailure, err)
	}
	if !ok {
		return auth.CommonClaims{}, fmt.Errorf("%w: no identity registered for %s", domain.ErrIdentityFailure, account)
	}
	issuer, err := auth.EncodeEd25519DIDKey(identityKey)
	if err != nil {
		return auth.CommonClaims{}, err
	}
	audience, err := auth.EncodeEd25519DIDKey(audienceKeyHex)
	if err != nil {
		return auth.CommonClaims{}, err
	}
	now := time.Now()
	return auth.CommonClaims{
		IssuedAt:  now.Unix(),
		Expiry:    now.Add(auth.ClaimsTTL).Unix(),
		Issuer:    issuer,
		Audience:  audience,
		Subject:   auth.DIDPKH(account),
		Keyserver: e.cfg.KeyserverURL,
		Act:       act,
	}, nil
}

// publishRequest marshals and publishes one outgoing JSON-RPC request.
func (e *Engine) publishRequest(
	ctx context.Context,
	topic domain.Topic,
	id uint64,
	method string,
	params any,
	opts *domain.EncodeOptions,
) error {
	rawParams, err := json.Marshal(params)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrCryptoFailure, err)
	}
	frame, err := json.Marshal(domain.Request{
		JSONRPC: domain.JSONRPCVersion,
		ID:      id,
		Method:  method,
		Params:  rawParams,
	})
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrCryptoFailure, err)
	}
	env, err := e.deps.Crypto.Encode(topic, frame, opts)
	if err != nil {
		return err
	}
	tags := methodSpecs[method]
	err = e.deps.Relay.Publish(ctx, topic, env, domain.PublishOptions{
		TTL:    requestTTL,
		Tag:    tags.ReqTag,
		Prompt: false,
	})
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrRelayFailure, err)
	}
	return nil
}
