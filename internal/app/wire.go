package app

import (
	"context"
	"net/http"
	"time"

	cryptosvc "wcnotify/internal/crypto"
	"wcnotify/internal/diddoc"
	"wcnotify/internal/domain"
	"wcnotify/internal/engine"
	"wcnotify/internal/expirer"
	identitysvc "wcnotify/internal/identity"
	"wcnotify/internal/relay"
	"wcnotify/internal/store"
)

// expirerInterval paces the request-expiry sweep.
const expirerInterval = 30 * time.Second

// Wire bundles all stores, services, and clients for the CLI.
type Wire struct {
	Engine        *engine.Engine
	Relay         *relay.WebSocket
	Expirer       *expirer.Service
	Subscriptions domain.SubscriptionStore
	Messages      domain.MessageStore
	Keychain      domain.Keychain
}

// NewWire constructs the dependency graph from cfg and connects the relay.
func NewWire(ctx context.Context, cfg Config) (*Wire, error) {
	// File-based stores
	keychain := store.NewKeychainFileStore(cfg.Home)
	subscriptions := store.NewSubscriptionFileStore(cfg.Home)
	messages := store.NewMessageFileStore(cfg.Home)
	requests := store.NewRequestFileStore(cfg.Home)

	httpClient := cfg.HTTP
	if httpClient == nil {
		httpClient = http.DefaultClient
	}

	rc, err := relay.Dial(ctx, cfg.RelayURL, cfg.Logger)
	if err != nil {
		return nil, err
	}

	exp := expirer.New(expirerInterval)

	eng, err := engine.New(engine.Config{
		Logger:          cfg.Logger,
		KeyserverURL:    cfg.KeyserverURL,
		NotifyServerURL: cfg.NotifyServerURL,
	}, engine.Dependencies{
		Relay:         rc,
		Crypto:        cryptosvc.NewService(keychain),
		Identity:      identitysvc.New(cfg.KeyserverURL, keychain, httpClient, cfg.Logger),
		Resolver:      diddoc.NewResolver(httpClient),
		Subscriptions: subscriptions,
		Messages:      messages,
		Requests:      requests,
		Expirer:       exp,
	})
	if err != nil {
		rc.Close()
		exp.Close()
		return nil, err
	}

	return &Wire{
		Engine:        eng,
		Relay:         rc,
		Expirer:       exp,
		Subscriptions: subscriptions,
		Messages:      messages,
		Keychain:      keychain,
	}, nil
}

// Close releases the relay connection and background services.
func (w *Wire) Close() {
	w.Relay.Close()
	w.Expirer.Close()
}
