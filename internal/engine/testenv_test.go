package engine_test

import (
	"context"
	"crypto/ed25519"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/crypto/chacha20poly1305"

	"wcnotify/internal/auth"
	cryptosvc "wcnotify/internal/crypto"
	"wcnotify/internal/diddoc"
	"wcnotify/internal/domain"
	"wcnotify/internal/engine"
	"wcnotify/internal/expirer"
	identitysvc "wcnotify/internal/identity"
	"wcnotify/internal/relay"
	"wcnotify/internal/store"
)

const testAccount = domain.Account("eip155:1:0xABC123")

// env is a complete wallet engine wired to file stores, an in-process relay
// bus and a fake dapp/notify-server peer.
type env struct {
	t   *testing.T
	ctx context.Context

	engine  *engine.Engine
	relay   *relay.Loopback
	expirer *expirer.Service

	keychain domain.Keychain
	subs     domain.SubscriptionStore
	msgs     domain.MessageStore
	reqs     domain.RequestStore

	server *fakeServer

	dappURL    string
	dappGets   *atomic.Int32
	serverURL  string

	mu     sync.Mutex
	events []domain.Event
}

func newEnv(t *testing.T) *env {
	t.Helper()
	return buildEnv(t, true)
}

// newUnstartedEnv wires everything but does not Start the engine.
func newUnstartedEnv(t *testing.T) *env {
	t.Helper()
	return buildEnv(t, false)
}

func buildEnv(t *testing.T, start bool) *env {
	t.Helper()
	ctx := context.Background()

	server := newFakeServer(t)

	var dappGets atomic.Int32
	dappTS := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case diddoc.DIDDocPath:
			dappGets.Add(1)
			fmt.Fprint(w, didJSON(server.dappAgreementPub, server.authPub))
		case diddoc.NotifyConfigPath:
			fmt.Fprint(w, `{"name":"GM Dapp","description":"gm, every hour","icons":["https://gm.example/icon.png"],
				"types":[{"name":"gm_hourly","description":"Hourly gm"},{"name":"promos","description":"Promotions"}]}`)
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(dappTS.Close)

	serverTS := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == diddoc.DIDDocPath {
			fmt.Fprint(w, didJSON(server.serverAgreementPub, server.authPub))
			return
		}
		http.NotFound(w, r)
	}))
	t.Cleanup(serverTS.Close)

	keyserverTS := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	t.Cleanup(keyserverTS.Close)

	server.dappURL = dappTS.URL

	bus := relay.NewBus()
	server.attach(bus)

	home := t.TempDir()
	keychain := store.NewKeychainFileStore(home)
	subs := store.NewSubscriptionFileStore(home)
	msgs := store.NewMessageFileStore(home)
	reqs := store.NewRequestFileStore(home)

	walletRelay := bus.Client()
	exp := expirer.New(20 * time.Millisecond)
	t.Cleanup(exp.Close)

	eng, err := engine.New(engine.Config{
		Logger:          zerolog.Nop(),
		KeyserverURL:    keyserverTS.URL,
		NotifyServerURL: serverTS.URL,
	}, engine.Dependencies{
		Relay:         walletRelay,
		Crypto:        cryptosvc.NewService(keychain),
		Identity:      identitysvc.New(keyserverTS.URL, keychain, nil, zerolog.Nop()),
		Resolver:      diddoc.NewResolver(nil),
		Subscriptions: subs,
		Messages:      msgs,
		Requests:      reqs,
		Expirer:       exp,
	})
	if err != nil {
		t.Fatalf("engine.New: %v", err)
	}
	if start {
		if err := eng.Start(ctx); err != nil {
			t.Fatalf("engine.Start: %v", err)
		}
	}

	e := &env{
		t:         t,
		ctx:       ctx,
		engine:    eng,
		relay:     walletRelay,
		expirer:   exp,
		keychain:  keychain,
		subs:      subs,
		msgs:      msgs,
		reqs:      reqs,
		server:    server,
		dappURL:   dappTS.URL,
		dappGets:  &dappGets,
		serverURL: serverTS.URL,
	}
	eng.Events().Subscribe(func(ev domain.Event) {
		e.mu.Lock()
		e.events = append(e.events, ev)
		e.mu.Unlock()
	})
	return e
}

// register binds the test account and waits for the initial watch-driven
// reconcile to land.
func (e *env) register() {
	e.t.Helper()
	_, err := e.engine.Register(e.ctx, domain.RegisterIdentityParams{
		Account:   testAccount,
		OnSign:    func(string) (string, error) { return "0xsignature", nil },
		IsLimited: false,
		Domain:    e.dappURL,
	})
	if err != nil {
		e.t.Fatalf("Register: %v", err)
	}
	e.waitEvent("initial subscriptions_changed", func(ev domain.Event) bool {
		_, ok := ev.(domain.SubscriptionsChangedEvent)
		return ok
	})
}

// subscribe runs the full subscribe handshake and returns the topic of the
// established subscription.
func (e *env) subscribe() domain.Topic {
	e.t.Helper()
	id, subscriptionAuth, err := e.engine.Subscribe(e.ctx, e.dappURL, testAccount)
	if err != nil {
		e.t.Fatalf("Subscribe: %v", err)
	}
	if subscriptionAuth == "" {
		e.t.Fatal("empty subscriptionAuth")
	}
	ev := e.waitEvent("notify_subscription", func(ev domain.Event) bool {
		sev, ok := ev.(domain.SubscriptionEvent)
		return ok && sev.ID == id
	})
	if sev := ev.(domain.SubscriptionEvent); sev.Error != nil {
		e.t.Fatalf("subscribe rejected: %+v", sev.Error)
	}
	e.waitEvent("subscriptions_changed with one entry", func(ev domain.Event) bool {
		cev, ok := ev.(domain.SubscriptionsChangedEvent)
		return ok && len(cev.Subscriptions) == 1
	})

	subs, err := e.engine.ActiveSubscriptions(testAccount)
	if err != nil {
		e.t.Fatalf("ActiveSubscriptions: %v", err)
	}
	if len(subs) != 1 {
		e.t.Fatalf("want one subscription, got %d", len(subs))
	}
	for topic := range subs {
		return topic
	}
	panic("unreachable")
}

// waitEvent blocks until a not-yet-consumed event matches and consumes it.
// Events that do not match stay available to later waits: handlers for
// distinct topics run concurrently, so their events arrive in either order.
func (e *env) waitEvent(desc string, match func(domain.Event) bool) domain.Event {
	e.t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		e.mu.Lock()
		for i := 0; i < len(e.events); i++ {
			if match(e.events[i]) {
				ev := e.events[i]
				e.events = append(e.events[:i], e.events[i+1:]...)
				e.mu.Unlock()
				return ev
			}
		}
		e.mu.Unlock()
		time.Sleep(5 * time.Millisecond)
	}
	e.t.Fatalf("timed out waiting for %s", desc)
	panic("unreachable")
}

// waitCondition polls until fn reports success.
func (e *env) waitCondition(desc string, fn func() bool) {
	e.t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		if fn() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	e.t.Fatalf("timed out waiting for %s", desc)
}

// ---------- fake dapp / notify server ----------

// fakeServer plays the remote side of the protocol: it owns the dapp's and
// the notify server's key pairs, answers subscribe/update/delete/watch
// requests and pushes subscriptions_changed updates, mirroring the
// server-authoritative model.
type fakeServer struct {
	t *testing.T

	dappAgreementPriv   [32]byte
	dappAgreementPub    [32]byte
	serverAgreementPriv [32]byte
	serverAgreementPub  [32]byte
	authPriv            ed25519.PrivateKey
	authPub             ed25519.PublicKey

	dappURL string
	relay   domain.Relay

	mu        sync.Mutex
	symKeys   map[domain.Topic][32]byte
	sbs       []domain.ServerSubscription
	watch     map[domain.Account]domain.Topic
	responses map[uint64]bool
	nextID    uint64
	mute      bool
}

func newFakeServer(t *testing.T) *fakeServer {
	t.Helper()
	s := &fakeServer{
		t:         t,
		symKeys:   make(map[domain.Topic][32]byte),
		watch:     make(map[domain.Account]domain.Topic),
		responses: make(map[uint64]bool),
		nextID:    1000,
	}
	var err error
	s.dappAgreementPriv, s.dappAgreementPub, err = cryptosvc.GenerateX25519()
	if err != nil {
		t.Fatalf("GenerateX25519: %v", err)
	}
	s.serverAgreementPriv, s.serverAgreementPub, err = cryptosvc.GenerateX25519()
	if err != nil {
		t.Fatalf("GenerateX25519: %v", err)
	}
	s.authPub, s.authPriv, err = ed25519.GenerateKey(nil)
	if err != nil {
		t.Fatalf("ed25519.GenerateKey: %v", err)
	}
	return s
}

func (s *fakeServer) attach(bus *relay.Bus) {
	client := bus.Client()
	s.relay = client
	client.RegisterHandler(s.handle)
	ctx := context.Background()
	client.Subscribe(ctx, topicOf(s.serverAgreementPub[:]))
	client.Subscribe(ctx, topicOf(s.dappAgreementPub[:]))
}

func topicOf(key []byte) domain.Topic {
	sum := sha256.Sum256(key)
	return domain.Topic(hex.EncodeToString(sum[:]))
}

func (s *fakeServer) handle(ev domain.RelayEvent) {
	switch ev.Topic {
	case topicOf(s.serverAgreementPub[:]):
		s.onWatchRequest(ev)
	case topicOf(s.dappAgreementPub[:]):
		s.onSubscribeRequest(ev)
	default:
		s.onChannelFrame(ev)
	}
}

// onWatchRequest establishes the wallet's watch channel and answers with
// the authoritative list.
func (s *fakeServer) onWatchRequest(ev domain.RelayEvent) {
	senderPub, payload := s.openType1(s.serverAgreementPriv, ev.Payload)
	shared := s.dh(s.serverAgreementPriv, senderPub)
	respTopic := topicOf(shared[:])

	var req domain.Request
	if err := json.Unmarshal(payload, &req); err != nil {
		s.t.Errorf("fake server: bad watch request: %v", err)
		return
	}
	var params struct {
		WatchSubscriptionsAuth string `json:"watchSubscriptionsAuth"`
	}
	json.Unmarshal(req.Params, &params)
	account := s.accountOf(params.WatchSubscriptionsAuth)

	s.mu.Lock()
	s.symKeys[respTopic] = shared
	s.watch[account] = respTopic
	s.mu.Unlock()

	claims := auth.WatchSubscriptionsResponseClaims{
		CommonClaims:  s.commonClaims(account, auth.ActWatchSubscriptionsResponse),
		Subscriptions: s.sbsFor(account),
	}
	s.respond(respTopic, shared, req.ID, map[string]string{"responseAuth": s.sign(&claims)})
}

// onSubscribeRequest creates the server-side subscription and pushes the
// updated list to the wallet's watch channel.
func (s *fakeServer) onSubscribeRequest(ev domain.RelayEvent) {
	s.mu.Lock()
	muted := s.mute
	s.mu.Unlock()
	if muted {
		return
	}

	senderPub, payload := s.openType1(s.dappAgreementPriv, ev.Payload)
	shared := s.dh(s.dappAgreementPriv, senderPub)
	respTopic := topicOf(shared[:])

	var req domain.Request
	if err := json.Unmarshal(payload, &req); err != nil {
		s.t.Errorf("fake server: bad subscribe request: %v", err)
		return
	}
	var params struct {
		SubscriptionAuth string `json:"subscriptionAuth"`
	}
	json.Unmarshal(req.Params, &params)

	var claims auth.SubscriptionClaims
	if err := auth.Decode(params.SubscriptionAuth, &claims); err != nil {
		s.t.Errorf("fake server: bad subscriptionAuth: %v", err)
		return
	}
	account, err := auth.AccountFromDIDPKH(claims.Subject)
	if err != nil {
		s.t.Errorf("fake server: %v", err)
		return
	}

	var symKey [32]byte
	rand.Read(symKey[:])
	subTopic := topicOf(symKey[:])

	s.mu.Lock()
	s.symKeys[respTopic] = shared
	s.symKeys[subTopic] = symKey
	s.sbs = append(s.sbs, domain.ServerSubscription{
		Account:   account,
		SymKey:    hex.EncodeToString(symKey[:]),
		Scope:     strings.Fields(claims.Scope),
		Expiry:    time.Now().Add(30 * 24 * time.Hour).Unix(),
		AppDomain: s.dappURL,
	})
	s.mu.Unlock()
	s.relay.Subscribe(context.Background(), subTopic)

	s.respond(respTopic, shared, req.ID, map[string]string{"responseAuth": "subscription-accepted"})
	s.pushChanged(account)
}

// onChannelFrame handles type-0 traffic on established topics: update and
// delete requests plus the wallet's message acknowledgements.
func (s *fakeServer) onChannelFrame(ev domain.RelayEvent) {
	s.mu.Lock()
	key, ok := s.symKeys[ev.Topic]
	s.mu.Unlock()
	if !ok {
		return
	}
	payload := s.openType0(key, ev.Payload)

	var probe struct {
		ID     uint64          `json:"id"`
		Method string          `json:"method"`
		Params json.RawMessage `json:"params"`
	}
	if err := json.Unmarshal(payload, &probe); err != nil {
		s.t.Errorf("fake server: bad channel frame: %v", err)
		return
	}

	if probe.Method == "" {
		s.mu.Lock()
		s.responses[probe.ID] = true
		s.mu.Unlock()
		return
	}

	switch probe.Method {
	case engine.MethodNotifyUpdate:
		var params struct {
			UpdateAuth string `json:"updateAuth"`
		}
		json.Unmarshal(probe.Params, &params)
		var claims auth.UpdateClaims
		if err := auth.Decode(params.UpdateAuth, &claims); err != nil {
			s.t.Errorf("fake server: bad updateAuth: %v", err)
			return
		}
		account := s.setScope(ev.Topic, strings.Fields(claims.Scope))
		s.respond(ev.Topic, key, probe.ID, true)
		s.pushChanged(account)
	case engine.MethodNotifyDelete:
		account := s.dropSubscription(ev.Topic)
		s.respond(ev.Topic, key, probe.ID, true)
		s.pushChanged(account)
	default:
		s.t.Errorf("fake server: unexpected method %s", probe.Method)
	}
}

// pushChanged sends the account's authoritative list over its watch channel.
func (s *fakeServer) pushChanged(account domain.Account) {
	s.mu.Lock()
	respTopic, ok := s.watch[account]
	key := s.symKeys[respTopic]
	id := s.nextID
	s.nextID++
	s.mu.Unlock()
	if !ok {
		return
	}

	claims := auth.SubscriptionsChangedClaims{
		CommonClaims:  s.commonClaims(account, auth.ActSubscriptionsChanged),
		Subscriptions: s.sbsFor(account),
	}
	params, _ := json.Marshal(map[string]string{"subscriptionsChangedAuth": s.sign(&claims)})
	frame, _ := json.Marshal(domain.Request{
		JSONRPC: domain.JSONRPCVersion,
		ID:      id,
		Method:  engine.MethodNotifySubscriptionsChanged,
		Params:  params,
	})
	s.publish(respTopic, key, frame)
}

// pushMessage delivers one notification on an established subscription topic.
func (s *fakeServer) pushMessage(topic domain.Topic, account domain.Account, msg domain.NotifyMessage) uint64 {
	s.mu.Lock()
	key, ok := s.symKeys[topic]
	id := s.nextID
	s.nextID++
	s.mu.Unlock()
	if !ok {
		s.t.Fatalf("fake server: no sym key for topic %s", topic)
	}

	params, _ := json.Marshal(map[string]string{"messageAuth": s.signMessage(account, msg)})
	frame, _ := json.Marshal(domain.Request{
		JSONRPC: domain.JSONRPCVersion,
		ID:      id,
		Method:  engine.MethodNotifyMessage,
		Params:  params,
	})
	s.publish(topic, key, frame)
	return id
}

// pushDelete sends a dapp-initiated wc_notifyDelete on an established
// subscription topic, without touching the authoritative list.
func (s *fakeServer) pushDelete(topic domain.Topic, account domain.Account) uint64 {
	s.mu.Lock()
	key, ok := s.symKeys[topic]
	id := s.nextID
	s.nextID++
	s.mu.Unlock()
	if !ok {
		s.t.Fatalf("fake server: no sym key for topic %s", topic)
	}

	claims := auth.DeleteClaims{
		CommonClaims: s.commonClaims(account, auth.ActDelete),
		App:          auth.DIDWeb(s.dappURL),
	}
	params, _ := json.Marshal(map[string]string{"deleteAuth": s.sign(&claims)})
	frame, _ := json.Marshal(domain.Request{
		JSONRPC: domain.JSONRPCVersion,
		ID:      id,
		Method:  engine.MethodNotifyDelete,
		Params:  params,
	})
	s.publish(topic, key, frame)
	return id
}

// pushBadMessage delivers a wc_notifyMessage whose auth carries the wrong
// act, which the wallet must reject with an error response.
func (s *fakeServer) pushBadMessage(topic domain.Topic, account domain.Account) uint64 {
	s.mu.Lock()
	key, ok := s.symKeys[topic]
	id := s.nextID
	s.nextID++
	s.mu.Unlock()
	if !ok {
		s.t.Fatalf("fake server: no sym key for topic %s", topic)
	}

	claims := auth.MessageResponseClaims{CommonClaims: s.commonClaims(account, auth.ActMessageResponse)}
	params, _ := json.Marshal(map[string]string{"messageAuth": s.sign(&claims)})
	frame, _ := json.Marshal(domain.Request{
		JSONRPC: domain.JSONRPCVersion,
		ID:      id,
		Method:  engine.MethodNotifyMessage,
		Params:  params,
	})
	s.publish(topic, key, frame)
	return id
}

func (s *fakeServer) signMessage(account domain.Account, msg domain.NotifyMessage) string {
	claims := auth.MessageClaims{
		CommonClaims: s.commonClaims(account, auth.ActMessage),
		Message:      msg,
	}
	return s.sign(&claims)
}

// sealMessage returns the raw envelope of a wc_notifyMessage request, for
// decrypt-only paths.
func (s *fakeServer) sealMessage(topic domain.Topic, account domain.Account, msg domain.NotifyMessage) []byte {
	s.mu.Lock()
	key, ok := s.symKeys[topic]
	id := s.nextID
	s.nextID++
	s.mu.Unlock()
	if !ok {
		s.t.Fatalf("fake server: no sym key for topic %s", topic)
	}
	params, _ := json.Marshal(map[string]string{"messageAuth": s.signMessage(account, msg)})
	frame, _ := json.Marshal(domain.Request{
		JSONRPC: domain.JSONRPCVersion,
		ID:      id,
		Method:  engine.MethodNotifyMessage,
		Params:  params,
	})
	return s.sealType0(key, frame)
}

func (s *fakeServer) acked(id uint64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.responses[id]
}

func (s *fakeServer) setMute(mute bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.mute = mute
}

// ---------- fake server internals ----------

func (s *fakeServer) sbsFor(account domain.Account) []domain.ServerSubscription {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.ServerSubscription, 0, len(s.sbs))
	for _, sb := range s.sbs {
		if sb.Account == account {
			out = append(out, sb)
		}
	}
	return out
}

func (s *fakeServer) setScope(topic domain.Topic, scope []string) domain.Account {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, sb := range s.sbs {
		raw, _ := hex.DecodeString(sb.SymKey)
		if topicOf(raw) == topic {
			s.sbs[i].Scope = scope
			return sb.Account
		}
	}
	s.t.Errorf("fake server: no subscription for topic %s", topic)
	return ""
}

func (s *fakeServer) dropSubscription(topic domain.Topic) domain.Account {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, sb := range s.sbs {
		raw, _ := hex.DecodeString(sb.SymKey)
		if topicOf(raw) == topic {
			s.sbs = append(s.sbs[:i], s.sbs[i+1:]...)
			return sb.Account
		}
	}
	s.t.Errorf("fake server: no subscription for topic %s", topic)
	return ""
}

func (s *fakeServer) commonClaims(account domain.Account, act auth.Act) auth.CommonClaims {
	issuer, err := auth.EncodeEd25519DIDKey(hex.EncodeToString(s.authPub))
	if err != nil {
		s.t.Fatalf("EncodeEd25519DIDKey: %v", err)
	}
	now := time.Now()
	return auth.CommonClaims{
		IssuedAt: now.Unix(),
		Expiry:   now.Add(time.Hour).Unix(),
		Issuer:   issuer,
		Subject:  auth.DIDPKH(account),
		Act:      act,
	}
}

func (s *fakeServer) sign(claims auth.ActClaims) string {
	jws, err := auth.Sign(claims, s.authPriv)
	if err != nil {
		s.t.Fatalf("sign server claims: %v", err)
	}
	return jws
}

func (s *fakeServer) accountOf(token string) domain.Account {
	var claims auth.WatchSubscriptionsClaims
	if err := auth.Decode(token, &claims); err != nil {
		s.t.Errorf("fake server: bad auth token: %v", err)
		return ""
	}
	account, err := auth.AccountFromDIDPKH(claims.Subject)
	if err != nil {
		s.t.Errorf("fake server: %v", err)
		return ""
	}
	return account
}

func (s *fakeServer) respond(topic domain.Topic, key [32]byte, id uint64, result any) {
	raw, _ := json.Marshal(result)
	frame, _ := json.Marshal(domain.Response{JSONRPC: domain.JSONRPCVersion, ID: id, Result: raw})
	s.publish(topic, key, frame)
}

func (s *fakeServer) publish(topic domain.Topic, key [32]byte, frame []byte) {
	env := s.sealType0(key, frame)
	if err := s.relay.Publish(context.Background(), topic, env, domain.PublishOptions{}); err != nil {
		s.t.Errorf("fake server publish: %v", err)
	}
}

func (s *fakeServer) dh(priv, pub [32]byte) [32]byte {
	out, err := cryptosvc.DH(priv, pub)
	if err != nil {
		s.t.Fatalf("DH: %v", err)
	}
	return out
}

func (s *fakeServer) openType1(priv [32]byte, env []byte) (senderPub [32]byte, payload []byte) {
	if len(env) < 1+32+chacha20poly1305.NonceSize || env[0] != 1 {
		s.t.Fatalf("fake server: not a type-1 envelope")
	}
	copy(senderPub[:], env[1:33])
	shared := s.dh(priv, senderPub)
	nonce := env[33 : 33+chacha20poly1305.NonceSize]
	ct := env[33+chacha20poly1305.NonceSize:]
	aead, err := chacha20poly1305.New(shared[:])
	if err != nil {
		s.t.Fatalf("chacha20poly1305.New: %v", err)
	}
	payload, err = aead.Open(nil, nonce, ct, nil)
	if err != nil {
		s.t.Fatalf("fake server: open type-1: %v", err)
	}
	return senderPub, payload
}

func (s *fakeServer) openType0(key [32]byte, env []byte) []byte {
	if len(env) < 1+chacha20poly1305.NonceSize || env[0] != 0 {
		s.t.Fatalf("fake server: not a type-0 envelope")
	}
	nonce := env[1 : 1+chacha20poly1305.NonceSize]
	ct := env[1+chacha20poly1305.NonceSize:]
	aead, err := chacha20poly1305.New(key[:])
	if err != nil {
		s.t.Fatalf("chacha20poly1305.New: %v", err)
	}
	payload, err := aead.Open(nil, nonce, ct, nil)
	if err != nil {
		s.t.Fatalf("fake server: open type-0: %v", err)
	}
	return payload
}

func (s *fakeServer) sealType0(key [32]byte, payload []byte) []byte {
	aead, err := chacha20poly1305.New(key[:])
	if err != nil {
		s.t.Fatalf("chacha20poly1305.New: %v", err)
	}
	nonce := make([]byte, chacha20poly1305.NonceSize)
	rand.Read(nonce)
	out := append([]byte{0}, nonce...)
	return aead.Seal(out, nonce, payload, nil)
}

// didJSON renders a did.json exposing the given X25519 agreement key and
// Ed25519 authentication key.
func didJSON(agreement [32]byte, authentication ed25519.PublicKey) string {
	return fmt.Sprintf(`{
		"id": "did:web:test",
		"verificationMethod": [
			{"id": "did:web:test#key-0", "publicKeyJwk": {"kty":"OKP","crv":"Ed25519","x":%q}},
			{"id": "did:web:test#key-1", "publicKeyJwk": {"kty":"OKP","crv":"X25519","x":%q}}
		],
		"authentication": ["did:web:test#key-0"],
		"keyAgreement": ["did:web:test#key-1"]
	}`,
		base64.RawURLEncoding.EncodeToString(authentication),
		base64.RawURLEncoding.EncodeToString(agreement[:]))
}
