package relay

import (
	"context"
	"sync"
	"time"

	"wcnotify/internal/domain"
)

// Bus is an in-process pub/sub fabric connecting Loopback clients. It backs
// the engine tests and any single-process pairing of wallet and server.
type Bus struct {
	mu      sync.Mutex
	clients []*Loopback
}

// NewBus returns an empty bus.
func NewBus() *Bus { return &Bus{} }

// Client attaches a new loopback relay client to the bus.
func (b *Bus) Client() *Loopback {
	c := &Loopback{bus: b, topics: make(map[domain.Topic]bool)}
	b.mu.Lock()
	b.clients = append(b.clients, c)
	b.mu.Unlock()
	return c
}

// deliver hands payload to every other client subscribed to topic,
// synchronously and in registration order.
func (b *Bus) deliver(from *Loopback, topic domain.Topic, payload []byte) {
	now := time.Now().UnixMilli()
	b.mu.Lock()
	clients := append([]*Loopback{}, b.clients...)
	b.mu.Unlock()

	for _, c := range clients {
		if c == from {
			continue
		}
		c.mu.Lock()
		subscribed := c.topics[topic]
		handler := c.handler
		c.mu.Unlock()
		if subscribed && handler != nil {
			handler(domain.RelayEvent{
				Topic:       topic,
				Payload:     append([]byte(nil), payload...),
				PublishedAt: now,
			})
		}
	}
}

// Loopback is one client endpoint of a Bus.
type Loopback struct {
	bus *Bus

	mu      sync.Mutex
	topics  map[domain.Topic]bool
	handler func(domain.RelayEvent)
}

func (l *Loopback) Publish(ctx context.Context, topic domain.Topic, payload []byte, opts domain.PublishOptions) error {
	l.bus.deliver(l, topic, payload)
	return nil
}

func (l *Loopback) Subscribe(ctx context.Context, topic domain.Topic) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.topics[topic] = true
	return nil
}

func (l *Loopback) Unsubscribe(ctx context.Context, topic domain.Topic) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.topics, topic)
	return nil
}

func (l *Loopback) RegisterHandler(fn func(domain.RelayEvent)) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.handler = fn
}

// Subscribed reports whether the client currently holds a subscription for
// topic.
func (l *Loopback) Subscribed(topic domain.Topic) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.topics[topic]
}

// Compile-time assertion that Loopback implements domain.Relay.
var _ domain.Relay = (*Loopback)(nil)
