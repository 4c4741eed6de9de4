package store

import (
	"path/filepath"
	"sync"

	"wcnotify/internal/domain"
)

const subscriptionsFile = "subscriptions.json" // map[Topic]Subscription

// SubscriptionFileStore persists the active subscription set on disk.
type SubscriptionFileStore struct {
	dir string
	mu  sync.Mutex
	w   watchers
}

// NewSubscriptionFileStore returns a subscription store rooted at dir.
func NewSubscriptionFileStore(dir string) *SubscriptionFileStore {
	return &SubscriptionFileStore{dir: dir}
}

func (s *SubscriptionFileStore) Get(topic domain.Topic) (domain.Subscription, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	m, err := s.load()
	if err != nil {
		return domain.Subscription{}, false, err
	}
	sub, ok := m[topic]
	return sub, ok, nil
}

func (s *SubscriptionFileStore) Set(topic domain.Topic, sub domain.Subscription) error {
	s.mu.Lock()
	m, err := s.load()
	if err != nil {
		s.mu.Unlock()
		return err
	}
	_, existed := m[topic]
	m[topic] = sub
	err = writeJSON(filepath.Join(s.dir, subscriptionsFile), m, 0o600)
	s.mu.Unlock()
	if err != nil {
		return err
	}

	op := OpSet
	if existed {
		op = OpUpdate
	}
	s.w.notify(op, topic.String())
	return nil
}

func (s *SubscriptionFileStore) Delete(topic domain.Topic, reason string) error {
	s.mu.Lock()
	m, err := s.load()
	if err != nil {
		s.mu.Unlock()
		return err
	}
	if _, ok := m[topic]; !ok {
		s.mu.Unlock()
		return nil
	}
	delete(m, topic)
	err = writeJSON(filepath.Join(s.dir, subscriptionsFile), m, 0o600)
	s.mu.Unlock()
	if err != nil {
		return err
	}
	s.w.notify(OpDelete, topic.String())
	return nil
}

func (s *SubscriptionFileStore) Keys() ([]domain.Topic, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	m, err := s.load()
	if err != nil {
		return nil, err
	}
	out := make([]domain.Topic, 0, len(m))
	for t := range m {
		out = append(out, t)
	}
	return out, nil
}

func (s *SubscriptionFileStore) All(filter func(domain.Subscription) bool) ([]domain.Subscription, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	m, err := s.load()
	if err != nil {
		return nil, err
	}
	out := make([]domain.Subscription, 0, len(m))
	for _, sub := range m {
		if filter == nil || filter(sub) {
			out = append(out, sub)
		}
	}
	return out, nil
}

func (s *SubscriptionFileStore) Watch(fn func(domain.StoreEvent)) { s.w.add(fn) }

func (s *SubscriptionFileStore) load() (map[domain.Topic]domain.Subscription, error) {
	m := make(map[domain.Topic]domain.Subscription)
	if err := readJSON(filepath.Join(s.dir, subscriptionsFile), &m); err != nil {
		return nil, err
	}
	return m, nil
}

// Compile-time assertion that the store satisfies the domain contract.
var _ domain.SubscriptionStore = (*SubscriptionFileStore)(nil)
