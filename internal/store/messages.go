package store

import (
	"path/filepath"
	"strconv"
	"sync"

	"wcnotify/internal/domain"
)

const messagesFile = "messages.json" // map[Topic]map[id]MessageRecord

// MessageFileStore persists received notifications per subscription topic.
type MessageFileStore struct {
	dir string
	mu  sync.Mutex
	w   watchers
}

// NewMessageFileStore returns a message store rooted at dir.
func NewMessageFileStore(dir string) *MessageFileStore {
	return &MessageFileStore{dir: dir}
}

func (s *MessageFileStore) Init(topic domain.Topic) error {
	s.mu.Lock()
	m, err := s.load()
	if err != nil {
		s.mu.Unlock()
		return err
	}
	if _, ok := m[topic]; ok {
		s.mu.Unlock()
		return nil
	}
	m[topic] = make(map[uint64]domain.MessageRecord)
	err = s.save(m)
	s.mu.Unlock()
	if err != nil {
		return err
	}
	s.w.notify(OpSet, topic.String())
	return nil
}

func (s *MessageFileStore) Has(topic domain.Topic) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	m, err := s.load()
	if err != nil {
		return false, err
	}
	_, ok := m[topic]
	return ok, nil
}

func (s *MessageFileStore) Get(topic domain.Topic) (map[uint64]domain.MessageRecord, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	m, err := s.load()
	if err != nil {
		return nil, false, err
	}
	recs, ok := m[topic]
	if !ok {
		return nil, false, nil
	}
	out := make(map[uint64]domain.MessageRecord, len(recs))
	for id, rec := range recs {
		out[id] = rec
	}
	return out, true, nil
}

// Append stores rec under its id. Redelivery of the same id overwrites the
// prior record.
func (s *MessageFileStore) Append(topic domain.Topic, rec domain.MessageRecord) error {
	s.mu.Lock()
	m, err := s.load()
	if err != nil {
		s.mu.Unlock()
		return err
	}
	recs, ok := m[topic]
	if !ok {
		recs = make(map[uint64]domain.MessageRecord)
		m[topic] = recs
	}
	recs[rec.ID] = rec
	err = s.save(m)
	s.mu.Unlock()
	if err != nil {
		return err
	}
	s.w.notify(OpUpdate, topic.String())
	return nil
}

func (s *MessageFileStore) DeleteMessage(id uint64) error {
	s.mu.Lock()
	m, err := s.load()
	if err != nil {
		s.mu.Unlock()
		return err
	}
	found := false
	for _, recs := range m {
		if _, ok := recs[id]; ok {
			delete(recs, id)
			found = true
			break
		}
	}
	if !found {
		s.mu.Unlock()
		return nil
	}
	err = s.save(m)
	s.mu.Unlock()
	if err != nil {
		return err
	}
	s.w.notify(OpDelete, strconv.FormatUint(id, 10))
	return nil
}

func (s *MessageFileStore) Delete(topic domain.Topic, reason string) error {
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
	err = s.save(m)
	s.mu.Unlock()
	if err != nil {
		return err
	}
	s.w.notify(OpDelete, topic.String())
	return nil
}

func (s *MessageFileStore) Keys() ([]domain.Topic, error) {
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

func (s *MessageFileStore) Watch(fn func(domain.StoreEvent)) { s.w.add(fn) }

func (s *MessageFileStore) load() (map[domain.Topic]map[uint64]domain.MessageRecord, error) {
	m := make(map[domain.Topic]map[uint64]domain.MessageRecord)
	if err := readJSON(filepath.Join(s.dir, messagesFile), &m); err != nil {
		return nil, err
	}
	return m, nil
}

func (s *MessageFileStore) save(m map[domain.Topic]map[uint64]domain.MessageRecord) error {
	return writeJSON(filepath.Join(s.dir, messagesFile), m, 0o600)
}

// Compile-time assertion that the store satisfies the domain contract.
var _ domain.MessageStore = (*MessageFileStore)(nil)
