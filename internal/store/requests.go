package store

import (
	"path/filepath"
	"strconv"
	"sync"

	"wcnotify/internal/domain"
)

const requestsFile = "requests.json" // map[id]PendingRequest

// RequestFileStore persists the in-flight request ledger.
type RequestFileStore struct {
	dir string
	mu  sync.Mutex
	w   watchers
}

// NewRequestFileStore returns a request ledger rooted at dir.
func NewRequestFileStore(dir string) *RequestFileStore {
	return &RequestFileStore{dir: dir}
}

func (s *RequestFileStore) Get(id uint64) (domain.PendingRequest, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	m, err := s.load()
	if err != nil {
		return domain.PendingRequest{}, false, err
	}
	req, ok := m[id]
	return req, ok, nil
}

func (s *RequestFileStore) Set(id uint64, req domain.PendingRequest) error {
	s.mu.Lock()
	m, err := s.load()
	if err != nil {
		s.mu.Unlock()
		return err
	}
	m[id] = req
	err = writeJSON(filepath.Join(s.dir, requestsFile), m, 0o600)
	s.mu.Unlock()
	if err != nil {
		return err
	}
	s.w.notify(OpSet, strconv.FormatUint(id, 10))
	return nil
}

func (s *RequestFileStore) Delete(id uint64, reason string) error {
	s.mu.Lock()
	m, err := s.load()
	if err != nil {
		s.mu.Unlock()
		return err
	}
	if _, ok := m[id]; !ok {
		s.mu.Unlock()
		return nil
	}
	delete(m, id)
	err = writeJSON(filepath.Join(s.dir, requestsFile), m, 0o600)
	s.mu.Unlock()
	if err != nil {
		return err
	}
	s.w.notify(OpDelete, strconv.FormatUint(id, 10))
	return nil
}

func (s *RequestFileStore) Keys() ([]uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	m, err := s.load()
	if err != nil {
		return nil, err
	}
	out := make([]uint64, 0, len(m))
	for id := range m {
		out = append(out, id)
	}
	return out, nil
}

func (s *RequestFileStore) Watch(fn func(domain.StoreEvent)) { s.w.add(fn) }

func (s *RequestFileStore) load() (map[uint64]domain.PendingRequest, error) {
	m := make(map[uint64]domain.PendingRequest)
	if err := readJSON(filepath.Join(s.dir, requestsFile), &m); err != nil {
		return nil, err
	}
	return m, nil
}

// Compile-time assertion that the store satisfies the domain contract.
var _ domain.RequestStore = (*RequestFileStore)(nil)
