package expirer

import (
	"sync"
	"time"

	"wcnotify/internal/domain"
)

// Service tracks expiry deadlines and notifies handlers once they pass.
// Checks run on a fixed interval; a target whose deadline is already in the
// past fires on the next tick.
type Service struct {
	mu       sync.Mutex
	targets  map[string]int64
	handlers []func(domain.Expiration)

	done chan struct{}
	once sync.Once
}

// New starts an expirer checking deadlines every interval.
func New(interval time.Duration) *Service {
	s := &Service{
		targets: make(map[string]int64),
		done:    make(chan struct{}),
	}
	go s.run(interval)
	return s
}

// Close stops the background loop.
func (s *Service) Close() {
	s.once.Do(func() { close(s.done) })
}

func (s *Service) Set(target string, expiry int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.targets[target] = expiry
}

func (s *Service) Del(target string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.targets, target)
}

func (s *Service) RegisterHandler(fn func(domain.Expiration)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.handlers = append(s.handlers, fn)
}

func (s *Service) run(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-s.done:
			return
		case <-ticker.C:
			s.sweep(time.Now().Unix())
		}
	}
}

func (s *Service) sweep(now int64) {
	s.mu.Lock()
	var fired []domain.Expiration
	for target, expiry := range s.targets {
		if expiry <= now {
			fired = append(fired, domain.Expiration{Target: target, Expiry: expiry})
			delete(s.targets, target)
		}
	}
	handlers := append([]func(domain.Expiration){}, s.handlers...)
	s.mu.Unlock()

	for _, exp := range fired {
		for _, fn := range handlers {
			fn(exp)
		}
	}
}

// Compile-time assertion that Service implements domain.Expirer.
var _ domain.Expirer = (*Service)(nil)
