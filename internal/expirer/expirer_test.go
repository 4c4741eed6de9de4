package expirer_test

import (
	"sync"
	"testing"
	"time"

	"wcnotify/internal/domain"
	"wcnotify/internal/expirer"
)

func collect(s *expirer.Service) (<-chan domain.Expiration, func() int) {
	ch := make(chan domain.Expiration, 16)
	var mu sync.Mutex
	count := 0
	s.RegisterHandler(func(exp domain.Expiration) {
		mu.Lock()
		count++
		mu.Unlock()
		ch <- exp
	})
	return ch, func() int {
		mu.Lock()
		defer mu.Unlock()
		return count
	}
}

func TestExpirer_FiresPastDeadlineOnce(t *testing.T) {
	s := expirer.New(10 * time.Millisecond)
	defer s.Close()
	ch, count := collect(s)

	s.Set("req/1", time.Now().Unix()-1)

	select {
	case exp := <-ch:
		if exp.Target != "req/1" {
			t.Fatalf("unexpected target %q", exp.Target)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("expiration never fired")
	}

	// The target is consumed: no second firing.
	time.Sleep(50 * time.Millisecond)
	if n := count(); n != 1 {
		t.Fatalf("fired %d times, want 1", n)
	}
}

func TestExpirer_DelCancels(t *testing.T) {
	s := expirer.New(10 * time.Millisecond)
	defer s.Close()
	_, count := collect(s)

	s.Set("req/2", time.Now().Unix()+1)
	s.Del("req/2")

	time.Sleep(1200 * time.Millisecond)
	if n := count(); n != 0 {
		t.Fatalf("cancelled target fired %d times", n)
	}
}

func TestExpirer_FutureDeadlineWaits(t *testing.T) {
	s := expirer.New(10 * time.Millisecond)
	defer s.Close()
	ch, _ := collect(s)

	s.Set("req/3", time.Now().Unix()+1)

	select {
	case <-ch:
	case <-time.After(3 * time.Second):
		t.Fatal("future deadline never fired")
	}
}
