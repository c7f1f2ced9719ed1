package password

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

type slowHasher struct {
	inFlight atomic.Int32
	peak     atomic.Int32
	release  chan struct{}
}

func (s *slowHasher) enter() {
	n := s.inFlight.Add(1)
	for {
		p := s.peak.Load()
		if n <= p || s.peak.CompareAndSwap(p, n) {
			break
		}
	}
	<-s.release
	s.inFlight.Add(-1)
}

func (s *slowHasher) Hash(p string) (string, error) {
	s.enter()
	return "digest:" + p, nil
}

func (s *slowHasher) Verify(p, d string) (bool, error) {
	s.enter()
	return d == "digest:"+p, nil
}

func (s *slowHasher) NeedsUpgrade(string) (bool, error) { return false, nil }

func TestPoolBoundsConcurrency(t *testing.T) {
	h := &slowHasher{release: make(chan struct{})}
	pool := NewPool(h, 2, nil)

	var wg sync.WaitGroup
	for i := 0; i < 6; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := pool.Hash(context.Background(), "pw"); err != nil {
				t.Errorf("Hash error: %v", err)
			}
		}()
	}

	deadline := time.After(2 * time.Second)
	for h.inFlight.Load() < 2 {
		select {
		case <-deadline:
			t.Fatal("workers never started")
		default:
			time.Sleep(time.Millisecond)
		}
	}
	close(h.release)
	wg.Wait()

	if got := h.peak.Load(); got > 2 {
		t.Fatalf("peak concurrency = %d; want <= 2", got)
	}
}

func TestPoolHonoursContext(t *testing.T) {
	h := &slowHasher{release: make(chan struct{})}
	pool := NewPool(h, 1, nil)

	started := make(chan struct{})
	go func() {
		close(started)
		_, _ = pool.Hash(context.Background(), "holder")
	}()
	<-started
	for h.inFlight.Load() < 1 {
		time.Sleep(time.Millisecond)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if _, err := pool.Verify(ctx, "pw", "digest:pw"); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected DeadlineExceeded, got %v", err)
	}
	close(h.release)
}

func TestPoolClosedAndObserve(t *testing.T) {
	var observed atomic.Int32
	pool := NewPool(NewMigrating(newTestArgon2(t)), 0, func(time.Duration) { observed.Add(1) })
	if pool.Size() < 1 {
		t.Fatalf("Size = %d; want >= 1", pool.Size())
	}

	digest, err := pool.Hash(context.Background(), "secret1")
	if err != nil {
		t.Fatalf("Hash error: %v", err)
	}
	if ok, err := pool.Verify(context.Background(), "secret1", digest); err != nil || !ok {
		t.Fatalf("Verify = %v, %v", ok, err)
	}
	if observed.Load() != 2 {
		t.Fatalf("observe called %d times; want 2", observed.Load())
	}

	pool.Close()
	pool.Close()
	if _, err := pool.Hash(context.Background(), "secret1"); !errors.Is(err, ErrPoolClosed) {
		t.Fatalf("expected ErrPoolClosed, got %v", err)
	}
}
