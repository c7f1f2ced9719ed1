package password

import (
	"context"
	"errors"
	"runtime"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"
)

// ErrPoolClosed is returned once Close has been called.
var ErrPoolClosed = errors.New("password pool closed")

// Pool runs Hasher calls with bounded concurrency. Callers queue until a slot
// frees up or their context ends.
type Pool struct {
	hasher  Hasher
	sem     *semaphore.Weighted
	size    int64
	observe func(time.Duration)
	closed  chan struct{}
	once    sync.Once
}

// NewPool returns a pool allowing size concurrent operations. A size <= 0
// uses GOMAXPROCS. observe, when non-nil, receives the duration of every
// hash or verify.
func NewPool(h Hasher, size int, observe func(time.Duration)) *Pool {
	if size <= 0 {
		size = runtime.GOMAXPROCS(0)
	}
	return &Pool{
		hasher:  h,
		sem:     semaphore.NewWeighted(int64(size)),
		size:    int64(size),
		observe: observe,
		closed:  make(chan struct{}),
	}
}

// Hash derives a digest for password once a slot is available.
func (p *Pool) Hash(ctx context.Context, password string) (string, error) {
	var digest string
	err := p.run(ctx, func() error {
		var err error
		digest, err = p.hasher.Hash(password)
		return err
	})
	return digest, err
}

// Verify checks password against digest once a slot is available.
func (p *Pool) Verify(ctx context.Context, password, digest string) (bool, error) {
	var ok bool
	err := p.run(ctx, func() error {
		var err error
		ok, err = p.hasher.Verify(password, digest)
		return err
	})
	return ok, err
}

// NeedsUpgrade only parses the digest, so it bypasses the pool.
func (p *Pool) NeedsUpgrade(digest string) (bool, error) {
	return p.hasher.NeedsUpgrade(digest)
}

// Close rejects new work. Calls already holding a slot finish normally.
func (p *Pool) Close() {
	p.once.Do(func() { close(p.closed) })
}

// Size is the number of concurrent slots.
func (p *Pool) Size() int {
	return int(p.size)
}

func (p *Pool) run(ctx context.Context, fn func() error) error {
	select {
	case <-p.closed:
		return ErrPoolClosed
	default:
	}
	if err := p.sem.Acquire(ctx, 1); err != nil {
		return err
	}
	defer p.sem.Release(1)

	start := time.Now()
	err := fn()
	if p.observe != nil {
		p.observe(time.Since(start))
	}
	return err
}
