package recommend

// limiter.go bounds concurrent calls to the recommendation service.
//
// A slow service would otherwise pile up one goroutine and connection per
// request. Requests that cannot get a slot within maxWait fail with ErrBusy,
// which the service answers from the local fallback instead.

import (
	"context"
	"errors"
	"sync"
	"time"
)

// ErrBusy is returned when every call slot stays occupied for maxWait.
var ErrBusy = errors.New("too many concurrent recommendation calls")

// DefaultMaxConcurrent is used when the configured limit is not positive.
const DefaultMaxConcurrent = 10

// Limiter is a counting semaphore with a bounded wait.
type Limiter struct {
	semaphore chan struct{}
	maxWait   time.Duration

	mu     sync.RWMutex
	active int
}

// NewLimiter allows at most maxConcurrent simultaneous calls. A maxWait of
// zero fails immediately when the limiter is full.
func NewLimiter(maxConcurrent int, maxWait time.Duration) *Limiter {
	if maxConcurrent <= 0 {
		maxConcurrent = DefaultMaxConcurrent
	}
	if maxWait < 0 {
		maxWait = 0
	}

	return &Limiter{
		semaphore: make(chan struct{}, maxConcurrent),
		maxWait:   maxWait,
	}
}

// Acquire takes a slot. It returns ErrBusy when none frees up within maxWait,
// or ctx's error if ctx ends first. The caller MUST call Release after a nil
// return.
func (l *Limiter) Acquire(ctx context.Context) error {
	if l.TryAcquire() {
		return nil
	}
	if l.maxWait == 0 {
		return ErrBusy
	}

	waitCtx, cancel := context.WithTimeout(ctx, l.maxWait)
	defer cancel()

	select {
	case l.semaphore <- struct{}{}:
		l.track(1)
		return nil
	case <-waitCtx.Done():
		// Distinguish caller cancellation from our own wait limit.
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return ErrBusy
	}
}

// TryAcquire takes a slot without blocking.
func (l *Limiter) TryAcquire() bool {
	select {
	case l.semaphore <- struct{}{}:
		l.track(1)
		return true
	default:
		return false
	}
}

// Release frees a slot taken by Acquire or TryAcquire.
func (l *Limiter) Release() {
	l.track(-1)
	<-l.semaphore
}

func (l *Limiter) track(delta int) {
	l.mu.Lock()
	l.active += delta
	l.mu.Unlock()
}

// Active returns the number of calls in flight.
func (l *Limiter) Active() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.active
}

// MaxConcurrent returns the slot count.
func (l *Limiter) MaxConcurrent() int {
	return cap(l.semaphore)
}
