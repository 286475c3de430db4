// Package semaphore limits how many accepted connections are served at once.
package semaphore

import (
	"context"
	"fmt"
	"time"
)

// ConnSemaphore hands out a fixed number of connection slots. Acquire gives
// up after a timeout so an accept loop can log and retry instead of hanging.
type ConnSemaphore struct {
	sem     chan struct{}
	timeout time.Duration
}

// New creates a semaphore with n free slots.
func New(n int, timeout time.Duration) *ConnSemaphore {
	sem := make(chan struct{}, n)
	for i := 0; i < n; i++ {
		sem <- struct{}{}
	}
	return &ConnSemaphore{sem: sem, timeout: timeout}
}

// Acquire takes a slot. It fails if ctx is done or no slot frees up within the timeout.
// A nil semaphore never blocks.
func (s *ConnSemaphore) Acquire(ctx context.Context) error {
	if s == nil {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	timer := time.NewTimer(s.timeout)
	defer timer.Stop()

	select {
	case <-s.sem:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return fmt.Errorf("all %d connection slots busy for %v", cap(s.sem), s.timeout)
	}
}

// Release returns a slot taken by Acquire.
func (s *ConnSemaphore) Release() {
	if s == nil {
		return
	}
	s.sem <- struct{}{}
}

// InUse returns the number of slots currently taken.
func (s *ConnSemaphore) InUse() int {
	if s == nil {
		return 0
	}
	return cap(s.sem) - len(s.sem)
}
