// Package pipeio copies data between two ReadWriteClosers, typically the
// terminal and a connected socket handle.
package pipeio

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"syscall"

	"dominicbreuker/goipc/pkg/ipc"

	"github.com/muesli/cancelreader"
)

// Pipe copies data in both directions until one side ends or ctx is done.
// Both sides are closed exactly once before Pipe returns. Copy errors are
// reported through logfunc, which may be nil, except for those caused by
// the other direction closing the streams.
//
// A copy blocked on a reader that ignores Close may outlive Pipe.
func Pipe(ctx context.Context, rwc1 io.ReadWriteCloser, rwc2 io.ReadWriteCloser, logfunc func(error)) {
	if logfunc == nil {
		logfunc = func(error) {}
	}

	var o sync.Once
	done := make(chan struct{})

	closeBoth := func() {
		rwc1.Close()
		rwc2.Close()
		close(done)
	}

	go func() {
		if _, err := io.Copy(rwc1, rwc2); err != nil && !isClosedErr(err) {
			logfunc(fmt.Errorf("io.Copy(rwc1, rwc2): %w", err))
		}
		o.Do(closeBoth)
	}()

	go func() {
		if _, err := io.Copy(rwc2, rwc1); err != nil && !isClosedErr(err) {
			logfunc(fmt.Errorf("io.Copy(rwc2, rwc1): %w", err))
		}
		o.Do(closeBoth)
	}()

	select {
	case <-done:
	case <-ctx.Done():
		o.Do(closeBoth)
	}
}

func isClosedErr(err error) bool {
	return errors.Is(err, cancelreader.ErrCanceled) ||
		errors.Is(err, syscall.ECONNRESET) ||
		errors.Is(err, syscall.EPIPE) ||
		errors.Is(err, ipc.ErrDestroyed) ||
		errors.Is(err, io.ErrClosedPipe)
}
