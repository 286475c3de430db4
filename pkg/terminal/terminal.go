// Package terminal connects the user's terminal to a socket handle.
package terminal

import (
	"context"
	"io"
	"os"

	"dominicbreuker/goipc/pkg/ipc"
	"dominicbreuker/goipc/pkg/log"
	"dominicbreuker/goipc/pkg/pipeio"

	"golang.org/x/term"
)

// IsTerminal reports whether r is a file attached to a terminal.
func IsTerminal(r io.Reader) bool {
	f, ok := r.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// Pipe copies stdin to h and everything received on h to stdout until either
// side ends or ctx is done. h is shut down and destroyed before Pipe returns.
func Pipe(ctx context.Context, h ipc.Handle, stdin io.Reader, stdout io.Writer, logger *log.Logger) {
	pipeio.Pipe(ctx, pipeio.NewStdio(stdin, stdout), ipc.NewStream(h), func(err error) {
		logger.ErrorMsg("Pipe(stdio, conn): %s\n", err)
	})
}
