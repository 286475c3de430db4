// Package client connects a client handle to a server and talks to it,
// either as a single message exchange or as an interactive session on stdio.
package client

import (
	"context"
	"fmt"

	"dominicbreuker/goipc/pkg/config"
	"dominicbreuker/goipc/pkg/format"
	"dominicbreuker/goipc/pkg/ipc"
	"dominicbreuker/goipc/pkg/log"
	"dominicbreuker/goipc/pkg/terminal"
	"dominicbreuker/goipc/pkg/transport/tcp"
)

// BufferSize is the capacity of the buffer the reply is received into.
const BufferSize = 1024

// Dial creates a client handle for cfg and connects it. The handle is
// destroyed again if connecting fails.
func Dial(cfg *config.Config, deps *config.Dependencies) (*tcp.Transport, error) {
	cliCfg := *cfg
	cliCfg.Role = ipc.RoleClient

	h, err := tcp.New(&cliCfg, deps)
	if err != nil {
		return nil, fmt.Errorf("tcp.New(%s): %w", format.Addr(cfg.Host, cfg.Port), err)
	}
	if err := h.Init(); err != nil {
		_ = h.Destroy()
		return nil, fmt.Errorf("Init(): %w", err)
	}

	return h, nil
}

// Exchange connects to the server, sends msg and returns the first chunk of
// the reply. The handle is destroyed before Exchange returns. Cancelling ctx
// aborts a pending receive.
func Exchange(ctx context.Context, cfg *config.Config, deps *config.Dependencies, msg []byte) ([]byte, error) {
	h, err := Dial(cfg, deps)
	if err != nil {
		return nil, err
	}
	defer h.Destroy()

	return exchange(ctx, h, msg)
}

// Run is what the connect command does: it dials the server and either runs
// one exchange, printing the reply to stdout, or pipes stdio through the
// connection when ccfg.Interactive is set.
func Run(ctx context.Context, cfg *config.Config, ccfg *config.Client, deps *config.Dependencies) error {
	logger := cfg.GetLogger()

	t, err := Dial(cfg, deps)
	if err != nil {
		return err
	}
	logger.InfoMsg("Connected to %s\n", t.RemoteAddr())
	defer logger.InfoMsg("Connection to %s closed\n", t.RemoteAddr())

	var h ipc.Handle = t
	if ccfg.LogFile != "" {
		h, err = log.NewLoggedHandle(t, ccfg.LogFile)
		if err != nil {
			_ = t.Destroy()
			return fmt.Errorf("enabling logging to %s: %w", ccfg.LogFile, err)
		}
	}

	stdin := config.GetStdinFunc(deps)()
	stdout := config.GetStdoutFunc(deps)()

	if ccfg.Interactive {
		terminal.Pipe(ctx, h, stdin, stdout, logger)
		return nil
	}
	defer h.Destroy()

	reply, err := exchange(ctx, h, []byte(ccfg.Message))
	if err != nil {
		return err
	}
	fmt.Fprintf(stdout, "%s\n", reply)

	return nil
}

func exchange(ctx context.Context, h ipc.Handle, msg []byte) ([]byte, error) {
	if sd, ok := h.(interface{ Shutdown() error }); ok {
		stop := context.AfterFunc(ctx, func() { _ = sd.Shutdown() })
		defer stop()
	}

	if _, err := ipc.SendAll(h, msg); err != nil {
		return nil, fmt.Errorf("Send(): %w", err)
	}

	buf := make([]byte, BufferSize)
	n, err := h.Receive(buf)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("Receive(): %w", err)
	}

	return buf[:n], nil
}
