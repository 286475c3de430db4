// Package server runs an accept loop on a TCP server handle and serves every
// accepted connection in its own goroutine.
package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"dominicbreuker/goipc/pkg/config"
	"dominicbreuker/goipc/pkg/format"
	"dominicbreuker/goipc/pkg/ipc"
	"dominicbreuker/goipc/pkg/log"
	"dominicbreuker/goipc/pkg/semaphore"
	"dominicbreuker/goipc/pkg/transport"
	"dominicbreuker/goipc/pkg/transport/tcp"
)

// BufferSize is the capacity of the receive buffer used by Reply.
const BufferSize = 1024

// slotTimeout bounds how long the loop waits for a free connection slot before logging and retrying.
const slotTimeout = 10 * time.Second

// Server ...
type Server struct {
	ctx     context.Context
	scfg    *config.Server
	handler transport.Handler
	logger  *log.Logger

	h   *tcp.Transport
	sem *semaphore.ConnSemaphore

	wg    sync.WaitGroup
	mu    sync.Mutex
	conns map[ipc.Handle]struct{}
}

// New creates a server handle for cfg and initializes it (bind, listen).
func New(ctx context.Context, cfg *config.Config, scfg *config.Server, handler transport.Handler, deps *config.Dependencies) (*Server, error) {
	srvCfg := *cfg
	srvCfg.Role = ipc.RoleServer
	logger := srvCfg.GetLogger()

	h, err := tcp.New(&srvCfg, deps)
	if err != nil {
		return nil, fmt.Errorf("tcp.New(%s): %w", format.Addr(cfg.Host, cfg.Port), err)
	}
	if err := h.Init(); err != nil {
		_ = h.Destroy()
		return nil, fmt.Errorf("Init(): %w", err)
	}

	maxConns := scfg.MaxConns
	if maxConns < 1 {
		maxConns = 1
	}

	return &Server{
		ctx:     ctx,
		scfg:    scfg,
		handler: handler,
		logger:  logger,
		h:       h,
		sem:     semaphore.New(maxConns, slotTimeout),
		conns:   make(map[ipc.Handle]struct{}),
	}, nil
}

// Transport returns the listening server handle.
func (s *Server) Transport() *tcp.Transport {
	return s.h
}

// Serve accepts connections until the context is cancelled. Each connection
// is handled in its own goroutine, at most MaxConns at a time. On cancellation
// open connections are shut down, Serve waits for their handlers, destroys
// the server handle and returns nil.
func (s *Server) Serve() error {
	defer s.Close()

	if addr, err := s.h.LocalAddr(); err == nil {
		s.logger.InfoMsg("Listening on %s\n", addr)
	}

	stop := make(chan struct{})
	watcherDone := make(chan struct{})
	go func() {
		defer close(watcherDone)
		select {
		case <-s.ctx.Done():
			s.shutdown()
		case <-stop:
		}
	}()
	defer func() {
		close(stop)
		<-watcherDone
	}()

	for {
		if err := s.sem.Acquire(s.ctx); err != nil {
			if s.ctx.Err() != nil {
				break
			}
			s.logger.ErrorMsg("Waiting for a free connection slot: %s\n", err)
			continue
		}

		conn, err := s.h.Accept()
		if err != nil {
			s.sem.Release()
			if s.ctx.Err() != nil {
				break
			}
			s.logger.ErrorMsg("Accept(): %s\n", err)
			continue
		}

		s.track(conn)
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			defer s.sem.Release()

			s.handle(conn)
		}()
	}

	s.wg.Wait()
	return nil
}

// Close destroys the server handle. Connections already accepted are not affected.
func (s *Server) Close() error {
	err := s.h.Destroy()
	if errors.Is(err, ipc.ErrDestroyed) {
		return nil
	}
	return err
}

func (s *Server) handle(conn ipc.Handle) {
	s.logger.InfoMsg("New connection: %s\n", conn)
	defer s.logger.InfoMsg("Connection closed: %s\n", conn)

	h := conn
	if s.scfg.LogFile != "" {
		logged, err := log.NewLoggedHandle(conn, s.scfg.LogFile)
		if err != nil {
			s.logger.ErrorMsg("Handling %s: enabling logging to %s: %s\n", conn, s.scfg.LogFile, err)
			s.release(conn, conn)
			return
		}
		h = logged
	}
	defer s.release(conn, h)

	if err := s.handler(h); err != nil {
		s.logger.ErrorMsg("Handling %s: %s\n", conn, err)
	}
}

func (s *Server) track(conn ipc.Handle) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.conns[conn] = struct{}{}

	// shutdown may already have run
	if s.ctx.Err() != nil {
		if sd, ok := conn.(interface{ Shutdown() error }); ok {
			_ = sd.Shutdown()
		}
	}
}

// release stops tracking conn before destroying h, so shutdown never
// touches a released descriptor.
func (s *Server) release(conn, h ipc.Handle) {
	s.mu.Lock()
	delete(s.conns, conn)
	s.mu.Unlock()

	if err := h.Destroy(); err != nil {
		s.logger.VerboseMsg("Destroying %s: %s", conn, err)
	}
}

// shutdown wakes the accept loop and every handler blocked on a connection.
func (s *Server) shutdown() {
	if err := s.h.Shutdown(); err != nil {
		s.logger.VerboseMsg("Shutting down listener: %s", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for conn := range s.conns {
		if sd, ok := conn.(interface{ Shutdown() error }); ok {
			_ = sd.Shutdown()
		}
	}
}

// Reply returns a handler that receives one chunk of at most BufferSize bytes,
// writes it to out followed by a newline and answers with reply.
func Reply(reply string, out io.Writer) transport.Handler {
	var mu sync.Mutex

	return func(conn ipc.Handle) error {
		buf := make([]byte, BufferSize)
		n, err := conn.Receive(buf)
		if err != nil {
			return fmt.Errorf("Receive(): %w", err)
		}

		mu.Lock()
		fmt.Fprintf(out, "%s\n", buf[:n])
		mu.Unlock()

		if _, err := ipc.SendAll(conn, []byte(reply)); err != nil {
			return fmt.Errorf("Send(): %w", err)
		}
		return nil
	}
}
