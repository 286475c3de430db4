// Package helpers provides common utilities for integration and end-to-end tests.
package helpers

import (
	"context"
	"net/netip"
	"testing"
	"time"

	"dominicbreuker/goipc/mocks"
	"dominicbreuker/goipc/pkg/config"
	"dominicbreuker/goipc/pkg/server"
)

// Setup holds one mocked socket layer shared by a server and its clients,
// plus a separate mocked terminal for each side.
type Setup struct {
	Sockets     *mocks.MockSockets
	ServerStdio *mocks.MockStdio
	ClientStdio *mocks.MockStdio

	ServerDeps *config.Dependencies
	ClientDeps *config.Dependencies

	ServerCfg *config.Config
	ClientCfg *config.Config
}

// NewSetup creates mocks and default configs for a server on tcp://0.0.0.0:8080
// and a client connecting to tcp://127.0.0.1:8080.
func NewSetup() *Setup {
	sockets := mocks.NewMockSockets()
	serverStdio := mocks.NewMockStdio()
	clientStdio := mocks.NewMockStdio()

	return &Setup{
		Sockets:     sockets,
		ServerStdio: serverStdio,
		ClientStdio: clientStdio,
		ServerDeps: &config.Dependencies{
			Sockets: sockets,
			Stdin:   serverStdio.GetStdin,
			Stdout:  serverStdio.GetStdout,
		},
		ClientDeps: &config.Dependencies{
			Sockets: sockets,
			Stdin:   clientStdio.GetStdin,
			Stdout:  clientStdio.GetStdout,
		},
		ServerCfg: &config.Config{Host: "0.0.0.0", Port: 8080},
		ClientCfg: &config.Config{Host: "127.0.0.1", Port: 8080},
	}
}

// Close releases the mocked terminals.
func (s *Setup) Close() {
	s.ServerStdio.Close()
	s.ClientStdio.Close()
}

// StartServer runs a server with the reply handler printing to the server's
// mocked stdout. It is stopped when the test ends.
func (s *Setup) StartServer(t *testing.T, scfg *config.Server) {
	t.Helper()

	ctx, cancel := context.WithCancel(context.Background())
	srv, err := server.New(ctx, s.ServerCfg, scfg, server.Reply(scfg.Reply, s.ServerDeps.Stdout()), s.ServerDeps)
	if err != nil {
		cancel()
		t.Fatalf("server.New() error = %v", err)
	}

	done := make(chan error, 1)
	go func() {
		done <- srv.Serve()
	}()

	t.Cleanup(func() {
		cancel()
		select {
		case err := <-done:
			if err != nil {
				t.Errorf("Serve() error = %v", err)
			}
		case <-time.After(2 * time.Second):
			t.Error("Serve() did not return after cancellation")
		}
	})

	addr := netip.AddrPortFrom(netip.MustParseAddr(s.ServerCfg.Host), uint16(s.ServerCfg.Port))
	if err := s.Sockets.WaitForListener(addr, 2*time.Second); err != nil {
		t.Fatalf("server failed to start listening: %v", err)
	}
}
