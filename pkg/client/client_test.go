package client

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/netip"
	"os"
	"path/filepath"
	"syscall"
	"testing"
	"time"

	"dominicbreuker/goipc/mocks"
	"dominicbreuker/goipc/pkg/config"
	"dominicbreuker/goipc/pkg/ipc"
	"dominicbreuker/goipc/pkg/server"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var clientCfg = &config.Config{Host: "127.0.0.1", Port: 8080}

// startServer serves handler on 0.0.0.0:8080 of m until the test ends.
func startServer(t *testing.T, m *mocks.MockSockets, handler func(ipc.Handle) error) {
	t.Helper()

	ctx, cancel := context.WithCancel(context.Background())
	s, err := server.New(ctx, &config.Config{Host: "0.0.0.0", Port: 8080}, &config.Server{MaxConns: 2}, handler, &config.Dependencies{Sockets: m})
	require.NoError(t, err)

	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = s.Serve()
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})

	require.NoError(t, m.WaitForListener(netip.MustParseAddrPort("0.0.0.0:8080"), time.Second))
}

func TestDial(t *testing.T) {
	t.Parallel()

	m := mocks.NewMockSockets()
	startServer(t, m, func(ipc.Handle) error { return nil })

	h, err := Dial(clientCfg, &config.Dependencies{Sockets: m})
	require.NoError(t, err)
	assert.Equal(t, ipc.RoleClient, h.Role())
	assert.Equal(t, "127.0.0.1:8080", h.RemoteAddr().String())
	require.NoError(t, h.Destroy())
}

func TestDial_Refused(t *testing.T) {
	t.Parallel()

	m := mocks.NewMockSockets()

	h, err := Dial(clientCfg, &config.Dependencies{Sockets: m})
	assert.Nil(t, h)
	assert.ErrorIs(t, err, syscall.ECONNREFUSED)
	assert.Empty(t, m.OpenFDs(), "descriptor closed after failed connect")
}

func TestDial_InvalidAddress(t *testing.T) {
	t.Parallel()

	_, err := Dial(&config.Config{Host: "::1", Port: 8080}, &config.Dependencies{Sockets: mocks.NewMockSockets()})
	assert.ErrorIs(t, err, ipc.ErrInvalidAddress)
}

func TestExchange(t *testing.T) {
	t.Parallel()

	m := mocks.NewMockSockets()
	var out bytes.Buffer
	startServer(t, m, server.Reply(config.DefaultReply, &out))

	reply, err := Exchange(context.Background(), clientCfg, &config.Dependencies{Sockets: m}, []byte(config.DefaultMessage))
	require.NoError(t, err)
	assert.Equal(t, "Hello from server!", string(reply))
}

func TestExchange_ShortSends(t *testing.T) {
	t.Parallel()

	m := mocks.NewMockSockets()
	m.SetSendLimit(4)

	received := make(chan string, 1)
	startServer(t, m, func(conn ipc.Handle) error {
		var got []byte
		buf := make([]byte, 64)
		for len(got) < len("Hello from client!") {
			n, err := conn.Receive(buf)
			if err != nil {
				return err
			}
			got = append(got, buf[:n]...)
		}
		received <- string(got)
		_, err := ipc.SendAll(conn, []byte("ok"))
		return err
	})

	reply, err := Exchange(context.Background(), clientCfg, &config.Dependencies{Sockets: m}, []byte("Hello from client!"))
	require.NoError(t, err)
	assert.Equal(t, "ok", string(reply))
	assert.Equal(t, "Hello from client!", <-received)
}

func TestExchange_PeerClosed(t *testing.T) {
	t.Parallel()

	m := mocks.NewMockSockets()
	startServer(t, m, func(conn ipc.Handle) error {
		_, err := conn.Receive(make([]byte, 64))
		return err
	})

	_, err := Exchange(context.Background(), clientCfg, &config.Dependencies{Sockets: m}, []byte("anyone there?"))
	assert.ErrorIs(t, err, ipc.ErrPeerClosed)
}

func TestExchange_ContextCancel(t *testing.T) {
	t.Parallel()

	m := mocks.NewMockSockets()
	hold := make(chan struct{})
	startServer(t, m, func(conn ipc.Handle) error {
		<-hold
		return nil
	})
	// runs before the server is stopped
	t.Cleanup(func() { close(hold) })

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := Exchange(ctx, clientCfg, &config.Dependencies{Sockets: m}, []byte("Hello from client!"))
	assert.True(t, errors.Is(err, context.DeadlineExceeded), "got %v", err)
}

func TestRun_PrintsReply(t *testing.T) {
	t.Parallel()

	m := mocks.NewMockSockets()
	var serverOut bytes.Buffer
	startServer(t, m, server.Reply(config.DefaultReply, &serverOut))

	var stdout bytes.Buffer
	deps := &config.Dependencies{
		Sockets: m,
		Stdout:  func() io.Writer { return &stdout },
	}

	err := Run(context.Background(), clientCfg, &config.Client{Message: "Hello from client!"}, deps)
	require.NoError(t, err)
	assert.Equal(t, "Hello from server!\n", stdout.String())
}

func TestRun_LogFile(t *testing.T) {
	t.Parallel()

	m := mocks.NewMockSockets()
	var serverOut bytes.Buffer
	startServer(t, m, server.Reply("pong", &serverOut))

	logFile := filepath.Join(t.TempDir(), "client.log")
	deps := &config.Dependencies{
		Sockets: m,
		Stdout:  func() io.Writer { return &bytes.Buffer{} },
	}

	require.NoError(t, Run(context.Background(), clientCfg, &config.Client{Message: "ping", LogFile: logFile}, deps))

	data, err := os.ReadFile(logFile)
	require.NoError(t, err)
	assert.Equal(t, "pingpong", string(data))
}

func TestRun_Interactive(t *testing.T) {
	t.Parallel()

	m := mocks.NewMockSockets()
	startServer(t, m, func(conn ipc.Handle) error {
		buf := make([]byte, 64)
		n, err := conn.Receive(buf)
		if err != nil {
			return err
		}
		_, err = ipc.SendAll(conn, append([]byte("echo: "), buf[:n]...))
		return err
	})

	stdio := mocks.NewMockStdio()
	defer stdio.Close()

	deps := &config.Dependencies{
		Sockets: m,
		Stdin:   stdio.GetStdin,
		Stdout:  stdio.GetStdout,
	}

	done := make(chan error, 1)
	go func() {
		done <- Run(context.Background(), clientCfg, &config.Client{Interactive: true}, deps)
	}()

	_, err := stdio.WriteToStdin([]byte("hi"))
	require.NoError(t, err)
	require.NoError(t, stdio.WaitForOutput("echo: hi", 1000))

	// the server closes the connection after one reply, which ends the session
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("Run() did not return after the server closed the connection")
	}
}
