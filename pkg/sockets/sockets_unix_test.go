//go:build linux || darwin

package sockets

import (
	"net/netip"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sys/unix"
)

func TestSockaddr(t *testing.T) {
	t.Parallel()

	addr := netip.MustParseAddrPort("127.0.0.1:8080")
	sa := toSockaddr(addr)
	assert.Equal(t, 8080, sa.Port)
	assert.Equal(t, [4]byte{127, 0, 0, 1}, sa.Addr)
	assert.Equal(t, addr, fromSockaddr(sa))

	assert.False(t, fromSockaddr(&unix.SockaddrInet6{}).IsValid())
}

func TestDefault_Loopback(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping network test in short mode")
	}

	s := Default()

	lfd, err := s.Socket()
	require.NoError(t, err)
	defer s.Close(lfd)

	require.NoError(t, s.Bind(lfd, netip.MustParseAddrPort("127.0.0.1:0")))
	require.NoError(t, s.Listen(lfd, 5))

	local, err := s.LocalAddr(lfd)
	require.NoError(t, err)
	require.NotZero(t, local.Port())

	cfd, err := s.Socket()
	require.NoError(t, err)
	defer s.Close(cfd)
	require.NoError(t, s.Connect(cfd, local))

	afd, peer, err := s.Accept(lfd)
	require.NoError(t, err)
	defer s.Close(afd)
	assert.Equal(t, netip.MustParseAddr("127.0.0.1"), peer.Addr())

	n, err := s.Send(cfd, []byte("Hello from client!"))
	require.NoError(t, err)
	assert.Equal(t, 18, n)

	buf := make([]byte, 64)
	n, err = s.Recv(afd, buf)
	require.NoError(t, err)
	assert.Equal(t, "Hello from client!", string(buf[:n]))

	// an orderly shutdown reads as zero bytes on the other side
	require.NoError(t, s.Shutdown(cfd))
	n, err = s.Recv(afd, buf)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestDefault_ConnectRefused(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping network test in short mode")
	}

	s := Default()

	// find a port nobody listens on
	fd, err := s.Socket()
	require.NoError(t, err)
	require.NoError(t, s.Bind(fd, netip.MustParseAddrPort("127.0.0.1:0")))
	local, err := s.LocalAddr(fd)
	require.NoError(t, err)
	require.NoError(t, s.Close(fd))

	cfd, err := s.Socket()
	require.NoError(t, err)
	defer s.Close(cfd)

	assert.ErrorIs(t, s.Connect(cfd, local), unix.ECONNREFUSED)
}
