// Package sockets exposes the descriptor-level calls the TCP transport is
// built on: socket, bind, listen, connect, accept, send, recv, close and
// shutdown, for IPv4 stream sockets.
//
// Every call blocks the calling goroutine (and the OS thread it runs on)
// until the kernel returns. The API is an interface so tests can replace the
// kernel with the in-memory network in goipc/mocks.
package sockets

import (
	"net/netip"
)

// API is the set of socket calls used by the TCP transport.
// Descriptors are plain integers as handed out by the implementation.
type API interface {
	// Socket allocates an AF_INET stream socket.
	Socket() (int, error)
	// Bind assigns the local address addr to fd.
	Bind(fd int, addr netip.AddrPort) error
	// Listen marks fd as passive with the given backlog of pending connections.
	Listen(fd int, backlog int) error
	// Connect connects fd to the remote address addr.
	Connect(fd int, addr netip.AddrPort) error
	// Accept waits for a pending connection on fd and returns its descriptor and peer address.
	Accept(fd int) (int, netip.AddrPort, error)
	// Send transfers p in a single call and returns the number of bytes taken by the kernel.
	Send(fd int, p []byte) (int, error)
	// Recv reads into p in a single call. Zero bytes with a nil error means the peer closed.
	Recv(fd int, p []byte) (int, error)
	// Close releases fd.
	Close(fd int) error
	// Shutdown shuts down both directions of fd, waking blocked Accept and Recv calls.
	Shutdown(fd int) error
	// LocalAddr returns the address fd is bound to.
	LocalAddr(fd int) (netip.AddrPort, error)
}

// Default returns the API backed by the operating system.
func Default() API {
	return osSockets{}
}
