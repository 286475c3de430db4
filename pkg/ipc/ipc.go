// Package ipc defines the handle abstraction shared by every goipc transport.
//
// A Handle is the capability table of a transport: Init, Send, Receive and
// Destroy. Transports that can produce new connections also implement
// Acceptor. Every operation blocks the calling goroutine until the underlying
// transfer completes; there are no timeouts and no cancellation. A handle is
// owned by exactly one goroutine at a time and calling its methods
// concurrently is not supported.
//
// Errors are rich (see OpError and the sentinel errors below). Callers that
// only care about the binary outcome collapse them with StatusOf.
package ipc

import (
	"errors"
	"fmt"
	"io"
	"strings"
)

// Role is the designation of a handle, fixed at construction.
type Role int

const (
	// RoleClient connects to a remote peer. Accepted connections are clients too.
	RoleClient Role = iota
	// RoleServer binds, listens and accepts.
	RoleServer
)

func (r Role) String() string {
	switch r {
	case RoleServer:
		return "server"
	case RoleClient:
		return "client"
	default:
		return fmt.Sprintf("role(%d)", int(r))
	}
}

// ParseRole parses "server" or "client" (case insensitive).
func ParseRole(s string) (Role, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "server":
		return RoleServer, nil
	case "client":
		return RoleClient, nil
	default:
		return RoleClient, fmt.Errorf("invalid role %q: must be server or client", s)
	}
}

// Handle is the set of operations every transport exposes.
type Handle interface {
	// Init performs the role-specific connection establishment step.
	// It must be called exactly once. If it fails the handle must still be destroyed.
	Init() error

	// Send performs a single underlying transfer of data and returns the
	// number of bytes the transport accepted. A short count is NOT an error:
	// there is no partial-write retry. Use SendAll for full delivery.
	Send(data []byte) (int, error)

	// Receive performs a single underlying read into buf, bounded by len(buf),
	// and returns the number of bytes placed into buf. A peer that closed the
	// connection is reported as an error wrapping ErrPeerClosed.
	Receive(buf []byte) (int, error)

	// Destroy releases the underlying resource. It must be called exactly once
	// per handle; later calls return ErrDestroyed.
	Destroy() error
}

// Acceptor is a Handle that can produce new connection handles.
type Acceptor interface {
	Handle

	// Accept blocks until an inbound connection arrives and returns a new,
	// independently owned client handle for it. On failure it returns nil and
	// the acceptor stays usable.
	Accept() (Handle, error)
}

// Accept calls Accept on h if its transport supports accepting connections.
func Accept(h Handle) (Handle, error) {
	a, ok := h.(Acceptor)
	if !ok {
		return nil, ErrAcceptUnsupported
	}
	return a.Accept()
}

// SendAll calls h.Send until every byte of data is delivered or Send fails.
// Errors are not retried. It returns the number of bytes delivered.
func SendAll(h Handle, data []byte) (int, error) {
	total := 0
	for total < len(data) {
		n, err := h.Send(data[total:])
		total += n
		if err != nil {
			return total, err
		}
		if n == 0 {
			return total, io.ErrShortWrite
		}
	}
	return total, nil
}

var (
	// ErrPeerClosed reports an orderly shutdown by the remote peer.
	ErrPeerClosed = errors.New("peer closed the connection")
	// ErrNotServer is returned when accepting on a client-role handle.
	ErrNotServer = errors.New("accept on a client handle")
	// ErrDestroyed is returned by any operation on a destroyed handle.
	ErrDestroyed = errors.New("handle destroyed")
	// ErrNotInitialized is returned when transferring data on a handle that is not connected.
	ErrNotInitialized = errors.New("handle not initialized")
	// ErrAcceptUnsupported is returned by Accept for transports without an accept operation.
	ErrAcceptUnsupported = errors.New("transport does not support accept")
	// ErrInvalidAddress is returned by factories for addresses they cannot resolve.
	ErrInvalidAddress = errors.New("invalid address")
)

// OpError describes a failed transport operation.
type OpError struct {
	Op   string // "socket", "bind", "listen", "connect", "accept", "send", "receive", "close"
	Addr string
	Err  error
}

func (e *OpError) Error() string {
	if e.Addr == "" {
		return fmt.Sprintf("%s: %s", e.Op, e.Err)
	}
	return fmt.Sprintf("%s %s: %s", e.Op, e.Addr, e.Err)
}

func (e *OpError) Unwrap() error {
	return e.Err
}
