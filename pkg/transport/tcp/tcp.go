// Package tcp implements the ipc.Handle abstraction over TCP/IPv4 byte-stream
// sockets, driven at the descriptor level through the sockets API.
//
// A Transport moves through these states:
//
//	created -> listening (server) | connected (client) -> destroyed
//
// Init performs the transition out of created (bind then listen with a
// backlog of 5 for servers, connect for clients). Accept on a listening
// server returns new connected client transports. All operations block the
// calling goroutine until the kernel completes them.
package tcp

import (
	"errors"
	"fmt"
	"io"
	"net/netip"
	"sync/atomic"

	"dominicbreuker/goipc/pkg/config"
	"dominicbreuker/goipc/pkg/ipc"
	"dominicbreuker/goipc/pkg/log"
	"dominicbreuker/goipc/pkg/sockets"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Backlog is the number of pending connections a listening server queues.
const Backlog = 5

// ErrInitialized is returned by Init on a handle that already left the created state.
var ErrInitialized = errors.New("handle already initialized")

var errNegativeCount = errors.New("negative byte count")

const (
	stateCreated int32 = iota
	stateActive
	stateFailed // init failed and released the descriptor
	stateDestroyed
)

// Transport is a TCP socket handle. It implements ipc.Acceptor.
type Transport struct {
	id   string
	fd   int
	addr netip.AddrPort // local address for servers, peer address for clients
	role ipc.Role

	state atomic.Int32

	sockets sockets.API
	logger  *log.Logger
}

var _ ipc.Acceptor = (*Transport)(nil)

// New creates a socket transport for the address, port and role in cfg.
// The address must be a dotted-quad IPv4 address. If resolving the address or
// allocating the descriptor fails, no transport is returned and nothing leaks.
func New(cfg *config.Config, deps *config.Dependencies) (*Transport, error) {
	addr, err := resolve(cfg.Host, cfg.Port)
	if err != nil {
		return nil, err
	}

	api := config.GetSockets(deps)
	fd, err := api.Socket()
	if err != nil {
		return nil, &ipc.OpError{Op: "socket", Addr: addr.String(), Err: err}
	}

	t := newTransport(fd, addr, cfg.Role, api, cfg.GetLogger())
	t.logger.Debug("socket created", t.fields()...)

	return t, nil
}

// Create creates a socket transport using the operating system's sockets.
func Create(address string, port uint16, role ipc.Role) (*Transport, error) {
	return New(&config.Config{Host: address, Port: int(port), Role: role}, nil)
}

func newTransport(fd int, addr netip.AddrPort, role ipc.Role, api sockets.API, logger *log.Logger) *Transport {
	return &Transport{
		id:      uuid.NewString(),
		fd:      fd,
		addr:    addr,
		role:    role,
		sockets: api,
		logger:  logger,
	}
}

func resolve(host string, port int) (netip.AddrPort, error) {
	ip, err := netip.ParseAddr(host)
	if err != nil || !ip.Is4() {
		return netip.AddrPort{}, fmt.Errorf("%w: %q is not a dotted-quad IPv4 address", ipc.ErrInvalidAddress, host)
	}
	if port < 0 || port > 65535 {
		return netip.AddrPort{}, fmt.Errorf("%w: port %d not in [0, 65535]", ipc.ErrInvalidAddress, port)
	}

	return netip.AddrPortFrom(ip, uint16(port)), nil
}

// Init binds and listens for servers, or connects for clients.
// On failure the descriptor is closed but the transport must still be destroyed.
func (t *Transport) Init() error {
	switch t.state.Load() {
	case stateCreated:
	case stateDestroyed:
		return ipc.ErrDestroyed
	default:
		return ErrInitialized
	}

	if t.role == ipc.RoleServer {
		if err := t.sockets.Bind(t.fd, t.addr); err != nil {
			return t.fail("bind", err)
		}
		t.logger.Debug("bound", t.fields()...)

		if err := t.sockets.Listen(t.fd, Backlog); err != nil {
			return t.fail("listen", err)
		}
		t.logger.Debug("listening", append(t.fields(), zap.Int("backlog", Backlog))...)
	} else {
		if err := t.sockets.Connect(t.fd, t.addr); err != nil {
			return t.fail("connect", err)
		}
		t.logger.Debug("connected", t.fields()...)
	}

	t.state.Store(stateActive)
	return nil
}

func (t *Transport) fail(op string, err error) error {
	t.state.Store(stateFailed)
	if cerr := t.sockets.Close(t.fd); cerr != nil {
		t.logger.Debug("closing after failed "+op, append(t.fields(), zap.Error(cerr))...)
	}
	t.logger.Debug(op+" failed", append(t.fields(), zap.Error(err))...)

	return &ipc.OpError{Op: op, Addr: t.addr.String(), Err: err}
}

func (t *Transport) usable() error {
	switch t.state.Load() {
	case stateActive:
		return nil
	case stateDestroyed:
		return ipc.ErrDestroyed
	default:
		return ipc.ErrNotInitialized
	}
}

// Send transfers data in a single call. It succeeds whenever the kernel
// reports a non-negative count, even if that count is less than len(data).
func (t *Transport) Send(data []byte) (int, error) {
	if err := t.usable(); err != nil {
		return 0, err
	}

	n, err := t.sockets.Send(t.fd, data)
	if err == nil && n < 0 {
		err = errNegativeCount
	}
	if err != nil {
		return 0, &ipc.OpError{Op: "send", Addr: t.addr.String(), Err: err}
	}

	return n, nil
}

// Receive reads once into buf. A zero-byte read means the peer closed the
// connection and is reported as an error wrapping ipc.ErrPeerClosed.
func (t *Transport) Receive(buf []byte) (int, error) {
	if err := t.usable(); err != nil {
		return 0, err
	}
	if len(buf) == 0 {
		return 0, &ipc.OpError{Op: "receive", Addr: t.addr.String(), Err: io.ErrShortBuffer}
	}

	n, err := t.sockets.Recv(t.fd, buf)
	if err == nil && n < 0 {
		err = errNegativeCount
	}
	if err != nil {
		return 0, &ipc.OpError{Op: "receive", Addr: t.addr.String(), Err: err}
	}
	if n == 0 {
		return 0, &ipc.OpError{Op: "receive", Addr: t.addr.String(), Err: ipc.ErrPeerClosed}
	}

	return n, nil
}

// Accept waits for an inbound connection and returns it as a new client
// transport with its own descriptor. Client transports fail with
// ipc.ErrNotServer without waiting. A failed accept leaves t usable.
func (t *Transport) Accept() (ipc.Handle, error) {
	if t.role != ipc.RoleServer {
		return nil, &ipc.OpError{Op: "accept", Addr: t.addr.String(), Err: ipc.ErrNotServer}
	}
	if err := t.usable(); err != nil {
		return nil, err
	}

	nfd, peer, err := t.sockets.Accept(t.fd)
	if err != nil {
		return nil, &ipc.OpError{Op: "accept", Addr: t.addr.String(), Err: err}
	}

	c := newTransport(nfd, peer, ipc.RoleClient, t.sockets, t.logger)
	c.state.Store(stateActive)
	c.logger.Debug("accepted", append(c.fields(), zap.String("server", t.id))...)

	return c, nil
}

// Shutdown shuts the socket down in both directions without releasing it.
// It wakes an Accept or Receive blocked in another goroutine, so the owner
// can stop a loop before calling Destroy.
func (t *Transport) Shutdown() error {
	switch t.state.Load() {
	case stateActive:
	case stateDestroyed:
		return ipc.ErrDestroyed
	default:
		return nil
	}

	if err := t.sockets.Shutdown(t.fd); err != nil {
		return &ipc.OpError{Op: "shutdown", Addr: t.addr.String(), Err: err}
	}
	return nil
}

// Destroy closes the descriptor. Only the first call has an effect; later
// calls return ipc.ErrDestroyed.
func (t *Transport) Destroy() error {
	switch t.state.Swap(stateDestroyed) {
	case stateDestroyed:
		return ipc.ErrDestroyed
	case stateFailed:
		t.logger.Debug("destroyed", t.fields()...)
		return nil
	}

	if err := t.sockets.Close(t.fd); err != nil {
		return &ipc.OpError{Op: "close", Addr: t.addr.String(), Err: err}
	}
	t.logger.Debug("destroyed", t.fields()...)

	return nil
}

// Role returns the role fixed at construction.
func (t *Transport) Role() ipc.Role {
	return t.role
}

// ID returns a unique identifier of this transport, used in log events.
func (t *Transport) ID() string {
	return t.id
}

// RemoteAddr returns the peer address of a client transport and the
// configured address of a server.
func (t *Transport) RemoteAddr() netip.AddrPort {
	return t.addr
}

// LocalAddr returns the address the socket is bound to. For servers bound to
// port 0 it reports the port chosen by the kernel.
func (t *Transport) LocalAddr() (netip.AddrPort, error) {
	if err := t.usable(); err != nil {
		return netip.AddrPort{}, err
	}

	addr, err := t.sockets.LocalAddr(t.fd)
	if err != nil {
		return netip.AddrPort{}, &ipc.OpError{Op: "getsockname", Err: err}
	}
	return addr, nil
}

func (t *Transport) String() string {
	return fmt.Sprintf("tcp %s %s", t.role, t.addr)
}

func (t *Transport) fields() []zap.Field {
	return []zap.Field{
		zap.String("id", t.id),
		zap.Int("fd", t.fd),
		zap.Stringer("role", t.role),
		zap.Stringer("addr", t.addr),
	}
}
