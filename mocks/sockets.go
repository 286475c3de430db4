// Package mocks provides mock implementations for testing.
package mocks

import (
	"fmt"
	"net/netip"
	"sort"
	"sync"
	"syscall"
	"time"

	"dominicbreuker/goipc/pkg/sockets"
)

// Call records one invocation of a socket call on MockSockets.
type Call struct {
	Op      string // "socket", "bind", "listen", "connect", "accept", "send", "recv", "close", "shutdown"
	FD      int
	Addr    netip.AddrPort
	Backlog int
	Len     int
}

// MockSockets simulates the kernel's socket layer in memory. Descriptors are
// handed out from 3 upwards, connections are buffered byte streams, and every
// call is recorded so tests can assert on the exact sequence of calls.
// Failures can be scripted per operation with FailNext.
type MockSockets struct {
	mu   sync.Mutex
	cond *sync.Cond

	nextFD   int
	nextPort uint16
	fds      map[int]*mockSocket
	bound    map[netip.AddrPort]*mockSocket

	calls     []Call
	failures  map[string][]error
	sendLimit int
}

type mockSocket struct {
	fd        int
	local     netip.AddrPort
	peer      *mockSocket
	listening bool
	backlog   int
	pending   []*mockSocket
	in        []byte
	shut      bool
	closed    bool
}

var _ sockets.API = (*MockSockets)(nil)

// NewMockSockets creates an empty mock socket layer.
func NewMockSockets() *MockSockets {
	m := &MockSockets{
		nextFD:   3,
		nextPort: 40000,
		fds:      make(map[int]*mockSocket),
		bound:    make(map[netip.AddrPort]*mockSocket),
		failures: make(map[string][]error),
	}
	m.cond = sync.NewCond(&m.mu)
	return m
}

// FailNext makes the next call to op return err instead of running.
// Multiple failures for the same op are consumed in order.
func (m *MockSockets) FailNext(op string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.failures[op] = append(m.failures[op], err)
}

// SetSendLimit caps the number of bytes a single Send transfers. Zero removes the cap.
func (m *MockSockets) SetSendLimit(n int) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.sendLimit = n
}

// Calls returns all recorded calls in order.
func (m *MockSockets) Calls() []Call {
	m.mu.Lock()
	defer m.mu.Unlock()

	return append([]Call(nil), m.calls...)
}

// CallsTo returns the recorded calls of a single operation in order.
func (m *MockSockets) CallsTo(op string) []Call {
	var out []Call
	for _, c := range m.Calls() {
		if c.Op == op {
			out = append(out, c)
		}
	}
	return out
}

// Ops returns the names of all recorded calls in order.
func (m *MockSockets) Ops() []string {
	var out []string
	for _, c := range m.Calls() {
		out = append(out, c.Op)
	}
	return out
}

// OpenFDs returns the descriptors that have not been closed, in ascending order.
func (m *MockSockets) OpenFDs() []int {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []int
	for fd := range m.fds {
		out = append(out, fd)
	}
	sort.Ints(out)
	return out
}

// WaitForListener waits until a socket listens on addr or the timeout expires.
func (m *MockSockets) WaitForListener(addr netip.AddrPort, timeout time.Duration) error {
	deadline := time.Now().Add(timeout)

	m.mu.Lock()
	defer m.mu.Unlock()

	for {
		if s := m.lookupListener(addr); s != nil {
			return nil
		}
		if time.Now().After(deadline) {
			return fmt.Errorf("timeout waiting for listener on %s", addr)
		}

		// wake up periodically to check the deadline
		go func() {
			time.Sleep(10 * time.Millisecond)
			m.cond.Broadcast()
		}()
		m.cond.Wait()
	}
}

// record appends a call and returns a scripted failure for it, if any.
// Callers must hold m.mu.
func (m *MockSockets) record(c Call) error {
	m.calls = append(m.calls, c)

	queued := m.failures[c.Op]
	if len(queued) == 0 {
		return nil
	}
	m.failures[c.Op] = queued[1:]
	return queued[0]
}

func (m *MockSockets) get(fd int) (*mockSocket, error) {
	s, ok := m.fds[fd]
	if !ok {
		return nil, syscall.EBADF
	}
	return s, nil
}

func (m *MockSockets) lookupListener(addr netip.AddrPort) *mockSocket {
	if s, ok := m.bound[addr]; ok && s.listening {
		return s
	}
	wildcard := netip.AddrPortFrom(netip.IPv4Unspecified(), addr.Port())
	if s, ok := m.bound[wildcard]; ok && s.listening {
		return s
	}
	return nil
}

func (m *MockSockets) allocFD(s *mockSocket) int {
	s.fd = m.nextFD
	m.nextFD++
	m.fds[s.fd] = s
	return s.fd
}

func (m *MockSockets) ephemeral(ip netip.Addr) netip.AddrPort {
	port := m.nextPort
	m.nextPort++
	return netip.AddrPortFrom(ip, port)
}

// Socket allocates a new descriptor.
func (m *MockSockets) Socket() (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.record(Call{Op: "socket", FD: -1}); err != nil {
		return -1, err
	}
	return m.allocFD(&mockSocket{}), nil
}

// Bind assigns addr to fd. Port 0 picks a free port.
func (m *MockSockets) Bind(fd int, addr netip.AddrPort) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.record(Call{Op: "bind", FD: fd, Addr: addr}); err != nil {
		return err
	}
	s, err := m.get(fd)
	if err != nil {
		return err
	}
	if s.local.IsValid() {
		return syscall.EINVAL
	}
	if addr.Port() == 0 {
		addr = m.ephemeral(addr.Addr())
	}
	if _, used := m.bound[addr]; used {
		return syscall.EADDRINUSE
	}

	s.local = addr
	m.bound[addr] = s
	return nil
}

// Listen marks fd as listening.
func (m *MockSockets) Listen(fd int, backlog int) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.record(Call{Op: "listen", FD: fd, Backlog: backlog}); err != nil {
		return err
	}
	s, err := m.get(fd)
	if err != nil {
		return err
	}
	if !s.local.IsValid() {
		return syscall.EINVAL
	}

	s.listening = true
	s.backlog = backlog
	m.cond.Broadcast()
	return nil
}

// Connect queues a connection on the listener at addr.
func (m *MockSockets) Connect(fd int, addr netip.AddrPort) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.record(Call{Op: "connect", FD: fd, Addr: addr}); err != nil {
		return err
	}
	s, err := m.get(fd)
	if err != nil {
		return err
	}
	if s.peer != nil {
		return syscall.EISCONN
	}

	l := m.lookupListener(addr)
	if l == nil || l.shut || len(l.pending) >= l.backlog {
		return syscall.ECONNREFUSED
	}

	s.local = m.ephemeral(netip.AddrFrom4([4]byte{127, 0, 0, 1}))
	remote := &mockSocket{local: addr, peer: s}
	s.peer = remote
	l.pending = append(l.pending, remote)
	m.cond.Broadcast()

	return nil
}

// Accept blocks until a connection is pending on fd or fd is shut down.
func (m *MockSockets) Accept(fd int) (int, netip.AddrPort, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.record(Call{Op: "accept", FD: fd}); err != nil {
		return -1, netip.AddrPort{}, err
	}
	s, err := m.get(fd)
	if err != nil {
		return -1, netip.AddrPort{}, err
	}
	if !s.listening {
		return -1, netip.AddrPort{}, syscall.EINVAL
	}

	for len(s.pending) == 0 && !s.shut && !s.closed {
		m.cond.Wait()
	}
	if s.shut || s.closed {
		return -1, netip.AddrPort{}, syscall.EINVAL
	}

	c := s.pending[0]
	s.pending = s.pending[1:]
	nfd := m.allocFD(c)

	return nfd, c.peer.local, nil
}

// Send appends p (up to the send limit) to the peer's receive buffer.
func (m *MockSockets) Send(fd int, p []byte) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.record(Call{Op: "send", FD: fd, Len: len(p)}); err != nil {
		return -1, err
	}
	s, err := m.get(fd)
	if err != nil {
		return -1, err
	}
	if s.peer == nil {
		return -1, syscall.ENOTCONN
	}
	if s.shut || s.peer.closed || s.peer.shut {
		return -1, syscall.EPIPE
	}

	n := len(p)
	if m.sendLimit > 0 && n > m.sendLimit {
		n = m.sendLimit
	}
	s.peer.in = append(s.peer.in, p[:n]...)
	m.cond.Broadcast()

	return n, nil
}

// Recv blocks until data is buffered for fd, returning 0 once the peer is gone.
func (m *MockSockets) Recv(fd int, p []byte) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.record(Call{Op: "recv", FD: fd, Len: len(p)}); err != nil {
		return -1, err
	}
	s, err := m.get(fd)
	if err != nil {
		return -1, err
	}
	if s.peer == nil {
		return -1, syscall.ENOTCONN
	}

	for len(s.in) == 0 && !s.shut && !s.closed && !s.peer.closed && !s.peer.shut {
		m.cond.Wait()
	}
	if len(s.in) == 0 || len(p) == 0 {
		return 0, nil
	}

	n := copy(p, s.in)
	s.in = s.in[n:]
	return n, nil
}

// Close releases fd.
func (m *MockSockets) Close(fd int) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.record(Call{Op: "close", FD: fd}); err != nil {
		return err
	}
	s, err := m.get(fd)
	if err != nil {
		return err
	}

	s.closed = true
	delete(m.fds, fd)
	if m.bound[s.local] == s {
		delete(m.bound, s.local)
	}
	m.cond.Broadcast()

	return nil
}

// Shutdown wakes blocked calls on fd and refuses further transfers.
func (m *MockSockets) Shutdown(fd int) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.record(Call{Op: "shutdown", FD: fd}); err != nil {
		return err
	}
	s, err := m.get(fd)
	if err != nil {
		return err
	}

	s.shut = true
	m.cond.Broadcast()

	return nil
}

// LocalAddr returns the address fd is bound to.
func (m *MockSockets) LocalAddr(fd int) (netip.AddrPort, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, err := m.get(fd)
	if err != nil {
		return netip.AddrPort{}, err
	}
	return s.local, nil
}
