//go:build linux || darwin

package sockets

import (
	"fmt"
	"net/netip"

	"golang.org/x/sys/unix"
)

type osSockets struct{}

func (osSockets) Socket() (int, error) {
	fd, err := unix.Socket(unix.AF_INET, unix.SOCK_STREAM, 0)
	if err != nil {
		return -1, err
	}
	unix.CloseOnExec(fd)
	return fd, nil
}

func (osSockets) Bind(fd int, addr netip.AddrPort) error {
	return unix.Bind(fd, toSockaddr(addr))
}

func (osSockets) Listen(fd int, backlog int) error {
	return unix.Listen(fd, backlog)
}

func (osSockets) Connect(fd int, addr netip.AddrPort) error {
	err := unix.Connect(fd, toSockaddr(addr))
	if err != unix.EINTR {
		return err
	}

	// the handshake continues in the kernel after an interrupted connect
	return waitConnected(fd)
}

func (osSockets) Accept(fd int) (int, netip.AddrPort, error) {
	for {
		nfd, sa, err := unix.Accept(fd)
		if err == unix.EINTR {
			continue
		}
		if err != nil {
			return -1, netip.AddrPort{}, err
		}
		unix.CloseOnExec(nfd)
		return nfd, fromSockaddr(sa), nil
	}
}

func (osSockets) Send(fd int, p []byte) (int, error) {
	for {
		n, err := unix.Write(fd, p)
		if err == unix.EINTR {
			continue
		}
		if err != nil {
			return -1, err
		}
		return n, nil
	}
}

func (osSockets) Recv(fd int, p []byte) (int, error) {
	for {
		n, err := unix.Read(fd, p)
		if err == unix.EINTR {
			continue
		}
		if err != nil {
			return -1, err
		}
		return n, nil
	}
}

func (osSockets) Close(fd int) error {
	return unix.Close(fd)
}

func (osSockets) Shutdown(fd int) error {
	return unix.Shutdown(fd, unix.SHUT_RDWR)
}

func (osSockets) LocalAddr(fd int) (netip.AddrPort, error) {
	sa, err := unix.Getsockname(fd)
	if err != nil {
		return netip.AddrPort{}, err
	}
	return fromSockaddr(sa), nil
}

func waitConnected(fd int) error {
	fds := []unix.PollFd{{Fd: int32(fd), Events: unix.POLLOUT}}
	for {
		_, err := unix.Poll(fds, -1)
		if err == unix.EINTR {
			continue
		}
		if err != nil {
			return fmt.Errorf("poll: %w", err)
		}
		break
	}

	soErr, err := unix.GetsockoptInt(fd, unix.SOL_SOCKET, unix.SO_ERROR)
	if err != nil {
		return fmt.Errorf("getsockopt(SO_ERROR): %w", err)
	}
	if soErr != 0 {
		return unix.Errno(soErr)
	}
	return nil
}

func toSockaddr(addr netip.AddrPort) *unix.SockaddrInet4 {
	return &unix.SockaddrInet4{
		Port: int(addr.Port()),
		Addr: addr.Addr().As4(),
	}
}

func fromSockaddr(sa unix.Sockaddr) netip.AddrPort {
	if in4, ok := sa.(*unix.SockaddrInet4); ok {
		return netip.AddrPortFrom(netip.AddrFrom4(in4.Addr), uint16(in4.Port))
	}
	return netip.AddrPort{}
}
