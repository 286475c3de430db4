//go:build !linux && !darwin

package sockets

import (
	"errors"
	"net/netip"
)

// osSockets is a placeholder on platforms without a descriptor-level implementation.
type osSockets struct{}

func (osSockets) Socket() (int, error) { return -1, errors.ErrUnsupported }
func (osSockets) Bind(int, netip.AddrPort) error { return errors.ErrUnsupported }
func (osSockets) Listen(int, int) error { return errors.ErrUnsupported }
func (osSockets) Connect(int, netip.AddrPort) error { return errors.ErrUnsupported }
func (osSockets) Send(int, []byte) (int, error) { return -1, errors.ErrUnsupported }
func (osSockets) Recv(int, []byte) (int, error) { return -1, errors.ErrUnsupported }
func (osSockets) Close(int) error { return errors.ErrUnsupported }
func (osSockets) Shutdown(int) error { return errors.ErrUnsupported }
func (osSockets) LocalAddr(int) (netip.AddrPort, error) { return netip.AddrPort{}, errors.ErrUnsupported }

func (osSockets) Accept(int) (int, netip.AddrPort, error) {
	return -1, netip.AddrPort{}, errors.ErrUnsupported
}
