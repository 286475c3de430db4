// Package transport groups the concrete transports behind the ipc.Handle
// abstraction. Each transport lives in its own subpackage and exposes a
// factory that returns a handle configured for an address and a role:
//
//	// TCP/IPv4 byte-stream sockets
//	h, err := tcp.Create("0.0.0.0", 8080, ipc.RoleServer)
//	h, err := tcp.New(cfg, deps)
//
// Transports only establish connections and move bytes. How many
// connections are served at once is decided by the caller, see Handler.
package transport

import "dominicbreuker/goipc/pkg/ipc"

// Handler is a function that processes an accepted connection handle.
// It owns the handle while it runs; the handle is destroyed after the
// handler returns.
type Handler func(ipc.Handle) error
