// Package format renders addresses for user-facing messages.
package format

import (
	"net"
	"strconv"
)

// Addr formats host and port as host:port. An empty host is shown as
// 0.0.0.0, which is what a server binds to when no host is given.
func Addr(host string, port int) string {
	if host == "" {
		host = "0.0.0.0"
	}
	return net.JoinHostPort(host, strconv.Itoa(port))
}
